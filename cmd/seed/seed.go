package seed

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"signaltracker/src/database"
	"signaltracker/src/model"
	"signaltracker/src/repository"
	"signaltracker/src/stats"
)

// Seeder populates the database with demo channels and signals so the
// stats endpoints have something to show on a fresh install.
type Seeder struct{}

type demoChannel struct {
	name        string
	url         string
	description string
}

type demoSignal struct {
	name    string
	symbol  string
	tp      string
	sl      string
	outcome model.SignalOutcome // empty for still-active signals
}

var demoChannels = []demoChannel{
	{"VIP Crypto Signals", "https://t.me/vip_crypto_signals", "Premium crypto trading signals with high accuracy"},
	{"Budget Trading Channel", "https://t.me/budget_trading", "Free community signals for beginners"},
	{"Pro Traders Hub", "https://t.me/pro_traders_hub", "Professional trading strategies"},
}

// Closed history per channel: VIP 7W/3L, Budget 4W/6L, Pro 8W/2L.
var demoSignals = map[string][]demoSignal{
	"VIP Crypto Signals": {
		{"BTC Long Position", "BTCUSDT", "95000", "85000", ""},
		{"ETH Breakout Trade", "ETHUSDT", "3800", "3200", ""},
		{"BTC Moon Shot", "BTCUSDT", "52000", "48000", model.OutcomeWin},
		{"ETH Rally", "ETHUSDT", "3500", "3000", model.OutcomeWin},
		{"BNB Pump", "BNBUSDT", "600", "550", model.OutcomeWin},
		{"ADA Breakout", "ADAUSDT", "1.5", "1.0", model.OutcomeWin},
		{"DOT Long", "DOTUSDT", "40", "30", model.OutcomeWin},
		{"MATIC Trade", "MATICUSDT", "2.0", "1.5", model.OutcomeWin},
		{"LINK Signal", "LINKUSDT", "25", "20", model.OutcomeWin},
		{"XRP Trade", "XRPUSDT", "1.0", "0.8", model.OutcomeLoss},
		{"TRX Signal", "TRXUSDT", "0.15", "0.10", model.OutcomeLoss},
		{"DOGE Trade", "DOGEUSDT", "0.30", "0.20", model.OutcomeLoss},
	},
	"Budget Trading Channel": {
		{"BNB Scalp", "BNBUSDT", "650", "580", ""},
		{"BTC Quick", "BTCUSDT", "51000", "49000", model.OutcomeWin},
		{"ETH Scalp", "ETHUSDT", "3300", "3100", model.OutcomeWin},
		{"BNB Day", "BNBUSDT", "580", "560", model.OutcomeWin},
		{"SOL Fast", "SOLUSDT", "200", "180", model.OutcomeWin},
		{"AVAX Loss", "AVAXUSDT", "100", "80", model.OutcomeLoss},
		{"ATOM Bad", "ATOMUSDT", "15", "12", model.OutcomeLoss},
		{"NEAR Miss", "NEARUSDT", "10", "8", model.OutcomeLoss},
		{"FTM Fail", "FTMUSDT", "2.0", "1.5", model.OutcomeLoss},
		{"SAND Down", "SANDUSDT", "3.0", "2.0", model.OutcomeLoss},
		{"MANA Loss", "MANAUSDT", "2.5", "1.8", model.OutcomeLoss},
	},
	"Pro Traders Hub": {
		{"SOL Long Setup", "SOLUSDT", "250", "180", ""},
		{"BTC Pro", "BTCUSDT", "53000", "49000", model.OutcomeWin},
		{"ETH Pro", "ETHUSDT", "3600", "3200", model.OutcomeWin},
		{"BNB Pro", "BNBUSDT", "620", "580", model.OutcomeWin},
		{"SOL Pro", "SOLUSDT", "220", "190", model.OutcomeWin},
		{"AVAX Pro", "AVAXUSDT", "110", "95", model.OutcomeWin},
		{"ATOM Pro", "ATOMUSDT", "18", "14", model.OutcomeWin},
		{"DOT Pro", "DOTUSDT", "42", "35", model.OutcomeWin},
		{"LINK Pro", "LINKUSDT", "27", "22", model.OutcomeWin},
		{"XRP Bad", "XRPUSDT", "0.95", "0.85", model.OutcomeLoss},
		{"ADA Bad", "ADAUSDT", "1.3", "1.1", model.OutcomeLoss},
	},
}

// Start inserts the demo data set and prints the resulting per-channel
// statistics. Existing channels are left untouched, so the command is safe
// to run more than once (the signals are re-inserted though).
func (t *Seeder) Start() error {
	ctx := context.Background()

	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to main database")
		return err
	}

	signals := repository.NewSignalRepository()
	channels := repository.NewChannelRepository()
	snapshots := repository.NewStatsRepository()
	calculator := stats.NewCalculator(signals)

	for _, ch := range demoChannels {
		err := channels.Create(ctx, &model.Channel{
			Name:        ch.name,
			TelegramURL: ch.url,
			Description: ch.description,
			IsActive:    true,
		})
		if err != nil && !errors.Is(err, model.ErrValidation) {
			return err
		}
	}

	now := time.Now().UTC()

	for channelName, sigs := range demoSignals {
		for _, d := range sigs {
			sig, err := buildDemoSignal(channelName, d, now)
			if err != nil {
				return err
			}
			if err := signals.Create(ctx, sig); err != nil {
				return err
			}
		}
	}

	all, err := calculator.CalculateAllStats(ctx)
	if err != nil {
		return err
	}
	for _, st := range all {
		if err := snapshots.SaveSnapshot(ctx, st); err != nil {
			return err
		}
		logrus.WithFields(map[string]interface{}{
			"channel": st.ChannelName,
			"total":   st.TotalSignals,
			"closed":  st.ClosedSignals,
			"wins":    st.Wins,
			"losses":  st.Losses,
			"winrate": st.Winrate,
		}).Info("Seeded channel")
	}

	return nil
}

func buildDemoSignal(channelName string, d demoSignal, now time.Time) (*model.Signal, error) {
	tp, err := decimal.NewFromString(d.tp)
	if err != nil {
		return nil, err
	}
	sl, err := decimal.NewFromString(d.sl)
	if err != nil {
		return nil, err
	}

	sig := &model.Signal{
		Name:        d.name,
		ChannelName: channelName,
		Symbol:      d.symbol,
		Exchange:    model.ExchangeBinance,
		TargetPrice: &tp,
		Condition:   model.ConditionAbove,
		TakeProfit:  &tp,
		StopLoss:    &sl,
	}

	if d.outcome != "" {
		closedAt := now
		sig.Status = model.StatusClosed
		sig.Outcome = d.outcome
		sig.ClosedAt = &closedAt
	}

	return sig, nil
}
