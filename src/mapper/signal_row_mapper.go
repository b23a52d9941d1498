package mapper

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"signaltracker/src/model"
)

// SignalRow is one tabular import row with every cell still raw text.
type SignalRow struct {
	Name        string
	ChannelName string
	Symbol      string
	Exchange    string
	TakeProfit  string
	StopLoss    string
	TargetPrice string
	Condition   string
	Active      string
}

var conditionAliases = map[string]model.SignalCondition{
	"above":          model.ConditionAbove,
	"below":          model.ConditionBelow,
	"equal":          model.ConditionEqual,
	"percent_change": model.ConditionPercentChange,
	">":              model.ConditionAbove,
	"<":              model.ConditionBelow,
	"=":              model.ConditionEqual,
}

// MapRowToSignal converts a raw import row into a signal, applying the
// import defaults: exchange binance, condition above, target price falling
// back to the take-profit. Returns a ValidationError for anything the row
// gets wrong; the caller decides whether to skip or abort.
func MapRowToSignal(row SignalRow) (*model.Signal, error) {
	channelName := strings.TrimSpace(row.ChannelName)
	if channelName == "" {
		return nil, fmt.Errorf("%w: missing channel_name", model.ErrValidation)
	}

	symbol := strings.ToUpper(strings.TrimSpace(row.Symbol))
	if symbol == "" {
		return nil, fmt.Errorf("%w: missing symbol", model.ErrValidation)
	}

	takeProfit, err := parsePrice("take_profit", row.TakeProfit)
	if err != nil {
		return nil, err
	}
	stopLoss, err := parsePrice("stop_loss", row.StopLoss)
	if err != nil {
		return nil, err
	}
	if takeProfit.LessThanOrEqual(stopLoss) {
		return nil, fmt.Errorf("%w: take_profit must be above stop_loss", model.ErrValidation)
	}

	targetPrice := takeProfit
	if strings.TrimSpace(row.TargetPrice) != "" {
		targetPrice, err = parsePrice("target_price", row.TargetPrice)
		if err != nil {
			return nil, err
		}
	}

	exchange := model.ExchangeBinance
	if e := strings.ToLower(strings.TrimSpace(row.Exchange)); e != "" {
		exchange = model.ExchangeType(e)
	}

	condition := model.ConditionAbove
	if c := strings.ToLower(strings.TrimSpace(row.Condition)); c != "" {
		mapped, ok := conditionAliases[c]
		if !ok {
			return nil, fmt.Errorf("%w: unknown condition %q", model.ErrValidation, row.Condition)
		}
		condition = mapped
	}

	name := strings.TrimSpace(row.Name)
	if name == "" {
		name = fmt.Sprintf("%s - %s", symbol, channelName)
	}

	sig := &model.Signal{
		Name:        name,
		ChannelName: channelName,
		Symbol:      symbol,
		Exchange:    exchange,
		TargetPrice: &targetPrice,
		Condition:   condition,
		TakeProfit:  &takeProfit,
		StopLoss:    &stopLoss,
		Status:      model.StatusActive,
		Outcome:     model.OutcomePending,
	}

	logger.WithFields(map[string]interface{}{
		"mapper":  "MapRowToSignal",
		"name":    name,
		"channel": channelName,
		"symbol":  symbol,
	}).Debug("Import row mapped to signal")

	return sig, nil
}

// RowActive interprets the optional active cell; blank means true.
func RowActive(value string) bool {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "", "TRUE", "YES", "1", "Y":
		return true
	}
	return false
}

func parsePrice(field, value string) (decimal.Decimal, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return decimal.Zero, fmt.Errorf("%w: missing %s", model.ErrValidation, field)
	}
	price, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid %s %q", model.ErrValidation, field, value)
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("%w: %s must be positive", model.ErrValidation, field)
	}
	return price, nil
}
