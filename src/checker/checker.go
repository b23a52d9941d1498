package checker

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"signaltracker/src/model"
	"signaltracker/src/resolution"
	"signaltracker/src/stats"
)

type signalStore interface {
	FindActive(ctx context.Context) ([]model.Signal, error)
	UpdateResolved(ctx context.Context, sig *model.Signal, prevUpdatedAt time.Time) error
}

type snapshotStore interface {
	SaveSnapshot(ctx context.Context, stats *model.ChannelStatistics) error
}

type priceGetter interface {
	GetCurrentPrice(ctx context.Context, symbol string, exchange model.ExchangeType) (decimal.Decimal, error)
}

// Checker drives one evaluation cycle: fetch a fresh price per active
// signal, run the resolution engine, persist transitions and refresh the
// statistics of affected channels. Scheduling is left to the caller.
type Checker struct {
	signals    signalStore
	prices     priceGetter
	calculator *stats.Calculator
	cache      *stats.Cache
	snapshots  snapshotStore
	locks      *keyedMutex
}

func NewChecker(
	signals signalStore,
	prices priceGetter,
	calculator *stats.Calculator,
	cache *stats.Cache,
	snapshots snapshotStore,
) *Checker {
	return &Checker{
		signals:    signals,
		prices:     prices,
		calculator: calculator,
		cache:      cache,
		snapshots:  snapshots,
		locks:      newKeyedMutex(),
	}
}

// CycleResult summarizes one evaluation pass.
type CycleResult struct {
	Checked   int
	Closed    int
	Wins      int
	Losses    int
	Expired   int
	Triggered int
	Skipped   int
}

type priceKey struct {
	exchange model.ExchangeType
	symbol   string
}

// RunCycle evaluates all active signals against fresh prices. A failed
// price fetch skips the signal without mutating it; a lost update race
// leaves the record to the writer that won and retries next cycle.
func (c *Checker) RunCycle(ctx context.Context) (CycleResult, error) {
	var result CycleResult

	signals, err := c.signals.FindActive(ctx)
	if err != nil {
		logger.WithField("component", "Checker").
			WithError(err).Error("Failed to load active signals")
		return result, err
	}

	if len(signals) == 0 {
		logger.WithField("component", "Checker").Info("No active signals to check")
		return result, nil
	}

	prices := c.fetchPrices(ctx, signals)

	affected := make(map[string]struct{})

	for i := range signals {
		sig := &signals[i]
		result.Checked++

		price, ok := prices[priceKey{exchange: sig.Exchange, symbol: sig.Symbol}]
		if !ok {
			result.Skipped++
			continue
		}

		mutated, err := c.evaluateOne(ctx, sig, price, &result)
		if err != nil {
			if errors.Is(err, model.ErrConcurrentModification) {
				logger.WithFields(map[string]interface{}{
					"component": "Checker",
					"signal_id": sig.ID,
				}).Warn("Concurrent modification, deferring to next cycle")
				result.Skipped++
				continue
			}
			return result, err
		}
		if mutated {
			affected[sig.ChannelName] = struct{}{}
		}
	}

	if err := c.refreshStats(ctx, affected); err != nil {
		return result, err
	}

	logger.WithFields(map[string]interface{}{
		"component": "Checker",
		"checked":   result.Checked,
		"closed":    result.Closed,
		"wins":      result.Wins,
		"losses":    result.Losses,
		"expired":   result.Expired,
		"skipped":   result.Skipped,
	}).Info("Signal check cycle completed")

	return result, nil
}

// fetchPrices gets each (exchange, symbol) price exactly once per cycle.
func (c *Checker) fetchPrices(ctx context.Context, signals []model.Signal) map[priceKey]decimal.Decimal {
	prices := make(map[priceKey]decimal.Decimal)
	failed := make(map[priceKey]struct{})

	for i := range signals {
		key := priceKey{exchange: signals[i].Exchange, symbol: signals[i].Symbol}
		if _, ok := prices[key]; ok {
			continue
		}
		if _, ok := failed[key]; ok {
			continue
		}

		price, err := c.prices.GetCurrentPrice(ctx, key.symbol, key.exchange)
		if err != nil {
			// Transient by definition: skip this cycle, retry on the next.
			failed[key] = struct{}{}
			continue
		}
		prices[key] = price
	}

	return prices
}

// evaluateOne runs the engine for one signal under its per-id lock and
// persists any transition. Returns whether the signal was mutated.
func (c *Checker) evaluateOne(
	ctx context.Context,
	sig *model.Signal,
	price decimal.Decimal,
	result *CycleResult,
) (bool, error) {

	unlock := c.locks.Lock(sig.ID)
	defer unlock()

	decision := resolution.Evaluate(sig, price)
	if decision.Transition == resolution.NoChange && !decision.EntryTriggered {
		return false, nil
	}

	prevUpdatedAt := sig.UpdatedAt
	resolution.Apply(sig, price, decision, time.Now().UTC())

	if err := c.signals.UpdateResolved(ctx, sig, prevUpdatedAt); err != nil {
		return false, err
	}

	switch decision.Transition {
	case resolution.CloseAsWin:
		result.Closed++
		result.Wins++
	case resolution.CloseAsLoss:
		result.Closed++
		result.Losses++
	case resolution.Expire:
		result.Expired++
	case resolution.NoChange:
		result.Triggered++
	}

	logger.WithFields(map[string]interface{}{
		"component":  "Checker",
		"signal_id":  sig.ID,
		"channel":    sig.ChannelName,
		"symbol":     sig.Symbol,
		"price":      price.String(),
		"transition": string(decision.Transition),
	}).Info("Signal evaluated")

	return true, nil
}

// refreshStats recomputes, caches and snapshots statistics for every
// channel touched this cycle. The cache entry is dropped first so readers
// never see a pre-mutation snapshot.
func (c *Checker) refreshStats(ctx context.Context, channels map[string]struct{}) error {
	for name := range channels {
		c.cache.Invalidate(name)

		fresh, err := c.calculator.CalculateChannelStats(ctx, name)
		if err != nil {
			return err
		}
		c.cache.Put(*fresh)

		if err := c.snapshots.SaveSnapshot(ctx, fresh); err != nil {
			return err
		}

		logger.WithFields(map[string]interface{}{
			"component": "Checker",
			"channel":   name,
			"winrate":   fresh.Winrate,
		}).Info("Channel statistics refreshed")
	}
	return nil
}
