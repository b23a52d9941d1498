package stats

import (
	"context"
	"time"

	logger "github.com/sirupsen/logrus"

	"signaltracker/src/model"
)

// OverallChannelName keys the system-wide aggregate in overall stats.
const OverallChannelName = "__overall__"

type signalSource interface {
	FindByChannel(ctx context.Context, channelName string) ([]model.Signal, error)
	FindAll(ctx context.Context) ([]model.Signal, error)
}

// Calculator derives channel statistics from the live signal set. It is a
// pure read-side computation over a snapshot of the store: there are no
// incremental counters, and every result is disposable.
type Calculator struct {
	signals signalSource
}

func NewCalculator(signals signalSource) *Calculator {
	return &Calculator{signals: signals}
}

// CalculateChannelStats recomputes the statistics for a single channel from
// scratch.
func (c *Calculator) CalculateChannelStats(ctx context.Context, channelName string) (*model.ChannelStatistics, error) {
	signals, err := c.signals.FindByChannel(ctx, channelName)
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"component": "Calculator",
			"op":        "CalculateChannelStats",
			"channel":   channelName,
		}).WithError(err).Error("Failed to load signals for channel")
		return nil, err
	}

	stats := bucketSignals(channelName, signals)

	logger.WithFields(map[string]interface{}{
		"component": "Calculator",
		"channel":   channelName,
		"total":     stats.TotalSignals,
		"wins":      stats.Wins,
		"losses":    stats.Losses,
		"winrate":   stats.Winrate,
	}).Debug("Calculated channel stats")

	return stats, nil
}

// CalculateAllStats recomputes statistics for every channel that has at
// least one signal, in a single pass over the full signal set.
func (c *Calculator) CalculateAllStats(ctx context.Context) (map[string]*model.ChannelStatistics, error) {
	signals, err := c.signals.FindAll(ctx)
	if err != nil {
		logger.WithField("component", "Calculator").
			WithError(err).Error("Failed to load signals")
		return nil, err
	}

	byChannel := make(map[string][]model.Signal)
	for i := range signals {
		byChannel[signals[i].ChannelName] = append(byChannel[signals[i].ChannelName], signals[i])
	}

	out := make(map[string]*model.ChannelStatistics, len(byChannel))
	for name, group := range byChannel {
		out[name] = bucketSignals(name, group)
	}
	return out, nil
}

// OverallStats aggregates every signal in the system into one
// ChannelStatistics-shaped value.
func (c *Calculator) OverallStats(ctx context.Context) (*model.ChannelStatistics, error) {
	signals, err := c.signals.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return bucketSignals(OverallChannelName, signals), nil
}

// ChannelRank is a best/worst ranking entry.
type ChannelRank struct {
	ChannelName   string  `json:"channel_name"`
	Winrate       float64 `json:"winrate"`
	ClosedSignals int     `json:"closed_signals"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
}

// BestChannel returns the channel with the highest winrate. Channels with
// no closed signals have an undefined winrate and are excluded; if no
// channel qualifies the result is (nil, nil).
func (c *Calculator) BestChannel(ctx context.Context) (*ChannelRank, error) {
	return c.rank(ctx, true)
}

// WorstChannel is the inverse of BestChannel, with the same exclusions.
func (c *Calculator) WorstChannel(ctx context.Context) (*ChannelRank, error) {
	return c.rank(ctx, false)
}

func (c *Calculator) rank(ctx context.Context, best bool) (*ChannelRank, error) {
	all, err := c.CalculateAllStats(ctx)
	if err != nil {
		return nil, err
	}

	var pick *model.ChannelStatistics
	for _, stats := range all {
		if stats.ClosedSignals == 0 {
			continue
		}
		if pick == nil || better(stats, pick, best) {
			pick = stats
		}
	}
	if pick == nil {
		return nil, nil
	}
	return &ChannelRank{
		ChannelName:   pick.ChannelName,
		Winrate:       pick.Winrate,
		ClosedSignals: pick.ClosedSignals,
		Wins:          pick.Wins,
		Losses:        pick.Losses,
	}, nil
}

// better reports whether a should replace b in the ranking. Ties break on
// higher closed-signal count, then lexicographically by name so repeated
// runs over the same data always agree.
func better(a, b *model.ChannelStatistics, best bool) bool {
	if a.Winrate != b.Winrate {
		if best {
			return a.Winrate > b.Winrate
		}
		return a.Winrate < b.Winrate
	}
	if a.ClosedSignals != b.ClosedSignals {
		return a.ClosedSignals > b.ClosedSignals
	}
	return a.ChannelName < b.ChannelName
}

// bucketSignals does the single counting pass. Closed signals split into
// wins and losses; everything not closed still has a pending outcome, with
// active ones also counted separately.
func bucketSignals(channelName string, signals []model.Signal) *model.ChannelStatistics {
	stats := &model.ChannelStatistics{
		ChannelID:    model.ChannelIDForName(channelName),
		ChannelName:  channelName,
		TotalSignals: len(signals),
	}

	for i := range signals {
		sig := &signals[i]
		switch sig.Status {
		case model.StatusClosed:
			stats.ClosedSignals++
			switch sig.Outcome {
			case model.OutcomeWin:
				stats.Wins++
			case model.OutcomeLoss:
				stats.Losses++
			}
		case model.StatusActive:
			stats.ActiveSignals++
			stats.Pending++
		default:
			// triggered, paused, expired
			if sig.Outcome == model.OutcomePending || sig.Outcome == "" {
				stats.Pending++
			}
		}
	}

	stats.Refresh(time.Now().UTC())
	return stats
}
