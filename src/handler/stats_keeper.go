package handler

import (
	"context"

	logger "github.com/sirupsen/logrus"

	"signaltracker/src/model"
	"signaltracker/src/stats"
)

type channelStatsCalculator interface {
	CalculateChannelStats(ctx context.Context, channelName string) (*model.ChannelStatistics, error)
}

type snapshotStore interface {
	SaveSnapshot(ctx context.Context, stats *model.ChannelStatistics) error
	FindByChannel(ctx context.Context, channelName string) (*model.ChannelStatistics, error)
	FindAll(ctx context.Context) ([]model.ChannelStatistics, error)
}

// StatsKeeper bundles the statistics collaborators the HTTP surface
// shares: the calculator, the in-process cache and the persisted snapshots
// that hand results between this process and the checker. Both processes
// refresh the snapshot of every channel they mutate, so a snapshot younger
// than the cache window is as good as a recomputation.
type StatsKeeper struct {
	Calculator channelStatsCalculator
	Snapshots  snapshotStore
	Cache      *stats.Cache
}

// channelStats serves one channel's statistics: the in-process cache
// first, then a fresh-enough persisted snapshot, then a full recomputation
// that repopulates both.
func (k StatsKeeper) channelStats(ctx context.Context, channelName string) (*model.ChannelStatistics, error) {
	if cached, ok := k.Cache.Get(channelName); ok {
		return &cached, nil
	}

	snap, err := k.Snapshots.FindByChannel(ctx, channelName)
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"component": "StatsKeeper",
			"channel":   channelName,
		}).WithError(err).Warn("Failed to read stats snapshot, recomputing")
	} else if snap != nil && k.Cache.Fresh(snap.LastUpdated) {
		k.Cache.Put(*snap)
		return snap, nil
	}

	return k.recompute(ctx, channelName)
}

// recompute recalculates one channel from the live signal set and
// publishes the result to the cache and the snapshot table.
func (k StatsKeeper) recompute(ctx context.Context, channelName string) (*model.ChannelStatistics, error) {
	fresh, err := k.Calculator.CalculateChannelStats(ctx, channelName)
	if err != nil {
		return nil, err
	}
	k.Cache.Put(*fresh)
	k.persist(ctx, fresh)
	return fresh, nil
}

// refresh replaces a channel's statistics after a signal mutation. The
// mutation already landed, so a failed recomputation only logs: the stale
// cache entry is gone and the next reader recomputes for itself.
func (k StatsKeeper) refresh(ctx context.Context, channelName string) {
	k.Cache.Invalidate(channelName)

	if _, err := k.recompute(ctx, channelName); err != nil {
		logger.WithFields(map[string]interface{}{
			"component": "StatsKeeper",
			"channel":   channelName,
		}).WithError(err).Warn("Failed to refresh channel statistics")
	}
}

// snapshotIndex loads every persisted snapshot keyed by channel name. Best
// effort: a read failure yields an empty index and stats are recomputed.
func (k StatsKeeper) snapshotIndex(ctx context.Context) map[string]model.ChannelStatistics {
	all, err := k.Snapshots.FindAll(ctx)
	if err != nil {
		logger.WithField("component", "StatsKeeper").
			WithError(err).Warn("Failed to read stats snapshots")
		return nil
	}

	index := make(map[string]model.ChannelStatistics, len(all))
	for _, snap := range all {
		index[snap.ChannelName] = snap
	}
	return index
}

// persist writes the snapshot row. Channels without any signal never get
// one, so probing an unknown channel name leaves no trace.
func (k StatsKeeper) persist(ctx context.Context, stats *model.ChannelStatistics) {
	if stats.TotalSignals == 0 {
		return
	}
	if err := k.Snapshots.SaveSnapshot(ctx, stats); err != nil {
		logger.WithFields(map[string]interface{}{
			"component": "StatsKeeper",
			"channel":   stats.ChannelName,
		}).WithError(err).Warn("Failed to save stats snapshot")
	}
}
