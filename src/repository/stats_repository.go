package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"signaltracker/src/database"
	"signaltracker/src/model"
)

// StatsRepository persists channel statistics snapshots. Snapshots are a
// convenience for cheap reads; the signal set stays the source of truth and
// a snapshot must always match a fresh recomputation.
type StatsRepository struct {
	db *gorm.DB
}

// NewStatsRepository creates a new repository instance using the main
// read/write database.
func NewStatsRepository() *StatsRepository {
	logger.WithField("component", "StatsRepository").
		Info("Creating new StatsRepository with MainDB")

	return &StatsRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *StatsRepository) WithDB(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// SaveSnapshot upserts one channel's statistics snapshot, keyed by
// channel_name.
func (r *StatsRepository) SaveSnapshot(
	ctx context.Context,
	stats *model.ChannelStatistics,
) error {

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "channel_name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"channel_id", "total_signals", "active_signals", "closed_signals",
			"wins", "losses", "pending", "winrate", "last_updated",
		}),
	}).Create(stats).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "StatsRepository",
			"op":      "SaveSnapshot",
			"channel": stats.ChannelName,
		}).WithError(err).Error("Failed to save stats snapshot")
		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":    "StatsRepository",
		"op":      "SaveSnapshot",
		"channel": stats.ChannelName,
		"winrate": stats.Winrate,
	}).Debug("Stats snapshot saved")

	return nil
}

// FindByChannel fetches the stored snapshot for one channel.
// Returns (nil, nil) if no snapshot has been taken yet.
func (r *StatsRepository) FindByChannel(
	ctx context.Context,
	channelName string,
) (*model.ChannelStatistics, error) {

	var stats model.ChannelStatistics

	err := r.db.WithContext(ctx).
		Where("channel_name = ?", channelName).
		First(&stats).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // not found is not an error
		}
		logger.WithFields(map[string]interface{}{
			"repo":    "StatsRepository",
			"op":      "FindByChannel",
			"channel": channelName,
		}).WithError(err).Error("Failed to fetch stats snapshot")
		return nil, err
	}

	return &stats, nil
}

// FindAll fetches every stored snapshot.
func (r *StatsRepository) FindAll(ctx context.Context) ([]model.ChannelStatistics, error) {
	var all []model.ChannelStatistics

	err := r.db.WithContext(ctx).
		Order("channel_name ASC").
		Find(&all).Error

	if err != nil {
		logger.WithField("repo", "StatsRepository").
			WithError(err).Error("Failed to fetch stats snapshots")
		return nil, err
	}

	return all, nil
}
