package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"signaltracker/src/database"
	"signaltracker/src/model"
)

// SignalRepository handles read/write operations for signals and their
// take-profit ladder rungs. It is the only owner of persisted signal
// records.
type SignalRepository struct {
	db *gorm.DB
}

// NewSignalRepository creates a new repository instance using the main
// read/write database.
func NewSignalRepository() *SignalRepository {
	logger.WithField("component", "SignalRepository").
		Info("Creating new SignalRepository with MainDB")

	return &SignalRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *SignalRepository) WithDB(db *gorm.DB) *SignalRepository {
	logger.WithField("component", "SignalRepository").
		Debug("Creating SignalRepository with custom DB instance")

	return &SignalRepository{db: db}
}

// Create validates and inserts a new signal. A missing ID is assigned at
// creation and never reused; invalid signals are never partially persisted.
func (r *SignalRepository) Create(
	ctx context.Context,
	sig *model.Signal,
) error {

	if sig.Status == "" {
		sig.Status = model.StatusActive
	}
	if sig.Outcome == "" {
		sig.Outcome = model.OutcomePending
	}
	if sig.Condition == "" {
		sig.Condition = model.ConditionAbove
	}

	if err := sig.Validate(); err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "SignalRepository",
			"op":      "Create",
			"channel": sig.ChannelName,
			"symbol":  sig.Symbol,
		}).WithError(err).Warn("Rejected invalid signal")
		return err
	}

	if sig.ID == "" {
		sig.ID = uuid.NewString()
	}
	for i := range sig.Targets {
		sig.Targets[i].SignalID = sig.ID
		sig.Targets[i].Rank = i + 1
	}

	logger.WithFields(map[string]interface{}{
		"repo":    "SignalRepository",
		"op":      "Create",
		"id":      sig.ID,
		"channel": sig.ChannelName,
		"symbol":  sig.Symbol,
	}).Debug("Creating new signal")

	err := r.db.WithContext(ctx).Create(sig).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: signal id %s already exists", model.ErrValidation, sig.ID)
		}
		logger.WithFields(map[string]interface{}{
			"repo": "SignalRepository",
			"op":   "Create",
		}).WithError(err).Error("Failed to create signal")
		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":    "SignalRepository",
		"op":      "Create",
		"id":      sig.ID,
		"channel": sig.ChannelName,
	}).Info("Signal created successfully")

	return nil
}

// FindByID fetches a single signal with its ladder by primary ID.
// Returns (nil, nil) if not found.
func (r *SignalRepository) FindByID(
	ctx context.Context,
	id string,
) (*model.Signal, error) {

	var sig model.Signal

	err := r.db.WithContext(ctx).
		Preload("Targets", func(db *gorm.DB) *gorm.DB { return db.Order("rank ASC") }).
		Where("id = ?", id).
		First(&sig).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WithFields(map[string]interface{}{
				"repo": "SignalRepository",
				"op":   "FindByID",
				"id":   id,
			}).Info("Signal not found")
			return nil, nil // not found is not an error
		}

		logger.WithFields(map[string]interface{}{
			"repo": "SignalRepository",
			"op":   "FindByID",
			"id":   id,
		}).WithError(err).Error("Failed to fetch signal by ID")

		return nil, err
	}

	return &sig, nil
}

// SignalSearchOptions narrows a Search call. Zero values mean "no filter".
type SignalSearchOptions struct {
	ChannelName string
	Symbol      string
	Exchange    model.ExchangeType
	Status      model.SignalStatus
	Outcome     model.SignalOutcome
	Limit       int
	Offset      int
}

// Search fetches signals matching the options, newest first.
func (r *SignalRepository) Search(
	ctx context.Context,
	options SignalSearchOptions,
) ([]model.Signal, error) {

	query := r.db.WithContext(ctx).
		Preload("Targets", func(db *gorm.DB) *gorm.DB { return db.Order("rank ASC") }).
		Model(&model.Signal{})

	if options.ChannelName != "" {
		query = query.Where("channel_name = ?", options.ChannelName)
	}
	if options.Symbol != "" {
		query = query.Where("symbol = ?", options.Symbol)
	}
	if options.Exchange != "" {
		query = query.Where("exchange = ?", options.Exchange)
	}
	if options.Status != "" {
		query = query.Where("status = ?", options.Status)
	}
	if options.Outcome != "" {
		query = query.Where("outcome = ?", options.Outcome)
	}

	query = query.Order("created_at DESC, id DESC")

	if options.Limit > 0 {
		query = query.Limit(options.Limit)
	}
	if options.Offset > 0 {
		query = query.Offset(options.Offset)
	}

	var signals []model.Signal
	if err := query.Find(&signals).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "SignalRepository",
			"op":   "Search",
		}).WithError(err).Error("Failed to search signals")
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"repo":        "SignalRepository",
		"op":          "Search",
		"rows_return": len(signals),
	}).Debug("Signals fetched")

	return signals, nil
}

// FindActive fetches every signal the checker still needs to evaluate:
// active or triggered status.
func (r *SignalRepository) FindActive(ctx context.Context) ([]model.Signal, error) {
	var signals []model.Signal

	err := r.db.WithContext(ctx).
		Preload("Targets", func(db *gorm.DB) *gorm.DB { return db.Order("rank ASC") }).
		Where("status IN ?", []model.SignalStatus{model.StatusActive, model.StatusTriggered}).
		Order("created_at ASC").
		Find(&signals).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "SignalRepository",
			"op":   "FindActive",
		}).WithError(err).Error("Failed to fetch active signals")
		return nil, err
	}

	return signals, nil
}

// FindByChannel fetches all signals belonging to one channel.
func (r *SignalRepository) FindByChannel(
	ctx context.Context,
	channelName string,
) ([]model.Signal, error) {
	return r.Search(ctx, SignalSearchOptions{ChannelName: channelName})
}

// FindAll fetches the full signal set, for whole-system aggregation.
func (r *SignalRepository) FindAll(ctx context.Context) ([]model.Signal, error) {
	return r.Search(ctx, SignalSearchOptions{})
}

// UpdateResolved persists the result of an applied resolution transition
// with a compare-and-set on updated_at: the update only lands if nobody
// wrote the record since prevUpdatedAt. A lost race surfaces as
// ErrConcurrentModification so the caller can reload and retry; a stale
// writer can never clobber a newer transition.
func (r *SignalRepository) UpdateResolved(
	ctx context.Context,
	sig *model.Signal,
	prevUpdatedAt time.Time,
) error {

	fields := map[string]interface{}{
		"status":            sig.Status,
		"outcome":           sig.Outcome,
		"closed_at":         sig.ClosedAt,
		"triggered_count":   sig.TriggeredCount,
		"last_triggered_at": sig.LastTriggeredAt,
		"updated_at":        sig.UpdatedAt,
	}

	res := r.db.WithContext(ctx).
		Model(&model.Signal{}).
		Where("id = ? AND updated_at = ?", sig.ID, prevUpdatedAt).
		Updates(fields)

	if res.Error != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "SignalRepository",
			"op":   "UpdateResolved",
			"id":   sig.ID,
		}).WithError(res.Error).Error("Failed to update resolved signal")
		return res.Error
	}

	if res.RowsAffected == 0 {
		existing, err := r.FindByID(ctx, sig.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("%w: signal %s", model.ErrNotFound, sig.ID)
		}

		logger.WithFields(map[string]interface{}{
			"repo": "SignalRepository",
			"op":   "UpdateResolved",
			"id":   sig.ID,
		}).Warn("Lost update detected, signal changed since read")

		return fmt.Errorf("%w: signal %s", model.ErrConcurrentModification, sig.ID)
	}

	// Persist ladder rungs marked as hit during this transition.
	for i := range sig.Targets {
		t := &sig.Targets[i]
		if t.ID == 0 || t.HitAt == nil {
			continue
		}
		if err := r.db.WithContext(ctx).
			Model(&model.TakeProfitTarget{}).
			Where("id = ? AND hit_at IS NULL", t.ID).
			Update("hit_at", t.HitAt).Error; err != nil {
			return err
		}
	}

	logger.WithFields(map[string]interface{}{
		"repo":    "SignalRepository",
		"op":      "UpdateResolved",
		"id":      sig.ID,
		"status":  sig.Status,
		"outcome": sig.Outcome,
	}).Info("Signal transition persisted")

	return nil
}

// Delete removes a signal and its ladder.
func (r *SignalRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("signal_id = ?", id).Delete(&model.TakeProfitTarget{})
	if res.Error != nil {
		return res.Error
	}

	res = r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Signal{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: signal %s", model.ErrNotFound, id)
	}
	return nil
}
