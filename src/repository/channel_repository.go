package repository

import (
	"context"
	"errors"
	"fmt"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"signaltracker/src/database"
	"signaltracker/src/model"
)

// ChannelRepository handles read/write operations for channels.
type ChannelRepository struct {
	db *gorm.DB
}

// NewChannelRepository creates a new repository instance using the main
// read/write database.
func NewChannelRepository() *ChannelRepository {
	logger.WithField("component", "ChannelRepository").
		Info("Creating new ChannelRepository with MainDB")

	return &ChannelRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *ChannelRepository) WithDB(db *gorm.DB) *ChannelRepository {
	return &ChannelRepository{db: db}
}

// Create inserts a new channel. The ID is derived deterministically from
// the name, so a second creation with the same name is rejected as a
// validation error rather than producing a second identity.
func (r *ChannelRepository) Create(
	ctx context.Context,
	channel *model.Channel,
) error {

	if err := channel.Validate(); err != nil {
		return err
	}

	channel.ID = model.ChannelIDForName(channel.Name)

	logger.WithFields(map[string]interface{}{
		"repo": "ChannelRepository",
		"op":   "Create",
		"name": channel.Name,
		"id":   channel.ID,
	}).Debug("Creating new channel")

	err := r.db.WithContext(ctx).Create(channel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			logger.WithFields(map[string]interface{}{
				"repo": "ChannelRepository",
				"op":   "Create",
				"name": channel.Name,
			}).Warn("Channel already exists")
			return fmt.Errorf("%w: channel %q already exists", model.ErrValidation, channel.Name)
		}

		logger.WithFields(map[string]interface{}{
			"repo": "ChannelRepository",
			"op":   "Create",
			"name": channel.Name,
		}).WithError(err).Error("Failed to create channel")
		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo": "ChannelRepository",
		"op":   "Create",
		"name": channel.Name,
	}).Info("Channel created successfully")

	return nil
}

// FindByName fetches a channel by its unique name.
// Returns (nil, nil) if not found.
func (r *ChannelRepository) FindByName(
	ctx context.Context,
	name string,
) (*model.Channel, error) {

	var channel model.Channel

	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&channel).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // not found is not an error
		}

		logger.WithFields(map[string]interface{}{
			"repo": "ChannelRepository",
			"op":   "FindByName",
			"name": name,
		}).WithError(err).Error("Failed to fetch channel by name")

		return nil, err
	}

	return &channel, nil
}

// FindAll fetches every channel, optionally only active ones, ordered by
// name for stable listings.
func (r *ChannelRepository) FindAll(
	ctx context.Context,
	activeOnly bool,
) ([]model.Channel, error) {

	query := r.db.WithContext(ctx).Model(&model.Channel{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var channels []model.Channel
	if err := query.Order("name ASC").Find(&channels).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "ChannelRepository",
			"op":   "FindAll",
		}).WithError(err).Error("Failed to fetch channels")
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"repo":        "ChannelRepository",
		"op":          "FindAll",
		"rows_return": len(channels),
	}).Debug("Channels fetched")

	return channels, nil
}
