package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"time"
)

// Channel is a signal-publishing source, typically a Telegram channel.
// It is an identity only; statistics are derived from the signal set.
type Channel struct {
	ID          string `gorm:"primaryKey;size:80" json:"id"`
	Name        string `gorm:"size:255;not null;uniqueIndex" json:"name"`
	TelegramURL string `gorm:"size:512" json:"telegram_url,omitempty"`
	Description string `gorm:"size:500" json:"description,omitempty"`
	IsActive    bool   `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Channel) TableName() string {
	return "channels"
}

// ChannelIDForName derives the channel ID deterministically from its name,
// so repeated creation with the same name is detectable.
func ChannelIDForName(name string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(name))))
	return "channel#" + hex.EncodeToString(sum[:])[:16]
}

// Validate checks creation-time invariants for a channel.
func (c *Channel) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: channel name is required", ErrValidation)
	}
	if len(c.Description) > 500 {
		return fmt.Errorf("%w: description too long", ErrValidation)
	}
	return nil
}

// ChannelStatistics is a derived, disposable view over a channel's signals.
// It is recomputable from scratch at any time and may be persisted as a
// snapshot, but the snapshot is never the source of truth.
type ChannelStatistics struct {
	ChannelID   string `gorm:"size:80" json:"channel_id"`
	ChannelName string `gorm:"primaryKey;size:255" json:"channel_name"`

	TotalSignals  int `gorm:"not null;default:0" json:"total_signals"`
	ActiveSignals int `gorm:"not null;default:0" json:"active_signals"`
	ClosedSignals int `gorm:"not null;default:0" json:"closed_signals"`

	Wins    int `gorm:"not null;default:0" json:"wins"`
	Losses  int `gorm:"not null;default:0" json:"losses"`
	Pending int `gorm:"not null;default:0" json:"pending"`

	// Winrate is 100*wins/closed, rounded to two decimals. Exactly 0.0 when
	// no signal has closed yet, never NaN.
	Winrate float64 `gorm:"not null;default:0" json:"winrate"`

	LastUpdated time.Time `json:"last_updated"`
}

func (ChannelStatistics) TableName() string {
	return "channel_statistics"
}

// CalculateWinrate returns the winrate percentage for the current counters.
func (s *ChannelStatistics) CalculateWinrate() float64 {
	if s.ClosedSignals == 0 {
		return 0.0
	}
	return roundTwo(float64(s.Wins) / float64(s.ClosedSignals) * 100)
}

// Refresh recomputes the derived fields and stamps the snapshot.
func (s *ChannelStatistics) Refresh(now time.Time) {
	s.Winrate = s.CalculateWinrate()
	s.LastUpdated = now
}

func roundTwo(v float64) float64 {
	return math.Round(v*100) / 100
}
