package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeType enumerates the exchanges a signal can be resolved against.
// An empty value means "unspecified" and the checker falls back to the
// configured default exchange.
type ExchangeType string

const (
	ExchangeBinance  ExchangeType = "binance"
	ExchangeBybit    ExchangeType = "bybit"
	ExchangeCoinbase ExchangeType = "coinbase"
	ExchangeOkex     ExchangeType = "okex"
	ExchangeKraken   ExchangeType = "kraken"
)

// SignalCondition governs how the entry target is evaluated. It is
// independent of the TP/SL comparison direction.
type SignalCondition string

const (
	ConditionAbove         SignalCondition = "above"
	ConditionBelow         SignalCondition = "below"
	ConditionEqual         SignalCondition = "equal"
	ConditionPercentChange SignalCondition = "percent_change"
)

type SignalStatus string

const (
	StatusActive    SignalStatus = "active"
	StatusTriggered SignalStatus = "triggered"
	StatusPaused    SignalStatus = "paused"
	StatusExpired   SignalStatus = "expired"
	StatusClosed    SignalStatus = "closed"
)

type SignalOutcome string

const (
	OutcomeWin     SignalOutcome = "win"
	OutcomeLoss    SignalOutcome = "loss"
	OutcomePending SignalOutcome = "pending"
)

// TakeProfitTarget is a single rung of a take-profit ladder (tp1, tp2, ...).
// Rank preserves the order the targets were supplied in.
type TakeProfitTarget struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	SignalID     string           `gorm:"size:64;not null;index" json:"signal_id"`
	Rank         int              `gorm:"not null" json:"rank"`
	Price        decimal.Decimal  `gorm:"type:numeric;not null" json:"price"`
	HitAt        *time.Time       `json:"hit_at,omitempty"`
	ClosedAmount *decimal.Decimal `gorm:"type:numeric" json:"closed_amount,omitempty"`
}

func (TakeProfitTarget) TableName() string {
	return "take_profit_targets"
}

// Signal is a tracked trade idea published by a channel.
type Signal struct {
	ID          string       `gorm:"primaryKey;size:64" json:"id"`
	Name        string       `gorm:"size:255" json:"name"`
	ChannelName string       `gorm:"size:255;not null;index" json:"channel_name"`
	Symbol      string       `gorm:"size:50;not null;index" json:"symbol"`
	Exchange    ExchangeType `gorm:"size:30" json:"exchange,omitempty"`

	// Entry target, evaluated per Condition. Closing is driven by TP/SL only.
	TargetPrice      *decimal.Decimal `gorm:"type:numeric" json:"target_price,omitempty"`
	Condition        SignalCondition  `gorm:"size:30;not null;default:above" json:"condition"`
	PercentThreshold *decimal.Decimal `gorm:"type:numeric" json:"percent_threshold,omitempty"`

	TakeProfit *decimal.Decimal   `gorm:"type:numeric" json:"take_profit,omitempty"`
	Targets    []TakeProfitTarget `gorm:"foreignKey:SignalID" json:"take_profit_targets,omitempty"`
	StopLoss   *decimal.Decimal   `gorm:"type:numeric" json:"stop_loss,omitempty"`

	Status  SignalStatus  `gorm:"size:30;not null;default:active;index" json:"status"`
	Outcome SignalOutcome `gorm:"size:30;not null;default:pending" json:"outcome"`

	TriggeredCount  int        `gorm:"not null;default:0" json:"triggered_count"`
	MaxTriggers     *int       `json:"max_triggers,omitempty"`
	LastTriggeredAt *time.Time `json:"last_triggered_at,omitempty"`
	ClosedAt        *time.Time `json:"closed_at,omitempty"`

	PositionOpenDate   *time.Time       `json:"position_open_date,omitempty"`
	PositionEntryPrice *decimal.Decimal `gorm:"type:numeric" json:"position_entry_price,omitempty"`

	Notes string `gorm:"size:500" json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Signal) TableName() string {
	return "signals"
}

// IsTerminal reports whether the signal can no longer be evaluated.
// Paused signals are inactive but may be resumed; they are still never
// evaluated while paused.
func (s *Signal) IsTerminal() bool {
	return s.Status != StatusActive && s.Status != StatusTriggered
}

// IsExpired reports whether the trigger cap has been reached.
func (s *Signal) IsExpired() bool {
	return s.MaxTriggers != nil && s.TriggeredCount >= *s.MaxTriggers
}

// UnhitTargetPrices returns the prices of all TP levels that have not been
// satisfied yet, including the legacy single take_profit field.
func (s *Signal) UnhitTargetPrices() []decimal.Decimal {
	var out []decimal.Decimal
	if s.TakeProfit != nil {
		out = append(out, *s.TakeProfit)
	}
	for i := range s.Targets {
		if s.Targets[i].HitAt == nil {
			out = append(out, s.Targets[i].Price)
		}
	}
	return out
}

// HasThresholds reports whether the signal has at least one closing
// threshold configured. A signal with none can never auto-resolve.
func (s *Signal) HasThresholds() bool {
	return s.StopLoss != nil || len(s.UnhitTargetPrices()) > 0
}

// Validate checks creation-time invariants. Violations are ValidationError:
// the record must never be partially persisted.
func (s *Signal) Validate() error {
	if strings.TrimSpace(s.ChannelName) == "" {
		return fmt.Errorf("%w: channel_name is required", ErrValidation)
	}
	if strings.TrimSpace(s.Symbol) == "" {
		return fmt.Errorf("%w: symbol is required", ErrValidation)
	}
	if s.Symbol != strings.ToUpper(s.Symbol) {
		return fmt.Errorf("%w: symbol must be uppercase", ErrValidation)
	}
	if s.Exchange != "" && !validExchange(s.Exchange) {
		return fmt.Errorf("%w: unknown exchange %q", ErrValidation, s.Exchange)
	}
	if s.Condition != "" && !validCondition(s.Condition) {
		return fmt.Errorf("%w: unknown condition %q", ErrValidation, s.Condition)
	}

	for _, p := range []*decimal.Decimal{s.TargetPrice, s.TakeProfit, s.StopLoss, s.PositionEntryPrice} {
		if p != nil && p.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("%w: prices must be positive", ErrValidation)
		}
	}
	for i := range s.Targets {
		if s.Targets[i].Price.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("%w: take profit targets must be positive", ErrValidation)
		}
	}
	if s.Condition == ConditionPercentChange && s.PercentThreshold == nil {
		return fmt.Errorf("%w: percent_change condition requires percent_threshold", ErrValidation)
	}

	if err := s.validateDirection(); err != nil {
		return err
	}

	if (s.Outcome != "" && s.Outcome != OutcomePending) != (s.Status == StatusClosed) {
		return fmt.Errorf("%w: outcome %q inconsistent with status %q", ErrValidation, s.Outcome, s.Status)
	}
	return nil
}

// validateDirection enforces TP/SL directional sanity when both are present.
// The entry condition decides which side of the stop the take-profit must be on:
// above (long-style) requires TP > SL, below (short-style) requires TP < SL.
func (s *Signal) validateDirection() error {
	if s.StopLoss == nil {
		return nil
	}
	tps := s.UnhitTargetPrices()
	if len(tps) == 0 {
		return nil
	}
	for _, tp := range tps {
		if tp.Equal(*s.StopLoss) {
			return fmt.Errorf("%w: take_profit equals stop_loss", ErrValidation)
		}
		switch s.Condition {
		case ConditionAbove:
			if tp.LessThan(*s.StopLoss) {
				return fmt.Errorf("%w: take_profit must be above stop_loss for condition %q", ErrValidation, s.Condition)
			}
		case ConditionBelow:
			if tp.GreaterThan(*s.StopLoss) {
				return fmt.Errorf("%w: take_profit must be below stop_loss for condition %q", ErrValidation, s.Condition)
			}
		}
	}
	return nil
}

func validExchange(e ExchangeType) bool {
	switch e {
	case ExchangeBinance, ExchangeBybit, ExchangeCoinbase, ExchangeOkex, ExchangeKraken:
		return true
	}
	return false
}

func validCondition(c SignalCondition) bool {
	switch c {
	case ConditionAbove, ConditionBelow, ConditionEqual, ConditionPercentChange:
		return true
	}
	return false
}
