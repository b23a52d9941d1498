package model

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestChannelIDForName(t *testing.T) {
	id := ChannelIDForName("VIP Crypto Signals")

	if !strings.HasPrefix(id, "channel#") {
		t.Fatalf("unexpected id shape: %q", id)
	}
	if len(id) != len("channel#")+16 {
		t.Fatalf("expected 16 hex chars after prefix, got %q", id)
	}

	// same name always maps to the same id, case and spacing ignored
	if ChannelIDForName("vip crypto signals") != id {
		t.Fatalf("id must be case-insensitive")
	}
	if ChannelIDForName("  VIP Crypto Signals  ") != id {
		t.Fatalf("id must ignore surrounding whitespace")
	}
	if ChannelIDForName("Other Channel") == id {
		t.Fatalf("different names must not collide")
	}
}

func TestChannelValidate(t *testing.T) {
	ok := Channel{Name: "vip"}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid channel rejected: %v", err)
	}

	empty := Channel{Name: "   "}
	if err := empty.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for blank name, got %v", err)
	}

	long := Channel{Name: "vip", Description: strings.Repeat("x", 501)}
	if err := long.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for long description, got %v", err)
	}
}

func TestChannelStatisticsWinrate(t *testing.T) {
	s := ChannelStatistics{}
	if got := s.CalculateWinrate(); got != 0.0 {
		t.Fatalf("no closed signals must yield 0.0, got %v", got)
	}

	s = ChannelStatistics{ClosedSignals: 10, Wins: 7, Losses: 3}
	if got := s.CalculateWinrate(); got != 70.0 {
		t.Fatalf("expected 70.0, got %v", got)
	}

	s = ChannelStatistics{ClosedSignals: 3, Wins: 1, Losses: 2}
	if got := s.CalculateWinrate(); got != 33.33 {
		t.Fatalf("expected 33.33, got %v", got)
	}

	s = ChannelStatistics{ClosedSignals: 3, Wins: 2, Losses: 1}
	if got := s.CalculateWinrate(); got != 66.67 {
		t.Fatalf("expected 66.67, got %v", got)
	}
}

func TestChannelStatisticsRefresh(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	s := ChannelStatistics{ClosedSignals: 4, Wins: 3}

	s.Refresh(now)

	if s.Winrate != 75.0 {
		t.Fatalf("expected winrate recomputed to 75.0, got %v", s.Winrate)
	}
	if !s.LastUpdated.Equal(now) {
		t.Fatalf("expected last_updated stamped")
	}
}
