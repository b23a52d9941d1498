package checker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"signaltracker/src/model"
	"signaltracker/src/stats"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

type fakeSignalStore struct {
	signals   []model.Signal
	updated   []*model.Signal
	updateErr error
}

func (f *fakeSignalStore) FindActive(_ context.Context) ([]model.Signal, error) {
	var out []model.Signal
	for _, s := range f.signals {
		if s.Status == model.StatusActive || s.Status == model.StatusTriggered {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSignalStore) FindByChannel(_ context.Context, channelName string) ([]model.Signal, error) {
	var out []model.Signal
	for _, s := range f.signals {
		if s.ChannelName == channelName {
			out = append(out, s)
		}
	}
	// updated copies shadow the originals so recomputed stats see transitions
	for _, u := range f.updated {
		if u.ChannelName == channelName {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeSignalStore) FindAll(_ context.Context) ([]model.Signal, error) {
	return f.signals, nil
}

func (f *fakeSignalStore) UpdateResolved(_ context.Context, sig *model.Signal, _ time.Time) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	copied := *sig
	f.updated = append(f.updated, &copied)
	return nil
}

type fakePriceGetter struct {
	prices map[string]decimal.Decimal
	errs   map[string]error
	calls  int
}

func (f *fakePriceGetter) GetCurrentPrice(_ context.Context, symbol string, _ model.ExchangeType) (decimal.Decimal, error) {
	f.calls++
	if err, ok := f.errs[symbol]; ok {
		return decimal.Zero, err
	}
	price, ok := f.prices[symbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", model.ErrPriceUnavailable, symbol)
	}
	return price, nil
}

type fakeSnapshotStore struct {
	saved []model.ChannelStatistics
}

func (f *fakeSnapshotStore) SaveSnapshot(_ context.Context, s *model.ChannelStatistics) error {
	f.saved = append(f.saved, *s)
	return nil
}

func activeSignal(id, channel, symbol, tp, sl string) model.Signal {
	return model.Signal{
		ID:          id,
		ChannelName: channel,
		Symbol:      symbol,
		Exchange:    model.ExchangeBinance,
		Condition:   model.ConditionAbove,
		TargetPrice: dp(tp),
		TakeProfit:  dp(tp),
		StopLoss:    dp(sl),
		Status:      model.StatusActive,
		Outcome:     model.OutcomePending,
		UpdatedAt:   time.Now().UTC().Add(-time.Minute),
	}
}

func newTestChecker(store *fakeSignalStore, prices *fakePriceGetter, snapshots *fakeSnapshotStore) *Checker {
	return NewChecker(store, prices, stats.NewCalculator(store), stats.NewCache(0), snapshots)
}

func TestRunCycle_ClosesWinsAndLosses(t *testing.T) {
	store := &fakeSignalStore{signals: []model.Signal{
		activeSignal("s1", "vip", "BTCUSDT", "95000", "85000"),
		activeSignal("s2", "vip", "ETHUSDT", "3800", "3200"),
		activeSignal("s3", "budget", "SOLUSDT", "250", "180"),
	}}
	prices := &fakePriceGetter{prices: map[string]decimal.Decimal{
		"BTCUSDT": d("96000"), // above TP -> win
		"ETHUSDT": d("3100"),  // below SL -> loss
		"SOLUSDT": d("200"),   // in between -> entry triggered only
	}}
	snapshots := &fakeSnapshotStore{}
	c := newTestChecker(store, prices, snapshots)

	result, err := c.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Checked != 3 {
		t.Fatalf("expected 3 checked, got %d", result.Checked)
	}
	if result.Closed != 2 || result.Wins != 1 || result.Losses != 1 {
		t.Fatalf("expected 2 closed (1W/1L), got %+v", result)
	}
	if result.Triggered != 1 {
		t.Fatalf("expected 1 trigger bump, got %+v", result)
	}

	if len(store.updated) != 3 {
		t.Fatalf("expected 3 persisted transitions, got %d", len(store.updated))
	}
	// both touched channels get a fresh snapshot
	if len(snapshots.saved) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snapshots.saved))
	}
}

func TestRunCycle_FetchesEachSymbolOnce(t *testing.T) {
	store := &fakeSignalStore{signals: []model.Signal{
		activeSignal("s1", "vip", "BTCUSDT", "95000", "85000"),
		activeSignal("s2", "budget", "BTCUSDT", "99000", "90000"),
		activeSignal("s3", "pro", "BTCUSDT", "98000", "91000"),
	}}
	prices := &fakePriceGetter{prices: map[string]decimal.Decimal{
		"BTCUSDT": d("92000"),
	}}
	c := newTestChecker(store, prices, &fakeSnapshotStore{})

	if _, err := c.RunCycle(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prices.calls != 1 {
		t.Fatalf("expected a single price fetch for the shared symbol, got %d", prices.calls)
	}
}

func TestRunCycle_PriceFailureSkipsSignal(t *testing.T) {
	store := &fakeSignalStore{signals: []model.Signal{
		activeSignal("s1", "vip", "BTCUSDT", "95000", "85000"),
		activeSignal("s2", "vip", "ETHUSDT", "3800", "3200"),
	}}
	prices := &fakePriceGetter{
		prices: map[string]decimal.Decimal{"BTCUSDT": d("96000")},
		errs:   map[string]error{"ETHUSDT": fmt.Errorf("%w: ETHUSDT", model.ErrPriceUnavailable)},
	}
	c := newTestChecker(store, prices, &fakeSnapshotStore{})

	result, err := c.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("a failed fetch must not abort the cycle: %v", err)
	}

	if result.Skipped != 1 {
		t.Fatalf("expected 1 skipped, got %+v", result)
	}
	if result.Wins != 1 {
		t.Fatalf("the healthy signal must still resolve, got %+v", result)
	}
	if len(store.updated) != 1 || store.updated[0].ID != "s1" {
		t.Fatalf("only s1 may be mutated, got %+v", store.updated)
	}
}

func TestRunCycle_ConcurrentModificationDefers(t *testing.T) {
	store := &fakeSignalStore{
		signals: []model.Signal{
			activeSignal("s1", "vip", "BTCUSDT", "95000", "85000"),
		},
		updateErr: fmt.Errorf("%w: signal s1", model.ErrConcurrentModification),
	}
	prices := &fakePriceGetter{prices: map[string]decimal.Decimal{
		"BTCUSDT": d("96000"),
	}}
	snapshots := &fakeSnapshotStore{}
	c := newTestChecker(store, prices, snapshots)

	result, err := c.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("a lost race must not abort the cycle: %v", err)
	}
	if result.Skipped != 1 || result.Closed != 0 {
		t.Fatalf("expected skip on lost race, got %+v", result)
	}
	if len(snapshots.saved) != 0 {
		t.Fatalf("untouched channels must not be snapshotted, got %d", len(snapshots.saved))
	}
}

func TestRunCycle_OtherUpdateErrorAborts(t *testing.T) {
	store := &fakeSignalStore{
		signals: []model.Signal{
			activeSignal("s1", "vip", "BTCUSDT", "95000", "85000"),
		},
		updateErr: errors.New("db down"),
	}
	prices := &fakePriceGetter{prices: map[string]decimal.Decimal{
		"BTCUSDT": d("96000"),
	}}
	c := newTestChecker(store, prices, &fakeSnapshotStore{})

	if _, err := c.RunCycle(context.Background()); err == nil {
		t.Fatalf("expected hard store failure to surface")
	}
}

func TestRunCycle_NoActiveSignals(t *testing.T) {
	c := newTestChecker(&fakeSignalStore{}, &fakePriceGetter{}, &fakeSnapshotStore{})

	result, err := c.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Checked != 0 {
		t.Fatalf("expected empty cycle, got %+v", result)
	}
}

func TestKeyedMutex(t *testing.T) {
	km := newKeyedMutex()

	unlock := km.Lock("a")
	done := make(chan struct{})
	go func() {
		u := km.Lock("a")
		u()
		close(done)
	}()

	select {
	case <-done:
		t.Fatalf("second lock on same key must block")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("lock not released")
	}

	// different keys never contend
	u1 := km.Lock("x")
	u2 := km.Lock("y")
	u1()
	u2()
}
