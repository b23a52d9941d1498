package resolution

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"signaltracker/src/model"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

func longSignal(tp, sl string) *model.Signal {
	return &model.Signal{
		ID:          "sig-1",
		ChannelName: "test channel",
		Symbol:      "BTCUSDT",
		Condition:   model.ConditionAbove,
		TargetPrice: dp(tp),
		TakeProfit:  dp(tp),
		StopLoss:    dp(sl),
		Status:      model.StatusActive,
		Outcome:     model.OutcomePending,
	}
}

func shortSignal(tp, sl string) *model.Signal {
	return &model.Signal{
		ID:          "sig-2",
		ChannelName: "test channel",
		Symbol:      "ETHUSDT",
		Condition:   model.ConditionBelow,
		TargetPrice: dp(tp),
		TakeProfit:  dp(tp),
		StopLoss:    dp(sl),
		Status:      model.StatusActive,
		Outcome:     model.OutcomePending,
	}
}

func TestEvaluate_LongCloseAsWin(t *testing.T) {
	sig := longSignal("100", "90")

	dec := Evaluate(sig, d("100"))
	if dec.Transition != CloseAsWin {
		t.Fatalf("expected close_as_win at exact TP, got=%s", dec.Transition)
	}

	dec = Evaluate(sig, d("150"))
	if dec.Transition != CloseAsWin {
		t.Fatalf("expected close_as_win above TP, got=%s", dec.Transition)
	}
}

func TestEvaluate_LongCloseAsLoss(t *testing.T) {
	sig := longSignal("100", "90")

	dec := Evaluate(sig, d("90"))
	if dec.Transition != CloseAsLoss {
		t.Fatalf("expected close_as_loss at exact SL, got=%s", dec.Transition)
	}

	dec = Evaluate(sig, d("80"))
	if dec.Transition != CloseAsLoss {
		t.Fatalf("expected close_as_loss below SL, got=%s", dec.Transition)
	}
}

func TestEvaluate_LongBetweenThresholds_NoChange(t *testing.T) {
	sig := longSignal("100", "90")

	dec := Evaluate(sig, d("95"))
	if dec.Transition != NoChange {
		t.Fatalf("expected no_change between SL and TP, got=%s", dec.Transition)
	}
}

func TestEvaluate_ShortDirectionsInverted(t *testing.T) {
	// short-style: TP below SL, price expected to fall
	sig := shortSignal("80", "110")

	if dec := Evaluate(sig, d("80")); dec.Transition != CloseAsWin {
		t.Fatalf("expected close_as_win at short TP, got=%s", dec.Transition)
	}
	if dec := Evaluate(sig, d("110")); dec.Transition != CloseAsLoss {
		t.Fatalf("expected close_as_loss at short SL, got=%s", dec.Transition)
	}
	if dec := Evaluate(sig, d("95")); dec.Transition != NoChange {
		t.Fatalf("expected no_change between short thresholds, got=%s", dec.Transition)
	}
}

func TestEvaluate_StopLossWinsWhenBothSatisfied(t *testing.T) {
	// Condition "above" forces long rules even though TP < SL, so a price
	// between the two satisfies both thresholds. SL must win.
	sig := longSignal("100", "200")

	dec := Evaluate(sig, d("150"))
	if dec.Transition != CloseAsLoss {
		t.Fatalf("expected close_as_loss when both thresholds satisfied, got=%s", dec.Transition)
	}
}

func TestEvaluate_TerminalStatusesNeverResolve(t *testing.T) {
	for _, status := range []model.SignalStatus{
		model.StatusClosed,
		model.StatusPaused,
		model.StatusExpired,
	} {
		sig := longSignal("100", "90")
		sig.Status = status

		dec := Evaluate(sig, d("500"))
		if dec.Transition != NoChange {
			t.Fatalf("status=%s: expected no_change, got=%s", status, dec.Transition)
		}
		if dec.EntryTriggered {
			t.Fatalf("status=%s: terminal signal must not trigger", status)
		}
	}
}

func TestEvaluate_NoThresholdsNeverAutoResolves(t *testing.T) {
	sig := &model.Signal{
		ID:          "sig-3",
		ChannelName: "test channel",
		Symbol:      "BTCUSDT",
		Condition:   model.ConditionAbove,
		Status:      model.StatusActive,
		Outcome:     model.OutcomePending,
	}

	for _, p := range []string{"0.0001", "100", "1000000"} {
		if dec := Evaluate(sig, d(p)); dec.Transition != NoChange {
			t.Fatalf("price=%s: expected no_change without thresholds, got=%s", p, dec.Transition)
		}
	}
}

func TestEvaluate_ExpireBeatsThresholds(t *testing.T) {
	max := 3
	sig := longSignal("100", "90")
	sig.MaxTriggers = &max
	sig.TriggeredCount = 3

	// Price satisfies TP, but the cap is already reached.
	dec := Evaluate(sig, d("120"))
	if dec.Transition != Expire {
		t.Fatalf("expected expire at trigger cap, got=%s", dec.Transition)
	}
}

func TestEvaluate_LadderUsesNearestUnhitRung(t *testing.T) {
	sig := longSignal("100", "90")
	sig.TakeProfit = nil
	hit := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	sig.Targets = []model.TakeProfitTarget{
		{SignalID: sig.ID, Rank: 1, Price: d("100"), HitAt: &hit},
		{SignalID: sig.ID, Rank: 2, Price: d("110")},
		{SignalID: sig.ID, Rank: 3, Price: d("120")},
	}

	// tp1 already hit; tp2 is now the nearest unhit rung.
	if dec := Evaluate(sig, d("105")); dec.Transition != NoChange {
		t.Fatalf("expected no_change below tp2, got=%s", dec.Transition)
	}
	if dec := Evaluate(sig, d("110")); dec.Transition != CloseAsWin {
		t.Fatalf("expected close_as_win at tp2, got=%s", dec.Transition)
	}
}

func TestEvaluate_EntryTriggeredConditions(t *testing.T) {
	cases := []struct {
		name      string
		condition model.SignalCondition
		target    string
		threshold string
		price     string
		want      bool
	}{
		{"above hit", model.ConditionAbove, "100", "", "101", true},
		{"above exact", model.ConditionAbove, "100", "", "100", true},
		{"above miss", model.ConditionAbove, "100", "", "99", false},
		{"below hit", model.ConditionBelow, "100", "", "99", true},
		{"below miss", model.ConditionBelow, "100", "", "101", false},
		{"equal hit", model.ConditionEqual, "100", "", "100", true},
		{"equal miss", model.ConditionEqual, "100", "", "100.01", false},
		{"percent hit up", model.ConditionPercentChange, "100", "5", "105", true},
		{"percent hit down", model.ConditionPercentChange, "100", "5", "95", true},
		{"percent miss", model.ConditionPercentChange, "100", "5", "104", false},
	}

	for _, tc := range cases {
		sig := &model.Signal{
			ID:          "sig-4",
			ChannelName: "test channel",
			Symbol:      "BTCUSDT",
			Condition:   tc.condition,
			TargetPrice: dp(tc.target),
			Status:      model.StatusActive,
			Outcome:     model.OutcomePending,
		}
		if tc.threshold != "" {
			sig.PercentThreshold = dp(tc.threshold)
		}

		dec := Evaluate(sig, d(tc.price))
		if dec.Transition != NoChange {
			t.Fatalf("%s: expected no_change, got=%s", tc.name, dec.Transition)
		}
		if dec.EntryTriggered != tc.want {
			t.Fatalf("%s: expected triggered=%v, got=%v", tc.name, tc.want, dec.EntryTriggered)
		}
	}
}

func TestSideOf_ConditionBeatsThresholdOrdering(t *testing.T) {
	sig := longSignal("100", "200") // TP below SL, but condition says above
	if side := SideOf(sig); side != SideLong {
		t.Fatalf("expected long from condition, got=%s", side)
	}

	sig = shortSignal("200", "100") // TP above SL, but condition says below
	if side := SideOf(sig); side != SideShort {
		t.Fatalf("expected short from condition, got=%s", side)
	}
}

func TestSideOf_FallbackToThresholdOrdering(t *testing.T) {
	sig := longSignal("80", "110")
	sig.Condition = model.ConditionEqual
	if side := SideOf(sig); side != SideShort {
		t.Fatalf("expected short from TP<SL ordering, got=%s", side)
	}

	sig = longSignal("110", "80")
	sig.Condition = model.ConditionPercentChange
	sig.PercentThreshold = dp("5")
	if side := SideOf(sig); side != SideLong {
		t.Fatalf("expected long from TP>SL ordering, got=%s", side)
	}
}

func TestApply_CloseAsWin(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	sig := longSignal("100", "90")
	sig.TakeProfit = nil
	sig.Targets = []model.TakeProfitTarget{
		{SignalID: sig.ID, Rank: 1, Price: d("100")},
		{SignalID: sig.ID, Rank: 2, Price: d("110")},
	}

	Apply(sig, d("101"), Decision{Transition: CloseAsWin}, now)

	if sig.Status != model.StatusClosed {
		t.Fatalf("expected closed, got=%s", sig.Status)
	}
	if sig.Outcome != model.OutcomeWin {
		t.Fatalf("expected win, got=%s", sig.Outcome)
	}
	if sig.ClosedAt == nil || !sig.ClosedAt.Equal(now) {
		t.Fatalf("expected closed_at=%s, got=%v", now, sig.ClosedAt)
	}
	if sig.Targets[0].HitAt == nil {
		t.Fatalf("expected tp1 marked hit")
	}
	if sig.Targets[1].HitAt != nil {
		t.Fatalf("tp2 must stay unhit at price 101")
	}
}

func TestApply_ManualCloseDoesNotMarkLadder(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	sig := longSignal("100", "90")
	sig.TakeProfit = nil
	sig.Targets = []model.TakeProfitTarget{
		{SignalID: sig.ID, Rank: 1, Price: d("100")},
	}

	// Manual close: no price observation available.
	Apply(sig, decimal.Zero, Decision{Transition: CloseAsWin}, now)

	if sig.Status != model.StatusClosed || sig.Outcome != model.OutcomeWin {
		t.Fatalf("expected closed win, got status=%s outcome=%s", sig.Status, sig.Outcome)
	}
	if sig.Targets[0].HitAt != nil {
		t.Fatalf("manual close must not mark ladder rungs")
	}
}

func TestApply_ExpireKeepsOutcomePending(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	max := 1
	sig := longSignal("100", "90")
	sig.MaxTriggers = &max
	sig.TriggeredCount = 1

	Apply(sig, d("95"), Decision{Transition: Expire}, now)

	if sig.Status != model.StatusExpired {
		t.Fatalf("expected expired, got=%s", sig.Status)
	}
	if sig.Outcome != model.OutcomePending {
		t.Fatalf("expiry must not assign a verdict, got=%s", sig.Outcome)
	}
	if sig.ClosedAt != nil {
		t.Fatalf("expired signal has no closed_at")
	}
}

func TestApply_EntryTriggerBumpsCount(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	sig := longSignal("100", "90")
	sig.TakeProfit = dp("200")

	Apply(sig, d("100"), Decision{Transition: NoChange, EntryTriggered: true}, now)

	if sig.TriggeredCount != 1 {
		t.Fatalf("expected triggered_count=1, got=%d", sig.TriggeredCount)
	}
	if sig.Status != model.StatusTriggered {
		t.Fatalf("expected triggered status, got=%s", sig.Status)
	}
	if sig.LastTriggeredAt == nil || !sig.LastTriggeredAt.Equal(now) {
		t.Fatalf("expected last_triggered_at=%s, got=%v", now, sig.LastTriggeredAt)
	}
}

func TestApply_NoChangeWithoutTriggerLeavesSignalAlone(t *testing.T) {
	sig := longSignal("100", "90")
	before := *sig

	Apply(sig, d("95"), Decision{Transition: NoChange}, time.Now())

	if sig.Status != before.Status || sig.TriggeredCount != before.TriggeredCount {
		t.Fatalf("no_change without trigger must not mutate the signal")
	}
}

func TestApplyThenEvaluate_Idempotent(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	sig := longSignal("100", "90")

	Apply(sig, d("100"), Evaluate(sig, d("100")), now)
	if sig.Outcome != model.OutcomeWin {
		t.Fatalf("expected win, got=%s", sig.Outcome)
	}

	// A later SL-crossing price must not flip the verdict.
	dec := Evaluate(sig, d("10"))
	if dec.Transition != NoChange {
		t.Fatalf("closed signal re-evaluated, got=%s", dec.Transition)
	}
}
