package resolution

import (
	"time"

	"github.com/shopspring/decimal"

	"signaltracker/src/model"
)

// Transition is the outcome of evaluating one signal against one price
// observation.
type Transition string

const (
	NoChange    Transition = "no_change"
	CloseAsWin  Transition = "close_as_win"
	CloseAsLoss Transition = "close_as_loss"
	Expire      Transition = "expire"
)

type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Decision is what Evaluate returns. EntryTriggered reports that the entry
// condition fired on this observation; it only matters when the transition
// is NoChange, since closing supersedes trigger bookkeeping.
type Decision struct {
	Transition     Transition
	EntryTriggered bool
}

// Evaluate decides whether the signal should close as a win or a loss,
// expire, or stay open, given the current price. It is a pure function:
// no side effects, no I/O. Apply performs the resulting mutations.
//
// Precedence:
//  1. terminal or inactive status (paused, expired, closed) -> NoChange
//  2. trigger cap reached -> Expire
//  3. stop-loss crossed -> CloseAsLoss (checked before TP so a gapped feed
//     that satisfies both never over-reports wins)
//  4. nearest unhit take-profit crossed -> CloseAsWin
//  5. otherwise NoChange; a signal with no thresholds never auto-resolves
func Evaluate(sig *model.Signal, price decimal.Decimal) Decision {
	if sig.IsTerminal() {
		return Decision{Transition: NoChange}
	}
	if sig.IsExpired() {
		return Decision{Transition: Expire}
	}

	side := SideOf(sig)

	if sig.StopLoss != nil && stopLossHit(side, price, *sig.StopLoss) {
		return Decision{Transition: CloseAsLoss}
	}
	if tp := nearestTakeProfit(sig, side); tp != nil && takeProfitHit(side, price, *tp) {
		return Decision{Transition: CloseAsWin}
	}

	return Decision{
		Transition:     NoChange,
		EntryTriggered: entryTriggered(sig, price),
	}
}

// SideOf classifies the signal as long-style or short-style. The entry
// condition is authoritative when it carries a direction; otherwise the
// TP/SL ordering decides (TP below SL means price is expected to fall).
func SideOf(sig *model.Signal) Side {
	switch sig.Condition {
	case model.ConditionAbove:
		return SideLong
	case model.ConditionBelow:
		return SideShort
	}
	if sig.StopLoss != nil {
		for _, tp := range sig.UnhitTargetPrices() {
			if tp.LessThan(*sig.StopLoss) {
				return SideShort
			}
		}
	}
	return SideLong
}

func stopLossHit(side Side, price, sl decimal.Decimal) bool {
	if side == SideShort {
		return price.GreaterThanOrEqual(sl)
	}
	return price.LessThanOrEqual(sl)
}

func takeProfitHit(side Side, price, tp decimal.Decimal) bool {
	if side == SideShort {
		return price.LessThanOrEqual(tp)
	}
	return price.GreaterThanOrEqual(tp)
}

// nearestTakeProfit picks the ladder rung closest to entry among the levels
// not yet satisfied: the lowest for long-style, the highest for short-style.
// Hitting this first unhit level classifies the whole signal as a win.
func nearestTakeProfit(sig *model.Signal, side Side) *decimal.Decimal {
	var best *decimal.Decimal
	for _, tp := range sig.UnhitTargetPrices() {
		v := tp
		if best == nil {
			best = &v
			continue
		}
		if side == SideShort && v.GreaterThan(*best) {
			best = &v
		} else if side != SideShort && v.LessThan(*best) {
			best = &v
		}
	}
	return best
}

// entryTriggered evaluates the entry condition against the target price.
// Closing thresholds are deliberately not consulted here.
func entryTriggered(sig *model.Signal, price decimal.Decimal) bool {
	if sig.TargetPrice == nil {
		return false
	}
	target := *sig.TargetPrice

	switch sig.Condition {
	case model.ConditionAbove:
		return price.GreaterThanOrEqual(target)
	case model.ConditionBelow:
		return price.LessThanOrEqual(target)
	case model.ConditionEqual:
		return price.Equal(target)
	case model.ConditionPercentChange:
		if sig.PercentThreshold == nil || target.IsZero() {
			return false
		}
		change := price.Sub(target).Div(target).Mul(decimal.NewFromInt(100)).Abs()
		return change.GreaterThanOrEqual(*sig.PercentThreshold)
	}
	return false
}

// Apply mutates the in-memory signal according to the decision. The caller
// persists the result; the engine itself stays side-effect-free.
func Apply(sig *model.Signal, price decimal.Decimal, dec Decision, now time.Time) {
	switch dec.Transition {
	case CloseAsWin:
		// A manual close carries no observation; only a real price can
		// tell which rung was hit.
		if price.IsPositive() {
			markTargetHit(sig, price, now)
		}
		sig.Status = model.StatusClosed
		sig.Outcome = model.OutcomeWin
		sig.ClosedAt = &now
		sig.UpdatedAt = now

	case CloseAsLoss:
		sig.Status = model.StatusClosed
		sig.Outcome = model.OutcomeLoss
		sig.ClosedAt = &now
		sig.UpdatedAt = now

	case Expire:
		// Expiry is not a win/loss verdict: outcome stays pending.
		sig.Status = model.StatusExpired
		sig.UpdatedAt = now

	case NoChange:
		if !dec.EntryTriggered {
			return
		}
		sig.TriggeredCount++
		sig.LastTriggeredAt = &now
		if sig.Status == model.StatusActive {
			sig.Status = model.StatusTriggered
		}
		sig.UpdatedAt = now
	}
}

// markTargetHit records which ladder rung satisfied the close, for the
// nearest unhit level on the winning side.
func markTargetHit(sig *model.Signal, price decimal.Decimal, now time.Time) {
	side := SideOf(sig)
	idx := -1
	for i := range sig.Targets {
		if sig.Targets[i].HitAt != nil {
			continue
		}
		if !takeProfitHit(side, price, sig.Targets[i].Price) {
			continue
		}
		if idx < 0 {
			idx = i
			continue
		}
		if side == SideShort {
			if sig.Targets[i].Price.GreaterThan(sig.Targets[idx].Price) {
				idx = i
			}
		} else if sig.Targets[i].Price.LessThan(sig.Targets[idx].Price) {
			idx = i
		}
	}
	if idx >= 0 {
		sig.Targets[idx].HitAt = &now
	}
}
