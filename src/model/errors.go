package model

import "errors"

// Error taxonomy for the tracker. ValidationError is the only fatal class
// and is always surfaced synchronously at creation/import time; the rest are
// recoverable or informational.
var (
	// ErrValidation marks malformed input: missing required fields,
	// non-positive prices, TP/SL directional inconsistency, duplicate
	// channel names.
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks an operation referencing an unknown signal or
	// channel. No retry.
	ErrNotFound = errors.New("not found")

	// ErrPriceUnavailable marks a transient failure to obtain a price
	// observation. The evaluation cycle for the signal is skipped and
	// retried on the next tick; signal state is never mutated on it.
	ErrPriceUnavailable = errors.New("price unavailable")

	// ErrConcurrentModification marks a lost update detected by the store.
	// Retryable; a stale writer must never overwrite a newer transition.
	ErrConcurrentModification = errors.New("concurrent modification")
)
