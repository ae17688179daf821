package db

import "errors"

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrInsufficientCredit is returned by the conditional credit decrement
	// when the counter is already zero.
	ErrInsufficientCredit = errors.New("insufficient credit")

	// ErrClicksExhausted is returned by the conditional click decrement when
	// the re-analysis budget is depleted or was never purchased.
	ErrClicksExhausted = errors.New("optimization click budget exhausted")

	// ErrEventAlreadyProcessed is returned when a webhook event has already
	// been applied; the reconciler treats the replay as a no-op.
	ErrEventAlreadyProcessed = errors.New("webhook event already processed")
)
