package domain

import "errors"

// Error taxonomy. Validation and conflict errors carry a reason code the API
// layer exposes to callers; dependency and invariant failures surface as a
// generic internal error without leaking detail.
var (
	// Validation: rejected synchronously, never retried.
	ErrValidation = errors.New("validation_error")
	ErrNotFound   = errors.New("not_found")
	ErrForbidden  = errors.New("forbidden")

	// Conflict: caller decides whether to retry with fresh state.
	ErrInvalidTransition  = errors.New("invalid_status_transition")
	ErrTransitionConflict = errors.New("concurrent_transition_conflict")
	ErrDisputeExists      = errors.New("dispute_already_open")
	ErrDisputeWindowOver  = errors.New("dispute_window_closed")
	ErrSettlementLocked   = errors.New("settlement_locked")
	ErrOwnerNotVerified   = errors.New("owner_not_verified")

	// Dependency: the triggering transition is rolled back entirely.
	ErrPaymentDeclined   = errors.New("payment_declined")
	ErrDependencyFailure = errors.New("dependency_failure")

	// Invariant: indicates a bug, not bad input. Logged and surfaced as an
	// internal error.
	ErrDuplicateLedgerEntry = errors.New("duplicate_ledger_entry")
)
