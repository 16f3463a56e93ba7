package domain

import "time"

type TransactionType string

const (
	TransactionTypeCharge     TransactionType = "CHARGE"
	TransactionTypeRefund     TransactionType = "REFUND"
	TransactionTypePayout     TransactionType = "PAYOUT"
	TransactionTypeAdjustment TransactionType = "ADJUSTMENT"
)

type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "PENDING"
	TransactionStatusSettled TransactionStatus = "SETTLED"
	TransactionStatusFailed  TransactionStatus = "FAILED"
)

// RentalTransaction is an append-only ledger entry. Once status reaches
// SETTLED or FAILED the row is never mutated; corrections are new entries.
// IdempotencyKey is unique across the table and backs the one-payout-per-
// completion guarantee.
type RentalTransaction struct {
	ID       int64 `json:"id"`
	RentalID int64 `json:"rental_id"`
	// UserID is the party whose account the entry moves: the renter for
	// charges and charge refunds, the owner for payouts and reversals.
	UserID         int64             `json:"user_id"`
	Type           TransactionType   `json:"type"`
	Amount         int64             `json:"amount"` // positive credit, negative debit
	Currency       string            `json:"currency"`
	Status         TransactionStatus `json:"status"`
	Description    string            `json:"description"`
	IdempotencyKey string            `json:"idempotency_key"`
	ExternalRef    string            `json:"external_ref,omitempty"` // gateway transaction id
	ChargedAt      time.Time         `json:"charged_at"`
	CreatedAt      time.Time         `json:"created_at"`
}

// LedgerSummary aggregates an owner's ledger for dashboard use.
type LedgerSummary struct {
	TotalEarned    int64            `json:"total_earned"`
	TotalRefunded  int64            `json:"total_refunded"`
	PayoutCount    int32            `json:"payout_count"`
	RentalsByState map[string]int32 `json:"rentals_by_state"`
}
