package repository

import (
	"context"
	"time"

	"motorent-backend/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

type VehicleRepository interface {
	Create(ctx context.Context, v *domain.Vehicle) error
	GetByID(ctx context.Context, id int64) (*domain.Vehicle, error)
	Update(ctx context.Context, v *domain.Vehicle) error
	ListByOwner(ctx context.Context, ownerID int64, page, pageSize int32) ([]domain.Vehicle, int32, error)
}

type RentalRepository interface {
	Create(ctx context.Context, rt *domain.Rental) error
	GetByID(ctx context.Context, id int64) (*domain.Rental, error)
	// GetByIDForUpdate takes the per-rental row lock that serializes
	// concurrent transitions. Must be called inside a store transaction.
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Rental, error)
	// UpdateStatus flips status only if the row still holds fromStatus
	// (compare-and-swap). Returns domain.ErrTransitionConflict when another
	// writer got there first.
	UpdateStatus(ctx context.Context, id int64, from, to domain.RentalStatus) error
	// UpdateLifecycleFields persists the mutable non-monetary fields:
	// odometers, cancel reason, completion timestamp.
	UpdateLifecycleFields(ctx context.Context, rt *domain.Rental) error
	ListByRenter(ctx context.Context, renterID int64, status string, page, pageSize int32) ([]domain.Rental, int32, error)
	ListByOwner(ctx context.Context, ownerID int64, status string, page, pageSize int32) ([]domain.Rental, int32, error)
	// ListExpiredPending returns rentals stuck in PENDING_PAYMENT created
	// before the cutoff, for the expiry job.
	ListExpiredPending(ctx context.Context, cutoff time.Time, limit int32) ([]domain.Rental, error)
}

type LedgerRepository interface {
	// CreateTransaction appends one ledger entry. A duplicate idempotency
	// key returns domain.ErrDuplicateLedgerEntry.
	CreateTransaction(ctx context.Context, tx *domain.RentalTransaction) error
	HasTransaction(ctx context.Context, rentalID int64, idempotencyKey string) (bool, error)
	ListByRental(ctx context.Context, rentalID int64) ([]domain.RentalTransaction, error)
	// WeeklyPayoutOwners returns the ids of owners with at least one payout
	// entry inside the week that committed strictly before batchStart.
	WeeklyPayoutOwners(ctx context.Context, weekStart, weekEnd, batchStart time.Time) ([]int64, error)
	// SumOwnerPayouts aggregates an owner's payout entries inside the week
	// committed strictly before batchStart: total amount and entry count.
	SumOwnerPayouts(ctx context.Context, ownerID int64, weekStart, weekEnd, batchStart time.Time) (int64, int32, error)
	GetOwnerSummary(ctx context.Context, ownerID int64) (*domain.LedgerSummary, error)
}

type DisputeRepository interface {
	Create(ctx context.Context, d *domain.RentalDispute) error
	GetByID(ctx context.Context, id int64) (*domain.RentalDispute, error)
	// GetOpenByRental returns the live (non-terminal) dispute for a rental,
	// or domain.ErrNotFound.
	GetOpenByRental(ctx context.Context, rentalID int64) (*domain.RentalDispute, error)
	// UpdateStatus compare-and-swaps the dispute status and records
	// resolution fields when the target is terminal.
	UpdateStatus(ctx context.Context, d *domain.RentalDispute, from domain.DisputeStatus) error
	AddEvidence(ctx context.Context, e *domain.RentalEvidence) error
	ListEvidence(ctx context.Context, rentalID int64) ([]domain.RentalEvidence, error)
}

type FeeSettingsRepository interface {
	GetActive(ctx context.Context) (*domain.FeeSettings, error)
	// Activate inserts a new row as active and retires the previous active
	// row, keeping it for history.
	Activate(ctx context.Context, fs *domain.FeeSettings) error
}

type CommissionRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.OwnerCommission, error)
	GetByOwnerWeek(ctx context.Context, ownerID int64, weekStart time.Time) (*domain.OwnerCommission, error)
	// Upsert inserts or, for an existing row, updates the computed fields
	// in place. Only valid while the row is PENDING.
	Upsert(ctx context.Context, c *domain.OwnerCommission) error
	MarkPaid(ctx context.Context, id int64, paidAt time.Time) error
	ListByOwner(ctx context.Context, ownerID int64, page, pageSize int32) ([]domain.OwnerCommission, int32, error)
	HasPayments(ctx context.Context, commissionID int64) (bool, error)
	CreatePayment(ctx context.Context, p *domain.CommissionPayment) error
	GetPaymentByID(ctx context.Context, id int64) (*domain.CommissionPayment, error)
	// GetPendingPayment returns the live PENDING payment for a commission,
	// or domain.ErrNotFound.
	GetPendingPayment(ctx context.Context, commissionID int64) (*domain.CommissionPayment, error)
	ReviewPayment(ctx context.Context, p *domain.CommissionPayment) error
	ListPayments(ctx context.Context, commissionID int64) ([]domain.CommissionPayment, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, note *domain.Notification) error
	List(ctx context.Context, userID int64, limit, offset int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, id, userID int64) error
}

// Store aggregates the repositories and provides the transactional scope the
// state machine needs: a status flip and its mandatory ledger side effect
// commit as one unit or not at all.
type Store interface {
	Users() UserRepository
	Vehicles() VehicleRepository
	Rentals() RentalRepository
	Ledger() LedgerRepository
	Disputes() DisputeRepository
	FeeSettings() FeeSettingsRepository
	Commissions() CommissionRepository
	Notifications() NotificationRepository

	// ExecTx runs fn against a Store bound to a single database transaction.
	// An error from fn rolls everything back.
	ExecTx(ctx context.Context, fn func(Store) error) error
}
