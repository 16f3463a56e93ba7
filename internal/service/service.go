package service

import (
	"context"
	"time"

	"motorent-backend/internal/domain"
)

type AuthService interface {
	Signup(ctx context.Context, name, email, phone, password string, role domain.UserRole) (*domain.User, string, string, error)
	Login(ctx context.Context, email, password string) (string, string, error) // access, refresh
	RefreshToken(ctx context.Context, refresh string) (string, string, error)
}

// CreateRentalInput carries the booking request. Money fields are computed
// server-side from the vehicle snapshot and active fee settings, never taken
// from the caller.
type CreateRentalInput struct {
	RenterID       int64
	VehicleID      int64
	StartDate      time.Time
	EndDate        time.Time
	Delivery       bool
	DeliveryKm     float64
	DiscountAmount int64
}

// TransitionInput carries one lifecycle transition request. ActorID and
// ActorRole come from the authenticated caller; optional fields apply only to
// specific transitions (odometers on pickup/return, reason on cancel).
type TransitionInput struct {
	RentalID  int64
	ActorID   int64
	ActorRole domain.UserRole
	Target    domain.RentalStatus
	Reason    string
	Odometer  *int32
}

type RentalService interface {
	CreateRental(ctx context.Context, in CreateRentalInput) (*domain.Rental, error)
	Transition(ctx context.Context, in TransitionInput) (*domain.Rental, error)
	GetRental(ctx context.Context, actorID int64, actorRole domain.UserRole, rentalID int64) (*domain.Rental, error)
	ListRentals(ctx context.Context, actorID int64, asOwner bool, status string, page, pageSize int32) ([]domain.Rental, int32, error)
	// ExpirePendingPayments cancels rentals stuck in PENDING_PAYMENT past the
	// payment timeout. Used by the background expiry job. Returns how many
	// rentals were cancelled.
	ExpirePendingPayments(ctx context.Context, olderThan time.Duration, limit int32) (int, error)
}

type OpenDisputeInput struct {
	RentalID    int64
	OpenedBy    int64
	ActorRole   domain.UserRole
	Reason      string
	Description string
}

type ResolveDisputeInput struct {
	DisputeID  int64
	AdminID    int64
	Outcome    domain.DisputeStatus // RESOLVED_REFUND, RESOLVED_NO_REFUND or CANCELLED
	AdminNotes string
	// RefundAmount overrides the refund for RESOLVED_REFUND. Zero means the
	// full charged amount.
	RefundAmount int64
}

type AttachEvidenceInput struct {
	RentalID    int64
	DisputeID   *int64
	UploadedBy  int64
	ActorRole   domain.UserRole
	Type        domain.EvidenceType
	FileURL     string
	Description string
}

type DisputeService interface {
	OpenDispute(ctx context.Context, in OpenDisputeInput) (*domain.RentalDispute, error)
	GetDispute(ctx context.Context, actorID int64, actorRole domain.UserRole, disputeID int64) (*domain.RentalDispute, error)
	// StartReview moves an OPEN dispute to UNDER_REVIEW.
	StartReview(ctx context.Context, adminID, disputeID int64) (*domain.RentalDispute, error)
	Resolve(ctx context.Context, in ResolveDisputeInput) (*domain.RentalDispute, error)
	AttachEvidence(ctx context.Context, in AttachEvidenceInput) (*domain.RentalEvidence, error)
	ListEvidence(ctx context.Context, actorID int64, actorRole domain.UserRole, rentalID int64) ([]domain.RentalEvidence, error)
}

type SettlementService interface {
	// ComputeWeeklyCommissions runs the weekly batch for the calendar week
	// containing refTime (Monday 00:00 UTC bounds). Returns the number of
	// owner rows written.
	ComputeWeeklyCommissions(ctx context.Context, refTime time.Time) (int, error)
	GetCommission(ctx context.Context, actorID int64, actorRole domain.UserRole, commissionID int64) (*domain.OwnerCommission, error)
	ListCommissions(ctx context.Context, ownerID int64, page, pageSize int32) ([]domain.OwnerCommission, int32, error)
	// SubmitPayment records an owner's proof of commission payment.
	SubmitPayment(ctx context.Context, ownerID, commissionID int64, invoiceRef, invoiceURL string) (*domain.CommissionPayment, error)
	// ReviewPayment approves or rejects a pending payment submission.
	// Approval marks the commission PAID.
	ReviewPayment(ctx context.Context, adminID, paymentID int64, approve bool, notes string) (*domain.CommissionPayment, error)
}

type LedgerService interface {
	ListRentalTransactions(ctx context.Context, actorID int64, actorRole domain.UserRole, rentalID int64) ([]domain.RentalTransaction, error)
	GetOwnerSummary(ctx context.Context, ownerID int64) (*domain.LedgerSummary, error)
}

type FeeService interface {
	GetActiveSettings(ctx context.Context) (*domain.FeeSettings, error)
	// UpdateSettings activates a new fee settings row; the previous row is
	// kept for history. Existing rentals keep their snapshots.
	UpdateSettings(ctx context.Context, adminID int64, fs *domain.FeeSettings) (*domain.FeeSettings, error)
	Quote(ctx context.Context, in CreateRentalInput) (*domain.Rental, error)
}

type VehicleService interface {
	AddVehicle(ctx context.Context, v *domain.Vehicle) error
	GetVehicle(ctx context.Context, id int64) (*domain.Vehicle, error)
	UpdateVehicle(ctx context.Context, ownerID int64, v *domain.Vehicle) error
	ListMyVehicles(ctx context.Context, ownerID int64, page, pageSize int32) ([]domain.Vehicle, int32, error)
}

type NotificationService interface {
	GetNotifications(ctx context.Context, userID int64, page, pageSize int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, userID, notificationID int64) error
}

type EmailService interface {
	SendBookingRequestNotification(ctx context.Context, ownerEmail, renterName, vehicleName string) error
	SendBookingConfirmedNotification(ctx context.Context, renterEmail, vehicleName string) error
	SendCancellationNotification(ctx context.Context, email, vehicleName, reason string) error
	SendCompletionNotification(ctx context.Context, ownerEmail, vehicleName string, earning int64) error
	SendDisputeOpenedNotification(ctx context.Context, email, vehicleName, reason string) error
	SendDisputeResolvedNotification(ctx context.Context, email, vehicleName, outcome string) error
	SendCommissionStatementNotification(ctx context.Context, ownerEmail string, weekStart time.Time, amount int64) error
}

// PushService delivers mobile push notifications. Delivery failures are
// logged, never propagated into a lifecycle transition.
type PushService interface {
	Send(ctx context.Context, deviceToken, title, body string, data map[string]string) error
}
