package domain

import "time"

type CommissionStatus string

const (
	CommissionStatusPending CommissionStatus = "PENDING"
	CommissionStatusPaid    CommissionStatus = "PAID"
)

// OwnerCommission is one settlement row per owner per calendar week.
// CommissionAmount = half-up(TotalEarning * CommissionRate), rounded exactly
// once at computation time. CommissionRate is the platform rate in force when
// the settlement ran, snapshotted so later policy edits cannot change it.
type OwnerCommission struct {
	ID               int64            `json:"id"`
	OwnerID          int64            `json:"owner_id"`
	WeekStartDate    time.Time        `json:"week_start_date"`
	WeekEndDate      time.Time        `json:"week_end_date"`
	TotalEarning     int64            `json:"total_earning"`
	CommissionRate   float64          `json:"commission_rate"`
	CommissionAmount int64            `json:"commission_amount"`
	RentalCount      int32            `json:"rental_count"`
	PaymentStatus    CommissionStatus `json:"payment_status"`
	PaidAt           *time.Time       `json:"paid_at,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

type CommissionPaymentStatus string

const (
	CommissionPaymentStatusPending  CommissionPaymentStatus = "PENDING"
	CommissionPaymentStatusApproved CommissionPaymentStatus = "APPROVED"
	CommissionPaymentStatusRejected CommissionPaymentStatus = "REJECTED"
)

// CommissionPayment is an owner's proof-of-payment submission against one
// OwnerCommission. Rejection keeps the row for audit; a resubmission is a
// fresh row.
type CommissionPayment struct {
	ID           int64                   `json:"id"`
	CommissionID int64                   `json:"commission_id"`
	InvoiceRef   string                  `json:"invoice_ref"`
	InvoiceURL   string                  `json:"invoice_url,omitempty"`
	Status       CommissionPaymentStatus `json:"status"`
	AdminNotes   string                  `json:"admin_notes,omitempty"`
	ReviewedBy   *int64                  `json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time              `json:"reviewed_at,omitempty"`
	CreatedAt    time.Time               `json:"created_at"`
}
