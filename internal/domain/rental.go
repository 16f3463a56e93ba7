package domain

import (
	"fmt"
	"time"
)

type RentalStatus string

const (
	RentalStatusPendingPayment RentalStatus = "PENDING_PAYMENT"
	RentalStatusAwaitApproval  RentalStatus = "AWAIT_APPROVAL"
	RentalStatusConfirmed      RentalStatus = "CONFIRMED"
	RentalStatusOnTrip         RentalStatus = "ON_TRIP"
	RentalStatusCompleted      RentalStatus = "COMPLETED"
	RentalStatusCancelled      RentalStatus = "CANCELLED"
	RentalStatusDisputed       RentalStatus = "DISPUTED"
)

// rentalTransitions is the exhaustive transition table. A status missing from
// the map is terminal. Every observed rental history is a path through this
// table; illegal combinations are unrepresentable.
var rentalTransitions = map[RentalStatus][]RentalStatus{
	RentalStatusPendingPayment: {RentalStatusAwaitApproval, RentalStatusCancelled},
	RentalStatusAwaitApproval:  {RentalStatusConfirmed, RentalStatusCancelled},
	RentalStatusConfirmed:      {RentalStatusOnTrip, RentalStatusCancelled},
	RentalStatusOnTrip:         {RentalStatusCompleted, RentalStatusDisputed},
	RentalStatusCompleted:      {RentalStatusDisputed},
	RentalStatusDisputed:       {RentalStatusCompleted, RentalStatusCancelled},
}

func (s RentalStatus) Valid() bool {
	switch s {
	case RentalStatusPendingPayment, RentalStatusAwaitApproval, RentalStatusConfirmed,
		RentalStatusOnTrip, RentalStatusCompleted, RentalStatusCancelled, RentalStatusDisputed:
		return true
	}
	return false
}

func (s RentalStatus) CanTransitionTo(target RentalStatus) bool {
	for _, allowed := range rentalTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status ends the normal lifecycle. COMPLETED
// is terminal but still admits a dispute within the dispute window.
func (s RentalStatus) IsTerminal() bool {
	return s == RentalStatusCompleted || s == RentalStatusCancelled
}

type Rental struct {
	ID        int64     `json:"id"`
	RenterID  int64     `json:"renter_id"`
	OwnerID   int64     `json:"owner_id"`
	VehicleID int64     `json:"vehicle_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	// DurationDays is the billed duration, fixed at creation.
	DurationDays int32  `json:"duration_days"`
	Currency     string `json:"currency"`
	// Money snapshot fields, captured by the pricing calculator at creation.
	// Immutable once the rental leaves PENDING_PAYMENT; repository updates
	// after that point touch only status, odometers and cancel fields.
	PricePerDay      int64        `json:"price_per_day"`
	DeliveryFee      int64        `json:"delivery_fee"`
	InsuranceFee     int64        `json:"insurance_fee"`
	DiscountAmount   int64        `json:"discount_amount"`
	TotalPrice       int64        `json:"total_price"`
	DepositPrice     int64        `json:"deposit_price"`
	PlatformFeeRatio float64      `json:"platform_fee_ratio"`
	PlatformFee      int64        `json:"platform_fee"`
	OwnerEarning     int64        `json:"owner_earning"`
	FeeSettingsID    int64        `json:"fee_settings_id"`
	Status           RentalStatus `json:"status"`
	StartOdometer    *int32       `json:"start_odometer,omitempty"`
	EndOdometer      *int32       `json:"end_odometer,omitempty"`
	CancelReason     string       `json:"cancel_reason,omitempty"`
	CompletedAt      *time.Time   `json:"completed_at,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// CompletionPayoutKey is the ledger idempotency key for the one-time owner
// payout posted on first entry into COMPLETED.
func (r *Rental) CompletionPayoutKey() string {
	return fmt.Sprintf("%d-completion-payout", r.ID)
}

// ChargeKey is the ledger idempotency key for the renter charge captured on
// entry into AWAIT_APPROVAL.
func (r *Rental) ChargeKey() string {
	return fmt.Sprintf("%d-payment-charge", r.ID)
}

// CancelRefundKey is the ledger idempotency key for the cancellation refund.
func (r *Rental) CancelRefundKey() string {
	return fmt.Sprintf("%d-cancel-refund", r.ID)
}

// DisputeRefundKey is the ledger idempotency key for the earning reversal
// posted when a dispute resolves with a refund.
func (r *Rental) DisputeRefundKey() string {
	return fmt.Sprintf("%d-dispute-refund", r.ID)
}

// ChargedAmount is the amount captured from the renter at payment time.
func (r *Rental) ChargedAmount() int64 {
	return r.TotalPrice + r.DepositPrice
}
