package domain

import "time"

// FeeSettings is the admin-editable fee policy. Exactly one row is active at
// a time; activating new settings retires the old row but keeps it for
// history. Pricing reads the active row once per calculation and snapshots
// the values into the rental, so historical rentals never reprice.
type FeeSettings struct {
	ID               int64 `json:"id"`
	DeliveryFeePerKm int64 `json:"delivery_fee_per_km"`
	// Insurance day-rates by vehicle engine-class tier.
	InsuranceTierA       int64 `json:"insurance_tier_a"`
	InsuranceTierB       int64 `json:"insurance_tier_b"`
	InsuranceTierC       int64 `json:"insurance_tier_c"`
	InsuranceTierD       int64 `json:"insurance_tier_d"`
	InsuranceTierDefault int64 `json:"insurance_tier_default"`
	// InsuranceCommissionRatio is the platform's share of insurance revenue,
	// in [0, 1].
	InsuranceCommissionRatio float64 `json:"insurance_commission_ratio"`
	// PlatformFeeRatio is the platform's share of a rental's total price, in
	// [0, 1]. Snapshotted into every rental at booking and into every
	// settlement at computation.
	PlatformFeeRatio float64   `json:"platform_fee_ratio"`
	Active           bool      `json:"active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
