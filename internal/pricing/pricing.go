// Package pricing computes the full monetary breakdown of a rental request.
// Calculations are pure functions of the request and a FeeSettings snapshot,
// safe to run concurrently, and all amounts are integer minor units (VND).
package pricing

import (
	"fmt"
	"math"
	"strings"
	"time"

	"motorent-backend/internal/domain"
)

// insuranceClassifiers maps engine-class substrings to insurance tiers.
// Matching is case-insensitive, first match wins; anything unmatched falls
// back to the default tier. Unknown classes are deliberately not an error.
var insuranceClassifiers = []struct {
	substr string
	tier   string
}{
	{"50cc", "A"},
	{"tay ga", "B"},
	{"electric", "B"},
	{"tay côn", "C"},
	{"moto", "D"},
}

// Request carries the vehicle snapshot and booking parameters for a quote.
type Request struct {
	EngineClass    string
	DurationDays   int32
	PricePerDay    int64
	DepositPrice   int64
	DeliveryKm     float64
	Delivery       bool
	DiscountAmount int64
}

// Quote is the fully populated pricing breakdown plus the fee-settings row it
// was computed from. Invariants:
//
//	TotalPrice   = PricePerDay*DurationDays + DeliveryFee + InsuranceFee - DiscountAmount
//	OwnerEarning = TotalPrice - PlatformFee
type Quote struct {
	DurationDays        int32
	PricePerDay         int64
	DeliveryFee         int64
	InsuranceFee        int64
	DiscountAmount      int64
	TotalPrice          int64
	DepositPrice        int64
	PlatformFeeRatio    float64
	PlatformFee         int64
	OwnerEarning        int64
	InsuranceCommission int64
	FeeSettingsID       int64
}

// DurationDays converts a booking window into billed days, rounding partial
// days up. End must be strictly after start.
func DurationDays(start, end time.Time) (int32, error) {
	if !end.After(start) {
		return 0, fmt.Errorf("%w: end date must be after start date", domain.ErrValidation)
	}
	hours := end.Sub(start).Hours()
	days := int32(math.Ceil(hours / 24))
	if days < 1 {
		days = 1
	}
	return days, nil
}

// InsuranceDayRate selects the per-day insurance rate for an engine class.
func InsuranceDayRate(engineClass string, fs *domain.FeeSettings) int64 {
	class := strings.ToLower(engineClass)
	for _, c := range insuranceClassifiers {
		if strings.Contains(class, c.substr) {
			switch c.tier {
			case "A":
				return fs.InsuranceTierA
			case "B":
				return fs.InsuranceTierB
			case "C":
				return fs.InsuranceTierC
			case "D":
				return fs.InsuranceTierD
			}
		}
	}
	return fs.InsuranceTierDefault
}

// Calculate produces a quote from a request and the active fee settings.
// Rounding happens exactly once per derived amount, at the final aggregate.
func Calculate(req Request, fs *domain.FeeSettings) (*Quote, error) {
	if fs == nil {
		return nil, fmt.Errorf("%w: fee settings required", domain.ErrValidation)
	}
	if req.DurationDays <= 0 {
		return nil, fmt.Errorf("%w: duration must be at least one day", domain.ErrValidation)
	}
	if req.PricePerDay < 0 || req.DepositPrice < 0 || req.DiscountAmount < 0 {
		return nil, fmt.Errorf("%w: negative money field", domain.ErrValidation)
	}
	if req.Delivery && (req.DeliveryKm < 0 || math.IsNaN(req.DeliveryKm) || math.IsInf(req.DeliveryKm, 0)) {
		return nil, fmt.Errorf("%w: invalid delivery distance", domain.ErrValidation)
	}
	if !ratioValid(fs.PlatformFeeRatio) || !ratioValid(fs.InsuranceCommissionRatio) {
		return nil, fmt.Errorf("%w: fee ratio out of range", domain.ErrValidation)
	}

	var deliveryFee int64
	if req.Delivery {
		deliveryFee = roundHalfUp(req.DeliveryKm * float64(fs.DeliveryFeePerKm))
	}

	insuranceFee := int64(req.DurationDays) * InsuranceDayRate(req.EngineClass, fs)
	base := req.PricePerDay*int64(req.DurationDays) + deliveryFee + insuranceFee

	// Discount may not drive the total below zero; clamp at the pre-discount
	// total instead of erroring.
	discount := req.DiscountAmount
	if discount > base {
		discount = base
	}
	total := base - discount
	if total < 0 {
		return nil, fmt.Errorf("%w: computed total is negative", domain.ErrValidation)
	}

	platformFee := roundHalfUp(float64(total) * fs.PlatformFeeRatio)

	return &Quote{
		DurationDays:        req.DurationDays,
		PricePerDay:         req.PricePerDay,
		DeliveryFee:         deliveryFee,
		InsuranceFee:        insuranceFee,
		DiscountAmount:      discount,
		TotalPrice:          total,
		DepositPrice:        req.DepositPrice,
		PlatformFeeRatio:    fs.PlatformFeeRatio,
		PlatformFee:         platformFee,
		OwnerEarning:        total - platformFee,
		InsuranceCommission: roundHalfUp(float64(insuranceFee) * fs.InsuranceCommissionRatio),
		FeeSettingsID:       fs.ID,
	}, nil
}

// RoundCommission applies the settlement rounding rule: half-up to the
// smallest currency unit, exactly once.
func RoundCommission(totalEarning int64, rate float64) int64 {
	return roundHalfUp(float64(totalEarning) * rate)
}

func roundHalfUp(v float64) int64 {
	return int64(math.Floor(v + 0.5))
}

func ratioValid(r float64) bool {
	return !math.IsNaN(r) && !math.IsInf(r, 0) && r >= 0 && r <= 1
}
