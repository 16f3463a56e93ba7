package service

import (
	"context"
	"fmt"
	"math"

	"motorent-backend/internal/domain"
	"motorent-backend/internal/logger"
	"motorent-backend/internal/pricing"
	"motorent-backend/internal/repository"
)

type feeService struct {
	store repository.Store
}

func NewFeeService(store repository.Store) FeeService {
	return &feeService{store: store}
}

func (s *feeService) GetActiveSettings(ctx context.Context) (*domain.FeeSettings, error) {
	return s.store.FeeSettings().GetActive(ctx)
}

// UpdateSettings activates a new fee settings row. The old row is retired
// but kept, so every historical rental's fee_settings_id still resolves.
func (s *feeService) UpdateSettings(ctx context.Context, adminID int64, fs *domain.FeeSettings) (*domain.FeeSettings, error) {
	if err := validateSettings(fs); err != nil {
		return nil, err
	}
	fs.Active = true
	if err := s.store.FeeSettings().Activate(ctx, fs); err != nil {
		return nil, err
	}
	logger.Info("fee settings activated",
		"settings_id", fs.ID, "admin_id", adminID,
		"platform_fee_ratio", fs.PlatformFeeRatio, "delivery_fee_per_km", fs.DeliveryFeePerKm)
	return fs, nil
}

func validateSettings(fs *domain.FeeSettings) error {
	if fs.DeliveryFeePerKm < 0 {
		return fmt.Errorf("%w: delivery fee must not be negative", domain.ErrValidation)
	}
	for _, rate := range []int64{fs.InsuranceTierA, fs.InsuranceTierB, fs.InsuranceTierC, fs.InsuranceTierD, fs.InsuranceTierDefault} {
		if rate < 0 {
			return fmt.Errorf("%w: insurance rate must not be negative", domain.ErrValidation)
		}
	}
	for _, ratio := range []float64{fs.PlatformFeeRatio, fs.InsuranceCommissionRatio} {
		if math.IsNaN(ratio) || math.IsInf(ratio, 0) || ratio < 0 || ratio > 1 {
			return fmt.Errorf("%w: ratio must be within [0, 1]", domain.ErrValidation)
		}
	}
	return nil
}

// Quote prices a booking request without persisting anything, using the same
// calculator path as CreateRental.
func (s *feeService) Quote(ctx context.Context, in CreateRentalInput) (*domain.Rental, error) {
	vehicle, err := s.store.Vehicles().GetByID(ctx, in.VehicleID)
	if err != nil {
		return nil, err
	}
	days, err := pricing.DurationDays(in.StartDate, in.EndDate)
	if err != nil {
		return nil, err
	}
	fs, err := s.store.FeeSettings().GetActive(ctx)
	if err != nil {
		return nil, err
	}
	quote, err := pricing.Calculate(pricing.Request{
		EngineClass:    vehicle.EngineClass,
		DurationDays:   days,
		PricePerDay:    vehicle.PricePerDay,
		DepositPrice:   vehicle.DepositPrice,
		DeliveryKm:     in.DeliveryKm,
		Delivery:       in.Delivery,
		DiscountAmount: in.DiscountAmount,
	}, fs)
	if err != nil {
		return nil, err
	}
	return &domain.Rental{
		VehicleID:        vehicle.ID,
		OwnerID:          vehicle.OwnerID,
		RenterID:         in.RenterID,
		StartDate:        in.StartDate,
		EndDate:          in.EndDate,
		DurationDays:     quote.DurationDays,
		PricePerDay:      quote.PricePerDay,
		DeliveryFee:      quote.DeliveryFee,
		InsuranceFee:     quote.InsuranceFee,
		DiscountAmount:   quote.DiscountAmount,
		TotalPrice:       quote.TotalPrice,
		DepositPrice:     quote.DepositPrice,
		PlatformFeeRatio: quote.PlatformFeeRatio,
		PlatformFee:      quote.PlatformFee,
		OwnerEarning:     quote.OwnerEarning,
		FeeSettingsID:    quote.FeeSettingsID,
	}, nil
}
