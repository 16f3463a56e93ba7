package service

import (
	"context"
	"fmt"

	"motorent-backend/internal/domain"
	"motorent-backend/internal/repository"
)

type vehicleService struct {
	store repository.Store
}

func NewVehicleService(store repository.Store) VehicleService {
	return &vehicleService{store: store}
}

func (s *vehicleService) AddVehicle(ctx context.Context, v *domain.Vehicle) error {
	if v.Name == "" {
		return fmt.Errorf("%w: vehicle name is required", domain.ErrValidation)
	}
	if v.PricePerDay <= 0 {
		return fmt.Errorf("%w: price per day must be positive", domain.ErrValidation)
	}
	if v.DepositPrice < 0 {
		return fmt.Errorf("%w: deposit must not be negative", domain.ErrValidation)
	}
	if v.Status == "" {
		v.Status = domain.VehicleStatusAvailable
	}
	return s.store.Vehicles().Create(ctx, v)
}

func (s *vehicleService) GetVehicle(ctx context.Context, id int64) (*domain.Vehicle, error) {
	return s.store.Vehicles().GetByID(ctx, id)
}

func (s *vehicleService) UpdateVehicle(ctx context.Context, ownerID int64, v *domain.Vehicle) error {
	existing, err := s.store.Vehicles().GetByID(ctx, v.ID)
	if err != nil {
		return err
	}
	if existing.OwnerID != ownerID {
		return fmt.Errorf("%w: not your vehicle", domain.ErrForbidden)
	}
	v.OwnerID = existing.OwnerID
	return s.store.Vehicles().Update(ctx, v)
}

func (s *vehicleService) ListMyVehicles(ctx context.Context, ownerID int64, page, pageSize int32) ([]domain.Vehicle, int32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.store.Vehicles().ListByOwner(ctx, ownerID, page, pageSize)
}
