package service

import (
	"context"
	"fmt"

	"motorent-backend/internal/domain"
	"motorent-backend/internal/repository"
)

type ledgerService struct {
	store repository.Store
}

func NewLedgerService(store repository.Store) LedgerService {
	return &ledgerService{store: store}
}

func (s *ledgerService) ListRentalTransactions(ctx context.Context, actorID int64, actorRole domain.UserRole, rentalID int64) ([]domain.RentalTransaction, error) {
	rt, err := s.store.Rentals().GetByID(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if actorRole != domain.UserRoleAdmin && actorID != rt.RenterID && actorID != rt.OwnerID {
		return nil, fmt.Errorf("%w: not a party to this rental", domain.ErrForbidden)
	}
	return s.store.Ledger().ListByRental(ctx, rentalID)
}

func (s *ledgerService) GetOwnerSummary(ctx context.Context, ownerID int64) (*domain.LedgerSummary, error) {
	return s.store.Ledger().GetOwnerSummary(ctx, ownerID)
}
