package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"motorent-backend/internal/domain"
	"motorent-backend/internal/logger"
)

// Gateway is the payment provider boundary. Capture pulls money from a
// renter's card, Refund pushes it back. Both return the provider's reference
// for the ledger's external_ref column.
type Gateway interface {
	// Capture charges the renter. A declined card returns
	// domain.ErrPaymentDeclined; transport or provider failures return
	// domain.ErrDependencyFailure so callers can roll back the transition.
	Capture(ctx context.Context, rentalID, renterID, amount int64, currency string) (string, error)
	// Refund returns money to the renter against an earlier capture.
	Refund(ctx context.Context, rentalID, renterID, amount int64, currency string) (string, error)
}

// MockGateway simulates a payment provider for demo/testing without a real
// processor. Every call succeeds and returns a synthetic reference.
type MockGateway struct{}

func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

func (g *MockGateway) Capture(ctx context.Context, rentalID, renterID, amount int64, currency string) (string, error) {
	if amount <= 0 {
		return "", fmt.Errorf("capture amount must be positive: %w", domain.ErrValidation)
	}
	ref := "mock-capture-" + uuid.New().String()
	logger.Info("mock payment captured",
		"rental_id", rentalID, "renter_id", renterID, "amount", amount, "currency", currency, "ref", ref)
	return ref, nil
}

func (g *MockGateway) Refund(ctx context.Context, rentalID, renterID, amount int64, currency string) (string, error) {
	if amount <= 0 {
		return "", fmt.Errorf("refund amount must be positive: %w", domain.ErrValidation)
	}
	ref := "mock-refund-" + uuid.New().String()
	logger.Info("mock payment refunded",
		"rental_id", rentalID, "renter_id", renterID, "amount", amount, "currency", currency, "ref", ref)
	return ref, nil
}
