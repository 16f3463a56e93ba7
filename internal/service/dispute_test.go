package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"motorent-backend/internal/config"
	"motorent-backend/internal/domain"
)

type disputeFixture struct {
	store   *mockStore
	gateway *MockGateway
	svc     DisputeService
}

func newDisputeFixture() *disputeFixture {
	store := newMockStore()
	gw := new(MockGateway)
	svc := NewDisputeService(store, gw, stubEmailService{}, stubPushService{}, config.PolicyConfig{
		Currency:           "VND",
		DisputeWindowHours: 72,
	})
	return &disputeFixture{store: store, gateway: gw, svc: svc}
}

func (f *disputeFixture) allowNotifications(rt *domain.Rental) {
	f.store.vehicles.On("GetByID", mock.Anything, rt.VehicleID).
		Return(&domain.Vehicle{ID: rt.VehicleID, OwnerID: rt.OwnerID, Name: "Honda Vision"}, nil).Maybe()
	f.store.users.On("GetByID", mock.Anything, rt.RenterID).
		Return(&domain.User{ID: rt.RenterID, Email: "renter@example.com"}, nil).Maybe()
	f.store.users.On("GetByID", mock.Anything, rt.OwnerID).
		Return(&domain.User{ID: rt.OwnerID, Email: "owner@example.com"}, nil).Maybe()
	f.store.notifications.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()
}

func TestOpenDispute(t *testing.T) {
	ctx := context.Background()

	t.Run("forces the rental into DISPUTED", func(t *testing.T) {
		f := newDisputeFixture()
		rt := testRental(domain.RentalStatusOnTrip)
		f.allowNotifications(rt)

		f.store.rentals.On("GetByIDForUpdate", mock.Anything, int64(42)).Return(rt, nil)
		f.store.disputes.On("GetOpenByRental", mock.Anything, int64(42)).Return(nil, domain.ErrNotFound)
		f.store.disputes.On("Create", mock.Anything, mock.MatchedBy(func(d *domain.RentalDispute) bool {
			return d.RentalID == 42 && d.OpenedBy == 7 && d.Status == domain.DisputeStatusOpen
		})).Run(func(args mock.Arguments) { args.Get(1).(*domain.RentalDispute).ID = 5 }).Return(nil)
		f.store.rentals.On("UpdateStatus", mock.Anything, int64(42),
			domain.RentalStatusOnTrip, domain.RentalStatusDisputed).Return(nil)

		d, err := f.svc.OpenDispute(ctx, OpenDisputeInput{
			RentalID:  42,
			OpenedBy:  7,
			ActorRole: domain.UserRoleRenter,
			Reason:    "vehicle damaged before pickup",
		})

		assert.NoError(t, err)
		assert.Equal(t, int64(5), d.ID)
		assert.Equal(t, domain.DisputeStatusOpen, d.Status)
		f.store.disputes.AssertExpectations(t)
		f.store.rentals.AssertExpectations(t)
	})

	t.Run("rejects a second live dispute", func(t *testing.T) {
		f := newDisputeFixture()
		rt := testRental(domain.RentalStatusOnTrip)

		f.store.rentals.On("GetByIDForUpdate", mock.Anything, int64(42)).Return(rt, nil)
		f.store.disputes.On("GetOpenByRental", mock.Anything, int64(42)).
			Return(&domain.RentalDispute{ID: 5, RentalID: 42, Status: domain.DisputeStatusOpen}, nil)

		_, err := f.svc.OpenDispute(ctx, OpenDisputeInput{
			RentalID:  42,
			OpenedBy:  9,
			ActorRole: domain.UserRoleOwner,
			Reason:    "scratches on return",
		})

		assert.ErrorIs(t, err, domain.ErrDisputeExists)
		f.store.disputes.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects after the dispute window", func(t *testing.T) {
		f := newDisputeFixture()
		rt := testRental(domain.RentalStatusCompleted)
		past := time.Now().Add(-96 * time.Hour)
		rt.CompletedAt = &past

		f.store.rentals.On("GetByIDForUpdate", mock.Anything, int64(42)).Return(rt, nil)

		_, err := f.svc.OpenDispute(ctx, OpenDisputeInput{
			RentalID:  42,
			OpenedBy:  7,
			ActorRole: domain.UserRoleRenter,
			Reason:    "overcharged",
		})

		assert.ErrorIs(t, err, domain.ErrDisputeWindowOver)
	})

	t.Run("allows within the dispute window", func(t *testing.T) {
		f := newDisputeFixture()
		rt := testRental(domain.RentalStatusCompleted)
		recent := time.Now().Add(-24 * time.Hour)
		rt.CompletedAt = &recent
		f.allowNotifications(rt)

		f.store.rentals.On("GetByIDForUpdate", mock.Anything, int64(42)).Return(rt, nil)
		f.store.disputes.On("GetOpenByRental", mock.Anything, int64(42)).Return(nil, domain.ErrNotFound)
		f.store.disputes.On("Create", mock.Anything, mock.Anything).Return(nil)
		f.store.rentals.On("UpdateStatus", mock.Anything, int64(42),
			domain.RentalStatusCompleted, domain.RentalStatusDisputed).Return(nil)

		_, err := f.svc.OpenDispute(ctx, OpenDisputeInput{
			RentalID:  42,
			OpenedBy:  7,
			ActorRole: domain.UserRoleRenter,
			Reason:    "hidden damage",
		})

		assert.NoError(t, err)
	})

	t.Run("rejects when the completion time is unknown", func(t *testing.T) {
		f := newDisputeFixture()
		rt := testRental(domain.RentalStatusCompleted)
		rt.CompletedAt = nil

		f.store.rentals.On("GetByIDForUpdate", mock.Anything, int64(42)).Return(rt, nil)

		_, err := f.svc.OpenDispute(ctx, OpenDisputeInput{
			RentalID:  42,
			OpenedBy:  7,
			ActorRole: domain.UserRoleRenter,
			Reason:    "late damage claim",
		})

		assert.ErrorIs(t, err, domain.ErrDisputeWindowOver)
		f.store.disputes.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects from CONFIRMED", func(t *testing.T) {
		f := newDisputeFixture()
		rt := testRental(domain.RentalStatusConfirmed)
		f.store.rentals.On("GetByIDForUpdate", mock.Anything, int64(42)).Return(rt, nil)

		_, err := f.svc.OpenDispute(ctx, OpenDisputeInput{
			RentalID:  42,
			OpenedBy:  7,
			ActorRole: domain.UserRoleRenter,
			Reason:    "changed my mind",
		})

		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})
}

func TestResolveDispute(t *testing.T) {
	ctx := context.Background()

	openDispute := func(status domain.DisputeStatus) *domain.RentalDispute {
		return &domain.RentalDispute{ID: 5, RentalID: 42, OpenedBy: 7, Status: status}
	}

	t.Run("no refund restores COMPLETED without new ledger entries", func(t *testing.T) {
		f := newDisputeFixture()
		rt := testRental(domain.RentalStatusDisputed)
		completedAt := time.Now().Add(-24 * time.Hour)
		rt.CompletedAt = &completedAt
		f.allowNotifications(rt)

		f.store.disputes.On("GetByID", mock.Anything, int64(5)).Return(openDispute(domain.DisputeStatusUnderReview), nil)
		f.store.rentals.On("GetByIDForUpdate", mock.Anything, int64(42)).Return(rt, nil)
		// Payout already posted on the original completion.
		f.store.ledger.On("HasTransaction", mock.Anything, int64(42), "42-completion-payout").Return(true, nil)
		f.store.rentals.On("UpdateStatus", mock.Anything, int64(42),
			domain.RentalStatusDisputed, domain.RentalStatusCompleted).Return(nil)
		f.store.rentals.On("UpdateLifecycleFields", mock.Anything, rt).Return(nil)
		f.store.disputes.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(d *domain.RentalDispute) bool {
			return d.Status == domain.DisputeStatusResolvedNoRefund && d.ResolvedBy != nil && *d.ResolvedBy == 1
		}), domain.DisputeStatusUnderReview).Return(nil)

		d, err := f.svc.Resolve(ctx, ResolveDisputeInput{
			DisputeID:  5,
			AdminID:    1,
			Outcome:    domain.DisputeStatusResolvedNoRefund,
			AdminNotes: "damage predates the rental",
		})

		assert.NoError(t, err)
		assert.Equal(t, domain.DisputeStatusResolvedNoRefund, d.Status)
		assert.NotNil(t, d.ResolvedAt)
		// The original completion time survives the resolution.
		assert.True(t, rt.CompletedAt.Equal(completedAt))
		f.store.ledger.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything)
		f.store.rentals.AssertExpectations(t)
	})

	t.Run("no refund after an on-trip dispute posts the payout and stamps completion", func(t *testing.T) {
		f := newDisputeFixture()
		rt := testRental(domain.RentalStatusDisputed)
		f.allowNotifications(rt)

		f.store.disputes.On("GetByID", mock.Anything, int64(5)).Return(openDispute(domain.DisputeStatusUnderReview), nil)
		f.store.rentals.On("GetByIDForUpdate", mock.Anything, int64(42)).Return(rt, nil)
		// The dispute interrupted the trip, so no payout exists yet.
		f.store.ledger.On("HasTransaction", mock.Anything, int64(42), "42-completion-payout").Return(false, nil)
		f.store.ledger.On("CreateTransaction", mock.Anything, mock.MatchedBy(func(tx *domain.RentalTransaction) bool {
			return tx.Type == domain.TransactionTypePayout && tx.Amount == 204000
		})).Return(nil)
		f.store.rentals.On("UpdateStatus", mock.Anything, int64(42),
			domain.RentalStatusDisputed, domain.RentalStatusCompleted).Return(nil)
		f.store.rentals.On("UpdateLifecycleFields", mock.Anything, mock.MatchedBy(func(r *domain.Rental) bool {
			return r.ID == 42 && r.CompletedAt != nil
		})).Return(nil)
		f.store.disputes.On("UpdateStatus", mock.Anything, mock.Anything, domain.DisputeStatusUnderReview).Return(nil)

		_, err := f.svc.Resolve(ctx, ResolveDisputeInput{
			DisputeID: 5,
			AdminID:   1,
			Outcome:   domain.DisputeStatusResolvedNoRefund,
		})

		assert.NoError(t, err)
		assert.NotNil(t, rt.CompletedAt)
		f.store.rentals.AssertExpectations(t)
	})

	t.Run("refund cancels the rental and reverses the payout", func(t *testing.T) {
		f := newDisputeFixture()
		rt := testRental(domain.RentalStatusDisputed)
		f.allowNotifications(rt)

		f.store.disputes.On("GetByID", mock.Anything, int64(5)).Return(openDispute(domain.DisputeStatusUnderReview), nil)
		f.store.rentals.On("GetByIDForUpdate", mock.Anything, int64(42)).Return(rt, nil)
		f.gateway.On("Refund", mock.Anything, int64(42), int64(7), int64(740000), "VND").
			Return("mock-refund-xyz", nil)
		f.store.ledger.On("CreateTransaction", mock.Anything, mock.MatchedBy(func(tx *domain.RentalTransaction) bool {
			return tx.UserID == 7 && tx.Amount == 740000 && tx.IdempotencyKey == "42-cancel-refund"
		})).Return(nil)
		f.store.ledger.On("HasTransaction", mock.Anything, int64(42), "42-completion-payout").Return(true, nil)
		f.store.ledger.On("CreateTransaction", mock.Anything, mock.MatchedBy(func(tx *domain.RentalTransaction) bool {
			return tx.UserID == 9 && tx.Amount == -204000 && tx.IdempotencyKey == "42-dispute-refund"
		})).Return(nil)
		f.store.rentals.On("UpdateStatus", mock.Anything, int64(42),
			domain.RentalStatusDisputed, domain.RentalStatusCancelled).Return(nil)
		f.store.rentals.On("UpdateLifecycleFields", mock.Anything, rt).Return(nil)
		f.store.disputes.On("UpdateStatus", mock.Anything, mock.Anything, domain.DisputeStatusUnderReview).Return(nil)

		d, err := f.svc.Resolve(ctx, ResolveDisputeInput{
			DisputeID: 5,
			AdminID:   1,
			Outcome:   domain.DisputeStatusResolvedRefund,
		})

		assert.NoError(t, err)
		assert.Equal(t, domain.DisputeStatusResolvedRefund, d.Status)
		f.gateway.AssertExpectations(t)
		f.store.ledger.AssertExpectations(t)
	})

	t.Run("refund from ON_TRIP dispute has no payout to reverse", func(t *testing.T) {
		f := newDisputeFixture()
		rt := testRental(domain.RentalStatusDisputed)
		f.allowNotifications(rt)

		f.store.disputes.On("GetByID", mock.Anything, int64(5)).Return(openDispute(domain.DisputeStatusUnderReview), nil)
		f.store.rentals.On("GetByIDForUpdate", mock.Anything, int64(42)).Return(rt, nil)
		f.gateway.On("Refund", mock.Anything, int64(42), int64(7), int64(500000), "VND").
			Return("mock-refund-uvw", nil)
		f.store.ledger.On("CreateTransaction", mock.Anything, mock.MatchedBy(func(tx *domain.RentalTransaction) bool {
			return tx.Amount == 500000 && tx.IdempotencyKey == "42-cancel-refund"
		})).Return(nil)
		f.store.ledger.On("HasTransaction", mock.Anything, int64(42), "42-completion-payout").Return(false, nil)
		f.store.rentals.On("UpdateStatus", mock.Anything, int64(42),
			domain.RentalStatusDisputed, domain.RentalStatusCancelled).Return(nil)
		f.store.rentals.On("UpdateLifecycleFields", mock.Anything, rt).Return(nil)
		f.store.disputes.On("UpdateStatus", mock.Anything, mock.Anything, domain.DisputeStatusUnderReview).Return(nil)

		_, err := f.svc.Resolve(ctx, ResolveDisputeInput{
			DisputeID:    5,
			AdminID:      1,
			Outcome:      domain.DisputeStatusResolvedRefund,
			RefundAmount: 500000,
		})

		assert.NoError(t, err)
		f.store.ledger.AssertNumberOfCalls(t, "CreateTransaction", 1)
	})

	t.Run("rejects a refund above the captured charge", func(t *testing.T) {
		f := newDisputeFixture()
		rt := testRental(domain.RentalStatusDisputed)

		f.store.disputes.On("GetByID", mock.Anything, int64(5)).Return(openDispute(domain.DisputeStatusUnderReview), nil)
		f.store.rentals.On("GetByIDForUpdate", mock.Anything, int64(42)).Return(rt, nil)

		_, err := f.svc.Resolve(ctx, ResolveDisputeInput{
			DisputeID:    5,
			AdminID:      1,
			Outcome:      domain.DisputeStatusResolvedRefund,
			RefundAmount: 900000,
		})

		assert.ErrorIs(t, err, domain.ErrValidation)
		f.gateway.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects a non-terminal outcome", func(t *testing.T) {
		f := newDisputeFixture()

		_, err := f.svc.Resolve(ctx, ResolveDisputeInput{
			DisputeID: 5,
			AdminID:   1,
			Outcome:   domain.DisputeStatusUnderReview,
		})

		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("rejects resolving from OPEN with a refund outcome", func(t *testing.T) {
		f := newDisputeFixture()
		f.store.disputes.On("GetByID", mock.Anything, int64(5)).Return(openDispute(domain.DisputeStatusOpen), nil)

		_, err := f.svc.Resolve(ctx, ResolveDisputeInput{
			DisputeID: 5,
			AdminID:   1,
			Outcome:   domain.DisputeStatusResolvedRefund,
		})

		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})
}

func TestStartReview(t *testing.T) {
	ctx := context.Background()
	f := newDisputeFixture()

	f.store.disputes.On("GetByID", mock.Anything, int64(5)).
		Return(&domain.RentalDispute{ID: 5, RentalID: 42, Status: domain.DisputeStatusOpen}, nil)
	f.store.disputes.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(d *domain.RentalDispute) bool {
		return d.Status == domain.DisputeStatusUnderReview
	}), domain.DisputeStatusOpen).Return(nil)

	d, err := f.svc.StartReview(ctx, 1, 5)

	assert.NoError(t, err)
	assert.Equal(t, domain.DisputeStatusUnderReview, d.Status)
}

func TestAttachEvidence(t *testing.T) {
	ctx := context.Background()
	disputeID := int64(5)

	t.Run("derives the rental from the dispute", func(t *testing.T) {
		f := newDisputeFixture()
		rt := testRental(domain.RentalStatusDisputed)

		f.store.disputes.On("GetByID", mock.Anything, disputeID).
			Return(&domain.RentalDispute{ID: 5, RentalID: 42, Status: domain.DisputeStatusOpen}, nil)
		f.store.rentals.On("GetByID", mock.Anything, int64(42)).Return(rt, nil)
		f.store.disputes.On("AddEvidence", mock.Anything, mock.MatchedBy(func(e *domain.RentalEvidence) bool {
			return e.RentalID == 42 && e.DisputeID != nil && *e.DisputeID == 5 && e.Type == domain.EvidenceTypeDamage
		})).Return(nil)

		e, err := f.svc.AttachEvidence(ctx, AttachEvidenceInput{
			DisputeID:  &disputeID,
			UploadedBy: 7,
			ActorRole:  domain.UserRoleRenter,
			Type:       domain.EvidenceTypeDamage,
			FileURL:    "https://cdn.example.com/evidence/scratch.jpg",
		})

		assert.NoError(t, err)
		assert.Equal(t, int64(42), e.RentalID)
	})

	t.Run("rejects evidence on a resolved dispute", func(t *testing.T) {
		f := newDisputeFixture()
		rt := testRental(domain.RentalStatusCompleted)

		f.store.disputes.On("GetByID", mock.Anything, disputeID).
			Return(&domain.RentalDispute{ID: 5, RentalID: 42, Status: domain.DisputeStatusResolvedNoRefund}, nil)
		f.store.rentals.On("GetByID", mock.Anything, int64(42)).Return(rt, nil)

		_, err := f.svc.AttachEvidence(ctx, AttachEvidenceInput{
			DisputeID:  &disputeID,
			UploadedBy: 7,
			ActorRole:  domain.UserRoleRenter,
			Type:       domain.EvidenceTypeDocument,
			FileURL:    "https://cdn.example.com/evidence/receipt.pdf",
		})

		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("rejects an unknown type", func(t *testing.T) {
		f := newDisputeFixture()

		_, err := f.svc.AttachEvidence(ctx, AttachEvidenceInput{
			RentalID:   42,
			UploadedBy: 7,
			ActorRole:  domain.UserRoleRenter,
			Type:       "SELFIE",
			FileURL:    "https://cdn.example.com/evidence/x.jpg",
		})

		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("rejects a stranger", func(t *testing.T) {
		f := newDisputeFixture()
		rt := testRental(domain.RentalStatusDisputed)
		f.store.rentals.On("GetByID", mock.Anything, int64(42)).Return(rt, nil)

		_, err := f.svc.AttachEvidence(ctx, AttachEvidenceInput{
			RentalID:   42,
			UploadedBy: 999,
			ActorRole:  domain.UserRoleRenter,
			Type:       domain.EvidenceTypeDamage,
			FileURL:    "https://cdn.example.com/evidence/x.jpg",
		})

		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}
