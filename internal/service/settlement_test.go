package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"motorent-backend/internal/domain"
)

func TestWeekBounds(t *testing.T) {
	cases := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"wednesday", time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC), time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
		{"monday midnight", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
		{"sunday closes the week", time.Date(2026, 3, 8, 23, 59, 59, 0, time.UTC), time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
		{"next monday opens a new week", time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, end := WeekBounds(tc.in)
			assert.Equal(t, tc.want, start)
			assert.Equal(t, tc.want.AddDate(0, 0, 7), end)
		})
	}
}

func TestComputeWeeklyCommissions(t *testing.T) {
	ctx := context.Background()
	refTime := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	weekStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	weekEnd := weekStart.AddDate(0, 0, 7)
	settings := &domain.FeeSettings{ID: 12, PlatformFeeRatio: 0.15, Active: true}

	t.Run("rolls up payouts per owner with half-up rounding", func(t *testing.T) {
		store := newMockStore()
		svc := NewSettlementService(store, stubEmailService{})

		store.feeSettings.On("GetActive", mock.Anything).Return(settings, nil)
		store.ledger.On("WeeklyPayoutOwners", mock.Anything, weekStart, weekEnd, mock.AnythingOfType("time.Time")).
			Return([]int64{9, 11}, nil)
		store.commissions.On("GetByOwnerWeek", mock.Anything, mock.AnythingOfType("int64"), weekStart).
			Return(nil, domain.ErrNotFound)
		store.ledger.On("SumOwnerPayouts", mock.Anything, int64(9), weekStart, weekEnd, mock.AnythingOfType("time.Time")).
			Return(int64(204003), int32(3), nil)
		store.ledger.On("SumOwnerPayouts", mock.Anything, int64(11), weekStart, weekEnd, mock.AnythingOfType("time.Time")).
			Return(int64(100000), int32(1), nil)
		// 204003 * 0.15 = 30600.45, rounds to 30600
		store.commissions.On("Upsert", mock.Anything, mock.MatchedBy(func(c *domain.OwnerCommission) bool {
			return c.OwnerID == 9 &&
				c.WeekStartDate.Equal(weekStart) &&
				c.TotalEarning == 204003 &&
				c.CommissionRate == 0.15 &&
				c.CommissionAmount == 30600 &&
				c.RentalCount == 3 &&
				c.PaymentStatus == domain.CommissionStatusPending
		})).Return(nil)
		store.commissions.On("Upsert", mock.Anything, mock.MatchedBy(func(c *domain.OwnerCommission) bool {
			return c.OwnerID == 11 && c.CommissionAmount == 15000
		})).Return(nil)
		store.users.On("GetByID", mock.Anything, mock.AnythingOfType("int64")).
			Return(&domain.User{ID: 9, Email: "owner@example.com"}, nil).Maybe()

		written, err := svc.ComputeWeeklyCommissions(ctx, refTime)

		assert.NoError(t, err)
		assert.Equal(t, 2, written)
		store.commissions.AssertExpectations(t)
	})

	t.Run("a pending payment submission locks the week", func(t *testing.T) {
		store := newMockStore()
		svc := NewSettlementService(store, stubEmailService{})

		store.feeSettings.On("GetActive", mock.Anything).Return(settings, nil)
		store.ledger.On("WeeklyPayoutOwners", mock.Anything, weekStart, weekEnd, mock.AnythingOfType("time.Time")).
			Return([]int64{9}, nil)
		// The row is still PENDING (only approval marks it PAID), but an
		// invoice is under review against its figures.
		store.commissions.On("GetByOwnerWeek", mock.Anything, int64(9), weekStart).
			Return(&domain.OwnerCommission{
				ID:               30,
				OwnerID:          9,
				WeekStartDate:    weekStart,
				CommissionAmount: 30600,
				PaymentStatus:    domain.CommissionStatusPending,
			}, nil)
		store.commissions.On("HasPayments", mock.Anything, int64(30)).Return(true, nil)

		written, err := svc.ComputeWeeklyCommissions(ctx, refTime)

		assert.NoError(t, err)
		assert.Equal(t, 0, written)
		store.commissions.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
		store.ledger.AssertNotCalled(t, "SumOwnerPayouts",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("a paid week is locked without consulting payments", func(t *testing.T) {
		store := newMockStore()
		svc := NewSettlementService(store, stubEmailService{})

		store.feeSettings.On("GetActive", mock.Anything).Return(settings, nil)
		store.ledger.On("WeeklyPayoutOwners", mock.Anything, weekStart, weekEnd, mock.AnythingOfType("time.Time")).
			Return([]int64{9}, nil)
		store.commissions.On("GetByOwnerWeek", mock.Anything, int64(9), weekStart).
			Return(&domain.OwnerCommission{ID: 30, OwnerID: 9, WeekStartDate: weekStart, PaymentStatus: domain.CommissionStatusPaid}, nil)

		written, err := svc.ComputeWeeklyCommissions(ctx, refTime)

		assert.NoError(t, err)
		assert.Equal(t, 0, written)
		store.commissions.AssertNotCalled(t, "HasPayments", mock.Anything, mock.Anything)
		store.commissions.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("an existing week without submissions recomputes in place", func(t *testing.T) {
		store := newMockStore()
		svc := NewSettlementService(store, stubEmailService{})

		store.feeSettings.On("GetActive", mock.Anything).Return(settings, nil)
		store.ledger.On("WeeklyPayoutOwners", mock.Anything, weekStart, weekEnd, mock.AnythingOfType("time.Time")).
			Return([]int64{9}, nil)
		store.commissions.On("GetByOwnerWeek", mock.Anything, int64(9), weekStart).
			Return(&domain.OwnerCommission{ID: 30, OwnerID: 9, WeekStartDate: weekStart, PaymentStatus: domain.CommissionStatusPending}, nil)
		store.commissions.On("HasPayments", mock.Anything, int64(30)).Return(false, nil)
		store.ledger.On("SumOwnerPayouts", mock.Anything, int64(9), weekStart, weekEnd, mock.AnythingOfType("time.Time")).
			Return(int64(300000), int32(3), nil)
		store.commissions.On("Upsert", mock.Anything, mock.MatchedBy(func(c *domain.OwnerCommission) bool {
			return c.OwnerID == 9 && c.TotalEarning == 300000 && c.CommissionAmount == 45000
		})).Return(nil)
		store.users.On("GetByID", mock.Anything, int64(9)).
			Return(&domain.User{ID: 9, Email: "owner@example.com"}, nil).Maybe()

		written, err := svc.ComputeWeeklyCommissions(ctx, refTime)

		assert.NoError(t, err)
		assert.Equal(t, 1, written)
		store.commissions.AssertExpectations(t)
	})

	t.Run("empty week writes nothing", func(t *testing.T) {
		store := newMockStore()
		svc := NewSettlementService(store, stubEmailService{})

		store.feeSettings.On("GetActive", mock.Anything).Return(settings, nil)
		store.ledger.On("WeeklyPayoutOwners", mock.Anything, weekStart, weekEnd, mock.AnythingOfType("time.Time")).
			Return([]int64{}, nil)

		written, err := svc.ComputeWeeklyCommissions(ctx, refTime)

		assert.NoError(t, err)
		assert.Equal(t, 0, written)
		store.commissions.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})
}

func TestSubmitPayment(t *testing.T) {
	ctx := context.Background()

	pendingCommission := func() *domain.OwnerCommission {
		return &domain.OwnerCommission{ID: 30, OwnerID: 9, CommissionAmount: 30600, PaymentStatus: domain.CommissionStatusPending}
	}

	t.Run("records the submission", func(t *testing.T) {
		store := newMockStore()
		svc := NewSettlementService(store, stubEmailService{})

		store.commissions.On("GetByID", mock.Anything, int64(30)).Return(pendingCommission(), nil)
		store.commissions.On("GetPendingPayment", mock.Anything, int64(30)).Return(nil, domain.ErrNotFound)
		store.commissions.On("CreatePayment", mock.Anything, mock.MatchedBy(func(p *domain.CommissionPayment) bool {
			return p.CommissionID == 30 && p.InvoiceRef == "INV-2026-0309" && p.Status == domain.CommissionPaymentStatusPending
		})).Return(nil)

		p, err := svc.SubmitPayment(ctx, 9, 30, "INV-2026-0309", "https://cdn.example.com/invoices/inv.pdf")

		assert.NoError(t, err)
		assert.Equal(t, domain.CommissionPaymentStatusPending, p.Status)
	})

	t.Run("rejects when a submission is already under review", func(t *testing.T) {
		store := newMockStore()
		svc := NewSettlementService(store, stubEmailService{})

		store.commissions.On("GetByID", mock.Anything, int64(30)).Return(pendingCommission(), nil)
		store.commissions.On("GetPendingPayment", mock.Anything, int64(30)).
			Return(&domain.CommissionPayment{ID: 77, CommissionID: 30, Status: domain.CommissionPaymentStatusPending}, nil)

		_, err := svc.SubmitPayment(ctx, 9, 30, "INV-2026-0310", "")

		assert.ErrorIs(t, err, domain.ErrSettlementLocked)
	})

	t.Run("rejects on a paid settlement", func(t *testing.T) {
		store := newMockStore()
		svc := NewSettlementService(store, stubEmailService{})

		paid := pendingCommission()
		paid.PaymentStatus = domain.CommissionStatusPaid
		store.commissions.On("GetByID", mock.Anything, int64(30)).Return(paid, nil)

		_, err := svc.SubmitPayment(ctx, 9, 30, "INV-2026-0311", "")

		assert.ErrorIs(t, err, domain.ErrSettlementLocked)
	})

	t.Run("rejects another owner's settlement", func(t *testing.T) {
		store := newMockStore()
		svc := NewSettlementService(store, stubEmailService{})

		store.commissions.On("GetByID", mock.Anything, int64(30)).Return(pendingCommission(), nil)

		_, err := svc.SubmitPayment(ctx, 11, 30, "INV-2026-0312", "")

		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestReviewPayment(t *testing.T) {
	ctx := context.Background()

	pendingPayment := func() *domain.CommissionPayment {
		return &domain.CommissionPayment{ID: 77, CommissionID: 30, InvoiceRef: "INV-2026-0309", Status: domain.CommissionPaymentStatusPending}
	}

	t.Run("approval marks the settlement paid", func(t *testing.T) {
		store := newMockStore()
		svc := NewSettlementService(store, stubEmailService{})

		store.commissions.On("GetPaymentByID", mock.Anything, int64(77)).Return(pendingPayment(), nil)
		store.commissions.On("ReviewPayment", mock.Anything, mock.MatchedBy(func(p *domain.CommissionPayment) bool {
			return p.Status == domain.CommissionPaymentStatusApproved && p.ReviewedBy != nil && *p.ReviewedBy == 1
		})).Return(nil)
		store.commissions.On("MarkPaid", mock.Anything, int64(30), mock.AnythingOfType("time.Time")).Return(nil)

		p, err := svc.ReviewPayment(ctx, 1, 77, true, "verified against bank statement")

		assert.NoError(t, err)
		assert.Equal(t, domain.CommissionPaymentStatusApproved, p.Status)
		store.commissions.AssertExpectations(t)
	})

	t.Run("rejection leaves the settlement outstanding", func(t *testing.T) {
		store := newMockStore()
		svc := NewSettlementService(store, stubEmailService{})

		store.commissions.On("GetPaymentByID", mock.Anything, int64(77)).Return(pendingPayment(), nil)
		store.commissions.On("ReviewPayment", mock.Anything, mock.MatchedBy(func(p *domain.CommissionPayment) bool {
			return p.Status == domain.CommissionPaymentStatusRejected
		})).Return(nil)

		p, err := svc.ReviewPayment(ctx, 1, 77, false, "invoice does not match the amount")

		assert.NoError(t, err)
		assert.Equal(t, domain.CommissionPaymentStatusRejected, p.Status)
		store.commissions.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("already reviewed payment is final", func(t *testing.T) {
		store := newMockStore()
		svc := NewSettlementService(store, stubEmailService{})

		done := pendingPayment()
		done.Status = domain.CommissionPaymentStatusApproved
		store.commissions.On("GetPaymentByID", mock.Anything, int64(77)).Return(done, nil)

		_, err := svc.ReviewPayment(ctx, 1, 77, false, "")

		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})
}
