package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"motorent-backend/internal/domain"
	"motorent-backend/internal/logger"
	"motorent-backend/internal/pricing"
	"motorent-backend/internal/repository"
)

type settlementService struct {
	store repository.Store
	email EmailService
}

func NewSettlementService(store repository.Store, email EmailService) SettlementService {
	return &settlementService{store: store, email: email}
}

// WeekBounds returns the Monday 00:00 UTC bounds of the calendar week
// containing t.
func WeekBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday closes the week
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, -(weekday - 1))
	return start, start.AddDate(0, 0, 7)
}

// ComputeWeeklyCommissions rolls up completion payouts per owner for the
// calendar week containing refTime. The batch start timestamp bounds the
// snapshot: only ledger entries committed strictly before it count, so a
// rental completing mid-batch is wholly excluded and picked up next run.
// Owners whose week is already locked by a payment submission are skipped.
func (s *settlementService) ComputeWeeklyCommissions(ctx context.Context, refTime time.Time) (int, error) {
	batchStart := time.Now().UTC()
	weekStart, weekEnd := WeekBounds(refTime)

	rate, err := s.currentRate(ctx)
	if err != nil {
		return 0, err
	}

	owners, err := s.store.Ledger().WeeklyPayoutOwners(ctx, weekStart, weekEnd, batchStart)
	if err != nil {
		return 0, err
	}

	written := 0
	for _, ownerID := range owners {
		locked, err := s.weekLocked(ctx, ownerID, weekStart)
		if err != nil {
			return written, err
		}
		if locked {
			logger.Warn("settlement week locked by payment submission, skipping recompute",
				"owner_id", ownerID, "week_start", weekStart.Format("2006-01-02"))
			continue
		}

		total, count, err := s.store.Ledger().SumOwnerPayouts(ctx, ownerID, weekStart, weekEnd, batchStart)
		if err != nil {
			return written, err
		}

		commission := &domain.OwnerCommission{
			OwnerID:          ownerID,
			WeekStartDate:    weekStart,
			WeekEndDate:      weekEnd,
			TotalEarning:     total,
			CommissionRate:   rate,
			CommissionAmount: pricing.RoundCommission(total, rate),
			RentalCount:      count,
			PaymentStatus:    domain.CommissionStatusPending,
		}
		if err := s.store.Commissions().Upsert(ctx, commission); err != nil {
			if errors.Is(err, domain.ErrSettlementLocked) {
				logger.Warn("settlement week locked by payment, skipping recompute",
					"owner_id", ownerID, "week_start", weekStart.Format("2006-01-02"))
				continue
			}
			return written, err
		}
		written++

		s.sendStatement(ctx, ownerID, weekStart, commission.CommissionAmount)
	}

	logger.Info("weekly commission settlement finished",
		"week_start", weekStart.Format("2006-01-02"), "owners", len(owners), "written", written)
	return written, nil
}

// weekLocked reports whether the owner's settlement row for the week already
// carries a payment submission. Any submission, pending included, freezes the
// computed figures: an admin must not review an invoice against numbers that
// shift under it.
func (s *settlementService) weekLocked(ctx context.Context, ownerID int64, weekStart time.Time) (bool, error) {
	existing, err := s.store.Commissions().GetByOwnerWeek(ctx, ownerID, weekStart)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if existing.PaymentStatus == domain.CommissionStatusPaid {
		return true, nil
	}
	return s.store.Commissions().HasPayments(ctx, existing.ID)
}

// currentRate reads the platform rate in force right now. It is snapshotted
// into the commission row so a later policy edit cannot reshape a settled
// week.
func (s *settlementService) currentRate(ctx context.Context) (float64, error) {
	fs, err := s.store.FeeSettings().GetActive(ctx)
	if err != nil {
		return 0, err
	}
	if fs.PlatformFeeRatio < 0 || fs.PlatformFeeRatio > 1 {
		return 0, fmt.Errorf("%w: platform fee ratio out of range", domain.ErrValidation)
	}
	return fs.PlatformFeeRatio, nil
}

func (s *settlementService) GetCommission(ctx context.Context, actorID int64, actorRole domain.UserRole, commissionID int64) (*domain.OwnerCommission, error) {
	c, err := s.store.Commissions().GetByID(ctx, commissionID)
	if err != nil {
		return nil, err
	}
	if actorRole != domain.UserRoleAdmin && actorID != c.OwnerID {
		return nil, fmt.Errorf("%w: not your settlement", domain.ErrForbidden)
	}
	return c, nil
}

func (s *settlementService) ListCommissions(ctx context.Context, ownerID int64, page, pageSize int32) ([]domain.OwnerCommission, int32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.store.Commissions().ListByOwner(ctx, ownerID, page, pageSize)
}

// SubmitPayment records the owner's proof of commission payment. One live
// submission per settlement; a rejected one stays on file and a fresh row
// carries the resubmission.
func (s *settlementService) SubmitPayment(ctx context.Context, ownerID, commissionID int64, invoiceRef, invoiceURL string) (*domain.CommissionPayment, error) {
	if invoiceRef == "" {
		return nil, fmt.Errorf("%w: invoice reference is required", domain.ErrValidation)
	}

	c, err := s.store.Commissions().GetByID(ctx, commissionID)
	if err != nil {
		return nil, err
	}
	if c.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: not your settlement", domain.ErrForbidden)
	}
	if c.PaymentStatus == domain.CommissionStatusPaid {
		return nil, fmt.Errorf("%w: settlement already paid", domain.ErrSettlementLocked)
	}
	if _, err := s.store.Commissions().GetPendingPayment(ctx, commissionID); err == nil {
		return nil, fmt.Errorf("%w: a submission is already under review", domain.ErrSettlementLocked)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	p := &domain.CommissionPayment{
		CommissionID: commissionID,
		InvoiceRef:   invoiceRef,
		InvoiceURL:   invoiceURL,
		Status:       domain.CommissionPaymentStatusPending,
	}
	if err := s.store.Commissions().CreatePayment(ctx, p); err != nil {
		return nil, err
	}
	logger.Info("commission payment submitted",
		"commission_id", commissionID, "owner_id", ownerID, "invoice_ref", invoiceRef)
	return p, nil
}

// ReviewPayment is the admin decision on a pending submission. Approval marks
// the settlement paid in the same transaction; rejection leaves it
// outstanding with the rejected row kept for audit.
func (s *settlementService) ReviewPayment(ctx context.Context, adminID, paymentID int64, approve bool, notes string) (*domain.CommissionPayment, error) {
	var payment *domain.CommissionPayment
	err := s.store.ExecTx(ctx, func(st repository.Store) error {
		p, err := st.Commissions().GetPaymentByID(ctx, paymentID)
		if err != nil {
			return err
		}
		if p.Status != domain.CommissionPaymentStatusPending {
			return fmt.Errorf("%w: payment already reviewed", domain.ErrInvalidTransition)
		}

		now := time.Now()
		p.AdminNotes = notes
		p.ReviewedBy = &adminID
		p.ReviewedAt = &now
		if approve {
			p.Status = domain.CommissionPaymentStatusApproved
		} else {
			p.Status = domain.CommissionPaymentStatusRejected
		}
		if err := st.Commissions().ReviewPayment(ctx, p); err != nil {
			return err
		}
		if approve {
			if err := st.Commissions().MarkPaid(ctx, p.CommissionID, now); err != nil {
				return err
			}
		}
		payment = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("commission payment reviewed",
		"payment_id", payment.ID, "status", payment.Status, "admin_id", adminID)
	return payment, nil
}

func (s *settlementService) sendStatement(ctx context.Context, ownerID int64, weekStart time.Time, amount int64) {
	owner, err := s.store.Users().GetByID(ctx, ownerID)
	if err != nil {
		logger.Error("settlement: owner lookup failed", "owner_id", ownerID, "error", err)
		return
	}
	if err := s.email.SendCommissionStatementNotification(ctx, owner.Email, weekStart, amount); err != nil {
		logger.Error("settlement: statement email failed", "owner_id", ownerID, "error", err)
	}
}
