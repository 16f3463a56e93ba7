package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"motorent-backend/internal/config"
	"motorent-backend/internal/domain"
	"motorent-backend/internal/logger"
	"motorent-backend/internal/payment"
	"motorent-backend/internal/repository"
)

type disputeService struct {
	store   repository.Store
	gateway payment.Gateway
	email   EmailService
	push    PushService
	policy  config.PolicyConfig
}

func NewDisputeService(
	store repository.Store,
	gateway payment.Gateway,
	email EmailService,
	push PushService,
	policy config.PolicyConfig,
) DisputeService {
	return &disputeService{
		store:   store,
		gateway: gateway,
		email:   email,
		push:    push,
		policy:  policy,
	}
}

// OpenDispute creates the dispute and forces the rental into DISPUTED in one
// transaction. The rental row lock serializes against concurrent transitions
// and against a second dispute attempt.
func (s *disputeService) OpenDispute(ctx context.Context, in OpenDisputeInput) (*domain.RentalDispute, error) {
	if in.Reason == "" {
		return nil, fmt.Errorf("%w: dispute reason is required", domain.ErrValidation)
	}

	var dispute *domain.RentalDispute
	var rental *domain.Rental
	err := s.store.ExecTx(ctx, func(st repository.Store) error {
		rt, err := st.Rentals().GetByIDForUpdate(ctx, in.RentalID)
		if err != nil {
			return err
		}
		if in.ActorRole != domain.UserRoleAdmin && in.OpenedBy != rt.RenterID && in.OpenedBy != rt.OwnerID {
			return fmt.Errorf("%w: not a party to this rental", domain.ErrForbidden)
		}
		if rt.Status != domain.RentalStatusOnTrip && rt.Status != domain.RentalStatusCompleted {
			return fmt.Errorf("%w: disputes open only from ON_TRIP or COMPLETED", domain.ErrInvalidTransition)
		}
		if rt.Status == domain.RentalStatusCompleted {
			// A completed rental without a completion timestamp cannot prove it
			// is inside the window, so it is treated as outside.
			if rt.CompletedAt == nil {
				return fmt.Errorf("%w: completion time unknown", domain.ErrDisputeWindowOver)
			}
			window := time.Duration(s.policy.DisputeWindowHours) * time.Hour
			if time.Since(*rt.CompletedAt) > window {
				return fmt.Errorf("%w: %d hours after trip end", domain.ErrDisputeWindowOver, s.policy.DisputeWindowHours)
			}
		}

		if _, err := st.Disputes().GetOpenByRental(ctx, rt.ID); err == nil {
			return domain.ErrDisputeExists
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		d := &domain.RentalDispute{
			RentalID:    rt.ID,
			OpenedBy:    in.OpenedBy,
			Reason:      in.Reason,
			Description: in.Description,
			Status:      domain.DisputeStatusOpen,
		}
		if err := st.Disputes().Create(ctx, d); err != nil {
			return err
		}
		if err := st.Rentals().UpdateStatus(ctx, rt.ID, rt.Status, domain.RentalStatusDisputed); err != nil {
			return err
		}
		dispute = d
		rental = rt
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.WithRental(rental.ID).Info("dispute opened",
		"dispute_id", dispute.ID, "opened_by", in.OpenedBy, "reason", in.Reason)
	s.notifyParties(ctx, rental, "Dispute opened",
		fmt.Sprintf("A dispute was opened: %s", in.Reason), func(email string) error {
			return s.email.SendDisputeOpenedNotification(ctx, email, s.vehicleName(ctx, rental), in.Reason)
		})
	return dispute, nil
}

func (s *disputeService) GetDispute(ctx context.Context, actorID int64, actorRole domain.UserRole, disputeID int64) (*domain.RentalDispute, error) {
	d, err := s.store.Disputes().GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if actorRole != domain.UserRoleAdmin {
		rt, err := s.store.Rentals().GetByID(ctx, d.RentalID)
		if err != nil {
			return nil, err
		}
		if actorID != rt.RenterID && actorID != rt.OwnerID {
			return nil, fmt.Errorf("%w: not a party to this dispute", domain.ErrForbidden)
		}
	}
	return d, nil
}

func (s *disputeService) StartReview(ctx context.Context, adminID, disputeID int64) (*domain.RentalDispute, error) {
	d, err := s.store.Disputes().GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if !d.Status.CanTransitionTo(domain.DisputeStatusUnderReview) {
		return nil, fmt.Errorf("%w: dispute %s -> %s", domain.ErrInvalidTransition, d.Status, domain.DisputeStatusUnderReview)
	}
	from := d.Status
	d.Status = domain.DisputeStatusUnderReview
	if err := s.store.Disputes().UpdateStatus(ctx, d, from); err != nil {
		return nil, err
	}
	logger.WithRental(d.RentalID).Info("dispute under review", "dispute_id", d.ID, "admin_id", adminID)
	return d, nil
}

// Resolve closes the dispute with a terminal outcome and returns the rental
// to a terminal state in the same transaction.
//
// RESOLVED_NO_REFUND sends the rental back to COMPLETED; the completion
// payout check keeps a re-entry from double-posting. RESOLVED_REFUND cancels
// the rental: the renter gets the refund through the gateway with a refund
// ledger entry, and the owner earning is reversed so the payout nets to zero.
// A CANCELLED dispute (withdrawn or rejected as baseless) restores COMPLETED
// with no ledger activity.
func (s *disputeService) Resolve(ctx context.Context, in ResolveDisputeInput) (*domain.RentalDispute, error) {
	if !in.Outcome.IsTerminal() {
		return nil, fmt.Errorf("%w: resolution requires a terminal outcome", domain.ErrValidation)
	}

	var dispute *domain.RentalDispute
	var rental *domain.Rental
	err := s.store.ExecTx(ctx, func(st repository.Store) error {
		d, err := st.Disputes().GetByID(ctx, in.DisputeID)
		if err != nil {
			return err
		}
		if !d.Status.CanTransitionTo(in.Outcome) {
			return fmt.Errorf("%w: dispute %s -> %s", domain.ErrInvalidTransition, d.Status, in.Outcome)
		}

		rt, err := st.Rentals().GetByIDForUpdate(ctx, d.RentalID)
		if err != nil {
			return err
		}
		if rt.Status != domain.RentalStatusDisputed {
			return fmt.Errorf("%w: rental is not disputed", domain.ErrInvalidTransition)
		}

		target := domain.RentalStatusCompleted
		if in.Outcome == domain.DisputeStatusResolvedRefund {
			target = domain.RentalStatusCancelled
			if err := s.refundAndReverse(ctx, st, rt, in.RefundAmount); err != nil {
				return err
			}
			rt.CancelReason = "dispute resolved with refund"
		} else {
			if err := postCompletionPayout(ctx, st, rt); err != nil {
				return err
			}
			// A dispute opened from ON_TRIP never went through the normal
			// completion step, so the trip ends here. The timestamp starts the
			// dispute window for any further dispute.
			if rt.CompletedAt == nil {
				now := time.Now()
				rt.CompletedAt = &now
			}
		}

		if err := st.Rentals().UpdateStatus(ctx, rt.ID, domain.RentalStatusDisputed, target); err != nil {
			return err
		}
		rt.Status = target
		if err := st.Rentals().UpdateLifecycleFields(ctx, rt); err != nil {
			return err
		}

		from := d.Status
		now := time.Now()
		d.Status = in.Outcome
		d.AdminNotes = in.AdminNotes
		d.ResolvedBy = &in.AdminID
		d.ResolvedAt = &now
		if err := st.Disputes().UpdateStatus(ctx, d, from); err != nil {
			return err
		}
		dispute = d
		rental = rt
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.WithRental(rental.ID).Info("dispute resolved",
		"dispute_id", dispute.ID, "outcome", dispute.Status, "admin_id", in.AdminID)
	s.notifyParties(ctx, rental, "Dispute resolved",
		fmt.Sprintf("Dispute resolved: %s", dispute.Status), func(email string) error {
			return s.email.SendDisputeResolvedNotification(ctx, email, s.vehicleName(ctx, rental), string(dispute.Status))
		})
	return dispute, nil
}

// refundAndReverse executes the refund outcome: gateway refund to the renter
// plus a refund ledger entry, and a reversal of the owner earning payout so
// the rental's net owner earning is zero.
func (s *disputeService) refundAndReverse(ctx context.Context, st repository.Store, rt *domain.Rental, refundAmount int64) error {
	amount := refundAmount
	if amount <= 0 {
		amount = rt.ChargedAmount()
	}
	if amount > rt.ChargedAmount() {
		return fmt.Errorf("%w: refund exceeds the captured charge", domain.ErrValidation)
	}

	ref, err := s.gateway.Refund(ctx, rt.ID, rt.RenterID, amount, rt.Currency)
	if err != nil {
		return err
	}
	now := time.Now()
	if err := st.Ledger().CreateTransaction(ctx, &domain.RentalTransaction{
		RentalID:       rt.ID,
		UserID:         rt.RenterID,
		Type:           domain.TransactionTypeRefund,
		Amount:         amount,
		Currency:       rt.Currency,
		Status:         domain.TransactionStatusSettled,
		Description:    "dispute resolution refund",
		IdempotencyKey: rt.CancelRefundKey(),
		ExternalRef:    ref,
		ChargedAt:      now,
	}); err != nil {
		return err
	}

	// Reverse the completion payout if one was posted. A dispute opened from
	// ON_TRIP never had a payout, so there is nothing to reverse.
	posted, err := st.Ledger().HasTransaction(ctx, rt.ID, rt.CompletionPayoutKey())
	if err != nil {
		return err
	}
	if !posted {
		return nil
	}
	return st.Ledger().CreateTransaction(ctx, &domain.RentalTransaction{
		RentalID:       rt.ID,
		UserID:         rt.OwnerID,
		Type:           domain.TransactionTypeRefund,
		Amount:         -rt.OwnerEarning,
		Currency:       rt.Currency,
		Status:         domain.TransactionStatusSettled,
		Description:    "owner earning reversal on dispute refund",
		IdempotencyKey: rt.DisputeRefundKey(),
		ChargedAt:      now,
	})
}

func (s *disputeService) AttachEvidence(ctx context.Context, in AttachEvidenceInput) (*domain.RentalEvidence, error) {
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown evidence type %q", domain.ErrValidation, in.Type)
	}
	if in.FileURL == "" {
		return nil, fmt.Errorf("%w: evidence file URL is required", domain.ErrValidation)
	}
	if in.RentalID == 0 && in.DisputeID != nil {
		d, err := s.store.Disputes().GetByID(ctx, *in.DisputeID)
		if err != nil {
			return nil, err
		}
		in.RentalID = d.RentalID
	}

	rt, err := s.store.Rentals().GetByID(ctx, in.RentalID)
	if err != nil {
		return nil, err
	}
	if in.ActorRole != domain.UserRoleAdmin && in.UploadedBy != rt.RenterID && in.UploadedBy != rt.OwnerID {
		return nil, fmt.Errorf("%w: not a party to this rental", domain.ErrForbidden)
	}
	if in.DisputeID != nil {
		d, err := s.store.Disputes().GetByID(ctx, *in.DisputeID)
		if err != nil {
			return nil, err
		}
		if d.RentalID != in.RentalID {
			return nil, fmt.Errorf("%w: dispute does not belong to this rental", domain.ErrValidation)
		}
		if d.Status.IsTerminal() {
			return nil, fmt.Errorf("%w: dispute is already resolved", domain.ErrInvalidTransition)
		}
	}

	e := &domain.RentalEvidence{
		RentalID:    in.RentalID,
		DisputeID:   in.DisputeID,
		UploadedBy:  in.UploadedBy,
		Type:        in.Type,
		FileURL:     in.FileURL,
		Description: in.Description,
	}
	if err := s.store.Disputes().AddEvidence(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *disputeService) ListEvidence(ctx context.Context, actorID int64, actorRole domain.UserRole, rentalID int64) ([]domain.RentalEvidence, error) {
	rt, err := s.store.Rentals().GetByID(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if actorRole != domain.UserRoleAdmin && actorID != rt.RenterID && actorID != rt.OwnerID {
		return nil, fmt.Errorf("%w: not a party to this rental", domain.ErrForbidden)
	}
	return s.store.Disputes().ListEvidence(ctx, rentalID)
}

func (s *disputeService) vehicleName(ctx context.Context, rt *domain.Rental) string {
	v, err := s.store.Vehicles().GetByID(ctx, rt.VehicleID)
	if err != nil {
		return fmt.Sprintf("vehicle %d", rt.VehicleID)
	}
	return v.Name
}

func (s *disputeService) notifyParties(ctx context.Context, rt *domain.Rental, title, message string, sendEmail func(string) error) {
	for _, id := range []int64{rt.RenterID, rt.OwnerID} {
		u, err := s.store.Users().GetByID(ctx, id)
		if err != nil {
			logger.Error("notify: user lookup failed", "rental_id", rt.ID, "user_id", id, "error", err)
			continue
		}
		if err := sendEmail(u.Email); err != nil {
			logger.Error("notify: dispute email failed", "rental_id", rt.ID, "user_id", id, "error", err)
		}
		note := &domain.Notification{
			UserID:  u.ID,
			Title:   title,
			Message: message,
			Attributes: map[string]string{
				"type":      "DISPUTE",
				"rental_id": fmt.Sprintf("%d", rt.ID),
			},
		}
		if err := s.store.Notifications().Create(ctx, note); err != nil {
			logger.Error("notify: in-app notification failed", "rental_id", rt.ID, "error", err)
		}
		if u.DeviceToken != "" {
			if err := s.push.Send(ctx, u.DeviceToken, title, message, note.Attributes); err != nil {
				logger.Error("notify: push failed", "rental_id", rt.ID, "error", err)
			}
		}
	}
}
