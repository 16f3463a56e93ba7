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
	"motorent-backend/internal/pricing"
	"motorent-backend/internal/repository"
)

type rentalService struct {
	store   repository.Store
	gateway payment.Gateway
	email   EmailService
	push    PushService
	policy  config.PolicyConfig
}

func NewRentalService(
	store repository.Store,
	gateway payment.Gateway,
	email EmailService,
	push PushService,
	policy config.PolicyConfig,
) RentalService {
	return &rentalService{
		store:   store,
		gateway: gateway,
		email:   email,
		push:    push,
		policy:  policy,
	}
}

func (s *rentalService) CreateRental(ctx context.Context, in CreateRentalInput) (*domain.Rental, error) {
	vehicle, err := s.store.Vehicles().GetByID(ctx, in.VehicleID)
	if err != nil {
		return nil, err
	}
	if vehicle.Status != domain.VehicleStatusAvailable {
		return nil, fmt.Errorf("%w: vehicle is not available for booking", domain.ErrValidation)
	}
	if vehicle.OwnerID == in.RenterID {
		return nil, fmt.Errorf("%w: cannot rent your own vehicle", domain.ErrValidation)
	}

	owner, err := s.store.Users().GetByID(ctx, vehicle.OwnerID)
	if err != nil {
		return nil, err
	}
	if !owner.KYCVerified {
		return nil, fmt.Errorf("owner %d: %w", owner.ID, domain.ErrOwnerNotVerified)
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

	rental := &domain.Rental{
		RenterID:         in.RenterID,
		OwnerID:          vehicle.OwnerID,
		VehicleID:        vehicle.ID,
		StartDate:        in.StartDate,
		EndDate:          in.EndDate,
		DurationDays:     quote.DurationDays,
		Currency:         s.policy.Currency,
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
		Status:           domain.RentalStatusPendingPayment,
	}

	if err := s.store.Rentals().Create(ctx, rental); err != nil {
		return nil, err
	}

	logger.WithRental(rental.ID).Info("rental created",
		"renter_id", rental.RenterID, "vehicle_id", rental.VehicleID,
		"total_price", rental.TotalPrice, "deposit", rental.DepositPrice)
	return rental, nil
}

// Transition drives one rental lifecycle step. The status flip and its
// mandatory ledger side effect commit in the same database transaction; a
// gateway or ledger failure rolls the whole step back. The row lock taken by
// GetByIDForUpdate plus the compare-and-swap on status serialize concurrent
// attempts: the loser sees ErrTransitionConflict.
func (s *rentalService) Transition(ctx context.Context, in TransitionInput) (*domain.Rental, error) {
	if !in.Target.Valid() {
		return nil, fmt.Errorf("%w: unknown target status %q", domain.ErrValidation, in.Target)
	}
	// DISPUTED entry and exit run through the dispute service so the dispute
	// row and the rental flip stay in one transaction.
	if in.Target == domain.RentalStatusDisputed || in.Target == domain.RentalStatusPendingPayment {
		return nil, fmt.Errorf("%w: target %s is not directly reachable", domain.ErrValidation, in.Target)
	}

	var rental *domain.Rental
	err := s.store.ExecTx(ctx, func(st repository.Store) error {
		rt, err := st.Rentals().GetByIDForUpdate(ctx, in.RentalID)
		if err != nil {
			return err
		}
		if err := s.authorize(rt, in); err != nil {
			return err
		}
		if rt.Status == domain.RentalStatusDisputed {
			return fmt.Errorf("%w: rental is disputed, resolve the dispute instead", domain.ErrInvalidTransition)
		}
		if !rt.Status.CanTransitionTo(in.Target) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, rt.Status, in.Target)
		}

		from := rt.Status
		switch in.Target {
		case domain.RentalStatusAwaitApproval:
			if err := s.capturePayment(ctx, st, rt); err != nil {
				return err
			}
		case domain.RentalStatusOnTrip:
			rt.StartOdometer = in.Odometer
		case domain.RentalStatusCompleted:
			rt.EndOdometer = in.Odometer
			now := time.Now()
			rt.CompletedAt = &now
			if err := postCompletionPayout(ctx, st, rt); err != nil {
				return err
			}
		case domain.RentalStatusCancelled:
			rt.CancelReason = in.Reason
			if err := s.refundOnCancel(ctx, st, rt, from); err != nil {
				return err
			}
		}

		if err := st.Rentals().UpdateStatus(ctx, rt.ID, from, in.Target); err != nil {
			return err
		}
		rt.Status = in.Target
		if err := st.Rentals().UpdateLifecycleFields(ctx, rt); err != nil {
			return err
		}
		rental = rt
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.WithRental(rental.ID).Info("rental transitioned",
		"to", rental.Status, "actor_id", in.ActorID)
	s.notifyTransition(ctx, rental, in.Reason)
	return rental, nil
}

// authorize checks the actor/transition pairing. Admins may drive any
// transition; the expiry job cancels with the admin role.
func (s *rentalService) authorize(rt *domain.Rental, in TransitionInput) error {
	if in.ActorRole == domain.UserRoleAdmin {
		return nil
	}
	if in.ActorID != rt.RenterID && in.ActorID != rt.OwnerID {
		return fmt.Errorf("%w: not a party to this rental", domain.ErrForbidden)
	}
	switch in.Target {
	case domain.RentalStatusAwaitApproval:
		if in.ActorID != rt.RenterID {
			return fmt.Errorf("%w: only the renter pays", domain.ErrForbidden)
		}
	case domain.RentalStatusConfirmed:
		if in.ActorID != rt.OwnerID {
			return fmt.Errorf("%w: only the owner approves", domain.ErrForbidden)
		}
	case domain.RentalStatusCompleted:
		if in.ActorID != rt.OwnerID {
			return fmt.Errorf("%w: only the owner confirms the return", domain.ErrForbidden)
		}
	case domain.RentalStatusCancelled:
		if rt.Status == domain.RentalStatusPendingPayment && in.ActorID != rt.RenterID {
			return fmt.Errorf("%w: only the renter cancels an unpaid booking", domain.ErrForbidden)
		}
	}
	return nil
}

// capturePayment charges the renter through the gateway and posts the charge
// ledger entry. Runs inside the transition's database transaction so a
// declined card aborts the whole step.
func (s *rentalService) capturePayment(ctx context.Context, st repository.Store, rt *domain.Rental) error {
	amount := rt.ChargedAmount()
	ref, err := s.gateway.Capture(ctx, rt.ID, rt.RenterID, amount, rt.Currency)
	if err != nil {
		return err
	}
	now := time.Now()
	return st.Ledger().CreateTransaction(ctx, &domain.RentalTransaction{
		RentalID:       rt.ID,
		UserID:         rt.RenterID,
		Type:           domain.TransactionTypeCharge,
		Amount:         -amount,
		Currency:       rt.Currency,
		Status:         domain.TransactionStatusSettled,
		Description:    "rental charge including deposit",
		IdempotencyKey: rt.ChargeKey(),
		ExternalRef:    ref,
		ChargedAt:      now,
	})
}

// postCompletionPayout posts the owner earning exactly once per rental. A
// rental re-entering COMPLETED after a no-refund dispute resolution finds the
// entry already present and posts nothing.
func postCompletionPayout(ctx context.Context, st repository.Store, rt *domain.Rental) error {
	exists, err := st.Ledger().HasTransaction(ctx, rt.ID, rt.CompletionPayoutKey())
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	err = st.Ledger().CreateTransaction(ctx, &domain.RentalTransaction{
		RentalID:       rt.ID,
		UserID:         rt.OwnerID,
		Type:           domain.TransactionTypePayout,
		Amount:         rt.OwnerEarning,
		Currency:       rt.Currency,
		Status:         domain.TransactionStatusSettled,
		Description:    "owner earning payout on completion",
		IdempotencyKey: rt.CompletionPayoutKey(),
		ChargedAt:      time.Now(),
	})
	if errors.Is(err, domain.ErrDuplicateLedgerEntry) {
		// The existence check and the insert run under the rental's row lock,
		// so a unique violation here indicates a bug.
		logger.ErrorContext(ctx, "completion payout double-post detected",
			"rental_id", rt.ID, "idempotency_key", rt.CompletionPayoutKey())
		return err
	}
	return err
}

// refundOnCancel reverses the captured charge when a paid rental is
// cancelled. Unpaid bookings have nothing to reverse. Full refund before
// CONFIRMED; policy-ratio partial refund of the rental price after, with the
// deposit always returned in full pre-trip.
func (s *rentalService) refundOnCancel(ctx context.Context, st repository.Store, rt *domain.Rental, from domain.RentalStatus) error {
	var amount int64
	switch from {
	case domain.RentalStatusPendingPayment:
		return nil
	case domain.RentalStatusAwaitApproval:
		amount = rt.ChargedAmount()
	case domain.RentalStatusConfirmed:
		amount = rt.DepositPrice + pricing.RoundCommission(rt.TotalPrice, s.policy.CancelRefundRatioAfterConfirm)
	default:
		return nil
	}
	if amount <= 0 {
		return nil
	}

	ref, err := s.gateway.Refund(ctx, rt.ID, rt.RenterID, amount, rt.Currency)
	if err != nil {
		return err
	}
	return st.Ledger().CreateTransaction(ctx, &domain.RentalTransaction{
		RentalID:       rt.ID,
		UserID:         rt.RenterID,
		Type:           domain.TransactionTypeRefund,
		Amount:         amount,
		Currency:       rt.Currency,
		Status:         domain.TransactionStatusSettled,
		Description:    fmt.Sprintf("cancellation refund from %s", from),
		IdempotencyKey: rt.CancelRefundKey(),
		ExternalRef:    ref,
		ChargedAt:      time.Now(),
	})
}

func (s *rentalService) GetRental(ctx context.Context, actorID int64, actorRole domain.UserRole, rentalID int64) (*domain.Rental, error) {
	rt, err := s.store.Rentals().GetByID(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if actorRole != domain.UserRoleAdmin && actorID != rt.RenterID && actorID != rt.OwnerID {
		return nil, fmt.Errorf("%w: not a party to this rental", domain.ErrForbidden)
	}
	return rt, nil
}

func (s *rentalService) ListRentals(ctx context.Context, actorID int64, asOwner bool, status string, page, pageSize int32) ([]domain.Rental, int32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	if asOwner {
		return s.store.Rentals().ListByOwner(ctx, actorID, status, page, pageSize)
	}
	return s.store.Rentals().ListByRenter(ctx, actorID, status, page, pageSize)
}

// ExpirePendingPayments cancels bookings stuck in PENDING_PAYMENT past the
// payment timeout. Each expiry goes through the normal transition path, so it
// takes the same locks and writes the same audit trail as a renter cancel.
func (s *rentalService) ExpirePendingPayments(ctx context.Context, olderThan time.Duration, limit int32) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	expired, err := s.store.Rentals().ListExpiredPending(ctx, cutoff, limit)
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for i := range expired {
		_, err := s.Transition(ctx, TransitionInput{
			RentalID:  expired[i].ID,
			ActorID:   0,
			ActorRole: domain.UserRoleAdmin,
			Target:    domain.RentalStatusCancelled,
			Reason:    "payment timeout",
		})
		if err != nil {
			// A racing renter payment is fine; anything else is worth a log.
			if !errors.Is(err, domain.ErrTransitionConflict) && !errors.Is(err, domain.ErrInvalidTransition) {
				logger.Error("failed to expire pending rental", "rental_id", expired[i].ID, "error", err)
			}
			continue
		}
		cancelled++
	}
	return cancelled, nil
}

// notifyTransition fans out email, push and in-app notifications after a
// committed transition. Failures are logged and never affect the rental.
func (s *rentalService) notifyTransition(ctx context.Context, rt *domain.Rental, reason string) {
	vehicle, err := s.store.Vehicles().GetByID(ctx, rt.VehicleID)
	if err != nil {
		logger.Error("notify: vehicle lookup failed", "rental_id", rt.ID, "error", err)
		return
	}
	owner, err := s.store.Users().GetByID(ctx, rt.OwnerID)
	if err != nil {
		logger.Error("notify: owner lookup failed", "rental_id", rt.ID, "error", err)
		return
	}
	renter, err := s.store.Users().GetByID(ctx, rt.RenterID)
	if err != nil {
		logger.Error("notify: renter lookup failed", "rental_id", rt.ID, "error", err)
		return
	}

	switch rt.Status {
	case domain.RentalStatusAwaitApproval:
		if err := s.email.SendBookingRequestNotification(ctx, owner.Email, renter.Name, vehicle.Name); err != nil {
			logger.Error("notify: booking request email failed", "rental_id", rt.ID, "error", err)
		}
		s.notify(ctx, owner, "New booking request",
			fmt.Sprintf("%s paid for %s and awaits your approval", renter.Name, vehicle.Name), rt)
	case domain.RentalStatusConfirmed:
		if err := s.email.SendBookingConfirmedNotification(ctx, renter.Email, vehicle.Name); err != nil {
			logger.Error("notify: confirmation email failed", "rental_id", rt.ID, "error", err)
		}
		s.notify(ctx, renter, "Booking confirmed",
			fmt.Sprintf("Your booking for %s is confirmed", vehicle.Name), rt)
	case domain.RentalStatusCompleted:
		if err := s.email.SendCompletionNotification(ctx, owner.Email, vehicle.Name, rt.OwnerEarning); err != nil {
			logger.Error("notify: completion email failed", "rental_id", rt.ID, "error", err)
		}
		s.notify(ctx, owner, "Rental completed",
			fmt.Sprintf("Rental of %s completed, earning posted", vehicle.Name), rt)
	case domain.RentalStatusCancelled:
		for _, u := range []*domain.User{owner, renter} {
			if err := s.email.SendCancellationNotification(ctx, u.Email, vehicle.Name, reason); err != nil {
				logger.Error("notify: cancellation email failed", "rental_id", rt.ID, "error", err)
			}
			s.notify(ctx, u, "Rental cancelled",
				fmt.Sprintf("Rental of %s was cancelled: %s", vehicle.Name, reason), rt)
		}
	}
}

func (s *rentalService) notify(ctx context.Context, user *domain.User, title, message string, rt *domain.Rental) {
	note := &domain.Notification{
		UserID:  user.ID,
		Title:   title,
		Message: message,
		Attributes: map[string]string{
			"type":      "RENTAL",
			"rental_id": fmt.Sprintf("%d", rt.ID),
			"status":    string(rt.Status),
		},
	}
	if err := s.store.Notifications().Create(ctx, note); err != nil {
		logger.Error("notify: in-app notification failed", "rental_id", rt.ID, "error", err)
	}
	if user.DeviceToken != "" {
		if err := s.push.Send(ctx, user.DeviceToken, title, message, note.Attributes); err != nil {
			logger.Error("notify: push failed", "rental_id", rt.ID, "error", err)
		}
	}
}
