package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRentalStatus_TransitionTable(t *testing.T) {
	allowed := map[RentalStatus][]RentalStatus{
		RentalStatusPendingPayment: {RentalStatusAwaitApproval, RentalStatusCancelled},
		RentalStatusAwaitApproval:  {RentalStatusConfirmed, RentalStatusCancelled},
		RentalStatusConfirmed:      {RentalStatusOnTrip, RentalStatusCancelled},
		RentalStatusOnTrip:         {RentalStatusCompleted, RentalStatusDisputed},
		RentalStatusCompleted:      {RentalStatusDisputed},
		RentalStatusDisputed:       {RentalStatusCompleted, RentalStatusCancelled},
		RentalStatusCancelled:      {},
	}
	all := []RentalStatus{
		RentalStatusPendingPayment, RentalStatusAwaitApproval, RentalStatusConfirmed,
		RentalStatusOnTrip, RentalStatusCompleted, RentalStatusCancelled, RentalStatusDisputed,
	}

	for from, targets := range allowed {
		ok := map[RentalStatus]bool{}
		for _, to := range targets {
			ok[to] = true
		}
		for _, to := range all {
			assert.Equal(t, ok[to], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestRentalStatus_NoSkipToOnTrip(t *testing.T) {
	// The happy path must pass through every intermediate state.
	assert.False(t, RentalStatusPendingPayment.CanTransitionTo(RentalStatusOnTrip))
	assert.False(t, RentalStatusAwaitApproval.CanTransitionTo(RentalStatusOnTrip))
	assert.False(t, RentalStatusPendingPayment.CanTransitionTo(RentalStatusCompleted))
}

func TestRentalStatus_Terminal(t *testing.T) {
	assert.True(t, RentalStatusCompleted.IsTerminal())
	assert.True(t, RentalStatusCancelled.IsTerminal())
	assert.False(t, RentalStatusOnTrip.IsTerminal())
	assert.False(t, RentalStatusDisputed.IsTerminal())
}

func TestRentalStatus_Valid(t *testing.T) {
	assert.True(t, RentalStatusOnTrip.Valid())
	assert.False(t, RentalStatus("RETURNED").Valid())
	assert.False(t, RentalStatus("").Valid())
}

func TestDisputeStatus_TransitionTable(t *testing.T) {
	assert.True(t, DisputeStatusOpen.CanTransitionTo(DisputeStatusUnderReview))
	assert.True(t, DisputeStatusOpen.CanTransitionTo(DisputeStatusCancelled))
	assert.False(t, DisputeStatusOpen.CanTransitionTo(DisputeStatusResolvedRefund))

	assert.True(t, DisputeStatusUnderReview.CanTransitionTo(DisputeStatusResolvedRefund))
	assert.True(t, DisputeStatusUnderReview.CanTransitionTo(DisputeStatusResolvedNoRefund))
	assert.True(t, DisputeStatusUnderReview.CanTransitionTo(DisputeStatusCancelled))

	for _, terminal := range []DisputeStatus{DisputeStatusResolvedRefund, DisputeStatusResolvedNoRefund, DisputeStatusCancelled} {
		assert.True(t, terminal.IsTerminal())
		assert.False(t, terminal.CanTransitionTo(DisputeStatusOpen))
	}
}

func TestRental_IdempotencyKeys(t *testing.T) {
	rt := &Rental{ID: 42, TotalPrice: 240000, DepositPrice: 500000}

	assert.Equal(t, "42-completion-payout", rt.CompletionPayoutKey())
	assert.Equal(t, "42-payment-charge", rt.ChargeKey())
	assert.Equal(t, "42-cancel-refund", rt.CancelRefundKey())
	assert.Equal(t, "42-dispute-refund", rt.DisputeRefundKey())
	assert.Equal(t, int64(740000), rt.ChargedAmount())
}
