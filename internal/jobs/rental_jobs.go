package jobs

import (
	"context"
	"time"

	"motorent-backend/internal/logger"
)

const expiryBatchLimit = 200

// ExpirePendingPayments cancels bookings that sat in PENDING_PAYMENT past the
// payment timeout. Each one goes through the normal transition path, never a
// direct status write.
func (jr *JobRunner) ExpirePendingPayments() {
	jr.runWithRecovery("ExpirePendingPayments", func() {
		ctx := context.Background()

		timeout := time.Duration(jr.config.Policy.PaymentTimeoutMinutes) * time.Minute
		cancelled, err := jr.services.Rental.ExpirePendingPayments(ctx, timeout, expiryBatchLimit)
		if err != nil {
			logger.Error("Failed to expire pending payments", "error", err)
			return
		}
		if cancelled > 0 {
			logger.Info("Expired pending payments", "count", cancelled)
		}
	})
}
