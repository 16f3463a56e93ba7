package jobs

import (
	"context"
	"time"

	"motorent-backend/internal/logger"
)

// SettleWeeklyCommissions rolls up the previous calendar week's completion
// payouts into per-owner commission rows. Running it for the week just ended
// means every rental that completed during that week is already in the
// ledger; late completions recorded after the batch start are picked up by
// the next recompute while the week is still unpaid.
func (jr *JobRunner) SettleWeeklyCommissions() {
	jr.runWithRecovery("SettleWeeklyCommissions", func() {
		ctx := context.Background()

		// Reference point inside the previous week.
		refTime := time.Now().UTC().AddDate(0, 0, -7)
		written, err := jr.services.Settlement.ComputeWeeklyCommissions(ctx, refTime)
		if err != nil {
			logger.Error("Weekly commission settlement failed", "error", err)
			return
		}
		logger.Info("Weekly commission settlement done", "commissions_written", written)
	})
}
