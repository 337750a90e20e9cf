package jobs

import (
	"context"

	"unimarket-backend/internal/logger"
)

// RunMaintenanceSweep deletes permanently banned accounts whose grace period
// has expired, together with their listings
func (jr *JobRunner) RunMaintenanceSweep() {
	jr.runWithRecovery("RunMaintenanceSweep", func() {
		ctx := context.Background()

		swept, err := jr.services.Admin.RunMaintenanceSweep(ctx)
		if err != nil {
			logger.Error("Maintenance sweep failed", "error", err)
			return
		}
		logger.Info("Maintenance sweep finished", "accounts_deleted", swept)
	})
}

// CancelStaleOrders cancels orders stuck in PENDING_PAYMENT past the
// configured timeout
func (jr *JobRunner) CancelStaleOrders() {
	jr.runWithRecovery("CancelStaleOrders", func() {
		ctx := context.Background()

		cancelled, err := jr.services.Orders.CancelStaleOrders(ctx)
		if err != nil {
			logger.Error("Stale order cancellation failed", "error", err)
			return
		}
		if cancelled > 0 {
			logger.Info("Cancelled stale orders", "count", cancelled)
		}
	})
}
