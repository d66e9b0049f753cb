package jobs

import (
	"context"

	"nftrental-backend/internal/logger"
)

// ReconcileSettlements resubmits pending settlements and polls the ledger for
// submitted ones.
func (jr *JobRunner) ReconcileSettlements() error {
	return jr.runWithRecovery("ReconcileSettlements", func(ctx context.Context) error {
		report, err := jr.rental.ReconcileSettlements(ctx, jr.config.Scheduler.BatchSize)
		if err != nil {
			return err
		}
		logger.Info("Settlements reconciled",
			"resubmitted", report.Resubmitted,
			"awaitingConfirmation", report.Submitted,
			"confirmed", report.Confirmed,
			"failed", report.Failed,
			"stillPending", report.StillPending)
		return nil
	})
}

// NotifyOverdueRentals emits an overdue notice for every rental past its end
// date, once per day.
func (jr *JobRunner) NotifyOverdueRentals() error {
	return jr.runWithRecovery("NotifyOverdueRentals", func(ctx context.Context) error {
		total := 0
		for {
			n, err := jr.rental.NotifyOverdueRentals(ctx, jr.config.Scheduler.BatchSize)
			if err != nil {
				return err
			}
			total += n
			// Notified rentals drop out of the next query; a short batch is the last.
			if n == 0 || int32(n) < jr.config.Scheduler.BatchSize {
				break
			}
		}
		logger.Info("Overdue rentals notified", "count", total)
		return nil
	})
}
