package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"nftrental-backend/internal/domain"
	"nftrental-backend/internal/ledger"
	"nftrental-backend/internal/logger"
	"nftrental-backend/internal/metrics"
)

// ReconcileReport summarises one reconciliation pass.
type ReconcileReport struct {
	Resubmitted  int `json:"resubmitted"`   // PENDING settlements the ledger accepted this pass
	Submitted    int `json:"submitted"`     // SUBMITTED settlements still awaiting confirmation
	Confirmed    int `json:"confirmed"`
	Failed       int `json:"failed"`
	StillPending int `json:"still_pending"` // PENDING settlements that failed again
}

// GetSettlement returns a settlement to one of the rental's parties.
func (s *rentalService) GetSettlement(ctx context.Context, caller, id string) (*domain.Settlement, error) {
	return s.partySettlement(ctx, caller, id)
}

// partySettlement loads a settlement and checks that caller is the owner or
// renter of its rental.
func (s *rentalService) partySettlement(ctx context.Context, caller, id string) (*domain.Settlement, error) {
	if err := domain.ValidateAddress("caller", caller); err != nil {
		return nil, err
	}
	caller = domain.NormalizeAddress(caller)

	st, err := s.store.Settlements().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rental, err := s.store.Rentals().GetByID(ctx, st.RentalID)
	if err != nil {
		return nil, err
	}
	if caller != rental.Renter && caller != rental.Owner {
		return nil, domain.NewAuthorizationError(caller, "settlement", st.ID)
	}
	return st, nil
}

// RetrySettlement resubmits a PENDING settlement on behalf of one of the
// rental's parties.
func (s *rentalService) RetrySettlement(ctx context.Context, caller, settlementID string) (st *domain.Settlement, err error) {
	logger.EnterMethod("rentalService.RetrySettlement", "caller", caller, "settlementID", settlementID)
	defer func() { s.finish("RetrySettlement", err) }()

	st, err = s.partySettlement(ctx, caller, settlementID)
	if err != nil {
		return nil, err
	}
	if st.Status != domain.SettlementStatusPending {
		return nil, domain.NewInvalidStateError("settlement", st.ID, string(st.Status), "retry")
	}

	if err = s.submitSettlement(ctx, st); err != nil {
		return st, err
	}
	return st, nil
}

// ReconcileSettlements resubmits PENDING settlements and polls the ledger for
// SUBMITTED ones. Each settlement is processed at most once per pass.
func (s *rentalService) ReconcileSettlements(ctx context.Context, limit int32) (*ReconcileReport, error) {
	logger.EnterMethod("rentalService.ReconcileSettlements", "limit", limit)
	report := &ReconcileReport{}

	pending, err := s.store.Settlements().ListByStatus(ctx, domain.SettlementStatusPending, limit)
	if err != nil {
		logger.ExitMethodWithError("rentalService.ReconcileSettlements", err)
		return nil, err
	}
	for i := range pending {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		st := &pending[i]
		if err := s.submitSettlement(ctx, st); err != nil {
			if st.Status == domain.SettlementStatusFailed {
				report.Failed++
			} else {
				report.StillPending++
			}
			continue
		}
		report.Resubmitted++
	}

	submitted, err := s.store.Settlements().ListByStatus(ctx, domain.SettlementStatusSubmitted, limit)
	if err != nil {
		logger.ExitMethodWithError("rentalService.ReconcileSettlements", err)
		return report, err
	}
	for i := range submitted {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		st := &submitted[i]
		status, err := s.submitter.Confirmation(ctx, st.ConfirmationRef)
		if err != nil {
			logger.Warn("Confirmation poll failed", "settlementID", st.ID, "ref", st.ConfirmationRef, "error", err)
			report.Submitted++
			continue
		}
		switch status {
		case ledger.ConfirmationConfirmed:
			if err := s.store.Settlements().MarkFinal(ctx, st.ID, domain.SettlementStatusConfirmed, ""); err != nil {
				logger.Error("Failed to mark settlement confirmed", "settlementID", st.ID, "error", err)
				continue
			}
			st.Status = domain.SettlementStatusConfirmed
			report.Confirmed++
			logger.Info("Settlement confirmed", "settlementID", st.ID, "operationID", st.OperationID)
			s.publishSettlement(ctx, st, domain.EventSettlementConfirmed, "")
		case ledger.ConfirmationFailed:
			reason := "ledger reported failure for " + st.ConfirmationRef
			if err := s.store.Settlements().MarkFinal(ctx, st.ID, domain.SettlementStatusFailed, reason); err != nil {
				logger.Error("Failed to mark settlement failed", "settlementID", st.ID, "error", err)
				continue
			}
			st.Status = domain.SettlementStatusFailed
			st.LastError = reason
			report.Failed++
			s.publishSettlement(ctx, st, domain.EventSettlementFailed, reason)
			s.alert(ctx, st, reason)
		default:
			report.Submitted++
		}
	}

	if count, err := s.store.Settlements().CountByStatus(ctx, domain.SettlementStatusPending); err == nil {
		metrics.SetPendingSettlements(count)
	} else {
		logger.Warn("Failed to count pending settlements", "error", err)
	}

	logger.ExitMethod("rentalService.ReconcileSettlements",
		"resubmitted", report.Resubmitted,
		"confirmed", report.Confirmed,
		"failed", report.Failed,
		"stillPending", report.StillPending)
	return report, nil
}

// submitSettlement hands a committed PENDING settlement to the ledger and
// records the outcome on st. A nil error means the ledger accepted it.
func (s *rentalService) submitSettlement(ctx context.Context, st *domain.Settlement) error {
	res, subErr := s.submitter.Submit(ctx, ledger.OperationFromSettlement(st))

	// The state change is already committed; bookkeeping must outlive a
	// cancelled request.
	bctx := context.WithoutCancel(ctx)
	attempts := st.Attempts + int32(res.Attempts)
	repo := s.store.Settlements()

	if subErr == nil {
		if err := repo.MarkSubmitted(bctx, st.ID, attempts, res.Ref); err != nil {
			// Reconciliation resubmits with the same operation id.
			logger.Error("Failed to record ledger submission", "settlementID", st.ID, "ref", res.Ref, "error", err)
			return nil
		}
		st.Status = domain.SettlementStatusSubmitted
		st.Attempts = attempts
		st.ConfirmationRef = res.Ref
		st.LastError = ""
		logger.Info("Settlement submitted", "settlementID", st.ID, "operationID", st.OperationID, "ref", res.Ref)
		return nil
	}

	pendingErr := &domain.SettlementPendingError{SettlementID: st.ID, OperationID: st.OperationID, Err: subErr}
	st.Attempts = attempts
	st.LastError = subErr.Error()

	if errors.Is(subErr, ledger.ErrRejected) {
		if err := repo.MarkFinal(bctx, st.ID, domain.SettlementStatusFailed, st.LastError); err != nil {
			logger.Error("Failed to mark settlement failed", "settlementID", st.ID, "error", err)
			return pendingErr
		}
		st.Status = domain.SettlementStatusFailed
		logger.Error("Settlement rejected by ledger", "settlementID", st.ID, "operationID", st.OperationID, "error", subErr)
		s.publishSettlement(bctx, st, domain.EventSettlementFailed, st.LastError)
		s.alert(bctx, st, "rejected by ledger: "+st.LastError)
		return pendingErr
	}

	if err := repo.RecordAttempt(bctx, st.ID, attempts, st.LastError); err != nil {
		logger.Error("Failed to record settlement attempt", "settlementID", st.ID, "error", err)
	}
	logger.Warn("Settlement left pending", "settlementID", st.ID, "operationID", st.OperationID, "attempts", attempts, "error", subErr)
	if s.cfg.AlertAfterAttempts > 0 && attempts >= s.cfg.AlertAfterAttempts {
		s.alert(bctx, st, fmt.Sprintf("still pending after %d attempts: %s", attempts, st.LastError))
	}
	return pendingErr
}

func (s *rentalService) publishSettlement(ctx context.Context, st *domain.Settlement, eventType domain.EventType, reason string) {
	event := domain.Event{
		Type:     eventType,
		EntityID: st.ID,
		Attributes: map[string]string{
			"rental_id":    st.RentalID,
			"kind":         string(st.Kind),
			"operation_id": st.OperationID,
			"amount":       strconv.FormatInt(st.Total(), 10),
		},
	}
	if reason != "" {
		event.Attributes["reason"] = reason
	}
	if rental, err := s.store.Rentals().GetByID(ctx, st.RentalID); err == nil {
		event.Owner = rental.Owner
		event.Renter = rental.Renter
		event.Attributes["asset"] = rental.Asset.String()
	}
	s.publish(ctx, event)
}

func (s *rentalService) alert(ctx context.Context, st *domain.Settlement, reason string) {
	if s.alerts == nil {
		return
	}
	if err := s.alerts.SendSettlementAlert(ctx, st, reason); err != nil {
		logger.Error("Failed to send settlement alert", "settlementID", st.ID, "error", err)
	}
}
