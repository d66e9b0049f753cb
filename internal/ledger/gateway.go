// Package ledger talks to the external system of record that executes value
// transfers. The engine treats every call as an at-least-once effect that is
// confirmed eventually, never synchronously.
package ledger

import (
	"context"
	"errors"

	"nftrental-backend/internal/domain"
)

type ConfirmationStatus string

const (
	ConfirmationPending   ConfirmationStatus = "PENDING"
	ConfirmationConfirmed ConfirmationStatus = "CONFIRMED"
	ConfirmationFailed    ConfirmationStatus = "FAILED"
)

// ErrRejected marks a permanent refusal by the ledger. Retrying the same
// operation cannot succeed.
var ErrRejected = errors.New("ledger rejected operation")

// Operation is one settlement submitted to the ledger. ID is stable across
// retries so the ledger can deduplicate.
type Operation struct {
	ID        string                `json:"operation_id"`
	Kind      domain.SettlementKind `json:"kind"`
	RentalID  string                `json:"rental_id"`
	Transfers []domain.Transfer     `json:"transfers"`
}

type Gateway interface {
	Submit(ctx context.Context, op Operation) (string, error)
	GetConfirmation(ctx context.Context, ref string) (ConfirmationStatus, error)
}

// OperationFromSettlement builds the ledger operation for a recorded settlement.
func OperationFromSettlement(st *domain.Settlement) Operation {
	return Operation{
		ID:        st.OperationID,
		Kind:      st.Kind,
		RentalID:  st.RentalID,
		Transfers: st.Transfers,
	}
}
