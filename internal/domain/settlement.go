package domain

import "time"

type SettlementKind string

const (
	SettlementKindEscrow  SettlementKind = "ESCROW"
	SettlementKindRelease SettlementKind = "RELEASE"
)

type SettlementStatus string

const (
	// SettlementStatusPending: intent recorded, not yet accepted by the ledger.
	SettlementStatusPending   SettlementStatus = "PENDING"
	SettlementStatusSubmitted SettlementStatus = "SUBMITTED"
	SettlementStatusConfirmed SettlementStatus = "CONFIRMED"
	SettlementStatusFailed    SettlementStatus = "FAILED"
)

// Well-known ledger accounts used in transfers besides wallet identities.
const (
	AccountEscrow   = "escrow"
	AccountPlatform = "platform"
)

type EscrowMode string

const (
	EscrowModePrepaid EscrowMode = "prepaid"
	EscrowModeDeposit EscrowMode = "deposit"
)

// Transfer is one value movement requested from the ledger.
type Transfer struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Amount  int64  `json:"amount"`
	Purpose string `json:"purpose"`
}

// Settlement records an externally visible ledger effect. It is written in the
// same transaction as the state change that causes it and submitted afterwards.
type Settlement struct {
	ID              string           `json:"id"`
	RentalID        string           `json:"rental_id"`
	Kind            SettlementKind   `json:"kind"`
	OperationID     string           `json:"operation_id"`
	Transfers       []Transfer       `json:"transfers"`
	Status          SettlementStatus `json:"status"`
	ConfirmationRef string           `json:"confirmation_ref,omitempty"`
	Attempts        int32            `json:"attempts"`
	LastError       string           `json:"last_error,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Total sums all transfer amounts.
func (s *Settlement) Total() int64 {
	var total int64
	for _, t := range s.Transfers {
		total += t.Amount
	}
	return total
}
