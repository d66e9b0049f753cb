package domain

import "time"

type EventType string

const (
	EventListingCreated      EventType = "LISTING_CREATED"
	EventListingCancelled    EventType = "LISTING_CANCELLED"
	EventBidPlaced           EventType = "BID_PLACED"
	EventBidCancelled        EventType = "BID_CANCELLED"
	EventBidAccepted         EventType = "BID_ACCEPTED"
	EventRentalReturned      EventType = "RENTAL_RETURNED"
	EventRentalOverdue       EventType = "RENTAL_OVERDUE"
	EventSettlementConfirmed EventType = "SETTLEMENT_CONFIRMED"
	EventSettlementFailed    EventType = "SETTLEMENT_FAILED"
)

// Event is emitted after a committed state transition. Owner and Renter are
// filled when the event concerns them; Attributes carry display data.
type Event struct {
	Type       EventType         `json:"type"`
	EntityID   string            `json:"entity_id"`
	Actor      string            `json:"actor,omitempty"`
	Owner      string            `json:"owner,omitempty"`
	Renter     string            `json:"renter,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
	Attributes map[string]string `json:"attributes,omitempty"`
}
