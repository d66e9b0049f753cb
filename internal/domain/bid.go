package domain

import "time"

type BidStatus string

const (
	BidStatusPending   BidStatus = "PENDING"
	BidStatusAccepted  BidStatus = "ACCEPTED"
	BidStatusRejected  BidStatus = "REJECTED"
	BidStatusCancelled BidStatus = "CANCELLED"
)

// Bid is a renter's offer against one listing. Pending bids on a listing that
// left ACTIVE stay PENDING but can no longer be accepted.
type Bid struct {
	ID         string    `json:"id"`
	ListingID  string    `json:"listing_id"`
	Renter     string    `json:"renter"`
	RentalDays int32     `json:"rental_days"`
	BidAmount  int64     `json:"bid_amount"`
	Status     BidStatus `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
