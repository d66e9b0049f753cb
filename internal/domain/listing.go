package domain

import "time"

type ListingStatus string

const (
	ListingStatusActive    ListingStatus = "ACTIVE"
	ListingStatusCancelled ListingStatus = "CANCELLED"
	ListingStatusRented    ListingStatus = "RENTED"
)

// Listing is an owner's standing offer to rent out one asset. A RENTED listing
// has exactly one Rental; CANCELLED and RENTED listings accept no bids.
type Listing struct {
	ID          string        `json:"id"`
	Owner       string        `json:"owner"`
	Asset       AssetRef      `json:"asset"`
	PricePerDay int64         `json:"price_per_day"`
	MinDays     int32         `json:"min_days"`
	MaxDays     int32         `json:"max_days"`
	Status      ListingStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// AcceptsDays reports whether days falls in [MinDays, MaxDays].
func (l *Listing) AcceptsDays(days int32) bool {
	return days >= l.MinDays && days <= l.MaxDays
}

// ListingFilter narrows a listing search. Zero values are ignored.
type ListingFilter struct {
	Contract       string `json:"contract,omitempty"`
	Owner          string `json:"owner,omitempty"`
	MaxPricePerDay int64  `json:"max_price_per_day,omitempty"`
	RentalDays     int32  `json:"rental_days,omitempty"` // only listings whose range admits this many days
}
