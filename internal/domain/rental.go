package domain

import "time"

// Rental is created exactly once per accepted bid. Price fields are a snapshot
// taken at acceptance. After return the record is immutable.
type Rental struct {
	ID            string    `json:"id"`
	ListingID     string    `json:"listing_id"`
	BidID         string    `json:"bid_id"`
	Owner         string    `json:"owner"`
	Renter        string    `json:"renter"`
	Asset         AssetRef  `json:"asset"`
	DailyPrice    int64     `json:"daily_price"`
	RentalDays    int32     `json:"rental_days"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	TotalPrice    int64     `json:"total_price"`
	PlatformFee   int64     `json:"platform_fee"`
	OwnerEarnings int64     `json:"owner_earnings"`
	Deposit       int64     `json:"deposit"` // amount escrowed at acceptance

	Returned    bool       `json:"returned"`
	ReturnedAt  *time.Time `json:"returned_at,omitempty"`
	OnTime      *bool      `json:"on_time,omitempty"`
	DaysLate    int32      `json:"days_late"`
	Penalty     int64      `json:"penalty"`
	Refund      int64      `json:"refund"`
	Outstanding int64      `json:"outstanding"`

	CreatedAt time.Time `json:"created_at"`
}

// IsOverdue reports whether the rental is still out past its end date.
func (r *Rental) IsOverdue(now time.Time) bool {
	return !r.Returned && now.After(r.EndDate)
}

// ReturnResult is the settlement outcome handed back by ReturnNFT.
type ReturnResult struct {
	Rental          *Rental     `json:"rental"`
	Settlement      *Settlement `json:"settlement"`
	OnTime          bool        `json:"on_time"`
	DaysLate        int32       `json:"days_late"`
	Penalty         int64       `json:"penalty"`
	Refund          int64       `json:"refund"`
	Outstanding     int64       `json:"outstanding"`
	ReputationDelta int64       `json:"reputation_delta"`
	ReputationScore int64       `json:"reputation_score"`
}
