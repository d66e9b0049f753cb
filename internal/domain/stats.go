package domain

// MarketplaceStats is a read-only projection over the rental store.
type MarketplaceStats struct {
	TotalListings      int64 `json:"total_listings"`
	ActiveListings     int64 `json:"active_listings"`
	RentedListings     int64 `json:"rented_listings"`
	CancelledListings  int64 `json:"cancelled_listings"`
	TotalRentals       int64 `json:"total_rentals"`
	ActiveRentals      int64 `json:"active_rentals"`
	OverdueRentals     int64 `json:"overdue_rentals"`
	ReturnedRentals    int64 `json:"returned_rentals"`
	TotalVolume        int64 `json:"total_volume"`
	AveragePricePerDay int64 `json:"average_price_per_day"`
	PendingSettlements int64 `json:"pending_settlements"`
}
