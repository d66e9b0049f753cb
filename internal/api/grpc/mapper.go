package grpc

import (
	"nftrental-backend/internal/domain"
	"nftrental-backend/internal/utils"
)

// Requests carry no owner or renter field: the caller is always the token
// subject.

type CreateListingRequest struct {
	Asset       domain.AssetRef `json:"asset"`
	PricePerDay int64           `json:"price_per_day"`
	MinDays     int32           `json:"min_days"`
	MaxDays     int32           `json:"max_days"`
}

type CreateListingResponse struct {
	Listing *domain.Listing `json:"listing"`
}

type PlaceBidRequest struct {
	ListingID  string `json:"listing_id"`
	RentalDays int32  `json:"rental_days"`
	BidAmount  int64  `json:"bid_amount"`
}

type PlaceBidResponse struct {
	Bid *domain.Bid `json:"bid"`
}

type AcceptBidRequest struct {
	BidID string `json:"bid_id"`
}

type AcceptBidResponse struct {
	Rental *domain.Rental `json:"rental"`
}

type ReturnNFTRequest struct {
	RentalID string `json:"rental_id"`
}

type ReturnNFTResponse struct {
	Result *domain.ReturnResult `json:"result"`
}

type CancelListingRequest struct {
	ListingID string `json:"listing_id"`
}

type CancelListingResponse struct {
	Listing *domain.Listing `json:"listing"`
}

type CancelBidRequest struct {
	BidID string `json:"bid_id"`
}

type CancelBidResponse struct {
	Bid *domain.Bid `json:"bid"`
}

type CalculateRentalCostRequest struct {
	DailyPrice     int64  `json:"daily_price"`
	RentalDays     int32  `json:"rental_days"`
	FeeBasisPoints *int32 `json:"fee_basis_points,omitempty"`
}

type CalculateRentalCostResponse struct {
	Cost utils.RentalCost `json:"cost"`
}

type GetListingRequest struct {
	ID string `json:"id"`
}

type GetListingResponse struct {
	Listing *domain.Listing `json:"listing"`
}

type GetRentalRequest struct {
	ID string `json:"id"`
}

type GetRentalResponse struct {
	Rental      *domain.Rental      `json:"rental"`
	Settlements []domain.Settlement `json:"settlements"`
}

type GetReputationRequest struct {
	Identity string `json:"identity"`
}

type GetReputationResponse struct {
	Reputation *domain.Reputation `json:"reputation"`
}

type GetSettlementRequest struct {
	ID string `json:"id"`
}

type GetSettlementResponse struct {
	Settlement *domain.Settlement `json:"settlement"`
}

type RetrySettlementRequest struct {
	SettlementID string `json:"settlement_id"`
}

type RetrySettlementResponse struct {
	Settlement *domain.Settlement `json:"settlement"`
}

type GetNotificationsRequest struct {
	Page     int32 `json:"page"`
	PageSize int32 `json:"page_size"`
}

type GetNotificationsResponse struct {
	Notifications []domain.Notification `json:"notifications"`
	TotalCount    int32                 `json:"total_count"`
}

type MarkNotificationReadRequest struct {
	NotificationID int64 `json:"notification_id"`
}

type MarkNotificationReadResponse struct {
	Success bool `json:"success"`
}

func MapCreateListingRequest(caller string, req *CreateListingRequest) domain.CreateListingCommand {
	return domain.CreateListingCommand{
		Owner:       caller,
		Asset:       req.Asset,
		PricePerDay: req.PricePerDay,
		MinDays:     req.MinDays,
		MaxDays:     req.MaxDays,
	}
}

func MapPlaceBidRequest(caller string, req *PlaceBidRequest) domain.PlaceBidCommand {
	return domain.PlaceBidCommand{
		ListingID:  req.ListingID,
		Renter:     caller,
		RentalDays: req.RentalDays,
		BidAmount:  req.BidAmount,
	}
}
