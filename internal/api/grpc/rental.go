package grpc

import (
	"context"

	"nftrental-backend/internal/domain"
	"nftrental-backend/internal/service"
)

// RentalHandler serves nftrental.v1.RentalService. Commands act on behalf of
// the wallet the auth interceptor extracted from the token.
type RentalHandler struct {
	rentalSvc       service.RentalService
	querySvc        service.QueryService
	reputationSvc   service.ReputationService
	notificationSvc service.NotificationService
}

func NewRentalHandler(
	rentalSvc service.RentalService,
	querySvc service.QueryService,
	reputationSvc service.ReputationService,
	notificationSvc service.NotificationService,
) *RentalHandler {
	return &RentalHandler{
		rentalSvc:       rentalSvc,
		querySvc:        querySvc,
		reputationSvc:   reputationSvc,
		notificationSvc: notificationSvc,
	}
}

func (h *RentalHandler) CreateListing(ctx context.Context, req *CreateListingRequest) (*CreateListingResponse, error) {
	caller, err := GetCallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	l, err := h.rentalSvc.CreateListing(ctx, MapCreateListingRequest(caller, req))
	if err != nil {
		return nil, toStatus("CreateListing", err, nil)
	}
	return &CreateListingResponse{Listing: l}, nil
}

func (h *RentalHandler) PlaceBid(ctx context.Context, req *PlaceBidRequest) (*PlaceBidResponse, error) {
	caller, err := GetCallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	b, err := h.rentalSvc.PlaceBid(ctx, MapPlaceBidRequest(caller, req))
	if err != nil {
		return nil, toStatus("PlaceBid", err, nil)
	}
	return &PlaceBidResponse{Bid: b}, nil
}

// AcceptBid reports a committed rental whose escrow is still pending as
// codes.Unavailable; the rental id travels in the status details.
func (h *RentalHandler) AcceptBid(ctx context.Context, req *AcceptBidRequest) (*AcceptBidResponse, error) {
	caller, err := GetCallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	rt, err := h.rentalSvc.AcceptBid(ctx, domain.AcceptBidCommand{Owner: caller, BidID: req.BidID})
	if err != nil {
		var attrs map[string]string
		if rt != nil {
			attrs = map[string]string{"rental_id": rt.ID}
		}
		return nil, toStatus("AcceptBid", err, attrs)
	}
	return &AcceptBidResponse{Rental: rt}, nil
}

func (h *RentalHandler) ReturnNFT(ctx context.Context, req *ReturnNFTRequest) (*ReturnNFTResponse, error) {
	caller, err := GetCallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	res, err := h.rentalSvc.ReturnNFT(ctx, domain.ReturnNFTCommand{Renter: caller, RentalID: req.RentalID})
	if err != nil {
		var attrs map[string]string
		if res != nil && res.Rental != nil {
			attrs = map[string]string{"rental_id": res.Rental.ID}
		}
		return nil, toStatus("ReturnNFT", err, attrs)
	}
	return &ReturnNFTResponse{Result: res}, nil
}

func (h *RentalHandler) CancelListing(ctx context.Context, req *CancelListingRequest) (*CancelListingResponse, error) {
	caller, err := GetCallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	l, err := h.rentalSvc.CancelListing(ctx, domain.CancelListingCommand{Owner: caller, ListingID: req.ListingID})
	if err != nil {
		return nil, toStatus("CancelListing", err, nil)
	}
	return &CancelListingResponse{Listing: l}, nil
}

func (h *RentalHandler) CancelBid(ctx context.Context, req *CancelBidRequest) (*CancelBidResponse, error) {
	caller, err := GetCallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	b, err := h.rentalSvc.CancelBid(ctx, domain.CancelBidCommand{Renter: caller, BidID: req.BidID})
	if err != nil {
		return nil, toStatus("CancelBid", err, nil)
	}
	return &CancelBidResponse{Bid: b}, nil
}

func (h *RentalHandler) CalculateRentalCost(ctx context.Context, req *CalculateRentalCostRequest) (*CalculateRentalCostResponse, error) {
	cost, err := h.rentalSvc.CalculateRentalCost(ctx, req.DailyPrice, req.RentalDays, req.FeeBasisPoints)
	if err != nil {
		return nil, toStatus("CalculateRentalCost", err, nil)
	}
	return &CalculateRentalCostResponse{Cost: cost}, nil
}

func (h *RentalHandler) GetListing(ctx context.Context, req *GetListingRequest) (*GetListingResponse, error) {
	l, err := h.querySvc.GetListing(ctx, req.ID)
	if err != nil {
		return nil, toStatus("GetListing", err, nil)
	}
	return &GetListingResponse{Listing: l}, nil
}

func (h *RentalHandler) GetRental(ctx context.Context, req *GetRentalRequest) (*GetRentalResponse, error) {
	rt, err := h.querySvc.GetRental(ctx, req.ID)
	if err != nil {
		return nil, toStatus("GetRental", err, nil)
	}
	settlements, err := h.querySvc.ListSettlementsByRental(ctx, rt.ID)
	if err != nil {
		return nil, toStatus("GetRental", err, nil)
	}
	return &GetRentalResponse{Rental: rt, Settlements: settlements}, nil
}

func (h *RentalHandler) GetReputation(ctx context.Context, req *GetReputationRequest) (*GetReputationResponse, error) {
	rep, err := h.reputationSvc.GetReputation(ctx, req.Identity)
	if err != nil {
		return nil, toStatus("GetReputation", err, nil)
	}
	return &GetReputationResponse{Reputation: rep}, nil
}

func (h *RentalHandler) GetSettlement(ctx context.Context, req *GetSettlementRequest) (*GetSettlementResponse, error) {
	caller, err := GetCallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	st, err := h.rentalSvc.GetSettlement(ctx, caller, req.ID)
	if err != nil {
		return nil, toStatus("GetSettlement", err, nil)
	}
	return &GetSettlementResponse{Settlement: st}, nil
}

func (h *RentalHandler) RetrySettlement(ctx context.Context, req *RetrySettlementRequest) (*RetrySettlementResponse, error) {
	caller, err := GetCallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	st, err := h.rentalSvc.RetrySettlement(ctx, caller, req.SettlementID)
	if err != nil {
		return nil, toStatus("RetrySettlement", err, nil)
	}
	return &RetrySettlementResponse{Settlement: st}, nil
}
