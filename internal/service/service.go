package service

import (
	"context"

	"nftrental-backend/internal/domain"
	"nftrental-backend/internal/ledger"
	"nftrental-backend/internal/utils"
)

// RentalService is the rental lifecycle engine. It owns every Listing, Bid
// and Rental transition and the settlements they cause.
type RentalService interface {
	CreateListing(ctx context.Context, cmd domain.CreateListingCommand) (*domain.Listing, error)
	PlaceBid(ctx context.Context, cmd domain.PlaceBidCommand) (*domain.Bid, error)
	// AcceptBid may return a committed rental together with a
	// *domain.SettlementPendingError when the escrow could not be submitted.
	AcceptBid(ctx context.Context, cmd domain.AcceptBidCommand) (*domain.Rental, error)
	// ReturnNFT may return a committed result together with a
	// *domain.SettlementPendingError when the release could not be submitted.
	ReturnNFT(ctx context.Context, cmd domain.ReturnNFTCommand) (*domain.ReturnResult, error)
	CancelListing(ctx context.Context, cmd domain.CancelListingCommand) (*domain.Listing, error)
	CancelBid(ctx context.Context, cmd domain.CancelBidCommand) (*domain.Bid, error)
	// CalculateRentalCost uses the configured fee when feeBasisPoints is nil.
	CalculateRentalCost(ctx context.Context, dailyPrice int64, rentalDays int32, feeBasisPoints *int32) (utils.RentalCost, error)

	GetSettlement(ctx context.Context, caller, id string) (*domain.Settlement, error)
	RetrySettlement(ctx context.Context, caller, settlementID string) (*domain.Settlement, error)
	ReconcileSettlements(ctx context.Context, limit int32) (*ReconcileReport, error)
	NotifyOverdueRentals(ctx context.Context, limit int32) (int, error)
}

type ReputationService interface {
	GetReputation(ctx context.Context, identity string) (*domain.Reputation, error)
}

// QueryService is the read-only projection over the rental store.
type QueryService interface {
	GetListing(ctx context.Context, id string) (*domain.Listing, error)
	GetBid(ctx context.Context, id string) (*domain.Bid, error)
	GetRental(ctx context.Context, id string) (*domain.Rental, error)
	ListAvailableListings(ctx context.Context, page, pageSize int32) ([]domain.Listing, int32, error)
	SearchListings(ctx context.Context, filter domain.ListingFilter, page, pageSize int32) ([]domain.Listing, int32, error)
	ListListingsByOwner(ctx context.Context, owner string, page, pageSize int32) ([]domain.Listing, int32, error)
	ListBidsByListing(ctx context.Context, listingID string) ([]domain.Bid, error)
	ListBidsByRenter(ctx context.Context, renter string, page, pageSize int32) ([]domain.Bid, int32, error)
	ListRentalsByRenter(ctx context.Context, renter string, page, pageSize int32) ([]domain.Rental, int32, error)
	ListRentalsByOwner(ctx context.Context, owner string, page, pageSize int32) ([]domain.Rental, int32, error)
	ListSettlementsByRental(ctx context.Context, rentalID string) ([]domain.Settlement, error)
	GetMarketplaceStats(ctx context.Context) (*domain.MarketplaceStats, error)
}

type NotificationService interface {
	GetNotifications(ctx context.Context, identity string, page, pageSize int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, identity string, notificationID int64) error
}

// AlertService notifies operators about settlements that need a human.
type AlertService interface {
	SendSettlementAlert(ctx context.Context, st *domain.Settlement, reason string) error
}

// EventPublisher receives domain events after their transaction committed.
type EventPublisher interface {
	Publish(ctx context.Context, e domain.Event)
}

// SettlementSubmitter is the retrying ledger client used after commit.
type SettlementSubmitter interface {
	Submit(ctx context.Context, op ledger.Operation) (ledger.SubmitResult, error)
	Confirmation(ctx context.Context, ref string) (ledger.ConfirmationStatus, error)
}

// Cache is the optional read-through cache of the query layer.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Invalidate(ctx context.Context, keys ...string) error
}
