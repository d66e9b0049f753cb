package repository

import (
	"context"
	"time"

	"nftrental-backend/internal/domain"
)

type ListingRepository interface {
	Create(ctx context.Context, listing *domain.Listing) error
	GetByID(ctx context.Context, id string) (*domain.Listing, error)
	// UpdateStatus moves the listing from one status to another only if it is
	// still in from. A mismatch returns *domain.InvalidStateError.
	UpdateStatus(ctx context.Context, id string, from, to domain.ListingStatus) error
	ListAvailable(ctx context.Context, page, pageSize int32) ([]domain.Listing, int32, error)
	ListByOwner(ctx context.Context, owner string, page, pageSize int32) ([]domain.Listing, int32, error)
	Search(ctx context.Context, filter domain.ListingFilter, page, pageSize int32) ([]domain.Listing, int32, error)
}

type BidRepository interface {
	// Create inserts the bid only while its listing is ACTIVE.
	Create(ctx context.Context, bid *domain.Bid) error
	GetByID(ctx context.Context, id string) (*domain.Bid, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.BidStatus) error
	ListByListing(ctx context.Context, listingID string) ([]domain.Bid, error)
	ListByRenter(ctx context.Context, renter string, page, pageSize int32) ([]domain.Bid, int32, error)
}

type RentalRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Rental, error)
	GetByListing(ctx context.Context, listingID string) (*domain.Rental, error)
	ListByRenter(ctx context.Context, renter string, page, pageSize int32) ([]domain.Rental, int32, error)
	ListByOwner(ctx context.Context, owner string, page, pageSize int32) ([]domain.Rental, int32, error)
	// ListOverdue returns unreturned rentals past their end date that have not
	// been flagged on the given day yet.
	ListOverdue(ctx context.Context, now time.Time, limit int32) ([]domain.Rental, error)
	MarkOverdueNotified(ctx context.Context, id string, day time.Time) error
}

type SettlementRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Settlement, error)
	ListByRental(ctx context.Context, rentalID string) ([]domain.Settlement, error)
	ListByStatus(ctx context.Context, status domain.SettlementStatus, limit int32) ([]domain.Settlement, error)
	CountByStatus(ctx context.Context, status domain.SettlementStatus) (int64, error)
	// RecordAttempt bumps the attempt counter and stores the last error while
	// the settlement stays PENDING.
	RecordAttempt(ctx context.Context, id string, attempts int32, lastErr string) error
	MarkSubmitted(ctx context.Context, id string, attempts int32, confirmationRef string) error
	// MarkFinal sets CONFIRMED or FAILED on a SUBMITTED or PENDING settlement.
	MarkFinal(ctx context.Context, id string, status domain.SettlementStatus, lastErr string) error
}

type ReputationRepository interface {
	// Get returns a zero score for identities never seen before.
	Get(ctx context.Context, identity string) (*domain.Reputation, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, note *domain.Notification) error
	List(ctx context.Context, identity string, limit, offset int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, id int64, identity string) error
}

type StatsRepository interface {
	GetMarketplaceStats(ctx context.Context, now time.Time) (*domain.MarketplaceStats, error)
}

// Transactor runs the multi-entity transitions of the rental lifecycle
// atomically. Every step is a compare-and-set so concurrent callers race on
// the store rather than on process memory.
type Transactor interface {
	// AcceptBid moves listing ACTIVE→RENTED and bid PENDING→ACCEPTED, then
	// inserts the rental and its escrow settlement. Any failed precondition
	// rolls everything back and returns *domain.InvalidStateError.
	AcceptBid(ctx context.Context, rental *domain.Rental, escrow *domain.Settlement) error
	// ReturnRental flips returned false→true, stores the settlement outcome,
	// inserts the release settlement and applies the reputation adjustment
	// clamped at zero. It returns the new reputation score.
	ReturnRental(ctx context.Context, rental *domain.Rental, release *domain.Settlement, adj domain.ReputationAdjustment) (int64, error)
}

// Store is everything the engine needs from persistence.
type Store interface {
	Listings() ListingRepository
	Bids() BidRepository
	Rentals() RentalRepository
	Settlements() SettlementRepository
	Reputations() ReputationRepository
	Notifications() NotificationRepository
	Stats() StatsRepository
	Tx() Transactor
}
