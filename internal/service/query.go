package service

import (
	"context"
	"strconv"
	"time"

	"nftrental-backend/internal/cache"
	"nftrental-backend/internal/domain"
	"nftrental-backend/internal/logger"
	"nftrental-backend/internal/repository"
)

type queryService struct {
	store repository.Store
	cache Cache
	now   func() time.Time
}

// NewQueryService builds the read side. c may be nil to disable caching.
func NewQueryService(store repository.Store, c Cache, now func() time.Time) QueryService {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &queryService{store: store, cache: c, now: now}
}

func (s *queryService) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	return s.store.Listings().GetByID(ctx, id)
}

func (s *queryService) GetBid(ctx context.Context, id string) (*domain.Bid, error) {
	return s.store.Bids().GetByID(ctx, id)
}

func (s *queryService) GetRental(ctx context.Context, id string) (*domain.Rental, error) {
	return s.store.Rentals().GetByID(ctx, id)
}

func (s *queryService) ListAvailableListings(ctx context.Context, page, pageSize int32) ([]domain.Listing, int32, error) {
	return s.store.Listings().ListAvailable(ctx, page, pageSize)
}

type listingPage struct {
	Listings []domain.Listing `json:"listings"`
	Total    int32            `json:"total"`
}

// SearchListings results are cached for the cache TTL. A stale hit can show
// a listing that has since been rented; bidding on it is still rejected.
func (s *queryService) SearchListings(ctx context.Context, filter domain.ListingFilter, page, pageSize int32) ([]domain.Listing, int32, error) {
	if filter.Contract != "" {
		if err := domain.ValidateAddress("contract", filter.Contract); err != nil {
			return nil, 0, err
		}
		filter.Contract = domain.NormalizeAddress(filter.Contract)
	}
	if filter.Owner != "" {
		if err := domain.ValidateAddress("owner", filter.Owner); err != nil {
			return nil, 0, err
		}
		filter.Owner = domain.NormalizeAddress(filter.Owner)
	}
	if filter.MaxPricePerDay < 0 {
		return nil, 0, domain.NewValidationError("max_price_per_day", "must not be negative")
	}
	if filter.RentalDays < 0 {
		return nil, 0, domain.NewValidationError("rental_days", "must not be negative")
	}

	key := cache.QueryKey("search", map[string]string{
		"contract":  filter.Contract,
		"owner":     filter.Owner,
		"max_price": strconv.FormatInt(filter.MaxPricePerDay, 10),
		"days":      strconv.Itoa(int(filter.RentalDays)),
		"page":      strconv.Itoa(int(page)),
		"page_size": strconv.Itoa(int(pageSize)),
	})
	var cached listingPage
	if s.lookup(ctx, key, &cached) {
		return cached.Listings, cached.Total, nil
	}

	listings, total, err := s.store.Listings().Search(ctx, filter, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	s.remember(ctx, key, listingPage{Listings: listings, Total: total})
	return listings, total, nil
}

func (s *queryService) ListListingsByOwner(ctx context.Context, owner string, page, pageSize int32) ([]domain.Listing, int32, error) {
	if err := domain.ValidateAddress("owner", owner); err != nil {
		return nil, 0, err
	}
	return s.store.Listings().ListByOwner(ctx, domain.NormalizeAddress(owner), page, pageSize)
}

func (s *queryService) ListBidsByListing(ctx context.Context, listingID string) ([]domain.Bid, error) {
	if _, err := s.store.Listings().GetByID(ctx, listingID); err != nil {
		return nil, err
	}
	return s.store.Bids().ListByListing(ctx, listingID)
}

func (s *queryService) ListBidsByRenter(ctx context.Context, renter string, page, pageSize int32) ([]domain.Bid, int32, error) {
	if err := domain.ValidateAddress("renter", renter); err != nil {
		return nil, 0, err
	}
	return s.store.Bids().ListByRenter(ctx, domain.NormalizeAddress(renter), page, pageSize)
}

func (s *queryService) ListRentalsByRenter(ctx context.Context, renter string, page, pageSize int32) ([]domain.Rental, int32, error) {
	if err := domain.ValidateAddress("renter", renter); err != nil {
		return nil, 0, err
	}
	return s.store.Rentals().ListByRenter(ctx, domain.NormalizeAddress(renter), page, pageSize)
}

func (s *queryService) ListRentalsByOwner(ctx context.Context, owner string, page, pageSize int32) ([]domain.Rental, int32, error) {
	if err := domain.ValidateAddress("owner", owner); err != nil {
		return nil, 0, err
	}
	return s.store.Rentals().ListByOwner(ctx, domain.NormalizeAddress(owner), page, pageSize)
}

// ListSettlementsByRental is a public view: ledger error text is dropped.
func (s *queryService) ListSettlementsByRental(ctx context.Context, rentalID string) ([]domain.Settlement, error) {
	if _, err := s.store.Rentals().GetByID(ctx, rentalID); err != nil {
		return nil, err
	}
	settlements, err := s.store.Settlements().ListByRental(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	for i := range settlements {
		settlements[i].LastError = ""
	}
	return settlements, nil
}

// GetMarketplaceStats is invalidated by every write that changes a count.
func (s *queryService) GetMarketplaceStats(ctx context.Context) (*domain.MarketplaceStats, error) {
	var cached domain.MarketplaceStats
	if s.lookup(ctx, statsCacheKey, &cached) {
		return &cached, nil
	}
	stats, err := s.store.Stats().GetMarketplaceStats(ctx, s.now())
	if err != nil {
		return nil, err
	}
	s.remember(ctx, statsCacheKey, stats)
	return stats, nil
}

func (s *queryService) lookup(ctx context.Context, key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		logger.Warn("Cache lookup failed", "key", key, "error", err)
		return false
	}
	return hit
}

func (s *queryService) remember(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value); err != nil {
		logger.Warn("Cache write failed", "key", key, "error", err)
	}
}
