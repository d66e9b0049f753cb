// Package memory is an in-process Rental Store used by tests and local runs.
// All state lives behind one mutex so every compare-and-set is atomic.
package memory

import (
	"sort"
	"sync"
	"time"

	"nftrental-backend/internal/domain"
	"nftrental-backend/internal/repository"
)

type Store struct {
	mu sync.RWMutex

	listings      map[string]domain.Listing
	bids          map[string]domain.Bid
	rentals       map[string]domain.Rental
	settlements   map[string]domain.Settlement
	reputations   map[string]domain.Reputation
	notifications []domain.Notification
	nextNoteID    int64

	listingsByOwner  map[string][]string
	bidsByListing    map[string][]string
	bidsByRenter     map[string][]string
	rentalsByRenter  map[string][]string
	rentalsByOwner   map[string][]string
	rentalByListing  map[string]string
	settlementByOpID map[string]string
	overdueNotice    map[string]time.Time
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		listings:         make(map[string]domain.Listing),
		bids:             make(map[string]domain.Bid),
		rentals:          make(map[string]domain.Rental),
		settlements:      make(map[string]domain.Settlement),
		reputations:      make(map[string]domain.Reputation),
		listingsByOwner:  make(map[string][]string),
		bidsByListing:    make(map[string][]string),
		bidsByRenter:     make(map[string][]string),
		rentalsByRenter:  make(map[string][]string),
		rentalsByOwner:   make(map[string][]string),
		rentalByListing:  make(map[string]string),
		settlementByOpID: make(map[string]string),
		overdueNotice:    make(map[string]time.Time),
	}
}

func (s *Store) Listings() repository.ListingRepository { return listingRepo{s} }
func (s *Store) Bids() repository.BidRepository { return bidRepo{s} }
func (s *Store) Rentals() repository.RentalRepository { return rentalRepo{s} }
func (s *Store) Settlements() repository.SettlementRepository { return settlementRepo{s} }
func (s *Store) Reputations() repository.ReputationRepository { return reputationRepo{s} }
func (s *Store) Notifications() repository.NotificationRepository { return notificationRepo{s} }
func (s *Store) Stats() repository.StatsRepository { return statsRepo{s} }
func (s *Store) Tx() repository.Transactor { return transactor{s} }

// paginate slices items after sorting them newest first.
func paginate[T any](items []T, createdAt func(T) time.Time, page, pageSize int32) ([]T, int32) {
	sort.SliceStable(items, func(i, j int) bool {
		return createdAt(items[i]).After(createdAt(items[j]))
	})
	total := int32(len(items))
	limit, offset := repository.Page(page, pageSize)
	if offset >= total {
		return []T{}, total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return items[offset:end], total
}

func cloneSettlement(st domain.Settlement) domain.Settlement {
	st.Transfers = append([]domain.Transfer(nil), st.Transfers...)
	return st
}
