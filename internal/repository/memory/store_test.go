package memory

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"nftrental-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	owner  = "0x00000000000000000000000000000000000000a1"
	renter = "0x00000000000000000000000000000000000000b2"
)

func seedListing(t *testing.T, s *Store, id string) *domain.Listing {
	t.Helper()
	l := &domain.Listing{
		ID:          id,
		Owner:       owner,
		Asset:       domain.AssetRef{Contract: "0x00000000000000000000000000000000000000c3", TokenID: "7"},
		PricePerDay: 10,
		MinDays:     1,
		MaxDays:     30,
		Status:      domain.ListingStatusActive,
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, s.Listings().Create(context.Background(), l))
	return l
}

func seedBid(t *testing.T, s *Store, id, listingID string) *domain.Bid {
	t.Helper()
	b := &domain.Bid{ID: id, ListingID: listingID, Renter: renter, RentalDays: 5, BidAmount: 50, Status: domain.BidStatusPending, CreatedAt: time.Now().UTC()}
	require.NoError(t, s.Bids().Create(context.Background(), b))
	return b
}

func rentalFor(listingID, bidID string) (*domain.Rental, *domain.Settlement) {
	now := time.Now().UTC()
	r := &domain.Rental{
		ID:         "rental-" + bidID,
		ListingID:  listingID,
		BidID:      bidID,
		Owner:      owner,
		Renter:     renter,
		DailyPrice: 10,
		RentalDays: 5,
		StartDate:  now,
		EndDate:    now.Add(5 * 24 * time.Hour),
		TotalPrice: 50,
		Deposit:    50,
		CreatedAt:  now,
	}
	st := &domain.Settlement{
		ID:          "settlement-" + bidID,
		RentalID:    r.ID,
		Kind:        domain.SettlementKindEscrow,
		OperationID: "op-" + bidID,
		Status:      domain.SettlementStatusPending,
		Transfers:   []domain.Transfer{{From: renter, To: domain.AccountEscrow, Amount: 50, Purpose: "escrow"}},
		CreatedAt:   now,
	}
	return r, st
}

func TestBidRepository_CreateRequiresActiveListing(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedListing(t, s, "l-1")

	t.Run("Missing listing", func(t *testing.T) {
		err := s.Bids().Create(ctx, &domain.Bid{ID: "b-x", ListingID: "nope"})
		assert.True(t, domain.IsKind(err, domain.ErrorKindNotFound))
	})

	t.Run("Cancelled listing", func(t *testing.T) {
		require.NoError(t, s.Listings().UpdateStatus(ctx, "l-1", domain.ListingStatusActive, domain.ListingStatusCancelled))
		err := s.Bids().Create(ctx, &domain.Bid{ID: "b-y", ListingID: "l-1"})
		assert.True(t, domain.IsKind(err, domain.ErrorKindInvalidState))
	})
}

func TestListingRepository_UpdateStatusIsCompareAndSet(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedListing(t, s, "l-1")

	require.NoError(t, s.Listings().UpdateStatus(ctx, "l-1", domain.ListingStatusActive, domain.ListingStatusCancelled))
	err := s.Listings().UpdateStatus(ctx, "l-1", domain.ListingStatusActive, domain.ListingStatusCancelled)
	assert.True(t, domain.IsKind(err, domain.ErrorKindInvalidState))
}

func TestTransactor_AcceptBid(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedListing(t, s, "l-1")
	seedBid(t, s, "b-1", "l-1")

	rental, escrow := rentalFor("l-1", "b-1")
	require.NoError(t, s.Tx().AcceptBid(ctx, rental, escrow))

	l, _ := s.Listings().GetByID(ctx, "l-1")
	assert.Equal(t, domain.ListingStatusRented, l.Status)
	assert.True(t, l.UpdatedAt.Equal(rental.CreatedAt))
	b, _ := s.Bids().GetByID(ctx, "b-1")
	assert.Equal(t, domain.BidStatusAccepted, b.Status)
	assert.True(t, b.UpdatedAt.Equal(rental.CreatedAt))
	got, err := s.Rentals().GetByListing(ctx, "l-1")
	require.NoError(t, err)
	assert.Equal(t, rental.ID, got.ID)
	sts, _ := s.Settlements().ListByRental(ctx, rental.ID)
	assert.Len(t, sts, 1)
}

func TestTransactor_AcceptBidLeavesStateOnConflict(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedListing(t, s, "l-1")
	seedBid(t, s, "b-1", "l-1")
	require.NoError(t, s.Bids().UpdateStatus(ctx, "b-1", domain.BidStatusPending, domain.BidStatusCancelled))

	rental, escrow := rentalFor("l-1", "b-1")
	err := s.Tx().AcceptBid(ctx, rental, escrow)
	assert.True(t, domain.IsKind(err, domain.ErrorKindInvalidState))

	l, _ := s.Listings().GetByID(ctx, "l-1")
	assert.Equal(t, domain.ListingStatusActive, l.Status)
	_, err = s.Rentals().GetByListing(ctx, "l-1")
	assert.True(t, domain.IsKind(err, domain.ErrorKindNotFound))
}

func TestListingRepository_ListAvailableHugePage(t *testing.T) {
	s := NewStore()
	seedListing(t, s, "l-1")

	items, total, err := s.Listings().ListAvailable(context.Background(), math.MaxInt32, 100)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, int32(1), total)
}

func TestTransactor_ConcurrentAcceptBid(t *testing.T) {
	for round := 0; round < 50; round++ {
		s := NewStore()
		ctx := context.Background()
		seedListing(t, s, "l-1")
		seedBid(t, s, "b-1", "l-1")
		seedBid(t, s, "b-2", "l-1")

		start := make(chan struct{})
		errs := make([]error, 2)
		var wg sync.WaitGroup
		for i, bidID := range []string{"b-1", "b-2"} {
			wg.Add(1)
			go func(i int, bidID string) {
				defer wg.Done()
				rental, escrow := rentalFor("l-1", bidID)
				<-start
				errs[i] = s.Tx().AcceptBid(ctx, rental, escrow)
			}(i, bidID)
		}
		close(start)
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.True(t, domain.IsKind(err, domain.ErrorKindInvalidState), fmt.Sprint(err))
		}
		assert.Equal(t, 1, succeeded, "round %d", round)

		stats, _ := s.Stats().GetMarketplaceStats(ctx, time.Now())
		assert.Equal(t, int64(1), stats.TotalRentals)
	}
}

func TestTransactor_ReturnRental(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedListing(t, s, "l-1")
	seedBid(t, s, "b-1", "l-1")
	rental, escrow := rentalFor("l-1", "b-1")
	require.NoError(t, s.Tx().AcceptBid(ctx, rental, escrow))

	returnedAt := time.Now().UTC()
	returned := *rental
	returned.Returned = true
	returned.ReturnedAt = &returnedAt
	release := &domain.Settlement{ID: "s-rel", RentalID: rental.ID, Kind: domain.SettlementKindRelease, OperationID: "op-rel", Status: domain.SettlementStatusPending}

	score, err := s.Tx().ReturnRental(ctx, &returned, release, domain.ReputationAdjustment{Identity: renter, Delta: -5})
	require.NoError(t, err)
	assert.Equal(t, int64(0), score, "score is clamped at zero")

	release2 := &domain.Settlement{ID: "s-rel-2", RentalID: rental.ID, Kind: domain.SettlementKindRelease, OperationID: "op-rel-2"}
	_, err = s.Tx().ReturnRental(ctx, &returned, release2, domain.ReputationAdjustment{Identity: renter, Delta: 1})
	assert.True(t, domain.IsKind(err, domain.ErrorKindInvalidState))

	rep, _ := s.Reputations().Get(ctx, renter)
	assert.Equal(t, int64(0), rep.Score)
}

func TestRentalRepository_ListOverdue(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedListing(t, s, "l-1")
	seedBid(t, s, "b-1", "l-1")
	rental, escrow := rentalFor("l-1", "b-1")
	require.NoError(t, s.Tx().AcceptBid(ctx, rental, escrow))

	later := rental.EndDate.Add(36 * time.Hour)
	overdue, err := s.Rentals().ListOverdue(ctx, later, 10)
	require.NoError(t, err)
	require.Len(t, overdue, 1)

	require.NoError(t, s.Rentals().MarkOverdueNotified(ctx, rental.ID, later))
	overdue, _ = s.Rentals().ListOverdue(ctx, later, 10)
	assert.Empty(t, overdue)

	overdue, _ = s.Rentals().ListOverdue(ctx, later.Add(24*time.Hour), 10)
	assert.Len(t, overdue, 1)
}

func TestNotificationRepository(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Notifications().Create(ctx, &domain.Notification{Identity: owner, Title: fmt.Sprint(i)}))
	}
	notes, total, err := s.Notifications().List(ctx, owner, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int32(3), total)
	assert.Equal(t, "2", notes[0].Title)

	assert.NoError(t, s.Notifications().MarkAsRead(ctx, notes[0].ID, owner))
	assert.True(t, domain.IsKind(s.Notifications().MarkAsRead(ctx, notes[0].ID, renter), domain.ErrorKindNotFound))
}
