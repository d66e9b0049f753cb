package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"nftrental-backend/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	listingID = "5b1f7c4e-7a61-4d0e-9d3c-0c8f2b1c9a11"
	bidID     = "a2d0c3f9-3e7b-4b8e-8a51-7f64d93c2e22"
	rentalID  = "c8e1b2a7-9f30-4a6c-b5d4-1e2f3a4b5c33"
	settleID  = "d4f5e6a7-1b2c-4d3e-8f9a-0b1c2d3e4f44"
	ownerAddr = "0x00000000000000000000000000000000000000a1"
	renterAdr = "0x00000000000000000000000000000000000000b2"
	contract  = "0x00000000000000000000000000000000000000c3"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

func TestListingRepository_Create(t *testing.T) {
	store, mock := newMock(t)
	now := time.Now().UTC()
	l := &domain.Listing{ID: listingID, Owner: ownerAddr, Asset: domain.AssetRef{Contract: contract, TokenID: "7"},
		PricePerDay: 10, MinDays: 1, MaxDays: 30, Status: domain.ListingStatusActive, CreatedAt: now, UpdatedAt: now}

	mock.ExpectExec("INSERT INTO listings").
		WithArgs(l.ID, l.Owner, contract, "7", int64(10), int32(1), int32(30), domain.ListingStatusActive, now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, store.Listings().Create(context.Background(), l))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepository_GetByID(t *testing.T) {
	store, mock := newMock(t)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "owner", "asset_contract", "asset_token_id", "price_per_day", "min_days", "max_days", "status", "created_at", "updated_at"}).
			AddRow(listingID, ownerAddr, contract, "7", 10, 1, 30, "ACTIVE", time.Now(), time.Now())
		mock.ExpectQuery("SELECT (.+) FROM listings WHERE id = \\$1").WithArgs(listingID).WillReturnRows(rows)

		l, err := store.Listings().GetByID(ctx, listingID)
		require.NoError(t, err)
		assert.Equal(t, domain.ListingStatusActive, l.Status)
		assert.Equal(t, "7", l.Asset.TokenID)
	})

	t.Run("Not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM listings WHERE id = \\$1").WithArgs(listingID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := store.Listings().GetByID(ctx, listingID)
		assert.True(t, domain.IsKind(err, domain.ErrorKindNotFound))
	})

	t.Run("Malformed id", func(t *testing.T) {
		_, err := store.Listings().GetByID(ctx, "not-a-uuid")
		assert.True(t, domain.IsKind(err, domain.ErrorKindNotFound))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepository_UpdateStatusConflict(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectExec("UPDATE listings SET status").
		WithArgs(domain.ListingStatusCancelled, listingID, domain.ListingStatusActive).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM listings WHERE id = \\$1").WithArgs(listingID).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("RENTED"))

	err := store.Listings().UpdateStatus(context.Background(), listingID, domain.ListingStatusActive, domain.ListingStatusCancelled)
	var stateErr *domain.InvalidStateError
	require.True(t, errors.As(err, &stateErr))
	assert.Equal(t, "RENTED", stateErr.State)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepository_Search(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM listings WHERE status = 'ACTIVE' AND asset_contract = \\$1 AND price_per_day <= \\$2 AND min_days <= \\$3 AND max_days >= \\$4").
		WithArgs(contract, int64(20), int32(5), int32(5)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT (.+) FROM listings WHERE (.+) LIMIT \\$5 OFFSET \\$6").
		WithArgs(contract, int64(20), int32(5), int32(5), int32(20), int32(0)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner", "asset_contract", "asset_token_id", "price_per_day", "min_days", "max_days", "status", "created_at", "updated_at"}).
			AddRow(listingID, ownerAddr, contract, "7", 10, 1, 30, "ACTIVE", time.Now(), time.Now()))

	listings, total, err := store.Listings().Search(context.Background(), domain.ListingFilter{Contract: contract, MaxPricePerDay: 20, RentalDays: 5}, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, int32(1), total)
	assert.Len(t, listings, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBidRepository_Create(t *testing.T) {
	store, mock := newMock(t)
	now := time.Now().UTC()
	b := &domain.Bid{ID: bidID, ListingID: listingID, Renter: renterAdr, RentalDays: 5, BidAmount: 50, Status: domain.BidStatusPending, CreatedAt: now, UpdatedAt: now}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO bids (.+) WHERE EXISTS").
			WithArgs(b.ID, b.ListingID, b.Renter, b.RentalDays, b.BidAmount, b.Status, now, now).
			WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, store.Bids().Create(context.Background(), b))
	})

	t.Run("Listing cancelled", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO bids").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT status FROM listings").WithArgs(listingID).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("CANCELLED"))

		err := store.Bids().Create(context.Background(), b)
		assert.True(t, domain.IsKind(err, domain.ErrorKindInvalidState))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func acceptedRental() (*domain.Rental, *domain.Settlement) {
	now := time.Now().UTC()
	r := &domain.Rental{ID: rentalID, ListingID: listingID, BidID: bidID, Owner: ownerAddr, Renter: renterAdr,
		Asset: domain.AssetRef{Contract: contract, TokenID: "7"}, DailyPrice: 10, RentalDays: 5, StartDate: now,
		EndDate: now.Add(120 * time.Hour), TotalPrice: 50, PlatformFee: 1, OwnerEarnings: 49, Deposit: 50, CreatedAt: now}
	st := &domain.Settlement{ID: settleID, RentalID: rentalID, Kind: domain.SettlementKindEscrow, OperationID: "op",
		Transfers: []domain.Transfer{{From: renterAdr, To: domain.AccountEscrow, Amount: 50, Purpose: "escrow"}},
		Status: domain.SettlementStatusPending, CreatedAt: now, UpdatedAt: now}
	return r, st
}

func TestTransactor_AcceptBid(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		store, mock := newMock(t)
		rental, escrow := acceptedRental()

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE listings SET status = 'RENTED'").WithArgs(rental.CreatedAt, listingID).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE bids SET status = 'ACCEPTED'").WithArgs(rental.CreatedAt, bidID, listingID).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO rentals").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO settlements").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		assert.NoError(t, store.Tx().AcceptBid(context.Background(), rental, escrow))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Listing already rented rolls back", func(t *testing.T) {
		store, mock := newMock(t)
		rental, escrow := acceptedRental()

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE listings SET status = 'RENTED'").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT status FROM listings").WithArgs(listingID).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("RENTED"))
		mock.ExpectRollback()

		err := store.Tx().AcceptBid(context.Background(), rental, escrow)
		assert.True(t, domain.IsKind(err, domain.ErrorKindInvalidState))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Bid no longer pending rolls back", func(t *testing.T) {
		store, mock := newMock(t)
		rental, escrow := acceptedRental()

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE listings SET status = 'RENTED'").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE bids SET status = 'ACCEPTED'").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT status FROM bids").WithArgs(bidID).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("CANCELLED"))
		mock.ExpectRollback()

		err := store.Tx().AcceptBid(context.Background(), rental, escrow)
		assert.True(t, domain.IsKind(err, domain.ErrorKindInvalidState))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTransactor_ReturnRental(t *testing.T) {
	returnedAt := time.Now().UTC()
	onTime := true
	release := &domain.Settlement{ID: settleID, RentalID: rentalID, Kind: domain.SettlementKindRelease, OperationID: "op-r", Status: domain.SettlementStatusPending}

	t.Run("Success", func(t *testing.T) {
		store, mock := newMock(t)
		rental, _ := acceptedRental()
		rental.Returned = true
		rental.ReturnedAt = &returnedAt
		rental.OnTime = &onTime

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE rentals SET returned = TRUE").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO settlements").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO reputations (.+) ON CONFLICT").
			WithArgs(renterAdr, int64(1), returnedAt).
			WillReturnRows(sqlmock.NewRows([]string{"score"}).AddRow(4))
		mock.ExpectCommit()

		score, err := store.Tx().ReturnRental(context.Background(), rental, release, domain.ReputationAdjustment{Identity: renterAdr, Delta: 1})
		require.NoError(t, err)
		assert.Equal(t, int64(4), score)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Double return", func(t *testing.T) {
		store, mock := newMock(t)
		rental, _ := acceptedRental()
		rental.ReturnedAt = &returnedAt

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE rentals SET returned = TRUE").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT returned FROM rentals").WithArgs(rentalID).
			WillReturnRows(sqlmock.NewRows([]string{"returned"}).AddRow(true))
		mock.ExpectRollback()

		_, err := store.Tx().ReturnRental(context.Background(), rental, release, domain.ReputationAdjustment{Identity: renterAdr, Delta: 1})
		assert.True(t, domain.IsKind(err, domain.ErrorKindInvalidState))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSettlementRepository(t *testing.T) {
	store, mock := newMock(t)
	ctx := context.Background()

	t.Run("Get decodes transfers", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "rental_id", "kind", "operation_id", "transfers", "status", "confirmation_ref", "attempts", "last_error", "created_at", "updated_at"}).
			AddRow(settleID, rentalID, "RELEASE", "op", []byte(`[{"from":"escrow","to":"platform","amount":5,"purpose":"platform_fee"}]`), "SUBMITTED", "0xabc", 2, nil, time.Now(), time.Now())
		mock.ExpectQuery("SELECT (.+) FROM settlements WHERE id = \\$1").WithArgs(settleID).WillReturnRows(rows)

		st, err := store.Settlements().GetByID(ctx, settleID)
		require.NoError(t, err)
		assert.Equal(t, "0xabc", st.ConfirmationRef)
		assert.Equal(t, int64(5), st.Total())
	})

	t.Run("MarkSubmitted on confirmed fails", func(t *testing.T) {
		mock.ExpectExec("UPDATE settlements SET status = 'SUBMITTED'").WithArgs(int32(1), "ref", settleID).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT status FROM settlements").WithArgs(settleID).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("CONFIRMED"))

		err := store.Settlements().MarkSubmitted(ctx, settleID, 1, "ref")
		assert.True(t, domain.IsKind(err, domain.ErrorKindInvalidState))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReputationRepository_DefaultsToZero(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery("SELECT score, updated_at FROM reputations").WithArgs(renterAdr).
		WillReturnRows(sqlmock.NewRows([]string{"score", "updated_at"}))

	rep, err := store.Reputations().Get(context.Background(), renterAdr)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rep.Score)
	assert.Nil(t, rep.UpdatedAt)
}

func TestStatsRepository(t *testing.T) {
	store, mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM listings(.+) FROM rentals").WithArgs(now).
		WillReturnRows(sqlmock.NewRows([]string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"}).
			AddRow(4, 1, 2, 1, 15, 2, 1, 1, 1, 80, 1))

	stats, err := store.Stats().GetMarketplaceStats(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalListings)
	assert.Equal(t, int64(80), stats.TotalVolume)
	assert.Equal(t, int64(1), stats.PendingSettlements)
}
