package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"nftrental-backend/internal/domain"
	"nftrental-backend/internal/logger"
	"nftrental-backend/internal/repository"
)

const bidColumns = `id, listing_id, renter, rental_days, bid_amount, status, created_at, updated_at`

type bidRepository struct {
	db *sql.DB
}

func NewBidRepository(db *sql.DB) repository.BidRepository {
	return &bidRepository{db: db}
}

func scanBid(s scanner) (*domain.Bid, error) {
	var b domain.Bid
	if err := s.Scan(&b.ID, &b.ListingID, &b.Renter, &b.RentalDays, &b.BidAmount, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

// Create inserts the bid in a single statement guarded by the listing status,
// so a bid can never land on a listing that already left ACTIVE.
func (r *bidRepository) Create(ctx context.Context, b *domain.Bid) error {
	logger.EnterMethod("bidRepository.Create", "bidID", b.ID, "listingID", b.ListingID)
	if !validID(b.ListingID) {
		return domain.NewNotFoundError("listing", b.ListingID)
	}

	query := `INSERT INTO bids (` + bidColumns + `)
	          SELECT $1, $2, $3, $4, $5, $6, $7, $8
	          WHERE EXISTS (SELECT 1 FROM listings WHERE id = $2 AND status = 'ACTIVE')`
	logger.DatabaseCall("INSERT", "bids", "bidID", b.ID)
	res, err := r.db.ExecContext(ctx, query, b.ID, b.ListingID, b.Renter, b.RentalDays, b.BidAmount, b.Status, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		logger.DatabaseResult("INSERT", 0, err, "bidID", b.ID)
		logger.ExitMethodWithError("bidRepository.Create", err, "bidID", b.ID)
		return fmt.Errorf("failed to insert bid: %w", err)
	}
	n, err := affected(res)
	logger.DatabaseResult("INSERT", n, err, "bidID", b.ID)
	if err != nil {
		return err
	}
	if n == 0 {
		err = stateError(ctx, r.db, "listings", "listing", b.ListingID, "place bid on")
		logger.ExitMethodWithError("bidRepository.Create", err, "bidID", b.ID)
		return err
	}
	logger.ExitMethod("bidRepository.Create", "bidID", b.ID)
	return nil
}

func (r *bidRepository) GetByID(ctx context.Context, id string) (*domain.Bid, error) {
	if !validID(id) {
		return nil, domain.NewNotFoundError("bid", id)
	}
	b, err := scanBid(r.db.QueryRowContext(ctx, `SELECT `+bidColumns+` FROM bids WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("bid", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bid: %w", err)
	}
	return b, nil
}

func (r *bidRepository) UpdateStatus(ctx context.Context, id string, from, to domain.BidStatus) error {
	if !validID(id) {
		return domain.NewNotFoundError("bid", id)
	}
	query := `UPDATE bids SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`
	logger.DatabaseCall("UPDATE", "bids", "bidID", id, "from", from, "to", to)
	res, err := r.db.ExecContext(ctx, query, to, id, from)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "bidID", id)
		return fmt.Errorf("failed to update bid status: %w", err)
	}
	n, err := affected(res)
	logger.DatabaseResult("UPDATE", n, err, "bidID", id)
	if err != nil {
		return err
	}
	if n == 0 {
		return stateError(ctx, r.db, "bids", "bid", id, "transition to "+string(to))
	}
	return nil
}

func (r *bidRepository) ListByListing(ctx context.Context, listingID string) ([]domain.Bid, error) {
	if !validID(listingID) {
		return []domain.Bid{}, nil
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+bidColumns+` FROM bids WHERE listing_id = $1 ORDER BY created_at, id`, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids: %w", err)
	}
	defer rows.Close()
	return collectBids(rows)
}

func (r *bidRepository) ListByRenter(ctx context.Context, renter string, page, pageSize int32) ([]domain.Bid, int32, error) {
	var total int32
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM bids WHERE renter = $1`, renter).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count bids: %w", err)
	}
	limit, offset := repository.Page(page, pageSize)
	rows, err := r.db.QueryContext(ctx, `SELECT `+bidColumns+` FROM bids WHERE renter = $1 ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`, renter, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bids: %w", err)
	}
	defer rows.Close()
	bids, err := collectBids(rows)
	return bids, total, err
}

func collectBids(rows *sql.Rows) ([]domain.Bid, error) {
	bids := []domain.Bid{}
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		bids = append(bids, *b)
	}
	return bids, rows.Err()
}
