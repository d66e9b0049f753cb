package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"nftrental-backend/internal/domain"
	"nftrental-backend/internal/logger"
	"nftrental-backend/internal/repository"
)

const listingColumns = `id, owner, asset_contract, asset_token_id, price_per_day, min_days, max_days, status, created_at, updated_at`

type listingRepository struct {
	db *sql.DB
}

func NewListingRepository(db *sql.DB) repository.ListingRepository {
	return &listingRepository{db: db}
}

func scanListing(s scanner) (*domain.Listing, error) {
	var l domain.Listing
	err := s.Scan(&l.ID, &l.Owner, &l.Asset.Contract, &l.Asset.TokenID, &l.PricePerDay, &l.MinDays, &l.MaxDays, &l.Status, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *listingRepository) Create(ctx context.Context, l *domain.Listing) error {
	logger.EnterMethod("listingRepository.Create", "listingID", l.ID, "owner", l.Owner)

	query := `INSERT INTO listings (` + listingColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	logger.DatabaseCall("INSERT", "listings", "listingID", l.ID)
	_, err := r.db.ExecContext(ctx, query, l.ID, l.Owner, l.Asset.Contract, l.Asset.TokenID, l.PricePerDay, l.MinDays, l.MaxDays, l.Status, l.CreatedAt, l.UpdatedAt)
	logger.DatabaseResult("INSERT", 1, err, "listingID", l.ID)

	if err != nil {
		logger.ExitMethodWithError("listingRepository.Create", err, "listingID", l.ID)
		return fmt.Errorf("failed to insert listing: %w", err)
	}
	logger.ExitMethod("listingRepository.Create", "listingID", l.ID)
	return nil
}

func (r *listingRepository) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	if !validID(id) {
		return nil, domain.NewNotFoundError("listing", id)
	}
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`
	l, err := scanListing(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("listing", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return l, nil
}

func (r *listingRepository) UpdateStatus(ctx context.Context, id string, from, to domain.ListingStatus) error {
	if !validID(id) {
		return domain.NewNotFoundError("listing", id)
	}
	query := `UPDATE listings SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`
	logger.DatabaseCall("UPDATE", "listings", "listingID", id, "from", from, "to", to)
	res, err := r.db.ExecContext(ctx, query, to, id, from)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "listingID", id)
		return fmt.Errorf("failed to update listing status: %w", err)
	}
	n, err := affected(res)
	logger.DatabaseResult("UPDATE", n, err, "listingID", id)
	if err != nil {
		return err
	}
	if n == 0 {
		return stateError(ctx, r.db, "listings", "listing", id, "transition to "+string(to))
	}
	return nil
}

func (r *listingRepository) ListAvailable(ctx context.Context, page, pageSize int32) ([]domain.Listing, int32, error) {
	return r.Search(ctx, domain.ListingFilter{}, page, pageSize)
}

func (r *listingRepository) ListByOwner(ctx context.Context, owner string, page, pageSize int32) ([]domain.Listing, int32, error) {
	return r.list(ctx, "owner = $1", []any{owner}, page, pageSize)
}

func (r *listingRepository) Search(ctx context.Context, f domain.ListingFilter, page, pageSize int32) ([]domain.Listing, int32, error) {
	conds := []string{"status = 'ACTIVE'"}
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Contract != "" {
		add("asset_contract = $%d", f.Contract)
	}
	if f.Owner != "" {
		add("owner = $%d", f.Owner)
	}
	if f.MaxPricePerDay > 0 {
		add("price_per_day <= $%d", f.MaxPricePerDay)
	}
	if f.RentalDays > 0 {
		add("min_days <= $%d", f.RentalDays)
		add("max_days >= $%d", f.RentalDays)
	}
	return r.list(ctx, strings.Join(conds, " AND "), args, page, pageSize)
}

func (r *listingRepository) list(ctx context.Context, where string, args []any, page, pageSize int32) ([]domain.Listing, int32, error) {
	var total int32
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM listings WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count listings: %w", err)
	}

	limit, offset := repository.Page(page, pageSize)
	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM listings WHERE %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`, listingColumns, where, n+1, n+2)
	rows, err := r.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list listings: %w", err)
	}
	defer rows.Close()

	listings := []domain.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, 0, err
		}
		listings = append(listings, *l)
	}
	return listings, total, rows.Err()
}
