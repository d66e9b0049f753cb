package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"nftrental-backend/internal/domain"
	"nftrental-backend/internal/logger"
	"nftrental-backend/internal/repository"
)

const rentalColumns = `id, listing_id, bid_id, owner, renter, asset_contract, asset_token_id, daily_price, rental_days,
	start_date, end_date, total_price, platform_fee, owner_earnings, deposit,
	returned, returned_at, on_time, days_late, penalty, refund, outstanding, created_at`

type rentalRepository struct {
	db *sql.DB
}

func NewRentalRepository(db *sql.DB) repository.RentalRepository {
	return &rentalRepository{db: db}
}

func scanRental(s scanner) (*domain.Rental, error) {
	var rt domain.Rental
	var returnedAt sql.NullTime
	var onTime sql.NullBool
	err := s.Scan(&rt.ID, &rt.ListingID, &rt.BidID, &rt.Owner, &rt.Renter, &rt.Asset.Contract, &rt.Asset.TokenID,
		&rt.DailyPrice, &rt.RentalDays, &rt.StartDate, &rt.EndDate, &rt.TotalPrice, &rt.PlatformFee,
		&rt.OwnerEarnings, &rt.Deposit, &rt.Returned, &returnedAt, &onTime, &rt.DaysLate, &rt.Penalty,
		&rt.Refund, &rt.Outstanding, &rt.CreatedAt)
	if err != nil {
		return nil, err
	}
	if returnedAt.Valid {
		t := returnedAt.Time
		rt.ReturnedAt = &t
	}
	if onTime.Valid {
		v := onTime.Bool
		rt.OnTime = &v
	}
	return &rt, nil
}

func insertRental(ctx context.Context, q querier, rt *domain.Rental) error {
	query := `INSERT INTO rentals (id, listing_id, bid_id, owner, renter, asset_contract, asset_token_id, daily_price,
	          rental_days, start_date, end_date, total_price, platform_fee, owner_earnings, deposit, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	logger.DatabaseCall("INSERT", "rentals", "rentalID", rt.ID)
	_, err := q.ExecContext(ctx, query, rt.ID, rt.ListingID, rt.BidID, rt.Owner, rt.Renter, rt.Asset.Contract,
		rt.Asset.TokenID, rt.DailyPrice, rt.RentalDays, rt.StartDate, rt.EndDate, rt.TotalPrice, rt.PlatformFee,
		rt.OwnerEarnings, rt.Deposit, rt.CreatedAt)
	logger.DatabaseResult("INSERT", 1, err, "rentalID", rt.ID)
	if err != nil {
		return fmt.Errorf("failed to insert rental: %w", err)
	}
	return nil
}

func (r *rentalRepository) GetByID(ctx context.Context, id string) (*domain.Rental, error) {
	if !validID(id) {
		return nil, domain.NewNotFoundError("rental", id)
	}
	return r.getOne(ctx, "id", id, id)
}

func (r *rentalRepository) GetByListing(ctx context.Context, listingID string) (*domain.Rental, error) {
	if !validID(listingID) {
		return nil, domain.NewNotFoundError("rental", "listing:"+listingID)
	}
	return r.getOne(ctx, "listing_id", listingID, "listing:"+listingID)
}

func (r *rentalRepository) getOne(ctx context.Context, column, value, notFoundID string) (*domain.Rental, error) {
	query := fmt.Sprintf(`SELECT %s FROM rentals WHERE %s = $1`, rentalColumns, column)
	rt, err := scanRental(r.db.QueryRowContext(ctx, query, value))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("rental", notFoundID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rental: %w", err)
	}
	return rt, nil
}

func (r *rentalRepository) ListByRenter(ctx context.Context, renter string, page, pageSize int32) ([]domain.Rental, int32, error) {
	return r.list(ctx, "renter", renter, page, pageSize)
}

func (r *rentalRepository) ListByOwner(ctx context.Context, owner string, page, pageSize int32) ([]domain.Rental, int32, error) {
	return r.list(ctx, "owner", owner, page, pageSize)
}

func (r *rentalRepository) list(ctx context.Context, column, value string, page, pageSize int32) ([]domain.Rental, int32, error) {
	var total int32
	countQuery := fmt.Sprintf(`SELECT count(*) FROM rentals WHERE %s = $1`, column)
	if err := r.db.QueryRowContext(ctx, countQuery, value).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count rentals: %w", err)
	}

	limit, offset := repository.Page(page, pageSize)
	query := fmt.Sprintf(`SELECT %s FROM rentals WHERE %s = $1 ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`, rentalColumns, column)
	rows, err := r.db.QueryContext(ctx, query, value, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list rentals: %w", err)
	}
	defer rows.Close()
	rentals, err := collectRentals(rows)
	return rentals, total, err
}

func (r *rentalRepository) ListOverdue(ctx context.Context, now time.Time, limit int32) ([]domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals
	          WHERE returned = FALSE AND end_date < $1
	            AND (last_overdue_notice IS NULL OR last_overdue_notice < $2::date)
	          ORDER BY end_date LIMIT $3`
	logger.DatabaseCall("SELECT", "rentals", "overdueAt", now)
	rows, err := r.db.QueryContext(ctx, query, now, now.UTC().Format("2006-01-02"), limit)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err)
		return nil, fmt.Errorf("failed to list overdue rentals: %w", err)
	}
	defer rows.Close()
	rentals, err := collectRentals(rows)
	logger.DatabaseResult("SELECT", int64(len(rentals)), err)
	return rentals, err
}

func (r *rentalRepository) MarkOverdueNotified(ctx context.Context, id string, day time.Time) error {
	query := `UPDATE rentals SET last_overdue_notice = $1::date WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, day.UTC().Format("2006-01-02"), id)
	if err != nil {
		return fmt.Errorf("failed to mark overdue notice: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NewNotFoundError("rental", id)
	}
	return nil
}

func collectRentals(rows *sql.Rows) ([]domain.Rental, error) {
	rentals := []domain.Rental{}
	for rows.Next() {
		rt, err := scanRental(rows)
		if err != nil {
			return nil, err
		}
		rentals = append(rentals, *rt)
	}
	return rentals, rows.Err()
}
