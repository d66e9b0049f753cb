package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"nftrental-backend/internal/domain"
	"nftrental-backend/internal/repository"
)

type statsRepository struct {
	db *sql.DB
}

func NewStatsRepository(db *sql.DB) repository.StatsRepository {
	return &statsRepository{db: db}
}

// GetMarketplaceStats aggregates counts in one round trip. Active rentals
// include overdue ones.
func (r *statsRepository) GetMarketplaceStats(ctx context.Context, now time.Time) (*domain.MarketplaceStats, error) {
	query := `SELECT
	    l.total, l.active, l.rented, l.cancelled, l.avg_price,
	    rt.total, rt.active, rt.overdue, rt.returned, rt.volume,
	    (SELECT count(*) FROM settlements WHERE status = 'PENDING')
	FROM
	    (SELECT count(*) AS total,
	            count(*) FILTER (WHERE status = 'ACTIVE') AS active,
	            count(*) FILTER (WHERE status = 'RENTED') AS rented,
	            count(*) FILTER (WHERE status = 'CANCELLED') AS cancelled,
	            COALESCE(div(sum(price_per_day), NULLIF(count(*), 0)), 0)::bigint AS avg_price
	     FROM listings) l,
	    (SELECT count(*) AS total,
	            count(*) FILTER (WHERE returned = FALSE) AS active,
	            count(*) FILTER (WHERE returned = FALSE AND end_date < $1) AS overdue,
	            count(*) FILTER (WHERE returned = TRUE) AS returned,
	            COALESCE(sum(total_price), 0)::bigint AS volume
	     FROM rentals) rt`

	s := &domain.MarketplaceStats{}
	err := r.db.QueryRowContext(ctx, query, now).Scan(
		&s.TotalListings, &s.ActiveListings, &s.RentedListings, &s.CancelledListings, &s.AveragePricePerDay,
		&s.TotalRentals, &s.ActiveRentals, &s.OverdueRentals, &s.ReturnedRentals, &s.TotalVolume,
		&s.PendingSettlements,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load marketplace stats: %w", err)
	}
	return s, nil
}
