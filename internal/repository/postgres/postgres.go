package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"nftrental-backend/internal/domain"
	"nftrental-backend/internal/repository"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

type Store struct {
	db            *sql.DB
	listings      repository.ListingRepository
	bids          repository.BidRepository
	rentals       repository.RentalRepository
	settlements   repository.SettlementRepository
	reputations   repository.ReputationRepository
	notifications repository.NotificationRepository
	stats         repository.StatsRepository
	tx            repository.Transactor
}

var _ repository.Store = (*Store)(nil)

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:            db,
		listings:      NewListingRepository(db),
		bids:          NewBidRepository(db),
		rentals:       NewRentalRepository(db),
		settlements:   NewSettlementRepository(db),
		reputations:   NewReputationRepository(db),
		notifications: NewNotificationRepository(db),
		stats:         NewStatsRepository(db),
		tx:            NewTransactor(db),
	}
}

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Listings() repository.ListingRepository { return s.listings }
func (s *Store) Bids() repository.BidRepository { return s.bids }
func (s *Store) Rentals() repository.RentalRepository { return s.rentals }
func (s *Store) Settlements() repository.SettlementRepository { return s.settlements }
func (s *Store) Reputations() repository.ReputationRepository { return s.reputations }
func (s *Store) Notifications() repository.NotificationRepository { return s.notifications }
func (s *Store) Stats() repository.StatsRepository { return s.stats }
func (s *Store) Tx() repository.Transactor { return s.tx }

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// validID reports whether id can be a primary key. Anything else cannot exist
// in a UUID column and is reported as not found rather than a driver error.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// stateError explains why a compare-and-set on table matched no row.
func stateError(ctx context.Context, q querier, table, entity, id, op string) error {
	var status string
	err := q.QueryRowContext(ctx, fmt.Sprintf("SELECT status FROM %s WHERE id = $1", table), id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewNotFoundError(entity, id)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s status: %w", entity, err)
	}
	return domain.NewInvalidStateError(entity, id, status, op)
}

func affected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n, nil
}
