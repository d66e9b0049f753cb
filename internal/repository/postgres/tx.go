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

type transactor struct {
	db *sql.DB
}

func NewTransactor(db *sql.DB) repository.Transactor {
	return &transactor{db: db}
}

func (t *transactor) AcceptBid(ctx context.Context, rental *domain.Rental, escrow *domain.Settlement) error {
	logger.EnterMethod("transactor.AcceptBid", "listingID", rental.ListingID, "bidID", rental.BidID)

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// The listing CAS is the serialization point for competing acceptances.
	res, err := tx.ExecContext(ctx, `UPDATE listings SET status = 'RENTED', updated_at = $1 WHERE id = $2 AND status = 'ACTIVE'`,
		rental.CreatedAt, rental.ListingID)
	if err != nil {
		return fmt.Errorf("failed to rent listing: %w", err)
	}
	if n, err := affected(res); err != nil {
		return err
	} else if n == 0 {
		err = stateError(ctx, tx, "listings", "listing", rental.ListingID, "accept bid on")
		logger.ExitMethodWithError("transactor.AcceptBid", err, "listingID", rental.ListingID)
		return err
	}

	res, err = tx.ExecContext(ctx, `UPDATE bids SET status = 'ACCEPTED', updated_at = $1 WHERE id = $2 AND listing_id = $3 AND status = 'PENDING'`,
		rental.CreatedAt, rental.BidID, rental.ListingID)
	if err != nil {
		return fmt.Errorf("failed to accept bid: %w", err)
	}
	if n, err := affected(res); err != nil {
		return err
	} else if n == 0 {
		err = stateError(ctx, tx, "bids", "bid", rental.BidID, "accept")
		logger.ExitMethodWithError("transactor.AcceptBid", err, "bidID", rental.BidID)
		return err
	}

	if err := insertRental(ctx, tx, rental); err != nil {
		return err
	}
	if err := insertSettlement(ctx, tx, escrow); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit acceptance: %w", err)
	}
	logger.ExitMethod("transactor.AcceptBid", "rentalID", rental.ID)
	return nil
}

func (t *transactor) ReturnRental(ctx context.Context, rental *domain.Rental, release *domain.Settlement, adj domain.ReputationAdjustment) (int64, error) {
	logger.EnterMethod("transactor.ReturnRental", "rentalID", rental.ID)

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	returnedAt := time.Now().UTC()
	if rental.ReturnedAt != nil {
		returnedAt = *rental.ReturnedAt
	}
	query := `UPDATE rentals SET returned = TRUE, returned_at = $1, on_time = $2, days_late = $3, penalty = $4, refund = $5, outstanding = $6
	          WHERE id = $7 AND returned = FALSE`
	res, err := tx.ExecContext(ctx, query, returnedAt, rental.OnTime, rental.DaysLate, rental.Penalty, rental.Refund, rental.Outstanding, rental.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark rental returned: %w", err)
	}
	if n, err := affected(res); err != nil {
		return 0, err
	} else if n == 0 {
		err = returnStateError(ctx, tx, rental.ID)
		logger.ExitMethodWithError("transactor.ReturnRental", err, "rentalID", rental.ID)
		return 0, err
	}

	if err := insertSettlement(ctx, tx, release); err != nil {
		return 0, err
	}
	score, err := adjustReputation(ctx, tx, adj, returnedAt)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit return: %w", err)
	}
	logger.ExitMethod("transactor.ReturnRental", "rentalID", rental.ID, "score", score)
	return score, nil
}

func returnStateError(ctx context.Context, q querier, id string) error {
	var returned bool
	err := q.QueryRowContext(ctx, `SELECT returned FROM rentals WHERE id = $1`, id).Scan(&returned)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewNotFoundError("rental", id)
	}
	if err != nil {
		return fmt.Errorf("failed to read rental: %w", err)
	}
	return domain.NewInvalidStateError("rental", id, "RETURNED", "return")
}
