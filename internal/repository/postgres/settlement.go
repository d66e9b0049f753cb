package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"nftrental-backend/internal/domain"
	"nftrental-backend/internal/logger"
	"nftrental-backend/internal/repository"
)

const settlementColumns = `id, rental_id, kind, operation_id, transfers, status, confirmation_ref, attempts, last_error, created_at, updated_at`

type settlementRepository struct {
	db *sql.DB
}

func NewSettlementRepository(db *sql.DB) repository.SettlementRepository {
	return &settlementRepository{db: db}
}

func scanSettlement(s scanner) (*domain.Settlement, error) {
	var st domain.Settlement
	var transfers []byte
	var ref, lastErr sql.NullString
	err := s.Scan(&st.ID, &st.RentalID, &st.Kind, &st.OperationID, &transfers, &st.Status, &ref, &st.Attempts, &lastErr, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return nil, err
	}
	st.ConfirmationRef = ref.String
	st.LastError = lastErr.String
	if len(transfers) > 0 {
		if err := json.Unmarshal(transfers, &st.Transfers); err != nil {
			return nil, fmt.Errorf("failed to decode settlement transfers: %w", err)
		}
	}
	return &st, nil
}

func insertSettlement(ctx context.Context, q querier, st *domain.Settlement) error {
	transfers, err := json.Marshal(st.Transfers)
	if err != nil {
		return fmt.Errorf("failed to encode settlement transfers: %w", err)
	}
	query := `INSERT INTO settlements (id, rental_id, kind, operation_id, transfers, status, attempts, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	logger.DatabaseCall("INSERT", "settlements", "settlementID", st.ID, "kind", st.Kind, "operationID", st.OperationID)
	_, err = q.ExecContext(ctx, query, st.ID, st.RentalID, st.Kind, st.OperationID, transfers, st.Status, st.Attempts, st.CreatedAt, st.UpdatedAt)
	logger.DatabaseResult("INSERT", 1, err, "settlementID", st.ID)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}
	return nil
}

func (r *settlementRepository) GetByID(ctx context.Context, id string) (*domain.Settlement, error) {
	if !validID(id) {
		return nil, domain.NewNotFoundError("settlement", id)
	}
	st, err := scanSettlement(r.db.QueryRowContext(ctx, `SELECT `+settlementColumns+` FROM settlements WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("settlement", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	return st, nil
}

func (r *settlementRepository) ListByRental(ctx context.Context, rentalID string) ([]domain.Settlement, error) {
	if !validID(rentalID) {
		return []domain.Settlement{}, nil
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+settlementColumns+` FROM settlements WHERE rental_id = $1 ORDER BY created_at`, rentalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()
	return collectSettlements(rows)
}

func (r *settlementRepository) ListByStatus(ctx context.Context, status domain.SettlementStatus, limit int32) ([]domain.Settlement, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+settlementColumns+` FROM settlements WHERE status = $1 ORDER BY created_at LIMIT $2`, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()
	return collectSettlements(rows)
}

func (r *settlementRepository) CountByStatus(ctx context.Context, status domain.SettlementStatus) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM settlements WHERE status = $1`, status).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count settlements: %w", err)
	}
	return n, nil
}

func (r *settlementRepository) RecordAttempt(ctx context.Context, id string, attempts int32, lastErr string) error {
	query := `UPDATE settlements SET attempts = $1, last_error = $2, updated_at = NOW() WHERE id = $3 AND status = 'PENDING'`
	return r.exec(ctx, id, "record attempt on", query, attempts, lastErr, id)
}

func (r *settlementRepository) MarkSubmitted(ctx context.Context, id string, attempts int32, ref string) error {
	query := `UPDATE settlements SET status = 'SUBMITTED', attempts = $1, confirmation_ref = $2, last_error = NULL, updated_at = NOW()
	          WHERE id = $3 AND status = 'PENDING'`
	return r.exec(ctx, id, "submit", query, attempts, ref, id)
}

func (r *settlementRepository) MarkFinal(ctx context.Context, id string, status domain.SettlementStatus, lastErr string) error {
	query := `UPDATE settlements SET status = $1, last_error = NULLIF($2, ''), updated_at = NOW()
	          WHERE id = $3 AND status IN ('PENDING', 'SUBMITTED')`
	return r.exec(ctx, id, "finalize", query, status, lastErr, id)
}

func (r *settlementRepository) exec(ctx context.Context, id, op, query string, args ...any) error {
	if !validID(id) {
		return domain.NewNotFoundError("settlement", id)
	}
	logger.DatabaseCall("UPDATE", "settlements", "settlementID", id, "op", op)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "settlementID", id)
		return fmt.Errorf("failed to update settlement: %w", err)
	}
	n, err := affected(res)
	logger.DatabaseResult("UPDATE", n, err, "settlementID", id)
	if err != nil {
		return err
	}
	if n == 0 {
		return stateError(ctx, r.db, "settlements", "settlement", id, op)
	}
	return nil
}

func collectSettlements(rows *sql.Rows) ([]domain.Settlement, error) {
	out := []domain.Settlement{}
	for rows.Next() {
		st, err := scanSettlement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *st)
	}
	return out, rows.Err()
}
