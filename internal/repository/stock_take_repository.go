package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/suryasblaze/be-stock-recon/internal/database"
	"github.com/suryasblaze/be-stock-recon/internal/errors"
)

// StockTakeRepository persists stock take records. Records are immutable
// after creation except for the variance-resolution flag.
type StockTakeRepository struct {
	db *database.DB
}

// NewStockTakeRepository creates a new StockTakeRepository.
func NewStockTakeRepository(db *database.DB) *StockTakeRepository {
	return &StockTakeRepository{db: db}
}

// Create inserts a stock take record.
func (r *StockTakeRepository) Create(ctx context.Context, rec *StockTakeRecord) error {
	query := `
		INSERT INTO stock_takes
		    (item_id, system_quantity, counted_quantity, variance,
		     counter_id, notes, is_variance_resolved)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		rec.ItemID,
		rec.SystemQuantity,
		rec.CountedQuantity,
		rec.Variance,
		rec.CounterID,
		rec.Notes,
		rec.IsVarianceResolved,
	).Scan(&rec.ID, &rec.CreatedAt)

	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create stock take record")
	}

	return nil
}

// GetByID retrieves a stock take record.
func (r *StockTakeRepository) GetByID(ctx context.Context, id string) (*StockTakeRecord, error) {
	query := `
		SELECT id, item_id, system_quantity, counted_quantity, variance,
		       counter_id, notes, is_variance_resolved, created_at
		FROM stock_takes
		WHERE id = $1
	`

	rec := &StockTakeRecord{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&rec.ID,
		&rec.ItemID,
		&rec.SystemQuantity,
		&rec.CountedQuantity,
		&rec.Variance,
		&rec.CounterID,
		&rec.Notes,
		&rec.IsVarianceResolved,
		&rec.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("stock take record", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get stock take record")
	}

	return rec, nil
}

// MarkResolved flips the resolution flag. The record itself never changes.
func (r *StockTakeRepository) MarkResolved(ctx context.Context, id string) error {
	query := `
		UPDATE stock_takes
		SET is_variance_resolved = TRUE
		WHERE id = $1 AND is_variance_resolved = FALSE
	`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to mark stock take resolved")
	}

	if tag.RowsAffected() == 0 {
		return errors.Newf(errors.ErrCodeAlreadyResolved,
			"stock take %s is already resolved or does not exist", id)
	}

	return nil
}

// List retrieves stock take records, optionally only unresolved variances.
func (r *StockTakeRepository) List(ctx context.Context, unresolvedOnly bool, limit, offset int) ([]*StockTakeRecord, int64, error) {
	query := `
		SELECT id, item_id, system_quantity, counted_quantity, variance,
		       counter_id, notes, is_variance_resolved, created_at
		FROM stock_takes
		WHERE 1=1
	`
	countQuery := `SELECT COUNT(*) FROM stock_takes WHERE 1=1`

	if unresolvedOnly {
		cond := " AND variance <> 0 AND is_variance_resolved = FALSE"
		query += cond
		countQuery += cond
	}

	query += " ORDER BY created_at DESC LIMIT $1 OFFSET $2"

	var total int64
	if err := r.db.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeInternal, "failed to count stock takes")
	}

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeInternal, "failed to list stock takes")
	}
	defer rows.Close()

	recs := make([]*StockTakeRecord, 0)
	for rows.Next() {
		rec := &StockTakeRecord{}
		err := rows.Scan(
			&rec.ID,
			&rec.ItemID,
			&rec.SystemQuantity,
			&rec.CountedQuantity,
			&rec.Variance,
			&rec.CounterID,
			&rec.Notes,
			&rec.IsVarianceResolved,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, 0, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan stock take record")
		}
		recs = append(recs, rec)
	}

	return recs, total, nil
}
