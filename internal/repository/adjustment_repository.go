package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/suryasblaze/be-stock-recon/internal/database"
	"github.com/suryasblaze/be-stock-recon/internal/errors"
)

// AdjustmentRepository persists decrease-stock adjustment requests.
type AdjustmentRepository struct {
	db *database.DB
}

// NewAdjustmentRepository creates a new AdjustmentRepository.
func NewAdjustmentRepository(db *database.DB) *AdjustmentRepository {
	return &AdjustmentRepository{db: db}
}

const adjustmentColumns = `
	id, item_id, batch_id, quantity, reason, notes, photo_path,
	requester_id, approver_role, approver_emails,
	approval_token, token_expires_at,
	status, reviewer_id, reviewer_notes, reviewed_at,
	created_at, updated_at
`

// Create inserts a new pending request.
func (r *AdjustmentRepository) Create(ctx context.Context, req *AdjustmentRequest) error {
	query := `
		INSERT INTO adjustment_requests
		    (item_id, batch_id, quantity, reason, notes, photo_path,
		     requester_id, approver_role, approver_emails,
		     approval_token, token_expires_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		req.ItemID,
		req.BatchID,
		req.Quantity,
		req.Reason,
		req.Notes,
		req.PhotoPath,
		req.RequesterID,
		req.ApproverRole,
		req.ApproverEmails,
		req.ApprovalToken,
		req.TokenExpiresAt,
		req.Status,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)

	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create adjustment request")
	}

	return nil
}

// GetByID retrieves a request by ID.
func (r *AdjustmentRepository) GetByID(ctx context.Context, id string) (*AdjustmentRequest, error) {
	query := `SELECT` + adjustmentColumns + `FROM adjustment_requests WHERE id = $1`

	req, err := scanAdjustment(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("adjustment request", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get adjustment request")
	}

	return req, nil
}

// Resolve moves a pending request to a terminal status and consumes any
// approval token. The status gate is part of the UPDATE so a concurrent
// resolve loses the race cleanly with ALREADY_RESOLVED.
func (r *AdjustmentRepository) Resolve(ctx context.Context, id, status, reviewerID string, notes *string) error {
	query := `
		UPDATE adjustment_requests
		SET status = $2,
		    reviewer_id = $3,
		    reviewer_notes = $4,
		    reviewed_at = NOW(),
		    approval_token = NULL,
		    token_expires_at = NULL,
		    updated_at = NOW()
		WHERE id = $1 AND status = $5
	`

	tag, err := r.db.Exec(ctx, query, id, status, reviewerID, notes, StatusPending)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to resolve adjustment request")
	}

	if tag.RowsAffected() == 0 {
		return errors.Newf(errors.ErrCodeAlreadyResolved,
			"adjustment request %s is no longer pending", id)
	}

	return nil
}

// MarkRejectedAfterFailure force-rejects a request regardless of current
// status. Used when the approved decrease failed to apply and the request
// must never be left approved.
func (r *AdjustmentRepository) MarkRejectedAfterFailure(ctx context.Context, id, reviewerID string, notes string) error {
	query := `
		UPDATE adjustment_requests
		SET status = $2,
		    reviewer_id = $3,
		    reviewer_notes = $4,
		    reviewed_at = NOW(),
		    approval_token = NULL,
		    token_expires_at = NULL,
		    updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.Exec(ctx, query, id, StatusRejected, reviewerID, notes)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to mark adjustment request rejected")
	}
	return nil
}

// List retrieves requests filtered by status and/or item, newest first.
func (r *AdjustmentRepository) List(ctx context.Context, status, itemID *string, limit, offset int) ([]*AdjustmentRequest, int64, error) {
	query := `SELECT` + adjustmentColumns + `FROM adjustment_requests WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM adjustment_requests WHERE 1=1`

	args := []interface{}{}
	argCount := 1

	if status != nil {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		countQuery += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, *status)
		argCount++
	}

	if itemID != nil {
		query += fmt.Sprintf(" AND item_id = $%d", argCount)
		countQuery += fmt.Sprintf(" AND item_id = $%d", argCount)
		args = append(args, *itemID)
		argCount++
	}

	query += " ORDER BY created_at DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1)
	queryArgs := append(args, limit, offset)

	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeInternal, "failed to count adjustment requests")
	}

	rows, err := r.db.Query(ctx, query, queryArgs...)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeInternal, "failed to list adjustment requests")
	}
	defer rows.Close()

	reqs := make([]*AdjustmentRequest, 0)
	for rows.Next() {
		req, err := scanAdjustment(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan adjustment request")
		}
		reqs = append(reqs, req)
	}

	return reqs, total, nil
}

func scanAdjustment(row pgx.Row) (*AdjustmentRequest, error) {
	req := &AdjustmentRequest{}
	err := row.Scan(
		&req.ID,
		&req.ItemID,
		&req.BatchID,
		&req.Quantity,
		&req.Reason,
		&req.Notes,
		&req.PhotoPath,
		&req.RequesterID,
		&req.ApproverRole,
		&req.ApproverEmails,
		&req.ApprovalToken,
		&req.TokenExpiresAt,
		&req.Status,
		&req.ReviewerID,
		&req.ReviewerNotes,
		&req.ReviewedAt,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return req, nil
}
