package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/suryasblaze/be-stock-recon/internal/database"
	"github.com/suryasblaze/be-stock-recon/internal/errors"
)

// UrgentPurchaseRepository persists urgent purchase entries and their lines.
// Entry + line creation is always done together in a single transaction.
type UrgentPurchaseRepository struct {
	db *database.DB
}

// NewUrgentPurchaseRepository creates a new UrgentPurchaseRepository.
func NewUrgentPurchaseRepository(db *database.DB) *UrgentPurchaseRepository {
	return &UrgentPurchaseRepository{db: db}
}

const urgentEntryColumns = `
	id, slip_path, ocr_confidence, approver_role, status,
	requester_id, requested_at,
	reviewer_id, reviewer_notes, reviewed_at,
	created_at, updated_at
`

// Create inserts an entry and its lines in one transaction.
func (r *UrgentPurchaseRepository) Create(ctx context.Context, entry *UrgentPurchaseEntry) error {
	return r.db.InTransaction(ctx, func(tx pgx.Tx) error {
		entryQuery := `
			INSERT INTO urgent_purchase_entries
			    (slip_path, ocr_confidence, approver_role, status, requester_id)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, requested_at, created_at, updated_at
		`

		err := tx.QueryRow(ctx, entryQuery,
			entry.SlipPath,
			entry.OCRConfidence,
			entry.ApproverRole,
			entry.Status,
			entry.RequesterID,
		).Scan(&entry.ID, &entry.RequestedAt, &entry.CreatedAt, &entry.UpdatedAt)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to create urgent purchase entry")
		}

		lineQuery := `
			INSERT INTO urgent_purchase_lines
			    (entry_id, item_id, item_name, quantity, batch_number, expiry_date, slip_text)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, created_at
		`

		for _, line := range entry.Lines {
			line.EntryID = entry.ID
			err := tx.QueryRow(ctx, lineQuery,
				line.EntryID,
				line.ItemID,
				line.ItemName,
				line.Quantity,
				line.BatchNumber,
				line.ExpiryDate,
				line.SlipText,
			).Scan(&line.ID, &line.CreatedAt)
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeInternal, "failed to create urgent purchase line")
			}
		}

		return nil
	})
}

// GetByID retrieves an entry with all its lines.
func (r *UrgentPurchaseRepository) GetByID(ctx context.Context, id string) (*UrgentPurchaseEntry, error) {
	query := `SELECT` + urgentEntryColumns + `FROM urgent_purchase_entries WHERE id = $1`

	entry, err := scanUrgentEntry(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("urgent purchase entry", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get urgent purchase entry")
	}

	lines, err := r.getLines(ctx, id)
	if err != nil {
		return nil, err
	}
	entry.Lines = lines

	return entry, nil
}

// ReplaceLines swaps an entry's lines while it is still a draft.
func (r *UrgentPurchaseRepository) ReplaceLines(ctx context.Context, entryID string, lines []*UrgentPurchaseLine) error {
	return r.db.InTransaction(ctx, func(tx pgx.Tx) error {
		var status string
		err := tx.QueryRow(ctx,
			`SELECT status FROM urgent_purchase_entries WHERE id = $1 FOR UPDATE`,
			entryID,
		).Scan(&status)
		if err == pgx.ErrNoRows {
			return errors.NotFound("urgent purchase entry", entryID)
		}
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to lock urgent purchase entry")
		}

		if status != StatusDraft {
			return errors.Newf(errors.ErrCodeConflict,
				"cannot edit lines of entry with status '%s'", status)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM urgent_purchase_lines WHERE entry_id = $1`, entryID); err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to clear urgent purchase lines")
		}

		lineQuery := `
			INSERT INTO urgent_purchase_lines
			    (entry_id, item_id, item_name, quantity, batch_number, expiry_date, slip_text)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, created_at
		`
		for _, line := range lines {
			line.EntryID = entryID
			err := tx.QueryRow(ctx, lineQuery,
				line.EntryID, line.ItemID, line.ItemName, line.Quantity,
				line.BatchNumber, line.ExpiryDate, line.SlipText,
			).Scan(&line.ID, &line.CreatedAt)
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeInternal, "failed to insert urgent purchase line")
			}
		}

		return nil
	})
}

// UpdateStatus transitions an entry from one status to another. The expected
// status is part of the WHERE clause so concurrent transitions lose cleanly.
func (r *UrgentPurchaseRepository) UpdateStatus(ctx context.Context, id, from, to string) error {
	query := `
		UPDATE urgent_purchase_entries
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	tag, err := r.db.Exec(ctx, query, id, from, to)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to update urgent purchase status")
	}

	if tag.RowsAffected() == 0 {
		return errors.Newf(errors.ErrCodeAlreadyResolved,
			"urgent purchase entry %s is not in status '%s'", id, from)
	}

	return nil
}

// Resolve moves a pending entry to a terminal status with reviewer details.
func (r *UrgentPurchaseRepository) Resolve(ctx context.Context, id, status, reviewerID string, notes *string) error {
	query := `
		UPDATE urgent_purchase_entries
		SET status = $2,
		    reviewer_id = $3,
		    reviewer_notes = $4,
		    reviewed_at = NOW(),
		    updated_at = NOW()
		WHERE id = $1 AND status = $5
	`

	tag, err := r.db.Exec(ctx, query, id, status, reviewerID, notes, StatusPendingApproval)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to resolve urgent purchase entry")
	}

	if tag.RowsAffected() == 0 {
		return errors.Newf(errors.ErrCodeAlreadyResolved,
			"urgent purchase entry %s is no longer pending approval", id)
	}

	return nil
}

// MarkRejectedAfterFailure force-rejects an entry regardless of current
// status. Used when the approval fan-out partially failed and the entry must
// never be left approved.
func (r *UrgentPurchaseRepository) MarkRejectedAfterFailure(ctx context.Context, id, reviewerID string, notes string) error {
	query := `
		UPDATE urgent_purchase_entries
		SET status = $2,
		    reviewer_id = $3,
		    reviewer_notes = $4,
		    reviewed_at = NOW(),
		    updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.Exec(ctx, query, id, StatusRejected, reviewerID, notes)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to mark urgent purchase entry rejected")
	}
	return nil
}

// List retrieves entries filtered by status, newest first. Lines are not
// loaded; use GetByID for the full entry.
func (r *UrgentPurchaseRepository) List(ctx context.Context, status *string, limit, offset int) ([]*UrgentPurchaseEntry, int64, error) {
	query := `SELECT` + urgentEntryColumns + `FROM urgent_purchase_entries WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM urgent_purchase_entries WHERE 1=1`

	args := []interface{}{}
	argCount := 1

	if status != nil {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		countQuery += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, *status)
		argCount++
	}

	query += " ORDER BY created_at DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1)
	queryArgs := append(args, limit, offset)

	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeInternal, "failed to count urgent purchase entries")
	}

	rows, err := r.db.Query(ctx, query, queryArgs...)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeInternal, "failed to list urgent purchase entries")
	}
	defer rows.Close()

	entries := make([]*UrgentPurchaseEntry, 0)
	for rows.Next() {
		entry, err := scanUrgentEntry(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan urgent purchase entry")
		}
		entries = append(entries, entry)
	}

	return entries, total, nil
}

func (r *UrgentPurchaseRepository) getLines(ctx context.Context, entryID string) ([]*UrgentPurchaseLine, error) {
	query := `
		SELECT id, entry_id, item_id, item_name, quantity,
		       batch_number, expiry_date, slip_text, created_at
		FROM urgent_purchase_lines
		WHERE entry_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.Query(ctx, query, entryID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get urgent purchase lines")
	}
	defer rows.Close()

	lines := make([]*UrgentPurchaseLine, 0)
	for rows.Next() {
		line := &UrgentPurchaseLine{}
		err := rows.Scan(
			&line.ID,
			&line.EntryID,
			&line.ItemID,
			&line.ItemName,
			&line.Quantity,
			&line.BatchNumber,
			&line.ExpiryDate,
			&line.SlipText,
			&line.CreatedAt,
		)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan urgent purchase line")
		}
		lines = append(lines, line)
	}

	return lines, nil
}

func scanUrgentEntry(row pgx.Row) (*UrgentPurchaseEntry, error) {
	entry := &UrgentPurchaseEntry{}
	err := row.Scan(
		&entry.ID,
		&entry.SlipPath,
		&entry.OCRConfidence,
		&entry.ApproverRole,
		&entry.Status,
		&entry.RequesterID,
		&entry.RequestedAt,
		&entry.ReviewerID,
		&entry.ReviewerNotes,
		&entry.ReviewedAt,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return entry, nil
}
