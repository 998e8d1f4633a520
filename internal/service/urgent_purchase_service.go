package service

import (
	"context"
	"fmt"

	"github.com/suryasblaze/be-stock-recon/internal/client"
	"github.com/suryasblaze/be-stock-recon/internal/errors"
	"github.com/suryasblaze/be-stock-recon/internal/logger"
	"github.com/suryasblaze/be-stock-recon/internal/repository"
)

// UrgentPurchaseStore is the persistence surface for urgent purchase entries.
type UrgentPurchaseStore interface {
	Create(ctx context.Context, entry *repository.UrgentPurchaseEntry) error
	GetByID(ctx context.Context, id string) (*repository.UrgentPurchaseEntry, error)
	ReplaceLines(ctx context.Context, entryID string, lines []*repository.UrgentPurchaseLine) error
	UpdateStatus(ctx context.Context, id, from, to string) error
	Resolve(ctx context.Context, id, status, reviewerID string, notes *string) error
	MarkRejectedAfterFailure(ctx context.Context, id, reviewerID string, notes string) error
	List(ctx context.Context, status *string, limit, offset int) ([]*repository.UrgentPurchaseEntry, int64, error)
}

// UrgentPurchaseService runs the increase-stock workflow for goods entered
// outside the normal purchase-order path:
// draft → pending_approval → approved | rejected.
type UrgentPurchaseService struct {
	entries   UrgentPurchaseStore
	inventory InventoryStore
	notifier  Notifier
	log       *logger.Logger
}

// NewUrgentPurchaseService creates a new UrgentPurchaseService.
func NewUrgentPurchaseService(entries UrgentPurchaseStore, inventory InventoryStore, notifier Notifier, log *logger.Logger) *UrgentPurchaseService {
	return &UrgentPurchaseService{
		entries:   entries,
		inventory: inventory,
		notifier:  notifier,
		log:       log,
	}
}

// UrgentPurchaseLineRequest is one line of a draft entry.
type UrgentPurchaseLineRequest struct {
	ItemID      string
	Quantity    int
	BatchNumber *string
	ExpiryDate  *string
	SlipText    *string
}

// CreateDraftRequest describes a new urgent purchase draft.
type CreateDraftRequest struct {
	SlipPath      *string
	OCRConfidence *float64
	ApproverRole  string
	RequesterID   string
	Lines         []UrgentPurchaseLineRequest
}

// CreateDraft validates and creates a mutable draft entry. Line item names
// are denormalized from the catalog at creation time so later catalog edits
// do not rewrite history.
func (s *UrgentPurchaseService) CreateDraft(ctx context.Context, req CreateDraftRequest) (*repository.UrgentPurchaseEntry, error) {
	if req.RequesterID == "" {
		return nil, errors.InvalidInput("requester_id", "is required")
	}
	if req.ApproverRole == "" {
		return nil, errors.InvalidInput("approver_role", "is required")
	}
	if len(req.Lines) == 0 {
		return nil, errors.InvalidInput("lines", "at least one line is required")
	}

	lines, err := s.buildLines(ctx, req.Lines)
	if err != nil {
		return nil, err
	}

	entry := &repository.UrgentPurchaseEntry{
		SlipPath:      req.SlipPath,
		OCRConfidence: req.OCRConfidence,
		ApproverRole:  req.ApproverRole,
		Status:        repository.StatusDraft,
		RequesterID:   req.RequesterID,
		Lines:         lines,
	}

	if err := s.entries.Create(ctx, entry); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("entry_id", entry.ID).
		Str("requester_id", req.RequesterID).
		Int("line_count", len(lines)).
		Msg("Urgent purchase draft created")

	return entry, nil
}

// UpdateDraftLines replaces the lines of a draft. Only the requester may
// edit their draft; entries past draft are immutable.
func (s *UrgentPurchaseService) UpdateDraftLines(ctx context.Context, entryID, actorID string, lineReqs []UrgentPurchaseLineRequest) error {
	entry, err := s.entries.GetByID(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.RequesterID != actorID {
		return errors.New(errors.ErrCodeUnauthorized, "only the requester can edit a draft")
	}
	if entry.Status != repository.StatusDraft {
		return errors.Newf(errors.ErrCodeConflict, "entry is %s, drafts only", entry.Status)
	}
	if len(lineReqs) == 0 {
		return errors.InvalidInput("lines", "at least one line is required")
	}

	lines, err := s.buildLines(ctx, lineReqs)
	if err != nil {
		return err
	}

	return s.entries.ReplaceLines(ctx, entryID, lines)
}

// SubmitForApproval moves a draft to pending_approval. Only the original
// requester may submit.
func (s *UrgentPurchaseService) SubmitForApproval(ctx context.Context, entryID, actorID string) error {
	entry, err := s.entries.GetByID(ctx, entryID)
	if err != nil {
		return err
	}

	if entry.RequesterID != actorID {
		return errors.New(errors.ErrCodeUnauthorized, "only the requester can submit the entry for approval")
	}
	if entry.Status != repository.StatusDraft {
		return errors.Newf(errors.ErrCodeConflict,
			"cannot submit entry with status '%s' for approval", entry.Status)
	}
	if len(entry.Lines) == 0 {
		return errors.InvalidInput("lines", "entry must have at least one line")
	}

	if err := s.entries.UpdateStatus(ctx, entryID, repository.StatusDraft, repository.StatusPendingApproval); err != nil {
		return err
	}

	s.log.Info().
		Str("entry_id", entryID).
		Str("submitted_by", actorID).
		Msg("Urgent purchase entry submitted for approval")

	s.notify("urgent_purchase_submitted", entry, actorID, map[string]interface{}{
		"line_count": len(entry.Lines),
	})

	return nil
}

// Review approves or rejects a pending entry. Approval fans out to the
// mutation engine, one stock-in per line; if any line fails the entry is
// marked rejected with a diagnostic note rather than left approved with
// partial effect.
func (s *UrgentPurchaseService) Review(ctx context.Context, entryID, actorID string, decision ReviewDecision, notes *string) error {
	if actorID == "" {
		return errors.InvalidInput("actor_id", "is required")
	}
	if decision != DecisionApproved && decision != DecisionRejected {
		return errors.InvalidInput("decision", "must be 'approved' or 'rejected'")
	}

	entry, err := s.entries.GetByID(ctx, entryID)
	if err != nil {
		return err
	}

	if entry.Status != repository.StatusPendingApproval {
		return errors.Newf(errors.ErrCodeAlreadyResolved,
			"urgent purchase entry %s is %s, not pending approval", entryID, entry.Status)
	}
	if actorID == entry.RequesterID {
		return errors.New(errors.ErrCodeUnauthorized, "requester cannot review their own entry")
	}
	if decision == DecisionRejected && (notes == nil || *notes == "") {
		return errors.InvalidInput("notes", "rejection requires reviewer notes")
	}

	if decision == DecisionRejected {
		if err := s.entries.Resolve(ctx, entryID, repository.StatusRejected, actorID, notes); err != nil {
			return err
		}
		s.log.Info().
			Str("entry_id", entryID).
			Str("reviewer_id", actorID).
			Msg("Urgent purchase entry rejected")
		s.notify("urgent_purchase_rejected", entry, actorID, nil)
		return nil
	}

	// Resolve first so a concurrent reviewer loses the race before any
	// stock moves; the fan-out below then runs exactly once.
	if err := s.entries.Resolve(ctx, entryID, repository.StatusApproved, actorID, notes); err != nil {
		return err
	}

	if err := s.applyLines(ctx, entry, actorID); err != nil {
		diagnostic := fmt.Sprintf("approval reversed: stock mutation failed: %v", err)
		if markErr := s.entries.MarkRejectedAfterFailure(ctx, entryID, actorID, diagnostic); markErr != nil {
			s.log.Error().Err(markErr).
				Str("entry_id", entryID).
				Msg("Failed to mark entry rejected after partial mutation failure")
		}

		s.log.Error().Err(err).
			Str("entry_id", entryID).
			Str("reviewer_id", actorID).
			Msg("Urgent purchase fan-out failed; entry marked rejected for manual reconciliation")

		s.notify("urgent_purchase_rejected", entry, actorID, map[string]interface{}{
			"diagnostic": diagnostic,
		})

		return errors.Wrap(err, errors.ErrCodePartialMutation,
			"one or more line items failed to apply; entry marked rejected")
	}

	s.log.Info().
		Str("entry_id", entryID).
		Str("reviewer_id", actorID).
		Int("line_count", len(entry.Lines)).
		Msg("Urgent purchase entry approved and stock applied")

	s.notify("urgent_purchase_approved", entry, actorID, map[string]interface{}{
		"line_count": len(entry.Lines),
	})

	return nil
}

// Get returns an entry with its lines.
func (s *UrgentPurchaseService) Get(ctx context.Context, id string) (*repository.UrgentPurchaseEntry, error) {
	return s.entries.GetByID(ctx, id)
}

// List returns entries filtered by status with paging.
func (s *UrgentPurchaseService) List(ctx context.Context, status *string, page, pageSize int) ([]*repository.UrgentPurchaseEntry, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 50
	}
	return s.entries.List(ctx, status, pageSize, (page-1)*pageSize)
}

// ── Internals ────────────────────────────────────────────────────────────────

// buildLines validates line requests against the catalog and denormalizes
// item names.
func (s *UrgentPurchaseService) buildLines(ctx context.Context, reqs []UrgentPurchaseLineRequest) ([]*repository.UrgentPurchaseLine, error) {
	lines := make([]*repository.UrgentPurchaseLine, 0, len(reqs))
	for i, lr := range reqs {
		if lr.ItemID == "" {
			return nil, errors.InvalidInput("lines", fmt.Sprintf("line %d: item_id is required", i+1))
		}
		if lr.Quantity <= 0 {
			return nil, errors.InvalidInput("lines", fmt.Sprintf("line %d: quantity must be positive", i+1))
		}

		item, err := s.inventory.GetItem(ctx, lr.ItemID)
		if err != nil {
			return nil, err
		}

		lines = append(lines, &repository.UrgentPurchaseLine{
			ItemID:      item.ID,
			ItemName:    item.Name,
			Quantity:    lr.Quantity,
			BatchNumber: lr.BatchNumber,
			ExpiryDate:  lr.ExpiryDate,
			SlipText:    lr.SlipText,
		})
	}
	return lines, nil
}

// applyLines fans out one stock-in per line item. The first failure aborts;
// the caller converts it into a whole-entry rejection.
func (s *UrgentPurchaseService) applyLines(ctx context.Context, entry *repository.UrgentPurchaseEntry, actorID string) error {
	for _, line := range entry.Lines {
		note := fmt.Sprintf("urgent purchase %s: %s", entry.ID, line.ItemName)
		_, err := s.inventory.StockIn(ctx, repository.StockInParams{
			ItemID:      line.ItemID,
			Quantity:    line.Quantity,
			BatchNumber: line.BatchNumber,
			ExpiryDate:  line.ExpiryDate,
			ActorID:     actorID,
			Notes:       &note,
		})
		if err != nil {
			return fmt.Errorf("line %s (%s): %w", line.ID, line.ItemName, err)
		}
	}
	return nil
}

func (s *UrgentPurchaseService) notify(eventType string, entry *repository.UrgentPurchaseEntry, actorID string, payload map[string]interface{}) {
	if s.notifier == nil {
		return
	}

	s.notifier.Publish(&client.NotificationEvent{
		EventType:    eventType,
		ActorID:      actorID,
		ApproverRole: entry.ApproverRole,
		ResourceType: "urgent_purchase_entry",
		ResourceID:   entry.ID,
		Severity:     "info",
		Payload:      payload,
	})
}
