package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/suryasblaze/be-stock-recon/internal/client"
	"github.com/suryasblaze/be-stock-recon/internal/errors"
	"github.com/suryasblaze/be-stock-recon/internal/logger"
	"github.com/suryasblaze/be-stock-recon/internal/repository"
)

// AdjustmentStore is the persistence surface for adjustment requests.
type AdjustmentStore interface {
	Create(ctx context.Context, req *repository.AdjustmentRequest) error
	GetByID(ctx context.Context, id string) (*repository.AdjustmentRequest, error)
	Resolve(ctx context.Context, id, status, reviewerID string, notes *string) error
	MarkRejectedAfterFailure(ctx context.Context, id, reviewerID string, notes string) error
	List(ctx context.Context, status, itemID *string, limit, offset int) ([]*repository.AdjustmentRequest, int64, error)
}

// Notifier dispatches fire-and-forget workflow notifications.
type Notifier interface {
	Publish(event *client.NotificationEvent)
}

// approvalTokenTTL bounds link-based approvals.
const approvalTokenTTL = 72 * time.Hour

// AdjustmentService runs the decrease-stock request workflow:
// pending → approved | rejected, with in-app review and single-use token
// links for out-of-band approval.
type AdjustmentService struct {
	requests  AdjustmentStore
	inventory InventoryStore
	notifier  Notifier
	log       *logger.Logger
}

// NewAdjustmentService creates a new AdjustmentService.
func NewAdjustmentService(requests AdjustmentStore, inventory InventoryStore, notifier Notifier, log *logger.Logger) *AdjustmentService {
	return &AdjustmentService{
		requests:  requests,
		inventory: inventory,
		notifier:  notifier,
		log:       log,
	}
}

// SubmitAdjustmentRequest describes a new decrease request.
type SubmitAdjustmentRequest struct {
	ItemID         string
	BatchID        *string
	Quantity       int
	Reason         repository.AdjustmentReason
	Notes          string
	PhotoPath      *string
	RequesterID    string
	ApproverRole   *string
	ApproverEmails []string
	// IssueToken asks for a single-use approval link token, typically when
	// approvers are addressed by email rather than an in-app role.
	IssueToken bool
}

// ReviewDecision is an approve/reject verdict.
type ReviewDecision string

const (
	DecisionApproved ReviewDecision = "approved"
	DecisionRejected ReviewDecision = "rejected"
)

// Submit validates and creates a pending adjustment request, then notifies
// the requested approvers. Notification failure never rolls back creation.
func (s *AdjustmentService) Submit(ctx context.Context, req SubmitAdjustmentRequest) (*repository.AdjustmentRequest, error) {
	if req.ItemID == "" {
		return nil, errors.InvalidInput("item_id", "is required")
	}
	if req.RequesterID == "" {
		return nil, errors.InvalidInput("requester_id", "is required")
	}
	if req.Quantity <= 0 {
		return nil, errors.InvalidInput("quantity", "must be a positive integer")
	}
	if !req.Reason.Valid() {
		return nil, errors.InvalidInput("reason", "unknown adjustment reason")
	}
	if req.Notes == "" {
		return nil, errors.InvalidInput("notes", "are required")
	}

	item, err := s.inventory.GetItem(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	if item.IsBatched && req.BatchID == nil {
		return nil, errors.InvalidInput("batch_id", "required for batch-tracked item")
	}
	if req.BatchID != nil {
		batch, err := s.inventory.GetBatch(ctx, *req.BatchID)
		if err != nil {
			return nil, err
		}
		if batch.ItemID != req.ItemID {
			return nil, errors.InvalidInput("batch_id", "batch does not belong to the given item")
		}
	}

	record := &repository.AdjustmentRequest{
		ItemID:         req.ItemID,
		BatchID:        req.BatchID,
		Quantity:       req.Quantity,
		Reason:         req.Reason,
		Notes:          req.Notes,
		PhotoPath:      req.PhotoPath,
		RequesterID:    req.RequesterID,
		ApproverRole:   req.ApproverRole,
		ApproverEmails: req.ApproverEmails,
		Status:         repository.StatusPending,
	}

	if req.IssueToken {
		token, err := newApprovalToken()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to generate approval token")
		}
		expiry := time.Now().Add(approvalTokenTTL)
		record.ApprovalToken = &token
		record.TokenExpiresAt = &expiry
	}

	if err := s.requests.Create(ctx, record); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("request_id", record.ID).
		Str("item_id", req.ItemID).
		Int("quantity", req.Quantity).
		Str("reason", string(req.Reason)).
		Str("requester_id", req.RequesterID).
		Bool("token_issued", req.IssueToken).
		Msg("Adjustment request submitted")

	s.notify("adjustment_requested", record, req.RequesterID, map[string]interface{}{
		"item_name": item.Name,
		"quantity":  req.Quantity,
		"reason":    string(req.Reason),
	})

	return record, nil
}

// Review approves or rejects a pending request. The requester may never be
// the reviewer; rejection requires notes; on approval the request is
// resolved first and the decrease then applied through the mutation engine.
// A decrease that fails after approval force-rejects the request.
func (s *AdjustmentService) Review(ctx context.Context, requestID, actorID string, decision ReviewDecision, notes *string) error {
	if actorID == "" {
		return errors.InvalidInput("actor_id", "is required")
	}

	record, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return err
	}

	return s.review(ctx, record, actorID, decision, notes)
}

// VerifyApprovalToken checks a link token against the request. Exact match
// plus unexpired is required; a consumed, expired or mismatched token yields
// INVALID_OR_EXPIRED_TOKEN and no state change.
func (s *AdjustmentService) VerifyApprovalToken(ctx context.Context, requestID, token string) (*repository.AdjustmentRequest, error) {
	record, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if err := checkToken(record, token); err != nil {
		return nil, err
	}

	return record, nil
}

// ReviewByToken resolves a request through a single-use approval link. The
// acting approver is identified by email from the link.
func (s *AdjustmentService) ReviewByToken(ctx context.Context, requestID, token, approverEmail string, decision ReviewDecision, notes *string) error {
	if approverEmail == "" {
		return errors.InvalidInput("approver_email", "is required")
	}

	record, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return err
	}

	if err := checkToken(record, token); err != nil {
		return err
	}

	return s.review(ctx, record, approverEmail, decision, notes)
}

// Get returns a request by ID.
func (s *AdjustmentService) Get(ctx context.Context, id string) (*repository.AdjustmentRequest, error) {
	return s.requests.GetByID(ctx, id)
}

// List returns requests filtered by status and/or item with paging.
func (s *AdjustmentService) List(ctx context.Context, status, itemID *string, page, pageSize int) ([]*repository.AdjustmentRequest, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 50
	}
	return s.requests.List(ctx, status, itemID, pageSize, (page-1)*pageSize)
}

// ── Internals ────────────────────────────────────────────────────────────────

func (s *AdjustmentService) review(ctx context.Context, record *repository.AdjustmentRequest, actorID string, decision ReviewDecision, notes *string) error {
	if decision != DecisionApproved && decision != DecisionRejected {
		return errors.InvalidInput("decision", "must be 'approved' or 'rejected'")
	}
	if record.Status != repository.StatusPending {
		return errors.Newf(errors.ErrCodeAlreadyResolved,
			"adjustment request %s is already %s", record.ID, record.Status)
	}
	if actorID == record.RequesterID {
		return errors.New(errors.ErrCodeUnauthorized, "requester cannot review their own request")
	}
	if decision == DecisionRejected && (notes == nil || *notes == "") {
		return errors.InvalidInput("notes", "rejection requires reviewer notes")
	}

	if decision == DecisionRejected {
		if err := s.requests.Resolve(ctx, record.ID, string(decision), actorID, notes); err != nil {
			return err
		}
		s.log.Info().
			Str("request_id", record.ID).
			Str("reviewer_id", actorID).
			Msg("Adjustment request rejected")
		s.notify("adjustment_rejected", record, actorID, map[string]interface{}{
			"reviewer_id": actorID,
		})
		return nil
	}

	// Resolve first so a concurrent reviewer loses the race before any
	// stock moves; the decrease below then applies exactly once.
	if err := s.requests.Resolve(ctx, record.ID, string(DecisionApproved), actorID, notes); err != nil {
		return err
	}

	note := fmt.Sprintf("adjustment request %s approved: %s", record.ID, record.Notes)
	_, err := s.inventory.AdjustQuantity(ctx, repository.AdjustParams{
		ItemID:     record.ItemID,
		BatchID:    record.BatchID,
		Delta:      -record.Quantity,
		ChangeType: record.Reason.ChangeType(),
		ActorID:    actorID,
		Notes:      &note,
	})
	if err != nil {
		diagnostic := fmt.Sprintf("approval reversed: stock mutation failed: %v", err)
		if markErr := s.requests.MarkRejectedAfterFailure(ctx, record.ID, actorID, diagnostic); markErr != nil {
			s.log.Error().Err(markErr).
				Str("request_id", record.ID).
				Msg("Failed to mark request rejected after mutation failure")
		}

		s.log.Error().Err(err).
			Str("request_id", record.ID).
			Str("reviewer_id", actorID).
			Msg("Adjustment decrease failed; request marked rejected")

		s.notify("adjustment_rejected", record, actorID, map[string]interface{}{
			"diagnostic": diagnostic,
		})

		return err
	}

	s.log.Info().
		Str("request_id", record.ID).
		Str("reviewer_id", actorID).
		Msg("Adjustment request approved and stock decreased")

	s.notify("adjustment_approved", record, actorID, map[string]interface{}{
		"reviewer_id": actorID,
	})

	return nil
}

func (s *AdjustmentService) notify(eventType string, record *repository.AdjustmentRequest, actorID string, payload map[string]interface{}) {
	if s.notifier == nil {
		return
	}

	role := ""
	if record.ApproverRole != nil {
		role = *record.ApproverRole
	}

	s.notifier.Publish(&client.NotificationEvent{
		EventType:    eventType,
		ActorID:      actorID,
		Recipients:   record.ApproverEmails,
		ApproverRole: role,
		ResourceType: "adjustment_request",
		ResourceID:   record.ID,
		Severity:     "info",
		Payload:      payload,
	})
}

// checkToken validates a link token: present, unexpired, exact match.
// Comparison is constant-time; the error never says which check failed.
func checkToken(record *repository.AdjustmentRequest, token string) error {
	if record.ApprovalToken == nil || record.TokenExpiresAt == nil || token == "" {
		return errors.New(errors.ErrCodeTokenInvalid, "invalid or expired approval token")
	}
	if !time.Now().Before(*record.TokenExpiresAt) {
		return errors.New(errors.ErrCodeTokenInvalid, "invalid or expired approval token")
	}
	if subtle.ConstantTimeCompare([]byte(*record.ApprovalToken), []byte(token)) != 1 {
		return errors.New(errors.ErrCodeTokenInvalid, "invalid or expired approval token")
	}
	return nil
}

func newApprovalToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
