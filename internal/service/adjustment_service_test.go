package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/suryasblaze/be-stock-recon/internal/errors"
	"github.com/suryasblaze/be-stock-recon/internal/logger"
	"github.com/suryasblaze/be-stock-recon/internal/repository"
)

func newAdjustmentFixture() (*AdjustmentService, *fakeAdjustmentStore, *fakeInventory, *fakeNotifier) {
	store := newFakeAdjustmentStore()
	inv := newFakeInventory()
	notifier := &fakeNotifier{}
	svc := NewAdjustmentService(store, inv, notifier, logger.Nop())
	return svc, store, inv, notifier
}

func submitPending(t *testing.T, svc *AdjustmentService, issueToken bool) *repository.AdjustmentRequest {
	t.Helper()
	record, err := svc.Submit(context.Background(), SubmitAdjustmentRequest{
		ItemID:      "item-1",
		Quantity:    4,
		Reason:      repository.ReasonDamaged,
		Notes:       "dropped during restock",
		RequesterID: "requester-1",
		IssueToken:  issueToken,
	})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	return record
}

func TestSubmit_CreatesPendingRequestAndNotifies(t *testing.T) {
	svc, _, inv, notifier := newAdjustmentFixture()
	inv.addItem("item-1", "Amoxicillin 500mg", 10, false)

	record := submitPending(t, svc, false)

	if record.Status != repository.StatusPending {
		t.Fatalf("expected pending status, got %s", record.Status)
	}
	if record.ApprovalToken != nil {
		t.Fatal("token issued without being requested")
	}
	if len(notifier.events) != 1 || notifier.events[0].EventType != "adjustment_requested" {
		t.Fatalf("expected adjustment_requested event, got %v", notifier.eventTypes())
	}

	// Submission must not touch stock.
	item, _ := inv.GetItem(context.Background(), "item-1")
	if item.QuantityOnHand != 10 {
		t.Fatalf("submission changed stock: %d", item.QuantityOnHand)
	}
}

func TestSubmit_Validation(t *testing.T) {
	svc, _, inv, _ := newAdjustmentFixture()
	inv.addItem("item-1", "Amoxicillin 500mg", 10, false)
	inv.addItem("item-2", "Insulin vials", 0, true)
	inv.addBatch("batch-other", "item-1", 5)

	otherBatch := "batch-other"
	cases := []struct {
		name string
		req  SubmitAdjustmentRequest
		code errors.Code
	}{
		{"missing item", SubmitAdjustmentRequest{Quantity: 1, Reason: repository.ReasonLost, Notes: "n", RequesterID: "r"}, errors.ErrCodeValidation},
		{"zero quantity", SubmitAdjustmentRequest{ItemID: "item-1", Quantity: 0, Reason: repository.ReasonLost, Notes: "n", RequesterID: "r"}, errors.ErrCodeValidation},
		{"unknown reason", SubmitAdjustmentRequest{ItemID: "item-1", Quantity: 1, Reason: "Vibes", Notes: "n", RequesterID: "r"}, errors.ErrCodeValidation},
		{"missing notes", SubmitAdjustmentRequest{ItemID: "item-1", Quantity: 1, Reason: repository.ReasonLost, RequesterID: "r"}, errors.ErrCodeValidation},
		{"nonexistent item", SubmitAdjustmentRequest{ItemID: "ghost", Quantity: 1, Reason: repository.ReasonLost, Notes: "n", RequesterID: "r"}, errors.ErrCodeNotFound},
		{"batched item without batch", SubmitAdjustmentRequest{ItemID: "item-2", Quantity: 1, Reason: repository.ReasonLost, Notes: "n", RequesterID: "r"}, errors.ErrCodeValidation},
		{"batch of another item", SubmitAdjustmentRequest{ItemID: "item-2", BatchID: &otherBatch, Quantity: 1, Reason: repository.ReasonLost, Notes: "n", RequesterID: "r"}, errors.ErrCodeValidation},
	}
	for _, tc := range cases {
		_, err := svc.Submit(context.Background(), tc.req)
		if !errors.HasCode(err, tc.code) {
			t.Fatalf("%s: expected %s, got %v", tc.name, tc.code, err)
		}
	}
}

func TestReview_ApproveAppliesDecrease(t *testing.T) {
	svc, store, inv, notifier := newAdjustmentFixture()
	inv.addItem("item-1", "Amoxicillin 500mg", 10, false)
	record := submitPending(t, svc, false)

	err := svc.Review(context.Background(), record.ID, "reviewer-1", DecisionApproved, nil)
	if err != nil {
		t.Fatalf("Review error: %v", err)
	}

	item, _ := inv.GetItem(context.Background(), "item-1")
	if item.QuantityOnHand != 6 {
		t.Fatalf("expected quantity 6 after approval, got %d", item.QuantityOnHand)
	}
	if len(inv.logs) != 1 {
		t.Fatalf("expected one log entry, got %d", len(inv.logs))
	}
	if inv.logs[0].ChangeType != repository.ChangeTypeDisposeDamaged {
		t.Fatalf("expected dispose_damaged change type, got %s", inv.logs[0].ChangeType)
	}
	if inv.logs[0].QuantityChange != -4 {
		t.Fatalf("expected -4 delta, got %d", inv.logs[0].QuantityChange)
	}

	stored := store.requests[record.ID]
	if stored.Status != repository.StatusApproved {
		t.Fatalf("expected approved status, got %s", stored.Status)
	}

	types := notifier.eventTypes()
	if types[len(types)-1] != "adjustment_approved" {
		t.Fatalf("expected adjustment_approved event, got %v", types)
	}
}

func TestReview_SelfReviewForbidden(t *testing.T) {
	svc, _, inv, _ := newAdjustmentFixture()
	inv.addItem("item-1", "Amoxicillin 500mg", 10, false)
	record := submitPending(t, svc, false)

	err := svc.Review(context.Background(), record.ID, "requester-1", DecisionApproved, nil)
	if !errors.HasCode(err, errors.ErrCodeUnauthorized) {
		t.Fatalf("expected UNAUTHORIZED for self-review, got %v", err)
	}

	item, _ := inv.GetItem(context.Background(), "item-1")
	if item.QuantityOnHand != 10 {
		t.Fatalf("self-review touched stock: %d", item.QuantityOnHand)
	}
}

func TestReview_RejectRequiresNotes(t *testing.T) {
	svc, store, inv, _ := newAdjustmentFixture()
	inv.addItem("item-1", "Amoxicillin 500mg", 10, false)
	record := submitPending(t, svc, false)

	err := svc.Review(context.Background(), record.ID, "reviewer-1", DecisionRejected, nil)
	if !errors.HasCode(err, errors.ErrCodeValidation) {
		t.Fatalf("expected VALIDATION without notes, got %v", err)
	}

	notes := "photo does not show damage"
	if err := svc.Review(context.Background(), record.ID, "reviewer-1", DecisionRejected, &notes); err != nil {
		t.Fatalf("Review reject error: %v", err)
	}

	item, _ := inv.GetItem(context.Background(), "item-1")
	if item.QuantityOnHand != 10 {
		t.Fatalf("rejection changed stock: %d", item.QuantityOnHand)
	}
	if store.requests[record.ID].Status != repository.StatusRejected {
		t.Fatalf("expected rejected status, got %s", store.requests[record.ID].Status)
	}
}

func TestReview_SecondReviewFails(t *testing.T) {
	svc, _, inv, _ := newAdjustmentFixture()
	inv.addItem("item-1", "Amoxicillin 500mg", 10, false)
	record := submitPending(t, svc, false)

	if err := svc.Review(context.Background(), record.ID, "reviewer-1", DecisionApproved, nil); err != nil {
		t.Fatalf("first review error: %v", err)
	}

	err := svc.Review(context.Background(), record.ID, "reviewer-2", DecisionApproved, nil)
	if !errors.HasCode(err, errors.ErrCodeAlreadyResolved) {
		t.Fatalf("expected ALREADY_RESOLVED, got %v", err)
	}

	// The decrease must have been applied exactly once.
	item, _ := inv.GetItem(context.Background(), "item-1")
	if item.QuantityOnHand != 6 {
		t.Fatalf("expected quantity 6 after single approval, got %d", item.QuantityOnHand)
	}
}

// staleReadStore serves reads as if the request were still pending,
// modeling two reviewers who both loaded it before either resolved.
type staleReadStore struct {
	*fakeAdjustmentStore
}

func (s *staleReadStore) GetByID(ctx context.Context, id string) (*repository.AdjustmentRequest, error) {
	req, err := s.fakeAdjustmentStore.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Status = repository.StatusPending
	return req, nil
}

func TestReview_ConcurrentApproversDecreaseOnce(t *testing.T) {
	store := newFakeAdjustmentStore()
	inv := newFakeInventory()
	inv.addItem("item-1", "Amoxicillin 500mg", 10, false)
	svc := NewAdjustmentService(&staleReadStore{store}, inv, &fakeNotifier{}, logger.Nop())

	record := submitPending(t, svc, false)

	if err := svc.Review(context.Background(), record.ID, "reviewer-1", DecisionApproved, nil); err != nil {
		t.Fatalf("first review error: %v", err)
	}

	// The second reviewer read the request before the first resolved it;
	// the conditional resolve must stop them before any stock moves.
	err := svc.Review(context.Background(), record.ID, "reviewer-2", DecisionApproved, nil)
	if !errors.HasCode(err, errors.ErrCodeAlreadyResolved) {
		t.Fatalf("expected ALREADY_RESOLVED for racing reviewer, got %v", err)
	}

	item, _ := inv.GetItem(context.Background(), "item-1")
	if item.QuantityOnHand != 6 {
		t.Fatalf("expected quantity 6 after a single approval, got %d", item.QuantityOnHand)
	}
	if len(inv.logs) != 1 {
		t.Fatalf("expected one log entry, got %d", len(inv.logs))
	}
}

func TestReview_ApproveDecreaseFailureRejectsRequest(t *testing.T) {
	svc, store, inv, notifier := newAdjustmentFixture()
	inv.addItem("item-1", "Amoxicillin 500mg", 2, false)
	record := submitPending(t, svc, false)

	err := svc.Review(context.Background(), record.ID, "reviewer-1", DecisionApproved, nil)
	if !errors.HasCode(err, errors.ErrCodeInsufficientStock) {
		t.Fatalf("expected INSUFFICIENT_STOCK, got %v", err)
	}

	stored := store.requests[record.ID]
	if stored.Status != repository.StatusRejected {
		t.Fatalf("expected rejected status after failed decrease, got %s", stored.Status)
	}
	if stored.ReviewerNotes == nil || !strings.Contains(*stored.ReviewerNotes, "stock mutation failed") {
		t.Fatalf("expected diagnostic reviewer notes, got %v", stored.ReviewerNotes)
	}

	item, _ := inv.GetItem(context.Background(), "item-1")
	if item.QuantityOnHand != 2 {
		t.Fatalf("failed decrease changed stock: %d", item.QuantityOnHand)
	}
	if len(inv.logs) != 0 {
		t.Fatalf("expected no log entries, got %d", len(inv.logs))
	}

	types := notifier.eventTypes()
	if types[len(types)-1] != "adjustment_rejected" {
		t.Fatalf("expected adjustment_rejected event, got %v", types)
	}
}

func TestApprovalToken_Lifecycle(t *testing.T) {
	svc, store, inv, _ := newAdjustmentFixture()
	inv.addItem("item-1", "Amoxicillin 500mg", 10, false)
	record := submitPending(t, svc, true)

	if record.ApprovalToken == nil || record.TokenExpiresAt == nil {
		t.Fatal("expected token and expiry on submission")
	}
	token := *record.ApprovalToken

	if _, err := svc.VerifyApprovalToken(context.Background(), record.ID, token); err != nil {
		t.Fatalf("VerifyApprovalToken error: %v", err)
	}

	if _, err := svc.VerifyApprovalToken(context.Background(), record.ID, "wrong-token"); !errors.HasCode(err, errors.ErrCodeTokenInvalid) {
		t.Fatalf("expected INVALID_OR_EXPIRED_TOKEN for mismatch, got %v", err)
	}

	if err := svc.ReviewByToken(context.Background(), record.ID, token, "approver@clinic.test", DecisionApproved, nil); err != nil {
		t.Fatalf("ReviewByToken error: %v", err)
	}

	item, _ := inv.GetItem(context.Background(), "item-1")
	if item.QuantityOnHand != 6 {
		t.Fatalf("expected quantity 6 after token approval, got %d", item.QuantityOnHand)
	}

	// Resolution consumes the token.
	if store.requests[record.ID].ApprovalToken != nil {
		t.Fatal("token not cleared on resolution")
	}
	if err := svc.ReviewByToken(context.Background(), record.ID, token, "approver@clinic.test", DecisionApproved, nil); !errors.HasCode(err, errors.ErrCodeTokenInvalid) {
		t.Fatalf("expected INVALID_OR_EXPIRED_TOKEN for consumed token, got %v", err)
	}
}

func TestApprovalToken_Expired(t *testing.T) {
	svc, store, inv, _ := newAdjustmentFixture()
	inv.addItem("item-1", "Amoxicillin 500mg", 10, false)
	record := submitPending(t, svc, true)

	past := time.Now().Add(-time.Hour)
	store.requests[record.ID].TokenExpiresAt = &past

	_, err := svc.VerifyApprovalToken(context.Background(), record.ID, *record.ApprovalToken)
	if !errors.HasCode(err, errors.ErrCodeTokenInvalid) {
		t.Fatalf("expected INVALID_OR_EXPIRED_TOKEN for expired token, got %v", err)
	}
}
