package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/suryasblaze/be-stock-recon/internal/client"
	"github.com/suryasblaze/be-stock-recon/internal/errors"
	"github.com/suryasblaze/be-stock-recon/internal/repository"
)

// fakeInventory is an in-memory InventoryStore that mirrors the repository's
// contract: non-negative quantities and one log entry per mutation.
type fakeInventory struct {
	items   map[string]*repository.InventoryItem
	batches map[string]*repository.InventoryBatch
	logs    []*repository.InventoryLogEntry

	// failStockIn injects a stock-in failure for the given item IDs.
	failStockIn map[string]bool
}

func newFakeInventory() *fakeInventory {
	return &fakeInventory{
		items:       map[string]*repository.InventoryItem{},
		batches:     map[string]*repository.InventoryBatch{},
		failStockIn: map[string]bool{},
	}
}

func (f *fakeInventory) addItem(id, name string, qty int, batched bool) *repository.InventoryItem {
	item := &repository.InventoryItem{ID: id, Name: name, QuantityOnHand: qty, IsBatched: batched}
	f.items[id] = item
	return item
}

func (f *fakeInventory) addBatch(id, itemID string, qty int) *repository.InventoryBatch {
	batch := &repository.InventoryBatch{ID: id, ItemID: itemID, QuantityOnHand: qty}
	f.batches[id] = batch
	return batch
}

func (f *fakeInventory) GetItem(_ context.Context, id string) (*repository.InventoryItem, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, errors.NotFound("inventory item", id)
	}
	cp := *item
	return &cp, nil
}

func (f *fakeInventory) GetBatch(_ context.Context, id string) (*repository.InventoryBatch, error) {
	batch, ok := f.batches[id]
	if !ok {
		return nil, errors.NotFound("inventory batch", id)
	}
	cp := *batch
	return &cp, nil
}

func (f *fakeInventory) ListCatalog(_ context.Context) ([]*repository.CatalogEntry, error) {
	out := make([]*repository.CatalogEntry, 0, len(f.items))
	for _, item := range f.items {
		out = append(out, &repository.CatalogEntry{ID: item.ID, Name: item.Name, Code: item.Code})
	}
	return out, nil
}

func (f *fakeInventory) GetLogEntries(_ context.Context, itemID string, limit int) ([]*repository.InventoryLogEntry, error) {
	out := []*repository.InventoryLogEntry{}
	for _, e := range f.logs {
		if e.ItemID == itemID {
			out = append(out, e)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeInventory) AdjustQuantity(_ context.Context, p repository.AdjustParams) (*repository.InventoryLogEntry, error) {
	item, ok := f.items[p.ItemID]
	if !ok {
		return nil, errors.NotFound("inventory item", p.ItemID)
	}

	if item.IsBatched {
		if p.BatchID == nil {
			return nil, errors.InvalidInput("batch_id", "required for batch-tracked item")
		}
		batch, ok := f.batches[*p.BatchID]
		if !ok {
			return nil, errors.NotFound("inventory batch", *p.BatchID)
		}
		if batch.QuantityOnHand+p.Delta < 0 {
			return nil, errors.Newf(errors.ErrCodeInsufficientStock,
				"insufficient stock: batch has %d, requested %d", batch.QuantityOnHand, -p.Delta)
		}
		batch.QuantityOnHand += p.Delta
	} else {
		if item.QuantityOnHand+p.Delta < 0 {
			return nil, errors.Newf(errors.ErrCodeInsufficientStock,
				"insufficient stock: item has %d, requested %d", item.QuantityOnHand, -p.Delta)
		}
		item.QuantityOnHand += p.Delta
	}

	entry := f.appendLog(p.ItemID, p.BatchID, p.Delta, p.ChangeType, p.ActorID, p.Notes)
	return entry, nil
}

func (f *fakeInventory) StockIn(_ context.Context, p repository.StockInParams) (*repository.InventoryLogEntry, error) {
	if f.failStockIn[p.ItemID] {
		return nil, errors.New(errors.ErrCodeInternal, "injected stock-in failure")
	}
	item, ok := f.items[p.ItemID]
	if !ok {
		return nil, errors.NotFound("inventory item", p.ItemID)
	}

	if !item.IsBatched {
		item.QuantityOnHand += p.Quantity
		return f.appendLog(p.ItemID, nil, p.Quantity, repository.ChangeTypeAdd, p.ActorID, p.Notes), nil
	}

	// Same contract as the repository upsert: an existing (item, batch
	// number) pair is reused, a nil batch number always creates a new row.
	var batch *repository.InventoryBatch
	if p.BatchNumber != nil {
		for _, b := range f.batches {
			if b.ItemID == p.ItemID && b.BatchNumber != nil && *b.BatchNumber == *p.BatchNumber {
				batch = b
				break
			}
		}
	}
	if batch == nil {
		batch = &repository.InventoryBatch{
			ID:          "batch-" + strconv.Itoa(len(f.batches)+1),
			ItemID:      p.ItemID,
			BatchNumber: p.BatchNumber,
		}
		f.batches[batch.ID] = batch
	}
	batch.QuantityOnHand += p.Quantity
	item.QuantityOnHand += p.Quantity

	entry := f.appendLog(p.ItemID, &batch.ID, p.Quantity, repository.ChangeTypeBatchStockIn, p.ActorID, p.Notes)
	return entry, nil
}

func (f *fakeInventory) ReceiveBatch(_ context.Context, p repository.ReceiveParams) (string, *repository.InventoryLogEntry, error) {
	return "", nil, errors.New(errors.ErrCodeInternal, "not implemented in fake")
}

func (f *fakeInventory) appendLog(itemID string, batchID *string, delta int, ct repository.ChangeType, actorID string, notes *string) *repository.InventoryLogEntry {
	entry := &repository.InventoryLogEntry{
		ID:             "log-" + strconv.Itoa(len(f.logs)+1),
		ItemID:         itemID,
		BatchID:        batchID,
		QuantityChange: delta,
		ChangeType:     ct,
		ActorID:        actorID,
		Notes:          notes,
		CreatedAt:      time.Now(),
	}
	f.logs = append(f.logs, entry)
	return entry
}

// fakeAdjustmentStore keeps requests in memory with the repository's
// conditional-update semantics for Resolve.
type fakeAdjustmentStore struct {
	requests map[string]*repository.AdjustmentRequest
	seq      int
}

func newFakeAdjustmentStore() *fakeAdjustmentStore {
	return &fakeAdjustmentStore{requests: map[string]*repository.AdjustmentRequest{}}
}

func (f *fakeAdjustmentStore) Create(_ context.Context, req *repository.AdjustmentRequest) error {
	f.seq++
	req.ID = fmt.Sprintf("adj-%d", f.seq)
	req.CreatedAt = time.Now()
	cp := *req
	f.requests[req.ID] = &cp
	return nil
}

func (f *fakeAdjustmentStore) GetByID(_ context.Context, id string) (*repository.AdjustmentRequest, error) {
	req, ok := f.requests[id]
	if !ok {
		return nil, errors.NotFound("adjustment request", id)
	}
	cp := *req
	return &cp, nil
}

func (f *fakeAdjustmentStore) Resolve(_ context.Context, id, status, reviewerID string, notes *string) error {
	req, ok := f.requests[id]
	if !ok {
		return errors.NotFound("adjustment request", id)
	}
	if req.Status != repository.StatusPending {
		return errors.Newf(errors.ErrCodeAlreadyResolved,
			"adjustment request %s is already %s", id, req.Status)
	}
	now := time.Now()
	req.Status = status
	req.ReviewerID = &reviewerID
	req.ReviewerNotes = notes
	req.ReviewedAt = &now
	req.ApprovalToken = nil
	req.TokenExpiresAt = nil
	return nil
}

func (f *fakeAdjustmentStore) MarkRejectedAfterFailure(_ context.Context, id, reviewerID string, notes string) error {
	req, ok := f.requests[id]
	if !ok {
		return errors.NotFound("adjustment request", id)
	}
	now := time.Now()
	req.Status = repository.StatusRejected
	req.ReviewerID = &reviewerID
	req.ReviewerNotes = &notes
	req.ReviewedAt = &now
	req.ApprovalToken = nil
	req.TokenExpiresAt = nil
	return nil
}

func (f *fakeAdjustmentStore) List(_ context.Context, status, itemID *string, limit, offset int) ([]*repository.AdjustmentRequest, int64, error) {
	out := []*repository.AdjustmentRequest{}
	for _, req := range f.requests {
		if status != nil && req.Status != *status {
			continue
		}
		if itemID != nil && req.ItemID != *itemID {
			continue
		}
		cp := *req
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

// fakeUrgentStore keeps urgent purchase entries in memory.
type fakeUrgentStore struct {
	entries map[string]*repository.UrgentPurchaseEntry
	seq     int
}

func newFakeUrgentStore() *fakeUrgentStore {
	return &fakeUrgentStore{entries: map[string]*repository.UrgentPurchaseEntry{}}
}

func (f *fakeUrgentStore) Create(_ context.Context, entry *repository.UrgentPurchaseEntry) error {
	f.seq++
	entry.ID = fmt.Sprintf("up-%d", f.seq)
	entry.RequestedAt = time.Now()
	cp := *entry
	f.entries[entry.ID] = &cp
	return nil
}

func (f *fakeUrgentStore) GetByID(_ context.Context, id string) (*repository.UrgentPurchaseEntry, error) {
	entry, ok := f.entries[id]
	if !ok {
		return nil, errors.NotFound("urgent purchase entry", id)
	}
	cp := *entry
	return &cp, nil
}

func (f *fakeUrgentStore) ReplaceLines(_ context.Context, entryID string, lines []*repository.UrgentPurchaseLine) error {
	entry, ok := f.entries[entryID]
	if !ok {
		return errors.NotFound("urgent purchase entry", entryID)
	}
	if entry.Status != repository.StatusDraft {
		return errors.Newf(errors.ErrCodeConflict, "entry is %s, drafts only", entry.Status)
	}
	entry.Lines = lines
	return nil
}

func (f *fakeUrgentStore) UpdateStatus(_ context.Context, id, from, to string) error {
	entry, ok := f.entries[id]
	if !ok {
		return errors.NotFound("urgent purchase entry", id)
	}
	if entry.Status != from {
		return errors.Newf(errors.ErrCodeAlreadyResolved,
			"urgent purchase entry %s is %s, not %s", id, entry.Status, from)
	}
	entry.Status = to
	return nil
}

func (f *fakeUrgentStore) Resolve(_ context.Context, id, status, reviewerID string, notes *string) error {
	entry, ok := f.entries[id]
	if !ok {
		return errors.NotFound("urgent purchase entry", id)
	}
	if entry.Status != repository.StatusPendingApproval {
		return errors.Newf(errors.ErrCodeAlreadyResolved,
			"urgent purchase entry %s is %s, not pending approval", id, entry.Status)
	}
	now := time.Now()
	entry.Status = status
	entry.ReviewerID = &reviewerID
	entry.ReviewerNotes = notes
	entry.ReviewedAt = &now
	return nil
}

func (f *fakeUrgentStore) MarkRejectedAfterFailure(_ context.Context, id, reviewerID string, notes string) error {
	entry, ok := f.entries[id]
	if !ok {
		return errors.NotFound("urgent purchase entry", id)
	}
	now := time.Now()
	entry.Status = repository.StatusRejected
	entry.ReviewerID = &reviewerID
	entry.ReviewerNotes = &notes
	entry.ReviewedAt = &now
	return nil
}

func (f *fakeUrgentStore) List(_ context.Context, status *string, limit, offset int) ([]*repository.UrgentPurchaseEntry, int64, error) {
	out := []*repository.UrgentPurchaseEntry{}
	for _, entry := range f.entries {
		if status != nil && entry.Status != *status {
			continue
		}
		cp := *entry
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

// fakeStockTakeStore keeps count records in memory.
type fakeStockTakeStore struct {
	records map[string]*repository.StockTakeRecord
	seq     int
}

func newFakeStockTakeStore() *fakeStockTakeStore {
	return &fakeStockTakeStore{records: map[string]*repository.StockTakeRecord{}}
}

func (f *fakeStockTakeStore) Create(_ context.Context, rec *repository.StockTakeRecord) error {
	f.seq++
	rec.ID = fmt.Sprintf("st-%d", f.seq)
	rec.CreatedAt = time.Now()
	cp := *rec
	f.records[rec.ID] = &cp
	return nil
}

func (f *fakeStockTakeStore) GetByID(_ context.Context, id string) (*repository.StockTakeRecord, error) {
	rec, ok := f.records[id]
	if !ok {
		return nil, errors.NotFound("stock take", id)
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeStockTakeStore) MarkResolved(_ context.Context, id string) error {
	rec, ok := f.records[id]
	if !ok {
		return errors.NotFound("stock take", id)
	}
	if rec.IsVarianceResolved {
		return errors.Newf(errors.ErrCodeAlreadyResolved, "stock take %s is already resolved", id)
	}
	rec.IsVarianceResolved = true
	return nil
}

func (f *fakeStockTakeStore) List(_ context.Context, unresolvedOnly bool, limit, offset int) ([]*repository.StockTakeRecord, int64, error) {
	out := []*repository.StockTakeRecord{}
	for _, rec := range f.records {
		if unresolvedOnly && rec.IsVarianceResolved {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

// fakeNotifier records published events.
type fakeNotifier struct {
	events []*client.NotificationEvent
}

func (f *fakeNotifier) Publish(event *client.NotificationEvent) {
	f.events = append(f.events, event)
}

func (f *fakeNotifier) eventTypes() []string {
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.EventType)
	}
	return out
}
