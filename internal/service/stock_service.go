package service

import (
	"context"

	"github.com/suryasblaze/be-stock-recon/internal/errors"
	"github.com/suryasblaze/be-stock-recon/internal/logger"
	"github.com/suryasblaze/be-stock-recon/internal/repository"
)

// InventoryStore is the persistence surface of the stock mutation engine.
// The repository implementation guarantees that each mutation and its log
// entry commit atomically, with row-level locks serializing concurrent
// changes to the same item or batch.
type InventoryStore interface {
	GetItem(ctx context.Context, id string) (*repository.InventoryItem, error)
	GetBatch(ctx context.Context, id string) (*repository.InventoryBatch, error)
	ListCatalog(ctx context.Context) ([]*repository.CatalogEntry, error)
	GetLogEntries(ctx context.Context, itemID string, limit int) ([]*repository.InventoryLogEntry, error)
	AdjustQuantity(ctx context.Context, p repository.AdjustParams) (*repository.InventoryLogEntry, error)
	StockIn(ctx context.Context, p repository.StockInParams) (*repository.InventoryLogEntry, error)
	ReceiveBatch(ctx context.Context, p repository.ReceiveParams) (string, *repository.InventoryLogEntry, error)
}

// StockService is the stock mutation engine: every inventory quantity change
// in the system flows through it.
type StockService struct {
	inventory InventoryStore
	log       *logger.Logger
}

// NewStockService creates a new StockService.
func NewStockService(inventory InventoryStore, log *logger.Logger) *StockService {
	return &StockService{inventory: inventory, log: log}
}

// AdjustQuantityRequest describes a single quantity mutation.
type AdjustQuantityRequest struct {
	ItemID     string
	BatchID    *string
	Delta      int // signed
	ChangeType repository.ChangeType
	ActorID    string
	Notes      *string
}

// ReceiveLineRequest describes goods received against a purchase-order line.
type ReceiveLineRequest struct {
	LineID        string
	Quantity      int
	BatchNumber   *string
	ExpiryDate    *string
	PurchasePrice *int64
	ReceiverID    string
}

// AdjustQuantity validates and applies a quantity change. Batch-tracked
// items must be addressed through a batch; the delta sign must agree with
// the change type.
func (s *StockService) AdjustQuantity(ctx context.Context, req AdjustQuantityRequest) (*repository.InventoryLogEntry, error) {
	if req.ItemID == "" {
		return nil, errors.InvalidInput("item_id", "is required")
	}
	if req.ActorID == "" {
		return nil, errors.InvalidInput("actor_id", "is required")
	}
	if req.Delta == 0 {
		return nil, errors.InvalidInput("delta", "must be non-zero")
	}
	if !req.ChangeType.Valid() {
		return nil, errors.InvalidInput("change_type", "unknown change type")
	}
	if req.ChangeType.Decreases() && req.Delta > 0 {
		return nil, errors.InvalidInput("delta", "must be negative for a decreasing change type")
	}
	if !req.ChangeType.Decreases() && req.Delta < 0 {
		return nil, errors.InvalidInput("delta", "must be positive for an increasing change type")
	}

	entry, err := s.inventory.AdjustQuantity(ctx, repository.AdjustParams{
		ItemID:     req.ItemID,
		BatchID:    req.BatchID,
		Delta:      req.Delta,
		ChangeType: req.ChangeType,
		ActorID:    req.ActorID,
		Notes:      req.Notes,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("item_id", req.ItemID).
		Int("delta", req.Delta).
		Str("change_type", string(req.ChangeType)).
		Str("actor_id", req.ActorID).
		Msg("Inventory quantity adjusted")

	return entry, nil
}

// ReceiveOrderLine receives goods against a purchase-order line: batch
// upsert, quantity increase, log entry and received-counter update in one
// atomic unit. Returns the batch ID, or "" for untracked items.
func (s *StockService) ReceiveOrderLine(ctx context.Context, req ReceiveLineRequest) (string, error) {
	if req.LineID == "" {
		return "", errors.InvalidInput("line_id", "is required")
	}
	if req.ReceiverID == "" {
		return "", errors.InvalidInput("receiver_id", "is required")
	}
	if req.Quantity <= 0 {
		return "", errors.InvalidInput("quantity", "must be positive")
	}

	batchID, entry, err := s.inventory.ReceiveBatch(ctx, repository.ReceiveParams{
		LineID:        req.LineID,
		Quantity:      req.Quantity,
		BatchNumber:   req.BatchNumber,
		ExpiryDate:    req.ExpiryDate,
		PurchasePrice: req.PurchasePrice,
		ReceiverID:    req.ReceiverID,
	})
	if err != nil {
		return "", err
	}

	s.log.Info().
		Str("po_line_id", req.LineID).
		Str("item_id", entry.ItemID).
		Str("batch_id", batchID).
		Int("quantity", req.Quantity).
		Str("receiver_id", req.ReceiverID).
		Msg("Goods received against purchase order line")

	return batchID, nil
}

// GetItem returns an item with its live quantity (batch sum when batched).
func (s *StockService) GetItem(ctx context.Context, id string) (*repository.InventoryItem, error) {
	return s.inventory.GetItem(ctx, id)
}

// GetInventoryLog returns the recent audit trail for an item.
func (s *StockService) GetInventoryLog(ctx context.Context, itemID string, limit int) ([]*repository.InventoryLogEntry, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}
	return s.inventory.GetLogEntries(ctx, itemID, limit)
}
