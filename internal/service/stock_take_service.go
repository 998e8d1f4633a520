package service

import (
	"context"

	"github.com/suryasblaze/be-stock-recon/internal/client"
	"github.com/suryasblaze/be-stock-recon/internal/errors"
	"github.com/suryasblaze/be-stock-recon/internal/logger"
	"github.com/suryasblaze/be-stock-recon/internal/repository"
)

// StockTakeStore is the persistence surface for physical count records.
type StockTakeStore interface {
	Create(ctx context.Context, rec *repository.StockTakeRecord) error
	GetByID(ctx context.Context, id string) (*repository.StockTakeRecord, error)
	MarkResolved(ctx context.Context, id string) error
	List(ctx context.Context, unresolvedOnly bool, limit, offset int) ([]*repository.StockTakeRecord, int64, error)
}

// StockTakeService records physical counts and tracks variance resolution.
// A stock take never mutates inventory on its own; correcting a variance is
// a separate adjustment submitted through the approval workflow.
type StockTakeService struct {
	records   StockTakeStore
	inventory InventoryStore
	notifier  Notifier
	log       *logger.Logger
}

// NewStockTakeService creates a new StockTakeService.
func NewStockTakeService(records StockTakeStore, inventory InventoryStore, notifier Notifier, log *logger.Logger) *StockTakeService {
	return &StockTakeService{
		records:   records,
		inventory: inventory,
		notifier:  notifier,
		log:       log,
	}
}

// RecordCountRequest describes one physical count of an item.
type RecordCountRequest struct {
	ItemID          string
	CountedQuantity int
	CounterID       string
	Notes           *string
}

// RecordCount snapshots the system quantity at count time and stores the
// variance (counted − system). Zero-variance counts are stored pre-resolved.
func (s *StockTakeService) RecordCount(ctx context.Context, req RecordCountRequest) (*repository.StockTakeRecord, error) {
	if req.ItemID == "" {
		return nil, errors.InvalidInput("item_id", "is required")
	}
	if req.CounterID == "" {
		return nil, errors.InvalidInput("counter_id", "is required")
	}
	if req.CountedQuantity < 0 {
		return nil, errors.InvalidInput("counted_quantity", "cannot be negative")
	}

	item, err := s.inventory.GetItem(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}

	variance := req.CountedQuantity - item.QuantityOnHand

	rec := &repository.StockTakeRecord{
		ItemID:             item.ID,
		SystemQuantity:     item.QuantityOnHand,
		CountedQuantity:    req.CountedQuantity,
		Variance:           variance,
		CounterID:          req.CounterID,
		Notes:              req.Notes,
		IsVarianceResolved: variance == 0,
	}

	if err := s.records.Create(ctx, rec); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("stock_take_id", rec.ID).
		Str("item_id", item.ID).
		Int("system_quantity", rec.SystemQuantity).
		Int("counted_quantity", rec.CountedQuantity).
		Int("variance", variance).
		Msg("Stock take recorded")

	if variance != 0 && s.notifier != nil {
		s.notifier.Publish(&client.NotificationEvent{
			EventType:    "stock_take_variance",
			ActorID:      req.CounterID,
			ApproverRole: "inventory_manager",
			ResourceType: "stock_take",
			ResourceID:   rec.ID,
			Severity:     "warning",
			Payload: map[string]interface{}{
				"item_id":   item.ID,
				"item_name": item.Name,
				"variance":  variance,
			},
		})
	}

	return rec, nil
}

// ResolveVariance marks a variance as handled. The caller is expected to
// have submitted a corrective adjustment first; this only closes the record.
func (s *StockTakeService) ResolveVariance(ctx context.Context, id, actorID string) error {
	if actorID == "" {
		return errors.InvalidInput("actor_id", "is required")
	}

	if err := s.records.MarkResolved(ctx, id); err != nil {
		return err
	}

	s.log.Info().
		Str("stock_take_id", id).
		Str("resolved_by", actorID).
		Msg("Stock take variance resolved")

	return nil
}

// Get returns a single stock take record.
func (s *StockTakeService) Get(ctx context.Context, id string) (*repository.StockTakeRecord, error) {
	return s.records.GetByID(ctx, id)
}

// List returns stock take records, optionally only unresolved variances.
func (s *StockTakeService) List(ctx context.Context, unresolvedOnly bool, page, pageSize int) ([]*repository.StockTakeRecord, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 50
	}
	return s.records.List(ctx, unresolvedOnly, pageSize, (page-1)*pageSize)
}
