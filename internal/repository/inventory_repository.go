package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/suryasblaze/be-stock-recon/internal/database"
	"github.com/suryasblaze/be-stock-recon/internal/errors"
)

// InventoryRepository owns items, batches and the append-only inventory log.
// Every mutation runs as a single transaction: the quantity write and its log
// entry commit together or not at all. Quantity rows are locked FOR UPDATE so
// two concurrent decreases cannot both pass the zero-balance check.
type InventoryRepository struct {
	db *database.DB
}

// NewInventoryRepository creates a new InventoryRepository.
func NewInventoryRepository(db *database.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

// AdjustParams describes a single quantity mutation.
type AdjustParams struct {
	ItemID     string
	BatchID    *string // required for batch-tracked items
	Delta      int     // signed
	ChangeType ChangeType
	ActorID    string
	Notes      *string
}

// StockInParams describes an increase applied outside the PO receiving path
// (urgent purchase fan-out). A batch is created or reused when the item is
// batch-tracked.
type StockInParams struct {
	ItemID      string
	Quantity    int
	BatchNumber *string
	ExpiryDate  *string
	ActorID     string
	Notes       *string
}

// ReceiveParams describes goods received against a purchase-order line.
type ReceiveParams struct {
	LineID        string
	Quantity      int
	BatchNumber   *string
	ExpiryDate    *string
	PurchasePrice *int64 // cents; falls back to the PO line unit price
	ReceiverID    string
}

// ── Reads ────────────────────────────────────────────────────────────────────

// GetItem retrieves an item. For batch-tracked items QuantityOnHand is the
// live sum of batch quantities.
func (r *InventoryRepository) GetItem(ctx context.Context, id string) (*InventoryItem, error) {
	query := `
		SELECT i.id, i.name, i.code, i.category,
		       CASE WHEN i.is_batched
		            THEN COALESCE((SELECT SUM(b.quantity_on_hand) FROM inventory_batches b WHERE b.item_id = i.id), 0)
		            ELSE i.quantity_on_hand
		       END,
		       i.low_stock_threshold, i.is_batched, i.maintenance_days,
		       i.created_at, i.updated_at
		FROM inventory_items i
		WHERE i.id = $1
	`

	item := &InventoryItem{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&item.ID,
		&item.Name,
		&item.Code,
		&item.Category,
		&item.QuantityOnHand,
		&item.LowStockThreshold,
		&item.IsBatched,
		&item.MaintenanceDays,
		&item.CreatedAt,
		&item.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("inventory item", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get inventory item")
	}

	return item, nil
}

// GetBatch retrieves a batch by ID.
func (r *InventoryRepository) GetBatch(ctx context.Context, id string) (*InventoryBatch, error) {
	query := `
		SELECT id, item_id, batch_number, expiry_date, quantity_on_hand,
		       purchase_price, received_date, purchase_order_line_id,
		       created_at, updated_at
		FROM inventory_batches
		WHERE id = $1
	`

	batch := &InventoryBatch{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&batch.ID,
		&batch.ItemID,
		&batch.BatchNumber,
		&batch.ExpiryDate,
		&batch.QuantityOnHand,
		&batch.PurchasePrice,
		&batch.ReceivedDate,
		&batch.PurchaseOrderLineID,
		&batch.CreatedAt,
		&batch.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("inventory batch", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get inventory batch")
	}

	return batch, nil
}

// ListCatalog returns the slim catalog used by the fuzzy matcher.
func (r *InventoryRepository) ListCatalog(ctx context.Context) ([]*CatalogEntry, error) {
	query := `SELECT id, name, code FROM inventory_items ORDER BY name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list catalog")
	}
	defer rows.Close()

	entries := make([]*CatalogEntry, 0)
	for rows.Next() {
		entry := &CatalogEntry{}
		if err := rows.Scan(&entry.ID, &entry.Name, &entry.Code); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan catalog entry")
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// GetLogEntries returns the audit trail for an item, newest first.
func (r *InventoryRepository) GetLogEntries(ctx context.Context, itemID string, limit int) ([]*InventoryLogEntry, error) {
	query := `
		SELECT id, item_id, batch_id, quantity_change, change_type,
		       actor_id, notes, created_at
		FROM inventory_logs
		WHERE item_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, itemID, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get inventory log")
	}
	defer rows.Close()

	entries := make([]*InventoryLogEntry, 0)
	for rows.Next() {
		entry := &InventoryLogEntry{}
		err := rows.Scan(
			&entry.ID,
			&entry.ItemID,
			&entry.BatchID,
			&entry.QuantityChange,
			&entry.ChangeType,
			&entry.ActorID,
			&entry.Notes,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan inventory log entry")
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// ── Mutations ────────────────────────────────────────────────────────────────

// AdjustQuantity applies a signed delta to an item's scalar quantity or to a
// specific batch, and appends the log entry in the same transaction. A delta
// that would drive the balance negative fails with INSUFFICIENT_STOCK and
// changes nothing.
func (r *InventoryRepository) AdjustQuantity(ctx context.Context, p AdjustParams) (*InventoryLogEntry, error) {
	entry := &InventoryLogEntry{
		ItemID:         p.ItemID,
		BatchID:        p.BatchID,
		QuantityChange: p.Delta,
		ChangeType:     p.ChangeType,
		ActorID:        p.ActorID,
		Notes:          p.Notes,
	}

	err := r.db.InTransaction(ctx, func(tx pgx.Tx) error {
		if p.BatchID != nil {
			if err := adjustBatchTx(ctx, tx, p.ItemID, *p.BatchID, p.Delta); err != nil {
				return err
			}
		} else {
			if err := adjustItemTx(ctx, tx, p.ItemID, p.Delta); err != nil {
				return err
			}
		}
		return appendLogTx(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// StockIn increases stock for an item, creating or reusing a batch when the
// item is batch-tracked. Batch upsert, quantity write and log entry commit as
// one transaction.
func (r *InventoryRepository) StockIn(ctx context.Context, p StockInParams) (*InventoryLogEntry, error) {
	if p.Quantity <= 0 {
		return nil, errors.InvalidInput("quantity", "must be positive")
	}

	entry := &InventoryLogEntry{
		ItemID:         p.ItemID,
		QuantityChange: p.Quantity,
		ActorID:        p.ActorID,
		Notes:          p.Notes,
	}

	err := r.db.InTransaction(ctx, func(tx pgx.Tx) error {
		isBatched, err := lockItemTx(ctx, tx, p.ItemID)
		if err != nil {
			return err
		}

		if isBatched {
			batchID, err := upsertBatchTx(ctx, tx, batchUpsert{
				itemID:      p.ItemID,
				batchNumber: p.BatchNumber,
				expiryDate:  p.ExpiryDate,
				quantity:    p.Quantity,
			})
			if err != nil {
				return err
			}
			entry.BatchID = &batchID
			entry.ChangeType = ChangeTypeBatchStockIn
		} else {
			if err := adjustItemLockedTx(ctx, tx, p.ItemID, p.Quantity); err != nil {
				return err
			}
			entry.ChangeType = ChangeTypeAdd
		}

		return appendLogTx(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// ReceiveBatch receives goods against a purchase-order line: batch upsert (or
// scalar increase for untracked items), log entry and the PO line's
// received-quantity counter all commit in one transaction.
func (r *InventoryRepository) ReceiveBatch(ctx context.Context, p ReceiveParams) (batchID string, entry *InventoryLogEntry, err error) {
	if p.Quantity <= 0 {
		return "", nil, errors.InvalidInput("quantity", "must be positive")
	}

	err = r.db.InTransaction(ctx, func(tx pgx.Tx) error {
		// Lock the PO line so concurrent receipts serialize on the counter.
		line := &PurchaseOrderLine{}
		lineQuery := `
			SELECT id, purchase_order_id, item_id, quantity, received_quantity, unit_price
			FROM purchase_order_lines
			WHERE id = $1
			FOR UPDATE
		`
		scanErr := tx.QueryRow(ctx, lineQuery, p.LineID).Scan(
			&line.ID, &line.PurchaseOrderID, &line.ItemID,
			&line.Quantity, &line.ReceivedQuantity, &line.UnitPrice,
		)
		if scanErr == pgx.ErrNoRows {
			return errors.NotFound("purchase order line", p.LineID)
		}
		if scanErr != nil {
			return errors.Wrap(scanErr, errors.ErrCodeInternal, "failed to lock purchase order line")
		}

		price := line.UnitPrice
		if p.PurchasePrice != nil {
			price = *p.PurchasePrice
		}

		isBatched, lockErr := lockItemTx(ctx, tx, line.ItemID)
		if lockErr != nil {
			return lockErr
		}

		entry = &InventoryLogEntry{
			ItemID:         line.ItemID,
			QuantityChange: p.Quantity,
			ActorID:        p.ReceiverID,
		}

		if isBatched {
			id, upErr := upsertBatchTx(ctx, tx, batchUpsert{
				itemID:        line.ItemID,
				batchNumber:   p.BatchNumber,
				expiryDate:    p.ExpiryDate,
				quantity:      p.Quantity,
				purchasePrice: &price,
				poLineID:      &line.ID,
			})
			if upErr != nil {
				return upErr
			}
			batchID = id
			entry.BatchID = &id
			entry.ChangeType = ChangeTypeBatchStockIn
		} else {
			if adjErr := adjustItemLockedTx(ctx, tx, line.ItemID, p.Quantity); adjErr != nil {
				return adjErr
			}
			entry.ChangeType = ChangeTypeAdd
		}

		note := fmt.Sprintf("received against PO line %s", line.ID)
		entry.Notes = &note

		if logErr := appendLogTx(ctx, tx, entry); logErr != nil {
			return logErr
		}

		counterQuery := `
			UPDATE purchase_order_lines
			SET received_quantity = received_quantity + $2, updated_at = NOW()
			WHERE id = $1
		`
		if _, cntErr := tx.Exec(ctx, counterQuery, line.ID, p.Quantity); cntErr != nil {
			return errors.Wrap(cntErr, errors.ErrCodeInternal, "failed to update received quantity")
		}

		return nil
	})
	if err != nil {
		return "", nil, err
	}

	return batchID, entry, nil
}

// ── Transaction helpers ──────────────────────────────────────────────────────

// lockItemTx locks the item row and returns its is_batched flag.
func lockItemTx(ctx context.Context, tx pgx.Tx, itemID string) (bool, error) {
	var isBatched bool
	err := tx.QueryRow(ctx,
		`SELECT is_batched FROM inventory_items WHERE id = $1 FOR UPDATE`,
		itemID,
	).Scan(&isBatched)

	if err == pgx.ErrNoRows {
		return false, errors.NotFound("inventory item", itemID)
	}
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeInternal, "failed to lock inventory item")
	}
	return isBatched, nil
}

// adjustItemTx locks a non-batched item and applies the delta.
func adjustItemTx(ctx context.Context, tx pgx.Tx, itemID string, delta int) error {
	var isBatched bool
	var quantity int
	err := tx.QueryRow(ctx,
		`SELECT is_batched, quantity_on_hand FROM inventory_items WHERE id = $1 FOR UPDATE`,
		itemID,
	).Scan(&isBatched, &quantity)

	if err == pgx.ErrNoRows {
		return errors.NotFound("inventory item", itemID)
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to lock inventory item")
	}

	if isBatched {
		return errors.InvalidInput("batch_id", "required for batch-tracked item")
	}
	if quantity+delta < 0 {
		return errors.Newf(errors.ErrCodeInsufficientStock,
			"item %s has %d on hand, cannot apply %d", itemID, quantity, delta)
	}

	_, err = tx.Exec(ctx,
		`UPDATE inventory_items SET quantity_on_hand = quantity_on_hand + $2, updated_at = NOW() WHERE id = $1`,
		itemID, delta,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to update item quantity")
	}
	return nil
}

// adjustItemLockedTx applies a delta to an item row already locked by the caller.
func adjustItemLockedTx(ctx context.Context, tx pgx.Tx, itemID string, delta int) error {
	var quantity int
	err := tx.QueryRow(ctx,
		`SELECT quantity_on_hand FROM inventory_items WHERE id = $1`,
		itemID,
	).Scan(&quantity)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to read item quantity")
	}

	if quantity+delta < 0 {
		return errors.Newf(errors.ErrCodeInsufficientStock,
			"item %s has %d on hand, cannot apply %d", itemID, quantity, delta)
	}

	_, err = tx.Exec(ctx,
		`UPDATE inventory_items SET quantity_on_hand = quantity_on_hand + $2, updated_at = NOW() WHERE id = $1`,
		itemID, delta,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to update item quantity")
	}
	return nil
}

// adjustBatchTx locks a batch, verifies ownership and applies the delta.
// Insufficiency is evaluated against the batch balance, not the item aggregate.
func adjustBatchTx(ctx context.Context, tx pgx.Tx, itemID, batchID string, delta int) error {
	var ownerID string
	var quantity int
	err := tx.QueryRow(ctx,
		`SELECT item_id, quantity_on_hand FROM inventory_batches WHERE id = $1 FOR UPDATE`,
		batchID,
	).Scan(&ownerID, &quantity)

	if err == pgx.ErrNoRows {
		return errors.NotFound("inventory batch", batchID)
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to lock inventory batch")
	}

	if ownerID != itemID {
		return errors.InvalidInput("batch_id", "batch does not belong to the given item")
	}
	if quantity+delta < 0 {
		return errors.Newf(errors.ErrCodeInsufficientStock,
			"batch %s has %d on hand, cannot apply %d", batchID, quantity, delta)
	}

	_, err = tx.Exec(ctx,
		`UPDATE inventory_batches SET quantity_on_hand = quantity_on_hand + $2, updated_at = NOW() WHERE id = $1`,
		batchID, delta,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to update batch quantity")
	}
	return nil
}

type batchUpsert struct {
	itemID        string
	batchNumber   *string
	expiryDate    *string
	quantity      int
	purchasePrice *int64
	poLineID      *string
}

// upsertBatchTx reuses an existing batch with the same (item, batch number)
// or creates a new one, then applies the quantity increase. A nil batch
// number always creates a new batch row.
func upsertBatchTx(ctx context.Context, tx pgx.Tx, u batchUpsert) (string, error) {
	if u.batchNumber != nil {
		var id string
		err := tx.QueryRow(ctx,
			`SELECT id FROM inventory_batches WHERE item_id = $1 AND batch_number = $2 FOR UPDATE`,
			u.itemID, *u.batchNumber,
		).Scan(&id)

		if err == nil {
			_, execErr := tx.Exec(ctx,
				`UPDATE inventory_batches SET quantity_on_hand = quantity_on_hand + $2, updated_at = NOW() WHERE id = $1`,
				id, u.quantity,
			)
			if execErr != nil {
				return "", errors.Wrap(execErr, errors.ErrCodeInternal, "failed to update batch quantity")
			}
			return id, nil
		}
		if err != pgx.ErrNoRows {
			return "", errors.Wrap(err, errors.ErrCodeInternal, "failed to look up batch")
		}
	}

	var price int64
	if u.purchasePrice != nil {
		price = *u.purchasePrice
	}

	var id string
	err := tx.QueryRow(ctx,
		`INSERT INTO inventory_batches
		     (item_id, batch_number, expiry_date, quantity_on_hand,
		      purchase_price, received_date, purchase_order_line_id)
		 VALUES ($1, $2, $3, $4, $5, NOW(), $6)
		 RETURNING id`,
		u.itemID, u.batchNumber, u.expiryDate, u.quantity, price, u.poLineID,
	).Scan(&id)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternal, "failed to create batch")
	}
	return id, nil
}

// appendLogTx writes the audit entry inside the caller's transaction.
func appendLogTx(ctx context.Context, tx pgx.Tx, entry *InventoryLogEntry) error {
	err := tx.QueryRow(ctx,
		`INSERT INTO inventory_logs
		     (item_id, batch_id, quantity_change, change_type, actor_id, notes)
		 VALUES ($1, $2, $3, $4::inventory_change_type, $5, $6)
		 RETURNING id, created_at`,
		entry.ItemID, entry.BatchID, entry.QuantityChange, entry.ChangeType,
		entry.ActorID, entry.Notes,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to write inventory log entry")
	}
	return nil
}
