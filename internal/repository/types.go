package repository

import "time"

// ── Inventory domain types ───────────────────────────────────────────────────

// ChangeType tags an inventory log entry with the cause of a quantity delta.
type ChangeType string

const (
	ChangeTypeAdd            ChangeType = "add"
	ChangeTypeUse            ChangeType = "use"
	ChangeTypeInitialStock   ChangeType = "initial_stock"
	ChangeTypeAdjustment     ChangeType = "adjustment"
	ChangeTypeBatchStockIn   ChangeType = "batch_stock_in"
	ChangeTypeBatchStockOut  ChangeType = "batch_stock_out"
	ChangeTypeExpired        ChangeType = "expired"
	ChangeTypeDisposeDamaged ChangeType = "dispose_damaged"
	ChangeTypeDisposeLost    ChangeType = "dispose_lost"
	ChangeTypeDisposeOther   ChangeType = "dispose_other"
)

// Valid reports whether ct is a known change type.
func (ct ChangeType) Valid() bool {
	switch ct {
	case ChangeTypeAdd, ChangeTypeUse, ChangeTypeInitialStock, ChangeTypeAdjustment,
		ChangeTypeBatchStockIn, ChangeTypeBatchStockOut, ChangeTypeExpired,
		ChangeTypeDisposeDamaged, ChangeTypeDisposeLost, ChangeTypeDisposeOther:
		return true
	}
	return false
}

// Decreases reports whether the change type removes stock.
func (ct ChangeType) Decreases() bool {
	switch ct {
	case ChangeTypeUse, ChangeTypeAdjustment, ChangeTypeBatchStockOut,
		ChangeTypeExpired, ChangeTypeDisposeDamaged, ChangeTypeDisposeLost,
		ChangeTypeDisposeOther:
		return true
	}
	return false
}

// InventoryItem is a catalog entry. For batch-tracked items QuantityOnHand is
// derived from the sum of batch quantities and is never written directly.
type InventoryItem struct {
	ID                string
	Name              string
	Code              *string
	Category          string
	QuantityOnHand    int
	LowStockThreshold int
	IsBatched         bool
	MaintenanceDays   *int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// LowStock reports whether the item is at or below its threshold.
func (i *InventoryItem) LowStock() bool {
	return i.QuantityOnHand <= i.LowStockThreshold
}

// InventoryBatch is a receipt-tracked sub-quantity of a batch-tracked item.
type InventoryBatch struct {
	ID                  string
	ItemID              string
	BatchNumber         *string
	ExpiryDate          *string // YYYY-MM-DD
	QuantityOnHand      int
	PurchasePrice       int64 // cents at receipt
	ReceivedDate        time.Time
	PurchaseOrderLineID *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// InventoryLogEntry is one immutable audit record. Every successful quantity
// mutation writes exactly one entry in the same transaction.
type InventoryLogEntry struct {
	ID             string
	ItemID         string
	BatchID        *string
	QuantityChange int // signed delta as applied
	ChangeType     ChangeType
	ActorID        string
	Notes          *string
	CreatedAt      time.Time
}

// CatalogEntry is the slim item projection used by the fuzzy matcher.
type CatalogEntry struct {
	ID   string
	Name string
	Code *string
}

// ── Adjustment request workflow ──────────────────────────────────────────────

// AdjustmentReason is the closed set of reasons for a stock decrease request.
type AdjustmentReason string

const (
	ReasonExpired         AdjustmentReason = "Expired"
	ReasonDamaged         AdjustmentReason = "Damaged"
	ReasonLost            AdjustmentReason = "Lost"
	ReasonStockCorrection AdjustmentReason = "Stock Count Correction"
	ReasonUsed            AdjustmentReason = "Used"
	ReasonOther           AdjustmentReason = "Other"
)

// Valid reports whether r is a known reason.
func (r AdjustmentReason) Valid() bool {
	switch r {
	case ReasonExpired, ReasonDamaged, ReasonLost, ReasonStockCorrection, ReasonUsed, ReasonOther:
		return true
	}
	return false
}

// ChangeType maps the reason onto the log change type applied on approval.
func (r AdjustmentReason) ChangeType() ChangeType {
	switch r {
	case ReasonExpired:
		return ChangeTypeExpired
	case ReasonDamaged:
		return ChangeTypeDisposeDamaged
	case ReasonLost:
		return ChangeTypeDisposeLost
	case ReasonUsed:
		return ChangeTypeUse
	default:
		return ChangeTypeAdjustment
	}
}

// Request status values shared by both workflows.
const (
	StatusPending         = "pending"
	StatusDraft           = "draft"
	StatusPendingApproval = "pending_approval"
	StatusApproved        = "approved"
	StatusRejected        = "rejected"
)

// AdjustmentRequest is a decrease-stock request awaiting review.
type AdjustmentRequest struct {
	ID             string
	ItemID         string
	BatchID        *string
	Quantity       int // positive; applied as a negative delta on approval
	Reason         AdjustmentReason
	Notes          string
	PhotoPath      *string
	RequesterID    string
	ApproverRole   *string
	ApproverEmails []string
	ApprovalToken  *string
	TokenExpiresAt *time.Time
	Status         string
	ReviewerID     *string
	ReviewerNotes  *string
	ReviewedAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ── Urgent purchase workflow ─────────────────────────────────────────────────

// UrgentPurchaseEntry is an increase-stock entry created outside the normal
// purchase-order path, typically from a parsed delivery slip.
type UrgentPurchaseEntry struct {
	ID            string
	SlipPath      *string
	OCRConfidence *float64
	ApproverRole  string
	Status        string
	RequesterID   string
	RequestedAt   time.Time
	ReviewerID    *string
	ReviewerNotes *string
	ReviewedAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Lines         []*UrgentPurchaseLine
}

// UrgentPurchaseLine is one matched line of an urgent purchase entry.
// ItemName and SlipText are denormalized for audit: they survive later
// catalog edits.
type UrgentPurchaseLine struct {
	ID          string
	EntryID     string
	ItemID      string
	ItemName    string
	Quantity    int
	BatchNumber *string
	ExpiryDate  *string // YYYY-MM-DD
	SlipText    *string
	CreatedAt   time.Time
}

// ── Stock take ───────────────────────────────────────────────────────────────

// StockTakeRecord captures a physical count against the system quantity.
// Immutable after creation except for the resolution flag.
type StockTakeRecord struct {
	ID                 string
	ItemID             string
	SystemQuantity     int
	CountedQuantity    int
	Variance           int // counted − system
	CounterID          string
	Notes              *string
	IsVarianceResolved bool
	CreatedAt          time.Time
}

// ── Purchase orders (receiving side only) ────────────────────────────────────

// PurchaseOrderLine is the slice of a PO line this service touches when
// receiving goods. Header CRUD lives elsewhere.
type PurchaseOrderLine struct {
	ID               string
	PurchaseOrderID  string
	ItemID           string
	Quantity         int
	ReceivedQuantity int
	UnitPrice        int64 // cents
}
