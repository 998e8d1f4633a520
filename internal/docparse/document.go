// Package docparse turns noisy OCR text (or a pre-structured AI extraction
// response) into a normalized ParsedDocument. Parsing is heuristic and never
// hard-fails: malformed input degrades to fewer or no extracted items so the
// caller can fall back to manual entry.
package docparse

import (
	"github.com/shopspring/decimal"

	"github.com/suryasblaze/be-stock-recon/internal/errors"
)

// ParsedDocument is the transient output of document structuring. It is not
// persisted; the client holds it until the user confirms or edits, then the
// confirmed lines become an urgent purchase draft.
type ParsedDocument struct {
	SupplierName string          `json:"supplier_name,omitempty"`
	DocumentDate string          `json:"document_date,omitempty"` // YYYY-MM-DD, empty when unparseable
	TotalAmount  decimal.Decimal `json:"total_amount"`
	RawText      string          `json:"raw_text"`
	Items        []ParsedLineItem `json:"items"`
}

// ParsedLineItem is one candidate line item. Match fields are filled in by
// the catalog matcher and remain advisory until a human confirms them.
type ParsedLineItem struct {
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	BatchNumber string          `json:"batch_number,omitempty"`
	ExpiryDate  string          `json:"expiry_date,omitempty"` // YYYY-MM-DD

	MatchedItemID   string  `json:"matched_item_id,omitempty"`
	MatchedItemName string  `json:"matched_item_name,omitempty"`
	Confidence      float64 `json:"confidence"`
}

// StructuredDocument is the response shape of the external AI extraction
// service, accepted as an alternative input to raw OCR text.
type StructuredDocument struct {
	Supplier string           `json:"supplier"`
	Date     string           `json:"date"`
	Total    string           `json:"total"`
	Items    []StructuredItem `json:"items"`
}

// StructuredItem is one line item from the AI extraction response.
type StructuredItem struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   string  `json:"unit_price"`
	BatchNumber string  `json:"batch_number"`
	Expiry      string  `json:"expiry"`
}

// LineEdit describes a user edit to one parsed line. Nil fields are left
// untouched; ClearMatch drops the advisory catalog match.
type LineEdit struct {
	Description *string
	Quantity    *int
	BatchNumber *string
	ExpiryDate  *string
	ClearMatch  bool
}

// ApplyMatch returns a copy of doc with the catalog match recorded on the
// line at index i. The input document is never modified.
func ApplyMatch(doc ParsedDocument, i int, itemID, itemName string, confidence float64) (ParsedDocument, error) {
	if i < 0 || i >= len(doc.Items) {
		return doc, errors.InvalidInput("line_index", "out of range")
	}

	out := cloneDocument(doc)
	out.Items[i].MatchedItemID = itemID
	out.Items[i].MatchedItemName = itemName
	out.Items[i].Confidence = confidence
	return out, nil
}

// EditLine returns a copy of doc with the edit applied to the line at index i.
func EditLine(doc ParsedDocument, i int, edit LineEdit) (ParsedDocument, error) {
	if i < 0 || i >= len(doc.Items) {
		return doc, errors.InvalidInput("line_index", "out of range")
	}

	out := cloneDocument(doc)
	line := &out.Items[i]

	if edit.Description != nil {
		line.Description = *edit.Description
	}
	if edit.Quantity != nil {
		if *edit.Quantity <= 0 {
			return doc, errors.InvalidInput("quantity", "must be positive")
		}
		line.Quantity = *edit.Quantity
	}
	if edit.BatchNumber != nil {
		line.BatchNumber = *edit.BatchNumber
	}
	if edit.ExpiryDate != nil {
		normalized, ok := NormalizeDate(*edit.ExpiryDate)
		if !ok && *edit.ExpiryDate != "" {
			return doc, errors.InvalidInput("expiry_date", "unrecognized date format")
		}
		line.ExpiryDate = normalized
	}
	if edit.ClearMatch {
		line.MatchedItemID = ""
		line.MatchedItemName = ""
		line.Confidence = 0
	}

	return out, nil
}

func cloneDocument(doc ParsedDocument) ParsedDocument {
	out := doc
	out.Items = make([]ParsedLineItem, len(doc.Items))
	copy(out.Items, doc.Items)
	return out
}
