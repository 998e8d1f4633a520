package docparse

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestNormalizeDate_DayFirstFormats(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"15/03/2024", "2024-03-15"},
		{"15-03-2024", "2024-03-15"},
		{"15.03.2024", "2024-03-15"},
		{"2024-03-15", "2024-03-15"},
		{"5/3/2024", "2024-03-05"},
		{"March 15, 2024", "2024-03-15"},
		{"15 March 2024", "2024-03-15"},
		{"15 Mar 2024", "2024-03-15"},
	}
	for _, tc := range cases {
		got, ok := NormalizeDate(tc.in)
		if !ok {
			t.Fatalf("NormalizeDate(%q) did not match any format", tc.in)
		}
		if got != tc.expected {
			t.Fatalf("NormalizeDate(%q) expected %s, got %s", tc.in, tc.expected, got)
		}
	}
}

func TestNormalizeDate_MonthYearExpiry(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"12/2025", "2025-12-01"},
		{"12-2025", "2025-12-01"},
		{"Dec 2025", "2025-12-01"},
		{"December 2025", "2025-12-01"},
	}
	for _, tc := range cases {
		got, ok := NormalizeDate(tc.in)
		if !ok {
			t.Fatalf("NormalizeDate(%q) did not match any format", tc.in)
		}
		if got != tc.expected {
			t.Fatalf("NormalizeDate(%q) expected %s, got %s", tc.in, tc.expected, got)
		}
	}
}

func TestNormalizeDate_RejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "not a date", "99/99/9999", "banana 2024 peel"} {
		if got, ok := NormalizeDate(in); ok {
			t.Fatalf("NormalizeDate(%q) unexpectedly matched: %s", in, got)
		}
	}
}

func TestParse_DeliverySlip(t *testing.T) {
	raw := `Supplier: MedSupply Co
Date: 15/03/2024
Amoxicillin 500mg 20 batch AX12 exp 12/2025
Syringe 5ml 100 @ 12.50
Grand Total: 1,250.50`

	doc := Parse(raw)

	if doc.SupplierName != "MedSupply Co" {
		t.Fatalf("expected supplier 'MedSupply Co', got %q", doc.SupplierName)
	}
	if doc.DocumentDate != "2024-03-15" {
		t.Fatalf("expected document date 2024-03-15, got %q", doc.DocumentDate)
	}
	if !doc.TotalAmount.Equal(decimal.RequireFromString("1250.50")) {
		t.Fatalf("expected total 1250.50, got %s", doc.TotalAmount)
	}
	if len(doc.Items) != 2 {
		t.Fatalf("expected 2 line items, got %d: %+v", len(doc.Items), doc.Items)
	}

	first := doc.Items[0]
	if first.Description != "Amoxicillin 500mg" {
		t.Fatalf("expected description 'Amoxicillin 500mg', got %q", first.Description)
	}
	if first.Quantity != 20 {
		t.Fatalf("expected quantity 20, got %d", first.Quantity)
	}
	if first.BatchNumber != "AX12" {
		t.Fatalf("expected batch AX12, got %q", first.BatchNumber)
	}
	if first.ExpiryDate != "2025-12-01" {
		t.Fatalf("expected expiry 2025-12-01, got %q", first.ExpiryDate)
	}

	second := doc.Items[1]
	if second.Description != "Syringe 5ml" {
		t.Fatalf("expected description 'Syringe 5ml', got %q", second.Description)
	}
	if second.Quantity != 100 {
		t.Fatalf("expected quantity 100, got %d", second.Quantity)
	}
	if !second.UnitPrice.Equal(decimal.RequireFromString("12.50")) {
		t.Fatalf("expected unit price 12.50, got %s", second.UnitPrice)
	}
}

func TestParse_KeepsLargestLabeledTotal(t *testing.T) {
	raw := `Sub Total: 900.00
Grand Total: 1,000.00`

	doc := Parse(raw)
	if !doc.TotalAmount.Equal(decimal.RequireFromString("1000")) {
		t.Fatalf("expected total 1000, got %s", doc.TotalAmount)
	}
}

func TestParse_NeverErrorsOnNoise(t *testing.T) {
	cases := []string{
		"",
		"...\n--\n  ",
		"1234\n5678",
		"�� ƒ∂ unreadable scan",
	}
	for _, raw := range cases {
		doc := Parse(raw)
		if len(doc.Items) != 0 {
			t.Fatalf("Parse(%q) expected no items, got %d", raw, len(doc.Items))
		}
	}
}

func TestParse_SkipsDosageNumbers(t *testing.T) {
	doc := Parse("Paracetamol 500 mg 30")
	if len(doc.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(doc.Items))
	}
	if doc.Items[0].Quantity != 30 {
		t.Fatalf("expected quantity 30 (500 reads as dosage), got %d", doc.Items[0].Quantity)
	}
}

func TestFromStructured_NormalizesAndFilters(t *testing.T) {
	in := StructuredDocument{
		Supplier: " MedSupply Co ",
		Date:     "15/03/2024",
		Total:    "1,250.50",
		Items: []StructuredItem{
			{Description: "Amoxicillin 500mg", Quantity: 20, UnitPrice: "4.20", Expiry: "12/2025", BatchNumber: "AX12"},
			{Description: "??", Quantity: 5},
			{Description: "Bandage roll", Quantity: 0},
		},
	}

	doc := FromStructured(in)

	if doc.SupplierName != "MedSupply Co" {
		t.Fatalf("expected trimmed supplier, got %q", doc.SupplierName)
	}
	if doc.DocumentDate != "2024-03-15" {
		t.Fatalf("expected date 2024-03-15, got %q", doc.DocumentDate)
	}
	if len(doc.Items) != 1 {
		t.Fatalf("expected short and zero-quantity items filtered, got %d items", len(doc.Items))
	}
	if doc.Items[0].ExpiryDate != "2025-12-01" {
		t.Fatalf("expected expiry 2025-12-01, got %q", doc.Items[0].ExpiryDate)
	}
	if !doc.Items[0].UnitPrice.Equal(decimal.RequireFromString("4.20")) {
		t.Fatalf("expected unit price 4.20, got %s", doc.Items[0].UnitPrice)
	}
}

func TestApplyMatch_DoesNotMutateInput(t *testing.T) {
	doc := Parse("Amoxicillin 500mg 20")
	if len(doc.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(doc.Items))
	}

	out, err := ApplyMatch(doc, 0, "item-1", "Amoxicillin 500mg Capsules", 0.9)
	if err != nil {
		t.Fatalf("ApplyMatch error: %v", err)
	}

	if doc.Items[0].MatchedItemID != "" {
		t.Fatalf("input document was mutated: %+v", doc.Items[0])
	}
	if out.Items[0].MatchedItemID != "item-1" || out.Items[0].Confidence != 0.9 {
		t.Fatalf("match not applied: %+v", out.Items[0])
	}
}

func TestApplyMatch_IndexOutOfRange(t *testing.T) {
	doc := Parse("Amoxicillin 500mg 20")
	if _, err := ApplyMatch(doc, 5, "item-1", "x", 0.5); err == nil {
		t.Fatal("expected error for out-of-range index")
	}
	if _, err := ApplyMatch(doc, -1, "item-1", "x", 0.5); err == nil {
		t.Fatal("expected error for negative index")
	}
}

func TestEditLine_AppliesAndValidates(t *testing.T) {
	doc := Parse("Amoxicillin 500mg 20")

	qty := 25
	expiry := "12/2025"
	out, err := EditLine(doc, 0, LineEdit{Quantity: &qty, ExpiryDate: &expiry})
	if err != nil {
		t.Fatalf("EditLine error: %v", err)
	}
	if out.Items[0].Quantity != 25 {
		t.Fatalf("expected quantity 25, got %d", out.Items[0].Quantity)
	}
	if out.Items[0].ExpiryDate != "2025-12-01" {
		t.Fatalf("expected normalized expiry, got %q", out.Items[0].ExpiryDate)
	}
	if doc.Items[0].Quantity != 20 {
		t.Fatalf("input document was mutated")
	}

	bad := 0
	if _, err := EditLine(doc, 0, LineEdit{Quantity: &bad}); err == nil {
		t.Fatal("expected error for non-positive quantity")
	}
	garbage := "not a date"
	if _, err := EditLine(doc, 0, LineEdit{ExpiryDate: &garbage}); err == nil {
		t.Fatal("expected error for unparseable expiry")
	}
}

func TestEditLine_ClearMatch(t *testing.T) {
	doc := Parse("Amoxicillin 500mg 20")
	doc, err := ApplyMatch(doc, 0, "item-1", "Amoxicillin", 0.9)
	if err != nil {
		t.Fatalf("ApplyMatch error: %v", err)
	}

	out, err := EditLine(doc, 0, LineEdit{ClearMatch: true})
	if err != nil {
		t.Fatalf("EditLine error: %v", err)
	}
	if out.Items[0].MatchedItemID != "" || out.Items[0].Confidence != 0 {
		t.Fatalf("match not cleared: %+v", out.Items[0])
	}
}
