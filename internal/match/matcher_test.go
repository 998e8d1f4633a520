package match

import (
	"testing"

	"github.com/suryasblaze/be-stock-recon/internal/repository"
)

func strPtr(s string) *string { return &s }

func testCatalog() []*repository.CatalogEntry {
	return []*repository.CatalogEntry{
		{ID: "amox", Name: "Amoxicillin 500mg Capsules", Code: strPtr("AMX-500")},
		{ID: "para", Name: "Paracetamol 500mg Tablets"},
		{ID: "syr", Name: "Syringe 5ml", Code: strPtr("SYR-5")},
		{ID: "glove", Name: "Nitrile Gloves Medium"},
	}
}

func TestMatch_ExactNameIsTopCandidateWithCappedConfidence(t *testing.T) {
	m := New()
	res := m.Match("Amoxicillin 500mg Capsules", testCatalog())

	if !res.Matched {
		t.Fatalf("expected a match, got %+v", res)
	}
	if res.ItemID != "amox" {
		t.Fatalf("expected item amox, got %s", res.ItemID)
	}
	if res.Score != 0 {
		t.Fatalf("expected score 0 for an identical name, got %f", res.Score)
	}
	if res.Confidence != 0.98 {
		t.Fatalf("expected confidence capped at 0.98, got %f", res.Confidence)
	}
}

func TestMatch_CaseAndWhitespaceInsensitive(t *testing.T) {
	m := New()
	res := m.Match("  amoxicillin   500MG  capsules ", testCatalog())

	if !res.Matched || res.ItemID != "amox" {
		t.Fatalf("expected amox match, got %+v", res)
	}
	if res.Score != 0 {
		t.Fatalf("expected score 0 after normalization, got %f", res.Score)
	}
}

func TestMatch_UsesItemCode(t *testing.T) {
	m := New()
	res := m.Match("SYR-5", testCatalog())

	if !res.Matched || res.ItemID != "syr" {
		t.Fatalf("expected code match on syr, got %+v", res)
	}
	if res.Score != 0 {
		t.Fatalf("expected score 0 for exact code, got %f", res.Score)
	}
}

func TestMatch_NearMissStillMatches(t *testing.T) {
	m := New()
	// OCR typo: dropped letter and wrong case.
	res := m.Match("Amoxicilin 500mg Capsules", testCatalog())

	if !res.Matched || res.ItemID != "amox" {
		t.Fatalf("expected amox match for near-miss, got %+v", res)
	}
	if res.Score <= 0 || res.Score > 0.2 {
		t.Fatalf("expected a small positive score, got %f", res.Score)
	}
	if res.Confidence >= 0.98 {
		t.Fatalf("near-miss must not report capped confidence, got %f", res.Confidence)
	}
}

func TestMatch_UnrelatedDescriptionDoesNotMatch(t *testing.T) {
	m := New()
	res := m.Match("Office chair, ergonomic", testCatalog())

	if res.Matched {
		t.Fatalf("expected no match, got %+v", res)
	}
	if len(res.Candidates) == 0 {
		t.Fatal("expected ranked candidates even without a match")
	}
}

func TestMatch_EmptyInputs(t *testing.T) {
	m := New()

	if res := m.Match("", testCatalog()); res.Matched {
		t.Fatalf("empty description must not match: %+v", res)
	}
	if res := m.Match("Amoxicillin", nil); res.Matched {
		t.Fatalf("empty catalog must not match: %+v", res)
	}
}

func TestMatch_CandidatesRankedAndBounded(t *testing.T) {
	m := &Matcher{MaxScore: 0.6, MaxCandidates: 2}
	res := m.Match("Paracetamol 500mg Tablets", testCatalog())

	if len(res.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(res.Candidates))
	}
	if res.Candidates[0].Score > res.Candidates[1].Score {
		t.Fatalf("candidates not ranked: %+v", res.Candidates)
	}
	if res.Candidates[0].ItemID != "para" {
		t.Fatalf("expected para first, got %s", res.Candidates[0].ItemID)
	}
}
