package docparse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// minLineLength filters out OCR noise fragments.
const minLineLength = 4

var (
	supplierPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^\s*(?:supplier|vendor|sold\s+by|from)\s*[:\-]\s*(.+)$`),
		regexp.MustCompile(`(?i)^\s*(?:m/s\.?)\s+(.+)$`),
	}

	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:invoice\s+date|date|dated|dt)\s*[:\-.]?\s*([A-Za-z0-9,/\-\. ]+)`),
	}

	totalPattern = regexp.MustCompile(`(?i)\b(?:grand\s+total|total\s+amount|amount\s+due|net\s+total|total)\b[^0-9]*([0-9][0-9,]*(?:\.[0-9]{1,2})?)`)

	batchPattern  = regexp.MustCompile(`(?i)\b(?:batch|lot|b\.?\s?no\.?|b:|l:)\s*[:#\-]?\s*([A-Za-z0-9][A-Za-z0-9\-]*)`)
	expiryPattern = regexp.MustCompile(`(?i)\b(?:exp(?:iry)?\.?|use\s+by|e:)\s*(?:date)?\s*[:\-]?\s*([A-Za-z0-9,/\-\.]+(?:\s+[0-9]{2,4})?)`)

	pricePattern = regexp.MustCompile(`(?:@|₹|\$|rs\.?\s?)?\s*([0-9,]+\.[0-9]{2})\b`)

	// A quantity token is a standalone integer: not glued to a unit suffix,
	// a decimal point or a date-like separator.
	quantityPattern = regexp.MustCompile(`(?:^|\s)(\d+)(?:\s|$)`)

	unitWords = map[string]bool{
		"mg": true, "ml": true, "mcg": true, "g": true, "kg": true,
		"iu": true, "cc": true, "mm": true, "cm": true, "%": true,
	}

	numericOnly = regexp.MustCompile(`^[0-9\s.,\-]+$`)
)

// Parse structures raw OCR text into a ParsedDocument. It never returns an
// error: unusable input yields a document with no items.
func Parse(rawText string) ParsedDocument {
	doc := ParsedDocument{
		RawText:     rawText,
		TotalAmount: decimal.Zero,
		Items:       []ParsedLineItem{},
	}

	lines := splitLines(rawText)

	for _, line := range lines {
		if doc.SupplierName == "" {
			if supplier, ok := extractSupplier(line); ok {
				doc.SupplierName = supplier
				continue
			}
		}

		if doc.DocumentDate == "" {
			if date, ok := extractDate(line); ok {
				doc.DocumentDate = date
				continue
			}
		}

		if amount, ok := extractTotal(line); ok {
			// The grand total is usually the largest labeled figure.
			if amount.GreaterThan(doc.TotalAmount) {
				doc.TotalAmount = amount
			}
			continue
		}

		if item, ok := extractLineItem(line); ok {
			doc.Items = append(doc.Items, item)
		}
	}

	return doc
}

// FromStructured converts an AI extraction response into a ParsedDocument,
// applying the same normalization rules as the text path.
func FromStructured(s StructuredDocument) ParsedDocument {
	doc := ParsedDocument{
		SupplierName: strings.TrimSpace(s.Supplier),
		TotalAmount:  decimal.Zero,
		Items:        []ParsedLineItem{},
	}

	if date, ok := NormalizeDate(s.Date); ok {
		doc.DocumentDate = date
	}
	if total, err := decimal.NewFromString(strings.ReplaceAll(s.Total, ",", "")); err == nil {
		doc.TotalAmount = total
	}

	for _, it := range s.Items {
		desc := strings.TrimSpace(it.Description)
		if it.Quantity <= 0 || len(desc) <= 2 || numericOnly.MatchString(desc) {
			continue
		}

		item := ParsedLineItem{
			Description: desc,
			Quantity:    it.Quantity,
			UnitPrice:   decimal.Zero,
			BatchNumber: strings.TrimSpace(it.BatchNumber),
		}
		if price, err := decimal.NewFromString(strings.ReplaceAll(it.UnitPrice, ",", "")); err == nil {
			item.UnitPrice = price
		}
		if expiry, ok := NormalizeDate(it.Expiry); ok {
			item.ExpiryDate = expiry
		}

		doc.Items = append(doc.Items, item)
	}

	return doc
}

// ── Extraction helpers ───────────────────────────────────────────────────────

func splitLines(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if len(line) < minLineLength {
			continue
		}
		out = append(out, line)
	}
	return out
}

func extractSupplier(line string) (string, bool) {
	for _, re := range supplierPatterns {
		if m := re.FindStringSubmatch(line); m != nil {
			name := strings.TrimSpace(m[1])
			if name != "" {
				return name, true
			}
		}
	}
	return "", false
}

func extractDate(line string) (string, bool) {
	for _, re := range datePatterns {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if date, ok := NormalizeDate(m[1]); ok {
			return date, true
		}
		// Keyword matched but the captured tail may include trailing junk;
		// retry word-prefixes of the capture before giving up on the line.
		fields := strings.Fields(m[1])
		for i := len(fields) - 1; i > 0; i-- {
			if date, ok := NormalizeDate(strings.Join(fields[:i], " ")); ok {
				return date, true
			}
		}
	}
	return "", false
}

func extractTotal(line string) (decimal.Decimal, bool) {
	m := totalPattern.FindStringSubmatch(line)
	if m == nil {
		return decimal.Zero, false
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return decimal.Zero, false
	}
	return amount, true
}

// extractLineItem locates a standalone quantity token and splits the line
// into description (before) and a batch/expiry candidate zone (after).
func extractLineItem(line string) (ParsedLineItem, bool) {
	qty, start, end, ok := findQuantity(line)
	if !ok {
		return ParsedLineItem{}, false
	}

	desc := strings.TrimSpace(strings.Trim(line[:start], " -:·."))
	if len(desc) <= 2 || numericOnly.MatchString(desc) {
		return ParsedLineItem{}, false
	}

	zone := line[end:]

	item := ParsedLineItem{
		Description: desc,
		Quantity:    qty,
		UnitPrice:   decimal.Zero,
	}

	if m := batchPattern.FindStringSubmatch(zone); m != nil {
		item.BatchNumber = m[1]
	}
	if m := expiryPattern.FindStringSubmatch(zone); m != nil {
		if expiry, ok := NormalizeDate(m[1]); ok {
			item.ExpiryDate = expiry
		}
	}
	if m := pricePattern.FindStringSubmatch(zone); m != nil {
		if price, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", "")); err == nil {
			item.UnitPrice = price
		}
	}

	return item, true
}

// findQuantity returns the first standalone positive integer in the line,
// skipping numbers that read as a dosage (followed by a unit word).
func findQuantity(line string) (qty, start, end int, ok bool) {
	for _, loc := range quantityPattern.FindAllStringSubmatchIndex(line, -1) {
		tokenStart, tokenEnd := loc[2], loc[3]

		rest := strings.TrimLeft(line[tokenEnd:], " ")
		if next := firstWord(rest); unitWords[strings.ToLower(next)] {
			continue
		}

		n, err := strconv.Atoi(line[tokenStart:tokenEnd])
		if err != nil || n <= 0 {
			continue
		}
		return n, tokenStart, tokenEnd, true
	}
	return 0, 0, 0, false
}

func firstWord(s string) string {
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i]
	}
	return s
}
