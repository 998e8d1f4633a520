package docparse

import (
	"strings"
	"time"
)

// canonicalDate is the single output format for all normalized dates.
const canonicalDate = "2006-01-02"

// dayFirstLayouts are tried in order. Slip dates in this domain are
// day-first, so DD-MM-YYYY wins over MM-DD-YYYY.
var dayFirstLayouts = []string{
	"02-01-2006",
	"02/01/2006",
	"02.01.2006",
	"2-1-2006",
	"2/1/2006",
	"2006-01-02",
	"2006/01/02",
	"02-01-06",
	"02/01/06",
	"2 January 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"Jan 2 2006",
	"02 January 2006",
	"02 Jan 2006",
}

// monthYearLayouts cover expiry dates given without a day ("12/2025",
// "Dec 2025"). These normalize to the first of the month.
var monthYearLayouts = []string{
	"01/2006",
	"01-2006",
	"01.2006",
	"Jan 2006",
	"January 2006",
	"Jan-2006",
	"01/06",
}

// NormalizeDate converts a free-text date into YYYY-MM-DD. The second return
// is false when no known format matches; callers drop the field rather than
// defaulting it.
func NormalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(strings.Trim(s, ".,;"))
	if s == "" {
		return "", false
	}

	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(canonicalDate), true
		}
	}

	for _, layout := range monthYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(canonicalDate), true
		}
	}

	return "", false
}
