// Package match fuzzy-matches free-text item descriptions against the
// inventory catalog. Matches are advisory: the workflow always lets a human
// accept, override or clear them before anything touches inventory.
package match

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/suryasblaze/be-stock-recon/internal/repository"
)

// maxConfidence caps reported confidence below absolute certainty: even an
// exact string match may sit on top of noisy extraction.
const maxConfidence = 0.98

// Candidate is one ranked catalog candidate.
type Candidate struct {
	ItemID string  `json:"item_id"`
	Name   string  `json:"name"`
	Score  float64 `json:"score"` // 0 = identical, 1 = nothing shared
}

// Result is the outcome of matching one description.
type Result struct {
	Matched    bool        `json:"matched"`
	ItemID     string      `json:"item_id,omitempty"`
	Name       string      `json:"name,omitempty"`
	Score      float64     `json:"score"`
	Confidence float64     `json:"confidence"` // 1 − score, clamped to [0, maxConfidence]
	Candidates []Candidate `json:"candidates"`
}

// Matcher ranks catalog entries by normalized edit distance.
type Matcher struct {
	// MaxScore is the worst score still considered a match.
	MaxScore float64
	// MaxCandidates bounds the ranked alternates returned.
	MaxCandidates int
}

// New returns a Matcher with the defaults used by the review UI.
func New() *Matcher {
	return &Matcher{MaxScore: 0.6, MaxCandidates: 5}
}

// Match ranks the catalog against a free-text description. An empty
// description or catalog yields an unmatched result, never an error.
func (m *Matcher) Match(description string, catalog []*repository.CatalogEntry) Result {
	query := normalize(description)
	if query == "" || len(catalog) == 0 {
		return Result{Score: 1, Candidates: []Candidate{}}
	}

	candidates := make([]Candidate, 0, len(catalog))
	for _, entry := range catalog {
		score := entryScore(query, entry)
		candidates = append(candidates, Candidate{
			ItemID: entry.ID,
			Name:   entry.Name,
			Score:  score,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score < candidates[j].Score
	})

	if len(candidates) > m.MaxCandidates {
		candidates = candidates[:m.MaxCandidates]
	}

	best := candidates[0]
	if best.Score > m.MaxScore {
		return Result{Score: best.Score, Candidates: candidates}
	}

	return Result{
		Matched:    true,
		ItemID:     best.ItemID,
		Name:       best.Name,
		Score:      best.Score,
		Confidence: confidence(best.Score),
		Candidates: candidates,
	}
}

// entryScore scores a catalog entry against the query, using the better of
// the name score and (when present) the code score.
func entryScore(query string, entry *repository.CatalogEntry) float64 {
	score := normalizedDistance(query, normalize(entry.Name))
	if entry.Code != nil {
		if s := normalizedDistance(query, normalize(*entry.Code)); s < score {
			score = s
		}
	}
	return score
}

// normalizedDistance is the Levenshtein distance divided by the longer
// length, so 0 means identical and 1 means nothing shared.
func normalizedDistance(a, b string) float64 {
	if a == b {
		return 0
	}
	longer := len([]rune(a))
	if l := len([]rune(b)); l > longer {
		longer = l
	}
	if longer == 0 {
		return 1
	}
	return float64(levenshtein.ComputeDistance(a, b)) / float64(longer)
}

func confidence(score float64) float64 {
	c := 1 - score
	if c < 0 {
		c = 0
	}
	if c > maxConfidence {
		c = maxConfidence
	}
	return c
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
