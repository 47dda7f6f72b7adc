// Package dedup fuzzy-matches candidate backlog titles against existing
// open entries to surface likely duplicates before a new entry is filed.
// It is advisory only: it never merges, it ranks candidates for a human
// decision.
package dedup

import (
	"sort"
	"strings"

	"github.com/deltatrack/dt/internal/types"
)

// DefaultThreshold is the minimum similarity score a match must reach to
// be surfaced.
const DefaultThreshold = 0.4

// Match is an existing backlog item scored against the candidate title.
type Match struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// FindDuplicates scores candidateTitle against the titles of open backlog
// items and returns matches at or above threshold, sorted descending by
// score (ties broken by ascending id). Resolved items are skipped; they
// no longer collide with new capture. A threshold of 0 surfaces every
// open item; a negative threshold means unset and falls back to
// DefaultThreshold.
func FindDuplicates(candidateTitle string, existing []*types.BacklogItem, threshold float64) []Match {
	if threshold < 0 {
		threshold = DefaultThreshold
	}

	candidate := tokenize(candidateTitle)

	var matches []Match
	for _, item := range existing {
		if item.Status.IsResolved() {
			continue
		}
		score := overlap(candidate, tokenize(item.Title))
		if score >= threshold {
			matches = append(matches, Match{ID: item.ID, Title: item.Title, Score: score})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})
	return matches
}

// stopWords are filler words stripped before comparison.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "of": true, "with": true, "by": true, "from": true,
	"is": true, "are": true, "was": true, "were": true, "be": true,
	"been": true, "being": true, "have": true, "has": true, "had": true,
	"when": true, "not": true, "no": true, "it": true, "its": true,
}

// tokenize converts text into a set of normalized words.
func tokenize(text string) map[string]bool {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return (r < 'a' || r > 'z') && (r < '0' || r > '9')
	})

	wordSet := make(map[string]bool)
	for _, word := range words {
		if len(word) > 2 && !stopWords[word] {
			wordSet[word] = true
		}
	}
	return wordSet
}

// overlap computes the overlap coefficient between two word sets:
// intersection size over the size of the smaller set. Unlike plain
// Jaccard this does not punish a terse candidate for matching a verbose
// existing title, which is the common shape during backlog capture.
func overlap(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	intersection := 0
	for word := range a {
		if b[word] {
			intersection++
		}
	}
	smaller := len(a)
	if len(b) < smaller {
		smaller = len(b)
	}
	return float64(intersection) / float64(smaller)
}
