// Package selector resolves the best element locator for a recorded
// interaction event from a bag of candidate selectors and an optional
// measured-reliability map.
//
// Resolution is a pure function: no I/O, no failure modes, and given
// identical inputs (including candidate order) it produces identical
// output. Ties on measured reliability break by input order, never by
// map iteration order.
package selector

import (
	"sort"
	"strings"

	"github.com/tracecart/curator/internal/types"
)

// FallbackSelector is returned as BestSelector when no candidates exist.
const FallbackSelector = "*"

// maxBackups caps the backup selector list.
const maxBackups = 5

// Fallback-ranking constants used when no measured reliability exists.
// These order backups only; they are estimates, not measurements.
const (
	estimateTestID     = 0.9 // stable test-identifier attribute
	estimateStructural = 0.8 // structural path (XPath-like)
	estimateID         = 0.7 // id-based locator
	estimateClass      = 0.4 // class-based locator
	estimateOther      = 0.3 // anything else
)

// Resolve picks the best selector for an event.
//
// With measured reliability data, the highest-scoring candidate wins and
// ties keep all contenders (first by input order becomes best, the rest
// lead the backups). Without any data, a static fallback ranking prefers
// test ids, then structural paths, then ids, then classes.
func Resolve(candidates []string, reliability map[string]float64) types.SelectorResolution {
	if len(candidates) == 0 {
		return types.SelectorResolution{
			BestSelector:    FallbackSelector,
			BackupSelectors: nil,
			Reliability:     0,
		}
	}

	bestScore := 0.0
	for _, c := range candidates {
		if s := reliability[c]; s > bestScore {
			bestScore = s
		}
	}

	if bestScore == 0 {
		return resolveByFallbackRanking(candidates)
	}

	// Keep all candidates tied at the best score, in input order.
	var tied []string
	var rest []string
	for _, c := range candidates {
		if reliability[c] == bestScore {
			tied = append(tied, c)
		} else {
			rest = append(rest, c)
		}
	}

	// Remaining candidates sort by descending reliability; stable sort
	// preserves input order among equals.
	sort.SliceStable(rest, func(i, j int) bool {
		return reliability[rest[i]] > reliability[rest[j]]
	})

	best := tied[0]
	backups := append(tied[1:], rest...)
	if len(backups) > maxBackups {
		backups = backups[:maxBackups]
	}

	return types.SelectorResolution{
		BestSelector:    best,
		BackupSelectors: backups,
		Reliability:     bestScore,
	}
}

// resolveByFallbackRanking orders candidates by the static estimate table
// when no measured reliability data is usable.
func resolveByFallbackRanking(candidates []string) types.SelectorResolution {
	ranked := make([]string, len(candidates))
	copy(ranked, candidates)

	// Stable sort: equal estimates keep input order, so the "first
	// candidate" rule falls out naturally when nothing classifies.
	sort.SliceStable(ranked, func(i, j int) bool {
		return estimateFor(ranked[i]) > estimateFor(ranked[j])
	})

	best := ranked[0]
	backups := ranked[1:]
	if len(backups) > maxBackups {
		backups = backups[:maxBackups]
	}

	return types.SelectorResolution{
		BestSelector:    best,
		BackupSelectors: backups,
		Reliability:     estimateFor(best),
		Estimated:       true,
	}
}

// estimateFor classifies a selector string into the fallback ranking.
func estimateFor(sel string) float64 {
	switch {
	case isTestID(sel):
		return estimateTestID
	case isStructuralPath(sel):
		return estimateStructural
	case isIDBased(sel):
		return estimateID
	case isClassBased(sel):
		return estimateClass
	default:
		return estimateOther
	}
}

func isTestID(sel string) bool {
	return strings.Contains(sel, "data-testid") ||
		strings.Contains(sel, "data-test-id") ||
		strings.Contains(sel, "data-test=")
}

func isStructuralPath(sel string) bool {
	// XPath-style locators start with / or ( and use element/step syntax.
	return strings.HasPrefix(sel, "/") || strings.HasPrefix(sel, "(//")
}

func isIDBased(sel string) bool {
	return strings.HasPrefix(sel, "#") || strings.Contains(sel, "[id=")
}

func isClassBased(sel string) bool {
	return strings.HasPrefix(sel, ".")
}
