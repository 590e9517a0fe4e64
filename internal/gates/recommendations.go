package gates

import (
	"fmt"
	"sort"

	"github.com/tracecart/curator/internal/types"
)

// categoryAdvice maps a deficient category to a concrete improvement
// suggestion. Non-authoritative generated text.
var categoryAdvice = map[types.QualityCategory]string{
	types.CategoryReliability:       "capture stable test-id attributes during recording so selectors resolve with measured reliability",
	types.CategoryCompleteness:      "ensure the recorder captures candidate selectors and element text for every event",
	types.CategoryConsistency:       "review the session for task-order anomalies; participants may have worked steps out of order",
	types.CategoryTrainingReadiness: "sessions dominated by undirected browsing produce weak examples; tighten the task instructions",
	types.CategoryOverall:           "re-record the session or relax the task plan; overall quality is below the export bar",
}

// deficit records how far a category fell below a rule's floor.
type deficit struct {
	category types.QualityCategory
	floor    float64
	score    float64
	gap      float64
}

// buildRecommendations derives advice from the categories that scored
// below some enabled rule's minimum, ordered by how far below they are.
func buildRecommendations(rules []types.QualityThresholdRule, scores types.CategoryScores, overall float64) ([]string, []string) {
	byCategory := make(map[types.QualityCategory]deficit)
	for _, rule := range rules {
		if !rule.Enabled || rule.MinScore <= 0 {
			continue
		}
		score, ok := scoreFor(rule.Category, scores, overall)
		if !ok || score >= rule.MinScore {
			continue
		}
		d := deficit{category: rule.Category, floor: rule.MinScore, score: score, gap: rule.MinScore - score}
		if prev, seen := byCategory[rule.Category]; !seen || d.gap > prev.gap {
			byCategory[rule.Category] = d
		}
	}
	if len(byCategory) == 0 {
		return nil, nil
	}

	deficits := make([]deficit, 0, len(byCategory))
	for _, d := range byCategory {
		deficits = append(deficits, d)
	}
	sort.Slice(deficits, func(i, j int) bool {
		if deficits[i].gap != deficits[j].gap {
			return deficits[i].gap > deficits[j].gap
		}
		return deficits[i].category < deficits[j].category
	})

	var recommendations, suggestions []string
	for _, d := range deficits {
		recommendations = append(recommendations, fmt.Sprintf(
			"improve %s: score %.0f is %.0f points below the %.0f floor",
			d.category, d.score, d.gap, d.floor))
		if advice, ok := categoryAdvice[d.category]; ok {
			suggestions = append(suggestions, advice)
		}
	}
	return recommendations, suggestions
}
