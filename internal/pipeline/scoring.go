package pipeline

import (
	"strings"

	"github.com/tracecart/curator/internal/types"
)

// aggregateScores derives the session's category scores, all on a 0-100
// scale:
//
//   - reliability: fraction of events whose resolved selector meets the
//     reliability floor
//   - completeness: fraction of events carrying both candidate selectors
//     and a human-readable signal (element text or typed value)
//   - consistency: penalized by task-order regressions the reconstructor
//     observed
//   - training_readiness: fraction of events with a directed intent
//     (undirected browsing teaches the model nothing)
//   - overall: mean of the four
func (p *Pipeline) aggregateScores(
	events []types.InteractionEvent,
	resolutions []types.SelectorResolution,
	contexts []types.JourneyContext,
	regressions int,
) types.CategoryScores {
	total := float64(len(events))

	reliable := 0
	complete := 0
	directed := 0
	for i, ev := range events {
		if resolutions[i].Reliability >= p.reliabilityFloor {
			reliable++
		}
		if len(ev.CandidateSelectors) > 0 && (ev.Element.Text != "" || ev.Value != "") {
			complete++
		}
		if !strings.HasPrefix(contexts[i].CurrentIntent.Action, "browsing") {
			directed++
		}
	}

	consistency := 100 - 100*float64(regressions)/total
	if consistency < 0 {
		consistency = 0
	}

	scores := types.CategoryScores{
		string(types.CategoryReliability):       100 * float64(reliable) / total,
		string(types.CategoryCompleteness):      100 * float64(complete) / total,
		string(types.CategoryConsistency):       consistency,
		string(types.CategoryTrainingReadiness): 100 * float64(directed) / total,
	}

	sum := 0.0
	for _, v := range scores {
		sum += v
	}
	scores[string(types.CategoryOverall)] = sum / float64(len(scores))

	return scores
}
