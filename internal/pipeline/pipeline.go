// Package pipeline orchestrates session curation: selector resolution,
// journey reconstruction, aggregate scoring, optional vision analysis,
// and the final quality-gate verdict.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tracecart/curator/internal/ai"
	"github.com/tracecart/curator/internal/gates"
	"github.com/tracecart/curator/internal/journey"
	"github.com/tracecart/curator/internal/selector"
	"github.com/tracecart/curator/internal/types"
)

// DefaultReliabilityFloor is the minimum selector reliability an event
// needs to count as reliable in aggregate scoring.
const DefaultReliabilityFloor = 0.5

// VisionAnalyzer scores screenshots. Optional; when nil the pipeline
// runs on heuristic scores alone.
type VisionAnalyzer interface {
	AnalyzeScreenshot(ctx context.Context, sessionID string, shot types.Screenshot) (*ai.VisionAnalysis, error)
}

// Pipeline converts recorded sessions into gated training examples.
type Pipeline struct {
	gate             *gates.Gate
	analyzer         VisionAnalyzer
	reliabilityFloor float64
	concurrency      int
}

// Config holds pipeline configuration
type Config struct {
	Gate     *gates.Gate
	Analyzer VisionAnalyzer // Optional: vision analysis is skipped when nil

	// ReliabilityFloor for counting an event as reliable (default: 0.5)
	ReliabilityFloor float64

	// Concurrency bounds parallel session curation in CurateMany (default: 4)
	Concurrency int
}

// New creates a curation pipeline
func New(cfg *Config) (*Pipeline, error) {
	if cfg.Gate == nil {
		return nil, fmt.Errorf("quality gate is required")
	}
	floor := cfg.ReliabilityFloor
	if floor <= 0 {
		floor = DefaultReliabilityFloor
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Pipeline{
		gate:             cfg.Gate,
		analyzer:         cfg.Analyzer,
		reliabilityFloor: floor,
		concurrency:      concurrency,
	}, nil
}

// Result is the outcome of curating one session.
type Result struct {
	SessionID  string                   `json:"session_id"`
	Scores     types.CategoryScores     `json:"scores"`
	Assessment *types.QualityAssessment `json:"assessment"`
	Examples   []types.TrainingExample  `json:"examples"`
}

// Curate processes one session end to end. Every event yields a
// training example; the gate verdict decides whether any of them are
// exportable. Vision analysis failures degrade to heuristic-only
// scoring rather than failing the session.
func (p *Pipeline) Curate(ctx context.Context, session *types.RecordedSession) (*Result, error) {
	if session == nil || session.ID == "" {
		return nil, fmt.Errorf("session ID is required")
	}
	if len(session.Events) == 0 {
		return nil, fmt.Errorf("session %s has no events", session.ID)
	}

	reconstructor := journey.New(session.TaskPlan, session.Events)

	examples := make([]types.TrainingExample, 0, len(session.Events))
	resolutions := make([]types.SelectorResolution, 0, len(session.Events))
	contexts := make([]types.JourneyContext, 0, len(session.Events))
	for i, ev := range session.Events {
		resolution := selector.Resolve(ev.CandidateSelectors, ev.SelectorReliability)
		journeyCtx := reconstructor.ContextFor(i)
		resolutions = append(resolutions, resolution)
		contexts = append(contexts, journeyCtx)

		examples = append(examples, types.TrainingExample{
			ID:         uuid.New().String(),
			SessionID:  session.ID,
			Sequence:   ev.Sequence,
			Prompt:     buildPrompt(ev, journeyCtx),
			Completion: buildCompletion(ev, resolution),
			Resolution: resolution,
			Context:    journeyCtx,
		})
	}

	scores := p.aggregateScores(session.Events, resolutions, contexts, reconstructor.Regressions())
	p.mergeVisionScores(ctx, session, scores)

	assessment := p.gate.Assess(ctx, session.ID, scores)
	for i := range examples {
		examples[i].Exportable = assessment.TrainingEligible
	}

	return &Result{
		SessionID:  session.ID,
		Scores:     scores,
		Assessment: assessment,
		Examples:   examples,
	}, nil
}

// CurateMany curates sessions concurrently. One bad session fails the
// batch; callers who want partial results should curate individually.
func (p *Pipeline) CurateMany(ctx context.Context, sessions []*types.RecordedSession) ([]*Result, error) {
	results := make([]*Result, len(sessions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, session := range sessions {
		g.Go(func() error {
			result, err := p.Curate(gctx, session)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch curation failed: %w", err)
	}
	return results, nil
}

// mergeVisionScores blends screenshot analysis into the heuristic
// scores. Vision carries visionWeight of the final value for each
// category it reports on.
const visionWeight = 0.25

func (p *Pipeline) mergeVisionScores(ctx context.Context, session *types.RecordedSession, scores types.CategoryScores) {
	if p.analyzer == nil || len(session.Screenshots) == 0 {
		return
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, shot := range session.Screenshots {
		analysis, err := p.analyzer.AnalyzeScreenshot(ctx, session.ID, shot)
		if err != nil {
			slog.Warn("screenshot analysis failed, continuing with heuristic scores",
				"session", session.ID, "event", shot.EventSequence, "error", err)
			continue
		}
		for category, score := range analysis.Scores {
			sums[category] += score
			counts[category]++
		}
	}

	for category, sum := range sums {
		visionScore := sum / float64(counts[category])
		if base, ok := scores[category]; ok {
			scores[category] = (1-visionWeight)*base + visionWeight*visionScore
		}
	}
}

// buildPrompt describes the situation the model must act in: the page,
// the task step, and the inferred intent.
func buildPrompt(ev types.InteractionEvent, journeyCtx types.JourneyContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Page: %s (%s)\n", ev.PageURL, journeyCtx.NavigationFlow.CurrentPage)
	progress := journeyCtx.TaskProgress
	if progress.CurrentTask != "" {
		fmt.Fprintf(&b, "Task: %s (step %d of %d)\n",
			progress.CurrentTask, progress.CurrentTaskIndex+1, progress.TotalTasks)
	}
	fmt.Fprintf(&b, "Intent: %s", journeyCtx.CurrentIntent.Action)
	if journeyCtx.CurrentIntent.TargetLabel != "" {
		fmt.Fprintf(&b, " (%s)", journeyCtx.CurrentIntent.TargetLabel)
	}
	b.WriteString("\nWhat is the next action?")
	return b.String()
}

// buildCompletion is the action the model should learn to produce.
func buildCompletion(ev types.InteractionEvent, resolution types.SelectorResolution) string {
	if ev.ActionType.IsTextEntry() && ev.Value != "" {
		return fmt.Sprintf("%s %q into %s", ev.ActionType, ev.Value, resolution.BestSelector)
	}
	return fmt.Sprintf("%s %s", ev.ActionType, resolution.BestSelector)
}
