package journey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracecart/curator/internal/types"
)

func click(seq int, text, url string) types.InteractionEvent {
	return types.InteractionEvent{
		Sequence:   seq,
		ActionType: types.ActionClick,
		Element:    types.ElementSnapshot{Tag: "a", Text: text},
		PageURL:    url,
	}
}

func typed(seq int, value, url string) types.InteractionEvent {
	return types.InteractionEvent{
		Sequence:   seq,
		ActionType: types.ActionInput,
		Value:      value,
		Element:    types.ElementSnapshot{Tag: "input"},
		PageURL:    url,
	}
}

func TestContextFor_TaskProgressFromKeywords(t *testing.T) {
	plan := types.TaskPlan{Steps: []string{
		"search for tees",
		"browse for jeans",
		"select sneakers",
	}}
	events := []types.InteractionEvent{
		typed(0, "graphic tee", "https://shop.example/search?q=graphic+tee"),
		click(1, "Levi's 511 Jean", "https://shop.example/search?q=jeans"),
	}

	r := New(plan, events)
	ctx := r.ContextFor(1)

	assert.Equal(t, 1, ctx.TaskProgress.CurrentTaskIndex, "latest matching step wins the backward scan")
	assert.Equal(t, "browse for jeans", ctx.TaskProgress.CurrentTask)
	assert.Equal(t, 3, ctx.TaskProgress.TotalTasks)
	assert.Equal(t, 67, ctx.TaskProgress.ProgressPercent)
	assert.Equal(t, []string{"search for tees"}, ctx.TaskProgress.CompletedTasks)
	assert.Equal(t, []string{"select sneakers"}, ctx.TaskProgress.RemainingTasks)
}

func TestContextFor_CurrentTaskMatchesIndex(t *testing.T) {
	plan := types.TaskPlan{Steps: []string{"first errand", "second errand", "third errand"}}
	events := []types.InteractionEvent{
		{Sequence: 0, ActionType: types.ActionScroll, PageURL: "https://shop.example/"},
		{Sequence: 1, ActionType: types.ActionScroll, PageURL: "https://shop.example/"},
		{Sequence: 2, ActionType: types.ActionScroll, PageURL: "https://shop.example/"},
	}

	r := New(plan, events)
	for i := range events {
		tp := r.ContextFor(i).TaskProgress
		assert.Equal(t, plan.Steps[tp.CurrentTaskIndex], tp.CurrentTask)
		assert.NotContains(t, tp.CompletedTasks, tp.CurrentTask)
		assert.NotContains(t, tp.RemainingTasks, tp.CurrentTask)
	}
}

func TestContextFor_ProportionalFallback(t *testing.T) {
	plan := types.TaskPlan{Steps: []string{"first errand", "second errand", "third errand", "fourth errand"}}
	// No typed text, no clicked labels: nothing for the keyword scan.
	events := []types.InteractionEvent{
		{Sequence: 0, ActionType: types.ActionScroll, PageURL: "https://shop.example/"},
		{Sequence: 1, ActionType: types.ActionScroll, PageURL: "https://shop.example/"},
		{Sequence: 2, ActionType: types.ActionScroll, PageURL: "https://shop.example/"},
		{Sequence: 3, ActionType: types.ActionScroll, PageURL: "https://shop.example/"},
	}

	r := New(plan, events)

	// floor(eventIndex / totalEvents * totalTasks)
	assert.Equal(t, 0, r.ContextFor(0).TaskProgress.CurrentTaskIndex)
	assert.Equal(t, 2, r.ContextFor(2).TaskProgress.CurrentTaskIndex)
	assert.Equal(t, 3, r.ContextFor(3).TaskProgress.CurrentTaskIndex)
}

func TestContextFor_ProgressBounds(t *testing.T) {
	plans := []types.TaskPlan{
		{},
		{Steps: []string{"only task"}},
		{Steps: []string{"one", "two", "three", "four", "five"}},
	}
	events := []types.InteractionEvent{
		typed(0, "searchterm", "https://shop.example/search?q=x"),
		click(1, "Something", "https://shop.example/p/1"),
		{Sequence: 2, ActionType: types.ActionScroll},
	}

	for _, plan := range plans {
		r := New(plan, events)
		for i := range events {
			ctx := r.ContextFor(i)
			tp := ctx.TaskProgress
			assert.GreaterOrEqual(t, tp.CurrentTaskIndex, 0)
			assert.Less(t, tp.CurrentTaskIndex, tp.TotalTasks)
			assert.GreaterOrEqual(t, tp.ProgressPercent, 0)
			assert.LessOrEqual(t, tp.ProgressPercent, 100)
		}
	}
}

func TestContextFor_EmptyPlanYieldsSyntheticTask(t *testing.T) {
	r := New(types.TaskPlan{}, []types.InteractionEvent{
		click(0, "Anything", "https://shop.example/"),
	})

	ctx := r.ContextFor(0)

	assert.Equal(t, 1, ctx.TaskProgress.TotalTasks)
	assert.Equal(t, 0, ctx.TaskProgress.CurrentTaskIndex)
	assert.Contains(t, ctx.BehavioralContext.UserFocus, unknownTask)
}

func TestContextFor_MonotonicClamp(t *testing.T) {
	plan := types.TaskPlan{Steps: []string{"find jackets", "find gloves"}}
	events := []types.InteractionEvent{
		typed(0, "gloves", "https://shop.example/search?q=gloves"),
		// A later click matching only the earlier step would regress the
		// raw heuristic; the clamp holds progress at the later step.
		click(1, "Winter Jacket", "https://shop.example/search?q=gloves"),
	}

	r := New(plan, events)

	first := r.ContextFor(0)
	require.Equal(t, 1, first.TaskProgress.CurrentTaskIndex)

	second := r.ContextFor(1)
	assert.Equal(t, 1, second.TaskProgress.CurrentTaskIndex, "progress must not move backward")
	assert.Equal(t, 1, second.TaskProgress.RawTaskIndex, "backward scan still finds the later step via accumulated tokens")
	assert.Equal(t, 0, r.Regressions())
}

func TestContextFor_NavigationFlow(t *testing.T) {
	plan := types.TaskPlan{Steps: []string{"buy shoes"}}
	events := []types.InteractionEvent{
		{Sequence: 0, ActionType: types.ActionNavigation, PageURL: "https://shop.example/"},
		typed(1, "running shoes", "https://shop.example/search?q=running+shoes"),
		click(2, "Speedster 3", "https://shop.example/search?q=running+shoes"),
		click(3, "Add to Cart", "https://shop.example/p/speedster-3"),
	}

	r := New(plan, events)

	first := r.ContextFor(0)
	assert.Equal(t, "session started", first.NavigationFlow.FlowReason)
	assert.Empty(t, first.NavigationFlow.PreviousPages)
	assert.Equal(t, types.PageHomepage, first.NavigationFlow.CurrentPage)

	last := r.ContextFor(3)
	assert.Equal(t, types.PageProductDetail, last.NavigationFlow.CurrentPage)
	// Consecutive duplicate search-results pages collapse.
	assert.Equal(t, []types.PageClass{types.PageHomepage, types.PageSearchResults},
		last.NavigationFlow.PreviousPages)
	assert.Contains(t, last.NavigationFlow.FlowReason, "Speedster 3")
}

func TestContextFor_BehavioralContext(t *testing.T) {
	plan := types.TaskPlan{Steps: []string{
		"search for casual shirts under $40",
		"pick trendy sneakers",
	}}
	events := []types.InteractionEvent{
		typed(0, "casual shirt", "https://shop.example/search?q=casual+shirt"),
	}

	r := New(plan, events)
	ctx := r.ContextFor(0)

	bc := ctx.BehavioralContext
	assert.Contains(t, bc.DecisionFactors, "task relevance")
	assert.Contains(t, bc.DecisionFactors, "budget constraint: $40")
	assert.Contains(t, bc.DecisionFactors, "style preference: casual")
	assert.GreaterOrEqual(t, bc.ConversionLikelihood, 0.5)
	assert.LessOrEqual(t, bc.ConversionLikelihood, 0.9)
	assert.NotEmpty(t, bc.NextPredictedActions)
}

func TestContextFor_ConversionLikelihoodCapped(t *testing.T) {
	steps := make([]string, 2)
	steps[0] = "first thing"
	steps[1] = "second thing"
	events := []types.InteractionEvent{
		{Sequence: 0, ActionType: types.ActionScroll},
		{Sequence: 1, ActionType: types.ActionScroll},
	}

	r := New(types.TaskPlan{Steps: steps}, events)
	for i := range events {
		lik := r.ContextFor(i).BehavioralContext.ConversionLikelihood
		assert.LessOrEqual(t, lik, 0.9)
	}
}

func TestContextFor_OutOfRangeIndexTolerated(t *testing.T) {
	r := New(types.TaskPlan{Steps: []string{"task"}}, []types.InteractionEvent{
		click(0, "X", "https://shop.example/"),
	})

	assert.NotPanics(t, func() {
		_ = r.ContextFor(-5)
		_ = r.ContextFor(99)
	})
}
