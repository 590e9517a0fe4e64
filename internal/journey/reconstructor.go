// Package journey reconstructs, for each recorded interaction event, the
// task/journey context explaining why the event happened: position in the
// declared task plan, guessed intent, simplified navigation history, and
// a behavioral summary.
//
// Everything here is heuristic, not verified parsing. Missing or
// malformed inputs resolve to documented low-confidence defaults; no
// operation fails.
package journey

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/tracecart/curator/internal/types"
)

// unknownTask substitutes for a missing or empty task plan.
const unknownTask = "Unknown task"

// Reconstructor derives per-event JourneyContexts for one session.
// ContextFor is meant to be called once per event in increasing index
// order; out-of-order calls are tolerated but keep the monotonic
// progress floor from the furthest event seen.
type Reconstructor struct {
	tasks    []string
	keywords [][]string
	events   []types.InteractionEvent

	// highestTask is the monotonic clamp floor: the keyword backward-scan
	// can otherwise move progress backward on a stray match.
	highestTask int
	regressions int
}

// New creates a reconstructor for a session's task plan and its full
// ordered event list. An empty plan yields a single synthetic task.
func New(plan types.TaskPlan, events []types.InteractionEvent) *Reconstructor {
	tasks := plan.Steps
	if len(tasks) == 0 {
		tasks = []string{unknownTask}
	}
	keywords := make([][]string, len(tasks))
	for i, task := range tasks {
		keywords[i] = salientKeywords(task)
	}
	return &Reconstructor{
		tasks:    tasks,
		keywords: keywords,
		events:   events,
	}
}

// ContextFor derives the JourneyContext for the event at eventIndex.
func (r *Reconstructor) ContextFor(eventIndex int) types.JourneyContext {
	if eventIndex < 0 {
		eventIndex = 0
	}
	if eventIndex >= len(r.events) && len(r.events) > 0 {
		eventIndex = len(r.events) - 1
	}

	var ev types.InteractionEvent
	if len(r.events) > 0 {
		ev = r.events[eventIndex]
	}

	raw := r.inferTaskIndex(eventIndex)
	current := raw
	if current < r.highestTask {
		// Documented strengthening over the raw heuristic: progress never
		// moves backward between events.
		r.regressions++
		current = r.highestTask
	}
	r.highestTask = current

	page := ClassifyPage(ev.PageURL, ev.PageType)
	intent := detectIntent(ev, page)

	return types.JourneyContext{
		SessionStep:       eventIndex + 1,
		TotalSteps:        len(r.events),
		TaskProgress:      r.progressAt(current, raw),
		CurrentIntent:     intent,
		NavigationFlow:    r.navigationAt(eventIndex, page),
		BehavioralContext: r.behavioralAt(current, intent),
	}
}

// Regressions reports how many times the raw keyword heuristic inferred
// a task index below the monotonic floor. Used as a consistency signal
// by the aggregate scorer.
func (r *Reconstructor) Regressions() int {
	return r.regressions
}

// TaskCount returns the effective number of tasks (at least 1).
func (r *Reconstructor) TaskCount() int {
	return len(r.tasks)
}

// inferTaskIndex scans events up to and including eventIndex, gathers
// free-text signals, and tests task steps from the last backward. The
// latest matching step wins; with no match it falls back to a
// proportional estimate over the session.
func (r *Reconstructor) inferTaskIndex(eventIndex int) int {
	tokens, texts := r.accumulateSignals(eventIndex)

	for s := len(r.tasks) - 1; s >= 0; s-- {
		if stepMatches(r.keywords[s], tokens, texts) {
			return s
		}
	}

	// Proportional fallback, clamped into the plan.
	total := len(r.tasks)
	if len(r.events) == 0 {
		return 0
	}
	est := int(math.Floor(float64(eventIndex) / float64(len(r.events)) * float64(total)))
	if est < 0 {
		est = 0
	}
	if est > total-1 {
		est = total - 1
	}
	return est
}

// accumulateSignals collects normalized tokens and raw lowercase text
// from typed input and clicked-element labels across events[0..i].
func (r *Reconstructor) accumulateSignals(eventIndex int) (map[string]bool, []string) {
	tokens := make(map[string]bool)
	var texts []string
	for j := 0; j <= eventIndex && j < len(r.events); j++ {
		ev := r.events[j]
		if ev.ActionType.IsTextEntry() && strings.TrimSpace(ev.Value) != "" {
			texts = append(texts, strings.ToLower(ev.Value))
			for _, tok := range tokenize(ev.Value) {
				tokens[tok] = true
			}
		}
		if ev.ActionType == types.ActionClick && strings.TrimSpace(ev.Element.Text) != "" {
			texts = append(texts, strings.ToLower(ev.Element.Text))
			for _, tok := range tokenize(ev.Element.Text) {
				tokens[tok] = true
			}
		}
	}
	return tokens, texts
}

// stepMatches reports whether any of the step's salient keywords appears
// among the accumulated tokens or raw texts.
func stepMatches(keywords []string, tokens map[string]bool, texts []string) bool {
	for _, kw := range keywords {
		if tokens[kw] {
			return true
		}
		for tok := range tokens {
			if tokensRelated(tok, kw) {
				return true
			}
		}
		for _, text := range texts {
			if strings.Contains(text, kw) {
				return true
			}
		}
	}
	return false
}

// tokensRelated matches a token against a keyword after plural trimming,
// accepting containment either way for tokens long enough to be
// meaningful.
func tokensRelated(token, keyword string) bool {
	if token == keyword {
		return true
	}
	if len(token) < 3 || len(keyword) < 3 {
		return false
	}
	return strings.Contains(token, keyword) || strings.Contains(keyword, token)
}

func (r *Reconstructor) progressAt(current, raw int) types.TaskProgress {
	total := len(r.tasks)
	completed := make([]string, current)
	copy(completed, r.tasks[:current])
	remaining := make([]string, total-current-1)
	copy(remaining, r.tasks[current+1:])

	return types.TaskProgress{
		CurrentTaskIndex: current,
		CurrentTask:      r.tasks[current],
		TotalTasks:       total,
		CompletedTasks:   completed,
		RemainingTasks:   remaining,
		ProgressPercent:  int(math.Round(100 * float64(current+1) / float64(total))),
		RawTaskIndex:     raw,
	}
}

func (r *Reconstructor) navigationAt(eventIndex int, current types.PageClass) types.NavigationFlow {
	var previous []types.PageClass
	for j := 0; j < eventIndex && j < len(r.events); j++ {
		pc := ClassifyPage(r.events[j].PageURL, r.events[j].PageType)
		if len(previous) == 0 || previous[len(previous)-1] != pc {
			previous = append(previous, pc)
		}
	}

	reason := "session started"
	if eventIndex > 0 && eventIndex <= len(r.events) {
		prev := r.events[eventIndex-1]
		label := strings.TrimSpace(prev.Element.Text)
		if label != "" {
			reason = fmt.Sprintf("after %s on %q", prev.ActionType, label)
		} else {
			reason = fmt.Sprintf("after %s on %s page", prev.ActionType, ClassifyPage(prev.PageURL, prev.PageType))
		}
	}

	return types.NavigationFlow{
		CurrentPage:   current,
		PreviousPages: previous,
		FlowReason:    reason,
	}
}

// budgetRegex extracts currency amounts from task descriptions.
var budgetRegex = regexp.MustCompile(`\$\s?\d+(?:\.\d{2})?`)

// styleWords are constraint markers recognized in task-step text.
var styleWords = []string{"casual", "trendy", "formal", "vintage", "comfortable", "stylish", "sporty"}

func (r *Reconstructor) behavioralAt(current int, intent types.Intent) types.BehavioralContext {
	task := r.tasks[current]

	factors := []string{"task relevance"}
	if m := budgetRegex.FindString(task); m != "" {
		factors = append(factors, "budget constraint: "+strings.ReplaceAll(m, " ", ""))
	}
	lowerTask := strings.ToLower(task)
	for _, w := range styleWords {
		if strings.Contains(lowerTask, w) {
			factors = append(factors, "style preference: "+w)
		}
	}

	likelihood := 0.5 + 0.3*float64(current)/float64(len(r.tasks))
	if likelihood > 0.9 {
		likelihood = 0.9
	}

	return types.BehavioralContext{
		UserFocus:            fmt.Sprintf("Working on %q with intent %s", task, intent.Action),
		DecisionFactors:      factors,
		ConversionLikelihood: likelihood,
		NextPredictedActions: predictedActions(intent.Action),
	}
}

// predictedActions is the fixed next-step list keyed by detected intent.
func predictedActions(intentAction string) []string {
	switch {
	case strings.HasPrefix(intentAction, "searching_for"):
		return []string{"review search results", "click a product"}
	case intentAction == "selecting_product":
		return []string{"view product details", "add to cart"}
	case intentAction == "adding_to_cart":
		return []string{"view cart", "proceed to checkout"}
	default:
		return []string{"search for a product", "browse categories"}
	}
}

// stopwords are dropped when extracting salient keywords from task text.
var stopwords = map[string]bool{
	"for": true, "the": true, "and": true, "with": true, "some": true,
	"search": true, "browse": true, "select": true, "find": true,
	"add": true, "buy": true, "look": true, "shop": true, "pick": true,
	"choose": true, "get": true, "new": true, "under": true, "item": true,
	"items": true, "product": true, "products": true,
}

// salientKeywords extracts the meaningful tokens of a task step.
func salientKeywords(task string) []string {
	var out []string
	for _, tok := range tokenize(task) {
		if !stopwords[tok] {
			out = append(out, tok)
		}
	}
	return out
}

// tokenize splits text into normalized tokens: lowercase, alphanumerics
// only, trailing plural 's' trimmed, short tokens dropped.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
	var out []string
	for _, f := range fields {
		f = normalizeToken(f)
		if len(f) >= 3 || (len(f) > 0 && f[0] >= '0' && f[0] <= '9') {
			out = append(out, f)
		}
	}
	return out
}

func normalizeToken(tok string) string {
	if len(tok) > 3 && strings.HasSuffix(tok, "s") && !strings.HasSuffix(tok, "ss") {
		return tok[:len(tok)-1]
	}
	return tok
}
