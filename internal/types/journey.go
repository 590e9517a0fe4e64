package types

// PageClass is the small fixed taxonomy used for navigation-flow
// classification.
type PageClass string

const (
	PageSearchResults PageClass = "search-results"
	PageProductDetail PageClass = "product-detail"
	PageCart          PageClass = "cart"
	PageHomepage      PageClass = "homepage"
	PageCategory      PageClass = "category"
)

// TaskProgress locates an event within the session's declared task plan.
//
// CurrentTaskIndex always lies in [0, TotalTasks-1]. ProgressPercent is
// round(100 * (CurrentTaskIndex+1) / TotalTasks).
type TaskProgress struct {
	CurrentTaskIndex int `json:"current_task_index"`

	// CurrentTask is the plan step at CurrentTaskIndex. Neither
	// CompletedTasks nor RemainingTasks contains it.
	CurrentTask string `json:"current_task"`

	TotalTasks      int      `json:"total_tasks"`
	CompletedTasks  []string `json:"completed_tasks"`
	RemainingTasks  []string `json:"remaining_tasks"`
	ProgressPercent int      `json:"progress_percent"`

	// RawTaskIndex is the index the keyword heuristic inferred before
	// monotonic clamping. Equal to CurrentTaskIndex unless a stray
	// earlier-step match would have moved progress backward.
	RawTaskIndex int `json:"raw_task_index"`
}

// Intent is the guessed user intent behind a single event.
type Intent struct {
	Action      string  `json:"action"`                 // e.g. "searching_for_graphic_tee", "adding_to_cart"
	TargetLabel string  `json:"target_label,omitempty"` // element text or query the intent refers to
	Confidence  float64 `json:"confidence"`             // [0,1]
	Reasoning   string  `json:"reasoning"`              // short citation of the matched signal
}

// NavigationFlow is the simplified navigation history up to an event.
type NavigationFlow struct {
	CurrentPage   PageClass   `json:"current_page"`
	PreviousPages []PageClass `json:"previous_pages"` // consecutive duplicates collapsed
	FlowReason    string      `json:"flow_reason"`    // summary of the immediately preceding action
}

// BehavioralContext summarizes what the participant appears to be doing
// and where they are likely headed.
type BehavioralContext struct {
	UserFocus            string   `json:"user_focus"`
	DecisionFactors      []string `json:"decision_factors"`
	ConversionLikelihood float64  `json:"conversion_likelihood"` // [0,1], capped at 0.9
	NextPredictedActions []string `json:"next_predicted_actions"`
}

// JourneyContext is the derived per-event context explaining why the
// event happened. One instance per InteractionEvent; never persisted
// independently of its training example.
type JourneyContext struct {
	SessionStep       int               `json:"session_step"` // 1-based
	TotalSteps        int               `json:"total_steps"`
	TaskProgress      TaskProgress      `json:"task_progress"`
	CurrentIntent     Intent            `json:"current_intent"`
	NavigationFlow    NavigationFlow    `json:"navigation_flow"`
	BehavioralContext BehavioralContext `json:"behavioral_context"`
}
