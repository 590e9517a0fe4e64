// Package types defines the core data structures shared across the
// curation pipeline: recorded interaction events, task plans, derived
// journey context, selector resolutions, and quality assessments.
package types

import "time"

// ActionType identifies the kind of user action captured in an
// InteractionEvent.
type ActionType string

const (
	ActionClick      ActionType = "click"
	ActionInput      ActionType = "input"
	ActionScroll     ActionType = "scroll"
	ActionNavigation ActionType = "navigation"
	ActionHover      ActionType = "hover"
	ActionFocus      ActionType = "focus"
	ActionBlur       ActionType = "blur"
	ActionFormSubmit ActionType = "form_submit"
	ActionKeyPress   ActionType = "key_press"
	ActionDrag       ActionType = "drag"
	ActionDrop       ActionType = "drop"
	ActionTouch      ActionType = "touch"
)

// IsValid checks if the action type is one of the known capture types
func (a ActionType) IsValid() bool {
	switch a {
	case ActionClick, ActionInput, ActionScroll, ActionNavigation,
		ActionHover, ActionFocus, ActionBlur, ActionFormSubmit,
		ActionKeyPress, ActionDrag, ActionDrop, ActionTouch:
		return true
	}
	return false
}

// IsTextEntry returns true for actions that carry typed free text
func (a ActionType) IsTextEntry() bool {
	return a == ActionInput || a == ActionKeyPress
}

// ElementSnapshot is a read-only description of the DOM element an event
// targeted, captured at recording time.
type ElementSnapshot struct {
	Tag        string            `json:"tag"`
	Text       string            `json:"text"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Nearby     []string          `json:"nearby,omitempty"` // short summaries of sibling/nearby elements
}

// InteractionEvent is one recorded user action within a session.
// Events are created once at capture time and never mutated; the
// pipeline consumes them read-only.
type InteractionEvent struct {
	// Sequence is the 0-based position within the session, assigned at
	// capture time.
	Sequence int `json:"sequence"`

	ActionType ActionType `json:"action_type"`

	// Value holds typed text for input/key_press actions, empty otherwise.
	Value string `json:"value,omitempty"`

	// CandidateSelectors are locator strings from multiple strategies
	// (structural path, attribute, stable test id, free text). May be
	// empty. Order is significant: it is the deterministic tie-break for
	// selector resolution.
	CandidateSelectors []string `json:"candidate_selectors,omitempty"`

	// SelectorReliability maps a subset of the candidates to a measured
	// score in [0,1]. May be nil.
	SelectorReliability map[string]float64 `json:"selector_reliability,omitempty"`

	Element  ElementSnapshot `json:"element"`
	PageURL  string          `json:"page_url"`
	PageType string          `json:"page_type,omitempty"`

	Timestamp time.Time `json:"timestamp,omitempty"`
}

// TaskPlan is the session's declared goal: an ordered list of
// natural-language sub-goals the participant was asked to complete.
// Order is significant and assumed (not verified) monotonic.
type TaskPlan struct {
	Steps []string `json:"steps"`
}

// Screenshot is a captured page image associated with an event, fed to
// the external vision analyzer.
type Screenshot struct {
	EventSequence int    `json:"event_sequence"`
	MediaType     string `json:"media_type"` // e.g. "image/png"
	Data          []byte `json:"data"`
}

// RecordedSession bundles everything the pipeline needs for one session.
type RecordedSession struct {
	ID          string             `json:"id"`
	TaskPlan    TaskPlan           `json:"task_plan"`
	Events      []InteractionEvent `json:"events"`
	Screenshots []Screenshot       `json:"screenshots,omitempty"`
}
