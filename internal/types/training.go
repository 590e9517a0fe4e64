package types

// SelectorResolution is the resolved locator for one event.
type SelectorResolution struct {
	// BestSelector is always non-empty, even with no input data (falls
	// back to a generic placeholder).
	BestSelector string `json:"best_selector"`

	// BackupSelectors are ordered highest-reliability first, capped at 5,
	// and never include BestSelector.
	BackupSelectors []string `json:"backup_selectors,omitempty"`

	// Reliability is the score in [0,1] associated with BestSelector.
	// When Estimated is true it is a fixed fallback-ranking constant, not
	// a measured value.
	Reliability float64 `json:"reliability"`
	Estimated   bool    `json:"estimated,omitempty"`
}

// TrainingExample is one candidate fine-tuning example assembled from an
// event plus its derived selector resolution and journey context.
type TrainingExample struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	Sequence  int    `json:"sequence"`

	// Prompt describes the situation (page, task, intent); Completion is
	// the resolved action the model should learn to produce.
	Prompt     string `json:"prompt"`
	Completion string `json:"completion"`

	Resolution SelectorResolution `json:"resolution"`
	Context    JourneyContext     `json:"context"`

	// Exportable mirrors the session assessment's TrainingEligible flag.
	// Non-exportable examples are retained but must not be exported;
	// the export stage honors this flag.
	Exportable bool `json:"exportable"`
}
