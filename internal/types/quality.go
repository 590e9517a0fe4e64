package types

import "time"

// QualityCategory names the score dimensions a threshold rule can bind to.
type QualityCategory string

const (
	CategoryOverall           QualityCategory = "overall"
	CategoryCompleteness      QualityCategory = "completeness"
	CategoryReliability       QualityCategory = "reliability"
	CategoryConsistency       QualityCategory = "consistency"
	CategoryTrainingReadiness QualityCategory = "training_readiness"
)

// IsValid checks if the category is one of the known score dimensions
func (c QualityCategory) IsValid() bool {
	switch c {
	case CategoryOverall, CategoryCompleteness, CategoryReliability,
		CategoryConsistency, CategoryTrainingReadiness:
		return true
	}
	return false
}

// RuleAction is the outcome a triggered threshold rule demands.
type RuleAction string

const (
	ActionAccept RuleAction = "accept"
	ActionFlag   RuleAction = "flag"
	ActionWarn   RuleAction = "warn"
	ActionReject RuleAction = "reject"
)

// IsValid checks if the action is a known gate outcome
func (a RuleAction) IsValid() bool {
	switch a {
	case ActionAccept, ActionFlag, ActionWarn, ActionReject:
		return true
	}
	return false
}

// ConditionOperator compares a score-record field against a rule value.
type ConditionOperator string

const (
	OpGT          ConditionOperator = "gt"
	OpGTE         ConditionOperator = "gte"
	OpLT          ConditionOperator = "lt"
	OpLTE         ConditionOperator = "lte"
	OpEQ          ConditionOperator = "eq"
	OpNEQ         ConditionOperator = "neq"
	OpContains    ConditionOperator = "contains"
	OpNotContains ConditionOperator = "not_contains"
)

// IsValid checks if the operator is supported by condition evaluation
func (o ConditionOperator) IsValid() bool {
	switch o {
	case OpGT, OpGTE, OpLT, OpLTE, OpEQ, OpNEQ, OpContains, OpNotContains:
		return true
	}
	return false
}

// LogicalOperator joins a condition with the one that follows it.
type LogicalOperator string

const (
	LogicalAND LogicalOperator = "AND"
	LogicalOR  LogicalOperator = "OR"
)

// RuleCondition is one clause of a rule's optional condition expression,
// evaluated left-to-right against the session's score record.
type RuleCondition struct {
	Field    string            `json:"field" yaml:"field"`
	Operator ConditionOperator `json:"operator" yaml:"operator"`
	Value    float64           `json:"value" yaml:"value"`
	// StringValue is used instead of Value for contains/not_contains.
	StringValue string `json:"string_value,omitempty" yaml:"string_value,omitempty"`
	// Logical joins this condition with the next one. Defaults to AND.
	Logical LogicalOperator `json:"logical_operator,omitempty" yaml:"logical_operator,omitempty"`
}

// QualityThresholdRule is a configured gate rule. Rules are mutable via
// the administrative surface but read-only to the gate at evaluation
// time (the registry hands the gate an immutable snapshot).
type QualityThresholdRule struct {
	ID       string          `json:"id" yaml:"id"`
	Name     string          `json:"name" yaml:"name"`
	Category QualityCategory `json:"category" yaml:"category"`

	// MinScore/MaxScore bound when the rule is "in range": the rule only
	// participates when the relevant score falls in [MinScore, MaxScore].
	MinScore float64 `json:"min_score" yaml:"min_score"`
	MaxScore float64 `json:"max_score" yaml:"max_score"`

	Action RuleAction `json:"action" yaml:"action"`

	// Priority orders evaluation; lower value wins when multiple rules
	// trigger simultaneously (reject always wins regardless).
	Priority int  `json:"priority" yaml:"priority"`
	Enabled  bool `json:"enabled" yaml:"enabled"`

	Conditions []RuleCondition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// CategoryScores is a session's score record: category name -> score.
// Scores are on a 0-100 scale.
type CategoryScores map[string]float64

// ThresholdResult records the evaluation of one triggered rule.
type ThresholdResult struct {
	RuleID   string          `json:"rule_id"`
	RuleName string          `json:"rule_name"`
	Category QualityCategory `json:"category"`
	Score    float64         `json:"score"`
	Passed   bool            `json:"passed"`
	Action   RuleAction      `json:"action"`
	Message  string          `json:"message"`
}

// QualityAssessment is the gate's verdict for one session.
type QualityAssessment struct {
	SessionID        string            `json:"session_id"`
	OverallScore     float64           `json:"overall_score"`
	CategoryScores   CategoryScores    `json:"category_scores"`
	ThresholdResults []ThresholdResult `json:"threshold_results"`
	FinalAction      RuleAction        `json:"final_action"`

	// Recommendations and ImprovementSuggestions are generated advice,
	// non-authoritative.
	Recommendations        []string `json:"recommendations,omitempty"`
	ImprovementSuggestions []string `json:"improvement_suggestions,omitempty"`

	// TrainingEligible is true only when FinalAction is accept or warn.
	TrainingEligible bool `json:"training_eligible"`

	AssessedAt time.Time `json:"assessed_at"`
}

// QualityTrend is one append-only trend-log record, written as a side
// effect of every assessment.
type QualityTrend struct {
	ID             string         `json:"id"`
	SessionID      string         `json:"session_id"`
	Timestamp      time.Time      `json:"timestamp"`
	OverallScore   float64        `json:"overall_score"`
	CategoryScores CategoryScores `json:"category_scores"`
	Action         RuleAction     `json:"action"`
}

// QualityMetrics aggregates the trend log over a time range.
type QualityMetrics struct {
	Sessions         int                `json:"sessions"`
	ActionCounts     map[RuleAction]int `json:"action_counts"`
	AverageOverall   float64            `json:"average_overall"`
	CategoryAverages CategoryScores     `json:"category_averages"`
	EligibleRatio    float64            `json:"eligible_ratio"` // accepted+warned / sessions
}
