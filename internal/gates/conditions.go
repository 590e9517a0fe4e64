package gates

import (
	"strconv"
	"strings"

	"github.com/tracecart/curator/internal/types"
)

// evaluateConditions applies a rule's condition expression left-to-right
// against the session's score record. Each condition's logical operator
// joins it with the next one (no precedence, matching the configured
// order). An empty list is vacuously true; an unknown operator makes its
// condition false, so misconfigured rules never trigger.
func evaluateConditions(conds []types.RuleCondition, scores types.CategoryScores, overall float64) bool {
	if len(conds) == 0 {
		return true
	}

	result := evaluateCondition(conds[0], scores, overall)
	for i := 1; i < len(conds); i++ {
		next := evaluateCondition(conds[i], scores, overall)
		switch conds[i-1].Logical {
		case types.LogicalOR:
			result = result || next
		default: // AND is the default join
			result = result && next
		}
	}
	return result
}

func evaluateCondition(cond types.RuleCondition, scores types.CategoryScores, overall float64) bool {
	value, ok := lookupField(cond.Field, scores, overall)
	if !ok {
		return false
	}

	switch cond.Operator {
	case types.OpGT:
		return value > cond.Value
	case types.OpGTE:
		return value >= cond.Value
	case types.OpLT:
		return value < cond.Value
	case types.OpLTE:
		return value <= cond.Value
	case types.OpEQ:
		return value == cond.Value
	case types.OpNEQ:
		return value != cond.Value
	case types.OpContains:
		return strings.Contains(formatScore(value), cond.StringValue)
	case types.OpNotContains:
		return !strings.Contains(formatScore(value), cond.StringValue)
	default:
		return false
	}
}

func lookupField(field string, scores types.CategoryScores, overall float64) (float64, bool) {
	if v, ok := scores[field]; ok {
		return v, true
	}
	if field == string(types.CategoryOverall) {
		return overall, true
	}
	return 0, false
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
