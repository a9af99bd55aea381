package filter

import (
	"strings"
	"time"

	"github.com/jmhooper/vikunja-mcp/internal/task"
)

// EvalOptions tunes client-side evaluation.
type EvalOptions struct {
	// LikeCaseSensitive makes substring matches case-sensitive. The
	// default (false) mirrors the remote API's collation so a filter
	// evaluated locally matches the same tasks it would server-side.
	LikeCaseSensitive bool
}

// Evaluate applies the expression as a boolean predicate over items and
// returns the matches. AND/OR groups short-circuit left to right: an AND
// stops at its first false child, an OR at its first true child.
//
// Callers must run the memory risk gate before materializing the result;
// Evaluate itself allocates only the matched subset.
func Evaluate(e *Expression, items []task.Task, opts EvalOptions) []task.Task {
	matched := make([]task.Task, 0, len(items))
	for i := range items {
		if evalNode(e.Root, &items[i], opts, nil) {
			matched = append(matched, items[i])
		}
	}
	return matched
}

// evalStats counts condition-leaf evaluations; used by tests to verify
// short-circuit behavior. A nil stats pointer disables counting.
type evalStats struct {
	conditions int
}

func evalNode(n Node, t *task.Task, opts EvalOptions, stats *evalStats) bool {
	switch node := n.(type) {
	case *Group:
		if node.Logic == LogicAnd {
			for _, child := range node.Children {
				if !evalNode(child, t, opts, stats) {
					return false
				}
			}
			return true
		}
		for _, child := range node.Children {
			if evalNode(child, t, opts, stats) {
				return true
			}
		}
		return false

	case *Condition:
		if stats != nil {
			stats.conditions++
		}
		return evalCondition(node, t, opts)

	default:
		return false
	}
}

func evalCondition(c *Condition, t *task.Task, opts EvalOptions) bool {
	fieldVal, ok := t.Field(c.Field)
	if !ok {
		// Parse already rejected unknown fields; an unmatched name here
		// means the schema and record type drifted apart. Fail closed.
		return false
	}

	// List fields (labels, assignees) only support membership operators.
	if list, isList := fieldVal.([]string); isList {
		return evalListMembership(c, list)
	}

	switch c.Operator {
	case task.OpIn:
		for _, v := range c.Values {
			if scalarEqual(fieldVal, v) {
				return true
			}
		}
		return false
	case task.OpNotIn:
		for _, v := range c.Values {
			if scalarEqual(fieldVal, v) {
				return false
			}
		}
		return true
	case task.OpBetween:
		return compareScalar(fieldVal, c.Values[0]) >= 0 && compareScalar(fieldVal, c.Values[1]) <= 0
	case task.OpEq:
		return scalarEqual(fieldVal, c.Values[0])
	case task.OpNe:
		return !scalarEqual(fieldVal, c.Values[0])
	case task.OpGt:
		return compareScalar(fieldVal, c.Values[0]) > 0
	case task.OpGte:
		return compareScalar(fieldVal, c.Values[0]) >= 0
	case task.OpLt:
		return compareScalar(fieldVal, c.Values[0]) < 0
	case task.OpLte:
		return compareScalar(fieldVal, c.Values[0]) <= 0
	case task.OpLike:
		s, _ := fieldVal.(string)
		needle := c.Values[0].Str
		if !opts.LikeCaseSensitive {
			return strings.Contains(strings.ToLower(s), strings.ToLower(needle))
		}
		return strings.Contains(s, needle)
	default:
		return false
	}
}

// evalListMembership handles "in"/"not in" against list-typed fields:
// "in" matches when any element equals any of the condition's values.
func evalListMembership(c *Condition, list []string) bool {
	anyMatch := false
	for _, elem := range list {
		for _, v := range c.Values {
			if elem == v.Str {
				anyMatch = true
			}
		}
	}
	if c.Operator == task.OpNotIn {
		return !anyMatch
	}
	return anyMatch
}

// scalarEqual compares a task field value against a coerced literal using
// the same coercion rules the parser validated under: numeric fields
// numerically, dates as instants, strings exactly.
func scalarEqual(fieldVal any, v Value) bool {
	switch v.Kind {
	case ValueNumber:
		n, ok := asFloat(fieldVal)
		return ok && n == v.Num
	case ValueBool:
		b, ok := fieldVal.(bool)
		return ok && b == v.Bool
	case ValueTime:
		t, ok := fieldVal.(time.Time)
		return ok && t.Equal(v.Time)
	case ValueString:
		s, ok := fieldVal.(string)
		return ok && s == v.Str
	default:
		return false
	}
}

// compareScalar returns -1, 0, or 1 for ordered comparisons. Mismatched
// kinds compare as "less" so ordered operators fail closed.
func compareScalar(fieldVal any, v Value) int {
	switch v.Kind {
	case ValueNumber:
		n, ok := asFloat(fieldVal)
		if !ok {
			return -1
		}
		switch {
		case n < v.Num:
			return -1
		case n > v.Num:
			return 1
		}
		return 0
	case ValueTime:
		t, ok := fieldVal.(time.Time)
		if !ok {
			return -1
		}
		switch {
		case t.Before(v.Time):
			return -1
		case t.After(v.Time):
			return 1
		}
		return 0
	case ValueString:
		s, ok := fieldVal.(string)
		if !ok {
			return -1
		}
		return strings.Compare(s, v.Str)
	default:
		return -1
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
