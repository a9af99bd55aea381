package filter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmhooper/vikunja-mcp/internal/task"
)

// Translate renders the expression into the remote API's native filter
// syntax. ok is false when any condition or logic shape has no 1:1
// server-side mapping; that is a routing signal for the hybrid strategy,
// not an error. Mismatches are treated conservatively: anything the schema does
// not explicitly mark as server-supported is incompatible.
func Translate(e *Expression, schema task.Schema) (string, bool) {
	if !Compatible(e.Root, schema) {
		return "", false
	}
	return renderNode(e.Root, true), true
}

// Compatible reports whether every condition under n is evaluable by the
// remote API per the schema's server-supported operator sets.
func Compatible(n Node, schema task.Schema) bool {
	switch node := n.(type) {
	case *Group:
		for _, child := range node.Children {
			if !Compatible(child, schema) {
				return false
			}
		}
		return true
	case *Condition:
		return schema.ServerSupports(node.Field, node.Operator)
	default:
		return false
	}
}

// Split partitions a root-level AND into a server-evaluable prefilter and
// a local remainder. Both results are nil when the root is an OR (a
// partial OR pushdown would change semantics) or when the respective side
// is empty. The remainder must be evaluated client-side against the
// prefiltered item set.
func Split(e *Expression, schema task.Schema) (server, local *Expression) {
	if e.Root.Logic != LogicAnd {
		return nil, nil
	}

	var serverChildren, localChildren []Node
	for _, child := range e.Root.Children {
		if Compatible(child, schema) {
			serverChildren = append(serverChildren, child)
		} else {
			localChildren = append(localChildren, child)
		}
	}
	if len(serverChildren) == 0 || len(localChildren) == 0 {
		return nil, nil
	}

	return subExpression(e, serverChildren), subExpression(e, localChildren)
}

// Render writes the expression back out in filter syntax without
// consulting a schema, so it can include conditions the remote API
// cannot evaluate. Used to name the parts of a filter that ran locally.
func Render(e *Expression) string {
	return renderNode(e.Root, true)
}

func subExpression(e *Expression, children []Node) *Expression {
	root := &Group{Logic: LogicAnd, Children: children, pos: children[0].Pos()}
	count := 0
	for _, child := range children {
		count += countConditions(child)
	}
	return &Expression{Root: root, RawSource: e.RawSource, conditionCount: count}
}

func countConditions(n Node) int {
	group, ok := n.(*Group)
	if !ok {
		return 1
	}
	count := 0
	for _, child := range group.Children {
		count += countConditions(child)
	}
	return count
}

func renderNode(n Node, root bool) string {
	switch node := n.(type) {
	case *Group:
		sep := " && "
		if node.Logic == LogicOr {
			sep = " || "
		}
		parts := make([]string, len(node.Children))
		for i, child := range node.Children {
			parts[i] = renderNode(child, false)
		}
		joined := strings.Join(parts, sep)
		if root || len(node.Children) == 1 {
			return joined
		}
		return "(" + joined + ")"

	case *Condition:
		return renderCondition(node)

	default:
		return ""
	}
}

func renderCondition(c *Condition) string {
	switch c.Operator {
	case task.OpBetween:
		// The remote dialect has no between; the range pair is its exact
		// equivalent.
		return fmt.Sprintf("(%s >= %s && %s <= %s)",
			c.Field, renderValue(c.Values[0]), c.Field, renderValue(c.Values[1]))
	case task.OpIn, task.OpNotIn:
		parts := make([]string, len(c.Values))
		for i, v := range c.Values {
			parts[i] = renderValue(v)
		}
		return fmt.Sprintf("%s %s %s", c.Field, c.Operator, strings.Join(parts, ", "))
	case task.OpLike:
		return fmt.Sprintf("%s like %s", c.Field, renderValue(c.Values[0]))
	default:
		return fmt.Sprintf("%s %s %s", c.Field, c.Operator, renderValue(c.Values[0]))
	}
}

func renderValue(v Value) string {
	switch v.Kind {
	case ValueNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case ValueBool:
		return strconv.FormatBool(v.Bool)
	case ValueTime:
		return "'" + v.Time.Format(time.RFC3339) + "'"
	default:
		return "'" + strings.ReplaceAll(v.Str, "'", `\'`) + "'"
	}
}
