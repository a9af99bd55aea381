package filter

import (
	"time"
)

// Logic is the connective of a group.
type Logic string

const (
	LogicAnd Logic = "AND"
	LogicOr  Logic = "OR"
)

// Node is implemented by Condition and Group.
// The marker method keeps the set closed.
type Node interface {
	// Pos returns the byte offset of the node in the raw source.
	Pos() int

	nodeMarker()
}

// ValueKind identifies the coerced type of a literal value.
type ValueKind int

const (
	ValueString ValueKind = iota
	ValueNumber
	ValueBool
	ValueTime
)

// Value is a literal value coerced to its field's declared type at parse
// time. Evaluation reuses the coerced value, so parse-time validation and
// evaluation semantics cannot diverge.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
	Time time.Time
}

// Condition is a single field comparison. Values holds one entry for
// scalar operators, two for "between", and one or more for "in"/"not in".
type Condition struct {
	Field    string
	Operator string
	Values   []Value

	pos int
}

// Pos returns the byte offset of the condition's field name.
func (c *Condition) Pos() int { return c.pos }

func (c *Condition) nodeMarker() {}

// Group is an AND/OR combination of conditions and nested groups.
// A group always has at least one child.
type Group struct {
	Logic    Logic
	Children []Node

	pos int
}

// Pos returns the byte offset of the group's first token.
func (g *Group) Pos() int { return g.pos }

func (g *Group) nodeMarker() {}

// Expression is a parsed, validated filter. Immutable once constructed;
// RawSource is retained for diagnostics only.
type Expression struct {
	Root      *Group
	RawSource string

	conditionCount int
}

// ConditionCount returns the number of condition leaves in the expression.
func (e *Expression) ConditionCount() int { return e.conditionCount }

// Limits bounds a filter expression at parse time. All three ceilings are
// DoS bounds: parsing rejects anything above them before evaluation.
type Limits struct {
	MaxLength     int
	MaxDepth      int
	MaxConditions int
}

// DefaultLimits returns the default parse-time ceilings.
func DefaultLimits() Limits {
	return Limits{
		MaxLength:     4096,
		MaxDepth:      6,
		MaxConditions: 50,
	}
}
