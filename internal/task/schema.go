package task

// FieldType is the semantic type of a filterable task field.
type FieldType string

const (
	TypeNumber FieldType = "number"
	TypeString FieldType = "string"
	TypeBool   FieldType = "bool"
	TypeDate   FieldType = "date"
	TypeList   FieldType = "list"
)

// Operator names accepted by the filter grammar. "like" is substring
// match; the parser also accepts CONTAINS as an alias.
const (
	OpEq      = "="
	OpNe      = "!="
	OpGt      = ">"
	OpGte     = ">="
	OpLt      = "<"
	OpLte     = "<="
	OpLike    = "like"
	OpIn      = "in"
	OpNotIn   = "not in"
	OpBetween = "between"
)

// FieldSpec describes one filterable field: its type, the operators that
// are valid at all, and the subset the remote API evaluates natively.
// An operator valid locally but absent from Server forces client-side
// evaluation of that condition.
type FieldSpec struct {
	Type      FieldType
	Operators []string
	Server    []string
}

// Schema maps field names to their specs. Unknown fields are rejected at
// parse time (fail-closed).
type Schema map[string]FieldSpec

var (
	comparisonOps = []string{OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpIn, OpNotIn, OpBetween}
	equalityOps   = []string{OpEq, OpNe, OpIn, OpNotIn}
	stringOps     = []string{OpEq, OpNe, OpLike, OpIn, OpNotIn}
	listOps       = []string{OpIn, OpNotIn}
)

// DefaultSchema returns the conservative default schema for Vikunja-style
// task records. The remote API handles equality and ordering comparisons
// natively but has no substring operator, so "like" never appears in a
// Server set: conditions using it always fall back to client-side
// evaluation. When the remote API version is uncertain, prefer shrinking
// Server sets over guessing.
func DefaultSchema() Schema {
	return Schema{
		"id":           {Type: TypeNumber, Operators: comparisonOps, Server: comparisonOps},
		"title":        {Type: TypeString, Operators: stringOps, Server: equalityOps},
		"description":  {Type: TypeString, Operators: stringOps, Server: nil},
		"done":         {Type: TypeBool, Operators: []string{OpEq, OpNe}, Server: []string{OpEq, OpNe}},
		"priority":     {Type: TypeNumber, Operators: comparisonOps, Server: comparisonOps},
		"percent_done": {Type: TypeNumber, Operators: comparisonOps, Server: comparisonOps},
		"due_date":     {Type: TypeDate, Operators: comparisonOps, Server: comparisonOps},
		"created":      {Type: TypeDate, Operators: comparisonOps, Server: comparisonOps},
		"updated":      {Type: TypeDate, Operators: comparisonOps, Server: comparisonOps},
		"project_id":   {Type: TypeNumber, Operators: equalityOps, Server: equalityOps},
		"labels":       {Type: TypeList, Operators: listOps, Server: listOps},
		"assignees":    {Type: TypeList, Operators: listOps, Server: nil},
	}
}

// OperatorValid reports whether op is usable with the field at all.
func (s Schema) OperatorValid(field, op string) bool {
	spec, ok := s[field]
	if !ok {
		return false
	}
	return contains(spec.Operators, op)
}

// ServerSupports reports whether the remote API evaluates op on field
// natively.
func (s Schema) ServerSupports(field, op string) bool {
	spec, ok := s[field]
	if !ok {
		return false
	}
	return contains(spec.Server, op)
}

func contains(ops []string, op string) bool {
	for _, o := range ops {
		if o == op {
			return true
		}
	}
	return false
}
