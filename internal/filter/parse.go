package filter

import (
	"fmt"
	"strconv"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/jmhooper/vikunja-mcp/internal/errors"
	"github.com/jmhooper/vikunja-mcp/internal/task"
)

// Parse turns a raw filter string into a validated Expression.
//
// Parsing is pure: identical input and schema always yield structurally
// equal expressions. Every rejection is typed and positional:
//   - PARSE_ERROR for malformed syntax
//   - VALIDATION_ERROR for unknown fields, operator/type mismatches,
//     value-arity mismatches, and unsafe substring-match values
//   - LIMIT_EXCEEDED for raw length, nesting depth, or condition count
//     above the configured ceilings
//
// Unknown fields are rejected rather than ignored (fail-closed).
func Parse(raw string, schema task.Schema, limits Limits) (*Expression, error) {
	if n := utf8.RuneCountInString(raw); n > limits.MaxLength {
		return nil, errors.NewLimitExceeded("length", limits.MaxLength, n)
	}

	toks, err := lex(raw)
	if err != nil {
		return nil, err
	}

	p := &parser{toks: toks, schema: schema, limits: limits}
	node, err := p.parseOr(1)
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, errors.NewParse(tok.pos, tok.text, "unexpected token")
	}

	root, ok := node.(*Group)
	if !ok {
		// A bare condition still gets a root group so callers have a
		// uniform shape.
		root = &Group{Logic: LogicAnd, Children: []Node{node}, pos: node.Pos()}
	}

	return &Expression{
		Root:           root,
		RawSource:      raw,
		conditionCount: p.conds,
	}, nil
}

type parser struct {
	toks   []token
	i      int
	schema task.Schema
	limits Limits
	conds  int
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) next() token {
	tok := p.toks[p.i]
	if tok.kind != tokEOF {
		p.i++
	}
	return tok
}

// parseOr parses an OR chain. depth counts group nesting starting at 1 for
// the root; it is checked on entry so runaway parenthesis nesting is
// rejected before recursing further.
func (p *parser) parseOr(depth int) (Node, error) {
	if depth > p.limits.MaxDepth {
		return nil, errors.NewLimitExceeded("nesting depth", p.limits.MaxDepth, depth)
	}

	first, err := p.parseAnd(depth)
	if err != nil {
		return nil, err
	}

	children := []Node{first}
	for p.peek().keyword() == "OR" {
		p.next()
		child, err := p.parseAnd(depth)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}

	if len(children) == 1 {
		return first, nil
	}
	return &Group{Logic: LogicOr, Children: children, pos: first.Pos()}, nil
}

func (p *parser) parseAnd(depth int) (Node, error) {
	first, err := p.parsePrimary(depth)
	if err != nil {
		return nil, err
	}

	children := []Node{first}
	for p.peek().keyword() == "AND" {
		p.next()
		child, err := p.parsePrimary(depth)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}

	if len(children) == 1 {
		return first, nil
	}
	return &Group{Logic: LogicAnd, Children: children, pos: first.Pos()}, nil
}

func (p *parser) parsePrimary(depth int) (Node, error) {
	if p.peek().kind == tokLParen {
		open := p.next()
		node, err := p.parseOr(depth + 1)
		if err != nil {
			return nil, err
		}
		if tok := p.next(); tok.kind != tokRParen {
			return nil, errors.NewParse(open.pos, "(", "unbalanced parenthesis")
		}
		return node, nil
	}
	return p.parseCondition()
}

func (p *parser) parseCondition() (Node, error) {
	tok := p.next()
	if tok.kind == tokEOF {
		return nil, errors.NewParse(tok.pos, "", "unexpected end of filter")
	}
	if tok.kind != tokIdent || tok.keyword() != "" {
		return nil, errors.NewParse(tok.pos, tok.text, "expected field name")
	}

	field := tok.text
	spec, ok := p.schema[field]
	if !ok {
		return nil, errors.NewValidation(tok.pos, field, "unknown field")
	}

	op, opPos, err := p.parseOperator()
	if err != nil {
		return nil, err
	}
	if !p.schema.OperatorValid(field, op) {
		return nil, errors.NewValidation(opPos, op,
			fmt.Sprintf("operator %q not valid for %s field %q", op, spec.Type, field))
	}

	p.conds++
	if p.conds > p.limits.MaxConditions {
		return nil, errors.NewLimitExceeded("condition count", p.limits.MaxConditions, p.conds)
	}

	values, err := p.parseValues(field, spec, op)
	if err != nil {
		return nil, err
	}

	return &Condition{Field: field, Operator: op, Values: values, pos: tok.pos}, nil
}

func (p *parser) parseOperator() (string, int, error) {
	tok := p.next()
	switch {
	case tok.kind == tokOp:
		return tok.text, tok.pos, nil
	case tok.keyword() == "LIKE" || tok.keyword() == "CONTAINS":
		return task.OpLike, tok.pos, nil
	case tok.keyword() == "IN":
		return task.OpIn, tok.pos, nil
	case tok.keyword() == "BETWEEN":
		return task.OpBetween, tok.pos, nil
	case tok.keyword() == "NOT":
		if next := p.next(); next.keyword() != "IN" {
			return "", 0, errors.NewParse(tok.pos, tok.text, "expected IN after NOT")
		}
		return task.OpNotIn, tok.pos, nil
	case tok.kind == tokEOF:
		return "", 0, errors.NewParse(tok.pos, "", "unexpected end of filter, expected operator")
	default:
		return "", 0, errors.NewParse(tok.pos, tok.text, "expected operator")
	}
}

// parseValues parses and coerces the value side of a condition, enforcing
// operator arity: "in"/"not in" take a parenthesized non-empty set,
// "between" takes exactly two values joined by AND, everything else takes
// exactly one.
func (p *parser) parseValues(field string, spec task.FieldSpec, op string) ([]Value, error) {
	switch op {
	case task.OpIn, task.OpNotIn:
		if tok := p.next(); tok.kind != tokLParen {
			return nil, errors.NewParse(tok.pos, tok.text, "expected ( after in")
		}
		if tok := p.peek(); tok.kind == tokRParen {
			return nil, errors.NewValidation(tok.pos, ")",
				fmt.Sprintf("operator %q requires a non-empty value set", op))
		}
		var values []Value
		for {
			v, err := p.parseScalar(field, spec, op)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
			tok := p.next()
			if tok.kind == tokComma {
				continue
			}
			if tok.kind == tokRParen {
				return values, nil
			}
			return nil, errors.NewParse(tok.pos, tok.text, "expected , or ) in value set")
		}

	case task.OpBetween:
		lo, err := p.parseScalar(field, spec, op)
		if err != nil {
			return nil, err
		}
		if tok := p.next(); tok.keyword() != "AND" {
			return nil, errors.NewParse(tok.pos, tok.text, "expected AND between range bounds")
		}
		hi, err := p.parseScalar(field, spec, op)
		if err != nil {
			return nil, err
		}
		return []Value{lo, hi}, nil

	default:
		v, err := p.parseScalar(field, spec, op)
		if err != nil {
			return nil, err
		}
		return []Value{v}, nil
	}
}

// parseScalar reads one literal and coerces it to the field's declared
// type. The coerced value is what evaluation later compares against.
func (p *parser) parseScalar(field string, spec task.FieldSpec, op string) (Value, error) {
	tok := p.next()
	if tok.kind == tokEOF {
		return Value{}, errors.NewParse(tok.pos, "", "unexpected end of filter, expected value")
	}

	switch spec.Type {
	case task.TypeNumber:
		if tok.kind != tokNumber {
			return Value{}, errors.NewValidation(tok.pos, tok.text,
				fmt.Sprintf("field %q expects a numeric value", field))
		}
		n, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return Value{}, errors.NewParse(tok.pos, tok.text, "malformed number")
		}
		return Value{Kind: ValueNumber, Num: n}, nil

	case task.TypeBool:
		switch tok.keyword() {
		case "TRUE":
			return Value{Kind: ValueBool, Bool: true}, nil
		case "FALSE":
			return Value{Kind: ValueBool, Bool: false}, nil
		}
		return Value{}, errors.NewValidation(tok.pos, tok.text,
			fmt.Sprintf("field %q expects true or false", field))

	case task.TypeDate:
		if tok.kind != tokString {
			return Value{}, errors.NewValidation(tok.pos, tok.text,
				fmt.Sprintf("field %q expects a quoted ISO 8601 date", field))
		}
		t, err := parseDate(tok.text)
		if err != nil {
			return Value{}, errors.NewValidation(tok.pos, tok.text,
				fmt.Sprintf("field %q expects an ISO 8601 date", field))
		}
		return Value{Kind: ValueTime, Time: t}, nil

	case task.TypeString, task.TypeList:
		if tok.kind != tokString {
			return Value{}, errors.NewValidation(tok.pos, tok.text,
				fmt.Sprintf("field %q expects a quoted string value", field))
		}
		if op == task.OpLike {
			if bad, ok := unsafeLikeRune(tok.text); !ok {
				return Value{}, errors.NewValidation(tok.pos, string(bad),
					"substring match value contains a disallowed character")
			}
		}
		return Value{Kind: ValueString, Str: tok.text}, nil

	default:
		return Value{}, errors.NewInternal(fmt.Errorf("unhandled field type %q", spec.Type))
	}
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// unsafeLikeRune checks a substring-match value against the allow-list of
// characters that cannot be abused against the remote query language:
// letters, digits, space, and - _ . : @ / #. It returns the first
// offending rune and false when the value is unsafe.
func unsafeLikeRune(s string) (rune, bool) {
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ':
		case r == '-' || r == '_' || r == '.' || r == ':' || r == '@' || r == '/' || r == '#':
		default:
			return r, false
		}
	}
	return 0, true
}
