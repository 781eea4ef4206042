// Package where implements the filter mini-language understood by the
// NocoDB v3 `where` query parameter.
//
// Filters are immutable value trees. Leaves are single field/operator/value
// conditions; And, Or, and Not combinators compose them. Rendering walks
// the tree and flattens it into the API's flat token stream, for example
// `(Status,eq,open)~and(Age,gte,18)`. All validation happens when a filter
// is built, so rendering is total and never fails.
//
// Values are inserted into the wire string verbatim. The grammar defines
// no escaping for its own delimiter characters (`,`, `(`, `)`, `~`), so a
// field name or value containing one of them produces an ambiguous string.
// This matches the remote parser and is deliberately not "fixed" here;
// CheckWireSafe offers an opt-in stricter check.
package where

import (
	"fmt"
	"strings"

	"github.com/sgoldberg/nocogo/fault"
)

// Filter is anything that can render itself to the wire grammar.
type Filter interface {
	// Where returns the wire-format string for this filter. It never
	// fails and always returns the same string for the same tree.
	Where() string
}

// Operator identifies a comparison in the wire grammar. The constant value
// is the wire token itself.
type Operator string

const (
	OpEq      Operator = "eq"
	OpNeq     Operator = "neq"
	OpGt      Operator = "gt"
	OpGte     Operator = "gte"
	OpLt      Operator = "lt"
	OpLte     Operator = "lte"
	OpLike    Operator = "like"
	OpNlike   Operator = "nlike"
	OpIs      Operator = "is"
	OpIn      Operator = "in"
	OpBetween Operator = "btw"
)

// isKeywords is the closed set of payloads accepted by the `is` operator.
var isKeywords = map[string]struct{}{
	"null":     {},
	"notnull":  {},
	"true":     {},
	"false":    {},
	"empty":    {},
	"notempty": {},
}

// singleValueOperators take exactly one scalar payload.
var singleValueOperators = map[Operator]struct{}{
	OpEq:    {},
	OpNeq:   {},
	OpGt:    {},
	OpGte:   {},
	OpLt:    {},
	OpLte:   {},
	OpLike:  {},
	OpNlike: {},
}

// Condition is a leaf filter: one field compared against one payload.
// The zero value is not usable; build conditions through the package
// constructors, which validate the payload shape up front.
type Condition struct {
	field  string
	op     Operator
	values []string
}

// NewCondition builds a leaf condition and validates the payload against
// the operator's shape. Accepted scalar kinds are strings, integers, and
// floats; they are formatted once here so rendering cannot fail later.
func NewCondition(field string, op Operator, values ...any) (Condition, error) {
	if field == "" {
		return Condition{}, fault.New(fault.ValidationCode, "field name is required")
	}

	formatted := make([]string, len(values))
	for i, v := range values {
		s, err := formatValue(v)
		if err != nil {
			return Condition{}, err
		}
		formatted[i] = s
	}

	if err := checkShape(op, formatted); err != nil {
		return Condition{}, err
	}

	return Condition{field: field, op: op, values: formatted}, nil
}

func checkShape(op Operator, values []string) error {
	switch op {
	case OpIs:
		if len(values) != 1 {
			return fault.New(fault.ValidationCode, "is filter takes exactly one keyword")
		}
		if _, ok := isKeywords[values[0]]; !ok {
			return fault.New(fault.ValidationCode, fmt.Sprintf("invalid is filter keyword `%s`", values[0])).
				WithMetadata(fault.FieldErrorsMetadata{"value": []string{"Must be one of: empty, false, notempty, notnull, null, true."}})
		}
	case OpIn:
		if len(values) == 0 {
			return fault.New(fault.ValidationCode, "in filter requires at least one value")
		}
	case OpBetween:
		if len(values) != 2 {
			return fault.New(fault.ValidationCode, "between filter takes exactly two values")
		}
	default:
		if _, ok := singleValueOperators[op]; !ok {
			return fault.New(fault.ValidationCode, fmt.Sprintf("unknown operator `%s`", op))
		}
		if len(values) != 1 {
			return fault.New(fault.ValidationCode, fmt.Sprintf("%s filter takes exactly one value", op))
		}
	}

	return nil
}

// Where renders the condition as `(field,op,v1[,v2,...])`.
func (c Condition) Where() string {
	return "(" + c.field + "," + string(c.op) + "," + strings.Join(c.values, ",") + ")"
}

// Field returns the condition's field name.
func (c Condition) Field() string { return c.field }

// Operator returns the condition's comparison operator.
func (c Condition) Operator() Operator { return c.op }

// Values returns a copy of the condition's formatted payload values.
func (c Condition) Values() []string {
	out := make([]string, len(c.values))
	copy(out, c.values)
	return out
}

// Eq matches records whose field equals value.
func Eq(field string, value any) (Condition, error) {
	return NewCondition(field, OpEq, value)
}

// Neq matches records whose field does not equal value.
func Neq(field string, value any) (Condition, error) {
	return NewCondition(field, OpNeq, value)
}

// Gt matches records whose field is strictly greater than value.
func Gt(field string, value any) (Condition, error) {
	return NewCondition(field, OpGt, value)
}

// Gte matches records whose field is greater than or equal to value.
func Gte(field string, value any) (Condition, error) {
	return NewCondition(field, OpGte, value)
}

// Lt matches records whose field is strictly less than value.
func Lt(field string, value any) (Condition, error) {
	return NewCondition(field, OpLt, value)
}

// Lte matches records whose field is less than or equal to value.
func Lte(field string, value any) (Condition, error) {
	return NewCondition(field, OpLte, value)
}

// Like matches records whose field contains value.
func Like(field string, value any) (Condition, error) {
	return NewCondition(field, OpLike, value)
}

// Nlike matches records whose field does not contain value.
func Nlike(field string, value any) (Condition, error) {
	return NewCondition(field, OpNlike, value)
}

// Is performs a null/empty/boolean check. The keyword must be one of
// null, notnull, true, false, empty, notempty.
func Is(field string, keyword string) (Condition, error) {
	return NewCondition(field, OpIs, keyword)
}

// In matches records whose field equals any of the given values. At least
// one value is required; order is preserved on the wire.
func In(field string, values ...any) (Condition, error) {
	return NewCondition(field, OpIn, values...)
}

// Between matches records whose field lies between start and end, rendered
// with the `btw` wire token in the given order.
func Between(field string, start, end any) (Condition, error) {
	return NewCondition(field, OpBetween, start, end)
}
