// Package query compiles fluent builder state into SurrealQL statement text.
//
// Filters use field__operator argument names, split on the double underscore:
//
//	query.F{"status": "completed", "amount__gte": 100}
//
// compiles to
//
//	status = "completed" AND amount >= 100
//
// The compiler is synchronous and side-effect-free: it walks accumulated
// builder state once and emits text. It performs no I/O; executing the text
// is the exec package's job.
package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/surq-db/surq/record"
	"github.com/surq-db/surq/surql"
)

// F holds filter arguments: field__operator names mapped to values.
type F map[string]any

// Operator is a rendered comparison operator.
type Operator string

const (
	OpEq        Operator = "="
	OpNe        Operator = "!="
	OpGt        Operator = ">"
	OpLt        Operator = "<"
	OpGte       Operator = ">="
	OpLte       Operator = "<="
	OpInside    Operator = "INSIDE"
	OpNotInside Operator = "NOT INSIDE"
	OpContains  Operator = "CONTAINS"
)

type condKind int

const (
	// condCompare renders "field <op> <literal>".
	condCompare condKind = iota
	// condPredicate renders "<predicate> = true"; Field holds a rendered
	// function call such as string::contains(name, 'Al').
	condPredicate
	// condRaw renders Field verbatim (expression filters).
	condRaw
)

// Condition is one compiled predicate clause.
type Condition struct {
	Field string
	Op    Operator
	Value surql.Value

	kind condKind
}

// render emits the clause text for a WHERE conjunction.
func (c Condition) render() string {
	switch c.kind {
	case condPredicate:
		return c.Field + " = true"
	case condRaw:
		return c.Field
	default:
		return c.Field + " " + string(c.Op) + " " + surql.Literal(c.Value)
	}
}

// parseFilters compiles filter arguments into predicate clauses. Keys are
// processed in sorted order so compiled text is deterministic regardless of
// map iteration order. collection supplies the table context for bare id
// values; it may be empty.
func parseFilters(collection string, filters F) ([]Condition, error) {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conds := make([]Condition, 0, len(keys))
	for _, k := range keys {
		cond, err := parseFilter(collection, k, filters[k])
		if err != nil {
			return nil, err
		}
		conds = append(conds, cond)
	}
	return conds, nil
}

// CompileFilters renders filter arguments into clause strings ready to be
// joined with AND. Aggregation pipelines reuse this for match and having
// stages; having filters pass an empty collection since aliases carry no
// table context.
func CompileFilters(collection string, filters F) ([]string, error) {
	conds, err := parseFilters(collection, filters)
	if err != nil {
		return nil, err
	}
	parts := make([]string, len(conds))
	for i, c := range conds {
		parts[i] = c.render()
	}
	return parts, nil
}

func parseFilter(collection, key string, value any) (Condition, error) {
	if key == "id" {
		return idCondition(collection, value)
	}

	field, suffix, hasSuffix := strings.Cut(key, "__")
	field = surql.EscapeIdent(field)
	if !hasSuffix {
		return compareCondition(field, OpEq, value)
	}

	switch suffix {
	case "gt":
		return compareCondition(field, OpGt, value)
	case "lt":
		return compareCondition(field, OpLt, value)
	case "gte":
		return compareCondition(field, OpGte, value)
	case "lte":
		return compareCondition(field, OpLte, value)
	case "ne":
		return compareCondition(field, OpNe, value)
	case "in":
		return compareCondition(field, OpInside, value)
	case "nin":
		return compareCondition(field, OpNotInside, value)
	case "contains":
		if s, ok := value.(string); ok {
			return Condition{
				Field: fmt.Sprintf("string::contains(%s, %s)", field, singleQuote(s)),
				kind:  condPredicate,
			}, nil
		}
		return compareCondition(field, OpContains, value)
	case "startswith":
		return stringPredicate("string::startsWith", field, value)
	case "endswith":
		return stringPredicate("string::endsWith", field, value)
	case "regex":
		return Condition{
			Field: fmt.Sprintf("string::matches(%s, r%s)", field, singleQuote(fmt.Sprint(value))),
			kind:  condPredicate,
		}, nil
	default:
		return Condition{}, &UnknownOperatorError{Suffix: suffix}
	}
}

func stringPredicate(fn, field string, value any) (Condition, error) {
	return Condition{
		Field: fmt.Sprintf("%s(%s, %s)", fn, field, singleQuote(fmt.Sprint(value))),
		kind:  condPredicate,
	}, nil
}

func compareCondition(field string, op Operator, value any) (Condition, error) {
	val, err := surql.ValueOf(value)
	if err != nil {
		return Condition{}, &InvalidFilterError{Field: field, Err: err}
	}
	return Condition{Field: field, Op: op, Value: val}, nil
}

// idCondition special-cases the id field: identifier-shaped values render
// unquoted, and bare keys are joined with the owning collection's name to
// form a canonical identifier before emission.
func idCondition(collection string, value any) (Condition, error) {
	switch v := value.(type) {
	case record.ID:
		return Condition{Field: "id", Op: OpEq, Value: surql.RecordLink(v)}, nil
	case string:
		if id, err := record.Normalize(v, collection); err == nil {
			return Condition{Field: "id", Op: OpEq, Value: surql.RecordLink(id)}, nil
		}
		return Condition{Field: "id", Op: OpEq, Value: surql.String(v)}, nil
	default:
		return compareCondition("id", OpEq, value)
	}
}

// singleQuote renders a single-quoted SurrealQL string for the function-call
// predicate templates.
func singleQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}
