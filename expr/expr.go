// Package expr builds boolean SurrealQL expressions for filters and
// conditional aggregations.
//
// An Expr is immutable rendered text. Combinators return new expressions and
// never mutate their operands, so a shared sub-expression can be reused in
// many compositions. Every binary combination is parenthesized, which keeps
// nesting unambiguous no matter how deeply expressions are combined:
//
//	active := expr.Eq("status", "active")
//	big := expr.Gt("amount", 100).Or(expr.Eq("priority", "high"))
//	cond := active.And(big) // (status = "active" AND (amount > 100 OR priority = "high"))
package expr

import (
	"fmt"
	"strings"

	"github.com/surq-db/surq/record"
	"github.com/surq-db/surq/surql"
)

// Expr is an immutable boolean expression fragment.
type Expr struct {
	text string
}

// String returns the rendered expression text.
func (e Expr) String() string {
	return e.text
}

// IsZero reports whether the expression is empty.
func (e Expr) IsZero() bool {
	return e.text == ""
}

// And combines two expressions with AND, parenthesizing the result.
func (e Expr) And(other Expr) Expr {
	return Expr{"(" + e.text + " AND " + other.text + ")"}
}

// Or combines two expressions with OR, parenthesizing the result.
func (e Expr) Or(other Expr) Expr {
	return Expr{"(" + e.text + " OR " + other.text + ")"}
}

// Not negates an expression.
func Not(e Expr) Expr {
	return Expr{"NOT (" + e.text + ")"}
}

// Field references a field by name.
func Field(name string) Expr {
	return Expr{surql.EscapeIdent(name)}
}

// Raw wraps caller-supplied text verbatim, with no escaping or validation.
//
// This is a trust boundary: the caller vouches for the fragment. Never pass
// user-controlled input here; use the typed constructors for anything built
// from untrusted values.
func Raw(text string) Expr {
	return Expr{text}
}

// lit renders a value through the literal escaping rule. Values the rule
// cannot represent render as their quoted string form rather than failing;
// expression construction has no error channel by design.
func lit(v any) string {
	val, err := surql.ValueOf(v)
	if err != nil {
		return surql.Literal(surql.String(fmt.Sprint(v)))
	}
	return surql.Literal(val)
}

func compare(field, op string, v any) Expr {
	return Expr{surql.EscapeIdent(field) + " " + op + " " + lit(v)}
}

// Eq builds field = value.
func Eq(field string, v any) Expr { return compare(field, "=", v) }

// Ne builds field != value.
func Ne(field string, v any) Expr { return compare(field, "!=", v) }

// Gt builds field > value.
func Gt(field string, v any) Expr { return compare(field, ">", v) }

// Gte builds field >= value.
func Gte(field string, v any) Expr { return compare(field, ">=", v) }

// Lt builds field < value.
func Lt(field string, v any) Expr { return compare(field, "<", v) }

// Lte builds field <= value.
func Lte(field string, v any) Expr { return compare(field, "<=", v) }

// Between builds field BETWEEN low AND high (both bounds inclusive).
func Between(field string, low, high any) Expr {
	return Expr{surql.EscapeIdent(field) + " BETWEEN " + lit(low) + " AND " + lit(high)}
}

// In builds field IN [values].
func In(field string, values ...any) Expr {
	return compare(field, "IN", values)
}

// NotIn builds field NOT IN [values].
func NotIn(field string, values ...any) Expr {
	return compare(field, "NOT IN", values)
}

// Contains builds field CONTAINS value, for string or array fields.
func Contains(field string, v any) Expr {
	return compare(field, "CONTAINS", v)
}

// StartsWith builds string::startsWith(field, prefix).
func StartsWith(field, prefix string) Expr {
	return Expr{"string::startsWith(" + surql.EscapeIdent(field) + ", " + lit(prefix) + ")"}
}

// EndsWith builds string::endsWith(field, suffix).
func EndsWith(field, suffix string) Expr {
	return Expr{"string::endsWith(" + surql.EscapeIdent(field) + ", " + lit(suffix) + ")"}
}

// IsNull builds field = NULL.
func IsNull(field string) Expr {
	return Expr{surql.EscapeIdent(field) + " = NULL"}
}

// IsNotNull builds field != NULL.
func IsNotNull(field string) Expr {
	return Expr{surql.EscapeIdent(field) + " != NULL"}
}

// Regex builds string::matches(field, pattern).
func Regex(field, pattern string) Expr {
	return Expr{"string::matches(" + surql.EscapeIdent(field) + ", " + lit(pattern) + ")"}
}

// RecordEq builds field = id for record-identifier fields. The value may be
// canonical, URL-encoded, or a bare key (with tableContext supplying the
// table). Identifiers render unquoted; a value that fails normalization falls
// back to an ordinary quoted string comparison.
func RecordEq(field, value, tableContext string) Expr {
	return recordCompare(field, "=", value, tableContext)
}

// RecordNe builds field != id for record-identifier fields.
func RecordNe(field, value, tableContext string) Expr {
	return recordCompare(field, "!=", value, tableContext)
}

func recordCompare(field, op, value, tableContext string) Expr {
	id, err := record.Normalize(value, tableContext)
	if err != nil {
		return compare(field, op, value)
	}
	return Expr{surql.EscapeIdent(field) + " " + op + " " + id.String()}
}

// RecordIn builds field IN [ids] for record-identifier fields. Values that
// fail normalization are skipped; when none normalize, the whole list falls
// back to quoted strings so the query still parses.
func RecordIn(field string, values []string, tableContext string) Expr {
	ids, _ := record.BatchNormalize(values, tableContext)
	if len(ids) == 0 {
		strs := make([]any, len(values))
		for i, v := range values {
			strs[i] = v
		}
		return In(field, strs...)
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return Expr{surql.EscapeIdent(field) + " IN [" + strings.Join(parts, ", ") + "]"}
}

// IDEq builds id = record for the id field specifically.
func IDEq(value, tableContext string) Expr {
	return RecordEq("id", value, tableContext)
}

// IDIn builds id IN [records] for the id field specifically.
func IDIn(values []string, tableContext string) Expr {
	return RecordIn("id", values, tableContext)
}
