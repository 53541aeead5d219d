// Package surql renders Go values as SurrealQL literals and identifiers.
//
// The central rule: every literal is quoted/encoded EXCEPT record identifiers
// and trusted raw fragments, which are emitted verbatim. Getting this rule
// backward either breaks identifier-based joins (a quoted id no longer
// matches a record link) or opens an injection hole (unquoted caller text).
// The Value variants below make the rule an exhaustive switch instead of a
// chain of reflection checks.
package surql

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/surq-db/surq/record"
)

// Value is a sealed interface over the closed set of SurrealQL literal
// variants. Only types in this package implement it; the marker method
// enables exhaustive type switches in the renderer.
type Value interface {
	value()
}

// Null renders as the JSON null literal.
type Null struct{}

func (Null) value() {}

// Bool renders as true or false.
type Bool bool

func (Bool) value() {}

// Int renders as a base-10 integer.
type Int int64

func (Int) value() {}

// Float renders via strconv shortest-form formatting, which is
// deterministic for a given float64.
type Float float64

func (Float) value() {}

// String renders JSON-quoted with standard escapes.
type String string

func (String) value() {}

// Array renders as [elem, elem, ...] with each element rendered recursively.
type Array []Value

func (Array) value() {}

// Object renders as {"key": value, ...} with keys sorted for deterministic
// output. An Object whose "id" key holds a RecordLink renders as that
// identifier alone; passing a fetched record where an id is expected is the
// common case this covers.
type Object map[string]Value

func (Object) value() {}

// RecordLink renders a record identifier unquoted.
type RecordLink record.ID

func (RecordLink) value() {}

// String returns the canonical table:key text.
func (r RecordLink) String() string {
	return record.ID(r).String()
}

// Raw is a trusted SurrealQL fragment emitted verbatim, with no escaping.
//
// Raw is the deliberate escape hatch for constructs the typed variants do not
// cover. It is a distinct type so that untrusted input cannot become a raw
// fragment by accident: the caller must write an explicit conversion, and the
// caller is responsible for the fragment's correctness. Never build a Raw
// from user-controlled text.
type Raw string

func (Raw) value() {}

// identPattern matches identifiers and dotted paths that need no quoting.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// EscapeIdent escapes a field or table identifier. Plain identifiers and
// dotted paths pass through; anything else is backtick-wrapped with embedded
// backticks doubled.
func EscapeIdent(name string) string {
	if identPattern.MatchString(name) {
		return name
	}
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// Literal renders a Value as SurrealQL literal text.
func Literal(v Value) string {
	switch val := v.(type) {
	case Null:
		return "null"
	case Bool:
		if val {
			return "true"
		}
		return "false"
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Float:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case String:
		return quote(string(val))
	case Array:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = Literal(elem)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case Object:
		if id, ok := val["id"].(RecordLink); ok {
			return id.String()
		}
		return literalObject(val)
	case RecordLink:
		return val.String()
	case Raw:
		return string(val)
	case nil:
		return "null"
	default:
		// Unreachable while Value stays sealed.
		return quote(fmt.Sprint(val))
	}
}

func literalObject(obj Object) string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = quote(k) + ": " + Literal(obj[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// quote JSON-encodes a string. json.Marshal of a string cannot fail.
func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
