// Package record parses, validates, and canonicalizes SurrealDB record
// identifiers of the form table:key.
//
// Identifiers arrive from callers in three shapes:
//   - Canonical text: "user:123"
//   - URL-encoded text: "user%3A123" (common when ids travel through URLs)
//   - Bare keys: "123", which require a table context to canonicalize
//
// Normalize accepts all three and returns the canonical form. The canonical
// form always has a non-empty table, exactly one colon separator, and a
// non-empty key. Canonical identifiers are rendered unquoted in query text;
// see the surql package for the literal escaping rule.
package record

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// tablePattern matches valid table names: a leading letter or underscore
// followed by letters, digits, or underscores.
var tablePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ID is a parsed record identifier. The zero value is not a valid identifier.
type ID struct {
	Table string
	Key   string
}

// String returns the canonical textual form table:key.
func (id ID) String() string {
	return id.Table + ":" + id.Key
}

// IsZero reports whether the identifier is the zero value.
func (id ID) IsZero() bool {
	return id.Table == "" && id.Key == ""
}

// InvalidIDError reports why an input could not be parsed or normalized
// into a canonical record identifier.
type InvalidIDError struct {
	Input  string
	Reason string
}

func (e *InvalidIDError) Error() string {
	return fmt.Sprintf("invalid record id %q: %s", e.Input, e.Reason)
}

func invalid(input, reason string) error {
	return &InvalidIDError{Input: input, Reason: reason}
}

// Parse parses canonical table:key text into an ID.
//
// Input is Unicode-normalized (NFC) before validation so that visually
// identical identifiers compare and render identically. Parse requires
// exactly one colon with a non-empty table on the left and a non-empty,
// whitespace-free key on the right.
func Parse(s string) (ID, error) {
	s = norm.NFC.String(s)
	if s == "" {
		return ID{}, invalid(s, "empty")
	}
	if strings.Count(s, ":") != 1 {
		return ID{}, invalid(s, "expected exactly one ':' separator")
	}
	table, key, _ := strings.Cut(s, ":")
	if !tablePattern.MatchString(table) {
		return ID{}, invalid(s, "table name must match [A-Za-z_][A-Za-z0-9_]*")
	}
	if key == "" {
		return ID{}, invalid(s, "empty key")
	}
	if strings.ContainsAny(key, " \t\n\r") {
		return ID{}, invalid(s, "key must not contain whitespace")
	}
	return ID{Table: table, Key: key}, nil
}

// IsValid reports whether s is a canonical record identifier.
func IsValid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// Normalize canonicalizes value into an ID.
//
// The algorithm, in order:
//  1. If value is already canonical table:key text, it is returned as parsed.
//  2. If value contains percent sequences, it is percent-decoded and step 1
//     is retried on the decoded text.
//  3. If value contains no colon and tableContext is non-empty, the two are
//     joined as tableContext:value.
//  4. Otherwise normalization fails with *InvalidIDError. Normalize never
//     guesses.
func Normalize(value, tableContext string) (ID, error) {
	if id, err := Parse(value); err == nil {
		return id, nil
	}
	if strings.Contains(value, "%") {
		decoded, err := url.QueryUnescape(value)
		if err == nil {
			if id, perr := Parse(decoded); perr == nil {
				return id, nil
			}
		}
	}
	if !strings.Contains(value, ":") && tableContext != "" {
		return Parse(tableContext + ":" + value)
	}
	return ID{}, invalid(value, "not a canonical, encoded, or bare-key identifier")
}

// URLEncode returns the percent-encoded canonical form, suitable for
// embedding an identifier in a URL path or query component.
func URLEncode(id ID) string {
	return url.QueryEscape(id.String())
}

// URLDecode reverses URLEncode. URLDecode(URLEncode(id)) == id for every
// canonical identifier.
func URLDecode(s string) (ID, error) {
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return ID{}, invalid(s, "bad percent encoding")
	}
	return Parse(decoded)
}

// BatchFailure describes one input that BatchNormalize rejected.
type BatchFailure struct {
	Index int
	Input string
	Err   error
}

// BatchNormalize normalizes every element of values, returning the canonical
// identifiers for the inputs that normalized (in input order) and a failure
// report for each input that did not.
//
// Callers that require all-or-nothing semantics should check that the failure
// slice is empty; the normalized subset alone cannot distinguish "all valid"
// from "some rejected".
func BatchNormalize(values []string, tableContext string) ([]ID, []BatchFailure) {
	ids := make([]ID, 0, len(values))
	var failures []BatchFailure
	for i, v := range values {
		id, err := Normalize(v, tableContext)
		if err != nil {
			failures = append(failures, BatchFailure{Index: i, Input: v, Err: err})
			continue
		}
		ids = append(ids, id)
	}
	return ids, failures
}

// New returns a fresh identifier in table with a UUIDv7 key. UUIDv7 keys are
// time-ordered, which keeps newly created records clustered in index order.
func New(table string) ID {
	return ID{Table: table, Key: uuid.Must(uuid.NewV7()).String()}
}
