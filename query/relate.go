package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/surq-db/surq/expr"
	"github.com/surq-db/surq/record"
	"github.com/surq-db/surq/surql"
)

// BuildRelate compiles a RELATE statement creating a graph edge from one
// record to another, optionally carrying edge attributes. Attribute keys are
// sorted for deterministic output.
func BuildRelate(from record.ID, relation string, to record.ID, attrs map[string]any) (string, error) {
	if relation == "" {
		return "", fmt.Errorf("relation name must not be empty")
	}
	q := fmt.Sprintf("RELATE %s->%s->%s", from, relation, to)
	if len(attrs) == 0 {
		return q, nil
	}

	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		val, err := surql.ValueOf(attrs[k])
		if err != nil {
			return "", fmt.Errorf("attribute %q: %w", k, err)
		}
		pairs[i] = k + ": " + surql.Literal(val)
	}
	return q + " CONTENT { " + strings.Join(pairs, ", ") + " }", nil
}

// BuildRelatedSelect compiles a graph traversal from a record across a
// relation. With project set, the traversal is aliased as "related" next to
// the source id; otherwise the reached records are selected directly. A
// non-zero cond filters the traversal.
func BuildRelatedSelect(from record.ID, relation string, project bool, cond expr.Expr) string {
	var q string
	if project {
		q = fmt.Sprintf("SELECT id, ->%s->? as related FROM %s", relation, from)
	} else {
		q = fmt.Sprintf("SELECT ->%s->* FROM %s", relation, from)
	}
	if !cond.IsZero() {
		q += " WHERE " + cond.String()
	}
	return q
}

// BuildDeleteRelation compiles a DELETE over a relation table scoped to one
// edge's endpoints.
func BuildDeleteRelation(relation string, from, to record.ID) string {
	return fmt.Sprintf("DELETE FROM %s WHERE in = %s AND out = %s", relation, from, to)
}
