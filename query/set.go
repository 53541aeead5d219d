package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/surq-db/surq/expr"
	"github.com/surq-db/surq/record"
	"github.com/surq-db/surq/surql"
)

// Order is one ORDER BY term.
type Order struct {
	Field     string
	Direction string // "ASC" or "DESC"
}

// Range selects records between two identifier keys in the same table.
type Range struct {
	Start     record.ID
	End       record.ID
	Inclusive bool // include End in the range
}

// Set accumulates builder state for one query.
//
// A Set is a single-writer object: it must not be shared across goroutines
// without Clone. Deriving a variant query (for example a counted copy of a
// filtered base) should always go through Clone so the base is untouched.
//
// Builder methods record the first error encountered and otherwise chain;
// the error surfaces from Err and from every Build method.
type Set struct {
	collection string
	conds      []Condition
	orders     []Order
	limit      *int
	start      *int
	groupBy    []string
	splitOn    []string
	fetch      []string
	indexHint  string
	noIndex    bool
	bulkIDs    []record.ID
	idRange    *Range
	err        error
}

// NewSet creates a builder targeting a collection.
func NewSet(collection string) *Set {
	return &Set{collection: collection}
}

// Collection returns the selection target's collection name.
func (s *Set) Collection() string {
	return s.collection
}

// Err returns the first builder error, or nil.
func (s *Set) Err() error {
	return s.err
}

func (s *Set) fail(err error) *Set {
	if s.err == nil {
		s.err = err
	}
	return s
}

// Clone returns an independent copy of the builder state. Branching a query
// (base filters shared by several variants) must clone first; see the
// single-writer note on Set.
func (s *Set) Clone() *Set {
	dup := &Set{
		collection: s.collection,
		conds:      append([]Condition(nil), s.conds...),
		orders:     append([]Order(nil), s.orders...),
		groupBy:    append([]string(nil), s.groupBy...),
		splitOn:    append([]string(nil), s.splitOn...),
		fetch:      append([]string(nil), s.fetch...),
		indexHint:  s.indexHint,
		noIndex:    s.noIndex,
		bulkIDs:    append([]record.ID(nil), s.bulkIDs...),
		err:        s.err,
	}
	if s.limit != nil {
		n := *s.limit
		dup.limit = &n
	}
	if s.start != nil {
		n := *s.start
		dup.start = &n
	}
	if s.idRange != nil {
		r := *s.idRange
		dup.idRange = &r
	}
	return dup
}

// Filter adds field__operator conditions, ANDed with existing ones.
func (s *Set) Filter(filters F) *Set {
	conds, err := parseFilters(s.collection, filters)
	if err != nil {
		return s.fail(err)
	}
	s.conds = append(s.conds, conds...)
	return s
}

// Where adds a pre-built expression as a condition.
func (s *Set) Where(e expr.Expr) *Set {
	if e.IsZero() {
		return s
	}
	s.conds = append(s.conds, Condition{Field: e.String(), kind: condRaw})
	return s
}

// OrderBy appends an ordering term.
func (s *Set) OrderBy(field, direction string) *Set {
	s.orders = append(s.orders, Order{Field: surql.EscapeIdent(field), Direction: direction})
	return s
}

// Limit caps the number of results.
func (s *Set) Limit(n int) *Set {
	s.limit = &n
	return s
}

// Start skips the first n results.
func (s *Set) Start(n int) *Set {
	s.start = &n
	return s
}

// Page sets LIMIT and START from a 1-based page number and page size.
func (s *Set) Page(number, size int) *Set {
	if number < 1 {
		return s.fail(fmt.Errorf("page number must be 1 or greater, got %d", number))
	}
	if size < 1 {
		return s.fail(fmt.Errorf("page size must be 1 or greater, got %d", size))
	}
	offset := (number - 1) * size
	s.limit = &size
	s.start = &offset
	return s
}

// GroupBy appends GROUP BY fields.
func (s *Set) GroupBy(fields ...string) *Set {
	s.groupBy = append(s.groupBy, fields...)
	return s
}

// Split appends SPLIT fields.
func (s *Set) Split(fields ...string) *Set {
	s.splitOn = append(s.splitOn, fields...)
	return s
}

// Fetch appends FETCH fields, resolving record links in a single query.
func (s *Set) Fetch(fields ...string) *Set {
	s.fetch = append(s.fetch, fields...)
	return s
}

// WithIndex hints the named index.
func (s *Set) WithIndex(name string) *Set {
	s.indexHint = name
	s.noIndex = false
	return s
}

// NoIndex forces a table scan.
func (s *Set) NoIndex() *Set {
	s.indexHint = ""
	s.noIndex = true
	return s
}

// IDs selects specific records by identifier, using direct record access
// instead of a WHERE clause.
func (s *Set) IDs(ids ...record.ID) *Set {
	s.bulkIDs = append(s.bulkIDs, ids...)
	return s
}

// IDRange selects records between two identifier keys using record range
// syntax (table:start..end, or ..= when inclusive).
func (s *Set) IDRange(start, end record.ID, inclusive bool) *Set {
	if start.Table != end.Table {
		return s.fail(fmt.Errorf("id range spans tables %q and %q", start.Table, end.Table))
	}
	s.idRange = &Range{Start: start, End: end, Inclusive: inclusive}
	return s
}

// target renders the FROM target: direct record ids or ranges when selected,
// the collection name otherwise.
func (s *Set) target() string {
	if len(s.bulkIDs) > 0 {
		parts := make([]string, len(s.bulkIDs))
		for i, id := range s.bulkIDs {
			parts[i] = id.String()
		}
		return strings.Join(parts, ", ")
	}
	if s.idRange != nil {
		sep := ".."
		if s.idRange.Inclusive {
			sep = "..="
		}
		return s.idRange.Start.String() + sep + s.idRange.End.Key
	}
	return s.collection
}

// whereConditions renders each predicate clause.
func (s *Set) whereConditions() []string {
	parts := make([]string, len(s.conds))
	for i, c := range s.conds {
		parts[i] = c.render()
	}
	return parts
}

// Conditions renders each accumulated predicate clause, ready to be joined
// with AND. Aggregation pipelines use this to fold a base query's filters
// into their pre-grouping WHERE.
func (s *Set) Conditions() []string {
	return s.whereConditions()
}

// buildClauses renders the trailing clauses in the fixed order the dialect
// requires: WHERE, GROUP BY, SPLIT, FETCH, WITH INDEX, ORDER BY, LIMIT,
// START. A clause is emitted only when its state is non-empty. The order must
// not change.
func (s *Set) buildClauses() []string {
	var clauses []string

	if len(s.conds) > 0 {
		clauses = append(clauses, "WHERE "+strings.Join(s.whereConditions(), " AND "))
	}
	if len(s.groupBy) > 0 {
		clauses = append(clauses, "GROUP BY "+strings.Join(s.groupBy, ", "))
	}
	if len(s.splitOn) > 0 {
		clauses = append(clauses, "SPLIT "+strings.Join(s.splitOn, ", "))
	}
	if len(s.fetch) > 0 {
		clauses = append(clauses, "FETCH "+strings.Join(s.fetch, ", "))
	}
	if s.indexHint != "" {
		clauses = append(clauses, "WITH INDEX "+s.indexHint)
	} else if s.noIndex {
		clauses = append(clauses, "WITH NOINDEX")
	}
	if len(s.orders) > 0 {
		terms := make([]string, len(s.orders))
		for i, o := range s.orders {
			terms[i] = o.Field + " " + o.Direction
		}
		clauses = append(clauses, "ORDER BY "+strings.Join(terms, ", "))
	}
	if s.limit != nil {
		clauses = append(clauses, fmt.Sprintf("LIMIT %d", *s.limit))
	}
	if s.start != nil {
		clauses = append(clauses, fmt.Sprintf("START %d", *s.start))
	}

	return clauses
}

// BuildSelect compiles the accumulated state into a SELECT statement.
func (s *Set) BuildSelect() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	q := "SELECT * FROM " + s.target()
	for _, clause := range s.buildClauses() {
		q += " " + clause
	}
	return q, nil
}

// BuildCount compiles a count query over the same filters. Trailing clauses
// other than WHERE do not change the count and are omitted.
func (s *Set) BuildCount() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	q := "SELECT count() FROM " + s.target()
	if len(s.conds) > 0 {
		q += " WHERE " + strings.Join(s.whereConditions(), " AND ")
	}
	q += " GROUP ALL"
	return q, nil
}

// BuildUpdate compiles an UPDATE statement setting the given fields on every
// matching record. Field names are sorted for deterministic output.
func (s *Set) BuildUpdate(data map[string]any) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("update requires at least one field")
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	assignments := make([]string, len(keys))
	for i, k := range keys {
		val, err := surql.ValueOf(data[k])
		if err != nil {
			return "", &InvalidFilterError{Field: k, Err: err}
		}
		assignments[i] = surql.EscapeIdent(k) + " = " + surql.Literal(val)
	}

	q := "UPDATE " + s.target() + " SET " + strings.Join(assignments, ", ")
	if len(s.conds) > 0 {
		q += " WHERE " + strings.Join(s.whereConditions(), " AND ")
	}
	return q, nil
}

// BuildDelete compiles a DELETE statement. Bulk id selection uses direct
// record deletion without a WHERE clause.
func (s *Set) BuildDelete() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if len(s.bulkIDs) > 0 {
		return "DELETE " + s.target(), nil
	}
	q := "DELETE FROM " + s.target()
	if len(s.conds) > 0 {
		q += " WHERE " + strings.Join(s.whereConditions(), " AND ")
	}
	return q, nil
}

// BuildInsert compiles a bulk INSERT for the given rows. Row keys are sorted
// for deterministic output.
func (s *Set) BuildInsert(rows []map[string]any) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("insert requires at least one row")
	}
	values := make(surql.Array, len(rows))
	for i, row := range rows {
		val, err := surql.ValueOf(map[string]any(row))
		if err != nil {
			return "", fmt.Errorf("row %d: %w", i, err)
		}
		values[i] = val
	}
	return "INSERT INTO " + s.collection + " " + surql.Literal(values) + ";", nil
}

// BuildSelectRecord compiles a direct point lookup for one identifier.
func BuildSelectRecord(id record.ID) string {
	return "SELECT * FROM " + id.String()
}

// SuggestIndexes proposes DEFINE INDEX statements for the current filter and
// ordering fields. Output is sorted and de-duplicated.
func (s *Set) SuggestIndexes() []string {
	analyzed := make(map[string]bool)
	suggestions := make(map[string]bool)

	for _, c := range s.conds {
		if c.kind != condCompare || c.Field == "id" || analyzed[c.Field] {
			continue
		}
		analyzed[c.Field] = true
		suggestions[fmt.Sprintf("DEFINE INDEX idx_%s_%s ON %s FIELDS %s",
			s.collection, c.Field, s.collection, c.Field)] = true
	}

	if len(analyzed) > 1 {
		fields := make([]string, 0, len(analyzed))
		for f := range analyzed {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		suggestions[fmt.Sprintf("DEFINE INDEX idx_%s_compound ON %s FIELDS %s",
			s.collection, s.collection, strings.Join(fields, ", "))] = true
	}

	for _, o := range s.orders {
		if analyzed[o.Field] {
			continue
		}
		suggestions[fmt.Sprintf("DEFINE INDEX idx_%s_%s ON %s FIELDS %s",
			s.collection, o.Field, s.collection, o.Field)] = true
	}

	out := make([]string, 0, len(suggestions))
	for sgg := range suggestions {
		out = append(out, sgg)
	}
	sort.Strings(out)
	return out
}
