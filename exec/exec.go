// Package exec runs compiled query text against a caller-supplied
// connection. The compiler packages never touch the wire; this is the only
// place query text leaves the process, and the Connection interface is the
// only thing exec knows about the transport.
package exec

import (
	"context"
	"fmt"

	"github.com/surq-db/surq/query"
)

// Row is one result row, field name to value.
type Row = map[string]any

// Connection executes query text. Implementations own the transport,
// authentication and serialization; exec hands them rendered text and vars
// and takes rows back.
type Connection interface {
	Query(ctx context.Context, text string, vars map[string]any) ([]Row, error)
}

// NotFoundError reports a Get that matched nothing.
type NotFoundError struct {
	Query string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no record matched: %s", e.Query)
}

// MultipleResultsError reports a Get that matched more than one record.
type MultipleResultsError struct {
	Query string
}

func (e *MultipleResultsError) Error() string {
	return fmt.Sprintf("multiple records matched: %s", e.Query)
}

// PreQueryHook observes query text before execution.
type PreQueryHook func(ctx context.Context, text string)

// PostQueryHook observes the result of an executed query.
type PostQueryHook func(ctx context.Context, text string, rows []Row, err error)

// Runner executes builder output against a Connection. Hooks run in
// registration order, pre hooks before the query and post hooks after,
// including on failure.
type Runner struct {
	conn Connection
	pre  []PreQueryHook
	post []PostQueryHook
}

// NewRunner wraps a connection.
func NewRunner(conn Connection) *Runner {
	return &Runner{conn: conn}
}

// OnPreQuery registers a hook invoked before every query.
func (r *Runner) OnPreQuery(h PreQueryHook) *Runner {
	r.pre = append(r.pre, h)
	return r
}

// OnPostQuery registers a hook invoked after every query.
func (r *Runner) OnPostQuery(h PostQueryHook) *Runner {
	r.post = append(r.post, h)
	return r
}

// Run executes raw query text through the hook chain.
func (r *Runner) Run(ctx context.Context, text string, vars map[string]any) ([]Row, error) {
	for _, h := range r.pre {
		h(ctx, text)
	}
	rows, err := r.conn.Query(ctx, text, vars)
	for _, h := range r.post {
		h(ctx, text, rows, err)
	}
	return rows, err
}

// All executes the set's SELECT and returns every row.
func (r *Runner) All(ctx context.Context, s *query.Set) ([]Row, error) {
	text, err := s.BuildSelect()
	if err != nil {
		return nil, err
	}
	return r.Run(ctx, text, nil)
}

// First executes the set's SELECT limited to one row. Returns nil when
// nothing matched.
func (r *Runner) First(ctx context.Context, s *query.Set) (Row, error) {
	rows, err := r.All(ctx, s.Clone().Limit(1))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Get executes the set's SELECT expecting exactly one match. Zero matches
// return *NotFoundError; more than one returns *MultipleResultsError. The
// two are always distinct so callers can branch on them. A LIMIT 2 probe is
// enough to tell the cases apart without fetching the full result.
func (r *Runner) Get(ctx context.Context, s *query.Set) (Row, error) {
	probe := s.Clone().Limit(2)
	text, err := probe.BuildSelect()
	if err != nil {
		return nil, err
	}
	rows, err := r.Run(ctx, text, nil)
	if err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, &NotFoundError{Query: text}
	case 1:
		return rows[0], nil
	default:
		return nil, &MultipleResultsError{Query: text}
	}
}

// Count executes the set's count query and reads the count column.
func (r *Runner) Count(ctx context.Context, s *query.Set) (int64, error) {
	text, err := s.BuildCount()
	if err != nil {
		return 0, err
	}
	rows, err := r.Run(ctx, text, nil)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	switch n := rows[0]["count"].(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("count column has unexpected type %T", rows[0]["count"])
	}
}

// Update executes the set's UPDATE with the given field assignments and
// returns the affected rows.
func (r *Runner) Update(ctx context.Context, s *query.Set, data map[string]any) ([]Row, error) {
	text, err := s.BuildUpdate(data)
	if err != nil {
		return nil, err
	}
	return r.Run(ctx, text, nil)
}

// Delete executes the set's DELETE.
func (r *Runner) Delete(ctx context.Context, s *query.Set) error {
	text, err := s.BuildDelete()
	if err != nil {
		return err
	}
	_, err = r.Run(ctx, text, nil)
	return err
}

// DefaultInsertBatch is the batch size BulkInsert uses when given 0.
const DefaultInsertBatch = 1000

// BulkInsert inserts rows in batches, one INSERT statement per batch, and
// returns everything the connection echoed back. A batchSize of 0 uses
// DefaultInsertBatch.
func (r *Runner) BulkInsert(ctx context.Context, collection string, rows []Row, batchSize int) ([]Row, error) {
	if batchSize <= 0 {
		batchSize = DefaultInsertBatch
	}

	var inserted []Row
	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))

		batch := make([]map[string]any, end-start)
		for i, row := range rows[start:end] {
			batch[i] = row
		}
		text, err := query.NewSet(collection).BuildInsert(batch)
		if err != nil {
			return inserted, fmt.Errorf("batch at row %d: %w", start, err)
		}
		got, err := r.Run(ctx, text, nil)
		if err != nil {
			return inserted, fmt.Errorf("batch at row %d: %w", start, err)
		}
		inserted = append(inserted, got...)
	}
	return inserted, nil
}
