package exec

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surq-db/surq/query"
)

// fakeConn records executed text and plays back canned rows.
type fakeConn struct {
	queries []string
	rows    [][]Row
	err     error
}

func (f *fakeConn) Query(_ context.Context, text string, _ map[string]any) ([]Row, error) {
	f.queries = append(f.queries, text)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.rows) == 0 {
		return nil, nil
	}
	next := f.rows[0]
	f.rows = f.rows[1:]
	return next, nil
}

func TestAll(t *testing.T) {
	conn := &fakeConn{rows: [][]Row{{{"name": "a"}, {"name": "b"}}}}
	runner := NewRunner(conn)

	rows, err := runner.All(context.Background(), query.NewSet("users").Filter(query.F{"active": true}))
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, []string{"SELECT * FROM users WHERE active = true"}, conn.queries)
}

func TestFirst(t *testing.T) {
	conn := &fakeConn{rows: [][]Row{{{"name": "a"}}}}
	runner := NewRunner(conn)

	base := query.NewSet("users")
	row, err := runner.First(context.Background(), base)
	require.NoError(t, err)
	assert.Equal(t, "a", row["name"])
	assert.Equal(t, []string{"SELECT * FROM users LIMIT 1"}, conn.queries)

	// The base builder must be untouched.
	q, err := base.BuildSelect()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users", q)
}

func TestFirst_Empty(t *testing.T) {
	runner := NewRunner(&fakeConn{})
	row, err := runner.First(context.Background(), query.NewSet("users"))
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestGet(t *testing.T) {
	t.Run("exactly one", func(t *testing.T) {
		conn := &fakeConn{rows: [][]Row{{{"id": "user:1"}}}}
		row, err := NewRunner(conn).Get(context.Background(), query.NewSet("users").Filter(query.F{"email": "a@b.c"}))
		require.NoError(t, err)
		assert.Equal(t, "user:1", row["id"])
		assert.Contains(t, conn.queries[0], "LIMIT 2")
	})

	t.Run("none", func(t *testing.T) {
		_, err := NewRunner(&fakeConn{}).Get(context.Background(), query.NewSet("users"))
		var notFound *NotFoundError
		require.ErrorAs(t, err, &notFound)
	})

	t.Run("more than one", func(t *testing.T) {
		conn := &fakeConn{rows: [][]Row{{{"id": "user:1"}, {"id": "user:2"}}}}
		_, err := NewRunner(conn).Get(context.Background(), query.NewSet("users"))

		var multiple *MultipleResultsError
		require.ErrorAs(t, err, &multiple)

		var notFound *NotFoundError
		assert.False(t, errors.As(err, &notFound), "ambiguity must not be reported as absence")
	})
}

func TestCount(t *testing.T) {
	tests := []struct {
		name string
		rows []Row
		want int64
	}{
		{"int64 column", []Row{{"count": int64(7)}}, 7},
		{"float column", []Row{{"count": float64(3)}}, 3},
		{"no rows", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &fakeConn{rows: [][]Row{tt.rows}}
			n, err := NewRunner(conn).Count(context.Background(), query.NewSet("orders"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestUpdateAndDelete(t *testing.T) {
	conn := &fakeConn{}
	runner := NewRunner(conn)
	s := query.NewSet("orders").Filter(query.F{"status": "pending"})

	_, err := runner.Update(context.Background(), s, map[string]any{"status": "completed"})
	require.NoError(t, err)

	require.NoError(t, runner.Delete(context.Background(), s))

	assert.Equal(t, []string{
		`UPDATE orders SET status = "completed" WHERE status = "pending"`,
		`DELETE FROM orders WHERE status = "pending"`,
	}, conn.queries)
}

func TestBulkInsert_Batches(t *testing.T) {
	conn := &fakeConn{}
	runner := NewRunner(conn)

	rows := make([]Row, 5)
	for i := range rows {
		rows[i] = Row{"n": i}
	}

	_, err := runner.BulkInsert(context.Background(), "items", rows, 2)
	require.NoError(t, err)

	require.Len(t, conn.queries, 3)
	assert.Equal(t, `INSERT INTO items [{"n": 0}, {"n": 1}];`, conn.queries[0])
	assert.Equal(t, `INSERT INTO items [{"n": 4}];`, conn.queries[2])
}

func TestBulkInsert_ConnectionError(t *testing.T) {
	conn := &fakeConn{err: fmt.Errorf("boom")}
	_, err := NewRunner(conn).BulkInsert(context.Background(), "items", []Row{{"n": 1}}, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch at row 0")
}

func TestHooks_RegistrationOrder(t *testing.T) {
	conn := &fakeConn{}
	var calls []string

	runner := NewRunner(conn).
		OnPreQuery(func(context.Context, string) { calls = append(calls, "pre-1") }).
		OnPreQuery(func(context.Context, string) { calls = append(calls, "pre-2") }).
		OnPostQuery(func(context.Context, string, []Row, error) { calls = append(calls, "post-1") }).
		OnPostQuery(func(context.Context, string, []Row, error) { calls = append(calls, "post-2") })

	_, err := runner.All(context.Background(), query.NewSet("users"))
	require.NoError(t, err)
	assert.Equal(t, []string{"pre-1", "pre-2", "post-1", "post-2"}, calls)
}

func TestHooks_PostRunsOnFailure(t *testing.T) {
	conn := &fakeConn{err: fmt.Errorf("boom")}
	var sawErr error

	runner := NewRunner(conn).
		OnPostQuery(func(_ context.Context, _ string, _ []Row, err error) { sawErr = err })

	_, err := runner.All(context.Background(), query.NewSet("users"))
	require.Error(t, err)
	assert.Equal(t, err, sawErr)
}
