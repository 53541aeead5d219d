package query

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surq-db/surq/expr"
	"github.com/surq-db/surq/record"
)

func TestBuildSelect_Basic(t *testing.T) {
	q, err := NewSet("users").
		Filter(F{"age__gte": 18}).
		BuildSelect()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users WHERE age >= 18", q)
}

func TestBuildSelect_NoFilters(t *testing.T) {
	q, err := NewSet("users").BuildSelect()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users", q)
}

func TestBuildSelect_ClauseOrderFixed(t *testing.T) {
	// Trailing clauses must come out in dialect order no matter which
	// order the builder calls arrive in.
	q, err := NewSet("orders").
		Start(20).
		Limit(10).
		OrderBy("created_at", "DESC").
		WithIndex("idx_orders_status").
		Fetch("customer").
		Split("tags").
		GroupBy("status").
		Filter(F{"status": "completed"}).
		BuildSelect()
	require.NoError(t, err)

	want := `SELECT * FROM orders WHERE status = "completed" GROUP BY status SPLIT tags FETCH customer WITH INDEX idx_orders_status ORDER BY created_at DESC LIMIT 10 START 20`
	assert.Equal(t, want, q)
}

func TestBuildSelect_NoIndex(t *testing.T) {
	q, err := NewSet("orders").NoIndex().BuildSelect()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM orders WITH NOINDEX", q)
}

func TestBuildSelect_WithIndexOverridesNoIndex(t *testing.T) {
	q, err := NewSet("orders").NoIndex().WithIndex("idx_x").BuildSelect()
	require.NoError(t, err)
	assert.Contains(t, q, "WITH INDEX idx_x")
	assert.NotContains(t, q, "NOINDEX")
}

func TestBuildSelect_Where(t *testing.T) {
	cond := expr.Eq("status", "completed").And(expr.Gt("amount", 100))
	q, err := NewSet("orders").Where(cond).BuildSelect()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM orders WHERE (status = "completed" AND amount > 100)`, q)
}

func TestBuildSelect_BulkIDs(t *testing.T) {
	ids := []record.ID{
		{Table: "user", Key: "1"},
		{Table: "user", Key: "2"},
		{Table: "user", Key: "3"},
	}
	q, err := NewSet("user").IDs(ids...).BuildSelect()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM user:1, user:2, user:3", q)
}

func TestBuildSelect_IDRange(t *testing.T) {
	tests := []struct {
		name      string
		inclusive bool
		want      string
	}{
		{"exclusive", false, "SELECT * FROM user:100..200"},
		{"inclusive", true, "SELECT * FROM user:100..=200"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := NewSet("user").
				IDRange(record.ID{Table: "user", Key: "100"}, record.ID{Table: "user", Key: "200"}, tt.inclusive).
				BuildSelect()
			require.NoError(t, err)
			assert.Equal(t, tt.want, q)
		})
	}
}

func TestIDRange_TableMismatch(t *testing.T) {
	_, err := NewSet("user").
		IDRange(record.ID{Table: "user", Key: "1"}, record.ID{Table: "order", Key: "9"}, false).
		BuildSelect()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spans tables")
}

func TestPage(t *testing.T) {
	q, err := NewSet("users").Page(3, 25).BuildSelect()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users LIMIT 25 START 50", q)

	_, err = NewSet("users").Page(0, 25).BuildSelect()
	assert.Error(t, err)

	_, err = NewSet("users").Page(1, 0).BuildSelect()
	assert.Error(t, err)
}

func TestBuildCount(t *testing.T) {
	q, err := NewSet("orders").
		Filter(F{"status": "completed"}).
		OrderBy("created_at", "DESC").
		Limit(10).
		BuildCount()
	require.NoError(t, err)

	// Ordering and limits do not affect the count and are dropped.
	assert.Equal(t, `SELECT count() FROM orders WHERE status = "completed" GROUP ALL`, q)
}

func TestBuildUpdate_SortedAssignments(t *testing.T) {
	q, err := NewSet("orders").
		Filter(F{"status": "pending"}).
		BuildUpdate(map[string]any{
			"updated": true,
			"status":  "completed",
			"amount":  99.5,
		})
	require.NoError(t, err)
	assert.Equal(t, `UPDATE orders SET amount = 99.5, status = "completed", updated = true WHERE status = "pending"`, q)
}

func TestBuildUpdate_Empty(t *testing.T) {
	_, err := NewSet("orders").BuildUpdate(nil)
	assert.Error(t, err)
}

func TestBuildDelete(t *testing.T) {
	q, err := NewSet("orders").Filter(F{"status": "failed"}).BuildDelete()
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM orders WHERE status = "failed"`, q)
}

func TestBuildDelete_BulkIDs(t *testing.T) {
	q, err := NewSet("user").
		IDs(record.ID{Table: "user", Key: "1"}, record.ID{Table: "user", Key: "2"}).
		BuildDelete()
	require.NoError(t, err)
	assert.Equal(t, "DELETE user:1, user:2", q)
}

func TestBuildInsert(t *testing.T) {
	q, err := NewSet("users").BuildInsert([]map[string]any{
		{"name": "Alice", "age": 30},
		{"name": "Bob", "age": 25},
	})
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO users [{"age": 30, "name": "Alice"}, {"age": 25, "name": "Bob"}];`, q)
}

func TestBuildInsert_Empty(t *testing.T) {
	_, err := NewSet("users").BuildInsert(nil)
	assert.Error(t, err)
}

func TestBuildSelectRecord(t *testing.T) {
	q := BuildSelectRecord(record.ID{Table: "user", Key: "123"})
	assert.Equal(t, "SELECT * FROM user:123", q)
}

func TestClone_Independent(t *testing.T) {
	base := NewSet("orders").Filter(F{"status": "completed"})

	counted := base.Clone().Limit(1)
	paged := base.Clone().Page(2, 10)

	q, err := base.BuildSelect()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM orders WHERE status = "completed"`, q)

	q, err = counted.BuildSelect()
	require.NoError(t, err)
	assert.Contains(t, q, "LIMIT 1")

	q, err = paged.BuildSelect()
	require.NoError(t, err)
	assert.Contains(t, q, "START 10")
}

func TestBuilderError_Sticky(t *testing.T) {
	s := NewSet("orders").
		Filter(F{"amount__bogus": 1}).
		Filter(F{"status": "completed"})

	require.Error(t, s.Err())

	_, err := s.BuildSelect()
	assert.ErrorIs(t, err, s.Err())

	_, err = s.BuildCount()
	assert.ErrorIs(t, err, s.Err())
}

func TestSuggestIndexes(t *testing.T) {
	suggestions := NewSet("orders").
		Filter(F{"status": "completed", "amount__gt": 100}).
		OrderBy("created_at", "DESC").
		SuggestIndexes()

	assert.Equal(t, []string{
		"DEFINE INDEX idx_orders_amount ON orders FIELDS amount",
		"DEFINE INDEX idx_orders_compound ON orders FIELDS amount, status",
		"DEFINE INDEX idx_orders_created_at ON orders FIELDS created_at",
		"DEFINE INDEX idx_orders_status ON orders FIELDS status",
	}, suggestions)
}

func TestSuggestIndexes_SkipsID(t *testing.T) {
	suggestions := NewSet("user").
		Filter(F{"id": "user:1"}).
		SuggestIndexes()
	assert.Empty(t, suggestions)
}

func TestBuildStatements_Golden(t *testing.T) {
	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"))

	var out strings.Builder
	add := func(name, q string, err error) {
		require.NoError(t, err)
		out.WriteString(name + ":\n" + q + "\n\n")
	}

	q, err := NewSet("orders").
		Filter(F{"status": "completed", "amount__gt": 100}).
		OrderBy("created_at", "DESC").
		Limit(10).
		BuildSelect()
	add("filtered select", q, err)

	q, err = NewSet("orders").
		Filter(F{"status__in": []string{"completed", "pending"}}).
		BuildSelect()
	add("membership select", q, err)

	q, err = NewSet("user").
		IDs(record.ID{Table: "user", Key: "1"}, record.ID{Table: "user", Key: "2"}).
		BuildSelect()
	add("bulk id select", q, err)

	q, err = NewSet("orders").
		Filter(F{"status": "pending"}).
		BuildUpdate(map[string]any{"status": "completed"})
	add("update", q, err)

	q, err = BuildRelate(
		record.ID{Table: "user", Key: "1"},
		"purchased",
		record.ID{Table: "product", Key: "9"},
		map[string]any{"quantity": 2, "at": "2024-01-01"},
	)
	add("relate", q, err)

	g.Assert(t, "statements", []byte(out.String()))
}
