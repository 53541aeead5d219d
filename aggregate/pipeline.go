package aggregate

import (
	"fmt"
	"strings"

	"github.com/surq-db/surq/expr"
	"github.com/surq-db/surq/query"
)

// Pipeline compiles staged aggregation state over a base query set. Stages
// may be appended in any order; compilation always emits WHERE, GROUP BY,
// HAVING, ORDER BY, LIMIT in that fixed order.
//
// Like query.Set, a Pipeline is a single-writer object: clone the base set
// and build a fresh pipeline per variant instead of sharing one.
type Pipeline struct {
	base *query.Set

	matchConds  []string
	groupFields []string
	aliases     []Alias
	havingConds []string
	sorts       []query.Order
	limit       *int
	projection  []string
	err         error
}

// Over starts a pipeline from a base query set. The base's collection and
// any filters already on it seed the pipeline's selection target and WHERE.
func Over(base *query.Set) *Pipeline {
	p := &Pipeline{base: base, err: base.Err()}
	p.matchConds = append(p.matchConds, base.Conditions()...)
	return p
}

func (p *Pipeline) fail(err error) *Pipeline {
	if p.err == nil {
		p.err = err
	}
	return p
}

// Err returns the first stage error, or nil.
func (p *Pipeline) Err() error {
	return p.err
}

// Match adds pre-aggregation filters, compiled with the same field__operator
// syntax as query.Set.Filter and ANDed into the WHERE clause.
func (p *Pipeline) Match(filters query.F) *Pipeline {
	parts, err := query.CompileFilters(p.base.Collection(), filters)
	if err != nil {
		return p.fail(err)
	}
	p.matchConds = append(p.matchConds, parts...)
	return p
}

// MatchExpr adds a pre-built expression to the pre-aggregation filter.
func (p *Pipeline) MatchExpr(e expr.Expr) *Pipeline {
	if !e.IsZero() {
		p.matchConds = append(p.matchConds, e.String())
	}
	return p
}

// Group sets the group-by fields and the aliased accumulators projected for
// each group. Aliases render in the order given.
func (p *Pipeline) Group(byFields []string, aliases ...Alias) *Pipeline {
	p.groupFields = append(p.groupFields, byFields...)
	p.aliases = append(p.aliases, aliases...)
	return p
}

// Having adds post-aggregation filters. Field names reference the output
// aliases of the Group stage, not raw document fields, so no table context
// applies.
func (p *Pipeline) Having(filters query.F) *Pipeline {
	parts, err := query.CompileFilters("", filters)
	if err != nil {
		return p.fail(err)
	}
	p.havingConds = append(p.havingConds, parts...)
	return p
}

// HavingExpr adds a pre-built expression to the post-aggregation filter.
func (p *Pipeline) HavingExpr(e expr.Expr) *Pipeline {
	if !e.IsZero() {
		p.havingConds = append(p.havingConds, e.String())
	}
	return p
}

// Sort appends an ordering term, usually over a group alias.
func (p *Pipeline) Sort(field, direction string) *Pipeline {
	p.sorts = append(p.sorts, query.Order{Field: field, Direction: direction})
	return p
}

// Limit caps the number of result groups.
func (p *Pipeline) Limit(n int) *Pipeline {
	p.limit = &n
	return p
}

// Project overrides the selection list. Without a Project or Group stage the
// pipeline selects *.
func (p *Pipeline) Project(fields ...string) *Pipeline {
	p.projection = append(p.projection, fields...)
	return p
}

// selectList builds the projection: explicit Project fields win, otherwise
// group fields followed by rendered aliases, otherwise *.
func (p *Pipeline) selectList() string {
	if len(p.projection) > 0 {
		return strings.Join(p.projection, ", ")
	}
	if len(p.groupFields) == 0 && len(p.aliases) == 0 {
		return "*"
	}
	parts := make([]string, 0, len(p.groupFields)+len(p.aliases))
	parts = append(parts, p.groupFields...)
	for _, a := range p.aliases {
		parts = append(parts, Render(a.Agg)+" AS "+a.Name)
	}
	return strings.Join(parts, ", ")
}

// BuildQuery compiles the pipeline into a single SELECT statement. Clause
// order is fixed regardless of the order stages were appended in.
func (p *Pipeline) BuildQuery() (string, error) {
	if p.err != nil {
		return "", p.err
	}
	if len(p.havingConds) > 0 && len(p.aliases) == 0 {
		return "", fmt.Errorf("having stage requires a group stage with aliases")
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(p.selectList())
	b.WriteString(" FROM ")
	b.WriteString(p.base.Collection())

	if len(p.matchConds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(p.matchConds, " AND "))
	}
	if len(p.groupFields) > 0 {
		b.WriteString(" GROUP BY ")
		b.WriteString(strings.Join(p.groupFields, ", "))
	} else if len(p.aliases) > 0 {
		b.WriteString(" GROUP ALL")
	}
	if len(p.havingConds) > 0 {
		b.WriteString(" HAVING ")
		b.WriteString(strings.Join(p.havingConds, " AND "))
	}
	if len(p.sorts) > 0 {
		terms := make([]string, len(p.sorts))
		for i, o := range p.sorts {
			terms[i] = o.Field + " " + o.Direction
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(terms, ", "))
	}
	if p.limit != nil {
		fmt.Fprintf(&b, " LIMIT %d", *p.limit)
	}

	return b.String(), nil
}
