// Package aggregate builds grouped aggregation queries on top of the query
// builder: WHERE before grouping, aggregate projections with aliases, a
// post-aggregation HAVING filter over those aliases, then ordering and
// limits.
package aggregate

import (
	"fmt"

	"github.com/surq-db/surq/expr"
)

// Aggregation is a sealed accumulator specification. The concrete types in
// this package are the only implementations; Render handles each exhaustively.
type Aggregation interface {
	aggregation()
}

// Count counts rows in the group.
type Count struct{}

// Sum totals a field across the group.
type Sum struct{ Field string }

// Mean averages a field across the group.
type Mean struct{ Field string }

// Min takes the smallest field value in the group.
type Min struct{ Field string }

// Max takes the largest field value in the group.
type Max struct{ Field string }

// DistinctCount counts distinct values of a field in the group.
type DistinctCount struct{ Field string }

// CountIf counts rows matching a predicate. Non-matching rows contribute
// NULL, which count() skips.
type CountIf struct{ Pred expr.Expr }

// SumIf totals a field over rows matching a predicate. Non-matching rows
// contribute 0 so they cannot perturb the total.
type SumIf struct {
	Field string
	Pred  expr.Expr
}

// MeanIf averages a field over rows matching a predicate. Non-matching rows
// contribute NULL and are excluded from the average entirely.
type MeanIf struct {
	Field string
	Pred  expr.Expr
}

// MinIf takes the smallest field value among rows matching a predicate.
type MinIf struct {
	Field string
	Pred  expr.Expr
}

// MaxIf takes the largest field value among rows matching a predicate.
type MaxIf struct {
	Field string
	Pred  expr.Expr
}

// DistinctCountIf counts distinct field values among rows matching a
// predicate.
type DistinctCountIf struct {
	Field string
	Pred  expr.Expr
}

func (Count) aggregation()           {}
func (Sum) aggregation()             {}
func (Mean) aggregation()            {}
func (Min) aggregation()             {}
func (Max) aggregation()             {}
func (DistinctCount) aggregation()   {}
func (CountIf) aggregation()         {}
func (SumIf) aggregation()           {}
func (MeanIf) aggregation()          {}
func (MinIf) aggregation()           {}
func (MaxIf) aggregation()           {}
func (DistinctCountIf) aggregation() {}

// Render emits the accumulator expression text. The ELSE branch of the
// conditional forms is 0 only for SumIf; everything else uses NULL so
// non-matching rows are excluded rather than counted as zero.
func Render(a Aggregation) string {
	switch v := a.(type) {
	case Count:
		return "count()"
	case Sum:
		return "math::sum(" + v.Field + ")"
	case Mean:
		return "math::mean(" + v.Field + ")"
	case Min:
		return "math::min(" + v.Field + ")"
	case Max:
		return "math::max(" + v.Field + ")"
	case DistinctCount:
		return "array::len(array::distinct(" + v.Field + "))"
	case CountIf:
		return fmt.Sprintf("count(IF %s THEN 1 ELSE NULL END)", v.Pred)
	case SumIf:
		return fmt.Sprintf("math::sum(IF %s THEN %s ELSE 0 END)", v.Pred, v.Field)
	case MeanIf:
		return fmt.Sprintf("math::mean(IF %s THEN %s ELSE NULL END)", v.Pred, v.Field)
	case MinIf:
		return fmt.Sprintf("math::min(IF %s THEN %s ELSE NULL END)", v.Pred, v.Field)
	case MaxIf:
		return fmt.Sprintf("math::max(IF %s THEN %s ELSE NULL END)", v.Pred, v.Field)
	case DistinctCountIf:
		return fmt.Sprintf("array::len(array::distinct(IF %s THEN %s ELSE NULL END))", v.Pred, v.Field)
	default:
		panic(fmt.Sprintf("unhandled aggregation type %T", a))
	}
}

// Alias is one named output column of a group stage. Aliases are ordered;
// callers pass a slice, not a map, so projection order is deterministic.
type Alias struct {
	Name string
	Agg  Aggregation
}

// As pairs an output name with an accumulator.
func As(name string, agg Aggregation) Alias {
	return Alias{Name: name, Agg: agg}
}
