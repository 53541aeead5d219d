package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/surq-db/surq/aggregate"
	"github.com/surq-db/surq/expr"
	"github.com/surq-db/surq/query"
)

// QuerySpec is the YAML shape accepted by the compile command.
type QuerySpec struct {
	Collection string         `yaml:"collection"`
	Statement  string         `yaml:"statement"` // select (default), count, delete, update
	Filters    map[string]any `yaml:"filters"`
	Update     map[string]any `yaml:"update"`
	OrderBy    []OrderSpec    `yaml:"order_by"`
	Limit      *int           `yaml:"limit"`
	Start      *int           `yaml:"start"`
	GroupBy    []string       `yaml:"group_by"`
	Split      []string       `yaml:"split"`
	Fetch      []string       `yaml:"fetch"`
	WithIndex  string         `yaml:"with_index"`
	Aggregate  *AggregateSpec `yaml:"aggregate"`
}

// OrderSpec is one ORDER BY term in a query spec.
type OrderSpec struct {
	Field     string `yaml:"field"`
	Direction string `yaml:"direction"`
}

// AggregateSpec describes an aggregation pipeline in a query spec.
type AggregateSpec struct {
	Match        map[string]any    `yaml:"match"`
	GroupBy      []string          `yaml:"group_by"`
	Aggregations []AggregationSpec `yaml:"aggregations"`
	Having       map[string]any    `yaml:"having"`
	Sort         []OrderSpec       `yaml:"sort"`
	Limit        *int              `yaml:"limit"`
}

// AggregationSpec is one aliased accumulator. Fn names the accumulator
// (count, sum, mean, min, max, distinct_count); a non-empty Predicate makes
// it conditional.
type AggregationSpec struct {
	Name      string `yaml:"name"`
	Fn        string `yaml:"fn"`
	Field     string `yaml:"field"`
	Predicate string `yaml:"predicate"`
}

// LoadQuerySpec reads and parses a YAML query spec file.
func LoadQuerySpec(path string) (*QuerySpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var spec QuerySpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if spec.Collection == "" {
		return nil, fmt.Errorf("%s: missing collection", path)
	}
	return &spec, nil
}

// Compile turns a query spec into SurrealQL text.
func (spec *QuerySpec) Compile() (string, error) {
	set := query.NewSet(spec.Collection)
	if len(spec.Filters) > 0 {
		set.Filter(query.F(spec.Filters))
	}
	for _, o := range spec.OrderBy {
		dir := o.Direction
		if dir == "" {
			dir = "ASC"
		}
		set.OrderBy(o.Field, dir)
	}
	if spec.Limit != nil {
		set.Limit(*spec.Limit)
	}
	if spec.Start != nil {
		set.Start(*spec.Start)
	}
	set.GroupBy(spec.GroupBy...)
	set.Split(spec.Split...)
	set.Fetch(spec.Fetch...)
	if spec.WithIndex != "" {
		set.WithIndex(spec.WithIndex)
	}

	if spec.Aggregate != nil {
		return spec.Aggregate.compile(set)
	}

	switch spec.Statement {
	case "", "select":
		return set.BuildSelect()
	case "count":
		return set.BuildCount()
	case "delete":
		return set.BuildDelete()
	case "update":
		return set.BuildUpdate(spec.Update)
	default:
		return "", fmt.Errorf("unknown statement %q", spec.Statement)
	}
}

func (a *AggregateSpec) compile(base *query.Set) (string, error) {
	p := aggregate.Over(base)
	if len(a.Match) > 0 {
		p.Match(query.F(a.Match))
	}

	aliases := make([]aggregate.Alias, 0, len(a.Aggregations))
	for _, spec := range a.Aggregations {
		agg, err := spec.toAggregation()
		if err != nil {
			return "", err
		}
		aliases = append(aliases, aggregate.As(spec.Name, agg))
	}
	if len(a.GroupBy) > 0 || len(aliases) > 0 {
		p.Group(a.GroupBy, aliases...)
	}

	if len(a.Having) > 0 {
		p.Having(query.F(a.Having))
	}
	for _, o := range a.Sort {
		dir := o.Direction
		if dir == "" {
			dir = "ASC"
		}
		p.Sort(o.Field, dir)
	}
	if a.Limit != nil {
		p.Limit(*a.Limit)
	}
	return p.BuildQuery()
}

func (s AggregationSpec) toAggregation() (aggregate.Aggregation, error) {
	if s.Name == "" {
		return nil, fmt.Errorf("aggregation missing name")
	}
	conditional := s.Predicate != ""
	pred := expr.Raw(s.Predicate)

	switch s.Fn {
	case "count":
		if conditional {
			return aggregate.CountIf{Pred: pred}, nil
		}
		return aggregate.Count{}, nil
	case "sum":
		if conditional {
			return aggregate.SumIf{Field: s.Field, Pred: pred}, nil
		}
		return aggregate.Sum{Field: s.Field}, nil
	case "mean":
		if conditional {
			return aggregate.MeanIf{Field: s.Field, Pred: pred}, nil
		}
		return aggregate.Mean{Field: s.Field}, nil
	case "min":
		if conditional {
			return aggregate.MinIf{Field: s.Field, Pred: pred}, nil
		}
		return aggregate.Min{Field: s.Field}, nil
	case "max":
		if conditional {
			return aggregate.MaxIf{Field: s.Field, Pred: pred}, nil
		}
		return aggregate.Max{Field: s.Field}, nil
	case "distinct_count":
		if conditional {
			return aggregate.DistinctCountIf{Field: s.Field, Pred: pred}, nil
		}
		return aggregate.DistinctCount{Field: s.Field}, nil
	default:
		return nil, fmt.Errorf("aggregation %q: unknown fn %q", s.Name, s.Fn)
	}
}
