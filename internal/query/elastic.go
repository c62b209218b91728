package query

import (
	"fmt"
	"strings"
	"time"
)

// Elastic renders d as an Elasticsearch search body. Text and enum columns
// are expected to be mapped as keyword fields.
func Elastic(d Descriptor) (map[string]any, error) {
	if d.Table == "" {
		return nil, ErrNoTable
	}
	var filter []any
	for _, p := range d.Where {
		c, err := elasticClause(p)
		if err != nil {
			return nil, err
		}
		filter = append(filter, c)
	}
	for _, g := range d.AnyOf {
		if len(g) == 0 {
			return nil, ErrEmptyGroup
		}
		should := make([]any, 0, len(g))
		for _, p := range g {
			c, err := elasticClause(p)
			if err != nil {
				return nil, err
			}
			should = append(should, c)
		}
		filter = append(filter, map[string]any{
			"bool": map[string]any{"should": should, "minimum_should_match": 1},
		})
	}

	body := map[string]any{}
	if len(filter) == 0 {
		body["query"] = map[string]any{"match_all": map[string]any{}}
	} else {
		body["query"] = map[string]any{"bool": map[string]any{"filter": filter}}
	}
	if len(d.OrderBy) > 0 {
		sort := make([]any, 0, len(d.OrderBy))
		for _, o := range d.OrderBy {
			dir := "asc"
			if o.Desc {
				dir = "desc"
			}
			sort = append(sort, map[string]any{o.Column: map[string]any{"order": dir, "unmapped_type": "date"}})
		}
		body["sort"] = sort
	}
	if d.Limit > 0 {
		body["size"] = d.Limit
	}
	return body, nil
}

func elasticClause(p Predicate) (map[string]any, error) {
	switch p.Op {
	case OpEq, OpContains:
		return map[string]any{"term": map[string]any{p.Column: elasticValue(p.Value)}}, nil
	case OpGte, OpLte:
		return map[string]any{"range": map[string]any{p.Column: map[string]any{string(p.Op): elasticValue(p.Value)}}}, nil
	case OpILike:
		return map[string]any{"wildcard": map[string]any{p.Column: map[string]any{
			"value":            "*" + escapeWildcard(fmt.Sprint(p.Value)) + "*",
			"case_insensitive": true,
		}}}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedOp, p.Op)
}

func elasticValue(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return v
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

func escapeWildcard(s string) string {
	return wildcardEscaper.Replace(s)
}
