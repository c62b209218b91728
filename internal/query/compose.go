package query

import (
	"fmt"

	"github.com/wolfman30/insightdesk/internal/crm"
	"github.com/wolfman30/insightdesk/internal/filters"
)

// Compose builds the descriptor for a filter state. Inputs that are absent
// produce no predicate at all.
//
// A single search term becomes an ilike on the text column, or an OR group
// of ilikes when the entity searches several text columns. Several terms
// become, per term, "text ilike term OR array contains term"; these per-term
// alternatives are merged into one OR group unless the state asks for every
// term to match, in which case each term gets its own group.
func Compose(state *filters.State) (Descriptor, error) {
	if state == nil {
		return Descriptor{}, fmt.Errorf("query: compose: nil state")
	}
	schema, err := SchemaFor(state.Entity())
	if err != nil {
		return Descriptor{}, fmt.Errorf("query: compose: %w", err)
	}

	d := Descriptor{
		Table:   schema.Table,
		OrderBy: []Order{{Column: schema.DateColumn, Desc: true}},
	}
	for _, dim := range state.SetDimensions() {
		col, ok := schema.Dimensions[dim]
		if !ok {
			continue
		}
		v, _ := state.Dimension(dim)
		d.Where = append(d.Where, Predicate{Column: col, Op: OpEq, Value: v})
	}
	for _, m := range filters.Metrics(state.Entity()) {
		min, ok := state.Threshold(m)
		col := schema.Metrics[m]
		if !ok || col == "" {
			continue
		}
		d.Where = append(d.Where, Predicate{Column: col, Op: OpGte, Value: min})
	}
	r := state.DateRange()
	if r.Start != nil {
		d.Where = append(d.Where, Predicate{Column: schema.DateColumn, Op: OpGte, Value: r.Start.UTC()})
	}
	if r.End != nil {
		d.Where = append(d.Where, Predicate{Column: schema.DateColumn, Op: OpLte, Value: r.End.UTC()})
	}

	terms := state.SearchTerms()
	switch {
	case len(terms) == 1:
		g := textGroup(schema, terms[0])
		if len(g) == 1 {
			d.Where = append(d.Where, g[0])
		} else if len(g) > 1 {
			d.AnyOf = append(d.AnyOf, g)
		}
	case len(terms) > 1:
		if state.Mode() == filters.ModeAll {
			for _, term := range terms {
				d.AnyOf = append(d.AnyOf, termGroup(schema, term))
			}
		} else {
			var g Group
			for _, term := range terms {
				g = append(g, termGroup(schema, term)...)
			}
			d.AnyOf = append(d.AnyOf, g)
		}
	}
	return d, nil
}

func textGroup(schema Schema, term string) Group {
	g := make(Group, 0, len(schema.TextColumns))
	for _, col := range schema.TextColumns {
		g = append(g, Predicate{Column: col, Op: OpILike, Value: term})
	}
	return g
}

func termGroup(schema Schema, term string) Group {
	g := textGroup(schema, term)
	if schema.ArrayColumn != "" {
		g = append(g, Predicate{Column: schema.ArrayColumn, Op: OpContains, Value: term})
	}
	return g
}

// ByID selects a single record of entity.
func ByID(entity crm.Entity, id string) (Descriptor, error) {
	schema, err := SchemaFor(entity)
	if err != nil {
		return Descriptor{}, fmt.Errorf("query: by id: %w", err)
	}
	return Descriptor{
		Table: schema.Table,
		Where: []Predicate{{Column: "id", Op: OpEq, Value: id}},
		Limit: 1,
	}, nil
}

// All selects every record of entity, newest first.
func All(entity crm.Entity) (Descriptor, error) {
	schema, err := SchemaFor(entity)
	if err != nil {
		return Descriptor{}, fmt.Errorf("query: all: %w", err)
	}
	return Descriptor{
		Table:   schema.Table,
		OrderBy: []Order{{Column: schema.DateColumn, Desc: true}},
	}, nil
}
