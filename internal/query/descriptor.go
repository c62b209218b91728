// Package query turns filter state into a declarative, store-agnostic query
// descriptor and translates descriptors into the native forms of the
// supported stores.
package query

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Op is a predicate operator.
type Op string

const (
	// OpEq is exact equality.
	OpEq Op = "eq"
	// OpGte and OpLte are inclusive bounds.
	OpGte Op = "gte"
	OpLte Op = "lte"
	// OpILike is a case-insensitive substring match on a text column.
	OpILike Op = "ilike"
	// OpContains matches when an array column holds Value as an element.
	OpContains Op = "contains"
)

// Predicate is one column comparison.
type Predicate struct {
	Column string `json:"column"`
	Op     Op     `json:"op"`
	Value  any    `json:"value"`
}

// Group is satisfied when any of its predicates is.
type Group []Predicate

// Order sorts results by a column.
type Order struct {
	Column string `json:"column"`
	Desc   bool   `json:"desc,omitempty"`
}

// Descriptor selects rows from one table. Every predicate in Where and every
// group in AnyOf must hold.
type Descriptor struct {
	Table   string      `json:"table"`
	Where   []Predicate `json:"where,omitempty"`
	AnyOf   []Group     `json:"any_of,omitempty"`
	OrderBy []Order     `json:"order_by,omitempty"`
	Limit   int         `json:"limit,omitempty"`
}

// IsUnfiltered reports whether the descriptor selects every row.
func (d Descriptor) IsUnfiltered() bool {
	return len(d.Where) == 0 && len(d.AnyOf) == 0
}

// Fingerprint is a stable hash of the descriptor, used as a cache key.
func (d Descriptor) Fingerprint() string {
	b, err := json.Marshal(d)
	if err != nil {
		// Values are strings, numbers and times; marshal cannot fail for
		// descriptors produced by Compose.
		b = []byte(d.Table)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:12])
}
