package filters

import (
	"strings"
	"time"
)

// Row is a view row the client-side evaluator can inspect.
type Row interface {
	// FieldValue returns the enumerated value for a dimension.
	FieldValue(dim Dimension) (string, bool)
	// Timestamp returns the instant date bounds apply to; false when absent or unparsable.
	Timestamp() (time.Time, bool)
	// SearchText is the haystack free-text terms are matched against.
	SearchText() string
	// Metric returns a numeric score for threshold checks.
	Metric(m Metric) (float64, bool)
}

// Matches reports whether row satisfies every active constraint of state.
// Dimensions, thresholds, the date range and the search terms combine with AND.
func Matches(row Row, state *State) bool {
	if state == nil {
		return true
	}
	for dim, want := range state.dims {
		got, ok := row.FieldValue(dim)
		if !ok || got != want {
			return false
		}
	}
	for m, min := range state.thresholds {
		v, ok := row.Metric(m)
		if !ok || v < min {
			return false
		}
	}
	if !state.dates.IsZero() {
		ts, ok := row.Timestamp()
		if !ok {
			return false
		}
		if state.dates.Start != nil && ts.Before(*state.dates.Start) {
			return false
		}
		if state.dates.End != nil && ts.After(*state.dates.End) {
			return false
		}
	}
	return matchTerms(row.SearchText(), state.terms, state.mode)
}

func matchTerms(haystack string, terms []string, mode SearchMode) bool {
	if len(terms) == 0 {
		return true
	}
	haystack = strings.ToLower(haystack)
	if mode == ModeAny {
		for _, term := range terms {
			if strings.Contains(haystack, strings.ToLower(term)) {
				return true
			}
		}
		return false
	}
	for _, term := range terms {
		if !strings.Contains(haystack, strings.ToLower(term)) {
			return false
		}
	}
	return true
}

// Apply returns the rows that match state, preserving order.
func Apply[R Row](rows []R, state *State) []R {
	out := make([]R, 0, len(rows))
	for _, row := range rows {
		if Matches(row, state) {
			out = append(out, row)
		}
	}
	return out
}
