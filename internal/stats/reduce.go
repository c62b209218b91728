// Package stats reduces working sets to the summary figures shown above
// each table. Every reducer is a pure function of its inputs; the current
// time is always passed in.
package stats

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// RecentWindow is the trailing window used by Recent.
const RecentWindow = 7 * 24 * time.Hour

// Count is one bucket of a breakdown.
type Count struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Breakdown counts rows per value of key in first-seen order. Rows for
// which key reports false are skipped.
func Breakdown[R any](rows []R, key func(R) (string, bool)) []Count {
	index := make(map[string]int)
	var out []Count
	for _, r := range rows {
		v, ok := key(r)
		if !ok {
			continue
		}
		i, seen := index[v]
		if !seen {
			index[v] = len(out)
			out = append(out, Count{Value: v, Count: 1})
			continue
		}
		out[i].Count++
	}
	return out
}

// Top returns the most frequent value; ties go to the value seen first.
func Top[R any](rows []R, key func(R) (string, bool)) (string, bool) {
	var best Count
	found := false
	for _, c := range Breakdown(rows, key) {
		if !found || c.Count > best.Count {
			best = c
			found = true
		}
	}
	return best.Value, found
}

// Average is the mean over rows that carry the field, or 0 when none do.
func Average[R any](rows []R, field func(R) (float64, bool)) float64 {
	var sum float64
	n := 0
	for _, r := range rows {
		if v, ok := field(r); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Sum adds a currency field exactly. Rows without the field contribute
// nothing; the second result is the number of contributing rows.
func Sum[R any](rows []R, field func(R) (decimal.Decimal, bool)) (decimal.Decimal, int) {
	total := decimal.Zero
	n := 0
	for _, r := range rows {
		if v, ok := field(r); ok {
			total = total.Add(v)
			n++
		}
	}
	return total, n
}

// Recent keeps rows whose timestamp is no more than RecentWindow before now.
// Rows without a usable timestamp are dropped.
func Recent[R any](rows []R, ts func(R) (time.Time, bool), now time.Time) []R {
	cutoff := now.Add(-RecentWindow)
	var out []R
	for _, r := range rows {
		t, ok := ts(r)
		if ok && !t.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

// Ranked counts every value produced for every row and orders the result by
// count, descending, with first-seen order breaking ties.
func Ranked[R any](rows []R, values func(R) []string) []Count {
	index := make(map[string]int)
	var out []Count
	for _, r := range rows {
		for _, v := range values(r) {
			if v == "" {
				continue
			}
			if i, seen := index[v]; seen {
				out[i].Count++
				continue
			}
			index[v] = len(out)
			out = append(out, Count{Value: v, Count: 1})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}
