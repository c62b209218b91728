package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/insightdesk/internal/crm"
)

// Eval reports whether record satisfies every predicate and group of d.
// Missing or malformed values never satisfy a predicate.
func Eval(d Descriptor, record crm.Record) bool {
	for _, p := range d.Where {
		if !evalPredicate(p, record) {
			return false
		}
	}
	for _, g := range d.AnyOf {
		if !evalGroup(g, record) {
			return false
		}
	}
	return true
}

// Filter returns the records that satisfy d, honouring its limit.
func Filter[R crm.Record](d Descriptor, records []R) []R {
	out := make([]R, 0, len(records))
	for _, r := range records {
		if !Eval(d, r) {
			continue
		}
		out = append(out, r)
		if d.Limit > 0 && len(out) == d.Limit {
			break
		}
	}
	return out
}

func evalGroup(g Group, record crm.Record) bool {
	for _, p := range g {
		if evalPredicate(p, record) {
			return true
		}
	}
	return false
}

func evalPredicate(p Predicate, record crm.Record) bool {
	v, ok := record.Column(p.Column)
	if !ok {
		return false
	}
	switch p.Op {
	case OpEq:
		if _, isString := v.(string); !isString {
			if a, ok := toFloat(v); ok {
				b, ok := toFloat(p.Value)
				return ok && a == b
			}
		}
		return fmt.Sprint(stringValue(v)) == fmt.Sprint(stringValue(p.Value))
	case OpGte, OpLte:
		cmp, ok := compare(v, p.Value)
		if !ok {
			return false
		}
		if p.Op == OpGte {
			return cmp >= 0
		}
		return cmp <= 0
	case OpILike:
		s, ok := v.(string)
		needle, ok2 := p.Value.(string)
		return ok && ok2 && strings.Contains(strings.ToLower(s), strings.ToLower(needle))
	case OpContains:
		arr, ok := v.([]string)
		needle, ok2 := p.Value.(string)
		if !ok || !ok2 {
			return false
		}
		for _, el := range arr {
			if el == needle {
				return true
			}
		}
		return false
	}
	return false
}

// compare orders a record value against a bound: -1, 0 or 1.
func compare(v, bound any) (int, bool) {
	if t, ok := toTime(v); ok {
		b, ok := toTime(bound)
		if !ok {
			return 0, false
		}
		return t.Compare(b), true
	}
	a, ok := toFloat(v)
	if !ok {
		return 0, false
	}
	b, ok := toFloat(bound)
	if !ok {
		return 0, false
	}
	switch {
	case a < b:
		return -1, true
	case a > b:
		return 1, true
	}
	return 0, true
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case crm.Date:
		return t.Time, t.Valid()
	case string:
		d := crm.ParseDate(t)
		return d.Time, d.Valid()
	}
	return time.Time{}, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

func stringValue(v any) any {
	switch s := v.(type) {
	case crm.Category:
		return string(s)
	case fmt.Stringer:
		return s.String()
	}
	return v
}
