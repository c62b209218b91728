// Package filters owns the per-entity filter state and the client-side
// predicate evaluator that decides which view rows are visible.
package filters

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/insightdesk/internal/crm"
)

var (
	// ErrDimensionNotApplicable is returned when a dimension is set on an entity that lacks it.
	ErrDimensionNotApplicable = errors.New("filters: dimension does not apply to entity")

	// ErrMetricNotApplicable is returned when a threshold is set on an entity that lacks the metric.
	ErrMetricNotApplicable = errors.New("filters: metric does not apply to entity")

	// ErrUnknownMode is returned for an unrecognised search mode.
	ErrUnknownMode = errors.New("filters: unknown search mode")
)

// SearchMode controls how several search terms combine.
type SearchMode string

const (
	// ModeDefault keeps each path's native rule: the client evaluator requires
	// every term, the remote composer accepts any term.
	ModeDefault SearchMode = ""
	ModeAll     SearchMode = "all"
	ModeAny     SearchMode = "any"
)

// ParseSearchMode validates a mode string.
func ParseSearchMode(s string) (SearchMode, error) {
	switch SearchMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeDefault:
		return ModeDefault, nil
	case ModeAll:
		return ModeAll, nil
	case ModeAny:
		return ModeAny, nil
	}
	return ModeDefault, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// DateRange holds independently optional inclusive bounds.
type DateRange struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// IsZero reports whether neither bound is set.
func (r DateRange) IsZero() bool {
	return r.Start == nil && r.End == nil
}

// State is the complete filter selection for one entity's table.
type State struct {
	entity     crm.Entity
	dims       map[Dimension]string
	terms      []string
	dates      DateRange
	thresholds map[Metric]float64
	mode       SearchMode
	seeded     bool
}

// NewState returns an empty filter state for entity.
func NewState(entity crm.Entity) *State {
	return &State{
		entity:     entity,
		dims:       make(map[Dimension]string),
		thresholds: make(map[Metric]float64),
	}
}

// Entity returns the entity the state filters.
func (s *State) Entity() crm.Entity { return s.entity }

// SetDimension selects value for dim. Empty and "all" clear the dimension.
func (s *State) SetDimension(dim Dimension, value string) error {
	if !Applies(s.entity, dim) {
		return fmt.Errorf("%w: %s on %s", ErrDimensionNotApplicable, dim, s.entity)
	}
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "all") {
		delete(s.dims, dim)
		return nil
	}
	s.dims[dim] = value
	return nil
}

// ClearDimension unsets dim.
func (s *State) ClearDimension(dim Dimension) {
	delete(s.dims, dim)
}

// Dimension returns the selected value for dim, if any.
func (s *State) Dimension(dim Dimension) (string, bool) {
	v, ok := s.dims[dim]
	return v, ok
}

// SetDimensions returns the set dimensions in the entity's display order.
func (s *State) SetDimensions() []Dimension {
	out := make([]Dimension, 0, len(s.dims))
	for _, d := range entityDimensions[s.entity] {
		if _, ok := s.dims[d]; ok {
			out = append(out, d)
		}
	}
	return out
}

// AddSearchTerm appends a trimmed term. Empty terms and exact duplicates are
// ignored; the return value reports whether the collection changed.
func (s *State) AddSearchTerm(term string) bool {
	term = strings.TrimSpace(term)
	if term == "" {
		return false
	}
	for _, existing := range s.terms {
		if existing == term {
			return false
		}
	}
	s.terms = append(s.terms, term)
	return true
}

// RemoveSearchTerm removes exactly one entry equal to term.
func (s *State) RemoveSearchTerm(term string) bool {
	for i, existing := range s.terms {
		if existing == term {
			s.terms = append(s.terms[:i:i], s.terms[i+1:]...)
			return true
		}
	}
	return false
}

// SearchTerms returns a copy of the terms in entry order.
func (s *State) SearchTerms() []string {
	return append([]string(nil), s.terms...)
}

// SetDateRange replaces both bounds. Either may be nil.
func (s *State) SetDateRange(start, end *time.Time) {
	s.dates = DateRange{Start: copyTime(start), End: copyTime(end)}
}

// DateRange returns the current bounds.
func (s *State) DateRange() DateRange {
	return DateRange{Start: copyTime(s.dates.Start), End: copyTime(s.dates.End)}
}

// SetThreshold sets a minimum value for a metric; nil clears it.
func (s *State) SetThreshold(m Metric, min *float64) error {
	if !metricApplies(s.entity, m) {
		return fmt.Errorf("%w: %s on %s", ErrMetricNotApplicable, m, s.entity)
	}
	if min == nil {
		delete(s.thresholds, m)
		return nil
	}
	s.thresholds[m] = *min
	return nil
}

// Threshold returns the minimum for a metric, if set.
func (s *State) Threshold(m Metric) (float64, bool) {
	v, ok := s.thresholds[m]
	return v, ok
}

// SetMode selects how multiple search terms combine.
func (s *State) SetMode(mode SearchMode) {
	s.mode = mode
}

// Mode returns the configured search mode.
func (s *State) Mode() SearchMode { return s.mode }

// ClearAll resets every dimension, bound, threshold and term at once.
// The search mode and seed marker are preserved.
func (s *State) ClearAll() {
	s.dims = make(map[Dimension]string)
	s.thresholds = make(map[Metric]float64)
	s.terms = nil
	s.dates = DateRange{}
}

// IsEmpty reports whether nothing constrains the rows.
func (s *State) IsEmpty() bool {
	return len(s.dims) == 0 && len(s.terms) == 0 && len(s.thresholds) == 0 && s.dates.IsZero()
}

// Clone returns an independent copy.
func (s *State) Clone() *State {
	c := NewState(s.entity)
	for k, v := range s.dims {
		c.dims[k] = v
	}
	for k, v := range s.thresholds {
		c.thresholds[k] = v
	}
	c.terms = s.SearchTerms()
	c.dates = s.DateRange()
	c.mode = s.mode
	c.seeded = s.seeded
	return c
}

// Fingerprint is a deterministic key for the full state. Two states with the
// same fingerprint select the same rows.
func (s *State) Fingerprint() string {
	var b strings.Builder
	b.WriteString(string(s.entity))
	dims := make([]string, 0, len(s.dims))
	for d, v := range s.dims {
		dims = append(dims, string(d)+"="+strconv.Quote(v))
	}
	sort.Strings(dims)
	for _, d := range dims {
		b.WriteString("|d:")
		b.WriteString(d)
	}
	metrics := make([]string, 0, len(s.thresholds))
	for m, v := range s.thresholds {
		metrics = append(metrics, string(m)+">="+strconv.FormatFloat(v, 'g', -1, 64))
	}
	sort.Strings(metrics)
	for _, m := range metrics {
		b.WriteString("|m:")
		b.WriteString(m)
	}
	if s.dates.Start != nil {
		b.WriteString("|from:" + s.dates.Start.UTC().Format(time.RFC3339Nano))
	}
	if s.dates.End != nil {
		b.WriteString("|to:" + s.dates.End.UTC().Format(time.RFC3339Nano))
	}
	for _, t := range s.terms {
		b.WriteString("|q:" + strconv.Quote(t))
	}
	if s.mode != ModeDefault {
		b.WriteString("|mode:" + string(s.mode))
	}
	return b.String()
}

// Chip is one removable active filter.
type Chip struct {
	Label     string    `json:"label"`
	Dimension Dimension `json:"dimension,omitempty"`
	Term      string    `json:"term,omitempty"`
	Bound     string    `json:"bound,omitempty"`
}

// ActiveFilters lists the filters a user can remove individually.
func (s *State) ActiveFilters() []Chip {
	chips := make([]Chip, 0, len(s.dims)+len(s.terms)+2)
	for _, d := range s.SetDimensions() {
		chips = append(chips, Chip{Label: d.Label() + ": " + s.dims[d], Dimension: d})
	}
	for _, m := range entityMetrics[s.entity] {
		if v, ok := s.thresholds[m]; ok {
			chips = append(chips, Chip{Label: "Min " + string(m) + ": " + strconv.FormatFloat(v, 'g', -1, 64)})
		}
	}
	if s.dates.Start != nil {
		chips = append(chips, Chip{Label: "Start: " + s.dates.Start.Format("1/2/2006"), Bound: "start"})
	}
	if s.dates.End != nil {
		chips = append(chips, Chip{Label: "End: " + s.dates.End.Format("1/2/2006"), Bound: "end"})
	}
	for _, t := range s.terms {
		chips = append(chips, Chip{Label: t, Term: t})
	}
	return chips
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
