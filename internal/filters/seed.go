package filters

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/insightdesk/internal/crm"
)

// seedParams maps navigation parameter names to dimensions.
var seedParams = map[string]Dimension{
	"type":            DimType,
	"status":          DimStatus,
	"tier":            DimTier,
	"health":          DimHealth,
	"size":            DimSize,
	"category":        DimCategory,
	"priority":        DimPriority,
	"sentiment":       DimSentiment,
	"industry":        DimIndustry,
	"customer_id":     DimCustomer,
	"conversation_id": DimConversation,
}

var seedMetrics = map[string]Metric{
	"min_urgency":    MetricUrgency,
	"min_confidence": MetricConfidence,
}

// Seed applies navigation parameters the first time it is called and is a
// no-op afterwards, so later user edits are never overwritten. Parameters that
// do not apply to the entity, malformed dates and malformed numbers are
// skipped. It reports whether the parameters were applied.
func (s *State) Seed(values url.Values) bool {
	if s.seeded {
		return false
	}
	s.seeded = true

	for param, dim := range seedParams {
		if !Applies(s.entity, dim) {
			continue
		}
		v := values.Get(param)
		if v == "" {
			continue
		}
		if dim == DimCategory {
			v = string(crm.ParseCategory(v))
		}
		_ = s.SetDimension(dim, v)
	}
	for param, m := range seedMetrics {
		if !metricApplies(s.entity, m) {
			continue
		}
		if v, err := strconv.ParseFloat(values.Get(param), 64); err == nil {
			_ = s.SetThreshold(m, &v)
		}
	}

	start, okStart := ParseBound(values.Get("date_from"), false)
	end, okEnd := ParseBound(values.Get("date_to"), true)
	if okStart || okEnd {
		var sp, ep *time.Time
		if okStart {
			sp = &start
		}
		if okEnd {
			ep = &end
		}
		s.SetDateRange(sp, ep)
	}

	for _, q := range values["q"] {
		s.AddSearchTerm(q)
	}
	if mode, err := ParseSearchMode(values.Get("mode")); err == nil {
		s.mode = mode
	}
	return true
}

// Seeded reports whether Seed has already run.
func (s *State) Seeded() bool { return s.seeded }

// ParseBound parses a date bound. A date-only end bound covers the whole day.
func ParseBound(raw string, end bool) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), true
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	if end {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t.UTC(), true
}
