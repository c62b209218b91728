package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wolfman30/insightdesk/internal/crm"
)

func TestEvalDateBounds(t *testing.T) {
	conv := crm.Conversation{ID: "v1", OccurredAt: crm.ParseDate("2025-09-05T12:00:00Z")}
	start := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 9, 5, 12, 0, 0, 0, time.UTC)

	d := Descriptor{Table: "conversations", Where: []Predicate{
		{Column: "occurred_at", Op: OpGte, Value: start},
		{Column: "occurred_at", Op: OpLte, Value: end},
	}}
	assert.True(t, Eval(d, conv))

	conv.OccurredAt = crm.ParseDate("garbage")
	assert.False(t, Eval(d, conv))
}

func TestEvalNumericThresholdSkipsMissing(t *testing.T) {
	urg := 8.0
	d := Descriptor{Table: "insights", Where: []Predicate{{Column: "urgency_score", Op: OpGte, Value: 5.0}}}
	assert.True(t, Eval(d, crm.Insight{UrgencyScore: &urg}))
	assert.False(t, Eval(d, crm.Insight{}))
}

func TestEvalILikeIsCaseInsensitive(t *testing.T) {
	d := Descriptor{Table: "customers", Where: []Predicate{{Column: "name", Op: OpILike, Value: "ACME"}}}
	assert.True(t, Eval(d, crm.Customer{Name: "Acme Corp"}))
	assert.False(t, Eval(d, crm.Customer{Name: "Globex"}))
}

func TestEvalContainsIsExactElement(t *testing.T) {
	d := Descriptor{Table: "insights", Where: []Predicate{{Column: "topics", Op: OpContains, Value: "CRM"}}}
	assert.True(t, Eval(d, crm.Insight{Topics: []string{"CRM"}}))
	assert.False(t, Eval(d, crm.Insight{Topics: []string{"CRM Integration"}}))
}

func TestEvalEqualityOnCategory(t *testing.T) {
	d := Descriptor{Table: "insights", Where: []Predicate{{Column: "category", Op: OpEq, Value: "pain_point"}}}
	assert.True(t, Eval(d, crm.Insight{Category: crm.CategoryPainPoint}))
	assert.False(t, Eval(d, crm.Insight{Category: "mystery"}))
}

func TestFilterHonoursLimit(t *testing.T) {
	records := []crm.Customer{{ID: "a", Status: "active"}, {ID: "b", Status: "churned"}, {ID: "c", Status: "active"}}
	d := Descriptor{Table: "customers", Where: []Predicate{{Column: "status", Op: OpEq, Value: "active"}}}

	assert.Len(t, Filter(d, records), 2)
	d.Limit = 1
	got := Filter(d, records)
	if assert.Len(t, got, 1) {
		assert.Equal(t, "a", got[0].ID)
	}
}
