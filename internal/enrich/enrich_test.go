package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/insightdesk/internal/crm"
	"github.com/wolfman30/insightdesk/internal/filters"
)

func fixture() ([]crm.Customer, []crm.Conversation, []crm.Insight) {
	customers := []crm.Customer{
		{ID: "c1", Name: "Acme Corp", Industry: "Manufacturing", Status: "active", Tier: "pro"},
		{ID: "c2", Name: "Globex", HealthScore: ptr(45)},
	}
	dur := 45
	conversations := []crm.Conversation{
		{ID: "v1", CustomerID: "c1", Type: "call", OccurredAt: crm.ParseDate("2025-09-01T10:00:00Z"), DurationMinutes: &dur},
		{ID: "v2", CustomerID: "c1", Type: "email", OccurredAt: crm.ParseDate("2025-09-03T10:00:00Z"), SentimentScore: ptr(-0.4)},
		{ID: "v3", CustomerID: "gone", Type: "chat", OccurredAt: crm.ParseDate("not a date")},
	}
	insights := []crm.Insight{
		{ID: "i1", ConversationID: "v1", Category: crm.CategoryPainPoint, Text: "Integration with CRM is too slow", Topics: []string{"CRM", "Integration"}},
		{ID: "i2", ConversationID: "v2", CustomerID: "c2", Category: crm.CategoryRequest},
		{ID: "i3", ConversationID: "missing", Category: crm.CategoryIssue},
	}
	return customers, conversations, insights
}

func ptr(v float64) *float64 { return &v }

func TestInsightResolvesThroughConversation(t *testing.T) {
	l := NewLookups(fixture())
	_, _, insights := fixture()

	row := Insight(insights[0], l)
	assert.Equal(t, "Acme Corp", row.CustomerName)
	assert.Equal(t, "Manufacturing", row.CustomerIndustry)
	assert.Equal(t, "call", row.ConversationType)
	assert.Equal(t, "2025-09-01", row.ConversationDate)
	assert.Equal(t, "c1", row.ResolvedCustomerID)
}

func TestInsightPrefersOwnCustomerReference(t *testing.T) {
	l := NewLookups(fixture())
	_, _, insights := fixture()

	row := Insight(insights[1], l)
	assert.Equal(t, "Globex", row.CustomerName)
	assert.Equal(t, crm.Unknown, row.CustomerIndustry)
	assert.Equal(t, "email", row.ConversationType)
}

func TestInsightWithDanglingConversation(t *testing.T) {
	l := NewLookups(fixture())
	_, _, insights := fixture()

	row := Insight(insights[2], l)
	assert.Equal(t, Placeholder, row.ConversationType)
	assert.Equal(t, Placeholder, row.ConversationDate)
	assert.Equal(t, crm.Unknown, row.CustomerName)
	_, ok := row.Timestamp()
	assert.False(t, ok)
}

func TestNilLookupsNeverPanic(t *testing.T) {
	row := Insight(crm.Insight{ID: "x", ConversationID: "y"}, nil)
	assert.Equal(t, crm.Unknown, row.CustomerName)

	conv := Conversation(crm.Conversation{ID: "v", CustomerID: "c"}, nil)
	assert.Equal(t, crm.Unknown, conv.CustomerName)
	assert.Zero(t, conv.InsightCount)

	cust := Customer(crm.Customer{ID: "c"}, nil)
	assert.Equal(t, Placeholder, cust.LastConversationType)
}

func TestConversationDerivesSentimentFromScore(t *testing.T) {
	l := NewLookups(fixture())
	_, conversations, _ := fixture()

	rows := Conversations(conversations, l)
	require.Len(t, rows, 3)
	assert.Equal(t, 1, rows[0].InsightCount)
	assert.Equal(t, "negative", rows[1].SentimentLabel)
	v, ok := rows[1].FieldValue(filters.DimSentiment)
	assert.True(t, ok)
	assert.Equal(t, "negative", v)
	assert.Equal(t, crm.Unknown, rows[2].CustomerName)
}

func TestCustomerRollups(t *testing.T) {
	l := NewLookups(fixture())
	customers, _, _ := fixture()

	rows := Customers(customers, l)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].ConversationCount)
	assert.Equal(t, 1, rows[0].InsightCount)
	assert.Equal(t, "email", rows[0].LastConversationType)

	assert.Equal(t, "at-risk", rows[1].HealthBucket)
	assert.Equal(t, 1, rows[1].InsightCount)
	assert.Equal(t, Placeholder, rows[1].LastConversationType)
}

func TestInsightSearchTextCoversJoinedFields(t *testing.T) {
	l := NewLookups(fixture())
	_, _, insights := fixture()
	text := Insight(insights[0], l).SearchText()
	for _, want := range []string{"Acme Corp", "call", "pain_point", "too slow", "Integration"} {
		assert.Contains(t, text, want)
	}
}

func TestEnrichedRowsFilterClientSide(t *testing.T) {
	l := NewLookups(fixture())
	_, _, insights := fixture()
	rows := Insights(insights, l)

	state := filters.NewState(crm.EntityInsights)
	state.AddSearchTerm("CRM")
	assert.Len(t, filters.Apply(rows, state), 1)

	state.AddSearchTerm("Billing")
	assert.Empty(t, filters.Apply(rows, state))
}

func TestLookupsKeepFullLists(t *testing.T) {
	l := NewLookups(fixture())
	assert.Len(t, l.Customers(), 2)
	assert.Len(t, l.Conversations(), 3)
	require.Len(t, l.Insights(), 3)
	assert.Equal(t, "i1", l.Insights()[0].ID)

	var empty *Lookups
	assert.Nil(t, empty.Insights())
}
