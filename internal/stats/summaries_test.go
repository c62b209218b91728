package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/insightdesk/internal/crm"
	"github.com/wolfman30/insightdesk/internal/enrich"
)

func floatPtr(v float64) *float64 { return &v }

func TestCustomersSummary(t *testing.T) {
	rows := enrich.Customers([]crm.Customer{
		{ID: "1", Status: "active", Tier: "pro", Revenue: floatPtr(48000), Health: "good"},
		{ID: "2", Status: "active", Tier: "enterprise", Revenue: floatPtr(120000.50), Health: "critical"},
		{ID: "3", Status: "prospect", Tier: "free", HealthScore: floatPtr(50)},
	}, nil)

	s := Customers(rows)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.Active)
	assert.Equal(t, 2, s.AtRisk)
	assert.Equal(t, "168000.5", s.TotalRevenue.String())
	assert.Equal(t, "84000.25", s.AverageRevenue.String())
	assert.Equal(t, []Count{{"active", 2}, {"prospect", 1}}, s.ByStatus)
}

func TestCustomersSummaryWithoutRevenue(t *testing.T) {
	s := Customers(nil)
	assert.True(t, s.AverageRevenue.IsZero())
	assert.True(t, s.TotalRevenue.IsZero())
}

func TestConversationsSummary(t *testing.T) {
	d45, d15 := 45, 15
	rows := enrich.Conversations([]crm.Conversation{
		{ID: "a", Type: "call", Status: "completed", DurationMinutes: &d45},
		{ID: "b", Type: "email", Status: "scheduled"},
		{ID: "c", Type: "call", Status: "completed", DurationMinutes: &d15, SentimentScore: floatPtr(0.2)},
	}, nil)

	s := Conversations(rows)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.Completed)
	assert.Equal(t, 1, s.Scheduled)
	assert.Equal(t, 30.0, s.AverageDuration)
	assert.Equal(t, []Count{{"call", 2}, {"email", 1}}, s.ByType)
	assert.Equal(t, []Count{{"positive", 1}}, s.BySentiment)
}

func TestInsightsSummary(t *testing.T) {
	now := time.Date(2025, 9, 10, 0, 0, 0, 0, time.UTC)
	customers := []crm.Customer{{ID: "c1", Name: "Acme"}, {ID: "c2", Name: "Globex"}}
	conversations := []crm.Conversation{
		{ID: "v1", CustomerID: "c1", OccurredAt: crm.DateOf(now.Add(-48 * time.Hour))},
		{ID: "v2", CustomerID: "c2", OccurredAt: crm.DateOf(now.Add(-30 * 24 * time.Hour))},
	}
	insights := []crm.Insight{
		{ID: "1", ConversationID: "v1", Category: crm.CategoryIssue, UrgencyScore: floatPtr(8)},
		{ID: "2", ConversationID: "v2", Category: crm.CategoryRequest},
		{ID: "3", ConversationID: "v1", Category: crm.CategoryRequest, UrgencyScore: floatPtr(4)},
		{ID: "4", ConversationID: "nope", Category: crm.CategoryIssue},
	}
	rows := enrich.Insights(insights, enrich.NewLookups(customers, conversations, insights))

	s := Insights(rows, rows, now)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.UniqueCustomers)
	assert.Equal(t, "issue", s.TopCategory)
	assert.Equal(t, 2, s.ThisWeek)
	assert.Equal(t, 6.0, s.AverageUrgency)
}

func TestInsightsSummaryUniqueCustomersFollowFilter(t *testing.T) {
	now := time.Date(2025, 9, 10, 0, 0, 0, 0, time.UTC)
	customers := []crm.Customer{{ID: "c1"}, {ID: "c2"}}
	conversations := []crm.Conversation{{ID: "v1", CustomerID: "c1"}, {ID: "v2", CustomerID: "c2"}}
	insights := []crm.Insight{
		{ID: "1", ConversationID: "v1", Category: crm.CategoryIssue},
		{ID: "2", ConversationID: "v2", Category: crm.CategoryIssue},
		{ID: "3", ConversationID: "v2", Category: crm.CategoryRequest},
	}
	rows := enrich.Insights(insights, enrich.NewLookups(customers, conversations, insights))

	s := Insights(rows, rows[2:], now)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, "issue", s.TopCategory)
	assert.Equal(t, 1, s.UniqueCustomers)
}

func TestInsightsSummaryEmpty(t *testing.T) {
	s := Insights(nil, nil, time.Now())
	assert.Equal(t, crm.Unknown, s.TopCategory)
	assert.Zero(t, s.AverageUrgency)
}

func TestDashboardSummary(t *testing.T) {
	base := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	var insights []crm.Insight
	for i := 0; i < 7; i++ {
		insights = append(insights, crm.Insight{
			ID:        string(rune('a' + i)),
			Category:  crm.CategoryUpdate,
			Topics:    []string{"CRM"},
			CreatedAt: crm.DateOf(base.Add(time.Duration(i) * time.Hour)),
		})
	}
	conversations := []crm.Conversation{
		{ID: "v1", CustomerID: "c1", Type: "call"},
		{ID: "v2", CustomerID: "c1", Type: "email"},
		{ID: "v3", CustomerID: "c2", Type: "call"},
	}
	l := enrich.NewLookups(nil, conversations, insights)

	s := Dashboard(enrich.Conversations(conversations, l), enrich.Insights(insights, l))
	assert.Equal(t, 2, s.ActiveCustomers)
	assert.Equal(t, 2, s.TotalCalls)
	assert.Equal(t, 7, s.TotalInsights)
	assert.Equal(t, []Count{{"CRM", 7}}, s.TopTopics)
	require.Len(t, s.RecentInsights, DashboardRecentLimit)
	assert.Equal(t, "g", s.RecentInsights[0].ID)
	assert.Equal(t, "c", s.RecentInsights[4].ID)
}
