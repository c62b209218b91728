package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/insightdesk/internal/crm"
	"github.com/wolfman30/insightdesk/internal/stats"
)

func TestListCategories(t *testing.T) {
	var body struct {
		Categories []CategoryOption `json:"categories"`
	}
	rec := get(t, testRouter(fixture()), "/api/insights/categories", &body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []CategoryOption{
		{Category: crm.CategoryRequest, Label: "Request", Count: 2},
		{Category: crm.CategoryPainPoint, Label: "Pain Point", Count: 1},
	}, body.Categories)
}

func TestListTopics(t *testing.T) {
	var body struct {
		Topics []crm.TopicCount `json:"topics"`
	}
	rec := get(t, testRouter(fixture()), "/api/insights/topics", &body)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, body.Topics)
	assert.Equal(t, crm.TopicCount{Topic: "CRM", Count: 2}, body.Topics[0])
}

func TestVocabularyFailure(t *testing.T) {
	var body map[string]string
	rec := get(t, testRouter(downSource{}), "/api/insights/topics", &body)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "failed", body["status"])
}

func TestDashboard(t *testing.T) {
	var summary stats.DashboardSummary
	rec := get(t, testRouter(fixture()), "/api/dashboard", &summary)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, summary.ActiveCustomers)
	assert.Equal(t, 1, summary.TotalCalls)
	assert.Equal(t, 3, summary.TotalInsights)
	require.Len(t, summary.RecentInsights, 3)
	assert.Equal(t, "Globex", summary.RecentInsights[0].CustomerName)
}

func TestDashboardFailure(t *testing.T) {
	var body map[string]string
	rec := get(t, testRouter(downSource{}), "/api/dashboard", &body)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "failed", body["status"])
	assert.Contains(t, body["error"], "load customers")
}
