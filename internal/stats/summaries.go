package stats

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wolfman30/insightdesk/internal/crm"
	"github.com/wolfman30/insightdesk/internal/enrich"
)

// DashboardRecentLimit is the number of newest insights on the dashboard.
const DashboardRecentLimit = 5

// CustomerSummary backs the customer page cards.
type CustomerSummary struct {
	Total          int             `json:"total"`
	Active         int             `json:"active"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	AverageRevenue decimal.Decimal `json:"average_revenue"`
	AtRisk         int             `json:"at_risk"`
	ByStatus       []Count         `json:"by_status"`
	ByTier         []Count         `json:"by_tier"`
}

// Customers summarizes customer rows. At-risk covers the at-risk and
// critical health buckets.
func Customers(rows []enrich.CustomerRow) CustomerSummary {
	s := CustomerSummary{Total: len(rows)}
	for _, r := range rows {
		if r.Status == "active" {
			s.Active++
		}
		if r.HealthBucket == "at-risk" || r.HealthBucket == "critical" {
			s.AtRisk++
		}
	}
	total, n := Sum(rows, func(r enrich.CustomerRow) (decimal.Decimal, bool) {
		if r.Revenue == nil {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(*r.Revenue), true
	})
	s.TotalRevenue = total
	s.AverageRevenue = decimal.Zero
	if n > 0 {
		s.AverageRevenue = total.Div(decimal.NewFromInt(int64(n))).Round(2)
	}
	s.ByStatus = Breakdown(rows, func(r enrich.CustomerRow) (string, bool) { return r.Status, r.Status != "" })
	s.ByTier = Breakdown(rows, func(r enrich.CustomerRow) (string, bool) { return r.Tier, r.Tier != "" })
	return s
}

// ConversationSummary backs the conversation page cards.
type ConversationSummary struct {
	Total           int     `json:"total"`
	Completed       int     `json:"completed"`
	Scheduled       int     `json:"scheduled"`
	AverageDuration float64 `json:"average_duration_minutes"`
	ByType          []Count `json:"by_type"`
	BySentiment     []Count `json:"by_sentiment"`
}

// Conversations summarizes conversation rows.
func Conversations(rows []enrich.ConversationRow) ConversationSummary {
	s := ConversationSummary{Total: len(rows)}
	for _, r := range rows {
		switch r.Status {
		case "completed":
			s.Completed++
		case "scheduled":
			s.Scheduled++
		}
	}
	s.AverageDuration = Average(rows, func(r enrich.ConversationRow) (float64, bool) {
		if r.DurationMinutes == nil {
			return 0, false
		}
		return float64(*r.DurationMinutes), true
	})
	s.ByType = Breakdown(rows, func(r enrich.ConversationRow) (string, bool) { return r.Type, r.Type != "" })
	s.BySentiment = Breakdown(rows, func(r enrich.ConversationRow) (string, bool) {
		return r.SentimentLabel, r.SentimentLabel != ""
	})
	return s
}

// InsightSummary backs the insight page cards.
type InsightSummary struct {
	Total           int     `json:"total"`
	UniqueCustomers int     `json:"unique_customers"`
	TopCategory     string  `json:"top_category"`
	ThisWeek        int     `json:"this_week"`
	AverageUrgency  float64 `json:"average_urgency"`
	ByCategory      []Count `json:"by_category"`
}

// Insights summarizes the full insight set relative to now. Only
// UniqueCustomers is counted over filtered, and unresolved customers are not
// counted as distinct customers.
func Insights(rows, filtered []enrich.InsightRow, now time.Time) InsightSummary {
	s := InsightSummary{Total: len(rows), TopCategory: crm.Unknown}
	seen := make(map[string]struct{})
	for _, r := range filtered {
		if r.ResolvedCustomerID != "" {
			seen[r.ResolvedCustomerID] = struct{}{}
		}
	}
	s.UniqueCustomers = len(seen)
	if top, ok := Top(rows, insightCategory); ok {
		s.TopCategory = top
	}
	s.ThisWeek = len(Recent(rows, enrich.InsightRow.Timestamp, now))
	s.AverageUrgency = Average(rows, func(r enrich.InsightRow) (float64, bool) {
		if r.UrgencyScore == nil {
			return 0, false
		}
		return *r.UrgencyScore, true
	})
	s.ByCategory = Breakdown(rows, insightCategory)
	return s
}

func insightCategory(r enrich.InsightRow) (string, bool) {
	return string(r.Category), r.Category != ""
}

// DashboardSummary backs the landing page.
type DashboardSummary struct {
	ActiveCustomers    int                 `json:"active_customers"`
	TotalCalls         int                 `json:"total_calls"`
	TotalInsights      int                 `json:"total_insights"`
	InsightsByCategory []Count             `json:"insights_by_category"`
	TopTopics          []Count             `json:"top_topics"`
	RecentInsights     []enrich.InsightRow `json:"recent_insights"`
}

// Dashboard summarizes the whole dataset. Active customers are the distinct
// customers that own at least one conversation.
func Dashboard(conversations []enrich.ConversationRow, insights []enrich.InsightRow) DashboardSummary {
	s := DashboardSummary{TotalInsights: len(insights)}
	owners := make(map[string]struct{})
	for _, c := range conversations {
		if c.CustomerID != "" {
			owners[c.CustomerID] = struct{}{}
		}
		if c.Type == "call" {
			s.TotalCalls++
		}
	}
	s.ActiveCustomers = len(owners)
	s.InsightsByCategory = Breakdown(insights, insightCategory)
	s.TopTopics = Ranked(insights, func(r enrich.InsightRow) []string { return r.Topics })

	recent := append([]enrich.InsightRow(nil), insights...)
	sort.SliceStable(recent, func(i, j int) bool {
		a, _ := recent[i].Timestamp()
		b, _ := recent[j].Timestamp()
		return a.After(b)
	})
	if len(recent) > DashboardRecentLimit {
		recent = recent[:DashboardRecentLimit]
	}
	s.RecentInsights = recent
	return s
}
