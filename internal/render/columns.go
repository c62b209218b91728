package render

import (
	"strconv"

	"github.com/wolfman30/insightdesk/internal/enrich"
)

// InsightColumns is the insight table layout.
func InsightColumns() []Column[enrich.InsightRow] {
	return []Column[enrich.InsightRow]{
		{Key: "date", Header: "Date", Format: func(r enrich.InsightRow) string {
			if r.ConversationAt.Valid() {
				return Date(r.ConversationAt)
			}
			return Date(r.CreatedAt)
		}},
		{Key: "customer", Header: "Customer", Format: func(r enrich.InsightRow) string { return r.CustomerName }},
		{Key: "industry", Header: "Industry", Format: func(r enrich.InsightRow) string { return r.CustomerIndustry }},
		{Key: "type", Header: "Type", Format: func(r enrich.InsightRow) string { return Label(r.ConversationType) }},
		{Key: "category", Header: "Category", Format: func(r enrich.InsightRow) string { return r.Category.Display() }},
		{Key: "insight", Header: "Insight", Format: func(r enrich.InsightRow) string { return r.Text }},
		{Key: "topics", Header: "Topics", Format: func(r enrich.InsightRow) string { return Topics(r.Topics) }},
		{Key: "urgency", Header: "Urgency", Format: func(r enrich.InsightRow) string { return Score(r.UrgencyScore) }},
	}
}

// InsightID keys insight rows by their conversation so a click opens the
// conversation detail.
func InsightID(r enrich.InsightRow) string {
	if r.ConversationID != "" {
		return r.ConversationID
	}
	return r.ID
}

// ConversationColumns is the conversation table layout.
func ConversationColumns() []Column[enrich.ConversationRow] {
	return []Column[enrich.ConversationRow]{
		{Key: "date", Header: "Date", Format: func(r enrich.ConversationRow) string { return Date(r.OccurredAt) }},
		{Key: "customer", Header: "Customer", Format: func(r enrich.ConversationRow) string { return r.CustomerName }},
		{Key: "type", Header: "Type", Format: func(r enrich.ConversationRow) string { return Label(r.Type) }},
		{Key: "subject", Header: "Subject", Format: func(r enrich.ConversationRow) string { return r.Subject }},
		{Key: "duration", Header: "Duration", Format: func(r enrich.ConversationRow) string { return Duration(r.DurationMinutes) }},
		{Key: "status", Header: "Status", Format: func(r enrich.ConversationRow) string { return Label(r.Status) }},
		{Key: "sentiment", Header: "Sentiment", Format: func(r enrich.ConversationRow) string { return Label(r.SentimentLabel) }},
		{Key: "priority", Header: "Priority", Format: func(r enrich.ConversationRow) string { return Label(r.Priority) }},
		{Key: "insights", Header: "Insights", Format: func(r enrich.ConversationRow) string { return strconv.Itoa(r.InsightCount) }},
	}
}

// ConversationID keys conversation rows.
func ConversationID(r enrich.ConversationRow) string { return r.ID }

// CustomerColumns is the customer table layout.
func CustomerColumns() []Column[enrich.CustomerRow] {
	return []Column[enrich.CustomerRow]{
		{Key: "name", Header: "Customer", Format: func(r enrich.CustomerRow) string { return r.Name }},
		{Key: "industry", Header: "Industry", Format: func(r enrich.CustomerRow) string { return r.Industry }},
		{Key: "size", Header: "Size", Format: func(r enrich.CustomerRow) string { return Label(r.Size) }},
		{Key: "status", Header: "Status", Format: func(r enrich.CustomerRow) string { return Label(r.Status) }},
		{Key: "tier", Header: "Tier", Format: func(r enrich.CustomerRow) string { return Label(r.Tier) }},
		{Key: "health", Header: "Health", Format: func(r enrich.CustomerRow) string { return Label(r.HealthBucket) }},
		{Key: "revenue", Header: "Revenue", Format: func(r enrich.CustomerRow) string { return Currency(r.Revenue) }},
		{Key: "location", Header: "Location", Format: func(r enrich.CustomerRow) string { return r.Location.String() }},
		{Key: "conversations", Header: "Conversations", Format: func(r enrich.CustomerRow) string { return strconv.Itoa(r.ConversationCount) }},
		{Key: "last_type", Header: "Last Contact", Format: func(r enrich.CustomerRow) string { return Label(r.LastConversationType) }},
	}
}

// CustomerID keys customer rows.
func CustomerID(r enrich.CustomerRow) string { return r.ID }
