package enrich

import "github.com/wolfman30/insightdesk/internal/crm"

// Insights enriches a batch, preserving order.
func Insights(in []crm.Insight, l *Lookups) []InsightRow {
	out := make([]InsightRow, len(in))
	for i, v := range in {
		out[i] = Insight(v, l)
	}
	return out
}

// Conversations enriches a batch, preserving order.
func Conversations(in []crm.Conversation, l *Lookups) []ConversationRow {
	out := make([]ConversationRow, len(in))
	for i, v := range in {
		out[i] = Conversation(v, l)
	}
	return out
}

// Customers enriches a batch, preserving order.
func Customers(in []crm.Customer, l *Lookups) []CustomerRow {
	out := make([]CustomerRow, len(in))
	for i, v := range in {
		out[i] = Customer(v, l)
	}
	return out
}
