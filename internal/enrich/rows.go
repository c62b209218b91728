package enrich

import (
	"strings"
	"time"

	"github.com/wolfman30/insightdesk/internal/crm"
	"github.com/wolfman30/insightdesk/internal/filters"
)

// InsightRow is an insight joined with its conversation and customer.
type InsightRow struct {
	crm.Insight
	ResolvedCustomerID string   `json:"resolved_customer_id,omitempty"`
	CustomerName       string   `json:"customer_name"`
	CustomerIndustry   string   `json:"customer_industry"`
	ConversationType   string   `json:"conversation_type"`
	ConversationDate   string   `json:"conversation_date"`
	ConversationAt     crm.Date `json:"-"`
}

// Insight enriches one insight. Unresolved relations fall back to
// crm.Unknown for customer fields and Placeholder for conversation fields.
func Insight(in crm.Insight, l *Lookups) InsightRow {
	row := InsightRow{
		Insight:          in,
		CustomerName:     crm.Unknown,
		CustomerIndustry: crm.Unknown,
		ConversationType: Placeholder,
		ConversationDate: Placeholder,
	}
	conv, hasConv := l.Conversation(in.ConversationID)
	if hasConv {
		if conv.Type != "" {
			row.ConversationType = conv.Type
		}
		row.ConversationAt = conv.OccurredAt
		if conv.OccurredAt.Valid() {
			row.ConversationDate = conv.OccurredAt.Time.Format("2006-01-02")
		}
	}
	customerID := in.CustomerID
	if customerID == "" && hasConv {
		customerID = conv.CustomerID
	}
	row.ResolvedCustomerID = customerID
	if cust, ok := l.Customer(customerID); ok {
		row.CustomerName = orUnknown(cust.Name)
		row.CustomerIndustry = orUnknown(cust.Industry)
	}
	return row
}

// FieldValue implements filters.Row.
func (r InsightRow) FieldValue(dim filters.Dimension) (string, bool) {
	switch dim {
	case filters.DimCategory:
		return string(r.Category), r.Category != ""
	case filters.DimCustomer:
		return r.ResolvedCustomerID, r.ResolvedCustomerID != ""
	case filters.DimConversation:
		return r.ConversationID, r.ConversationID != ""
	}
	return "", false
}

// Timestamp implements filters.Row. The conversation date is preferred,
// falling back to the insight's own creation time.
func (r InsightRow) Timestamp() (time.Time, bool) {
	if r.ConversationAt.Valid() {
		return r.ConversationAt.Time, true
	}
	return r.CreatedAt.Time, r.CreatedAt.Valid()
}

// SearchText implements filters.Row.
func (r InsightRow) SearchText() string {
	return haystack(r.CustomerName, r.ConversationType, string(r.Category), r.Text, strings.Join(r.Topics, " "))
}

// Metric implements filters.Row.
func (r InsightRow) Metric(m filters.Metric) (float64, bool) {
	switch m {
	case filters.MetricUrgency:
		return deref(r.UrgencyScore)
	case filters.MetricConfidence:
		return deref(r.ConfidenceScore)
	}
	return 0, false
}

// ConversationRow is a conversation joined with its customer.
type ConversationRow struct {
	crm.Conversation
	CustomerName     string `json:"customer_name"`
	CustomerIndustry string `json:"customer_industry"`
	SentimentLabel   string `json:"sentiment_label,omitempty"`
	InsightCount     int    `json:"insight_count"`
}

// Conversation enriches one conversation.
func Conversation(c crm.Conversation, l *Lookups) ConversationRow {
	row := ConversationRow{
		Conversation:     c,
		CustomerName:     crm.Unknown,
		CustomerIndustry: crm.Unknown,
		SentimentLabel:   c.EffectiveSentiment(),
	}
	if cust, ok := l.Customer(c.CustomerID); ok {
		row.CustomerName = orUnknown(cust.Name)
		row.CustomerIndustry = orUnknown(cust.Industry)
	}
	if l != nil {
		row.InsightCount = l.insightsByConversation[c.ID]
	}
	return row
}

// FieldValue implements filters.Row.
func (r ConversationRow) FieldValue(dim filters.Dimension) (string, bool) {
	switch dim {
	case filters.DimType:
		return r.Type, r.Type != ""
	case filters.DimStatus:
		return r.Status, r.Status != ""
	case filters.DimSentiment:
		return r.SentimentLabel, r.SentimentLabel != ""
	case filters.DimPriority:
		return r.Priority, r.Priority != ""
	case filters.DimCustomer:
		return r.CustomerID, r.CustomerID != ""
	}
	return "", false
}

// Timestamp implements filters.Row.
func (r ConversationRow) Timestamp() (time.Time, bool) {
	return r.OccurredAt.Time, r.OccurredAt.Valid()
}

// SearchText implements filters.Row.
func (r ConversationRow) SearchText() string {
	return haystack(r.CustomerName, r.Type, r.Subject, r.Summary, strings.Join(r.Tags, " "))
}

// Metric implements filters.Row.
func (r ConversationRow) Metric(filters.Metric) (float64, bool) { return 0, false }

// CustomerRow is a customer with its activity rollups.
type CustomerRow struct {
	crm.Customer
	HealthBucket         string `json:"health_bucket,omitempty"`
	ConversationCount    int    `json:"conversation_count"`
	InsightCount         int    `json:"insight_count"`
	LastConversationType string `json:"last_conversation_type"`
}

// Customer enriches one customer.
func Customer(c crm.Customer, l *Lookups) CustomerRow {
	row := CustomerRow{
		Customer:             c,
		HealthBucket:         c.EffectiveHealth(),
		LastConversationType: Placeholder,
	}
	if l == nil {
		return row
	}
	row.ConversationCount = l.conversationsByCustomer[c.ID]
	row.InsightCount = l.insightsByCustomer[c.ID]
	if latest, ok := l.latestByCustomer[c.ID]; ok && latest.Type != "" {
		row.LastConversationType = latest.Type
	}
	return row
}

// FieldValue implements filters.Row.
func (r CustomerRow) FieldValue(dim filters.Dimension) (string, bool) {
	switch dim {
	case filters.DimStatus:
		return r.Status, r.Status != ""
	case filters.DimTier:
		return r.Tier, r.Tier != ""
	case filters.DimHealth:
		return r.HealthBucket, r.HealthBucket != ""
	case filters.DimSize:
		return r.Size, r.Size != ""
	case filters.DimIndustry:
		return r.Industry, r.Industry != ""
	}
	return "", false
}

// Timestamp implements filters.Row.
func (r CustomerRow) Timestamp() (time.Time, bool) {
	return r.CreatedAt.Time, r.CreatedAt.Valid()
}

// SearchText implements filters.Row.
func (r CustomerRow) SearchText() string {
	return haystack(r.Name, r.Industry, r.ContactPerson, r.Email, r.Location.String(), strings.Join(r.Tags, " "))
}

// Metric implements filters.Row.
func (r CustomerRow) Metric(filters.Metric) (float64, bool) { return 0, false }

func haystack(parts ...string) string {
	return strings.Join(parts, " ")
}

func orUnknown(s string) string {
	if s == "" {
		return crm.Unknown
	}
	return s
}

func deref(v *float64) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}
