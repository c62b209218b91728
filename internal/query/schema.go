package query

import (
	"github.com/wolfman30/insightdesk/internal/crm"
	"github.com/wolfman30/insightdesk/internal/filters"
)

// Schema maps an entity's filter vocabulary onto store columns. A search
// term matches when any of TextColumns contains it.
type Schema struct {
	Entity      crm.Entity
	Table       string
	Dimensions  map[filters.Dimension]string
	Metrics     map[filters.Metric]string
	TextColumns []string
	ArrayColumn string
	DateColumn  string
	Columns     []string
}

var schemas = map[crm.Entity]Schema{
	crm.EntityCustomers: {
		Entity: crm.EntityCustomers,
		Table:  "customers",
		Dimensions: map[filters.Dimension]string{
			filters.DimStatus:   "status",
			filters.DimTier:     "tier",
			filters.DimHealth:   "health",
			filters.DimSize:     "size",
			filters.DimIndustry: "industry",
		},
		TextColumns: []string{"name"},
		ArrayColumn: "tags",
		DateColumn:  "created_at",
		Columns: []string{
			"id", "name", "industry", "size", "status", "tier", "health", "health_score", "revenue",
			"location", "contact_person", "email", "phone", "website", "tags", "last_activity_at", "created_at",
		},
	},
	crm.EntityConversations: {
		Entity: crm.EntityConversations,
		Table:  "conversations",
		Dimensions: map[filters.Dimension]string{
			filters.DimType:      "type",
			filters.DimStatus:    "status",
			filters.DimSentiment: "sentiment",
			filters.DimPriority:  "priority",
			filters.DimCustomer:  "customer_id",
		},
		TextColumns: []string{"subject", "summary"},
		ArrayColumn: "tags",
		DateColumn:  "occurred_at",
		Columns: []string{
			"id", "customer_id", "type", "direction", "occurred_at", "duration_minutes", "subject", "summary",
			"participants", "status", "sentiment", "sentiment_score", "priority", "tags", "created_at",
		},
	},
	crm.EntityInsights: {
		Entity: crm.EntityInsights,
		Table:  "insights",
		Dimensions: map[filters.Dimension]string{
			filters.DimCategory:     "category",
			filters.DimCustomer:     "customer_id",
			filters.DimConversation: "conversation_id",
		},
		Metrics: map[filters.Metric]string{
			filters.MetricUrgency:    "urgency_score",
			filters.MetricConfidence: "confidence_score",
		},
		TextColumns: []string{"text"},
		ArrayColumn: "topics",
		DateColumn:  "created_at",
		Columns: []string{
			"id", "conversation_id", "customer_id", "category", "subcategory", "text", "topics",
			"confidence_score", "urgency_score", "sentiment_score", "potential_revenue", "risk_level", "created_at",
		},
	},
}

// SchemaFor returns the column mapping of an entity.
func SchemaFor(entity crm.Entity) (Schema, error) {
	s, ok := schemas[entity]
	if !ok {
		return Schema{}, crm.ErrUnknownEntity
	}
	return s, nil
}
