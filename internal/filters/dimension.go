package filters

import "github.com/wolfman30/insightdesk/internal/crm"

// Dimension is one discrete filter axis.
type Dimension string

const (
	DimType         Dimension = "type"
	DimStatus       Dimension = "status"
	DimTier         Dimension = "tier"
	DimHealth       Dimension = "health"
	DimSize         Dimension = "size"
	DimCategory     Dimension = "category"
	DimPriority     Dimension = "priority"
	DimSentiment    Dimension = "sentiment"
	DimIndustry     Dimension = "industry"
	DimCustomer     Dimension = "customer"
	DimConversation Dimension = "conversation"
)

// Metric is a numeric field that can carry a minimum threshold.
type Metric string

const (
	MetricUrgency    Metric = "urgency"
	MetricConfidence Metric = "confidence"
)

var entityDimensions = map[crm.Entity][]Dimension{
	crm.EntityCustomers:     {DimStatus, DimTier, DimHealth, DimSize, DimIndustry},
	crm.EntityConversations: {DimType, DimStatus, DimSentiment, DimPriority, DimCustomer},
	crm.EntityInsights:      {DimCategory, DimCustomer, DimConversation},
}

var entityMetrics = map[crm.Entity][]Metric{
	crm.EntityInsights: {MetricUrgency, MetricConfidence},
}

// Dimensions returns the dimensions that apply to an entity, in display order.
func Dimensions(entity crm.Entity) []Dimension {
	return append([]Dimension(nil), entityDimensions[entity]...)
}

// Metrics returns the thresholdable metrics of an entity.
func Metrics(entity crm.Entity) []Metric {
	return append([]Metric(nil), entityMetrics[entity]...)
}

// Applies reports whether dim is a filter axis of entity.
func Applies(entity crm.Entity, dim Dimension) bool {
	for _, d := range entityDimensions[entity] {
		if d == dim {
			return true
		}
	}
	return false
}

func metricApplies(entity crm.Entity, m Metric) bool {
	for _, candidate := range entityMetrics[entity] {
		if candidate == m {
			return true
		}
	}
	return false
}

// Label is the chip label for a dimension.
func (d Dimension) Label() string {
	return crm.TitleCase(string(d))
}
