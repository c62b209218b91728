package crm

// Insight is a categorized observation extracted from a conversation.
type Insight struct {
	ID               string   `json:"id" yaml:"id"`
	ConversationID   string   `json:"conversation_id,omitempty" yaml:"conversation_id,omitempty"`
	CustomerID       string   `json:"customer_id,omitempty" yaml:"customer_id,omitempty"`
	Category         Category `json:"category" yaml:"category"`
	Subcategory      string   `json:"subcategory,omitempty" yaml:"subcategory,omitempty"`
	Text             string   `json:"text" yaml:"text"`
	Topics           []string `json:"topics,omitempty" yaml:"topics,omitempty"`
	ConfidenceScore  *float64 `json:"confidence_score,omitempty" yaml:"confidence_score,omitempty"`
	UrgencyScore     *float64 `json:"urgency_score,omitempty" yaml:"urgency_score,omitempty"`
	SentimentScore   *float64 `json:"sentiment_score,omitempty" yaml:"sentiment_score,omitempty"`
	PotentialRevenue *float64 `json:"potential_revenue,omitempty" yaml:"potential_revenue,omitempty"`
	RiskLevel        string   `json:"risk_level,omitempty" yaml:"risk_level,omitempty"`
	CreatedAt        Date     `json:"created_at" yaml:"created_at"`
}

// MaxUrgency is the top of the urgency scale.
const MaxUrgency = 10

// UnmarshalText normalizes either category form on decode.
func (c *Category) UnmarshalText(b []byte) error {
	*c = ParseCategory(string(b))
	return nil
}

// RecordID implements Record.
func (i Insight) RecordID() string { return i.ID }

// Sanitize drops scores outside their scales.
func (i *Insight) Sanitize() {
	if i.ConfidenceScore != nil && (*i.ConfidenceScore < 0 || *i.ConfidenceScore > 1) {
		i.ConfidenceScore = nil
	}
	if i.UrgencyScore != nil && (*i.UrgencyScore < 0 || *i.UrgencyScore > MaxUrgency) {
		i.UrgencyScore = nil
	}
	if i.PotentialRevenue != nil && *i.PotentialRevenue < 0 {
		i.PotentialRevenue = nil
	}
}

// Column implements Record.
func (i Insight) Column(name string) (any, bool) {
	switch name {
	case "id":
		return i.ID, true
	case "conversation_id":
		return i.ConversationID, i.ConversationID != ""
	case "customer_id":
		return i.CustomerID, i.CustomerID != ""
	case "category":
		return string(i.Category), i.Category != ""
	case "text":
		return i.Text, true
	case "topics":
		return i.Topics, true
	case "confidence_score":
		return floatColumn(i.ConfidenceScore)
	case "urgency_score":
		return floatColumn(i.UrgencyScore)
	case "sentiment_score":
		return floatColumn(i.SentimentScore)
	case "potential_revenue":
		return floatColumn(i.PotentialRevenue)
	case "created_at":
		return i.CreatedAt, i.CreatedAt.Raw != "" || i.CreatedAt.Valid()
	}
	return nil, false
}
