package crm

// Conversation is one recorded interaction with a customer.
type Conversation struct {
	ID              string        `json:"id" yaml:"id"`
	CustomerID      string        `json:"customer_id,omitempty" yaml:"customer_id,omitempty"`
	Type            string        `json:"type,omitempty" yaml:"type,omitempty"`
	Direction       string        `json:"direction,omitempty" yaml:"direction,omitempty"`
	OccurredAt      Date          `json:"occurred_at" yaml:"occurred_at"`
	DurationMinutes *int          `json:"duration_minutes,omitempty" yaml:"duration_minutes,omitempty"`
	Subject         string        `json:"subject,omitempty" yaml:"subject,omitempty"`
	Summary         string        `json:"summary,omitempty" yaml:"summary,omitempty"`
	Participants    []Participant `json:"participants,omitempty" yaml:"participants,omitempty"`
	Status          string        `json:"status,omitempty" yaml:"status,omitempty"`
	Sentiment       string        `json:"sentiment,omitempty" yaml:"sentiment,omitempty"`
	SentimentScore  *float64      `json:"sentiment_score,omitempty" yaml:"sentiment_score,omitempty"`
	Priority        string        `json:"priority,omitempty" yaml:"priority,omitempty"`
	Tags            []string      `json:"tags,omitempty" yaml:"tags,omitempty"`
	CreatedAt       Date          `json:"created_at" yaml:"created_at"`
}

// RecordID implements Record.
func (c Conversation) RecordID() string { return c.ID }

// EffectiveSentiment prefers the stored label and falls back to the score's sign.
func (c Conversation) EffectiveSentiment() string {
	if c.Sentiment != "" {
		return c.Sentiment
	}
	if c.SentimentScore != nil {
		return SentimentFromScore(*c.SentimentScore)
	}
	return ""
}

// Sanitize drops a negative duration.
func (c *Conversation) Sanitize() {
	if c.DurationMinutes != nil && *c.DurationMinutes < 0 {
		c.DurationMinutes = nil
	}
}

// Column implements Record.
func (c Conversation) Column(name string) (any, bool) {
	switch name {
	case "id":
		return c.ID, true
	case "customer_id":
		return c.CustomerID, c.CustomerID != ""
	case "type":
		return c.Type, c.Type != ""
	case "direction":
		return c.Direction, c.Direction != ""
	case "status":
		return c.Status, c.Status != ""
	case "priority":
		return c.Priority, c.Priority != ""
	case "sentiment":
		s := c.EffectiveSentiment()
		return s, s != ""
	case "sentiment_score":
		return floatColumn(c.SentimentScore)
	case "subject":
		return c.Subject, true
	case "summary":
		return c.Summary, true
	case "duration_minutes":
		if c.DurationMinutes == nil {
			return nil, false
		}
		return float64(*c.DurationMinutes), true
	case "tags":
		return c.Tags, true
	case "occurred_at":
		return c.OccurredAt, c.OccurredAt.Raw != "" || c.OccurredAt.Valid()
	case "created_at":
		return c.CreatedAt, c.CreatedAt.Raw != "" || c.CreatedAt.Valid()
	}
	return nil, false
}
