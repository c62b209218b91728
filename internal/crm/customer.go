package crm

// Customer is an account tracked by the dashboard.
type Customer struct {
	ID            string   `json:"id" yaml:"id"`
	Name          string   `json:"name" yaml:"name"`
	Industry      string   `json:"industry,omitempty" yaml:"industry,omitempty"`
	Size          string   `json:"size,omitempty" yaml:"size,omitempty"`
	Status        string   `json:"status,omitempty" yaml:"status,omitempty"`
	Tier          string   `json:"tier,omitempty" yaml:"tier,omitempty"`
	Health        string   `json:"health,omitempty" yaml:"health,omitempty"`
	HealthScore   *float64 `json:"health_score,omitempty" yaml:"health_score,omitempty"`
	Revenue       *float64 `json:"revenue,omitempty" yaml:"revenue,omitempty"`
	Location      Location `json:"location" yaml:"location"`
	ContactPerson string   `json:"contact_person,omitempty" yaml:"contact_person,omitempty"`
	Email         string   `json:"email,omitempty" yaml:"email,omitempty"`
	Phone         string   `json:"phone,omitempty" yaml:"phone,omitempty"`
	Website       string   `json:"website,omitempty" yaml:"website,omitempty"`
	Tags          []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	LastActivity  Date     `json:"last_activity_at" yaml:"last_activity_at"`
	CreatedAt     Date     `json:"created_at" yaml:"created_at"`
}

// RecordID implements Record.
func (c Customer) RecordID() string { return c.ID }

// EffectiveHealth prefers the stored bucket and falls back to the score.
func (c Customer) EffectiveHealth() string {
	if c.Health != "" {
		return c.Health
	}
	if c.HealthScore != nil {
		return HealthFromScore(*c.HealthScore)
	}
	return ""
}

// Sanitize drops numeric values outside their documented ranges.
func (c *Customer) Sanitize() {
	if c.Revenue != nil && *c.Revenue < 0 {
		c.Revenue = nil
	}
	if c.HealthScore != nil && (*c.HealthScore < 0 || *c.HealthScore > 100) {
		c.HealthScore = nil
	}
}

// Column implements Record.
func (c Customer) Column(name string) (any, bool) {
	switch name {
	case "id":
		return c.ID, true
	case "name":
		return c.Name, true
	case "industry":
		return c.Industry, c.Industry != ""
	case "size":
		return c.Size, c.Size != ""
	case "status":
		return c.Status, c.Status != ""
	case "tier":
		return c.Tier, c.Tier != ""
	case "health":
		h := c.EffectiveHealth()
		return h, h != ""
	case "health_score":
		return floatColumn(c.HealthScore)
	case "revenue":
		return floatColumn(c.Revenue)
	case "location":
		return c.Location.String(), true
	case "tags":
		return c.Tags, true
	case "last_activity_at":
		return c.LastActivity, c.LastActivity.Raw != "" || c.LastActivity.Valid()
	case "created_at":
		return c.CreatedAt, c.CreatedAt.Raw != "" || c.CreatedAt.Valid()
	}
	return nil, false
}

func floatColumn(v *float64) (any, bool) {
	if v == nil {
		return nil, false
	}
	return *v, true
}
