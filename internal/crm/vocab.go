package crm

import "strings"

// Unknown is the display value for anything outside a fixed vocabulary.
const Unknown = "Unknown"

var (
	CustomerSizes    = []string{"startup", "small", "medium", "large", "enterprise"}
	CustomerStatuses = []string{"active", "inactive", "prospect", "churned"}
	CustomerTiers    = []string{"free", "basic", "pro", "enterprise"}
	HealthBuckets    = []string{"excellent", "good", "at-risk", "critical"}

	ConversationTypes      = []string{"call", "email", "chat", "meeting"}
	ConversationDirections = []string{"inbound", "outbound"}
	ConversationStatuses   = []string{"completed", "scheduled", "cancelled"}
	Sentiments             = []string{"positive", "neutral", "negative"}
	Priorities             = []string{"low", "medium", "high", "urgent"}
)

// InVocabulary reports whether value is one of the allowed values.
func InVocabulary(vocab []string, value string) bool {
	for _, v := range vocab {
		if v == value {
			return true
		}
	}
	return false
}

// Category is the fixed insight category enumeration in its snake_case form.
type Category string

const (
	CategoryPainPoint   Category = "pain_point"
	CategoryOpportunity Category = "opportunity"
	CategoryObjection   Category = "objection"
	CategoryRequest     Category = "request"
	CategoryIssue       Category = "issue"
	CategorySuccess     Category = "success"
	CategoryUpdate      Category = "update"
)

var categoryDisplay = map[Category]string{
	CategoryPainPoint:   "Pain Point",
	CategoryOpportunity: "Opportunity",
	CategoryObjection:   "Objection",
	CategoryRequest:     "Request",
	CategoryIssue:       "Issue",
	CategorySuccess:     "Success",
	CategoryUpdate:      "Update",
}

// Categories returns the vocabulary in canonical order.
func Categories() []Category {
	return []Category{
		CategoryPainPoint, CategoryOpportunity, CategoryObjection, CategoryRequest,
		CategoryIssue, CategorySuccess, CategoryUpdate,
	}
}

// ParseCategory accepts either the snake_case or the Title Case form.
// Unrecognised input is returned unchanged so it can still be shown.
func ParseCategory(s string) Category {
	trimmed := strings.TrimSpace(s)
	key := Category(strings.ReplaceAll(strings.ToLower(trimmed), " ", "_"))
	if _, ok := categoryDisplay[key]; ok {
		return key
	}
	return Category(trimmed)
}

// Valid reports whether c is part of the vocabulary.
func (c Category) Valid() bool {
	_, ok := categoryDisplay[c]
	return ok
}

// Display returns the Title Case label, or Unknown.
func (c Category) Display() string {
	if label, ok := categoryDisplay[c]; ok {
		return label
	}
	return Unknown
}

// SentimentFromScore maps a continuous score to a discrete label by sign.
func SentimentFromScore(score float64) string {
	switch {
	case score > 0:
		return "positive"
	case score < 0:
		return "negative"
	default:
		return "neutral"
	}
}

// HealthFromScore buckets a 0-100 health score.
func HealthFromScore(score float64) string {
	switch {
	case score >= 80:
		return "excellent"
	case score >= 60:
		return "good"
	case score >= 40:
		return "at-risk"
	default:
		return "critical"
	}
}

// TitleCase upper-cases the first letter of an enum value for display.
func TitleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// CategoryCount is one entry of the category vocabulary listing.
type CategoryCount struct {
	Category Category `json:"category"`
	Count    int      `json:"count"`
}

// TopicCount is one entry of the topic vocabulary listing.
type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}
