// Package enrich joins raw CRM records with their related records to build
// the denormalized rows the tables display. Every function here is pure and
// tolerates dangling references.
package enrich

import "github.com/wolfman30/insightdesk/internal/crm"

// Placeholder is shown for a related field that could not be resolved.
const Placeholder = "-"

// Lookups indexes the related records needed to enrich a working set.
type Lookups struct {
	customers     map[string]crm.Customer
	conversations map[string]crm.Conversation

	conversationsByCustomer map[string]int
	latestByCustomer        map[string]crm.Conversation
	insightsByConversation  map[string]int
	insightsByCustomer      map[string]int

	customerList     []crm.Customer
	conversationList []crm.Conversation
	insightList      []crm.Insight
}

// NewLookups builds the indexes. Any of the slices may be nil.
func NewLookups(customers []crm.Customer, conversations []crm.Conversation, insights []crm.Insight) *Lookups {
	l := &Lookups{
		customers:               make(map[string]crm.Customer, len(customers)),
		conversations:           make(map[string]crm.Conversation, len(conversations)),
		conversationsByCustomer: make(map[string]int),
		latestByCustomer:        make(map[string]crm.Conversation),
		insightsByConversation:  make(map[string]int),
		insightsByCustomer:      make(map[string]int),
		customerList:            customers,
		conversationList:        conversations,
		insightList:             insights,
	}
	for _, c := range customers {
		l.customers[c.ID] = c
	}
	for _, c := range conversations {
		l.conversations[c.ID] = c
		if c.CustomerID == "" {
			continue
		}
		l.conversationsByCustomer[c.CustomerID]++
		latest, ok := l.latestByCustomer[c.CustomerID]
		if !ok || c.OccurredAt.Time.After(latest.OccurredAt.Time) {
			l.latestByCustomer[c.CustomerID] = c
		}
	}
	for _, in := range insights {
		if in.ConversationID != "" {
			l.insightsByConversation[in.ConversationID]++
		}
		if owner := l.owner(in); owner != "" {
			l.insightsByCustomer[owner]++
		}
	}
	return l
}

// Customer finds a customer by id.
func (l *Lookups) Customer(id string) (crm.Customer, bool) {
	if l == nil || id == "" {
		return crm.Customer{}, false
	}
	c, ok := l.customers[id]
	return c, ok
}

// Conversation finds a conversation by id.
func (l *Lookups) Conversation(id string) (crm.Conversation, bool) {
	if l == nil || id == "" {
		return crm.Conversation{}, false
	}
	c, ok := l.conversations[id]
	return c, ok
}

// Customers returns every customer the lookups were built from, in fetch
// order.
func (l *Lookups) Customers() []crm.Customer {
	if l == nil {
		return nil
	}
	return append([]crm.Customer(nil), l.customerList...)
}

// Conversations returns every indexed conversation in fetch order.
func (l *Lookups) Conversations() []crm.Conversation {
	if l == nil {
		return nil
	}
	return append([]crm.Conversation(nil), l.conversationList...)
}

// Insights returns every indexed insight in fetch order.
func (l *Lookups) Insights() []crm.Insight {
	if l == nil {
		return nil
	}
	return append([]crm.Insight(nil), l.insightList...)
}

// owner resolves the customer an insight belongs to: its own reference
// first, then the owner of its conversation.
func (l *Lookups) owner(in crm.Insight) string {
	if in.CustomerID != "" {
		return in.CustomerID
	}
	if conv, ok := l.Conversation(in.ConversationID); ok {
		return conv.CustomerID
	}
	return ""
}
