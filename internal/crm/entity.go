// Package crm defines the customer, conversation and insight records the
// dashboard reads, together with their fixed vocabularies.
package crm

import "errors"

// Entity names one of the record kinds served by the data source.
type Entity string

const (
	EntityCustomers     Entity = "customers"
	EntityConversations Entity = "conversations"
	EntityInsights      Entity = "insights"
)

// ErrUnknownEntity is returned when an entity name is not recognised.
var ErrUnknownEntity = errors.New("crm: unknown entity")

// Entities lists every entity in display order.
func Entities() []Entity {
	return []Entity{EntityCustomers, EntityConversations, EntityInsights}
}

// ParseEntity validates an entity name.
func ParseEntity(s string) (Entity, error) {
	switch Entity(s) {
	case EntityCustomers, EntityConversations, EntityInsights:
		return Entity(s), nil
	}
	return "", ErrUnknownEntity
}

// Record is implemented by every entity so declarative queries can be
// evaluated against it in memory.
type Record interface {
	RecordID() string
	Column(name string) (any, bool)
}
