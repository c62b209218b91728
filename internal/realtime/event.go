// Package realtime delivers change notifications for externally owned
// records and merges them into in-memory working sets.
package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/wolfman30/insightdesk/internal/crm"
)

// EventType is the kind of change.
type EventType string

const (
	EventInsert EventType = "insert"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

var (
	// ErrInvalidEvent is returned for payloads that cannot be applied.
	ErrInvalidEvent = errors.New("realtime: invalid event")
)

// Event is one change to a record of an entity.
type Event struct {
	Entity crm.Entity      `json:"entity"`
	Type   EventType       `json:"type"`
	ID     string          `json:"id"`
	Record json.RawMessage `json:"record,omitempty"`
}

// ParseEvent decodes and validates a notification payload. The type is
// matched case-insensitively and a missing id is taken from the record.
func ParseEvent(payload []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if _, err := crm.ParseEntity(string(ev.Entity)); err != nil {
		return Event{}, fmt.Errorf("%w: entity %q", ErrInvalidEvent, ev.Entity)
	}
	ev.Type = EventType(strings.ToLower(string(ev.Type)))
	switch ev.Type {
	case EventInsert, EventUpdate, EventDelete:
	default:
		return Event{}, fmt.Errorf("%w: type %q", ErrInvalidEvent, ev.Type)
	}
	if ev.ID == "" && len(ev.Record) > 0 {
		var idOnly struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(ev.Record, &idOnly)
		ev.ID = idOnly.ID
	}
	if ev.ID == "" {
		return Event{}, fmt.Errorf("%w: missing id", ErrInvalidEvent)
	}
	if ev.Type != EventDelete && len(ev.Record) == 0 {
		return Event{}, fmt.Errorf("%w: %s without record", ErrInvalidEvent, ev.Type)
	}
	return ev, nil
}

// DecodeRecord unmarshals the event's record into T.
func DecodeRecord[T any](ev Event) (T, error) {
	var out T
	if len(ev.Record) == 0 {
		return out, fmt.Errorf("%w: no record", ErrInvalidEvent)
	}
	if err := json.Unmarshal(ev.Record, &out); err != nil {
		return out, fmt.Errorf("%w: decode record: %v", ErrInvalidEvent, err)
	}
	return out, nil
}
