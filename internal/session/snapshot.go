package session

import (
	"context"
	"fmt"

	"github.com/wolfman30/insightdesk/internal/crm"
	"github.com/wolfman30/insightdesk/internal/datasource"
	"github.com/wolfman30/insightdesk/internal/filters"
	"github.com/wolfman30/insightdesk/internal/realtime"
	"github.com/wolfman30/insightdesk/internal/render"
)

// Snapshot is what a live table renders after each transition.
type Snapshot struct {
	SessionID   string             `json:"session_id"`
	Entity      crm.Entity         `json:"entity"`
	Scope       Scope              `json:"scope"`
	Status      Status             `json:"status"`
	Message     string             `json:"message,omitempty"`
	Error       string             `json:"error,omitempty"`
	Notice      string             `json:"notice,omitempty"`
	Filters     []filters.Chip     `json:"filters"`
	SearchTerms []string           `json:"search_terms"`
	Mode        filters.SearchMode `json:"mode,omitempty"`
	Total       int                `json:"total"`
	Available   int                `json:"available"`
	Table       render.Table       `json:"table"`
	Stats       any                `json:"stats,omitempty"`
}

// Live is a session with its record types erased, for transports that
// serve every entity the same way.
type Live interface {
	ID() string
	Entity() crm.Entity
	Scope() Scope
	State() *filters.State
	Start(ctx context.Context)
	Load(ctx context.Context) (Snapshot, error)
	Apply(ctx context.Context, cmd Command) error
	ApplyEvent(ev realtime.Event) error
	Snapshot() Snapshot
	Run(ctx context.Context, commands <-chan Command, events <-chan realtime.Event, out chan<- Snapshot) error
}

// Open creates a session for entity.
func Open(entity crm.Entity, src datasource.Source, opts Options) (Live, error) {
	switch entity {
	case crm.EntityCustomers:
		return New(CustomerTable(), src, opts), nil
	case crm.EntityConversations:
		return New(ConversationTable(), src, opts), nil
	case crm.EntityInsights:
		return New(InsightTable(), src, opts), nil
	}
	return nil, fmt.Errorf("session: open: %w", crm.ErrUnknownEntity)
}
