// Package session drives one live table: it owns the filter state and the
// working set, decides when to fetch, discards superseded results and
// produces render snapshots.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/wolfman30/insightdesk/internal/crm"
	"github.com/wolfman30/insightdesk/internal/datasource"
	"github.com/wolfman30/insightdesk/internal/enrich"
	"github.com/wolfman30/insightdesk/internal/filters"
	"github.com/wolfman30/insightdesk/internal/query"
	"github.com/wolfman30/insightdesk/internal/render"
	"github.com/wolfman30/insightdesk/internal/stats"
)

// Table binds an entity's record type T to its enriched row type R.
// Universe returns the entity's unfiltered records from the lookups.
// Summarize receives the unfiltered rows and the rows currently shown.
type Table[T crm.Record, R filters.Row] struct {
	Entity    crm.Entity
	Fetch     func(ctx context.Context, src datasource.Source, d query.Descriptor) ([]T, error)
	Universe  func(l *enrich.Lookups) []T
	Enrich    func(records []T, l *enrich.Lookups) []R
	Columns   []render.Column[R]
	RowID     func(R) string
	Summarize func(all, shown []R, now time.Time) any
}

// CustomerTable is the customers page.
func CustomerTable() Table[crm.Customer, enrich.CustomerRow] {
	return Table[crm.Customer, enrich.CustomerRow]{
		Entity: crm.EntityCustomers,
		Fetch: func(ctx context.Context, src datasource.Source, d query.Descriptor) ([]crm.Customer, error) {
			return src.FetchCustomers(ctx, d)
		},
		Universe: (*enrich.Lookups).Customers,
		Enrich:   enrich.Customers,
		Columns:  render.CustomerColumns(),
		RowID:    render.CustomerID,
		Summarize: func(all, _ []enrich.CustomerRow, _ time.Time) any {
			return stats.Customers(all)
		},
	}
}

// ConversationTable is the conversations page.
func ConversationTable() Table[crm.Conversation, enrich.ConversationRow] {
	return Table[crm.Conversation, enrich.ConversationRow]{
		Entity: crm.EntityConversations,
		Fetch: func(ctx context.Context, src datasource.Source, d query.Descriptor) ([]crm.Conversation, error) {
			return src.FetchConversations(ctx, d)
		},
		Universe: (*enrich.Lookups).Conversations,
		Enrich:   enrich.Conversations,
		Columns:  render.ConversationColumns(),
		RowID:    render.ConversationID,
		Summarize: func(all, _ []enrich.ConversationRow, _ time.Time) any {
			return stats.Conversations(all)
		},
	}
}

// InsightTable is the insights page.
func InsightTable() Table[crm.Insight, enrich.InsightRow] {
	return Table[crm.Insight, enrich.InsightRow]{
		Entity: crm.EntityInsights,
		Fetch: func(ctx context.Context, src datasource.Source, d query.Descriptor) ([]crm.Insight, error) {
			return src.FetchInsights(ctx, d)
		},
		Universe: (*enrich.Lookups).Insights,
		Enrich:   enrich.Insights,
		Columns:  render.InsightColumns(),
		RowID:    render.InsightID,
		Summarize: func(all, shown []enrich.InsightRow, now time.Time) any {
			return stats.Insights(all, shown, now)
		},
	}
}

// LoadLookups fetches every entity so rows can be enriched.
func LoadLookups(ctx context.Context, src datasource.Source) (*enrich.Lookups, error) {
	all := func(e crm.Entity) query.Descriptor {
		d, _ := query.All(e)
		return d
	}
	customers, err := src.FetchCustomers(ctx, all(crm.EntityCustomers))
	if err != nil {
		return nil, fmt.Errorf("session: load customers: %w", err)
	}
	conversations, err := src.FetchConversations(ctx, all(crm.EntityConversations))
	if err != nil {
		return nil, fmt.Errorf("session: load conversations: %w", err)
	}
	insights, err := src.FetchInsights(ctx, all(crm.EntityInsights))
	if err != nil {
		return nil, fmt.Errorf("session: load insights: %w", err)
	}
	return enrich.NewLookups(customers, conversations, insights), nil
}
