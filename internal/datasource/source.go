// Package datasource implements the read-only data source contract the
// dashboard consumes, over an in-memory dataset, PostgreSQL or
// Elasticsearch, optionally fronted by a Redis cache.
package datasource

import (
	"context"
	"errors"
	"fmt"

	"github.com/wolfman30/insightdesk/internal/crm"
	"github.com/wolfman30/insightdesk/internal/query"
)

// Source fetches records matching a query descriptor and lists the
// category and topic vocabularies.
type Source interface {
	FetchCustomers(ctx context.Context, d query.Descriptor) ([]crm.Customer, error)
	FetchConversations(ctx context.Context, d query.Descriptor) ([]crm.Conversation, error)
	FetchInsights(ctx context.Context, d query.Descriptor) ([]crm.Insight, error)
	Vocabulary
}

// Vocabulary lists filter options. An empty store yields empty slices.
type Vocabulary interface {
	ListCategories(ctx context.Context) ([]crm.CategoryCount, error)
	ListTopics(ctx context.Context) ([]crm.TopicCount, error)
}

// ErrNotFound is returned by FetchOne when no record has the id.
var ErrNotFound = errors.New("datasource: record not found")

// FetchError reports a transport failure of the data source. It is the only
// error kind the dashboard surfaces as a failed load.
type FetchError struct {
	Entity crm.Entity
	Op     string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("datasource: %s %s: %v", e.Op, e.Entity, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func fetchErr(entity crm.Entity, op string, err error) error {
	if err == nil {
		return nil
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return err
	}
	return &FetchError{Entity: entity, Op: op, Err: err}
}

// IsFetchFailure reports whether err carries a FetchError.
func IsFetchFailure(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// Fetch dispatches to the typed fetch for entity and returns the records
// behind the crm.Record interface.
func Fetch(ctx context.Context, src Source, entity crm.Entity, d query.Descriptor) ([]crm.Record, error) {
	switch entity {
	case crm.EntityCustomers:
		rows, err := src.FetchCustomers(ctx, d)
		return records(rows), err
	case crm.EntityConversations:
		rows, err := src.FetchConversations(ctx, d)
		return records(rows), err
	case crm.EntityInsights:
		rows, err := src.FetchInsights(ctx, d)
		return records(rows), err
	}
	return nil, fmt.Errorf("datasource: fetch: %w", crm.ErrUnknownEntity)
}

func records[R crm.Record](rows []R) []crm.Record {
	if rows == nil {
		return nil
	}
	out := make([]crm.Record, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}

// FetchOne loads a single record by id.
func FetchOne(ctx context.Context, src Source, entity crm.Entity, id string) (crm.Record, error) {
	d, err := query.ByID(entity, id)
	if err != nil {
		return nil, err
	}
	rows, err := Fetch(ctx, src, entity, d)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}
