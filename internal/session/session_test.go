package session

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/insightdesk/internal/crm"
	"github.com/wolfman30/insightdesk/internal/datasource"
	"github.com/wolfman30/insightdesk/internal/enrich"
	"github.com/wolfman30/insightdesk/internal/filters"
	"github.com/wolfman30/insightdesk/internal/query"
	"github.com/wolfman30/insightdesk/internal/realtime"
	"github.com/wolfman30/insightdesk/internal/stats"
)

var testNow = time.Date(2025, 9, 5, 12, 0, 0, 0, time.UTC)

func fixture() *datasource.Memory {
	urgency := 8.0
	return datasource.NewMemory(datasource.Dataset{
		Customers: []crm.Customer{
			{ID: "c1", Name: "Acme Corp", Industry: "Manufacturing", Status: "active"},
			{ID: "c2", Name: "Globex", Status: "churned"},
		},
		Conversations: []crm.Conversation{
			{ID: "v1", CustomerID: "c1", Type: "call", OccurredAt: crm.ParseDate("2025-09-01T10:00:00Z")},
			{ID: "v2", CustomerID: "c2", Type: "email", OccurredAt: crm.ParseDate("2025-09-04T10:00:00Z")},
		},
		Insights: []crm.Insight{
			{ID: "i1", ConversationID: "v1", Category: crm.CategoryPainPoint, Text: "Integration with CRM is too slow", Topics: []string{"CRM", "Integration"}, UrgencyScore: &urgency, CreatedAt: crm.ParseDate("2025-09-01T10:05:00Z")},
			{ID: "i2", ConversationID: "v2", Category: crm.CategoryRequest, Text: "Wants invoice export", Topics: []string{"Billing"}, CreatedAt: crm.ParseDate("2025-09-04T10:05:00Z")},
			{ID: "i3", ConversationID: "v2", Category: crm.CategoryRequest, Text: "Asked about SSO", CreatedAt: crm.ParseDate("2025-09-03T09:00:00Z")},
		},
	})
}

type flakySource struct {
	*datasource.Memory
	fail atomic.Bool
}

func (f *flakySource) FetchInsights(ctx context.Context, d query.Descriptor) ([]crm.Insight, error) {
	if f.fail.Load() {
		return nil, &datasource.FetchError{Entity: crm.EntityInsights, Op: "fetch", Err: errors.New("connection refused")}
	}
	return f.Memory.FetchInsights(ctx, d)
}

func newInsights(t *testing.T, src datasource.Source, scope Scope) *Session[crm.Insight, enrich.InsightRow] {
	t.Helper()
	return New(InsightTable(), src, Options{Scope: scope, Now: func() time.Time { return testNow }})
}

func recordIDs[T crm.Record](items []T) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.RecordID())
	}
	return ids
}

func TestParseScope(t *testing.T) {
	s, err := ParseScope("")
	require.NoError(t, err)
	assert.Equal(t, ScopeClient, s)

	s, err = ParseScope("server")
	require.NoError(t, err)
	assert.Equal(t, ScopeServer, s)

	_, err = ParseScope("edge")
	assert.ErrorIs(t, err, ErrUnknownScope)
}

func TestClientScopeFiltersLoadedSet(t *testing.T) {
	ctx := context.Background()
	s := newInsights(t, fixture(), ScopeClient)

	snap, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusReady, snap.Status)
	assert.Equal(t, 3, snap.Total)
	assert.Equal(t, []string{"i2", "i3", "i1"}, recordIDs(s.Records()))

	require.NoError(t, s.Apply(ctx, Command{Op: OpSetDimension, Dimension: filters.DimCategory, Value: "request"}))
	assert.Equal(t, StatusReady, s.Status(), "client scope filters without refetching")
	snap = s.Snapshot()
	assert.Equal(t, 2, snap.Total)
	assert.Equal(t, 3, snap.Available)
	require.Len(t, snap.Filters, 1)

	summary, ok := snap.Stats.(stats.InsightSummary)
	require.True(t, ok)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.UniqueCustomers)
	assert.Equal(t, 3, summary.ThisWeek)
}

func TestSummaryCardsCoverFullSet(t *testing.T) {
	for _, scope := range []Scope{ScopeClient, ScopeServer} {
		t.Run(string(scope), func(t *testing.T) {
			ctx := context.Background()
			s := New(CustomerTable(), fixture(), Options{Scope: scope, Now: func() time.Time { return testNow }})
			_, err := s.Load(ctx)
			require.NoError(t, err)

			require.NoError(t, s.Apply(ctx, Command{Op: OpSetDimension, Dimension: filters.DimStatus, Value: "churned"}))
			require.NoError(t, s.Wait(ctx))

			snap := s.Snapshot()
			assert.Equal(t, 1, snap.Total)
			assert.Equal(t, 2, snap.Available)
			summary, ok := snap.Stats.(stats.CustomerSummary)
			require.True(t, ok)
			assert.Equal(t, 2, summary.Total)
			assert.Equal(t, 1, summary.Active)
		})
	}
}

func TestEventDuringFetchSurvivesResult(t *testing.T) {
	for _, scope := range []Scope{ScopeClient, ScopeServer} {
		t.Run(string(scope), func(t *testing.T) {
			ctx := context.Background()
			s := newInsights(t, fixture(), scope)
			s.Start(ctx)
			require.Equal(t, StatusLoading, s.Status())

			require.NoError(t, s.ApplyEvent(realtime.Event{
				Entity: crm.EntityInsights,
				Type:   realtime.EventInsert,
				ID:     "i4",
				Record: []byte(`{"id":"i4","conversation_id":"v1","category":"request","text":"Needs audit log","created_at":"2025-09-05"}`),
			}))
			require.NoError(t, s.ApplyEvent(realtime.Event{Entity: crm.EntityInsights, Type: realtime.EventDelete, ID: "i3"}))
			require.NoError(t, s.Wait(ctx))

			assert.Equal(t, []string{"i4", "i2", "i1"}, recordIDs(s.Records()))
			assert.Equal(t, 3, s.Snapshot().Available)
		})
	}
}

func TestClientScopeEmptyResult(t *testing.T) {
	ctx := context.Background()
	s := newInsights(t, fixture(), ScopeClient)
	_, err := s.Load(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Apply(ctx, Command{Op: OpAddSearchTerm, Term: "kubernetes"}))
	snap := s.Snapshot()
	assert.Equal(t, StatusEmpty, snap.Status)
	assert.Equal(t, EmptyMessage, snap.Message)
	assert.Equal(t, []string{"kubernetes"}, snap.SearchTerms)

	require.NoError(t, s.Apply(ctx, Command{Op: OpClearAll}))
	assert.Equal(t, 3, s.Snapshot().Total)
}

func TestServerScopeRefetchesOnChange(t *testing.T) {
	ctx := context.Background()
	s := newInsights(t, fixture(), ScopeServer)
	_, err := s.Load(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Apply(ctx, Command{Op: OpAddSearchTerm, Term: "sso"}))
	assert.Equal(t, StatusLoading, s.Status())
	require.NoError(t, s.Wait(ctx))

	snap := s.Snapshot()
	assert.Equal(t, StatusReady, snap.Status)
	assert.Equal(t, []string{"i3"}, recordIDs(s.Records()))

	// A no-op edit does not fetch.
	require.NoError(t, s.Apply(ctx, Command{Op: OpAddSearchTerm, Term: "sso"}))
	assert.NotEqual(t, StatusLoading, s.Status())
}

func TestServerScopeDiscardsSupersededResults(t *testing.T) {
	ctx := context.Background()
	s := newInsights(t, fixture(), ScopeServer)
	_, err := s.Load(ctx)
	require.NoError(t, err)
	staleKey := s.State().Fingerprint()

	require.NoError(t, s.Apply(ctx, Command{Op: OpSetDimension, Dimension: filters.DimCategory, Value: "pain_point"}))
	applied := s.settle(result[crm.Insight]{key: staleKey, records: []crm.Insight{{ID: "stale"}}})
	assert.False(t, applied)
	assert.Equal(t, StatusLoading, s.Status())

	require.NoError(t, s.Wait(ctx))
	assert.Equal(t, []string{"i1"}, recordIDs(s.Records()))
}

func TestFailedFetchClearsRows(t *testing.T) {
	ctx := context.Background()
	src := &flakySource{Memory: fixture()}
	s := newInsights(t, src, ScopeClient)
	_, err := s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, s.Snapshot().Total)

	src.fail.Store(true)
	s.Refresh(ctx)
	require.NoError(t, s.Wait(ctx))

	snap := s.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Contains(t, snap.Error, "connection refused")
	assert.Zero(t, snap.Total)
	assert.Empty(t, snap.Table.Rows)
	assert.Nil(t, snap.Stats)
	assert.True(t, datasource.IsFetchFailure(s.Err()))

	src.fail.Store(false)
	s.Refresh(ctx)
	require.NoError(t, s.Wait(ctx))
	assert.Equal(t, StatusReady, s.Status())
}

func TestApplyEventServerScopeKeepsQueryInvariant(t *testing.T) {
	ctx := context.Background()
	s := newInsights(t, fixture(), ScopeServer)
	require.NoError(t, s.State().SetDimension(filters.DimCategory, "request"))
	_, err := s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"i2", "i3"}, recordIDs(s.Records()))

	moved := realtime.Event{
		Entity: crm.EntityInsights,
		Type:   realtime.EventUpdate,
		ID:     "i2",
		Record: []byte(`{"id":"i2","conversation_id":"v2","category":"pain_point","text":"Wants invoice export","created_at":"2025-09-04"}`),
	}
	require.NoError(t, s.ApplyEvent(moved))
	assert.Equal(t, []string{"i3"}, recordIDs(s.Records()))

	added := realtime.Event{
		Entity: crm.EntityInsights,
		Type:   realtime.EventInsert,
		ID:     "i4",
		Record: []byte(`{"id":"i4","conversation_id":"v1","category":"request","text":"Needs audit log","created_at":"2025-09-05"}`),
	}
	require.NoError(t, s.ApplyEvent(added))
	assert.Equal(t, []string{"i4", "i3"}, recordIDs(s.Records()))

	other := realtime.Event{Entity: crm.EntityCustomers, Type: realtime.EventDelete, ID: "c1"}
	require.NoError(t, s.ApplyEvent(other))
	assert.Len(t, s.Records(), 2)
}

func TestApplyEventClientScope(t *testing.T) {
	ctx := context.Background()
	s := newInsights(t, fixture(), ScopeClient)
	_, err := s.Load(ctx)
	require.NoError(t, err)

	require.NoError(t, s.ApplyEvent(realtime.Event{Entity: crm.EntityInsights, Type: realtime.EventDelete, ID: "i3"}))
	assert.Equal(t, []string{"i2", "i1"}, recordIDs(s.Records()))

	bad := realtime.Event{Entity: crm.EntityInsights, Type: realtime.EventInsert, ID: "i9", Record: []byte(`[]`)}
	assert.ErrorIs(t, s.ApplyEvent(bad), realtime.ErrInvalidEvent)
}

func TestCommandValidation(t *testing.T) {
	ctx := context.Background()
	s := newInsights(t, fixture(), ScopeClient)

	assert.ErrorIs(t, s.Apply(ctx, Command{Op: "explode"}), ErrInvalidCommand)
	assert.ErrorIs(t, s.Apply(ctx, Command{Op: OpSetDateRange, Start: "yesterday"}), ErrInvalidCommand)
	assert.ErrorIs(t, s.Apply(ctx, Command{Op: OpSetDimension, Dimension: filters.DimTier, Value: "pro"}), ErrInvalidCommand)
	assert.ErrorIs(t, s.Apply(ctx, Command{Op: OpSetMode, Mode: "most"}), ErrInvalidCommand)

	require.NoError(t, s.Apply(ctx, Command{Op: OpSetDateRange, Start: "2025-09-02", End: "2025-09-04"}))
	r := s.State().DateRange()
	require.NotNil(t, r.End)
	assert.Equal(t, time.Date(2025, 9, 4, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC), *r.End)

	floor := 5.0
	require.NoError(t, s.Apply(ctx, Command{Op: OpSetThreshold, Metric: filters.MetricUrgency, Min: &floor}))
	got, ok := s.State().Threshold(filters.MetricUrgency)
	assert.True(t, ok)
	assert.Equal(t, 5.0, got)
}

func TestRunEmitsSnapshots(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s := newInsights(t, fixture(), ScopeServer)
	commands := make(chan Command)
	out := make(chan Snapshot, 4)
	done := make(chan error, 1)

	s.Start(ctx)
	go func() { done <- s.Run(ctx, commands, nil, out) }()

	first := <-out
	assert.Equal(t, StatusReady, first.Status)
	assert.Equal(t, 3, first.Total)

	commands <- Command{Op: OpSetDimension, Dimension: filters.DimCategory, Value: "request"}
	loading := <-out
	assert.Equal(t, StatusLoading, loading.Status)
	settled := <-out
	assert.Equal(t, StatusReady, settled.Status)
	assert.Equal(t, 2, settled.Total)

	commands <- Command{Op: "explode"}
	rejected := <-out
	assert.Contains(t, rejected.Notice, "unknown op")

	close(commands)
	assert.NoError(t, <-done)
}

func TestOpen(t *testing.T) {
	for _, e := range crm.Entities() {
		live, err := Open(e, fixture(), Options{})
		require.NoError(t, err)
		assert.Equal(t, e, live.Entity())
		assert.Equal(t, ScopeClient, live.Scope())
		assert.NotEmpty(t, live.ID())
	}
	_, err := Open("invoices", fixture(), Options{})
	assert.ErrorIs(t, err, crm.ErrUnknownEntity)
}

func TestConversationSearchAgreesAcrossScopes(t *testing.T) {
	src := datasource.NewMemory(datasource.Dataset{
		Customers: []crm.Customer{{ID: "c1", Name: "Acme Corp"}},
		Conversations: []crm.Conversation{
			{ID: "v1", CustomerID: "c1", Type: "call", Subject: "Q4 Renewal", Summary: "Walked through pricing", OccurredAt: crm.ParseDate("2025-09-01T10:00:00Z")},
			{ID: "v2", CustomerID: "c1", Type: "email", Subject: "Kickoff", Summary: "Intro call", OccurredAt: crm.ParseDate("2025-09-02T10:00:00Z")},
		},
	})
	for _, scope := range []Scope{ScopeClient, ScopeServer} {
		t.Run(string(scope), func(t *testing.T) {
			ctx := context.Background()
			s := New(ConversationTable(), src, Options{Scope: scope})
			_, err := s.Load(ctx)
			require.NoError(t, err)

			require.NoError(t, s.Apply(ctx, Command{Op: OpAddSearchTerm, Term: "renewal"}))
			require.NoError(t, s.Wait(ctx))

			snap := s.Snapshot()
			assert.Equal(t, StatusReady, snap.Status)
			assert.Equal(t, 1, snap.Total)
			require.Len(t, snap.Table.Rows, 1)
			assert.Equal(t, "v1", snap.Table.Rows[0].ID)
		})
	}
}
