package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/insightdesk/internal/crm"
	"github.com/wolfman30/insightdesk/internal/datasource"
	"github.com/wolfman30/insightdesk/internal/enrich"
	"github.com/wolfman30/insightdesk/internal/filters"
	"github.com/wolfman30/insightdesk/internal/query"
	"github.com/wolfman30/insightdesk/internal/realtime"
	"github.com/wolfman30/insightdesk/internal/render"
	"github.com/wolfman30/insightdesk/pkg/logging"
)

// Scope selects where filtering happens.
type Scope string

const (
	// ScopeClient fetches the full set once and filters it in memory.
	ScopeClient Scope = "client"
	// ScopeServer pushes every filter change to the data source.
	ScopeServer Scope = "server"
)

// ErrUnknownScope is returned for an unrecognised scope.
var ErrUnknownScope = errors.New("session: unknown scope")

// ParseScope validates a scope string. Empty selects ScopeClient.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case "", ScopeClient:
		return ScopeClient, nil
	case ScopeServer:
		return ScopeServer, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownScope, s)
}

// Status is the lifecycle state of a table.
type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusEmpty   Status = "empty"
	StatusFailed  Status = "failed"
)

// EmptyMessage accompanies StatusEmpty.
const EmptyMessage = "no rows match your filters"

const clientKey = "all"

// Options configures a session.
type Options struct {
	Scope  Scope
	Now    func() time.Time
	Logger *logging.Logger
}

type result[T crm.Record] struct {
	key     string
	records []T
	lookups *enrich.Lookups
	err     error
}

// Session is one live table. Every method must be called from the goroutine
// that owns the session; fetches run in the background and are handed back
// through Run or Wait.
//
// In server scope working holds only the matching records, so universe keeps
// the unfiltered set for summaries. Events that arrive while a fetch is in
// flight are kept in pending and replayed over its result.
type Session[T crm.Record, R filters.Row] struct {
	id       string
	table    Table[T, R]
	src      datasource.Source
	scope    Scope
	state    *filters.State
	working  *realtime.WorkingSet[T]
	universe *realtime.WorkingSet[T]
	pending  []realtime.Event
	lookups  *enrich.Lookups
	loading  bool
	err      error
	results  chan result[T]
	now      func() time.Time
	logger   *logging.Logger
}

// New creates an idle session over src. Seed its State before Start.
func New[T crm.Record, R filters.Row](table Table[T, R], src datasource.Source, opts Options) *Session[T, R] {
	if opts.Scope == "" {
		opts.Scope = ScopeClient
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	return &Session[T, R]{
		id:       uuid.NewString(),
		table:    table,
		src:      src,
		scope:    opts.Scope,
		state:    filters.NewState(table.Entity),
		working:  realtime.NewWorkingSet[T](nil),
		universe: realtime.NewWorkingSet[T](nil),
		results:  make(chan result[T], 8),
		now:      opts.Now,
		logger:   opts.Logger,
	}
}

func (s *Session[T, R]) ID() string { return s.id }
func (s *Session[T, R]) Entity() crm.Entity { return s.table.Entity }
func (s *Session[T, R]) Scope() Scope { return s.scope }
func (s *Session[T, R]) State() *filters.State { return s.state }
func (s *Session[T, R]) Records() []T { return s.working.Items() }
func (s *Session[T, R]) Lookups() *enrich.Lookups { return s.lookups }

// Start issues the initial fetch.
func (s *Session[T, R]) Start(ctx context.Context) {
	s.request(ctx)
}

// Refresh drops cached lookups and fetches again.
func (s *Session[T, R]) Refresh(ctx context.Context) {
	s.lookups = nil
	s.request(ctx)
}

// request starts a keyed fetch for the current state. Only the result whose
// key matches the state at arrival time is applied.
func (s *Session[T, R]) request(ctx context.Context) {
	key, d, err := s.descriptor()
	s.loading = true
	s.pending = nil
	if err != nil {
		s.loading = false
		s.err = err
		return
	}
	needLookups := s.lookups == nil
	go func() {
		res := result[T]{key: key}
		if needLookups {
			res.lookups, res.err = LoadLookups(ctx, s.src)
		}
		if res.err == nil {
			res.records, res.err = s.table.Fetch(ctx, s.src, d)
		}
		select {
		case s.results <- res:
		case <-ctx.Done():
		}
	}()
}

func (s *Session[T, R]) descriptor() (string, query.Descriptor, error) {
	if s.scope == ScopeServer {
		d, err := query.Compose(s.state)
		return s.state.Fingerprint(), d, err
	}
	d, err := query.All(s.table.Entity)
	return clientKey, d, err
}

// currentKey is the key a fetch must carry to be applied now.
func (s *Session[T, R]) currentKey() string {
	if s.scope == ScopeServer {
		return s.state.Fingerprint()
	}
	return clientKey
}

// settle applies res if it still matches the current state and reports
// whether it did. A failure clears the rows.
func (s *Session[T, R]) settle(res result[T]) bool {
	if res.key != s.currentKey() {
		s.logger.Debug("discarding superseded fetch", "session_id", s.id, "entity", s.table.Entity)
		return false
	}
	s.loading = false
	pending := s.pending
	s.pending = nil
	if res.err != nil {
		s.err = res.err
		s.working.Replace(nil)
		s.logger.Warn("table fetch failed", "session_id", s.id, "entity", s.table.Entity, "error", res.err)
		return true
	}
	s.err = nil
	if res.lookups != nil {
		s.lookups = res.lookups
		if s.table.Universe != nil {
			s.universe.Replace(s.table.Universe(res.lookups))
		}
	}
	s.working.Replace(res.records)
	for _, ev := range pending {
		if err := s.merge(ev); err != nil {
			s.logger.Warn("change event replay failed", "session_id", s.id, "entity", ev.Entity, "error", err)
		}
	}
	return true
}

// Wait blocks until a fetch for the current state settles.
func (s *Session[T, R]) Wait(ctx context.Context) error {
	for s.loading {
		select {
		case res := <-s.results:
			s.settle(res)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Load starts the session and waits for the first result.
func (s *Session[T, R]) Load(ctx context.Context) (Snapshot, error) {
	s.Start(ctx)
	if err := s.Wait(ctx); err != nil {
		return Snapshot{}, err
	}
	return s.Snapshot(), nil
}

// Apply executes one command. In server scope a change to the filters
// issues a new fetch.
func (s *Session[T, R]) Apply(ctx context.Context, cmd Command) error {
	if cmd.Op == OpRefresh {
		s.Refresh(ctx)
		return nil
	}
	before := s.state.Fingerprint()
	if err := cmd.apply(s.state); err != nil {
		return err
	}
	if s.scope == ScopeServer && s.state.Fingerprint() != before {
		s.request(ctx)
	}
	return nil
}

// ApplyEvent merges a change event into the working set. In server scope a
// record that no longer matches the active query is removed instead. An
// event that arrives during a fetch is replayed once the fetch settles.
func (s *Session[T, R]) ApplyEvent(ev realtime.Event) error {
	if ev.Entity != s.table.Entity {
		return nil
	}
	if err := s.merge(ev); err != nil {
		return err
	}
	if s.loading {
		s.pending = append(s.pending, ev)
	}
	return nil
}

func (s *Session[T, R]) merge(ev realtime.Event) error {
	if s.scope == ScopeClient {
		return s.working.Apply(ev)
	}
	if err := s.universe.Apply(ev); err != nil {
		return err
	}
	if ev.Type != realtime.EventDelete {
		rec, err := realtime.DecodeRecord[T](ev)
		if err != nil {
			return err
		}
		d, err := query.Compose(s.state)
		if err != nil {
			return err
		}
		if !query.Eval(d, rec) {
			s.working.Delete(rec.RecordID())
			return nil
		}
	}
	return s.working.Apply(ev)
}

// Rows returns the enriched rows currently visible.
func (s *Session[T, R]) Rows() []R {
	if s.err != nil {
		return nil
	}
	rows := s.table.Enrich(s.working.Items(), s.lookups)
	if s.scope == ScopeClient {
		rows = filters.Apply(rows, s.state)
	}
	return rows
}

// available returns the unfiltered rows the visible ones are drawn from.
func (s *Session[T, R]) available() []R {
	if s.err != nil {
		return nil
	}
	if s.scope == ScopeClient {
		return s.table.Enrich(s.working.Items(), s.lookups)
	}
	return s.table.Enrich(s.universe.Items(), s.lookups)
}

// Status reports the table lifecycle state.
func (s *Session[T, R]) Status() Status {
	switch {
	case s.loading:
		return StatusLoading
	case s.err != nil:
		return StatusFailed
	case len(s.Rows()) == 0:
		return StatusEmpty
	}
	return StatusReady
}

// Err returns the last fetch failure, if any.
func (s *Session[T, R]) Err() error { return s.err }

// Snapshot renders the current table.
func (s *Session[T, R]) Snapshot() Snapshot {
	rows := s.Rows()
	all := s.available()
	snap := Snapshot{
		SessionID:   s.id,
		Entity:      s.table.Entity,
		Scope:       s.scope,
		Status:      s.Status(),
		Filters:     s.state.ActiveFilters(),
		SearchTerms: s.state.SearchTerms(),
		Mode:        s.state.Mode(),
		Total:       len(rows),
		Available:   len(all),
		Table:       render.Build(rows, s.table.Columns, s.table.RowID),
	}
	switch snap.Status {
	case StatusFailed:
		snap.Error = s.err.Error()
	case StatusEmpty:
		snap.Message = EmptyMessage
	}
	if snap.Status != StatusFailed && s.table.Summarize != nil {
		snap.Stats = s.table.Summarize(all, rows, s.now())
	}
	return snap
}

// Run owns the session until ctx ends or commands is closed. A snapshot is
// sent on out after every applied command, event and settled fetch.
func (s *Session[T, R]) Run(ctx context.Context, commands <-chan Command, events <-chan realtime.Event, out chan<- Snapshot) error {
	for {
		var notice string
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd, ok := <-commands:
			if !ok {
				return nil
			}
			if err := s.Apply(ctx, cmd); err != nil {
				notice = err.Error()
			}
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if err := s.ApplyEvent(ev); err != nil {
				s.logger.Warn("change event rejected", "session_id", s.id, "entity", ev.Entity, "error", err)
				continue
			}
		case res := <-s.results:
			if !s.settle(res) {
				continue
			}
		}
		snap := s.Snapshot()
		snap.Notice = notice
		select {
		case out <- snap:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
