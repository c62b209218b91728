package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/insightdesk/internal/crm"
	"github.com/wolfman30/insightdesk/internal/datasource"
	"github.com/wolfman30/insightdesk/internal/enrich"
	"github.com/wolfman30/insightdesk/internal/filters"
	"github.com/wolfman30/insightdesk/internal/observability/metrics"
	"github.com/wolfman30/insightdesk/internal/session"
	"github.com/wolfman30/insightdesk/pkg/logging"
)

// TablesHandler serves the customer, conversation and insight tables.
type TablesHandler struct {
	src          datasource.Source
	metrics      *metrics.DashboardMetrics
	logger       *logging.Logger
	defaultScope session.Scope
	now          func() time.Time
}

// NewTablesHandler creates a tables handler. An invalid defaultScope falls
// back to client-side filtering.
func NewTablesHandler(src datasource.Source, m *metrics.DashboardMetrics, defaultScope string, logger *logging.Logger) *TablesHandler {
	if logger == nil {
		logger = logging.Default()
	}
	scope, err := session.ParseScope(defaultScope)
	if err != nil {
		scope = session.ScopeClient
	}
	return &TablesHandler{
		src:          src,
		metrics:      m,
		logger:       logger,
		defaultScope: scope,
		now:          time.Now,
	}
}

// ListCustomers returns the filtered customers table.
// GET /api/customers
func (h *TablesHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, crm.EntityCustomers)
}

// ListConversations returns the filtered conversations table.
// GET /api/conversations
func (h *TablesHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, crm.EntityConversations)
}

// ListInsights returns the filtered insights table.
// GET /api/insights
func (h *TablesHandler) ListInsights(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, crm.EntityInsights)
}

func (h *TablesHandler) list(w http.ResponseWriter, r *http.Request, entity crm.Entity) {
	scope := h.defaultScope
	if raw := r.URL.Query().Get("scope"); raw != "" {
		parsed, err := session.ParseScope(raw)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		scope = parsed
	}

	live, err := session.Open(entity, h.src, session.Options{Scope: scope, Now: h.now, Logger: h.logger})
	if err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	live.State().Seed(r.URL.Query())

	snap, err := h.load(r.Context(), live)
	if err != nil {
		jsonError(w, "request cancelled", http.StatusGatewayTimeout)
		return
	}
	if snap.Status == session.StatusFailed {
		writeJSON(w, http.StatusBadGateway, snap)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// load runs a session to its first settled result and records the fetch.
func (h *TablesHandler) load(ctx context.Context, live session.Live) (session.Snapshot, error) {
	start := time.Now()
	snap, err := live.Load(ctx)
	if err != nil {
		return snap, err
	}
	var fetchErr error
	if snap.Status == session.StatusFailed {
		fetchErr = errors.New(snap.Error)
		h.logger.Warn("table load failed", "entity", live.Entity(), "scope", live.Scope(), "error", snap.Error)
	}
	h.metrics.ObserveFetch(string(live.Entity()), string(live.Scope()), fetchErr, time.Since(start).Seconds())
	return snap, nil
}

// related loads entity rows scoped to one dimension value. A failed load is
// returned as an error.
func (h *TablesHandler) related(ctx context.Context, entity crm.Entity, dim filters.Dimension, id string) (session.Snapshot, error) {
	live, err := session.Open(entity, h.src, session.Options{Scope: session.ScopeClient, Now: h.now, Logger: h.logger})
	if err != nil {
		return session.Snapshot{}, err
	}
	if err := live.State().SetDimension(dim, id); err != nil {
		return session.Snapshot{}, err
	}
	snap, err := h.load(ctx, live)
	if err != nil {
		return snap, err
	}
	if snap.Status == session.StatusFailed {
		return snap, fmt.Errorf("handlers: load related %s: %s", entity, snap.Error)
	}
	return snap, nil
}

// relatedFailed answers a detail request whose related table did not load.
func (h *TablesHandler) relatedFailed(w http.ResponseWriter, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		jsonError(w, "request cancelled", http.StatusGatewayTimeout)
		return
	}
	h.logger.Error("detail related load failed", "error", err)
	writeFailed(w, err)
}

// CustomerDetail is a customer with its conversations and insights.
type CustomerDetail struct {
	Customer      enrich.CustomerRow `json:"customer"`
	Conversations session.Snapshot   `json:"conversations"`
	Insights      session.Snapshot   `json:"insights"`
}

// GetCustomer returns one customer with its related tables.
// GET /api/customers/{id}
func (h *TablesHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := r.Context()

	rec, lookups, ok := h.fetchOne(w, r, crm.EntityCustomers, id)
	if !ok {
		return
	}
	detail := CustomerDetail{Customer: enrich.Customer(rec.(crm.Customer), lookups)}

	var err error
	if detail.Conversations, err = h.related(ctx, crm.EntityConversations, filters.DimCustomer, id); err != nil {
		h.relatedFailed(w, err)
		return
	}
	if detail.Insights, err = h.related(ctx, crm.EntityInsights, filters.DimCustomer, id); err != nil {
		h.relatedFailed(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// ConversationDetail is a conversation with its insights.
type ConversationDetail struct {
	Conversation enrich.ConversationRow `json:"conversation"`
	Insights     session.Snapshot       `json:"insights"`
}

// GetConversation returns one conversation with its insights.
// GET /api/conversations/{id}
func (h *TablesHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, lookups, ok := h.fetchOne(w, r, crm.EntityConversations, id)
	if !ok {
		return
	}
	detail := ConversationDetail{Conversation: enrich.Conversation(rec.(crm.Conversation), lookups)}

	var err error
	if detail.Insights, err = h.related(r.Context(), crm.EntityInsights, filters.DimConversation, id); err != nil {
		h.relatedFailed(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *TablesHandler) fetchOne(w http.ResponseWriter, r *http.Request, entity crm.Entity, id string) (crm.Record, *enrich.Lookups, bool) {
	if id == "" {
		jsonError(w, "missing id", http.StatusBadRequest)
		return nil, nil, false
	}
	rec, err := datasource.FetchOne(r.Context(), h.src, entity, id)
	if errors.Is(err, datasource.ErrNotFound) {
		jsonError(w, "not found", http.StatusNotFound)
		return nil, nil, false
	}
	if err != nil {
		h.logger.Error("detail fetch failed", "entity", entity, "id", id, "error", err)
		writeFailed(w, err)
		return nil, nil, false
	}
	lookups, err := session.LoadLookups(r.Context(), h.src)
	if err != nil {
		h.logger.Error("detail lookups failed", "entity", entity, "id", id, "error", err)
		writeFailed(w, err)
		return nil, nil, false
	}
	return rec, lookups, true
}
