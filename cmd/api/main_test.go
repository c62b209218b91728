package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wolfman30/insightdesk/internal/app/bootstrap"
	appconfig "github.com/wolfman30/insightdesk/internal/config"
	"github.com/wolfman30/insightdesk/internal/realtime"
	"github.com/wolfman30/insightdesk/pkg/logging"
)

func TestSetupMetricsExposesMetrics(t *testing.T) {
	handler, m := setupMetrics()
	if handler == nil || m == nil {
		t.Fatalf("expected non-nil handler and metrics")
	}

	m.ObserveEvent("insights", "insert")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "insightdesk_realtime_change_events_total") {
		t.Fatalf("expected change event counter to be exported")
	}
	if !strings.Contains(rr.Body.String(), "go_goroutines") {
		t.Fatalf("expected go runtime collectors")
	}
}

func TestStartListenerDisabledWithoutDatabase(t *testing.T) {
	logger := logging.New("error")
	hub := realtime.NewHub(0, nil, logger)
	if l := startListener(context.Background(), &appconfig.Config{NotifyChannel: "crm_changes"}, nil, hub, logger); l != nil {
		t.Fatalf("expected no listener without DATABASE_URL")
	}
}

func TestNewRouterServesDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.yaml")
	if err := os.WriteFile(path, []byte("customers:\n  - id: c1\n    name: Acme Corp\n"), 0o600); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	cfg := &appconfig.Config{DataSource: appconfig.DataSourceMemory, DatasetPath: path, DefaultScope: "client"}
	logger := logging.New("error")

	rt, err := bootstrap.BuildSource(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("build source: %v", err)
	}
	defer rt.Close()

	handler, m := setupMetrics()
	r := newRouter(cfg, rt, realtime.NewHub(0, m, logger), m, handler, logger)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/customers", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "Acme Corp") {
		t.Fatalf("expected customer in response: %s", rr.Body.String())
	}
}
