package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/insightdesk/pkg/logging"
)

func TestRequestLoggerRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter("info", &buf)

	handler := middleware.RequestID(RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"status":"failed"}`))
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/insights?q=crm", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected one json log line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "request failed" {
		t.Fatalf("expected failure message, got %v", entry["msg"])
	}
	if entry["status"] != float64(http.StatusBadGateway) {
		t.Fatalf("expected status 502, got %v", entry["status"])
	}
	if entry["query"] != "q=crm" {
		t.Fatalf("expected query to be logged, got %v", entry["query"])
	}
	if entry["request_id"] == "" || entry["request_id"] == nil {
		t.Fatalf("expected request id")
	}
}
