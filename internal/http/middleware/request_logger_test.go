package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/wolfman30/crm-assistant/pkg/logging"
)

func TestRequestLoggerRecordsStatusAndID(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, "info")
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "req-123" {
		t.Fatalf("expected request id echoed, got %q", got)
	}
	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("expected one JSON log line, got %q: %v", buf.String(), err)
	}
	if line["request_id"] != "req-123" || line["status"] != float64(http.StatusTeapot) || line["path"] != "/health" {
		t.Fatalf("unexpected log line: %v", line)
	}
}

func TestRequestLoggerGeneratesID(t *testing.T) {
	var buf bytes.Buffer
	handler := RequestLogger(logging.NewWithWriter(&buf, "info"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected generated request id")
	}
	if !strings.Contains(buf.String(), `"status":200`) {
		t.Fatalf("expected implicit 200 status in log, got %s", buf.String())
	}
}

func TestRequestLoggerLogsServerErrorsAtErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	handler := RequestLogger(logging.NewWithWriter(&buf, "info"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/assistant/command", nil))

	if !strings.Contains(buf.String(), `"level":"ERROR"`) {
		t.Fatalf("expected error level, got %s", buf.String())
	}
}
