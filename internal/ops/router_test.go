package ops

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/voclio/voclio/internal/metrics"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

type mockPinger struct {
	err error
}

func (m *mockPinger) PingContext(ctx context.Context) error { return m.err }

// TestHealthz_ReturnsOK はDB疎通が取れる場合に200を返すことを検証する。
func TestHealthz_ReturnsOK(t *testing.T) {
	var buf bytes.Buffer
	router := NewRouter(&mockPinger{}, prometheus.NewRegistry(), newTestLogger(&buf))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("body = %q, want ok", rec.Body.String())
	}
}

// TestHealthz_ReturnsServiceUnavailable はDB疎通が取れない場合に503を返すことを検証する。
func TestHealthz_ReturnsServiceUnavailable(t *testing.T) {
	var buf bytes.Buffer
	router := NewRouter(&mockPinger{err: errors.New("connection refused")}, prometheus.NewRegistry(), newTestLogger(&buf))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

// TestMetrics_ServesPrometheusFormat は/metricsがメトリクスを出力することを検証する。
func TestMetrics_ServesPrometheusFormat(t *testing.T) {
	var buf bytes.Buffer
	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)
	c.RecordReminderSent()

	router := NewRouter(&mockPinger{}, reg, newTestLogger(&buf))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "voclio_reminder_sent_total") {
		t.Error("metrics output should contain voclio_reminder_sent_total")
	}
}

// TestRecoveryMiddleware_CatchesPanic はpanicが500レスポンスに変換されることを検証する。
func TestRecoveryMiddleware_CatchesPanic(t *testing.T) {
	var buf bytes.Buffer
	mw := NewRecoveryMiddleware(newTestLogger(&buf))

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Error("panicはログに記録されなければならない")
	}
}
