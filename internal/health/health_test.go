package health

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSnapshotHealthyWhenAllConnected(t *testing.T) {
	m := New()
	now := time.Now()
	m.MarkConnected("venue", now)
	m.MarkConnected("weather", now)

	got := m.Snapshot()
	if got.Status != StatusHealthy {
		t.Fatalf("expected healthy, got %s", got.Status)
	}
}

func TestSnapshotDegradedWhenSomeDisconnectedWithError(t *testing.T) {
	m := New()
	now := time.Now()
	m.MarkConnected("venue", now)
	m.MarkDisconnected("weather", errors.New("dial timeout"), now)

	got := m.Snapshot()
	if got.Status != StatusDegraded {
		t.Fatalf("expected degraded, got %s", got.Status)
	}
	if got.Sources["weather"].LastError == "" {
		t.Fatalf("expected last_error to be recorded")
	}
}

func TestSnapshotUnhealthyWhenNoneConnected(t *testing.T) {
	m := New()
	now := time.Now()
	m.MarkDisconnected("venue", errors.New("closed"), now)
	m.MarkDisconnected("weather", errors.New("closed"), now)

	got := m.Snapshot()
	if got.Status != StatusUnhealthy {
		t.Fatalf("expected unhealthy, got %s", got.Status)
	}
}

func TestSnapshotHealthyWhenDisconnectedButNoError(t *testing.T) {
	m := New()
	now := time.Now()
	m.mu.Lock()
	m.sources["fed"] = SourceStatus{Connected: false, LastUpdate: now}
	m.mu.Unlock()

	got := m.Snapshot()
	if got.Status != StatusHealthy {
		t.Fatalf("expected healthy for disconnected-but-errorless source, got %s", got.Status)
	}
}

func TestHandlerReturns503WhenUnhealthy(t *testing.T) {
	m := New()
	m.MarkDisconnected("venue", errors.New("down"), time.Now())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	m.Handler()(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestHandlerReturns200WhenHealthy(t *testing.T) {
	m := New()
	m.MarkConnected("venue", time.Now())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	m.Handler()(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
