package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestObserveAttempt verifies healthy and unhealthy checks land on separate
// series.
func TestObserveAttempt(t *testing.T) {
	m := NewProbe()
	m.ObserveAttempt(false)
	m.ObserveAttempt(false)
	m.ObserveAttempt(true)

	if got := testutil.ToFloat64(m.attempts.WithLabelValues("unhealthy")); got != 2 {
		t.Errorf("unhealthy = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.attempts.WithLabelValues("healthy")); got != 1 {
		t.Errorf("healthy = %v, want 1", got)
	}
}

// TestObserveDegraded verifies the fallback counter.
func TestObserveDegraded(t *testing.T) {
	m := NewProbe()
	m.ObserveDegraded()
	if got := testutil.ToFloat64(m.degraded); got != 1 {
		t.Fatalf("degraded = %v", got)
	}
}

// TestHandler_ExposesWaits scrapes the handler and checks the wait histogram
// is exported under its full name with the mode label.
func TestHandler_ExposesWaits(t *testing.T) {
	m := NewProbe()
	m.ObserveWait("collatz", 86*time.Millisecond)

	server := httptest.NewServer(m.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(body), `collatz_probe_wait_seconds_count{mode="collatz"} 1`) {
		t.Fatalf("wait histogram missing from scrape:\n%s", body)
	}
	if n, err := testutil.GatherAndCount(m.Registry(), "collatz_probe_wait_seconds"); err != nil || n != 1 {
		t.Fatalf("GatherAndCount = %d, %v", n, err)
	}
}
