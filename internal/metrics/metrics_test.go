package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"phonelogin/internal/autherr"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	r.ObserveTransition("idle", "validating")
	r.ObserveTransition("idle", "validating")
	r.ObserveRun(nil, 0, 10*time.Millisecond)
	r.ObserveRun(autherr.APIStatus(500), 1, time.Second)

	if got := testutil.ToFloat64(r.transitions.WithLabelValues("idle", "validating")); got != 2 {
		t.Fatalf("expected 2 transitions, got %v", got)
	}
	if got := testutil.ToFloat64(r.runs.WithLabelValues("true", "", "", "")); got != 1 {
		t.Fatalf("expected 1 successful run, got %v", got)
	}
	if got := testutil.ToFloat64(r.runs.WithLabelValues("false", "api", "http_status", "true")); got != 1 {
		t.Fatalf("expected 1 failed api run, got %v", got)
	}
	if n, err := testutil.GatherAndCount(r.Registry(), "phonelogin_login_run_duration_seconds"); err != nil || n != 1 {
		t.Fatalf("expected duration histogram to be gathered, got %d (%v)", n, err)
	}
}
