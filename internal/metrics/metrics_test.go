package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveCycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveCycle(ResultOK, time.Now())
	m.ObserveCycle(ResultFetchError, time.Now())
	m.ObserveCycle(ResultFetchError, time.Now())

	if got := testutil.ToFloat64(m.Cycles.WithLabelValues(ResultOK)); got != 1 {
		t.Fatalf("expected 1 ok cycle, got %v", got)
	}
	if got := testutil.ToFloat64(m.Cycles.WithLabelValues(ResultFetchError)); got != 2 {
		t.Fatalf("expected 2 failed cycles, got %v", got)
	}
	if got := testutil.ToFloat64(m.LastSuccess); got == 0 {
		t.Fatalf("expected last success to be set")
	}
}
