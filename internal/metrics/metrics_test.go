package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"presscount/internal/domain"
)

func TestObserveSeries(t *testing.T) {
	m := New()
	d := func(n int) time.Time { return time.Date(2024, 1, n, 0, 0, 0, 0, time.UTC) }
	rng := domain.DateRange{First: d(1), Last: d(3)}

	m.ObserveSeries(rng, domain.DailySeries{
		Name: "Lankadeepa",
		Points: []domain.Point{
			{Day: d(1), Value: 5, Observed: true},
			{Day: d(2), Value: 7},
			{Day: d(3), Value: 9, Observed: true},
		},
	})

	if got := testutil.ToFloat64(m.RangeDays); got != 3 {
		t.Errorf("range days = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.SynthesizedDays.WithLabelValues("Lankadeepa")); got != 1 {
		t.Errorf("synthesized days = %v, want 1", got)
	}
}

func TestFinish(t *testing.T) {
	m := New()
	start := time.Unix(1_700_000_000, 0)

	m.Finish(start, start.Add(1500*time.Millisecond), nil)
	if got := testutil.ToFloat64(m.RunDurationSec); got != 1.5 {
		t.Errorf("duration = %v, want 1.5", got)
	}
	if got := testutil.ToFloat64(m.LastSuccess); got != 1_700_000_001 {
		t.Errorf("last success = %v", got)
	}

	m.Finish(start, start.Add(time.Second), errors.New("boom"))
	if got := testutil.ToFloat64(m.RunFailures); got != 1 {
		t.Errorf("failures = %v, want 1", got)
	}
	// A failed run leaves the last success untouched.
	if got := testutil.ToFloat64(m.LastSuccess); got != 1_700_000_001 {
		t.Errorf("last success after failure = %v", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.Observations.Set(42)
	path := filepath.Join(t.TempDir(), "presscount.prom")

	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "presscount_observations 42") {
		t.Errorf("textfile missing observations gauge:\n%s", data)
	}
}
