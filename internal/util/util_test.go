package util

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestRetry(t *testing.T) {
	attempts := 0
	targetAttempts := 3

	err := Retry(context.Background(), "test", 5, 0, func() error {
		attempts++
		if attempts < targetAttempts {
			return errors.New("transient error")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Retry returned unexpected error: %v", err)
	}
	if attempts != targetAttempts {
		t.Errorf("Retry called fn %d times, want %d", attempts, targetAttempts)
	}
}

func TestRetryAllFail(t *testing.T) {
	attempts := 0
	maxAttempts := 3

	err := Retry(context.Background(), "test", maxAttempts, 0, func() error {
		attempts++
		return errors.New("persistent error")
	})

	if err == nil {
		t.Fatal("Retry should return error when all attempts fail")
	}
	if attempts != maxAttempts {
		t.Errorf("Retry called fn %d times, want %d", attempts, maxAttempts)
	}
}

func TestRetryZeroAttemptsRunsOnce(t *testing.T) {
	attempts := 0
	_ = Retry(context.Background(), "test", 0, 0, func() error {
		attempts++
		return errors.New("fail")
	})
	if attempts != 1 {
		t.Errorf("Retry called fn %d times, want 1", attempts)
	}
}

func TestRetryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, "test", 3, time.Hour, func() error {
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Retry error = %v, want context.Canceled", err)
	}
}

func TestEachDay(t *testing.T) {
	first := time.Date(2024, 2, 27, 15, 4, 0, 0, time.UTC)
	last := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	days := EachDay(first, last)
	if len(days) != 4 {
		t.Fatalf("EachDay returned %d days, want 4", len(days))
	}
	want := []string{"2024-02-27", "2024-02-28", "2024-02-29", "2024-03-01"}
	for i, d := range days {
		if got := d.Format(DateLayout); got != want[i] {
			t.Errorf("day %d = %s, want %s", i, got, want[i])
		}
	}

	if got := EachDay(last, first); got != nil {
		t.Errorf("EachDay with inverted range = %v, want nil", got)
	}
}

func TestDayKeepsWallDate(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	got := Day(time.Date(2024, 1, 1, 23, 0, 0, 0, loc))
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Day() = %v, want %v", got, want)
	}
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	if got := DaysBetween(a, b); got != 30 {
		t.Errorf("DaysBetween = %d, want 30", got)
	}
	if got := DaysBetween(b, a); got != -30 {
		t.Errorf("DaysBetween reversed = %d, want -30", got)
	}
}

func TestNewLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "debug", "json")
	logger.Debug("hello", "k", "v")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("json logger output = %q, want JSON object", buf.String())
	}

	buf.Reset()
	logger = newLogger(&buf, "warn", "text")
	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("warn-level logger emitted info record: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("DEBUG") != slog.LevelDebug {
		t.Error("DEBUG should parse to debug")
	}
	if ParseLevel("bogus") != slog.LevelInfo {
		t.Error("unknown level should default to info")
	}
}
