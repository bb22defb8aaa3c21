// internal/platform/logx/logx_test.go
package logx

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"subterra/internal/testutil"
)

func TestNew(t *testing.T) {
	t.Setenv(EnvLevel, "warn")
	logger := New()
	testutil.AssertNotNil(t, logger, "New() should return a logger")

	impl, ok := logger.(*ptermLogger)
	testutil.AssertTrue(t, ok, "New() should return the pterm-backed logger")
	testutil.AssertEqual(t, Level(impl.lvl.Load()), LevelWarn, "level taken from env")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", LevelDebug},
		{"DBG", LevelDebug},
		{"  debug  ", LevelDebug},
		{"info", LevelInfo},
		{"", LevelInfo},
		{"warn", LevelWarn},
		{"Warning", LevelWarn},
		{"err", LevelError},
		{"ERROR", LevelError},
		{"garbage", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			testutil.AssertEqual(t, parseLevel(tt.input), tt.expected, "parseLevel")
		})
	}
}

func TestKVPairs(t *testing.T) {
	tests := []struct {
		name     string
		input    []any
		expected []any
	}{
		{"empty", nil, []any{}},
		{"single pair", []any{"key", "value"}, []any{"key", "value"}},
		{"missing value", []any{"orphan"}, []any{"orphan", "(missing)"}},
		{"non-string key", []any{42, true}, []any{"42", true}},
		{"error value", []any{"error", errors.New("boom")}, []any{"error", "boom"}},
		{"duration value", []any{"took", 1500 * time.Millisecond}, []any{"took", "1.5s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertEqual(t, kvPairs(tt.input...), tt.expected, "kvPairs")
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOptions(Options{Level: LevelWarn, JSON: true, Writer: &buf})

	logger.Debug("debug-line")
	logger.Info("info-line")
	logger.Warn("warn-line")
	logger.Err(errors.New("err-line"))
	logger.Err(nil)

	out := buf.String()
	testutil.AssertNotContains(t, out, "debug-line", "debug filtered")
	testutil.AssertNotContains(t, out, "info-line", "info filtered")
	testutil.AssertContains(t, out, "warn-line", "warn emitted")
	testutil.AssertContains(t, out, "err-line", "error emitted")
}

func TestWithScopeAndSharedLevel(t *testing.T) {
	var buf bytes.Buffer
	root := NewWithOptions(Options{Level: LevelInfo, JSON: true, Writer: &buf})
	child := root.With("component", "store")

	child.Info("merged", "added", 3)
	testutil.AssertContains(t, buf.String(), "component", "scope key present")
	testutil.AssertContains(t, buf.String(), "store", "scope value present")
	testutil.AssertContains(t, buf.String(), "added", "call kv present")

	buf.Reset()
	root.SetLevel(LevelError)
	child.Info("should not appear")
	testutil.AssertEqual(t, buf.Len(), 0, "level change propagates to children")
}

func TestConcurrentLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOptions(Options{Level: LevelInfo, JSON: true, Writer: &buf})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			logger.With("worker", i).Info("tick")
		}(i)
	}
	wg.Wait()

	testutil.AssertEqual(t, strings.Count(buf.String(), "tick"), 20, "every line written")
}
