package idemstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

// mockLogger captures log messages for testing
type mockLogger struct {
	mu       sync.Mutex
	messages []string
}

func (m *mockLogger) Info(ctx context.Context, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, fmt.Sprintf("INFO: "+format, args...))
}

func (m *mockLogger) Warn(ctx context.Context, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, fmt.Sprintf("WARN: "+format, args...))
}

func (m *mockLogger) Error(ctx context.Context, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, fmt.Sprintf("ERROR: "+format, args...))
}

func (m *mockLogger) Debug(ctx context.Context, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, fmt.Sprintf("DEBUG: "+format, args...))
}

func (m *mockLogger) getMessages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.messages...)
}

func (m *mockLogger) contains(substring string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if strings.Contains(msg, substring) {
			return true
		}
	}
	return false
}

func TestWithLogger_Lifecycle(t *testing.T) {
	logger := &mockLogger{}
	a := New[string](
		WithStoreName[string]("orders"),
		WithDriver[string](NewMemory()),
		WithLogger[string](logger))

	_ = a.Start()
	_, _ = a.Add(context.Background(), "k1")
	_ = a.Stop()

	if !logger.contains("INFO: started with store orders") {
		t.Error("Expected start log")
	}
	if !logger.contains("DEBUG: created keyspace orders") {
		t.Error("Expected keyspace creation log")
	}
	if !logger.contains("INFO: stopped") {
		t.Error("Expected stop log")
	}
}

func TestWithLogTag(t *testing.T) {
	logger := &mockLogger{}
	a := New[string](
		WithDriver[string](NewMemory()),
		WithLogger[string](logger),
		WithLogTag[string]("[TestTag]"))

	_ = a.Start()
	defer a.Stop()
	_, _ = a.Add(context.Background(), "k1")

	for _, msg := range logger.getMessages() {
		if !strings.Contains(msg, "[TestTag]") {
			t.Errorf("Expected log tag in %q", msg)
		}
	}
	if !logger.contains("created keyspace default") {
		t.Error("Expected keyspace creation log with default store name")
	}
}

func TestLogger_OperationFailuresNotLogged(t *testing.T) {
	logger := &mockLogger{}
	a := New[string](
		WithDriver[string](&errorDriver{}),
		WithLogger[string](logger))
	_ = a.Start()
	defer a.Stop()

	ctx := context.Background()
	_, _ = a.Add(ctx, "k")
	_, _ = a.Contains(ctx, "k")
	_, _ = a.Remove(ctx, "k")

	for _, msg := range logger.getMessages() {
		if strings.HasPrefix(msg, "ERROR:") || strings.HasPrefix(msg, "WARN:") {
			t.Errorf("operation failures are returned, not logged: %q", msg)
		}
	}
}

func TestLoggerNilSafety(t *testing.T) {
	// Passing nil logger should use default no-op
	a := New[string](WithDriver[string](NewMemory()), WithLogger[string](nil))

	// Should not panic
	_ = a.Start()
	_, _ = a.Add(context.Background(), "key")
	_ = a.Stop()
}

func TestZerologLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))
	ctx := context.Background()

	logger.Info(ctx, "info %d", 1)
	logger.Warn(ctx, "warn %s", "x")
	logger.Error(ctx, "error")
	logger.Debug(ctx, "debug")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d log lines, want 4: %q", len(lines), buf.String())
	}

	want := []struct{ level, msg string }{
		{"info", "info 1"},
		{"warn", "warn x"},
		{"error", "error"},
		{"debug", "debug"},
	}
	for i, line := range lines {
		var rec map[string]interface{}
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("line %d is not JSON: %v", i, err)
		}
		if rec["level"] != want[i].level || rec["message"] != want[i].msg {
			t.Errorf("line %d = %v, want level=%s message=%s", i, rec, want[i].level, want[i].msg)
		}
	}
}

func TestNewLoggerFromEnv_JSON(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_FORMAT", "json")

	var buf bytes.Buffer
	logger := NewLoggerFromEnv(&buf)
	ctx := context.Background()

	logger.Info(ctx, "filtered")
	logger.Warn(ctx, "kept")

	out := buf.String()
	if strings.Contains(out, "filtered") {
		t.Errorf("info message should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, `"message":"kept"`) || !strings.Contains(out, `"component":"idemstore"`) {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestNewLoggerFromEnv_InvalidLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "loud")
	t.Setenv("LOG_FORMAT", "console")

	var buf bytes.Buffer
	logger := NewLoggerFromEnv(&buf)

	logger.Debug(context.Background(), "hidden")
	logger.Info(context.Background(), "shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("invalid LOG_LEVEL should fall back to info: %q", out)
	}
}
