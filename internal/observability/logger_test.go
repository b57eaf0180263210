package observability

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerLevelParsing(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		level string
		want  zapcore.Level
	}{
		{name: "debug", level: "debug", want: zapcore.DebugLevel},
		{name: "info", level: "info", want: zapcore.InfoLevel},
		{name: "warn", level: "warn", want: zapcore.WarnLevel},
		{name: "mixed case with padding", level: "  ERROR ", want: zapcore.ErrorLevel},
		{name: "empty defaults to info", level: "", want: zapcore.InfoLevel},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			logger, err := NewLogger(tc.level)
			if err != nil {
				t.Fatalf("NewLogger(%q) error = %v", tc.level, err)
			}

			if !logger.Core().Enabled(tc.want) {
				t.Fatalf("level %v disabled for config %q", tc.want, tc.level)
			}
			if tc.want > zapcore.DebugLevel && logger.Core().Enabled(tc.want-1) {
				t.Fatalf("level %v unexpectedly enabled for config %q", tc.want-1, tc.level)
			}
		})
	}
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	logger, err := NewLogger("chatty")
	if err == nil {
		t.Fatal("expected error for unknown level")
	}
	if logger != nil {
		t.Fatal("expected nil logger for unknown level")
	}
}

func TestCorrelationIDRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := WithCorrelationID(context.Background(), "req-7f3a")
	got, ok := CorrelationIDFromContext(ctx)
	if !ok || got != "req-7f3a" {
		t.Fatalf("correlation id = %q, %v; want req-7f3a, true", got, ok)
	}

	// A nil parent is tolerated rather than panicking mid-request.
	ctx = WithCorrelationID(nil, "req-9c01") //nolint:staticcheck
	if got, ok := CorrelationIDFromContext(ctx); !ok || got != "req-9c01" {
		t.Fatalf("correlation id = %q, %v; want req-9c01, true", got, ok)
	}

	if _, ok := CorrelationIDFromContext(context.Background()); ok {
		t.Fatal("bare context reported a correlation id")
	}
	if _, ok := CorrelationIDFromContext(WithCorrelationID(context.Background(), "")); ok {
		t.Fatal("blank correlation id should read as absent")
	}
}

func TestWithContextLoggerAttachesCorrelationField(t *testing.T) {
	t.Parallel()

	core, recorded := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ctx := WithCorrelationID(context.Background(), "req-dispatch-42")
	WithContextLogger(base, ctx).Info("post dispatched")

	entries := recorded.All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["correlationId"]; got != "req-dispatch-42" {
		t.Fatalf("correlationId = %v, want req-dispatch-42", got)
	}
}

func TestWithContextLoggerWithoutCorrelation(t *testing.T) {
	t.Parallel()

	core, recorded := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	WithContextLogger(base, context.Background()).Info("scheduler scan complete")

	entries := recorded.All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if _, ok := entries[0].ContextMap()["correlationId"]; ok {
		t.Fatal("correlationId attached without one in context")
	}

	if got := WithContextLogger(nil, context.Background()); got != nil {
		t.Fatal("nil logger should stay nil")
	}
}
