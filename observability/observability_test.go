package observability

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestFieldConstructors(t *testing.T) {
	cases := []struct {
		field Field
		key   string
	}{
		{String("stage", "parse"), "stage"},
		{Int("blocks", 7), "blocks"},
		{Float64("seconds", 0.25), "seconds"},
		{Error("err", context.Canceled), "err"},
	}
	for _, c := range cases {
		if c.field.Key() != c.key {
			t.Errorf("key = %q, want %q", c.field.Key(), c.key)
		}
		if c.field.Value() == nil {
			t.Errorf("field %q has nil value", c.key)
		}
	}
}

func TestNopLoggerDoesNotPanic(t *testing.T) {
	var l Logger = NopLogger{}
	l.Debug("debug")
	l.Info("info", String("k", "v"))
	l.With(Int("n", 1)).Error("error")
}

func TestSlogBridge(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	l.With(String("page", "3")).Warn("font fetch failed", Int("attempt", 2))

	out := buf.String()
	for _, want := range []string{"font fetch failed", "page=3", "attempt=2"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestNopTracer(t *testing.T) {
	ctx, span := NopTracer().StartSpan(context.Background(), "generate")
	if ctx == nil {
		t.Fatal("nil context")
	}
	span.SetTag("k", "v")
	span.SetError(nil)
	span.Finish()
}
