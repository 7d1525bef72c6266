package fonts

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestHelveticaWidths(t *testing.T) {
	f := Helvetica()
	if !f.Builtin() {
		t.Fatal("Helvetica must be a built-in")
	}
	cases := []struct {
		r    rune
		want float64
	}{
		{' ', 278},
		{'A', 667},
		{'i', 222},
		{'W', 944},
		{'好', helveticaDefaultWidth},
	}
	for _, c := range cases {
		if got := f.RuneWidth(c.r); got != c.want {
			t.Errorf("RuneWidth(%q) = %v, want %v", c.r, got, c.want)
		}
	}
}

func TestHelveticaMeasureString(t *testing.T) {
	f := Helvetica()
	// AV = 667 + 667 units at 10pt.
	want := (667.0 + 667.0) / 1000 * 10
	if got := f.MeasureString("AV", 10); math.Abs(got-want) > 1e-9 {
		t.Errorf("MeasureString = %v, want %v", got, want)
	}
	if got := f.MeasureString("", 10); got != 0 {
		t.Errorf("empty string measured %v", got)
	}
}

func TestHelveticaMetrics(t *testing.T) {
	m := Helvetica().Metrics()
	if m.Ascent <= 0 || m.Descent >= 0 {
		t.Errorf("implausible metrics: %+v", m)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte("not a font")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestFetchRetriesThenFails(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL, WithRetries(2), WithBackoff(time.Millisecond))
	if _, err := f.Fetch(context.Background()); err == nil {
		t.Fatal("expected fetch error")
	}
	if got := hits.Load(); got != 3 {
		t.Errorf("server hit %d times, want 3", got)
	}
}

func TestFetchHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := NewFetcher(srv.URL, WithRetries(5), WithBackoff(time.Second))
	start := time.Now()
	if _, err := f.Fetch(ctx); err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("cancelled fetch should return promptly")
	}
}
