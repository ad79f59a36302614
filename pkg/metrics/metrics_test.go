package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCounterAndLabels(t *testing.T) {
	r := New()
	r.Counter(WithLabels("bot_answers_total", "decision", "CONFIDENT_ANSWER"), "Answers by decision").Add(3)
	r.Counter(WithLabels("bot_answers_total", "decision", "ESCALATE_NO_MATCH"), "Answers by decision").Inc()

	out := r.Render()
	for _, want := range []string{
		"# TYPE bot_answers_total counter",
		`bot_answers_total{decision="CONFIDENT_ANSWER"} 3`,
		`bot_answers_total{decision="ESCALATE_NO_MATCH"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q in:\n%s", want, out)
		}
	}
}

func TestCounterIdentity(t *testing.T) {
	r := New()
	a := r.Counter("x_total", "")
	b := r.Counter("x_total", "")
	if a != b {
		t.Fatal("same name should return the same counter")
	}
}

func TestGauge(t *testing.T) {
	r := New()
	g := r.Gauge("inflight", "")
	g.Inc()
	g.Inc()
	g.Dec()
	if g.Value() != 1 {
		t.Fatalf("gauge = %d", g.Value())
	}
}

func TestHistogramRender(t *testing.T) {
	r := New()
	h := r.Histogram("dur_seconds", "latency", []float64{0.1, 1, 10})
	h.Observe(0.05)
	h.Observe(0.5)
	h.Observe(5)

	out := r.Render()
	for _, want := range []string{
		`dur_seconds_bucket{le="0.1"} 1`,
		`dur_seconds_bucket{le="1"} 2`,
		`dur_seconds_bucket{le="10"} 3`,
		`dur_seconds_bucket{le="+Inf"} 3`,
		"dur_seconds_count 3",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q in:\n%s", want, out)
		}
	}
}

func TestHandler(t *testing.T) {
	r := New()
	r.Counter("ping_total", "").Inc()
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 200 || !strings.Contains(rec.Body.String(), "ping_total 1") {
		t.Fatalf("handler: code=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestWithLabelsMalformed(t *testing.T) {
	if got := WithLabels("foo", "only_key"); got != "foo" {
		t.Fatalf("odd kvs should return base name, got %q", got)
	}
}
