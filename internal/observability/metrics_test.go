package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/api/journeys", "200", time.Millisecond)
	m.IncQuizSubmission("passed")
	m.IncNotification("welcome", "sent")
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("WritePrometheus on nil: %v", err)
	}
}

func TestInitDisabledReturnsNil(t *testing.T) {
	if m := Init(nil, Config{Enabled: false}); m != nil {
		t.Fatalf("expected nil metrics when disabled")
	}
}

func TestWritePrometheusExposition(t *testing.T) {
	m := New(Config{})
	m.ObserveAPI("POST", "/api/quiz/:missionId/submit", "200", 30*time.Millisecond)
	m.IncQuizSubmission("passed")
	m.IncQuizSubmission("passed")
	m.IncCertificate("issued")
	m.ObserveAggregateOperation("Progression.RecordQuizAttempt", "success", 5*time.Millisecond)

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`# TYPE missions_api_requests_total counter`,
		`missions_api_requests_total{method="POST",route="/api/quiz/:missionId/submit",status="200"} 1`,
		`missions_quiz_submissions_total{outcome="passed"} 2`,
		`missions_certificates_total{status="issued"} 1`,
		`missions_aggregate_operation_duration_seconds_bucket{op="Progression.RecordQuizAttempt",status="success",le="0.01"} 1`,
		`missions_aggregate_operation_duration_seconds_count{op="Progression.RecordQuizAttempt",status="success"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
	if got := m.quizSubmissions.Value("passed"); got != 2 {
		t.Fatalf("Value: %v", got)
	}
}

func TestLabelEscaping(t *testing.T) {
	got := labelString([]string{"route"}, []string{`a"b\c`})
	if got != `{route="a\"b\\c"}` {
		t.Fatalf("labelString: %s", got)
	}
	if withLe("", "0.5") != `{le="0.5"}` {
		t.Fatalf("withLe empty")
	}
}

func TestParseHeadersAndRatio(t *testing.T) {
	h := parseHeaders(" a=1 , bad, b = two ,=x")
	if len(h) != 2 || h["a"] != "1" || h["b"] != "two" {
		t.Fatalf("parseHeaders: %#v", h)
	}
	if parseHeaders("") != nil {
		t.Fatalf("expected nil headers")
	}
	if clampRatio(0) != 0.1 || clampRatio(3) != 1 || clampRatio(0.5) != 0.5 {
		t.Fatalf("clampRatio")
	}
}
