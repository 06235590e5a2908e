package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestIncResponseStatusExportsLabeledCounter(t *testing.T) {
	m := New()
	m.IncResponseStatus("127.0.0.1:8080", 200)
	m.IncResponseStatus("127.0.0.1:8080", 200)
	m.IncResponseStatus("127.0.0.1:8080", 404)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	if !strings.Contains(body, `weave_response_status_total{code="200",listener="127.0.0.1:8080"} 2`) {
		t.Errorf("missing expected counter series, body:\n%s", body)
	}
	if !strings.Contains(body, `weave_response_status_total{code="404",listener="127.0.0.1:8080"} 1`) {
		t.Errorf("missing expected counter series, body:\n%s", body)
	}
}

func TestObserveRouteLookupRecordsHistogram(t *testing.T) {
	m := New()
	m.ObserveRouteLookup("127.0.0.1:8080", 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if !strings.Contains(rec.Body.String(), "weave_route_lookup_duration_seconds") {
		t.Error("missing route lookup histogram series")
	}
}

func TestIncTCPConnectionTagsOutcome(t *testing.T) {
	m := New()
	m.IncTCPConnection("127.0.0.1:9999", "dial-error")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if !strings.Contains(rec.Body.String(), `weave_tcp_connections_total{listener="127.0.0.1:9999",outcome="dial-error"} 1`) {
		t.Errorf("missing expected tcp outcome series, body:\n%s", rec.Body.String())
	}
}
