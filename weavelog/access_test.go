package weavelog

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestLogAccessWritesCombinedFormatLine(t *testing.T) {
	var buf bytes.Buffer
	initAccessLog(&buf, false)
	defer func() { accessLog = nil }()

	r := httptest.NewRequest("GET", "/widgets/7", nil)
	r.RemoteAddr = "203.0.113.7:54321"
	r.Header.Set("User-Agent", "test-agent")

	LogAccess(&AccessEntry{
		Request:      r,
		StatusCode:   200,
		ResponseSize: 42,
		Duration:     150 * time.Millisecond,
		RequestTime:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Listener:     "127.0.0.1:8080",
	})

	line := buf.String()
	if !strings.Contains(line, "203.0.113.7") {
		t.Errorf("line missing client host: %q", line)
	}
	if !strings.Contains(line, `"GET /widgets/7`) {
		t.Errorf("line missing request line: %q", line)
	}
	if !strings.Contains(line, " 200 42 ") {
		t.Errorf("line missing status/size: %q", line)
	}
	if !strings.Contains(line, "127.0.0.1:8080") {
		t.Errorf("line missing listener: %q", line)
	}
}

func TestLogAccessIsANoopWithoutInit(t *testing.T) {
	accessLog = nil
	LogAccess(&AccessEntry{StatusCode: 200})
}

func TestRemoteHostPrefersForwardedFor(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	r.Header.Set("X-Forwarded-For", "198.51.100.9")

	if got := remoteHost(r); got != "198.51.100.9" {
		t.Errorf("remoteHost = %q, want 198.51.100.9", got)
	}
}

func TestStripPortHandlesBareHost(t *testing.T) {
	if got := stripPort("example.com"); got != "example.com" {
		t.Errorf("stripPort(no port) = %q", got)
	}
	if got := stripPort("example.com:8080"); got != "example.com" {
		t.Errorf("stripPort(with port) = %q", got)
	}
}
