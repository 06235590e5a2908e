package routing

import (
	"testing"

	"github.com/jsdw/weave/route"
)

func TestExplainOrdersByListenerThenPriority(t *testing.T) {
	routes, err := route.ParsePhrase(
		"=8080/foo to 9090/1 and 8080/(rest..) to 9090/2 and tcp://8081 to tcp://127.0.0.1:9999",
	)
	if err != nil {
		t.Fatalf("ParsePhrase failed: %v", err)
	}
	tbl := NewTable(routes)

	entries := tbl.Explain()
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[0].Class != "exact, no variables" {
		t.Errorf("entries[0].Class = %q", entries[0].Class)
	}
	if entries[1].Class != "prefix, with variables" {
		t.Errorf("entries[1].Class = %q", entries[1].Class)
	}
	if entries[2].Class != "tcp" {
		t.Errorf("entries[2].Class = %q", entries[2].Class)
	}
}
