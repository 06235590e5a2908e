package routing

import (
	"sort"

	"github.com/jsdw/weave/route"
)

var classNames = map[priorityClass]string{
	classExactNoVars:    "exact, no variables",
	classExactWithVars:  "exact, with variables",
	classPrefixNoVars:   "prefix, no variables",
	classPrefixWithVars: "prefix, with variables",
}

// ExplainEntry is one route annotated with the priority class it was
// sorted into, for "weave -explain" to print.
type ExplainEntry struct {
	Route route.Route
	Class string
}

// Explain returns every route the table holds, grouped by listener in
// sorted order and, within an HTTP listener, in the exact match
// priority order MatchHTTP tries them in.
func (t *Table) Explain() []ExplainEntry {
	var out []ExplainEntry

	listeners := make([]string, 0, len(t.http))
	for l := range t.http {
		listeners = append(listeners, l)
	}
	sort.Strings(listeners)
	for _, l := range listeners {
		for _, r := range t.http[l] {
			class, _ := classify(r.Src)
			out = append(out, ExplainEntry{Route: r, Class: classNames[class]})
		}
	}

	tcpListeners := make([]string, 0, len(t.tcp))
	for l := range t.tcp {
		tcpListeners = append(tcpListeners, l)
	}
	sort.Strings(tcpListeners)
	for _, l := range tcpListeners {
		out = append(out, ExplainEntry{Route: t.tcp[l], Class: "tcp"})
	}

	return out
}
