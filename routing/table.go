// Package routing turns a parsed route.Route slice into a lookup
// structure, grouping routes by listener and ordering each listener's
// candidates by match priority so Match can return the first one that
// unifies against a request.
package routing

import (
	"sort"

	"github.com/jsdw/weave/route"
)

// Table is an immutable, pre-sorted view of a route set, built once at
// startup and then read concurrently by every
// connection-handling goroutine.
type Table struct {
	http map[string][]route.Route
	tcp  map[string]route.Route
}

// NewTable groups routes by listener and sorts each HTTP listener's
// routes into match-priority order. The invariants that a listener
// carries one protocol and a tcp listener carries at most one route
// are enforced earlier, by route.Parse; NewTable assumes a table it is
// given already satisfies them.
func NewTable(routes []route.Route) *Table {
	t := &Table{
		http: make(map[string][]route.Route),
		tcp:  make(map[string]route.Route),
	}

	for _, r := range routes {
		if r.Src.Protocol == route.TCP {
			t.tcp[r.Src.Listener] = r
			continue
		}
		t.http[r.Src.Listener] = append(t.http[r.Src.Listener], r)
	}

	for listener, rs := range t.http {
		sortByPriority(rs)
		t.http[listener] = rs
	}

	return t
}

// Listeners returns every listener address the table binds, along with
// the protocol it expects, so the caller can start one acceptor per
// entry.
func (t *Table) Listeners() map[string]route.Protocol {
	out := make(map[string]route.Protocol, len(t.http)+len(t.tcp))
	for l := range t.http {
		out[l] = route.HTTP
	}
	for l := range t.tcp {
		out[l] = route.TCP
	}
	return out
}

// MatchHTTP finds the highest-priority route bound to listener whose
// source pattern unifies with requestPath, returning the matched route
// and the captured variables (plus, for a prefix match, the unmatched
// tail under route.TailKey).
func (t *Table) MatchHTTP(listener, requestPath string) (route.Route, map[string]string, bool) {
	segs := splitPath(requestPath)
	for _, r := range t.http[listener] {
		if captures, ok := matchSrc(r.Src, segs); ok {
			return r, captures, true
		}
	}
	return route.Route{}, nil, false
}

// MatchTCP returns the single route bound to a tcp listener, if any.
func (t *Table) MatchTCP(listener string) (route.Route, bool) {
	r, ok := t.tcp[listener]
	return r, ok
}

// Routes returns every route in the table, in declaration order, for
// diagnostics.
func (t *Table) Routes() []route.Route {
	var all []route.Route
	for _, rs := range t.http {
		all = append(all, rs...)
	}
	for _, r := range t.tcp {
		all = append(all, r)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Index < all[j].Index })
	return all
}
