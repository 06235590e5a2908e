package routing

import (
	"testing"

	"github.com/jsdw/weave/route"
)

func parseOrFatal(t *testing.T, phrase string) []route.Route {
	t.Helper()
	routes, err := route.ParsePhrase(phrase)
	if err != nil {
		t.Fatalf("ParsePhrase(%q) failed: %v", phrase, err)
	}
	return routes
}

func resolvedURL(t *testing.T, tbl *Table, listener, path string) string {
	t.Helper()
	r, captures, ok := tbl.MatchHTTP(listener, path)
	if !ok {
		t.Fatalf("no match for %s %s", listener, path)
	}
	up, ok := r.Dst.(route.HTTPUpstream)
	if !ok {
		t.Fatalf("matched route has non-HTTP destination: %T", r.Dst)
	}
	p, err := route.ResolveHTTPPath(up, captures)
	if err != nil {
		t.Fatalf("ResolveHTTPPath failed: %v", err)
	}
	return up.Scheme + "://" + up.Host + ":" + up.Port + p
}

func TestExactPrefixMeansExact(t *testing.T) {
	var routes []route.Route
	routes = append(routes, parseOrFatal(t, "=8080/foo/bar to 9090/1")...)
	routes = append(routes, parseOrFatal(t, "=8080/favicon.ico to 9090/2")...)
	tbl := NewTable(routes)

	cases := []struct {
		path string
		want string
		ok   bool
	}{
		{"/foo/bar", "http://127.0.0.1:9090/1", true},
		{"/favicon.ico", "http://127.0.0.1:9090/2", true},
		{"/foo/bar/", "", false},
		{"/foo/bar/wibble", "", false},
		{"/favicon.ico/wibble", "", false},
	}
	for _, c := range cases {
		_, _, ok := tbl.MatchHTTP("127.0.0.1:8080", c.path)
		if ok != c.ok {
			t.Errorf("path %q: match = %v, want %v", c.path, ok, c.ok)
			continue
		}
		if !ok {
			continue
		}
		got := resolvedURL(t, tbl, "127.0.0.1:8080", c.path)
		if got != c.want {
			t.Errorf("path %q: resolved %q, want %q", c.path, got, c.want)
		}
	}
}

func TestDontAddTrailingSlashToExactMatch(t *testing.T) {
	var routes []route.Route
	routes = append(routes, parseOrFatal(t, "8080/hello/bar to 9090/wibble/bar")...)
	routes = append(routes, parseOrFatal(t, "8080/hello/bar.json to 9090/wibble/bar.json")...)
	routes = append(routes, parseOrFatal(t, "=8080/hello/wibble to 9090/hi/wibble")...)
	routes = append(routes, parseOrFatal(t, "=8080/hello/wibble.json to 9090/hi/wibble.json")...)
	tbl := NewTable(routes)

	cases := map[string]string{
		"/hello/bar":         "http://127.0.0.1:9090/wibble/bar",
		"/hello/bar.json":    "http://127.0.0.1:9090/wibble/bar.json",
		"/hello/wibble":      "http://127.0.0.1:9090/hi/wibble",
		"/hello/wibble.json": "http://127.0.0.1:9090/hi/wibble.json",
	}
	for path, want := range cases {
		got := resolvedURL(t, tbl, "127.0.0.1:8080", path)
		if got != want {
			t.Errorf("path %q: resolved %q, want %q", path, got, want)
		}
	}
}

func TestMatchFirstAvailableVarPattern(t *testing.T) {
	var routes []route.Route
	routes = append(routes, parseOrFatal(t, "'8080/(foo)/bar' to '9090/bar/(foo)/1'")...)
	routes = append(routes, parseOrFatal(t, "'8080/(foo)/(bar)' to '9090/(bar)/(foo)/2'")...)
	tbl := NewTable(routes)

	got := resolvedURL(t, tbl, "127.0.0.1:8080", "/hello/bar")
	want := "http://127.0.0.1:9090/bar/hello/1"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMatchExactVarRouteOverPrefix(t *testing.T) {
	var routes []route.Route
	routes = append(routes, parseOrFatal(t, "8080/hello/bar/ to 9090/wibble/0/")...)
	routes = append(routes, parseOrFatal(t, "'=8080/(hello)/(bar)/wibble' to '9090/wibble/1/'")...)
	tbl := NewTable(routes)

	got := resolvedURL(t, tbl, "127.0.0.1:8080", "/hello/bar/wibble")
	want := "http://127.0.0.1:9090/wibble/1/"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMatchExactOverPrefix(t *testing.T) {
	var routes []route.Route
	routes = append(routes, parseOrFatal(t, "8080/foo to 9090/1")...)
	routes = append(routes, parseOrFatal(t, "=8080/foo to 9090/2")...)
	tbl := NewTable(routes)

	got := resolvedURL(t, tbl, "127.0.0.1:8080", "/foo")
	want := "http://127.0.0.1:9090/2"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRegexWithURLs(t *testing.T) {
	var routes []route.Route
	routes = append(routes, parseOrFatal(t, "8080/hello/bar/ to 9090/wibble/0/")...)
	routes = append(routes, parseOrFatal(t, "'8080/(foo)/bar' to '9090/bar/(foo)/nonexact'")...)
	routes = append(routes, parseOrFatal(t, "'=8080/(foo)/bar' to '9090/bar/(foo)/1'")...)
	routes = append(routes, parseOrFatal(t, "'=8080/(foo)/(bar)' to '9090/(bar)/(foo)/2'")...)
	routes = append(routes, parseOrFatal(t, "'=8080/(foo)/(bar)/wibble' to '9090/wibble/(bar)/(foo).json3'")...)
	routes = append(routes, parseOrFatal(t, "'=8080/(foo..)/(bar)/boom' to '9090/boom/(bar)/(foo)/4'")...)
	routes = append(routes, parseOrFatal(t, "'=8080/(foo..)/BOOM/(bar..)' to '9090/(foo)/exploding/(bar)'")...)
	tbl := NewTable(routes)

	cases := map[string]string{
		"/hello/bar":                  "http://127.0.0.1:9090/bar/hello/1",
		"/hello/baz":                  "http://127.0.0.1:9090/baz/hello/2",
		"/hello/bar/wibble":           "http://127.0.0.1:9090/wibble/bar/hello.json3",
		"/hello/bar/lark":             "http://127.0.0.1:9090/wibble/0/lark",
		"/foo/bar/lark/wibble/boom":   "http://127.0.0.1:9090/boom/wibble/foo/bar/lark/4",
		"/1/2/3/BOOM/4/5":             "http://127.0.0.1:9090/1/2/3/exploding/4/5",
		"/1/BOOM/2/3/4/5":             "http://127.0.0.1:9090/1/exploding/2/3/4/5",
		"/foo/bar/lark/wibble":        "http://127.0.0.1:9090/bar/foo/nonexact/lark/wibble",
	}
	for path, want := range cases {
		got := resolvedURL(t, tbl, "127.0.0.1:8080", path)
		if got != want {
			t.Errorf("path %q: resolved %q, want %q", path, got, want)
		}
	}
}

func TestMatchTCP(t *testing.T) {
	routes := parseOrFatal(t, "tcp://localhost:2222 to 1.2.3.4:22")
	tbl := NewTable(routes)
	r, ok := tbl.MatchTCP("localhost:2222")
	if !ok {
		t.Fatal("expected a tcp match")
	}
	up := r.Dst.(route.TCPUpstream)
	if up.Host != "1.2.3.4" || up.Port != "22" {
		t.Errorf("got %+v", up)
	}
	if _, ok := tbl.MatchTCP("localhost:9999"); ok {
		t.Error("expected no match for an unbound listener")
	}
}

func TestListeners(t *testing.T) {
	var routes []route.Route
	routes = append(routes, parseOrFatal(t, "8080 to 9090")...)
	routes = append(routes, parseOrFatal(t, "tcp://localhost:2222 to 1.2.3.4:22")...)
	tbl := NewTable(routes)

	ls := tbl.Listeners()
	if ls["127.0.0.1:8080"] != route.HTTP {
		t.Errorf("expected http listener on 127.0.0.1:8080")
	}
	if ls["localhost:2222"] != route.TCP {
		t.Errorf("expected tcp listener on localhost:2222")
	}
}
