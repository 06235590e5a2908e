package routing

import (
	"sort"
	"strings"

	"github.com/dimfeld/httppath"

	"github.com/jsdw/weave/route"
)

// priorityClass buckets a route for the ordering rules in SPEC_FULL.md
// §4.2: exact matches before prefix matches, and within each, patterns
// with no variables before patterns with variables.
type priorityClass int

const (
	classExactNoVars priorityClass = iota
	classExactWithVars
	classPrefixNoVars
	classPrefixWithVars
)

func classify(src route.SrcPattern) (priorityClass, int) {
	litCount := 0
	hasVars := false
	for _, seg := range src.Segments {
		if _, ok := seg.(route.Literal); ok {
			litCount++
		} else {
			hasVars = true
		}
	}

	switch {
	case src.Kind == route.Exact && !hasVars:
		return classExactNoVars, litCount
	case src.Kind == route.Exact && hasVars:
		return classExactWithVars, litCount
	case src.Kind == route.Prefix && !hasVars:
		return classPrefixNoVars, litCount
	default:
		return classPrefixWithVars, litCount
	}
}

// sortByPriority orders routes the way leafMatchers are ordered in a
// skipper path tree: most specific first, ties broken by declaration
// order. Classes with no variables additionally prefer more literal
// segments first, since a longer literal prefix is a stricter match.
func sortByPriority(routes []route.Route) {
	type scored struct {
		r     route.Route
		class priorityClass
		lits  int
	}

	scoredRoutes := make([]scored, len(routes))
	for i, r := range routes {
		class, lits := classify(r.Src)
		scoredRoutes[i] = scored{r: r, class: class, lits: lits}
	}

	sort.SliceStable(scoredRoutes, func(i, j int) bool {
		a, b := scoredRoutes[i], scoredRoutes[j]
		if a.class != b.class {
			return a.class < b.class
		}
		if a.class == classExactNoVars || a.class == classPrefixNoVars {
			if a.lits != b.lits {
				return a.lits > b.lits
			}
		}
		return a.r.Index < b.r.Index
	})

	for i, s := range scoredRoutes {
		routes[i] = s.r
	}
}

// matchAt recursively unifies route segments against request path
// segments starting at (i, j), writing captures as it goes. VarRest
// is resolved leftmost-minimal-greedy: it first tries to capture zero
// path segments, then one, then two, backtracking into the rest of
// the pattern until the whole thing unifies or every width has been
// tried. This is an open question in the route language that the
// original implementation leaves unspecified; minimal-greedy is the
// only choice that lets a VarRest followed by more pattern actually
// match anything after it.
// exact requires the whole path to be consumed by the time segs runs
// out; a VarRest must keep widening its capture, backtracking through
// the rest of the pattern, until that holds. Without threading this
// through, a VarRest at the end of an exact pattern would stop at its
// narrowest (empty) capture the moment the remaining segments matched,
// rather than growing to swallow everything exact matching requires.
func matchAt(segs []route.Segment, i int, path []string, j int, captures map[string]string, exact bool) (int, bool) {
	if i == len(segs) {
		if exact && j != len(path) {
			return 0, false
		}
		return j, true
	}

	switch v := segs[i].(type) {
	case route.Literal:
		if j >= len(path) || path[j] != string(v) {
			return 0, false
		}
		return matchAt(segs, i+1, path, j+1, captures, exact)

	case route.Var:
		if j >= len(path) {
			return 0, false
		}
		captures[v.Name] = path[j]
		if end, ok := matchAt(segs, i+1, path, j+1, captures, exact); ok {
			return end, true
		}
		delete(captures, v.Name)
		return 0, false

	case route.VarRest:
		// A trailing VarRest has nothing after it to satisfy, so it
		// always captures everything left, for both exact and prefix
		// patterns: "(name..)" at the end of a pattern means "the
		// rest of the path", not "the smallest thing that lets
		// matching succeed" (which would be empty and leave the
		// genuine rest stranded in the prefix tail instead).
		if i+1 == len(segs) {
			captures[v.Name] = strings.Join(path[j:], "/")
			return len(path), true
		}

		for take := 0; j+take <= len(path); take++ {
			captures[v.Name] = strings.Join(path[j:j+take], "/")
			if end, ok := matchAt(segs, i+1, path, j+take, captures, exact); ok {
				return end, true
			}
		}
		delete(captures, v.Name)
		return 0, false

	default:
		return 0, false
	}
}

// matchSrc tries to unify a source pattern against a request's path
// segments, returning the captured variables (plus, for a prefix
// match, the unmatched residual under route.TailKey).
func matchSrc(src route.SrcPattern, path []string) (map[string]string, bool) {
	captures := map[string]string{}
	exact := src.Kind == route.Exact
	end, ok := matchAt(src.Segments, 0, path, 0, captures, exact)
	if !ok {
		return nil, false
	}

	if exact {
		return captures, true
	}

	captures[route.TailKey] = strings.Join(path[end:], "/")
	return captures, true
}

// splitPath cleans the request path (resolving "." and ".." the way
// httppath.Clean does for skipper's own routing.Match: lexically, and
// clamped at the root, so a traversal attempt can never reach a
// literal or captured path segment) and then strips the leading slash
// before splitting. A trailing slash must survive as an empty final
// segment, since an exact match of "/foo/bar" has to reject a request
// for "/foo/bar/" (one segment is literally empty) rather than
// silently treating the two as equivalent — httppath.Clean, unlike
// path.Clean, preserves a trailing slash for exactly this reason.
func splitPath(p string) []string {
	p = httppath.Clean(p)
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
