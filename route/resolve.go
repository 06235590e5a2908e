package route

import "strings"

// TailKey is the reserved capture name routing.Table.Match uses to
// hand back the unmatched residual segments of a prefix match, so the
// resolver can append them to the rendered destination.
const TailKey = "__tail__"

func substituteTemplate(segs []Segment, captures map[string]string) (string, error) {
	var b strings.Builder
	for _, seg := range segs {
		switch v := seg.(type) {
		case Literal:
			b.WriteString(string(v))
		case Var:
			val, ok := captures[v.Name]
			if !ok {
				return "", &ResolveError{Name: v.Name}
			}
			b.WriteString(val)
		case VarRest:
			val, ok := captures[v.Name]
			if !ok {
				return "", &ResolveError{Name: v.Name}
			}
			b.WriteString(val)
		}
	}
	return b.String(), nil
}

func appendTail(base, tail string) string {
	if tail == "" {
		return base
	}
	if strings.HasSuffix(base, "/") {
		return base + tail
	}
	return base + "/" + tail
}

// ResolveHTTPPath renders an HTTPUpstream's path template with the
// given captures, appending the prefix-match tail (if any).
func ResolveHTTPPath(u HTTPUpstream, captures map[string]string) (string, error) {
	base, err := substituteTemplate(u.Path, captures)
	if err != nil {
		return "", err
	}
	return appendTail(base, captures[TailKey]), nil
}

// ResolveFilePath renders a File's root template with the given
// captures, appending the prefix-match tail (if any).
func ResolveFilePath(f File, captures map[string]string) (string, error) {
	base, err := substituteTemplate(f.RootTemplate, captures)
	if err != nil {
		return "", err
	}
	return appendTail(base, captures[TailKey]), nil
}

// HasTraversal reports whether any captured or tail value that will
// be substituted into a file path contains a ".." path component —
// the one thing spec.md requires the resolver reject regardless of
// what the route's own literal template contains, since only captured
// values come from the untrusted request path.
func HasTraversal(captures map[string]string) bool {
	for _, v := range captures {
		for _, part := range strings.Split(v, "/") {
			if part == ".." {
				return true
			}
		}
	}
	return false
}
