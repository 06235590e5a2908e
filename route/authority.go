package route

import (
	"regexp"
	"strconv"
	"strings"
)

const defaultHost = "127.0.0.1"

var varRe = regexp.MustCompile(`^\(([A-Za-z][A-Za-z0-9_-]*)\)$`)
var varRestRe = regexp.MustCompile(`^\(([A-Za-z][A-Za-z0-9_-]*)\.\.\)$`)

// templateRe finds embedded "(name)"/"(name..)" placeholders anywhere
// within a destination string, so a single path segment like
// "(filename).json" can mix literal text and a substitution, the way
// the original implementation's path-piece scanner did.
var templateRe = regexp.MustCompile(`\(([A-Za-z][A-Za-z0-9_-]*)(\.\.)?\)`)

// isDigits reports whether s is a non-empty run of ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// splitAuthority separates the leading "authority" portion of a URL-
// like string (before the first '/') from the remaining path.
func splitAuthority(s string) (authority, rest string) {
	if idx := strings.IndexByte(s, '/'); idx >= 0 {
		return s[:idx], s[idx:]
	}
	return s, ""
}

// splitScheme pulls off a "scheme://" prefix, if present.
func splitScheme(s string) (scheme, rest string, hasScheme bool) {
	if idx := strings.Index(s, "://"); idx >= 0 {
		return s[:idx], s[idx+3:], true
	}
	return "", s, false
}

// parseHostPort parses a "host:port", bare ":port", bare "port", or
// bare "host" authority string. requirePort demands a numeric port
// somewhere in the authority (used for sources and tcp destinations).
func parseHostPort(authority string, requirePort bool) (host, port string, err error) {
	authority = strings.TrimPrefix(authority, ":")

	if isDigits(authority) {
		return defaultHost, authority, nil
	}

	if idx := strings.LastIndexByte(authority, ':'); idx >= 0 {
		h, p := authority[:idx], authority[idx+1:]
		if !isDigits(p) {
			return "", "", parseErr(-1, "malformed authority %q: port must be numeric", authority)
		}
		if h == "" {
			h = defaultHost
		}
		return h, p, nil
	}

	if authority == "" {
		if requirePort {
			return "", "", parseErr(-1, "malformed authority: a port is required")
		}
		return defaultHost, "", nil
	}

	if requirePort {
		return "", "", parseErr(-1, "malformed authority %q: a port is required", authority)
	}

	return authority, "", nil
}

// isURLShaped reports whether s looks like an authority-bearing
// destination (scheme://, bare port, or host:port) rather than a
// filesystem path, resolving the ambiguity the spec calls out:
// leading pure-digits or host:port before the first '/' is authority.
func isURLShaped(s string) bool {
	if strings.Contains(s, "://") {
		return true
	}
	head, _ := splitAuthority(s)
	if isDigits(head) {
		return true
	}
	if idx := strings.LastIndexByte(head, ':'); idx >= 0 {
		return isDigits(head[idx+1:])
	}
	return false
}

// parseSegments splits a path into Literal/Var/VarRest segments,
// eliding empty segments from leading/trailing/duplicate slashes.
func parseSegments(path string) []Segment {
	var segs []Segment
	for _, p := range strings.Split(path, "/") {
		if p == "" {
			continue
		}
		switch {
		case varRestRe.MatchString(p):
			segs = append(segs, VarRest{Name: varRestRe.FindStringSubmatch(p)[1]})
		case varRe.MatchString(p):
			segs = append(segs, Var{Name: varRe.FindStringSubmatch(p)[1]})
		default:
			segs = append(segs, Literal(p))
		}
	}
	return segs
}

func parsePort(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// parseTemplate scans a destination string for embedded variable
// placeholders, producing a flat ordered sequence of Literal text and
// Var/VarRest references. Unlike parseSegments (used for source
// patterns, where each "/"-delimited chunk must be wholly a literal
// or wholly a variable), a destination template may interleave literal
// text and a placeholder within what will end up as one path segment.
func parseTemplate(s string) []Segment {
	idx := templateRe.FindAllSubmatchIndex([]byte(s), -1)
	if idx == nil {
		return []Segment{Literal(s)}
	}

	var segs []Segment
	last := 0
	for _, m := range idx {
		start, end := m[0], m[1]
		if start > last {
			segs = append(segs, Literal(s[last:start]))
		}
		name := s[m[2]:m[3]]
		if m[4] != -1 {
			segs = append(segs, VarRest{Name: name})
		} else {
			segs = append(segs, Var{Name: name})
		}
		last = end
	}
	if last < len(s) {
		segs = append(segs, Literal(s[last:]))
	}
	return segs
}

// renderTemplate is the inverse of parseTemplate.
func renderTemplate(segs []Segment) string {
	var b strings.Builder
	for _, s := range segs {
		switch v := s.(type) {
		case Literal:
			b.WriteString(string(v))
		case Var:
			b.WriteByte('(')
			b.WriteString(v.Name)
			b.WriteByte(')')
		case VarRest:
			b.WriteByte('(')
			b.WriteString(v.Name)
			b.WriteString("..)")
		}
	}
	return b.String()
}
