package route

import (
	"strings"
)

const (
	kwAnd     = "and"
	kwTo      = "to"
	kwNothing = "nothing"
)

// Parse turns a sequence of pre-split argv tokens into a route table,
// in declaration order, aborting on the first malformed clause (the
// returned error is a *ParseError naming the offending clause).
//
// Grammar (see SPEC_FULL.md §4.1):
//
//	phrase := clause ("and" clause)*
//	clause := "nothing" | src "to" dst
func Parse(tokens []string) ([]Route, error) {
	var routes []Route
	clauseIdx := 0
	i := 0

	for i < len(tokens) {
		tok := tokens[i]

		if tok == kwNothing {
			i++
			if i < len(tokens) {
				if tokens[i] != kwAnd {
					return nil, parseErr(clauseIdx, "expected %q after %q, found %q", kwAnd, kwNothing, tokens[i])
				}
				i++
				if i >= len(tokens) {
					return nil, parseErr(clauseIdx, "%q not followed by a subsequent clause", kwAnd)
				}
			}
			clauseIdx++
			continue
		}

		if i+2 >= len(tokens) {
			return nil, parseErr(clauseIdx, "expected 'SRC to DST', got %q", strings.Join(tokens[i:], " "))
		}

		srcTok, toTok, dstTok := tokens[i], tokens[i+1], tokens[i+2]
		if toTok != kwTo {
			return nil, parseErr(clauseIdx, "expected %q after source %q, found %q", kwTo, srcTok, toTok)
		}

		src, err := parseSrc(srcTok)
		if err != nil {
			return nil, parseErr(clauseIdx, "%q is not a valid source: %v", srcTok, err)
		}

		dst, err := parseDst(dstTok, src)
		if err != nil {
			return nil, parseErr(clauseIdx, "%q is not a valid destination: %v", dstTok, err)
		}

		routes = append(routes, Route{Src: src, Dst: dst, Index: clauseIdx})

		i += 3
		clauseIdx++

		if i < len(tokens) {
			if tokens[i] != kwAnd {
				return nil, parseErr(clauseIdx, "expected %q between clauses, found %q", kwAnd, tokens[i])
			}
			i++
			if i >= len(tokens) {
				return nil, parseErr(clauseIdx, "%q not followed by a subsequent clause", kwAnd)
			}
		}
	}

	if err := validateListeners(routes); err != nil {
		return nil, err
	}

	return routes, nil
}

// ParsePhrase is a convenience wrapper around Tokenize + Parse for
// callers that have a single phrase string rather than pre-split argv.
func ParsePhrase(phrase string) ([]Route, error) {
	return Parse(Tokenize(phrase))
}

func parseSrc(tok string) (SrcPattern, error) {
	s := tok
	kind := Prefix
	if strings.HasPrefix(s, "=") {
		kind = Exact
		s = s[1:]
	}

	protocol := HTTP
	switch {
	case strings.HasPrefix(s, "tcp://"):
		protocol = TCP
		s = s[len("tcp://"):]
	default:
		if scheme, rest, has := splitScheme(s); has {
			if scheme != "http" {
				return SrcPattern{}, parseErr(-1, "unknown scheme %q", scheme)
			}
			s = rest
		}
	}

	authority, pathRest := splitAuthority(s)
	host, port, err := parseHostPort(authority, true)
	if err != nil {
		return SrcPattern{}, err
	}

	segs := parseSegments(pathRest)
	if protocol == TCP && len(segs) > 0 {
		return SrcPattern{}, parseErr(-1, "a tcp source cannot have a path component")
	}

	if err := checkDuplicateVars(segs); err != nil {
		return SrcPattern{}, err
	}

	return SrcPattern{
		Listener: host + ":" + port,
		Protocol: protocol,
		Kind:     kind,
		Segments: segs,
	}, nil
}

func checkDuplicateVars(segs []Segment) error {
	seen := map[string]bool{}
	for _, s := range segs {
		name, ok := VarName(s)
		if !ok {
			continue
		}
		if seen[name] {
			return parseErr(-1, "duplicate variable name %q", name)
		}
		seen[name] = true
	}
	return nil
}

func srcVarNames(src SrcPattern) map[string]bool {
	names := map[string]bool{}
	for _, s := range src.Segments {
		if name, ok := VarName(s); ok {
			names[name] = true
		}
	}
	return names
}

func checkVarsDefined(segs []Segment, defined map[string]bool) error {
	for _, s := range segs {
		switch v := s.(type) {
		case VarRest:
			if !defined[v.Name] {
				return parseErr(-1, "rest variable %q used in destination but not defined in source", v.Name)
			}
		case Var:
			if !defined[v.Name] {
				return parseErr(-1, "variable %q used in destination but not defined in source", v.Name)
			}
		}
	}
	return nil
}

func parseDst(tok string, src SrcPattern) (Dst, error) {
	s := strings.TrimSpace(tok)

	if s == kwNothing {
		return Nothing{}, nil
	}

	if strings.HasPrefix(s, "statuscode://") {
		codeStr := s[len("statuscode://"):]
		code, err := parsePort(codeStr)
		if err != nil {
			return nil, parseErr(-1, "malformed status code %q", codeStr)
		}
		if code < 100 || code > 599 {
			return nil, parseErr(-1, "status code %d out of range 100-599", code)
		}
		return StatusCode{Code: code}, nil
	}

	if (strings.Contains(s, "/") || strings.Contains(s, ".")) && !isURLShaped(s) {
		if src.Protocol == TCP {
			return nil, parseErr(-1, "a tcp source cannot have a file destination")
		}
		tmpl := parseTemplate(s)
		if err := checkVarsDefined(tmpl, srcVarNames(src)); err != nil {
			return nil, err
		}
		return File{RootTemplate: tmpl}, nil
	}

	scheme, rest, hasScheme := splitScheme(s)
	if hasScheme && scheme == "tcp" {
		if src.Protocol != TCP {
			return nil, parseErr(-1, "a tcp destination requires a tcp source")
		}
		host, port, err := parseHostPort(rest, true)
		if err != nil {
			return nil, err
		}
		return TCPUpstream{Host: host, Port: port}, nil
	}

	if src.Protocol == TCP {
		// A schemeless HOST:PORT destination on a tcp source is an
		// implicit tcp upstream; a bare port or a path is not.
		if !hasScheme && strings.Contains(rest, ":") && !strings.Contains(rest, "/") {
			host, port, err := parseHostPort(rest, true)
			if err != nil {
				return nil, err
			}
			return TCPUpstream{Host: host, Port: port}, nil
		}
		return nil, parseErr(-1, "a non-tcp destination requires a non-tcp source")
	}

	if hasScheme && scheme != "http" && scheme != "https" {
		return nil, parseErr(-1, "unknown scheme %q", scheme)
	}
	if !hasScheme {
		scheme = "http"
	}

	authority, pathRest := splitAuthority(rest)
	host, port, err := parseHostPort(authority, false)
	if err != nil {
		return nil, err
	}
	if port == "" {
		port = "80"
	}

	tmpl := parseTemplate(pathRest)
	if err := checkVarsDefined(tmpl, srcVarNames(src)); err != nil {
		return nil, err
	}

	return HTTPUpstream{
		Scheme:        scheme,
		Host:          host,
		Port:          port,
		Path:          tmpl,
		PreserveQuery: true,
	}, nil
}

// validateListeners enforces route-table invariant 1 and 2 from
// SPEC_FULL.md §3: a listener carries one protocol only, and a tcp
// listener carries at most one, path-free route. A "localhost" host is
// treated as the same address as the default loopback host.
func validateListeners(routes []Route) error {
	protoByListener := map[string]Protocol{}
	tcpCount := map[string]int{}

	for _, r := range routes {
		l := r.Src.Listener
		if strings.HasPrefix(l, "localhost:") {
			l = defaultHost + l[len("localhost"):]
		}
		if existing, ok := protoByListener[l]; ok && existing != r.Src.Protocol {
			return parseErr(r.Index, "listener %s already declared as %s, cannot also be %s", l, existing, r.Src.Protocol)
		}
		protoByListener[l] = r.Src.Protocol

		if r.Src.Protocol == TCP {
			tcpCount[l]++
			if tcpCount[l] > 1 {
				return parseErr(r.Index, "listener %s (tcp) cannot carry more than one route", l)
			}
		}
	}

	return nil
}
