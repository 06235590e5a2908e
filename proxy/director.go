package proxy

import (
	"net"
	"net/http"
)

// hopHeaders are stripped from the outgoing request and the returned
// response, since they describe the client/weave or weave/backend hop
// itself and must not be forwarded across it. Taken from skipper's
// proxy.go hopHeaders set, Upgrade included: weave does not support
// protocol upgrades (see SPEC_FULL.md §4.6), so an Upgrade request is
// proxied as an ordinary HTTP request rather than having its header
// preserved.
var hopHeaders = map[string]bool{
	"Te":                  true,
	"Connection":          true,
	"Proxy-Connection":    true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Trailer":             true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
}

func cloneHeaderExcluding(h http.Header, exclude map[string]bool) http.Header {
	out := make(http.Header, len(h))
	for k, vv := range h {
		if exclude[k] {
			continue
		}
		out[k] = append([]string(nil), vv...)
	}
	return out
}

// mapRequest builds the outgoing request to a backend: same method
// and body, rewritten URL, hop headers stripped, and an
// X-Forwarded-For appended the way a reverse proxy is expected to.
func mapRequest(r *http.Request, targetURL string, requestID string) (*http.Request, error) {
	body := r.Body
	if r.ContentLength == 0 {
		body = nil
	}

	rr, err := http.NewRequestWithContext(r.Context(), r.Method, targetURL, body)
	if err != nil {
		return nil, err
	}
	rr.ContentLength = r.ContentLength
	rr.Header = cloneHeaderExcluding(r.Header, hopHeaders)
	rr.Host = r.Host

	if clientIP, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		appendForwardedFor(rr.Header, clientIP)
	}
	if requestID != "" {
		rr.Header.Set("X-Weave-Request-Id", requestID)
	}

	return rr, nil
}

func appendForwardedFor(h http.Header, clientIP string) {
	if prior := h.Get("X-Forwarded-For"); prior != "" {
		h.Set("X-Forwarded-For", prior+", "+clientIP)
	} else {
		h.Set("X-Forwarded-For", clientIP)
	}
}
