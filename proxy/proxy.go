// Package proxy dispatches a matched HTTP route to its destination:
// an upstream reverse proxy, a local file, or a fixed status
// response. It follows the shape of skipper's proxy package (a
// request/response cycle built around a single shared *http.Transport)
// scaled down to weave's much smaller destination vocabulary.
package proxy

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jsdw/weave/metrics"
	"github.com/jsdw/weave/route"
	"github.com/jsdw/weave/routing"
	"github.com/jsdw/weave/weavelog"
)

// Handler serves every request accepted on one HTTP listener,
// matching it against that listener's slice of the route table and
// dispatching to the resolved destination.
type Handler struct {
	Listener  string
	Table     *routing.Table
	Transport *http.Transport
	Metrics   *metrics.Metrics
	Log       *logrus.Logger
}

// NewHandler builds a Handler for one listener.
func NewHandler(listener string, table *routing.Table, transport *http.Transport, m *metrics.Metrics) *Handler {
	return &Handler{
		Listener:  listener,
		Table:     table,
		Transport: transport,
		Metrics:   m,
		Log:       weavelog.App,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	lw := &loggingWriter{writer: w}

	requestID := r.Header.Get("X-Weave-Request-Id")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set("X-Weave-Request-Id", requestID)

	defer func() {
		weavelog.LogAccess(&weavelog.AccessEntry{
			Request:      r,
			StatusCode:   lw.statusCode(),
			ResponseSize: lw.bytes,
			RequestTime:  start,
			Duration:     time.Since(start),
			Listener:     h.Listener,
			RequestID:    requestID,
		})
		if h.Metrics != nil {
			h.Metrics.IncResponseStatus(h.Listener, lw.statusCode())
		}
	}()

	lookupStart := time.Now()
	matched, captures, ok := h.Table.MatchHTTP(h.Listener, r.URL.Path)
	if h.Metrics != nil {
		h.Metrics.ObserveRouteLookup(h.Listener, time.Since(lookupStart))
	}
	if !ok {
		if h.Metrics != nil {
			h.Metrics.IncRouteNoMatch(h.Listener)
		}
		http.Error(lw, "not found", http.StatusNotFound)
		return
	}

	switch dst := matched.Dst.(type) {
	case route.HTTPUpstream:
		h.serveUpstream(lw, r, dst, captures, requestID)
	case route.File:
		serveFile(lw, r, dst, captures)
	case route.StatusCode:
		lw.WriteHeader(dst.Code)
	case route.Nothing:
		lw.WriteHeader(http.StatusNotFound)
	default:
		h.Log.Errorf("listener %s matched a route with an unservable destination %T", h.Listener, dst)
		http.Error(lw, "internal error", http.StatusInternalServerError)
	}
}

func (h *Handler) serveUpstream(w *loggingWriter, r *http.Request, dst route.HTTPUpstream, captures map[string]string, requestID string) {
	path, err := route.ResolveHTTPPath(dst, captures)
	if err != nil {
		h.Log.Errorf("listener %s: %v", h.Listener, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	targetURL := fmt.Sprintf("%s://%s:%s%s", dst.Scheme, dst.Host, dst.Port, path)
	if dst.PreserveQuery && r.URL.RawQuery != "" {
		targetURL += "?" + r.URL.RawQuery
	}

	outReq, err := mapRequest(r, targetURL, requestID)
	if err != nil {
		h.Log.Errorf("listener %s: could not build backend request: %v", h.Listener, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	backendStart := time.Now()
	resp, err := h.Transport.RoundTrip(outReq)
	if h.Metrics != nil {
		h.Metrics.ObserveBackendLatency(h.Listener, dst.Host, time.Since(backendStart))
	}
	if err != nil {
		h.Log.Errorf("listener %s: backend %s:%s unreachable: %v", h.Listener, dst.Host, dst.Port, err)
		http.Error(w, "bad gateway", statusForBackendError(err))
		return
	}
	defer resp.Body.Close()

	copyHeaderExcluding(w.Header(), resp.Header, hopHeaders)
	w.WriteHeader(resp.StatusCode)

	if err := copyStream(w, resp.Body); err != nil {
		h.Log.Errorf("listener %s: streaming response from %s:%s: %v", h.Listener, dst.Host, dst.Port, err)
		// Headers are already out, so the client connection is dropped.
		panic(http.ErrAbortHandler)
	}
}

func copyHeaderExcluding(dst, src http.Header, exclude map[string]bool) {
	for k, vv := range src {
		if exclude[k] {
			continue
		}
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}

// statusForBackendError maps a transport-level failure to the status
// code a reverse proxy should answer the client with: 502 for a dial
// failure, 504 when the round trip itself timed out.
func statusForBackendError(err error) int {
	var dialErr *dialTaggingError
	if errors.As(err, &dialErr) {
		return http.StatusBadGateway
	}
	if ne, ok := err.(interface{ Timeout() bool }); ok && ne.Timeout() {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}
