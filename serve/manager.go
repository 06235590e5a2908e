// Package serve starts one acceptor per listener a routing.Table
// declares, plus an internal support listener, and coordinates their
// graceful shutdown on SIGINT/SIGTERM. It follows the shape of
// routesrv.go's newShutdownFunc/Run pair, generalized from a single
// HTTP server to a fan-out of HTTP and TCP acceptors fanned in with
// golang.org/x/sync/errgroup.
package serve

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/jsdw/weave/metrics"
	"github.com/jsdw/weave/proxy"
	"github.com/jsdw/weave/route"
	"github.com/jsdw/weave/routing"
	"github.com/jsdw/weave/tcpproxy"
	"github.com/jsdw/weave/weavelog"
)

const defaultSupportListener = ":9911"

// Options configures the acceptors a Manager starts.
type Options struct {
	// SupportListener is the address /metrics and /health are served
	// on. Empty disables the support listener entirely.
	SupportListener string
	ShutdownGrace   time.Duration
	MaxAcceptRate   float64
	Transport       *http.Transport
	Metrics         *metrics.Metrics
}

// Manager owns every listener a weave process binds: the table's own
// listeners plus the support listener.
type Manager struct {
	table *routing.Table
	opts  Options
	log   *logrus.Logger
}

// New builds a Manager for table. A zero ShutdownGrace gets weave's
// default of 15s; an empty SupportListener leaves the support listener
// off.
func New(table *routing.Table, opts Options) *Manager {
	if opts.ShutdownGrace <= 0 {
		opts.ShutdownGrace = 15 * time.Second
	}
	return &Manager{table: table, opts: opts, log: weavelog.App}
}

// Run starts every acceptor and blocks until either one of them hits a
// fatal bind error, or ctx is canceled or a SIGINT/SIGTERM arrives, in
// which case it drives a bounded graceful shutdown of all of them and
// returns nil. A bind error aborts the whole group and is returned
// as-is, for the caller to map to an exit code.
func (m *Manager) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		select {
		case sig := <-sigs:
			m.log.Infof("received %s, shutting down within %s", sig, m.opts.ShutdownGrace)
			cancel()
		case <-ctx.Done():
		}
	}()

	g, gctx := errgroup.WithContext(ctx)

	for listener, proto := range m.table.Listeners() {
		listener, proto := listener, proto
		switch proto {
		case route.HTTP:
			g.Go(func() error { return m.serveHTTP(gctx, listener) })
		case route.TCP:
			g.Go(func() error { return m.serveTCP(gctx, listener) })
		}
	}

	if m.opts.SupportListener != "" {
		g.Go(func() error { return m.serveSupport(gctx) })
	}

	return g.Wait()
}

func (m *Manager) serveHTTP(ctx context.Context, listener string) error {
	ln, err := net.Listen("tcp", listener)
	if err != nil {
		return fmt.Errorf("listener %s: %w", listener, err)
	}
	ln = newRateLimitedListener(ln, m.opts.MaxAcceptRate)

	handler := proxy.NewHandler(listener, m.table, m.opts.Transport, m.opts.Metrics)
	srv := &http.Server{Handler: handler}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("listener %s: %w", listener, err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), m.opts.ShutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			m.log.Errorf("listener %s: graceful shutdown: %v", listener, err)
		}
		<-errc
		return nil
	}
}

func (m *Manager) serveTCP(ctx context.Context, listener string) error {
	r, ok := m.table.MatchTCP(listener)
	if !ok {
		return fmt.Errorf("listener %s: no tcp route bound", listener)
	}
	upstream, ok := r.Dst.(route.TCPUpstream)
	if !ok {
		return fmt.Errorf("listener %s: tcp route has a non-tcp destination %T", listener, r.Dst)
	}

	ln, err := net.Listen("tcp", listener)
	if err != nil {
		return fmt.Errorf("listener %s: %w", listener, err)
	}
	ln = newRateLimitedListener(ln, m.opts.MaxAcceptRate)

	dispatcher := tcpproxy.NewDispatcher(listener, upstream, m.opts.Metrics)

	var wg sync.WaitGroup
	acceptErr := make(chan error, 1)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				acceptErr <- err
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				dispatcher.Handle(conn)
			}()
		}
	}()

	select {
	case err := <-acceptErr:
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("listener %s: %w", listener, err)
	case <-ctx.Done():
		ln.Close()
		drained := make(chan struct{})
		go func() {
			wg.Wait()
			close(drained)
		}()
		select {
		case <-drained:
		case <-time.After(m.opts.ShutdownGrace):
			m.log.Warnf("listener %s: shutdown grace period expired with connections still spliced", listener)
		}
		<-acceptErr
		return nil
	}
}

func (m *Manager) serveSupport(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	})
	if m.opts.Metrics != nil {
		mux.Handle("/metrics", m.opts.Metrics.Handler())
	}

	ln, err := net.Listen("tcp", m.opts.SupportListener)
	if err != nil {
		return fmt.Errorf("support listener %s: %w", m.opts.SupportListener, err)
	}
	srv := &http.Server{Handler: mux}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("support listener %s: %w", m.opts.SupportListener, err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), m.opts.ShutdownGrace)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		<-errc
		return nil
	}
}
