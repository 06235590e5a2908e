// Package tcpproxy dials a tcp destination for an accepted connection
// and splices the two sockets together, bidirectionally, until either
// side closes. Grounded on the Client<->Upstream io.Copy pairing in
// taemon1337-itp's proxy.handleConnection.
package tcpproxy

import (
	"io"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jsdw/weave/metrics"
	"github.com/jsdw/weave/route"
	"github.com/jsdw/weave/weavelog"
)

// Dispatcher dials and splices a single tcp destination for every
// connection accepted on one listener.
type Dispatcher struct {
	Listener    string
	Upstream    route.TCPUpstream
	DialTimeout time.Duration
	Metrics     *metrics.Metrics
	Log         *logrus.Logger
}

// NewDispatcher builds a Dispatcher for one tcp listener's single
// destination.
func NewDispatcher(listener string, upstream route.TCPUpstream, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		Listener:    listener,
		Upstream:    upstream,
		DialTimeout: 10 * time.Second,
		Metrics:     m,
		Log:         weavelog.App,
	}
}

// Handle dials the upstream and splices conn to it. It returns as soon
// as either direction stops copying, closing both sockets, which also
// ends the other direction.
func (d *Dispatcher) Handle(conn net.Conn) {
	defer conn.Close()

	addr := net.JoinHostPort(d.Upstream.Host, d.Upstream.Port)
	upstreamConn, err := net.DialTimeout("tcp", addr, d.DialTimeout)
	if err != nil {
		d.Log.Errorf("listener %s: could not dial tcp upstream %s: %v", d.Listener, addr, err)
		if d.Metrics != nil {
			d.Metrics.IncTCPConnection(d.Listener, "dial-error")
		}
		return
	}
	defer upstreamConn.Close()

	errc := make(chan error, 2)
	go func() {
		_, err := io.Copy(upstreamConn, conn)
		errc <- err
	}()
	go func() {
		_, err := io.Copy(conn, upstreamConn)
		errc <- err
	}()

	err = <-errc
	outcome := "ok"
	if err != nil && err != io.EOF {
		d.Log.Debugf("listener %s: tcp splice to %s ended: %v", d.Listener, addr, err)
		outcome = "io-error"
	}
	if d.Metrics != nil {
		d.Metrics.IncTCPConnection(d.Listener, outcome)
	}
}
