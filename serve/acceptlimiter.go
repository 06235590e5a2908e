package serve

import (
	"context"
	"net"

	"golang.org/x/time/rate"
)

// rateLimitedListener throttles how fast Accept hands off new
// connections, without ever rejecting one outright: a caller under
// --max-accept-rate waits for the limiter instead of getting ECONNREFUSED.
type rateLimitedListener struct {
	net.Listener
	limiter *rate.Limiter
}

// newRateLimitedListener wraps ln with a token-bucket accept throttle.
// acceptsPerSecond <= 0 disables the wrapper entirely.
func newRateLimitedListener(ln net.Listener, acceptsPerSecond float64) net.Listener {
	if acceptsPerSecond <= 0 {
		return ln
	}
	return &rateLimitedListener{ln, rate.NewLimiter(rate.Limit(acceptsPerSecond), 1)}
}

func (l *rateLimitedListener) Accept() (net.Conn, error) {
	if err := l.limiter.Wait(context.Background()); err != nil {
		return nil, err
	}
	return l.Listener.Accept()
}
