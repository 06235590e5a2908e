package proxy

import (
	"io"
	"net/http"
)

const streamBufferSize = 32 * 1024

// flusher is satisfied by any http.ResponseWriter that can push
// partial writes to the client immediately, which is what lets a
// streaming backend response (chunked, SSE, long-poll) show up on the
// wire without waiting for the whole body.
type flusher interface {
	io.Writer
	http.Flusher
}

// copyStream copies from a backend response body to the client,
// flushing after every successful read so bytes make it out as soon
// as they arrive rather than buffering in w. Grounded on skipper's
// proxy.go copyStream.
func copyStream(w flusher, from io.Reader) error {
	buf := make([]byte, streamBufferSize)
	for {
		n, rerr := from.Read(buf)
		if rerr != nil && rerr != io.EOF {
			return rerr
		}

		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
			w.Flush()
		}

		if rerr == io.EOF {
			return nil
		}
	}
}
