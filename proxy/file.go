package proxy

import (
	"net/http"

	"github.com/jsdw/weave/route"
)

// serveFile resolves a File destination against the captured request
// variables and serves it from the local filesystem, the way
// skipper's static filter hands a resolved path to http.ServeFile.
// Path traversal via a captured variable is rejected before the
// filesystem is touched, since only captured values come from the
// request and route.HasTraversal is defined not to flag a route's own
// literal path text.
func serveFile(w http.ResponseWriter, r *http.Request, f route.File, captures map[string]string) {
	if route.HasTraversal(captures) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	p, err := route.ResolveFilePath(f, captures)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	http.ServeFile(w, r, p)
}
