// Package weavelog wires up weave's two log streams: an application
// logger for startup, parse errors and backend failures, and a
// separate access logger for one line per request, the way skipper's
// logging package splits the two concerns.
package weavelog

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Options configures both log streams. The zero value logs plain-text
// application entries at info level to stderr, with access logging on.
type Options struct {
	Level             string
	ApplicationOutput io.Writer
	AccessOutput      io.Writer
	AccessDisabled    bool
	AccessJSON        bool
}

var App = logrus.StandardLogger()

// Init applies Options to the application and access loggers. It must
// run before the first request is served.
func Init(o Options) error {
	if o.ApplicationOutput != nil {
		App.SetOutput(o.ApplicationOutput)
	}

	level := o.Level
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	App.SetLevel(lvl)

	if !o.AccessDisabled {
		out := o.AccessOutput
		if out == nil {
			out = os.Stderr
		}
		initAccessLog(out, o.AccessJSON)
	}

	return nil
}
