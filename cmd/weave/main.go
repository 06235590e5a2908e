// Command weave is a tiny CLI reverse proxy / router: give it one or
// more "SRC to DST" clauses on argv and it serves them, one acceptor
// per distinct listener, until it is asked to stop.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jsdw/weave/metrics"
	"github.com/jsdw/weave/proxy"
	"github.com/jsdw/weave/route"
	"github.com/jsdw/weave/routing"
	"github.com/jsdw/weave/serve"
	"github.com/jsdw/weave/weavelog"
)

var version = "dev"

const usageBanner = `usage: weave [flags] CLAUSE [and CLAUSE]*

A clause is "SRC to DST" or the literal token "nothing".

  SRC  [=][tcp://]HOST:PORT[/SEG...]     (HOST may be omitted for loopback)
  DST  http(s)://HOST[:PORT][/SEG...]
       tcp://HOST:PORT
       statuscode://NNN
       nothing
       a filesystem path (absolute or starting with '.')

Examples:
  weave 8080 to 9090
  weave '=8080/health' to statuscode://200 and 8080 to 9090
  weave 'tcp://8081' to 'tcp://127.0.0.1:5432'
  weave -explain 8080/(path..) to 9090/(path..)

`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	fs := flag.NewFlagSet("weave", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usageBanner)
		fmt.Fprintln(os.Stderr, "flags:")
		fs.PrintDefaults()
	}

	var (
		supportListener string
		shutdownGrace   time.Duration
		maxAcceptRate   float64
		logLevel        string
		accessLogJSON   bool
		explain         bool
		showVersion     bool
	)
	fs.StringVar(&supportListener, "support-listener", ":9911", "network address used for exposing /metrics and /health; empty disables it")
	fs.DurationVar(&shutdownGrace, "shutdown-grace", 15*time.Second, "how long to let in-flight connections drain on shutdown")
	fs.Float64Var(&maxAcceptRate, "max-accept-rate", 0, "maximum accepted connections per second per listener; 0 disables the limit")
	fs.StringVar(&logLevel, "log-level", "info", "application log level: panic, fatal, error, warn, info, debug, trace")
	fs.BoolVar(&accessLogJSON, "access-log-json", false, "emit access log entries as JSON instead of plain text")
	fs.BoolVar(&explain, "explain", false, "parse the given clauses and print the resolved route table instead of serving it")
	fs.BoolVar(&showVersion, "version", false, "print the version and exit")

	if err := fs.Parse(argv); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 1
	}

	if showVersion {
		fmt.Println("weave", version)
		return 0
	}

	tokens := fs.Args()
	if len(tokens) == 0 {
		fs.Usage()
		return 1
	}

	routes, err := route.Parse(tokens)
	if err != nil {
		fmt.Fprintln(os.Stderr, "weave:", err)
		return 1
	}
	table := routing.NewTable(routes)

	if explain {
		printExplain(table)
		return 0
	}

	if err := weavelog.Init(weavelog.Options{Level: logLevel, AccessJSON: accessLogJSON}); err != nil {
		fmt.Fprintln(os.Stderr, "weave: invalid log level:", err)
		return 1
	}

	mgr := serve.New(table, serve.Options{
		SupportListener: supportListener,
		ShutdownGrace:   shutdownGrace,
		MaxAcceptRate:   maxAcceptRate,
		Transport:       proxy.NewTransport(proxy.TransportOptions{}),
		Metrics:         metrics.New(),
	})

	if err := mgr.Run(context.Background()); err != nil {
		weavelog.App.Errorf("%v", err)
		return 2
	}

	return 0
}

func printExplain(table *routing.Table) {
	for _, e := range table.Explain() {
		fmt.Printf("[%s] %s to %s\n", e.Class, route.Render(e.Route.Src), route.RenderDstTemplate(e.Route.Dst))
	}
}
