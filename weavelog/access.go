package weavelog

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	dateFormat      = "02/Jan/2006:15:04:05 -0700"
	commonLogFormat = `%s - - [%s] "%s %s %s" %d %d`
	// remote_host - - [date] "method uri protocol" status response_size "referer" "user_agent" duration listener request_id
	combinedLogFormat = commonLogFormat + ` "%s" "%s"`
	accessLogFormat    = combinedLogFormat + " %d %s %s\n"
)

type accessLogFormatter struct {
	format string
}

// AccessEntry describes one handled HTTP request, the unit LogAccess
// writes as a single line.
type AccessEntry struct {
	Request      *http.Request
	StatusCode   int
	ResponseSize int64
	Duration     time.Duration
	RequestTime  time.Time
	Listener     string
	RequestID    string
}

var accessLog *logrus.Logger

func initAccessLog(output io.Writer, jsonEnabled bool) {
	l := logrus.New()
	if jsonEnabled {
		l.Formatter = &logrus.JSONFormatter{TimestampFormat: dateFormat, DisableTimestamp: true}
	} else {
		l.Formatter = &accessLogFormatter{accessLogFormat}
	}
	l.Out = output
	l.Level = logrus.InfoLevel
	accessLog = l
}

func stripPort(address string) string {
	if h, _, err := net.SplitHostPort(address); err == nil {
		return h
	}
	return address
}

func remoteAddr(r *http.Request) string {
	if ff := r.Header.Get("X-Forwarded-For"); ff != "" {
		return ff
	}
	return r.RemoteAddr
}

func remoteHost(r *http.Request) string {
	if h := stripPort(remoteAddr(r)); h != "" {
		return h
	}
	return "-"
}

func (f *accessLogFormatter) Format(e *logrus.Entry) ([]byte, error) {
	keys := []string{
		"host", "timestamp", "method", "uri", "proto",
		"status", "response-size", "referer", "user-agent",
		"duration", "listener", "request-id",
	}

	values := make([]interface{}, len(keys))
	for i, key := range keys {
		values[i] = e.Data[key]
	}

	return []byte(fmt.Sprintf(f.format, values...)), nil
}

// LogAccess writes one line to the access log in Apache combined log
// format, with the proxying duration and matched listener appended.
func LogAccess(entry *AccessEntry) {
	if accessLog == nil || entry == nil {
		return
	}

	ts := entry.RequestTime.Format(dateFormat)

	host, method, uri, proto, referer, userAgent := "-", "", "", "", "", ""
	if entry.Request != nil {
		host = remoteHost(entry.Request)
		method = entry.Request.Method
		uri = entry.Request.RequestURI
		proto = entry.Request.Proto
		referer = entry.Request.Referer()
		userAgent = entry.Request.UserAgent()
	}

	accessLog.WithFields(logrus.Fields{
		"timestamp":     ts,
		"host":          host,
		"method":        method,
		"uri":           uri,
		"proto":         proto,
		"referer":       referer,
		"user-agent":    userAgent,
		"status":        entry.StatusCode,
		"response-size": entry.ResponseSize,
		"duration":      int64(entry.Duration / time.Millisecond),
		"listener":      entry.Listener,
		"request-id":    entry.RequestID,
	}).Infoln()
}
