// Package httplog logs outgoing HTTP requests with zerolog.
package httplog

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Transport logs every round trip at debug level. Query strings are never
// logged because signed URLs carry their credentials there.
type Transport struct {
	Base   http.RoundTripper
	Logger zerolog.Logger
}

// NewTransport wraps base, or http.DefaultTransport when base is nil.
func NewTransport(base http.RoundTripper, logger zerolog.Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{Base: base, Logger: logger}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.Base.RoundTrip(req)

	event := t.Logger.Debug()
	if err != nil {
		event = t.Logger.Warn().Err(err)
	}
	event = event.
		Str("method", req.Method).
		Str("host", req.URL.Host).
		Str("path", req.URL.Path).
		Dur("latency", time.Since(start))
	if resp != nil {
		event = event.Int("status", resp.StatusCode)
	}
	event.Msg("Request processed")

	return resp, err
}
