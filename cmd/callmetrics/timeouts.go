package main

import (
	"errors"
	"net"
	"net/http"
	"time"
)

// defaultDialTimeout is the default timeout for network dial operations
const defaultDialTimeout = 5 * time.Second

// httpTimeouts configures the timeouts of probe requests.
// Zero values indicate no timeout (except where Go stdlib provides defaults).
type httpTimeouts struct {
	// Total is the overall timeout for the entire request, including reading the response body.
	// Maps to http.Client.Timeout. Defaults to 10 seconds.
	Total time.Duration `koanf:"total"`

	// ResponseHeader is the timeout waiting for the response headers after the request has
	// been written. Maps to http.Transport.ResponseHeaderTimeout.
	ResponseHeader time.Duration `koanf:"response_header"`

	// IdleConn maps to http.Transport.IdleConnTimeout.
	IdleConn time.Duration `koanf:"idle_conn"`

	// TLSHandshake maps to http.Transport.TLSHandshakeTimeout.
	// Zero uses the Go stdlib default.
	TLSHandshake time.Duration `koanf:"tls_handshake"`

	// Dial is applied to net.Dialer.Timeout. Zero uses a 5 second default.
	Dial time.Duration `koanf:"dial"`
}

// Validate checks that no timeout is negative.
func (t httpTimeouts) Validate() error {
	switch {
	case t.Total < 0:
		return errors.New("timeouts.total cannot be negative")
	case t.ResponseHeader < 0:
		return errors.New("timeouts.response_header cannot be negative")
	case t.IdleConn < 0:
		return errors.New("timeouts.idle_conn cannot be negative")
	case t.TLSHandshake < 0:
		return errors.New("timeouts.tls_handshake cannot be negative")
	case t.Dial < 0:
		return errors.New("timeouts.dial cannot be negative")
	}
	return nil
}

// baseTransport returns the transport that performs probe requests.
func (t httpTimeouts) baseTransport() *http.Transport {
	tr := http.DefaultTransport.(*http.Transport).Clone()

	dial := t.Dial
	if dial == 0 {
		dial = defaultDialTimeout
	}
	tr.DialContext = (&net.Dialer{Timeout: dial}).DialContext

	if t.ResponseHeader > 0 {
		tr.ResponseHeaderTimeout = t.ResponseHeader
	}
	if t.IdleConn > 0 {
		tr.IdleConnTimeout = t.IdleConn
	}
	if t.TLSHandshake > 0 {
		tr.TLSHandshakeTimeout = t.TLSHandshake
	}
	return tr
}
