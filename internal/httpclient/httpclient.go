// Package httpclient builds the outbound HTTP client shared by the tools.
package httpclient

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Options configure New.
type Options struct {
	Timeout time.Duration
	// Rate is requests per second across all hosts; <= 0 disables limiting.
	Rate  float64
	Burst int
	// Base is the transport to wrap; defaults to http.DefaultTransport.
	Base http.RoundTripper
}

// New returns an http.Client whose transport waits on a token bucket before
// each request. The free geocoding tier allows roughly one request per second.
func New(o Options) *http.Client {
	base := o.Base
	if base == nil {
		base = http.DefaultTransport.(*http.Transport).Clone()
	}
	var rt http.RoundTripper = base
	if o.Rate > 0 {
		burst := o.Burst
		if burst <= 0 {
			burst = 1
		}
		rt = &limitedTransport{base: base, limiter: rate.NewLimiter(rate.Limit(o.Rate), burst)}
	}
	return &http.Client{Transport: rt, Timeout: o.Timeout}
}

type limitedTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

// RoundTrip blocks until the limiter admits the request or its context ends.
func (t *limitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}

// CloseIdleConnections forwards to the wrapped transport so http.Client.CloseIdleConnections reaches it.
func (t *limitedTransport) CloseIdleConnections() {
	type closeIdler interface{ CloseIdleConnections() }
	if c, ok := t.base.(closeIdler); ok {
		c.CloseIdleConnections()
	}
}
