package transport

import (
	"net/http"
	"time"

	"github.com/sethgrid/pester"
)

// NewHTTPClient returns a client that sends every request to rt, usually a *mock.Registry.
func NewHTTPClient(rt http.RoundTripper) *http.Client {
	return &http.Client{Transport: rt}
}

// NewRetryingClient returns a pester client over rt that retries failed requests and 5xx responses
// up to maxRetries times without waiting between attempts.
func NewRetryingClient(rt http.RoundTripper, maxRetries int) *pester.Client {
	c := pester.NewExtendedClient(NewHTTPClient(rt))
	c.Concurrency = 1
	c.MaxRetries = maxRetries
	c.Backoff = noBackoff
	c.KeepLog = true
	return c
}

func noBackoff(_ int) time.Duration {
	return 0
}
