// Package mock replaces the network in tests: requests are answered from per-endpoint queues of canned responses.
package mock

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"

	log "github.com/sirupsen/logrus"
)

// Registry answers requests with the responses registered for their endpoint.
//
// A Registry is not safe for concurrent use. Create one per test scenario.
type Registry struct {
	endpoints   map[string]*endpointQueue
	ignoreQuery bool
}

// EndpointStatus reports how many responses are queued for one endpoint and method.
type EndpointStatus struct {
	Endpoint string `json:"endpoint"`
	Method   string `json:"method"`
	Queued   int    `json:"queued"`
}

func NewRegistry(opts ...func(*Registry)) *Registry {
	r := &Registry{
		endpoints:   map[string]*endpointQueue{},
		ignoreQuery: true,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// WithIgnoreQuery controls endpoint matching. When ignore is true (the default) endpoints are keyed by
// host and path only, so scheme, port, query string and fragment make no difference. When false the
// endpoint string is matched exactly. Server-side requests carry no scheme in their URL; it is taken
// from the X-Forwarded-Proto header, then from the TLS state, and is "http" otherwise.
func WithIgnoreQuery(ignore bool) func(*Registry) {
	return func(r *Registry) {
		r.ignoreQuery = ignore
	}
}

// AddResponse queues resp for endpoint. Responses for the same endpoint and method are served in the
// order they were added.
func (r *Registry) AddResponse(endpoint string, resp Responder) error {
	key, err := r.endpointKey(endpoint)
	if err != nil {
		return err
	}

	q, ok := r.endpoints[key]
	if !ok {
		q = newEndpointQueue()
	}
	if err := q.addMockResponse(resp); err != nil {
		return fmt.Errorf("%w: endpoint %s", err, endpoint)
	}
	r.endpoints[key] = q

	log.WithFields(log.Fields{
		"endpoint": key,
		"method":   resp.Method(),
		"queued":   q.queued(resp.Method()),
	}).Debug("Registered mock response")
	return nil
}

// Dispatch is a response picked from the registry for one request but not rendered yet.
type Dispatch struct {
	endpoint  string
	responder Responder
	req       *http.Request
}

// Endpoint returns the endpoint key the request matched.
func (d *Dispatch) Endpoint() string {
	return d.endpoint
}

// Respond renders the picked response. It never returns a nil response without an error, and the
// response always has a non-nil Body.
func (d *Dispatch) Respond() (*http.Response, error) {
	resp, err := d.responder.Respond(d.req)
	if err != nil {
		return nil, fmt.Errorf("endpoint %s: %w", d.endpoint, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("endpoint %s: %w", d.endpoint, ErrNilResponse)
	}
	if resp.Body == nil {
		resp.Body = http.NoBody
	}
	return resp, nil
}

// Next takes the response queued for the request's endpoint and method off the registry without
// rendering it, so callers guarding the registry with a lock can render outside of it.
func (r *Registry) Next(req *http.Request) (*Dispatch, error) {
	key := r.requestKey(req)
	q, ok := r.endpoints[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoResponseForEndpoint, key)
	}

	next, err := q.next(req.Method)
	if err != nil {
		return nil, fmt.Errorf("endpoint %s: %w", key, err)
	}

	log.WithFields(log.Fields{
		"endpoint": key,
		"method":   req.Method,
		"queued":   q.queued(req.Method),
	}).Debug("Dispatched mock response")
	return &Dispatch{endpoint: key, responder: next, req: req}, nil
}

// Respond returns the next response queued for the request's endpoint and method.
func (r *Registry) Respond(req *http.Request) (*http.Response, error) {
	d, err := r.Next(req)
	if err != nil {
		return nil, err
	}
	return d.Respond()
}

// RoundTrip lets a Registry stand in for the transport of an http.Client.
func (r *Registry) RoundTrip(req *http.Request) (*http.Response, error) {
	return r.Respond(req)
}

// Do matches the Do method of http.Client.
func (r *Registry) Do(req *http.Request) (*http.Response, error) {
	return r.Respond(req)
}

// Endpoints lists every registered endpoint key and method, sorted.
func (r *Registry) Endpoints() []EndpointStatus {
	var out []EndpointStatus
	for key, q := range r.endpoints {
		for method := range q.responses {
			out = append(out, EndpointStatus{Endpoint: key, Method: method, Queued: q.queued(method)})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Endpoint != out[j].Endpoint {
			return out[i].Endpoint < out[j].Endpoint
		}
		return out[i].Method < out[j].Method
	})
	return out
}

// Len returns the number of registered endpoint keys.
func (r *Registry) Len() int {
	return len(r.endpoints)
}

func (r *Registry) endpointKey(endpoint string) (string, error) {
	if !r.ignoreQuery {
		return endpoint, nil
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}
	return hostPath(u), nil
}

func (r *Registry) requestKey(req *http.Request) string {
	u := *req.URL
	if u.Host == "" && req.Host != "" {
		if u.Scheme == "" {
			u.Scheme = requestScheme(req)
		}
		u.Host = req.Host
	}
	if !r.ignoreQuery {
		return u.String()
	}
	return hostPath(&u)
}

// requestScheme guesses the scheme of a server-side request, whose URL carries none.
func requestScheme(req *http.Request) string {
	if proto := req.Header.Get("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if req.TLS != nil {
		return "https"
	}
	return "http"
}

// hostPath drops everything but the host name and path of u. A URL without a scheme parses as a bare
// path, which keeps "test.com/a" and "http://test.com/a" on the same key.
func hostPath(u *url.URL) string {
	return u.Hostname() + u.Path
}
