package mock

import "errors"

var (
	// ErrInvalidMethod is returned when a response is registered without an HTTP method.
	ErrInvalidMethod = errors.New("mock response has no HTTP method")
	// ErrInvalidEndpoint is returned when an endpoint can't be parsed as a URL.
	ErrInvalidEndpoint = errors.New("invalid endpoint")
	// ErrNoResponseForEndpoint is returned when nothing was registered for the request endpoint.
	ErrNoResponseForEndpoint = errors.New("no mock response registered for endpoint")
	// ErrNoResponseForMethod is returned when the endpoint is known but has nothing queued for the request method.
	ErrNoResponseForMethod = errors.New("no mock response registered for method")
	// ErrNilResponse is returned when a responder gives back neither a response nor an error.
	ErrNilResponse = errors.New("mock responder returned no response")
)
