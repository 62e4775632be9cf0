package mock

import (
	"fmt"
	"net/http"
)

// endpointQueue holds the responses of a single endpoint, queued per HTTP method.
type endpointQueue struct {
	responses map[string][]Responder
}

func newEndpointQueue() *endpointQueue {
	return &endpointQueue{responses: map[string][]Responder{}}
}

func (q *endpointQueue) addMockResponse(r Responder) error {
	if isNilResponder(r) || r.Method() == "" {
		return ErrInvalidMethod
	}
	q.responses[r.Method()] = append(q.responses[r.Method()], r)
	return nil
}

// next picks the head of the method's queue. The last remaining response is never removed, so it
// keeps answering every later request.
func (q *endpointQueue) next(method string) (Responder, error) {
	queued := q.responses[method]
	if len(queued) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoResponseForMethod, method)
	}

	var next Responder
	if len(queued) == 1 {
		next = queued[0]
	} else {
		next = queued[0]
		queued[0] = nil
		q.responses[method] = queued[1:]
	}
	return next, nil
}

func (q *endpointQueue) getMockResponse(req *http.Request) (*http.Response, error) {
	next, err := q.next(req.Method)
	if err != nil {
		return nil, err
	}
	return next.Respond(req)
}

func (q *endpointQueue) queued(method string) int {
	return len(q.responses[method])
}

// isNilResponder also catches typed nil pointers of the responders defined in this package.
func isNilResponder(r Responder) bool {
	switch v := r.(type) {
	case nil:
		return true
	case *Response:
		return v == nil
	case *funcResponder:
		return v == nil || v.fn == nil
	case *delayedResponder:
		return v == nil || isNilResponder(v.Responder)
	}
	return false
}
