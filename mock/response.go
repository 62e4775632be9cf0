package mock

import (
	"io/ioutil"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const defaultContentType = "application/json"

// Responder produces the canned answer for a request and declares the HTTP method it answers.
type Responder interface {
	Respond(req *http.Request) (*http.Response, error)
	Method() string
}

// Response describes one canned HTTP response. It should not be modified once registered.
type Response struct {
	method      string
	StatusCode  int
	ContentType string
	Headers     map[string]string
	// Body is left out of the response when empty.
	Body string
}

func NewResponse(method string, body string) *Response {
	return &Response{
		method:      method,
		StatusCode:  http.StatusOK,
		ContentType: defaultContentType,
		Headers:     map[string]string{},
		Body:        body,
	}
}

func (r *Response) Method() string {
	return r.method
}

// ToResponse renders the descriptor. Entries in Headers are applied last, so they win over ContentType.
func (r *Response) ToResponse() *http.Response {
	resp := &http.Response{
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     make(http.Header),
		Body:       http.NoBody,
	}
	resp.Header.Set("Content-Type", r.ContentType)
	if r.Body != "" {
		resp.Body = ioutil.NopCloser(strings.NewReader(r.Body))
		resp.ContentLength = int64(len(r.Body))
	}
	resp.StatusCode = r.StatusCode
	resp.Status = strconv.Itoa(r.StatusCode) + " " + http.StatusText(r.StatusCode)
	for k, v := range r.Headers {
		resp.Header.Set(k, v)
	}
	return resp
}

func (r *Response) Respond(req *http.Request) (*http.Response, error) {
	resp := r.ToResponse()
	resp.Request = req
	return resp, nil
}

type funcResponder struct {
	method string
	fn     func(req *http.Request) (*http.Response, error)
}

// Func returns a Responder that answers method requests by calling fn, e.g. to look at the request body.
func Func(method string, fn func(req *http.Request) (*http.Response, error)) Responder {
	return &funcResponder{method: method, fn: fn}
}

func (f *funcResponder) Respond(req *http.Request) (*http.Response, error) {
	return f.fn(req)
}

func (f *funcResponder) Method() string {
	return f.method
}

// Failure returns a Responder that fails every dispatch with err, as a broken connection would.
func Failure(method string, err error) Responder {
	return Func(method, func(*http.Request) (*http.Response, error) {
		return nil, err
	})
}

type delayedResponder struct {
	Responder
	delay time.Duration
}

// Delayed wraps r so that every answer is held back by d.
func Delayed(r Responder, d time.Duration) Responder {
	return &delayedResponder{Responder: r, delay: d}
}

func (d *delayedResponder) Respond(req *http.Request) (*http.Response, error) {
	time.Sleep(d.delay)
	return d.Responder.Respond(req)
}
