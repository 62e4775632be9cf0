package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/Financial-Times/http-mock-registry/fixtures"
	"github.com/Financial-Times/http-mock-registry/kafka"
	"github.com/Financial-Times/http-mock-registry/mock"
	ftkafka "github.com/Financial-Times/kafka-client-go/kafka"
	transactionidutils "github.com/Financial-Times/transactionid-utils-go"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rcrowley/go-metrics"
	log "github.com/sirupsen/logrus"
)

const (
	ResponsesPath = "/__mock/responses"
	EndpointsPath = "/__mock/endpoints"
)

// Handler serves the registry over HTTP. The registry itself is not safe for concurrent use, so every
// access goes through mu. Responses are rendered after mu is released, so a slow responder holds up
// only its own request.
type Handler struct {
	mu        sync.Mutex
	registry  *mock.Registry
	publisher ftkafka.Producer
	hits      metrics.Counter
	misses    metrics.Counter
}

func NewMockHandler(registry *mock.Registry, opts ...func(*Handler)) *Handler {
	h := &Handler{
		registry: registry,
		hits:     metrics.GetOrRegisterCounter("mock.dispatch.hits", metrics.DefaultRegistry),
		misses:   metrics.GetOrRegisterCounter("mock.dispatch.misses", metrics.DefaultRegistry),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// WithPublisher makes the handler publish a DispatchEvent for every dispatched request.
func WithPublisher(p ftkafka.Producer) func(*Handler) {
	return func(h *Handler) {
		h.publisher = p
	}
}

func (h *Handler) EndpointCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.registry.Len()
}

func (h *Handler) HandleAddResponse(resp http.ResponseWriter, req *http.Request) {
	var entry fixtures.Entry
	decoder := json.NewDecoder(req.Body)
	err := decoder.Decode(&entry)
	if err != nil {
		writeJSONErrorMessage(resp, http.StatusBadRequest, "There was an error decoding the payload", err)
		return
	}

	h.mu.Lock()
	err = h.registry.AddResponse(entry.Endpoint, entry.Response())
	h.mu.Unlock()
	if err != nil {
		writeJSONErrorMessage(resp, http.StatusBadRequest, "The mock response could not be registered", err)
		return
	}

	log.WithFields(log.Fields{
		"endpoint":       entry.Endpoint,
		"method":         entry.Method,
		"transaction_id": transactionidutils.GetTransactionIDFromRequest(req),
	}).Info("Registered mock response")
	writeJSONResponseMessage(resp, http.StatusCreated, "Mock response registered")
}

func (h *Handler) HandleGetEndpoints(resp http.ResponseWriter, req *http.Request) {
	h.mu.Lock()
	endpoints := h.registry.Endpoints()
	h.mu.Unlock()
	if endpoints == nil {
		endpoints = []mock.EndpointStatus{}
	}

	endpointsJSON, err := json.Marshal(endpoints)
	if err != nil {
		writeJSONErrorMessage(resp, http.StatusInternalServerError, "There was an error encoding the response", err)
		return
	}
	writeResponseMessage(resp, http.StatusOK, "application/json", string(endpointsJSON))
}

// HandleDispatch answers any other request with the next mock response for its host, path and method.
func (h *Handler) HandleDispatch(resp http.ResponseWriter, req *http.Request) {
	transactionID := transactionidutils.GetTransactionIDFromRequest(req)
	endpoint := req.Host + req.URL.Path
	logger := log.WithFields(log.Fields{
		"endpoint":       endpoint,
		"method":         req.Method,
		"transaction_id": transactionID,
	})

	h.mu.Lock()
	dispatch, err := h.registry.Next(req)
	h.mu.Unlock()

	var mockResp *http.Response
	if err == nil {
		mockResp, err = dispatch.Respond()
	}
	if err != nil {
		h.misses.Inc(1)
		statusCode := dispatchErrorStatus(err)
		logger.WithError(err).Warn("No mock response for request")
		h.publish(kafka.DispatchEvent{Endpoint: endpoint, Method: req.Method, StatusCode: statusCode, Error: err.Error()}, transactionID)
		writeJSONErrorMessage(resp, statusCode, "There was no mock response for the request", err)
		return
	}
	defer mockResp.Body.Close()

	h.hits.Inc(1)
	logger.WithField("status", mockResp.StatusCode).Debug("Serving mock response")
	h.publish(kafka.DispatchEvent{Endpoint: endpoint, Method: req.Method, StatusCode: mockResp.StatusCode}, transactionID)

	for k, values := range mockResp.Header {
		for _, v := range values {
			resp.Header().Add(k, v)
		}
	}
	resp.WriteHeader(mockResp.StatusCode)
	if _, err := io.Copy(resp, mockResp.Body); err != nil {
		logger.WithError(err).Error("Error writing the mock response body")
	}
}

func (h *Handler) publish(event kafka.DispatchEvent, transactionID string) {
	if h.publisher == nil {
		return
	}
	msg, err := kafka.NewDispatchMessage(event, transactionID)
	if err != nil {
		log.WithError(err).WithField("method", "publish").Error("Error building the dispatch message")
		return
	}
	if err := h.publisher.SendMessage(msg); err != nil {
		log.WithError(err).WithField("transaction_id", transactionID).Error("Error publishing the dispatch event")
	}
}

func dispatchErrorStatus(err error) int {
	switch {
	case errors.Is(err, mock.ErrNoResponseForEndpoint):
		return http.StatusNotFound
	case errors.Is(err, mock.ErrNoResponseForMethod):
		return http.StatusMethodNotAllowed
	default:
		return http.StatusBadGateway
	}
}

// RegisterEndpoints adds the mock admin endpoints and the catch-all dispatch route. Register any other
// route before calling it.
func (h *Handler) RegisterEndpoints(router *mux.Router) {
	addResponseHandler := handlers.MethodHandler{
		"POST": http.HandlerFunc(h.HandleAddResponse),
	}
	getEndpointsHandler := handlers.MethodHandler{
		"GET": http.HandlerFunc(h.HandleGetEndpoints),
	}

	router.Handle(ResponsesPath, addResponseHandler)
	router.Handle(EndpointsPath, getEndpointsHandler)
	router.PathPrefix("/").HandlerFunc(h.HandleDispatch)
}

func writeResponseMessage(w http.ResponseWriter, statusCode int, contentType string, message string) {
	log.WithField("message", message).Debug("Creating response message")
	if contentType == "" {
		contentType = "text/plain"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(statusCode)
	w.Write([]byte(message))
}

func writeJSONResponseMessage(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"message": message})
}

func writeJSONErrorMessage(w http.ResponseWriter, statusCode int, message string, err error) {
	writeJSON(w, statusCode, map[string]string{"message": message, "error": err.Error()})
}

func writeJSON(w http.ResponseWriter, statusCode int, fields map[string]string) {
	msg, err := json.Marshal(fields)
	if err != nil {
		writeResponseMessage(w, http.StatusInternalServerError, "text/plain", err.Error())
		return
	}
	writeResponseMessage(w, statusCode, "application/json", string(msg))
}
