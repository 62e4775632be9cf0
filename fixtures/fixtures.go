package fixtures

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Financial-Times/http-mock-registry/mock"
	log "github.com/sirupsen/logrus"
)

// Registrar is the part of *mock.Registry that fixtures are loaded into.
type Registrar interface {
	AddResponse(endpoint string, resp mock.Responder) error
}

// Entry is the JSON form of one canned response.
type Entry struct {
	Endpoint    string            `json:"endpoint"`
	Method      string            `json:"method"`
	StatusCode  int               `json:"statusCode,omitempty"`
	ContentType string            `json:"contentType,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	Body        string            `json:"body,omitempty"`
}

// Response builds the descriptor for e, keeping the descriptor defaults for zero values.
func (e Entry) Response() *mock.Response {
	r := mock.NewResponse(e.Method, e.Body)
	if e.StatusCode != 0 {
		r.StatusCode = e.StatusCode
	}
	if e.ContentType != "" {
		r.ContentType = e.ContentType
	}
	for k, v := range e.Headers {
		r.Headers[k] = v
	}
	return r
}

// Load registers every entry of a JSON array in order and returns how many were registered.
func Load(r io.Reader, reg Registrar) (int, error) {
	var entries []Entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return 0, fmt.Errorf("failed to decode fixtures: %w", err)
	}

	for i, e := range entries {
		if err := reg.AddResponse(e.Endpoint, e.Response()); err != nil {
			return i, fmt.Errorf("fixture %d: %w", i, err)
		}
	}
	return len(entries), nil
}

func LoadFile(path string, reg Registrar) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n, err := Load(f, reg)
	if err != nil {
		log.WithError(err).WithField("path", path).Error("Error loading fixtures")
		return n, err
	}
	log.WithField("path", path).WithField("count", n).Info("Loaded fixtures")
	return n, nil
}
