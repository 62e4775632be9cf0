package mock

import (
	"errors"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := ioutil.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestNewResponse_Defaults(t *testing.T) {
	r := NewResponse("GET", `{"ok":true}`)

	assert.Equal(t, "GET", r.Method())
	assert.Equal(t, http.StatusOK, r.StatusCode)
	assert.Equal(t, "application/json", r.ContentType)
	assert.NotNil(t, r.Headers)
	assert.Empty(t, r.Headers)
	assert.Equal(t, `{"ok":true}`, r.Body)
}

func TestResponse_ToResponse(t *testing.T) {
	testCases := []struct {
		name                string
		status              int
		contentType         string
		headers             map[string]string
		body                string
		expectedContentType string
		expectedBody        string
	}{
		{
			name:                "defaults",
			status:              http.StatusOK,
			contentType:         "application/json",
			body:                `{"a":1}`,
			expectedContentType: "application/json",
			expectedBody:        `{"a":1}`,
		},
		{
			name:                "header map overrides content type",
			status:              http.StatusCreated,
			contentType:         "application/json",
			headers:             map[string]string{"Content-Type": "text/plain", "X-Request-Id": "tid_1"},
			body:                "plain",
			expectedContentType: "text/plain",
			expectedBody:        "plain",
		},
		{
			name:                "no body",
			status:              http.StatusNoContent,
			contentType:         "text/html",
			expectedContentType: "text/html",
			expectedBody:        "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewResponse("GET", tc.body)
			r.StatusCode = tc.status
			r.ContentType = tc.contentType
			for k, v := range tc.headers {
				r.Headers[k] = v
			}

			resp := r.ToResponse()
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.expectedContentType, resp.Header.Get("Content-Type"))
			for k, v := range tc.headers {
				assert.Equal(t, v, resp.Header.Get(k))
			}
			assert.Equal(t, tc.expectedBody, readBody(t, resp))
		})
	}
}

func TestResponse_RespondSetsRequest(t *testing.T) {
	req := httptest.NewRequest("GET", "http://test.com/a", nil)

	resp, err := NewResponse("GET", "body").Respond(req)
	require.NoError(t, err)
	assert.Equal(t, req, resp.Request)
	assert.Equal(t, "200 OK", resp.Status)
}

func TestFunc(t *testing.T) {
	echo := Func("POST", func(req *http.Request) (*http.Response, error) {
		b, err := ioutil.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		return NewResponse("POST", "echo: "+string(b)).ToResponse(), nil
	})

	assert.Equal(t, "POST", echo.Method())
	req := httptest.NewRequest("POST", "http://test.com/echo", stringsReader("hello"))
	resp, err := echo.Respond(req)
	require.NoError(t, err)
	assert.Equal(t, "echo: hello", readBody(t, resp))
}

func TestFailure(t *testing.T) {
	expectedErr := errors.New("connection refused")
	f := Failure("DELETE", expectedErr)

	assert.Equal(t, "DELETE", f.Method())
	resp, err := f.Respond(httptest.NewRequest("DELETE", "http://test.com", nil))
	assert.Nil(t, resp)
	assert.Equal(t, expectedErr, err)
}

func TestDelayed(t *testing.T) {
	d := Delayed(NewResponse("GET", "late"), 20*time.Millisecond)
	assert.Equal(t, "GET", d.Method())

	start := time.Now()
	resp, err := d.Respond(httptest.NewRequest("GET", "http://test.com", nil))
	require.NoError(t, err)
	assert.True(t, time.Since(start) >= 20*time.Millisecond)
	assert.Equal(t, "late", readBody(t, resp))
}
