package clients

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// Request describes one outbound call.
type Request struct {
	// Method is the HTTP method. Empty means GET.
	Method string

	// Path is appended to the client's base URL.
	Path string

	// Query is encoded onto the URL when non-empty.
	Query url.Values

	// Header holds extra request headers.
	Header http.Header

	// Body is the JSON body. Nil means no body is sent.
	Body map[string]any
}

// NewRequest creates a request for method and path with an optional body.
func NewRequest(method, path string, body map[string]any) *Request {
	return &Request{
		Method: method,
		Path:   path,
		Header: make(http.Header),
		Body:   body,
	}
}

// WithBody returns a shallow copy of r carrying body.
// The caller's request is never mutated.
func (r *Request) WithBody(body map[string]any) *Request {
	out := *r
	out.Body = body
	return &out
}

// method returns the effective HTTP method.
func (r *Request) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return r.Method
}

// Response is a completed exchange. The body is fully read; it is never
// reshaped by this package.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if r == nil || len(r.Body) == 0 {
		return errors.New("response body is empty")
	}

	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}
