package sicc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrEmptyBody is returned when decoding a response without a body.
var ErrEmptyBody = errors.New("empty response body")

// Response is a fully read API response.
type Response struct {
	Method     string
	Path       string
	StatusCode int
	Header     http.Header
	Cookies    []*http.Cookie
	Body       []byte
}

// OK reports whether the status is 200.
func (r *Response) OK() bool {
	return r.StatusCode == http.StatusOK
}

// Text returns the body as trimmed text, for error reporting.
func (r *Response) Text() string {
	return strings.TrimSpace(string(r.Body))
}

// Decode unmarshals the body into v. Numbers decode as json.Number when v
// holds an interface.
func (r *Response) Decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return ErrEmptyBody
	}
	dec := json.NewDecoder(bytes.NewReader(r.Body))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", r.Method, r.Path, err)
	}
	return nil
}

// JSON decodes the body into a generic value: map[string]any, []any or a scalar.
func (r *Response) JSON() (any, error) {
	var v any
	if err := r.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// Cookie returns the named cookie set by the response, or nil.
func (r *Response) Cookie(name string) *http.Cookie {
	for _, c := range r.Cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// AuthToken returns the session token from the JSON "token" field, falling
// back to the access_token cookie. Empty when neither is present.
func (r *Response) AuthToken() string {
	var auth AuthResponse
	if err := r.Decode(&auth); err == nil && auth.Token != "" {
		return auth.Token
	}
	if c := r.Cookie(AccessTokenCookie); c != nil {
		return c.Value
	}
	return ""
}
