package httpmsg

import (
	"fmt"
	"strings"
)

// Exchange is a single captured HTTP request/response pair under inspection.
// It is owned by the caller and treated as immutable once submitted; the
// scanning pipeline holds a reference for the duration of one scan pass and
// never mutates it.
type Exchange struct {
	Request  Request  `json:"request"`
	Response Response `json:"response"`
}

// Request holds the captured request half of an exchange.
type Request struct {
	// Method is the HTTP method of the captured request.
	Method string `json:"method"`
	// URL is the full request URL as seen by the proxy.
	URL string `json:"url"`
	// Headers maps header names to their values.
	Headers map[string][]string `json:"headers,omitempty"`
	// Body is the raw request body, if any.
	Body string `json:"body,omitempty"`
}

// Response holds the captured response half of an exchange.
type Response struct {
	// StatusCode is the HTTP status code of the captured response.
	StatusCode int `json:"status_code"`
	// Headers maps header names to their values.
	Headers map[string][]string `json:"headers,omitempty"`
	// Body is the raw response body, if any.
	Body string `json:"body,omitempty"`
}

// RequestURL returns the URL of the captured request.
func (e *Exchange) RequestURL() string {
	return e.Request.URL
}

// Header returns the first value of the named response header, matched
// case-insensitively, or an empty string when absent.
func (r *Response) Header(name string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) && len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

// HeaderValues returns all values of the named response header, matched
// case-insensitively.
func (r *Response) HeaderValues(name string) []string {
	var values []string
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			values = append(values, v...)
		}
	}
	return values
}

// Text renders the response as a single searchable string: status line,
// headers, then body. Custom page definitions match against this rendering.
func (r *Response) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "HTTP %d\r\n", r.StatusCode)
	for k, values := range r.Headers {
		for _, v := range values {
			fmt.Fprintf(&b, "%s: %s\r\n", k, v)
		}
	}
	b.WriteString("\r\n")
	b.WriteString(r.Body)
	return b.String()
}
