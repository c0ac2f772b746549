// Package rules contains the built-in passive scan rules. Every rule
// inspects captured traffic only; none of them sends new requests.
package rules

import (
	"fmt"

	"github.com/kestrelsec/kestrel/internal/httpmsg"
	"github.com/kestrelsec/kestrel/internal/pscan"
)

// ServerError flags responses that are, or look like, server error pages.
// A custom success page definition on the matched context suppresses the
// alert even for 5xx status codes.
type ServerError struct{}

// NewServerError creates the server error rule.
func NewServerError() *ServerError {
	return &ServerError{}
}

// Name returns the stable rule name.
func (r *ServerError) Name() string {
	return "server-error-response"
}

// Scan raises an alert when the response carries a 5xx status or matches the
// context's custom server error page definitions. An apparent 5xx that the
// context classifies as a success page is skipped.
func (r *ServerError) Scan(msg *httpmsg.Exchange, data *pscan.ScanData) []pscan.Alert {
	status := msg.Response.StatusCode
	isError := status >= 500 && status < 600

	if isError && data.IsPage200(msg) {
		return nil
	}
	if !isError && !data.IsPage500(msg) {
		return nil
	}

	confidence := pscan.ConfidenceMedium
	if isError {
		confidence = pscan.ConfidenceHigh
	}

	return []pscan.Alert{{
		Rule:        r.Name(),
		Severity:    pscan.SeverityLow,
		Confidence:  confidence,
		Description: "The server responded with an error page, which may disclose internal implementation details.",
		Evidence:    fmt.Sprintf("HTTP %d", status),
		URL:         msg.RequestURL(),
		Context:     contextName(data),
	}}
}

// contextName returns the matched context's name, or empty when unmatched.
func contextName(data *pscan.ScanData) string {
	if !data.HasContext() {
		return ""
	}
	return data.Context().Name()
}
