package rules

import (
	"fmt"

	"github.com/kestrelsec/kestrel/internal/httpmsg"
	"github.com/kestrelsec/kestrel/internal/pscan"
)

// HiddenNotFound flags sites that serve their not-found page with a success
// status code, which hides missing resources from consumers relying on
// status codes alone. It only fires for contexts with custom not-found page
// definitions: without them a 200 response cannot be recognized as a
// not-found page.
type HiddenNotFound struct{}

// NewHiddenNotFound creates the hidden not-found rule.
func NewHiddenNotFound() *HiddenNotFound {
	return &HiddenNotFound{}
}

// Name returns the stable rule name.
func (r *HiddenNotFound) Name() string {
	return "not-found-with-success-status"
}

// Scan raises an alert when a 200-class response matches the context's
// custom not-found page definitions.
func (r *HiddenNotFound) Scan(msg *httpmsg.Exchange, data *pscan.ScanData) []pscan.Alert {
	if !data.HasContext() {
		return nil
	}

	status := msg.Response.StatusCode
	if status < 200 || status >= 300 {
		return nil
	}

	if !data.IsPage404(msg) {
		return nil
	}

	return []pscan.Alert{{
		Rule:        r.Name(),
		Severity:    pscan.SeverityInfo,
		Confidence:  pscan.ConfidenceMedium,
		Description: "The response matches the site's not-found page signature but was served with a success status code.",
		Evidence:    fmt.Sprintf("HTTP %d", status),
		URL:         msg.RequestURL(),
		Context:     contextName(data),
	}}
}
