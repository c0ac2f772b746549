package pscan

import (
	"github.com/kestrelsec/kestrel/internal/httpmsg"
)

// Severity ranks how serious an alert is.
type Severity string

const (
	// SeverityInfo marks informational findings.
	SeverityInfo Severity = "info"
	// SeverityLow marks low-risk weaknesses.
	SeverityLow Severity = "low"
	// SeverityMedium marks moderate weaknesses.
	SeverityMedium Severity = "medium"
	// SeverityHigh marks serious weaknesses.
	SeverityHigh Severity = "high"
)

// Confidence ranks how certain a rule is about an alert.
type Confidence string

const (
	// ConfidenceLow marks tentative findings.
	ConfidenceLow Confidence = "low"
	// ConfidenceMedium marks findings with reasonable supporting evidence.
	ConfidenceMedium Confidence = "medium"
	// ConfidenceHigh marks findings with strong supporting evidence.
	ConfidenceHigh Confidence = "high"
)

// Alert is a security weakness raised by a passive scan rule for one
// captured exchange.
type Alert struct {
	// Rule is the name of the rule that raised the alert.
	Rule string `json:"rule"`
	// Severity is the risk ranking of the finding.
	Severity Severity `json:"severity"`
	// Confidence is the certainty ranking of the finding.
	Confidence Confidence `json:"confidence"`
	// Description is a human-readable summary of the weakness.
	Description string `json:"description"`
	// Evidence is the response fragment that triggered the finding.
	Evidence string `json:"evidence,omitempty"`
	// URL is the request URL of the exchange the alert was raised for.
	URL string `json:"url"`
	// Context is the name of the matched site context, if any.
	Context string `json:"context,omitempty"`
}

// Rule is a passive scan rule. Scan inspects one captured exchange together
// with its resolved context data and returns any alerts; it must not send
// new requests or mutate the exchange.
type Rule interface {
	// Name returns the stable rule name used in alerts.
	Name() string
	// Scan inspects the exchange and returns zero or more alerts.
	Scan(msg *httpmsg.Exchange, data *ScanData) []Alert
}
