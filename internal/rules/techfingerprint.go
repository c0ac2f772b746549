package rules

import (
	"fmt"
	"sort"

	wappalyzer "github.com/projectdiscovery/wappalyzergo"
	"github.com/samber/lo"

	"github.com/kestrelsec/kestrel/internal/httpmsg"
	"github.com/kestrelsec/kestrel/internal/pscan"
	"github.com/kestrelsec/kestrel/internal/webctx"
)

// TechFingerprint fingerprints the technologies visible in a response and
// flags any that fall outside the matched context's technology scope. For
// unmatched messages the scope is the universal set, so nothing is flagged.
type TechFingerprint struct {
	client *wappalyzer.Wappalyze
}

// NewTechFingerprint creates the technology fingerprint rule. Building the
// wappalyzer ruleset can fail, in which case the rule is unusable.
func NewTechFingerprint() (*TechFingerprint, error) {
	client, err := wappalyzer.New()
	if err != nil {
		return nil, fmt.Errorf("initializing wappalyzer: %w", err)
	}
	return &TechFingerprint{client: client}, nil
}

// Name returns the stable rule name.
func (r *TechFingerprint) Name() string {
	return "unexpected-technology"
}

// Scan fingerprints the response headers and body and raises one alert per
// detected technology that is not in the context's technology scope.
func (r *TechFingerprint) Scan(msg *httpmsg.Exchange, data *pscan.ScanData) []pscan.Alert {
	fingerprints := r.client.Fingerprint(msg.Response.Headers, []byte(msg.Response.Body))
	if len(fingerprints) == 0 {
		return nil
	}

	detected := lo.Keys(fingerprints)
	sort.Strings(detected)

	techSet := data.TechSet()
	unexpected := lo.Filter(detected, func(name string, _ int) bool {
		return !techSet.Includes(webctx.Tech(name))
	})

	alerts := make([]pscan.Alert, 0, len(unexpected))
	for _, name := range unexpected {
		alerts = append(alerts, pscan.Alert{
			Rule:        r.Name(),
			Severity:    pscan.SeverityInfo,
			Confidence:  pscan.ConfidenceMedium,
			Description: fmt.Sprintf("Technology %q was detected in the response but is not part of the site's expected technology profile.", name),
			Evidence:    name,
			URL:         msg.RequestURL(),
			Context:     contextName(data),
		})
	}

	return alerts
}
