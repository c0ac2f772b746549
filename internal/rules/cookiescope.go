package rules

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/kestrelsec/kestrel/internal/httpmsg"
	"github.com/kestrelsec/kestrel/internal/pscan"
)

// CookieScope flags Set-Cookie headers whose Domain attribute scopes the
// cookie more broadly than the registrable domain of the serving host, or to
// an unrelated domain entirely.
type CookieScope struct{}

// NewCookieScope creates the cookie scope rule.
func NewCookieScope() *CookieScope {
	return &CookieScope{}
}

// Name returns the stable rule name.
func (r *CookieScope) Name() string {
	return "loosely-scoped-cookie"
}

// Scan inspects every Set-Cookie header on the response and compares its
// Domain attribute against the registrable domain of the request host.
func (r *CookieScope) Scan(msg *httpmsg.Exchange, data *pscan.ScanData) []pscan.Alert {
	cookies := msg.Response.HeaderValues("Set-Cookie")
	if len(cookies) == 0 {
		return nil
	}

	host := requestHost(msg)
	if host == "" || net.ParseIP(host) != nil {
		// IP literal hosts have no registrable domain to compare against.
		return nil
	}

	hostDomain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return nil
	}

	var alerts []pscan.Alert

	for _, cookie := range cookies {
		domain := cookieDomain(cookie)
		if domain == "" || strings.EqualFold(domain, host) {
			continue
		}

		if suffix, _ := publicsuffix.PublicSuffix(domain); strings.EqualFold(suffix, domain) {
			alerts = append(alerts, pscan.Alert{
				Rule:        r.Name(),
				Severity:    pscan.SeverityHigh,
				Confidence:  pscan.ConfidenceHigh,
				Description: "A cookie is scoped to a public suffix, making it visible to every site under that suffix.",
				Evidence:    fmt.Sprintf("Domain=%s", domain),
				URL:         msg.RequestURL(),
				Context:     contextName(data),
			})
			continue
		}

		cookieReg, err := publicsuffix.EffectiveTLDPlusOne(domain)
		if err != nil || !strings.EqualFold(cookieReg, hostDomain) {
			alerts = append(alerts, pscan.Alert{
				Rule:        r.Name(),
				Severity:    pscan.SeverityMedium,
				Confidence:  pscan.ConfidenceMedium,
				Description: "A cookie is scoped to a domain outside the registrable domain of the serving host.",
				Evidence:    fmt.Sprintf("Domain=%s", domain),
				URL:         msg.RequestURL(),
				Context:     contextName(data),
			})
		}
	}

	return alerts
}

// requestHost extracts the lowercased hostname from the request URL.
func requestHost(msg *httpmsg.Exchange) string {
	u, err := url.Parse(msg.RequestURL())
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// cookieDomain extracts the Domain attribute from a Set-Cookie header value,
// normalized to lowercase without the leading dot.
func cookieDomain(setCookie string) string {
	for _, part := range strings.Split(setCookie, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(name), "domain") {
			return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(value), "."))
		}
	}
	return ""
}
