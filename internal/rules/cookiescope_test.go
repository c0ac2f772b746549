package rules

import (
	"testing"

	"github.com/kestrelsec/kestrel/internal/httpmsg"
	"github.com/kestrelsec/kestrel/internal/pscan"
)

func cookieExchange(url string, cookies ...string) *httpmsg.Exchange {
	return &httpmsg.Exchange{
		Request: httpmsg.Request{Method: "GET", URL: url},
		Response: httpmsg.Response{
			StatusCode: 200,
			Headers:    map[string][]string{"Set-Cookie": cookies},
		},
	}
}

func TestCookieScopeRule(t *testing.T) {
	rule := NewCookieScope()

	testCases := []struct {
		name     string
		msg      *httpmsg.Exchange
		alerts   int
		severity pscan.Severity
	}{
		{
			name:   "no cookies",
			msg:    exchange("https://app.example.com/", 200, ""),
			alerts: 0,
		},
		{
			name:   "host scoped cookie",
			msg:    cookieExchange("https://app.example.com/login", "sid=abc; Path=/; HttpOnly"),
			alerts: 0,
		},
		{
			name:   "parent domain within registrable domain",
			msg:    cookieExchange("https://app.example.com/login", "sid=abc; Domain=.example.com"),
			alerts: 0,
		},
		{
			name:     "foreign domain",
			msg:      cookieExchange("https://app.example.com/login", "sid=abc; Domain=evil.net"),
			alerts:   1,
			severity: pscan.SeverityMedium,
		},
		{
			name:     "public suffix scope",
			msg:      cookieExchange("https://app.example.com/login", "sid=abc; Domain=com"),
			alerts:   1,
			severity: pscan.SeverityHigh,
		},
		{
			name: "mixed cookies",
			msg: cookieExchange("https://app.example.com/login",
				"a=1; Domain=example.com",
				"b=2; Domain=tracker.example.org",
			),
			alerts:   1,
			severity: pscan.SeverityMedium,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data := unmatchedScanData(tc.msg)
			got := rule.Scan(tc.msg, data)
			if len(got) != tc.alerts {
				t.Fatalf("expected %d alerts, got %d", tc.alerts, len(got))
			}
			if tc.alerts > 0 && got[0].Severity != tc.severity {
				t.Errorf("expected severity %q, got %q", tc.severity, got[0].Severity)
			}
		})
	}
}

func TestCookieScopeRuleUnparsableHost(t *testing.T) {
	rule := NewCookieScope()
	msg := cookieExchange("http://192.0.2.10/", "sid=abc; Domain=example.com")
	if got := rule.Scan(msg, unmatchedScanData(msg)); len(got) != 0 {
		t.Errorf("expected no alerts for an IP host, got %d", len(got))
	}
}

func TestCookieDomainParsing(t *testing.T) {
	testCases := []struct {
		cookie string
		domain string
	}{
		{cookie: "sid=abc; Domain=.Example.COM; Secure", domain: "example.com"},
		{cookie: "sid=abc; domain=example.com", domain: "example.com"},
		{cookie: "sid=abc; Path=/", domain: ""},
		{cookie: "sid=abc", domain: ""},
	}

	for _, tc := range testCases {
		if got := cookieDomain(tc.cookie); got != tc.domain {
			t.Errorf("cookieDomain(%q) = %q, want %q", tc.cookie, got, tc.domain)
		}
	}
}
