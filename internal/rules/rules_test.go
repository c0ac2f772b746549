package rules

import (
	"testing"

	"github.com/kestrelsec/kestrel/internal/httpmsg"
	"github.com/kestrelsec/kestrel/internal/pscan"
	"github.com/kestrelsec/kestrel/internal/users"
	"github.com/kestrelsec/kestrel/internal/webctx"
)

func exchange(url string, status int, body string) *httpmsg.Exchange {
	return &httpmsg.Exchange{
		Request:  httpmsg.Request{Method: "GET", URL: url},
		Response: httpmsg.Response{StatusCode: status, Body: body},
	}
}

// scanData builds a ScanData whose registry holds a single context matching
// every URL, configured by opts. A nil opts slice still yields a match.
func scanData(t *testing.T, msg *httpmsg.Exchange, svc users.Service, opts ...webctx.Option) *pscan.ScanData {
	t.Helper()
	registry := webctx.NewRegistry()
	allOpts := append([]webctx.Option{webctx.WithIncludePatterns(`.*`)}, opts...)
	c, err := webctx.New(1, "test-site", allOpts...)
	if err != nil {
		t.Fatalf("building context: %v", err)
	}
	registry.Add(c)
	return pscan.NewScanData(msg, registry, svc)
}

// unmatchedScanData builds a ScanData with an empty registry, so the message
// has no context.
func unmatchedScanData(msg *httpmsg.Exchange) *pscan.ScanData {
	return pscan.NewScanData(msg, webctx.NewRegistry(), nil)
}

func TestServerErrorRule(t *testing.T) {
	rule := NewServerError()

	testCases := []struct {
		name   string
		msg    *httpmsg.Exchange
		opts   []webctx.Option
		alerts int
	}{
		{
			name:   "plain 500",
			msg:    exchange("https://x/", 500, "boom"),
			alerts: 1,
		},
		{
			name:   "healthy 200",
			msg:    exchange("https://x/", 200, "ok"),
			alerts: 0,
		},
		{
			name: "custom error page with success status",
			msg:  exchange("https://x/", 200, "Fatal error: db connection refused"),
			opts: []webctx.Option{webctx.WithCustomPages(
				webctx.NewCustomPage(webctx.PageServerError, "Fatal error:"),
			)},
			alerts: 1,
		},
		{
			name: "custom success page suppresses 5xx status",
			msg:  exchange("https://x/", 500, "Welcome back!"),
			opts: []webctx.Option{webctx.WithCustomPages(
				webctx.NewCustomPage(webctx.PageOK, "Welcome back!"),
			)},
			alerts: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data := scanData(t, tc.msg, nil, tc.opts...)
			if got := rule.Scan(tc.msg, data); len(got) != tc.alerts {
				t.Errorf("expected %d alerts, got %d", tc.alerts, len(got))
			}
		})
	}
}

func TestServerErrorRuleWithoutContext(t *testing.T) {
	rule := NewServerError()
	msg := exchange("https://x/", 500, "boom")

	got := rule.Scan(msg, unmatchedScanData(msg))
	if len(got) != 1 {
		t.Fatalf("expected the status fallback to fire without a context, got %d alerts", len(got))
	}
	if got[0].Context != "" {
		t.Errorf("expected no context name on the alert, got %q", got[0].Context)
	}
}

func TestHiddenNotFoundRule(t *testing.T) {
	rule := NewHiddenNotFound()
	notFoundPage := webctx.WithCustomPages(
		webctx.NewCustomPage(webctx.PageNotFound, "we could not find that"),
	)

	testCases := []struct {
		name   string
		msg    *httpmsg.Exchange
		opts   []webctx.Option
		alerts int
	}{
		{
			name:   "not-found body behind 200",
			msg:    exchange("https://x/missing", 200, "sorry, we could not find that"),
			opts:   []webctx.Option{notFoundPage},
			alerts: 1,
		},
		{
			name:   "not-found body behind 404 is honest",
			msg:    exchange("https://x/missing", 404, "sorry, we could not find that"),
			opts:   []webctx.Option{notFoundPage},
			alerts: 0,
		},
		{
			name:   "regular page",
			msg:    exchange("https://x/home", 200, "welcome"),
			opts:   []webctx.Option{notFoundPage},
			alerts: 0,
		},
		{
			name:   "no definitions means no signal",
			msg:    exchange("https://x/missing", 200, "sorry, we could not find that"),
			alerts: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data := scanData(t, tc.msg, nil, tc.opts...)
			if got := rule.Scan(tc.msg, data); len(got) != tc.alerts {
				t.Errorf("expected %d alerts, got %d", tc.alerts, len(got))
			}
		})
	}
}

func TestHiddenNotFoundRuleWithoutContext(t *testing.T) {
	rule := NewHiddenNotFound()
	msg := exchange("https://x/missing", 200, "we could not find that")
	if got := rule.Scan(msg, unmatchedScanData(msg)); len(got) != 0 {
		t.Errorf("expected no alerts without a context, got %d", len(got))
	}
}

func TestUserDisclosureRule(t *testing.T) {
	rule := NewUserDisclosure()

	manager := users.NewManager()
	mgr := manager.EnsureAuthManager(1)
	mgr.Add(users.User{ID: 1, ContextID: 1, Name: "j.sterling", Enabled: true})
	mgr.Add(users.User{ID: 2, ContextID: 1, Name: "m.okafor", Enabled: false})

	testCases := []struct {
		name   string
		body   string
		alerts int
	}{
		{
			name:   "enabled user leaked",
			body:   "last modified by j.sterling on Friday",
			alerts: 1,
		},
		{
			name:   "disabled user ignored",
			body:   "report prepared for m.okafor",
			alerts: 0,
		},
		{
			name:   "no user names",
			body:   "nothing interesting here",
			alerts: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			msg := exchange("https://x/report", 200, tc.body)
			data := scanData(t, msg, manager)
			if got := rule.Scan(msg, data); len(got) != tc.alerts {
				t.Errorf("expected %d alerts, got %d", tc.alerts, len(got))
			}
		})
	}
}

func TestUserDisclosureRuleWithoutUsers(t *testing.T) {
	rule := NewUserDisclosure()
	msg := exchange("https://x/", 200, "anything")

	if got := rule.Scan(msg, unmatchedScanData(msg)); len(got) != 0 {
		t.Errorf("expected no alerts without a context, got %d", len(got))
	}
	if got := rule.Scan(msg, scanData(t, msg, nil)); len(got) != 0 {
		t.Errorf("expected no alerts without a user service, got %d", len(got))
	}
}
