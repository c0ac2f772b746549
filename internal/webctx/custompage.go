package webctx

import (
	"regexp"
	"strings"

	"github.com/kestrelsec/kestrel/internal/httpmsg"
)

// PageKind is a page classification kind used by custom page definitions.
type PageKind int

const (
	// PageOK classifies a response as a success page (200-class).
	PageOK PageKind = iota + 1
	// PageNotFound classifies a response as a not-found page (404-class).
	PageNotFound
	// PageServerError classifies a response as a server error page (500-class).
	PageServerError
	// PageOther classifies a response that fits none of the above.
	PageOther
)

// String returns the stable configuration name of the kind.
func (k PageKind) String() string {
	switch k {
	case PageOK:
		return "ok_200"
	case PageNotFound:
		return "notfound_404"
	case PageServerError:
		return "error_500"
	case PageOther:
		return "other"
	default:
		return "unknown"
	}
}

// ParsePageKind maps a configuration name to its PageKind.
func ParsePageKind(s string) (PageKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ok_200", "ok", "200":
		return PageOK, true
	case "notfound_404", "notfound", "404":
		return PageNotFound, true
	case "error_500", "error", "500":
		return PageServerError, true
	case "other":
		return PageOther, true
	default:
		return 0, false
	}
}

// CustomPage is an operator-configured signature describing what a page of a
// given kind looks like for a site, used when the site's own status codes are
// unreliable indicators.
type CustomPage struct {
	kind    PageKind
	content string
	pattern *regexp.Regexp
	enabled bool
}

// NewCustomPage builds a literal-content custom page definition.
func NewCustomPage(kind PageKind, content string) CustomPage {
	return CustomPage{kind: kind, content: content, enabled: true}
}

// NewCustomPageRegex builds a regex custom page definition. The pattern is
// compiled up front so a bad pattern surfaces at configuration time.
func NewCustomPageRegex(kind PageKind, pattern string) (CustomPage, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return CustomPage{}, err
	}
	return CustomPage{kind: kind, content: pattern, pattern: re, enabled: true}, nil
}

// Disabled returns a copy of the definition marked disabled. Disabled
// definitions never match.
func (p CustomPage) Disabled() CustomPage {
	p.enabled = false
	return p
}

// Kind returns the classification kind this definition belongs to.
func (p CustomPage) Kind() PageKind {
	return p.kind
}

// Enabled reports whether the definition participates in matching.
func (p CustomPage) Enabled() bool {
	return p.enabled
}

// Matches checks the definition against the full response rendering of the
// given exchange: status line, headers, and body.
func (p CustomPage) Matches(msg *httpmsg.Exchange) bool {
	if !p.enabled || msg == nil {
		return false
	}
	text := msg.Response.Text()
	if p.pattern != nil {
		return p.pattern.MatchString(text)
	}
	return p.content != "" && strings.Contains(text, p.content)
}
