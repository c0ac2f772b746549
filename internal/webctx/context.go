// Package webctx models operator-configured site contexts: named groupings
// of URL patterns, technology scope, custom page definitions, and the
// registry that matches captured messages to them.
package webctx

import (
	"fmt"
	"regexp"

	"github.com/kestrelsec/kestrel/internal/httpmsg"
)

// Context is a named grouping of URL-matching rules, technology scope, and
// custom page definitions configured by the operator. Contexts are read-only
// once built; the scanning pipeline never mutates them.
type Context struct {
	id          int
	name        string
	includes    []*regexp.Regexp
	excludes    []*regexp.Regexp
	techSet     TechSet
	customPages map[PageKind][]CustomPage
}

// Option configures a Context during construction.
type Option func(*Context) error

// WithIncludePatterns adds URL regex patterns that place a URL in the context.
func WithIncludePatterns(patterns ...string) Option {
	return func(c *Context) error {
		for _, p := range patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return fmt.Errorf("include pattern %q: %w", p, err)
			}
			c.includes = append(c.includes, re)
		}
		return nil
	}
}

// WithExcludePatterns adds URL regex patterns that remove a URL from the
// context even when an include pattern matches.
func WithExcludePatterns(patterns ...string) Option {
	return func(c *Context) error {
		for _, p := range patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return fmt.Errorf("exclude pattern %q: %w", p, err)
			}
			c.excludes = append(c.excludes, re)
		}
		return nil
	}
}

// WithTechSet sets the technology scope of the context.
func WithTechSet(set TechSet) Option {
	return func(c *Context) error {
		c.techSet = set
		return nil
	}
}

// WithCustomPages registers custom page definitions on the context.
func WithCustomPages(pages ...CustomPage) Option {
	return func(c *Context) error {
		for _, p := range pages {
			c.customPages[p.Kind()] = append(c.customPages[p.Kind()], p)
		}
		return nil
	}
}

// New creates a context with the given stable identifier and name. Pattern
// compilation failures abort construction.
func New(id int, name string, opts ...Option) (*Context, error) {
	c := &Context{
		id:          id,
		name:        name,
		techSet:     AllTech,
		customPages: make(map[PageKind][]CustomPage),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// ID returns the stable identifier of the context.
func (c *Context) ID() int {
	return c.id
}

// Name returns the operator-assigned name of the context.
func (c *Context) Name() string {
	return c.name
}

// TechSet returns the technology scope of the context.
func (c *Context) TechSet() TechSet {
	return c.techSet
}

// IsIncluded reports whether the given URL belongs to the context: at least
// one include pattern matches and no exclude pattern does.
func (c *Context) IsIncluded(url string) bool {
	if url == "" {
		return false
	}
	included := false
	for _, re := range c.includes {
		if re.MatchString(url) {
			included = true
			break
		}
	}
	if !included {
		return false
	}
	for _, re := range c.excludes {
		if re.MatchString(url) {
			return false
		}
	}
	return true
}

// CustomPages returns the definitions registered for the given kind.
func (c *Context) CustomPages(kind PageKind) []CustomPage {
	return c.customPages[kind]
}

// IsCustomPage reports whether any enabled definition of the given kind
// matches the exchange. No definitions means no match.
func (c *Context) IsCustomPage(msg *httpmsg.Exchange, kind PageKind) bool {
	for _, page := range c.customPages[kind] {
		if page.Matches(msg) {
			return true
		}
	}
	return false
}

// IsCustomPageWithFallback reports whether the exchange matches the given
// kind. When the context has at least one enabled definition for the kind,
// only those definitions decide. Otherwise the status code class decides:
// 200-class for PageOK, 404 for PageNotFound, 500-class for PageServerError.
// PageOther has no status fallback.
func (c *Context) IsCustomPageWithFallback(msg *httpmsg.Exchange, kind PageKind) bool {
	if msg == nil {
		return false
	}
	if c.hasEnabledCustomPages(kind) {
		return c.IsCustomPage(msg, kind)
	}

	status := msg.Response.StatusCode
	switch kind {
	case PageOK:
		return status >= 200 && status < 300
	case PageNotFound:
		return status == 404
	case PageServerError:
		return status >= 500 && status < 600
	default:
		return false
	}
}

// hasEnabledCustomPages reports whether any enabled definition exists for the kind.
func (c *Context) hasEnabledCustomPages(kind PageKind) bool {
	for _, page := range c.customPages[kind] {
		if page.Enabled() {
			return true
		}
	}
	return false
}
