// Package pscan implements the passive scan pass: per-message context
// resolution and the engine that runs scan rules over captured exchanges.
package pscan

import (
	"github.com/rs/zerolog/log"

	"github.com/kestrelsec/kestrel/internal/httpmsg"
	"github.com/kestrelsec/kestrel/internal/users"
	"github.com/kestrelsec/kestrel/internal/webctx"
)

// ScanData provides context-derived facts about a single captured exchange
// to passive scan rules. Details are based on the first context matched, if
// any. One instance is created per exchange at the start of a scan pass and
// discarded when the pass completes; an instance is bound to one exchange
// and is not safe for concurrent use.
type ScanData struct {
	msg     *httpmsg.Exchange
	ctx     *webctx.Context
	techSet webctx.TechSet

	userSvc users.Service

	userList []users.User
	pageMap  map[webctx.PageKind]bool
}

// NewScanData resolves the exchange against the context registry and wires
// the optional user-management service. Resolution happens exactly once,
// here; a nil userSvc means the subsystem is not installed, which degrades
// Users to empty rather than failing.
func NewScanData(msg *httpmsg.Exchange, registry *webctx.Registry, userSvc users.Service) *ScanData {
	d := &ScanData{
		msg:     msg,
		ctx:     resolveContext(registry, msg),
		userSvc: userSvc,
	}

	if d.ctx == nil {
		d.userList = []users.User{}
		d.techSet = webctx.AllTech
	} else {
		d.techSet = d.ctx.TechSet()
	}

	return d
}

// resolveContext asks the registry for all contexts matching the request URL
// and selects the first in registry order. No match is an expected, common
// case and is only surfaced at debug level.
func resolveContext(registry *webctx.Registry, msg *httpmsg.Exchange) *webctx.Context {
	if registry == nil || msg == nil {
		return nil
	}
	matched := registry.ContextsForURL(msg.RequestURL())
	if len(matched) == 0 {
		log.Debug().Str("url", msg.RequestURL()).Msg("no context matched for message")
		return nil
	}
	return matched[0]
}

// HasContext reports whether the exchange was matched to a context.
func (d *ScanData) HasContext() bool {
	return d.ctx != nil
}

// Context returns the context the exchange was matched to, or nil.
func (d *ScanData) Context() *webctx.Context {
	return d.ctx
}

// TechSet returns the technology scope of the matched context, or the
// universal AllTech set when no context matched.
func (d *ScanData) TechSet() webctx.TechSet {
	return d.techSet
}

// Users returns the authorized users of the matched context. The list is
// computed at most once: no context, no user-management service, or no
// registered authentication manager all yield a cached empty list. Callers
// receive a copy, so mutating the result cannot corrupt the cache.
func (d *ScanData) Users() []users.User {
	if d.userList == nil {
		d.userList = d.lookupUsers()
	}
	out := make([]users.User, len(d.userList))
	copy(out, d.userList)
	return out
}

// lookupUsers queries the user-management service once for the matched
// context's user list.
func (d *ScanData) lookupUsers() []users.User {
	if d.userSvc == nil || d.ctx == nil {
		return []users.User{}
	}
	mgr := d.userSvc.AuthManagerForContext(d.ctx.ID())
	if mgr == nil {
		return []users.User{}
	}
	return mgr.Users()
}

// isCustomPage reports whether the message matches the custom page
// definitions of the matched context for the given kind. Without a context
// the answer is always false and nothing is cached. The result is memoized
// per kind for the lifetime of the instance: a second call for the same kind
// returns the first call's cached value even if a different exchange is
// passed, so reuse an instance only for the exchange it was built for.
func (d *ScanData) isCustomPage(msg *httpmsg.Exchange, kind webctx.PageKind) bool {
	if d.ctx == nil {
		return false
	}
	if d.pageMap == nil {
		d.pageMap = make(map[webctx.PageKind]bool, 4)
	}
	if cached, ok := d.pageMap[kind]; ok {
		return cached
	}
	result := d.ctx.IsCustomPageWithFallback(msg, kind)
	d.pageMap[kind] = result
	return result
}

// IsPage200 reports whether the message matches the context's success page
// definitions.
func (d *ScanData) IsPage200(msg *httpmsg.Exchange) bool {
	return d.isCustomPage(msg, webctx.PageOK)
}

// IsPage404 reports whether the message matches the context's not-found
// page definitions.
func (d *ScanData) IsPage404(msg *httpmsg.Exchange) bool {
	return d.isCustomPage(msg, webctx.PageNotFound)
}

// IsPage500 reports whether the message matches the context's server error
// page definitions.
func (d *ScanData) IsPage500(msg *httpmsg.Exchange) bool {
	return d.isCustomPage(msg, webctx.PageServerError)
}

// IsPageOther reports whether the message matches the context's "other"
// page definitions.
func (d *ScanData) IsPageOther(msg *httpmsg.Exchange) bool {
	return d.isCustomPage(msg, webctx.PageOther)
}
