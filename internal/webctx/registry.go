package webctx

import (
	"sync"
)

// Registry holds the ordered collection of configured contexts. Order is
// registration order and is significant: the scanning pipeline treats the
// first matching context as authoritative.
type Registry struct {
	// mu guards concurrent access to the context list
	mu       sync.RWMutex
	contexts []*Context
}

// NewRegistry creates an empty context registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add appends a context to the registry, preserving registration order.
func (r *Registry) Add(c *Context) {
	if c == nil {
		return
	}
	r.mu.Lock()
	r.contexts = append(r.contexts, c)
	r.mu.Unlock()
}

// Contexts returns a copy of the registered contexts in registration order.
func (r *Registry) Contexts() []*Context {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Context, len(r.contexts))
	copy(out, r.contexts)
	return out
}

// ContextByID returns the context with the given identifier, or nil.
func (r *Registry) ContextByID(id int) *Context {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.contexts {
		if c.id == id {
			return c
		}
	}
	return nil
}

// ContextsForURL returns every context whose URL rules include the given
// URL, in registration order. An empty result is the normal no-match case,
// not an error.
func (r *Registry) ContextsForURL(url string) []*Context {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []*Context
	for _, c := range r.contexts {
		if c.IsIncluded(url) {
			matched = append(matched, c)
		}
	}
	return matched
}
