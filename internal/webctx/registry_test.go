package webctx

import (
	"testing"
)

func newRegistryWith(t *testing.T, patterns ...string) (*Registry, []*Context) {
	t.Helper()
	r := NewRegistry()
	contexts := make([]*Context, 0, len(patterns))
	for i, p := range patterns {
		c, err := New(i+1, p, WithIncludePatterns(p))
		if err != nil {
			t.Fatalf("building context: %v", err)
		}
		r.Add(c)
		contexts = append(contexts, c)
	}
	return r, contexts
}

func TestRegistryContextsForURLOrder(t *testing.T) {
	r, contexts := newRegistryWith(t,
		`https://example\.com/.*`,
		`https://example\.com/app/.*`,
		`https://other\.example\.org/.*`,
	)

	matched := r.ContextsForURL("https://example.com/app/login")
	if len(matched) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matched))
	}
	if matched[0] != contexts[0] || matched[1] != contexts[1] {
		t.Error("matches are not in registration order")
	}

	if got := r.ContextsForURL("https://nomatch.example.net/"); len(got) != 0 {
		t.Errorf("expected no matches, got %d", len(got))
	}
}

func TestRegistryContextByID(t *testing.T) {
	r, contexts := newRegistryWith(t, `https://a/.*`, `https://b/.*`)

	if got := r.ContextByID(2); got != contexts[1] {
		t.Error("expected the second registered context")
	}
	if got := r.ContextByID(99); got != nil {
		t.Error("expected nil for an unknown id")
	}
}

func TestRegistryContextsReturnsCopy(t *testing.T) {
	r, _ := newRegistryWith(t, `https://a/.*`)

	got := r.Contexts()
	got[0] = nil

	if r.Contexts()[0] == nil {
		t.Error("mutating the returned slice corrupted the registry")
	}
}

func TestRegistryAddNil(t *testing.T) {
	r := NewRegistry()
	r.Add(nil)
	if len(r.Contexts()) != 0 {
		t.Error("expected nil contexts to be ignored")
	}
}
