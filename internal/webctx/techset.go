package webctx

import (
	"sort"
)

// Tech identifies a single technology considered in scope for a site,
// e.g. "Apache", "PHP", "MySQL".
type Tech string

// TechSet describes which technologies are in scope for matching and
// assessment. The zero value includes nothing; AllTech includes everything.
// TechSet values are immutable once built.
type TechSet struct {
	all   bool
	techs map[Tech]struct{}
}

// AllTech is the universal sentinel meaning every technology is in scope.
// It is used when a message could not be matched to any context.
var AllTech = TechSet{all: true}

// NewTechSet builds a set from the given technologies.
func NewTechSet(techs ...Tech) TechSet {
	set := make(map[Tech]struct{}, len(techs))
	for _, t := range techs {
		if t == "" {
			continue
		}
		set[t] = struct{}{}
	}
	return TechSet{techs: set}
}

// IsAll reports whether this is the universal set.
func (s TechSet) IsAll() bool {
	return s.all
}

// Includes reports whether the given technology is in scope.
func (s TechSet) Includes(t Tech) bool {
	if s.all {
		return true
	}
	_, ok := s.techs[t]
	return ok
}

// IncludesAny reports whether any of the given technologies is in scope.
func (s TechSet) IncludesAny(techs ...Tech) bool {
	if s.all {
		return true
	}
	for _, t := range techs {
		if _, ok := s.techs[t]; ok {
			return true
		}
	}
	return false
}

// List returns the included technologies in sorted order. The universal set
// returns nil: its membership is not enumerable.
func (s TechSet) List() []Tech {
	if s.all || len(s.techs) == 0 {
		return nil
	}
	out := make([]Tech, 0, len(s.techs))
	for t := range s.techs {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
