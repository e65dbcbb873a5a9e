package validation

import (
	"github.com/hanpama/querycheck/internal/schema"
)

// possibleTypeNames returns the concrete types t may resolve to, memoized for
// the run.
func (c *Context) possibleTypeNames(t *schema.Type) map[string]bool {
	if set, ok := c.possible[t.Name]; ok {
		return set
	}
	set := map[string]bool{}
	for _, pt := range c.schema.PossibleTypes(t) {
		set[pt.Name] = true
	}
	c.possible[t.Name] = set
	return set
}

// typesOverlap reports whether some concrete type satisfies both a and b.
func (c *Context) typesOverlap(a, b *schema.Type) bool {
	if a == nil || b == nil {
		return true
	}
	if a.Name == b.Name {
		return true
	}
	pa, pb := c.possibleTypeNames(a), c.possibleTypeNames(b)
	for name := range pa {
		if pb[name] {
			return true
		}
	}
	return false
}

// effectiveTypes narrows a scope list to the concrete types an object must
// have to reach its innermost selection set. Unknown scopes do not narrow.
// ok is false when nothing in the list is known.
func (c *Context) effectiveTypes(scopes []*schema.Type) (set map[string]bool, ok bool) {
	for _, t := range scopes {
		if t == nil {
			continue
		}
		pts := c.possibleTypeNames(t)
		if !ok {
			set, ok = pts, true
			continue
		}
		narrowed := map[string]bool{}
		for name := range set {
			if pts[name] {
				narrowed[name] = true
			}
		}
		set = narrowed
	}
	return set, ok
}

// mutuallyExclusive reports whether no single object can be in both scopes.
// An empty scope list is never exclusive: it is assumed to be the same type.
func (c *Context) mutuallyExclusive(s1, s2 []*schema.Type) bool {
	if len(s1) == 0 || len(s2) == 0 {
		return false
	}
	e1, ok1 := c.effectiveTypes(s1)
	e2, ok2 := c.effectiveTypes(s2)
	// Scopes nothing can satisfy say nothing about each other.
	if !ok1 || !ok2 || len(e1) == 0 || len(e2) == 0 {
		return false
	}
	for name := range e1 {
		if e2[name] {
			return false
		}
	}
	return true
}
