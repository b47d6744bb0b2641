package query

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Key is the identity of one logical read: a resource name followed by its
// parameters, e.g. Key{"tasks", "pending", "", 50, 0}. Two keys are the same
// identity when their elements encode to the same JSON values, so elements
// should be scalars (strings, numbers, bools, nil).
type Key []any

// String returns the canonical encoding used to index the cache.
func (k Key) String() string {
	return "[" + strings.Join(k.parts(), ",") + "]"
}

// Equal reports whether k and o are the same identity.
func (k Key) Equal(o Key) bool {
	return len(k) == len(o) && k.HasPrefix(o)
}

// HasPrefix reports whether the first len(p) elements of k equal p.
func (k Key) HasPrefix(p Key) bool {
	if len(p) > len(k) {
		return false
	}
	for i := range p {
		if encode(k[i]) != encode(p[i]) {
			return false
		}
	}
	return true
}

func (k Key) parts() []string {
	out := make([]string, len(k))
	for i, v := range k {
		out[i] = encode(v)
	}
	return out
}

func encode(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%#v", v)
	}
	return string(b)
}

// Matcher selects cache entries by identity.
type Matcher interface {
	Match(Key) bool
}

// MatcherFunc adapts a predicate to Matcher.
type MatcherFunc func(Key) bool

// Match calls f(k).
func (f MatcherFunc) Match(k Key) bool { return f(k) }

// Exact matches one identity.
func Exact(k Key) Matcher {
	return MatcherFunc(func(o Key) bool { return o.Equal(k) })
}

// Prefix matches every identity whose leading elements equal p, compared
// element by element. Prefix(Key{"task"}) does not match Key{"tasks"}.
func Prefix(p Key) Matcher {
	return MatcherFunc(func(o Key) bool { return o.HasPrefix(p) })
}

// All matches every identity.
func All() Matcher {
	return MatcherFunc(func(Key) bool { return true })
}

func matchAny(k Key, ms []Matcher) bool {
	for _, m := range ms {
		if m != nil && m.Match(k) {
			return true
		}
	}
	return false
}
