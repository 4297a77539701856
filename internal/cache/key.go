package cache

import (
	"net/url"
	"strings"
)

// unset marks a field that was not supplied, so it never collides with any
// supplied value (supplied values always start with '=').
const unset = "-"

// Field is one component of a cache key. Set is false for absent filters.
type Field struct {
	Value string
	Set   bool
}

// F is a supplied field.
func F(v string) Field { return Field{Value: v, Set: true} }

// Opt treats the empty string as absent.
func Opt(v string) Field { return Field{Value: v, Set: v != ""} }

// Key derives a deterministic key from a namespace and ordered fields. Distinct
// field tuples always produce distinct keys: values are query-escaped, so they
// cannot contain the ':' separator.
func Key(namespace string, fields ...Field) string {
	var b strings.Builder
	b.WriteString(namespace)
	for _, f := range fields {
		b.WriteByte(':')
		if !f.Set {
			b.WriteString(unset)
			continue
		}
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(f.Value))
	}
	return b.String()
}
