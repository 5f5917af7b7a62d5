package victionary

import (
	"sort"
	"strings"
)

// TypeParameters is a set of name=value parameters attached to a type
// instantiation, such as a length or precision. Its normalized form is
// "k1=v1;k2=v2" sorted by name, so logically identical sets always render
// identically regardless of how they were assembled.
type TypeParameters struct {
	kv map[string]string
}

// NewTypeParameters builds a parameter set from a map; nil means no
// parameters. The map is copied.
func NewTypeParameters(kv map[string]string) TypeParameters {
	if len(kv) == 0 {
		return TypeParameters{}
	}
	m := make(map[string]string, len(kv))
	for k, v := range kv {
		m[k] = v
	}
	return TypeParameters{kv: m}
}

// With returns a copy with one parameter set, replacing any existing value.
func (p TypeParameters) With(name, value string) TypeParameters {
	m := make(map[string]string, len(p.kv)+1)
	for k, v := range p.kv {
		m[k] = v
	}
	m[name] = value
	return TypeParameters{kv: m}
}

// Get looks up one parameter value.
func (p TypeParameters) Get(name string) (string, bool) {
	v, ok := p.kv[name]
	return v, ok
}

func (p TypeParameters) Len() int    { return len(p.kv) }
func (p TypeParameters) Empty() bool { return len(p.kv) == 0 }

// String renders the deterministic normalized form; empty set renders empty.
func (p TypeParameters) String() string {
	if len(p.kv) == 0 {
		return ""
	}
	names := make([]string, 0, len(p.kv))
	for k := range p.kv {
		names = append(names, k)
	}
	sort.Strings(names)

	var sb strings.Builder
	for i, k := range names {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(p.kv[k])
	}
	return sb.String()
}

// Equal compares by normalized form.
func (p TypeParameters) Equal(other TypeParameters) bool {
	if len(p.kv) != len(other.kv) {
		return false
	}
	for k, v := range p.kv {
		if ov, ok := other.kv[k]; !ok || ov != v {
			return false
		}
	}
	return true
}
