// Package connstr turns resolved data sources into provider connection strings.
package connstr

import "strings"

// Builder accumulates ordered key/value pairs of a connection string
type Builder struct {
	keys   []string
	values map[string]string
}

// NewBuilder returns an empty builder
func NewBuilder() *Builder {
	return &Builder{values: make(map[string]string)}
}

// Set assigns key. Re-setting a key keeps its original position.
func (b *Builder) Set(key, value string) *Builder {
	lk := strings.ToLower(key)
	if _, ok := b.values[lk]; !ok {
		b.keys = append(b.keys, key)
	}
	b.values[lk] = value
	return b
}

// Get returns the value of key
func (b *Builder) Get(key string) (string, bool) {
	v, ok := b.values[strings.ToLower(key)]
	return v, ok
}

// Remove deletes key
func (b *Builder) Remove(key string) {
	lk := strings.ToLower(key)
	if _, ok := b.values[lk]; !ok {
		return
	}
	delete(b.values, lk)
	for i, k := range b.keys {
		if strings.ToLower(k) == lk {
			b.keys = append(b.keys[:i], b.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order
func (b *Builder) Keys() []string {
	return append([]string(nil), b.keys...)
}

// String renders key=value pairs joined by ';'
func (b *Builder) String() string {
	var sb strings.Builder
	for i, k := range b.keys {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(Quote(b.values[strings.ToLower(k)]))
	}
	return sb.String()
}

// Quote wraps v in double quotes when it contains a delimiter, a quote
// character or surrounding whitespace. Embedded double quotes are doubled.
func Quote(v string) string {
	if v == "" {
		return v
	}
	if !strings.ContainsAny(v, `;="'`) && strings.TrimSpace(v) == v {
		return v
	}
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}
