package credentials

import (
	"fmt"
	"strings"
)

// Bag is an ordered parameter-name to resolved-value map built once per
// authentication attempt. Values may be strings, scalars, or nil.
type Bag struct {
	keys   []string
	values map[string]any
}

func newBag() *Bag {
	return &Bag{values: make(map[string]any)}
}

func (b *Bag) set(key string, value any) {
	if _, exists := b.values[key]; !exists {
		b.keys = append(b.keys, key)
	}
	b.values[key] = value
}

// Keys returns the parameter names in resolution order.
func (b *Bag) Keys() []string {
	out := make([]string, len(b.keys))
	copy(out, b.keys)
	return out
}

// Has reports whether the bag holds a non-nil value for key.
func (b *Bag) Has(key string) bool {
	v, ok := b.values[key]
	return ok && v != nil
}

// Get returns the resolved value for key, nil when absent.
func (b *Bag) Get(key string) any {
	return b.values[key]
}

// String returns the value for key rendered as a string. Nil values and
// missing keys yield the empty string.
func (b *Bag) String(key string) string {
	switch v := b.values[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Flag interprets the value for key as a boolean-ish opt-in:
// true, "1", "true", "on" and "yes" count as set.
func (b *Bag) Flag(key string) bool {
	switch v := b.values[key].(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(v) {
		case "1", "true", "on", "yes":
			return true
		}
	case float64:
		return v != 0
	}
	return false
}
