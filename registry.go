package gatehouse

import (
	"reflect"
	"sync"
)

// Registry is the ordered authenticator list. Iteration order is
// registration order and is the authoritative contract; a side index keyed
// by variant name serves add/remove/has. Chain execution always snapshots
// the order at call time.
type Registry struct {
	mu    sync.RWMutex
	order []Authenticator
	index map[string]int
}

// NewRegistry builds a registry from the given authenticators, in order.
func NewRegistry(auths ...Authenticator) *Registry {
	r := &Registry{index: make(map[string]int)}
	for _, a := range auths {
		r.Add(a)
	}
	return r
}

// Add appends the authenticator. Nil values are ignored, including typed
// nil pointers such as a disabled Engine.NewRememberMe result. Re-adding a
// variant replaces it in place, keeping its original position.
func (r *Registry) Add(a Authenticator) {
	if a == nil {
		return
	}
	if v := reflect.ValueOf(a); v.Kind() == reflect.Pointer && v.IsNil() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if pos, ok := r.index[a.Name()]; ok {
		r.order[pos] = a
		return
	}
	r.index[a.Name()] = len(r.order)
	r.order = append(r.order, a)
}

// Remove deletes the variant by name; unknown names are a no-op.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pos, ok := r.index[name]
	if !ok {
		return
	}
	r.order = append(r.order[:pos], r.order[pos+1:]...)
	delete(r.index, name)
	for i := pos; i < len(r.order); i++ {
		r.index[r.order[i].Name()] = i
	}
}

// Has reports whether the variant is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.index[name]
	return ok
}

// Len returns the number of registered authenticators.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

func (r *Registry) snapshot() []Authenticator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Authenticator, len(r.order))
	copy(out, r.order)
	return out
}
