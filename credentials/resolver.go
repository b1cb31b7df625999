// Package credentials extracts named values from a request by path.
//
// A path follows the grammar
//
//	identifier ('[' identifier ']')*
//
// The root identifier is looked up against request attributes first, then
// query parameters, then the parsed form or JSON-decoded body. Bracketed
// segments apply nested map or index access to the resolved root value.
// Unresolvable paths yield nil; only malformed path syntax is an error.
package credentials

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/gatehouse-auth/gatehouse/request"
)

// ErrMalformedPath reports invalid credential path syntax.
var ErrMalformedPath = errors.New("malformed credential path")

// Resolver extracts credential values from requests.
type Resolver struct{}

// Resolve returns the value at path, or nil when the path does not resolve.
func (Resolver) Resolve(req *request.Request, path string) (any, error) {
	root, segments, err := parsePath(path)
	if err != nil {
		return nil, err
	}

	value := lookupRoot(req, root)
	for _, seg := range segments {
		if value == nil {
			return nil, nil
		}
		value = access(value, seg)
	}
	return value, nil
}

// Bag resolves each path into an ordered credentials bag, keyed by the
// full path string. Resolution happens once; the bag is read-only afterward.
func (r Resolver) Bag(req *request.Request, paths []string) (*Bag, error) {
	bag := newBag()
	for _, p := range paths {
		v, err := r.Resolve(req, p)
		if err != nil {
			return nil, err
		}
		bag.set(p, v)
	}
	return bag, nil
}

func lookupRoot(req *request.Request, name string) any {
	if v, ok := req.Attribute(name); ok {
		return v
	}
	if v, ok := req.QueryValue(name); ok {
		return v
	}
	if form := req.FormValues(); form.Has(name) {
		return form.Get(name)
	}
	if body := req.JSONBody(); body != nil {
		if v, ok := body[name]; ok {
			return v
		}
	}
	return nil
}

func access(value any, key string) any {
	switch v := value.(type) {
	case map[string]any:
		return v[key]
	case map[string]string:
		if s, ok := v[key]; ok {
			return s
		}
		return nil
	case url.Values:
		if v.Has(key) {
			return v.Get(key)
		}
		return nil
	case []any:
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 || idx >= len(v) {
			return nil
		}
		return v[idx]
	}
	return nil
}

// parsePath is a single left-to-right pass over the fixed grammar
// identifier ('[' identifier ']')*. No reflection, no general expressions.
func parsePath(path string) (root string, segments []string, err error) {
	if path == "" {
		return "", nil, fmt.Errorf("%w: empty path", ErrMalformedPath)
	}

	open := strings.IndexByte(path, '[')
	if open < 0 {
		if strings.IndexByte(path, ']') >= 0 {
			return "", nil, fmt.Errorf("%w: %q", ErrMalformedPath, path)
		}
		if !validIdentifier(path) {
			return "", nil, fmt.Errorf("%w: %q", ErrMalformedPath, path)
		}
		return path, nil, nil
	}

	root = path[:open]
	if !validIdentifier(root) {
		return "", nil, fmt.Errorf("%w: %q", ErrMalformedPath, path)
	}

	rest := path[open:]
	for len(rest) > 0 {
		if rest[0] != '[' {
			return "", nil, fmt.Errorf("%w: %q", ErrMalformedPath, path)
		}
		close := strings.IndexByte(rest, ']')
		if close < 0 {
			return "", nil, fmt.Errorf("%w: unterminated bracket in %q", ErrMalformedPath, path)
		}
		seg := rest[1:close]
		if !validIdentifier(seg) {
			return "", nil, fmt.Errorf("%w: %q", ErrMalformedPath, path)
		}
		segments = append(segments, seg)
		rest = rest[close+1:]
	}
	return root, segments, nil
}

func validIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '_' || c == '-' || c == '.':
		default:
			return false
		}
	}
	return true
}
