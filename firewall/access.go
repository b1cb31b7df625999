package firewall

import (
	"sync"

	"github.com/gatehouse-auth/gatehouse/request"
)

// AccessAttribute caches the index of the matched access rule on the
// request.
const AccessAttribute = "gatehouse.access_rule"

type accessEntry struct {
	matcher    *Matcher
	attributes []string
	channel    string
}

// AccessMap holds the ordered (matcher, security attributes, channel)
// rules an external access-decision step consumes. First match wins.
type AccessMap struct {
	mu      sync.RWMutex
	entries []accessEntry
}

// NewAccessMap returns an empty access map.
func NewAccessMap() *AccessMap {
	return &AccessMap{}
}

// Add appends a rule.
func (m *AccessMap) Add(matcher *Matcher, attributes []string, channel string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, accessEntry{matcher: matcher, attributes: attributes, channel: channel})
}

// Patterns returns the security attributes and required channel of the
// first rule matching the request, (nil, "") when none match. The matched
// rule index is cached on the request.
func (m *AccessMap) Patterns(req *request.Request) ([]string, string) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if v, ok := req.Attribute(AccessAttribute); ok {
		if idx, ok := v.(int); ok && idx >= 0 && idx < len(m.entries) {
			e := m.entries[idx]
			return e.attributes, e.channel
		}
	}

	for i, e := range m.entries {
		if e.matcher.Matches(req) {
			req.SetAttribute(AccessAttribute, i)
			return e.attributes, e.channel
		}
	}
	return nil, ""
}
