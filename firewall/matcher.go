// Package firewall resolves which security boundary governs a request and
// drives its listener chain, eagerly or deferred.
package firewall

import (
	"regexp"
	"slices"

	"github.com/gatehouse-auth/gatehouse/request"
)

// Matcher decides whether a firewall or access rule applies to a request.
// An empty matcher matches everything.
type Matcher struct {
	pathRe  *regexp.Regexp
	hostRe  *regexp.Regexp
	methods []string
}

// NewMatcher compiles a path-pattern matcher. The pattern is anchored at
// the start of the request path; methods, when given, restrict the match.
func NewMatcher(pathPattern string, methods ...string) (*Matcher, error) {
	m := &Matcher{methods: methods}
	if pathPattern != "" {
		re, err := regexp.Compile("^(?:" + pathPattern + ")")
		if err != nil {
			return nil, err
		}
		m.pathRe = re
	}
	return m, nil
}

// MatchAll returns a matcher that applies to every request.
func MatchAll() *Matcher {
	return &Matcher{}
}

// WithHost restricts the matcher to hosts matching the given pattern.
func (m *Matcher) WithHost(hostPattern string) (*Matcher, error) {
	re, err := regexp.Compile(hostPattern)
	if err != nil {
		return nil, err
	}
	m.hostRe = re
	return m, nil
}

// Matches reports whether the rule applies to the request.
func (m *Matcher) Matches(req *request.Request) bool {
	if len(m.methods) > 0 && !slices.Contains(m.methods, req.Method) {
		return false
	}
	if m.pathRe != nil && !m.pathRe.MatchString(req.URL.Path) {
		return false
	}
	if m.hostRe != nil && !m.hostRe.MatchString(req.Host) {
		return false
	}
	return true
}
