// Package request wraps net/http request and response messages with the
// small amount of extra state the authentication pipeline needs: a
// per-request attribute bag (which doubles as the request-scoped cache used
// by the firewall and access maps) and lazily parsed form and JSON body views.
package request

import (
	"encoding/json"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
)

const maxBodyBytes = 1 << 20

// Request decorates an *http.Request. It is not safe for concurrent use;
// one Request belongs to one request-handling goroutine.
type Request struct {
	*http.Request

	attrs map[string]any

	formParsed bool
	form       url.Values

	jsonParsed bool
	jsonBody   map[string]any
}

// Wrap builds a pipeline Request around an inbound *http.Request.
func Wrap(r *http.Request) *Request {
	return &Request{Request: r}
}

// Attribute returns a request attribute and whether it was set.
func (r *Request) Attribute(name string) (any, bool) {
	if r.attrs == nil {
		return nil, false
	}
	v, ok := r.attrs[name]
	return v, ok
}

// SetAttribute stores a request-scoped attribute.
func (r *Request) SetAttribute(name string, value any) {
	if r.attrs == nil {
		r.attrs = make(map[string]any)
	}
	r.attrs[name] = value
}

// RemoveAttribute deletes a request-scoped attribute.
func (r *Request) RemoveAttribute(name string) {
	delete(r.attrs, name)
}

// FormValues returns the parsed POST form. The body is parsed at most once;
// non-form content types yield an empty set.
func (r *Request) FormValues() url.Values {
	if r.formParsed {
		return r.form
	}
	r.formParsed = true
	r.form = url.Values{}

	ct := r.contentType()
	if ct != "application/x-www-form-urlencoded" && !strings.HasPrefix(ct, "multipart/") {
		return r.form
	}
	if err := r.ParseForm(); err == nil {
		r.form = r.PostForm
	}
	return r.form
}

// JSONBody returns the decoded JSON object body, or nil when the request
// does not carry one. The body is decoded at most once.
func (r *Request) JSONBody() map[string]any {
	if r.jsonParsed {
		return r.jsonBody
	}
	r.jsonParsed = true

	if r.contentType() != "application/json" || r.Body == nil {
		return nil
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil
	}
	r.jsonBody = decoded
	return r.jsonBody
}

// QueryValue returns the first query parameter with the given name.
func (r *Request) QueryValue(name string) (string, bool) {
	q := r.URL.Query()
	if _, ok := q[name]; !ok {
		return "", false
	}
	return q.Get(name), true
}

// IsMethodSafe reports whether the request method is idempotent-safe
// for the purposes of deferred firewall execution.
func (r *Request) IsMethodSafe() bool {
	return r.Method == http.MethodGet || r.Method == http.MethodHead
}

// ClientIP returns the originating client address, honoring the first
// X-Forwarded-For hop when present.
func (r *Request) ClientIP() string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (r *Request) contentType() string {
	raw := r.Header.Get("Content-Type")
	if raw == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(raw)
	if err != nil {
		return ""
	}
	return mt
}
