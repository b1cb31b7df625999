package firewall

import (
	"context"
	"net/http"

	"github.com/gatehouse-auth/gatehouse/request"
	"github.com/gatehouse-auth/gatehouse/token"
)

// LogoutListener clears the request's token storage and expires the
// remember-me cookie when the logout path is hit, then redirects. Wired
// into a firewall context's logout slot, constructed per request alongside
// the storage it clears.
type LogoutListener struct {
	Path       string
	RedirectTo string
	CookieName string
	Storage    *token.Storage
}

// Supports answers yes only on the logout path.
func (l *LogoutListener) Supports(req *request.Request) Support {
	if req.URL.Path == l.Path {
		return SupportYes
	}
	return SupportNo
}

// Handle destroys the current token and produces the terminal redirect.
func (l *LogoutListener) Handle(_ context.Context, req *request.Request) (*request.Response, error) {
	if req.URL.Path != l.Path {
		return nil, nil
	}

	l.Storage.SetToken(nil)

	target := l.RedirectTo
	if target == "" {
		target = "/"
	}
	resp := request.Redirect(target)
	if l.CookieName != "" {
		resp.AddCookie(&http.Cookie{
			Name:   l.CookieName,
			Value:  "",
			Path:   "/",
			MaxAge: -1,
		})
	}
	return resp, nil
}
