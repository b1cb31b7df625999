package gatehouse

import (
	"context"

	"github.com/gatehouse-auth/gatehouse/credentials"
	"github.com/gatehouse-auth/gatehouse/request"
	"github.com/gatehouse-auth/gatehouse/token"
)

// Captcha is a guard verifying a challenge response before the
// credential authenticator runs. Like CsrfToken it never produces a
// token of its own.
type Captcha struct {
	cfg      CaptchaConfig
	verifier CaptchaVerifier
}

// NewCaptcha builds the guard around a verifier.
func NewCaptcha(cfg CaptchaConfig, verifier CaptchaVerifier) *Captcha {
	if cfg.ParameterName == "" {
		cfg.ParameterName = "captcha_response"
	}
	return &Captcha{cfg: cfg, verifier: verifier}
}

// NewCaptcha builds the guard from the engine's configuration.
func (e *Engine) NewCaptcha(verifier CaptchaVerifier) *Captcha {
	return NewCaptcha(e.config.Captcha, verifier)
}

func (a *Captcha) Name() string { return "captcha" }

func (a *Captcha) Supports(req *request.Request) bool {
	return !req.IsMethodSafe()
}

func (a *Captcha) Authenticate(ctx context.Context, req *request.Request, bag *credentials.Bag, _ string) (*token.Token, error) {
	response := bag.String(a.cfg.ParameterName)
	if response == "" {
		if v := req.FormValues().Get(a.cfg.ParameterName); v != "" {
			response = v
		}
	}
	if err := a.verifier.Verify(ctx, response, req.ClientIP()); err != nil {
		return nil, err
	}
	return nil, nil
}
