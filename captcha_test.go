package gatehouse

import (
	"context"
	"errors"
	"net/url"
	"testing"
)

type recordingVerifier struct {
	accept   string
	response string
	clientIP string
}

func (v *recordingVerifier) Verify(_ context.Context, response, clientIP string) error {
	v.response = response
	v.clientIP = clientIP
	if response != v.accept {
		return ErrCaptchaRejected
	}
	return nil
}

func TestCaptchaGuardsFormLogin(t *testing.T) {
	engine := newTestEngine(t, nil)
	verifier := &recordingVerifier{accept: "ok-token"}
	engine.Registry().Add(engine.NewCaptcha(verifier))
	engine.Registry().Add(engine.NewFormLogin())

	keys := append([]string{"captcha_response"}, formLoginKeys...)

	req := loginRequest(t, url.Values{
		"_username":        {"alice"},
		"_password":        {"s3cret"},
		"captcha_response": {"bogus"},
	})
	if _, err := engine.Authenticate(context.Background(), req, keys); !errors.Is(err, ErrCaptchaRejected) {
		t.Fatalf("expected ErrCaptchaRejected, got %v", err)
	}
	if verifier.response != "bogus" {
		t.Fatalf("verifier saw %q", verifier.response)
	}
	if verifier.clientIP == "" {
		t.Fatal("verifier must receive the client ip")
	}

	req = loginRequest(t, url.Values{
		"_username":        {"alice"},
		"_password":        {"s3cret"},
		"captcha_response": {"ok-token"},
	})
	if _, err := engine.Authenticate(context.Background(), req, keys); err != nil {
		t.Fatalf("valid captcha must pass through, got %v", err)
	}
	if tok := RequestStorage(req).Token(); tok.Username() != "alice" {
		t.Fatalf("expected alice after the guard, got %q", tok.Username())
	}
}
