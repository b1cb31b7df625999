package gatehouse

import (
	"errors"
	"time"
)

// Config holds the pipeline's tuning. Zero values are filled by
// defaultConfig; Validate runs at Build time.
type Config struct {
	// FirewallName tags every token established through this engine.
	FirewallName string

	// HideUserNotFound enables the anti-enumeration masking policy:
	// user-not-found and non-custom account-status errors surface as the
	// flat bad-credentials error.
	HideUserNotFound bool

	// EraseCredentials strips secret material from tokens after a
	// successful authentication.
	EraseCredentials bool

	FormLogin  FormLoginConfig
	RemoteUser RemoteUserConfig
	Csrf       CsrfConfig
	Captcha    CaptchaConfig
	RememberMe RememberMeConfig
	RateLimit  RateLimitConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

// FormLoginConfig names the form parameters the FormLogin variant reads.
type FormLoginConfig struct {
	UsernameParameter   string
	PasswordParameter   string
	RememberMeParameter string
	// FailurePath, when set, turns form-login failures into a redirect
	// response instead of a propagated error.
	FailurePath string
}

// RemoteUserConfig names the trusted upstream header.
type RemoteUserConfig struct {
	Header string
}

// CsrfConfig tunes the CsrfToken variant.
type CsrfConfig struct {
	ParameterName string
	TokenID       string
}

// CaptchaConfig names the captcha response parameter.
type CaptchaConfig struct {
	ParameterName string
}

// RememberMeConfig tunes persistent-login cookie issuance.
type RememberMeConfig struct {
	Enabled    bool
	Secret     []byte
	Lifetime   time.Duration
	CookieName string
	Path       string
	Domain     string
}

// RateLimitConfig tunes the login-attempt limiter.
type RateLimitConfig struct {
	Enabled     bool
	MaxAttempts int
	Cooldown    time.Duration
	KeyPrefix   string
}

// AuditConfig tunes asynchronous audit dispatch.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig toggles Prometheus instrumentation.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the configuration New seeds the builder with.
// Callers wanting to tweak a field or two start from it rather than a
// zero Config.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		FirewallName:     "main",
		HideUserNotFound: true,
		EraseCredentials: true,
		FormLogin: FormLoginConfig{
			UsernameParameter:   "_username",
			PasswordParameter:   "_password",
			RememberMeParameter: "_remember_me",
		},
		RemoteUser: RemoteUserConfig{Header: "X-Remote-User"},
		Csrf: CsrfConfig{
			ParameterName: "_csrf_token",
			TokenID:       "authenticate",
		},
		Captcha: CaptchaConfig{ParameterName: "captcha_response"},
		RateLimit: RateLimitConfig{
			MaxAttempts: 5,
			Cooldown:    time.Minute,
		},
		Audit: AuditConfig{
			BufferSize: 256,
			DropIfFull: true,
		},
	}
}

// Validate checks cross-field consistency.
func (c Config) Validate() error {
	if c.FirewallName == "" {
		return errors.New("firewall name required")
	}
	if c.RememberMe.Enabled && len(c.RememberMe.Secret) == 0 {
		return errors.New("remember-me requires a secret")
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.MaxAttempts <= 0 {
			return errors.New("rate limit requires a positive attempt budget")
		}
		if c.RateLimit.Cooldown <= 0 {
			return errors.New("rate limit requires a positive cooldown")
		}
	}
	return nil
}
