package gatehouse

import (
	"testing"
	"time"
)

func TestBuildValidatesConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty firewall name", func(c *Config) { c.FirewallName = "" }},
		{"remember-me without secret", func(c *Config) { c.RememberMe.Enabled = true }},
		{"rate limit without budget", func(c *Config) {
			c.RateLimit.Enabled = true
			c.RateLimit.MaxAttempts = 0
		}},
		{"rate limit without cooldown", func(c *Config) {
			c.RateLimit.Enabled = true
			c.RateLimit.Cooldown = 0
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(&cfg)
			if _, err := New().WithConfig(cfg).WithUserProvider(testProvider()).Build(); err == nil {
				t.Fatal("expected a validation error")
			}
		})
	}
}

func TestBuildOnlyOnce(t *testing.T) {
	b := New().WithUserProvider(testProvider()).WithPasswordHasher(plainHasher{})
	if _, err := b.Build(); err != nil {
		t.Fatalf("first Build failed: %v", err)
	}
	if _, err := b.Build(); err == nil {
		t.Fatal("second Build must fail")
	}
}

func TestBuildDefaults(t *testing.T) {
	engine, err := New().WithUserProvider(testProvider()).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	if engine.hasher == nil {
		t.Fatal("default hasher missing")
	}
	if engine.checker == nil {
		t.Fatal("default checker missing")
	}
	if engine.decider == nil {
		t.Fatal("default decider missing")
	}
	if engine.limiter != nil {
		t.Fatal("rate limiting defaults to off")
	}
	if engine.signer != nil {
		t.Fatal("remember-me defaults to off")
	}
	if engine.Registry().Len() != 0 {
		t.Fatal("no authenticators registered by default")
	}
}

func TestBuildMemoryLimiterWithoutRedis(t *testing.T) {
	engine := newTestEngine(t, func(c *Config) {
		c.RateLimit.Enabled = true
		c.RateLimit.MaxAttempts = 3
		c.RateLimit.Cooldown = time.Minute
	})
	if engine.limiter == nil {
		t.Fatal("enabled rate limiting must produce a limiter")
	}
}

func TestWithAuthenticatorsSeedsRegistry(t *testing.T) {
	a := &stubAuthenticator{name: "a"}
	b := &stubAuthenticator{name: "b"}
	engine, err := New().
		WithUserProvider(testProvider()).
		WithPasswordHasher(plainHasher{}).
		WithAuthenticators(a, b).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	names := registryNames(engine.Registry())
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("names = %v", names)
	}
}
