package main

import (
	"context"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/dmitrymomot/statekit/pkg/fsminspect"
)

// Config is read from AUTHFLOW_* variables.
type Config struct {
	Env      string `env:"ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL"`

	Subject     string `env:"SUBJECT" envDefault:"demo-user"`
	MaxAttempts int    `env:"MAX_ATTEMPTS" envDefault:"3"`

	// With TokenURL set the demo runs the OAuth2 client credentials flow;
	// otherwise it issues StaticToken valid for TokenTTL.
	TokenURL     string        `env:"TOKEN_URL"`
	ClientID     string        `env:"CLIENT_ID"`
	ClientSecret string        `env:"CLIENT_SECRET"`
	Scopes       []string      `env:"SCOPES" envSeparator:","`
	StaticToken  string        `env:"STATIC_TOKEN" envDefault:"demo-token"`
	TokenTTL     time.Duration `env:"TOKEN_TTL" envDefault:"30s"`

	Inspect fsminspect.ServerConfig `envPrefix:"INSPECT_"`
}

// tokenSource picks the oauth2 source described by c. The result caches
// tokens until they expire.
func (c Config) tokenSource(ctx context.Context) oauth2.TokenSource {
	if c.TokenURL != "" {
		cc := clientcredentials.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			TokenURL:     c.TokenURL,
			Scopes:       c.Scopes,
		}
		return cc.TokenSource(ctx)
	}
	return &staticSource{token: c.StaticToken, ttl: c.TokenTTL}
}

// staticSource mints a bearer token that lives for ttl from each call.
type staticSource struct {
	token string
	ttl   time.Duration
}

func (s *staticSource) Token() (*oauth2.Token, error) {
	tok := &oauth2.Token{AccessToken: s.token, TokenType: "Bearer"}
	if s.ttl > 0 {
		tok.Expiry = time.Now().Add(s.ttl)
	}
	return tok, nil
}
