package kakao

import (
	"context"
	"errors"
	"os"
	"strings"

	"golang.org/x/oauth2"
)

// AccessTokenEnv is the environment variable holding the user access token
// for the calendar and message APIs.
const AccessTokenEnv = "KAKAO_ACCESS_TOKEN"

// ErrNoToken is returned by a TokenProvider that has no token to offer.
var ErrNoToken = errors.New("no Kakao access token configured")

// TokenProvider supplies the bearer token for Kakao user APIs.
// This abstraction keeps adapters independent of where the token lives.
type TokenProvider interface {
	// Token returns the current access token or ErrNoToken.
	Token(ctx context.Context) (*oauth2.Token, error)
}

// EnvTokenProvider reads the token from the environment on every call, so a
// token exported after startup is picked up without a restart.
type EnvTokenProvider struct {
	key string
}

// NewEnvTokenProvider creates a provider reading the given variable.
// An empty key falls back to AccessTokenEnv.
func NewEnvTokenProvider(key string) *EnvTokenProvider {
	if key == "" {
		key = AccessTokenEnv
	}
	return &EnvTokenProvider{key: key}
}

// Token returns the token from the environment or ErrNoToken.
func (p *EnvTokenProvider) Token(_ context.Context) (*oauth2.Token, error) {
	value := strings.TrimSpace(os.Getenv(p.key))
	if value == "" {
		return nil, ErrNoToken
	}
	return &oauth2.Token{AccessToken: value, TokenType: "Bearer"}, nil
}

// Setting returns the environment variable name, used in error messages.
func (p *EnvTokenProvider) Setting() string {
	return p.key
}

// StaticTokenProvider always returns the same token. An empty token behaves
// like a missing one.
type StaticTokenProvider struct {
	token string
}

// NewStaticTokenProvider creates a provider for a fixed token.
func NewStaticTokenProvider(token string) *StaticTokenProvider {
	return &StaticTokenProvider{token: token}
}

// Token returns the fixed token or ErrNoToken.
func (p *StaticTokenProvider) Token(_ context.Context) (*oauth2.Token, error) {
	if p.token == "" {
		return nil, ErrNoToken
	}
	return &oauth2.Token{AccessToken: p.token, TokenType: "Bearer"}, nil
}
