package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/teemow/focusmate/internal/kakao"
	"github.com/teemow/focusmate/internal/logging"
)

// Environment variables read by Load.
const (
	EnvRESTAPIKey   = kakao.RESTAPIKeyEnv
	EnvAccessToken  = kakao.AccessTokenEnv
	EnvPort         = "PORT"
	EnvLocalBaseURL = "KAKAO_LOCAL_BASE_URL"
	EnvAPIBaseURL   = "KAKAO_API_BASE_URL"
	EnvLogFormat    = "LOG_FORMAT"
)

// DefaultPort is used for the HTTP transport when PORT is unset.
const DefaultPort = "8080"

// Config is the runtime configuration shared by every entry point.
type Config struct {
	// RESTAPIKey authenticates Local API (place search) calls
	RESTAPIKey string

	// AccessToken is a fixed user token. When empty the token is read from
	// KAKAO_ACCESS_TOKEN on every calendar or message call.
	AccessToken string

	// HTTPAddr is the listen address of the streamable HTTP transport
	HTTPAddr string

	// LocalBaseURL and APIBaseURL override the Kakao API hosts
	LocalBaseURL string
	APIBaseURL   string

	// LogFormat is "text" or "json"
	LogFormat string
}

// Load reads the configuration from the environment. Missing credentials
// are not an error: each tool reports them when it is called.
func Load() Config {
	port := strings.TrimSpace(os.Getenv(EnvPort))
	if port == "" {
		port = DefaultPort
	}

	return Config{
		RESTAPIKey:   strings.TrimSpace(os.Getenv(EnvRESTAPIKey)),
		HTTPAddr:     ":" + port,
		LocalBaseURL: getEnvOrDefault(EnvLocalBaseURL, kakao.DefaultLocalBaseURL),
		APIBaseURL:   getEnvOrDefault(EnvAPIBaseURL, kakao.DefaultAPIBaseURL),
		LogFormat:    getEnvOrDefault(EnvLogFormat, logging.FormatText),
	}
}

// Validate checks values that would otherwise fail on first use.
func (c Config) Validate() error {
	baseURLs := []struct{ env, raw string }{
		{EnvLocalBaseURL, c.LocalBaseURL},
		{EnvAPIBaseURL, c.APIBaseURL},
	}
	for _, b := range baseURLs {
		if b.raw == "" {
			continue
		}
		u, err := url.Parse(b.raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%s must be an absolute http(s) URL, got %q", b.env, b.raw)
		}
	}

	if c.HTTPAddr != "" && !strings.Contains(c.HTTPAddr, ":") {
		return fmt.Errorf("HTTP address %q must include a port", c.HTTPAddr)
	}

	return logging.ValidateFormat(c.LogFormat)
}

// TokenProvider returns the bearer token source for calendar and message
// calls.
func (c Config) TokenProvider() kakao.TokenProvider {
	if c.AccessToken != "" {
		return kakao.NewStaticTokenProvider(c.AccessToken)
	}
	return kakao.NewEnvTokenProvider(EnvAccessToken)
}

// KakaoOptions returns the client options implied by the configuration.
func (c Config) KakaoOptions() []kakao.Option {
	return []kakao.Option{
		kakao.WithBaseURLs(c.LocalBaseURL, c.APIBaseURL),
		kakao.WithTokenProvider(c.TokenProvider()),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}
