package kakao

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/teemow/focusmate/internal/domain"
	"github.com/teemow/focusmate/internal/instrumentation"
	"github.com/teemow/focusmate/internal/logging"
)

const (
	// DefaultLocalBaseURL is the Kakao Local API host.
	DefaultLocalBaseURL = "https://dapi.kakao.com"

	// DefaultAPIBaseURL is the Kakao user API host (calendar, talk).
	DefaultAPIBaseURL = "https://kapi.kakao.com"

	// DefaultTimeout bounds every outbound call. There is no retry.
	DefaultTimeout = 10 * time.Second

	// RESTAPIKeyEnv is the environment variable holding the REST API key.
	RESTAPIKeyEnv = "KAKAO_REST_API_KEY"

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 1 << 20
)

// Client performs Kakao API calls. It holds no per-request state and is safe
// for concurrent use.
type Client struct {
	httpClient   *http.Client
	localBaseURL string
	apiBaseURL   string
	restAPIKey   string
	tokens       TokenProvider
	picker       func(n int) int
	logger       logging.Logger
	metrics      *instrumentation.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Its timeout is used as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURLs overrides the API hosts, mainly for tests.
func WithBaseURLs(localBaseURL, apiBaseURL string) Option {
	return func(c *Client) {
		if localBaseURL != "" {
			c.localBaseURL = strings.TrimRight(localBaseURL, "/")
		}
		if apiBaseURL != "" {
			c.apiBaseURL = strings.TrimRight(apiBaseURL, "/")
		}
	}
}

// WithTokenProvider sets where the bearer token for user APIs comes from.
func WithTokenProvider(tp TokenProvider) Option {
	return func(c *Client) {
		c.tokens = tp
	}
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics enables per-call provider metrics.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithPicker replaces the random index picker used for encouragement lines.
func WithPicker(pick func(n int) int) Option {
	return func(c *Client) {
		c.picker = pick
	}
}

// NewClient creates a Kakao client. restAPIKey authenticates Local API calls;
// calendar and message calls use the TokenProvider (default: environment).
func NewClient(restAPIKey string, opts ...Option) *Client {
	c := &Client{
		httpClient:   &http.Client{Timeout: DefaultTimeout},
		localBaseURL: DefaultLocalBaseURL,
		apiBaseURL:   DefaultAPIBaseURL,
		restAPIKey:   strings.TrimSpace(restAPIKey),
		tokens:       NewEnvTokenProvider(AccessTokenEnv),
		picker:       randomIndex,
		logger:       logging.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// statusPolicy maps a non-2xx response to a domain error.
type statusPolicy func(op string, status int, body []byte) error

// call describes one outbound request.
type call struct {
	service   string
	operation string
	req       *http.Request
	policy    statusPolicy
}

// op returns the operation label used in errors and logs.
func (c call) op() string {
	return c.service + "." + c.operation
}

// do sends the request, classifies its outcome and returns the body of a
// 2xx response.
func (c *Client) do(ctx context.Context, cl call) ([]byte, error) {
	ctx, span := instrumentation.StartKakaoAPISpan(ctx, cl.service, cl.operation)
	defer span.End()

	start := time.Now()
	body, status, err := c.send(ctx, cl)
	duration := time.Since(start)

	result := instrumentation.StatusSuccess
	if err != nil {
		result = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	if c.metrics != nil {
		c.metrics.RecordKakaoAPIOperation(ctx, cl.service, cl.operation, result, duration)
	}

	c.logger.Debug("kakao api call",
		logging.KeyOperation, cl.op(),
		"http_status", status,
		logging.KeyStatus, result,
		logging.KeyDuration, duration,
	)
	return body, err
}

func (c *Client) send(ctx context.Context, cl call) ([]byte, int, error) {
	resp, err := c.httpClient.Do(cl.req.WithContext(ctx))
	if err != nil {
		if isTimeout(err) {
			return nil, 0, domain.NewTimeoutError(cl.op(), err)
		}
		return nil, 0, domain.NewProviderError(cl.op(), 0, "", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if isTimeout(err) {
			return nil, resp.StatusCode, domain.NewTimeoutError(cl.op(), err)
		}
		return nil, resp.StatusCode, domain.NewProviderError(cl.op(), resp.StatusCode, "", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, cl.policy(cl.op(), resp.StatusCode, body)
	}
	return body, resp.StatusCode, nil
}

// isTimeout reports whether err came from an expired deadline.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// newLocalRequest builds a GET against the Local API authenticated with the
// REST API key.
func (c *Client) newLocalRequest(ctx context.Context, path string, params url.Values) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.localBaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "KakaoAK "+c.restAPIKey)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// newUserRequest builds a form POST against the user API authenticated with
// the bearer token.
func (c *Client) newUserRequest(ctx context.Context, path string, form url.Values, token *oauth2.Token) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	token.SetAuthHeader(req)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// userToken returns the bearer token or a ConfigMissing error. It is checked
// before any request is built.
func (c *Client) userToken(ctx context.Context, op string) (*oauth2.Token, error) {
	setting := AccessTokenEnv
	if s, ok := c.tokens.(interface{ Setting() string }); ok {
		setting = s.Setting()
	}

	token, err := c.tokens.Token(ctx)
	if err != nil || token == nil || token.AccessToken == "" {
		if err != nil && !errors.Is(err, ErrNoToken) {
			c.logger.Warn("token provider failed", logging.KeyOperation, op, logging.KeyError, err.Error())
		}
		return nil, domain.NewConfigMissingError(op, setting)
	}
	return token, nil
}

// errorBody covers both error shapes Kakao uses: {"msg","code"} on kapi and
// {"errorType","message"} on dapi.
type errorBody struct {
	Msg     string `json:"msg"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// providerMessage extracts the short provider message from an error body.
func providerMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	if eb.Msg != "" {
		return eb.Msg
	}
	return eb.Message
}
