package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/teemow/focusmate/internal/config"
	"github.com/teemow/focusmate/internal/domain"
	"github.com/teemow/focusmate/internal/instrumentation"
	"github.com/teemow/focusmate/internal/kakao"
	"github.com/teemow/focusmate/internal/logging"
)

// ServerContext holds the state shared by every tool call: the configuration,
// the Kakao client and the optional instrumentation.
type ServerContext struct {
	ctx         context.Context
	cancel      context.CancelFunc
	cfg         config.Config
	logger      *slog.Logger
	kakaoClient *kakao.Client
	kakaoOpts   []kakao.Option
	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger
	mu          sync.RWMutex
	shutdown    bool
}

// Option configures a ServerContext.
type Option func(*ServerContext)

// WithLogger sets the logger handed to the Kakao client.
func WithLogger(logger *slog.Logger) Option {
	return func(sc *ServerContext) {
		if logger != nil {
			sc.logger = logger
		}
	}
}

// WithKakaoOptions appends client options, for example a test HTTP client.
func WithKakaoOptions(opts ...kakao.Option) Option {
	return func(sc *ServerContext) {
		sc.kakaoOpts = append(sc.kakaoOpts, opts...)
	}
}

// NewServerContext creates a new server context. Missing Kakao credentials
// are not an error here; the affected tools report them when called.
func NewServerContext(ctx context.Context, cfg config.Config, opts ...Option) (*ServerContext, error) {
	shutdownCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:    shutdownCtx,
		cancel: cancel,
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(sc)
	}
	return sc, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Config returns the configuration the context was created with.
func (sc *ServerContext) Config() config.Config {
	return sc.cfg
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// KakaoClient returns the Kakao client, creating it on first use so that it
// picks up metrics set after construction.
func (sc *ServerContext) KakaoClient() *kakao.Client {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.kakaoClient != nil {
		return sc.kakaoClient
	}

	opts := append(sc.cfg.KakaoOptions(), kakao.WithLogger(logging.NewSlogAdapter(sc.logger)))
	if sc.metrics != nil {
		opts = append(opts, kakao.WithMetrics(sc.metrics))
	}
	opts = append(opts, sc.kakaoOpts...)

	sc.kakaoClient = kakao.NewClient(sc.cfg.RESTAPIKey, opts...)
	return sc.kakaoClient
}

// SearchPlaces runs a place search with the current Kakao client.
func (sc *ServerContext) SearchPlaces(ctx context.Context, args domain.SearchArgs) (*domain.PlaceList, error) {
	return sc.KakaoClient().SearchPlaces(ctx, args)
}

// CreateEvent creates a calendar event with the current Kakao client.
func (sc *ServerContext) CreateEvent(ctx context.Context, args domain.CalendarArgs) (*domain.CalendarConfirmation, error) {
	return sc.KakaoClient().CreateEvent(ctx, args)
}

// SendCommitment sends a "send to me" message with the current Kakao client.
func (sc *ServerContext) SendCommitment(ctx context.Context, args domain.MessageArgs) (*domain.MessageConfirmation, error) {
	return sc.KakaoClient().SendCommitment(ctx, args)
}

// SetMetrics sets the metrics recorder used by tool and provider calls.
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = m
	// rebuilt on next use with the new recorder
	sc.kakaoClient = nil
}

// Metrics returns the metrics recorder, or nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetAuditLogger sets the audit logger for tool invocations.
func (sc *ServerContext) SetAuditLogger(al *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = al
}

// AuditLogger returns the audit logger, or nil.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
