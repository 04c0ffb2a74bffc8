package server

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/teemow/focusmate/internal/config"
	"github.com/teemow/focusmate/internal/domain"
	"github.com/teemow/focusmate/internal/instrumentation"
	"github.com/teemow/focusmate/internal/kakao"
)

func TestServerContext_KakaoClientIsCached(t *testing.T) {
	sc := newTestServerContext(t, config.Config{RESTAPIKey: "key"})

	first := sc.KakaoClient()
	require.NotNil(t, first)
	assert.Same(t, first, sc.KakaoClient())
}

func TestServerContext_SetMetricsRebuildsClient(t *testing.T) {
	sc := newTestServerContext(t, config.Config{RESTAPIKey: "key"})
	before := sc.KakaoClient()

	metrics, err := instrumentation.NewMetrics(noop.NewMeterProvider().Meter("test"), false)
	require.NoError(t, err)
	sc.SetMetrics(metrics)

	assert.Same(t, metrics, sc.Metrics())
	assert.NotSame(t, before, sc.KakaoClient())
}

func TestServerContext_Options(t *testing.T) {
	hc := &http.Client{}
	sc, err := NewServerContext(context.Background(), config.Config{},
		WithLogger(nil),
		WithKakaoOptions(kakao.WithHTTPClient(hc)),
	)
	require.NoError(t, err)
	defer sc.Shutdown()

	assert.NotNil(t, sc.Logger())
	assert.NotNil(t, sc.KakaoClient())
}

func TestServerContext_Shutdown(t *testing.T) {
	sc := newTestServerContext(t, config.Config{})
	assert.False(t, sc.IsShutdown())

	require.NoError(t, sc.Shutdown())
	assert.True(t, sc.IsShutdown())
	assert.Error(t, sc.Context().Err())

	// second call is a no-op
	require.NoError(t, sc.Shutdown())
}

func TestServerContext_AuditLogger(t *testing.T) {
	sc := newTestServerContext(t, config.Config{})
	assert.Nil(t, sc.AuditLogger())

	al := instrumentation.NewAuditLogger(nil)
	sc.SetAuditLogger(al)
	assert.Same(t, al, sc.AuditLogger())
}

func TestServerContext_DelegatesToKakao(t *testing.T) {
	sc := newTestServerContext(t, config.Config{})

	_, err := sc.SearchPlaces(context.Background(), domain.SearchArgs{Purpose: "study", Location: "Seoul", Radius: 500, Limit: 5})
	assert.Equal(t, domain.KindConfigMissing, domain.KindOf(err), "no REST API key configured")
}
