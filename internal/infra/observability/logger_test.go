package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := chi.NewRouter()
	r.Use(RequestLogger(zap.New(core), NewMetrics()))
	r.Get("/v1/users/{userId}/cards", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/users/u-1/cards", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "/v1/users/{userId}/cards", entries[0].ContextMap()["route"])
	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
}

func TestNewLogger_Levels(t *testing.T) {
	assert.True(t, NewLogger("debug").Core().Enabled(zapcore.DebugLevel))
	assert.False(t, NewLogger("warn").Core().Enabled(zapcore.InfoLevel))
	assert.True(t, NewLogger("bogus").Core().Enabled(zapcore.InfoLevel))
}
