package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/domain"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/handler"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/infra/memstore"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/infra/observability"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/reward"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/service"
)

type downStore struct{}

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	store := memstore.New()
	metrics := observability.NewMetrics()
	portfolio := service.NewPortfolioService(store, store, nil, reward.NewScorer(zap.NewNop()), metrics, zap.NewNop())
	return handler.NewRouter(handler.RouterDeps{
		Portfolio:   portfolio,
		Store:       store,
		StoreName:   "memory",
		CORSOrigins: []string{"*"},
		Metrics:     metrics,
		Logger:      zap.NewNop(),
	})
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestOperationalEndpoints(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/healthz", "/readyz", "/metrics", "/ping", "/v1/metrics/flow"} {
		t.Run(path, func(t *testing.T) {
			rec := do(t, router, http.MethodGet, path, "")
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestHealthz_DegradedStore(t *testing.T) {
	router := handler.NewRouter(handler.RouterDeps{Store: downStore{}, StoreName: "postgres"})

	rec := do(t, router, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var health domain.HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "degraded", health.Status)
	require.Len(t, health.Services, 2)
	assert.Equal(t, "postgres", health.Services[1].Name)

	rec = do(t, router, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

const swiggyCard = `{
	"card_name": "Swiggy HDFC",
	"reward_rules": [
		{"category": "food_delivery", "multiplier": "10X", "merchants": ["swiggy", "uber eats"]},
		{"category": "base", "multiplier": "1X", "merchants": ["all"]}
	],
	"excluded_categories": ["fuel"]
}`

func TestCards_RegisterAndList(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/v1/users/u-1/cards", swiggyCard)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var saved domain.Card
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	assert.NotEmpty(t, saved.ID)

	rec = do(t, router, http.MethodPost, "/v1/users/u-1/cards", swiggyCard)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodGet, "/v1/users/u-1/cards", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Cards []domain.Card `json:"cards"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Cards, 1)
	assert.Equal(t, "Swiggy HDFC", list.Cards[0].Name)
}

func TestCards_InvalidBody(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"card_name":`},
		{"blank name", `{"card_name":"  "}`},
		{"rule without merchants", `{"card_name":"X","reward_rules":[{"category":"a","multiplier":"2X","merchants":[]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/v1/users/u-1/cards", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestRecommendations(t *testing.T) {
	router := newTestRouter(t)
	require.Equal(t, http.StatusCreated, do(t, router, http.MethodPost, "/v1/users/u-1/cards", swiggyCard).Code)

	rec := do(t, router, http.MethodPost, "/v1/users/u-1/recommendations", `{"merchant":"Uber Eats","amount":"500"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp domain.RecommendResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.BestCard)
	assert.Equal(t, "Swiggy HDFC", resp.BestCard.Name)
	require.Len(t, resp.Breakdown, 1)
	assert.Equal(t, 100.0, resp.Breakdown[0].Points)
	assert.NotEmpty(t, resp.Explanation)
}

func TestRecommendations_Validation(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/v1/users/u-1/recommendations", `{"merchant":"","amount":"10"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/v1/users/u-1/cards", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownRouteAndMissingChat(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/v1/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "route not found")

	rec = do(t, router, http.MethodPost, "/v1/chat", `{"userId":"u","message":"hi"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "chat unavailable")
}
