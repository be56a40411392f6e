package handler

import (
	"net/http"

	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/domain"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Cards: /v1/users/{userId}/cards
// ============================================================

func listCardsHandler(svc *service.PortfolioService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{userId}/cards")
		defer span.End()

		userID := chi.URLParam(r, "userId")
		span.SetAttributes(attribute.String("user.id", userID))

		cards, err := svc.ListCards(ctx, userID)
		if err != nil {
			HandleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"cards": cards})
	}
}

func registerCardHandler(svc *service.PortfolioService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/users/{userId}/cards")
		defer span.End()

		userID := chi.URLParam(r, "userId")
		span.SetAttributes(attribute.String("user.id", userID))

		var card domain.Card
		if err := decodeJSON(w, r, &card); err != nil {
			HandleServiceError(w, err, logger)
			return
		}

		saved, err := svc.RegisterCard(ctx, userID, &card)
		if err != nil {
			HandleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, saved)
	}
}

// ============================================================
// Direct scoring: POST /v1/users/{userId}/recommendations
// ============================================================

func recommendHandler(svc *service.PortfolioService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/users/{userId}/recommendations")
		defer span.End()

		userID := chi.URLParam(r, "userId")
		span.SetAttributes(attribute.String("user.id", userID))

		var req domain.RecommendRequest
		if err := decodeJSON(w, r, &req); err != nil {
			HandleServiceError(w, err, logger)
			return
		}

		resp, err := svc.Recommend(ctx, userID, &req)
		if err != nil {
			HandleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
