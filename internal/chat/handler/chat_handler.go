// Package handler exposes the conversation over HTTP:
//
//	POST /v1/chat            {"userId", "threadId"?, "message", "incognito"?}
//	POST /v1/chat/{userId}   same body; the path wins over a body userId
//
// The answer carries the thread ID to send with the next turn.
package handler

import (
	"net/http"

	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/chat/domain"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/chat/service"
	mainhandler "github.com/jatinverma85276/Credit-Card-Optimiser/internal/handler"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("chat/handler")

// ChatHandler returns the handler for both chat routes. It only decodes the
// body; validation and the turn itself belong to the ChatService.
func ChatHandler(chatSvc *service.ChatService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/chat")
		defer span.End()

		var req domain.ChatRequest
		if err := mainhandler.DecodeJSON(w, r, &req); err != nil {
			mainhandler.HandleServiceError(w, err, logger)
			return
		}
		if userID := chi.URLParam(r, "userId"); userID != "" {
			req.UserID = userID
		}
		span.SetAttributes(
			attribute.String("user.id", req.UserID),
			attribute.String("thread.id", req.ThreadID),
			attribute.Bool("incognito", req.Incognito),
		)

		resp, err := chatSvc.ProcessMessage(ctx, &req)
		if err != nil {
			mainhandler.HandleServiceError(w, err, logger)
			return
		}
		mainhandler.WriteJSON(w, http.StatusOK, resp)
	}
}
