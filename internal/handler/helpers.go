package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

// maxBodyBytes bounds request bodies; card terms are the largest payload.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// decodeJSON reads the request body into dst. A malformed body is reported
// as a validation error on "body".
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &domain.ErrValidation{Field: "body", Message: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return nil
}

// HandleServiceError maps domain errors to HTTP responses.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var notFound *domain.ErrNotFound
	var circuitOpen *domain.ErrCircuitOpen
	var timeout *domain.ErrTimeout
	var validation *domain.ErrValidation
	var conflict *domain.ErrConflict
	var unavailable *domain.ErrUnavailable
	var external *domain.ErrExternalService

	switch {
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &conflict):
		logger.Debug("conflict", zap.String("error", err.Error()))
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &unavailable):
		logger.Warn("feature unavailable", zap.String("feature", unavailable.Feature))
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &timeout):
		logger.Error("request timeout", zap.Error(err))
		writeError(w, http.StatusGatewayTimeout, err.Error())
	case errors.As(err, &external):
		logger.Error("external service error", zap.String("service", external.Service), zap.Error(err))
		writeError(w, http.StatusBadGateway, fmt.Sprintf("upstream %s failed", external.Service))
	case errors.Is(err, domain.ErrNoTransaction), errors.Is(err, domain.ErrNoParsedCard):
		logger.Error("flow contract violation", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// WriteJSON is exported for sibling handler packages.
func WriteJSON(w http.ResponseWriter, status int, data any) { writeJSON(w, status, data) }

// DecodeJSON is exported for sibling handler packages.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error { return decodeJSON(w, r, dst) }
