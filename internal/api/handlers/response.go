package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/zatekoja/pricefinder/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/pricefinder/pkg/errors"
)

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithServiceError maps a service error onto an HTTP status
func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	logger := observability.LoggerFromContext(r.Context())

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		logger.Info().Err(err).Msg("request cancelled")
		respondWithError(w, http.StatusServiceUnavailable, "request cancelled")
		return
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case apperrors.ErrorTypeNotFound:
			respondWithError(w, http.StatusNotFound, appErr.Message)
			return
		case apperrors.ErrorTypeValidation:
			respondWithError(w, http.StatusBadRequest, appErr.Message)
			return
		}
	}

	logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	respondWithError(w, http.StatusInternalServerError, "internal server error")
}
