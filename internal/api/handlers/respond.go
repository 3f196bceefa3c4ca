package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/labcita/scheduling/pkg/errors"
)

// Helper functions
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

// respondWithAppError maps application error types onto HTTP statuses. The
// error payload carries the machine-readable code alongside the message so
// clients can branch without parsing text.
func respondWithAppError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var status int
	switch appErr.Type {
	case apperrors.ErrorTypeValidation, apperrors.ErrorTypeInvalidRange:
		status = http.StatusBadRequest
	case apperrors.ErrorTypeNotFound, apperrors.ErrorTypeUnknownService, apperrors.ErrorTypeUnknownLocation:
		status = http.StatusNotFound
	case apperrors.ErrorTypeConflict,
		apperrors.ErrorTypeSlotFull,
		apperrors.ErrorTypeSlotInactive,
		apperrors.ErrorTypeSlotInPast,
		apperrors.ErrorTypeScheduleConflict,
		apperrors.ErrorTypeAlreadyCancelled,
		apperrors.ErrorTypeBookingInPast:
		status = http.StatusConflict
	case apperrors.ErrorTypeTimeout:
		status = http.StatusGatewayTimeout
	case apperrors.ErrorTypeTransient:
		status = http.StatusServiceUnavailable
	default:
		status = http.StatusInternalServerError
	}

	respondWithJSON(w, status, map[string]string{
		"error": appErr.Message,
		"code":  string(appErr.Type),
	})
}
