// Package respond renders JSON bodies and maps application errors to HTTP statuses.
package respond

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/meetinsight/meeting-insight/internal/model"
	"github.com/meetinsight/meeting-insight/internal/platform/errs"
)

// JSON writes data with the given status. Encoding happens before any
// header is written so a failure can still produce a clean 500.
func JSON(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		logger.Error("failed to encode response", "error", err)
		http.Error(w, `{"error":"Internal Server Error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// Error writes a model.ErrorResponse.
func Error(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	JSON(w, logger, status, model.ErrorResponse{
		Error:      http.StatusText(status),
		StatusCode: status,
		Message:    message,
	})
}

// AppError writes err using the status that matches its Kind. Errors that
// are not *errs.AppError are reported as 500 without exposing their text.
func AppError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var appErr *errs.AppError
	if errors.As(err, &appErr) {
		Error(w, logger, StatusFor(appErr.Kind), appErr.Message)
		return
	}

	Error(w, logger, http.StatusInternalServerError, "An unexpected error occurred.")
}

// StatusFor maps an error kind to its HTTP status code.
func StatusFor(kind errs.Kind) int {
	switch kind {
	case errs.InvalidInput:
		return http.StatusBadRequest
	case errs.NotFound:
		return http.StatusNotFound
	case errs.TooLarge:
		return http.StatusRequestEntityTooLarge
	case errs.Unreachable:
		return http.StatusBadGateway
	case errs.Timeout:
		return http.StatusGatewayTimeout
	case errs.ParsingFailed, errs.Storage, errs.Unknown:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}
