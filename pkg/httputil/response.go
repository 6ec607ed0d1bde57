package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/utafrali/rocketshoes/pkg/errors"
	"github.com/utafrali/rocketshoes/pkg/logger"
	"github.com/utafrali/rocketshoes/pkg/validator"
)

// Response is the JSON envelope shared by the cart API and the stock API.
type Response struct {
	Data  any            `json:"data,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse represents an error in the standard response format.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON writes v as JSON with the given status code. Encoding errors
// are dropped since the status line has already been sent.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteErrorCode writes an error envelope with the given code and message.
func WriteErrorCode(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeErrorBody(w, r, status, ErrorResponse{Code: code, Message: message})
}

// writeErrorBody writes the error envelope, tagging it with the request's
// correlation ID when one is set.
func writeErrorBody(w http.ResponseWriter, r *http.Request, status int, body ErrorResponse) {
	body.RequestID = logger.CorrelationIDFromContext(r.Context())
	WriteJSON(w, status, Response{Error: &body})
}

// WriteError writes err through the error envelope using the code, message
// and status of apperrors.From, so user-facing cart messages reach the client
// unchanged. 5xx responses are logged with the request-scoped logger, or
// with fallback when none is stored.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	appErr := apperrors.From(err)

	if appErr.Status >= http.StatusInternalServerError {
		l := logger.FromContext(r.Context())
		if l == slog.Default() && fallback != nil {
			l = fallback
		}
		l.ErrorContext(r.Context(), "request failed",
			slog.String("error", err.Error()),
			slog.String("code", appErr.Code),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	writeErrorBody(w, r, appErr.Status, ErrorResponse{Code: appErr.Code, Message: appErr.Message})
}

// WriteValidationError answers 400. A *validator.ValidationError yields
// VALIDATION_ERROR with per-field messages; anything else, such as a body
// that failed to decode, yields INVALID_INPUT with the error text.
func WriteValidationError(w http.ResponseWriter, r *http.Request, err error) {
	body := ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()}

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		body = ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "request validation failed",
			Fields:  valErr.Fields(),
		}
	}
	writeErrorBody(w, r, http.StatusBadRequest, body)
}

// PathID reads the chi URL parameter name as a positive integer. When it is
// not one, PathID answers 400 INVALID_PARAMETER and returns false.
func PathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(raw)
	if err == nil && id > 0 {
		return id, true
	}

	writeErrorBody(w, r, http.StatusBadRequest, ErrorResponse{
		Code:    "INVALID_PARAMETER",
		Message: fmt.Sprintf("invalid %s: %q", name, raw),
	})
	return 0, false
}
