package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/utafrali/laptopstore/pkg/errors"
	"github.com/utafrali/laptopstore/pkg/logger"
	"github.com/utafrali/laptopstore/pkg/validator"
)

// Response is the JSON envelope returned by every view-layer endpoint.
type Response struct {
	Data  any            `json:"data,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse represents an error in the standard response format.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	Redirect  string            `json:"redirect,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// ErrorOption customizes the error body written by WriteError.
type ErrorOption func(*ErrorResponse)

// WithRedirect tells the client which route to navigate to next.
func WithRedirect(route string) ErrorOption {
	return func(e *ErrorResponse) { e.Redirect = route }
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteData wraps v in the data envelope.
func WriteData(w http.ResponseWriter, status int, v any) {
	WriteJSON(w, status, Response{Data: v})
}

// WriteError writes a standardized error response based on the error type.
// Validation errors carry per-field messages; 5xx errors are logged with the
// request-scoped logger when one is present, otherwise with fallback.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger, opts ...ErrorOption) {
	l := logger.FromContext(r.Context())
	if l == slog.Default() && fallback != nil {
		l = fallback
	}

	body := &ErrorResponse{RequestID: logger.CorrelationIDFromContext(r.Context())}
	status := apperrors.HTTPStatus(err)

	var (
		appErr *apperrors.AppError
		valErr *validator.ValidationError
	)
	switch {
	case errors.As(err, &valErr):
		status = http.StatusBadRequest
		body.Code = "VALIDATION_ERROR"
		body.Message = "request validation failed"
		body.Fields = valErr.Fields()
	case errors.As(err, &appErr):
		status = appErr.Status
		body.Code = appErr.Code
		body.Message = appErr.Message
	case errors.Is(err, apperrors.ErrNotFound):
		body.Code = "NOT_FOUND"
		body.Message = "resource not found"
	case errors.Is(err, apperrors.ErrInvalidInput):
		body.Code = "INVALID_INPUT"
		body.Message = err.Error()
	case errors.Is(err, apperrors.ErrUnauthorized):
		body.Code = "UNAUTHORIZED"
		body.Message = "authentication required"
	default:
		body.Code = "INTERNAL_ERROR"
		body.Message = "an internal error occurred"
	}

	for _, opt := range opts {
		opt(body)
	}

	if status >= http.StatusInternalServerError {
		l.ErrorContext(r.Context(), "request failed",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
		)
	}

	WriteJSON(w, status, Response{Error: body})
}
