package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/utafrali/laptopstore/pkg/errors"
)

// APIErrorResponse covers the error bodies the store API produces: a plain
// `detail` string, a list of field errors under `detail`, or the
// `{"error":{"code","message"}}` envelope.
type APIErrorResponse struct {
	Detail json.RawMessage `json:"detail"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type fieldError struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// message extracts a human-readable message from the body, or "".
func (r APIErrorResponse) message() (code, msg string) {
	if r.Error != nil {
		return r.Error.Code, r.Error.Message
	}
	if len(r.Detail) == 0 {
		return "", ""
	}

	var s string
	if json.Unmarshal(r.Detail, &s) == nil {
		return "", s
	}

	var fields []fieldError
	if json.Unmarshal(r.Detail, &fields) == nil && len(fields) > 0 {
		parts := make([]string, 0, len(fields))
		for _, f := range fields {
			if name := fieldName(f.Loc); name != "" {
				parts = append(parts, name+": "+f.Msg)
				continue
			}
			parts = append(parts, f.Msg)
		}
		return "", strings.Join(parts, "; ")
	}
	return "", ""
}

func fieldName(loc []any) string {
	if len(loc) == 0 {
		return ""
	}
	if s, ok := loc[len(loc)-1].(string); ok {
		return s
	}
	return ""
}

// ParseResponseError reads the body of a non-2xx HTTP response and translates
// it into an appropriate AppError. The response body is fully consumed and closed.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB limit
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", serviceName, resp.StatusCode, err)
	}

	var body APIErrorResponse
	code, message := "", ""
	if json.Unmarshal(bodyBytes, &body) == nil {
		code, message = body.message()
	}
	if message == "" {
		message = strings.TrimSpace(string(bodyBytes))
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	return mapStatusError(resp.StatusCode, code, message, serviceName)
}

// mapStatusError translates an API status code into an AppError that preserves
// the error semantics.
func mapStatusError(status int, code, message, serviceName string) error {
	qualifiedMsg := fmt.Sprintf("%s: %s", serviceName, message)

	switch {
	case status == http.StatusNotFound:
		return &apperrors.AppError{
			Code:    "NOT_FOUND",
			Message: message,
			Status:  http.StatusNotFound,
			Err:     apperrors.ErrNotFound,
		}
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return apperrors.InvalidInput(message)
	case status == http.StatusConflict:
		return apperrors.Conflict(message)
	case status == http.StatusUnauthorized:
		return apperrors.Unauthorized(message)
	case status == http.StatusForbidden:
		return apperrors.Forbidden(message)
	case status == http.StatusServiceUnavailable, status == http.StatusTooManyRequests:
		return apperrors.Unavailable(qualifiedMsg)
	case status >= 500:
		return fmt.Errorf("%s server error (%d/%s): %s", serviceName, status, code, message)
	default:
		if code == "" {
			code = "UPSTREAM_ERROR"
		}
		return &apperrors.AppError{
			Code:    code,
			Message: qualifiedMsg,
			Status:  status,
		}
	}
}
