package httpclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/utafrali/rocketshoes/pkg/errors"
)

// maxBodyBytes caps how much of a downstream body is read.
const maxBodyBytes = 1 << 20

// errorEnvelope is the error body written by httputil on the other side.
type errorEnvelope struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// byStatus builds the AppError for statuses the cart distinguishes.
var byStatus = map[int]func(string) *apperrors.AppError{
	http.StatusNotFound:   apperrors.NotFoundMessage,
	http.StatusBadRequest: apperrors.InvalidInput,
	http.StatusConflict:   apperrors.Conflict,
}

// ResponseError consumes and closes the body of a non-2xx response and
// translates it into an error:
//   - 400, 404 and 409 become the matching AppError.
//   - a structured 503 keeps its code as an unavailable AppError.
//   - any other 5xx becomes a *ServerError, which trips the circuit breaker.
//   - anything else becomes an AppError carrying the downstream status.
func ResponseError(resp *http.Response, service string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", service, resp.StatusCode, err)
	}
	body = bytes.TrimSpace(body)

	var env errorEnvelope
	structured := json.Unmarshal(body, &env) == nil && env.Error != nil

	code, message := "", string(body)
	if structured {
		code, message = env.Error.Code, env.Error.Message
	}

	status := resp.StatusCode
	if build, ok := byStatus[status]; ok {
		if !structured {
			message = "resource not found"
			if status != http.StatusNotFound {
				message = http.StatusText(status)
			}
		}
		return build(service + ": " + message)
	}

	switch {
	case status == http.StatusServiceUnavailable && structured:
		return &apperrors.AppError{
			Code:    code,
			Message: service + ": " + message,
			Status:  status,
			Err:     apperrors.ErrServiceUnavail,
		}
	case status >= http.StatusInternalServerError:
		if structured {
			message = code + ": " + message
		}
		return &ServerError{Service: service, Status: status, Body: message}
	}

	if code == "" {
		code = "UNEXPECTED_STATUS"
	}
	return &apperrors.AppError{
		Code:    code,
		Message: fmt.Sprintf("%s returned status %d: %s", service, status, message),
		Status:  status,
	}
}

// ReadJSON decodes a 2xx response body into dst, or returns ResponseError
// for any other status. The body is always closed.
func ReadJSON(resp *http.Response, dst any, service string) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ResponseError(resp, service)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(dst); err != nil {
		return fmt.Errorf("decode %s response: %w", service, err)
	}
	return nil
}
