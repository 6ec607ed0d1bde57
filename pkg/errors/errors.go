package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors shared across the cart, the stock API and the storage backends.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrInternal       = errors.New("internal error")
	ErrConflict       = errors.New("conflict")
	ErrOutOfStock     = errors.New("out of stock")
	ErrServiceUnavail = errors.New("service unavailable")
)

// AppError represents a structured application error with HTTP status mapping.
// Message is safe to show to the end user.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// kind describes how a sentinel is reported. An empty message means the
// error text itself is shown.
type kind struct {
	sentinel error
	code     string
	status   int
	message  string
}

// kinds is ordered: the first sentinel in an error chain decides.
var kinds = []kind{
	{ErrNotFound, "NOT_FOUND", http.StatusNotFound, "resource not found"},
	{ErrOutOfStock, "OUT_OF_STOCK", http.StatusConflict, "requested amount is out of stock"},
	{ErrConflict, "CONFLICT", http.StatusConflict, "request conflicts with current state"},
	{ErrInvalidInput, "INVALID_INPUT", http.StatusBadRequest, ""},
	{ErrServiceUnavail, "SERVICE_UNAVAILABLE", http.StatusBadGateway, "a downstream service is unavailable"},
}

func (k kind) new(message string, err error) *AppError {
	if err == nil {
		err = k.sentinel
	}
	return &AppError{Code: k.code, Message: message, Status: k.status, Err: err}
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return kinds[0].new(fmt.Sprintf("%s with id %s not found", resource, id), nil)
}

// NotFoundMessage creates a 404 error carrying a caller-supplied message.
func NotFoundMessage(message string) *AppError {
	return kinds[0].new(message, nil)
}

// OutOfStock creates a 409 error for a quantity the stock cannot cover.
func OutOfStock(message string) *AppError {
	return kinds[1].new(message, nil)
}

// Conflict creates a 409 error.
func Conflict(message string) *AppError {
	return kinds[2].new(message, nil)
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return kinds[3].new(message, nil)
}

// Unavailable creates a 502 error for a failed call to a collaborator
// (lookup, storage) under a caller-chosen code. The cause stays reachable
// through errors.Is and errors.As.
func Unavailable(code, message string, cause error) *AppError {
	err := ErrServiceUnavail
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrServiceUnavail, cause)
	}
	e := kinds[4].new(message, err)
	e.Code = code
	return e
}

// Internal creates a 500 error. Its message never reveals err.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// From reports err as an AppError: the first one in its chain, else one
// built from the first known sentinel it wraps, else an internal error.
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			msg := k.message
			if msg == "" {
				msg = err.Error()
			}
			return k.new(msg, err)
		}
	}
	return Internal(err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	return From(err).Status
}
