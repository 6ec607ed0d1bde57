package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound, ErrInvalidInput, ErrInternal,
		ErrConflict, ErrOutOfStock, ErrServiceUnavail,
	}

	for i := 0; i < len(sentinels); i++ {
		for j := i + 1; j < len(sentinels); j++ {
			assert.NotEqual(t, sentinels[i], sentinels[j],
				"sentinels %d and %d should be distinct", i, j)
		}
	}
}

func TestAppError_ErrorString(t *testing.T) {
	inner := fmt.Errorf("connection refused")
	withCause := &AppError{Code: "CART_OPERATION_FAILED", Message: "falhou", Err: inner}
	assert.Equal(t, "CART_OPERATION_FAILED: falhou: connection refused", withCause.Error())

	bare := &AppError{Code: "NOT_FOUND", Message: "missing"}
	assert.Equal(t, "NOT_FOUND: missing", bare.Error())
	assert.Nil(t, bare.Unwrap())
}

func TestNotFound(t *testing.T) {
	err := NotFound("product", "7")
	require.NotNil(t, err)
	assert.Equal(t, "NOT_FOUND", err.Code)
	assert.Equal(t, "product with id 7 not found", err.Message)
	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNotFoundMessage(t *testing.T) {
	err := NotFoundMessage("Erro na remoção do produto")
	assert.Equal(t, "Erro na remoção do produto", err.Message)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOutOfStock(t *testing.T) {
	err := OutOfStock("Quantidade solicitada fora de estoque")
	assert.Equal(t, "OUT_OF_STOCK", err.Code)
	assert.Equal(t, http.StatusConflict, err.Status)
	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.NotErrorIs(t, err, ErrConflict)
}

func TestUnavailable_KeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := Unavailable("CART_OPERATION_FAILED", "Erro na adição do produto", cause)

	assert.Equal(t, http.StatusBadGateway, err.Status)
	assert.ErrorIs(t, err, ErrServiceUnavail)
	assert.ErrorIs(t, err, cause)
}

func TestUnavailable_NilCause(t *testing.T) {
	err := Unavailable("CART_OPERATION_FAILED", "boom", nil)
	assert.ErrorIs(t, err, ErrServiceUnavail)
}

func TestInternal(t *testing.T) {
	cause := errors.New("disk full")
	err := Internal(cause)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.ErrorIs(t, err, cause)
}

func TestFrom(t *testing.T) {
	t.Run("returns app error from chain", func(t *testing.T) {
		inner := OutOfStock("x")
		assert.Same(t, inner, From(fmt.Errorf("add: %w", inner)))
	})

	t.Run("sentinel gets fixed message", func(t *testing.T) {
		got := From(fmt.Errorf("load snapshot: %w", ErrNotFound))
		assert.Equal(t, "NOT_FOUND", got.Code)
		assert.Equal(t, "resource not found", got.Message)
		assert.ErrorIs(t, got, ErrNotFound)
	})

	t.Run("invalid input keeps error text", func(t *testing.T) {
		got := From(fmt.Errorf("%w: amount must be positive", ErrInvalidInput))
		assert.Equal(t, "INVALID_INPUT", got.Code)
		assert.Equal(t, "invalid input: amount must be positive", got.Message)
	})

	t.Run("unknown becomes internal", func(t *testing.T) {
		cause := errors.New("disk full")
		got := From(cause)
		assert.Equal(t, "INTERNAL_ERROR", got.Code)
		assert.NotContains(t, got.Message, "disk full")
		assert.ErrorIs(t, got, cause)
	})
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error", InvalidInput("bad"), http.StatusBadRequest},
		{"wrapped app error", fmt.Errorf("ctx: %w", OutOfStock("x")), http.StatusConflict},
		{"not found sentinel", fmt.Errorf("x: %w", ErrNotFound), http.StatusNotFound},
		{"out of stock sentinel", ErrOutOfStock, http.StatusConflict},
		{"conflict sentinel", ErrConflict, http.StatusConflict},
		{"invalid input sentinel", ErrInvalidInput, http.StatusBadRequest},
		{"unavailable sentinel", ErrServiceUnavail, http.StatusBadGateway},
		{"unknown", errors.New("mystery"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
