package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/rocketshoes/internal/catalog"
	"github.com/utafrali/rocketshoes/internal/catalog/memory"
	"github.com/utafrali/rocketshoes/internal/domain"
	"github.com/utafrali/rocketshoes/internal/notify"
	"github.com/utafrali/rocketshoes/internal/repository/file"
	"github.com/utafrali/rocketshoes/internal/service"
	"github.com/utafrali/rocketshoes/pkg/health"
	"github.com/utafrali/rocketshoes/pkg/middleware"
)

// ============================================================================
// Test helpers
// ============================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEnv struct {
	router   http.Handler
	svc      *service.CartService
	catalog  *memory.Catalog
	mu       sync.Mutex
	notified []notify.Notification
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithStockDelay(t, 0)
}

// slowStock delays every stock lookup.
type slowStock struct {
	catalog.StockLookup
	delay time.Duration
}

func (s slowStock) Stock(ctx context.Context, productID int) (domain.Stock, error) {
	time.Sleep(s.delay)
	return s.StockLookup.Stock(ctx, productID)
}

func newTestEnvWithStockDelay(t *testing.T, delay time.Duration) *testEnv {
	t.Helper()

	cat, err := memory.Default()
	require.NoError(t, err)

	env := &testEnv{catalog: cat}
	svc, err := service.NewCartService(context.Background(), service.Dependencies{
		Repository: file.NewSnapshotRepository(filepath.Join(t.TempDir(), "cart.json")),
		Stock:      slowStock{StockLookup: cat, delay: delay},
		Products:   cat,
		Notifier: notify.Func(func(_ context.Context, n notify.Notification) {
			env.mu.Lock()
			defer env.mu.Unlock()
			env.notified = append(env.notified, n)
		}),
		Logger: testLogger(),
	})
	require.NoError(t, err)

	env.svc = svc
	env.router = NewRouter(svc, health.NewHandler(), testLogger(), RouterOptions{CORS: middleware.DefaultCORSConfig()})
	return env
}

func (e *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Data  *CartView `json:"data"`
	Error *struct {
		Code      string            `json:"code"`
		Message   string            `json:"message"`
		Fields    map[string]string `json:"fields"`
		RequestID string            `json:"request_id"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

// ============================================================================
// Handlers
// ============================================================================

func TestGetCart_Empty(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/cart", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"items":[],"item_count":0,"total":0}}`, rec.Body.String())
}

func TestAddProduct(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":3}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	view := decode(t, rec).Data
	require.NotNil(t, view)
	require.Len(t, view.Items, 1)
	assert.Equal(t, ItemView{
		ID:       3,
		Title:    "Tênis Adidas Duramo Lite 2.0",
		Price:    219.9,
		Image:    "https://rocketseat-cdn.s3-sa-east-1.amazonaws.com/modulo-redux/tenis3.jpg",
		Amount:   1,
		Subtotal: 219.9,
	}, view.Items[0])
	assert.Equal(t, 1, view.ItemCount)
}

func TestAddProduct_OutOfStock(t *testing.T) {
	env := newTestEnv(t)

	// Product 4 has one unit in stock.
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":4}`).Code)
	rec := env.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":4}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decode(t, rec)
	require.NotNil(t, body.Error)
	assert.Equal(t, "OUT_OF_STOCK", body.Error.Code)
	assert.Equal(t, "Quantidade solicitada fora de estoque", body.Error.Message)
	assert.NotEmpty(t, body.Error.RequestID)
	assert.Len(t, env.notified, 1)
}

func TestAddProduct_UnknownProductIsOperationFailure(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":99}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "CART_OPERATION_FAILED", body.Error.Code)
	assert.Equal(t, "Erro na adição do produto", body.Error.Message)
}

func TestAddProduct_InvalidBody(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"missing product id", `{}`, "VALIDATION_ERROR"},
		{"zero product id", `{"product_id":0}`, "VALIDATION_ERROR"},
		{"negative product id", `{"product_id":-2}`, "VALIDATION_ERROR"},
		{"unknown field", `{"product_id":1,"amount":3}`, "INVALID_INPUT"},
		{"malformed", `{"product_id":`, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/v1/cart/items", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantCode, decode(t, rec).Error.Code)
		})
	}
	assert.Empty(t, env.svc.Cart())
}

func TestAddProduct_ValidationFieldName(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/cart/items", `{}`)

	assert.Contains(t, decode(t, rec).Error.Fields, "product_id")
}

func TestUpdateAmount(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":2}`).Code)

	rec := env.do(t, http.MethodPut, "/api/v1/cart/items/2", `{"amount":4}`)
	require.Equal(t, http.StatusOK, rec.Code)

	view := decode(t, rec).Data
	assert.Equal(t, 4, view.Items[0].Amount)
	assert.True(t, view.Items[0].CanDecrement)
	assert.InDelta(t, 559.6, view.Total, 1e-9)
}

func TestUpdateAmount_BelowOneIsIgnored(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":2}`).Code)

	rec := env.do(t, http.MethodPut, "/api/v1/cart/items/2", `{"amount":0}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode(t, rec).Data.Items[0].Amount)
	assert.Empty(t, env.notified)
}

func TestUpdateAmount_Errors(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":2}`).Code)

	tests := []struct {
		name       string
		target     string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"exceeds stock", "/api/v1/cart/items/2", `{"amount":6}`, http.StatusConflict, "OUT_OF_STOCK"},
		{"not in cart beyond stock", "/api/v1/cart/items/1", `{"amount":4}`, http.StatusConflict, "OUT_OF_STOCK"},
		{"missing amount", "/api/v1/cart/items/2", `{}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad id", "/api/v1/cart/items/abc", `{"amount":1}`, http.StatusBadRequest, "INVALID_PARAMETER"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPut, tt.target, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decode(t, rec).Error.Code)
		})
	}
}

func TestUpdateAmount_NotInCartLeavesCartUnchanged(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":2}`).Code)

	rec := env.do(t, http.MethodPut, "/api/v1/cart/items/1", `{"amount":2}`)

	require.Equal(t, http.StatusOK, rec.Code)
	view := decode(t, rec).Data
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Items[0].ID)
	assert.Empty(t, env.notified)
}

func TestIncrementDecrement(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":1}`).Code)

	rec := env.do(t, http.MethodPost, "/api/v1/cart/items/1/increment", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode(t, rec).Data.Items[0].Amount)

	rec = env.do(t, http.MethodPost, "/api/v1/cart/items/1/decrement", "")
	require.Equal(t, http.StatusOK, rec.Code)
	item := decode(t, rec).Data.Items[0]
	assert.Equal(t, 1, item.Amount)
	assert.False(t, item.CanDecrement)

	// Decrementing at 1 forwards amount 0, which the cart ignores.
	rec = env.do(t, http.MethodPost, "/api/v1/cart/items/1/decrement", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode(t, rec).Data.Items[0].Amount)
	assert.Empty(t, env.notified)
}

func TestIncrement_NotInCart(t *testing.T) {
	env := newTestEnv(t)

	for _, target := range []string{"/api/v1/cart/items/1/increment", "/api/v1/cart/items/1/decrement"} {
		rec := env.do(t, http.MethodPost, target, "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "NOT_FOUND", body.Error.Code)
		assert.Equal(t, "Erro na alteração de quantidade do produto", body.Error.Message)
	}
	assert.Empty(t, env.svc.Cart())
	assert.Len(t, env.notified, 2)
}

func TestIncrement_ConcurrentRequestsAreNotLost(t *testing.T) {
	env := newTestEnvWithStockDelay(t, 50*time.Millisecond)
	env.catalog.SetStock(6, 10)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":6}`).Code)

	const requests = 3
	var wg sync.WaitGroup
	codes := make(chan int, requests)
	for range requests {
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes <- env.do(t, http.MethodPost, "/api/v1/cart/items/6/increment", "").Code
		}()
	}
	wg.Wait()
	close(codes)

	for code := range codes {
		assert.Equal(t, http.StatusOK, code)
	}
	assert.Equal(t, 1+requests, env.svc.Cart()[0].Amount)
}

func TestIncrement_BeyondStock(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.SetStock(1, 1)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":1}`).Code)

	rec := env.do(t, http.MethodPost, "/api/v1/cart/items/1/increment", "")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 1, env.svc.Cart()[0].Amount)
}

func TestRemoveProduct(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":1}`).Code)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":2}`).Code)

	rec := env.do(t, http.MethodDelete, "/api/v1/cart/items/1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	view := decode(t, rec).Data
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Items[0].ID)

	rec = env.do(t, http.MethodDelete, "/api/v1/cart/items/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Erro na remoção do produto", decode(t, rec).Error.Message)
}

func TestContentTypeJSON(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader("product_id=1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

// ============================================================================
// Store failures
// ============================================================================

type brokenStore struct{}

func (brokenStore) Cart() domain.Cart { return domain.Cart{} }
func (brokenStore) AddProduct(context.Context, int) (domain.Cart, error) {
	return nil, errors.New("unexpected")
}
func (brokenStore) RemoveProduct(context.Context, int) (domain.Cart, error) {
	return nil, errors.New("unexpected")
}
func (brokenStore) UpdateProductAmount(context.Context, service.UpdateProductAmountInput) (domain.Cart, error) {
	return nil, errors.New("unexpected")
}
func (brokenStore) StepProductAmount(context.Context, int, int) (domain.Cart, error) {
	return nil, errors.New("unexpected")
}

func TestUntypedStoreErrorIsInternal(t *testing.T) {
	router := NewRouter(brokenStore{}, health.NewHandler(), testLogger(), RouterOptions{CORS: middleware.DefaultCORSConfig()})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items/1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}

func TestRouter_RateLimitsCartRoutes(t *testing.T) {
	router := NewRouter(brokenStore{}, health.NewHandler(), testLogger(), RouterOptions{
		CORS:      middleware.DefaultCORSConfig(),
		RateLimit: middleware.RateLimitConfig{RPS: 0.001, Burst: 1},
	})

	serve := func(target string) int {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, serve("/api/v1/cart"))
	assert.Equal(t, http.StatusTooManyRequests, serve("/api/v1/cart"))
	assert.Equal(t, http.StatusOK, serve("/health/live"))
}
