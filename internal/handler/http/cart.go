package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/utafrali/rocketshoes/internal/domain"
	"github.com/utafrali/rocketshoes/internal/service"
	"github.com/utafrali/rocketshoes/pkg/httputil"
	"github.com/utafrali/rocketshoes/pkg/validator"
)

// CartStore is the cart the handler reads and forwards intents to.
// *service.CartService implements it.
type CartStore interface {
	Cart() domain.Cart
	AddProduct(ctx context.Context, productID int) (domain.Cart, error)
	RemoveProduct(ctx context.Context, productID int) (domain.Cart, error)
	UpdateProductAmount(ctx context.Context, input service.UpdateProductAmountInput) (domain.Cart, error)
	StepProductAmount(ctx context.Context, productID, delta int) (domain.Cart, error)
}

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	store  CartStore
	logger *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(store CartStore, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		store:  store,
		logger: logger,
	}
}

// --- Request DTOs ---

// AddProductRequest is the JSON request body for adding a product.
type AddProductRequest struct {
	ProductID int `json:"product_id" validate:"required,gt=0"`
}

// UpdateAmountRequest is the JSON request body for setting an amount.
// Amounts below 1 are accepted and ignored by the cart.
type UpdateAmountRequest struct {
	Amount *int `json:"amount" validate:"required"`
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, _ *http.Request) {
	h.writeCart(w, h.store.Cart())
}

// AddProduct handles POST /api/v1/cart/items
func (h *CartHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	var req AddProductRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	cart, err := h.store.AddProduct(r.Context(), req.ProductID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.writeCart(w, cart)
}

// UpdateAmount handles PUT /api/v1/cart/items/{productId}
func (h *CartHandler) UpdateAmount(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.PathID(w, r, "productId")
	if !ok {
		return
	}

	var req UpdateAmountRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	cart, err := h.store.UpdateProductAmount(r.Context(), service.UpdateProductAmountInput{
		ProductID: productID,
		Amount:    *req.Amount,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.writeCart(w, cart)
}

// Increment handles POST /api/v1/cart/items/{productId}/increment
func (h *CartHandler) Increment(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, 1)
}

// Decrement handles POST /api/v1/cart/items/{productId}/decrement
func (h *CartHandler) Decrement(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, -1)
}

// RemoveProduct handles DELETE /api/v1/cart/items/{productId}
func (h *CartHandler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.PathID(w, r, "productId")
	if !ok {
		return
	}

	cart, err := h.store.RemoveProduct(r.Context(), productID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.writeCart(w, cart)
}

// step forwards the current amount plus delta, as the storefront's +/- buttons do.
func (h *CartHandler) step(w http.ResponseWriter, r *http.Request, delta int) {
	productID, ok := httputil.PathID(w, r, "productId")
	if !ok {
		return
	}

	cart, err := h.store.StepProductAmount(r.Context(), productID, delta)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.writeCart(w, cart)
}

func (h *CartHandler) writeCart(w http.ResponseWriter, cart domain.Cart) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: NewCartView(cart)})
}
