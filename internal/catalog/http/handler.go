package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/rocketshoes/internal/catalog"
	"github.com/utafrali/rocketshoes/internal/domain"
	"github.com/utafrali/rocketshoes/pkg/httputil"
	"github.com/utafrali/rocketshoes/pkg/pagination"
)

// Handler serves the stock API: stock and product records in the same bare
// JSON shape the storefront's mock server used.
type Handler struct {
	catalog catalog.Catalog
	logger  *slog.Logger
}

// NewHandler creates a stock API handler.
func NewHandler(c catalog.Catalog, logger *slog.Logger) *Handler {
	return &Handler{catalog: c, logger: logger}
}

type productResponse struct {
	ID    int     `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
	Image string  `json:"image"`
}

func toProductResponse(p domain.Product) productResponse {
	return productResponse{ID: p.ID, Title: p.Title, Price: p.Price, Image: p.Image}
}

// GetStock handles GET /stock/{id}.
func (h *Handler) GetStock(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.PathID(w, r, "id")
	if !ok {
		return
	}

	stock, err := h.catalog.Stock(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stock)
}

// GetProduct handles GET /products/{id}.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.PathID(w, r, "id")
	if !ok {
		return
	}

	product, err := h.catalog.Product(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toProductResponse(product))
}

// ListProducts handles GET /products. The body is a bare array; _page and
// _limit window it and X-Total-Count reports the full size.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	out := make([]productResponse, len(products))
	for i, p := range products {
		out[i] = toProductResponse(p)
	}
	window := pagination.Parse(r.URL.Query())
	pagination.WriteHeaders(w, r, window, len(out))
	httputil.WriteJSON(w, http.StatusOK, pagination.Apply(out, window))
}
