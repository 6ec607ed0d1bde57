package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/utafrali/rocketshoes/internal/domain"
	"github.com/utafrali/rocketshoes/pkg/httpclient"
)

const serviceName = "stock-api"

// Getter performs GET requests. httpclient.Client and
// httpclient.CircuitBreakerClient both satisfy it.
type Getter interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// Client looks up stock and products on the stock API.
type Client struct {
	getter  Getter
	baseURL string
}

// NewClient creates a client for the stock API at baseURL.
func NewClient(baseURL string, getter Getter) *Client {
	return &Client{
		getter:  getter,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Stock implements catalog.StockLookup with GET {base}/stock/{id}.
func (c *Client) Stock(ctx context.Context, productID int) (domain.Stock, error) {
	var stock domain.Stock
	if err := c.getJSON(ctx, fmt.Sprintf("%s/stock/%d", c.baseURL, productID), &stock); err != nil {
		return domain.Stock{}, fmt.Errorf("get stock %d: %w", productID, err)
	}
	if stock.ID == 0 {
		stock.ID = productID
	}
	return stock, nil
}

// Product implements catalog.ProductLookup with GET {base}/products/{id}.
func (c *Client) Product(ctx context.Context, productID int) (domain.Product, error) {
	var product domain.Product
	if err := c.getJSON(ctx, fmt.Sprintf("%s/products/%d", c.baseURL, productID), &product); err != nil {
		return domain.Product{}, fmt.Errorf("get product %d: %w", productID, err)
	}
	if product.ID != productID {
		return domain.Product{}, fmt.Errorf("get product %d: %s returned product %d", productID, serviceName, product.ID)
	}
	return product, nil
}

// Ping checks the stock API liveness endpoint.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.getter.Get(ctx, c.baseURL+"/health/live")
	if err != nil {
		return fmt.Errorf("ping %s: %w", serviceName, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return httpclient.ResponseError(resp, serviceName)
	}
	_ = resp.Body.Close()
	return nil
}

func (c *Client) getJSON(ctx context.Context, url string, dst any) error {
	resp, err := c.getter.Get(ctx, url)
	if err != nil {
		return err
	}
	return httpclient.ReadJSON(resp, dst, serviceName)
}
