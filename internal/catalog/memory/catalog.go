package memory

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"sync"

	"github.com/utafrali/rocketshoes/internal/domain"
	apperrors "github.com/utafrali/rocketshoes/pkg/errors"
)

//go:embed seed.json
var defaultSeed []byte

// Seed is the on-disk catalog format.
type Seed struct {
	Products []domain.Product `json:"products"`
	Stock    []domain.Stock   `json:"stock"`
}

// Catalog is an in-memory catalog.Catalog. It is safe for concurrent use.
type Catalog struct {
	mu       sync.RWMutex
	products map[int]domain.Product
	stock    map[int]int
}

// New builds a catalog from seed. Products are listed in id order.
func New(seed Seed) (*Catalog, error) {
	c := &Catalog{
		products: make(map[int]domain.Product, len(seed.Products)),
		stock:    make(map[int]int, len(seed.Stock)),
	}
	for _, p := range seed.Products {
		if p.ID <= 0 {
			return nil, fmt.Errorf("seed product has invalid id %d", p.ID)
		}
		if _, dup := c.products[p.ID]; dup {
			return nil, fmt.Errorf("seed has duplicate product id %d", p.ID)
		}
		p.Amount = 0
		c.products[p.ID] = p
	}
	for _, s := range seed.Stock {
		if s.Amount < 0 {
			return nil, fmt.Errorf("seed stock for product %d is negative", s.ID)
		}
		c.stock[s.ID] = s.Amount
	}
	return c, nil
}

// Default returns the catalog built from the embedded RocketShoes seed.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(defaultSeed))
}

// Load decodes a JSON seed from r.
func Load(r io.Reader) (*Catalog, error) {
	var seed Seed
	if err := json.NewDecoder(r).Decode(&seed); err != nil {
		return nil, fmt.Errorf("decode catalog seed: %w", err)
	}
	return New(seed)
}

// LoadFile decodes a JSON seed file.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog seed: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Stock implements catalog.StockLookup.
func (c *Catalog) Stock(_ context.Context, productID int) (domain.Stock, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	amount, ok := c.stock[productID]
	if !ok {
		return domain.Stock{}, apperrors.NotFound("stock", strconv.Itoa(productID))
	}
	return domain.Stock{ID: productID, Amount: amount}, nil
}

// Product implements catalog.ProductLookup.
func (c *Catalog) Product(_ context.Context, productID int) (domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.products[productID]
	if !ok {
		return domain.Product{}, apperrors.NotFound("product", strconv.Itoa(productID))
	}
	return p, nil
}

// List returns all products ordered by id.
func (c *Catalog) List(_ context.Context) ([]domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b domain.Product) int { return a.ID - b.ID })
	return out, nil
}

// SetStock replaces the stock of a product.
func (c *Catalog) SetStock(productID, amount int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stock[productID] = amount
}
