package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/utafrali/rocketshoes/internal/domain"
	"github.com/utafrali/rocketshoes/internal/notify"
	apperrors "github.com/utafrali/rocketshoes/pkg/errors"
)

// ============================================================================
// Snapshot repository
// ============================================================================

type fakeRepository struct {
	mu       sync.Mutex
	snapshot domain.Cart
	exists   bool
	loadErr  error
	saveErr  error
	saves    int
}

func newFakeRepository(initial domain.Cart) *fakeRepository {
	return &fakeRepository{snapshot: initial.Clone(), exists: initial != nil}
}

func (r *fakeRepository) Load(context.Context) (domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	if !r.exists {
		return nil, apperrors.NotFound("cart snapshot", "@RocketShoes:cart")
	}
	return r.snapshot.Clone(), nil
}

func (r *fakeRepository) Save(_ context.Context, cart domain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.snapshot = cart.Clone()
	r.exists = true
	r.saves++
	return nil
}

func (r *fakeRepository) Ping(context.Context) error { return nil }

func (r *fakeRepository) failSaves(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveErr = err
}

func (r *fakeRepository) stored() (domain.Cart, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot.Clone(), r.saves
}

// ============================================================================
// Catalog
// ============================================================================

type fakeCatalog struct {
	mu           sync.Mutex
	stock        map[int]int
	products     map[int]domain.Product
	stockErr     error
	productErr   error
	stockCalls   int
	productCalls int

	// When set, Stock signals entered and waits for release.
	entered chan struct{}
	release chan struct{}
	// delay is slept at the start of every Stock call.
	delay time.Duration
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		stock: map[int]int{1: 5, 2: 3, 3: 0},
		products: map[int]domain.Product{
			1: {ID: 1, Title: "Tênis de Caminhada Leve Confortável", Price: 179.9, Image: "tenis1.jpg"},
			2: {ID: 2, Title: "Tênis VR Caminhada Confortável Detalhes Couro Masculino", Price: 139.9, Image: "tenis2.jpg"},
			3: {ID: 3, Title: "Tênis Adidas Duramo Lite 2.0", Price: 219.9, Image: "tenis3.jpg"},
		},
	}
}

func (c *fakeCatalog) Stock(ctx context.Context, id int) (domain.Stock, error) {
	c.mu.Lock()
	c.stockCalls++
	entered, release, delay := c.entered, c.release, c.delay
	c.mu.Unlock()

	time.Sleep(delay)

	if entered != nil {
		entered <- struct{}{}
		select {
		case <-release:
		case <-ctx.Done():
			return domain.Stock{}, ctx.Err()
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stockErr != nil {
		return domain.Stock{}, c.stockErr
	}
	amount, ok := c.stock[id]
	if !ok {
		return domain.Stock{}, apperrors.NotFoundMessage("stock-api: stock with id " + strconv.Itoa(id) + " not found")
	}
	return domain.Stock{ID: id, Amount: amount}, nil
}

func (c *fakeCatalog) Product(_ context.Context, id int) (domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.productCalls++
	if c.productErr != nil {
		return domain.Product{}, c.productErr
	}
	p, ok := c.products[id]
	if !ok {
		return domain.Product{}, apperrors.NotFoundMessage("stock-api: product not found")
	}
	return p, nil
}

func (c *fakeCatalog) setStock(id, amount int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stock[id] = amount
}

func (c *fakeCatalog) calls() (stock, product int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stockCalls, c.productCalls
}

// ============================================================================
// Notifier and publisher
// ============================================================================

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, note notify.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, note)
}

func (n *recordingNotifier) all() []notify.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Notification(nil), n.sent...)
}

type recordingPublisher struct {
	mu        sync.Mutex
	published []domain.Cart
	err       error
}

func (p *recordingPublisher) PublishCartUpdated(_ context.Context, cart domain.Cart) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, cart)
	return p.err
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

// blockingNotifier holds every Notify call until release is closed.
type blockingNotifier struct {
	entered chan struct{}
	release chan struct{}
}

func newBlockingNotifier() *blockingNotifier {
	return &blockingNotifier{entered: make(chan struct{}, 8), release: make(chan struct{})}
}

func (n *blockingNotifier) Notify(context.Context, notify.Notification) {
	n.entered <- struct{}{}
	<-n.release
}

// blockingPublisher holds every publish until release is closed.
type blockingPublisher struct {
	entered chan struct{}
	release chan struct{}
}

func newBlockingPublisher() *blockingPublisher {
	return &blockingPublisher{entered: make(chan struct{}, 8), release: make(chan struct{})}
}

func (p *blockingPublisher) PublishCartUpdated(context.Context, domain.Cart) error {
	p.entered <- struct{}{}
	<-p.release
	return nil
}
