package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/utafrali/rocketshoes/internal/catalog"
	"github.com/utafrali/rocketshoes/internal/domain"
	"github.com/utafrali/rocketshoes/internal/notify"
	"github.com/utafrali/rocketshoes/internal/repository"
	apperrors "github.com/utafrali/rocketshoes/pkg/errors"
	"github.com/utafrali/rocketshoes/pkg/tracing"
)

// User-facing messages shown when an operation fails.
const (
	MsgOutOfStock    = "Quantidade solicitada fora de estoque"
	MsgAddFailure    = "Erro na adição do produto"
	MsgRemoveFailure = "Erro na remoção do produto"
	MsgUpdateFailure = "Erro na alteração de quantidade do produto"
)

// CodeOperationFailed is the AppError code of lookup and storage failures.
const CodeOperationFailed = "CART_OPERATION_FAILED"

const tracerName = "github.com/utafrali/rocketshoes/internal/service"

// CartPublisher announces a cart after a successful mutation.
type CartPublisher interface {
	PublishCartUpdated(ctx context.Context, cart domain.Cart) error
}

// Dependencies are the collaborators of a CartService. Notifier, Publisher
// and Logger are optional.
type Dependencies struct {
	Repository repository.SnapshotRepository
	Stock      catalog.StockLookup
	Products   catalog.ProductLookup
	Notifier   notify.Notifier
	Publisher  CartPublisher
	Logger     *slog.Logger
}

// UpdateProductAmountInput holds the parameters for setting a line item's amount.
type UpdateProductAmountInput struct {
	ProductID int
	Amount    int
}

// CartService owns the cart. Mutations run one at a time; each validates
// against fresh stock, saves the whole snapshot and only then publishes the
// new cart. Notifications and cart.updated events are delivered after the
// writer is released. Cart never blocks on a running mutation.
type CartService struct {
	repo      repository.SnapshotRepository
	stock     catalog.StockLookup
	products  catalog.ProductLookup
	notifier  notify.Notifier
	publisher CartPublisher
	logger    *slog.Logger
	tracer    trace.Tracer

	writer *semaphore.Weighted
	cart   atomic.Pointer[domain.Cart]
}

// NewCartService creates the service and hydrates the cart from the stored
// snapshot. When no snapshot exists an empty one is written. A snapshot that
// cannot be read is an error.
func NewCartService(ctx context.Context, deps Dependencies) (*CartService, error) {
	if deps.Repository == nil || deps.Stock == nil || deps.Products == nil {
		return nil, errors.New("cart service: repository, stock and product lookups are required")
	}

	s := &CartService{
		repo:      deps.Repository,
		stock:     deps.Stock,
		products:  deps.Products,
		notifier:  deps.Notifier,
		publisher: deps.Publisher,
		logger:    deps.Logger,
		tracer:    tracing.Tracer(tracerName),
		writer:    semaphore.NewWeighted(1),
	}
	if s.notifier == nil {
		s.notifier = notify.Nop{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	cart, err := s.repo.Load(ctx)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		cart = domain.Cart{}
		if err := s.repo.Save(ctx, cart); err != nil {
			return nil, fmt.Errorf("write initial cart snapshot: %w", err)
		}
		s.logger.InfoContext(ctx, "cart snapshot not found, starting with an empty cart")
	case err != nil:
		return nil, fmt.Errorf("load cart snapshot: %w", err)
	}

	cart = cart.Clone()
	s.cart.Store(&cart)
	s.logger.InfoContext(ctx, "cart hydrated",
		slog.Int("line_items", len(cart)),
		slog.Int("item_count", cart.ItemCount()),
	)
	return s, nil
}

// Cart returns a copy of the current cart.
func (s *CartService) Cart() domain.Cart {
	return s.current().Clone()
}

func (s *CartService) current() domain.Cart {
	return *s.cart.Load()
}

// AddProduct adds one unit of a product. A product already in the cart is
// incremented in place when stock exceeds its amount; a new product is
// appended with amount 1 when stock is positive.
func (s *CartService) AddProduct(ctx context.Context, productID int) (domain.Cart, error) {
	op := s.begin(ctx, "CartService.AddProduct", notify.OperationAdd, productID)
	defer op.end()

	if err := op.lock(); err != nil {
		return op.failed(MsgAddFailure, err)
	}
	current := s.current()

	stock, err := s.stock.Stock(op.ctx, productID)
	if err != nil {
		return op.failed(MsgAddFailure, err)
	}

	var next domain.Cart
	if item, ok := current.Find(productID); ok {
		if stock.Amount-item.Amount <= 0 {
			return op.outOfStock()
		}
		next = current.WithAmount(productID, item.Amount+1)
	} else {
		if stock.Amount <= 0 {
			return op.outOfStock()
		}
		product, err := s.products.Product(op.ctx, productID)
		if err != nil {
			return op.failed(MsgAddFailure, err)
		}
		product.Amount = 1
		next = current.WithProduct(product)
	}

	if err := op.commit(next); err != nil {
		return op.failed(MsgAddFailure, err)
	}
	return op.succeeded(next)
}

// RemoveProduct removes a product's line item. No lookup is made.
func (s *CartService) RemoveProduct(ctx context.Context, productID int) (domain.Cart, error) {
	op := s.begin(ctx, "CartService.RemoveProduct", notify.OperationRemove, productID)
	defer op.end()

	if err := op.lock(); err != nil {
		return op.failed(MsgRemoveFailure, err)
	}
	current := s.current()
	if !current.Contains(productID) {
		return op.notFound(MsgRemoveFailure)
	}

	next := current.Without(productID)
	if err := op.commit(next); err != nil {
		return op.failed(MsgRemoveFailure, err)
	}
	return op.succeeded(next)
}

// UpdateProductAmount sets a line item's amount when stock covers it.
// Amounts below 1 are ignored without error or notification, as is an
// amount for a product that is not in the cart once stock covers it.
func (s *CartService) UpdateProductAmount(ctx context.Context, input UpdateProductAmountInput) (domain.Cart, error) {
	op := s.begin(ctx, "CartService.UpdateProductAmount", notify.OperationUpdateAmount, input.ProductID)
	defer op.end()
	op.span.SetAttributes(attribute.Int("cart.amount", input.Amount))

	if input.Amount < 1 {
		return op.noop("amount below 1 ignored")
	}
	if err := op.lock(); err != nil {
		return op.failed(MsgUpdateFailure, err)
	}
	return s.setAmount(op, s.current(), input.ProductID, input.Amount)
}

// StepProductAmount changes a line item's amount by delta, reading the
// current amount under the writer so concurrent steps are not lost. The
// product must be in the cart.
func (s *CartService) StepProductAmount(ctx context.Context, productID, delta int) (domain.Cart, error) {
	op := s.begin(ctx, "CartService.StepProductAmount", notify.OperationUpdateAmount, productID)
	defer op.end()
	op.span.SetAttributes(attribute.Int("cart.delta", delta))

	if err := op.lock(); err != nil {
		return op.failed(MsgUpdateFailure, err)
	}
	current := s.current()
	item, ok := current.Find(productID)
	if !ok {
		return op.notFound(MsgUpdateFailure)
	}

	amount := item.Amount + delta
	op.span.SetAttributes(attribute.Int("cart.amount", amount))
	if amount < 1 {
		return op.noop("amount below 1 ignored")
	}
	return s.setAmount(op, current, productID, amount)
}

// setAmount validates amount against fresh stock and applies it. The caller
// holds the writer.
func (s *CartService) setAmount(op *operation, current domain.Cart, productID, amount int) (domain.Cart, error) {
	stock, err := s.stock.Stock(op.ctx, productID)
	if err != nil {
		return op.failed(MsgUpdateFailure, err)
	}
	if stock.Amount-amount < 0 {
		return op.outOfStock()
	}
	if !current.Contains(productID) {
		return op.noop("product not in cart, amount unchanged")
	}

	next := current.WithAmount(productID, amount)
	if err := op.commit(next); err != nil {
		return op.failed(MsgUpdateFailure, err)
	}
	return op.succeeded(next)
}
