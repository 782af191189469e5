// Package cart holds the shopper's cart and the only operations allowed to
// change it.
//
// Every operation snapshots the cart when it starts and derives the next cart
// from that snapshot after its remote lookups return. Overlapping operations
// are not serialized, so the last commit wins and may be based on a stale
// view. Callers that need stricter ordering must serialize calls themselves.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fjod/go_cart/storefront-cart/internal/domain"
	"github.com/fjod/go_cart/storefront-cart/internal/logger"
	"github.com/fjod/go_cart/storefront-cart/internal/notify"
	"github.com/fjod/go_cart/storefront-cart/internal/storage"
	"github.com/sirupsen/logrus"
)

const DefaultStorageKey = "@RocketShoes:cart"

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrProductNotFound   = errors.New("product not found")
	ErrStockUnavailable  = errors.New("stock lookup returned no data")
)

// Catalog looks up products and their stock.
// Consumers define this interface, not the REST implementation
type Catalog interface {
	GetStock(ctx context.Context, productID int64) (*domain.Stock, error)
	GetProduct(ctx context.Context, productID int64) (*domain.Product, error)
}

type Store struct {
	mu   sync.RWMutex
	cart domain.Cart

	commitMu sync.Mutex // orders storage writes and subscriber delivery

	subsMu  sync.RWMutex
	subs    map[int]func(domain.Cart)
	nextSub int

	storage  storage.Storage
	catalog  Catalog
	notifier notify.Notifier
	key      string
	log      *logrus.Logger
}

type Option func(*Store)

func WithStorageKey(key string) Option {
	return func(s *Store) { s.key = key }
}

func WithLogger(log *logrus.Logger) Option {
	return func(s *Store) { s.log = log }
}

// NewStore loads the persisted cart. A missing or unreadable entry yields an
// empty cart; loading never writes back.
func NewStore(ctx context.Context, st storage.Storage, catalog Catalog, notifier notify.Notifier, opts ...Option) *Store {
	s := &Store{
		subs:     make(map[int]func(domain.Cart)),
		storage:  st,
		catalog:  catalog,
		notifier: notifier,
		key:      DefaultStorageKey,
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.cart = s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) domain.Cart {
	log := logger.WithContext(ctx, s.log).WithField("key", s.key)

	data, err := s.storage.GetItem(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return domain.Cart{}
	}
	if err != nil {
		log.WithError(err).Warn("failed to read stored cart, starting empty")
		return domain.Cart{}
	}

	cart, err := domain.UnmarshalCart(data)
	if err != nil {
		log.WithError(err).Warn("stored cart is not parseable, starting empty")
		return domain.Cart{}
	}

	log.WithField("items", len(cart)).Debug("cart loaded")
	return cart
}

// Cart returns a copy of the current line items in display order.
func (s *Store) Cart() domain.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Clone()
}

// Subscribe registers fn to receive every committed cart. fn runs on the
// committing goroutine and must not call the store's mutators.
func (s *Store) Subscribe(fn func(domain.Cart)) (unsubscribe func()) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		delete(s.subs, id)
	}
}

// AddProduct adds one unit of productID, fetching the product when it is not
// in the cart yet. Failures are reported through the notifier only.
func (s *Store) AddProduct(ctx context.Context, productID int64) {
	err := s.addProduct(ctx, s.Cart(), productID)
	s.report(ctx, "add_product", productID, err, domain.MsgAddFailed)
}

func (s *Store) addProduct(ctx context.Context, snapshot domain.Cart, productID int64) error {
	amountNeeded := snapshot.AmountOf(productID) + 1

	stock, err := s.catalog.GetStock(ctx, productID)
	if err != nil {
		return fmt.Errorf("failed to get stock: %w", err)
	}
	if stock == nil {
		return ErrStockUnavailable
	}
	if stock.Amount < amountNeeded {
		return ErrInsufficientStock
	}

	next := snapshot
	if i := next.Find(productID); i >= 0 {
		next[i].Amount = amountNeeded
		return s.commit(ctx, next)
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil || product.ID != productID {
		return ErrProductNotFound
	}

	product.Amount = amountNeeded
	return s.commit(ctx, append(next, *product))
}

// RemoveProduct drops the line item of productID.
func (s *Store) RemoveProduct(ctx context.Context, productID int64) {
	err := s.removeProduct(ctx, s.Cart(), productID)
	s.report(ctx, "remove_product", productID, err, domain.MsgRemoveFailed)
}

func (s *Store) removeProduct(ctx context.Context, snapshot domain.Cart, productID int64) error {
	if snapshot.Find(productID) < 0 {
		return domain.ErrNotInCart
	}

	next := make(domain.Cart, 0, len(snapshot)-1)
	for _, p := range snapshot {
		if p.ID != productID {
			next = append(next, p)
		}
	}
	return s.commit(ctx, next)
}

// UpdateProductAmount sets the amount of a product already in the cart.
func (s *Store) UpdateProductAmount(ctx context.Context, req domain.UpdateProductAmount) {
	err := s.updateProductAmount(ctx, s.Cart(), req)
	s.report(ctx, "update_product_amount", req.ProductID, err, domain.MsgUpdateFailed)
}

func (s *Store) updateProductAmount(ctx context.Context, snapshot domain.Cart, req domain.UpdateProductAmount) error {
	if req.Amount < 1 {
		return domain.ErrInvalidAmount
	}
	i := snapshot.Find(req.ProductID)
	if i < 0 {
		return domain.ErrNotInCart
	}

	stock, err := s.catalog.GetStock(ctx, req.ProductID)
	if err != nil {
		return fmt.Errorf("failed to get stock: %w", err)
	}
	if stock == nil {
		return ErrStockUnavailable
	}
	if stock.Amount < req.Amount {
		return ErrInsufficientStock
	}

	snapshot[i].Amount = req.Amount
	return s.commit(ctx, snapshot)
}

// commit persists next and only then makes it the current cart.
func (s *Store) commit(ctx context.Context, next domain.Cart) error {
	data, err := next.Marshal()
	if err != nil {
		return err
	}

	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	if err := s.storage.SetItem(ctx, s.key, data); err != nil {
		return fmt.Errorf("failed to persist cart: %w", err)
	}

	s.mu.Lock()
	s.cart = next
	s.mu.Unlock()

	s.publish(next)
	return nil
}

func (s *Store) publish(cart domain.Cart) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()

	for _, fn := range s.subs {
		fn(cart.Clone())
	}
}

func (s *Store) report(ctx context.Context, op string, productID int64, err error, genericMsg string) {
	if err == nil {
		return
	}

	log := logger.WithContext(ctx, s.log).WithFields(logrus.Fields{
		"operation":  op,
		"product_id": productID,
	})

	if errors.Is(err, ErrInsufficientStock) {
		log.Info("requested amount exceeds stock")
		s.notifier.Error(domain.MsgOutOfStock)
		return
	}

	log.WithError(err).Warn("cart operation failed")
	s.notifier.Error(genericMsg)
}
