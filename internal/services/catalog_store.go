package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"ferreteria/internal/models"
	"ferreteria/internal/repositories"

	"github.com/asaskevich/EventBus"
	"go.uber.org/zap"
)

const topicCatalogChanged = "catalog:changed"

// StoreState is the fetch-cycle state of a CatalogStore.
type StoreState int

const (
	StateIdle StoreState = iota
	StateFetching
	StateReady
	StateFetchFailed
)

func (s StoreState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateReady:
		return "ready"
	case StateFetchFailed:
		return "fetch_failed"
	}
	return fmt.Sprintf("StoreState(%d)", int(s))
}

// CatalogStore owns the in-memory copy of the product collection and mediates
// every mutation of it. The lock is never held across a backend call, so
// concurrent operations are not coordinated: the last one to finish wins.
type CatalogStore struct {
	repo            repositories.ProductRepository
	events          EventPublisher
	bus             EventBus.Bus
	requireCategory bool

	mu       sync.RWMutex
	state    StoreState
	products []models.Product

	// serializes AdjustStock so concurrent purchases do not lose decrements
	stockMu sync.Mutex

	subMu       sync.Mutex
	subscribers []subscription
	nextSubID   uint64
}

type subscription struct {
	id uint64
	fn func([]models.Product)
}

// StoreOption configures a CatalogStore.
type StoreOption func(*CatalogStore)

// WithEventPublisher publishes an event after every successful mutation.
func WithEventPublisher(p EventPublisher) StoreOption {
	return func(s *CatalogStore) { s.events = p }
}

// WithRequiredCategory makes Create reject products without a category.
func WithRequiredCategory(required bool) StoreOption {
	return func(s *CatalogStore) { s.requireCategory = required }
}

// NewCatalogStore creates an idle store over repo.
func NewCatalogStore(repo repositories.ProductRepository, opts ...StoreOption) *CatalogStore {
	s := &CatalogStore{
		repo:     repo,
		bus:      EventBus.New(),
		products: []models.Product{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.bus.Subscribe(topicCatalogChanged, s.dispatch); err != nil {
		zap.L().Error("failed to subscribe to catalog changes", zap.Error(err))
	}
	return s
}

// State reports the current fetch-cycle state.
func (s *CatalogStore) State() StoreState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// RequiresCategory reports whether Create demands a category.
func (s *CatalogStore) RequiresCategory() bool {
	return s.requireCategory
}

// FetchAll replaces the in-memory list with the backend's current contents.
// On failure the previous list is kept.
func (s *CatalogStore) FetchAll(ctx context.Context) error {
	s.mu.Lock()
	s.state = StateFetching
	s.mu.Unlock()

	fetched, err := s.repo.List(ctx)
	if err != nil {
		s.mu.Lock()
		s.state = StateFetchFailed
		s.mu.Unlock()
		zap.L().Error("failed to fetch catalog", zap.Error(err))
		return fmt.Errorf("fetch catalog: %w: %w", ErrRemoteUnavailable, err)
	}

	seen := make(map[string]struct{}, len(fetched))
	products := make([]models.Product, 0, len(fetched))
	for _, p := range fetched {
		if _, dup := seen[p.ID]; dup {
			zap.L().Warn("skipping duplicate product id", zap.String("product_id", p.ID))
			continue
		}
		seen[p.ID] = struct{}{}
		p.Normalize()
		products = append(products, p)
	}

	s.mu.Lock()
	s.products = products
	s.state = StateReady
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	zap.L().Info("catalog fetched", zap.Int("products", len(products)))
	s.notify(snapshot)
	return nil
}

// Create validates the form, stores the product and appends it locally.
func (s *CatalogStore) Create(ctx context.Context, form ProductForm) (*models.Product, error) {
	product, err := form.Parse(CreateMode, s.requireCategory)
	if err != nil {
		zap.L().Info("rejected product registration", zap.Error(err))
		return nil, err
	}
	if err := s.checkReady(); err != nil {
		return nil, err
	}

	id, err := s.repo.Add(ctx, product)
	if err != nil {
		zap.L().Error("failed to register product", zap.String("product_name", product.ProductName), zap.Error(err))
		return nil, fmt.Errorf("create product: %w: %w", ErrRemoteUnavailable, err)
	}
	product.ID = id

	s.mu.Lock()
	if i := s.indexLocked(id); i >= 0 {
		s.products[i] = product
	} else {
		s.products = append(s.products, product)
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	zap.L().Info("product registered", zap.String("product_id", id), zap.String("product_name", product.ProductName))
	s.notify(snapshot)
	publishEvent(s.events, CatalogEvent{Type: EventProductCreated, ProductID: id, Product: &product})
	return &product, nil
}

// Update replaces the fields of the product with the given id. An id that is
// not in the catalog is a no-op and returns (nil, nil).
func (s *CatalogStore) Update(ctx context.Context, id string, form ProductForm) (*models.Product, error) {
	fields, err := form.Parse(UpdateMode, s.requireCategory)
	if err != nil {
		zap.L().Info("rejected product update", zap.String("product_id", id), zap.Error(err))
		return nil, err
	}
	if err := s.checkReady(); err != nil {
		return nil, err
	}

	current, ok := s.Get(id)
	if !ok {
		zap.L().Info("update of unknown product ignored", zap.String("product_id", id))
		return nil, nil
	}
	if fields.ImageURL == "" {
		fields.ImageURL = current.ImageURL
	}
	if fields.Category == "" {
		fields.Category = current.Category
	}
	fields.Normalize()
	fields.ID = id

	updated, err := s.save(ctx, fields)
	if errors.Is(err, repositories.ErrNotFound) {
		zap.L().Info("update of product missing from backend ignored", zap.String("product_id", id))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update product %s: %w", id, err)
	}
	zap.L().Info("product updated", zap.String("product_id", id))
	publishEvent(s.events, CatalogEvent{Type: EventProductUpdated, ProductID: id, Product: updated})
	return updated, nil
}

// AdjustStock adds delta to the stock of a product. The resulting quantity
// must not be negative.
func (s *CatalogStore) AdjustStock(ctx context.Context, id string, delta int) (*models.Product, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}
	s.stockMu.Lock()
	defer s.stockMu.Unlock()

	current, ok := s.Get(id)
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id, ErrProductNotFound)
	}
	quantity := current.StockQuantity + delta
	if quantity < 0 {
		return nil, fmt.Errorf("product %s has %d in stock: %w", id, current.StockQuantity, ErrInsufficientStock)
	}
	current.StockQuantity = quantity

	updated, err := s.save(ctx, current)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("product %s: %w", id, ErrProductNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("adjust stock of %s: %w", id, err)
	}
	publishEvent(s.events, CatalogEvent{Type: EventProductUpdated, ProductID: id, Product: updated})
	return updated, nil
}

// save writes product to the backend, then into the local list if it is
// still there.
func (s *CatalogStore) save(ctx context.Context, product models.Product) (*models.Product, error) {
	if err := s.repo.Update(ctx, product.ID, product); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
		zap.L().Error("failed to save product", zap.String("product_id", product.ID), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	}

	s.mu.Lock()
	if i := s.indexLocked(product.ID); i >= 0 {
		s.products[i] = product
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot)
	return &product, nil
}

// Delete removes a product from the backend and the local list. Deleting an
// unknown id succeeds without changes.
func (s *CatalogStore) Delete(ctx context.Context, id string) error {
	if err := s.checkReady(); err != nil {
		return err
	}

	removedRemotely := true
	if err := s.repo.Delete(ctx, id); err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			zap.L().Error("failed to delete product", zap.String("product_id", id), zap.Error(err))
			return fmt.Errorf("delete product %s: %w: %w", id, ErrRemoteUnavailable, err)
		}
		removedRemotely = false
	}

	s.mu.Lock()
	i := s.indexLocked(id)
	if i >= 0 {
		s.products = append(s.products[:i:i], s.products[i+1:]...)
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	if i >= 0 {
		s.notify(snapshot)
	}
	if removedRemotely {
		zap.L().Info("product deleted", zap.String("product_id", id))
		publishEvent(s.events, CatalogEvent{Type: EventProductDeleted, ProductID: id})
	}
	return nil
}

// Get returns a copy of the product with the given id.
func (s *CatalogStore) Get(id string) (models.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.products[i], true
	}
	return models.Product{}, false
}

// Snapshot returns a copy of the current list.
func (s *CatalogStore) Snapshot() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Filter returns the products whose name, brand or price contains query,
// ignoring case. An empty query returns the whole list.
func (s *CatalogStore) Filter(query string) []models.Product {
	return FilterProducts(s.Snapshot(), query)
}

// Subscribe registers fn to receive a snapshot after every change of the
// list, in subscription order. fn runs synchronously on the goroutine that
// changed the list. It may subscribe or unsubscribe, but it must not call a
// mutating store method directly: the change notification would wait on the
// one in progress. Hand such work to a goroutine instead.
func (s *CatalogStore) Subscribe(fn func([]models.Product)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers = append(s.subscribers, subscription{id: id, fn: fn})
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			for i, sub := range s.subscribers {
				if sub.id == id {
					s.subscribers = append(s.subscribers[:i:i], s.subscribers[i+1:]...)
					return
				}
			}
		})
	}
}

// dispatch is the store's only bus handler. Listeners are called without
// subMu held.
func (s *CatalogStore) dispatch(snapshot []models.Product) {
	s.subMu.Lock()
	subs := make([]subscription, len(s.subscribers))
	copy(subs, s.subscribers)
	s.subMu.Unlock()

	for _, sub := range subs {
		sub.fn(snapshot)
	}
}

func (s *CatalogStore) notify(snapshot []models.Product) {
	s.bus.Publish(topicCatalogChanged, snapshot)
}

func (s *CatalogStore) checkReady() error {
	switch st := s.State(); st {
	case StateReady, StateFetching:
		return nil
	default:
		return fmt.Errorf("%w (state %s)", ErrNotReady, st)
	}
}

func (s *CatalogStore) indexLocked(id string) int {
	for i := range s.products {
		if s.products[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *CatalogStore) snapshotLocked() []models.Product {
	out := make([]models.Product, len(s.products))
	copy(out, s.products)
	return out
}

// FilterProducts is the search predicate applied to an arbitrary list.
// Order is preserved.
func FilterProducts(products []models.Product, query string) []models.Product {
	q := strings.ToLower(query)
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if q == "" ||
			strings.Contains(strings.ToLower(p.ProductName), q) ||
			strings.Contains(strings.ToLower(p.Brand), q) ||
			strings.Contains(FormatPrice(p.Price), q) {
			out = append(out, p)
		}
	}
	return out
}
