package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"ferreteria/internal/models"
	"ferreteria/internal/repositories"
	"ferreteria/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProductRepository is a mock implementation of repositories.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) List(ctx context.Context) ([]models.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) Add(ctx context.Context, product models.Product) (string, error) {
	args := m.Called(ctx, product)
	return args.String(0), args.Error(1)
}

func (m *MockProductRepository) Update(ctx context.Context, id string, product models.Product) error {
	args := m.Called(ctx, id, product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockPublisher records published catalog events.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(routingKey string, body []byte) error {
	args := m.Called(routingKey, body)
	return args.Error(0)
}

func taladro() models.Product {
	return models.Product{ID: "1", ProductName: "Taladro", Brand: "Bosch", Price: 45.0, StockQuantity: 3}
}

func seededStore(t *testing.T, products ...models.Product) (*services.CatalogStore, *repositories.MemoryProductRepository) {
	t.Helper()
	repo := repositories.NewMemoryProductRepository()
	for _, p := range products {
		_, err := repo.Add(context.Background(), p)
		require.NoError(t, err)
	}
	store := services.NewCatalogStore(repo)
	require.NoError(t, store.FetchAll(context.Background()))
	return store, repo
}

func TestCatalogStore_FetchAll(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	store := services.NewCatalogStore(mockRepo)
	assert.Equal(t, services.StateIdle, store.State())

	mockRepo.On("List", ctx).Return([]models.Product{
		taladro(),
		{ID: "2", ProductName: "Martillo", Brand: "Truper", Price: 12.5, StockQuantity: 10},
		{ID: "1", ProductName: "Duplicado"},
	}, nil).Once()

	require.NoError(t, store.FetchAll(ctx))
	assert.Equal(t, services.StateReady, store.State())

	products := store.Snapshot()
	require.Len(t, products, 2)
	ids := map[string]bool{}
	for _, p := range products {
		assert.False(t, ids[p.ID], "duplicate id %s", p.ID)
		ids[p.ID] = true
	}
	assert.Equal(t, "Taladro", products[0].ProductName)
	// documents from earlier revisions get the defaults
	assert.Equal(t, models.DefaultImageURL, products[0].ImageURL)
	assert.Equal(t, models.CategoryUncategorized, products[0].Category)
	mockRepo.AssertExpectations(t)
}

func TestCatalogStore_FetchAllFailureKeepsList(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	store := services.NewCatalogStore(mockRepo)

	mockRepo.On("List", ctx).Return([]models.Product{taladro()}, nil).Once()
	require.NoError(t, store.FetchAll(ctx))

	mockRepo.On("List", ctx).Return(nil, fmt.Errorf("connection refused")).Once()
	err := store.FetchAll(ctx)
	assert.ErrorIs(t, err, services.ErrRemoteUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, services.StateFetchFailed, store.State())
	assert.Len(t, store.Snapshot(), 1)

	// retrying recovers
	mockRepo.On("List", ctx).Return([]models.Product{}, nil).Once()
	require.NoError(t, store.FetchAll(ctx))
	assert.Equal(t, services.StateReady, store.State())
	assert.Empty(t, store.Snapshot())
	mockRepo.AssertExpectations(t)
}

func TestCatalogStore_MutationsRequireLoadedCatalog(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	store := services.NewCatalogStore(mockRepo)

	_, err := store.Create(ctx, services.ProductForm{ProductName: "Sierra"})
	assert.ErrorIs(t, err, services.ErrNotReady)
	assert.ErrorIs(t, store.Delete(ctx, "1"), services.ErrNotReady)

	mockRepo.On("List", ctx).Return(nil, errors.New("offline")).Once()
	require.Error(t, store.FetchAll(ctx))
	form := services.FormFromProduct(taladro())
	form.Description = "Percutor 1/2"
	_, err = store.Update(ctx, "1", form)
	assert.ErrorIs(t, err, services.ErrNotReady)

	mockRepo.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestCatalogStore_CreateRejectsEmptyName(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	store := services.NewCatalogStore(mockRepo)
	mockRepo.On("List", ctx).Return([]models.Product{}, nil).Once()
	require.NoError(t, store.FetchAll(ctx))

	_, err := store.Create(ctx, services.ProductForm{ProductName: "", Brand: "Acme", Price: "10", StockQuantity: "5"})

	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, services.ErrValidation)
	assert.Contains(t, verr.Fields, "productName")
	mockRepo.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
}

func TestCatalogStore_CreateRejectsOutOfRangeNumbers(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	store := services.NewCatalogStore(mockRepo)
	mockRepo.On("List", ctx).Return([]models.Product{}, nil).Once()
	require.NoError(t, store.FetchAll(ctx))

	forms := []services.ProductForm{
		{ProductName: "X", Price: "1e400"},
		{ProductName: "X", StockQuantity: "9223372036854775808"},
	}
	for _, form := range forms {
		_, err := store.Create(ctx, form)
		assert.ErrorIs(t, err, services.ErrValidation)
	}

	mockRepo.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
	assert.Empty(t, store.Snapshot())
	_, err := json.Marshal(store.Filter(""))
	assert.NoError(t, err)
}

func TestCatalogStore_CreateAppendsLocally(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	publisher := new(MockPublisher)
	store := services.NewCatalogStore(mockRepo, services.WithEventPublisher(publisher))
	mockRepo.On("List", ctx).Return([]models.Product{taladro()}, nil).Once()
	require.NoError(t, store.FetchAll(ctx))

	expected := models.Product{
		ProductName:   "Sierra",
		Brand:         "Stanley",
		Price:         19.99,
		StockQuantity: 4,
		ImageURL:      models.DefaultImageURL,
		Category:      models.CategoryUncategorized,
	}
	mockRepo.On("Add", ctx, expected).Return("abc", nil).Once()
	publisher.On("Publish", services.EventProductCreated, mock.Anything).Return(nil).Once()

	created, err := store.Create(ctx, services.ProductForm{
		ProductName:   "Sierra",
		Brand:         "Stanley",
		Price:         "19.99",
		StockQuantity: "4",
	})
	require.NoError(t, err)
	assert.Equal(t, "abc", created.ID)

	products := store.Snapshot()
	require.Len(t, products, 2)
	assert.Equal(t, "abc", products[1].ID)
	mockRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestCatalogStore_CreateRemoteFailure(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	store := services.NewCatalogStore(mockRepo)
	mockRepo.On("List", ctx).Return([]models.Product{}, nil).Once()
	require.NoError(t, store.FetchAll(ctx))

	mockRepo.On("Add", ctx, mock.Anything).Return("", fmt.Errorf("database error")).Once()
	_, err := store.Create(ctx, services.ProductForm{ProductName: "Sierra"})
	assert.ErrorIs(t, err, services.ErrRemoteUnavailable)
	assert.Empty(t, store.Snapshot())
	assert.Equal(t, services.StateReady, store.State())
}

func TestCatalogStore_CreateRequiresCategoryWhenConfigured(t *testing.T) {
	repo := repositories.NewMemoryProductRepository()
	store := services.NewCatalogStore(repo, services.WithRequiredCategory(true))
	require.NoError(t, store.FetchAll(context.Background()))

	_, err := store.Create(context.Background(), services.ProductForm{ProductName: "Cable"})
	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "category")

	created, err := store.Create(context.Background(), services.ProductForm{ProductName: "Cable", Category: "electricidad"})
	require.NoError(t, err)
	assert.Equal(t, models.CategoryElectrical, created.Category)
}

func TestCatalogStore_Filter(t *testing.T) {
	store, _ := seededStore(t, taladro())

	assert.Len(t, store.Filter("bosch"), 1)
	assert.Equal(t, "1", store.Filter("bosch")[0].ID)
	assert.Empty(t, store.Filter("dewalt"))
	assert.Len(t, store.Filter("TALA"), 1)
	assert.Len(t, store.Filter("45"), 1)
	assert.Empty(t, store.Filter("45.0"))
}

func TestCatalogStore_FilterEmptyQueryPreservesOrder(t *testing.T) {
	store, _ := seededStore(t,
		models.Product{ID: "a", ProductName: "Pala", Brand: "Truper", Price: 20},
		models.Product{ID: "b", ProductName: "Rastrillo", Brand: "Truper", Price: 15},
		models.Product{ID: "c", ProductName: "Brocha", Brand: "Pinturas Sur", Price: 3.5},
	)

	all := store.Filter("")
	assert.Equal(t, store.Snapshot(), all)
	assert.Equal(t, []string{"a", "b", "c"}, []string{all[0].ID, all[1].ID, all[2].ID})
}

func TestFilterProductsIsIdempotent(t *testing.T) {
	products := []models.Product{
		{ID: "a", ProductName: "Pala", Brand: "Truper", Price: 20},
		{ID: "b", ProductName: "Rastrillo", Brand: "Truper", Price: 15},
		{ID: "c", ProductName: "Brocha", Brand: "Pinturas Sur", Price: 3.5},
		{ID: "d", ProductName: "Tubo PVC", Brand: "Amanco", Price: 150},
	}
	for _, q := range []string{"", "tru", "5", "3.5", "pvc", "zzz"} {
		once := services.FilterProducts(products, q)
		twice := services.FilterProducts(once, q)
		assert.Equal(t, once, twice, "query %q", q)
	}
}

func TestCatalogStore_UpdateScenario(t *testing.T) {
	other := models.Product{ID: "2", ProductName: "Martillo", Brand: "Truper", Price: 12.5, StockQuantity: 10}
	store, repo := seededStore(t, taladro(), other)
	before := store.Snapshot()

	updated, err := store.Update(context.Background(), "1", services.ProductForm{
		ProductName:   "Taladro Pro",
		Description:   "d",
		Brand:         "Bosch",
		Price:         "50",
		StockQuantity: "2",
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "1", updated.ID)
	assert.Equal(t, "Taladro Pro", updated.ProductName)
	assert.Equal(t, 50.0, updated.Price)
	assert.Equal(t, 2, updated.StockQuantity)
	assert.Equal(t, before[0].ImageURL, updated.ImageURL)

	after := store.Snapshot()
	require.Len(t, after, 2)
	assert.Equal(t, *updated, after[0])
	assert.Equal(t, before[1], after[1])

	stored, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Taladro Pro", stored[0].ProductName)
}

func TestCatalogStore_UpdateValidation(t *testing.T) {
	store, _ := seededStore(t, taladro())

	_, err := store.Update(context.Background(), "1", services.ProductForm{
		ProductName:   "Taladro Pro",
		Brand:         "Bosch",
		Price:         "cincuenta",
		StockQuantity: "2",
	})
	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "description")
	assert.Contains(t, verr.Fields, "price")
	assert.Equal(t, "Taladro", store.Snapshot()[0].ProductName)
}

func TestCatalogStore_UpdateUnknownIDIsNoOp(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	store := services.NewCatalogStore(mockRepo)
	mockRepo.On("List", ctx).Return([]models.Product{taladro()}, nil).Once()
	require.NoError(t, store.FetchAll(ctx))

	form := services.FormFromProduct(taladro())
	form.Description = "x"
	updated, err := store.Update(ctx, "99", form)
	assert.NoError(t, err)
	assert.Nil(t, updated)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)

	// known locally but already gone from the backend
	mockRepo.On("Update", ctx, "1", mock.Anything).Return(fmt.Errorf("product 1: %w", repositories.ErrNotFound)).Once()
	updated, err = store.Update(ctx, "1", form)
	assert.NoError(t, err)
	assert.Nil(t, updated)
	assert.Equal(t, []models.Product{normalized(taladro())}, store.Snapshot())
	mockRepo.AssertExpectations(t)
}

func TestCatalogStore_UpdateRemoteFailure(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	store := services.NewCatalogStore(mockRepo)
	mockRepo.On("List", ctx).Return([]models.Product{taladro()}, nil).Once()
	require.NoError(t, store.FetchAll(ctx))

	form := services.FormFromProduct(taladro())
	form.Description = "x"
	mockRepo.On("Update", ctx, "1", mock.Anything).Return(fmt.Errorf("timeout")).Once()
	_, err := store.Update(ctx, "1", form)
	assert.ErrorIs(t, err, services.ErrRemoteUnavailable)
	assert.Equal(t, "", store.Snapshot()[0].Description)
}

func TestCatalogStore_Delete(t *testing.T) {
	store, repo := seededStore(t, taladro(), models.Product{ID: "2", ProductName: "Martillo"})

	require.NoError(t, store.Delete(context.Background(), "404"))
	assert.Len(t, store.Snapshot(), 2)

	require.NoError(t, store.Delete(context.Background(), "1"))
	products := store.Snapshot()
	require.Len(t, products, 1)
	assert.Equal(t, "2", products[0].ID)

	stored, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestCatalogStore_DeleteRemoteFailureKeepsRecord(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	store := services.NewCatalogStore(mockRepo)
	mockRepo.On("List", ctx).Return([]models.Product{taladro()}, nil).Once()
	require.NoError(t, store.FetchAll(ctx))

	mockRepo.On("Delete", ctx, "1").Return(fmt.Errorf("unavailable")).Once()
	err := store.Delete(ctx, "1")
	assert.ErrorIs(t, err, services.ErrRemoteUnavailable)
	assert.Len(t, store.Snapshot(), 1)
}

func TestCatalogStore_AdjustStock(t *testing.T) {
	store, _ := seededStore(t, taladro())

	updated, err := store.AdjustStock(context.Background(), "1", -2)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.StockQuantity)

	_, err = store.AdjustStock(context.Background(), "1", -2)
	assert.ErrorIs(t, err, services.ErrInsufficientStock)

	_, err = store.AdjustStock(context.Background(), "nope", 1)
	assert.ErrorIs(t, err, services.ErrProductNotFound)
}

func TestCatalogStore_Subscribe(t *testing.T) {
	store, _ := seededStore(t, taladro())

	var received [][]models.Product
	unsubscribe := store.Subscribe(func(products []models.Product) {
		received = append(received, products)
	})

	_, err := store.Create(context.Background(), services.ProductForm{ProductName: "Sierra"})
	require.NoError(t, err)
	require.NoError(t, store.Delete(context.Background(), "1"))
	require.Len(t, received, 2)
	assert.Len(t, received[0], 2)
	assert.Len(t, received[1], 1)

	unsubscribe()
	require.NoError(t, store.FetchAll(context.Background()))
	assert.Len(t, received, 2)
}

func TestCatalogStore_SubscribersAreIndependent(t *testing.T) {
	store, _ := seededStore(t, taladro())

	counts := make([]int, 2)
	unsubscribers := make([]func(), 2)
	for i := range counts {
		i := i
		unsubscribers[i] = store.Subscribe(func([]models.Product) { counts[i]++ })
	}

	require.NoError(t, store.FetchAll(context.Background()))
	unsubscribers[1]()
	unsubscribers[1]()
	require.NoError(t, store.FetchAll(context.Background()))

	assert.Equal(t, []int{2, 1}, counts)
}

func TestCatalogStore_ListenerMayUnsubscribeItself(t *testing.T) {
	store, _ := seededStore(t, taladro())

	calls := 0
	var unsubscribe func()
	unsubscribe = store.Subscribe(func([]models.Product) {
		calls++
		unsubscribe()
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := store.Create(context.Background(), services.ProductForm{ProductName: "Sierra"})
		assert.NoError(t, err)
		assert.NoError(t, store.FetchAll(context.Background()))
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("notification did not return")
	}
	assert.Equal(t, 1, calls)
}

func TestCatalogStore_ListenerHandsMutationsToGoroutine(t *testing.T) {
	store, _ := seededStore(t, taladro())
	ctx := context.Background()

	restocked := make(chan error, 1)
	var once sync.Once
	store.Subscribe(func(products []models.Product) {
		for _, p := range products {
			if p.StockQuantity == 0 {
				id := p.ID
				once.Do(func() {
					go func() {
						_, err := store.AdjustStock(ctx, id, 10)
						restocked <- err
					}()
				})
			}
		}
	})

	_, err := store.AdjustStock(ctx, "1", -3)
	require.NoError(t, err)

	select {
	case err := <-restocked:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("restock did not run")
	}
	p, ok := store.Get("1")
	require.True(t, ok)
	assert.Equal(t, 10, p.StockQuantity)
}

func TestStoreStateString(t *testing.T) {
	assert.Equal(t, "idle", services.StateIdle.String())
	assert.Equal(t, "fetch_failed", services.StateFetchFailed.String())
}

func normalized(p models.Product) models.Product {
	p.Normalize()
	return p
}
