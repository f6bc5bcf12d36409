package service

import (
	"context"
	"errors"
	"testing"

	perrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/abgdnv/catalog/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockProductStore is a mock implementation of the ProductStore interface
type mockProductStore struct {
	products  []store.Product
	product   store.Product
	total     int64
	exists    bool
	comments  int64
	histogram []store.RatingCount
	error     error
	deleteErr error

	deleteCalled int
	lastSpec     store.Spec
}

func (m *mockProductStore) FindAll(_ context.Context) ([]store.Product, error) {
	return m.products, m.error
}

func (m *mockProductStore) FindPage(_ context.Context, spec store.Spec, _ store.PageRequest) ([]store.Product, error) {
	m.lastSpec = spec
	return m.products, m.error
}

func (m *mockProductStore) Count(_ context.Context, _ store.Spec) (int64, error) {
	return m.total, m.error
}

func (m *mockProductStore) FindByID(_ context.Context, _ int64) (*store.Product, error) {
	if m.error != nil {
		return nil, m.error
	}
	return &m.product, nil
}

func (m *mockProductStore) Save(_ context.Context, product store.Product) (*store.Product, error) {
	if m.error != nil {
		return nil, m.error
	}
	if product.ID == 0 {
		product.ID = 42
		return &product, nil
	}
	// updates keep the stored counter, like the real stores
	product.ViewCount = m.product.ViewCount
	return &product, nil
}

func (m *mockProductStore) ExistsByID(_ context.Context, _ int64) (bool, error) {
	return m.exists, m.error
}

func (m *mockProductStore) DeleteByID(_ context.Context, _ int64) error {
	m.deleteCalled++
	return m.deleteErr
}

func (m *mockProductStore) FindByName(_ context.Context, _ string) ([]store.Product, error) {
	return m.products, m.error
}

func (m *mockProductStore) FindByCategoryID(_ context.Context, _ int64) ([]store.Product, error) {
	return m.products, m.error
}

func (m *mockProductStore) FindByManufacturerID(_ context.Context, _ int64) ([]store.Product, error) {
	return m.products, m.error
}

func (m *mockProductStore) Search(_ context.Context, _ string, _ *store.PageRequest) ([]store.Product, error) {
	return m.products, m.error
}

func (m *mockProductStore) SearchCount(_ context.Context, _ string) (int64, error) {
	return m.total, m.error
}

func (m *mockProductStore) CommentCount(_ context.Context, _ int64) (int64, error) {
	return m.comments, m.error
}

func (m *mockProductStore) RatingHistogram(_ context.Context, _ int64) ([]store.RatingCount, error) {
	return m.histogram, m.error
}

func (m *mockProductStore) IncrementViewCount(_ context.Context, _ int64) (bool, error) {
	return m.exists, m.error
}

func (m *mockProductStore) Ping(_ context.Context) error {
	return m.error
}

func Test_CatalogService_GetProductByID(t *testing.T) {
	testCases := []struct {
		name        string
		mockStore   *mockProductStore
		expected    *ProductDto
		expectError error
	}{
		{
			name:      "Success - product found",
			mockStore: &mockProductStore{product: store.Product{ID: 7, Name: "Phone", CategoryID: 1, ManufacturerID: 2}},
			expected:  &ProductDto{ID: 7, Name: "Phone", CategoryID: 1, ManufacturerID: 2},
		},
		{
			name:        "Error - product not found",
			mockStore:   &mockProductStore{error: perrors.ErrProductNotFound},
			expectError: perrors.ErrProductNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			service := NewService(tc.mockStore)
			// when
			found, err := service.GetProductByID(context.Background(), 7)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, found)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, found)
		})
	}
}

func Test_CatalogService_GetAllProducts(t *testing.T) {
	ErrStoreError := errors.New("store error")
	testCases := []struct {
		name        string
		mockStore   *mockProductStore
		expected    []ProductDto
		expectError error
	}{
		{
			name:      "Success - products found",
			mockStore: &mockProductStore{products: []store.Product{{ID: 1, Name: "Phone"}, {ID: 2, Name: "Tablet"}}},
			expected:  []ProductDto{{ID: 1, Name: "Phone"}, {ID: 2, Name: "Tablet"}},
		},
		{
			name:      "Success - no products",
			mockStore: &mockProductStore{products: []store.Product{}},
			expected:  []ProductDto{},
		},
		{
			name:        "Error - store error",
			mockStore:   &mockProductStore{error: ErrStoreError},
			expectError: ErrStoreError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			service := NewService(tc.mockStore)
			// when
			found, err := service.GetAllProducts(context.Background())
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, found)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, found)
		})
	}
}

func Test_CatalogService_GetPagedProducts(t *testing.T) {
	ErrStoreError := errors.New("store error")
	threeProducts := []store.Product{{ID: 1}, {ID: 2}, {ID: 3}}
	testCases := []struct {
		name        string
		mockStore   *mockProductStore
		page        store.PageRequest
		expected    *PageResponse[ProductDto]
		expectError error
	}{
		{
			name:      "Success - first page",
			mockStore: &mockProductStore{products: threeProducts, total: 10},
			page:      store.PageRequest{Index: 0, Size: 3},
			expected: &PageResponse[ProductDto]{
				Items:      []ProductDto{{ID: 1}, {ID: 2}, {ID: 3}},
				ItemCount:  3,
				Page:       1,
				TotalPages: 4,
			},
		},
		{
			name:      "Success - page past the end",
			mockStore: &mockProductStore{products: []store.Product{}, total: 10},
			page:      store.PageRequest{Index: 7, Size: 3},
			expected: &PageResponse[ProductDto]{
				Items:      []ProductDto{},
				ItemCount:  0,
				Page:       8,
				TotalPages: 4,
			},
		},
		{
			name:        "Error - zero page size",
			mockStore:   &mockProductStore{},
			page:        store.PageRequest{Index: 0, Size: 0},
			expectError: perrors.ErrInvalidPageRequest,
		},
		{
			name:        "Error - unknown sort column",
			mockStore:   &mockProductStore{},
			page:        store.PageRequest{Index: 0, Size: 5, SortBy: "password"},
			expectError: perrors.ErrInvalidPageRequest,
		},
		{
			name:        "Error - store error",
			mockStore:   &mockProductStore{error: ErrStoreError},
			page:        store.PageRequest{Index: 0, Size: 3},
			expectError: ErrStoreError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			service := NewService(tc.mockStore)
			// when
			page, err := service.GetPagedProducts(context.Background(), tc.page)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, page)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, page)
		})
	}
}

func Test_CatalogService_AddOrUpdate(t *testing.T) {
	price := decimal.NewFromInt(100)
	testCases := []struct {
		name          string
		mockStore     *mockProductStore
		product       ProductDto
		expectedID    int64
		expectedViews int64
		expectError   error
	}{
		{
			name:       "Success - product created with a store assigned ID",
			mockStore:  &mockProductStore{},
			product:    ProductDto{Name: "Phone", Price: price, CategoryID: 1, ManufacturerID: 1, ViewCount: 99},
			expectedID: 42,
		},
		{
			name:          "Success - product updated keeps its view count",
			mockStore:     &mockProductStore{product: store.Product{ID: 7, ViewCount: 5}},
			product:       ProductDto{ID: 7, Name: "Phone", Price: price, CategoryID: 1, ManufacturerID: 1, ViewCount: 0},
			expectedID:    7,
			expectedViews: 5,
		},
		{
			name:          "Success - incoming view count is not written on update",
			mockStore:     &mockProductStore{product: store.Product{ID: 7, ViewCount: 5}},
			product:       ProductDto{ID: 7, Name: "Phone", Price: price, CategoryID: 1, ManufacturerID: 1, ViewCount: 99},
			expectedID:    7,
			expectedViews: 5,
		},
		{
			name:        "Error - product not found",
			mockStore:   &mockProductStore{error: perrors.ErrProductNotFound},
			product:     ProductDto{ID: 7, Name: "Phone", Price: price, CategoryID: 1, ManufacturerID: 1},
			expectError: perrors.ErrProductNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			service := NewService(tc.mockStore)
			// when
			saved, err := service.AddOrUpdate(context.Background(), tc.product)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, saved)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedID, saved.ID)
			assert.Equal(t, tc.expectedViews, saved.ViewCount)
			assert.Equal(t, tc.product.Name, saved.Name)
			assert.True(t, price.Equal(saved.Price))
		})
	}
}

func Test_CatalogService_DeleteByID(t *testing.T) {
	ErrStoreError := errors.New("store error")
	testCases := []struct {
		name          string
		mockStore     *mockProductStore
		expected      bool
		expectDeletes int
		expectError   error
	}{
		{
			name:          "Success - existing product deleted",
			mockStore:     &mockProductStore{exists: true},
			expected:      true,
			expectDeletes: 1,
		},
		{
			name:          "Success - missing product leaves the store untouched",
			mockStore:     &mockProductStore{exists: false},
			expected:      false,
			expectDeletes: 0,
		},
		{
			name:          "Success - product removed between check and delete",
			mockStore:     &mockProductStore{exists: true, deleteErr: perrors.ErrProductNotFound},
			expected:      false,
			expectDeletes: 1,
		},
		{
			name:        "Error - store error",
			mockStore:   &mockProductStore{error: ErrStoreError},
			expectError: ErrStoreError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			service := NewService(tc.mockStore)
			// when
			deleted, err := service.DeleteByID(context.Background(), 7)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.False(t, deleted)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, deleted)
			assert.Equal(t, tc.expectDeletes, tc.mockStore.deleteCalled)
		})
	}
}

func Test_CatalogService_FilterProducts_BuildsSpec(t *testing.T) {
	// given
	category := int64(3)
	mock := &mockProductStore{products: []store.Product{}, total: 0}
	service := NewService(mock)
	criteria := FilterCriteria{
		Price:           []decimal.Decimal{decimal.NewFromInt(10), decimal.NewFromInt(20)},
		Color:           "Red",
		CategoryID:      &category,
		ManufacturerIDs: []int64{1, 2},
	}
	// when
	page, err := service.FilterProducts(context.Background(), criteria, store.PageRequest{Index: 0, Size: 10})
	// then
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 0, page.TotalPages)
	assert.Len(t, mock.lastSpec, 4)
}

func Test_CatalogService_SearchProducts(t *testing.T) {
	testCases := []struct {
		name        string
		mockStore   *mockProductStore
		page        *store.PageRequest
		expected    *PageResponse[ProductDto]
		expectError error
	}{
		{
			name:      "Success - matches paged",
			mockStore: &mockProductStore{products: []store.Product{{ID: 1, Name: "Red Phone"}}, total: 5},
			page:      &store.PageRequest{Index: 1, Size: 2},
			expected: &PageResponse[ProductDto]{
				Items:      []ProductDto{{ID: 1, Name: "Red Phone"}},
				ItemCount:  1,
				Page:       2,
				TotalPages: 3,
			},
		},
		{
			name:        "Error - missing page request",
			mockStore:   &mockProductStore{},
			page:        nil,
			expectError: perrors.ErrInvalidPageRequest,
		},
		{
			name:        "Error - negative page index",
			mockStore:   &mockProductStore{},
			page:        &store.PageRequest{Index: -1, Size: 2},
			expectError: perrors.ErrInvalidPageRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			service := NewService(tc.mockStore)
			// when
			page, err := service.SearchProducts(context.Background(), "phone", tc.page)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, page)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, page)
		})
	}
}

func Test_CatalogService_CountComments(t *testing.T) {
	// given
	service := NewService(&mockProductStore{comments: 12})
	// when
	count, err := service.CountComments(context.Background(), 7)
	// then
	require.NoError(t, err)
	assert.Equal(t, int64(12), count)
}

func Test_CatalogService_Rating(t *testing.T) {
	ErrStoreError := errors.New("store error")
	testCases := []struct {
		name        string
		mockStore   *mockProductStore
		expected    string
		expectError error
	}{
		{
			name:      "Weighted average rounded to two decimals",
			mockStore: &mockProductStore{histogram: []store.RatingCount{{Value: 5, Count: 2}, {Value: 3, Count: 1}}},
			expected:  "4.33",
		},
		{
			name:      "Half rounds up",
			mockStore: &mockProductStore{histogram: []store.RatingCount{{Value: 2, Count: 7}, {Value: 3, Count: 1}}},
			expected:  "2.13",
		},
		{
			name:      "Exact average",
			mockStore: &mockProductStore{histogram: []store.RatingCount{{Value: 5, Count: 1}, {Value: 4, Count: 1}}},
			expected:  "4.5",
		},
		{
			name:      "No ratings",
			mockStore: &mockProductStore{histogram: []store.RatingCount{}},
			expected:  "0",
		},
		{
			name:        "Error - store error",
			mockStore:   &mockProductStore{error: ErrStoreError},
			expectError: ErrStoreError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			service := NewService(tc.mockStore)
			// when
			rating, err := service.Rating(context.Background(), 7)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				return
			}
			require.NoError(t, err)
			expected := decimal.RequireFromString(tc.expected)
			assert.True(t, expected.Equal(rating), "expected %s, got %s", expected, rating)
		})
	}
}

func Test_totalPages(t *testing.T) {
	testCases := []struct {
		total    int64
		size     int
		expected int
	}{
		{total: 10, size: 3, expected: 4},
		{total: 9, size: 3, expected: 3},
		{total: 1, size: 10, expected: 1},
		{total: 0, size: 10, expected: 0},
		{total: 10, size: 0, expected: 0},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, totalPages(tc.total, tc.size), "total=%d size=%d", tc.total, tc.size)
	}
}

func Test_BuildSpec(t *testing.T) {
	category := int64(1)
	testCases := []struct {
		name     string
		criteria FilterCriteria
		expected int
	}{
		{name: "No criteria matches everything", criteria: FilterCriteria{}, expected: 0},
		{name: "Single price bound is ignored", criteria: FilterCriteria{Price: []decimal.Decimal{decimal.NewFromInt(1)}}, expected: 0},
		{name: "Blank color is ignored", criteria: FilterCriteria{Color: "   "}, expected: 0},
		{name: "Empty manufacturer set is ignored", criteria: FilterCriteria{ManufacturerIDs: []int64{}}, expected: 0},
		{name: "Category only", criteria: FilterCriteria{CategoryID: &category}, expected: 1},
		{
			name: "Price range and color",
			criteria: FilterCriteria{
				Price: []decimal.Decimal{decimal.NewFromInt(1), decimal.NewFromInt(2)},
				Color: "blue",
			},
			expected: 2,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Len(t, BuildSpec(tc.criteria), tc.expected)
		})
	}
}
