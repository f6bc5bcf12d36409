// Package service provides the implementation of catalog business logic.
package service

import (
	"context"
	"errors"
	"fmt"

	perrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/abgdnv/catalog/internal/store"
	"github.com/shopspring/decimal"
)

// CatalogService defines the read and maintenance operations of the product catalog.
// A product that does not exist is never returned as a nil value with a nil error:
// lookups by ID report it as ErrProductNotFound (match it with errors.Is), and
// DeleteByID reports it as false.
type CatalogService interface {
	// GetAllProducts returns every product without paging.
	// Returns an empty slice if no products exist.
	GetAllProducts(ctx context.Context) ([]ProductDto, error)

	// GetPagedProducts returns one page of the catalog.
	// Returns ErrInvalidPageRequest if the page request is malformed.
	GetPagedProducts(ctx context.Context, page store.PageRequest) (*PageResponse[ProductDto], error)

	// GetProductByID retrieves a single product by its unique identifier.
	// An absent product yields a nil product and an error wrapping ErrProductNotFound.
	GetProductByID(ctx context.Context, id int64) (*ProductDto, error)

	// AddOrUpdate inserts a product with a zero ID and updates it in place otherwise.
	// Returns ErrProductNotFound when updating a product that does not exist.
	AddOrUpdate(ctx context.Context, product ProductDto) (*ProductDto, error)

	// FindByName returns the products whose name equals name.
	FindByName(ctx context.Context, name string) ([]ProductDto, error)

	// DeleteByID removes a product and reports whether it existed.
	DeleteByID(ctx context.Context, id int64) (bool, error)

	// GetAllByCategory returns the products of a category.
	GetAllByCategory(ctx context.Context, categoryID int64) ([]ProductDto, error)

	// GetAllByManufacturer returns the products of a manufacturer.
	GetAllByManufacturer(ctx context.Context, manufacturerID int64) ([]ProductDto, error)

	// FilterProducts returns one page of the products matching every present criterion.
	FilterProducts(ctx context.Context, criteria FilterCriteria, page store.PageRequest) (*PageResponse[ProductDto], error)

	// SearchProducts returns one page of the products whose name or description contains keyword.
	// Returns ErrInvalidPageRequest if page is nil or malformed.
	SearchProducts(ctx context.Context, keyword string, page *store.PageRequest) (*PageResponse[ProductDto], error)

	// CountComments returns the number of comments left on a product.
	CountComments(ctx context.Context, id int64) (int64, error)

	// Rating returns the average star rating of a product rounded to two decimals.
	// A product without ratings has a rating of zero.
	Rating(ctx context.Context, id int64) (decimal.Decimal, error)

	// IncrementViewCount adds one to the view counter of a product.
	// Unknown products are ignored.
	IncrementViewCount(ctx context.Context, id int64) error
}

// Service implements CatalogService on top of a ProductStore.
type Service struct {
	repository store.ProductStore
}

// NewService creates a new instance of CatalogService with the provided repository.
func NewService(repo store.ProductStore) *Service {
	return &Service{
		repository: repo,
	}
}

// ProductDto represents the data transfer object for a product.
// ViewCount is read-only and ignored on writes.
type ProductDto struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"            validate:"required,max=255"`
	Description    string          `json:"description"     validate:"max=4000"`
	Price          decimal.Decimal `json:"price"           validate:"gte=0"`
	Color          string          `json:"color"           validate:"max=50"`
	CategoryID     int64           `json:"categoryId"      validate:"required,gt=0"`
	ManufacturerID int64           `json:"manufacturerId"  validate:"required,gt=0"`
	ViewCount      int64           `json:"viewCount"`
}

func (s *Service) GetAllProducts(ctx context.Context) ([]ProductDto, error) {
	products, err := s.repository.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return toDtos(products), nil
}

func (s *Service) GetPagedProducts(ctx context.Context, page store.PageRequest) (*PageResponse[ProductDto], error) {
	return s.findPage(ctx, nil, page)
}

// GetProductByID returns a nil product and an error wrapping ErrProductNotFound
// if no product exists with the given ID.
func (s *Service) GetProductByID(ctx context.Context, id int64) (*ProductDto, error) {
	product, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product by ID %d: %w", id, err)
	}
	return toDto(product), nil
}

// AddOrUpdate ignores the incoming view count. New products start at zero and
// updates keep the stored counter, which only moves through IncrementViewCount.
func (s *Service) AddOrUpdate(ctx context.Context, dto ProductDto) (*ProductDto, error) {
	product := fromDto(dto)
	product.ViewCount = 0

	saved, err := s.repository.Save(ctx, product)
	if err != nil {
		if product.ID != 0 {
			return nil, fmt.Errorf("failed to update product with ID %d: %w", product.ID, err)
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return toDto(saved), nil
}

func (s *Service) FindByName(ctx context.Context, name string) ([]ProductDto, error) {
	products, err := s.repository.FindByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products by name: %w", err)
	}
	return toDtos(products), nil
}

// DeleteByID checks existence first so an unknown ID leaves the store untouched.
func (s *Service) DeleteByID(ctx context.Context, id int64) (bool, error) {
	exists, err := s.repository.ExistsByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to check product with ID %d: %w", id, err)
	}
	if !exists {
		return false, nil
	}
	if err := s.repository.DeleteByID(ctx, id); err != nil {
		// removed concurrently between the two calls
		if errors.Is(err, perrors.ErrProductNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete product with ID %d: %w", id, err)
	}
	return true, nil
}

func (s *Service) GetAllByCategory(ctx context.Context, categoryID int64) ([]ProductDto, error) {
	products, err := s.repository.FindByCategoryID(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products of category %d: %w", categoryID, err)
	}
	return toDtos(products), nil
}

func (s *Service) GetAllByManufacturer(ctx context.Context, manufacturerID int64) ([]ProductDto, error) {
	products, err := s.repository.FindByManufacturerID(ctx, manufacturerID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products of manufacturer %d: %w", manufacturerID, err)
	}
	return toDtos(products), nil
}

func (s *Service) FilterProducts(ctx context.Context, criteria FilterCriteria, page store.PageRequest) (*PageResponse[ProductDto], error) {
	return s.findPage(ctx, BuildSpec(criteria), page)
}

func (s *Service) SearchProducts(ctx context.Context, keyword string, page *store.PageRequest) (*PageResponse[ProductDto], error) {
	if page == nil {
		return nil, fmt.Errorf("%w: search requires a page", perrors.ErrInvalidPageRequest)
	}
	if err := page.Validate(); err != nil {
		return nil, err
	}

	products, err := s.repository.Search(ctx, keyword, page)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	total, err := s.repository.SearchCount(ctx, keyword)
	if err != nil {
		return nil, fmt.Errorf("failed to count search results: %w", err)
	}
	return newPageResponse(toDtos(products), *page, total), nil
}

func (s *Service) CountComments(ctx context.Context, id int64) (int64, error) {
	count, err := s.repository.CommentCount(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("failed to count comments of product %d: %w", id, err)
	}
	return count, nil
}

func (s *Service) Rating(ctx context.Context, id int64) (decimal.Decimal, error) {
	histogram, err := s.repository.RatingHistogram(ctx, id)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load rating of product %d: %w", id, err)
	}
	return averageRating(histogram), nil
}

func (s *Service) IncrementViewCount(ctx context.Context, id int64) error {
	if _, err := s.repository.IncrementViewCount(ctx, id); err != nil {
		return fmt.Errorf("failed to increment view count of product %d: %w", id, err)
	}
	return nil
}

func (s *Service) findPage(ctx context.Context, spec store.Spec, page store.PageRequest) (*PageResponse[ProductDto], error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}

	products, err := s.repository.FindPage(ctx, spec, page)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products page: %w", err)
	}
	total, err := s.repository.Count(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	return newPageResponse(toDtos(products), page, total), nil
}

// toDto converts a store.Product to a ProductDto.
func toDto(product *store.Product) *ProductDto {
	return &ProductDto{
		ID:             product.ID,
		Name:           product.Name,
		Description:    product.Description,
		Price:          product.Price,
		Color:          product.Color,
		CategoryID:     product.CategoryID,
		ManufacturerID: product.ManufacturerID,
		ViewCount:      product.ViewCount,
	}
}

func toDtos(products []store.Product) []ProductDto {
	dtos := make([]ProductDto, len(products))
	for i := range products {
		dtos[i] = *toDto(&products[i])
	}
	return dtos
}

func fromDto(dto ProductDto) store.Product {
	return store.Product{
		ID:             dto.ID,
		Name:           dto.Name,
		Description:    dto.Description,
		Price:          dto.Price,
		Color:          dto.Color,
		CategoryID:     dto.CategoryID,
		ManufacturerID: dto.ManufacturerID,
		ViewCount:      dto.ViewCount,
	}
}
