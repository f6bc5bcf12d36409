// Package store provides an interface for catalog storage operations.
package store

import (
	"context"
	"fmt"
	"time"

	perrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/shopspring/decimal"
)

// ProductStore is an interface for catalog storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, pgx, gorm).
type ProductStore interface {
	// FindAll returns every product ordered by ID.
	// Returns an empty slice if no products exist.
	FindAll(ctx context.Context) ([]Product, error)

	// FindPage returns one page of the products matching spec.
	// An empty spec matches every product.
	FindPage(ctx context.Context, spec Spec, page PageRequest) ([]Product, error)

	// Count returns the number of products matching spec.
	Count(ctx context.Context, spec Spec) (int64, error)

	// FindByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id int64) (*Product, error)

	// Save inserts the product when its ID is zero and updates it in place otherwise.
	// An update keeps the stored view count whatever product.ViewCount holds.
	// Returns ErrProductNotFound when updating a product that does not exist.
	Save(ctx context.Context, product Product) (*Product, error)

	// ExistsByID reports whether a product with the given ID exists.
	ExistsByID(ctx context.Context, id int64) (bool, error)

	// DeleteByID removes a product by its ID.
	// Returns ErrProductNotFound if no product exists with the given ID.
	DeleteByID(ctx context.Context, id int64) error

	// FindByName returns the products whose name equals name.
	FindByName(ctx context.Context, name string) ([]Product, error)

	// FindByCategoryID returns the products of a category.
	FindByCategoryID(ctx context.Context, categoryID int64) ([]Product, error)

	// FindByManufacturerID returns the products of a manufacturer.
	FindByManufacturerID(ctx context.Context, manufacturerID int64) ([]Product, error)

	// Search returns the products whose name or description contains keyword, ignoring case.
	// A nil page returns every match.
	Search(ctx context.Context, keyword string, page *PageRequest) ([]Product, error)

	// SearchCount returns the number of products Search would return without paging.
	SearchCount(ctx context.Context, keyword string) (int64, error)

	// CommentCount returns the number of comments left on a product.
	CommentCount(ctx context.Context, productID int64) (int64, error)

	// RatingHistogram returns (star, occurrences) pairs for the rated comments of a product.
	RatingHistogram(ctx context.Context, productID int64) ([]RatingCount, error)

	// IncrementViewCount atomically adds one to the view counter of a product.
	// Reports false if the product does not exist.
	IncrementViewCount(ctx context.Context, id int64) (bool, error)

	// Ping checks that the underlying data store is reachable.
	Ping(ctx context.Context) error
}

// Product represents a product entity in the store.
type Product struct {
	ID             int64           `db:"id"              gorm:"column:id;primaryKey"`
	Name           string          `db:"name"            gorm:"column:name"`
	Description    string          `db:"description"     gorm:"column:description"`
	Price          decimal.Decimal `db:"price"           gorm:"column:price;type:numeric(12,2)"`
	Color          string          `db:"color"           gorm:"column:color"`
	CategoryID     int64           `db:"category_id"     gorm:"column:category_id"`
	ManufacturerID int64           `db:"manufacturer_id" gorm:"column:manufacturer_id"`
	ViewCount      int64           `db:"view_count"      gorm:"column:view_count"`
	CreatedAt      time.Time       `db:"created_at"      gorm:"column:created_at"`
	UpdatedAt      time.Time       `db:"updated_at"      gorm:"column:updated_at"`
}

// TableName binds Product to the products table for gorm.
func (Product) TableName() string { return "products" }

// RatingCount is one bucket of a rating histogram.
type RatingCount struct {
	Value int   `db:"value" gorm:"column:value"`
	Count int64 `db:"count" gorm:"column:count"`
}

// Direction is the sort direction of a page request.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// sortColumns whitelists the columns a page may be sorted by.
var sortColumns = map[string]struct{}{
	"id":         {},
	"name":       {},
	"price":      {},
	"view_count": {},
	"created_at": {},
}

// PageRequest identifies a page by its zero-based index and size.
type PageRequest struct {
	Index     int
	Size      int
	SortBy    string
	Direction Direction
}

// Validate checks the page bounds and the sort options.
func (p PageRequest) Validate() error {
	if p.Size <= 0 {
		return fmt.Errorf("%w: size must be positive, got %d", perrors.ErrInvalidPageRequest, p.Size)
	}
	if p.Index < 0 {
		return fmt.Errorf("%w: page must not be negative, got %d", perrors.ErrInvalidPageRequest, p.Index)
	}
	if p.SortBy != "" {
		if _, ok := sortColumns[p.SortBy]; !ok {
			return fmt.Errorf("%w: unknown sort column %q", perrors.ErrInvalidPageRequest, p.SortBy)
		}
	}
	switch p.Direction {
	case "", Asc, Desc:
	default:
		return fmt.Errorf("%w: unknown sort direction %q", perrors.ErrInvalidPageRequest, p.Direction)
	}
	return nil
}

// Offset returns the number of rows to skip.
func (p PageRequest) Offset() int {
	return p.Index * p.Size
}

// OrderBy renders the ORDER BY expression. IDs break ties so pages are stable.
func (p PageRequest) OrderBy() string {
	column := p.sortColumn()
	dir := "ASC"
	if p.Direction == Desc {
		dir = "DESC"
	}
	if column == "id" {
		return "id " + dir
	}
	return column + " " + dir + ", id ASC"
}

func (p PageRequest) sortColumn() string {
	if _, ok := sortColumns[p.SortBy]; ok {
		return p.SortBy
	}
	return "id"
}
