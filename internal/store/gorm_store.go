package store

import (
	"context"
	"errors"
	"fmt"

	perrors "github.com/abgdnv/catalog/internal/errors"
	"gorm.io/gorm"
)

// GormStore implements ProductStore on top of the gorm ORM.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new instance of ProductStore backed by gorm.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (g *GormStore) FindAll(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := g.db.WithContext(ctx).Order("id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to find all products: %w", err)
	}
	return products, nil
}

func (g *GormStore) FindPage(ctx context.Context, spec Spec, page PageRequest) ([]Product, error) {
	var products []Product
	err := g.db.WithContext(ctx).
		Scopes(spec.Scopes()...).
		Order(page.OrderBy()).
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find products page: %w", err)
	}
	return products, nil
}

func (g *GormStore) Count(ctx context.Context, spec Spec) (int64, error) {
	var total int64
	if err := g.db.WithContext(ctx).Model(&Product{}).Scopes(spec.Scopes()...).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return total, nil
}

func (g *GormStore) FindByID(ctx context.Context, id int64) (*Product, error) {
	var product Product
	if err := g.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, perrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return &product, nil
}

// Save creates the product when it has no ID. Otherwise every column but
// created_at and view_count is overwritten, and a missing row yields ErrProductNotFound.
func (g *GormStore) Save(ctx context.Context, product Product) (*Product, error) {
	db := g.db.WithContext(ctx)
	if product.ID == 0 {
		if err := db.Create(&product).Error; err != nil {
			return nil, fmt.Errorf("failed to create product: %w", err)
		}
		return &product, nil
	}

	res := db.Model(&Product{ID: product.ID}).Select("*").Omit("id", "created_at", "view_count").Updates(&product)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, perrors.ErrProductNotFound
	}
	return g.FindByID(ctx, product.ID)
}

func (g *GormStore) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := g.db.WithContext(ctx).Model(&Product{}).Where("id = ?", id).Limit(1).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check product existence: %w", err)
	}
	return count > 0, nil
}

func (g *GormStore) DeleteByID(ctx context.Context, id int64) error {
	res := g.db.WithContext(ctx).Delete(&Product{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product by ID: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return perrors.ErrProductNotFound
	}
	return nil
}

func (g *GormStore) FindByName(ctx context.Context, name string) ([]Product, error) {
	products, err := g.findBySpec(ctx, Spec{NameIs{Name: name}})
	if err != nil {
		return nil, fmt.Errorf("failed to find products by name: %w", err)
	}
	return products, nil
}

func (g *GormStore) FindByCategoryID(ctx context.Context, categoryID int64) ([]Product, error) {
	products, err := g.findBySpec(ctx, Spec{CategoryIs{ID: categoryID}})
	if err != nil {
		return nil, fmt.Errorf("failed to find products by category: %w", err)
	}
	return products, nil
}

func (g *GormStore) FindByManufacturerID(ctx context.Context, manufacturerID int64) ([]Product, error) {
	products, err := g.findBySpec(ctx, Spec{ManufacturerIn{IDs: []int64{manufacturerID}}})
	if err != nil {
		return nil, fmt.Errorf("failed to find products by manufacturer: %w", err)
	}
	return products, nil
}

func (g *GormStore) Search(ctx context.Context, keyword string, page *PageRequest) ([]Product, error) {
	spec := Spec{Keyword{Text: keyword}}
	if page != nil {
		return g.FindPage(ctx, spec, *page)
	}
	products, err := g.findBySpec(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return products, nil
}

func (g *GormStore) SearchCount(ctx context.Context, keyword string) (int64, error) {
	return g.Count(ctx, Spec{Keyword{Text: keyword}})
}

func (g *GormStore) CommentCount(ctx context.Context, productID int64) (int64, error) {
	var count int64
	if err := g.db.WithContext(ctx).Table("comments").Where("product_id = ?", productID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return count, nil
}

func (g *GormStore) RatingHistogram(ctx context.Context, productID int64) ([]RatingCount, error) {
	histogram := []RatingCount{}
	err := g.db.WithContext(ctx).
		Table("comments").
		Select("star AS value, COUNT(*) AS count").
		Where("product_id = ? AND star IS NOT NULL", productID).
		Group("star").
		Order("star").
		Scan(&histogram).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load rating histogram: %w", err)
	}
	return histogram, nil
}

// IncrementViewCount bumps the counter with an UPDATE expression; UpdateColumn leaves updated_at alone.
func (g *GormStore) IncrementViewCount(ctx context.Context, id int64) (bool, error) {
	res := g.db.WithContext(ctx).
		Model(&Product{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
	if res.Error != nil {
		return false, fmt.Errorf("failed to increment view count: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (g *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB from gorm: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (g *GormStore) findBySpec(ctx context.Context, spec Spec) ([]Product, error) {
	var products []Product
	err := g.db.WithContext(ctx).Scopes(spec.Scopes()...).Order("id").Find(&products).Error
	return products, err
}
