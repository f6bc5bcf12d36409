package store

import (
	"context"
	"errors"
	"fmt"

	perrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const productColumns = "id, name, description, price, color, category_id, manufacturer_id, view_count, created_at, updated_at"

// PgStore implements ProductStore using PostgreSQL as the data store.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of ProductStore using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

// FindAll retrieves every product ordered by ID.
func (p *PgStore) FindAll(ctx context.Context) ([]Product, error) {
	products, err := p.queryProducts(ctx, "SELECT "+productColumns+" FROM products ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to find all products: %w", err)
	}
	return products, nil
}

// FindPage retrieves one page of the products matching spec.
func (p *PgStore) FindPage(ctx context.Context, spec Spec, page PageRequest) ([]Product, error) {
	where, args := spec.Where(1)
	query := fmt.Sprintf("SELECT %s FROM products%s ORDER BY %s LIMIT $%d OFFSET $%d",
		productColumns, where, page.OrderBy(), len(args)+1, len(args)+2)
	args = append(args, page.Size, page.Offset())

	products, err := p.queryProducts(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find products page: %w", err)
	}
	return products, nil
}

// Count returns the number of products matching spec.
func (p *PgStore) Count(ctx context.Context, spec Spec) (int64, error) {
	where, args := spec.Where(1)
	var total int64
	if err := p.db.QueryRow(ctx, "SELECT COUNT(*) FROM products"+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return total, nil
}

// FindByID retrieves a product by its unique identifier.
// Returns ErrProductNotFound if no product exists with the given ID.
func (p *PgStore) FindByID(ctx context.Context, id int64) (*Product, error) {
	rows, err := p.db.Query(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	product, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Product])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, perrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return &product, nil
}

// Save inserts a new product or updates an existing one.
// Updates never write view_count; it only moves through IncrementViewCount.
// Returns ErrProductNotFound when updating a product that does not exist.
func (p *PgStore) Save(ctx context.Context, product Product) (*Product, error) {
	if product.ID == 0 {
		return p.insert(ctx, product)
	}
	return p.update(ctx, product)
}

func (p *PgStore) insert(ctx context.Context, product Product) (*Product, error) {
	rows, err := p.db.Query(ctx,
		`INSERT INTO products (name, description, price, color, category_id, manufacturer_id, view_count)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+productColumns,
		product.Name, product.Description, product.Price, product.Color,
		product.CategoryID, product.ManufacturerID, product.ViewCount)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	created, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Product])
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &created, nil
}

func (p *PgStore) update(ctx context.Context, product Product) (*Product, error) {
	rows, err := p.db.Query(ctx,
		`UPDATE products
		 SET name = $2, description = $3, price = $4, color = $5,
		     category_id = $6, manufacturer_id = $7, updated_at = now()
		 WHERE id = $1
		 RETURNING `+productColumns,
		product.ID, product.Name, product.Description, product.Price, product.Color,
		product.CategoryID, product.ManufacturerID)
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	updated, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Product])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, perrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return &updated, nil
}

// ExistsByID reports whether a product with the given ID exists.
func (p *PgStore) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := p.db.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)", id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check product existence: %w", err)
	}
	return exists, nil
}

// DeleteByID removes a product by its unique identifier.
// Returns ErrProductNotFound if no product exists with the given ID.
func (p *PgStore) DeleteByID(ctx context.Context, id int64) error {
	tag, err := p.db.Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete product by ID: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return perrors.ErrProductNotFound
	}
	return nil
}

// FindByName returns the products whose name equals name.
func (p *PgStore) FindByName(ctx context.Context, name string) ([]Product, error) {
	products, err := p.findBySpec(ctx, Spec{NameIs{Name: name}})
	if err != nil {
		return nil, fmt.Errorf("failed to find products by name: %w", err)
	}
	return products, nil
}

// FindByCategoryID returns the products of a category.
func (p *PgStore) FindByCategoryID(ctx context.Context, categoryID int64) ([]Product, error) {
	products, err := p.findBySpec(ctx, Spec{CategoryIs{ID: categoryID}})
	if err != nil {
		return nil, fmt.Errorf("failed to find products by category: %w", err)
	}
	return products, nil
}

// FindByManufacturerID returns the products of a manufacturer.
func (p *PgStore) FindByManufacturerID(ctx context.Context, manufacturerID int64) ([]Product, error) {
	products, err := p.findBySpec(ctx, Spec{ManufacturerIn{IDs: []int64{manufacturerID}}})
	if err != nil {
		return nil, fmt.Errorf("failed to find products by manufacturer: %w", err)
	}
	return products, nil
}

// Search returns the products whose name or description contains keyword.
func (p *PgStore) Search(ctx context.Context, keyword string, page *PageRequest) ([]Product, error) {
	spec := Spec{Keyword{Text: keyword}}
	if page != nil {
		return p.FindPage(ctx, spec, *page)
	}
	products, err := p.findBySpec(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return products, nil
}

// SearchCount returns the number of products matching keyword.
func (p *PgStore) SearchCount(ctx context.Context, keyword string) (int64, error) {
	return p.Count(ctx, Spec{Keyword{Text: keyword}})
}

// CommentCount returns the number of comments left on a product.
func (p *PgStore) CommentCount(ctx context.Context, productID int64) (int64, error) {
	var count int64
	if err := p.db.QueryRow(ctx, "SELECT COUNT(*) FROM comments WHERE product_id = $1", productID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return count, nil
}

// RatingHistogram returns the rating distribution of a product.
func (p *PgStore) RatingHistogram(ctx context.Context, productID int64) ([]RatingCount, error) {
	rows, err := p.db.Query(ctx,
		`SELECT star AS value, COUNT(*) AS count
		 FROM comments
		 WHERE product_id = $1 AND star IS NOT NULL
		 GROUP BY star
		 ORDER BY star`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rating histogram: %w", err)
	}
	histogram, err := pgx.CollectRows(rows, pgx.RowToStructByName[RatingCount])
	if err != nil {
		return nil, fmt.Errorf("failed to load rating histogram: %w", err)
	}
	return histogram, nil
}

// IncrementViewCount adds one to the view counter in a single statement.
func (p *PgStore) IncrementViewCount(ctx context.Context, id int64) (bool, error) {
	tag, err := p.db.Exec(ctx, "UPDATE products SET view_count = view_count + 1 WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("failed to increment view count: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Ping checks the database connection.
func (p *PgStore) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

func (p *PgStore) findBySpec(ctx context.Context, spec Spec) ([]Product, error) {
	where, args := spec.Where(1)
	return p.queryProducts(ctx, "SELECT "+productColumns+" FROM products"+where+" ORDER BY id", args...)
}

func (p *PgStore) queryProducts(ctx context.Context, query string, args ...any) ([]Product, error) {
	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[Product])
}
