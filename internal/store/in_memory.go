package store

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	perrors "github.com/abgdnv/catalog/internal/errors"
)

// InMemory implements ProductStore using an in-memory map.
type InMemory struct {
	mu       sync.RWMutex
	products map[int64]Product
	stars    map[int64][]int // product ID -> star of every comment, 0 when unrated
	nextID   int64
	now      func() time.Time
}

// NewInMemoryStore creates a new instance of ProductStore
func NewInMemoryStore() *InMemory {
	return &InMemory{
		products: make(map[int64]Product),
		stars:    make(map[int64][]int),
		nextID:   1,
		now:      time.Now,
	}
}

// AddComment records a comment on a product. A star of 0 leaves the comment unrated.
func (s *InMemory) AddComment(productID int64, star int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stars[productID] = append(s.stars[productID], star)
}

func (s *InMemory) FindAll(_ context.Context) ([]Product, error) {
	return s.filter(nil, PageRequest{}), nil
}

func (s *InMemory) FindPage(_ context.Context, spec Spec, page PageRequest) ([]Product, error) {
	list := s.filter(spec, page)
	return paginate(list, page), nil
}

func (s *InMemory) Count(_ context.Context, spec Spec) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, p := range s.products {
		if spec.Match(&p) {
			total++
		}
	}
	return total, nil
}

func (s *InMemory) FindByID(_ context.Context, id int64) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, perrors.ErrProductNotFound
	}
	return &p, nil
}

func (s *InMemory) Save(_ context.Context, product Product) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if product.ID == 0 {
		product.ID = s.nextID
		s.nextID++
		product.CreatedAt = now
	} else {
		existing, ok := s.products[product.ID]
		if !ok {
			return nil, perrors.ErrProductNotFound
		}
		product.CreatedAt = existing.CreatedAt
		product.ViewCount = existing.ViewCount
	}
	product.UpdatedAt = now
	s.products[product.ID] = product

	return &product, nil
}

func (s *InMemory) ExistsByID(_ context.Context, id int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.products[id]
	return ok, nil
}

func (s *InMemory) DeleteByID(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[id]; !exists {
		return perrors.ErrProductNotFound
	}
	delete(s.products, id)
	delete(s.stars, id)
	return nil
}

func (s *InMemory) FindByName(_ context.Context, name string) ([]Product, error) {
	return s.filter(Spec{NameIs{Name: name}}, PageRequest{}), nil
}

func (s *InMemory) FindByCategoryID(_ context.Context, categoryID int64) ([]Product, error) {
	return s.filter(Spec{CategoryIs{ID: categoryID}}, PageRequest{}), nil
}

func (s *InMemory) FindByManufacturerID(_ context.Context, manufacturerID int64) ([]Product, error) {
	return s.filter(Spec{ManufacturerIn{IDs: []int64{manufacturerID}}}, PageRequest{}), nil
}

func (s *InMemory) Search(ctx context.Context, keyword string, page *PageRequest) ([]Product, error) {
	spec := Spec{Keyword{Text: keyword}}
	if page != nil {
		return s.FindPage(ctx, spec, *page)
	}
	return s.filter(spec, PageRequest{}), nil
}

func (s *InMemory) SearchCount(ctx context.Context, keyword string) (int64, error) {
	return s.Count(ctx, Spec{Keyword{Text: keyword}})
}

func (s *InMemory) CommentCount(_ context.Context, productID int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.stars[productID])), nil
}

func (s *InMemory) RatingHistogram(_ context.Context, productID int64) ([]RatingCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[int]int64)
	for _, star := range s.stars[productID] {
		if star > 0 {
			counts[star]++
		}
	}
	histogram := make([]RatingCount, 0, len(counts))
	for value, count := range counts {
		histogram = append(histogram, RatingCount{Value: value, Count: count})
	}
	slices.SortFunc(histogram, func(a, b RatingCount) int { return cmp.Compare(a.Value, b.Value) })
	return histogram, nil
}

func (s *InMemory) IncrementViewCount(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return false, nil
	}
	p.ViewCount++
	s.products[id] = p
	return true, nil
}

func (s *InMemory) Ping(_ context.Context) error {
	return nil
}

// filter returns the matching products sorted as the page request asks.
func (s *InMemory) filter(spec Spec, page PageRequest) []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		if spec.Match(&p) {
			list = append(list, p)
		}
	}
	slices.SortFunc(list, page.compare)
	return list
}

func paginate(list []Product, page PageRequest) []Product {
	start := page.Offset()
	if start >= len(list) {
		return []Product{}
	}
	end := min(start+page.Size, len(list))
	return list[start:end]
}

// compare orders products the same way OrderBy does in SQL.
func (p PageRequest) compare(a, b Product) int {
	var c int
	switch p.sortColumn() {
	case "name":
		c = cmp.Compare(a.Name, b.Name)
	case "price":
		c = a.Price.Cmp(b.Price)
	case "view_count":
		c = cmp.Compare(a.ViewCount, b.ViewCount)
	case "created_at":
		c = a.CreatedAt.Compare(b.CreatedAt)
	default:
		c = cmp.Compare(a.ID, b.ID)
	}
	if p.Direction == Desc {
		c = -c
	}
	if c == 0 {
		return cmp.Compare(a.ID, b.ID)
	}
	return c
}
