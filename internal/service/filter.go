package service

import (
	"strings"

	"github.com/abgdnv/catalog/internal/store"
	"github.com/shopspring/decimal"
)

// FilterCriteria holds the optional filters of FilterProducts. Zero values are ignored.
type FilterCriteria struct {
	// Price is applied only when it holds exactly two bounds: [low, high], both inclusive.
	Price           []decimal.Decimal
	Color           string
	CategoryID      *int64
	ManufacturerIDs []int64
}

// BuildSpec combines the present criteria with AND.
// With no criteria present the result matches every product.
func BuildSpec(c FilterCriteria) store.Spec {
	spec := store.Spec{}
	if c.CategoryID != nil {
		spec = spec.And(store.CategoryIs{ID: *c.CategoryID})
	}
	if len(c.ManufacturerIDs) > 0 {
		spec = spec.And(store.ManufacturerIn{IDs: c.ManufacturerIDs})
	}
	if len(c.Price) == 2 {
		spec = spec.And(store.PriceBetween{Min: c.Price[0], Max: c.Price[1]})
	}
	if color := strings.TrimSpace(c.Color); color != "" {
		spec = spec.And(store.ColorIs{Color: color})
	}
	return spec
}
