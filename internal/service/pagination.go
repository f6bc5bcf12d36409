package service

import "github.com/abgdnv/catalog/internal/store"

// PageResponse is one page of results.
// ItemCount is the number of items on this page, not the total.
type PageResponse[T any] struct {
	Items      []T `json:"items"`
	ItemCount  int `json:"itemCount"`
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
}

func newPageResponse[T any](items []T, page store.PageRequest, total int64) *PageResponse[T] {
	return &PageResponse[T]{
		Items:      items,
		ItemCount:  len(items),
		Page:       page.Index + 1,
		TotalPages: totalPages(total, page.Size),
	}
}

// totalPages returns ceil(total / size).
func totalPages(total int64, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	s := int64(size)
	return int((total + s - 1) / s)
}
