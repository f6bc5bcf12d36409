package store

import (
	"context"
	"sync"
	"testing"
	"time"

	perrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, names ...string) *InMemory {
	t.Helper()
	s := NewInMemoryStore()
	for i, name := range names {
		_, err := s.Save(context.Background(), Product{
			Name:           name,
			Price:          decimal.NewFromInt(int64(len(names) - i)),
			CategoryID:     1,
			ManufacturerID: 1,
		})
		require.NoError(t, err)
	}
	return s
}

func TestInMemory_SaveAssignsIDsAndTimestamps(t *testing.T) {
	// given
	s := NewInMemoryStore()
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return created }
	ctx := context.Background()
	// when
	first, err := s.Save(ctx, Product{Name: "first"})
	require.NoError(t, err)
	second, err := s.Save(ctx, Product{Name: "second"})
	require.NoError(t, err)
	s.now = func() time.Time { return created.Add(time.Hour) }
	first.Name = "renamed"
	updated, err := s.Save(ctx, *first)
	require.NoError(t, err)
	// then
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, created, updated.CreatedAt)
	assert.Equal(t, created.Add(time.Hour), updated.UpdatedAt)

	_, err = s.Save(ctx, Product{ID: 99, Name: "ghost"})
	assert.ErrorIs(t, err, perrors.ErrProductNotFound)
}

func TestInMemory_FindPage(t *testing.T) {
	s := newTestStore(t, "a", "b", "c", "d", "e")
	ctx := context.Background()

	testCases := []struct {
		name     string
		page     PageRequest
		expected []string
	}{
		{name: "First page", page: PageRequest{Index: 0, Size: 2}, expected: []string{"a", "b"}},
		{name: "Last partial page", page: PageRequest{Index: 2, Size: 2}, expected: []string{"e"}},
		{name: "Past the end", page: PageRequest{Index: 5, Size: 2}, expected: []string{}},
		{name: "Sorted by price ascending", page: PageRequest{Index: 0, Size: 2, SortBy: "price"}, expected: []string{"e", "d"}},
		{name: "Sorted by name descending", page: PageRequest{Index: 0, Size: 3, SortBy: "name", Direction: Desc}, expected: []string{"e", "d", "c"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			page, err := s.FindPage(ctx, nil, tc.page)
			require.NoError(t, err)
			names := make([]string, 0, len(page))
			for _, p := range page {
				names = append(names, p.Name)
			}
			assert.Equal(t, tc.expected, names)
		})
	}
}

func TestInMemory_Save_UpdateKeepsViewCount(t *testing.T) {
	// given
	s := newTestStore(t, "a")
	ctx := context.Background()
	for range 3 {
		_, err := s.IncrementViewCount(ctx, 1)
		require.NoError(t, err)
	}
	// when
	updated, err := s.Save(ctx, Product{ID: 1, Name: "renamed", ViewCount: 0})
	// then
	require.NoError(t, err)
	assert.Equal(t, int64(3), updated.ViewCount)
	stored, err := s.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stored.ViewCount)
}

func TestInMemory_DeleteByID(t *testing.T) {
	// given
	s := newTestStore(t, "a")
	ctx := context.Background()
	s.AddComment(1, 5)
	// when
	err := s.DeleteByID(ctx, 1)
	// then
	require.NoError(t, err)
	exists, err := s.ExistsByID(ctx, 1)
	require.NoError(t, err)
	assert.False(t, exists)
	comments, err := s.CommentCount(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, comments)
	assert.ErrorIs(t, s.DeleteByID(ctx, 1), perrors.ErrProductNotFound)
}

func TestInMemory_RatingHistogram(t *testing.T) {
	// given
	s := newTestStore(t, "a")
	for _, star := range []int{5, 3, 5, 0, 1} {
		s.AddComment(1, star)
	}
	// when
	histogram, err := s.RatingHistogram(context.Background(), 1)
	// then
	require.NoError(t, err)
	assert.Equal(t, []RatingCount{{Value: 1, Count: 1}, {Value: 3, Count: 1}, {Value: 5, Count: 2}}, histogram)
}

func TestInMemory_IncrementViewCount_Concurrent(t *testing.T) {
	// given
	s := newTestStore(t, "a")
	ctx := context.Background()
	var wg sync.WaitGroup
	// when
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.IncrementViewCount(ctx, 1)
		}()
	}
	wg.Wait()
	// then
	p, err := s.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(50), p.ViewCount)

	ok, err := s.IncrementViewCount(ctx, 42)
	require.NoError(t, err)
	assert.False(t, ok)
}
