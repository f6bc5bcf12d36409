package service

import (
	"github.com/abgdnv/catalog/internal/store"
	"github.com/shopspring/decimal"
)

// RatingScale is the number of decimals a rating is rounded and rendered to.
const RatingScale = 2

// averageRating computes sum(value*count) / sum(count), rounded half-up to two decimals.
func averageRating(histogram []store.RatingCount) decimal.Decimal {
	sum := decimal.Zero
	var count int64
	for _, bucket := range histogram {
		sum = sum.Add(decimal.NewFromInt(int64(bucket.Value)).Mul(decimal.NewFromInt(bucket.Count)))
		count += bucket.Count
	}
	if count == 0 {
		return decimal.Zero
	}
	return sum.DivRound(decimal.NewFromInt(count), RatingScale)
}
