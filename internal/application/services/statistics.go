package services

import (
	"math"
	"slices"

	"github.com/zatekoja/pricefinder/internal/domain/entities"
)

// AggregatePrices computes count, extrema, rounded average and median over prices.
// The input is never reordered.
func AggregatePrices(prices []float64) entities.PriceStatistics {
	if len(prices) == 0 {
		return entities.PriceStatistics{}
	}

	sorted := slices.Clone(prices)
	slices.Sort(sorted)

	var sum float64
	for _, p := range sorted {
		sum += p
	}

	n := len(sorted)
	stats := entities.PriceStatistics{
		Count: n,
		Min:   sorted[0],
		Max:   sorted[n-1],
	}

	// Rounding to whole units can step outside a narrow fractional range.
	stats.Average = math.Min(math.Max(math.Round(sum/float64(n)), stats.Min), stats.Max)

	if n%2 == 1 {
		stats.Median = sorted[n/2]
	} else {
		stats.Median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	return stats
}

// offeringPrices extracts the price population of a set of offerings
func offeringPrices(offerings []*entities.ProcedureOffering) []float64 {
	prices := make([]float64, 0, len(offerings))
	for _, o := range offerings {
		if o == nil {
			continue
		}
		prices = append(prices, o.Price.InexactFloat64())
	}
	return prices
}
