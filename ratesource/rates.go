// Package ratesource supplies overnight rates for a single valuation date: published
// fixings, projected forwards and the point sensitivities of those projections.
package ratesource

import (
	"time"

	"github.com/meenmo/onavg/market"
	"github.com/meenmo/onavg/sensitivity"
)

// Rates is a read-only snapshot of an overnight index for one valuation date.
// Implementations must be safe for concurrent reads.
type Rates interface {
	Index() market.OvernightIndex
	ValuationDate() time.Time

	// PublishedRate returns the published fixing for fixingDate, if any.
	PublishedRate(fixingDate time.Time) (float64, bool)
	// ProjectedRate returns the forward overnight rate fixed on fixingDate.
	ProjectedRate(fixingDate time.Time) float64
	// ProjectedPeriodRate returns the simply compounded rate over [startDate, endDate),
	// both being effective dates of the index.
	ProjectedPeriodRate(startDate, endDate time.Time) float64

	// PointSensitivity is the unit sensitivity to ProjectedRate(fixingDate).
	PointSensitivity(fixingDate time.Time) sensitivity.PointSensitivities
	// PeriodPointSensitivity is the unit sensitivity to ProjectedPeriodRate(startDate, endDate).
	PeriodPointSensitivity(startDate, endDate time.Time) sensitivity.PointSensitivities
}

func unitSensitivity(index market.OvernightIndex, start, end time.Time) sensitivity.PointSensitivities {
	return sensitivity.Of(sensitivity.PointSensitivity{
		Index:    index.Name,
		Start:    start,
		End:      end,
		Currency: index.Currency,
		Value:    1,
	})
}
