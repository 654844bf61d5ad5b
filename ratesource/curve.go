package ratesource

import (
	"fmt"
	"time"

	"github.com/meenmo/onavg/curve"
	"github.com/meenmo/onavg/market"
	"github.com/meenmo/onavg/sensitivity"
)

// CurveRates projects overnight rates from a discount curve and reads realized rates
// from a fixing feed.
type CurveRates struct {
	index     market.OvernightIndex
	valuation time.Time
	fixings   FixingFeed
	curve     *curve.Curve
}

var _ Rates = (*CurveRates)(nil)

// NewCurveRates binds an index, its fixings and its projection curve. fixings may be nil.
func NewCurveRates(index market.OvernightIndex, valuation time.Time, fixings FixingFeed, c *curve.Curve) *CurveRates {
	return &CurveRates{index: index, valuation: valuation, fixings: fixings, curve: c}
}

// Index returns the overnight index.
func (r *CurveRates) Index() market.OvernightIndex { return r.index }

// ValuationDate returns the snapshot date.
func (r *CurveRates) ValuationDate() time.Time { return r.valuation }

// Curve returns the projection curve.
func (r *CurveRates) Curve() *curve.Curve { return r.curve }

// PublishedRate looks up the fixing feed.
func (r *CurveRates) PublishedRate(fixingDate time.Time) (float64, bool) {
	if r.fixings == nil {
		return 0, false
	}
	return r.fixings.RateOn(fixingDate)
}

// ProjectedRate is the curve forward over the deposit fixed on fixingDate.
func (r *CurveRates) ProjectedRate(fixingDate time.Time) float64 {
	eff := r.index.EffectiveFromFixing(fixingDate)
	return r.curve.ForwardRate(eff, r.index.MaturityFromEffective(eff), string(r.index.DayCount))
}

// ProjectedPeriodRate is the curve forward over [startDate, endDate).
func (r *CurveRates) ProjectedPeriodRate(startDate, endDate time.Time) float64 {
	return r.curve.ForwardRate(startDate, endDate, string(r.index.DayCount))
}

// PointSensitivity is the unit record over the deposit fixed on fixingDate.
func (r *CurveRates) PointSensitivity(fixingDate time.Time) sensitivity.PointSensitivities {
	eff := r.index.EffectiveFromFixing(fixingDate)
	return unitSensitivity(r.index, eff, r.index.MaturityFromEffective(eff))
}

// PeriodPointSensitivity is the unit record over [startDate, endDate).
func (r *CurveRates) PeriodPointSensitivity(startDate, endDate time.Time) sensitivity.PointSensitivities {
	return unitSensitivity(r.index, startDate, endDate)
}

// ParameterSensitivity maps point sensitivities on this index onto the curve parameters.
func (r *CurveRates) ParameterSensitivity(points sensitivity.PointSensitivities) (sensitivity.CurveParameterSensitivities, error) {
	if points.IsEmpty() {
		return sensitivity.CurveParameterSensitivities{}, nil
	}
	values := make([]float64, r.curve.ParameterCount())
	for _, p := range points.Items() {
		if p.Index != r.index.Name {
			return sensitivity.CurveParameterSensitivities{},
				fmt.Errorf("ParameterSensitivity: record on %s, curve %s projects %s", p.Index, r.curve.Name(), r.index.Name)
		}
		for i, dz := range r.curve.ForwardRateSensitivity(p.Start, p.End, string(r.index.DayCount)) {
			values[i] += p.Value * dz
		}
	}
	return sensitivity.NewCurveParameterSensitivities(sensitivity.CurveParameterSensitivity{
		CurveName: r.curve.Name(),
		Currency:  r.curve.Currency(),
		Values:    values,
	})
}
