package ratesource

import (
	"math"
	"time"

	"github.com/meenmo/onavg/calendar"
	"github.com/meenmo/onavg/market"
	"github.com/meenmo/onavg/sensitivity"
	"github.com/meenmo/onavg/utils"
)

// StaticRates answers every query from literal values. Forwards are keyed by fixing
// date and PeriodRates by PeriodKey(start, end). A period without a literal rate is
// compounded from the daily forwards. Missing forwards project as NaN.
type StaticRates struct {
	Overnight   market.OvernightIndex
	Valuation   time.Time
	Fixings     *FixingSeries
	Forwards    map[string]float64
	PeriodRates map[string]float64
}

var _ Rates = StaticRates{}

// DateKey formats a date the way StaticRates keys it.
func DateKey(t time.Time) string {
	return t.Format(utils.DateLayout)
}

// PeriodKey formats a period the way StaticRates keys it.
func PeriodKey(start, end time.Time) string {
	return DateKey(start) + "/" + DateKey(end)
}

// Index returns the overnight index.
func (s StaticRates) Index() market.OvernightIndex { return s.Overnight }

// ValuationDate returns the snapshot date.
func (s StaticRates) ValuationDate() time.Time { return s.Valuation }

// PublishedRate looks up the fixing series.
func (s StaticRates) PublishedRate(fixingDate time.Time) (float64, bool) {
	return s.Fixings.RateOn(fixingDate)
}

// ProjectedRate returns the literal forward for fixingDate.
func (s StaticRates) ProjectedRate(fixingDate time.Time) float64 {
	if r, ok := s.Forwards[DateKey(fixingDate)]; ok {
		return r
	}
	return math.NaN()
}

// ProjectedPeriodRate returns the literal period rate, or compounds the daily forwards
// of the fixings whose deposits start in [startDate, endDate).
func (s StaticRates) ProjectedPeriodRate(startDate, endDate time.Time) float64 {
	if r, ok := s.PeriodRates[PeriodKey(startDate, endDate)]; ok {
		return r
	}
	idx := s.Overnight
	growth := 1.0
	for eff := startDate; eff.Before(endDate); eff = idx.MaturityFromEffective(eff) {
		fixing := calendar.AddBusinessDays(idx.Calendar, eff, -idx.EffectiveOffset)
		growth *= 1 + s.ProjectedRate(fixing)*idx.YearFraction(eff, idx.MaturityFromEffective(eff))
	}
	yf := idx.YearFraction(startDate, endDate)
	if yf == 0 {
		return 0
	}
	return (growth - 1) / yf
}

// PointSensitivity is the unit record over the deposit fixed on fixingDate.
func (s StaticRates) PointSensitivity(fixingDate time.Time) sensitivity.PointSensitivities {
	eff := s.Overnight.EffectiveFromFixing(fixingDate)
	return unitSensitivity(s.Overnight, eff, s.Overnight.MaturityFromEffective(eff))
}

// PeriodPointSensitivity is the unit record over [startDate, endDate).
func (s StaticRates) PeriodPointSensitivity(startDate, endDate time.Time) sensitivity.PointSensitivities {
	return unitSensitivity(s.Overnight, startDate, endDate)
}
