package averaging

import (
	"math"
	"time"

	"github.com/meenmo/onavg/ratesource"
	"github.com/meenmo/onavg/sensitivity"
)

// ApproxForwardComputation replaces the daily compounding of the projected fixings by
// a single period rate Rc from the rate source, converted to an average with
// ln(1 + Rc*T)/T. The cut-off dates use the rate of the determining date.
type ApproxForwardComputation struct{}

// DefaultApproxForward is the default approximated computation.
var DefaultApproxForward = ApproxForwardComputation{}

var _ Computation = ApproxForwardComputation{}

type approxResult struct {
	seg Segmentation

	realizedAmount  float64
	realizedAccrual float64

	approxStart   time.Time
	approxEnd     time.Time
	periodRate    float64
	approxAccrual float64

	determiningDate time.Time
	cutOffRate      float64
	cutOffProjected bool
	cutOffAccrual   float64
}

func (r approxResult) totalAccrual() float64 {
	return r.realizedAccrual + r.approxAccrual + r.cutOffAccrual
}

func (r approxResult) rate() float64 {
	amount := r.realizedAmount + r.cutOffRate*r.cutOffAccrual
	if r.approxAccrual > 0 {
		amount += math.Log1p(r.periodRate * r.approxAccrual)
	}
	return amount / r.totalAccrual()
}

func (ApproxForwardComputation) evaluate(obs Observation, rates ratesource.Rates) (approxResult, error) {
	seg, err := Segment(obs, rates)
	if err != nil {
		return approxResult{}, err
	}
	res := approxResult{seg: seg}

	if res.realizedAmount, err = realizedAmount(obs, seg, rates); err != nil {
		return approxResult{}, err
	}
	res.realizedAccrual = seg.Accrual(Realized)

	if lo, hi := seg.Range(Approximated); lo < hi {
		index := obs.Index
		res.approxStart = index.EffectiveFromFixing(seg.FixingDates[lo])
		res.approxEnd = index.MaturityFromFixing(seg.FixingDates[hi-1])
		res.periodRate = rates.ProjectedPeriodRate(res.approxStart, res.approxEnd)
		res.approxAccrual = seg.Accrual(Approximated)
	}

	if lo, hi := seg.Range(CutOff); lo < hi {
		res.determiningDate = seg.RateFixingDates[lo]
		res.cutOffRate, res.cutOffProjected = cutOffRate(rates, res.determiningDate)
		res.cutOffAccrual = seg.Accrual(CutOff)
	}
	return res, nil
}

// Rate returns the averaged rate of obs.
func (c ApproxForwardComputation) Rate(obs Observation, accrualStart, accrualEnd time.Time, rates ratesource.Rates) (float64, error) {
	res, err := c.evaluate(obs, rates)
	if err != nil {
		return 0, err
	}
	return res.rate(), nil
}

// ExplainRate returns Rate and writes the combined rate to sink. The per-date
// breakdown is written only when no date is approximated. A nil sink discards the output.
func (c ApproxForwardComputation) ExplainRate(obs Observation, accrualStart, accrualEnd time.Time, rates ratesource.Rates, sink ExplainSink) (float64, error) {
	res, err := c.evaluate(obs, rates)
	if err != nil {
		return 0, err
	}
	sink = orNop(sink)
	rate := res.rate()
	if lo, hi := res.seg.Range(Approximated); lo == hi {
		explainObservations(res.seg, rates, sink)
	}
	sink.CombinedRate(rate)
	return rate, nil
}

// RateSensitivity returns the sensitivity of Rate to the projected period rate and
// to the projected rate of the determining date. Realized dates contribute nothing.
func (c ApproxForwardComputation) RateSensitivity(obs Observation, accrualStart, accrualEnd time.Time, rates ratesource.Rates) (sensitivity.PointSensitivities, error) {
	res, err := c.evaluate(obs, rates)
	if err != nil {
		return sensitivity.None(), err
	}
	total := res.totalAccrual()

	b := sensitivity.NewBuilder()
	if res.approxAccrual > 0 {
		factor := res.approxAccrual / (1 + res.periodRate*res.approxAccrual) / total
		b.AddAll(rates.PeriodPointSensitivity(res.approxStart, res.approxEnd), factor)
	}
	if res.cutOffAccrual > 0 && res.cutOffProjected {
		b.AddAll(rates.PointSensitivity(res.determiningDate), res.cutOffAccrual/total)
	}
	return b.Build(), nil
}
