package averaging

import (
	"fmt"
	"time"

	"github.com/meenmo/onavg/errs"
	"github.com/meenmo/onavg/ratesource"
	"github.com/meenmo/onavg/sensitivity"
)

// Computation evaluates an averaged overnight observation against a rate source.
// Accrual start and end bound the enclosing coupon period and do not affect the rate.
type Computation interface {
	Rate(obs Observation, accrualStart, accrualEnd time.Time, rates ratesource.Rates) (float64, error)
	ExplainRate(obs Observation, accrualStart, accrualEnd time.Time, rates ratesource.Rates, sink ExplainSink) (float64, error)
	RateSensitivity(obs Observation, accrualStart, accrualEnd time.Time, rates ratesource.Rates) (sensitivity.PointSensitivities, error)
}

// Method names accepted by ComputationByName.
const (
	MethodApprox  = "approx"
	MethodForward = "forward"
)

// ComputationByName resolves "approx" or "forward".
func ComputationByName(name string) (Computation, error) {
	switch name {
	case MethodApprox, "":
		return DefaultApproxForward, nil
	case MethodForward:
		return DefaultForward, nil
	default:
		return nil, fmt.Errorf("ComputationByName: unknown method %q", name)
	}
}

func publishedOrFail(obs Observation, rates ratesource.Rates, fixingDate time.Time) (float64, error) {
	r, ok := rates.PublishedRate(fixingDate)
	if !ok {
		return 0, &errs.MissingMarketDataError{Index: obs.Index.Name, Date: fixingDate}
	}
	return r, nil
}

// realizedAmount sums published rate times accrual over the realized prefix.
func realizedAmount(obs Observation, seg Segmentation, rates ratesource.Rates) (float64, error) {
	lo, hi := seg.Range(Realized)
	amount := 0.0
	for i := lo; i < hi; i++ {
		r, err := publishedOrFail(obs, rates, seg.RateFixingDates[i])
		if err != nil {
			return 0, err
		}
		amount += r * seg.AccrualFactors[i]
	}
	return amount, nil
}

// cutOffRate returns the rate of the determining date and whether it was projected.
func cutOffRate(rates ratesource.Rates, d0 time.Time) (float64, bool) {
	if r, ok := rates.PublishedRate(d0); ok {
		return r, false
	}
	return rates.ProjectedRate(d0), true
}

// explainObservations writes one entry per fixing date.
func explainObservations(seg Segmentation, rates ratesource.Rates, sink ExplainSink) {
	for i, d := range seg.FixingDates {
		rfd := seg.RateFixingDates[i]
		r, published := rates.PublishedRate(rfd)
		if !published {
			r = rates.ProjectedRate(rfd)
		}
		sink.Observation(ExplainObservation{
			FixingDate:     d,
			RateFixingDate: rfd,
			AccrualFactor:  seg.AccrualFactors[i],
			Rate:           r,
			Published:      published,
		})
	}
}
