package averaging

import (
	"time"

	"github.com/meenmo/onavg/ratesource"
	"github.com/meenmo/onavg/sensitivity"
)

// ForwardComputation averages the daily projected rates exactly, one fixing at a time.
type ForwardComputation struct{}

// DefaultForward is the default exact computation.
var DefaultForward = ForwardComputation{}

var _ Computation = ForwardComputation{}

type forwardTerm struct {
	fixing    time.Time
	rate      float64
	accrual   float64
	projected bool
}

func (ForwardComputation) evaluate(obs Observation, rates ratesource.Rates) (Segmentation, []forwardTerm, float64, error) {
	seg, err := Segment(obs, rates)
	if err != nil {
		return Segmentation{}, nil, 0, err
	}
	terms := make([]forwardTerm, len(seg.FixingDates))
	total := 0.0
	for i := range seg.FixingDates {
		rfd := seg.RateFixingDates[i]
		term := forwardTerm{fixing: rfd, accrual: seg.AccrualFactors[i]}
		switch seg.Kind(i) {
		case Realized:
			if term.rate, err = publishedOrFail(obs, rates, rfd); err != nil {
				return Segmentation{}, nil, 0, err
			}
		case Approximated:
			term.rate, term.projected = rates.ProjectedRate(rfd), true
		case CutOff:
			term.rate, term.projected = cutOffRate(rates, rfd)
		}
		terms[i] = term
		total += term.accrual
	}
	return seg, terms, total, nil
}

// Rate returns the accrual weighted average of the daily rates.
func (c ForwardComputation) Rate(obs Observation, accrualStart, accrualEnd time.Time, rates ratesource.Rates) (float64, error) {
	_, terms, total, err := c.evaluate(obs, rates)
	if err != nil {
		return 0, err
	}
	return average(terms, total), nil
}

// ExplainRate returns Rate and writes every daily rate and the combined rate to sink.
// A nil sink discards the output.
func (c ForwardComputation) ExplainRate(obs Observation, accrualStart, accrualEnd time.Time, rates ratesource.Rates, sink ExplainSink) (float64, error) {
	seg, terms, total, err := c.evaluate(obs, rates)
	if err != nil {
		return 0, err
	}
	sink = orNop(sink)
	for i, term := range terms {
		sink.Observation(ExplainObservation{
			FixingDate:     seg.FixingDates[i],
			RateFixingDate: term.fixing,
			AccrualFactor:  term.accrual,
			Rate:           term.rate,
			Published:      !term.projected,
		})
	}
	rate := average(terms, total)
	sink.CombinedRate(rate)
	return rate, nil
}

// RateSensitivity returns one record per projected daily rate, weighted by its accrual.
func (c ForwardComputation) RateSensitivity(obs Observation, accrualStart, accrualEnd time.Time, rates ratesource.Rates) (sensitivity.PointSensitivities, error) {
	_, terms, total, err := c.evaluate(obs, rates)
	if err != nil {
		return sensitivity.None(), err
	}
	b := sensitivity.NewBuilder()
	for _, term := range terms {
		if term.projected {
			b.AddAll(rates.PointSensitivity(term.fixing), term.accrual/total)
		}
	}
	return b.Build(), nil
}

func average(terms []forwardTerm, total float64) float64 {
	amount := 0.0
	for _, term := range terms {
		amount += term.rate * term.accrual
	}
	return amount / total
}
