package averaging

import (
	"time"

	"github.com/meenmo/onavg/ratesource"
)

// SegmentKind classifies a fixing date of an observation.
type SegmentKind int

const (
	Realized SegmentKind = iota
	Approximated
	CutOff
)

func (k SegmentKind) String() string {
	switch k {
	case Realized:
		return "Realized"
	case Approximated:
		return "Approximated"
	case CutOff:
		return "CutOff"
	default:
		return "Unknown"
	}
}

// Segmentation splits the fixing dates of an observation into a realized prefix, an
// approximated middle and the trailing cut-off dates.
//
// RateFixingDates[i] is the date whose rate applies to FixingDates[i]: the date itself,
// or the determining date for cut-off dates.
type Segmentation struct {
	FixingDates     []time.Time
	RateFixingDates []time.Time
	AccrualFactors  []float64

	realizedEnd int
	approxEnd   int
}

// Segment classifies the fixing dates of obs as of the valuation date of rates.
//
// A date is realized once the fixing of its rate is published: publication before the
// valuation date, or on it when the fixing is already present. Realization stops at
// the first date that fails this test. Cut-off dates are realized together with the
// determining date.
func Segment(obs Observation, rates ratesource.Rates) (Segmentation, error) {
	dates, err := obs.checkedFixingDates()
	if err != nil {
		return Segmentation{}, err
	}
	index := obs.Index
	n := len(dates)
	notCutOff := n
	if obs.RateCutoffDays > 1 {
		notCutOff = n - (obs.RateCutoffDays - 1)
	}

	seg := Segmentation{
		FixingDates:     dates,
		RateFixingDates: make([]time.Time, n),
		AccrualFactors:  make([]float64, n),
	}
	for i, d := range dates {
		seg.RateFixingDates[i] = d
		if i >= notCutOff {
			seg.RateFixingDates[i] = dates[notCutOff-1]
		}
		seg.AccrualFactors[i] = index.AccrualFactor(d)
	}

	valuation := rates.ValuationDate()
	realized := 0
	for realized < notCutOff {
		fixing := dates[realized]
		publication := index.PublicationFromFixing(fixing)
		if publication.After(valuation) {
			break
		}
		if publication.Equal(valuation) {
			if _, ok := rates.PublishedRate(fixing); !ok {
				break
			}
		}
		realized++
	}
	if realized == notCutOff {
		realized = n
	}
	seg.realizedEnd = realized
	seg.approxEnd = notCutOff
	if realized > notCutOff {
		seg.approxEnd = n
	}
	return seg, nil
}

// Range returns the half-open index range [lo, hi) of the fixing dates of kind k.
func (s Segmentation) Range(k SegmentKind) (lo, hi int) {
	switch k {
	case Realized:
		return 0, s.realizedEnd
	case Approximated:
		return s.realizedEnd, s.approxEnd
	case CutOff:
		return s.approxEnd, len(s.FixingDates)
	default:
		return 0, 0
	}
}

// Kind classifies fixing date i.
func (s Segmentation) Kind(i int) SegmentKind {
	switch {
	case i < s.realizedEnd:
		return Realized
	case i < s.approxEnd:
		return Approximated
	default:
		return CutOff
	}
}

// Dates returns the fixing dates of kind k.
func (s Segmentation) Dates(k SegmentKind) []time.Time {
	lo, hi := s.Range(k)
	return append([]time.Time(nil), s.FixingDates[lo:hi]...)
}

// Accrual sums the accrual factors of kind k.
func (s Segmentation) Accrual(k SegmentKind) float64 {
	lo, hi := s.Range(k)
	total := 0.0
	for i := lo; i < hi; i++ {
		total += s.AccrualFactors[i]
	}
	return total
}
