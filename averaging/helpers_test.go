package averaging_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meenmo/onavg/averaging"
	"github.com/meenmo/onavg/market"
	"github.com/meenmo/onavg/ratesource"
	"github.com/meenmo/onavg/sensitivity"
)

const (
	toleranceRate   = 1e-10
	toleranceApprox = 1e-6
	epsFD           = 1e-7
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

var (
	dummyAccrual = d(2015, 1, 1)
	periodStart  = d(2015, 1, 8)
	periodEnd    = d(2015, 1, 15)

	fixingDates = []time.Time{
		d(2015, 1, 7), d(2015, 1, 8), d(2015, 1, 9),
		d(2015, 1, 12), d(2015, 1, 13), d(2015, 1, 14), d(2015, 1, 15),
	}
	fixingRates  = []float64{0.0012, 0.0023, 0.0034, 0.0045, 0.0056, 0.0067, 0.0078}
	forwardRates = []float64{0.0112, 0.0123, 0.0134, 0.0145, 0.0156, 0.0167, 0.0178}
)

type period struct {
	start, end time.Time
}

// stub is a mutable builder of StaticRates snapshots for the Jan 2015 scenarios.
type stub struct {
	index     market.OvernightIndex
	valuation time.Time
	fixings   map[time.Time]float64
	forwards  map[time.Time]float64
	periods   map[period]float64
}

// newStub publishes the first nFixings Fed Fund fixings and projects every fixing date.
func newStub(valuation time.Time, nFixings int) stub {
	return newIndexStub(market.USDFedFund, valuation, nFixings)
}

func newIndexStub(index market.OvernightIndex, valuation time.Time, nFixings int) stub {
	s := stub{
		index:     index,
		valuation: valuation,
		fixings:   map[time.Time]float64{},
		forwards:  map[time.Time]float64{},
		periods:   map[period]float64{},
	}
	for i, f := range fixingDates {
		if i < nFixings {
			s.fixings[f] = fixingRates[i]
		}
		s.forwards[f] = forwardRates[i]
	}
	return s
}

func (s stub) clone() stub {
	out := stub{
		index:     s.index,
		valuation: s.valuation,
		fixings:   map[time.Time]float64{},
		forwards:  map[time.Time]float64{},
		periods:   map[period]float64{},
	}
	for k, v := range s.fixings {
		out.fixings[k] = v
	}
	for k, v := range s.forwards {
		out.forwards[k] = v
	}
	for k, v := range s.periods {
		out.periods[k] = v
	}
	return out
}

func (s stub) rates() ratesource.StaticRates {
	forwards := make(map[string]float64, len(s.forwards))
	for k, v := range s.forwards {
		forwards[ratesource.DateKey(k)] = v
	}
	periods := make(map[string]float64, len(s.periods))
	for k, v := range s.periods {
		periods[ratesource.PeriodKey(k.start, k.end)] = v
	}
	return ratesource.StaticRates{
		Overnight:   s.index,
		Valuation:   s.valuation,
		Fixings:     ratesource.FixingSeriesOf(s.fixings),
		Forwards:    forwards,
		PeriodRates: periods,
	}
}

// compounded returns the compounded Fed Fund forward rate and total accrual of
// fixingDates[from:to].
func compounded(from, to int) (float64, float64) {
	return compoundedFor(market.USDFedFund, from, to)
}

func compoundedFor(idx market.OvernightIndex, from, to int) (float64, float64) {
	growth, accrual := 1.0, 0.0
	for i := from; i < to; i++ {
		af := idx.AccrualFactor(fixingDates[i])
		accrual += af
		growth *= 1 + af*forwardRates[i]
	}
	return (growth - 1) / accrual, accrual
}

func accrualOf(i int) float64 {
	return market.USDFedFund.AccrualFactor(fixingDates[i])
}

func observation(t *testing.T, cutoff int) averaging.Observation {
	return indexObservation(t, market.USDFedFund, cutoff)
}

func indexObservation(t *testing.T, idx market.OvernightIndex, cutoff int) averaging.Observation {
	t.Helper()
	obs, err := averaging.NewObservation(idx, periodStart, periodEnd, cutoff)
	require.NoError(t, err)
	return obs
}

// finiteDifference bumps every projected input of s and records the centered
// difference of the rate against it.
func finiteDifference(t *testing.T, c averaging.Computation, obs averaging.Observation, s stub) sensitivity.PointSensitivities {
	t.Helper()
	idx := s.index
	rate := func(bumped stub) float64 {
		r, err := c.Rate(obs, dummyAccrual, dummyAccrual, bumped.rates())
		require.NoError(t, err)
		return r
	}

	b := sensitivity.NewBuilder()
	for f, v := range s.forwards {
		up, dn := s.clone(), s.clone()
		up.forwards[f] = v + epsFD
		dn.forwards[f] = v - epsFD
		res := 0.5 * (rate(up) - rate(dn)) / epsFD
		if res == 0 {
			continue
		}
		eff := idx.EffectiveFromFixing(f)
		b.Add(sensitivity.PointSensitivity{
			Index: idx.Name, Start: eff, End: idx.MaturityFromEffective(eff), Currency: idx.Currency, Value: res,
		})
	}
	for p, v := range s.periods {
		up, dn := s.clone(), s.clone()
		up.periods[p] = v + epsFD
		dn.periods[p] = v - epsFD
		res := 0.5 * (rate(up) - rate(dn)) / epsFD
		if res == 0 {
			continue
		}
		b.Add(sensitivity.PointSensitivity{
			Index: idx.Name, Start: p.start, End: p.end, Currency: idx.Currency, Value: res,
		})
	}
	return b.Build()
}
