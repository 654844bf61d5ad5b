package ratesource

import (
	"time"

	"github.com/meenmo/onavg/utils"
)

// FixingFeed supplies published overnight fixings.
type FixingFeed interface {
	RateOn(date time.Time) (float64, bool)
}

// FixingSeries is an immutable map-backed FixingFeed keyed by fixing date.
type FixingSeries struct {
	rates map[string]float64
}

// NewFixingSeries copies rates keyed by "2006-01-02" dates.
func NewFixingSeries(rates map[string]float64) *FixingSeries {
	cp := make(map[string]float64, len(rates))
	for k, v := range rates {
		cp[k] = v
	}
	return &FixingSeries{rates: cp}
}

// FixingSeriesOf builds a series from date-keyed rates.
func FixingSeriesOf(rates map[time.Time]float64) *FixingSeries {
	cp := make(map[string]float64, len(rates))
	for d, v := range rates {
		cp[d.Format(utils.DateLayout)] = v
	}
	return &FixingSeries{rates: cp}
}

// RateOn returns the fixing published for date.
func (s *FixingSeries) RateOn(date time.Time) (float64, bool) {
	if s == nil {
		return 0, false
	}
	val, ok := s.rates[date.Format(utils.DateLayout)]
	return val, ok
}

// Len is the number of fixings.
func (s *FixingSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rates)
}

// Dates lists the fixing dates in ascending order.
func (s *FixingSeries) Dates() []time.Time {
	if s == nil {
		return nil
	}
	out := make([]time.Time, 0, len(s.rates))
	for k := range s.rates {
		if d, err := utils.ParseDate(k); err == nil {
			out = append(out, d)
		}
	}
	utils.SortDates(out)
	return out
}

// With returns a copy of the series with the fixing for date set.
func (s *FixingSeries) With(date time.Time, rate float64) *FixingSeries {
	out := NewFixingSeries(s.snapshot())
	out.rates[date.Format(utils.DateLayout)] = rate
	return out
}

func (s *FixingSeries) snapshot() map[string]float64 {
	if s == nil {
		return nil
	}
	return s.rates
}
