package sensitivity

import (
	"math"
	"sort"

	"github.com/meenmo/onavg/errs"
	"github.com/meenmo/onavg/market"
)

// CurveParameterSensitivity is the sensitivity to each parameter of a named curve,
// or to each market quote of a calibration group when produced by the market
// quote transform.
type CurveParameterSensitivity struct {
	CurveName string
	Currency  market.Currency
	Values    []float64
}

// MultipliedBy scales every value.
func (c CurveParameterSensitivity) MultipliedBy(factor float64) CurveParameterSensitivity {
	values := make([]float64, len(c.Values))
	for i, v := range c.Values {
		values[i] = v * factor
	}
	return CurveParameterSensitivity{CurveName: c.CurveName, Currency: c.Currency, Values: values}
}

// Total returns the sum of the values.
func (c CurveParameterSensitivity) Total() float64 {
	total := 0.0
	for _, v := range c.Values {
		total += v
	}
	return total
}

// CurveParameterSensitivities is an immutable set of curve parameter sensitivities,
// at most one per (curve name, currency), ordered by that key.
type CurveParameterSensitivities struct {
	items []CurveParameterSensitivity
}

// NewCurveParameterSensitivities combines the given sensitivities into a set.
func NewCurveParameterSensitivities(items ...CurveParameterSensitivity) (CurveParameterSensitivities, error) {
	out := CurveParameterSensitivities{}
	for _, item := range items {
		var err error
		out, err = out.Combined(item)
		if err != nil {
			return CurveParameterSensitivities{}, err
		}
	}
	return out, nil
}

// Items returns copies of the sensitivities.
func (s CurveParameterSensitivities) Items() []CurveParameterSensitivity {
	out := make([]CurveParameterSensitivity, len(s.items))
	for i, item := range s.items {
		out[i] = item.MultipliedBy(1)
	}
	return out
}

// Len returns the number of curves.
func (s CurveParameterSensitivities) Len() int { return len(s.items) }

// Find returns the sensitivity of the named curve in the given currency.
func (s CurveParameterSensitivities) Find(curveName string, ccy market.Currency) (CurveParameterSensitivity, bool) {
	for _, item := range s.items {
		if item.CurveName == curveName && item.Currency == ccy {
			return item.MultipliedBy(1), true
		}
	}
	return CurveParameterSensitivity{}, false
}

// Combined adds one sensitivity, summing entrywise with an existing entry of the
// same key. Entries of the same key must have the same length.
func (s CurveParameterSensitivities) Combined(add CurveParameterSensitivity) (CurveParameterSensitivities, error) {
	items := s.Items()
	for i, item := range items {
		if item.CurveName != add.CurveName || item.Currency != add.Currency {
			continue
		}
		if len(item.Values) != len(add.Values) {
			return CurveParameterSensitivities{}, &errs.DimensionMismatchError{
				Curve: add.CurveName,
				Got:   len(add.Values),
				Want:  len(item.Values),
			}
		}
		for j, v := range add.Values {
			items[i].Values[j] += v
		}
		return CurveParameterSensitivities{items: items}, nil
	}

	items = append(items, add.MultipliedBy(1))
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CurveName != items[j].CurveName {
			return items[i].CurveName < items[j].CurveName
		}
		return items[i].Currency < items[j].Currency
	})
	return CurveParameterSensitivities{items: items}, nil
}

// CombinedAll adds every sensitivity of other.
func (s CurveParameterSensitivities) CombinedAll(other CurveParameterSensitivities) (CurveParameterSensitivities, error) {
	out := s
	for _, item := range other.items {
		var err error
		out, err = out.Combined(item)
		if err != nil {
			return CurveParameterSensitivities{}, err
		}
	}
	return out, nil
}

// MultipliedBy scales every sensitivity.
func (s CurveParameterSensitivities) MultipliedBy(factor float64) CurveParameterSensitivities {
	out := make([]CurveParameterSensitivity, len(s.items))
	for i, item := range s.items {
		out[i] = item.MultipliedBy(factor)
	}
	return CurveParameterSensitivities{items: out}
}

// EqualWithTolerance reports whether both sets hold the same keys with values
// within tolerance of each other.
func (s CurveParameterSensitivities) EqualWithTolerance(other CurveParameterSensitivities, tolerance float64) bool {
	if len(s.items) != len(other.items) {
		return false
	}
	for _, item := range s.items {
		match, ok := other.Find(item.CurveName, item.Currency)
		if !ok || len(match.Values) != len(item.Values) {
			return false
		}
		for i, v := range item.Values {
			if math.Abs(v-match.Values[i]) > tolerance {
				return false
			}
		}
	}
	return true
}
