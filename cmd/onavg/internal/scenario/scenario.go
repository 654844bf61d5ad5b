// Package scenario reads the YAML inputs of the onavg commands.
package scenario

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/meenmo/onavg/averaging"
	"github.com/meenmo/onavg/curve"
	"github.com/meenmo/onavg/market"
	"github.com/meenmo/onavg/ratesource"
	"github.com/meenmo/onavg/utils"
)

// Scenario defines one averaged rate observation and its market.
//
// Conventions:
// - rates and quotes are in percent (e.g., 4.30 means 4.30%)
// - dates are YYYY-MM-DD
type Scenario struct {
	Index         string `yaml:"index"`          // "USD-FED-FUND"
	ValuationDate string `yaml:"valuation_date"` // "2015-01-12"
	StartDate     string `yaml:"start_date"`
	EndDate       string `yaml:"end_date"` // exclusive
	CutoffDays    int    `yaml:"cutoff_days"`

	// AccrualStart and AccrualEnd bound the coupon period; they default to the
	// observation period.
	AccrualStart string `yaml:"accrual_start"`
	AccrualEnd   string `yaml:"accrual_end"`

	FixingsPct map[string]float64 `yaml:"fixings"`
	Curve      CurveInput         `yaml:"curve"`
}

// CurveInput describes the OIS curve calibrated for projection.
type CurveInput struct {
	Name       string             `yaml:"name"`
	Settlement string             `yaml:"settlement"` // defaults to valuation_date
	QuotesPct  map[string]float64 `yaml:"quotes"`
}

// Parse decodes a YAML scenario.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	return &s, nil
}

// Load reads and decodes a YAML scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(data)
}

// Inputs are the validated scenario values.
type Inputs struct {
	Index        market.OvernightIndex
	Valuation    time.Time
	Observation  averaging.Observation
	AccrualStart time.Time
	AccrualEnd   time.Time
	Curve        *curve.Curve
	Rates        *ratesource.CurveRates
}

func parseDate(field, value string) (time.Time, error) {
	t, err := utils.ParseDate(strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", field, err)
	}
	return t, nil
}

// Fixings lays the listed fixings, converted to decimals, over stored.
func (s *Scenario) Fixings(stored *ratesource.FixingSeries) (*ratesource.FixingSeries, error) {
	merged := stored
	if merged == nil {
		merged = ratesource.NewFixingSeries(nil)
	}
	for k, v := range s.FixingsPct {
		date, err := parseDate("fixing date", k)
		if err != nil {
			return nil, err
		}
		merged = merged.With(date, v/100.0)
	}
	return merged, nil
}

// OvernightIndex resolves the index preset.
func (s *Scenario) OvernightIndex() (market.OvernightIndex, error) {
	idx, ok := market.IndexByName(strings.ToUpper(strings.TrimSpace(s.Index)))
	if !ok {
		return market.OvernightIndex{}, fmt.Errorf("unknown index %q", s.Index)
	}
	return idx, nil
}

// Period is a half-open date range.
type Period struct {
	Start time.Time
	End   time.Time
}

// ObservationPeriod parses start_date and end_date.
func (s *Scenario) ObservationPeriod() (Period, error) {
	start, err := parseDate("start_date", s.StartDate)
	if err != nil {
		return Period{}, err
	}
	end, err := parseDate("end_date", s.EndDate)
	if err != nil {
		return Period{}, err
	}
	return Period{Start: start, End: end}, nil
}

// Build validates the scenario, calibrates its curve and binds the fixings. Fixings
// listed in the scenario replace stored ones for the same date; stored may be nil.
func (s *Scenario) Build(opts curve.Options, stored *ratesource.FixingSeries) (*Inputs, error) {
	idx, err := s.OvernightIndex()
	if err != nil {
		return nil, err
	}
	valuation, err := parseDate("valuation_date", s.ValuationDate)
	if err != nil {
		return nil, err
	}
	period, err := s.ObservationPeriod()
	if err != nil {
		return nil, err
	}
	obs, err := averaging.NewObservation(idx, period.Start, period.End, s.CutoffDays)
	if err != nil {
		return nil, err
	}

	in := &Inputs{
		Index:        idx,
		Valuation:    valuation,
		Observation:  obs,
		AccrualStart: period.Start,
		AccrualEnd:   period.End,
	}
	if s.AccrualStart != "" {
		if in.AccrualStart, err = parseDate("accrual_start", s.AccrualStart); err != nil {
			return nil, err
		}
	}
	if s.AccrualEnd != "" {
		if in.AccrualEnd, err = parseDate("accrual_end", s.AccrualEnd); err != nil {
			return nil, err
		}
	}

	if len(s.Curve.QuotesPct) == 0 {
		return nil, fmt.Errorf("curve.quotes is required")
	}
	settlement := valuation
	if s.Curve.Settlement != "" {
		if settlement, err = parseDate("curve.settlement", s.Curve.Settlement); err != nil {
			return nil, err
		}
	}
	name := s.Curve.Name
	if name == "" {
		name = idx.Name + "-OIS"
	}
	in.Curve, err = curve.Bootstrap(name, idx.Currency, settlement, s.Curve.QuotesPct, curve.OISConventionFor(idx), opts)
	if err != nil {
		return nil, err
	}

	fixings, err := s.Fixings(stored)
	if err != nil {
		return nil, err
	}
	in.Rates = ratesource.NewCurveRates(idx, valuation, fixings, in.Curve)
	return in, nil
}
