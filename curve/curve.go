// Package curve holds single-currency discount curves parameterised by zero rates
// at pillar dates, their OIS bootstrap and the calibration Jacobian used to map
// parameter sensitivities onto market quotes.
package curve

import (
	"fmt"
	"math"
	"time"

	"github.com/meenmo/onavg/market"
	"github.com/meenmo/onavg/utils"
)

// curveDayCount is the time axis used for interpolation and zero rates, independent
// of the day counts used for coupon accruals.
const curveDayCount = "ACT/365F"

// Curve is a discount curve with log-linear discount factor interpolation between
// pillars. The curve parameters are the continuously compounded zero rates at the
// pillars (decimal, ACT/365F). Beyond the last pillar the final segment is extended.
type Curve struct {
	name        string
	currency    market.Currency
	settlement  time.Time
	pillars     []time.Time
	knots       []float64 // 0 followed by pillar times
	logDFs      []float64 // 0 followed by -z*t at each pillar
	zeros       []float64
	instruments []instrument
	calibration *JacobianCalibrationInfo
}

// FromZeroRates builds a curve from pillar dates and zero rates (decimal).
func FromZeroRates(name string, ccy market.Currency, settlement time.Time, pillars []time.Time, zeros []float64) (*Curve, error) {
	if len(pillars) == 0 {
		return nil, fmt.Errorf("curve %s: no pillars", name)
	}
	if len(pillars) != len(zeros) {
		return nil, fmt.Errorf("curve %s: %d pillars but %d zero rates", name, len(pillars), len(zeros))
	}

	c := &Curve{
		name:       name,
		currency:   ccy,
		settlement: settlement,
		pillars:    append([]time.Time(nil), pillars...),
		zeros:      append([]float64(nil), zeros...),
	}
	prev := settlement
	for _, p := range c.pillars {
		if !p.After(prev) {
			return nil, fmt.Errorf("curve %s: pillar %s not after %s", name,
				p.Format(utils.DateLayout), prev.Format(utils.DateLayout))
		}
		prev = p
	}
	c.rebuild()
	return c, nil
}

// FromDiscountFactors builds a curve whose pillars are the supplied discount factor
// dates. A discount factor on the settlement date is ignored.
func FromDiscountFactors(name string, ccy market.Currency, settlement time.Time, dfs map[time.Time]float64) (*Curve, error) {
	var dates []time.Time
	for d, df := range dfs {
		if df <= 0 {
			return nil, fmt.Errorf("curve %s: non-positive discount factor on %s", name, d.Format(utils.DateLayout))
		}
		if d.After(settlement) {
			dates = append(dates, d)
		}
	}
	utils.SortDates(dates)

	zeros := make([]float64, len(dates))
	for i, d := range dates {
		t := utils.YearFraction(settlement, d, curveDayCount)
		zeros[i] = -math.Log(dfs[d]) / t
	}
	return FromZeroRates(name, ccy, settlement, dates, zeros)
}

func (c *Curve) rebuild() {
	n := len(c.pillars)
	c.knots = make([]float64, n+1)
	c.logDFs = make([]float64, n+1)
	for i, p := range c.pillars {
		t := c.timeOf(p)
		c.knots[i+1] = t
		c.logDFs[i+1] = -c.zeros[i] * t
	}
}

func (c *Curve) timeOf(t time.Time) float64 {
	return utils.YearFraction(c.settlement, t, curveDayCount)
}

// Name returns the curve identifier.
func (c *Curve) Name() string { return c.name }

// Currency returns the curve currency.
func (c *Curve) Currency() market.Currency { return c.currency }

// Settlement returns the curve's settlement date.
func (c *Curve) Settlement() time.Time { return c.settlement }

// Pillars returns the pillar dates.
func (c *Curve) Pillars() []time.Time { return append([]time.Time(nil), c.pillars...) }

// ParameterCount is the number of curve parameters.
func (c *Curve) ParameterCount() int { return len(c.zeros) }

// Parameters returns the pillar zero rates.
func (c *Curve) Parameters() []float64 { return append([]float64(nil), c.zeros...) }

// WithParameter returns a copy of the curve with parameter i replaced.
// The copy carries no calibration information.
func (c *Curve) WithParameter(i int, value float64) *Curve {
	zeros := c.Parameters()
	zeros[i] = value
	out := &Curve{
		name:        c.name,
		currency:    c.currency,
		settlement:  c.settlement,
		pillars:     c.pillars,
		zeros:       zeros,
		instruments: c.instruments,
	}
	out.rebuild()
	return out
}

func (c *Curve) logDF(t float64) float64 {
	j, lambda := findSegment(c.knots, t)
	return (1-lambda)*c.logDFs[j] + lambda*c.logDFs[j+1]
}

// DF returns the discount factor from settlement to t.
func (c *Curve) DF(t time.Time) float64 {
	return math.Exp(c.logDF(c.timeOf(t)))
}

// ZeroRateAt returns the continuously compounded zero rate to t in percent.
func (c *Curve) ZeroRateAt(t time.Time) float64 {
	yf := c.timeOf(t)
	if yf == 0 {
		return c.zeros[0] * 100
	}
	return -c.logDF(yf) / yf * 100
}

// ForwardRate is the simply compounded forward rate over [start, end] accrued on dayCount.
func (c *Curve) ForwardRate(start, end time.Time, dayCount string) float64 {
	yf := utils.YearFraction(start, end, dayCount)
	if yf == 0 {
		return 0
	}
	return (c.DF(start)/c.DF(end) - 1) / yf
}

// LogDFSensitivity returns the derivative of ln DF(t) with respect to each parameter.
func (c *Curve) LogDFSensitivity(t time.Time) []float64 {
	out := make([]float64, len(c.zeros))
	j, lambda := findSegment(c.knots, c.timeOf(t))
	// knot k > 0 holds parameter k-1 with d(logDF)/dz = -t_k
	if j > 0 {
		out[j-1] = -(1 - lambda) * c.knots[j]
	}
	out[j] = -lambda * c.knots[j+1]
	return out
}

// ForwardRateSensitivity returns the derivative of ForwardRate(start, end, dayCount)
// with respect to each parameter.
func (c *Curve) ForwardRateSensitivity(start, end time.Time, dayCount string) []float64 {
	out := make([]float64, len(c.zeros))
	yf := utils.YearFraction(start, end, dayCount)
	if yf == 0 {
		return out
	}
	ratio := c.DF(start) / c.DF(end)
	ds := c.LogDFSensitivity(start)
	de := c.LogDFSensitivity(end)
	for i := range out {
		out[i] = ratio * (ds[i] - de[i]) / yf
	}
	return out
}

// WithCalibrationInfo returns a copy of the curve carrying the given Jacobian.
func (c *Curve) WithCalibrationInfo(info JacobianCalibrationInfo) *Curve {
	out := *c
	out.calibration = &info
	return &out
}

// CalibrationInfo returns the curve's Jacobian, if it was calibrated.
func (c *Curve) CalibrationInfo() (JacobianCalibrationInfo, bool) {
	if c.calibration == nil {
		return JacobianCalibrationInfo{}, false
	}
	return *c.calibration, true
}

// Set is a collection of curves addressed by name.
type Set struct {
	curves map[string]*Curve
}

// NewSet indexes the given curves by name. Later curves replace earlier ones.
func NewSet(curves ...*Curve) Set {
	s := Set{curves: make(map[string]*Curve, len(curves))}
	for _, c := range curves {
		s.curves[c.Name()] = c
	}
	return s
}

// FindCurve looks up a curve by name.
func (s Set) FindCurve(name string) (*Curve, bool) {
	c, ok := s.curves[name]
	return c, ok
}
