package curve_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/onavg/curve"
	"github.com/meenmo/onavg/errs"
	"github.com/meenmo/onavg/market"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

var sofrQuotes = map[string]float64{
	"1M": 4.30,
	"3M": 4.28,
	"6M": 4.20,
	"1Y": 4.05,
	"2Y": 3.85,
	"5Y": 3.70,
}

func buildSOFR(t *testing.T, quotes map[string]float64) *curve.Curve {
	t.Helper()
	c, err := curve.Bootstrap("USD-SOFR-OIS", market.USD, d(2025, 1, 6), quotes,
		curve.OISConventionFor(market.USDSOFR), curve.DefaultOptions())
	require.NoError(t, err)
	return c
}

func TestBootstrap_RepricesQuotes(t *testing.T) {
	t.Parallel()

	c := buildSOFR(t, sofrQuotes)
	for tenor, rate := range c.ParRates() {
		if diff := math.Abs(rate - sofrQuotes[tenor]/100); diff > 1e-10 {
			t.Fatalf("tenor %s: par %.12f, quote %.12f", tenor, rate, sofrQuotes[tenor]/100)
		}
	}
	assert.Equal(t, []string{"1M", "3M", "6M", "1Y", "2Y", "5Y"}, c.QuoteTenors())
	assert.Equal(t, 6, c.ParameterCount())
}

func TestBootstrap_InvalidTenor(t *testing.T) {
	t.Parallel()

	_, err := curve.Bootstrap("X", market.USD, d(2025, 1, 6), map[string]float64{"3Q": 4.0},
		curve.OISConventionFor(market.USDSOFR), curve.DefaultOptions())
	require.Error(t, err)
}

func TestBootstrap_InvalidConvention(t *testing.T) {
	t.Parallel()

	conv := curve.OISConventionFor(market.USDSOFR)
	conv.FixedDayCount = "ACT/366"
	_, err := curve.Bootstrap("X", market.USD, d(2025, 1, 6), sofrQuotes, conv, curve.DefaultOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ACT/366")

	conv = curve.OISConventionFor(market.USDSOFR)
	conv.Calendar = "JPN"
	_, err = curve.Bootstrap("X", market.USD, d(2025, 1, 6), sofrQuotes, conv, curve.DefaultOptions())
	assert.Error(t, err)
}

func TestFromDiscountFactors_PillarsExact(t *testing.T) {
	t.Parallel()

	settle := d(2025, 1, 6)
	dfs := map[time.Time]float64{
		settle:        1.0,
		d(2025, 7, 7): 0.979,
		d(2026, 1, 6): 0.959,
		d(2028, 1, 6): 0.890,
	}
	c, err := curve.FromDiscountFactors("DF", market.USD, settle, dfs)
	require.NoError(t, err)
	assert.Equal(t, 3, c.ParameterCount())
	for dt, df := range dfs {
		assert.InDelta(t, df, c.DF(dt), 1e-14, dt.Format("2006-01-02"))
	}

	// log-linear between pillars
	mid := d(2026, 10, 7)
	t1 := float64(d(2026, 1, 6).Sub(settle).Hours()/24) / 365
	t2 := float64(d(2028, 1, 6).Sub(settle).Hours()/24) / 365
	tm := float64(mid.Sub(settle).Hours()/24) / 365
	lambda := (tm - t1) / (t2 - t1)
	want := math.Exp((1-lambda)*math.Log(0.959) + lambda*math.Log(0.890))
	assert.InDelta(t, want, c.DF(mid), 1e-14)
}

func TestFromZeroRates_Validation(t *testing.T) {
	t.Parallel()

	settle := d(2025, 1, 6)
	_, err := curve.FromZeroRates("Z", market.USD, settle, []time.Time{d(2026, 1, 6)}, []float64{0.04, 0.05})
	require.Error(t, err)

	_, err = curve.FromZeroRates("Z", market.USD, settle, []time.Time{d(2027, 1, 6), d(2026, 1, 6)}, []float64{0.04, 0.05})
	require.Error(t, err)

	c, err := curve.FromZeroRates("Z", market.USD, settle, []time.Time{d(2026, 1, 6)}, []float64{0.04})
	require.NoError(t, err)
	_, ok := c.CalibrationInfo()
	assert.False(t, ok)
	assert.InDelta(t, 4.0, c.ZeroRateAt(d(2030, 1, 7)), 1e-12)
}

func TestLogDFSensitivity_MatchesBump(t *testing.T) {
	t.Parallel()

	c := buildSOFR(t, sofrQuotes)
	const eps = 1e-7
	for _, target := range []time.Time{d(2025, 3, 3), d(2025, 1, 10), d(2026, 9, 15), d(2032, 1, 6)} {
		sens := c.LogDFSensitivity(target)
		for i := 0; i < c.ParameterCount(); i++ {
			up := c.WithParameter(i, c.Parameters()[i]+eps).DF(target)
			dn := c.WithParameter(i, c.Parameters()[i]-eps).DF(target)
			fd := (math.Log(up) - math.Log(dn)) / (2 * eps)
			assert.InDelta(t, fd, sens[i], 1e-6, "target %s param %d", target.Format("2006-01-02"), i)
		}
	}
}

func TestForwardRateSensitivity_MatchesBump(t *testing.T) {
	t.Parallel()

	c := buildSOFR(t, sofrQuotes)
	start, end := d(2025, 8, 4), d(2025, 8, 5)
	sens := c.ForwardRateSensitivity(start, end, "ACT/360")
	const eps = 1e-7
	for i := 0; i < c.ParameterCount(); i++ {
		up := c.WithParameter(i, c.Parameters()[i]+eps).ForwardRate(start, end, "ACT/360")
		dn := c.WithParameter(i, c.Parameters()[i]-eps).ForwardRate(start, end, "ACT/360")
		assert.InDelta(t, (up-dn)/(2*eps), sens[i], 1e-5, "param %d", i)
	}
}

func TestJacobian_MatchesRebootstrap(t *testing.T) {
	t.Parallel()

	base := buildSOFR(t, sofrQuotes)
	info, ok := base.CalibrationInfo()
	require.True(t, ok)
	rows, cols := info.Dims()
	require.Equal(t, 6, rows)
	require.Equal(t, 6, cols)
	jac := info.Matrix()

	const bump = 1e-4 // percent
	for col, tenor := range base.QuoteTenors() {
		up := map[string]float64{}
		dn := map[string]float64{}
		for k, v := range sofrQuotes {
			up[k], dn[k] = v, v
		}
		up[tenor] += bump
		dn[tenor] -= bump
		zUp := buildSOFR(t, up).Parameters()
		zDn := buildSOFR(t, dn).Parameters()
		for row := 0; row < rows; row++ {
			fd := (zUp[row] - zDn[row]) / (2 * bump / 100)
			assert.InDelta(t, fd, jac.At(row, col), 1e-5, "dz%d/dq[%s]", row, tenor)
		}
	}
}

func TestJacobianCalibrationInfo_SplitValues(t *testing.T) {
	t.Parallel()

	m := curveMatrix(2, 5)
	info, err := curve.NewJacobianCalibrationInfo([]curve.CurveParameterSize{{Name: "A", Size: 2}, {Name: "B", Size: 3}}, m)
	require.NoError(t, err)

	parts, err := info.SplitValues([]float64{1, 2, 3, 4, 5})
	require.NoError(t, err)
	assert.Equal(t, []curve.NamedValues{
		{Name: "A", Values: []float64{1, 2}},
		{Name: "B", Values: []float64{3, 4, 5}},
	}, parts)

	_, err = info.SplitValues([]float64{1, 2})
	assert.True(t, errors.Is(err, errs.ErrDimensionMismatch))

	_, err = curve.NewJacobianCalibrationInfo([]curve.CurveParameterSize{{Name: "A", Size: 4}}, m)
	var dim *errs.DimensionMismatchError
	require.ErrorAs(t, err, &dim)
	assert.Equal(t, 5, dim.Got)
	assert.Equal(t, 4, dim.Want)
}

func TestSet_FindCurve(t *testing.T) {
	t.Parallel()

	a, err := curve.FromZeroRates("A", market.USD, d(2025, 1, 6), []time.Time{d(2026, 1, 6)}, []float64{0.04})
	require.NoError(t, err)
	s := curve.NewSet(a)

	got, ok := s.FindCurve("A")
	assert.True(t, ok)
	assert.Same(t, a, got)
	_, ok = s.FindCurve("B")
	assert.False(t, ok)
}
