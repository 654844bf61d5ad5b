package marketquote_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/meenmo/onavg/averaging"
	"github.com/meenmo/onavg/curve"
	"github.com/meenmo/onavg/errs"
	"github.com/meenmo/onavg/market"
	"github.com/meenmo/onavg/marketquote"
	"github.com/meenmo/onavg/ratesource"
	"github.com/meenmo/onavg/sensitivity"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// jointCurves returns curve A calibrated jointly with B (2 + 1 quotes) and curve B
// calibrated alone.
func jointCurves(t *testing.T) curve.Set {
	t.Helper()
	settle := d(2025, 1, 6)

	a, err := curve.FromZeroRates("A", market.USD, settle, []time.Time{d(2026, 1, 6), d(2027, 1, 6)}, []float64{0.04, 0.041})
	require.NoError(t, err)
	infoA, err := curve.NewJacobianCalibrationInfo(
		[]curve.CurveParameterSize{{Name: "A", Size: 2}, {Name: "B", Size: 1}},
		mat.NewDense(2, 3, []float64{
			1.0, 0.5, 0.2,
			0.0, 2.0, 0.3,
		}))
	require.NoError(t, err)

	b, err := curve.FromZeroRates("B", market.USD, settle, []time.Time{d(2026, 1, 6)}, []float64{0.038})
	require.NoError(t, err)
	infoB, err := curve.NewJacobianCalibrationInfo(
		[]curve.CurveParameterSize{{Name: "B", Size: 1}}, mat.NewDense(1, 1, []float64{4.0}))
	require.NoError(t, err)

	return curve.NewSet(a.WithCalibrationInfo(infoA), b.WithCalibrationInfo(infoB))
}

func params(t *testing.T, items ...sensitivity.CurveParameterSensitivity) sensitivity.CurveParameterSensitivities {
	t.Helper()
	out, err := sensitivity.NewCurveParameterSensitivities(items...)
	require.NoError(t, err)
	return out
}

func TestSensitivity_SplitsByCurve(t *testing.T) {
	t.Parallel()

	in := params(t,
		sensitivity.CurveParameterSensitivity{CurveName: "A", Currency: market.USD, Values: []float64{1, 2}},
		sensitivity.CurveParameterSensitivity{CurveName: "B", Currency: market.USD, Values: []float64{10}},
	)
	got, err := marketquote.DefaultCalculator.Sensitivity(in, jointCurves(t))
	require.NoError(t, err)

	// A: [1 2] x J_A = [1, 4.5, 0.8]; B: [10] x [4] = [40]
	a, ok := got.Find("A", market.USD)
	require.True(t, ok)
	assert.InDeltaSlice(t, []float64{1, 4.5}, a.Values, 1e-14)
	b, ok := got.Find("B", market.USD)
	require.True(t, ok)
	assert.InDeltaSlice(t, []float64{40.8}, b.Values, 1e-14)
	assert.Equal(t, 2, got.Len())
}

func TestSensitivity_Linear(t *testing.T) {
	t.Parallel()

	curves := jointCurves(t)
	s1 := params(t,
		sensitivity.CurveParameterSensitivity{CurveName: "A", Currency: market.USD, Values: []float64{0.3, -1.2}},
	)
	s2 := params(t,
		sensitivity.CurveParameterSensitivity{CurveName: "A", Currency: market.USD, Values: []float64{2.5, 0.7}},
		sensitivity.CurveParameterSensitivity{CurveName: "B", Currency: market.USD, Values: []float64{-3}},
	)
	sum, err := s1.CombinedAll(s2)
	require.NoError(t, err)

	q1, err := marketquote.DefaultCalculator.Sensitivity(s1, curves)
	require.NoError(t, err)
	q2, err := marketquote.DefaultCalculator.Sensitivity(s2, curves)
	require.NoError(t, err)
	qSum, err := marketquote.DefaultCalculator.Sensitivity(sum, curves)
	require.NoError(t, err)

	separate, err := q1.CombinedAll(q2)
	require.NoError(t, err)
	assert.True(t, qSum.EqualWithTolerance(separate, 1e-12))

	scaled, err := marketquote.DefaultCalculator.Sensitivity(s2.MultipliedBy(3), curves)
	require.NoError(t, err)
	assert.True(t, scaled.EqualWithTolerance(q2.MultipliedBy(3), 1e-12))
}

func TestSensitivity_Failures(t *testing.T) {
	t.Parallel()

	curves := jointCurves(t)

	_, err := marketquote.DefaultCalculator.Sensitivity(params(t,
		sensitivity.CurveParameterSensitivity{CurveName: "A", Currency: market.USD, Values: []float64{1, 2, 3}},
	), curves)
	var dim *errs.DimensionMismatchError
	require.ErrorAs(t, err, &dim)
	assert.Equal(t, "A", dim.Curve)
	assert.Equal(t, 3, dim.Got)
	assert.Equal(t, 2, dim.Want)

	_, err = marketquote.DefaultCalculator.Sensitivity(params(t,
		sensitivity.CurveParameterSensitivity{CurveName: "C", Currency: market.USD, Values: []float64{1}},
	), curves)
	var missing *errs.CalibrationMetadataMissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "C", missing.Curve)

	raw, err := curve.FromZeroRates("RAW", market.USD, d(2025, 1, 6), []time.Time{d(2026, 1, 6)}, []float64{0.04})
	require.NoError(t, err)
	_, err = marketquote.DefaultCalculator.Sensitivity(params(t,
		sensitivity.CurveParameterSensitivity{CurveName: "RAW", Currency: market.USD, Values: []float64{1}},
	), curve.NewSet(raw))
	assert.True(t, errors.Is(err, errs.ErrCalibrationMetadataMissing))

	empty, err := marketquote.DefaultCalculator.Sensitivity(sensitivity.CurveParameterSensitivities{}, curves)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
}

// The quote sensitivity of an averaged rate matches re-bootstrapping with bumped quotes.
func TestSensitivity_MatchesQuoteBump(t *testing.T) {
	t.Parallel()

	quotes := map[string]float64{"1M": 4.30, "3M": 4.28, "6M": 4.20, "1Y": 4.05, "2Y": 3.85}
	settle := d(2025, 1, 6)
	build := func(q map[string]float64) *curve.Curve {
		c, err := curve.Bootstrap("USD-SOFR-OIS", market.USD, settle, q,
			curve.OISConventionFor(market.USDSOFR), curve.DefaultOptions())
		require.NoError(t, err)
		return c
	}
	obs, err := averaging.NewObservation(market.USDSOFR, d(2025, 3, 3), d(2025, 6, 2), 2)
	require.NoError(t, err)
	rateOn := func(c *curve.Curve) float64 {
		r, err := averaging.DefaultApproxForward.Rate(obs, obs.StartDate, obs.EndDate,
			ratesource.NewCurveRates(market.USDSOFR, settle, nil, c))
		require.NoError(t, err)
		return r
	}

	base := build(quotes)
	rates := ratesource.NewCurveRates(market.USDSOFR, settle, nil, base)
	points, err := averaging.DefaultApproxForward.RateSensitivity(obs, obs.StartDate, obs.EndDate, rates)
	require.NoError(t, err)
	paramSens, err := rates.ParameterSensitivity(points)
	require.NoError(t, err)
	quoteSens, err := marketquote.DefaultCalculator.Sensitivity(paramSens, curve.NewSet(base))
	require.NoError(t, err)
	got, ok := quoteSens.Find("USD-SOFR-OIS", market.USD)
	require.True(t, ok)

	const bump = 1e-4 // percent
	for col, tenor := range base.QuoteTenors() {
		up := map[string]float64{}
		dn := map[string]float64{}
		for k, v := range quotes {
			up[k], dn[k] = v, v
		}
		up[tenor] += bump
		dn[tenor] -= bump
		fd := (rateOn(build(up)) - rateOn(build(dn))) / (2 * bump / 100)
		assert.InDelta(t, fd, got.Values[col], 1e-5, "tenor %s", tenor)
	}
}
