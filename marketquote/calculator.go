// Package marketquote converts curve parameter sensitivities into sensitivities to the
// market quotes the curves were calibrated to.
package marketquote

import (
	"gonum.org/v1/gonum/mat"

	"github.com/meenmo/onavg/curve"
	"github.com/meenmo/onavg/errs"
	"github.com/meenmo/onavg/sensitivity"
)

// CurveLookup resolves curves by name.
type CurveLookup interface {
	FindCurve(name string) (*curve.Curve, bool)
}

// Calculator applies the calibration Jacobian of each curve.
type Calculator struct{}

// DefaultCalculator is the default market quote calculator.
var DefaultCalculator = Calculator{}

// Sensitivity multiplies each parameter sensitivity row vector by the Jacobian of its
// curve, splits the resulting quote vector by the curves calibrated in the same group
// and sums the pieces by curve name and currency.
func (Calculator) Sensitivity(params sensitivity.CurveParameterSensitivities, lookup CurveLookup) (sensitivity.CurveParameterSensitivities, error) {
	result := sensitivity.CurveParameterSensitivities{}
	for _, ps := range params.Items() {
		c, ok := lookup.FindCurve(ps.CurveName)
		if !ok {
			return sensitivity.CurveParameterSensitivities{},
				&errs.CalibrationMetadataMissingError{Curve: ps.CurveName, Reason: "curve not found"}
		}
		info, ok := c.CalibrationInfo()
		if !ok {
			return sensitivity.CurveParameterSensitivities{},
				&errs.CalibrationMetadataMissingError{Curve: ps.CurveName, Reason: "no Jacobian calibration info"}
		}

		rows, cols := info.Dims()
		if len(ps.Values) != rows {
			return sensitivity.CurveParameterSensitivities{},
				&errs.DimensionMismatchError{Curve: ps.CurveName, Got: len(ps.Values), Want: rows}
		}

		v := mat.NewVecDense(rows, append([]float64(nil), ps.Values...))
		quotes := mat.NewVecDense(cols, nil)
		quotes.MulVec(info.Matrix().T(), v)

		parts, err := info.SplitValues(quotes.RawVector().Data)
		if err != nil {
			return sensitivity.CurveParameterSensitivities{}, err
		}
		for _, part := range parts {
			result, err = result.Combined(sensitivity.CurveParameterSensitivity{
				CurveName: part.Name,
				Currency:  ps.Currency,
				Values:    part.Values,
			})
			if err != nil {
				return sensitivity.CurveParameterSensitivities{}, err
			}
		}
	}
	return result, nil
}
