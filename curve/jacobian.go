package curve

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/meenmo/onavg/errs"
)

// CurveParameterSize names a block of consecutive Jacobian columns.
type CurveParameterSize struct {
	Name string
	Size int
}

// NamedValues is one curve's slice of a split vector.
type NamedValues struct {
	Name   string
	Values []float64
}

// JacobianCalibrationInfo is the derivative of the curve parameters (rows) with respect
// to the calibration market quotes (columns). Order lists the curves owning those
// quotes, so a quote sensitivity vector can be split back per curve.
type JacobianCalibrationInfo struct {
	order  []CurveParameterSize
	matrix *mat.Dense
}

// NewJacobianCalibrationInfo validates that the column count matches the order sizes.
func NewJacobianCalibrationInfo(order []CurveParameterSize, matrix mat.Matrix) (JacobianCalibrationInfo, error) {
	_, cols := matrix.Dims()
	total := 0
	for _, o := range order {
		total += o.Size
	}
	if total != cols {
		name := ""
		if len(order) > 0 {
			name = order[0].Name
		}
		return JacobianCalibrationInfo{}, &errs.DimensionMismatchError{Curve: name, Got: cols, Want: total}
	}
	return JacobianCalibrationInfo{
		order:  append([]CurveParameterSize(nil), order...),
		matrix: mat.DenseCopyOf(matrix),
	}, nil
}

// Order returns the quote ordering of the Jacobian columns.
func (j JacobianCalibrationInfo) Order() []CurveParameterSize {
	return append([]CurveParameterSize(nil), j.order...)
}

// Matrix returns a copy of the Jacobian.
func (j JacobianCalibrationInfo) Matrix() *mat.Dense {
	if j.matrix == nil {
		return nil
	}
	return mat.DenseCopyOf(j.matrix)
}

// Dims returns the Jacobian rows (parameters) and columns (quotes).
func (j JacobianCalibrationInfo) Dims() (int, int) {
	if j.matrix == nil {
		return 0, 0
	}
	return j.matrix.Dims()
}

// SplitValues partitions a quote-space vector by the curve order.
func (j JacobianCalibrationInfo) SplitValues(values []float64) ([]NamedValues, error) {
	_, cols := j.Dims()
	if len(values) != cols {
		name := ""
		if len(j.order) > 0 {
			name = j.order[0].Name
		}
		return nil, &errs.DimensionMismatchError{Curve: name, Got: len(values), Want: cols}
	}
	out := make([]NamedValues, 0, len(j.order))
	pos := 0
	for _, o := range j.order {
		out = append(out, NamedValues{
			Name:   o.Name,
			Values: append([]float64(nil), values[pos:pos+o.Size]...),
		})
		pos += o.Size
	}
	return out, nil
}

// calibrationJacobian inverts d(parRate)/d(zero) over the calibration instruments.
func (c *Curve) calibrationJacobian() (JacobianCalibrationInfo, error) {
	n := len(c.instruments)
	if n != len(c.zeros) {
		return JacobianCalibrationInfo{}, fmt.Errorf("jacobian: %d instruments for %d parameters", n, len(c.zeros))
	}

	// rows: quotes, cols: parameters
	dqdz := mat.NewDense(n, n, nil)
	for row, inst := range c.instruments {
		dqdz.SetRow(row, c.parRateSensitivity(inst))
	}

	var inv mat.Dense
	if err := inv.Inverse(dqdz); err != nil {
		return JacobianCalibrationInfo{}, fmt.Errorf("jacobian: %w", err)
	}
	return NewJacobianCalibrationInfo([]CurveParameterSize{{Name: c.name, Size: n}}, &inv)
}

// ParRates returns the par rate (decimal) of each calibration instrument, keyed by tenor.
func (c *Curve) ParRates() map[string]float64 {
	out := make(map[string]float64, len(c.instruments))
	for _, inst := range c.instruments {
		out[inst.Tenor] = c.parRate(inst)
	}
	return out
}

// QuoteTenors lists the calibration tenors in Jacobian column order.
func (c *Curve) QuoteTenors() []string {
	out := make([]string, len(c.instruments))
	for i, inst := range c.instruments {
		out[i] = inst.Tenor
	}
	return out
}
