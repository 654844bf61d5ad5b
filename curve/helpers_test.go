package curve_test

import "gonum.org/v1/gonum/mat"

func curveMatrix(rows, cols int) *mat.Dense {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = float64(i + 1)
	}
	return mat.NewDense(rows, cols, data)
}
