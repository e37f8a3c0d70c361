package dnn

import (
	"fmt"

	"github.com/ycktw/libdnn/internal/mat"
)

// Sigmoid returns a new matrix with 1/(1+exp(-x)) applied elementwise.
// Output shape equals input shape.
func Sigmoid(x *mat.Matrix) *mat.Matrix {
	return x.Apply(mat.FuncSigmoid)
}

// BiasedSigmoid returns sigmoid(x) with one extra column appended, filled
// with the constant 1.0. Layers that feed straight into another affine map
// use this to produce a bias-ready activation in a single step.
func BiasedSigmoid(x *mat.Matrix) *mat.Matrix {
	s := mat.New(x.Rows(), x.Cols()+1, x.Backend())
	sig := x.Apply(mat.FuncSigmoid)
	mat.CopyRegion(s, sig, 0, 0, x.Rows(), x.Cols(), 0, 0)
	FillLastColumn(s, 1.0)
	return s
}

// SoftmaxRows returns the row-wise softmax of x with per-row max
// subtraction for numerical stability.
func SoftmaxRows(x *mat.Matrix) *mat.Matrix {
	s := mat.New(x.Rows(), x.Cols(), x.Backend())
	x.Backend().Softmax(s, x)
	return s
}

// FillLastColumn sets every element of m's last column to value.
func FillLastColumn(m *mat.Matrix, value float32) {
	m.Backend().Fill(m, 0, m.Cols()-1, m.Rows(), 1, value)
}

// AddBias returns a copy of x with one extra column appended, filled with
// the constant 1.0, so that an affine map against an (inputDim+1)-row
// weight is a single matrix product.
func AddBias(x *mat.Matrix) *mat.Matrix {
	return AddBiasWindow(x, 0, x.Rows())
}

// AddBiasWindow is AddBias restricted to nData rows of x starting at row
// offset. This is the batching seam: a layer's FeedForward augments only
// the mini-batch window it was asked to process.
func AddBiasWindow(x *mat.Matrix, offset, nData int) *mat.Matrix {
	if offset < 0 || nData < 0 || offset+nData > x.Rows() {
		panic(fmt.Sprintf("dnn: row window [%d:%d] out of range for %d-row input",
			offset, offset+nData, x.Rows()))
	}
	b := mat.New(nData, x.Cols()+1, x.Backend())
	x.Backend().Geam(b, 0, 0,
		1.0, x, offset, 0,
		0.0, b, 0, 0,
		nData, x.Cols())
	FillLastColumn(b, 1.0)
	return b
}
