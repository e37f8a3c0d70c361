package dnn

import (
	"math"
	"math/rand"

	"github.com/ycktw/libdnn/internal/mat"
)

// Xavier creates a rows×cols weight matrix initialized from the
// Glorot uniform distribution U(-bound, bound) with
// bound = sqrt(6/(fanIn+fanOut)).
//
// For a layer weight of shape (inputDim+1) × outputDim, fanIn is the
// input dimension without the bias row and fanOut the output dimension.
func Xavier(fanIn, fanOut, rows, cols int, b mat.Backend) *mat.Matrix {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))

	data := make([]float32, rows*cols)
	for i := range data {
		//nolint:gosec // math/rand is fine for weight initialization
		data[i] = float32((rand.Float64()*2.0 - 1.0) * bound)
	}

	m := mat.New(rows, cols, b)
	m.SetData(data)
	return m
}
