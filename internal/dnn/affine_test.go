package dnn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ycktw/libdnn/internal/backend/cpu"
	"github.com/ycktw/libdnn/internal/dnn"
	"github.com/ycktw/libdnn/internal/mat"
)

// Layer interface compliance for both variants.
var (
	_ dnn.FeatureTransform = (*dnn.AffineTransform)(nil)
	_ dnn.FeatureTransform = (*dnn.Softmax)(nil)
)

// newScalarLayer builds the 1-feature, 1-output layer used by the
// worked scenario: weight 1.0, bias 0.0.
func newScalarLayer(t *testing.T, backend mat.Backend) *dnn.AffineTransform {
	t.Helper()
	w, err := mat.FromSlice([]float32{1.0, 0.0}, 2, 1, backend)
	require.NoError(t, err)
	layer := dnn.NewAffine(w)
	layer.SetOutputLayer(true)
	return layer
}

func TestNewAffine_ClonesWeight(t *testing.T) {
	backend := cpu.New()

	w := mat.Full(3, 2, 1.0, backend)
	layer := dnn.NewAffine(w)

	// The layer owns its own copy.
	w.Set(0, 0, 99)
	assert.InDelta(t, 1.0, layer.W().At(0, 0), 1e-6)

	// Gradient starts zero-filled with the weight's shape.
	assert.Equal(t, 3, layer.Dw().Rows())
	assert.Equal(t, 2, layer.Dw().Cols())
	for _, v := range layer.Dw().Data() {
		assert.Zero(t, v)
	}
}

func TestNewAffineShape(t *testing.T) {
	backend := cpu.New()

	layer := dnn.NewAffineShape(5, 3, backend)

	assert.Equal(t, 5, layer.W().Rows())
	assert.Equal(t, 3, layer.W().Cols())
	assert.Equal(t, 5, layer.Dw().Rows())
	assert.Equal(t, 3, layer.Dw().Cols())

	// Xavier init: nonzero, bounded weights.
	var nonzero bool
	for _, v := range layer.W().Data() {
		if v != 0 {
			nonzero = true
		}
		assert.LessOrEqual(t, v, float32(1.0))
		assert.GreaterOrEqual(t, v, float32(-1.0))
	}
	assert.True(t, nonzero, "Xavier-initialized weight should not be all zeros")
}

// The worked example: weight 1.0, bias 0.0, input 2.0, target 1.0.
func TestAffine_ScalarScenario(t *testing.T) {
	backend := cpu.New()
	layer := newScalarLayer(t, backend)

	fin, err := mat.FromSlice([]float32{2.0}, 1, 1, backend)
	require.NoError(t, err)
	fout := mat.New(1, 1, backend)

	layer.FeedForward(fout, fin, 0, 1)
	assert.InDelta(t, 2.0, fout.At(0, 0), 1e-5, "y = 1.0*2.0 + 0.0")

	// error = output − target = 1.0
	errSig, err := mat.FromSlice([]float32{1.0}, 1, 1, backend)
	require.NoError(t, err)
	layer.BackPropagate(fin, fout, errSig)

	assert.InDelta(t, 2.0, layer.Dw().At(0, 0), 1e-5, "dW = input × error")
	assert.InDelta(t, 1.0, layer.Dw().At(1, 0), 1e-5, "bias-row gradient = error")

	// Propagated error = error · wᵀ restricted to the feature rows.
	assert.Equal(t, 1, errSig.Rows())
	assert.Equal(t, 1, errSig.Cols())
	assert.InDelta(t, 1.0, errSig.At(0, 0), 1e-5)

	layer.Update(0.1)
	assert.InDelta(t, 0.8, layer.W().At(0, 0), 1e-5, "w ← 1.0 − 0.1×2.0")
	assert.InDelta(t, -0.1, layer.W().At(1, 0), 1e-5, "bias ← 0.0 − 0.1×1.0")
}

func TestUpdate_ReusesStaleGradient(t *testing.T) {
	backend := cpu.New()
	layer := newScalarLayer(t, backend)

	fin, _ := mat.FromSlice([]float32{2.0}, 1, 1, backend)
	fout := mat.New(1, 1, backend)
	layer.FeedForward(fout, fin, 0, 1)
	errSig, _ := mat.FromSlice([]float32{1.0}, 1, 1, backend)
	layer.BackPropagate(fin, fout, errSig)

	// Update does not clear the gradient: two calls subtract twice.
	layer.Update(0.1)
	layer.Update(0.1)
	assert.InDelta(t, 0.6, layer.W().At(0, 0), 1e-5)
}

func TestFeedForward_WindowLeavesOtherRowsUntouched(t *testing.T) {
	backend := cpu.New()

	w := mat.Full(3, 2, 1.0, backend)
	layer := dnn.NewAffine(w)

	fin := mat.Full(4, 2, 1.0, backend)
	fout := mat.Full(6, 2, -9.0, backend)

	// Fill rows [1, 5) of the 6-row buffer.
	layer.FeedForward(fout, fin, 1, 4)

	// Each output = 1+1+1 (two features plus bias, all weights 1).
	for r := 1; r < 5; r++ {
		assert.InDelta(t, 3.0, fout.At(r, 0), 1e-5)
		assert.InDelta(t, 3.0, fout.At(r, 1), 1e-5)
	}
	for _, r := range []int{0, 5} {
		assert.InDelta(t, -9.0, fout.At(r, 0), 1e-5, "row %d outside the window", r)
		assert.InDelta(t, -9.0, fout.At(r, 1), 1e-5)
	}
}

func TestFeedForward_BadWindowPanics(t *testing.T) {
	backend := cpu.New()
	layer := dnn.NewAffineShape(3, 2, backend)

	fin := mat.New(4, 2, backend)
	fout := mat.New(4, 2, backend)

	assert.Panics(t, func() { layer.FeedForward(fout, fin, 2, 3) })
	assert.Panics(t, func() { layer.FeedForward(fout, fin, -1, 2) })
}

func TestFeedForward_ShapeMismatchPanics(t *testing.T) {
	backend := cpu.New()
	layer := dnn.NewAffineShape(3, 2, backend)

	fout := mat.New(4, 2, backend)
	badIn := mat.New(4, 5, backend)
	assert.Panics(t, func() { layer.FeedForward(fout, badIn, 0, 4) })

	fin := mat.New(4, 2, backend)
	badOut := mat.New(4, 7, backend)
	assert.Panics(t, func() { layer.FeedForward(badOut, fin, 0, 4) })
}

func TestBackPropagate_HiddenCombinesSigmoidDerivative(t *testing.T) {
	backend := cpu.New()

	w, err := mat.FromSlice([]float32{0.5, 0.25}, 2, 1, backend)
	require.NoError(t, err)
	layer := dnn.NewAffine(w) // hidden by default

	fin, _ := mat.FromSlice([]float32{2.0}, 1, 1, backend)
	// Activated output cached by the driver.
	fout, _ := mat.FromSlice([]float32{0.8}, 1, 1, backend)
	errSig, _ := mat.FromSlice([]float32{1.0}, 1, 1, backend)

	layer.BackPropagate(fin, fout, errSig)

	// Local derivative: 1.0 × 0.8 × (1 − 0.8) = 0.16.
	// dW = [2.0; 1.0] × 0.16.
	assert.InDelta(t, 0.32, layer.Dw().At(0, 0), 1e-5)
	assert.InDelta(t, 0.16, layer.Dw().At(1, 0), 1e-5)
	// Upstream error = 0.16 × w[0] = 0.08 (bias row dropped).
	assert.InDelta(t, 0.08, errSig.At(0, 0), 1e-5)
}

func TestBackPropagate_ErrorShapeRewritten(t *testing.T) {
	backend := cpu.New()

	layer := dnn.NewAffineShape(4, 2, backend) // 3 inputs, 2 outputs
	layer.SetOutputLayer(true)

	fin := mat.Full(5, 3, 0.5, backend)
	fout := mat.Full(5, 2, 0.5, backend)
	errSig := mat.Full(5, 2, 0.1, backend)

	layer.BackPropagate(fin, fout, errSig)

	// errSig now carries ∂loss/∂input: one column per input feature.
	assert.Equal(t, 5, errSig.Rows())
	assert.Equal(t, 3, errSig.Cols())
	assert.Equal(t, 4, layer.Dw().Rows())
	assert.Equal(t, 2, layer.Dw().Cols())
}

func TestClone_Independence(t *testing.T) {
	backend := cpu.New()

	layer := dnn.NewAffineShape(3, 2, backend)
	layer.SetOutputLayer(true)

	c := layer.Clone()
	assert.True(t, c.W().Equal(layer.W(), 0))
	assert.True(t, c.Dw().Equal(layer.Dw(), 0))
	assert.True(t, c.OutputLayer())

	// Mutating the copy's weight must not change the original.
	before := layer.W().At(0, 0)
	c.W().Set(0, 0, before+5)
	assert.InDelta(t, before, layer.W().At(0, 0), 1e-6)
}

func TestCopyFrom(t *testing.T) {
	backend := cpu.New()

	src := dnn.NewAffineShape(3, 2, backend)
	src.SetOutputLayer(true)
	dst := dnn.NewAffineShape(5, 4, backend)

	dst.CopyFrom(src)

	assert.True(t, dst.W().Equal(src.W(), 0))
	assert.True(t, dst.OutputLayer())
	// Storage stays independent after the swap.
	dst.W().Set(0, 0, 42)
	assert.NotEqual(t, float32(42), src.W().At(0, 0))
}

func TestResize(t *testing.T) {
	backend := cpu.New()

	layer := dnn.NewAffineShape(3, 2, backend)
	layer.Resize(6, 4)

	assert.Equal(t, 6, layer.W().Rows())
	assert.Equal(t, 4, layer.W().Cols())
	assert.Equal(t, 6, layer.Dw().Rows())
	assert.Equal(t, 4, layer.Dw().Cols())
	// Contents are not preserved; both come back zero-filled.
	for _, v := range layer.W().Data() {
		assert.Zero(t, v)
	}
}

func TestString(t *testing.T) {
	backend := cpu.New()

	layer := dnn.NewAffineShape(3, 2, backend)
	assert.Contains(t, layer.String(), "AffineTransform")
	assert.Contains(t, layer.String(), "2 → 2")
}
