package cpu_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ycktw/libdnn/internal/backend/cpu"
	"github.com/ycktw/libdnn/internal/mat"
)

// Backend interface compliance.
var _ mat.Backend = (*cpu.CPUBackend)(nil)

func TestGeam_ScaledSum(t *testing.T) {
	backend := cpu.New()

	a, err := mat.FromSlice([]float32{1, 2, 3, 4}, 2, 2, backend)
	require.NoError(t, err)
	b, err := mat.FromSlice([]float32{10, 20, 30, 40}, 2, 2, backend)
	require.NoError(t, err)
	dst := mat.New(2, 2, backend)

	// dst = 2a + 0.5b
	backend.Geam(dst, 0, 0, 2.0, a, 0, 0, 0.5, b, 0, 0, 2, 2)

	want := []float32{7, 14, 21, 28}
	got := dst.Data()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-6)
	}
}

func TestGeam_InPlaceUpdate(t *testing.T) {
	backend := cpu.New()

	w := mat.Full(2, 2, 1.0, backend)
	dw := mat.Full(2, 2, 2.0, backend)

	// w = w - 0.1*dw, the layer update rule with dst aliasing b.
	backend.Geam(w, 0, 0, -0.1, dw, 0, 0, 1.0, w, 0, 0, 2, 2)

	for _, v := range w.Data() {
		assert.InDelta(t, 0.8, v, 1e-6)
	}
}

func TestGemm_Plain(t *testing.T) {
	backend := cpu.New()

	// a = [1 3]   b = [5 7]
	//     [2 4]       [6 8]
	a, err := mat.FromSlice([]float32{1, 2, 3, 4}, 2, 2, backend)
	require.NoError(t, err)
	b, err := mat.FromSlice([]float32{5, 6, 7, 8}, 2, 2, backend)
	require.NoError(t, err)
	dst := mat.New(2, 2, backend)

	backend.Gemm(dst, 0, 0, 1.0, a, 0, 0, false, b, 0, 0, false, 2, 2, 2, 0.0)

	// a·b = [23 31; 34 46]
	assert.InDelta(t, 23.0, dst.At(0, 0), 1e-5)
	assert.InDelta(t, 34.0, dst.At(1, 0), 1e-5)
	assert.InDelta(t, 31.0, dst.At(0, 1), 1e-5)
	assert.InDelta(t, 46.0, dst.At(1, 1), 1e-5)
}

func TestGemm_TransA(t *testing.T) {
	backend := cpu.New()

	// a = [1 3]  aᵀ·a = [5 11; 11 25]
	//     [2 4]
	a, err := mat.FromSlice([]float32{1, 2, 3, 4}, 2, 2, backend)
	require.NoError(t, err)
	dst := mat.New(2, 2, backend)

	backend.Gemm(dst, 0, 0, 1.0, a, 0, 0, true, a, 0, 0, false, 2, 2, 2, 0.0)

	assert.InDelta(t, 5.0, dst.At(0, 0), 1e-5)
	assert.InDelta(t, 11.0, dst.At(0, 1), 1e-5)
	assert.InDelta(t, 11.0, dst.At(1, 0), 1e-5)
	assert.InDelta(t, 25.0, dst.At(1, 1), 1e-5)
}

func TestGemm_TransB(t *testing.T) {
	backend := cpu.New()

	// a·aᵀ = [10 14; 14 20]
	a, err := mat.FromSlice([]float32{1, 2, 3, 4}, 2, 2, backend)
	require.NoError(t, err)
	dst := mat.New(2, 2, backend)

	backend.Gemm(dst, 0, 0, 1.0, a, 0, 0, false, a, 0, 0, true, 2, 2, 2, 0.0)

	assert.InDelta(t, 10.0, dst.At(0, 0), 1e-5)
	assert.InDelta(t, 14.0, dst.At(0, 1), 1e-5)
	assert.InDelta(t, 14.0, dst.At(1, 0), 1e-5)
	assert.InDelta(t, 20.0, dst.At(1, 1), 1e-5)
}

func TestGemm_WindowedOutput(t *testing.T) {
	backend := cpu.New()

	a := mat.Full(1, 2, 1.0, backend)
	b := mat.Full(2, 2, 1.0, backend)
	dst := mat.Full(4, 2, -5.0, backend)

	// Write a 1×2 product into row 2 of a 4-row buffer.
	backend.Gemm(dst, 2, 0, 1.0, a, 0, 0, false, b, 0, 0, false, 1, 2, 2, 0.0)

	assert.InDelta(t, 2.0, dst.At(2, 0), 1e-5)
	assert.InDelta(t, 2.0, dst.At(2, 1), 1e-5)
	// Rows outside the window keep their previous contents.
	for _, r := range []int{0, 1, 3} {
		assert.InDelta(t, -5.0, dst.At(r, 0), 1e-5)
		assert.InDelta(t, -5.0, dst.At(r, 1), 1e-5)
	}
}

func TestGemm_BetaAccumulate(t *testing.T) {
	backend := cpu.New()

	a := mat.Full(2, 2, 1.0, backend)
	dst := mat.Full(2, 2, 10.0, backend)

	// dst = a·a + dst
	backend.Gemm(dst, 0, 0, 1.0, a, 0, 0, false, a, 0, 0, false, 2, 2, 2, 1.0)

	for _, v := range dst.Data() {
		assert.InDelta(t, 12.0, v, 1e-5)
	}
}

func TestSoftmax_RowsNormalized(t *testing.T) {
	backend := cpu.New()

	x, err := mat.FromSlice([]float32{1, 4, 2, 5, 3, 6}, 2, 3, backend)
	require.NoError(t, err)
	s := mat.New(2, 3, backend)

	backend.Softmax(s, x)

	for r := 0; r < 2; r++ {
		var sum float32
		for c := 0; c < 3; c++ {
			v := s.At(r, c)
			assert.Greater(t, v, float32(0))
			sum += v
		}
		assert.InDelta(t, 1.0, sum, 1e-5, "row %d must sum to 1", r)
	}
	// Larger logits get larger probabilities.
	assert.Greater(t, s.At(0, 2), s.At(0, 1))
	assert.Greater(t, s.At(0, 1), s.At(0, 0))
}

func TestSoftmax_LargeLogitsStable(t *testing.T) {
	backend := cpu.New()

	// Without max subtraction exp(1000) overflows to +Inf.
	x, err := mat.FromSlice([]float32{1000, 999, 998}, 1, 3, backend)
	require.NoError(t, err)
	s := mat.New(1, 3, backend)

	backend.Softmax(s, x)

	var sum float32
	for _, v := range s.Data() {
		assert.False(t, v != v, "softmax produced NaN")
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-5)
}

func TestFill_Region(t *testing.T) {
	backend := cpu.New()

	m := mat.New(3, 3, backend)
	backend.Fill(m, 0, 2, 3, 1, 1.0)

	for r := 0; r < 3; r++ {
		assert.InDelta(t, 1.0, m.At(r, 2), 1e-6)
		assert.Zero(t, m.At(r, 0))
		assert.Zero(t, m.At(r, 1))
	}
}

func TestCopy_ShapeMismatchPanics(t *testing.T) {
	backend := cpu.New()

	a := mat.New(2, 2, backend)
	b := mat.New(2, 3, backend)
	assert.Panics(t, func() { backend.Copy(a, b) })
}

func TestSequentialMatchesParallel(t *testing.T) {
	par := cpu.New()
	seq := cpu.NewSequential()

	a := mat.Randn(64, 48, par)
	b := mat.Randn(48, 32, par)

	dp := mat.New(64, 32, par)
	par.Gemm(dp, 0, 0, 1.0, a, 0, 0, false, b, 0, 0, false, 64, 32, 48, 0.0)

	// Same inputs through the sequential backend.
	as, err := mat.FromSlice(a.Data(), 64, 48, seq)
	require.NoError(t, err)
	bs, err := mat.FromSlice(b.Data(), 48, 32, seq)
	require.NoError(t, err)
	ds := mat.New(64, 32, seq)
	seq.Gemm(ds, 0, 0, 1.0, as, 0, 0, false, bs, 0, 0, false, 64, 32, 48, 0.0)

	dpd, dsd := dp.Data(), ds.Data()
	for i := range dpd {
		assert.InDelta(t, dsd[i], dpd[i], 1e-4)
	}
}
