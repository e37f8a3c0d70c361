package dnn

import (
	"fmt"

	"github.com/ycktw/libdnn/internal/mat"
)

// AffineTransform is a fully-connected layer: an affine map over a row
// window of its input. It owns a weight matrix of shape
// (inputDim+1) × outputDim and a gradient matrix of the same shape.
//
// The gradient is overwritten, not accumulated, by each BackPropagate
// call. The weight changes only through Update.
type AffineTransform struct {
	w           *mat.Matrix
	dw          *mat.Matrix
	outputLayer bool
}

// NewAffine creates a layer from an explicit weight matrix.
// The weight is cloned; the gradient starts zero-filled with the same
// shape.
func NewAffine(w *mat.Matrix) *AffineTransform {
	return &AffineTransform{
		w:  w.Clone(),
		dw: mat.New(w.Rows(), w.Cols(), w.Backend()),
	}
}

// NewAffineShape creates a layer with a rows×cols weight matrix.
// rows is inputDim+1 (bias row included), cols is outputDim. The weight
// is Xavier-initialized; the gradient starts zero-filled.
func NewAffineShape(rows, cols int, b mat.Backend) *AffineTransform {
	return &AffineTransform{
		w:  Xavier(rows-1, cols, rows, cols, b),
		dw: mat.New(rows, cols, b),
	}
}

// Clone returns a deep copy: weight and gradient are value-equal to, but
// storage-independent from, the receiver's.
func (a *AffineTransform) Clone() *AffineTransform {
	return &AffineTransform{
		w:           a.w.Clone(),
		dw:          a.dw.Clone(),
		outputLayer: a.outputLayer,
	}
}

// CopyFrom replaces a's state with a copy of src's, using clone-then-swap:
// the copy is built first, then swapped in without copying storage, so a
// failure while cloning leaves a untouched.
func (a *AffineTransform) CopyFrom(src *AffineTransform) {
	tmp := src.Clone()
	a.swap(tmp)
}

// swap exchanges internal state with other. Never fails.
func (a *AffineTransform) swap(other *AffineTransform) {
	a.w, other.w = other.w, a.w
	a.dw, other.dw = other.dw, a.dw
	a.outputLayer, other.outputLayer = other.outputLayer, a.outputLayer
}

// SetOutputLayer marks whether this is the network's final layer, which
// changes how BackPropagate derives the incoming error signal.
func (a *AffineTransform) SetOutputLayer(flag bool) {
	a.outputLayer = flag
}

// OutputLayer reports the output-layer flag.
func (a *AffineTransform) OutputLayer() bool {
	return a.outputLayer
}

// W returns the weight matrix. No defensive copy; callers must not retain
// the reference beyond the layer's lifetime.
func (a *AffineTransform) W() *mat.Matrix { return a.w }

// Dw returns the gradient matrix, same aliasing caveat as W.
func (a *AffineTransform) Dw() *mat.Matrix { return a.dw }

// Resize reallocates weight and gradient storage to a new shape.
// Prior contents are not preserved; both matrices come back zero-filled.
func (a *AffineTransform) Resize(rows, cols int) {
	b := a.w.Backend()
	a.w = mat.New(rows, cols, b)
	a.dw = mat.New(rows, cols, b)
}

// Update applies the current gradient in place: W ← W − learningRate·dW.
// Repeated calls without an intervening BackPropagate reuse the same
// gradient and keep subtracting.
func (a *AffineTransform) Update(learningRate float32) {
	a.w.Backend().Geam(a.w, 0, 0,
		-learningRate, a.dw, 0, 0,
		1.0, a.w, 0, 0,
		a.w.Rows(), a.w.Cols())
}

// FeedForward computes the affine map for nData rows of fin starting at
// row offset and writes the result into the same row range of fout.
// Rows of fout outside that range are untouched; fout is never resized.
func (a *AffineTransform) FeedForward(fout, fin *mat.Matrix, offset, nData int) {
	a.checkForward(fout, fin, offset, nData)

	// [nData, in+1] · [in+1, out] → the [offset:offset+nData] rows of fout.
	xb := AddBiasWindow(fin, offset, nData)
	a.w.Backend().Gemm(fout, offset, 0,
		1.0, xb, 0, 0, false,
		a.w, 0, 0, false,
		nData, a.w.Cols(), a.w.Rows(),
		0.0)
}

// BackPropagate recomputes the gradient from the layer input and the
// downstream error signal, then rewrites errSig in place to carry
// ∂loss/∂input for the upstream layer.
//
// For a hidden layer the incoming errSig is first combined with the
// sigmoid derivative recovered from the cached output:
// errSig ← errSig ⊙ fout ⊙ (1 − fout). For the output layer errSig is
// taken as (output − target) directly.
func (a *AffineTransform) BackPropagate(fin, fout, errSig *mat.Matrix) {
	a.checkBackward(fin, fout, errSig)

	if !a.outputLayer {
		combineSigmoidDeriv(errSig, fout)
	}

	a.accumulate(fin, errSig)
	a.propagate(errSig)
}

// accumulate overwrites dw with AddBias(fin)ᵀ · errSig.
func (a *AffineTransform) accumulate(fin, errSig *mat.Matrix) {
	xb := AddBias(fin)
	a.w.Backend().Gemm(a.dw, 0, 0,
		1.0, xb, 0, 0, true,
		errSig, 0, 0, false,
		a.w.Rows(), a.w.Cols(), errSig.Rows(),
		0.0)
}

// propagate replaces errSig with errSig · Wᵀ, dropping the bias row's
// contribution so the upstream error has inputDim columns.
func (a *AffineTransform) propagate(errSig *mat.Matrix) {
	in := a.w.Rows() - 1
	prev := mat.New(errSig.Rows(), in, a.w.Backend())
	// transB with an in-column output window reads only the first in
	// rows of w, which drops the bias row.
	a.w.Backend().Gemm(prev, 0, 0,
		1.0, errSig, 0, 0, false,
		a.w, 0, 0, true,
		errSig.Rows(), in, a.w.Cols(),
		0.0)
	mat.Swap(errSig, prev)
}

// combineSigmoidDeriv rewrites errSig ← errSig ⊙ fout ⊙ (1 − fout),
// recovering σ' from the activated output.
func combineSigmoidDeriv(errSig, fout *mat.Matrix) {
	b := fout.Backend()
	deriv := mat.Full(fout.Rows(), fout.Cols(), 1.0, b)
	b.Geam(deriv, 0, 0,
		-1.0, fout, 0, 0,
		1.0, deriv, 0, 0,
		fout.Rows(), fout.Cols())
	b.Mul(deriv, deriv, fout)
	b.Mul(errSig, errSig, deriv)
}

func (a *AffineTransform) checkForward(fout, fin *mat.Matrix, offset, nData int) {
	if fin.Cols()+1 != a.w.Rows() {
		panic(fmt.Sprintf("dnn: FeedForward input has %d features, weight expects %d",
			fin.Cols(), a.w.Rows()-1))
	}
	if fout.Cols() != a.w.Cols() {
		panic(fmt.Sprintf("dnn: FeedForward output has %d columns, weight produces %d",
			fout.Cols(), a.w.Cols()))
	}
	if offset < 0 || nData < 0 || offset+nData > fin.Rows() || offset+nData > fout.Rows() {
		panic(fmt.Sprintf("dnn: FeedForward window [%d:%d] out of range (input %d rows, output %d rows)",
			offset, offset+nData, fin.Rows(), fout.Rows()))
	}
}

func (a *AffineTransform) checkBackward(fin, fout, errSig *mat.Matrix) {
	if fin.Rows() != errSig.Rows() || fout.Rows() != errSig.Rows() {
		panic(fmt.Sprintf("dnn: BackPropagate row mismatch: input %d, output %d, error %d",
			fin.Rows(), fout.Rows(), errSig.Rows()))
	}
	if errSig.Cols() != a.w.Cols() {
		panic(fmt.Sprintf("dnn: BackPropagate error has %d columns, weight produces %d",
			errSig.Cols(), a.w.Cols()))
	}
	if fin.Cols()+1 != a.w.Rows() {
		panic(fmt.Sprintf("dnn: BackPropagate input has %d features, weight expects %d",
			fin.Cols(), a.w.Rows()-1))
	}
}

// String returns a shape summary.
func (a *AffineTransform) String() string {
	kind := "hidden"
	if a.outputLayer {
		kind = "output"
	}
	return fmt.Sprintf("AffineTransform(%d → %d, +bias, %s)",
		a.w.Rows()-1, a.w.Cols(), kind)
}
