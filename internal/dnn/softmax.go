package dnn

import (
	"fmt"

	"github.com/ycktw/libdnn/internal/mat"
)

// Softmax is a fully-connected layer whose forward pass feeds the affine
// map through a row-wise softmax. It shares the weight/gradient state and
// construction contract of AffineTransform and is normally the network's
// final layer, paired with a cross-entropy loss.
type Softmax struct {
	AffineTransform
}

// NewSoftmax creates a softmax layer from an explicit weight matrix.
// The layer starts with the output-layer flag set.
func NewSoftmax(w *mat.Matrix) *Softmax {
	s := &Softmax{AffineTransform: *NewAffine(w)}
	s.SetOutputLayer(true)
	return s
}

// NewSoftmaxShape creates a softmax layer with a rows×cols weight matrix,
// Xavier-initialized, with the output-layer flag set.
func NewSoftmaxShape(rows, cols int, b mat.Backend) *Softmax {
	s := &Softmax{AffineTransform: *NewAffineShape(rows, cols, b)}
	s.SetOutputLayer(true)
	return s
}

// Clone returns a deep copy of the softmax layer.
func (s *Softmax) Clone() *Softmax {
	return &Softmax{AffineTransform: *s.AffineTransform.Clone()}
}

// CopyFrom replaces s's state with a copy of src's via clone-then-swap.
func (s *Softmax) CopyFrom(src *Softmax) {
	tmp := src.Clone()
	s.swap(&tmp.AffineTransform)
}

// FeedForward computes the affine map for the row window, applies the
// row-wise softmax, and writes the normalized result into fout.
func (s *Softmax) FeedForward(fout, fin *mat.Matrix, offset, nData int) {
	s.checkForward(fout, fin, offset, nData)

	xb := AddBiasWindow(fin, offset, nData)
	y := mat.New(nData, s.w.Cols(), s.w.Backend())
	s.w.Backend().Gemm(y, 0, 0,
		1.0, xb, 0, 0, false,
		s.w, 0, 0, false,
		nData, s.w.Cols(), s.w.Rows(),
		0.0)
	s.w.Backend().Softmax(y, y)
	mat.CopyRegion(fout, y, 0, 0, nData, s.w.Cols(), offset, 0)
}

// BackPropagate assumes a cross-entropy loss: the incoming errSig is
// already (output − target), so the softmax Jacobian cancels and no local
// derivative is applied, regardless of the output-layer flag. The
// gradient and the propagated error follow the affine rules.
func (s *Softmax) BackPropagate(fin, fout, errSig *mat.Matrix) {
	s.checkBackward(fin, fout, errSig)
	s.accumulate(fin, errSig)
	s.propagate(errSig)
}

// String returns a shape summary.
func (s *Softmax) String() string {
	return fmt.Sprintf("Softmax(%d → %d, +bias)", s.w.Rows()-1, s.w.Cols())
}
