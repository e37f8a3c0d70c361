// Package dnn implements fully-connected neural-network layers over
// device-resident matrices.
//
// A layer owns a weight matrix and its gradient, both allocated on the
// same backend as the data flowing through it. The weight has shape
// (inputDim+1) × outputDim: the extra row carries the bias term, so the
// affine map y = Wx + b is a single matrix product against an input
// augmented with a constant column.
//
// The expected call sequence per mini-batch is
//
//	FeedForward → BackPropagate → Update
//
// Calling BackPropagate before any FeedForward, or Update before any
// BackPropagate, uses stale (zero) gradient state. That ordering is the
// caller's responsibility; it is documented, not guarded.
//
// No data leaves the device at any point in this package.
package dnn

import "github.com/ycktw/libdnn/internal/mat"

// FeatureTransform is the capability set shared by all layer kinds.
// It is a closed set: AffineTransform and Softmax are the only
// implementations.
type FeatureTransform interface {
	// FeedForward computes the layer's output for nData rows of fin
	// starting at row offset, writing into the matching row range of
	// fout. fout is a pre-allocated, possibly larger, buffer; rows
	// outside [offset, offset+nData) are left untouched.
	FeedForward(fout, fin *mat.Matrix, offset, nData int)

	// BackPropagate consumes the error signal from the downstream layer,
	// recomputes the weight gradient, and rewrites errSig in place to
	// carry ∂loss/∂input for the upstream layer. fin and fout are the
	// input and cached output of the preceding FeedForward.
	BackPropagate(fin, fout, errSig *mat.Matrix)

	// Update applies the current gradient: W ← W − learningRate·dW.
	Update(learningRate float32)

	// W returns the weight matrix. The reference aliases layer state;
	// callers must not retain it beyond the layer's lifetime.
	W() *mat.Matrix

	// Dw returns the gradient matrix, same aliasing caveat as W.
	Dw() *mat.Matrix

	// String returns a human-readable shape summary.
	String() string
}
