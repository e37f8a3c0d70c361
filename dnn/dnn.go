// Copyright 2025 The libdnn Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package dnn provides the public API for libdnn's fully-connected
// layers over device-resident matrices.
//
// A layer owns a weight matrix of shape (inputDim+1) × outputDim, where
// the extra row carries the bias, and a gradient matrix of the same shape.
// The caller drives training per mini-batch:
//
//	layer := dnn.NewAffineShape(inputDim+1, outputDim, backend)
//	layer.FeedForward(out, in, offset, nData)
//	layer.BackPropagate(in, out, errSig) // errSig rewritten for upstream
//	layer.Update(learningRate)
//
// Nothing in this package copies matrix data off the device.
package dnn

import (
	"github.com/ycktw/libdnn/internal/dnn"
	"github.com/ycktw/libdnn/internal/mat"
)

// FeatureTransform is the capability set shared by all layer kinds.
// AffineTransform and Softmax are the only implementations.
type FeatureTransform = dnn.FeatureTransform

// AffineTransform is a fully-connected layer computing an affine map
// over a row window of its input.
type AffineTransform = dnn.AffineTransform

// Softmax is a fully-connected layer whose forward pass applies a
// row-wise softmax after the affine map. Pair it with a cross-entropy
// loss: BackPropagate expects errSig to already hold output − target.
type Softmax = dnn.Softmax

// NewAffine creates a layer from an explicit weight matrix (cloned).
func NewAffine(w *mat.Matrix) *AffineTransform {
	return dnn.NewAffine(w)
}

// NewAffineShape creates a layer with a Xavier-initialized rows×cols
// weight; rows is inputDim+1, cols is outputDim.
func NewAffineShape(rows, cols int, b mat.Backend) *AffineTransform {
	return dnn.NewAffineShape(rows, cols, b)
}

// NewSoftmax creates a softmax output layer from an explicit weight
// matrix (cloned).
func NewSoftmax(w *mat.Matrix) *Softmax {
	return dnn.NewSoftmax(w)
}

// NewSoftmaxShape creates a softmax output layer with a
// Xavier-initialized rows×cols weight.
func NewSoftmaxShape(rows, cols int, b mat.Backend) *Softmax {
	return dnn.NewSoftmaxShape(rows, cols, b)
}

// Sigmoid returns 1/(1+exp(-x)) applied elementwise; same shape as x.
func Sigmoid(x *mat.Matrix) *mat.Matrix {
	return dnn.Sigmoid(x)
}

// BiasedSigmoid returns sigmoid(x) with one extra constant-1.0 column
// appended, ready to feed the next affine map.
func BiasedSigmoid(x *mat.Matrix) *mat.Matrix {
	return dnn.BiasedSigmoid(x)
}

// SoftmaxRows returns the numerically stable row-wise softmax of x.
func SoftmaxRows(x *mat.Matrix) *mat.Matrix {
	return dnn.SoftmaxRows(x)
}

// AddBias returns a copy of x with one extra constant-1.0 column.
func AddBias(x *mat.Matrix) *mat.Matrix {
	return dnn.AddBias(x)
}

// FillLastColumn sets every element of m's last column to value.
func FillLastColumn(m *mat.Matrix, value float32) {
	dnn.FillLastColumn(m, value)
}

// SaveModel writes a layer stack to an .ldnn file.
func SaveModel(path string, layers []FeatureTransform) error {
	return dnn.SaveModel(path, layers)
}

// LoadModel reads a layer stack from an .ldnn file, allocating the
// weights on the given backend.
func LoadModel(path string, b mat.Backend) ([]FeatureTransform, error) {
	return dnn.LoadModel(path, b)
}
