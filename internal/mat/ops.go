package mat

import "fmt"

// Mul returns the Hadamard (elementwise) product of m and other.
// Panics if the shapes differ.
func (m *Matrix) Mul(other *Matrix) *Matrix {
	if m.rows != other.rows || m.cols != other.cols {
		panic(fmt.Sprintf("mat: Mul shape mismatch: %d×%d vs %d×%d",
			m.rows, m.cols, other.rows, other.cols))
	}
	out := New(m.rows, m.cols, m.backend)
	m.backend.Mul(out, m, other)
	return out
}

// Apply returns a new matrix with fn mapped over every element of m.
func (m *Matrix) Apply(fn ElemFunc) *Matrix {
	out := New(m.rows, m.cols, m.backend)
	m.backend.Apply(out, m, fn)
	return out
}

// Equal reports whether m and other have the same shape and all elements
// agree within eps. Downloads both matrices; intended for tests.
func (m *Matrix) Equal(other *Matrix, eps float32) bool {
	if m.rows != other.rows || m.cols != other.cols {
		return false
	}
	a := m.Data()
	b := other.Data()
	for i := range a {
		d := a[i] - b[i]
		if d < 0 {
			d = -d
		}
		if d > eps {
			return false
		}
	}
	return true
}
