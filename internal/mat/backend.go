package mat

// ElemFunc identifies an elementwise kernel. Functions are enumerated
// rather than passed as Go closures so that GPU backends can dispatch a
// precompiled kernel per function.
type ElemFunc int

// Supported elementwise kernels.
const (
	FuncSigmoid ElemFunc = iota // 1 / (1 + exp(-x))
	FuncExp                     // exp(x)
	FuncTanh                    // tanh(x)
	FuncNeg                     // -x
)

// String returns the kernel name.
func (f ElemFunc) String() string {
	switch f {
	case FuncSigmoid:
		return "sigmoid"
	case FuncExp:
		return "exp"
	case FuncTanh:
		return "tanh"
	case FuncNeg:
		return "neg"
	default:
		return "unknown"
	}
}

// Backend defines the device primitives a matrix engine must provide.
//
// Implementations:
//   - cpu: pure Go with a worker pool
//   - webgpu: GPU compute via WGSL kernels
//
// All region arguments address column-major sub-blocks: (row, col) is the
// top-left corner of a rows×cols window. Implementations must fail fast
// (panic) on shape or range violations; these are programmer errors, not
// recoverable runtime states.
type Backend interface {
	// Alloc creates a zero-filled device allocation of n elements.
	Alloc(n int) Storage

	// Copy overwrites dst's storage with src's. Shapes must match.
	Copy(dst, src *Matrix)

	// Geam computes the generalized scaled region sum
	//
	//	dst[dr:dr+rows, dc:dc+cols] = alpha*a[ar:, ac:] + beta*b[br:, bc:]
	//
	// dst may alias b, which makes alpha=1, beta=0 a straight region
	// overwrite and alpha=-lr, beta=1 an in-place scaled update.
	Geam(dst *Matrix, dr, dc int, alpha float32, a *Matrix, ar, ac int,
		beta float32, b *Matrix, br, bc int, rows, cols int)

	// Gemm computes the region matrix product
	//
	//	dst[dr:dr+m, dc:dc+n] = alpha*op(A)·op(B) + beta*dst[dr:, dc:]
	//
	// where op(A) is the m×k window of a at (ar, ac), transposed when
	// transA is set, and op(B) is the k×n window of b at (br, bc),
	// transposed when transB is set. Window coordinates address the
	// stored (untransposed) matrix. dst must not alias a or b.
	Gemm(dst *Matrix, dr, dc int, alpha float32,
		a *Matrix, ar, ac int, transA bool,
		b *Matrix, br, bc int, transB bool,
		m, n, k int, beta float32)

	// Mul computes the Hadamard (elementwise) product dst = a ⊙ b.
	// All three shapes must agree; dst may alias a or b.
	Mul(dst, a, b *Matrix)

	// Apply maps fn over every element of src, writing to dst.
	// Shapes must agree; dst may alias src.
	Apply(dst, src *Matrix, fn ElemFunc)

	// Fill sets the rows×cols region of dst at (r, c) to value.
	Fill(dst *Matrix, r, c, rows, cols int, value float32)

	// Softmax computes a numerically stable row-wise softmax of src into
	// dst (per-row max subtraction before exponentiation). Softmax is a
	// row reduction, not an elementwise map, so it is a named primitive
	// rather than an ElemFunc. Shapes must agree; dst may alias src.
	Softmax(dst, src *Matrix)

	// Read downloads src in column-major order.
	Read(src *Matrix) []float32

	// Write uploads column-major data into dst. len(data) == dst.Size().
	Write(dst *Matrix, data []float32)

	// Name returns the backend name.
	Name() string
}
