package mat

import "fmt"

// checkRegion panics unless the rows×cols window at (r, c) lies inside m.
func checkRegion(op string, m *Matrix, r, c, rows, cols int) {
	if r < 0 || c < 0 || rows < 0 || cols < 0 ||
		r+rows > m.rows || c+cols > m.cols {
		panic(fmt.Sprintf("mat: %s region [%d:%d, %d:%d] out of range for %d×%d matrix",
			op, r, r+rows, c, c+cols, m.rows, m.cols))
	}
}

// CopyRegion copies a rows×cols block from src (top-left at srcRow, srcCol)
// into dst at (dstRow, dstCol). A straight overwrite of the destination
// region, not an accumulate. Both regions must lie inside their matrices.
func CopyRegion(dst, src *Matrix, srcRow, srcCol, rows, cols, dstRow, dstCol int) {
	checkRegion("CopyRegion src", src, srcRow, srcCol, rows, cols)
	checkRegion("CopyRegion dst", dst, dstRow, dstCol, rows, cols)
	dst.backend.Geam(dst, dstRow, dstCol,
		1.0, src, srcRow, srcCol,
		0.0, dst, dstRow, dstCol,
		rows, cols)
}
