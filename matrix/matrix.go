/**
 * Reed-Solomon Coding over 8-bit values.
 *
 * Copyright 2015, Klaus Post
 * Copyright 2015, Backblaze, Inc.
 */

// Package matrix implements dense byte matrices over go.shardkit.dev/rs8/gf256,
// including the Gauss-Jordan inversion the codec needs to derive and invert
// its encoding matrix.
package matrix

import (
	"fmt"

	"go.shardkit.dev/rs8/gf256"
)

// A Matrix is a dense Rows x Cols matrix of GF(2^8) elements, stored
// row-major: Data has exactly Rows entries, each a []byte of length Cols.
// Matrix is mutated in place only by GaussJordan and SwapRows; every other
// method returns a new Matrix.
type Matrix struct {
	Rows, Cols int
	Data       [][]byte
}

// New returns a Rows x Cols matrix filled with zeros.
func New(rows, cols int) Matrix {
	data := make([][]byte, rows)
	for r := range data {
		data[r] = make([]byte, cols)
	}
	return Matrix{Rows: rows, Cols: cols, Data: data}
}

// NewFromData takes ownership of rows, which must be rectangular: every row
// must have the same length. NewFromData panics if rows is empty or ragged,
// since the source material is always constructed internally or supplied as
// a known-good literal in tests.
func NewFromData(rows [][]byte) Matrix {
	if len(rows) == 0 {
		panic("matrix: NewFromData requires at least one row")
	}
	cols := len(rows[0])
	for _, row := range rows {
		if len(row) != cols {
			panic("matrix: NewFromData requires a rectangular array")
		}
	}
	return Matrix{Rows: len(rows), Cols: cols, Data: rows}
}

// NewIdentity returns the size x size identity matrix.
func NewIdentity(size int) Matrix {
	m := New(size, size)
	for i := 0; i < size; i++ {
		m.Data[i][i] = 1
	}
	return m
}

// NewVandermonde returns the rows x cols Vandermonde matrix over gf, where
// entry (r,c) is gf.Exp(r, c). r is truncated to a byte when it is passed
// to gf.Exp, which bounds the usable row count to 256.
func NewVandermonde(rows, cols int, gf gf256.Field) Matrix {
	m := New(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			m.Data[r][c] = gf.Exp(byte(r), c)
		}
	}
	return m
}

// NewSubMatrix returns a copy of the window [r0,r1) x [c0,c1) of m.
// NewSubMatrix panics if the bounds exceed the shape of m.
func (m Matrix) NewSubMatrix(r0, r1, c0, c1 int) Matrix {
	if r0 < 0 || r1 > m.Rows || c0 < 0 || c1 > m.Cols || r0 > r1 || c0 > c1 {
		panic("matrix: sub-matrix bounds out of range")
	}
	sub := New(r1-r0, c1-c0)
	for r := r0; r < r1; r++ {
		copy(sub.Data[r-r0], m.Data[r][c0:c1])
	}
	return sub
}

// RowsMismatchError reports that two matrices' row counts disagree where
// they were required to match, e.g. when building an augmented matrix.
type RowsMismatchError struct {
	Left, Right int
}

func (e *RowsMismatchError) Error() string {
	return fmt.Sprintf("matrix: row count of the matrices must match: left has %d rows, right has %d", e.Left, e.Right)
}

// RowColMismatchError reports that the left matrix's column count does not
// equal the right matrix's row count, so the two cannot be multiplied.
type RowColMismatchError struct {
	LeftCols, RightRows int
}

func (e *RowColMismatchError) Error() string {
	return fmt.Sprintf("matrix: column count of left must match row count of right: left has %d columns, right has %d rows", e.LeftCols, e.RightRows)
}

// NonSquareError reports that Invert was called on a non-square matrix.
type NonSquareError struct {
	Rows, Cols int
}

func (e *NonSquareError) Error() string {
	return fmt.Sprintf("matrix: cannot invert a non-square matrix (%dx%d)", e.Rows, e.Cols)
}

// ErrSingular is returned by GaussJordan/Invert when no pivot can be found
// for some row, i.e. the matrix (or its left block) is not invertible.
var ErrSingular = singularError{}

type singularError struct{}

func (singularError) Error() string { return "matrix: matrix is singular" }

// NewAugmented returns the horizontal concatenation [m | right]. It returns
// a *RowsMismatchError if m.Rows != right.Rows.
func (m Matrix) NewAugmented(right Matrix) (Matrix, error) {
	if m.Rows != right.Rows {
		return Matrix{}, &RowsMismatchError{Left: m.Rows, Right: right.Rows}
	}
	aug := New(m.Rows, m.Cols+right.Cols)
	for r := 0; r < m.Rows; r++ {
		copy(aug.Data[r], m.Data[r])
		copy(aug.Data[r][m.Cols:], right.Data[r])
	}
	return aug, nil
}

// Multiply returns m*right computed in gf. It returns a *RowColMismatchError
// if m.Cols != right.Rows.
func (m Matrix) Multiply(right Matrix, gf gf256.Field) (Matrix, error) {
	if m.Cols != right.Rows {
		return Matrix{}, &RowColMismatchError{LeftCols: m.Cols, RightRows: right.Rows}
	}
	res := New(m.Rows, right.Cols)
	for r := 0; r < m.Rows; r++ {
		for c := 0; c < right.Cols; c++ {
			var v byte
			for k := 0; k < m.Cols; k++ {
				v = gf.Add(v, gf.Mul(m.Data[r][k], right.Data[k][c]))
			}
			res.Data[r][c] = v
		}
	}
	return res, nil
}

// SwapRows exchanges rows i and j of m in place. It is a no-op when i == j.
func (m Matrix) SwapRows(i, j int) {
	if i == j {
		return
	}
	m.Data[i], m.Data[j] = m.Data[j], m.Data[i]
}

// GaussJordan reduces the left Rows x Rows block of m to the identity in
// place, via row swaps, scaling, and elimination, carrying the same
// operations through the remaining columns (so that if m was built as
// [A | I], the right block ends up holding A^-1). It returns ErrSingular if
// some row has no non-zero entry available for its pivot column.
func (m Matrix) GaussJordan(gf gf256.Field) error {
	for r := 0; r < m.Rows; r++ {
		if m.Data[r][r] == 0 {
			for below := r + 1; below < m.Rows; below++ {
				if m.Data[below][r] != 0 {
					m.SwapRows(below, r)
					break
				}
			}
		}
		if m.Data[r][r] == 0 {
			return ErrSingular
		}
		if m.Data[r][r] != 1 {
			scale := gf.Div(1, m.Data[r][r])
			for c := 0; c < m.Cols; c++ {
				m.Data[r][c] = gf.Mul(m.Data[r][c], scale)
			}
		}
		// Zero the column below the pivot: subtraction and addition are
		// both XOR in GF(2^8), so "subtract a multiple" is "add a multiple".
		for below := r + 1; below < m.Rows; below++ {
			if scale := m.Data[below][r]; scale != 0 {
				for c := 0; c < m.Cols; c++ {
					m.Data[below][c] = gf.Add(m.Data[below][c], gf.Mul(scale, m.Data[r][c]))
				}
			}
		}
	}
	// Clear above each pivot.
	for d := 0; d < m.Rows; d++ {
		for above := 0; above < d; above++ {
			if scale := m.Data[above][d]; scale != 0 {
				for c := 0; c < m.Cols; c++ {
					m.Data[above][c] = gf.Add(m.Data[above][c], gf.Mul(scale, m.Data[d][c]))
				}
			}
		}
	}
	return nil
}

// Invert returns the inverse of m. It returns a *NonSquareError if m is not
// square, or ErrSingular if m has no inverse.
func (m Matrix) Invert(gf gf256.Field) (Matrix, error) {
	if m.Rows != m.Cols {
		return Matrix{}, &NonSquareError{Rows: m.Rows, Cols: m.Cols}
	}
	work, err := m.NewAugmented(NewIdentity(m.Rows))
	if err != nil {
		return Matrix{}, err
	}
	if err := work.GaussJordan(gf); err != nil {
		return Matrix{}, err
	}
	return work.NewSubMatrix(0, m.Rows, m.Cols, m.Cols*2), nil
}
