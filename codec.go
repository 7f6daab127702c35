/**
 * Reed-Solomon Coding over 8-bit values.
 *
 * Copyright 2015, Klaus Post
 * Copyright 2015, Backblaze, Inc.
 */

// Package rs8 implements Reed-Solomon erasure coding over GF(2^8): given K
// data shards it produces M parity shards such that any K of the N=K+M
// shards suffice to recover the original data.
//
// Construction derives a systematic N x K encoding matrix from a Vandermonde
// matrix, so that the first K rows of the matrix (and thus the first K
// shards of every encoded set) are exactly the input data, unchanged.
package rs8

import (
	"sync"

	"go.shardkit.dev/rs8/gf256"
	"go.shardkit.dev/rs8/matrix"
)

// A ReedSolomon is an immutable codec for a fixed (K,M) shard split.
// Constructed once via New, it is safe for concurrent use by any number of
// goroutines, provided each call to Encode/Decode owns its own shard slice.
type ReedSolomon struct {
	K, M, N int

	gf     gf256.Field
	matrix matrix.Matrix // full N x K systematic encoding matrix
	parity matrix.Matrix // bottom M x K block of matrix, cached for Encode

	opts options
}

// buildMatrix derives the systematic N x K encoding matrix: a Vandermonde
// matrix whose top K x K block is multiplied by its own inverse, leaving the
// top block the identity while preserving the Vandermonde property that
// every square subset of rows is invertible.
func buildMatrix(k, n int, gf gf256.Field) (matrix.Matrix, error) {
	vm := matrix.NewVandermonde(n, k, gf)
	top := vm.NewSubMatrix(0, k, 0, k)
	topInv, err := top.Invert(gf)
	if err != nil {
		return matrix.Matrix{}, err
	}
	return vm.Multiply(topInv, gf)
}

// New constructs a ReedSolomon for k data shards and m parity shards.
// New fails with ErrZeroDataShards if k is zero, ErrZeroParityShards if m is
// zero, or ErrShardsOverflow if k+m exceeds 256 (the order of GF(2^8)).
func New(k, m int, opts ...Option) (*ReedSolomon, error) {
	if k == 0 {
		return nil, ErrZeroDataShards
	}
	if m == 0 {
		return nil, ErrZeroParityShards
	}
	if k+m > 256 {
		return nil, ErrShardsOverflow
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	gf := gf256.New()
	n := k + m
	enc, err := buildMatrix(k, n, gf)
	if err != nil {
		return nil, err
	}

	return &ReedSolomon{
		K: k, M: m, N: n,
		gf:     gf,
		matrix: enc,
		parity: enc.NewSubMatrix(k, n, 0, k),
		opts:   o,
	}, nil
}

// checkShardSizes validates shards for Encode: there must be exactly N
// entries, every entry non-empty, and all entries the same length.
func (r *ReedSolomon) checkShardSizes(shards [][]byte) (int, error) {
	if len(shards) != r.N {
		return 0, ErrWrongShardCount
	}
	size := -1
	for _, s := range shards {
		if len(s) == 0 {
			return 0, ErrEmptyShard
		}
		if size == -1 {
			size = len(s)
		} else if len(s) != size {
			return 0, ErrInconsistentShardSize
		}
	}
	return size, nil
}

// Encode computes the M parity shards from the first K (data) entries of
// shards, overwriting shards[K:]. shards must have exactly N entries, all
// non-empty and of equal length; the data shards (shards[:K]) are left
// unchanged.
func (r *ReedSolomon) Encode(shards [][]byte) error {
	size, err := r.checkShardSizes(shards)
	if err != nil {
		return err
	}
	r.multiplyRows(r.parity.Data, shards[:r.K], shards[r.K:], size)
	return nil
}

// multiplyRows computes, for each row of matrixRows and each byte column,
// the GF(2^8) inner product of that row against the corresponding column of
// inputs, writing the result into the matching row of outputs. This is the
// shared core of both Encode (matrixRows = parity block) and Decode
// (matrixRows = the inverted decode submatrix).
func (r *ReedSolomon) multiplyRows(matrixRows, inputs, outputs [][]byte, byteCount int) {
	if len(outputs) == 0 || byteCount == 0 {
		return
	}
	numWorkers := r.opts.maxGoroutines
	chunk := (byteCount + numWorkers - 1) / numWorkers
	if chunk < r.opts.minSplitBytes {
		chunk = r.opts.minSplitBytes
	}
	if chunk > byteCount {
		chunk = byteCount
	}

	gf := r.gf
	run := func(start, stop int) {
		for c := range inputs {
			in := inputs[c][start:stop]
			for row := range outputs {
				coeff := matrixRows[row][c]
				out := outputs[row][start:stop]
				if c == 0 {
					for i, b := range in {
						out[i] = gf.Mul(coeff, b)
					}
				} else {
					for i, b := range in {
						out[i] = gf.Add(out[i], gf.Mul(coeff, b))
					}
				}
			}
		}
	}

	if byteCount <= chunk {
		run(0, byteCount)
		return
	}

	var wg sync.WaitGroup
	for start := 0; start < byteCount; start += chunk {
		stop := start + chunk
		if stop > byteCount {
			stop = byteCount
		}
		wg.Add(1)
		go func(start, stop int) {
			defer wg.Done()
			run(start, stop)
		}(start, stop)
	}
	wg.Wait()
}

// Decode fills in any missing shards of shards, which must have exactly N
// entries. A missing shard is represented by a nil or zero-length entry.
// Present entries must all share one length L.
//
// Decode fails with ErrTooFewShards if shards has fewer than N entries or
// fewer than K are present, or ErrTooManyShards if it has more than N. If
// all N shards are present, Decode returns nil without modifying shards.
// Otherwise it recovers missing data shards by inverting the submatrix of
// surviving rows, then recomputes every parity shard (including ones that
// were already present) by re-running Encode.
func (r *ReedSolomon) Decode(shards [][]byte) error {
	if len(shards) < r.N {
		return ErrTooFewShards
	}
	if len(shards) > r.N {
		return ErrTooManyShards
	}

	size := -1
	present := 0
	for _, s := range shards {
		if len(s) == 0 {
			continue
		}
		present++
		if size == -1 {
			size = len(s)
		} else if len(s) != size {
			return ErrInconsistentShardSize
		}
	}
	if present == r.N {
		return nil
	}
	if present < r.K {
		return ErrTooFewShards
	}

	// Select the first K surviving rows and build the K x K submatrix of
	// the encoding matrix that maps those rows back to the K data shards.
	validIndices := make([]int, 0, r.K)
	surviving := make([][]byte, 0, r.K)
	for i, s := range shards {
		if len(s) != 0 {
			validIndices = append(validIndices, i)
			surviving = append(surviving, s)
			if len(validIndices) == r.K {
				break
			}
		}
	}

	sub := matrix.New(r.K, r.K)
	for row, idx := range validIndices {
		copy(sub.Data[row], r.matrix.Data[idx][:r.K])
	}
	decodeMatrix, err := sub.Invert(r.gf)
	if err != nil {
		// The Vandermonde construction guarantees every K-subset of rows
		// is invertible; a singular result here means the surviving-row
		// selection or the encoding matrix itself is corrupted.
		return err
	}

	// Recreate only the missing data shards; data shards that are already
	// present are left untouched rather than recomputed.
	var missingRows, missingOutputs [][]byte
	for i := 0; i < r.K; i++ {
		if len(shards[i]) == 0 {
			shards[i] = make([]byte, size)
			missingRows = append(missingRows, decodeMatrix.Data[i])
			missingOutputs = append(missingOutputs, shards[i])
		}
	}
	r.multiplyRows(missingRows, surviving, missingOutputs, size)

	for i := r.K; i < r.N; i++ {
		if len(shards[i]) == 0 {
			shards[i] = make([]byte, size)
		}
	}
	return r.Encode(shards)
}
