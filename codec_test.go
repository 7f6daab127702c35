package rs8

import (
	"bytes"
	"errors"
	"testing"
)

func TestNewErrors(t *testing.T) {
	if _, err := New(0, 2); !errors.Is(err, ErrZeroDataShards) {
		t.Errorf("New(0,2) = %v, want ErrZeroDataShards", err)
	}
	if _, err := New(2, 0); !errors.Is(err, ErrZeroParityShards) {
		t.Errorf("New(2,0) = %v, want ErrZeroParityShards", err)
	}
	if _, err := New(200, 100); !errors.Is(err, ErrShardsOverflow) {
		t.Errorf("New(200,100) = %v, want ErrShardsOverflow", err)
	}
}

func TestEncodingMatrixScenario1(t *testing.T) {
	r, err := New(4, 2)
	if err != nil {
		t.Fatal(err)
	}
	want := [][]byte{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
		{27, 28, 18, 20},
		{28, 27, 20, 18},
	}
	for row := range want {
		if !bytes.Equal(r.matrix.Data[row], want[row]) {
			t.Errorf("row %d = %v, want %v", row, r.matrix.Data[row], want[row])
		}
	}
}

func shardsEqual(a, b [][]byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !bytes.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func TestEncodeScenario2(t *testing.T) {
	r, err := New(2, 2)
	if err != nil {
		t.Fatal(err)
	}
	shards := [][]byte{{0, 1, 2}, {3, 4, 5}, {0, 0, 0}, {0, 0, 0}}
	if err := r.Encode(shards); err != nil {
		t.Fatal(err)
	}
	want := [][]byte{{0, 1, 2}, {3, 4, 5}, {6, 11, 12}, {5, 14, 11}}
	if !shardsEqual(shards, want) {
		t.Errorf("Encode = %v, want %v", shards, want)
	}
}

func encodedScenario2(t *testing.T) (*ReedSolomon, [][]byte) {
	t.Helper()
	r, err := New(2, 2)
	if err != nil {
		t.Fatal(err)
	}
	shards := [][]byte{{0, 1, 2}, {3, 4, 5}, {0, 0, 0}, {0, 0, 0}}
	if err := r.Encode(shards); err != nil {
		t.Fatal(err)
	}
	return r, shards
}

func TestDecodeScenario3(t *testing.T) {
	r, full := encodedScenario2(t)
	shards := [][]byte{full[0], nil, full[2], full[3]}
	if err := r.Decode(shards); err != nil {
		t.Fatal(err)
	}
	if !shardsEqual(shards, full) {
		t.Errorf("Decode = %v, want %v", shards, full)
	}
}

func TestDecodeScenario4(t *testing.T) {
	r, full := encodedScenario2(t)
	shards := [][]byte{full[0], full[1], full[2], nil}
	if err := r.Decode(shards); err != nil {
		t.Fatal(err)
	}
	if !shardsEqual(shards, full) {
		t.Errorf("Decode = %v, want %v", shards, full)
	}
}

func TestDecodeScenario5(t *testing.T) {
	r, full := encodedScenario2(t)
	shards := [][]byte{full[0], nil, nil, full[3]}
	if err := r.Decode(shards); err != nil {
		t.Fatal(err)
	}
	if !shardsEqual(shards, full) {
		t.Errorf("Decode = %v, want %v", shards, full)
	}
}

func TestDecodeAllPresentNoOp(t *testing.T) {
	r, full := encodedScenario2(t)
	cp := make([][]byte, len(full))
	for i, s := range full {
		cp[i] = append([]byte(nil), s...)
	}
	if err := r.Decode(cp); err != nil {
		t.Fatal(err)
	}
	if !shardsEqual(cp, full) {
		t.Errorf("Decode with all present = %v, want unchanged %v", cp, full)
	}
}

func TestEncodeErrors(t *testing.T) {
	r, err := New(2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Encode([][]byte{{1}, {1}, {1}}); !errors.Is(err, ErrWrongShardCount) {
		t.Errorf("too few shards: err = %v, want ErrWrongShardCount", err)
	}
	if err := r.Encode([][]byte{{1}, {1}, {1}, {1}, {1}}); !errors.Is(err, ErrWrongShardCount) {
		t.Errorf("too many shards: err = %v, want ErrWrongShardCount", err)
	}
	if err := r.Encode([][]byte{{1}, nil, {1}, {1}}); !errors.Is(err, ErrEmptyShard) {
		t.Errorf("empty shard: err = %v, want ErrEmptyShard", err)
	}
	if err := r.Encode([][]byte{{1}, {1, 2}, {1}, {1}}); !errors.Is(err, ErrInconsistentShardSize) {
		t.Errorf("inconsistent shard: err = %v, want ErrInconsistentShardSize", err)
	}
}

func TestDecodeErrors(t *testing.T) {
	r, err := New(2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Decode([][]byte{{1}, nil, nil, nil}); !errors.Is(err, ErrTooFewShards) {
		t.Errorf("too few present: err = %v, want ErrTooFewShards", err)
	}
	if err := r.Decode([][]byte{{1}, {1}, nil}); !errors.Is(err, ErrTooFewShards) {
		t.Errorf("short slice: err = %v, want ErrTooFewShards", err)
	}
	if err := r.Decode([][]byte{{1}, {1}, nil, nil, nil}); !errors.Is(err, ErrTooManyShards) {
		t.Errorf("long slice: err = %v, want ErrTooManyShards", err)
	}
}

func TestRoundTripAllErasurePatterns(t *testing.T) {
	const k, m = 5, 3
	r, err := New(k, m)
	if err != nil {
		t.Fatal(err)
	}
	data := make([][]byte, k+m)
	for i := 0; i < k; i++ {
		data[i] = []byte{byte(i), byte(i * 7), byte(i*i + 1)}
	}
	for i := k; i < k+m; i++ {
		data[i] = make([]byte, 3)
	}
	if err := r.Encode(data); err != nil {
		t.Fatal(err)
	}

	n := k + m
	for mask := 0; mask < 1<<n; mask++ {
		present := 0
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				present++
			}
		}
		if present < k {
			continue
		}
		shards := make([][]byte, n)
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				shards[i] = append([]byte(nil), data[i]...)
			}
		}
		if err := r.Decode(shards); err != nil {
			t.Fatalf("mask %b: %v", mask, err)
		}
		if !shardsEqual(shards, data) {
			t.Fatalf("mask %b: Decode = %v, want %v", mask, shards, data)
		}
	}
}

func TestDataShardsUnchangedByEncode(t *testing.T) {
	r, err := New(3, 2)
	if err != nil {
		t.Fatal(err)
	}
	in := [][]byte{{9, 8, 7}, {1, 2, 3}, {4, 5, 6}, {0, 0, 0}, {0, 0, 0}}
	want := [][]byte{{9, 8, 7}, {1, 2, 3}, {4, 5, 6}}
	if err := r.Encode(in); err != nil {
		t.Fatal(err)
	}
	for i := range want {
		if !bytes.Equal(in[i], want[i]) {
			t.Errorf("data shard %d = %v, want unchanged %v", i, in[i], want[i])
		}
	}
}

func TestOptionsDoNotChangeOutput(t *testing.T) {
	mkShards := func() [][]byte {
		return [][]byte{
			bytes.Repeat([]byte{1, 2, 3, 4}, 64),
			bytes.Repeat([]byte{5, 6, 7, 8}, 64),
			bytes.Repeat([]byte{9, 10, 11, 12}, 64),
			make([]byte, 256),
			make([]byte, 256),
		}
	}

	base, err := New(3, 2)
	if err != nil {
		t.Fatal(err)
	}
	baseShards := mkShards()
	if err := base.Encode(baseShards); err != nil {
		t.Fatal(err)
	}

	tuned, err := New(3, 2, WithMinSplitBytes(1), WithMaxGoroutines(8))
	if err != nil {
		t.Fatal(err)
	}
	tunedShards := mkShards()
	if err := tuned.Encode(tunedShards); err != nil {
		t.Fatal(err)
	}

	if !shardsEqual(baseShards, tunedShards) {
		t.Error("varying split options changed Encode output")
	}
}
