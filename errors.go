/**
 * Reed-Solomon Coding over 8-bit values.
 *
 * Copyright 2015, Klaus Post
 * Copyright 2015, Backblaze, Inc.
 */

package rs8

import "errors"

// ErrZeroDataShards is returned by New if dataShards is zero.
var ErrZeroDataShards = errors.New("rs8: data shard count cannot be zero")

// ErrZeroParityShards is returned by New if parityShards is zero.
var ErrZeroParityShards = errors.New("rs8: parity shard count cannot be zero")

// ErrShardsOverflow is returned by New if dataShards+parityShards exceeds
// the 256 elements of GF(2^8).
var ErrShardsOverflow = errors.New("rs8: data+parity shard count cannot exceed 256")

// ErrWrongShardCount is returned by Encode if the shard slice's length does
// not match N. Decode reports a wrong length as ErrTooFewShards or
// ErrTooManyShards instead.
var ErrWrongShardCount = errors.New("rs8: wrong number of shards")

// ErrEmptyShard is returned by Encode if any shard is empty; Encode requires
// every shard, including parity placeholders, to already be sized.
var ErrEmptyShard = errors.New("rs8: shard is empty")

// ErrInconsistentShardSize is returned by Encode/Decode if the present
// shards do not all share the same length.
var ErrInconsistentShardSize = errors.New("rs8: shards are not the same size")

// ErrTooFewShards is returned by Decode if fewer than K shards are present,
// or if the shard slice is shorter than N.
var ErrTooFewShards = errors.New("rs8: too few shards to reconstruct data")

// ErrTooManyShards is returned by Decode if the shard slice is longer than N.
var ErrTooManyShards = errors.New("rs8: too many shards")
