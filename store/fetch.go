package store

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// ErrCanceled is returned by FetchParallel when ctx is canceled before
// enough shards have been fetched.
var ErrCanceled = errors.New("store: fetch canceled")

// A ShardBackend is one of the N places a shard may live. It is
// intentionally minimal: it carries no host-session state, so both
// network-backed and in-memory implementations can satisfy it.
type ShardBackend interface {
	// Fetch returns the shard this backend holds, or an error if it
	// cannot be retrieved.
	Fetch(ctx context.Context) ([]byte, error)
}

// FetchParallel fetches shards from backends concurrently: minShards
// workers drain a request channel of backend indices, retrying a fresh
// index on every failure, until minShards have succeeded or too many
// backends have failed for that to still be possible.
//
// The returned slice has one entry per backend; entries for backends that
// were never queried, or that failed, are left nil, following this
// package's erasure convention.
func FetchParallel(ctx context.Context, backends []ShardBackend, minShards int) ([][]byte, error) {
	if minShards <= 0 || minShards > len(backends) {
		return nil, errors.Errorf("store: minShards %d out of range for %d backends", minShards, len(backends))
	}

	type result struct {
		index int
		shard []byte
		err   error
	}

	reqChan := make(chan int, minShards)
	resChan := make(chan result, minShards)
	var wg sync.WaitGroup

	nextIndex := 0
	for i := 0; i < minShards; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range reqChan {
				shard, err := backends[idx].Fetch(ctx)
				resChan <- result{index: idx, shard: shard, err: err}
			}
		}()
		reqChan <- nextIndex
		nextIndex++
	}
	defer func() {
		close(reqChan)
		wg.Wait()
	}()

	shards := make([][]byte, len(backends))
	succeeded, failed := 0, 0
	for succeeded < minShards && failed <= len(backends)-minShards {
		select {
		case <-ctx.Done():
			return nil, ErrCanceled
		case res := <-resChan:
			if res.err == nil {
				shards[res.index] = res.shard
				succeeded++
				continue
			}
			failed++
			if nextIndex < len(backends) {
				reqChan <- nextIndex
				nextIndex++
			}
		}
	}
	if succeeded < minShards {
		return nil, errors.Errorf("store: only %d of %d required backends succeeded", succeeded, minShards)
	}
	return shards, nil
}
