package rs8

import "runtime"

// options holds the tunable knobs of a ReedSolomon's hot encode/decode path.
// None of them affect the derived encoding matrix or any output byte; they
// only change how the column-wise multiply is split across goroutines.
type options struct {
	minSplitBytes int
	maxGoroutines int
}

func defaultOptions() options {
	return options{
		minSplitBytes: 1024,
		maxGoroutines: runtime.GOMAXPROCS(0),
	}
}

// An Option configures a ReedSolomon at construction time via New.
type Option func(*options)

// WithMinSplitBytes sets the minimum number of bytes handed to a single
// goroutine during Encode/Decode. Shards shorter than n are always
// processed on the calling goroutine. The default is 1024.
func WithMinSplitBytes(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.minSplitBytes = n
		}
	}
}

// WithMaxGoroutines bounds the number of goroutines Encode/Decode may use to
// process a single shard set concurrently. The default is
// runtime.GOMAXPROCS(0).
func WithMaxGoroutines(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxGoroutines = n
		}
	}
}
