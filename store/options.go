package store

import (
	"log/slog"
)

type options struct {
	indexThreshold int
	nProbes        int
	kmeansMaxIter  int
	seed           int64
	logger         *slog.Logger
}

// Option configures a MemoryStore.
type Option func(*options)

// WithIndexThreshold sets the record count at which RebuildIndex starts
// building an inverted-file index instead of leaving queries on the exact
// scan. Below the threshold an exact scan is both faster and more accurate.
func WithIndexThreshold(n int) Option {
	return func(o *options) {
		o.indexThreshold = n
	}
}

// WithNProbes sets how many partitions a query probes when the index is
// active. Higher values trade speed for recall.
func WithNProbes(n int) Option {
	return func(o *options) {
		o.nProbes = n
	}
}

// WithSeed sets the seed for the clustering pass, making index builds
// reproducible.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithLogger configures structured logging. Pass nil to disable.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = slog.New(slog.DiscardHandler)
		}
		o.logger = logger
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		indexThreshold: 256,
		nProbes:        4,
		kmeansMaxIter:  25,
		seed:           1,
		logger:         slog.New(slog.DiscardHandler),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
