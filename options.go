package facade

const (
	// DefaultCandidateLimit is the number of nearest matches fetched per
	// recognition request.
	DefaultCandidateLimit = 5

	// DefaultThreshold is the minimum cosine similarity (and classifier
	// confidence) for a candidate to count as a match.
	DefaultThreshold = 0.65
)

// Options configures an Engine.
type Options struct {
	// CandidateLimit is the number of nearest matches to aggregate.
	CandidateLimit int

	// Threshold is the minimum similarity for a candidate match. Anything
	// below it is treated as no match.
	Threshold float32

	// Logger for request diagnostics. Defaults to NoopLogger.
	Logger *Logger

	// Metrics receives operational metrics. Defaults to NoopMetricsCollector.
	Metrics MetricsCollector
}

func applyEngineOptions(optFns []func(o *Options)) Options {
	opts := Options{
		CandidateLimit: DefaultCandidateLimit,
		Threshold:      DefaultThreshold,
		Logger:         NoopLogger(),
		Metrics:        NoopMetricsCollector{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return opts
}
