package facade

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    recognizeCounter   prometheus.Counter
//	    recognizeHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordRecognize(duration time.Duration, err error) {
//	    p.recognizeCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordRecognize is called after each recognition request.
	// duration is the total time taken, err is nil if successful.
	RecordRecognize(duration time.Duration, err error)

	// RecordEmbed is called after each embedder call.
	RecordEmbed(duration time.Duration, err error)

	// RecordQuery is called after each similarity query.
	// candidates is the number of matches returned.
	RecordQuery(candidates int, duration time.Duration, err error)

	// RecordClassify is called after each classification request.
	RecordClassify(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordRecognize(time.Duration, error)  {}
func (NoopMetricsCollector) RecordEmbed(time.Duration, error)      {}
func (NoopMetricsCollector) RecordQuery(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordClassify(time.Duration, error)   {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	RecognizeCount      atomic.Int64
	RecognizeErrors     atomic.Int64
	RecognizeTotalNanos atomic.Int64
	EmbedCount          atomic.Int64
	EmbedErrors         atomic.Int64
	EmbedTotalNanos     atomic.Int64
	QueryCount          atomic.Int64
	QueryErrors         atomic.Int64
	QueryCandidates     atomic.Int64
	ClassifyCount       atomic.Int64
	ClassifyErrors      atomic.Int64
}

// RecordRecognize implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRecognize(duration time.Duration, err error) {
	b.RecognizeCount.Add(1)
	b.RecognizeTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.RecognizeErrors.Add(1)
	}
}

// RecordEmbed implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEmbed(duration time.Duration, err error) {
	b.EmbedCount.Add(1)
	b.EmbedTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.EmbedErrors.Add(1)
	}
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(candidates int, duration time.Duration, err error) {
	b.QueryCount.Add(1)
	b.QueryCandidates.Add(int64(candidates))
	if err != nil {
		b.QueryErrors.Add(1)
	}
}

// RecordClassify implements MetricsCollector.
func (b *BasicMetricsCollector) RecordClassify(duration time.Duration, err error) {
	b.ClassifyCount.Add(1)
	if err != nil {
		b.ClassifyErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		RecognizeCount:    b.RecognizeCount.Load(),
		RecognizeErrors:   b.RecognizeErrors.Load(),
		RecognizeAvgNanos: b.avgRecognizeNanos(),
		EmbedCount:        b.EmbedCount.Load(),
		EmbedErrors:       b.EmbedErrors.Load(),
		EmbedAvgNanos:     b.avgEmbedNanos(),
		QueryCount:        b.QueryCount.Load(),
		QueryErrors:       b.QueryErrors.Load(),
		QueryCandidates:   b.QueryCandidates.Load(),
		ClassifyCount:     b.ClassifyCount.Load(),
		ClassifyErrors:    b.ClassifyErrors.Load(),
	}
}

func (b *BasicMetricsCollector) avgRecognizeNanos() int64 {
	count := b.RecognizeCount.Load()
	if count == 0 {
		return 0
	}
	return b.RecognizeTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) avgEmbedNanos() int64 {
	count := b.EmbedCount.Load()
	if count == 0 {
		return 0
	}
	return b.EmbedTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	RecognizeCount    int64
	RecognizeErrors   int64
	RecognizeAvgNanos int64
	EmbedCount        int64
	EmbedErrors       int64
	EmbedAvgNanos     int64
	QueryCount        int64
	QueryErrors       int64
	QueryCandidates   int64
	ClassifyCount     int64
	ClassifyErrors    int64
}
