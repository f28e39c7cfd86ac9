// Package testutil provides testing helpers: seeded generation of random
// unit-norm embeddings and small corpus fixtures.
//
// This package is intended for use in tests and benchmarks only.
package testutil
