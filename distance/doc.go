// Package distance provides the vector kernels used by the recognition
// engine: dot product, squared L2 and L2 normalization, plus finiteness
// checks for input validation.
package distance
