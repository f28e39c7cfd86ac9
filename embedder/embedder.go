// Package embedder defines the external image-encoding collaborator: a
// pretrained vision encoder that turns image bytes into fixed-dimension,
// unit-norm embedding vectors. The encoder itself is remote; this package
// holds its contract, the HTTP client and the payload helpers.
package embedder

import (
	"context"
	"errors"
)

var (
	// ErrTimeout is returned when the encoder did not answer within its
	// deadline. The core never retries; the caller owns retry policy.
	ErrTimeout = errors.New("embedder timed out")

	// ErrUnavailable is returned when the encoder could not be reached or
	// answered with a server error.
	ErrUnavailable = errors.New("embedder unavailable")

	// ErrMalformedImage is returned when the input payload cannot be
	// decoded. Never retryable.
	ErrMalformedImage = errors.New("malformed image payload")

	// ErrBadEmbedding is returned when the encoder answered with an empty
	// or non-finite vector.
	ErrBadEmbedding = errors.New("embedder returned invalid embedding")
)

// Embedder turns image bytes into unit-norm embedding vectors of a fixed
// dimension. Implementations must be safe for concurrent use.
type Embedder interface {
	// Embed encodes a single image.
	Embed(ctx context.Context, image []byte) ([]float32, error)

	// EmbedBatch encodes a batch of images, preserving order.
	EmbedBatch(ctx context.Context, images [][]byte) ([][]float32, error)
}

// Func adapts a function to the Embedder interface. Useful for tests and
// local encoders.
type Func func(ctx context.Context, image []byte) ([]float32, error)

// Embed implements Embedder.
func (f Func) Embed(ctx context.Context, image []byte) ([]float32, error) {
	return f(ctx, image)
}

// EmbedBatch implements Embedder by encoding sequentially.
func (f Func) EmbedBatch(ctx context.Context, images [][]byte) ([][]float32, error) {
	out := make([][]float32, len(images))
	for i, img := range images {
		vec, err := f(ctx, img)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}
