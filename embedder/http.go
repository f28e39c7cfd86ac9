package embedder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/hupe1980/facade/distance"
)

// DefaultTimeout bounds a single encoding request.
const DefaultTimeout = 30 * time.Second

// HTTPOptions configures an HTTPEmbedder.
type HTTPOptions struct {
	// Timeout per request. Defaults to DefaultTimeout.
	Timeout time.Duration

	// HTTPClient overrides the underlying client. Its own Timeout is
	// left untouched; the per-request deadline still applies.
	HTTPClient *http.Client

	// Limiter throttles outgoing requests when set.
	Limiter *rate.Limiter

	// Logger for request diagnostics. Defaults to a discarding logger.
	Logger *slog.Logger
}

// HTTPEmbedder calls a remote vision encoder over HTTP. A request POSTs
// {"imageBase64": ...} and the encoder answers {"embedding": [...]} with a
// unit-norm vector. Failures map onto the package's typed errors so callers
// can distinguish timeouts from hard faults. No retries are attempted.
type HTTPEmbedder struct {
	endpoint string
	client   *http.Client
	timeout  time.Duration
	limiter  *rate.Limiter
	logger   *slog.Logger
}

var _ Embedder = (*HTTPEmbedder)(nil)

// NewHTTPEmbedder creates an HTTPEmbedder for the given endpoint URL.
func NewHTTPEmbedder(endpoint string, optFns ...func(o *HTTPOptions)) *HTTPEmbedder {
	opts := HTTPOptions{
		Timeout:    DefaultTimeout,
		HTTPClient: http.DefaultClient,
		Logger:     slog.New(slog.DiscardHandler),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &HTTPEmbedder{
		endpoint: endpoint,
		client:   opts.HTTPClient,
		timeout:  opts.Timeout,
		limiter:  opts.Limiter,
		logger:   opts.Logger,
	}
}

type embedRequest struct {
	ImageBase64 string `json:"imageBase64"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
	Error     string    `json:"error,omitempty"`
}

// Embed encodes a single image.
func (e *HTTPEmbedder) Embed(ctx context.Context, image []byte) ([]float32, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrMalformedImage)
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	body, err := json.Marshal(embedRequest{ImageBase64: EncodePayload(image)})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, e.translate(err)
	}
	defer resp.Body.Close()

	e.logger.Debug("embedder request", "status", resp.StatusCode, "duration", time.Since(start))

	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, fmt.Errorf("%w: encoder rejected image (status %d)", ErrMalformedImage, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: undecodable response: %v", ErrBadEmbedding, err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, out.Error)
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("%w: empty vector", ErrBadEmbedding)
	}
	if !distance.IsFinite(out.Embedding) {
		return nil, fmt.Errorf("%w: non-finite vector", ErrBadEmbedding)
	}

	return out.Embedding, nil
}

// EmbedBatch encodes images one request at a time, preserving order. The
// limiter, when configured, paces the whole batch.
func (e *HTTPEmbedder) EmbedBatch(ctx context.Context, images [][]byte) ([][]float32, error) {
	out := make([][]float32, len(images))
	for i, img := range images {
		vec, err := e.Embed(ctx, img)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}

// translate maps transport errors onto the package's typed errors.
func (e *HTTPEmbedder) translate(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	if errors.Is(err, context.Canceled) {
		return err
	}

	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
