package embedder

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePayload(t *testing.T) {
	raw := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	plain := base64.StdEncoding.EncodeToString(raw)

	t.Run("Plain", func(t *testing.T) {
		got, err := DecodePayload(plain)
		require.NoError(t, err)
		assert.Equal(t, raw, got)
	})

	t.Run("DataURL", func(t *testing.T) {
		got, err := DecodePayload("data:image/jpeg;base64," + plain)
		require.NoError(t, err)
		assert.Equal(t, raw, got)
	})

	t.Run("Invalid", func(t *testing.T) {
		_, err := DecodePayload("not-base64!!!")
		require.ErrorIs(t, err, ErrMalformedImage)
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := DecodePayload("")
		require.ErrorIs(t, err, ErrMalformedImage)
	})
}

func TestHTTPEmbedderEmbed(t *testing.T) {
	image := []byte("jpeg-bytes")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		got, err := base64.StdEncoding.DecodeString(req.ImageBase64)
		require.NoError(t, err)
		assert.Equal(t, image, got)

		json.NewEncoder(w).Encode(embedResponse{Embedding: []float32{0.6, 0.8}})
	}))
	defer srv.Close()

	e := NewHTTPEmbedder(srv.URL)
	vec, err := e.Embed(context.Background(), image)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.6, 0.8}, vec)
}

func TestHTTPEmbedderErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("Timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.Copy(io.Discard, r.Body)
			<-r.Context().Done()
		}))
		defer srv.Close()

		e := NewHTTPEmbedder(srv.URL, func(o *HTTPOptions) {
			o.Timeout = 30 * time.Millisecond
		})
		_, err := e.Embed(ctx, []byte("img"))
		require.ErrorIs(t, err, ErrTimeout)
	})

	t.Run("ServerError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := NewHTTPEmbedder(srv.URL).Embed(ctx, []byte("img"))
		require.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("RejectedImage", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer srv.Close()

		_, err := NewHTTPEmbedder(srv.URL).Embed(ctx, []byte("img"))
		require.ErrorIs(t, err, ErrMalformedImage)
	})

	t.Run("Unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		_, err := NewHTTPEmbedder(srv.URL).Embed(ctx, []byte("img"))
		require.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("EmptyVector", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(embedResponse{})
		}))
		defer srv.Close()

		_, err := NewHTTPEmbedder(srv.URL).Embed(ctx, []byte("img"))
		require.ErrorIs(t, err, ErrBadEmbedding)
	})

	t.Run("EmptyImage", func(t *testing.T) {
		_, err := NewHTTPEmbedder("http://unused").Embed(ctx, nil)
		require.ErrorIs(t, err, ErrMalformedImage)
	})
}

func TestHTTPEmbedderEmbedBatch(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(embedResponse{Embedding: []float32{float32(calls), 0}})
	}))
	defer srv.Close()

	e := NewHTTPEmbedder(srv.URL)
	vecs, err := e.EmbedBatch(context.Background(), [][]byte{[]byte("a"), []byte("b"), []byte("c")})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, []float32{1, 0}, vecs[0])
	assert.Equal(t, []float32{3, 0}, vecs[2])
}

func TestFuncEmbedder(t *testing.T) {
	f := Func(func(_ context.Context, image []byte) ([]float32, error) {
		return []float32{float32(len(image)), 0}, nil
	})

	vecs, err := f.EmbedBatch(context.Background(), [][]byte{[]byte("x"), []byte("xy")})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {2, 0}}, vecs)
}
