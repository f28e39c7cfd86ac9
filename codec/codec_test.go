package codec

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "go-json", "gob"} {
		c, ok := ByName(name)
		require.True(t, ok, name)
		assert.Equal(t, name, c.Name())
	}

	_, ok := ByName("msgpack")
	assert.False(t, ok)
}

func TestCodecRoundTrip(t *testing.T) {
	type payload struct {
		Label     string
		Embedding []float32
	}
	in := payload{Label: "Gates Hall", Embedding: []float32{0.1, -0.2, 0.97}}

	for _, c := range []Codec{JSON{}, GoJSON{}, Gob{}} {
		t.Run(c.Name(), func(t *testing.T) {
			data, err := c.Marshal(in)
			require.NoError(t, err)

			var out payload
			require.NoError(t, c.Unmarshal(data, &out))
			assert.Equal(t, in, out)
		})
	}
}

func TestJSONCodecsAgree(t *testing.T) {
	v := map[string]any{"building": "Hunt Library", "confidence": 0.91}

	std := MustMarshal(JSON{}, v)
	fast := MustMarshal(GoJSON{}, v)
	assert.JSONEq(t, string(std), string(fast))
}

func TestCompressionRoundTrip(t *testing.T) {
	input := bytes.Repeat([]byte("embedding snapshot payload "), 256)

	for _, name := range []string{"none", "zstd", "lz4"} {
		t.Run(name, func(t *testing.T) {
			comp, ok := CompressionByName(name)
			require.True(t, ok)
			assert.Equal(t, name, comp.Name())

			var buf bytes.Buffer
			w, err := comp.NewWriter(&buf)
			require.NoError(t, err)
			_, err = w.Write(input)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			r, err := comp.NewReader(bytes.NewReader(buf.Bytes()))
			require.NoError(t, err)
			out, err := io.ReadAll(r)
			require.NoError(t, err)
			require.NoError(t, r.Close())

			assert.Equal(t, input, out)
		})
	}

	_, ok := CompressionByName("snappy")
	assert.False(t, ok)
}
