package store

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/hupe1980/facade/blobstore"
	"github.com/hupe1980/facade/codec"
	"github.com/hupe1980/facade/model"
)

const (
	snapshotMagic   = "facade-snapshot"
	snapshotVersion = 1
)

// snapshotHeader is the uncompressed first line of a snapshot blob. It
// makes snapshots self-describing: the codec and compression used to write
// the body are recorded by name and resolved on load.
type snapshotHeader struct {
	Magic       string `json:"magic"`
	Version     int    `json:"version"`
	Codec       string `json:"codec"`
	Compression string `json:"compression"`
	Dimension   int    `json:"dimension"`
	Count       int    `json:"count"`
}

// SnapshotOptions controls how a snapshot is written.
type SnapshotOptions struct {
	// Codec encodes the record body. Defaults to codec.Default.
	Codec codec.Codec

	// Compression wraps the record body. Defaults to zstd.
	Compression codec.Compression
}

// SaveSnapshot writes the full contents of src to the named blob. The
// snapshot is a point-in-time copy; the acceleration index is not included
// since it is regenerable from the records.
func SaveSnapshot(ctx context.Context, src Store, bs blobstore.BlobStore, name string, opts SnapshotOptions) error {
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}
	if opts.Compression == nil {
		opts.Compression = codec.Zstd{}
	}

	recs, err := src.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	header := snapshotHeader{
		Magic:       snapshotMagic,
		Version:     snapshotVersion,
		Codec:       opts.Codec.Name(),
		Compression: opts.Compression.Name(),
		Dimension:   src.Dimension(),
		Count:       len(recs),
	}
	headerLine, err := (codec.JSON{}).Marshal(header)
	if err != nil {
		return err
	}

	body, err := opts.Codec.Marshal(recs)
	if err != nil {
		return fmt.Errorf("snapshot: encode records: %w", err)
	}

	w, err := bs.Create(ctx, name)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if _, err := w.Write(append(headerLine, '\n')); err != nil {
		_ = w.Close()
		return err
	}

	cw, err := opts.Compression.NewWriter(w)
	if err != nil {
		_ = w.Close()
		return err
	}
	if _, err := cw.Write(body); err != nil {
		_ = cw.Close()
		_ = w.Close()
		return err
	}
	if err := cw.Close(); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// LoadSnapshot reads the named snapshot blob and inserts its records into
// dst as one atomic batch.
func LoadSnapshot(ctx context.Context, dst Store, bs blobstore.BlobStore, name string) (int, error) {
	blob, err := bs.Open(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("snapshot: %w", err)
	}
	defer blob.Close()

	data, err := blobstore.ReadAll(ctx, blob)
	if err != nil {
		return 0, fmt.Errorf("snapshot: %w", err)
	}

	br := bufio.NewReader(bytes.NewReader(data))
	headerLine, err := br.ReadBytes('\n')
	if err != nil {
		return 0, fmt.Errorf("snapshot: malformed header: %w", err)
	}

	var header snapshotHeader
	if err := (codec.JSON{}).Unmarshal(headerLine, &header); err != nil {
		return 0, fmt.Errorf("snapshot: malformed header: %w", err)
	}
	if header.Magic != snapshotMagic {
		return 0, fmt.Errorf("snapshot: bad magic %q", header.Magic)
	}
	if header.Version != snapshotVersion {
		return 0, fmt.Errorf("snapshot: unsupported version %d", header.Version)
	}

	c, ok := codec.ByName(header.Codec)
	if !ok {
		return 0, fmt.Errorf("snapshot: unknown codec %q", header.Codec)
	}
	comp, ok := codec.CompressionByName(header.Compression)
	if !ok {
		return 0, fmt.Errorf("snapshot: unknown compression %q", header.Compression)
	}

	cr, err := comp.NewReader(br)
	if err != nil {
		return 0, err
	}
	defer cr.Close()

	body, err := io.ReadAll(cr)
	if err != nil {
		return 0, fmt.Errorf("snapshot: decompress: %w", err)
	}

	var recs []model.EmbeddingRecord
	if err := c.Unmarshal(body, &recs); err != nil {
		return 0, fmt.Errorf("snapshot: decode records: %w", err)
	}
	if len(recs) != header.Count {
		return 0, fmt.Errorf("snapshot: record count %d does not match header %d", len(recs), header.Count)
	}

	if _, err := dst.InsertBatch(ctx, recs); err != nil {
		return 0, err
	}
	return len(recs), nil
}
