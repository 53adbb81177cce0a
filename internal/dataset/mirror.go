package dataset

import (
	"bytes"
	"context"
	"fmt"

	"github.com/parquet-go/parquet-go"
)

// EnsureMirrors writes a parquet mirror for every raw source file that does
// not have one yet. Mirrors are write-once: once present they are trusted
// until deleted, matching a static archival dataset. force rebuilds them
// anyway. A mirror that cannot be written is logged and skipped; readers
// still succeed off the raw file.
func (r *Reader) EnsureMirrors(ctx context.Context, force bool) error {
	for _, src := range AllSources() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.ensureMirror(ctx, src, force); err != nil {
			r.metrics.MirrorFailed()
			r.log.Warn("mirror not written", "source", src, "error", err)
		}
	}
	return nil
}

func (r *Reader) ensureMirror(ctx context.Context, src Source, force bool) error {
	switch src {
	case Orders:
		return mirrorSource(ctx, r, src, orderFromRow, force)
	case Items:
		return mirrorSource(ctx, r, src, itemFromRow, force)
	case Payments:
		return mirrorSource(ctx, r, src, paymentFromRow, force)
	case Reviews:
		return mirrorSource(ctx, r, src, reviewFromRow, force)
	case Customers:
		return mirrorSource(ctx, r, src, customerFromRow, force)
	case Products:
		return mirrorSource(ctx, r, src, productFromRow, force)
	case Sellers:
		return mirrorSource(ctx, r, src, sellerFromRow, force)
	default:
		return fmt.Errorf("unknown source %q", src)
	}
}

// mirrorSource reads the raw CSV form of src and writes it back as parquet.
// No raw file means nothing to mirror; an existing mirror is kept as is.
func mirrorSource[T any](ctx context.Context, r *Reader, src Source, conv converter[T], force bool) error {
	if !force && r.exists(ctx, src.MirrorName()) {
		r.metrics.MirrorSkipped()
		return nil
	}

	rows, found, err := readRaw(ctx, r, src, conv)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	var buf bytes.Buffer
	if err := parquet.Write[T](&buf, rows, parquet.Compression(&parquet.Snappy)); err != nil {
		return fmt.Errorf("encode %s: %w", src.MirrorName(), err)
	}

	w, err := r.bucket.NewWriter(ctx, src.MirrorName(), nil)
	if err != nil {
		return fmt.Errorf("create %s: %w", src.MirrorName(), err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		w.Close()
		return fmt.Errorf("write %s: %w", src.MirrorName(), err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close %s: %w", src.MirrorName(), err)
	}

	r.metrics.MirrorWritten()
	r.log.Info("mirror written", "source", src, "rows", len(rows))
	return nil
}
