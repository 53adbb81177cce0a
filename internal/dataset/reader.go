package dataset

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/parquet-go/parquet-go"
	"gocloud.dev/blob"

	"github.com/pickrace/olist-streamlit-bi/internal/logging"
	"github.com/pickrace/olist-streamlit-bi/internal/metrics"
)

// Reader loads logical sources from the data bucket. Reads prefer the
// parquet mirror when one exists; a source with no backing file yields an
// empty slice, never an error. Joins against an empty slice degrade
// gracefully downstream.
type Reader struct {
	bucket  *blob.Bucket
	metrics *metrics.Metrics
	log     *slog.Logger
}

// Option configures a Reader.
type Option func(*Reader)

// WithMetrics attaches pipeline metrics to the reader.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Reader) { r.metrics = m }
}

// NewReader creates a reader over an open data bucket.
func NewReader(bucket *blob.Bucket, opts ...Option) *Reader {
	r := &Reader{
		bucket: bucket,
		log:    logging.Component("dataset"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Orders reads the orders table.
func (r *Reader) Orders(ctx context.Context) ([]OrderRow, error) {
	return readSource(ctx, r, Orders, orderFromRow)
}

// Items reads the order items table.
func (r *Reader) Items(ctx context.Context) ([]ItemRow, error) {
	return readSource(ctx, r, Items, itemFromRow)
}

// Payments reads the order payments table.
func (r *Reader) Payments(ctx context.Context) ([]PaymentRow, error) {
	return readSource(ctx, r, Payments, paymentFromRow)
}

// Reviews reads the order reviews table.
func (r *Reader) Reviews(ctx context.Context) ([]ReviewRow, error) {
	return readSource(ctx, r, Reviews, reviewFromRow)
}

// CustomerDim reads the customer dimension.
func (r *Reader) CustomerDim(ctx context.Context) ([]CustomerRow, error) {
	return readSource(ctx, r, Customers, customerFromRow)
}

// ProductDim reads the product dimension.
func (r *Reader) ProductDim(ctx context.Context) ([]ProductRow, error) {
	return readSource(ctx, r, Products, productFromRow)
}

// SellerDim reads the seller dimension.
func (r *Reader) SellerDim(ctx context.Context) ([]SellerRow, error) {
	return readSource(ctx, r, Sellers, sellerFromRow)
}

func (r *Reader) exists(ctx context.Context, key string) bool {
	ok, err := r.bucket.Exists(ctx, key)
	return err == nil && ok
}

// readSource resolves one logical source: mirror first, then raw CSV
// (optionally gzipped), then empty.
func readSource[T any](ctx context.Context, r *Reader, src Source, conv converter[T]) ([]T, error) {
	if rows, ok := readMirror[T](ctx, r, src); ok {
		r.metrics.SourceRead(string(src), "parquet")
		return rows, nil
	}

	rows, found, err := readRaw(ctx, r, src, conv)
	if err != nil {
		return nil, err
	}
	if !found {
		r.metrics.SourceRead(string(src), "missing")
		return nil, nil
	}
	r.metrics.SourceRead(string(src), "csv")
	return rows, nil
}

// readMirror attempts a mirrored read. A mirror that is absent or fails to
// decode reports ok=false so the caller falls back to the raw file; the
// mirror must never be the reason a read fails.
func readMirror[T any](ctx context.Context, r *Reader, src Source) ([]T, bool) {
	key := src.MirrorName()
	if !r.exists(ctx, key) {
		return nil, false
	}

	data, err := r.bucket.ReadAll(ctx, key)
	if err != nil {
		r.log.Warn("mirror unreadable, falling back to raw file", "source", src, "error", err)
		return nil, false
	}

	rows, err := parquet.Read[T](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		r.log.Warn("mirror decode failed, falling back to raw file", "source", src, "error", err)
		return nil, false
	}
	return rows, true
}

// readRaw reads and parses the raw CSV form. found is false when no raw
// file exists. A file that exists but cannot be parsed is a real error.
func readRaw[T any](ctx context.Context, r *Reader, src Source, conv converter[T]) (rows []T, found bool, err error) {
	var data []byte

	switch {
	case r.exists(ctx, src.CSVName()):
		data, err = r.bucket.ReadAll(ctx, src.CSVName())
		if err != nil {
			return nil, true, fmt.Errorf("read %s: %w", src.CSVName(), err)
		}
	case r.exists(ctx, src.GzipName()):
		raw, err := r.bucket.ReadAll(ctx, src.GzipName())
		if err != nil {
			return nil, true, fmt.Errorf("read %s: %w", src.GzipName(), err)
		}
		data, err = gunzip(raw)
		if err != nil {
			return nil, true, fmt.Errorf("read %s: %w", src.GzipName(), err)
		}
	default:
		return nil, false, nil
	}

	header, records, err := parseCSV(data)
	if err != nil {
		return nil, true, fmt.Errorf("parse %s: %w", src.CSVName(), err)
	}
	return convertRows(header, records, conv), true, nil
}
