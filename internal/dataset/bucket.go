package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // local driver
	_ "gocloud.dev/blob/gcsblob"  // GCS driver
	_ "gocloud.dev/blob/s3blob"   // S3 driver

	"github.com/pickrace/olist-streamlit-bi/internal/config"
)

// OpenBucket opens the configured data location as a blob bucket. The local
// backend maps a directory; s3/gcs allow hosting the dataset remotely.
func OpenBucket(ctx context.Context, cfg config.DataConfig) (*blob.Bucket, error) {
	var (
		bucket *blob.Bucket
		err    error
	)

	switch cfg.Backend {
	case "", "local":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("data dir required for local backend")
		}
		if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
			return nil, fmt.Errorf("create data dir %s: %w", cfg.Dir, err)
		}
		abs, err := filepath.Abs(cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("resolve data dir %s: %w", cfg.Dir, err)
		}
		bucket, err = blob.OpenBucket(ctx, "file://"+abs)
		if err != nil {
			return nil, fmt.Errorf("open data dir %s: %w", abs, err)
		}

	case "s3":
		url := fmt.Sprintf("s3://%s", cfg.Bucket)
		if cfg.S3Region != "" {
			url += "?region=" + cfg.S3Region
		}
		if cfg.S3Endpoint != "" {
			sep := "?"
			if cfg.S3Region != "" {
				sep = "&"
			}
			url += sep + "endpoint=" + cfg.S3Endpoint + "&s3ForcePathStyle=true"
		}
		bucket, err = blob.OpenBucket(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("open s3 bucket %s: %w", cfg.Bucket, err)
		}

	case "gcs":
		bucket, err = blob.OpenBucket(ctx, "gs://"+cfg.Bucket)
		if err != nil {
			return nil, fmt.Errorf("open gcs bucket %s: %w", cfg.Bucket, err)
		}

	default:
		return nil, fmt.Errorf("unknown data backend: %s", cfg.Backend)
	}

	if cfg.Prefix != "" {
		bucket = blob.PrefixedBucket(bucket, cfg.Prefix)
	}
	return bucket, nil
}
