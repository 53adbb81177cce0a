package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.Data.Backend)
	assert.Equal(t, "./data", cfg.Data.Dir)
	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Equal(t, 0, cfg.Facts.MaxOrders)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "olist-bi.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data:
  backend: s3
  bucket: olist-data
  prefix: raw/
  s3_region: us-east-1
facts:
  max_orders: 5000
  year: 2018
server:
  listen: ":9090"
logging:
  format: json
  level: debug
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "s3", cfg.Data.Backend)
	assert.Equal(t, "olist-data", cfg.Data.Bucket)
	assert.Equal(t, "raw/", cfg.Data.Prefix)
	assert.Equal(t, 5000, cfg.Facts.MaxOrders)
	assert.Equal(t, 2018, cfg.Facts.Year)
	assert.Equal(t, ":9090", cfg.Server.Listen)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("OLIST_DATA_DIR", "/srv/olist")
	t.Setenv("OLIST_MAX_ORDERS", "123")
	t.Setenv("OLIST_LOG_LEVEL", "warn")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/srv/olist", cfg.Data.Dir)
	assert.Equal(t, 123, cfg.Facts.MaxOrders)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadBadYAMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "olist-bi.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data: [not a map"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())

	cfg.Data.Backend = "s3"
	cfg.Data.Bucket = ""
	assert.Error(t, cfg.Validate())

	cfg.Data.Bucket = "b"
	assert.NoError(t, cfg.Validate())

	cfg.Data.Backend = "ftp"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Facts.MaxOrders = -1
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Data.Dir = ""
	assert.Error(t, cfg.Validate())
}
