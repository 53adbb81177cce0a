package facts

import (
	"context"
	"sync"
	"time"

	"github.com/pickrace/olist-streamlit-bi/internal/dataset"
	"github.com/pickrace/olist-streamlit-bi/internal/metrics"
)

// Cache memoizes built facts tables per Options for the life of the
// process, so repeated dashboard interactions do not re-run the pipeline.
// There is no invalidation: the backing dataset is treated as immutable
// while the process runs.
type Cache struct {
	reader  *dataset.Reader
	metrics *metrics.Metrics

	mu     sync.Mutex
	tables map[Options]Table
}

// NewCache creates a facts cache over one dataset reader.
func NewCache(r *dataset.Reader, m *metrics.Metrics) *Cache {
	return &Cache{
		reader:  r,
		metrics: m,
		tables:  make(map[Options]Table),
	}
}

// Facts returns the facts table for the given options, building it on first
// use. Concurrent callers for the same options block until the single build
// completes.
func (c *Cache) Facts(ctx context.Context, opts Options) (Table, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.tables[opts]; ok {
		c.metrics.CacheHit()
		return t, nil
	}
	c.metrics.CacheMiss()

	start := time.Now()
	t, err := Build(ctx, c.reader, opts)
	if err != nil {
		c.metrics.ObserveBuild("error", time.Since(start), 0)
		return nil, err
	}

	outcome := "ok"
	if t.Empty() {
		outcome = "empty"
	}
	c.metrics.ObserveBuild(outcome, time.Since(start), len(t))

	c.tables[opts] = t
	return t, nil
}
