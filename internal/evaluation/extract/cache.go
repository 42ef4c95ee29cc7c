package extract

import (
	"context"
	"errors"
	"time"

	"evaluation-workers/internal/common/logger"
	"evaluation-workers/internal/common/metrics"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "extract:text:"

// CachedExtractor memoizes extracted text in Redis keyed by content hash and
// format. Redis errors are logged and extraction proceeds uncached.
type CachedExtractor struct {
	next Extractor
	rdb  redis.Cmdable
	ttl  time.Duration
	log  logger.Logger
}

func NewCachedExtractor(next Extractor, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *CachedExtractor {
	return &CachedExtractor{
		next: next,
		rdb:  rdb,
		ttl:  ttl,
		log:  log.WithFields(map[string]interface{}{"component": "extract-cache"}),
	}
}

func cacheKey(doc Document) string {
	return cacheKeyPrefix + doc.Ext() + ":" + doc.Fingerprint()
}

func (c *CachedExtractor) Extract(ctx context.Context, doc Document) (string, error) {
	key := cacheKey(doc)

	cached, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		metrics.ExtractionCacheRequests.WithLabelValues("hit").Inc()
		c.log.Debug("extraction cache hit", map[string]interface{}{"document": doc.Name})
		return cached, nil
	case errors.Is(err, redis.Nil):
		metrics.ExtractionCacheRequests.WithLabelValues("miss").Inc()
	default:
		metrics.ExtractionCacheRequests.WithLabelValues("error").Inc()
		c.log.Warn("extraction cache read failed", map[string]interface{}{"document": doc.Name, "error": err})
	}

	text, err := c.next.Extract(ctx, doc)
	if err != nil {
		return "", err
	}

	if err := c.rdb.Set(ctx, key, text, c.ttl).Err(); err != nil {
		c.log.Warn("extraction cache write failed", map[string]interface{}{"document": doc.Name, "error": err})
	}
	return text, nil
}
