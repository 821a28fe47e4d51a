package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/callguard/callguard/pkg/domain/regulation"
	"github.com/callguard/callguard/pkg/infra/search"
)

const (
	vocabularyKey   = "callguard:regulation:subcategories"
	recordKeyPrefix = "callguard:regulation:record:"
)

// RegulationCache decorates a search.Index with a redis TTL cache. The facet
// vocabulary changes rarely but is needed on every reject, so concurrent
// refreshes are collapsed with singleflight. Cache errors are logged and the
// lookup falls through to the index.
type RegulationCache struct {
	index  search.Index
	client *redis.Client
	ttl    time.Duration
	sf     singleflight.Group
	logger *logrus.Logger
}

func NewRegulationCache(index search.Index, client *redis.Client, ttl time.Duration, logger *logrus.Logger) *RegulationCache {
	return &RegulationCache{
		index:  index,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *RegulationCache) Subcategories(ctx context.Context) ([]string, error) {
	if cached, ok := c.get(ctx, vocabularyKey); ok {
		var labels []string
		if err := json.Unmarshal(cached, &labels); err == nil {
			return labels, nil
		}
	}

	v, err, _ := c.sf.Do(vocabularyKey, func() (interface{}, error) {
		labels, err := c.index.Subcategories(ctx)
		if err != nil {
			return nil, err
		}
		c.put(ctx, vocabularyKey, labels)
		return labels, nil
	})
	if err != nil {
		return nil, err
	}
	labels, _ := v.([]string)
	return labels, nil
}

func (c *RegulationCache) TopBySubcategory(ctx context.Context, label string) (*regulation.Record, error) {
	key := recordKeyPrefix + label
	if cached, ok := c.get(ctx, key); ok {
		var record regulation.Record
		if err := json.Unmarshal(cached, &record); err == nil {
			return &record, nil
		}
	}

	record, err := c.index.TopBySubcategory(ctx, label)
	if err != nil {
		return nil, err
	}
	if record != nil {
		c.put(ctx, key, record)
	}
	return record, nil
}

func (c *RegulationCache) get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.WithError(err).WithField("key", key).Warn("regulation cache read failed")
		}
		return nil, false
	}
	return data, true
}

func (c *RegulationCache) put(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("regulation cache write failed")
	}
}
