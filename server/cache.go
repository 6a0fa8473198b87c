// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/base/log"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/config"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/logics"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/storage"
	"github.com/jellydator/ttlcache/v3"
	"github.com/juju/errors"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "phonerec/recommend/"

// ResultCache stores recommendation results. A cache never fails a request: errors are logged
// and treated as misses.
type ResultCache interface {
	Get(ctx context.Context, key string) (*logics.Result, bool)
	Set(ctx context.Context, key string, result *logics.Result)
	Close() error
}

// OpenResultCache opens the cache configured by cfg. Nil is returned if caching is disabled.
func OpenResultCache(cfg config.ServerConfig) (ResultCache, error) {
	if cfg.CacheExpire <= 0 {
		return nil, nil
	}
	if strings.HasPrefix(cfg.CacheStore, storage.RedisPrefix) || strings.HasPrefix(cfg.CacheStore, storage.RedissPrefix) {
		opt, err := redis.ParseURL(cfg.CacheStore)
		if err != nil {
			return nil, errors.Trace(err)
		}
		client := redis.NewClient(opt)
		if err = redisotel.InstrumentTracing(client); err != nil {
			log.Logger().Error("failed to add tracing for redis", zap.Error(err))
			return nil, errors.Trace(err)
		}
		return &RedisCache{client: client, ttl: cfg.CacheExpire}, nil
	} else if cfg.CacheStore != "" {
		return nil, errors.NotSupportedf("cache store %s", cfg.CacheStore)
	}
	opts := []ttlcache.Option[string, *logics.Result]{
		ttlcache.WithTTL[string, *logics.Result](cfg.CacheExpire),
		ttlcache.WithDisableTouchOnHit[string, *logics.Result](),
	}
	if cfg.CacheSize > 0 {
		opts = append(opts, ttlcache.WithCapacity[string, *logics.Result](cfg.CacheSize))
	}
	c := &LocalCache{cache: ttlcache.New(opts...)}
	go c.cache.Start()
	return c, nil
}

// LocalCache keeps results in process memory.
type LocalCache struct {
	cache *ttlcache.Cache[string, *logics.Result]
}

func (c *LocalCache) Get(_ context.Context, key string) (*logics.Result, bool) {
	if item := c.cache.Get(key); item != nil {
		return item.Value(), true
	}
	return nil, false
}

func (c *LocalCache) Set(_ context.Context, key string, result *logics.Result) {
	c.cache.Set(key, result, ttlcache.DefaultTTL)
}

func (c *LocalCache) Close() error {
	c.cache.Stop()
	return nil
}

// RedisCache shares results between replicas.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func (c *RedisCache) Get(ctx context.Context, key string) (*logics.Result, bool) {
	data, err := c.client.Get(ctx, cacheKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	} else if err != nil {
		log.Logger().Warn("failed to read cached result", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	var result logics.Result
	if err = json.Unmarshal(data, &result); err != nil {
		log.Logger().Warn("failed to decode cached result", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &result, true
}

func (c *RedisCache) Set(ctx context.Context, key string, result *logics.Result) {
	data, err := json.Marshal(result)
	if err != nil {
		log.Logger().Warn("failed to encode result", zap.String("key", key), zap.Error(err))
		return
	}
	if err = c.client.Set(ctx, cacheKeyPrefix+key, data, c.ttl).Err(); err != nil {
		log.Logger().Warn("failed to cache result", zap.String("key", key), zap.Error(err))
	}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
