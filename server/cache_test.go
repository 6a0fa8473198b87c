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
	"os"
	"testing"
	"time"

	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/config"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/logics"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/model/fpgrowth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResult() *logics.Result {
	return &logics.Result{
		Recommendations: []logics.Recommendation{{
			Entry:     phone(3, "OnePlus", "Android", 8, 57000),
			Price:     57000,
			Estimated: false,
			Score:     0.95,
			MatchedRules: []fpgrowth.Rule{{
				Antecedent: []string{"ram=8-12"},
				Consequent: []string{"os=android"},
				Support:    0.5,
				Confidence: 1,
				Lift:       1.5,
			}},
		}},
		TotalFound: 1,
	}
}

func testResultCache(t *testing.T, cache ResultCache) {
	ctx := context.Background()
	_, ok := cache.Get(ctx, "1/missing")
	assert.False(t, ok)
	cache.Set(ctx, "1/60000//////", testResult())
	result, ok := cache.Get(ctx, "1/60000//////")
	require.True(t, ok)
	assert.Equal(t, testResult(), result)
}

func TestOpenResultCache(t *testing.T) {
	cfg := config.GetDefaultConfig().Server
	cfg.CacheExpire = 0
	cache, err := OpenResultCache(cfg)
	assert.NoError(t, err)
	assert.Nil(t, cache)

	cfg.CacheExpire = time.Minute
	cfg.CacheStore = "memcached://127.0.0.1:11211"
	_, err = OpenResultCache(cfg)
	assert.Error(t, err)
}

func TestLocalCache(t *testing.T) {
	cache, err := OpenResultCache(config.GetDefaultConfig().Server)
	require.NoError(t, err)
	require.IsType(t, &LocalCache{}, cache)
	testResultCache(t, cache)
	assert.NoError(t, cache.Close())
}

func TestRedisCache(t *testing.T) {
	redisURI := os.Getenv("REDIS_URI")
	if redisURI == "" {
		t.Skip("REDIS_URI is not set")
	}
	cfg := config.GetDefaultConfig().Server
	cfg.CacheStore = redisURI
	cache, err := OpenResultCache(cfg)
	require.NoError(t, err)
	require.IsType(t, &RedisCache{}, cache)
	testResultCache(t, cache)
	assert.NoError(t, cache.Close())
}
