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

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	config, err := LoadConfig("config.toml")
	require.NoError(t, err)

	// [database]
	assert.Equal(t, "csv://data/phones.csv", config.Database.CatalogStore)
	assert.Equal(t, "", config.Database.TablePrefix)
	assert.Equal(t, "{{ brand }} {{ release_year }} Model", config.Database.NameTemplate)
	assert.Equal(t, "https://source.unsplash.com/300x400/?{{ brand }}+phone+{{ release_year }}", config.Database.ImageTemplate)
	// [server]
	assert.Equal(t, "0.0.0.0", config.Server.Host)
	assert.Equal(t, 5000, config.Server.Port)
	assert.Equal(t, time.Minute, config.Server.CacheExpire)
	assert.Equal(t, uint64(1024), config.Server.CacheSize)
	assert.Empty(t, config.Server.CacheStore)
	assert.Zero(t, config.Server.RateLimit)
	assert.Equal(t, int64(1), config.Server.RateBurst)
	// [master]
	assert.Equal(t, 24*time.Hour, config.Master.FitPeriod)
	assert.Equal(t, 4, config.Master.NumJobs)
	assert.Equal(t, uint(3), config.Master.LoadRetries)
	// [model]
	assert.Equal(t, 12, config.Model.MaxDepth)
	assert.Equal(t, 2, config.Model.MinSamplesLeaf)
	assert.Equal(t, 0.2, config.Model.HoldoutRatio)
	// [mining]
	assert.Equal(t, 0.05, config.Mining.MinSupport)
	assert.Equal(t, 0.5, config.Mining.MinConfidence)
	assert.Equal(t, 4, config.Mining.MaxItemsetSize)
	// [bands]
	assert.Equal(t, []float64{10000, 20000, 35000, 60000}, config.Bands.Price)
	assert.Equal(t, []float64{4, 6, 8, 12}, config.Bands.RAM)
	assert.Equal(t, []float64{6, 6.5}, config.Bands.ScreenSize)
	// [recommend]
	assert.Equal(t, 20, config.Recommend.MaxResults)
	assert.Equal(t, 1.0, config.Recommend.PriceWeight)
	assert.Equal(t, 0.5, config.Recommend.RuleWeight)
	assert.True(t, config.Recommend.Deduplicate)
	assert.Empty(t, config.Recommend.Filter)
	assert.Empty(t, config.Recommend.ScoreScript)
	// [tracing]
	assert.False(t, config.Tracing.EnableTracing)
	assert.Equal(t, "otlp", config.Tracing.Exporter)
	assert.Equal(t, "always_on", config.Tracing.Sampler)
	assert.Equal(t, 1.0, config.Tracing.Ratio)
}

func TestLoadDefaultConfig(t *testing.T) {
	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), config)
}

func TestBindEnv(t *testing.T) {
	t.Setenv("PHONEREC_CATALOG_STORE", "sqlite:///tmp/phones.db")
	t.Setenv("PHONEREC_SERVER_PORT", "8080")
	t.Setenv("PHONEREC_API_KEY", "secret")
	t.Setenv("PHONEREC_FIT_PERIOD", "1h")
	config, err := LoadConfig("config.toml")
	require.NoError(t, err)
	assert.Equal(t, "sqlite:///tmp/phones.db", config.Database.CatalogStore)
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "secret", config.Server.APIKey)
	assert.Equal(t, time.Hour, config.Master.FitPeriod)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	config := GetDefaultConfig()
	assert.NoError(t, config.Validate())

	config = GetDefaultConfig()
	config.Mining.MinSupport = 0
	assert.Error(t, config.Validate())

	config = GetDefaultConfig()
	config.Model.MinSamplesLeaf = 0
	assert.Error(t, config.Validate())

	config = GetDefaultConfig()
	config.Bands.RAM = []float64{8, 4}
	assert.Error(t, config.Validate())

	config = GetDefaultConfig()
	config.Bands.RAM = []float64{4, 4}
	assert.Error(t, config.Validate())

	config = GetDefaultConfig()
	config.Database.CatalogStore = ""
	assert.Error(t, config.Validate())

	config = GetDefaultConfig()
	config.Server.CacheStore = "memcached://127.0.0.1:11211"
	assert.Error(t, config.Validate())
	config.Server.CacheStore = "redis://127.0.0.1:6379/0"
	assert.NoError(t, config.Validate())
}

func TestLoadInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[recommend]\nmax_results = 0\n"), 0644))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestTracingConfig(t *testing.T) {
	config := GetDefaultConfig().Tracing
	tp, err := config.NewTracerProvider()
	require.NoError(t, err)
	assert.NotNil(t, tp)

	config.EnableTracing = true
	config.Exporter = "zipkin"
	config.CollectorEndpoint = "http://localhost:9411/api/v2/spans"
	config.Sampler = "trace_id_ratio"
	config.Ratio = 0.5
	tp, err = config.NewTracerProvider()
	require.NoError(t, err)
	assert.NoError(t, tp.Shutdown(context.Background()))

	config.Sampler = "unknown"
	_, err = config.NewTracerProvider()
	assert.True(t, errors.IsNotSupported(err))
}
