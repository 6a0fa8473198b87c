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
	"os"
	"slices"
	"strings"
	"time"

	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/common/util"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/storage"
	"github.com/go-viper/mapstructure/v2"
	"github.com/juju/errors"
	"github.com/spf13/viper"
)

// Config is the configuration of the price estimation and recommendation service.
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server"`
	Master    MasterConfig    `mapstructure:"master"`
	Model     ModelConfig     `mapstructure:"model"`
	Mining    MiningConfig    `mapstructure:"mining"`
	Bands     BandsConfig     `mapstructure:"bands"`
	Recommend RecommendConfig `mapstructure:"recommend"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

type DatabaseConfig struct {
	CatalogStore string `mapstructure:"catalog_store" validate:"required"`
	TablePrefix  string `mapstructure:"table_prefix"`
	// Templates of display names and image links of entries that miss them, rendered with
	// brand, release_year, operating_system, ram, storage and id.
	NameTemplate  string `mapstructure:"name_template" validate:"required"`
	ImageTemplate string `mapstructure:"image_template"`
}

type ServerConfig struct {
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port" validate:"gte=1,lte=65535"`
	APIKey      string        `mapstructure:"api_key"`
	CacheExpire time.Duration `mapstructure:"cache_expire" validate:"gte=0"`
	CacheSize   uint64        `mapstructure:"cache_size"`
	CacheStore  string        `mapstructure:"cache_store"`                 // empty caches in process
	RateLimit   float64       `mapstructure:"rate_limit" validate:"gte=0"` // requests per second, zero means unlimited
	RateBurst   int64         `mapstructure:"rate_burst" validate:"gte=0"`
}

type MasterConfig struct {
	FitPeriod   time.Duration `mapstructure:"fit_period" validate:"gte=0"` // zero disables periodic refit
	NumJobs     int           `mapstructure:"n_jobs" validate:"gte=1"`
	LoadRetries uint          `mapstructure:"load_retries" validate:"gte=1"`
}

type ModelConfig struct {
	MaxDepth       int     `mapstructure:"max_depth" validate:"gte=1"`
	MinSamplesLeaf int     `mapstructure:"min_samples_leaf" validate:"gte=1"`
	HoldoutRatio   float64 `mapstructure:"holdout_ratio" validate:"gte=0,lt=1"`
	RandomState    int64   `mapstructure:"random_state"`
}

type MiningConfig struct {
	MinSupport     float64 `mapstructure:"min_support" validate:"gt=0,lte=1"`
	MinConfidence  float64 `mapstructure:"min_confidence" validate:"gte=0,lte=1"`
	MaxItemsetSize int     `mapstructure:"max_itemset_size" validate:"gte=0"` // zero means unbounded
}

// BandsConfig holds ascending cut points used to discretize numeric fields into mining items.
type BandsConfig struct {
	Price       []float64 `mapstructure:"price" validate:"dive,gt=0"`
	RAM         []float64 `mapstructure:"ram" validate:"dive,gt=0"`
	Storage     []float64 `mapstructure:"storage" validate:"dive,gt=0"`
	Battery     []float64 `mapstructure:"battery" validate:"dive,gt=0"`
	ScreenSize  []float64 `mapstructure:"screen_size" validate:"dive,gt=0"`
	ReleaseYear []float64 `mapstructure:"release_year" validate:"dive,gt=0"`
}

type RecommendConfig struct {
	MaxResults  int     `mapstructure:"max_results" validate:"gte=1"`
	PriceWeight float64 `mapstructure:"price_weight" validate:"gte=0"`
	RuleWeight  float64 `mapstructure:"rule_weight" validate:"gte=0"`
	Deduplicate bool    `mapstructure:"deduplicate"`
	// Filter is an optional expression over entry, e.g. "entry.ReleaseYear >= 2019". Entries for
	// which it is false are never recommended.
	Filter string `mapstructure:"filter"`
	// ScoreScript is an optional JavaScript expression over entry, budget and score returning the
	// score used for ranking.
	ScoreScript string `mapstructure:"score_script"`
}

func GetDefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			CatalogStore:  "csv://data/phones.csv",
			NameTemplate:  "{{ brand }} {{ release_year }} Model",
			ImageTemplate: "https://source.unsplash.com/300x400/?{{ brand }}+phone+{{ release_year }}",
		},
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        5000,
			CacheExpire: time.Minute,
			CacheSize:   1024,
			RateBurst:   1,
		},
		Master: MasterConfig{
			FitPeriod:   24 * time.Hour,
			NumJobs:     1,
			LoadRetries: 3,
		},
		Model: ModelConfig{
			MaxDepth:       12,
			MinSamplesLeaf: 2,
			HoldoutRatio:   0.2,
		},
		Mining: MiningConfig{
			MinSupport:     0.05,
			MinConfidence:  0.5,
			MaxItemsetSize: 4,
		},
		Bands: BandsConfig{
			Price:       []float64{10000, 20000, 35000, 60000},
			RAM:         []float64{4, 6, 8, 12},
			Storage:     []float64{64, 128, 256},
			Battery:     []float64{4000, 5000},
			ScreenSize:  []float64{6, 6.5},
			ReleaseYear: []float64{2018, 2021},
		},
		Recommend: RecommendConfig{
			MaxResults:  20,
			PriceWeight: 1,
			RuleWeight:  0.5,
			Deduplicate: true,
		},
		Tracing: TracingConfig{
			Exporter: "otlp",
			Sampler:  "always_on",
			Ratio:    1,
		},
	}
}

func (config *Config) Validate() error {
	if err := util.ValidateStruct(config); err != nil {
		return errors.Trace(err)
	}
	if config.Server.CacheStore != "" &&
		!strings.HasPrefix(config.Server.CacheStore, storage.RedisPrefix) && !strings.HasPrefix(config.Server.CacheStore, storage.RedissPrefix) {
		return errors.NotValidf("server.cache_store %s (must be a redis url)", config.Server.CacheStore)
	}
	bands := map[string][]float64{
		"bands.price":        config.Bands.Price,
		"bands.ram":          config.Bands.RAM,
		"bands.storage":      config.Bands.Storage,
		"bands.battery":      config.Bands.Battery,
		"bands.screen_size":  config.Bands.ScreenSize,
		"bands.release_year": config.Bands.ReleaseYear,
	}
	for name, bounds := range bands {
		if !slices.IsSorted(bounds) || len(slices.Compact(slices.Clone(bounds))) != len(bounds) {
			return errors.NotValidf("%s (must be strictly ascending)", name)
		}
	}
	return nil
}

func setDefault(v *viper.Viper) {
	defaultConfig := GetDefaultConfig()
	// [database]
	v.SetDefault("database.catalog_store", defaultConfig.Database.CatalogStore)
	v.SetDefault("database.name_template", defaultConfig.Database.NameTemplate)
	v.SetDefault("database.image_template", defaultConfig.Database.ImageTemplate)
	// [server]
	v.SetDefault("server.host", defaultConfig.Server.Host)
	v.SetDefault("server.port", defaultConfig.Server.Port)
	v.SetDefault("server.cache_expire", defaultConfig.Server.CacheExpire)
	v.SetDefault("server.cache_size", defaultConfig.Server.CacheSize)
	v.SetDefault("server.rate_burst", defaultConfig.Server.RateBurst)
	// [master]
	v.SetDefault("master.fit_period", defaultConfig.Master.FitPeriod)
	v.SetDefault("master.n_jobs", defaultConfig.Master.NumJobs)
	v.SetDefault("master.load_retries", defaultConfig.Master.LoadRetries)
	// [model]
	v.SetDefault("model.max_depth", defaultConfig.Model.MaxDepth)
	v.SetDefault("model.min_samples_leaf", defaultConfig.Model.MinSamplesLeaf)
	v.SetDefault("model.holdout_ratio", defaultConfig.Model.HoldoutRatio)
	v.SetDefault("model.random_state", defaultConfig.Model.RandomState)
	// [mining]
	v.SetDefault("mining.min_support", defaultConfig.Mining.MinSupport)
	v.SetDefault("mining.min_confidence", defaultConfig.Mining.MinConfidence)
	v.SetDefault("mining.max_itemset_size", defaultConfig.Mining.MaxItemsetSize)
	// [bands]
	v.SetDefault("bands.price", defaultConfig.Bands.Price)
	v.SetDefault("bands.ram", defaultConfig.Bands.RAM)
	v.SetDefault("bands.storage", defaultConfig.Bands.Storage)
	v.SetDefault("bands.battery", defaultConfig.Bands.Battery)
	v.SetDefault("bands.screen_size", defaultConfig.Bands.ScreenSize)
	v.SetDefault("bands.release_year", defaultConfig.Bands.ReleaseYear)
	// [recommend]
	v.SetDefault("recommend.max_results", defaultConfig.Recommend.MaxResults)
	v.SetDefault("recommend.price_weight", defaultConfig.Recommend.PriceWeight)
	v.SetDefault("recommend.rule_weight", defaultConfig.Recommend.RuleWeight)
	v.SetDefault("recommend.deduplicate", defaultConfig.Recommend.Deduplicate)
	// [tracing]
	v.SetDefault("tracing.exporter", defaultConfig.Tracing.Exporter)
	v.SetDefault("tracing.sampler", defaultConfig.Tracing.Sampler)
	v.SetDefault("tracing.ratio", defaultConfig.Tracing.Ratio)
}

type configBinding struct {
	key string
	env string
}

// LoadConfig loads configuration from toml file. An empty path loads defaults. Environment
// variables always take precedence.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefault(v)
	bindings := []configBinding{
		{"database.catalog_store", "PHONEREC_CATALOG_STORE"},
		{"database.table_prefix", "PHONEREC_TABLE_PREFIX"},
		{"server.host", "PHONEREC_SERVER_HOST"},
		{"server.port", "PHONEREC_SERVER_PORT"},
		{"server.api_key", "PHONEREC_API_KEY"},
		{"server.cache_store", "PHONEREC_CACHE_STORE"},
		{"master.fit_period", "PHONEREC_FIT_PERIOD"},
		{"master.n_jobs", "PHONEREC_N_JOBS"},
		{"tracing.enable_tracing", "PHONEREC_ENABLE_TRACING"},
		{"tracing.collector_endpoint", "PHONEREC_COLLECTOR_ENDPOINT"},
	}
	for _, binding := range bindings {
		if err := v.BindEnv(binding.key, binding.env); err != nil {
			return nil, errors.Trace(err)
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, errors.Annotatef(err, "failed to open config %s", path)
		}
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Trace(err)
		}
	}

	var conf Config
	if err := v.Unmarshal(&conf, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, errors.Trace(err)
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &conf, nil
}
