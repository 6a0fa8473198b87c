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

package logics

import (
	"context"
	"testing"

	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/config"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/model/feature"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/model/fpgrowth"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/model/tree"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/storage/catalog"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/jaswdr/faker"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(p float64) *float64 {
	return &p
}

func phone(id int64, brand, os string, ram, storage int, p *float64) catalog.Entry {
	return catalog.Entry{
		Id:   id,
		Name: brand,
		DeviceSpec: feature.DeviceSpec{
			Brand:           brand,
			ReleaseYear:     2022,
			ScreenSize:      6.5,
			OperatingSystem: os,
			InternalStorage: storage,
			Battery:         5000,
			RAM:             ram,
			Processor:       "octa-core",
		},
		Price: p,
	}
}

func newRecommender(t *testing.T, cfg config.RecommendConfig, model *tree.Model, rules []fpgrowth.Rule) *Recommender {
	r, err := NewRecommender(cfg, model, NewRuleIndex(rules), feature.NewBands(config.GetDefaultConfig().Bands))
	require.NoError(t, err)
	return r
}

func TestRecommendBudget(t *testing.T) {
	entries := []catalog.Entry{
		phone(0, "Samsung", "Android", 8, 128, ptr(70000)),
		phone(1, "Apple", "iOS", 6, 128, ptr(80000)),
		phone(2, "OnePlus", "Android", 8, 128, ptr(57000)),
	}
	r := newRecommender(t, config.GetDefaultConfig().Recommend, nil, nil)
	result, err := r.Recommend(context.Background(), entries, Filter{Budget: 60000})
	require.NoError(t, err)
	require.Len(t, result.Recommendations, 1)
	assert.Equal(t, "OnePlus", result.Recommendations[0].Brand)
	assert.Equal(t, 57000.0, result.Recommendations[0].Price)
	assert.False(t, result.Recommendations[0].Estimated)
	assert.InDelta(t, 0.95, result.Recommendations[0].Score, 1e-9)
	assert.Equal(t, 1, result.TotalFound)
}

func TestRecommendImpossible(t *testing.T) {
	entries := []catalog.Entry{
		phone(0, "Samsung", "Android", 8, 128, ptr(70000)),
		phone(1, "Apple", "iOS", 6, 128, ptr(80000)),
	}
	r := newRecommender(t, config.GetDefaultConfig().Recommend, nil, nil)
	result, err := r.Recommend(context.Background(), entries, Filter{Budget: 1})
	require.NoError(t, err)
	assert.NotNil(t, result.Recommendations)
	assert.Empty(t, result.Recommendations)
	assert.Zero(t, result.TotalFound)

	result, err = r.Recommend(context.Background(), nil, Filter{Budget: 10000})
	require.NoError(t, err)
	assert.Empty(t, result.Recommendations)

	_, err = r.Recommend(context.Background(), entries, Filter{})
	assert.True(t, errors.IsNotValid(err))
	_, err = r.Recommend(context.Background(), entries, Filter{Budget: 1000, MinRAM: ptr(-1)})
	assert.True(t, errors.IsNotValid(err))
}

func TestRecommendConstraints(t *testing.T) {
	fake := faker.New()
	brands := []string{"Samsung", "Apple", "OnePlus", "Xiaomi"}
	entries := make([]catalog.Entry, 500)
	for i := range entries {
		brand := brands[fake.IntBetween(0, len(brands)-1)]
		os := lo.Ternary(brand == "Apple", "iOS", "Android")
		entries[i] = phone(int64(i), brand, os, []int{3, 4, 6, 8, 12}[fake.IntBetween(0, 4)],
			[]int{32, 64, 128, 256}[fake.IntBetween(0, 3)], ptr(float64(fake.IntBetween(5000, 150000))))
		entries[i].Battery = fake.IntBetween(3000, 6000)
		entries[i].ScreenSize = float64(fake.IntBetween(50, 70)) / 10
	}
	cfg := config.GetDefaultConfig().Recommend
	cfg.MaxResults = 1000
	r := newRecommender(t, cfg, nil, nil)
	for i := 0; i < 50; i++ {
		filter := Filter{Budget: float64(fake.IntBetween(1, 160000))}
		if fake.Bool() {
			filter.Brand = brands[fake.IntBetween(0, len(brands)-1)]
		}
		if fake.Bool() {
			filter.OperatingSystem = fake.RandomStringElement([]string{"android", "IOS"})
		}
		if fake.Bool() {
			filter.MinRAM = ptr(float64(fake.IntBetween(0, 12)))
		}
		if fake.Bool() {
			filter.MinStorage = ptr(float64(fake.IntBetween(0, 256)))
		}
		if fake.Bool() {
			filter.MinBattery = ptr(float64(fake.IntBetween(3000, 6000)))
		}
		if fake.Bool() {
			filter.MinScreenSize = ptr(float64(fake.IntBetween(50, 70)) / 10)
		}
		result, err := r.Recommend(context.Background(), entries, filter)
		require.NoError(t, err)
		assert.Equal(t, len(result.Recommendations), result.TotalFound)
		for j, rec := range result.Recommendations {
			assert.LessOrEqual(t, rec.Price, filter.Budget)
			assert.True(t, filter.Admit(&rec.Entry, rec.Price))
			if j > 0 {
				prev := result.Recommendations[j-1]
				assert.True(t, prev.Score > rec.Score ||
					(prev.Score == rec.Score && (prev.Price < rec.Price || (prev.Price == rec.Price && prev.Id < rec.Id))))
			}
		}
	}
}

func TestRecommendOrderAndTruncate(t *testing.T) {
	entries := []catalog.Entry{
		phone(4, "Xiaomi", "Android", 4, 64, ptr(20000)),
		phone(3, "Xiaomi", "Android", 6, 64, ptr(20000)),
		phone(2, "Realme", "Android", 4, 64, ptr(30000)),
		phone(1, "Realme", "Android", 4, 64, ptr(10000)),
	}
	cfg := config.GetDefaultConfig().Recommend
	cfg.MaxResults = 3
	cfg.Deduplicate = false
	r := newRecommender(t, cfg, nil, nil)
	result, err := r.Recommend(context.Background(), entries, Filter{Budget: 40000})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3, 4}, lo.Map(result.Recommendations, func(r Recommendation, _ int) int64 { return r.Id }))
	assert.Equal(t, 4, result.TotalFound)

	// duplicated variants keep the best ranked entry
	cfg.Deduplicate = true
	r = newRecommender(t, cfg, nil, nil)
	result, err = r.Recommend(context.Background(), entries, Filter{Budget: 40000})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3, 4}, lo.Map(result.Recommendations, func(r Recommendation, _ int) int64 { return r.Id }))
	assert.Equal(t, 3, result.TotalFound)
}

func TestRecommendRules(t *testing.T) {
	entries := []catalog.Entry{
		phone(1, "Samsung", "Android", 8, 128, ptr(30000)),
		phone(2, "Xiaomi", "Android", 4, 64, ptr(30000)),
	}
	rules := []fpgrowth.Rule{
		{Antecedent: []string{"ram=8-12"}, Consequent: []string{"os=android"}, Confidence: 0.9, Lift: 1.2},
		{Antecedent: []string{"storage=128-256"}, Consequent: []string{"brand=apple"}, Confidence: 0.8, Lift: 2},
		{Antecedent: []string{"ram=4-6"}, Consequent: []string{"price=20000-35000"}, Confidence: 0.6, Lift: 1.1},
	}
	r := newRecommender(t, config.GetDefaultConfig().Recommend, nil, rules)
	result, err := r.Recommend(context.Background(), entries, Filter{Budget: 30000, OperatingSystem: "Android"})
	require.NoError(t, err)
	require.Len(t, result.Recommendations, 2)
	// 1 + 0.5 * 0.9
	assert.Equal(t, int64(1), result.Recommendations[0].Id)
	assert.InDelta(t, 1.45, result.Recommendations[0].Score, 1e-9)
	assert.Equal(t, rules[:1], result.Recommendations[0].MatchedRules)
	// 1 + 0.5 * 0.6
	assert.Equal(t, int64(2), result.Recommendations[1].Id)
	assert.InDelta(t, 1.3, result.Recommendations[1].Score, 1e-9)
	assert.Equal(t, rules[2:], result.Recommendations[1].MatchedRules)
}

func TestRecommendEstimatedPrice(t *testing.T) {
	var (
		specs   []feature.DeviceSpec
		samples []tree.Sample
	)
	for _, p := range []float64{20000, 22000} {
		entry := phone(0, "Samsung", "Android", 8, 128, nil)
		specs = append(specs, entry.DeviceSpec)
		samples = append(samples, tree.Sample{Label: p})
	}
	codec := feature.NewCodec(specs)
	for i := range samples {
		samples[i].Vector = codec.Encode(specs[i])
	}
	model, err := tree.Fit(context.Background(), codec, samples, tree.Params{MaxDepth: 2, MinSamplesLeaf: 1}, nil)
	require.NoError(t, err)

	entries := []catalog.Entry{
		phone(1, "Samsung", "Android", 8, 128, nil),
		phone(2, "Samsung", "Android", 6, 128, ptr(25000)),
	}
	r := newRecommender(t, config.GetDefaultConfig().Recommend, model, nil)
	result, err := r.Recommend(context.Background(), entries, Filter{Budget: 30000})
	require.NoError(t, err)
	require.Len(t, result.Recommendations, 2)
	assert.Equal(t, int64(2), result.Recommendations[0].Id)
	assert.False(t, result.Recommendations[0].Estimated)
	assert.Equal(t, int64(1), result.Recommendations[1].Id)
	assert.True(t, result.Recommendations[1].Estimated)
	assert.Equal(t, 21000.0, result.Recommendations[1].Price)
	assert.Nil(t, result.Recommendations[1].Entry.Price)

	// ground truth prices are never overridden
	result, err = r.Recommend(context.Background(), entries, Filter{Budget: 24000})
	require.NoError(t, err)
	require.Len(t, result.Recommendations, 1)
	assert.Equal(t, int64(1), result.Recommendations[0].Id)

	// without model entries lacking price are skipped
	r = newRecommender(t, config.GetDefaultConfig().Recommend, nil, nil)
	result, err = r.Recommend(context.Background(), entries, Filter{Budget: 30000})
	require.NoError(t, err)
	require.Len(t, result.Recommendations, 1)
	assert.Equal(t, int64(2), result.Recommendations[0].Id)
}

func TestRecommendEntryFilter(t *testing.T) {
	entries := []catalog.Entry{
		phone(1, "Samsung", "Android", 8, 128, ptr(20000)),
		phone(2, "Apple", "iOS", 4, 64, ptr(20000)),
	}
	entries[1].ReleaseYear = 2017
	cfg := config.GetDefaultConfig().Recommend
	cfg.Filter = "entry.ReleaseYear >= 2019"
	r := newRecommender(t, cfg, nil, nil)
	result, err := r.Recommend(context.Background(), entries, Filter{Budget: 30000})
	require.NoError(t, err)
	require.Len(t, result.Recommendations, 1)
	assert.Equal(t, int64(1), result.Recommendations[0].Id)

	cfg.Filter = "entry.Brand"
	_, err = NewRecommender(cfg, nil, nil, feature.NewBands(config.GetDefaultConfig().Bands))
	assert.Error(t, err)
}

func TestRecommendScoreScript(t *testing.T) {
	entries := []catalog.Entry{
		phone(1, "Samsung", "Android", 6, 128, ptr(29000)),
		phone(2, "Xiaomi", "Android", 8, 128, ptr(20000)),
	}
	cfg := config.GetDefaultConfig().Recommend
	r := newRecommender(t, cfg, nil, nil)
	result, err := r.Recommend(context.Background(), entries, Filter{Budget: 30000})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, lo.Map(result.Recommendations, func(r Recommendation, _ int) int64 { return r.Id }))

	cfg.ScoreScript = "entry.ram >= 8 && entry.ranked_price <= budget ? score + 1 : score"
	r = newRecommender(t, cfg, nil, nil)
	result, err = r.Recommend(context.Background(), entries, Filter{Budget: 30000})
	require.NoError(t, err)
	require.Len(t, result.Recommendations, 2)
	assert.Equal(t, int64(2), result.Recommendations[0].Id)
	assert.InDelta(t, 1+2.0/3, result.Recommendations[0].Score, 1e-9)
	assert.InDelta(t, 1-1.0/30, result.Recommendations[1].Score, 1e-9)

	// scores are kept if the script does not return numbers
	cfg.ScoreScript = "entry.brand"
	r = newRecommender(t, cfg, nil, nil)
	result, err = r.Recommend(context.Background(), entries, Filter{Budget: 30000})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Recommendations[0].Id)
	assert.InDelta(t, 1-1.0/30, result.Recommendations[0].Score, 1e-9)

	cfg.ScoreScript = "score +"
	_, err = NewRecommender(cfg, nil, nil, feature.NewBands(config.GetDefaultConfig().Bands))
	assert.Error(t, err)
}

func TestScoreScript(t *testing.T) {
	script, err := NewScoreScript("score * 2 + budget")
	require.NoError(t, err)
	scores, err := script.Score([]Recommendation{{Score: 1}, {Score: 0.5}}, 10)
	require.NoError(t, err)
	assert.Equal(t, []float64{12, 11}, scores)

	scores, err = script.Score(nil, 10)
	require.NoError(t, err)
	assert.Empty(t, scores)

	script, err = NewScoreScript("undefined")
	require.NoError(t, err)
	_, err = script.Score([]Recommendation{{Score: 1}}, 10)
	assert.Error(t, err)
}

func TestRecommendCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := newRecommender(t, config.GetDefaultConfig().Recommend, nil, nil)
	_, err := r.Recommend(ctx, []catalog.Entry{phone(1, "Samsung", "Android", 8, 128, ptr(20000))}, Filter{Budget: 30000})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFilterItems(t *testing.T) {
	bands := feature.NewBands(config.GetDefaultConfig().Bands)
	filter := Filter{
		Budget:          50000,
		Brand:           "Samsung",
		OperatingSystem: "Android",
		MinRAM:          ptr(8),
		MinStorage:      ptr(100),
		MinBattery:      ptr(4500),
		MinScreenSize:   ptr(6.7),
	}
	assert.Equal(t, []string{
		"brand=samsung", "os=android", "price=35000-60000", "ram=8-12", "storage=64-128", "battery=4000-5000", "screen>=6.5",
	}, filter.ImpliedItems(bands))
	assert.Equal(t, "50000/samsung/android/8/100/4500/6.7", filter.Key())
	assert.Equal(t, "1000//////", (&Filter{Budget: 1000}).Key())
}

func TestRuleIndex(t *testing.T) {
	rules := []fpgrowth.Rule{
		{Antecedent: []string{"a", "b"}, Consequent: []string{"x"}, Confidence: 0.9},
		{Antecedent: []string{"a"}, Consequent: []string{"x", "y"}, Confidence: 0.8},
		{Antecedent: []string{"c"}, Consequent: []string{"y"}, Confidence: 0.7},
	}
	index := NewRuleIndex(rules)
	assert.Equal(t, 3, index.Len())
	assert.Equal(t, rules, index.Rules())
	assert.Equal(t, rules[:2], index.Match(mapset.NewSet("a", "b"), []string{"x", "y"}))
	assert.Equal(t, rules[1:2], index.Match(mapset.NewSet("a"), []string{"y"}))
	assert.Empty(t, index.Match(mapset.NewSet("a", "b", "c"), []string{"z"}))

	var empty *RuleIndex
	assert.Zero(t, empty.Len())
	assert.Nil(t, empty.Match(mapset.NewSet("a"), []string{"x"}))
}
