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
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/base/log"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/config"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/model/feature"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/model/fpgrowth"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/model/tree"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/storage/catalog"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Filter is a recommendation request. Empty strings and nil minimums mean no constraint.
type Filter struct {
	Budget          float64
	Brand           string
	OperatingSystem string
	MinRAM          *float64
	MinStorage      *float64
	MinBattery      *float64
	MinScreenSize   *float64
}

func (f *Filter) Validate() error {
	if f.Budget <= 0 {
		return errors.NotValidf("budget %v", f.Budget)
	}
	for name, v := range map[string]*float64{
		"minimum ram":         f.MinRAM,
		"minimum storage":     f.MinStorage,
		"minimum battery":     f.MinBattery,
		"minimum screen size": f.MinScreenSize,
	} {
		if v != nil && *v < 0 {
			return errors.NotValidf("%s %v", name, *v)
		}
	}
	return nil
}

// Key identifies equivalent filters.
func (f *Filter) Key() string {
	format := func(v *float64) string {
		if v == nil {
			return ""
		}
		return fmt.Sprint(*v)
	}
	return strings.Join([]string{
		fmt.Sprint(f.Budget),
		strings.ToLower(strings.TrimSpace(f.Brand)),
		strings.ToLower(strings.TrimSpace(f.OperatingSystem)),
		format(f.MinRAM),
		format(f.MinStorage),
		format(f.MinBattery),
		format(f.MinScreenSize),
	}, "/")
}

// Admit tells whether an entry priced at price satisfies every present constraint.
func (f *Filter) Admit(entry *catalog.Entry, price float64) bool {
	switch {
	case price > f.Budget:
		return false
	case f.Brand != "" && !strings.EqualFold(strings.TrimSpace(f.Brand), strings.TrimSpace(entry.Brand)):
		return false
	case f.OperatingSystem != "" && !strings.EqualFold(strings.TrimSpace(f.OperatingSystem), strings.TrimSpace(entry.OperatingSystem)):
		return false
	case f.MinRAM != nil && float64(entry.RAM) < *f.MinRAM:
		return false
	case f.MinStorage != nil && float64(entry.InternalStorage) < *f.MinStorage:
		return false
	case f.MinBattery != nil && float64(entry.Battery) < *f.MinBattery:
		return false
	case f.MinScreenSize != nil && entry.ScreenSize < *f.MinScreenSize:
		return false
	}
	return true
}

// ImpliedItems returns the items a filter asks for: its brand, its operating system, the price
// band of its budget and the band of each minimum.
func (f *Filter) ImpliedItems(bands *feature.Bands) []string {
	var items []string
	add := func(item string, ok bool) {
		if ok {
			items = append(items, item)
		}
	}
	add(feature.CategoryItem(feature.ItemBrand, f.Brand))
	add(feature.CategoryItem(feature.ItemOS, f.OperatingSystem))
	add(feature.Band(feature.ItemPrice, bands.Price, f.Budget))
	if f.MinRAM != nil {
		add(feature.Band(feature.ItemRAM, bands.RAM, *f.MinRAM))
	}
	if f.MinStorage != nil {
		add(feature.Band(feature.ItemStorage, bands.Storage, *f.MinStorage))
	}
	if f.MinBattery != nil {
		add(feature.Band(feature.ItemBattery, bands.Battery, *f.MinBattery))
	}
	if f.MinScreenSize != nil {
		add(feature.Band(feature.ItemScreenSize, bands.ScreenSize, *f.MinScreenSize))
	}
	return items
}

// Recommendation is a ranked catalog entry.
type Recommendation struct {
	catalog.Entry
	Price        float64         `json:"ranked_price"` // ground truth price, or the estimate if the entry has none
	Estimated    bool            `json:"estimated"`
	Score        float64         `json:"score"`
	MatchedRules []fpgrowth.Rule `json:"matched_rules"`
}

type Result struct {
	Recommendations []Recommendation `json:"recommendations"`
	// TotalFound is the number of entries satisfying the filter before truncation.
	TotalFound int `json:"total_found"`
}

// Recommender ranks catalog entries with a trained model and a rule set.
type Recommender struct {
	config      config.RecommendConfig
	model       *tree.Model
	rules       *RuleIndex
	bands       *feature.Bands
	entryFilter *vm.Program
	script      *ScoreScript
}

// NewRecommender creates a recommender. model may be nil, then entries without price are never
// recommended.
func NewRecommender(cfg config.RecommendConfig, model *tree.Model, rules *RuleIndex, bands *feature.Bands) (*Recommender, error) {
	r := &Recommender{
		config: cfg,
		model:  model,
		rules:  rules,
		bands:  bands,
	}
	if cfg.Filter != "" {
		var err error
		r.entryFilter, err = expr.Compile(cfg.Filter, expr.Env(map[string]any{
			"entry": catalog.Entry{},
		}), expr.AsBool())
		if err != nil {
			return nil, errors.Annotatef(err, "compile recommend filter")
		}
	}
	if cfg.ScoreScript != "" {
		var err error
		if r.script, err = NewScoreScript(cfg.ScoreScript); err != nil {
			return nil, errors.Trace(err)
		}
	}
	return r, nil
}

func (r *Recommender) admitEntry(entry *catalog.Entry) bool {
	if r.entryFilter == nil {
		return true
	}
	result, err := expr.Run(r.entryFilter, map[string]any{"entry": *entry})
	if err != nil {
		log.Logger().Error("evaluate recommend filter", zap.Int64("id", entry.Id), zap.Error(err))
		return false
	}
	return result.(bool)
}

// Recommend filters entries by the hard constraints of filter, scores survivors by budget
// closeness and confidence of matched rules, optionally rescores them with the score script,
// and returns them ordered by descending score,
// ascending price and ascending id. No survivor is a valid, empty result.
func (r *Recommender) Recommend(ctx context.Context, entries []catalog.Entry, filter Filter) (*Result, error) {
	if err := filter.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	implied := filter.ImpliedItems(r.bands)
	var candidates []Recommendation
	for i := range entries {
		if err := ctx.Err(); err != nil {
			return nil, errors.Trace(err)
		}
		entry := &entries[i]
		var (
			price     float64
			estimated bool
		)
		if entry.HasPrice() {
			price = *entry.Price
		} else if r.model != nil {
			price, estimated = r.model.PredictSpec(entry.DeviceSpec), true
		} else {
			log.Logger().Debug("skip entry without price", zap.Int64("id", entry.Id))
			continue
		}
		if !filter.Admit(entry, price) || !r.admitEntry(entry) {
			continue
		}
		items := mapset.NewThreadUnsafeSet(r.bands.Items(entry.DeviceSpec, price)...)
		matched := r.rules.Match(items, implied)
		confidence := lo.SumBy(matched, func(rule fpgrowth.Rule) float64 { return rule.Confidence })
		candidates = append(candidates, Recommendation{
			Entry:        *entry,
			Price:        price,
			Estimated:    estimated,
			Score:        r.config.PriceWeight*(1-(filter.Budget-price)/filter.Budget) + r.config.RuleWeight*confidence,
			MatchedRules: matched,
		})
	}
	if r.script != nil && len(candidates) > 0 {
		if scores, err := r.script.Score(candidates, filter.Budget); err != nil {
			log.Logger().Error("evaluate score script", zap.Error(err))
		} else {
			for i := range candidates {
				candidates[i].Score = scores[i]
			}
		}
	}
	slices.SortFunc(candidates, func(a, b Recommendation) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Price, b.Price); c != 0 {
			return c
		}
		return cmp.Compare(a.Id, b.Id)
	})
	if r.config.Deduplicate {
		candidates = deduplicate(candidates)
	}
	result := &Result{TotalFound: len(candidates)}
	if len(candidates) > r.config.MaxResults {
		candidates = candidates[:r.config.MaxResults]
	}
	result.Recommendations = lo.Ternary(candidates == nil, []Recommendation{}, candidates)
	return result, nil
}

type variantKey struct {
	brand   string
	year    int
	storage int
	ram     int
}

// deduplicate keeps the best ranked entry of every brand, release year, storage and RAM.
func deduplicate(ranked []Recommendation) []Recommendation {
	seen := mapset.NewThreadUnsafeSet[variantKey]()
	return lo.Filter(ranked, func(r Recommendation, _ int) bool {
		return seen.Add(variantKey{
			brand:   strings.ToLower(strings.TrimSpace(r.Brand)),
			year:    r.ReleaseYear,
			storage: r.InternalStorage,
			ram:     r.RAM,
		})
	})
}
