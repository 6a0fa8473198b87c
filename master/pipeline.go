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

package master

import (
	"context"
	"time"

	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/base/log"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/config"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/logics"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/model/feature"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/model/fpgrowth"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/model/tree"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/storage/catalog"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// TrainResult is a price model fitted on the priced entries of a catalog.
type TrainResult struct {
	Codec *feature.Codec
	Model *tree.Model
	// Score is measured on the held out entries. It is zero if nothing is held out.
	Score      tree.Score
	NumSamples int
	NumTest    int
}

// Samples encodes priced entries. Entries without price are ignored.
func Samples(codec *feature.Codec, entries []catalog.Entry) []tree.Sample {
	return lo.FilterMap(entries, func(entry catalog.Entry, _ int) (tree.Sample, bool) {
		if !entry.HasPrice() {
			return tree.Sample{}, false
		}
		return tree.Sample{Vector: codec.Encode(entry.DeviceSpec), Label: *entry.Price}, true
	})
}

// NewTrainingCodec builds the encoding table from the priced entries of a catalog.
func NewTrainingCodec(entries []catalog.Entry) *feature.Codec {
	return feature.NewCodec(lo.FilterMap(entries, func(entry catalog.Entry, _ int) (feature.DeviceSpec, bool) {
		return entry.DeviceSpec, entry.HasPrice()
	}))
}

func modelParams(cfg *config.Config) (tree.Params, *tree.FitConfig) {
	return tree.Params{
		MaxDepth:       cfg.Model.MaxDepth,
		MinSamplesLeaf: cfg.Model.MinSamplesLeaf,
	}, tree.NewFitConfig().SetJobs(cfg.Master.NumJobs)
}

// Train fits the price model. A share of the priced entries is held out to score a first fit,
// then the served model is fitted on every priced entry.
func Train(ctx context.Context, cfg *config.Config, entries []catalog.Entry) (*TrainResult, error) {
	codec := NewTrainingCodec(entries)
	samples := Samples(codec, entries)
	params, fitConfig := modelParams(cfg)
	result := &TrainResult{Codec: codec, NumSamples: len(samples)}
	if cfg.Model.HoldoutRatio > 0 {
		trainSet, testSet := tree.SplitHoldout(samples, cfg.Model.HoldoutRatio, cfg.Model.RandomState)
		if len(testSet) > 0 {
			m, err := tree.Fit(ctx, codec, trainSet, params, fitConfig)
			switch {
			case errors.Is(err, tree.ErrTrainingDataInsufficient):
				log.Logger().Warn("too few entries to hold out a test set", zap.Int("n_samples", len(samples)))
			case err != nil:
				return nil, errors.Trace(err)
			default:
				if result.Score, err = tree.Evaluate(m, testSet); err != nil {
					return nil, errors.Trace(err)
				}
				result.NumTest = len(testSet)
			}
		}
	}
	var err error
	if result.Model, err = tree.Fit(ctx, codec, samples, params, fitConfig); err != nil {
		return nil, errors.Trace(err)
	}
	return result, nil
}

// CrossValidate scores the price model with k-fold cross validation over the priced entries.
// done is called after each fold if not nil.
func CrossValidate(ctx context.Context, cfg *config.Config, entries []catalog.Entry, k int, done func(fold int, score tree.Score)) ([]tree.Score, error) {
	if k < 2 {
		return nil, errors.NotValidf("number of folds %d", k)
	}
	codec := NewTrainingCodec(entries)
	samples := Samples(codec, entries)
	if len(samples) < k {
		return nil, errors.Annotatef(tree.ErrTrainingDataInsufficient, "%d samples for %d folds", len(samples), k)
	}
	params, fitConfig := modelParams(cfg)
	trainSets, testSets := tree.KFold(samples, k, cfg.Model.RandomState)
	scores := make([]tree.Score, 0, k)
	for i := range trainSets {
		m, err := tree.Fit(ctx, codec, trainSets[i], params, fitConfig)
		if err != nil {
			return nil, errors.Annotatef(err, "fold %d", i)
		}
		score, err := tree.Evaluate(m, testSets[i])
		if err != nil {
			return nil, errors.Trace(err)
		}
		scores = append(scores, score)
		if done != nil {
			done(i, score)
		}
	}
	return scores, nil
}

// Transactions discretizes every entry into mining items. Entries without price are valued by
// model, or skipped if model is nil.
func Transactions(bands *feature.Bands, entries []catalog.Entry, model *tree.Model) [][]string {
	return lo.FilterMap(entries, func(entry catalog.Entry, _ int) ([]string, bool) {
		switch {
		case entry.HasPrice():
			return bands.Items(entry.DeviceSpec, *entry.Price), true
		case model != nil:
			return bands.Items(entry.DeviceSpec, model.PredictSpec(entry.DeviceSpec)), true
		default:
			return nil, false
		}
	})
}

// MineRules mines frequent itemsets of transactions and derives association rules.
func MineRules(ctx context.Context, cfg *config.Config, transactions [][]string) ([]fpgrowth.Itemset, []fpgrowth.Rule, error) {
	itemsets, err := fpgrowth.Mine(ctx, transactions, cfg.Mining.MinSupport,
		fpgrowth.NewConfig().SetMaxSize(cfg.Mining.MaxItemsetSize))
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	return itemsets, fpgrowth.GenerateRules(itemsets, cfg.Mining.MinConfidence), nil
}

// BuildSnapshot trains the price model, mines rules and bundles them with the catalog. Nothing
// is returned if any step fails or ctx is canceled.
func BuildSnapshot(ctx context.Context, cfg *config.Config, entries []catalog.Entry) (*logics.Snapshot, error) {
	startTime := time.Now()
	trainCtx, span := tracer.Start(ctx, "Train")
	trained, err := Train(trainCtx, cfg, entries)
	span.End()
	if err != nil {
		return nil, errors.Annotatef(err, "train price model")
	}
	trainTime := time.Since(startTime)
	RefitStepSecondsVec.WithLabelValues("train").Set(trainTime.Seconds())
	updatePriceModelMetrics(trained.Model, trained.Score)
	log.Logger().Info("price model trained", append(trained.Score.ZapFields(),
		zap.Int("n_samples", trained.NumSamples),
		zap.Int("n_test", trained.NumTest),
		zap.Int("n_nodes", trained.Model.NumNodes()),
		zap.Int("depth", trained.Model.Depth()),
		zap.Duration("elapsed", trainTime))...)

	startTime = time.Now()
	bands := feature.NewBands(cfg.Bands)
	mineCtx, span := tracer.Start(ctx, "MineRules")
	itemsets, rules, err := MineRules(mineCtx, cfg, Transactions(bands, entries, trained.Model))
	span.End()
	if err != nil {
		return nil, errors.Annotatef(err, "mine association rules")
	}
	mineTime := time.Since(startTime)
	RefitStepSecondsVec.WithLabelValues("mine").Set(mineTime.Seconds())
	FrequentItemsets.Set(float64(len(itemsets)))
	AssociationRules.Set(float64(len(rules)))
	log.Logger().Info("association rules mined",
		zap.Int("n_itemsets", len(itemsets)),
		zap.Int("n_rules", len(rules)),
		zap.Duration("elapsed", mineTime))

	index := logics.NewRuleIndex(rules)
	recommender, err := logics.NewRecommender(cfg.Recommend, trained.Model, index, bands)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &logics.Snapshot{
		TrainedAt:   time.Now(),
		Codec:       trained.Codec,
		Model:       trained.Model,
		Score:       trained.Score,
		Rules:       index,
		Bands:       bands,
		Catalog:     entries,
		Recommender: recommender,
	}, nil
}
