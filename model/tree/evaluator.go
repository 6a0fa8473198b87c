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

package tree

import (
	"math"
	"math/rand/v2"

	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

type Score struct {
	RMSE float64
	MAE  float64
	R2   float64
}

func (score Score) ZapFields() []zap.Field {
	return []zap.Field{
		zap.Float64("RMSE", score.RMSE),
		zap.Float64("MAE", score.MAE),
		zap.Float64("R2", score.R2),
	}
}

// Evaluate evaluates a regression tree on a test set.
func Evaluate(m *Model, testSet []Sample) (Score, error) {
	if len(testSet) == 0 {
		return Score{}, nil
	}
	mean := lo.SumBy(testSet, func(s Sample) float64 { return s.Label }) / float64(len(testSet))
	var sumSq, sumAbs, total float64
	for _, sample := range testSet {
		prediction, err := m.Predict(sample.Vector)
		if err != nil {
			return Score{}, errors.Trace(err)
		}
		d := sample.Label - prediction
		sumSq += d * d
		sumAbs += math.Abs(d)
		total += (sample.Label - mean) * (sample.Label - mean)
	}
	score := Score{
		RMSE: math.Sqrt(sumSq / float64(len(testSet))),
		MAE:  sumAbs / float64(len(testSet)),
	}
	if total > 0 {
		score.R2 = 1 - sumSq/total
	}
	return score, nil
}

func shuffle(n int, seed int64) []int {
	rng := rand.New(rand.NewPCG(uint64(seed), 0))
	return rng.Perm(n)
}

// SplitHoldout shuffles samples with seed and holds out ratio of them as test set.
func SplitHoldout(samples []Sample, ratio float64, seed int64) (trainSet, testSet []Sample) {
	perm := shuffle(len(samples), seed)
	numTest := int(float64(len(samples)) * ratio)
	for i, j := range perm {
		if i < numTest {
			testSet = append(testSet, samples[j])
		} else {
			trainSet = append(trainSet, samples[j])
		}
	}
	return
}

// KFold splits samples into k folds of shuffled samples and returns the train and test set of
// every fold.
func KFold(samples []Sample, k int, seed int64) (trainSets, testSets [][]Sample) {
	perm := shuffle(len(samples), seed)
	trainSets = make([][]Sample, k)
	testSets = make([][]Sample, k)
	for i, j := range perm {
		fold := i % k
		for f := 0; f < k; f++ {
			if f == fold {
				testSets[f] = append(testSets[f], samples[j])
			} else {
				trainSets[f] = append(trainSets[f], samples[j])
			}
		}
	}
	return
}
