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
	"context"
	"math"
	"sort"

	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/common/parallel"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/model/feature"
	"github.com/bits-and-blooms/bitset"
	"github.com/juju/errors"
)

const tolerance = 1e-9

// improves tells whether sse is meaningfully smaller than best. Candidates within tolerance
// are ties and the earlier one is kept.
func improves(sse, best float64) bool {
	return sse < best-tolerance*math.Max(1, math.Abs(best))
}

type split struct {
	feature   int
	threshold float64
	category  *bitset.BitSet
	observed  *bitset.BitSet
	sse       float64
}

type builder struct {
	ctx     context.Context
	codec   *feature.Codec
	samples []Sample
	params  Params
	jobs    int
	nodes   []Node
}

func (b *builder) build(indices []int, depth int) (int32, error) {
	if err := b.ctx.Err(); err != nil {
		return 0, errors.Trace(err)
	}
	id := int32(len(b.nodes))
	mean, sse := b.stats(indices)
	b.nodes = append(b.nodes, Node{Feature: -1, Left: -1, Right: -1, Value: mean, Samples: len(indices)})
	if depth >= b.params.MaxDepth || len(indices) < 2*b.params.MinSamplesLeaf {
		return id, nil
	}
	best, err := b.findSplit(indices, mean, sse)
	if err != nil {
		return 0, errors.Trace(err)
	}
	if best == nil {
		return id, nil
	}
	leftIndices, rightIndices := b.partition(indices, best)
	left, err := b.build(leftIndices, depth+1)
	if err != nil {
		return 0, errors.Trace(err)
	}
	right, err := b.build(rightIndices, depth+1)
	if err != nil {
		return 0, errors.Trace(err)
	}
	node := &b.nodes[id]
	node.Feature = best.feature
	node.Threshold = best.threshold
	node.Category = best.category
	node.Observed = best.observed
	node.Left = left
	node.Right = right
	return id, nil
}

// stats returns the mean label and the sum of squared errors around it.
func (b *builder) stats(indices []int) (mean, sse float64) {
	for _, i := range indices {
		mean += b.samples[i].Label
	}
	mean /= float64(len(indices))
	for _, i := range indices {
		d := b.samples[i].Label - mean
		sse += d * d
	}
	return
}

// findSplit searches every feature concurrently and reduces the candidates in declaration
// order, so the result does not depend on scheduling.
func (b *builder) findSplit(indices []int, mean, sse float64) (*split, error) {
	candidates := make([]*split, b.codec.Width())
	if err := parallel.Parallel(b.ctx, b.codec.Width(), b.jobs, func(_, f int) error {
		if b.codec.Kind(f) == feature.Categorical {
			candidates[f] = b.splitCategorical(f, indices, mean)
		} else {
			candidates[f] = b.splitNumeric(f, indices, mean)
		}
		return nil
	}); err != nil {
		return nil, errors.Trace(err)
	}
	var best *split
	for _, candidate := range candidates {
		if candidate == nil || !improves(candidate.sse, sse) {
			continue
		}
		if best == nil || improves(candidate.sse, best.sse) {
			best = candidate
		}
	}
	return best, nil
}

// partialSSE is the sum of squared errors of a group from its centered sums.
func partialSSE(n int, sum, sumSq float64) float64 {
	if n == 0 {
		return 0
	}
	return math.Max(0, sumSq-sum*sum/float64(n))
}

// splitNumeric scans midpoints between sorted distinct values in ascending order.
func (b *builder) splitNumeric(f int, indices []int, mean float64) *split {
	sorted := make([]int, len(indices))
	copy(sorted, indices)
	sort.SliceStable(sorted, func(i, j int) bool {
		return b.samples[sorted[i]].Vector[f] < b.samples[sorted[j]].Vector[f]
	})
	var totalSum, totalSumSq float64
	for _, i := range sorted {
		d := b.samples[i].Label - mean
		totalSum += d
		totalSumSq += d * d
	}
	var (
		best       *split
		leftSum    float64
		leftSumSq  float64
		minLeaf    = b.params.MinSamplesLeaf
		numSamples = len(sorted)
	)
	for k := 0; k < numSamples-1; k++ {
		d := b.samples[sorted[k]].Label - mean
		leftSum += d
		leftSumSq += d * d
		lo, hi := b.samples[sorted[k]].Vector[f], b.samples[sorted[k+1]].Vector[f]
		if lo == hi {
			continue
		}
		nLeft := k + 1
		nRight := numSamples - nLeft
		if nLeft < minLeaf || nRight < minLeaf {
			continue
		}
		sse := partialSSE(nLeft, leftSum, leftSumSq) + partialSSE(nRight, totalSum-leftSum, totalSumSq-leftSumSq)
		if best == nil || improves(sse, best.sse) {
			best = &split{feature: f, threshold: lo + (hi-lo)/2, sse: sse}
		}
	}
	return best
}

type categoryStats struct {
	code  uint
	count int
	sum   float64
	sumSq float64
}

// splitCategorical orders the categories observed at the node by mean label and scans every
// prefix of that order as the left subset. For squared error this finds the best subset
// partition without enumerating all of them.
func (b *builder) splitCategorical(f int, indices []int, mean float64) *split {
	groups := make(map[uint]*categoryStats)
	for _, i := range indices {
		code, ok := categoryCode(b.samples[i].Vector[f])
		if !ok {
			continue
		}
		group, exist := groups[code]
		if !exist {
			group = &categoryStats{code: code}
			groups[code] = group
		}
		d := b.samples[i].Label - mean
		group.count++
		group.sum += d
		group.sumSq += d * d
	}
	if len(groups) < 2 {
		return nil
	}
	ordered := make([]*categoryStats, 0, len(groups))
	observed := bitset.New(uint(b.codec.Cardinality(f)))
	var total categoryStats
	for _, group := range groups {
		ordered = append(ordered, group)
		observed.Set(group.code)
		total.count += group.count
		total.sum += group.sum
		total.sumSq += group.sumSq
	}
	sort.Slice(ordered, func(i, j int) bool {
		mi := ordered[i].sum / float64(ordered[i].count)
		mj := ordered[j].sum / float64(ordered[j].count)
		if mi != mj {
			return mi < mj
		}
		return ordered[i].code < ordered[j].code
	})
	var (
		best  *split
		left  categoryStats
		count = -1
	)
	for k := 0; k < len(ordered)-1; k++ {
		left.count += ordered[k].count
		left.sum += ordered[k].sum
		left.sumSq += ordered[k].sumSq
		nRight := total.count - left.count
		if left.count < b.params.MinSamplesLeaf || nRight < b.params.MinSamplesLeaf {
			continue
		}
		sse := partialSSE(left.count, left.sum, left.sumSq) +
			partialSSE(nRight, total.sum-left.sum, total.sumSq-left.sumSq)
		if best == nil || improves(sse, best.sse) {
			best = &split{feature: f, sse: sse, observed: observed}
			count = k + 1
		}
	}
	if best != nil {
		best.category = bitset.New(observed.Len())
		for _, group := range ordered[:count] {
			best.category.Set(group.code)
		}
	}
	return best
}

func (b *builder) partition(indices []int, s *split) (left, right []int) {
	for _, i := range indices {
		value := b.samples[i].Vector[s.feature]
		var goLeft bool
		if s.category == nil {
			goLeft = value <= s.threshold
		} else {
			code, ok := categoryCode(value)
			goLeft = ok && s.category.Test(code)
		}
		if goLeft {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return
}
