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

	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/model/feature"
	"github.com/bits-and-blooms/bitset"
	"github.com/juju/errors"
)

// ErrTrainingDataInsufficient is returned by Fit if the catalog is too small to build a tree.
var ErrTrainingDataInsufficient = errors.New("training data insufficient")

// Sample is a labeled feature vector.
type Sample struct {
	Vector feature.Vector
	Label  float64
}

// Params are the hyper-parameters of a regression tree.
type Params struct {
	MaxDepth       int
	MinSamplesLeaf int
}

func (params Params) Validate() error {
	if params.MaxDepth < 1 {
		return errors.NotValidf("max depth %d", params.MaxDepth)
	}
	if params.MinSamplesLeaf < 1 {
		return errors.NotValidf("min samples leaf %d", params.MinSamplesLeaf)
	}
	return nil
}

type FitConfig struct {
	Jobs int
}

func NewFitConfig() *FitConfig {
	return &FitConfig{Jobs: 1}
}

func (config *FitConfig) SetJobs(jobs int) *FitConfig {
	config.Jobs = jobs
	return config
}

func (config *FitConfig) LoadDefaultIfNil() *FitConfig {
	if config == nil {
		return NewFitConfig()
	}
	return config
}

// Node is an element of the tree arena. Leaves have Feature < 0. Children are addressed by
// their index in the arena and are always allocated after their parent.
type Node struct {
	Feature   int
	Threshold float64        // numeric split: values <= Threshold go left
	Left      int32          // index of the left child
	Right     int32          // index of the right child
	Category  *bitset.BitSet // categorical split: categories routed left
	Observed  *bitset.BitSet // categories present at this node during training
	Value     float64        // mean label of the samples at this node
	Samples   int
}

func (node *Node) IsLeaf() bool {
	return node.Feature < 0
}

// Model is a trained regression tree. It is immutable and safe for concurrent use.
type Model struct {
	codec  *feature.Codec
	params Params
	nodes  []Node
}

// Codec returns the codec the tree was trained with. Inputs must be encoded by this codec.
func (m *Model) Codec() *feature.Codec {
	return m.codec
}

func (m *Model) Params() Params {
	return m.params
}

// Root returns the root node.
func (m *Model) Root() Node {
	return m.nodes[0]
}

// Node returns the node at index i of the arena.
func (m *Model) Node(i int32) Node {
	return m.nodes[i]
}

func (m *Model) NumNodes() int {
	return len(m.nodes)
}

func (m *Model) NumLeaves() int {
	n := 0
	for i := range m.nodes {
		if m.nodes[i].IsLeaf() {
			n++
		}
	}
	return n
}

// Depth returns the length of the longest path from root to leaf.
func (m *Model) Depth() int {
	depths := make([]int, len(m.nodes))
	maxDepth := 0
	for i := range m.nodes {
		node := &m.nodes[i]
		if !node.IsLeaf() {
			depths[node.Left] = depths[i] + 1
			depths[node.Right] = depths[i] + 1
		}
		maxDepth = max(maxDepth, depths[i])
	}
	return maxDepth
}

// Predict walks the tree with an encoded vector.
func (m *Model) Predict(vec feature.Vector) (float64, error) {
	if len(vec) != m.codec.Width() {
		return 0, errors.Annotatef(feature.ErrFeatureShapeMismatch, "expect %d features, got %d", m.codec.Width(), len(vec))
	}
	i := int32(0)
	for {
		node := &m.nodes[i]
		if node.IsLeaf() {
			return node.Value, nil
		}
		i = m.route(node, vec[node.Feature])
	}
}

// PredictSpec encodes a specification with the codec of the model and predicts its price.
func (m *Model) PredictSpec(spec feature.DeviceSpec) float64 {
	value, err := m.Predict(m.codec.Encode(spec))
	if err != nil {
		panic(err)
	}
	return value
}

func (m *Model) route(node *Node, value float64) int32 {
	if node.Category == nil {
		if value <= node.Threshold {
			return node.Left
		}
		return node.Right
	}
	if code, ok := categoryCode(value); ok {
		if node.Category.Test(code) {
			return node.Left
		} else if node.Observed.Test(code) {
			return node.Right
		}
	}
	// categories unseen at this node follow the larger branch
	if m.nodes[node.Right].Samples > m.nodes[node.Left].Samples {
		return node.Right
	}
	return node.Left
}

func categoryCode(value float64) (uint, bool) {
	if value < 0 || value != math.Trunc(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return uint(value), true
}

// Fit trains a regression tree. Training is canceled between node splits once ctx is done and
// the partial tree is discarded.
func Fit(ctx context.Context, codec *feature.Codec, samples []Sample, params Params, config *FitConfig) (*Model, error) {
	config = config.LoadDefaultIfNil()
	if err := params.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if len(samples) == 0 || len(samples) < 2*params.MinSamplesLeaf {
		return nil, errors.Annotatef(ErrTrainingDataInsufficient, "%d samples for min samples leaf %d",
			len(samples), params.MinSamplesLeaf)
	}
	for i := range samples {
		if len(samples[i].Vector) != codec.Width() {
			return nil, errors.Annotatef(feature.ErrFeatureShapeMismatch, "sample %d has %d features, expect %d",
				i, len(samples[i].Vector), codec.Width())
		}
	}
	b := &builder{
		ctx:     ctx,
		codec:   codec,
		samples: samples,
		params:  params,
		jobs:    max(config.Jobs, 1),
	}
	indices := make([]int, len(samples))
	for i := range indices {
		indices[i] = i
	}
	if _, err := b.build(indices, 0); err != nil {
		return nil, errors.Trace(err)
	}
	return &Model{codec: codec, params: params, nodes: b.nodes}, nil
}
