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
	"slices"
	"sync"
	"time"

	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/model/feature"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/model/tree"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/storage/catalog"
	"github.com/samber/lo"
	"go.uber.org/atomic"
)

// Snapshot is a trained model, its rule set and the catalog they were built from. A snapshot
// is never modified after it is published.
type Snapshot struct {
	Version     int64
	TrainedAt   time.Time
	Codec       *feature.Codec
	Model       *tree.Model
	Score       tree.Score
	Rules       *RuleIndex
	Bands       *feature.Bands
	Catalog     []catalog.Entry
	Recommender *Recommender
}

func (s *Snapshot) ModelLoaded() bool {
	return s != nil && s.Model != nil
}

func (s *Snapshot) RulesLoaded() bool {
	return s != nil && s.Rules != nil
}

func (s *Snapshot) DatasetLoaded() bool {
	return s != nil && s.Catalog != nil
}

func (s *Snapshot) DatasetSize() int {
	if s == nil {
		return 0
	}
	return len(s.Catalog)
}

// Brands returns the sorted distinct brands of the catalog.
func (s *Snapshot) Brands() []string {
	if s == nil {
		return []string{}
	}
	brands := lo.Uniq(lo.FilterMap(s.Catalog, func(entry catalog.Entry, _ int) (string, bool) {
		return entry.Brand, entry.Brand != ""
	}))
	slices.Sort(brands)
	return brands
}

// SnapshotHandle holds the currently served snapshot. Readers always observe a complete
// snapshot: publication is a single reference swap. Versions of published snapshots only
// increase.
type SnapshotHandle struct {
	current atomic.Pointer[Snapshot]
	mu      sync.Mutex
	version int64
}

func NewSnapshotHandle() *SnapshotHandle {
	return &SnapshotHandle{}
}

// Publish assigns the next version to snapshot and makes it current.
func (h *SnapshotHandle) Publish(snapshot *Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.version++
	snapshot.Version = h.version
	h.current.Store(snapshot)
}

// Load returns the current snapshot, nil before the first publication.
func (h *SnapshotHandle) Load() *Snapshot {
	return h.current.Load()
}
