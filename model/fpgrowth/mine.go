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

package fpgrowth

import (
	"context"
	"slices"
	"strings"

	"github.com/juju/errors"
	"github.com/samber/lo"
)

// Itemset is a frequent set of items. Items are sorted ascending.
type Itemset struct {
	Items   []string
	Count   int
	Support float64
}

// Key identifies an itemset by its sorted items.
func (s Itemset) Key() string {
	return itemsKey(s.Items)
}

func itemsKey(items []string) string {
	return strings.Join(items, "\x00")
}

type Config struct {
	// MaxSize bounds the number of items of an itemset. Zero means unbounded.
	MaxSize int
}

func NewConfig() *Config {
	return &Config{}
}

func (config *Config) SetMaxSize(maxSize int) *Config {
	config.MaxSize = maxSize
	return config
}

func (config *Config) LoadDefaultIfNil() *Config {
	if config == nil {
		return NewConfig()
	}
	return config
}

type miner struct {
	ctx      context.Context
	n        int
	frequent func(count int) bool
	maxSize  int
	result   []Itemset
}

// Mine finds every itemset whose support, the fraction of transactions containing all of its
// items, is at least minSupport. Duplicated items in a transaction count once. No itemset is
// returned for an empty transaction set or if minSupport >= 1. Mining is canceled between
// item recursions once ctx is done.
func Mine(ctx context.Context, transactions [][]string, minSupport float64, config *Config) ([]Itemset, error) {
	config = config.LoadDefaultIfNil()
	if minSupport <= 0 {
		return nil, errors.NotValidf("min support %v", minSupport)
	}
	if len(transactions) == 0 || minSupport >= 1 {
		return nil, nil
	}
	n := len(transactions)
	m := &miner{
		ctx: ctx,
		n:   n,
		frequent: func(count int) bool {
			return float64(count)/float64(n) >= minSupport
		},
		maxSize: config.MaxSize,
	}
	paths := make([]path, 0, len(transactions))
	for _, transaction := range transactions {
		paths = append(paths, path{items: lo.Uniq(transaction), count: 1})
	}
	if err := m.grow(buildTree(paths, m.frequent), nil); err != nil {
		return nil, errors.Trace(err)
	}
	slices.SortFunc(m.result, func(a, b Itemset) int {
		if len(a.Items) != len(b.Items) {
			return len(a.Items) - len(b.Items)
		}
		return slices.Compare(a.Items, b.Items)
	})
	return m.result, nil
}

// grow emits suffix extended by every item of tree, least frequent first, and recurses into the
// conditional tree of each extension.
func (m *miner) grow(tree *fpTree, suffix []string) error {
	for r := int32(len(tree.items)) - 1; r >= 0; r-- {
		if err := m.ctx.Err(); err != nil {
			return errors.Trace(err)
		}
		items := append(slices.Clone(suffix), tree.items[r])
		count := tree.counts[r]
		sorted := slices.Clone(items)
		slices.Sort(sorted)
		m.result = append(m.result, Itemset{
			Items:   sorted,
			Count:   count,
			Support: float64(count) / float64(m.n),
		})
		if m.maxSize > 0 && len(items) >= m.maxSize {
			continue
		}
		base := tree.conditionalBase(r)
		if len(base) == 0 {
			continue
		}
		conditional := buildTree(base, m.frequent)
		if len(conditional.items) == 0 {
			continue
		}
		if err := m.grow(conditional, items); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}
