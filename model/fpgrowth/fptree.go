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
	"sort"
)

// path is a weighted ordered list of items: a transaction or a prefix path of a conditional
// pattern base.
type path struct {
	items []string
	count int
}

type fpNode struct {
	item   int32 // rank of the item, -1 for the root
	count  int
	parent int32
	next   int32 // next node holding the same item, -1 at the end of the chain
}

// fpTree is a prefix tree of weighted paths. Nodes live in an arena and are addressed by
// index; the whole tree is dropped at once after mining.
type fpTree struct {
	nodes    []fpNode
	children map[[2]int32]int32 // (parent, rank) -> child
	items    []string           // rank -> item, descending frequency
	counts   []int              // rank -> total count in this tree
	heads    []int32            // rank -> first node of the header chain
	tails    []int32
}

// buildTree counts item frequencies over paths, keeps items passing frequent and inserts every
// path sorted by descending frequency (ties by item ascending).
func buildTree(paths []path, frequent func(count int) bool) *fpTree {
	freq := make(map[string]int)
	for _, p := range paths {
		for _, item := range p.items {
			freq[item] += p.count
		}
	}
	tree := &fpTree{
		nodes:    []fpNode{{item: -1, parent: -1, next: -1}},
		children: make(map[[2]int32]int32),
	}
	for item, count := range freq {
		if frequent(count) {
			tree.items = append(tree.items, item)
		}
	}
	sort.Slice(tree.items, func(i, j int) bool {
		ci, cj := freq[tree.items[i]], freq[tree.items[j]]
		if ci != cj {
			return ci > cj
		}
		return tree.items[i] < tree.items[j]
	})
	rank := make(map[string]int32, len(tree.items))
	tree.counts = make([]int, len(tree.items))
	tree.heads = make([]int32, len(tree.items))
	tree.tails = make([]int32, len(tree.items))
	for i, item := range tree.items {
		rank[item] = int32(i)
		tree.heads[i], tree.tails[i] = -1, -1
	}

	ranks := make([]int32, 0)
	for _, p := range paths {
		ranks = ranks[:0]
		for _, item := range p.items {
			if r, ok := rank[item]; ok {
				ranks = append(ranks, r)
			}
		}
		sort.Slice(ranks, func(i, j int) bool { return ranks[i] < ranks[j] })
		tree.insert(ranks, p.count)
	}
	return tree
}

func (tree *fpTree) insert(ranks []int32, count int) {
	cur := int32(0)
	for _, r := range ranks {
		tree.counts[r] += count
		key := [2]int32{cur, r}
		child, ok := tree.children[key]
		if !ok {
			child = int32(len(tree.nodes))
			tree.nodes = append(tree.nodes, fpNode{item: r, parent: cur, next: -1})
			tree.children[key] = child
			if tree.tails[r] < 0 {
				tree.heads[r] = child
			} else {
				tree.nodes[tree.tails[r]].next = child
			}
			tree.tails[r] = child
		}
		tree.nodes[child].count += count
		cur = child
	}
}

// conditionalBase collects the prefix paths above every occurrence of the item ranked r.
func (tree *fpTree) conditionalBase(r int32) []path {
	var base []path
	for n := tree.heads[r]; n >= 0; n = tree.nodes[n].next {
		var items []string
		for p := tree.nodes[n].parent; p > 0; p = tree.nodes[p].parent {
			items = append(items, tree.items[tree.nodes[p].item])
		}
		if len(items) > 0 {
			base = append(base, path{items: items, count: tree.nodes[n].count})
		}
	}
	return base
}
