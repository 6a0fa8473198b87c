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

	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/model/fpgrowth"
	mapset "github.com/deckarep/golang-set/v2"
)

// RuleIndex indexes association rules by the items of their consequents. It is immutable
// after creation.
type RuleIndex struct {
	rules    []fpgrowth.Rule
	postings map[string][]int
}

func NewRuleIndex(rules []fpgrowth.Rule) *RuleIndex {
	index := &RuleIndex{
		rules:    rules,
		postings: make(map[string][]int),
	}
	for i, rule := range rules {
		for _, item := range rule.Consequent {
			index.postings[item] = append(index.postings[item], i)
		}
	}
	return index
}

func (index *RuleIndex) Len() int {
	if index == nil {
		return 0
	}
	return len(index.rules)
}

func (index *RuleIndex) Rules() []fpgrowth.Rule {
	if index == nil {
		return nil
	}
	return index.rules
}

// Match returns rules whose antecedent is contained in items and whose consequent contains at
// least one of implied, in index order.
func (index *RuleIndex) Match(items mapset.Set[string], implied []string) []fpgrowth.Rule {
	if index.Len() == 0 {
		return nil
	}
	var candidates []int
	for _, item := range implied {
		candidates = append(candidates, index.postings[item]...)
	}
	slices.Sort(candidates)
	candidates = slices.Compact(candidates)
	var matched []fpgrowth.Rule
	for _, i := range candidates {
		if items.Contains(index.rules[i].Antecedent...) {
			matched = append(matched, index.rules[i])
		}
	}
	return matched
}
