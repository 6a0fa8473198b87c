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
	"slices"
	"strings"
)

// maxRuleItems bounds the itemsets expanded into rules, 2^n subsets each.
const maxRuleItems = 16

// Rule is an association rule Antecedent => Consequent. Both sides are sorted and disjoint.
type Rule struct {
	Antecedent []string
	Consequent []string
	Support    float64
	Confidence float64
	Lift       float64
}

func (r Rule) String() string {
	return "{" + strings.Join(r.Antecedent, ", ") + "} => {" + strings.Join(r.Consequent, ", ") + "}"
}

// GenerateRules splits every itemset of two or more items into each non-empty proper subset as
// antecedent and the remainder as consequent. Rules with confidence below minConfidence are
// dropped. Supports of subsets are looked up in itemsets, so itemsets should be closed under
// subsets as returned by Mine. Rules are ordered by descending confidence, then descending lift,
// then by items.
func GenerateRules(itemsets []Itemset, minConfidence float64) []Rule {
	support := make(map[string]float64, len(itemsets))
	for _, itemset := range itemsets {
		support[itemset.Key()] = itemset.Support
	}
	var rules []Rule
	for _, itemset := range itemsets {
		k := len(itemset.Items)
		if k < 2 || k > maxRuleItems {
			continue
		}
		for mask := 1; mask < 1<<k-1; mask++ {
			antecedent := make([]string, 0, k)
			consequent := make([]string, 0, k)
			for i, item := range itemset.Items {
				if mask&(1<<i) != 0 {
					antecedent = append(antecedent, item)
				} else {
					consequent = append(consequent, item)
				}
			}
			antecedentSupport, ok := support[itemsKey(antecedent)]
			if !ok || antecedentSupport == 0 {
				continue
			}
			consequentSupport, ok := support[itemsKey(consequent)]
			if !ok || consequentSupport == 0 {
				continue
			}
			confidence := itemset.Support / antecedentSupport
			if confidence < minConfidence {
				continue
			}
			rules = append(rules, Rule{
				Antecedent: antecedent,
				Consequent: consequent,
				Support:    itemset.Support,
				Confidence: confidence,
				Lift:       confidence / consequentSupport,
			})
		}
	}
	slices.SortFunc(rules, func(a, b Rule) int {
		switch {
		case a.Confidence != b.Confidence:
			if a.Confidence > b.Confidence {
				return -1
			}
			return 1
		case a.Lift != b.Lift:
			if a.Lift > b.Lift {
				return -1
			}
			return 1
		}
		if c := slices.Compare(a.Antecedent, b.Antecedent); c != 0 {
			return c
		}
		return slices.Compare(a.Consequent, b.Consequent)
	})
	return rules
}
