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

package feature

import "strings"

// UnknownCategory is the reserved label at index 0 of every categorical table.
const UnknownCategory = "unknown"

// Dict maps category labels to dense indices. Labels are matched case-insensitively and the
// first spelling seen is kept for display.
type Dict struct {
	si  map[string]int
	is  []string
	cnt []int
}

func NewDict() *Dict {
	return &Dict{
		si:  map[string]int{UnknownCategory: 0},
		is:  []string{UnknownCategory},
		cnt: []int{0},
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Add registers a label and counts it. Empty labels count as unknown.
func (d *Dict) Add(s string) int {
	key := normalize(s)
	if key == "" {
		key = UnknownCategory
	}
	if y, ok := d.si[key]; ok {
		d.cnt[y]++
		return y
	}
	y := len(d.is)
	d.si[key] = y
	d.is = append(d.is, strings.TrimSpace(s))
	d.cnt = append(d.cnt, 1)
	return y
}

// Id returns the index of a registered label.
func (d *Dict) Id(s string) (int, bool) {
	y, ok := d.si[normalize(s)]
	return y, ok
}

func (d *Dict) Count() int {
	return len(d.is)
}

func (d *Dict) String(id int) (string, bool) {
	if id < 0 || id >= len(d.is) {
		return "", false
	}
	return d.is[id], true
}

func (d *Dict) Freq(id int) int {
	if id < 0 || id >= len(d.cnt) {
		return 0
	}
	return d.cnt[id]
}
