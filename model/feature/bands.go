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

import (
	"sort"
	"strconv"
	"strings"

	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/config"
	"github.com/samber/lo"
)

// Item name prefixes of mining transactions.
const (
	ItemBrand       = "brand"
	ItemOS          = "os"
	ItemProcessor   = "processor"
	ItemPrice       = "price"
	ItemRAM         = "ram"
	ItemStorage     = "storage"
	ItemBattery     = "battery"
	ItemScreenSize  = "screen"
	ItemReleaseYear = "year"
)

// Bands discretizes specifications into item labels such as "brand=samsung", "ram=6-8" or
// "price>=60000". Bounds are ascending cut points: a value v falls into [b[i], b[i+1]).
type Bands struct {
	Price       []float64
	RAM         []float64
	Storage     []float64
	Battery     []float64
	ScreenSize  []float64
	ReleaseYear []float64
}

func NewBands(cfg config.BandsConfig) *Bands {
	return &Bands{
		Price:       cfg.Price,
		RAM:         cfg.RAM,
		Storage:     cfg.Storage,
		Battery:     cfg.Battery,
		ScreenSize:  cfg.ScreenSize,
		ReleaseYear: cfg.ReleaseYear,
	}
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Band returns the item of a numeric value. No item is produced without bounds.
func Band(name string, bounds []float64, value float64) (string, bool) {
	if len(bounds) == 0 {
		return "", false
	}
	i := sort.SearchFloat64s(bounds, value)
	if i < len(bounds) && bounds[i] == value {
		i++
	}
	switch {
	case i == 0:
		return name + "<" + formatBound(bounds[0]), true
	case i == len(bounds):
		return name + ">=" + formatBound(bounds[len(bounds)-1]), true
	default:
		return name + "=" + formatBound(bounds[i-1]) + "-" + formatBound(bounds[i]), true
	}
}

// CategoryItem returns the item of a categorical value.
func CategoryItem(name, value string) (string, bool) {
	value = normalize(value)
	if value == "" {
		return "", false
	}
	return name + "=" + value, true
}

// Items returns the sorted transaction of a specification and its price.
func (b *Bands) Items(spec DeviceSpec, price float64) []string {
	var items []string
	add := func(item string, ok bool) {
		if ok {
			items = append(items, item)
		}
	}
	add(CategoryItem(ItemBrand, spec.Brand))
	add(CategoryItem(ItemOS, spec.OperatingSystem))
	add(CategoryItem(ItemProcessor, spec.Processor))
	add(Band(ItemPrice, b.Price, price))
	add(Band(ItemRAM, b.RAM, float64(spec.RAM)))
	add(Band(ItemStorage, b.Storage, float64(spec.InternalStorage)))
	add(Band(ItemBattery, b.Battery, float64(spec.Battery)))
	add(Band(ItemScreenSize, b.ScreenSize, spec.ScreenSize))
	add(Band(ItemReleaseYear, b.ReleaseYear, float64(spec.ReleaseYear)))
	items = lo.Uniq(items)
	sort.Strings(items)
	return items
}

// IsBandOf tells whether an item belongs to the named field.
func IsBandOf(item, name string) bool {
	return strings.HasPrefix(item, name+"=") || strings.HasPrefix(item, name+"<") || strings.HasPrefix(item, name+">=")
}
