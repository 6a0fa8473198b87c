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
	"time"

	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/common/util"
	"github.com/juju/errors"
)

// Kind tells how a field is encoded.
type Kind int

const (
	Numeric Kind = iota
	Categorical
)

// Field indices in declaration order. The order is also the tie-breaking order of splits.
const (
	Brand = iota
	ReleaseYear
	ScreenSize
	OperatingSystem
	InternalStorage
	Battery
	RAM
	Processor
	NumFields
)

type Field struct {
	Name string
	Kind Kind
}

var Fields = [NumFields]Field{
	{Name: "brand", Kind: Categorical},
	{Name: "release_year", Kind: Numeric},
	{Name: "screen_size", Kind: Numeric},
	{Name: "operating_system", Kind: Categorical},
	{Name: "internal_storage", Kind: Numeric},
	{Name: "battery", Kind: Numeric},
	{Name: "ram", Kind: Numeric},
	{Name: "processor", Kind: Categorical},
}

const MinReleaseYear = 2010

// DeviceSpec is the specification of a phone. Storage and RAM are in GB, battery in mAh and
// screen size in inches.
type DeviceSpec struct {
	Brand           string  `json:"brand" bson:"brand"`
	ReleaseYear     int     `json:"releaseYear" bson:"release_year" validate:"gte=2010"`
	ScreenSize      float64 `json:"screenSize" bson:"screen_size" validate:"gt=0,lte=15"`
	OperatingSystem string  `json:"operatingSystem" bson:"operating_system"`
	InternalStorage int     `json:"internalStorage" bson:"internal_storage" validate:"oneof=1 2 4 8 16 32 64 128 256 512 1024"`
	Battery         int     `json:"battery" bson:"battery" validate:"gt=0,lte=20000"`
	RAM             int     `json:"ram" bson:"ram" validate:"oneof=1 2 3 4 5 6 8 10 12 16 18 24 32"`
	Processor       string  `json:"processor" bson:"processor"`
}

// Validate checks numeric fields against their domains. Categorical fields are never rejected
// here: unregistered categories are mapped to the unknown category by the codec.
func (spec *DeviceSpec) Validate() error {
	if err := util.ValidateStruct(spec); err != nil {
		return errors.Annotate(err, "invalid device spec")
	}
	if maxYear := time.Now().Year() + 1; spec.ReleaseYear > maxYear {
		return errors.NotValidf("release year %d (later than %d)", spec.ReleaseYear, maxYear)
	}
	return nil
}

// Category returns the raw value of a categorical field.
func (spec *DeviceSpec) Category(field int) string {
	switch field {
	case Brand:
		return spec.Brand
	case OperatingSystem:
		return spec.OperatingSystem
	case Processor:
		return spec.Processor
	default:
		panic("not a categorical field")
	}
}

// Number returns the value of a numeric field.
func (spec *DeviceSpec) Number(field int) float64 {
	switch field {
	case ReleaseYear:
		return float64(spec.ReleaseYear)
	case ScreenSize:
		return spec.ScreenSize
	case InternalStorage:
		return float64(spec.InternalStorage)
	case Battery:
		return float64(spec.Battery)
	case RAM:
		return float64(spec.RAM)
	default:
		panic("not a numeric field")
	}
}
