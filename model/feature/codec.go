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
	"math"

	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/base/log"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

var (
	// ErrUnknownField is returned by Lookup for a category missing from the encoding table.
	ErrUnknownField = errors.New("unknown field category")
	// ErrFeatureShapeMismatch is returned when a vector does not have the width of the codec.
	ErrFeatureShapeMismatch = errors.New("feature shape mismatch")
)

// Vector is an encoded DeviceSpec. Numeric fields keep their values and categorical fields
// hold their index in the encoding table.
type Vector []float64

// Codec converts device specifications into feature vectors. Its encoding tables are built
// once by NewCodec and never modified afterwards, so a single Codec can be shared by training
// and any number of concurrent predictions.
type Codec struct {
	tables [NumFields]*Dict
}

// NewCodec builds encoding tables from the training catalog.
func NewCodec(specs []DeviceSpec) *Codec {
	codec := &Codec{}
	for i, field := range Fields {
		if field.Kind == Categorical {
			codec.tables[i] = NewDict()
		}
	}
	for i := range specs {
		for field, table := range codec.tables {
			if table != nil {
				table.Add(specs[i].Category(field))
			}
		}
	}
	return codec
}

// Width is the length of encoded vectors.
func (codec *Codec) Width() int {
	return NumFields
}

// Kind returns the kind of the field at index.
func (codec *Codec) Kind(index int) Kind {
	return Fields[index].Kind
}

// FieldName returns the name of the field at index.
func (codec *Codec) FieldName(index int) (string, error) {
	if index < 0 || index >= NumFields {
		return "", errors.NotFoundf("field %d", index)
	}
	return Fields[index].Name, nil
}

// Cardinality returns the number of categories of a categorical field, unknown included.
func (codec *Codec) Cardinality(field int) int {
	if codec.tables[field] == nil {
		return 0
	}
	return codec.tables[field].Count()
}

// Categories returns registered labels of a categorical field, unknown excluded.
func (codec *Codec) Categories(field int) []string {
	table := codec.tables[field]
	if table == nil {
		return nil
	}
	labels := make([]string, 0, table.Count()-1)
	for i := 1; i < table.Count(); i++ {
		label, _ := table.String(i)
		labels = append(labels, label)
	}
	return labels
}

// Lookup returns the table index of a category.
func (codec *Codec) Lookup(field int, label string) (int, error) {
	table := codec.tables[field]
	if table == nil {
		return 0, errors.NotValidf("numeric field %s", Fields[field].Name)
	}
	if id, ok := table.Id(label); ok {
		return id, nil
	}
	return 0, errors.Annotatef(ErrUnknownField, "%s=%q", Fields[field].Name, label)
}

// Encode converts a specification into a vector. Unregistered categories are replaced by the
// unknown category instead of failing the whole request.
func (codec *Codec) Encode(spec DeviceSpec) Vector {
	vec := make(Vector, NumFields)
	for i, field := range Fields {
		if field.Kind == Numeric {
			vec[i] = spec.Number(i)
			continue
		}
		id, err := codec.Lookup(i, spec.Category(i))
		if err != nil {
			log.Logger().Debug("substitute unknown category", zap.Error(err))
			id = 0
		}
		vec[i] = float64(id)
	}
	return vec
}

// Decode converts a vector back into a specification with table-registered labels.
func (codec *Codec) Decode(vec Vector) (DeviceSpec, error) {
	if len(vec) != NumFields {
		return DeviceSpec{}, errors.Annotatef(ErrFeatureShapeMismatch, "expect %d features, got %d", NumFields, len(vec))
	}
	var labels [NumFields]string
	for i, table := range codec.tables {
		if table == nil {
			continue
		}
		label, ok := table.String(int(vec[i]))
		if !ok {
			return DeviceSpec{}, errors.NotValidf("%s index %v", Fields[i].Name, vec[i])
		}
		labels[i] = label
	}
	return DeviceSpec{
		Brand:           labels[Brand],
		ReleaseYear:     int(math.Round(vec[ReleaseYear])),
		ScreenSize:      vec[ScreenSize],
		OperatingSystem: labels[OperatingSystem],
		InternalStorage: int(math.Round(vec[InternalStorage])),
		Battery:         int(math.Round(vec[Battery])),
		RAM:             int(math.Round(vec[RAM])),
		Processor:       labels[Processor],
	}, nil
}
