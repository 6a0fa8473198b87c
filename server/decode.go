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

package server

import (
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/common/util"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/logics"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/model/feature"
	"github.com/go-viper/mapstructure/v2"
	"github.com/juju/errors"
)

// PredictRequest is the body of a price prediction. Numbers may be sent as strings.
type PredictRequest struct {
	Brand           string  `json:"brand" mapstructure:"brand"`
	ReleaseYear     int     `json:"releaseYear" mapstructure:"releaseYear" validate:"required"`
	ScreenSize      float64 `json:"screenSize" mapstructure:"screenSize" validate:"required"`
	OperatingSystem string  `json:"operatingSystem" mapstructure:"operatingSystem"`
	InternalStorage int     `json:"internalStorage" mapstructure:"internalStorage" validate:"required"`
	Battery         int     `json:"battery" mapstructure:"battery" validate:"required"`
	RAM             int     `json:"ram" mapstructure:"ram" validate:"required"`
	Processor       string  `json:"processor" mapstructure:"processor"`
}

func (r *PredictRequest) DeviceSpec() feature.DeviceSpec {
	return feature.DeviceSpec{
		Brand:           r.Brand,
		ReleaseYear:     r.ReleaseYear,
		ScreenSize:      r.ScreenSize,
		OperatingSystem: r.OperatingSystem,
		InternalStorage: r.InternalStorage,
		Battery:         r.Battery,
		RAM:             r.RAM,
		Processor:       r.Processor,
	}
}

// RecommendRequest is the body of a recommendation. Empty values mean no constraint.
type RecommendRequest struct {
	Budget          float64  `json:"budget" mapstructure:"budget" validate:"required"`
	Brand           string   `json:"brand" mapstructure:"brand"`
	OperatingSystem string   `json:"operatingSystem" mapstructure:"operatingSystem"`
	MinRAM          *float64 `json:"minRam" mapstructure:"minRam"`
	MinStorage      *float64 `json:"minStorage" mapstructure:"minStorage"`
	MinBattery      *float64 `json:"minBattery" mapstructure:"minBattery"`
	MinScreenSize   *float64 `json:"minScreenSize" mapstructure:"minScreenSize"`
}

func (r *RecommendRequest) Filter() logics.Filter {
	return logics.Filter{
		Budget:          r.Budget,
		Brand:           strings.TrimSpace(r.Brand),
		OperatingSystem: strings.TrimSpace(r.OperatingSystem),
		MinRAM:          r.MinRAM,
		MinStorage:      r.MinStorage,
		MinBattery:      r.MinBattery,
		MinScreenSize:   r.MinScreenSize,
	}
}

// lenientHook treats blank strings as absent and parses numeric strings. JSON numbers arrive as
// json.Number, which is a string kind.
func lenientHook(from, to reflect.Type, data any) (any, error) {
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		var value float64
		switch from.Kind() {
		case reflect.String:
			s := strings.TrimSpace(reflect.ValueOf(data).String())
			if s == "" {
				return nil, nil
			}
			var err error
			if value, err = strconv.ParseFloat(s, 64); err != nil {
				return nil, errors.NotValidf("number %q", s)
			}
		case reflect.Float32, reflect.Float64:
			value = reflect.ValueOf(data).Float()
		default:
			return data, nil
		}
		if value != math.Trunc(value) || math.IsInf(value, 0) {
			return nil, errors.NotValidf("integer %v", value)
		}
		return int64(value), nil
	case reflect.Float32, reflect.Float64:
		if from.Kind() != reflect.String {
			return data, nil
		}
		s := strings.TrimSpace(reflect.ValueOf(data).String())
		if s == "" {
			return nil, nil
		}
		value, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
			return nil, errors.NotValidf("number %q", s)
		}
		return value, nil
	case reflect.Ptr:
		if from.Kind() == reflect.String && strings.TrimSpace(reflect.ValueOf(data).String()) == "" {
			return nil, nil
		}
	}
	return data, nil
}

// decodeBody decodes a JSON object into a request and validates it.
func decodeBody(body map[string]any, request any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       lenientHook,
		WeaklyTypedInput: true,
		Result:           request,
	})
	if err != nil {
		return errors.Trace(err)
	}
	if err = decoder.Decode(body); err != nil {
		return errors.NewNotValid(err, "invalid request")
	}
	if err = util.ValidateStruct(request); err != nil {
		return errors.Trace(err)
	}
	return nil
}
