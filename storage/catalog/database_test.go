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

package catalog

import (
	"context"
	"testing"

	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/model/feature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type baseTestSuite struct {
	suite.Suite
	Database
}

func price(p float64) *float64 {
	return &p
}

func testEntries() []Entry {
	return []Entry{
		{
			Id:   1,
			Name: "Galaxy S21, 128GB",
			DeviceSpec: feature.DeviceSpec{
				Brand:           "Samsung",
				ReleaseYear:     2021,
				ScreenSize:      6.2,
				OperatingSystem: "Android",
				InternalStorage: 128,
				Battery:         4000,
				RAM:             8,
				Processor:       "Exynos 2100",
			},
			Price: price(69999),
			Image: "https://example.com/s21.png",
		},
		{
			Id:   2,
			Name: "iPhone 13",
			DeviceSpec: feature.DeviceSpec{
				Brand:           "Apple",
				ReleaseYear:     2021,
				ScreenSize:      6.1,
				OperatingSystem: "iOS",
				InternalStorage: 128,
				Battery:         3240,
				RAM:             4,
				Processor:       "A15 Bionic",
			},
			Price: price(79900),
		},
		{
			Id:   3,
			Name: "Nord 2",
			DeviceSpec: feature.DeviceSpec{
				Brand:           "OnePlus",
				ReleaseYear:     2021,
				ScreenSize:      6.43,
				OperatingSystem: "Android",
				InternalStorage: 256,
				Battery:         4500,
				RAM:             12,
				Processor:       "Dimensity 1200",
			},
		},
	}
}

func (suite *baseTestSuite) TearDownTest() {
	suite.NoError(suite.Database.Purge())
}

func (suite *baseTestSuite) TestEntries() {
	ctx := context.Background()
	entries := testEntries()
	// insert entries
	suite.NoError(suite.Database.BatchInsertEntries(ctx, entries))
	suite.NoError(suite.Database.BatchInsertEntries(ctx, nil))
	result, err := suite.Database.GetEntries(ctx)
	suite.NoError(err)
	suite.Equal(entries, result)
	suite.False(result[2].HasPrice())

	// replace entry
	entries[2].Price = price(31999)
	suite.NoError(suite.Database.BatchInsertEntries(ctx, entries[2:]))
	result, err = suite.Database.GetEntries(ctx)
	suite.NoError(err)
	if suite.Len(result, 3) {
		suite.True(result[2].HasPrice())
		suite.Equal(31999.0, *result[2].Price)
	}

	// purge entries
	suite.NoError(suite.Database.Purge())
	result, err = suite.Database.GetEntries(ctx)
	suite.NoError(err)
	suite.Empty(result)
}

func TestOpen(t *testing.T) {
	_, err := Open("redis://localhost:6379", "")
	assert.Error(t, err)
	db, err := Open("csv://data/phones.csv", "")
	assert.NoError(t, err)
	assert.IsType(t, &CSV{}, db)
}

func TestNoDatabase(t *testing.T) {
	var db NoDatabase
	assert.ErrorIs(t, db.Init(), ErrNoDatabase)
	assert.ErrorIs(t, db.Close(), ErrNoDatabase)
	assert.ErrorIs(t, db.Purge(), ErrNoDatabase)
	_, err := db.GetEntries(context.Background())
	assert.ErrorIs(t, err, ErrNoDatabase)
	assert.ErrorIs(t, db.BatchInsertEntries(context.Background(), testEntries()), ErrNoDatabase)
}
