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

package master

import (
	"context"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/config"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/logics"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/model/feature"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/model/tree"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/storage"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/storage/catalog"
	"github.com/jaswdr/faker"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var (
	brands     = []string{"Samsung", "Apple", "OnePlus", "Xiaomi"}
	rams       = []int{3, 4, 6, 8, 12}
	storages   = []int{32, 64, 128, 256}
	processors = []string{"Snapdragon", "Dimensity", "Exynos", "Bionic"}
)

// newCatalog generates entries priced by RAM, storage and brand. Every fifth entry has no price.
func newCatalog(n int) []catalog.Entry {
	fake := faker.NewWithSeed(rand.NewSource(0))
	entries := make([]catalog.Entry, n)
	for i := range entries {
		brand := brands[fake.IntBetween(0, len(brands)-1)]
		entries[i] = catalog.Entry{
			Id: int64(i + 1),
			DeviceSpec: feature.DeviceSpec{
				Brand:           brand,
				ReleaseYear:     fake.IntBetween(2018, 2023),
				ScreenSize:      float64(fake.IntBetween(55, 68)) / 10,
				OperatingSystem: map[bool]string{true: "iOS", false: "Android"}[brand == "Apple"],
				InternalStorage: storages[fake.IntBetween(0, len(storages)-1)],
				Battery:         fake.IntBetween(3000, 6000),
				RAM:             rams[fake.IntBetween(0, len(rams)-1)],
				Processor:       processors[fake.IntBetween(0, len(processors)-1)],
			},
		}
		if i%5 != 0 {
			price := float64(entries[i].RAM*5000 + entries[i].InternalStorage*50)
			if brand == "Apple" {
				price += 30000
			}
			entries[i].Price = &price
		}
	}
	return entries
}

type MasterTestSuite struct {
	suite.Suite
	master *Master
	store  catalog.Database
}

func (suite *MasterTestSuite) SetupTest() {
	var err error
	suite.store, err = catalog.Open(storage.CSVPrefix+filepath.Join(suite.T().TempDir(), "phones.csv"), "")
	suite.Require().NoError(err)
	suite.Require().NoError(suite.store.Init())
	cfg := config.GetDefaultConfig()
	cfg.Master.FitPeriod = 0
	suite.master, err = NewMaster(cfg, suite.store, logics.NewSnapshotHandle())
	suite.Require().NoError(err)
}

func (suite *MasterTestSuite) TearDownTest() {
	suite.NoError(suite.store.Close())
}

func (suite *MasterTestSuite) TestRefit() {
	ctx := context.Background()
	suite.NoError(suite.store.BatchInsertEntries(ctx, newCatalog(200)))
	suite.NoError(suite.master.Refit(ctx))

	snapshot := suite.master.Snapshots.Load()
	suite.Require().NotNil(snapshot)
	suite.Equal(int64(1), snapshot.Version)
	suite.True(snapshot.ModelLoaded())
	suite.True(snapshot.RulesLoaded())
	suite.Equal(200, snapshot.DatasetSize())
	suite.Equal([]string{"Apple", "OnePlus", "Samsung", "Xiaomi"}, snapshot.Brands())
	suite.Positive(snapshot.Rules.Len())
	// names and images are generated
	entry := snapshot.Catalog[0]
	suite.Contains(entry.Name, entry.Brand)
	suite.Contains(entry.Image, "phone")

	result, err := snapshot.Recommender.Recommend(ctx, snapshot.Catalog, logics.Filter{Budget: 45000, Brand: "samsung"})
	suite.NoError(err)
	suite.NotEmpty(result.Recommendations)
	for _, rec := range result.Recommendations {
		suite.Equal("Samsung", rec.Brand)
		suite.LessOrEqual(rec.Price, 45000.0)
	}

	// a second refit publishes a new version
	suite.NoError(suite.master.Refit(ctx))
	suite.Equal(int64(2), suite.master.Snapshots.Load().Version)
}

func (suite *MasterTestSuite) TestRefitKeepsSnapshot() {
	ctx := context.Background()
	suite.NoError(suite.store.BatchInsertEntries(ctx, newCatalog(50)))
	suite.NoError(suite.master.Refit(ctx))
	served := suite.master.Snapshots.Load()

	suite.NoError(suite.store.Purge())
	suite.NoError(suite.store.BatchInsertEntries(ctx, newCatalog(2)))
	err := suite.master.Refit(ctx)
	suite.ErrorIs(err, tree.ErrTrainingDataInsufficient)
	suite.Same(served, suite.master.Snapshots.Load())

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	suite.Error(suite.master.Refit(canceled))
	suite.Same(served, suite.master.Snapshots.Load())
}

func (suite *MasterTestSuite) TestRun() {
	suite.NoError(suite.store.BatchInsertEntries(context.Background(), newCatalog(50)))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		suite.master.Run(ctx)
		close(done)
	}()
	suite.Eventually(func() bool {
		return suite.master.Snapshots.Load() != nil
	}, 10*time.Second, 10*time.Millisecond)
	suite.master.Schedule()
	suite.Eventually(func() bool {
		return suite.master.Snapshots.Load().Version == 2
	}, 10*time.Second, 10*time.Millisecond)
	cancel()
	<-done
}

func TestMaster(t *testing.T) {
	suite.Run(t, new(MasterTestSuite))
}

func TestLoadCatalogNoDatabase(t *testing.T) {
	m, err := NewMaster(config.GetDefaultConfig(), catalog.NoDatabase{}, logics.NewSnapshotHandle())
	require.NoError(t, err)
	_, err = m.LoadCatalog(context.Background())
	assert.True(t, errors.Is(err, catalog.ErrNoDatabase))
	assert.Error(t, m.Refit(context.Background()))
	assert.Nil(t, m.Snapshots.Load())
}

func TestNewMasterInvalidTemplate(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Database.NameTemplate = "{{ brand "
	_, err := NewMaster(cfg, catalog.NoDatabase{}, logics.NewSnapshotHandle())
	assert.Error(t, err)
}
