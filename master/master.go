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
	"time"

	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/base/log"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/common/util"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/config"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/logics"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/storage/catalog"
	"github.com/cenkalti/backoff/v5"
	"github.com/juju/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("phonerec/master")

// Master loads the catalog, trains the price model, mines rules and publishes snapshots.
type Master struct {
	Config    *config.Config
	Store     catalog.Database
	Snapshots *logics.SnapshotHandle

	namer     *catalog.Namer
	scheduled chan struct{}
}

// NewMaster creates a master publishing to snapshots.
func NewMaster(cfg *config.Config, store catalog.Database, snapshots *logics.SnapshotHandle) (*Master, error) {
	namer, err := catalog.NewNamer(cfg.Database.NameTemplate, cfg.Database.ImageTemplate)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &Master{
		Config:    cfg,
		Store:     store,
		Snapshots: snapshots,
		namer:     namer,
		scheduled: make(chan struct{}, 1),
	}, nil
}

// LoadCatalog reads every entry of the catalog store. Transient failures are retried with
// exponential backoff.
func (m *Master) LoadCatalog(ctx context.Context) ([]catalog.Entry, error) {
	entries, err := backoff.Retry(ctx, func() ([]catalog.Entry, error) {
		entries, err := m.Store.GetEntries(ctx)
		if errors.Is(err, errors.NotValid) || errors.Is(err, errors.NotFound) || errors.Is(err, errors.NotAssigned) {
			return nil, backoff.Permanent(err)
		}
		return entries, err
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(m.Config.Master.LoadRetries),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Logger().Warn("failed to load catalog", zap.Error(err), zap.Duration("retry_after", next))
		}))
	if err != nil {
		return nil, errors.Trace(err)
	}
	m.namer.Complete(entries)
	return entries, nil
}

// Refit builds a snapshot from the current catalog and publishes it. The served snapshot is
// kept if anything fails.
func (m *Master) Refit(ctx context.Context) (err error) {
	ctx, span := tracer.Start(ctx, "Refit", trace.WithSpanKind(trace.SpanKindInternal))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "refit failed")
		}
		span.End()
	}()
	startTime := time.Now()
	entries, err := m.LoadCatalog(ctx)
	if err != nil {
		RefitTotal.WithLabelValues("failed").Inc()
		return errors.Annotatef(err, "load catalog")
	}
	span.SetAttributes(attribute.Int("n_entries", len(entries)))
	RefitStepSecondsVec.WithLabelValues("load").Set(time.Since(startTime).Seconds())
	CatalogEntries.Set(float64(len(entries)))
	CatalogPricedEntries.Set(float64(countPriced(entries)))
	log.Logger().Info("catalog loaded",
		zap.Int("n_entries", len(entries)),
		zap.Int("n_priced", countPriced(entries)))

	snapshot, err := BuildSnapshot(ctx, m.Config, entries)
	if err != nil {
		RefitTotal.WithLabelValues("failed").Inc()
		return errors.Trace(err)
	}
	m.Snapshots.Publish(snapshot)
	RefitTotal.WithLabelValues("succeeded").Inc()
	RefitTotalSeconds.Set(time.Since(startTime).Seconds())
	log.Logger().Info("snapshot published",
		zap.Int64("version", snapshot.Version),
		zap.Duration("elapsed", time.Since(startTime)))
	return nil
}

func countPriced(entries []catalog.Entry) int {
	n := 0
	for i := range entries {
		if entries[i].HasPrice() {
			n++
		}
	}
	return n
}

// Schedule requests a refit without waiting for the next period.
func (m *Master) Schedule() {
	select {
	case m.scheduled <- struct{}{}:
	default:
	}
}

// Run refits once, then at every fit period and whenever scheduled, until ctx is done.
func (m *Master) Run(ctx context.Context) {
	defer util.CheckPanic()
	m.Schedule()
	var tick <-chan time.Time
	if m.Config.Master.FitPeriod > 0 {
		ticker := time.NewTicker(m.Config.Master.FitPeriod)
		defer ticker.Stop()
		tick = ticker.C
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
		case <-m.scheduled:
		}
		if err := m.Refit(ctx); err != nil {
			log.Logger().Error("failed to refit", zap.Error(err))
		}
	}
}
