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
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/model/tree"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	LabelStep   = "step"
	LabelStatus = "status"
)

var (
	RefitStepSecondsVec = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "phonerec",
		Subsystem: "master",
		Name:      "refit_step_seconds",
	}, []string{LabelStep})
	RefitTotalSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "phonerec",
		Subsystem: "master",
		Name:      "refit_total_seconds",
	})
	RefitTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "phonerec",
		Subsystem: "master",
		Name:      "refit_total",
	}, []string{LabelStatus})

	CatalogEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "phonerec",
		Subsystem: "master",
		Name:      "catalog_entries",
	})
	CatalogPricedEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "phonerec",
		Subsystem: "master",
		Name:      "catalog_priced_entries",
	})

	PriceModelRMSE = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "phonerec",
		Subsystem: "master",
		Name:      "price_model_rmse",
	})
	PriceModelMAE = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "phonerec",
		Subsystem: "master",
		Name:      "price_model_mae",
	})
	PriceModelR2 = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "phonerec",
		Subsystem: "master",
		Name:      "price_model_r2",
	})
	PriceModelNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "phonerec",
		Subsystem: "master",
		Name:      "price_model_nodes",
	})
	PriceModelDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "phonerec",
		Subsystem: "master",
		Name:      "price_model_depth",
	})

	FrequentItemsets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "phonerec",
		Subsystem: "master",
		Name:      "frequent_itemsets",
	})
	AssociationRules = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "phonerec",
		Subsystem: "master",
		Name:      "association_rules",
	})
)

func updatePriceModelMetrics(model *tree.Model, score tree.Score) {
	PriceModelRMSE.Set(score.RMSE)
	PriceModelMAE.Set(score.MAE)
	PriceModelR2.Set(score.R2)
	PriceModelNodes.Set(float64(model.NumNodes()))
	PriceModelDepth.Set(float64(model.Depth()))
}
