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

package main

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/base/log"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/logics"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/master"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/model/fpgrowth"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/model/tree"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/storage"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/storage/catalog"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var trainCommand = &cobra.Command{
	Use:   "train",
	Short: "Train the price model once and print its holdout score.",
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := loadCatalog(cmd.Context())
		if err != nil {
			return errors.Trace(err)
		}
		result, err := master.Train(cmd.Context(), conf, entries)
		if err != nil {
			return errors.Trace(err)
		}
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Samples", "Test", "Nodes", "Depth", "RMSE", "MAE", "R2")
		if err = table.Append(result.NumSamples, result.NumTest, result.Model.NumNodes(), result.Model.Depth(),
			fmt.Sprintf("%.2f", result.Score.RMSE), fmt.Sprintf("%.2f", result.Score.MAE), fmt.Sprintf("%.4f", result.Score.R2)); err != nil {
			return errors.Trace(err)
		}
		return errors.Trace(table.Render())
	},
}

var evaluateCommand = &cobra.Command{
	Use:   "evaluate",
	Short: "Cross validate the price model.",
	RunE: func(cmd *cobra.Command, args []string) error {
		folds, _ := cmd.Flags().GetInt("folds")
		entries, err := loadCatalog(cmd.Context())
		if err != nil {
			return errors.Trace(err)
		}
		bar := progressbar.Default(int64(folds), "cross validation")
		scores, err := master.CrossValidate(cmd.Context(), conf, entries, folds, func(int, tree.Score) {
			_ = bar.Add(1)
		})
		if err != nil {
			return errors.Trace(err)
		}
		_ = bar.Finish()

		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Fold", "RMSE", "MAE", "R2")
		for i, score := range scores {
			if err = table.Append(i, fmt.Sprintf("%.2f", score.RMSE), fmt.Sprintf("%.2f", score.MAE), fmt.Sprintf("%.4f", score.R2)); err != nil {
				return errors.Trace(err)
			}
		}
		n := float64(len(scores))
		if err = table.Append("mean",
			fmt.Sprintf("%.2f", lo.SumBy(scores, func(s tree.Score) float64 { return s.RMSE })/n),
			fmt.Sprintf("%.2f", lo.SumBy(scores, func(s tree.Score) float64 { return s.MAE })/n),
			fmt.Sprintf("%.4f", lo.SumBy(scores, func(s tree.Score) float64 { return s.R2 })/n)); err != nil {
			return errors.Trace(err)
		}
		return errors.Trace(table.Render())
	},
}

var mineCommand = &cobra.Command{
	Use:   "mine",
	Short: "Mine association rules and print the strongest ones.",
	RunE: func(cmd *cobra.Command, args []string) error {
		top, _ := cmd.Flags().GetInt("top")
		entries, err := loadCatalog(cmd.Context())
		if err != nil {
			return errors.Trace(err)
		}
		snapshot, err := master.BuildSnapshot(cmd.Context(), conf, entries)
		if err != nil {
			return errors.Trace(err)
		}
		rules := slices.Clone(snapshot.Rules.Rules())
		slices.SortStableFunc(rules, func(a, b fpgrowth.Rule) int {
			if c := cmp.Compare(b.Lift, a.Lift); c != 0 {
				return c
			}
			return cmp.Compare(b.Confidence, a.Confidence)
		})
		if top > 0 && len(rules) > top {
			rules = rules[:top]
		}
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Antecedent", "Consequent", "Support", "Confidence", "Lift")
		for _, rule := range rules {
			if err = table.Append(strings.Join(rule.Antecedent, ", "), strings.Join(rule.Consequent, ", "),
				fmt.Sprintf("%.4f", rule.Support), fmt.Sprintf("%.4f", rule.Confidence), fmt.Sprintf("%.4f", rule.Lift)); err != nil {
				return errors.Trace(err)
			}
		}
		return errors.Trace(table.Render())
	},
}

var importCommand = &cobra.Command{
	Use:   "import <csv file>",
	Short: "Import phones from a CSV file into the catalog store.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		batchSize, _ := cmd.Flags().GetInt("batch-size")
		purge, _ := cmd.Flags().GetBool("purge")
		if batchSize <= 0 {
			return errors.NotValidf("batch size %d", batchSize)
		}
		source, err := catalog.Open(storage.CSVPrefix+args[0], "")
		if err != nil {
			return errors.Trace(err)
		}
		defer source.Close()
		entries, err := source.GetEntries(cmd.Context())
		if err != nil {
			return errors.Annotatef(err, "read %s", args[0])
		}

		store, err := openCatalog()
		if err != nil {
			return errors.Trace(err)
		}
		defer store.Close()
		if purge {
			if err = store.Purge(); err != nil {
				return errors.Trace(err)
			}
		}
		bar := progressbar.Default(int64(len(entries)), "import phones")
		for _, chunk := range lo.Chunk(entries, batchSize) {
			if err = store.BatchInsertEntries(cmd.Context(), chunk); err != nil {
				return errors.Trace(err)
			}
			_ = bar.Add(len(chunk))
		}
		_ = bar.Finish()
		log.Logger().Info("phones imported", zap.Int("n_entries", len(entries)))
		return nil
	},
}

// loadCatalog reads the configured catalog with the same retries and name completion as serve.
func loadCatalog(ctx context.Context) ([]catalog.Entry, error) {
	store, err := openCatalog()
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer store.Close()
	m, err := master.NewMaster(conf, store, logics.NewSnapshotHandle())
	if err != nil {
		return nil, errors.Trace(err)
	}
	return m.LoadCatalog(ctx)
}

func init() {
	evaluateCommand.Flags().Int("folds", 5, "number of folds")
	mineCommand.Flags().Int("top", 20, "number of rules to print, zero prints all")
	importCommand.Flags().Int("batch-size", 1000, "number of phones inserted per batch")
	importCommand.Flags().Bool("purge", false, "remove existing phones before import")
}
