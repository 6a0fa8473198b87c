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
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/base/log"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/cmd/version"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/config"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/logics"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/master"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/server"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/storage/catalog"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

var conf *config.Config

var rootCommand = &cobra.Command{
	Use:   "phonerec",
	Short: "Phone price estimation and recommendation service.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// setup logger
		debug, _ := cmd.Flags().GetBool("debug")
		if err := log.SetLogger(cmd.Flags(), debug); err != nil {
			return errors.Annotate(err, "failed to setup logger")
		}

		// load config
		configPath, _ := cmd.Flags().GetString("config")
		log.Logger().Debug("load config", zap.String("config", configPath))
		var err error
		if conf, err = config.LoadConfig(configPath); err != nil {
			return errors.Annotate(err, "failed to load config")
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion, _ := cmd.Flags().GetBool("version"); showVersion {
			fmt.Print(version.BuildInfo())
			return
		}
		_ = cmd.Help()
	},
}

var serveCommand = &cobra.Command{
	Use:   "serve",
	Short: "Serve the REST API and refit models periodically.",
	RunE: func(cmd *cobra.Command, args []string) error {
		// setup tracing
		tp, err := conf.Tracing.NewTracerProvider()
		if err != nil {
			return errors.Trace(err)
		}
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				log.Logger().Error("failed to shutdown tracer provider", zap.Error(err))
			}
		}()

		// open catalog
		store, err := openCatalog()
		if err != nil {
			return errors.Trace(err)
		}
		defer store.Close()

		snapshots := logics.NewSnapshotHandle()
		m, err := master.NewMaster(conf, store, snapshots)
		if err != nil {
			return errors.Trace(err)
		}
		s, err := server.NewServer(conf, snapshots, version.Version)
		if err != nil {
			return errors.Trace(err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		go m.Run(ctx)
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.Shutdown(shutdownCtx); err != nil {
				log.Logger().Error("failed to shutdown http server", zap.Error(err))
			}
		}()
		if err = s.Serve(); err != nil {
			return errors.Trace(err)
		}
		log.Logger().Info("stop phonerec successfully")
		return nil
	},
}

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Print build information.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(version.BuildInfo())
	},
}

// openCatalog opens and initializes the configured catalog store.
func openCatalog() (catalog.Database, error) {
	log.Logger().Info("open catalog", zap.String("catalog_store", log.RedactDBURL(conf.Database.CatalogStore)))
	store, err := catalog.Open(conf.Database.CatalogStore, conf.Database.TablePrefix)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err = store.Init(); err != nil {
		_ = store.Close()
		return nil, errors.Trace(err)
	}
	return store, nil
}

func init() {
	log.AddFlags(rootCommand.PersistentFlags())
	rootCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	rootCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	rootCommand.Flags().BoolP("version", "v", false, "phonerec version")
	rootCommand.AddCommand(serveCommand, trainCommand, evaluateCommand, mineCommand, importCommand, versionCommand)
}

func main() {
	defer log.CloseLogger()
	if err := rootCommand.Execute(); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}
