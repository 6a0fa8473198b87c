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
	"context"
	"fmt"
	"net/http"

	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/base/log"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/config"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/logics"
	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"
	"github.com/juju/errors"
	"github.com/juju/ratelimit"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggest/swgui/v5emb"
	"go.uber.org/zap"
)

const (
	apiDocsPath = "/apidocs/"
	apiSpecPath = "/apidocs.json"
)

// Server serves predictions and recommendations from the current snapshot.
type Server struct {
	Config    *config.Config
	Snapshots *logics.SnapshotHandle
	Version   string

	container  *restful.Container
	cache      ResultCache
	bucket     *ratelimit.Bucket
	httpServer *http.Server
}

// NewServer creates a server and registers its routes.
func NewServer(cfg *config.Config, snapshots *logics.SnapshotHandle, version string) (*Server, error) {
	cache, err := OpenResultCache(cfg.Server)
	if err != nil {
		return nil, errors.Annotatef(err, "open cache store")
	}
	s := &Server{
		Config:    cfg,
		Snapshots: snapshots,
		Version:   version,
		container: restful.NewContainer(),
		cache:     cache,
	}
	if cfg.Server.RateLimit > 0 {
		s.bucket = ratelimit.NewBucketWithRate(cfg.Server.RateLimit, max(cfg.Server.RateBurst, 1))
	}

	// register restful APIs
	s.container.Add(s.CreateWebService())
	s.container.Filter(RequestIDFilter)
	s.container.Filter(restful.CrossOriginResourceSharing{
		AllowedHeaders: []string{"Content-Type", "Accept", "X-API-Key", "X-Request-ID"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		ExposeHeaders:  []string{"X-Request-ID"},
		Container:      s.container,
	}.Filter)
	// register swagger UI
	specConfig := restfulspec.Config{
		WebServices: s.container.RegisteredWebServices(),
		APIPath:     apiSpecPath,
	}
	s.container.Add(restfulspec.NewOpenAPIService(specConfig))
	s.container.Handle(apiDocsPath, v5emb.New("Phone price API", apiSpecPath, apiDocsPath))
	// register prometheus
	s.container.Handle("/metrics", promhttp.Handler())
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: s.container,
	}
	return s, nil
}

// Handler returns the HTTP handler of every route.
func (s *Server) Handler() http.Handler {
	return s.container
}

// Serve listens on the configured address until Shutdown is called. It returns immediately if
// the server has already been shut down.
func (s *Server) Serve() error {
	log.Logger().Info("start http server",
		zap.String("url", fmt.Sprintf("http://%s", s.httpServer.Addr)),
		zap.Bool("api_key", s.Config.Server.APIKey != ""),
		zap.String("cache_store", log.RedactDBURL(s.Config.Server.CacheStore)),
		zap.Float64("rate_limit", s.Config.Server.RateLimit))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Trace(err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			log.Logger().Error("failed to close cache store", zap.Error(err))
		}
	}
	return errors.Trace(s.httpServer.Shutdown(ctx))
}
