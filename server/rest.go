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
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/base/log"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/logics"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/model/fpgrowth"
	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"
	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.opentelemetry.io/contrib/instrumentation/github.com/emicklei/go-restful/otelrestful"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type PredictResponse struct {
	Success        bool           `json:"success"`
	PredictedPrice float64        `json:"predicted_price"`
	InputData      map[string]any `json:"input_data"`
}

type Phone struct {
	Id           int64    `json:"id"`
	Name         string   `json:"name"`
	Brand        string   `json:"brand"`
	Price        float64  `json:"price"`
	Estimated    bool     `json:"estimated"`
	Score        float64  `json:"score"`
	RAM          int      `json:"ram"`
	Storage      int      `json:"storage"`
	ScreenSize   float64  `json:"screenSize"`
	Battery      int      `json:"battery"`
	OS           string   `json:"os"`
	ReleaseYear  int      `json:"releaseYear"`
	Processor    string   `json:"processor"`
	Image        string   `json:"image"`
	MatchedRules []string `json:"matchedRules,omitempty"`
}

type RecommendResponse struct {
	Success         bool    `json:"success"`
	Recommendations []Phone `json:"recommendations"`
	TotalFound      int     `json:"total_found"`
}

type HealthResponse struct {
	Status        string `json:"status"`
	ModelLoaded   bool   `json:"model_loaded"`
	RulesLoaded   bool   `json:"rules_loaded"`
	DatasetLoaded bool   `json:"dataset_loaded"`
	DatasetSize   int    `json:"dataset_size"`
	Version       int64  `json:"snapshot_version"`
}

type BrandsResponse struct {
	Brands []string `json:"brands"`
}

type Status struct {
	ModelLoaded   bool `json:"model_loaded"`
	RulesLoaded   bool `json:"rules_loaded"`
	DatasetLoaded bool `json:"dataset_loaded"`
}

type IndexResponse struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
	Status    Status            `json:"status"`
}

var (
	errModelNotLoaded   = errors.New("model not loaded")
	errDatasetNotLoaded = errors.New("dataset not loaded")
)

// RequestIDFilter tags every request and response with an X-Request-ID header.
func RequestIDFilter(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	requestId := req.HeaderParameter("X-Request-ID")
	if requestId == "" {
		requestId = uuid.NewString()
		req.Request.Header.Set("X-Request-ID", requestId)
	}
	resp.Header().Set("X-Request-ID", requestId)
	chain.ProcessFilter(req, resp)
}

func LogFilter(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	start := time.Now()
	chain.ProcessFilter(req, resp)
	api := req.SelectedRoutePath()
	RequestSecondsVec.WithLabelValues(api).Observe(time.Since(start).Seconds())
	RequestTotalVec.WithLabelValues(api, strconv.Itoa(resp.StatusCode())).Inc()
	log.ResponseLogger(resp).Info(fmt.Sprintf("%s %s", req.Request.Method, req.Request.URL),
		zap.Int("status_code", resp.StatusCode()),
		zap.Duration("latency", time.Since(start)))
}

// CreateWebService creates web service.
func (s *Server) CreateWebService() *restful.WebService {
	ws := new(restful.WebService)
	ws.Path("/").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON).
		Filter(otelrestful.OTelFilter("phonerec")).
		Filter(LogFilter).
		Filter(s.rateLimitFilter)

	ws.Route(ws.GET("/").To(s.index).
		Doc("Describe the service.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"health"}).
		Returns(http.StatusOK, "OK", IndexResponse{}).
		Writes(IndexResponse{}))
	ws.Route(ws.GET("/api/health").To(s.health).
		Doc("Report which parts of the current snapshot are loaded.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"health"}).
		Returns(http.StatusOK, "OK", HealthResponse{}).
		Writes(HealthResponse{}))
	ws.Route(ws.GET("/api/brands").To(s.brands).
		Filter(s.authFilter).
		Doc("Get brands of the catalog.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"catalog"}).
		Param(ws.HeaderParameter("X-API-Key", "secret key for RESTful API")).
		Returns(http.StatusOK, "OK", BrandsResponse{}).
		Returns(http.StatusInternalServerError, "dataset not loaded", ErrorResponse{}).
		Writes(BrandsResponse{}))
	ws.Route(ws.POST("/api/predict").To(s.predict).
		Filter(s.authFilter).
		Doc("Estimate the price of a phone.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"prediction"}).
		Param(ws.HeaderParameter("X-API-Key", "secret key for RESTful API")).
		Reads(PredictRequest{}).
		Returns(http.StatusOK, "OK", PredictResponse{}).
		Returns(http.StatusBadRequest, "invalid specification", ErrorResponse{}).
		Returns(http.StatusInternalServerError, "model not loaded", ErrorResponse{}).
		Writes(PredictResponse{}))
	ws.Route(ws.POST("/api/recommend").To(s.recommend).
		Filter(s.authFilter).
		Doc("Recommend phones within a budget.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"recommendation"}).
		Param(ws.HeaderParameter("X-API-Key", "secret key for RESTful API")).
		Reads(RecommendRequest{}).
		Returns(http.StatusOK, "OK", RecommendResponse{}).
		Returns(http.StatusBadRequest, "invalid filter", ErrorResponse{}).
		Returns(http.StatusInternalServerError, "dataset not loaded", ErrorResponse{}).
		Writes(RecommendResponse{}))
	return ws
}

func (s *Server) authFilter(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	if s.Config.Server.APIKey == "" || req.HeaderParameter("X-API-Key") == s.Config.Server.APIKey {
		chain.ProcessFilter(req, resp)
		return
	}
	log.ResponseLogger(resp).Error("unauthorized", zap.String("path", req.Request.URL.Path))
	writeError(resp, http.StatusUnauthorized, errors.Unauthorizedf("api key"))
}

func (s *Server) rateLimitFilter(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	if s.bucket == nil || s.bucket.TakeAvailable(1) > 0 {
		chain.ProcessFilter(req, resp)
		return
	}
	RateLimitedTotal.Inc()
	writeError(resp, http.StatusTooManyRequests, errors.QuotaLimitExceededf("request rate"))
}

func (s *Server) index(_ *restful.Request, resp *restful.Response) {
	snapshot := s.Snapshots.Load()
	Ok(resp, IndexResponse{
		Message: "Mobile Price Prediction API",
		Version: s.Version,
		Endpoints: map[string]string{
			"health":    "/api/health",
			"predict":   "/api/predict (POST)",
			"recommend": "/api/recommend (POST)",
			"brands":    "/api/brands (GET)",
		},
		Status: Status{
			ModelLoaded:   snapshot.ModelLoaded(),
			RulesLoaded:   snapshot.RulesLoaded(),
			DatasetLoaded: snapshot.DatasetLoaded(),
		},
	})
}

func (s *Server) health(_ *restful.Request, resp *restful.Response) {
	snapshot := s.Snapshots.Load()
	health := HealthResponse{
		Status:        "healthy",
		ModelLoaded:   snapshot.ModelLoaded(),
		RulesLoaded:   snapshot.RulesLoaded(),
		DatasetLoaded: snapshot.DatasetLoaded(),
		DatasetSize:   snapshot.DatasetSize(),
	}
	if snapshot != nil {
		health.Version = snapshot.Version
	}
	Ok(resp, health)
}

func (s *Server) brands(_ *restful.Request, resp *restful.Response) {
	snapshot := s.Snapshots.Load()
	if !snapshot.DatasetLoaded() {
		InternalServerError(resp, errDatasetNotLoaded)
		return
	}
	Ok(resp, BrandsResponse{Brands: snapshot.Brands()})
}

func (s *Server) predict(req *restful.Request, resp *restful.Response) {
	snapshot := s.Snapshots.Load()
	if !snapshot.ModelLoaded() {
		InternalServerError(resp, errModelNotLoaded)
		return
	}
	var body map[string]any
	if err := req.ReadEntity(&body); err != nil {
		BadRequest(resp, errors.NewNotValid(err, "invalid json"))
		return
	}
	var request PredictRequest
	if err := decodeBody(body, &request); err != nil {
		BadRequest(resp, err)
		return
	}
	spec := request.DeviceSpec()
	if err := spec.Validate(); err != nil {
		BadRequest(resp, err)
		return
	}
	price, err := snapshot.Model.Predict(snapshot.Codec.Encode(spec))
	if err != nil {
		BadRequest(resp, err)
		return
	}
	Ok(resp, PredictResponse{
		Success:        true,
		PredictedPrice: math.Round(price*100) / 100,
		InputData:      body,
	})
}

func (s *Server) recommend(req *restful.Request, resp *restful.Response) {
	snapshot := s.Snapshots.Load()
	if !snapshot.DatasetLoaded() || snapshot.Recommender == nil {
		InternalServerError(resp, errDatasetNotLoaded)
		return
	}
	var body map[string]any
	if err := req.ReadEntity(&body); err != nil {
		BadRequest(resp, errors.NewNotValid(err, "invalid json"))
		return
	}
	var request RecommendRequest
	if err := decodeBody(body, &request); err != nil {
		BadRequest(resp, err)
		return
	}
	filter := request.Filter()
	if err := filter.Validate(); err != nil {
		BadRequest(resp, err)
		return
	}

	var result *logics.Result
	key := fmt.Sprintf("%d/%s", snapshot.Version, filter.Key())
	ctx := req.Request.Context()
	if s.cache != nil {
		var ok bool
		if result, ok = s.cache.Get(ctx, key); ok {
			RecommendCacheHitTotal.Inc()
		}
	}
	if result == nil {
		RecommendCacheMissTotal.Inc()
		var err error
		if result, err = snapshot.Recommender.Recommend(ctx, snapshot.Catalog, filter); err != nil {
			InternalServerError(resp, err)
			return
		}
		if s.cache != nil {
			s.cache.Set(ctx, key, result)
		}
	}
	Ok(resp, RecommendResponse{
		Success: true,
		Recommendations: lo.Map(result.Recommendations, func(r logics.Recommendation, _ int) Phone {
			return Phone{
				Id:          r.Id,
				Name:        r.Name,
				Brand:       r.Brand,
				Price:       r.Price,
				Estimated:   r.Estimated,
				Score:       r.Score,
				RAM:         r.RAM,
				Storage:     r.InternalStorage,
				ScreenSize:  r.ScreenSize,
				Battery:     r.Battery,
				OS:          r.OperatingSystem,
				ReleaseYear: r.ReleaseYear,
				Processor:   r.Processor,
				Image:       r.Image,
				MatchedRules: lo.Map(r.MatchedRules, func(rule fpgrowth.Rule, _ int) string {
					return rule.String()
				}),
			}
		}),
		TotalFound: result.TotalFound,
	})
}

func writeError(resp *restful.Response, status int, err error) {
	if err := resp.WriteHeaderAndJson(status, ErrorResponse{Error: err.Error()}, restful.MIME_JSON); err != nil {
		log.ResponseLogger(resp).Error("failed to write error", zap.Error(err))
	}
}

// BadRequest returns a bad request error.
func BadRequest(resp *restful.Response, err error) {
	log.ResponseLogger(resp).Error("bad request", zap.Error(err))
	writeError(resp, http.StatusBadRequest, err)
}

// InternalServerError returns a internal server error.
func InternalServerError(resp *restful.Response, err error) {
	log.ResponseLogger(resp).Error("internal server error", zap.Error(err))
	writeError(resp, http.StatusInternalServerError, err)
}

// Ok sends the content as JSON to the client.
func Ok(resp *restful.Response, content any) {
	if err := resp.WriteAsJson(content); err != nil {
		log.ResponseLogger(resp).Error("failed to write json", zap.Error(err))
	}
}
