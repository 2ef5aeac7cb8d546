// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package api contains the HTTP surface of the fusion engine. The
// orchestrator triggers fusions through it, and downstream consumers read
// fused analyses, prompt contexts and narratives from it.
//
// Routes (all below /api/v1):
//   - POST   /fusions/:id                     fuse from the artifact store
//   - GET    /fusions/:id                     read the persisted analysis
//   - DELETE /fusions/:id                     delete the persisted analysis
//   - GET    /fusions/:id/context/:prompt     prompt context of the analysis
//   - POST   /fusions/:id/narrative/:prompt   narrative for the prompt
//   - GET    /fusions/:id/runs/latest         latest indexed run
//   - GET    /health                          liveness
//
// The optional "account" query parameter carries the owning account id.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jaycherian/gcp-go-media-fusion/internal/cloud"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/model"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/promptctx"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/services"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// FusionAPI is the part of services.FusionService served over HTTP.
type FusionAPI interface {
	FuseFromStore(ctx context.Context, id model.VideoIdentity) (*model.FusedAnalysis, error)
	Get(ctx context.Context, id model.VideoIdentity) (*model.FusedAnalysis, error)
	Delete(ctx context.Context, id model.VideoIdentity) error
	Context(ctx context.Context, id model.VideoIdentity, prompt string) (promptctx.PromptContext, error)
	Narrate(ctx context.Context, id model.VideoIdentity, prompt string) (*services.Narrative, error)
	LatestRun(ctx context.Context, id model.VideoIdentity) (*services.FusionRun, error)
}

// NewRouter creates the gin engine with tracing and CORS middleware and
// every route registered.
func NewRouter(config *cloud.Config, svc FusionAPI) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(config.Application.Name))
	if len(config.Server.AllowedOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = config.Server.AllowedOrigins
		r.Use(cors.New(corsConfig))
	} else {
		r.Use(cors.Default())
	}

	apiV1 := r.Group("/api/v1")
	{
		Health(apiV1, config)
		FusionRouter(apiV1, svc)
	}
	return r
}

// Health registers the liveness endpoint.
func Health(r *gin.RouterGroup, config *cloud.Config) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "name": config.Application.Name})
	})
}

// FusionRouter registers the fusion routes on r.
func FusionRouter(r *gin.RouterGroup, svc FusionAPI) {
	fusions := r.Group("/fusions")
	{
		fusions.POST("/:id", func(c *gin.Context) {
			out, err := svc.FuseFromStore(c.Request.Context(), identity(c))
			if err != nil {
				abort(c, err)
				return
			}
			c.JSON(http.StatusOK, out)
		})

		fusions.GET("/:id", func(c *gin.Context) {
			out, err := svc.Get(c.Request.Context(), identity(c))
			if err != nil {
				abort(c, err)
				return
			}
			c.JSON(http.StatusOK, out)
		})

		fusions.DELETE("/:id", func(c *gin.Context) {
			if err := svc.Delete(c.Request.Context(), identity(c)); err != nil {
				abort(c, err)
				return
			}
			c.Status(http.StatusNoContent)
		})

		fusions.GET("/:id/context/:prompt", func(c *gin.Context) {
			out, err := svc.Context(c.Request.Context(), identity(c), c.Param("prompt"))
			if err != nil {
				abort(c, err)
				return
			}
			c.JSON(http.StatusOK, out)
		})

		fusions.POST("/:id/narrative/:prompt", func(c *gin.Context) {
			out, err := svc.Narrate(c.Request.Context(), identity(c), c.Param("prompt"))
			if err != nil {
				abort(c, err)
				return
			}
			c.JSON(http.StatusOK, out)
		})

		fusions.GET("/:id/runs/latest", func(c *gin.Context) {
			out, err := svc.LatestRun(c.Request.Context(), identity(c))
			if err != nil {
				abort(c, err)
				return
			}
			c.JSON(http.StatusOK, out)
		})
	}
}

func identity(c *gin.Context) model.VideoIdentity {
	return model.NewVideoIdentity(c.Param("id"), c.Query("account"))
}

// StatusFor maps a service error onto an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidIdentity), errors.Is(err, promptctx.ErrUnknownPrompt):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrUntrustedAnalysis):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrNarratorUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func abort(c *gin.Context, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
