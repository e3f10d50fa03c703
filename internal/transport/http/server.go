// Package http serves the memory engine over a JSON API.
package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sandevgo/ragmemory/internal/config"
	"github.com/sandevgo/ragmemory/internal/metrics"
	"github.com/sandevgo/ragmemory/internal/service/engine"
	"github.com/sandevgo/ragmemory/pkg/log"
)

const bodyLimit = "32M"

type Engine interface {
	Query(ctx context.Context, req engine.QueryRequest) (engine.QueryResponse, error)
	Upload(ctx context.Context, req engine.UploadRequest) (engine.UploadResponse, error)
	Ping(ctx context.Context) engine.HealthResponse
	Profile(ctx context.Context, userID string) (engine.ProfileResponse, error)
	RenderProfileHTML(ctx context.Context, userID string) (string, error)
	RecentHistory(ctx context.Context, userID string) (engine.HistoryResponse, error)
}

type Server struct {
	echo    *echo.Echo
	cfg     *config.AppConfig
	engine  Engine
	baseCtx context.Context
}

// NewServer builds the router. ctx carries the logger every request starts
// from.
func NewServer(ctx context.Context, cfg *config.AppConfig, eng Engine) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:    e,
		cfg:     cfg,
		engine:  eng,
		baseCtx: ctx,
	}
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.RequestID())
	e.Use(s.observe())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(bodyLimit))

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/chat/memory/query", s.handleQuery)
	v1.POST("/chat/memory/upload", s.handleUpload)
	v1.GET("/users/:user_id/profile", s.handleProfile)
	v1.GET("/users/:user_id/profile.html", s.handleProfileHTML)
	v1.GET("/users/:user_id/history", s.handleHistory)
}

func (s *Server) Start(ctx context.Context) error {
	addr := s.cfg.GetAddress()
	log.FromCtx(ctx).Info().Str("addr", addr).Msg("starting http server")

	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.FromCtx(ctx).Info().Msg("shutting down http server")
	return s.echo.Shutdown(ctx)
}
