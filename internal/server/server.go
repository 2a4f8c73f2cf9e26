// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server is the interactive web front end: a form that accepts an
// arXiv URL or a PDF upload and shows the explanation with a download link.
package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pdiddy/paper-explainer/internal/pipeline"
	"github.com/pdiddy/paper-explainer/internal/server/middleware"
	"github.com/pdiddy/paper-explainer/internal/storage"
	"github.com/pdiddy/paper-explainer/pkg/types"
)

// Runner executes one explanation request.
type Runner interface {
	Run(ctx context.Context, req types.Request) pipeline.Result
}

// Registry is both sides of a Prometheus registry.
type Registry interface {
	prometheus.Registerer
	prometheus.Gatherer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the structured logger for requests and handlers.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMirrorLinks adds presigned mirror URLs to JSON responses.
func WithMirrorLinks(st storage.Storage, ttl time.Duration) Option {
	return func(s *Server) {
		s.mirror = st
		s.linkTTL = ttl
	}
}

// WithUploadDir sets the parent directory for uploaded PDFs.
func WithUploadDir(dir string) Option {
	return func(s *Server) { s.uploadDir = dir }
}

// Server serves the explanation form.
type Server struct {
	app       *fiber.App
	runner    Runner
	cfg       types.ServerConfig
	artifacts *artifactRegistry
	mirror    storage.Storage
	linkTTL   time.Duration
	uploadDir string
	log       *slog.Logger
}

// New builds the Fiber app and registers HTTP metrics on reg.
func New(runner Runner, cfg types.ServerConfig, reg Registry, opts ...Option) (*Server, error) {
	s := &Server{
		runner:    runner,
		cfg:       cfg,
		artifacts: newArtifactRegistry(maxArtifacts),
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	prom, err := middleware.NewPrometheus(reg)
	if err != nil {
		return nil, err
	}

	bodyLimit := cfg.BodyLimit
	if bodyLimit <= 0 {
		bodyLimit = types.Defaults().Server.BodyLimit
	}
	s.app = fiber.New(fiber.Config{
		AppName:               "paper-explainer",
		BodyLimit:             bodyLimit,
		ErrorHandler:          ErrorHandler(),
		DisableStartupMessage: true,
	})
	s.app.Use(middleware.RequestID())
	s.app.Use(middleware.Logger(s.log))
	s.app.Use(prom.Handler())

	s.app.Get("/", s.index)
	s.app.Post("/explain", s.explain)
	s.app.Get("/download/:id", s.download)
	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	return s, nil
}

// App exposes the Fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on cfg.Addr until ctx is cancelled.
func (s *Server) Listen(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() { errc <- s.app.Listen(s.cfg.Addr) }()

	s.log.Info("listening", "addr", s.cfg.Addr)
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		s.log.Info("shutting down")
		return s.app.ShutdownWithTimeout(10 * time.Second)
	}
}
