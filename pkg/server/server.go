package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"inkscan/pkg/config"
	"inkscan/pkg/handlers"
	"inkscan/pkg/services/intake"
	"inkscan/pkg/services/ocr"
	"inkscan/pkg/services/pipeline"
	"inkscan/pkg/services/render"
	"inkscan/pkg/store"
	"inkscan/web"
)

type Server struct {
	httpServer *http.Server
	cfg        *config.Config
	log        *zap.Logger
}

// New wires every component. The font is checked before anything else so a
// broken install never serves a single request.
func New(cfg *config.Config, log *zap.Logger) (*Server, error) {
	renderer, err := render.NewRenderer(cfg.App.FontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	recognizer := ocr.NewService(cfg.Azure.Endpoint, cfg.Azure.Key,
		ocr.WithPolling(cfg.App.PollAttempts, cfg.App.PollInterval),
		ocr.WithLogger(log.Named("ocr")))

	validator := intake.NewValidator(cfg.App.MaxUploadSize, cfg.App.AllowedExtensions)
	artifacts := store.NewArtifacts(cfg.App.ArtifactTTL)

	processor := pipeline.New(validator, recognizer, renderer, artifacts, log.Named("pipeline"),
		pipeline.WithEnhancement(cfg.App.EnhanceImages))

	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.SetHTMLTemplate(tmpl)
	// every file of a batch may be at the limit
	router.MaxMultipartMemory = cfg.App.MaxUploadSize

	h := handlers.NewHandler(processor, artifacts, handlers.UploadLimits{
		MaxSize:        validator.MaxSize(),
		MaxRequestSize: cfg.App.MaxRequestSize,
		Extensions:     validator.Extensions(),
	}, log.Named("http"))
	h.Register(router)

	server := &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			// a batch runs every file through OCR polling before answering
			WriteTimeout:   cfg.Server.WriteTimeout,
			MaxHeaderBytes: 1 << 20, // 1 MB
		},
		cfg: cfg,
		log: log,
	}

	log.Info("Server created successfully",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
		zap.String("font", renderer.FontPath()))

	return server, nil
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Run() error {
	s.log.Info("Server is running", zap.String("address", s.httpServer.Addr))

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down server")
	return s.httpServer.Shutdown(ctx)
}
