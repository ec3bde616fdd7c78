package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"inkscan/pkg/config"
	"inkscan/pkg/logger"
	"inkscan/pkg/server"
	"inkscan/pkg/services/render"
)

func main() {
	// Load environment variables
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.ForMode(cfg.Server.Mode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zl.Sync()

	srv, err := server.New(cfg, zl)
	if err != nil {
		if errors.Is(err, render.ErrFontNotFound) || errors.Is(err, render.ErrInvalidFont) {
			zl.Fatal("Font file missing or unusable, set FONT_PATH to a TrueType font such as DejaVuSans.ttf",
				zap.String("font_path", cfg.App.FontPath), zap.Error(err))
		}
		zl.Fatal("Failed to create server", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Run(); err != nil {
			zl.Error("Server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zl.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("Server forced to shutdown", zap.Error(err))
	}

	zl.Info("Server exited")
}
