package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	"github.com/memoriam-site/memoriam/internal/caption"
	claudecaption "github.com/memoriam-site/memoriam/internal/caption/claude"
	ollamacaption "github.com/memoriam-site/memoriam/internal/caption/ollama"
	"github.com/memoriam-site/memoriam/internal/config"
	"github.com/memoriam-site/memoriam/internal/index"
	"github.com/memoriam-site/memoriam/internal/logging"
	"github.com/memoriam-site/memoriam/internal/mediahost/cloudinary"
	"github.com/memoriam-site/memoriam/internal/service"
	"github.com/memoriam-site/memoriam/internal/web"
)

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	store, err := index.Open(cfg.CatalogPath)
	if err != nil {
		logger.Error("failed to open catalog", "path", cfg.CatalogPath, "error", err)
		return
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close catalog", "error", err)
		}
	}()

	host, err := cloudinary.New(cfg.MediaCloud, cfg.MediaAPIKey, cfg.MediaAPISecret, cfg.MediaTimeout)
	if err != nil {
		logger.Error("media host misconfigured", "error", err)
		return
	}

	// Verify credentials now rather than on the first request.
	pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := host.Ping(pingCtx); err != nil {
		logger.Error("media host unreachable, check MEDIA_CLOUD/MEDIA_API_KEY/MEDIA_API_SECRET", "error", err)
		return
	}

	svc := service.NewGalleryService(store, host, newSuggester(cfg, logger), cfg.MediaFolder, logger)
	server := web.NewServer(svc, logger)

	if err := server.ListenAndServe(cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
	}
}

func newSuggester(cfg *config.Config, logger *slog.Logger) caption.Suggester {
	switch cfg.CaptionBackend {
	case "claude":
		if cfg.ClaudeAPIKey == "" {
			logger.Error("CLAUDE_API_KEY is required when CAPTION_BACKEND=claude")
			return nil
		}
		logger.Info("caption suggestions enabled", "backend", "claude", "model", cfg.ClaudeModel)
		return claudecaption.New(cfg.ClaudeAPIKey, cfg.ClaudeModel)
	case "ollama":
		logger.Info("caption suggestions enabled", "backend", "ollama", "model", cfg.OllamaModel)
		return ollamacaption.New(cfg.OllamaHost, cfg.OllamaModel)
	default:
		return nil
	}
}
