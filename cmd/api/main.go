package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shinyyama/marketplace-backend/internal/ai"
	"github.com/shinyyama/marketplace-backend/internal/auth"
	"github.com/shinyyama/marketplace-backend/internal/config"
	"github.com/shinyyama/marketplace-backend/internal/db"
	"github.com/shinyyama/marketplace-backend/internal/logging"
	"github.com/shinyyama/marketplace-backend/internal/repository/memory"
	"github.com/shinyyama/marketplace-backend/internal/server"
	"github.com/shinyyama/marketplace-backend/internal/storage"
	"go.uber.org/zap"
)

// Set via -ldflags at build time.
var (
	gitSHA    = "dev"
	buildTime = ""
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.IsDevelopment(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	var repos server.Repositories
	switch cfg.StoreDriver {
	case config.StoreMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		repos = server.MemoryRepositories(memory.NewStore())
	default:
		conn, err := db.Connect(cfg)
		if err != nil {
			return err
		}
		if err := db.Migrate(conn); err != nil {
			return err
		}
		repos = server.MySQLRepositories(conn)
	}

	var opts server.Options
	switch cfg.ImageStore {
	case config.ImageStoreGCS:
		gcs, err := storage.NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSCredentialsFile)
		if err != nil {
			return err
		}
		defer gcs.Close()
		opts.Images = gcs
	default:
		local, err := storage.NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL)
		if err != nil {
			return err
		}
		opts.Images = local
	}
	if cfg.GeminiAPIKey != "" {
		client, err := ai.NewPriceClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
		if err != nil {
			return err
		}
		opts.Suggester = client
	} else {
		logger.Info("GEMINI_API_KEY not set; price suggestions disabled")
	}
	if cfg.FirebaseProjectID != "" {
		verifier, err := auth.NewFirebaseVerifier(ctx, cfg.FirebaseProjectID, repos.Users)
		if err != nil {
			return err
		}
		opts.Verifier = verifier
	}

	svcs := server.NewServices(cfg, repos, opts, logger)
	if n, err := svcs.Gateway.PurgeExpired(ctx); err != nil {
		logger.Warn("purge expired sessions", zap.Error(err))
	} else if n > 0 {
		logger.Info("purged expired sessions", zap.Int64("count", n))
	}

	srv := server.New(cfg, svcs, logger, server.BuildInfo{SHA: gitSHA, BuildTime: buildTime})
	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info("starting server", zap.String("addr", addr), zap.String("store", cfg.StoreDriver))
		errCh <- srv.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
