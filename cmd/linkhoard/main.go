package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/linkhoard/linkhoard/internal/ai"
	"github.com/linkhoard/linkhoard/internal/config"
	"github.com/linkhoard/linkhoard/internal/convert"
	"github.com/linkhoard/linkhoard/internal/db"
	"github.com/linkhoard/linkhoard/internal/embedcache"
	"github.com/linkhoard/linkhoard/internal/embedq"
	"github.com/linkhoard/linkhoard/internal/filestore"
	"github.com/linkhoard/linkhoard/internal/handler"
	"github.com/linkhoard/linkhoard/internal/job"
	"github.com/linkhoard/linkhoard/internal/middleware"
	"github.com/linkhoard/linkhoard/internal/repo"
	"github.com/linkhoard/linkhoard/internal/schedule"
	"github.com/linkhoard/linkhoard/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "linkhoard",
		Short: "linkhoard bookmark server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run linkhoard server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			database, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(database); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, database)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func buildEmbedder(cfg *config.Config, cacheRepo *repo.EmbeddingCacheRepo) (ai.IEmbedder, error) {
	providers := append([]config.ProviderConfig{cfg.AI.ProviderConfig}, cfg.AI.Fallbacks...)
	entries := make([]ai.EmbedderEntry, 0, len(providers))
	for _, pc := range providers {
		provider, err := ai.NewProvider(pc.Provider, pc.Data)
		if err != nil {
			return nil, fmt.Errorf("init ai provider %s: %w", pc.Provider, err)
		}
		model := pc.EmbedModel
		if model == "" {
			model = cfg.AI.EmbedModel
		}
		entries = append(entries, ai.EmbedderEntry{
			Name:     pc.Provider,
			Embedder: ai.NewEmbedder(provider, model),
		})
	}
	embedder := ai.NewGroupEmbedder(entries)
	if !cfg.AI.DisableDataCache {
		embedder = embedcache.WrapDBCacheToEmbedder(embedder, cacheRepo)
	}
	if !cfg.AI.DisableMemCache {
		embedder = embedcache.WrapLruCacheToEmbedder(embedder, cfg.AI.CacheSize,
			time.Duration(cfg.AI.CacheTTLMinutes)*time.Minute)
	}
	return embedder, nil
}

func runServer(cfg *config.Config, database *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("file_store", cfg.FileStore.Type),
		zap.String("converter", cfg.Ingest.Converter),
	)

	bookmarkRepo := repo.NewBookmarkRepo(database)
	embeddingRepo := repo.NewEmbeddingRepo(database)
	embeddingCacheRepo := repo.NewEmbeddingCacheRepo(database)

	store, err := filestore.New(cfg.FileStore.Type, cfg.FileStore.Data)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	converterArgs := cfg.Ingest.ConverterData
	if converterArgs == nil {
		converterArgs = map[string]interface{}{
			"timeout_seconds": cfg.Ingest.ConvertTimeoutSeconds,
		}
	}
	converter, err := convert.New(cfg.Ingest.Converter, converterArgs)
	if err != nil {
		return fmt.Errorf("init converter: %w", err)
	}

	embedder, err := buildEmbedder(cfg, embeddingCacheRepo)
	if err != nil {
		return err
	}
	embeddingService := service.NewEmbeddingService(embeddingRepo, embedder, cfg.Ingest.EmbedBatchSize)

	queue := embedq.New(func(ctx context.Context, task embedq.Task) error {
		embedCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.AI.TimeoutSeconds)*time.Second)
		defer cancel()
		return embeddingService.Rebuild(embedCtx, task.BookmarkID, task.UserID, task.Content)
	}, cfg.Ingest.QueueDepth, cfg.Ingest.EmbedRetries,
		time.Duration(cfg.Ingest.EmbedBackoffSeconds)*time.Second)

	ingestService := service.NewIngestService(bookmarkRepo, store, converter, queue, cfg.Ingest.MaxUploadBytes)
	bookmarkService := service.NewBookmarkService(bookmarkRepo)

	deps := handler.RouterDeps{
		Ingest:    handler.NewIngestHandler(ingestService, cfg.Ingest.MaxUploadBytes),
		Bookmarks: handler.NewBookmarkHandler(bookmarkService),
		Files:     handler.NewFileHandler(store),
		JWTSecret: []byte(cfg.JWTSecret),
	}

	extraMiddlewares := []gin.HandlerFunc{
		middleware.CORS(cfg.CORSOrigins),
		gzip.Gzip(gzip.DefaultCompression),
	}
	if cfg.Ingest.RateLimitWindowSeconds > 0 {
		extraMiddlewares = append(extraMiddlewares,
			middleware.RateLimit(time.Duration(cfg.Ingest.RateLimitWindowSeconds)*time.Second))
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(extraMiddlewares...),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queue.Start(ctx)

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(
		job.NewEmbeddingBackfillJob(bookmarkRepo, queue, cfg.Ingest.BackfillBatchSize),
		cfg.Ingest.BackfillCronSpec,
	); err != nil {
		return err
	}
	if err := scheduler.AddJob(
		job.NewEmbeddingCacheCleanupJob(embeddingCacheRepo, cfg.AI.CacheKeepDays),
		cfg.Ingest.CacheCleanupCronSpec,
	); err != nil {
		return err
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(context.Background()).Info("http server listening",
		zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
