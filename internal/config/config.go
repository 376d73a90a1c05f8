package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port        int              `json:"port"`
	JWTSecret   string           `json:"jwt_secret"`
	JWTTTLHours int              `json:"jwt_ttl_hours"`
	CORSOrigins []string         `json:"cors_origins"`
	LogConfig   logger.LogConfig `json:"log_config"`
	Database    DatabaseConfig   `json:"database"`
	FileStore   FileStoreConfig  `json:"file_store"`
	AI          AIConfig         `json:"ai"`
	Ingest      IngestConfig     `json:"ingest"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type ProviderConfig struct {
	Provider   string      `json:"provider"`
	Data       interface{} `json:"data"`
	EmbedModel string      `json:"embed_model"`
}

type AIConfig struct {
	ProviderConfig
	Fallbacks        []ProviderConfig `json:"fallbacks"`
	EmbedDim         int              `json:"embed_dim"`
	CacheSize        int              `json:"cache_size"`
	CacheTTLMinutes  int              `json:"cache_ttl_minutes"`
	CacheKeepDays    int              `json:"cache_keep_days"`
	TimeoutSeconds   int              `json:"timeout_seconds"`
	DisableMemCache  bool             `json:"disable_mem_cache"`
	DisableDataCache bool             `json:"disable_data_cache"`
}

type IngestConfig struct {
	Converter              string      `json:"converter"`
	ConverterData          interface{} `json:"converter_data"`
	ConvertTimeoutSeconds  int         `json:"convert_timeout_seconds"`
	MaxUploadBytes         int64       `json:"max_upload_bytes"`
	EmbedBatchSize         int         `json:"embed_batch_size"`
	QueueDepth             int         `json:"queue_depth"`
	EmbedRetries           int         `json:"embed_retries"`
	EmbedBackoffSeconds    int         `json:"embed_backoff_seconds"`
	BackfillBatchSize      int         `json:"backfill_batch_size"`
	BackfillCronSpec       string      `json:"backfill_cron_spec"`
	CacheCleanupCronSpec   string      `json:"cache_cleanup_cron_spec"`
	RateLimitWindowSeconds int         `json:"rate_limit_window_seconds"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 72
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.FileStore.Type == "" {
		return nil, fmt.Errorf("file_store.type is required")
	}
	if cfg.AI.Provider == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	if cfg.AI.EmbedModel == "" {
		return nil, fmt.Errorf("ai.embed_model is required")
	}
	if cfg.AI.EmbedDim == 0 {
		cfg.AI.EmbedDim = 1024
	}
	if cfg.AI.CacheSize == 0 {
		cfg.AI.CacheSize = 10000
	}
	if cfg.AI.CacheTTLMinutes == 0 {
		cfg.AI.CacheTTLMinutes = 120
	}
	if cfg.AI.CacheKeepDays == 0 {
		cfg.AI.CacheKeepDays = 30
	}
	if cfg.AI.TimeoutSeconds == 0 {
		cfg.AI.TimeoutSeconds = 60
	}
	if cfg.Ingest.Converter == "" {
		cfg.Ingest.Converter = "docconv"
	}
	if cfg.Ingest.ConvertTimeoutSeconds == 0 {
		cfg.Ingest.ConvertTimeoutSeconds = 30
	}
	if cfg.Ingest.MaxUploadBytes == 0 {
		cfg.Ingest.MaxUploadBytes = 50 << 20
	}
	if cfg.Ingest.EmbedBatchSize == 0 {
		cfg.Ingest.EmbedBatchSize = 10
	}
	if cfg.Ingest.QueueDepth == 0 {
		cfg.Ingest.QueueDepth = 64
	}
	if cfg.Ingest.EmbedRetries == 0 {
		cfg.Ingest.EmbedRetries = 2
	}
	if cfg.Ingest.EmbedBackoffSeconds == 0 {
		cfg.Ingest.EmbedBackoffSeconds = 5
	}
	if cfg.Ingest.BackfillBatchSize == 0 {
		cfg.Ingest.BackfillBatchSize = 20
	}
	if cfg.Ingest.BackfillCronSpec == "" {
		cfg.Ingest.BackfillCronSpec = "*/10 * * * *"
	}
	if cfg.Ingest.CacheCleanupCronSpec == "" {
		cfg.Ingest.CacheCleanupCronSpec = "0 4 * * *"
	}
	return &cfg, nil
}
