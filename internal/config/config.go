package config

import (
	"os"
	"strconv"

	"contacthub-data/internal/database"
)

// Config contacthub-data（HTTP API）配置
type Config struct {
	HTTP struct {
		Addr string
	}
	DBEnabled bool
	Database  database.Config
	Redis     struct {
		Enabled  bool
		Addr     string
		Password string
		DB       int
	}
	Log struct {
		Level  string
		Format string
	}
	Import ImportConfig
	Avatar AvatarConfig
}

// ImportConfig 导入管线配置
type ImportConfig struct {
	BatchSize     int // 持久化批大小
	MaxRows       int // 单次导入行数硬上限
	Workers       int // 批次并发 worker 数
	RetryCount    int // 单条写入重试次数
	ProgressEvery int // 每 N 个批次上报进度
}

// AvatarConfig 外部头像媒体服务配置（签名上传URL由它生成）
type AvatarConfig struct {
	Enabled bool
	BaseURL string
	APIKey  string
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	// Default to true for local dev: if DB is unavailable, contacthub-data falls
	// back to the in-memory repo instead of failing to start.
	cfg.DBEnabled = getEnv("DB_ENABLED", "true") == "true"
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "contacthub")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "20"), 20)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	cfg.Redis.Enabled = getEnv("REDIS_ENABLED", "true") == "true"
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0
	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	// 导入管线
	cfg.Import.BatchSize = parseInt(getEnv("IMPORT_BATCH_SIZE", "100"), 100)
	cfg.Import.MaxRows = parseInt(getEnv("IMPORT_MAX_ROWS", "10000"), 10000)
	cfg.Import.Workers = parseInt(getEnv("IMPORT_WORKERS", "1"), 1)
	cfg.Import.RetryCount = parseInt(getEnv("IMPORT_RETRY_COUNT", "3"), 3)
	cfg.Import.ProgressEvery = parseInt(getEnv("IMPORT_PROGRESS_EVERY", "5"), 5)

	// 头像媒体服务（默认禁用）
	cfg.Avatar.Enabled = getEnv("AVATAR_SERVICE_ENABLED", "false") == "true"
	cfg.Avatar.BaseURL = getEnv("AVATAR_SERVICE_URL", "http://localhost:9090")
	cfg.Avatar.APIKey = getEnv("AVATAR_SERVICE_API_KEY", "")

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
