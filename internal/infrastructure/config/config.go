package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig        `mapstructure:"app"`
	Server      ServerConfig     `mapstructure:"server"`
	FDC         FDCConfig        `mapstructure:"fdc"`
	OpenRouter  OpenRouterConfig `mapstructure:"openrouter"`
	Knowledge   KnowledgeConfig  `mapstructure:"knowledge"`
	Ingestion   IngestionConfig  `mapstructure:"ingestion"`
	Matching    MatchingConfig   `mapstructure:"matching"`
	Sensor      SensorConfig     `mapstructure:"sensor"`
	Cache       CacheConfig      `mapstructure:"cache"`
	RateLimit   RateLimitConfig  `mapstructure:"rate_limit"`
	Metrics     MetricsConfig    `mapstructure:"metrics"`
	DedupWindow time.Duration    `mapstructure:"dedup_window"`
	LogLevel    string           `mapstructure:"log_level"`
	LogDir      string           `mapstructure:"log_dir"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
}

// FDCConfig USDA FoodData Central 設定
type FDCConfig struct {
	APIKey          string        `mapstructure:"api_key"`
	BaseURL         string        `mapstructure:"base_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	RetryCount      int           `mapstructure:"retry_count"`
	RatePerSecond   float64       `mapstructure:"rate_per_second"`
	Burst           int           `mapstructure:"burst"`
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
	BreakerTimeout  time.Duration `mapstructure:"breaker_timeout"`
}

// OpenRouterConfig OpenRouter 配置
type OpenRouterConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	APIKey          string        `mapstructure:"api_key"`
	BaseURL         string        `mapstructure:"base_url"`
	Model           string        `mapstructure:"model"`
	MaxTokens       int           `mapstructure:"max_tokens"`
	Timeout         time.Duration `mapstructure:"timeout"`
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
	BreakerTimeout  time.Duration `mapstructure:"breaker_timeout"`
}

// KnowledgeConfig 知識庫檔案位置
type KnowledgeConfig struct {
	DataDir    string `mapstructure:"data_dir"`
	StaticFile string `mapstructure:"static_file"`
}

// IngestionConfig 知識庫重建設定
type IngestionConfig struct {
	Workers     int           `mapstructure:"workers"`
	MaxPerQuery int           `mapstructure:"max_per_query"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Queries     []string      `mapstructure:"queries"`
}

// MatchingConfig 比對門檻（分鐘）
type MatchingConfig struct {
	MediumMinutes  int `mapstructure:"medium_minutes"`
	LongMinutes    int `mapstructure:"long_minutes"`
	DefaultMaxTime int `mapstructure:"default_max_time"`
	Limit          int `mapstructure:"limit"`
}

// SensorConfig 感測器資料儲存與門檻
type SensorConfig struct {
	Backend        string        `mapstructure:"backend"` // memory | redis
	TTL            time.Duration `mapstructure:"ttl"`
	LowOxygenBelow int           `mapstructure:"low_oxygen_below"`
	ColdBelow      int           `mapstructure:"cold_below"`
	WarmBelow      int           `mapstructure:"warm_below"`
	Redis          RedisConfig   `mapstructure:"redis"`
}

// RedisConfig Redis 連線設定
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CacheConfig 緩存配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// MetricsConfig Prometheus 指標設定
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// 加載 .env 文件（可選）
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()

	// 設定預設值
	setDefaults(v)

	// 設定環境變數前綴
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定環境變量
	bindings := map[string]string{
		"fdc.api_key":           "FDC_API_KEY",
		"fdc.base_url":          "FDC_BASE_URL",
		"openrouter.enabled":    "OPENROUTER_ENABLED",
		"openrouter.api_key":    "OPENROUTER_API_KEY",
		"openrouter.model":      "OPENROUTER_MODEL",
		"openrouter.max_tokens": "MODEL_MAX_TOKENS",
		"knowledge.data_dir":    "DATA_DIR",
		"sensor.backend":        "SENSOR_BACKEND",
		"sensor.redis.addr":     "REDIS_ADDR",
		"sensor.redis.password": "REDIS_PASSWORD",
		"sensor.redis.db":       "REDIS_DB",
		"cache.enabled":         "CACHE_ENABLED",
		"rate_limit.enabled":    "RATE_LIMIT_ENABLED",
		"rate_limit.requests":   "RATE_LIMIT_REQUESTS",
		"rate_limit.window":     "RATE_LIMIT_WINDOW",
		"dedup_window":          "DEDUP_WINDOW",
		"log_level":             "LOG_LEVEL",
		"log_dir":               "LOG_DIR",
		"server.port":           "PORT",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	// 設定設定檔名稱和路徑
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	// 讀取設定檔
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 添加調試日誌（logger 尚未初始化，改用 fmt.Println）
	fmt.Println("Loading configuration", "fdc_api_key:", maskAPIKey(v.GetString("fdc.api_key")), "openrouter_model:", v.GetString("openrouter.model"))

	// 解析設定
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// maskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "nutribot")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_dir", "logs")

	// 伺服器設定
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "5s")
	v.SetDefault("server.max_body_bytes", 1<<20)

	// FoodData Central 設定（DEMO_KEY 為 USDA 公開測試金鑰）
	v.SetDefault("fdc.api_key", "DEMO_KEY")
	v.SetDefault("fdc.base_url", "https://api.nal.usda.gov/fdc/v1")
	v.SetDefault("fdc.timeout", "10s")
	v.SetDefault("fdc.retry_count", 2)
	v.SetDefault("fdc.rate_per_second", 5)
	v.SetDefault("fdc.burst", 5)
	v.SetDefault("fdc.breaker_failures", 5)
	v.SetDefault("fdc.breaker_timeout", "30s")

	// OpenRouter 設定
	v.SetDefault("openrouter.enabled", false)
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.model", "meta-llama/llama-3.1-8b-instruct:free")
	v.SetDefault("openrouter.max_tokens", 200)
	v.SetDefault("openrouter.timeout", "8s")
	v.SetDefault("openrouter.breaker_failures", 3)
	v.SetDefault("openrouter.breaker_timeout", "60s")

	// 知識庫設定
	v.SetDefault("knowledge.data_dir", "data")
	v.SetDefault("knowledge.static_file", "foods_static.yaml")

	// 重建設定
	v.SetDefault("ingestion.workers", 4)
	v.SetDefault("ingestion.max_per_query", 3)
	v.SetDefault("ingestion.timeout", "60s")

	// 比對門檻
	v.SetDefault("matching.medium_minutes", 20)
	v.SetDefault("matching.long_minutes", 45)
	v.SetDefault("matching.default_max_time", 40)
	v.SetDefault("matching.limit", 3)

	// 感測器設定
	v.SetDefault("sensor.backend", "memory")
	v.SetDefault("sensor.ttl", "0s")
	v.SetDefault("sensor.low_oxygen_below", 94)
	v.SetDefault("sensor.cold_below", 20)
	v.SetDefault("sensor.warm_below", 20)
	v.SetDefault("sensor.redis.addr", "localhost:6379")
	v.SetDefault("sensor.redis.db", 0)

	// 快取設定
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.max_size", 1000)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_interval", "10m")

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	// 指標設定
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("dedup_window", "1s")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	// 驗證伺服器設定
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	// 驗證快取設定
	if config.Cache.Enabled {
		if config.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid cache max size")
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
		if config.Cache.CleanupInterval <= 0 {
			return fmt.Errorf("invalid cache cleanup interval")
		}
	}

	// 驗證重建設定
	if config.Ingestion.Workers <= 0 {
		return fmt.Errorf("invalid ingestion workers")
	}
	if config.Ingestion.MaxPerQuery <= 0 {
		return fmt.Errorf("invalid ingestion max per query")
	}
	if config.Ingestion.Timeout <= 0 {
		return fmt.Errorf("invalid ingestion timeout")
	}

	// 驗證比對門檻（必須單調）
	if config.Matching.MediumMinutes < 0 || config.Matching.LongMinutes < config.Matching.MediumMinutes {
		return fmt.Errorf("invalid matching thresholds: medium=%d long=%d", config.Matching.MediumMinutes, config.Matching.LongMinutes)
	}

	// 溫度門檻：warm_below 等於 cold_below 時只分 cold / hot
	if config.Sensor.WarmBelow < config.Sensor.ColdBelow {
		return fmt.Errorf("invalid temperature thresholds: cold_below=%d warm_below=%d", config.Sensor.ColdBelow, config.Sensor.WarmBelow)
	}

	// 驗證感測器後端
	switch config.Sensor.Backend {
	case "memory":
	case "redis":
		if config.Sensor.Redis.Addr == "" {
			return fmt.Errorf("redis addr is required for sensor backend redis")
		}
	default:
		return fmt.Errorf("unknown sensor backend %q", config.Sensor.Backend)
	}

	if config.OpenRouter.Enabled && config.OpenRouter.APIKey == "" {
		return fmt.Errorf("openrouter api key is required when openrouter is enabled")
	}

	return nil
}
