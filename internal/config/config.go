package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig
	DB           DBConfig
	Redis        RedisConfig
	Embedding    EmbeddingConfig
	Search       SearchConfig
	Backfill     BackfillConfig
	Notification NotificationConfig
	JWT          JWTConfig
	Logger       LoggerConfig
}

type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type DBConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// EmbeddingConfig selects and tunes the embedding provider.
type EmbeddingConfig struct {
	Source            string // "openai" or "ollama"
	Dimension         int
	RequestsPerMinute int
	Burst             int
	CacheTTL          time.Duration
	Timeout           time.Duration
	// RequestTimeout bounds embedding work done inside an HTTP request,
	// including the wait for a limiter token.
	RequestTimeout time.Duration
	OpenAI         OpenAIConfig
	Ollama         OllamaConfig
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type OllamaConfig struct {
	ServerURL string
	Model     string
}

type SearchConfig struct {
	DefaultThreshold float64
	DefaultLimit     int
	MaxLimit         int
}

type BackfillConfig struct {
	Delay               time.Duration
	BatchSize           int
	RateLimitRetryDelay time.Duration
	MaxRetries          int
}

type NotificationConfig struct {
	Stream         string
	MaxLen         int64
	FanOutTimeout  time.Duration
	PublishTimeout time.Duration
}

type JWTConfig struct {
	Secret   string
	Issuer   string
	TokenTTL time.Duration
}

type LoggerConfig struct {
	Level string
	Env   string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.shutdown_timeout", "30s")

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.name", "servicehub")
	v.SetDefault("db.ssl_mode", "disable")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "5m")

	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("embedding.source", "openai")
	v.SetDefault("embedding.dimension", 768)
	v.SetDefault("embedding.requests_per_minute", 15)
	v.SetDefault("embedding.burst", 1)
	v.SetDefault("embedding.cache_ttl", "168h")
	v.SetDefault("embedding.timeout", "30s")
	v.SetDefault("embedding.request_timeout", "5s")
	v.SetDefault("embedding.openai.base_url", "https://generativelanguage.googleapis.com/v1beta/openai/")
	v.SetDefault("embedding.openai.model", "text-embedding-004")
	v.SetDefault("embedding.ollama.server_url", "http://localhost:11434")
	v.SetDefault("embedding.ollama.model", "nomic-embed-text")

	v.SetDefault("search.default_threshold", 0.3)
	v.SetDefault("search.default_limit", 20)
	v.SetDefault("search.max_limit", 100)

	v.SetDefault("backfill.delay", "4s")
	v.SetDefault("backfill.batch_size", 100)
	v.SetDefault("backfill.rate_limit_retry_delay", "60s")
	v.SetDefault("backfill.max_retries", 3)

	v.SetDefault("notification.stream", "servicehub:notifications")
	v.SetDefault("notification.max_len", 10000)
	v.SetDefault("notification.fan_out_timeout", "2m")
	v.SetDefault("notification.publish_timeout", "5s")

	v.SetDefault("jwt.issuer", "service-hub")
	v.SetDefault("jwt.token_ttl", "24h")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.env", "development")
}

// LoadConfig reads config.yaml, then lets environment variables (DB_HOST,
// EMBEDDING_OPENAI_API_KEY, ...) override any key. A .env file in the working
// directory is loaded first when present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if os.Getenv("ENV") == "test" {
		v.AddConfigPath("../../config")
		v.AddConfigPath("../../")
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if configFile := v.ConfigFileUsed(); configFile != "" {
		absPath, _ := filepath.Abs(configFile)
		fmt.Printf("Using config file: %s\n", absPath)
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:            v.GetInt("server.port"),
			ReadTimeout:     v.GetDuration("server.read_timeout"),
			WriteTimeout:    v.GetDuration("server.write_timeout"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		},
		DB: DBConfig{
			Host:            v.GetString("db.host"),
			Port:            v.GetInt("db.port"),
			User:            v.GetString("db.user"),
			Password:        v.GetString("db.password"),
			DBName:          v.GetString("db.name"),
			SSLMode:         v.GetString("db.ssl_mode"),
			MaxOpenConns:    v.GetInt("db.max_open_conns"),
			MaxIdleConns:    v.GetInt("db.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("db.conn_max_lifetime"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Embedding: EmbeddingConfig{
			Source:            strings.ToLower(v.GetString("embedding.source")),
			Dimension:         v.GetInt("embedding.dimension"),
			RequestsPerMinute: v.GetInt("embedding.requests_per_minute"),
			Burst:             v.GetInt("embedding.burst"),
			CacheTTL:          v.GetDuration("embedding.cache_ttl"),
			Timeout:           v.GetDuration("embedding.timeout"),
			RequestTimeout:    v.GetDuration("embedding.request_timeout"),
			OpenAI: OpenAIConfig{
				APIKey:  v.GetString("embedding.openai.api_key"),
				BaseURL: v.GetString("embedding.openai.base_url"),
				Model:   v.GetString("embedding.openai.model"),
			},
			Ollama: OllamaConfig{
				ServerURL: v.GetString("embedding.ollama.server_url"),
				Model:     v.GetString("embedding.ollama.model"),
			},
		},
		Search: SearchConfig{
			DefaultThreshold: v.GetFloat64("search.default_threshold"),
			DefaultLimit:     v.GetInt("search.default_limit"),
			MaxLimit:         v.GetInt("search.max_limit"),
		},
		Backfill: BackfillConfig{
			Delay:               v.GetDuration("backfill.delay"),
			BatchSize:           v.GetInt("backfill.batch_size"),
			RateLimitRetryDelay: v.GetDuration("backfill.rate_limit_retry_delay"),
			MaxRetries:          v.GetInt("backfill.max_retries"),
		},
		Notification: NotificationConfig{
			Stream:         v.GetString("notification.stream"),
			MaxLen:         v.GetInt64("notification.max_len"),
			FanOutTimeout:  v.GetDuration("notification.fan_out_timeout"),
			PublishTimeout: v.GetDuration("notification.publish_timeout"),
		},
		JWT: JWTConfig{
			Secret:   v.GetString("jwt.secret"),
			Issuer:   v.GetString("jwt.issuer"),
			TokenTTL: v.GetDuration("jwt.token_ttl"),
		},
		Logger: LoggerConfig{
			Level: v.GetString("logger.level"),
			Env:   v.GetString("logger.env"),
		},
	}
}

// Validate rejects configurations the process cannot start with.
func (c *Config) Validate() error {
	switch c.Embedding.Source {
	case "openai", "ollama":
	default:
		return fmt.Errorf("unsupported embedding source %q", c.Embedding.Source)
	}
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding.dimension must be positive, got %d", c.Embedding.Dimension)
	}
	if c.Embedding.RequestsPerMinute <= 0 {
		return fmt.Errorf("embedding.requests_per_minute must be positive, got %d", c.Embedding.RequestsPerMinute)
	}
	if c.Search.DefaultThreshold < -1 || c.Search.DefaultThreshold > 1 {
		return fmt.Errorf("search.default_threshold must be within [-1, 1], got %v", c.Search.DefaultThreshold)
	}
	if c.Search.DefaultLimit <= 0 || c.Search.MaxLimit < c.Search.DefaultLimit {
		return fmt.Errorf("search limits are inconsistent: default=%d max=%d", c.Search.DefaultLimit, c.Search.MaxLimit)
	}
	return nil
}

// GetDSN returns the pgx connection string.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DB.User,
		c.DB.Password,
		c.DB.Host,
		c.DB.Port,
		c.DB.DBName,
		c.DB.SSLMode,
	)
}
