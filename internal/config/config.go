package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Nikola31267/food-management/internal/storage"
)

// ErrMissingURI is returned when no MongoDB connection string is configured.
var ErrMissingURI = errors.New("MONGODB_URI is required")

// DefaultCollections are the collections covered by the full export.
var DefaultCollections = []string{"daydeliveries", "topmeals", "unpaids", "users", "weeklymenu"}

// Config holds the export tool configuration
type Config struct {
	MongoDB  MongoDBConfig
	Export   ExportConfig
	Redis    RedisConfig
	MinIO    storage.MinIOConfig
	Metrics  MetricsConfig
	LogLevel string
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type ExportConfig struct {
	OutputDir    string
	Prefix       string
	Collections  []string
	Stream       bool
	HistoryLimit int64
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port, or "" when Redis is not configured.
func (r RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	return r.Host + ":" + r.Port
}

type MetricsConfig struct {
	Textfile string
}

// Load reads configuration from the environment, an optional .env file and,
// when file is non-empty, a config file in any format viper understands.
// Environment variables take precedence over the config file.
func Load(file string) (*Config, error) {
	cfg, err := Read(file)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read is Load without validation. Callers run Validate or
// ValidateWithoutMongo after applying their own overrides.
func Read(file string) (*Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("MONGODB_DATABASE", "test")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("EXPORT_OUTPUT_DIR", "./mongo_exports")
	v.SetDefault("EXPORT_PREFIX", "foodmanagement")
	v.SetDefault("EXPORT_COLLECTIONS", strings.Join(DefaultCollections, ","))
	v.SetDefault("EXPORT_STREAM", false)
	v.SetDefault("EXPORT_HISTORY_LIMIT", 20)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("MINIO_BUCKET", "mongo-exports")
	v.SetDefault("LOG_LEVEL", "info")

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	cfg := &Config{
		MongoDB: MongoDBConfig{
			URI:      v.GetString("MONGODB_URI"),
			Database: v.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Export: ExportConfig{
			OutputDir:    v.GetString("EXPORT_OUTPUT_DIR"),
			Prefix:       v.GetString("EXPORT_PREFIX"),
			Collections:  stringList(v, "EXPORT_COLLECTIONS"),
			Stream:       v.GetBool("EXPORT_STREAM"),
			HistoryLimit: v.GetInt64("EXPORT_HISTORY_LIMIT"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		MinIO: storage.MinIOConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
			Bucket:    v.GetString("MINIO_BUCKET"),
			Prefix:    v.GetString("MINIO_PREFIX"),
		},
		Metrics: MetricsConfig{
			Textfile: v.GetString("METRICS_TEXTFILE"),
		},
		LogLevel: v.GetString("LOG_LEVEL"),
	}
	return cfg, nil
}

// Validate checks required values and fills safe fallbacks.
func (c *Config) Validate() error {
	if c.MongoDB.URI == "" {
		return ErrMissingURI
	}
	if c.MongoDB.Database == "" {
		return errors.New("MONGODB_DATABASE must not be empty")
	}
	return c.ValidateWithoutMongo()
}

// ValidateWithoutMongo is Validate for commands that never connect to
// MongoDB, such as reading run history.
func (c *Config) ValidateWithoutMongo() error {
	if c.MongoDB.Timeout <= 0 {
		c.MongoDB.Timeout = 10 * time.Second
	}
	if c.Export.OutputDir == "" {
		return errors.New("EXPORT_OUTPUT_DIR must not be empty")
	}
	if len(c.Export.Collections) == 0 {
		return errors.New("EXPORT_COLLECTIONS must name at least one collection")
	}
	if c.Export.HistoryLimit <= 0 {
		c.Export.HistoryLimit = 20
	}
	return nil
}

// stringList accepts either a comma separated string (env) or a list (config file).
func stringList(v *viper.Viper, key string) []string {
	var parts []string
	if s, ok := v.Get(key).(string); ok {
		parts = strings.Split(s, ",")
	} else {
		parts = v.GetStringSlice(key)
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
