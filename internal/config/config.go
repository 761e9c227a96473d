package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

// Config holds process-level configuration. Domain settings such as
// validation mode and price tolerance live in the config table and are
// managed by the settings service.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	LogLevel  string
	LogFormat string

	DBPath    string
	OutputDir string

	Workers int
}

var Module = fx.Module("config", fx.Provide(Load))

// Load reads configuration from the environment, an optional .env file,
// and an optional partsentry.yaml settings file. Environment variables
// take precedence over the settings file.
func Load() Config {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("partsentry")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("db_path", "partsentry.db")
	v.SetDefault("output_dir", "reports")
	v.SetDefault("workers", 4)
	_ = v.ReadInConfig()

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "partsentry"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		LogLevel:    getenv("LOG_LEVEL", v.GetString("log_level")),
		LogFormat:   getenv("LOG_FORMAT", v.GetString("log_format")),
		DBPath:      getenv("DATABASE_PATH", v.GetString("db_path")),
		OutputDir:   getenv("OUTPUT_DIR", v.GetString("output_dir")),
		Workers:     getenvInt("BATCH_WORKERS", v.GetInt("workers")),
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
