/*
Package config loads runtime configuration and builds the process logger.

PURPOSE:
  One place that turns defaults, an optional .env file and PAYROLL_*
  environment variables into a Config. Command-line flags are applied on
  top by cmd/server.

PRECEDENCE (lowest to highest):
  1. Defaults below
  2. .env file (when present; does not override real environment variables)
  3. PAYROLL_* environment variables
  4. Flags (cmd/server)

KEYS:
  PAYROLL_PORT          HTTP port                          (8080)
  PAYROLL_DB            SQLite path, ":memory:" allowed    (payroll.db)
  PAYROLL_LOG_LEVEL     debug|info|warn|error              (info)
  PAYROLL_WORKERS       Pricing fan-out bound              (4)
  PAYROLL_CORS_ORIGINS  Comma-separated allowed origins    (localhost dev servers)
  PAYROLL_PRICES_FILE   JSON price sheet loaded at startup (none)

SEE ALSO:
  - cmd/server/main.go: Flag overrides and startup
*/
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "PAYROLL"

// Config is the resolved runtime configuration.
type Config struct {
	Port        int
	DB          string
	LogLevel    string
	Workers     int
	CORSOrigins []string
	PricesFile  string
}

// Load reads configuration. envFile may be empty; a missing file is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("config: load %s: %w", envFile, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: stat %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetDefault("port", 8080)
	v.SetDefault("db", "payroll.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("workers", 4)
	v.SetDefault("cors_origins", "")
	v.SetDefault("prices_file", "")

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	cfg := &Config{
		Port:        v.GetInt("port"),
		DB:          v.GetString("db"),
		LogLevel:    v.GetString("log_level"),
		Workers:     v.GetInt("workers"),
		CORSOrigins: splitList(v.GetString("cors_origins")),
		PricesFile:  v.GetString("prices_file"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values Load cannot default away.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Port)
	}
	if c.DB == "" {
		return fmt.Errorf("config: db is empty")
	}
	if c.Workers < 1 {
		return fmt.Errorf("config: workers must be at least 1, got %d", c.Workers)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: invalid log level %q: %w", c.LogLevel, err)
	}
	return nil
}

// Addr is the listen address for the configured port.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// NewLogger builds the JSON production logger at the configured level.
func (c *Config) NewLogger() (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.EncoderConfig.TimeKey = "ts"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.OutputPaths = []string{"stdout"}
	zapCfg.ErrorOutputPaths = []string{"stderr"}

	level := strings.TrimSpace(c.LogLevel)
	if level == "" {
		level = "info"
	}
	if err := zapCfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", "teacher-payroll")), nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
