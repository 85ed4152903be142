package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/sells-group/funnel-cli/internal/ingest"
	"github.com/sells-group/funnel-cli/internal/publish"
	"github.com/sells-group/funnel-cli/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Engine  EngineConfig        `yaml:"engine" mapstructure:"engine"`
	Source  ingest.SourceConfig `yaml:"source" mapstructure:"source"`
	Store   store.Config        `yaml:"store" mapstructure:"store"`
	Publish publish.Config      `yaml:"publish" mapstructure:"publish"`
	Server  ServerConfig        `yaml:"server" mapstructure:"server"`
	Log     LogConfig           `yaml:"log" mapstructure:"log"`
}

// EngineConfig configures funnel matching and attribution.
type EngineConfig struct {
	TimeWindowHours       float64  `yaml:"time_window_hours" mapstructure:"time_window_hours"`
	AttributionWindowDays float64  `yaml:"attribution_window_days" mapstructure:"attribution_window_days"`
	Workers               int      `yaml:"workers" mapstructure:"workers"`
	BatchSize             int      `yaml:"batch_size" mapstructure:"batch_size"`
	ConversionEvents      []string `yaml:"conversion_events" mapstructure:"conversion_events"`
	DefaultFunnel         string   `yaml:"default_funnel" mapstructure:"default_funnel"`
	Dimensions            []string `yaml:"dimensions" mapstructure:"dimensions"`
	// FunnelsFile is a YAML or JSON funnel registry; empty uses the built-ins.
	FunnelsFile           string   `yaml:"funnels_file" mapstructure:"funnels_file"`
}

// TimeWindow is the default step-to-step matching window.
func (e EngineConfig) TimeWindow() time.Duration {
	return time.Duration(e.TimeWindowHours * float64(time.Hour))
}

// AttributionWindow is the default look-back window for attribution.
func (e EngineConfig) AttributionWindow() time.Duration {
	return time.Duration(e.AttributionWindowDays * 24 * float64(time.Hour))
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	RateLimit      float64  `yaml:"rate_limit" mapstructure:"rate_limit"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`
	Format     string `yaml:"format" mapstructure:"format"`
	File       string `yaml:"file" mapstructure:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FUNNEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("engine.time_window_hours", 24)
	v.SetDefault("engine.attribution_window_days", 7)
	v.SetDefault("engine.workers", 8)
	v.SetDefault("engine.batch_size", 5000)
	v.SetDefault("engine.conversion_events", []string{
		"sign_up", "login", "purchase", "begin_checkout", "add_to_cart", "add_payment_info", "subscribe",
	})
	v.SetDefault("engine.default_funnel", "purchase_funnel")
	v.SetDefault("engine.dimensions", []string{"platform", "device_category", "geo_country"})
	v.SetDefault("engine.funnels_file", "")
	v.SetDefault("source.driver", ingest.DriverFile)
	v.SetDefault("source.path", "")
	v.SetDefault("source.database_url", "")
	v.SetDefault("source.table", "events")
	v.SetDefault("source.limit", 0)
	v.SetDefault("store.driver", store.DriverSQLite)
	v.SetDefault("store.database_url", "funnel.db")
	v.SetDefault("publish.driver", publish.DriverNone)
	v.SetDefault("publish.brokers", []string{})
	v.SetDefault("publish.topic", "funnel.results")
	v.SetDefault("publish.redis_url", "redis://localhost:6379/0")
	v.SetDefault("publish.stream", "funnel:results")
	v.SetDefault("publish.max_len", 10000)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit", 10)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 20)
	v.SetDefault("log.max_backups", 10)
	v.SetDefault("log.max_age_days", 30)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger. When cfg.File is set, log
// entries are also written as JSON to a rotated file.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	var opts []zap.Option
	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(rotator), zapCfg.Level)
		opts = append(opts, zap.WrapCore(func(c zapcore.Core) zapcore.Core {
			return zapcore.NewTee(c, fileCore)
		}))
	}

	logger, err := zapCfg.Build(opts...)
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
