package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/funnel-cli/internal/ingest"
	"github.com/sells-group/funnel-cli/internal/publish"
	"github.com/sells-group/funnel-cli/internal/store"
)

// Validation modes.
const (
	ModeAnalyze = "analyze"
	ModeServe   = "serve"
	ModeRuns    = "runs"
)

// Validate checks the settings needed by mode and reports every problem
// found.
func (c *Config) Validate(mode string) error {
	var errs []string
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	switch mode {
	case ModeAnalyze, ModeServe:
		c.validateEngine(add)
		if mode == ModeAnalyze {
			c.validateSource(add)
		} else {
			if c.Server.Port <= 0 {
				add("server.port must be > 0")
			}
			if c.Server.RateLimit <= 0 {
				add("server.rate_limit must be > 0")
			}
		}
		c.validatePublish(add)
	case ModeRuns:
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}
	c.validateStore(add)

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateEngine(add func(string, ...any)) {
	if c.Engine.TimeWindowHours <= 0 {
		add("engine.time_window_hours must be > 0")
	}
	if c.Engine.AttributionWindowDays <= 0 {
		add("engine.attribution_window_days must be > 0")
	}
	if c.Engine.Workers <= 0 {
		add("engine.workers must be > 0")
	}
	if c.Engine.BatchSize <= 0 {
		add("engine.batch_size must be > 0")
	}
}

func (c *Config) validateSource(add func(string, ...any)) {
	drivers := []string{ingest.DriverFile, ingest.DriverSQLite, ingest.DriverPostgres, ingest.DriverClickHouse}
	if !slices.Contains(drivers, c.Source.Driver) {
		add("source.driver must be one of %s", strings.Join(drivers, ", "))
	}
	if c.Source.Limit < 0 {
		add("source.limit must be >= 0")
	}
}

func (c *Config) validateStore(add func(string, ...any)) {
	if c.Store.Driver != store.DriverSQLite && c.Store.Driver != store.DriverPostgres {
		add("store.driver must be sqlite or postgres")
	}
	if c.Store.DatabaseURL == "" {
		add("store.database_url is required")
	}
}

func (c *Config) validatePublish(add func(string, ...any)) {
	switch c.Publish.Driver {
	case publish.DriverNone, "":
	case publish.DriverKafka:
		if len(c.Publish.Brokers) == 0 {
			add("publish.brokers is required for kafka")
		}
	case publish.DriverRedis:
		if c.Publish.RedisURL == "" {
			add("publish.redis_url is required for redis")
		}
	default:
		add("publish.driver must be none, kafka or redis")
	}
}
