// Package publish sends analysis results to downstream consumers.
package publish

import (
	"context"
	"strings"

	"github.com/sells-group/funnel-cli/internal/model"
	"github.com/sells-group/funnel-cli/internal/resilience"
)

// Publisher drivers.
const (
	DriverNone  = "none"
	DriverKafka = "kafka"
	DriverRedis = "redis"
)

// Message is one analysis result. Payload is the JSON-encoded result.
type Message struct {
	RunID   string
	Kind    model.RunKind
	Source  string
	Payload []byte
}

// Publisher delivers messages. Implementations retry transient failures.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Config selects and parameterises a publisher.
type Config struct {
	Driver   string   `mapstructure:"driver"`
	Brokers  []string `mapstructure:"brokers"`
	Topic    string   `mapstructure:"topic"`
	RedisURL string   `mapstructure:"redis_url"`
	Stream   string   `mapstructure:"stream"`
	MaxLen   int64    `mapstructure:"max_len"`
}

// New builds the publisher described by cfg.
func New(cfg Config) (Publisher, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", DriverNone:
		return Noop{}, nil
	case DriverKafka:
		return NewKafka(cfg.Brokers, cfg.Topic)
	case DriverRedis:
		return NewRedis(cfg.RedisURL, cfg.Stream, cfg.MaxLen)
	default:
		return nil, model.NewConfigError("publish.driver", "unknown driver "+cfg.Driver)
	}
}

// Noop discards messages.
type Noop struct{}

// Publish implements Publisher.
func (Noop) Publish(context.Context, Message) error { return nil }

// Close implements Publisher.
func (Noop) Close() error { return nil }

func retryConfig(component string) resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.OnRetry = resilience.RetryLogger(component, "publish result")
	return cfg
}
