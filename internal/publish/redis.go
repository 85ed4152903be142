package publish

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/funnel-cli/internal/model"
	"github.com/sells-group/funnel-cli/internal/resilience"
)

type streamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	Close() error
}

// Redis appends one entry per result to a stream. The JSON body is stored
// in the "data" field.
type Redis struct {
	cli    streamAdder
	stream string
	maxLen int64
	retry  resilience.RetryConfig
}

var _ Publisher = (*Redis)(nil)

// NewRedis creates a Redis stream publisher from a redis:// URL.
func NewRedis(url, stream string, maxLen int64) (*Redis, error) {
	if stream == "" {
		return nil, model.NewConfigError("publish.stream", "must not be empty")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, model.NewConfigError("publish.redis_url", err.Error())
	}
	return &Redis{
		cli:    redis.NewClient(opt),
		stream: stream,
		maxLen: maxLen,
		retry:  retryConfig("redis"),
	}, nil
}

// Publish implements Publisher.
func (r *Redis) Publish(ctx context.Context, msg Message) error {
	args := &redis.XAddArgs{
		Stream: r.stream,
		Values: map[string]any{
			"run_id": msg.RunID,
			"kind":   string(msg.Kind),
			"source": msg.Source,
			"data":   string(msg.Payload),
		},
	}
	if r.maxLen > 0 {
		args.MaxLen = r.maxLen
		args.Approx = true
	}

	id, err := resilience.DoVal(ctx, r.retry, func(ctx context.Context) (string, error) {
		return r.cli.XAdd(ctx, args).Result()
	})
	if err != nil {
		return eris.Wrapf(err, "publish: xadd to stream %s", r.stream)
	}
	zap.L().Info("published result",
		zap.String("driver", DriverRedis),
		zap.String("stream", r.stream),
		zap.String("entry_id", id),
		zap.String("run_id", msg.RunID),
	)
	return nil
}

// Close implements Publisher.
func (r *Redis) Close() error {
	return r.cli.Close()
}
