package publish

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	kafka "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/sells-group/funnel-cli/internal/model"
	"github.com/sells-group/funnel-cli/internal/resilience"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes one message per result to a topic, keyed by run id.
type Kafka struct {
	w     messageWriter
	topic string
	retry resilience.RetryConfig
}

var _ Publisher = (*Kafka)(nil)

// NewKafka creates a Kafka publisher. The writer connects lazily.
func NewKafka(brokers []string, topic string) (*Kafka, error) {
	if len(brokers) == 0 {
		return nil, model.NewConfigError("publish.brokers", "kafka publisher needs at least one broker")
	}
	if topic == "" {
		return nil, model.NewConfigError("publish.topic", "must not be empty")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireOne,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Kafka{w: w, topic: topic, retry: retryConfig("kafka")}, nil
}

// Publish implements Publisher.
func (k *Kafka) Publish(ctx context.Context, msg Message) error {
	km := kafka.Message{
		Key:   []byte(msg.RunID),
		Value: msg.Payload,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(msg.Kind)},
			{Key: "source", Value: []byte(msg.Source)},
		},
	}
	err := resilience.Do(ctx, k.retry, func(ctx context.Context) error {
		return k.w.WriteMessages(ctx, km)
	})
	if err != nil {
		return eris.Wrapf(err, "publish: write to kafka topic %s", k.topic)
	}
	zap.L().Info("published result",
		zap.String("driver", DriverKafka),
		zap.String("topic", k.topic),
		zap.String("run_id", msg.RunID),
		zap.Int("bytes", len(msg.Payload)),
	)
	return nil
}

// Close implements Publisher.
func (k *Kafka) Close() error {
	return k.w.Close()
}
