package publish

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	kafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/funnel-cli/internal/model"
	"github.com/sells-group/funnel-cli/internal/resilience"
)

var fastRetry = resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}

var testMsg = Message{RunID: "run-1", Kind: model.RunKindAnalyze, Source: "events.csv", Payload: []byte(`{"funnels":[]}`)}

type fakeWriter struct {
	errs   []error
	calls  int
	got    []kafka.Message
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return err
		}
	}
	f.got = append(f.got, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { f.closed = true; return nil }

type fakeStream struct {
	errs  []error
	calls int
	args  []*redis.XAddArgs
}

func (f *fakeStream) XAdd(_ context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return redis.NewStringResult("", err)
		}
	}
	f.args = append(f.args, a)
	return redis.NewStringResult("1700000000000-0", nil)
}

func (f *fakeStream) Close() error { return nil }

func TestNew(t *testing.T) {
	p, err := New(Config{})
	require.NoError(t, err)
	assert.IsType(t, Noop{}, p)
	assert.NoError(t, p.Publish(context.Background(), testMsg))

	p, err = New(Config{Driver: "kafka", Brokers: []string{"localhost:9092"}, Topic: "funnel.results"})
	require.NoError(t, err)
	assert.IsType(t, &Kafka{}, p)
	require.NoError(t, p.Close())

	p, err = New(Config{Driver: "redis", RedisURL: "redis://localhost:6379/0", Stream: "funnel:results"})
	require.NoError(t, err)
	assert.IsType(t, &Redis{}, p)
	require.NoError(t, p.Close())
}

func TestNew_ConfigErrors(t *testing.T) {
	tests := []Config{
		{Driver: "sns"},
		{Driver: "kafka", Topic: "t"},
		{Driver: "kafka", Brokers: []string{"b:9092"}},
		{Driver: "redis", RedisURL: "redis://localhost:6379/0"},
		{Driver: "redis", RedisURL: "::not a url", Stream: "s"},
	}
	for _, cfg := range tests {
		_, err := New(cfg)
		assert.True(t, model.IsConfigError(err), "%+v", cfg)
	}
}

func TestKafka_Publish(t *testing.T) {
	w := &fakeWriter{}
	k := &Kafka{w: w, topic: "funnel.results", retry: fastRetry}

	require.NoError(t, k.Publish(context.Background(), testMsg))
	require.Len(t, w.got, 1)
	assert.Equal(t, []byte("run-1"), w.got[0].Key)
	assert.JSONEq(t, `{"funnels":[]}`, string(w.got[0].Value))
	assert.Equal(t, "kind", w.got[0].Headers[0].Key)
	assert.Equal(t, []byte("analyze"), w.got[0].Headers[0].Value)

	require.NoError(t, k.Close())
	assert.True(t, w.closed)
}

func TestKafka_PublishRetriesTransient(t *testing.T) {
	w := &fakeWriter{errs: []error{errors.New("leader not available"), nil}}
	k := &Kafka{w: w, topic: "funnel.results", retry: fastRetry}

	require.NoError(t, k.Publish(context.Background(), testMsg))
	assert.Equal(t, 2, w.calls)
}

func TestKafka_PublishPermanentError(t *testing.T) {
	w := &fakeWriter{errs: []error{errors.New("message too large")}}
	k := &Kafka{w: w, topic: "funnel.results", retry: fastRetry}

	err := k.Publish(context.Background(), testMsg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "funnel.results")
	assert.Equal(t, 1, w.calls)
}

func TestRedis_Publish(t *testing.T) {
	s := &fakeStream{}
	r := &Redis{cli: s, stream: "funnel:results", maxLen: 100, retry: fastRetry}

	require.NoError(t, r.Publish(context.Background(), testMsg))
	require.Len(t, s.args, 1)
	a := s.args[0]
	assert.Equal(t, "funnel:results", a.Stream)
	assert.Equal(t, int64(100), a.MaxLen)
	assert.True(t, a.Approx)
	values, ok := a.Values.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "run-1", values["run_id"])
	assert.Equal(t, "analyze", values["kind"])
	assert.JSONEq(t, `{"funnels":[]}`, values["data"].(string))
}

func TestRedis_PublishRetriesTransient(t *testing.T) {
	s := &fakeStream{errs: []error{errors.New("i/o timeout"), errors.New("connection refused"), nil}}
	r := &Redis{cli: s, stream: "funnel:results", retry: fastRetry}

	require.NoError(t, r.Publish(context.Background(), testMsg))
	assert.Equal(t, 3, s.calls)
	assert.Zero(t, s.args[0].MaxLen)
}

func TestRedis_PublishExhausted(t *testing.T) {
	s := &fakeStream{errs: []error{errors.New("i/o timeout"), errors.New("i/o timeout"), errors.New("i/o timeout")}}
	r := &Redis{cli: s, stream: "funnel:results", retry: fastRetry}

	err := r.Publish(context.Background(), testMsg)
	require.Error(t, err)
	assert.Equal(t, 3, s.calls)
}
