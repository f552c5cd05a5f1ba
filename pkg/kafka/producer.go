package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// Message is one record to publish. Value is JSON-marshalled on the way out.
type Message struct {
	Key   []byte
	Value interface{}
}

type producerConfig struct {
	brokers      []string
	compression  string
	requiredAcks int
	maxAttempts  int
	batchSize    int
	batchBytes   int
	batchTimeout time.Duration
	writeTimeout time.Duration
	readTimeout  time.Duration
	async        bool
	hashByKey    bool
}

// ProducerOption configures a Producer.
type ProducerOption func(*producerConfig)

func WithBrokers(brokers []string) ProducerOption {
	return func(c *producerConfig) { c.brokers = brokers }
}

func WithCompression(compression string) ProducerOption {
	return func(c *producerConfig) { c.compression = compression }
}

func WithRequiredAcks(acks int) ProducerOption {
	return func(c *producerConfig) { c.requiredAcks = acks }
}

func WithMaxAttempts(n int) ProducerOption {
	return func(c *producerConfig) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

func WithBatchSize(size int) ProducerOption {
	return func(c *producerConfig) {
		if size > 0 {
			c.batchSize = size
		}
	}
}

func WithBatchTimeout(timeout time.Duration) ProducerOption {
	return func(c *producerConfig) {
		if timeout > 0 {
			c.batchTimeout = timeout
		}
	}
}

func WithBatchBytes(bytes int) ProducerOption {
	return func(c *producerConfig) {
		if bytes > 0 {
			c.batchBytes = bytes
		}
	}
}

func WithTimeouts(write, read time.Duration) ProducerOption {
	return func(c *producerConfig) {
		if write > 0 {
			c.writeTimeout = write
		}
		if read > 0 {
			c.readTimeout = read
		}
	}
}

func WithAsync(async bool) ProducerOption {
	return func(c *producerConfig) { c.async = async }
}

// WithHashByKey routes messages with the same key to the same partition.
func WithHashByKey(hash bool) ProducerOption {
	return func(c *producerConfig) { c.hashByKey = hash }
}

var (
	producerMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portwatch_kafka_producer_messages_total",
		Help: "Messages published, by topic and result",
	}, []string{"topic", "result"})

	producerPublishSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portwatch_kafka_producer_publish_seconds",
		Help:    "Publish latency per batch",
		Buckets: prometheus.DefBuckets,
	}, []string{"topic"})
)

// Producer publishes JSON messages to Kafka.
type Producer struct {
	writer *kafka.Writer
}

// NewProducer creates a Kafka producer.
func NewProducer(opts ...ProducerOption) (*Producer, error) {
	cfg := &producerConfig{
		brokers:      []string{"localhost:9092"},
		compression:  "snappy",
		requiredAcks: 1,
		maxAttempts:  3,
		batchSize:    100,
		batchBytes:   1 << 20,
		batchTimeout: 50 * time.Millisecond,
		writeTimeout: 10 * time.Second,
		readTimeout:  10 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.brokers) == 0 {
		return nil, fmt.Errorf("kafka producer: no brokers")
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.brokers...),
		Compression:  parseCompression(cfg.compression),
		RequiredAcks: kafka.RequiredAcks(cfg.requiredAcks),
		MaxAttempts:  cfg.maxAttempts,
		BatchSize:    cfg.batchSize,
		BatchBytes:   int64(cfg.batchBytes),
		BatchTimeout: cfg.batchTimeout,
		WriteTimeout: cfg.writeTimeout,
		ReadTimeout:  cfg.readTimeout,
		Async:        cfg.async,
	}
	if cfg.hashByKey {
		w.Balancer = &kafka.Hash{}
	} else {
		w.Balancer = &kafka.LeastBytes{}
	}
	return &Producer{writer: w}, nil
}

// Publish sends a single message.
func (p *Producer) Publish(ctx context.Context, topic string, key []byte, value interface{}) error {
	return p.PublishBatch(ctx, topic, []Message{{Key: key, Value: value}})
}

// PublishBatch sends messages in one writer call.
func (p *Producer) PublishBatch(ctx context.Context, topic string, messages []Message) error {
	if len(messages) == 0 {
		return nil
	}

	kms := make([]kafka.Message, len(messages))
	for i, m := range messages {
		b, err := json.Marshal(m.Value)
		if err != nil {
			producerMessages.WithLabelValues(topic, "marshal_error").Inc()
			return fmt.Errorf("marshal message for %s: %w", topic, err)
		}
		kms[i] = kafka.Message{Topic: topic, Key: m.Key, Value: b}
	}

	start := time.Now()
	err := p.writer.WriteMessages(ctx, kms...)
	producerPublishSeconds.WithLabelValues(topic).Observe(time.Since(start).Seconds())
	if err != nil {
		producerMessages.WithLabelValues(topic, "error").Add(float64(len(kms)))
		return fmt.Errorf("write to %s: %w", topic, err)
	}
	producerMessages.WithLabelValues(topic, "ok").Add(float64(len(kms)))
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

func parseCompression(s string) kafka.Compression {
	switch s {
	case "gzip":
		return kafka.Gzip
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	case "snappy":
		return kafka.Snappy
	default:
		return 0
	}
}
