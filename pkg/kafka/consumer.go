package kafka

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// MessageHandler processes messages from one topic.
type MessageHandler interface {
	Topic() string
	Handle(ctx context.Context, data []byte) error
}

type consumerConfig struct {
	brokers         []string
	groupID         string
	autoOffsetReset string
	workers         int
	bufferSize      int
	retryMax        int
	backoffMin      time.Duration
	backoffMax      time.Duration
	dlqTopic        string
	minBytes        int
	maxBytes        int
}

// ConsumerOption configures a Consumer.
type ConsumerOption func(*consumerConfig)

func WithConsumerBrokers(brokers []string) ConsumerOption {
	return func(c *consumerConfig) { c.brokers = brokers }
}

func WithConsumerGroupID(groupID string) ConsumerOption {
	return func(c *consumerConfig) { c.groupID = groupID }
}

func WithConsumerAutoOffsetReset(reset string) ConsumerOption {
	return func(c *consumerConfig) { c.autoOffsetReset = reset }
}

func WithConsumerWorkers(n int) ConsumerOption {
	return func(c *consumerConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

func WithConsumerBufferSize(n int) ConsumerOption {
	return func(c *consumerConfig) {
		if n > 0 {
			c.bufferSize = n
		}
	}
}

func WithConsumerRetry(max int, backoffMin, backoffMax time.Duration) ConsumerOption {
	return func(c *consumerConfig) {
		if max >= 0 {
			c.retryMax = max
		}
		if backoffMin > 0 {
			c.backoffMin = backoffMin
		}
		if backoffMax > 0 {
			c.backoffMax = backoffMax
		}
	}
}

// WithConsumerDLQ routes messages that exhaust retries to a dead letter topic.
func WithConsumerDLQ(topic string) ConsumerOption {
	return func(c *consumerConfig) { c.dlqTopic = topic }
}

func WithConsumerFetch(minBytes, maxBytes int) ConsumerOption {
	return func(c *consumerConfig) {
		if minBytes > 0 {
			c.minBytes = minBytes
		}
		if maxBytes > 0 {
			c.maxBytes = maxBytes
		}
	}
}

var (
	consumerQueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "portwatch_kafka_consumer_queue_depth",
		Help: "Messages waiting in the worker queue",
	}, []string{"topic"})

	consumerHandleSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portwatch_kafka_consumer_handle_seconds",
		Help:    "Handler latency per message",
		Buckets: prometheus.DefBuckets,
	}, []string{"topic", "result"})

	consumerDLQTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portwatch_kafka_consumer_dlq_total",
		Help: "Messages routed to the dead letter topic",
	}, []string{"topic"})
)

// Consumer reads topics in a consumer group and dispatches messages to
// registered handlers through a bounded worker pool. Messages that exhaust
// their retries go to the DLQ when one is configured.
type Consumer struct {
	cfg      consumerConfig
	handlers map[string]MessageHandler
	hook     ConsumerHook

	dlq *kafka.Writer

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// NewConsumer creates a Kafka consumer group client.
func NewConsumer(opts ...ConsumerOption) (*Consumer, error) {
	cfg := consumerConfig{
		brokers:         []string{"localhost:9092"},
		autoOffsetReset: "latest",
		workers:         4,
		bufferSize:      1000,
		retryMax:        3,
		backoffMin:      100 * time.Millisecond,
		backoffMax:      5 * time.Second,
		minBytes:        1,
		maxBytes:        10 << 20,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(cfg.brokers) == 0 {
		return nil, fmt.Errorf("kafka consumer: no brokers")
	}
	if cfg.groupID == "" {
		return nil, fmt.Errorf("kafka consumer: group id required")
	}

	c := &Consumer{
		cfg:      cfg,
		handlers: make(map[string]MessageHandler),
		hook:     NoopHook{},
	}
	if cfg.dlqTopic != "" {
		c.dlq = &kafka.Writer{
			Addr:     kafka.TCP(cfg.brokers...),
			Topic:    cfg.dlqTopic,
			Balancer: &kafka.LeastBytes{},
		}
	}
	return c, nil
}

// RegisterHandler registers a handler for its topic. Must be called before
// Start.
func (c *Consumer) RegisterHandler(h MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[h.Topic()] = h
}

// WithConsumerHook installs a lifecycle hook around message handling.
func (c *Consumer) WithConsumerHook(h ConsumerHook) {
	if h != nil {
		c.hook = h
	}
}

// Start begins consuming all registered topics. It returns once the reader
// loops are running; processing continues until Stop.
func (c *Consumer) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return fmt.Errorf("kafka consumer: already started")
	}
	if len(c.handlers) == 0 {
		return fmt.Errorf("kafka consumer: no handlers registered")
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	c.started = true

	var wg sync.WaitGroup
	for topic, h := range c.handlers {
		wg.Add(1)
		go func(topic string, h MessageHandler) {
			defer wg.Done()
			c.consumeTopic(ctx, topic, h)
		}(topic, h)
	}
	go func() {
		wg.Wait()
		close(c.done)
	}()
	return nil
}

// Stop cancels the reader loops and waits for in-flight messages, bounded
// by ctx.
func (c *Consumer) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil
	}
	c.cancel()
	done := c.done
	c.started = false
	c.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if c.dlq != nil {
		return c.dlq.Close()
	}
	return nil
}

func (c *Consumer) consumeTopic(ctx context.Context, topic string, h MessageHandler) {
	startOffset := kafka.LastOffset
	if c.cfg.autoOffsetReset == "earliest" {
		startOffset = kafka.FirstOffset
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     c.cfg.brokers,
		GroupID:     c.cfg.groupID,
		Topic:       topic,
		MinBytes:    c.cfg.minBytes,
		MaxBytes:    c.cfg.maxBytes,
		StartOffset: startOffset,
	})
	defer reader.Close()

	queue := make(chan kafka.Message, c.cfg.bufferSize)
	var workers sync.WaitGroup
	for i := 0; i < c.cfg.workers; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for km := range queue {
				c.process(ctx, topic, h, km)
				consumerQueueDepth.WithLabelValues(topic).Set(float64(len(queue)))
			}
		}()
	}

	for {
		km, err := reader.FetchMessage(ctx)
		if err != nil {
			break // ctx cancelled or reader closed
		}
		select {
		case queue <- km:
			consumerQueueDepth.WithLabelValues(topic).Set(float64(len(queue)))
		case <-ctx.Done():
			close(queue)
			workers.Wait()
			return
		}
		// commit at fetch: handlers own retry/DLQ, redelivery is not needed
		_ = reader.CommitMessages(ctx, km)
	}
	close(queue)
	workers.Wait()
}

func (c *Consumer) process(ctx context.Context, topic string, h MessageHandler, km kafka.Message) {
	hctx, hkm, data, err := c.hook.BeforeHandle(ctx, topic, km, km.Value)
	if err != nil {
		c.toDLQ(ctx, topic, km)
		return
	}

	start := time.Now()
	err = c.handleWithRetry(hctx, h, data)
	result := "ok"
	if err != nil {
		result = "error"
	}
	consumerHandleSeconds.WithLabelValues(topic, result).Observe(time.Since(start).Seconds())

	c.hook.AfterHandle(hctx, topic, hkm, data, err)
	if err != nil {
		c.hook.OnError(hctx, topic, hkm, data, err)
		c.toDLQ(ctx, topic, hkm)
	}
}

func (c *Consumer) handleWithRetry(ctx context.Context, h MessageHandler, data []byte) error {
	backoff := c.cfg.backoffMin
	var err error
	for attempt := 0; attempt <= c.cfg.retryMax; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
			if backoff > c.cfg.backoffMax {
				backoff = c.cfg.backoffMax
			}
		}
		if err = h.Handle(ctx, data); err == nil {
			return nil
		}
	}
	return err
}

func (c *Consumer) toDLQ(ctx context.Context, topic string, km kafka.Message) {
	if c.dlq == nil {
		return
	}
	consumerDLQTotal.WithLabelValues(topic).Inc()
	_ = c.dlq.WriteMessages(ctx, kafka.Message{
		Key:   km.Key,
		Value: km.Value,
		Headers: append(km.Headers, kafka.Header{
			Key: "x-origin-topic", Value: []byte(topic),
		}),
	})
}
