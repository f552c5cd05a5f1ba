package di

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"PortWatch/internal/domain/models"
	"PortWatch/internal/domain/repository"
	domsvc "PortWatch/internal/domain/service"
	"PortWatch/internal/engine"
	"PortWatch/internal/handler/api"
	internalrepo "PortWatch/internal/repository"
	"PortWatch/internal/rules"
	"PortWatch/internal/scheduler"
	icache "PortWatch/internal/service/cache"
	"PortWatch/internal/usecase"
	"PortWatch/pkg/cache"
	pkgch "PortWatch/pkg/clickhouse"
	"PortWatch/pkg/config"
	xhttp "PortWatch/pkg/http"
	pkgkafka "PortWatch/pkg/kafka"
	applogger "PortWatch/pkg/logger"
	"PortWatch/pkg/metrics"
	"PortWatch/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, internalrepo.SchemaStatements(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvidePriceStore creates the ClickHouse price history repository.
func ProvidePriceStore(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) repository.PriceStore {
	s := internalrepo.NewCHPriceStore(chClient, cfg.ClickHouse.Database)
	s.SetLogger(l)
	return s
}

// ProvideHoldingStore creates the ClickHouse holdings repository.
func ProvideHoldingStore(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) repository.HoldingStore {
	s := internalrepo.NewCHHoldingStore(chClient, cfg.ClickHouse.Database)
	s.SetLogger(l)
	return s
}

// ProvideEarningsStore creates the ClickHouse earnings repository.
func ProvideEarningsStore(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) repository.EarningsStore {
	s := internalrepo.NewCHEarningsStore(chClient, cfg.ClickHouse.Database)
	s.SetLogger(l)
	return s
}

// ProvideAlertPublisher creates the Kafka alert publisher.
func ProvideAlertPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.AlertPublisher {
	return internalrepo.NewKafkaAlertPublisher(producer, cfg.Kafka.AlertsTopic)
}

// ProvideRuleSet loads the rule table from YAML, falling back to the
// built-in defaults when no path is configured.
func ProvideRuleSet(cfg *config.Config) (*rules.Set, error) {
	return rules.LoadOrDefaults(cfg.Engine.RulesPath)
}

// ProvideEngine creates the alert evaluation engine.
func ProvideEngine(set *rules.Set) domsvc.AlertEngine {
	return engine.New(set)
}

// ProvideCache creates the report cache, layered over Redis when enabled.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}

	host, portStr, ok := strings.Cut(cfg.Redis.Addr, ":")
	if !ok {
		return nil, fmt.Errorf("redis addr %q: want host:port", cfg.Redis.Addr)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("redis addr %q: %w", cfg.Redis.Addr, err)
	}

	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(host),
		cache.WithRedisPort(port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(rc), nil
}

// ProvideAdvisorConfig translates YAML engine settings into use case config.
func ProvideAdvisorConfig(cfg *config.Config) usecase.AdvisorConfig {
	regions := make([]models.Region, 0, len(cfg.Engine.Regions))
	for _, r := range cfg.Engine.Regions {
		regions = append(regions, models.Region(strings.ToUpper(r)))
	}
	benchmarks := make(map[models.Region]string, len(cfg.Engine.Benchmarks))
	for r, sym := range cfg.Engine.Benchmarks {
		benchmarks[models.Region(strings.ToUpper(r))] = sym
	}
	return usecase.AdvisorConfig{
		Regions:      regions,
		Benchmarks:   benchmarks,
		LookbackDays: cfg.Engine.LookbackDays,
		ReportTTL:    cfg.Cache.ReportTTL,
		SnapshotTTL:  cfg.Cache.SnapshotTTL,
		HoldingsTTL:  cfg.Cache.HoldingsTTL,
	}
}

// ProvideAdvisorUseCase creates the portfolio advisor use case.
func ProvideAdvisorUseCase(
	advisorCfg usecase.AdvisorConfig,
	holdings repository.HoldingStore,
	prices repository.PriceStore,
	earnings repository.EarningsStore,
	eng domsvc.AlertEngine,
	set *rules.Set,
	cacheSvc cache.Service,
	publisher repository.AlertPublisher,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.AdvisorUseCase {
	return usecase.NewAdvisorUseCase(advisorCfg, holdings, prices, earnings, eng, set, cacheSvc, publisher, m, l)
}

// ProvideBarsIngestHandler registers the handler for the daily bars topic.
func ProvideBarsIngestHandler(prices repository.PriceStore, m repository.Metrics, cfg *config.Config) pkgkafka.MessageHandler {
	return usecase.NewBarsIngestHandler(cfg.Kafka.BarsTopic, prices, m)
}

// ProvideScheduler creates the cron scheduler for periodic evaluation runs.
func ProvideScheduler(advisor *usecase.AdvisorUseCase, l *applogger.Logger) *scheduler.Scheduler {
	return scheduler.New(advisor, l)
}

// ProvideHTTPHandler creates the Echo API handler. When Redis is enabled the
// handler's response byte cache is shared across replicas.
func ProvideHTTPHandler(cfg *config.Config, l *applogger.Logger, advisor *usecase.AdvisorUseCase) xhttp.Handler {
	h := api.NewAdvisorEchoHandler(l, advisor)
	if cfg.Redis.Enabled {
		h.WithBytesCache(icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}))
	}
	return h
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	consumer *pkgkafka.Consumer,
	barsHandler pkgkafka.MessageHandler,
	sched *scheduler.Scheduler,
	chClient *pkgch.Client,
	publisher repository.AlertPublisher,
	httpHandler xhttp.Handler,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	return server.New(cfg, l, consumer, barsHandler, sched, chClient, publisher, httpHandler)
}
