package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root of the YAML configuration file.
type Config struct {
	Environment string           `yaml:"environment"`
	Server      ServerConfig     `yaml:"server"`
	Log         LogConfig        `yaml:"log"`
	Metrics     MetricsConfig    `yaml:"metrics"`
	Engine      EngineConfig     `yaml:"engine"`
	Kafka       KafkaConfig      `yaml:"kafka"`
	ClickHouse  ClickHouseConfig `yaml:"clickhouse"`
	Redis       RedisConfig      `yaml:"redis"`
	Cache       CacheConfig      `yaml:"cache"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// EngineConfig drives rule evaluation runs. Benchmarks maps a region code
// to the index symbol its holdings are compared against.
type EngineConfig struct {
	RulesPath    string            `yaml:"rules_path"`
	Regions      []string          `yaml:"regions"`
	Benchmarks   map[string]string `yaml:"benchmarks"`
	LookbackDays int               `yaml:"lookback_days"`
	Schedule     string            `yaml:"schedule"`
}

type KafkaConfig struct {
	Brokers      []string       `yaml:"brokers"`
	AlertsTopic  string         `yaml:"alerts_topic"`
	BarsTopic    string         `yaml:"bars_topic"`
	RequiredAcks int            `yaml:"required_acks"`
	Compression  string         `yaml:"compression"`
	Producer     ProducerConfig `yaml:"producer"`
	Consumer     ConsumerConfig `yaml:"consumer"`
}

type ProducerConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	Linger       time.Duration `yaml:"linger"`
	BatchBytes   int           `yaml:"batch_bytes"`
	BatchSize    int           `yaml:"batch_size"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	Async        bool          `yaml:"async"`
}

type ConsumerConfig struct {
	GroupID    string        `yaml:"group_id"`
	Workers    int           `yaml:"workers"`
	BufferSize int           `yaml:"buffer_size"`
	RetryMax   int           `yaml:"retry_max"`
	BackoffMin time.Duration `yaml:"backoff_min"`
	BackoffMax time.Duration `yaml:"backoff_max"`
	DLQTopic   string        `yaml:"dlq_topic"`
	MinBytes   int           `yaml:"min_bytes"`
	MaxBytes   int           `yaml:"max_bytes"`
}

type ClickHouseConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	Database         string        `yaml:"database"`
	User             string        `yaml:"user"`
	Password         string        `yaml:"password"`
	UseHTTP          bool          `yaml:"use_http"`
	AsyncInsert      bool          `yaml:"async_insert"`
	WaitForAsync     bool          `yaml:"wait_for_async_insert"`
	DialTimeout      time.Duration `yaml:"dial_timeout"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type CacheConfig struct {
	ReportTTL   time.Duration `yaml:"report_ttl"`
	SnapshotTTL time.Duration `yaml:"snapshot_ttl"`
	HoldingsTTL time.Duration `yaml:"holdings_ttl"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML, then applies environment overrides so
// containers can point at different brokers and stores without a file edit.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	overrides := map[string]func(string){
		"KAFKA_BROKERS":       func(v string) { c.Kafka.Brokers = strings.Split(v, ",") },
		"KAFKA_ALERTS_TOPIC":  func(v string) { c.Kafka.AlertsTopic = v },
		"KAFKA_BARS_TOPIC":    func(v string) { c.Kafka.BarsTopic = v },
		"CLICKHOUSE_HOST":     func(v string) { c.ClickHouse.Host = v },
		"CLICKHOUSE_PASSWORD": func(v string) { c.ClickHouse.Password = v },
		"REDIS_ADDR":          func(v string) { c.Redis.Addr = v; c.Redis.Enabled = true },
		"PORTWATCH_RULES":     func(v string) { c.Engine.RulesPath = v },
		"PORTWATCH_REGIONS":   func(v string) { c.Engine.Regions = strings.Split(v, ",") },
	}
	for name, apply := range overrides {
		if v := os.Getenv(name); v != "" {
			apply(v)
		}
	}
	return c, nil
}

// Validate rejects unusable configs and fills defaults for optional fields.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if len(c.Engine.Regions) == 0 {
		return fmt.Errorf("engine.regions cannot be empty")
	}
	if c.Engine.LookbackDays <= 0 {
		c.Engine.LookbackDays = 400
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	return nil
}
