// Package config loads pipeline configuration from an optional YAML file
// with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/enrich"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/pricing"
)

// ConfigFileEnv names the environment variable pointing at the YAML file.
const ConfigFileEnv = "CONFIG_FILE"

// ReplayConfig controls the timestamp-ordered replay of the dataset.
type ReplayConfig struct {
	// Rate is the number of observations emitted per second. Zero or
	// negative means emit as fast as the consumer drains.
	Rate int `yaml:"rate"`
}

// PostgresConfig holds the source-of-record database settings.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// ClickhouseConfig holds the analytics database settings.
type ClickhouseConfig struct {
	DSN string `yaml:"dsn"`
}

// RedisConfig holds the latest-price cache settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// TTLSeconds bounds how long a latest price stays served after the
	// pipeline stops updating it. Zero means no expiry.
	TTLSeconds int `yaml:"ttlSeconds"`
}

// KafkaConfig holds the aggregate broker settings.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// HTTPConfig holds the API server settings.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Config is the full configuration tree shared by the binaries.
type Config struct {
	Pricing    pricing.Config   `yaml:"pricing"`
	Weights    enrich.Weights   `yaml:"weights"`
	Replay     ReplayConfig     `yaml:"replay"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Clickhouse ClickhouseConfig `yaml:"clickhouse"`
	Redis      RedisConfig      `yaml:"redis"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	HTTP       HTTPConfig       `yaml:"http"`
	OutputDir  string           `yaml:"outputDir"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Pricing: pricing.DefaultConfig(),
		Weights: enrich.DefaultWeights(),
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Kafka: KafkaConfig{
			Topic: "parking.daily-aggregates",
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
		OutputDir: "output",
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_FILE (if set), then environment variables. Later sources win.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(ConfigFileEnv); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: decode yaml: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides individual settings from the environment.
func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv("POSTGRES_DSN"); ok {
		c.Postgres.DSN = v
	}
	if v, ok := os.LookupEnv("CLICKHOUSE_DSN"); ok {
		c.Clickhouse.DSN = v
	}
	if v, ok := os.LookupEnv("REDIS_ADDR"); ok {
		c.Redis.Addr = v
	}
	if v, ok := os.LookupEnv("REDIS_PASSWORD"); ok {
		c.Redis.Password = v
	}
	if v, ok := os.LookupEnv("REDIS_DB"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: parse REDIS_DB: %w", err)
		}
		c.Redis.DB = n
	}
	if v, ok := os.LookupEnv("KAFKA_BROKERS"); ok {
		c.Kafka.Brokers = splitList(v)
	}
	if v, ok := os.LookupEnv("KAFKA_TOPIC"); ok {
		c.Kafka.Topic = v
	}
	if v, ok := os.LookupEnv("HTTP_ADDR"); ok {
		c.HTTP.Addr = v
	}
	if v, ok := os.LookupEnv("OUTPUT_DIR"); ok {
		c.OutputDir = v
	}
	if v, ok := os.LookupEnv("REPLAY_RATE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: parse REPLAY_RATE: %w", err)
		}
		c.Replay.Rate = n
	}
	if v, ok := os.LookupEnv("BASE_PRICE"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config: parse BASE_PRICE: %w", err)
		}
		c.Pricing.BasePrice = f
	}
	return nil
}

// Validate checks settings individual components do not re-check.
func (c *Config) Validate() error {
	if c.Pricing.BasePrice <= 0 {
		return errors.New("config: pricing base price must be positive")
	}
	if c.Pricing.DemandMax < c.Pricing.DemandMin {
		return errors.New("config: demand max below demand min")
	}
	if c.Weights.Default <= 0 {
		return errors.New("config: default weight must be positive")
	}
	if c.Kafka.Topic == "" && len(c.Kafka.Brokers) > 0 {
		return errors.New("config: kafka topic required when brokers are set")
	}
	return nil
}

// RedisTTL returns the configured cache expiry as a duration.
func (c *Config) RedisTTL() time.Duration {
	if c.Redis.TTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Redis.TTLSeconds) * time.Second
}

// HTTPAddress normalizes the listen address to :port form.
func (c *Config) HTTPAddress() string {
	addr := strings.TrimSpace(c.HTTP.Addr)
	if addr == "" {
		return ":8080"
	}
	if !strings.Contains(addr, ":") {
		return ":" + addr
	}
	return addr
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
