package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(ConfigFileEnv, "")
	os.Unsetenv(ConfigFileEnv)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Pricing.BasePrice != 10.0 {
		t.Errorf("expected base price 10.0, got %f", cfg.Pricing.BasePrice)
	}
	if cfg.Weights.VehicleWeight("truck") != 1.5 {
		t.Errorf("expected default truck weight 1.5, got %f", cfg.Weights.VehicleWeight("truck"))
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("expected default http addr :8080, got %s", cfg.HTTP.Addr)
	}
	if cfg.Kafka.Topic != "parking.daily-aggregates" {
		t.Errorf("expected default kafka topic, got %s", cfg.Kafka.Topic)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	content := `
pricing:
  base_price: 25.0
  demand_max: 1.5
weights:
  vehicle:
    car: 2.0
  default: 1.0
replay:
  rate: 100
redis:
  addr: redis:6379
  ttlSeconds: 120
kafka:
  brokers: [broker-1:9092, broker-2:9092]
  topic: pricing.windows
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigFileEnv, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Pricing.BasePrice != 25.0 {
		t.Errorf("expected base price 25.0, got %f", cfg.Pricing.BasePrice)
	}
	if cfg.Pricing.DemandMax != 1.5 {
		t.Errorf("expected demand max 1.5, got %f", cfg.Pricing.DemandMax)
	}
	if cfg.Weights.VehicleWeight("car") != 2.0 {
		t.Errorf("expected car weight 2.0, got %f", cfg.Weights.VehicleWeight("car"))
	}
	if cfg.Replay.Rate != 100 {
		t.Errorf("expected replay rate 100, got %d", cfg.Replay.Rate)
	}
	if cfg.RedisTTL() != 2*time.Minute {
		t.Errorf("expected redis ttl 2m, got %v", cfg.RedisTTL())
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Topic != "pricing.windows" {
		t.Errorf("kafka config not applied: %+v", cfg.Kafka)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	content := "postgres:\n  dsn: postgres://from-file\nredis:\n  addr: from-file:6379\n"
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigFileEnv, path)
	t.Setenv("POSTGRES_DSN", "postgres://from-env")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092")
	t.Setenv("REPLAY_RATE", "50")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Postgres.DSN != "postgres://from-env" {
		t.Errorf("env must win over file, got %s", cfg.Postgres.DSN)
	}
	if cfg.Redis.Addr != "from-file:6379" {
		t.Errorf("file value must survive without env override, got %s", cfg.Redis.Addr)
	}
	if cfg.Redis.DB != 3 {
		t.Errorf("expected redis db 3, got %d", cfg.Redis.DB)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "b:9092" {
		t.Errorf("broker list not parsed: %v", cfg.Kafka.Brokers)
	}
	if cfg.Replay.Rate != 50 {
		t.Errorf("expected replay rate 50, got %d", cfg.Replay.Rate)
	}
}

func TestLoad_InvalidEnvValue(t *testing.T) {
	os.Unsetenv(ConfigFileEnv)
	t.Setenv("REDIS_DB", "not-a-number")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid REDIS_DB")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}

	bad := Default()
	bad.Pricing.BasePrice = 0
	if err := bad.Validate(); err == nil {
		t.Error("expected error for zero base price")
	}

	bad = Default()
	bad.Pricing.DemandMax = -1
	if err := bad.Validate(); err == nil {
		t.Error("expected error for demand max below min")
	}

	bad = Default()
	bad.Kafka.Brokers = []string{"a:9092"}
	bad.Kafka.Topic = ""
	if err := bad.Validate(); err == nil {
		t.Error("expected error for brokers without topic")
	}
}

func TestHTTPAddress(t *testing.T) {
	cases := []struct {
		addr string
		want string
	}{
		{"", ":8080"},
		{"9000", ":9000"},
		{":9000", ":9000"},
		{"0.0.0.0:9000", "0.0.0.0:9000"},
	}
	for _, c := range cases {
		cfg := Default()
		cfg.HTTP.Addr = c.addr
		if got := cfg.HTTPAddress(); got != c.want {
			t.Errorf("addr %q: expected %q, got %q", c.addr, c.want, got)
		}
	}
}
