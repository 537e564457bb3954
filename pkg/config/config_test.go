package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseAppliesDefaults(t *testing.T) {
	c, err := Parse([]byte("server:\n  port: 9090\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Server.Port != 9090 {
		t.Fatalf("port = %d", c.Server.Port)
	}
	if c.Server.ReadTimeout != 10*time.Second || c.Cache.TTL != 10*time.Minute {
		t.Fatalf("durations not defaulted: %v %v", c.Server.ReadTimeout, c.Cache.TTL)
	}
	if c.Cache.Backend != "memory" || c.Kafka.ReportTopic != "exovista.reports" || c.Kafka.RequiredAcks != -1 {
		t.Fatalf("unexpected defaults %+v", c)
	}
	if c.Cache.Redis.Prefix != "exovista:" || c.Kafka.Consumer.GroupID != "exovista-classifier" {
		t.Fatalf("nested defaults missing")
	}
	if c.Classifier.FixedSeed != nil {
		t.Fatalf("seed must stay unset")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad format", "logger:\n  format: xml\n", "logger.format"},
		{"bad backend", "cache:\n  backend: disk\n", "cache.backend"},
		{"kafka without brokers", "kafka:\n  enabled: true\n", "kafka.brokers"},
		{"port", "server:\n  port: 70000\n", "server.port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %s, got %v", tt.want, err)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"EXOVISTA_ENV":       "production",
		"EXOVISTA_PORT":      "9999",
		"EXOVISTA_LOG_LEVEL": "debug",
		"KAFKA_BROKERS":      "k1:9092,k2:9092",
		"REDIS_ADDR":         "redis:6379",
		"EXOVISTA_SEED":      "42",
	}
	c := &Config{}
	err := applyEnv(c, func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	if err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if c.Environment != "production" || c.Server.Port != 9999 || c.Logger.Level != "debug" {
		t.Fatalf("unexpected config %+v", c)
	}
	if !c.Kafka.Enabled || len(c.Kafka.Brokers) != 2 {
		t.Fatalf("kafka override missing: %+v", c.Kafka)
	}
	if c.Cache.Backend != "redis" || c.Cache.Redis.Addr != "redis:6379" {
		t.Fatalf("redis override missing")
	}
	if c.Classifier.FixedSeed == nil || *c.Classifier.FixedSeed != 42 {
		t.Fatalf("seed override missing")
	}

	if err := applyEnv(&Config{}, func(k string) (string, bool) {
		return "abc", k == "EXOVISTA_SEED"
	}); err == nil {
		t.Fatalf("expected bad seed error")
	}
}

func TestLoadSampleConfig(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "config", "config.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Kafka.Enabled || !c.Metrics.Enabled || !c.RateLimit.Enabled {
		t.Fatalf("unexpected sample config %+v", c)
	}
}

func TestLoadWithEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	if err := os.WriteFile(path, []byte("environment: test\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("EXOVISTA_PORT", "7070")
	c, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Server.Port != 7070 || c.Environment != "test" {
		t.Fatalf("unexpected config %+v", c.Server)
	}
}
