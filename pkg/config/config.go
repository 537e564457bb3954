package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string           `yaml:"environment" default:"development"`
	Server      ServerConfig     `yaml:"server"`
	Metrics     MetricsConfig    `yaml:"metrics"`
	Logger      LoggerConfig     `yaml:"logger"`
	Classifier  ClassifierConfig `yaml:"classifier"`
	RateLimit   RateLimitConfig  `yaml:"ratelimit"`
	Cache       CacheConfig      `yaml:"cache"`
	Kafka       KafkaConfig      `yaml:"kafka"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            int           `yaml:"port" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	StreamPing      time.Duration `yaml:"stream_ping_interval" default:"30s"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path" default:"/metrics"`
}

type LoggerConfig struct {
	Level      string `yaml:"level" default:"info"`
	Format     string `yaml:"format" default:"json"`
	Output     string `yaml:"output" default:"stdout"`
	TimeFormat string `yaml:"time_format"`
	// Errors are aggregated and shipped to kafka.log_topic when kafka is enabled.
	CollectInterval  time.Duration `yaml:"collect_interval" default:"30s"`
	CollectThreshold int           `yaml:"collect_threshold" default:"100"`
}

type ClassifierConfig struct {
	FixedSeed      *uint64 `yaml:"fixed_seed"`
	BatchWorkers   int     `yaml:"batch_workers" default:"4"`
	MaxBatchRows   int     `yaml:"max_batch_rows" default:"10000"`
	MaxUploadBytes int64   `yaml:"max_upload_bytes" default:"10485760"`
}

type RateLimitConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Capacity     float64 `yaml:"capacity" default:"20"`
	RefillPerSec float64 `yaml:"refill_per_sec" default:"5"`
}

type CacheConfig struct {
	Backend string        `yaml:"backend" default:"memory"` // memory | redis | none
	TTL     time.Duration `yaml:"ttl" default:"10m"`
	Redis   struct {
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"exovista:"`
		PoolSize int    `yaml:"pool_size" default:"10"`
	} `yaml:"redis"`
}

type KafkaConfig struct {
	Enabled          bool     `yaml:"enabled"`
	Brokers          []string `yaml:"brokers"`
	ObservationTopic string   `yaml:"observation_topic" default:"exovista.observations"`
	ReportTopic      string   `yaml:"report_topic" default:"exovista.reports"`
	LogTopic         string   `yaml:"log_topic" default:"exovista.logs"`
	RequiredAcks     int      `yaml:"required_acks" default:"-1"`
	Compression      string   `yaml:"compression" default:"snappy"`
	Producer         struct {
		MaxAttempts  int           `yaml:"max_attempts" default:"5"`
		Linger       time.Duration `yaml:"linger" default:"20ms"`
		BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
		BatchSize    int           `yaml:"batch_size" default:"100"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		Async        bool          `yaml:"async"`
	} `yaml:"producer"`
	Consumer struct {
		Enabled     bool          `yaml:"enabled"`
		GroupID     string        `yaml:"group_id" default:"exovista-classifier"`
		StartOffset string        `yaml:"start_offset" default:"earliest"`
		Workers     int           `yaml:"workers" default:"4"`
		BufferSize  int           `yaml:"buffer_size" default:"256"`
		RetryMax    int           `yaml:"retry_max" default:"3"`
		BackoffMin  time.Duration `yaml:"backoff_min" default:"100ms"`
		BackoffMax  time.Duration `yaml:"backoff_max" default:"5s"`
		DLQTopic    string        `yaml:"dlq_topic" default:"exovista.observations.dlq"`
		MinBytes    int           `yaml:"min_bytes" default:"1"`
		MaxBytes    int           `yaml:"max_bytes" default:"10485760"`
	} `yaml:"consumer"`
}

// Load reads and parses a YAML configuration file. Defaults fill what the file leaves out.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML, applies defaults and validates.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return finish(&c)
}

// Default returns a valid configuration without reading any file.
func Default() *Config {
	c, _ := finish(&Config{})
	return c
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := applyEnv(&c, os.LookupEnv); err != nil {
		return nil, err
	}
	return finish(&c)
}

func finish(c *Config) (*Config, error) {
	if err := defaults.Set(c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func applyEnv(c *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup("EXOVISTA_ENV"); ok && v != "" {
		c.Environment = v
	}
	if v, ok := lookup("EXOVISTA_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("EXOVISTA_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v, ok := lookup("EXOVISTA_LOG_LEVEL"); ok && v != "" {
		c.Logger.Level = v
	}
	if v, ok := lookup("KAFKA_BROKERS"); ok && v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v, ok := lookup("REDIS_ADDR"); ok && v != "" {
		c.Cache.Redis.Addr = v
		c.Cache.Backend = "redis"
	}
	if v, ok := lookup("EXOVISTA_SEED"); ok && v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("EXOVISTA_SEED: %w", err)
		}
		c.Classifier.FixedSeed = &seed
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	switch c.Logger.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logger.format must be 'json' or 'console', got '%s'", c.Logger.Format))
	}
	switch c.Cache.Backend {
	case "memory", "redis", "none":
	default:
		errs = append(errs, fmt.Errorf("cache.backend must be 'memory', 'redis' or 'none', got '%s'", c.Cache.Backend))
	}
	if c.Cache.Backend == "redis" && c.Cache.Redis.Addr == "" {
		errs = append(errs, errors.New("cache.redis.addr is required for the redis backend"))
	}
	if c.Classifier.BatchWorkers <= 0 {
		errs = append(errs, errors.New("classifier.batch_workers must be positive"))
	}
	if c.RateLimit.Enabled && (c.RateLimit.Capacity < 1 || c.RateLimit.RefillPerSec <= 0) {
		errs = append(errs, errors.New("ratelimit needs capacity >= 1 and refill_per_sec > 0"))
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("kafka.brokers cannot be empty when kafka is enabled"))
		}
		if c.Kafka.ReportTopic == "" {
			errs = append(errs, errors.New("kafka.report_topic is required"))
		}
	}
	return errors.Join(errs...)
}
