package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"

	EventsRedis = "redis"
	EventsKafka = "kafka"
	EventsNone  = "none"
)

type Config struct {
	Port            string        `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	StaticDir       string        `yaml:"static_dir"`

	StoreDriver string `yaml:"store_driver"`

	MongoURI        string `yaml:"mongodb_uri"`
	MongoDatabase   string `yaml:"database"`
	MongoCollection string `yaml:"collection"`

	DatabaseHost     string `yaml:"postgres_host"`
	DatabasePort     string `yaml:"postgres_port"`
	DatabaseUser     string `yaml:"postgres_user"`
	DatabasePassword string `yaml:"postgres_password"`
	DatabaseName     string `yaml:"postgres_db"`

	RedisHost     string        `yaml:"redis_host"`
	RedisPort     string        `yaml:"redis_port"`
	RedisPassword string        `yaml:"redis_password"`
	CacheTTL      time.Duration `yaml:"cache_ttl"`

	EventsDriver  string   `yaml:"events_driver"`
	EventsChannel string   `yaml:"events_channel"`
	KafkaBrokers  []string `yaml:"kafka_brokers"`

	LogLevel     string `yaml:"log_level"`
	LogFile      string `yaml:"log_file"`
	OtelEndpoint string `yaml:"otel_endpoint"`
}

func defaults() *Config {
	return &Config{
		Port:            "8080",
		ShutdownTimeout: 10 * time.Second,
		StaticDir:       "static",
		StoreDriver:     StoreMongo,
		MongoDatabase:   "inventory",
		MongoCollection: "items",
		DatabasePort:    "5432",
		RedisHost:       "localhost",
		RedisPort:       "6379",
		CacheTTL:        300 * time.Second,
		EventsDriver:    EventsRedis,
		EventsChannel:   "inventory",
		LogLevel:        "info",
		LogFile:         "app.log",
	}
}

// Load starts from defaults, applies the YAML file named by CONFIG_PATH if
// set, then lets the environment override.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	setString(&cfg.Port, "PORT")
	if err := setSeconds(&cfg.ShutdownTimeout, "SHUTDOWN_TIMEOUT"); err != nil {
		return nil, err
	}
	setString(&cfg.StaticDir, "STATIC_DIR")
	setString(&cfg.StoreDriver, "STORE_DRIVER")
	setString(&cfg.MongoURI, "MONGODB_URI")
	setString(&cfg.MongoDatabase, "DATABASE")
	setString(&cfg.MongoCollection, "COLLECTION")
	setString(&cfg.DatabaseHost, "POSTGRES_HOST")
	setString(&cfg.DatabasePort, "POSTGRES_PORT")
	setString(&cfg.DatabaseUser, "POSTGRES_USER")
	setString(&cfg.DatabasePassword, "POSTGRES_PASSWORD")
	setString(&cfg.DatabaseName, "POSTGRES_DB")
	setString(&cfg.RedisHost, "REDIS_HOST")
	setString(&cfg.RedisPort, "REDIS_PORT")
	setString(&cfg.RedisPassword, "REDIS_PASSWORD")
	if err := setSeconds(&cfg.CacheTTL, "CACHE_TTL"); err != nil {
		return nil, err
	}
	setString(&cfg.EventsDriver, "EVENTS_DRIVER")
	setString(&cfg.EventsChannel, "EVENTS_CHANNEL")
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = splitList(v)
	}
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.LogFile, "LOG_FILE")
	setString(&cfg.OtelEndpoint, "OTEL_ENDPOINT")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StoreMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGODB_URI is required for store driver %q", c.StoreDriver)
		}
	case StorePostgres:
		if c.DatabaseHost == "" || c.DatabaseName == "" {
			return fmt.Errorf("POSTGRES_HOST and POSTGRES_DB are required for store driver %q", c.StoreDriver)
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}

	switch c.EventsDriver {
	case EventsRedis, EventsNone:
	case EventsKafka:
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required for events driver %q", c.EventsDriver)
		}
	default:
		return fmt.Errorf("unknown events driver %q", c.EventsDriver)
	}

	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache ttl must be positive, got %s", c.CacheTTL)
	}
	return nil
}

func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DatabaseUser,
		c.DatabasePassword,
		c.DatabaseHost,
		c.DatabasePort,
		c.DatabaseName,
	)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// setSeconds reads a whole number of seconds.
func setSeconds(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = time.Duration(n) * time.Second
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
