package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	Name            string        `yaml:"name"`
	Port            string        `yaml:"port"`
	Env             string        `yaml:"env"`
	LogLevel        string        `yaml:"log_level"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	DBName          string        `yaml:"dbname"`
	SSLMode         string        `yaml:"sslmode"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MigrateOnStart  bool          `yaml:"migrate_on_start"`
}

// DSN returns the keyword/value connection string understood by pgx.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	MenuCacheTTL time.Duration `yaml:"menu_cache_ttl"`
	SessionTTL   time.Duration `yaml:"session_ttl"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type RabbitMQConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

type POSConfig struct {
	TaxRate              float64  `yaml:"tax_rate"`
	LoyaltyPointsPerUnit int64    `yaml:"loyalty_points_per_unit"`
	ReceiptBaseURL       string   `yaml:"receipt_base_url"`
	CORSOrigins          []string `yaml:"cors_origins"`
}

type Config struct {
	App      AppConfig      `yaml:"app"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	POS      POSConfig      `yaml:"pos"`
}

// NewConfig loads configuration from an optional .env file, an optional YAML
// file named by CONFIG_PATH and the process environment, in that order of
// increasing precedence.
func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	return Load(os.Getenv("CONFIG_PATH"))
}

// Load builds the configuration from defaults, the YAML file at path (if any)
// and environment overrides.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{}

	cfg.App.Name = "pos-service"
	cfg.App.Port = "8080"
	cfg.App.Env = "development"
	cfg.App.LogLevel = "info"
	cfg.App.ShutdownTimeout = 15 * time.Second

	cfg.Postgres.Port = "5432"
	cfg.Postgres.SSLMode = "disable"
	cfg.Postgres.MaxConns = 10
	cfg.Postgres.MinConns = 2
	cfg.Postgres.MaxConnLifetime = 30 * time.Minute
	cfg.Postgres.MigrateOnStart = true

	cfg.Redis.MenuCacheTTL = 5 * time.Minute
	cfg.Redis.SessionTTL = 12 * time.Hour

	cfg.Kafka.Topic = "pos.order-events"
	cfg.RabbitMQ.Exchange = "kitchen_topic"

	cfg.POS.TaxRate = 0.08
	cfg.POS.LoyaltyPointsPerUnit = 1
	cfg.POS.ReceiptBaseURL = "http://localhost:8080"

	return cfg
}

func applyEnv(cfg *Config) error {
	setString(&cfg.App.Name, "APP_NAME")
	setString(&cfg.App.Port, "APP_PORT")
	setString(&cfg.App.Env, "APP_ENV")
	setString(&cfg.App.LogLevel, "LOG_LEVEL")

	setString(&cfg.Postgres.Host, "DB_HOST")
	setString(&cfg.Postgres.Port, "DB_PORT")
	setString(&cfg.Postgres.User, "DB_USER")
	setString(&cfg.Postgres.Password, "DB_PASSWORD")
	setString(&cfg.Postgres.DBName, "DB_NAME")
	setString(&cfg.Postgres.SSLMode, "DB_SSLMODE")

	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}
	setString(&cfg.Kafka.Topic, "KAFKA_TOPIC")

	setString(&cfg.RabbitMQ.URL, "RABBITMQ_URL")
	setString(&cfg.RabbitMQ.Exchange, "RABBITMQ_EXCHANGE")

	setString(&cfg.POS.ReceiptBaseURL, "RECEIPT_BASE_URL")
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.POS.CORSOrigins = splitList(v)
	}

	var errs []error
	errs = append(errs,
		setDuration(&cfg.App.ShutdownTimeout, "SHUTDOWN_TIMEOUT"),
		setInt32(&cfg.Postgres.MaxConns, "DB_MAX_CONNS"),
		setInt32(&cfg.Postgres.MinConns, "DB_MIN_CONNS"),
		setDuration(&cfg.Postgres.MaxConnLifetime, "DB_MAX_CONN_LIFETIME"),
		setBool(&cfg.Postgres.MigrateOnStart, "DB_MIGRATE_ON_START"),
		setInt(&cfg.Redis.DB, "REDIS_DB"),
		setDuration(&cfg.Redis.MenuCacheTTL, "MENU_CACHE_TTL"),
		setDuration(&cfg.Redis.SessionTTL, "SESSION_TTL"),
		setFloat(&cfg.POS.TaxRate, "TAX_RATE"),
		setInt64(&cfg.POS.LoyaltyPointsPerUnit, "LOYALTY_POINTS_PER_UNIT"),
	)

	return errors.Join(errs...)
}

// Validate reports missing required settings and out-of-range values.
func (c *Config) Validate() error {
	var errs []error

	if c.Postgres.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.Postgres.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.Postgres.DBName == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if c.App.Port == "" {
		errs = append(errs, errors.New("APP_PORT must not be empty"))
	}
	if c.POS.TaxRate < 0 || c.POS.TaxRate >= 1 {
		errs = append(errs, fmt.Errorf("TAX_RATE must be in [0, 1), got %v", c.POS.TaxRate))
	}
	if c.POS.LoyaltyPointsPerUnit < 0 {
		errs = append(errs, errors.New("LOYALTY_POINTS_PER_UNIT cannot be negative"))
	}
	if c.Postgres.MinConns > c.Postgres.MaxConns {
		errs = append(errs, errors.New("DB_MIN_CONNS cannot exceed DB_MAX_CONNS"))
	}

	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: invalid integer %q", key, v)
	}
	*dst = n
	return nil
}

func setInt32(dst *int32, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		return fmt.Errorf("%s: invalid integer %q", key, v)
	}
	*dst = int32(n)
	return nil
}

func setInt64(dst *int64, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("%s: invalid integer %q", key, v)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: invalid number %q", key, v)
	}
	*dst = f
	return nil
}

func setBool(dst *bool, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: invalid boolean %q", key, v)
	}
	*dst = b
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q", key, v)
	}
	*dst = d
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
