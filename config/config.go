// Package config loads the service configuration from a YAML file with
// environment-variable overrides, then validates it.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/nexusware/customer-order/tablestore"
)

// Config is the root of the service configuration.
type Config struct {
	Service   ServiceConf   `yaml:"service"`
	Logging   LoggingConf   `yaml:"logging"`
	Storage   StorageConf   `yaml:"storage"`
	Partition PartitionConf `yaml:"partition"`
	Tables    TablesConf    `yaml:"tables"`
	Redis     RedisConf     `yaml:"redis"`
	Metrics   MetricsConf   `yaml:"metrics"`
}

type ServiceConf struct {
	Name                   string `yaml:"name" env:"SERVICE_NAME" envDefault:"customer-order"`
	Port                   int    `yaml:"port" env:"SERVICE_PORT" envDefault:"8080" validate:"gt=0,lte=65535"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds" env:"SHUTDOWN_TIMEOUT_SECONDS" envDefault:"15" validate:"gt=0"`
}

type LoggingConf struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" envDefault:"info" validate:"oneof=trace debug info warn error"`
	Format string `yaml:"format" env:"LOG_FORMAT" envDefault:"json" validate:"oneof=json console"`
}

// StorageConf configures the table service connection shared by every table.
type StorageConf struct {
	Endpoint  string `yaml:"endpoint" env:"STORAGE_ENDPOINT"`
	Region    string `yaml:"region" env:"STORAGE_REGION" envDefault:"us-east-1"`
	AccessKey string `yaml:"access_key" env:"STORAGE_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"STORAGE_SECRET_KEY"`

	RetryDelayMs    int `yaml:"retry_delay_ms" env:"STORAGE_RETRY_DELAY_MS" envDefault:"500" validate:"gt=0"`
	MaxRetries      int `yaml:"max_retries" env:"STORAGE_MAX_RETRIES" envDefault:"3" validate:"gte=0"`
	TimeoutSeconds  int `yaml:"timeout_seconds" env:"STORAGE_TIMEOUT_SECONDS" envDefault:"30" validate:"gt=0"`
	ScanMaxParallel int `yaml:"scan_max_parallel" env:"STORAGE_SCAN_MAX_PARALLEL" envDefault:"4" validate:"gt=0"`
}

type PartitionConf struct {
	Count  int    `yaml:"count" env:"PARTITION_COUNT" envDefault:"100" validate:"gte=1,lte=1000"`
	Prefix string `yaml:"prefix" env:"PARTITION_PREFIX" envDefault:"ACC"`
}

type TablesConf struct {
	Accounts string `yaml:"accounts" env:"TABLE_ACCOUNTS" envDefault:"accounts"`
	Products string `yaml:"products" env:"TABLE_PRODUCTS" envDefault:"products"`
	Orders   string `yaml:"orders" env:"TABLE_ORDERS" envDefault:"orders"`
}

// RedisConf configures the optional product partition-hint cache. Leaving
// Addr empty disables it.
type RedisConf struct {
	Addr       string `yaml:"addr" env:"REDIS_ADDR"`
	Password   string `yaml:"password" env:"REDIS_PASSWORD"`
	DB         int    `yaml:"db" env:"REDIS_DB"`
	TTLSeconds int    `yaml:"ttl_seconds" env:"REDIS_TTL_SECONDS" envDefault:"300" validate:"gt=0"`
}

// MetricsConf configures the statsd sink. Leaving Addr empty disables
// emission.
type MetricsConf struct {
	Addr      string `yaml:"addr" env:"DD_AGENT_HOST"`
	Namespace string `yaml:"namespace" env:"DD_NAMESPACE" envDefault:"customer_order."`
}

// Load reads path (when non-empty and present), applies environment
// overrides and defaults, and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := loadEnv(cfg); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	err := validator.New().Struct(cfg)
	if err == nil {
		return nil
	}
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		var msgs []string
		for _, e := range validationErrors {
			msgs = append(msgs, fmt.Sprintf("field %s failed rule %s", e.Namespace(), e.Tag()))
		}
		return fmt.Errorf("config: validation failed:\n- %s", strings.Join(msgs, "\n- "))
	}
	return fmt.Errorf("config: validation failed: %w", err)
}

// StorageConfig assembles the per-table storage configuration.
func (c *Config) StorageConfig(tableName string) tablestore.StorageConfig {
	return tablestore.StorageConfig{
		Endpoint:   c.Storage.Endpoint,
		Region:     c.Storage.Region,
		AccessKey:  c.Storage.AccessKey,
		SecretKey:  c.Storage.SecretKey,
		TableName:  tableName,
		RetryDelay: time.Duration(c.Storage.RetryDelayMs) * time.Millisecond,
		MaxRetries: c.Storage.MaxRetries,
		OpTimeout:  time.Duration(c.Storage.TimeoutSeconds) * time.Second,
	}
}

// ShutdownTimeout returns the graceful-shutdown grace period.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Service.ShutdownTimeoutSeconds) * time.Second
}

// RedisTTL returns the partition-hint cache entry lifetime.
func (c *Config) RedisTTL() time.Duration {
	return time.Duration(c.Redis.TTLSeconds) * time.Second
}
