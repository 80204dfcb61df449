package tablestore

import (
	"fmt"
	"time"
)

// Defaults applied by StorageConfig.withDefaults.
const (
	DefaultRetryDelay = 500 * time.Millisecond
	DefaultMaxRetries = 3
	DefaultOpTimeout  = 30 * time.Second
)

// StorageConfig configures access to one table of the table service.
//
// Endpoint overrides the service endpoint, which is how local emulators are
// reached; when empty the SDK default resolution applies.
type StorageConfig struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string

	TableName string

	// RetryDelay is the fixed wait between retry attempts of a failed call.
	RetryDelay time.Duration
	// MaxRetries is the number of additional attempts after the first.
	MaxRetries int
	// OpTimeout bounds a single logical operation, retries included.
	OpTimeout time.Duration
}

func (c StorageConfig) withDefaults() StorageConfig {
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.OpTimeout <= 0 {
		c.OpTimeout = DefaultOpTimeout
	}
	return c
}

func (c StorageConfig) validate() error {
	if c.TableName == "" {
		return fmt.Errorf("%w: table name is required", ErrInvalidConfig)
	}
	return nil
}
