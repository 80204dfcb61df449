package tablestore

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// retryableCodes are service error codes worth a fixed-delay retry beyond the
// typed exceptions below.
var retryableCodes = map[string]bool{
	"ThrottlingException":    true,
	"RequestLimitExceeded":   true,
	"ServiceUnavailable":     true,
	"InternalServerError":    true,
	"LimitExceededException": true,
}

// isTransient reports whether err is a store failure that a retry may clear.
// Cancellation and conditional-check failures are never transient.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var throughput *types.ProvisionedThroughputExceededException
	var internal *types.InternalServerError
	if errors.As(err, &throughput) || errors.As(err, &internal) {
		return true
	}

	var conditional *types.ConditionalCheckFailedException
	if errors.As(err, &conditional) {
		return false
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return retryableCodes[apiErr.ErrorCode()]
	}
	return false
}

// withRetry runs fn under the configured execution timeout, retrying
// transient failures with a fixed delay up to MaxRetries extra attempts.
func withRetry(ctx context.Context, cfg StorageConfig, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.OpTimeout)
	defer cancel()

	var err error
	for attempt := 0; ; attempt++ {
		err = fn(ctx)
		if err == nil || !isTransient(err) || attempt >= cfg.MaxRetries {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cfg.RetryDelay):
		}
	}
}
