package tablestore

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

var (
	connMu sync.Mutex
	conn   *dynamodb.Client
)

// Connect returns the process-wide table-service connection, dialing it on
// first use. All tables share one connection; concurrent first calls are
// safe and only one client is ever built.
func Connect(ctx context.Context, cfg StorageConfig) (*dynamodb.Client, error) {
	connMu.Lock()
	defer connMu.Unlock()

	if conn != nil {
		return conn, nil
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("tablestore: load aws config: %w", err)
	}

	conn = dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		// The client layers its own fixed-delay policy on top, so the SDK
		// retryer is left at a single attempt.
		o.RetryMaxAttempts = 1
	})
	return conn, nil
}

// Disconnect drops the process-wide connection. The next Connect dials again.
func Disconnect() {
	connMu.Lock()
	defer connMu.Unlock()
	conn = nil
}
