package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/nexusware/customer-order/accounts"
	"github.com/nexusware/customer-order/api"
	"github.com/nexusware/customer-order/catalog"
	"github.com/nexusware/customer-order/config"
	"github.com/nexusware/customer-order/logging"
	"github.com/nexusware/customer-order/metrics"
	"github.com/nexusware/customer-order/orders"
	"github.com/nexusware/customer-order/partition"
	"github.com/nexusware/customer-order/tablestore"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Getenv("CONFIG_PATH")); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}

func run(ctx context.Context, cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	logger := logging.Configure(cfg.Logging, cfg.Service.Name)

	rec, err := metrics.New(cfg.Metrics.Addr, cfg.Metrics.Namespace)
	if err != nil {
		return err
	}
	defer rec.Close()

	conn, err := tablestore.Connect(ctx, cfg.StorageConfig(""))
	if err != nil {
		return err
	}
	defer tablestore.Disconnect()

	accountsTable, err := tablestore.NewDynamoClient[accounts.Entity](
		conn, cfg.StorageConfig(cfg.Tables.Accounts), logger, tablestore.WithRecorder(rec))
	if err != nil {
		return err
	}
	productsTable, err := tablestore.NewDynamoClient[catalog.Entity](
		conn, cfg.StorageConfig(cfg.Tables.Products), logger, tablestore.WithRecorder(rec))
	if err != nil {
		return err
	}
	ordersTable, err := tablestore.NewDynamoClient[orders.Entity](
		conn, cfg.StorageConfig(cfg.Tables.Orders), logger, tablestore.WithRecorder(rec))
	if err != nil {
		return err
	}

	strategy, err := partition.NewHashStrategy(cfg.Partition.Prefix, cfg.Partition.Count)
	if err != nil {
		return err
	}

	accountsRepo := accounts.NewRepository(accountsTable, strategy, logger, cfg.Storage.ScanMaxParallel)

	var catalogOpts []catalog.RepositoryOption
	if cfg.Redis.Addr != "" {
		cache := catalog.NewRedisHintCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.RedisTTL(), logger)
		defer cache.Close()
		catalogOpts = append(catalogOpts, catalog.WithHintCache(cache))
	}
	catalogRepo := catalog.NewRepository(productsTable, logger, catalogOpts...)

	ordersRepo := orders.NewRepository(ordersTable, logger)

	server := api.NewServer(accountsRepo, catalogRepo, ordersRepo, logger)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Service.Port),
		Handler: server.Router(rec),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Int("port", cfg.Service.Port).Msg("http server listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
