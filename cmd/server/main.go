package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/duffiwer/ledger-service/internal/api"
	"github.com/duffiwer/ledger-service/internal/config"
	"github.com/duffiwer/ledger-service/internal/events/kafka"
	"github.com/duffiwer/ledger-service/internal/interfaces"
	"github.com/duffiwer/ledger-service/internal/ledger"
	"github.com/duffiwer/ledger-service/internal/storage/memory"
	"github.com/duffiwer/ledger-service/internal/storage/postgres"
)

func main() {
	cfg := config.Load()

	logger := newLogger(cfg.Env)
	defer func() { _ = logger.Sync() }()

	var (
		registry interfaces.AccountRegistry
		txlog    interfaces.TransactionLog
		users    interfaces.UserDirectory
	)
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("postgres connection failed", zap.Error(err))
		}
		defer db.Close()

		registry = postgres.NewAccountRegistry(db)
		txlog = postgres.NewTransactionLog(db)
		users = postgres.NewUserDirectory(db)
		logger.Info("using postgres storage")
	} else {
		registry = memory.NewAccountRegistry()
		txlog = memory.NewTransactionLog()
		users = memory.NewUserDirectory()
		logger.Info("using in-memory storage")
	}

	var publisher interfaces.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kp := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kp.Close()
		publisher = kp
		logger.Info("kafka publisher enabled",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.KafkaTopic))
	}

	engine := ledger.NewEngine(registry, txlog, users, publisher, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api.NewServer(engine, logger).Router(),
	}

	go func() {
		logger.Info("ledger service listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}

func newLogger(env string) *zap.Logger {
	if env == "development" {
		logger, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		return logger
	}
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	return logger
}
