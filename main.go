package main

import (
	"log"

	"go.uber.org/zap"

	"github.com/tokenarena/poker/domain"
	"github.com/tokenarena/poker/server"
	"github.com/tokenarena/poker/snapshot"
)

func main() {
	cfg := server.LoadConfig()

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	registry := domain.NewRegistry(cfg.Rules(), logger)
	ledger := domain.NewMemoryLedger(cfg.OpeningBalance)

	store, err := newSnapshotStore(cfg, logger)
	if err != nil {
		logger.Fatal("failed to create snapshot store", zap.Error(err))
	}
	recorder := snapshot.NewRecorder(registry, store, logger)
	recorder.Attach()

	srv := server.NewServer(cfg, registry, ledger, logger)
	if err := srv.Start(cfg.Port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func newSnapshotStore(cfg server.Config, logger *zap.Logger) (snapshot.Store, error) {
	if cfg.RedisAddr == "" {
		logger.Info("using in-memory snapshot store")
		return snapshot.NewMemoryStore(), nil
	}

	logger.Info("using redis snapshot store", zap.String("addr", cfg.RedisAddr))
	return snapshot.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
}
