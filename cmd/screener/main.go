package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"xscreener/config"
	"xscreener/internal/screener"
	"xscreener/logger"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	// viper config
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	cfg.ResolveSecrets()

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := screener.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to start screener", zap.Error(err))
	}
	defer svc.Close()

	if err := svc.Run(ctx); err != nil {
		log.Error("screener stopped", zap.Error(err))
		return
	}
	log.Info("screener stopped")
}
