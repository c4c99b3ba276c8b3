package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ankon07/medvault-ai-sub000/common/logger"
	"github.com/ankon07/medvault-ai-sub000/internal/config"
	"github.com/ankon07/medvault-ai-sub000/internal/service"

	"go.uber.org/zap"
)

func main() {
	os.Exit(run())
}

// run starts the agent and returns the process exit code
func run() int {
	// 1. config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	// 2. logger
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "medvault-sync")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		return 1
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. service
	syncService, err := service.NewSyncService(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to create sync service", zap.Error(err))
		return 1
	}
	defer syncService.Stop()

	// "check" runs one missed-dose pass, for hosts that schedule the process themselves
	if len(os.Args) > 1 && os.Args[1] == "check" {
		result, err := syncService.CheckOnce(ctx)
		if err != nil {
			log.Error("Missed-dose check failed", zap.Error(err))
			return 1
		}
		if result != nil {
			log.Info("Missed-dose check finished",
				zap.String("profile_id", result.ProfileID),
				zap.Int("missed", len(result.Missed)),
				zap.Int("delivered", result.Delivered),
			)
		}
		return 0
	}

	// 4. run until signalled
	serviceErrChan := make(chan error, 1)
	go func() {
		if err := syncService.Start(ctx); err != nil {
			serviceErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	code := 0
	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	case err := <-serviceErrChan:
		log.Error("Service error", zap.Error(err))
		code = 1
	}

	log.Info("Sync service stopped")
	return code
}
