package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"second-brain-client/internal/bootstrap"
	"second-brain-client/internal/config"
	"second-brain-client/internal/pkg/logger"
	"second-brain-client/internal/server"
	"second-brain-client/internal/tracer"
)

func main() {
	os.Exit(run())
}

func run() int {
	// 1. Load Configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Printf("Invalid configuration: %v", err)
		return 1
	}

	// 2. Logger and tracing
	zapLog := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	defer zapLog.Sync()

	shutdownTracer := tracer.InitTracer("second-brain-devserver", cfg.App.OtelEnabled, cfg.App.OtelEndpoint, zapLog)
	defer shutdownTracer(context.Background())

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewDevContainer(cfg, zapLog)

	// 4. Initialize Server
	srv := server.New(cfg, container, zapLog)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		zapLog.Info("Server", "Shutting down", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zapLog.Error("Server", "Shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	// 5. Run Server
	if err := srv.Run(); err != nil {
		zapLog.Error("Server", "Server stopped", map[string]interface{}{"error": err.Error()})
		return 1
	}
	return 0
}
