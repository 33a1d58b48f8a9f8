package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/mediaget-go/api"
	"github.com/yourusername/mediaget-go/internal/app"
	"github.com/yourusername/mediaget-go/pkg/logger"
)

// Version is set at build time
var Version = "dev"

var configPath = flag.String("config", "", "Config file path")

func main() {
	flag.Parse()

	if err := runServer(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func runServer() error {
	config, err := app.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	// Transfer outcomes also go to the dated category files
	if config.Logging.LogsDir != "" {
		multiLog, err := logger.NewMultiLogger(config.Logging.LogsDir, config.Logging.Level)
		if err != nil {
			return fmt.Errorf("failed to initialize category logs: %w", err)
		}
		defer multiLog.Close()
		log = multiLog.Tee(log, logger.CategoryTransfer, logger.CategoryError)
	}

	log.Info("Starting mediaget server",
		zap.String("version", Version),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.Bool("history", config.History.Enabled),
		zap.String("resume_from", config.Transfer.ResumeFrom))

	// Progress lines are meaningless without a terminal
	engine, err := app.NewEngine(config, log, app.EngineOptions{Progress: io.Discard})
	if err != nil {
		return err
	}
	defer engine.Close()

	router := api.SetupRouter(api.RouterConfig{
		Manager:  engine.Manager,
		Template: engine.Template,
		Logger:   log,
		LogsDir:  config.Logging.LogsDir,
		Version:  Version,
	})

	// Cancelled once the graceful shutdown gives up, so running transfers stop
	baseCtx, cancelTransfers := context.WithCancel(context.Background())
	defer cancelTransfers()

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:        addr,
		Handler:     router,
		BaseContext: func(net.Listener) context.Context { return baseCtx },
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-serverErr:
		return fmt.Errorf("failed to start server: %w", err)
	}

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		cancelTransfers()
		server.Close()
	}

	log.Info("Server exited")
	return nil
}
