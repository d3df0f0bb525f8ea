package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/anphuc-nienso/internal/app"
	"github.com/joseph-ayodele/anphuc-nienso/internal/async"
	"github.com/joseph-ayodele/anphuc-nienso/internal/common"
	"github.com/joseph-ayodele/anphuc-nienso/internal/ingest"
	"github.com/joseph-ayodele/anphuc-nienso/internal/server"
)

func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err, "driver", cfg.Database.Driver)
		os.Exit(1)
	}
	defer a.Close()
	logger.Info("database ready", "driver", a.DB.Dialect())

	httpServer, err := server.New(server.ConfigFrom(cfg), a.Services(), logger)
	if err != nil {
		logger.Error("failed to build http server", "error", err)
		os.Exit(1)
	}

	// gRPC carries only health and reflection, for orchestrators and grpcurl.
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	var wg sync.WaitGroup
	if cfg.Inbox.Dir != "" {
		queue := async.NewWorkerQueue(a.Ingestor.Handle, logger,
			async.WithWorkers(cfg.Inbox.Workers),
			async.WithQueueSize(cfg.Inbox.QueueSize),
			async.WithProcessTimeout(cfg.OCR.Timeout+30*time.Second),
		)
		inbox := ingest.NewInbox(ingest.WatchConfig{
			Roots:       []string{cfg.Inbox.Dir},
			InitialScan: cfg.Inbox.InitialScan,
			Debounce:    cfg.Inbox.Debounce,
		}, queue, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := inbox.Run(ctx); err != nil {
				logger.Error("inbox stopped", "dir", cfg.Inbox.Dir, "error", err)
			}
		}()
	}

	go func() {
		logger.Info("grpc health listening", "addr", cfg.Server.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC serve error", "error", err)
			stop()
		}
	}()
	go func() {
		logger.Info("anphucd listening", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	wg.Wait()
	grpcServer.GracefulStop()
	logger.Info("stopped")
}
