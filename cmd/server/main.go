package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	api "nftrental-backend/internal/api/grpc"
	httpapi "nftrental-backend/internal/api/http"
	"nftrental-backend/internal/app"
	"nftrental-backend/internal/config"
	"nftrental-backend/internal/logger"
	"nftrental-backend/internal/security"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// A missing .env file is fine; the environment may already be set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Failed to load .env: %v", err)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting NFT Rental Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "grpc_address", cfg.Server.GetServerAddress(), "http_address", cfg.Server.GetHTTPAddress())
	logger.Info("Rental policy", "fee_bps", cfg.Rental.FeeBasisPoints, "escrow_mode", cfg.Rental.EscrowMode, "ledger", cfg.Ledger.Type)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize application", "error", err)
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer a.Close()

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTTL())

	// Set up gRPC server
	handler := api.NewRentalHandler(a.Rental, a.Query, a.Reputation, a.Notifications)
	grpcServer, healthServer := api.NewServer(handler, tokenManager)

	lis, err := net.Listen("tcp", cfg.Server.GetServerAddress())
	if err != nil {
		logger.Error("Failed to listen", "error", err, "address", cfg.Server.GetServerAddress())
		log.Fatalf("Failed to listen: %v", err)
	}

	// Set up HTTP server for the read API, health and metrics
	router := httpapi.NewRouter(httpapi.NewHandler(a.Query, a.Reputation, a.Ready))
	httpServer := &http.Server{
		Addr:              cfg.Server.GetHTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("gRPC server listening", "address", cfg.Server.GetServerAddress())
		errCh <- grpcServer.Serve(lis)
	}()
	go func() {
		logger.Info("HTTP server listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		logger.Error("Server error", "error", err)
	}

	// Graceful shutdown
	healthServer.SetServingStatus(api.ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	grpcServer.GracefulStop()
	logger.Info("Server stopped. Goodbye!")
}
