package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/suryasblaze/be-stock-recon/internal/client"
	"github.com/suryasblaze/be-stock-recon/internal/config"
	"github.com/suryasblaze/be-stock-recon/internal/database"
	"github.com/suryasblaze/be-stock-recon/internal/handler"
	"github.com/suryasblaze/be-stock-recon/internal/logger"
	"github.com/suryasblaze/be-stock-recon/internal/middleware"
	"github.com/suryasblaze/be-stock-recon/internal/repository"
	"github.com/suryasblaze/be-stock-recon/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:       os.Getenv("LOG_LEVEL"),
		Environment: cfg.Service.Environment,
		ServiceName: cfg.Service.Name,
		Version:     cfg.Service.Version,
	})

	log.Info().
		Str("service", cfg.Service.Name).
		Str("version", cfg.Service.Version).
		Str("environment", cfg.Service.Environment).
		Msg("Starting Stock Reconciliation Service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	db, err := database.New(ctx, database.Config{
		Host:        cfg.Database.Host,
		Port:        cfg.Database.Port,
		User:        cfg.Database.User,
		Password:    cfg.Database.Password,
		Database:    cfg.Database.Database,
		SSLMode:     cfg.Database.SSLMode,
		MaxConns:    cfg.Database.MaxConns,
		MinConns:    cfg.Database.MinConns,
		MaxConnTime: cfg.Database.MaxConnTime,
		MaxIdleTime: cfg.Database.MaxIdleTime,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("Database connection established")

	// Initialize repositories
	inventoryRepo := repository.NewInventoryRepository(db)
	adjustmentRepo := repository.NewAdjustmentRepository(db)
	urgentRepo := repository.NewUrgentPurchaseRepository(db)
	stockTakeRepo := repository.NewStockTakeRepository(db)

	// Notification publisher (optional; nil connection degrades to no-op)
	var natsConn *nats.Conn
	if cfg.NATS.URL != "" {
		natsConn, err = nats.Connect(cfg.NATS.URL,
			nats.MaxReconnects(-1),
			nats.ReconnectWait(2*time.Second),
		)
		if err != nil {
			log.Fatal().Err(err).Str("url", cfg.NATS.URL).Msg("Failed to connect to NATS")
		}
		defer natsConn.Close()
		log.Info().Str("url", cfg.NATS.URL).Msg("NATS connection established")
	} else {
		log.Warn().Msg("NATS_URL not set; notifications disabled")
	}
	notifier := client.NewNotificationPublisher(natsConn, log.Logger)

	// Object storage (optional)
	var storage client.ObjectStorage
	if cfg.Storage.Bucket != "" {
		gcs, err := client.NewGCSStorage(ctx, cfg.Storage.Bucket)
		if err != nil {
			log.Fatal().Err(err).Str("bucket", cfg.Storage.Bucket).Msg("Failed to create GCS storage client")
		}
		defer gcs.Close()
		storage = gcs
		log.Info().Str("bucket", cfg.Storage.Bucket).Msg("Object storage initialized")
	} else {
		log.Warn().Msg("GCS_BUCKET not set; document storage disabled")
	}

	// OCR / AI extractor client (optional)
	var extractor client.ExtractorClientInterface
	if cfg.Extractor.BaseURL != "" {
		extractor = client.NewExtractorClient(cfg.Extractor.BaseURL, cfg.Extractor.APIKey, cfg.Extractor.Timeout)
		log.Info().Str("url", cfg.Extractor.BaseURL).Msg("Extractor client initialized")
	} else {
		log.Warn().Msg("EXTRACTOR_URL not set; image extraction disabled")
	}

	// Initialize services
	stockService := service.NewStockService(inventoryRepo, log)
	adjustmentService := service.NewAdjustmentService(adjustmentRepo, inventoryRepo, notifier, log)
	urgentService := service.NewUrgentPurchaseService(urgentRepo, inventoryRepo, notifier, log)
	stockTakeService := service.NewStockTakeService(stockTakeRepo, inventoryRepo, notifier, log)
	documentService := service.NewDocumentService(extractor, storage, inventoryRepo, log)

	// Setup HTTP routes
	httpHandler := handler.NewHTTPHandler(stockService, adjustmentService, urgentService, stockTakeService, documentService, log)
	mux := http.NewServeMux()

	mux.HandleFunc("/health", httpHandler.Health)

	// Document routes. Processing waits on the extractor, so the route
	// carries its own bound instead of the blanket request timeout.
	processTimeout := cfg.Extractor.Timeout + 30*time.Second
	mux.HandleFunc("/api/v1/documents/parse", httpHandler.ParseDocument)
	mux.Handle("/api/v1/documents/process",
		middleware.Timeout(processTimeout)(http.HandlerFunc(httpHandler.ProcessDocument)))
	mux.HandleFunc("/api/v1/documents/url", httpHandler.DocumentURL)
	mux.HandleFunc("/api/v1/documents/match", httpHandler.MatchDescription)

	// Inventory routes
	mux.HandleFunc("/api/v1/items/get", httpHandler.GetItem)
	mux.HandleFunc("/api/v1/items/log", httpHandler.GetInventoryLog)
	mux.HandleFunc("/api/v1/stock/adjust", httpHandler.AdjustStock)
	mux.HandleFunc("/api/v1/stock/receive", httpHandler.ReceiveStock)

	// Adjustment request routes
	mux.HandleFunc("/api/v1/adjustments", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			httpHandler.ListAdjustments(w, r)
		case http.MethodPost:
			httpHandler.SubmitAdjustment(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/v1/adjustments/get", httpHandler.GetAdjustment)
	mux.HandleFunc("/api/v1/adjustments/review", httpHandler.ReviewAdjustment)
	mux.HandleFunc("/api/v1/adjustments/verify-token", httpHandler.VerifyApprovalToken)
	mux.HandleFunc("/api/v1/adjustments/review-by-token", httpHandler.ReviewAdjustmentByToken)

	// Urgent purchase routes
	mux.HandleFunc("/api/v1/urgent-purchases", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			httpHandler.ListUrgentPurchases(w, r)
		case http.MethodPost:
			httpHandler.CreateUrgentPurchase(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/v1/urgent-purchases/get", httpHandler.GetUrgentPurchase)
	mux.HandleFunc("/api/v1/urgent-purchases/lines", httpHandler.UpdateUrgentPurchaseLines)
	mux.HandleFunc("/api/v1/urgent-purchases/submit", httpHandler.SubmitUrgentPurchase)
	mux.HandleFunc("/api/v1/urgent-purchases/review", httpHandler.ReviewUrgentPurchase)

	// Stock take routes
	mux.HandleFunc("/api/v1/stock-takes", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			httpHandler.ListStockTakes(w, r)
		case http.MethodPost:
			httpHandler.RecordStockTake(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/v1/stock-takes/resolve", httpHandler.ResolveStockTake)

	// Apply middleware
	var h http.Handler = mux
	h = middleware.RequestID(h)
	h = middleware.Logger(&log.Logger)(h)
	h = middleware.Recovery(&log.Logger)(h)
	h = middleware.CORS([]string{"*"})(h)
	h = middleware.Timeout(30*time.Second, "/api/v1/documents/process")(h)

	// The write timeout must outlive the document-processing bound or the
	// server kills extraction mid-flight.
	writeTimeout := cfg.Server.WriteTimeout
	if writeTimeout < processTimeout {
		writeTimeout = processTimeout
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	log.Info().Msg("Server stopped")
}
