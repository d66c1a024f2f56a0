package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/finsim/papertrade/internal/api"
	"github.com/finsim/papertrade/internal/auth"
	"github.com/finsim/papertrade/internal/config"
	"github.com/finsim/papertrade/internal/db"
	"github.com/finsim/papertrade/internal/events"
	"github.com/finsim/papertrade/internal/portfolio"
	"github.com/finsim/papertrade/internal/quotes"
	"github.com/finsim/papertrade/internal/trading"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Main entry point: wires config, database, quote provider, services,
// and the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// Initialize database connection
	database, err := db.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close(ctx)

	// Quote provider: live HTTP client, cached for view reads
	client := quotes.NewClient(cfg.QuoteAPIURL, cfg.QuoteAPIKey)
	var viewQuotes quotes.Provider = client
	if cfg.QuoteCacheTTL > 0 {
		cached, err := quotes.NewCache(client, cfg.QuoteCacheTTL)
		if err != nil {
			logger.Fatal("failed to create quote cache", zap.Error(err))
		}
		viewQuotes = cached
	}

	// Trade events are optional; nil publisher when no brokers configured
	publisher := events.NewPublisher(cfg.KafkaBrokers, "trade_executed")
	defer publisher.Close()

	// Initialize services. The executor always prices trades through the
	// uncached client.
	authService := auth.NewAuthService(database, cfg.JWTSecret, cfg.StartingCashAmount())
	executor := trading.NewExecutor(database, client, publisher, logger)
	aggregator := portfolio.NewAggregator(database, viewQuotes)

	// Initialize API handlers
	handler := api.NewHandler(database, aggregator, executor, viewQuotes, authService, logger)

	// Set up HTTP router
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(api.RequestLogger(logger))

	// Enable CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Public endpoints
	r.Post("/auth/register", handler.Register)
	r.Post("/auth/login", handler.Login)

	// Protected endpoints (require JWT)
	r.Group(func(r chi.Router) {
		r.Use(handler.JWTAuthMiddleware)
		r.Post("/auth/logout", handler.Logout)
		r.Get("/quote", handler.Quote)
		r.Post("/trades/buy", handler.Buy)
		r.Post("/trades/sell", handler.Sell)
		r.Get("/portfolio", handler.GetPortfolio)
		r.Get("/history", handler.GetHistory)
	})

	server := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Info("starting server", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	logger.Info("shutdown complete")
}
