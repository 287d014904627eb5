/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the teacher payroll server.
  Handles configuration, dependency wiring, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, PAYROLL_* environment), then apply flags
  2. Build the zap logger
  3. Initialize SQLite store
  4. Load the configured price sheet, if any, as definitions
  5. Create engine, handler and router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides PAYROLL_PORT)
  -db      SQLite database path (overrides PAYROLL_DB)
           Use ":memory:" for in-memory database
  -prices  JSON price sheet to load at startup (overrides PAYROLL_PRICES_FILE)
  -env     .env file to read (default: .env, ignored when missing)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database and system default prices
  ./server -db="./data/payroll.db" -prices="./prices.json"

  # Run with in-memory database
  ./server -db=":memory:"

SEE ALSO:
  - config/config.go: Configuration keys
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/warp/teacher-payroll/api"
	"github.com/warp/teacher-payroll/config"
	"github.com/warp/teacher-payroll/payroll"
	"github.com/warp/teacher-payroll/pricing"
	"github.com/warp/teacher-payroll/store/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Flags
	port := flag.Int("port", 0, "HTTP server port")
	dbPath := flag.String("db", "", "SQLite database path")
	pricesFile := flag.String("prices", "", "JSON price sheet loaded at startup")
	envFile := flag.String("env", ".env", "dotenv file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		return err
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = *port
		case "db":
			cfg.DB = *dbPath
		case "prices":
			cfg.PricesFile = *pricesFile
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Initialize store
	store, err := sqlite.New(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	engine := payroll.NewEngine(store, logger.Named("engine"))
	engine.Workers = cfg.Workers

	if cfg.PricesFile != "" {
		if err := loadPriceSheet(context.Background(), engine.Catalog, cfg.PricesFile); err != nil {
			return err
		}
		logger.Info("price sheet loaded", zap.String("file", cfg.PricesFile))
	}

	handler := api.NewHandler(engine, store, logger.Named("api"))
	router := api.NewRouter(handler, cfg.CORSOrigins)

	// Create server
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("addr", server.Addr),
			zap.String("db", cfg.DB),
			zap.Int("workers", cfg.Workers))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal or a listen failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// loadPriceSheet stores every definition of a JSON sheet.
func loadPriceSheet(ctx context.Context, catalog *pricing.Catalog, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open price sheet: %w", err)
	}
	defer f.Close()

	defs, err := pricing.ParseSheet(f)
	if err != nil {
		return err
	}
	for _, d := range defs {
		if err := catalog.SavePrice(ctx, d); err != nil {
			return fmt.Errorf("failed to save price %s: %w", d.Code, err)
		}
	}
	return nil
}
