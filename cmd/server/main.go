/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the credit engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load environment config, parse command-line flags
  2. Initialize SQLite store
  3. Wire engine, notifier, and reminder sweeper
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides PORT)
  -db      SQLite database path (overrides DB_PATH)
           Use ":memory:" for an in-memory database

ENVIRONMENT:
  PORT, DB_PATH, LOG_LEVEL, SWEEP_SCHEDULE, SCHEDULER_ENABLED

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the sweep scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/credit.db"

  # Run with in-memory database
  ./server -db=":memory:"

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tradeflow/credit-engine/api"
	"github.com/tradeflow/credit-engine/config"
	"github.com/tradeflow/credit-engine/credit"
	"github.com/tradeflow/credit-engine/notify"
	"github.com/tradeflow/credit-engine/store/sqlite"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Flags override environment
	port := flag.String("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	// Initialize store
	st, err := sqlite.New(*dbPath)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}
	defer st.Close()

	// Wire the engine
	table := credit.DefaultTierTable()
	notifier := notify.NewLogNotifier(log)
	engine := credit.NewEngine(st, table, log, notifier)

	// Reminder sweeper
	sweeper := api.NewCycleSweeper(st, table, notifier, log)
	if cfg.SchedulerEnabled {
		if err := sweeper.Start(cfg.SweepSchedule); err != nil {
			log.WithError(err).Fatal("Failed to start sweep scheduler")
		}
		defer sweeper.Stop()
	}

	// Create router
	handler := api.NewHandler(engine, st, sweeper, log)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infof("Server starting on http://localhost:%s", *port)
		log.Infof("API available at http://localhost:%s/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("Server forced to shutdown")
	}

	log.Info("Server stopped")
}
