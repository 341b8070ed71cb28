package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/warp/attendance-engine/api"
	"github.com/warp/attendance-engine/config"
	"github.com/warp/attendance-engine/factory"
	"github.com/warp/attendance-engine/logging"
	"github.com/warp/attendance-engine/metrics"
	"github.com/warp/attendance-engine/store"
	"github.com/warp/attendance-engine/store/memory"
	"github.com/warp/attendance-engine/store/sqlite"
)

var (
	servePort     int
	serveDBPath   string
	serveLogLevel string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP server port (overrides PORT)")
	serveCmd.Flags().StringVar(&serveDBPath, "db", "", "SQLite database path (overrides DB_PATH)")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}
	if serveDBPath != "" {
		cfg.DBPath = serveDBPath
	}
	if serveLogLevel != "" {
		cfg.LogLevel = serveLogLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := logging.Init(logging.Config{Level: cfg.LogLevel, File: cfg.LogFile, JSON: cfg.LogJSON}); err != nil {
		return err
	}
	log := logrus.StandardLogger()

	// Initialize store
	st, closeStore, err := openStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer closeStore()

	ctx := context.Background()
	if err := seedCatalog(ctx, st, cfg.CatalogFile, log); err != nil {
		return err
	}

	var (
		collector *metrics.Collector
		gatherer  prometheus.Gatherer
	)
	if cfg.MetricsEnabled {
		collector = metrics.NewCollector(prometheus.DefaultRegisterer)
		gatherer = prometheus.DefaultGatherer
	}

	// Initialize handler
	handler := api.NewHandler(st, collector, log)
	handler.Location = cfg.Location()
	if cfg.SettingsFile != "" {
		defaults, err := loadSettingsFile(cfg.SettingsFile)
		if err != nil {
			return err
		}
		handler.DefaultSettings = defaults
	}

	scheduler := api.NewReviewScheduler(st, collector, log)
	scheduler.Location = cfg.Location()
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.NewRouter(handler, gatherer),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"port":     cfg.Port,
			"db":       cfg.DBPath,
			"timezone": cfg.Timezone,
			"metrics":  cfg.MetricsEnabled,
		}).Info("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}

func openStore(path string) (store.Store, func(), error) {
	if path == "memory" {
		return memory.New(), func() {}, nil
	}
	st, err := sqlite.New(path)
	if err != nil {
		return nil, nil, err
	}
	return st, func() { st.Close() }, nil
}

// seedCatalog fills an empty catalog from path, or from the starter
// catalog when no path is configured. A non-empty catalog is left alone.
func seedCatalog(ctx context.Context, st store.Store, path string, log logrus.FieldLogger) error {
	existing, err := st.ListCodes(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	data, format := []byte(factory.DefaultCatalogJSON), factory.FormatJSON
	if path != "" {
		if data, err = os.ReadFile(path); err != nil {
			return fmt.Errorf("failed to read catalog: %w", err)
		}
		format = factory.FormatFromPath(path)
	}
	catalog, err := factory.NewCatalogFactory().ParseCatalog(data, format)
	if err != nil {
		return fmt.Errorf("catalog %s: %w", path, err)
	}
	for _, item := range catalog {
		if err := st.SaveCode(ctx, item); err != nil {
			return err
		}
	}
	log.WithField("codes", len(catalog)).Info("benefit-code catalog seeded")
	return nil
}
