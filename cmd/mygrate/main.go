package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"mygrate/internal/config"
	"mygrate/internal/pool"
	"mygrate/pkg/migrate"
	"mygrate/pkg/observability"
	"mygrate/pkg/source"
)

var (
	configFile = flag.String("config", "configs/config.yaml", "Path to configuration file")
	useCSV     = flag.Bool("csv", false, "Read rows from <table>.csv files instead of MySQL")
	csvDir     = flag.String("csv-dir", ".", "Directory containing the per-table CSV files")
	version    = "dev"
	commit     = "none"
	date       = "unknown"
)

func main() {
	flag.Parse()

	fmt.Printf("mygrate %s (commit: %s, built: %s)\n", version, commit, date)

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := config.NewPrompter().FillMissing(cfg, *useCSV); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read connection details: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(
		cfg.Observability.LogLevel,
		cfg.Observability.LogFormat,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	metrics := observability.NewMetrics()

	pgPool, err := pool.New(&pool.Config{
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.MaxPoolSize,
	})
	if err != nil {
		logger.Fatal("Failed to create PostgreSQL pool", zap.Error(err))
	}
	defer pgPool.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := pgPool.Ping(ctx); err != nil {
		logger.Fatal("Failed to ping PostgreSQL", zap.Error(err))
	}
	logger.Info("PostgreSQL connection verified",
		zap.String("host", cfg.Postgres.Host),
		zap.Int("port", cfg.Postgres.Port),
		zap.String("database", cfg.Postgres.Database),
	)

	go func() {
		metricsAddr := fmt.Sprintf(":%d", cfg.Observability.MetricsPort)
		logger.Info("Starting metrics server", zap.String("addr", metricsAddr))

		http.Handle("/metrics", promhttp.Handler())
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			if err := pgPool.Ping(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte("PostgreSQL unhealthy"))
				return
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})

		if err := http.ListenAndServe(metricsAddr, nil); err != nil {
			logger.Error("Metrics server error", zap.Error(err))
		}
	}()

	var src source.Source
	if *useCSV {
		src = source.NewCSV(*csvDir)
		logger.Info("Reading rows from CSV files", zap.String("dir", *csvDir))
	} else {
		src = source.NewMySQL(source.MySQLConfig{
			Host:     cfg.MySQL.Host,
			Port:     cfg.MySQL.Port,
			Database: cfg.MySQL.Database,
			User:     cfg.MySQL.User,
			Password: cfg.MySQL.Password,
		})
		logger.Info("Reading rows from MySQL",
			zap.String("host", cfg.MySQL.Host),
			zap.Int("port", cfg.MySQL.Port),
			zap.String("database", cfg.MySQL.Database),
		)
	}

	tables, err := cfg.TableDescriptors()
	if err != nil {
		logger.Fatal("Invalid table configuration", zap.Error(err))
	}

	driver := migrate.NewDriver(pgPool, src, logger, metrics, cfg.Migrate.DisableTriggers)
	dispatcher := migrate.NewDispatcher(cfg.Migrate.Parallelism, logger)

	if err := dispatcher.Run(ctx, tables, driver.MigrateTable); err != nil {
		logger.Error("Migration failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error during copy: %v\n", err)
		os.Exit(1)
	}

	logger.Info("Migration complete", zap.Int("tables", len(tables)))
}
