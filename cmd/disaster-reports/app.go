package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mr1hm/go-disaster-reports/internal/alerts"
	"github.com/mr1hm/go-disaster-reports/internal/config"
	"github.com/mr1hm/go-disaster-reports/internal/ingestion"
	"github.com/mr1hm/go-disaster-reports/internal/logging"
	"github.com/mr1hm/go-disaster-reports/internal/metrics"
	"github.com/mr1hm/go-disaster-reports/internal/reports"
	"github.com/mr1hm/go-disaster-reports/internal/repository"
	"github.com/mr1hm/go-disaster-reports/internal/stats"
)

// app holds the store and the core components built on it. Every command
// shares the same wiring.
type app struct {
	cfg      *config.Config
	db       *repository.SQLiteDB
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	reports  *reports.Service
	alerts   *alerts.Broadcaster
	importer *ingestion.Pipeline
	stats    *stats.Aggregator
}

// newApp loads config, installs the logger, opens the database and runs the
// schema migration once.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	svc := reports.NewService(db, m)
	return &app{
		cfg:      cfg,
		db:       db,
		registry: reg,
		metrics:  m,
		reports:  svc,
		alerts:   alerts.NewBroadcaster(db, m),
		importer: ingestion.NewPipeline(svc, m, cfg.Import.MaxUploadBytes),
		stats:    stats.NewAggregator(db, cfg.Stats.TimelineDays),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}
