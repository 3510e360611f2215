package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/pscgeo/internal/config"
	"github.com/UnknownOlympus/pscgeo/internal/metrics"
	"github.com/UnknownOlympus/pscgeo/internal/models"
	"github.com/UnknownOlympus/pscgeo/internal/postcode"
	"github.com/UnknownOlympus/pscgeo/internal/reference"
	"github.com/UnknownOlympus/pscgeo/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// app carries what every command shares: configuration, logging, metrics,
// the reference data source and the optional database.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	reg     *prometheus.Registry
	metrics *metrics.Metrics
	source  reference.Source
	pool    *pgxpool.Pool
}

// newApp loads configuration and opens the reference source and, when
// configured, the database. It starts the monitoring server when a port is set.
func newApp(ctx context.Context) (*app, error) {
	cfg := config.MustLoad()
	logger := setupLogger(cfg.Env)

	// Create a separate registry for metrics with exemplar
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a := &app{cfg: cfg, log: logger, reg: reg, metrics: metrics.NewMetrics(reg)}

	if cfg.S3.Endpoint != "" {
		src, err := reference.NewS3Source(reference.S3Options{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			UseSSL:    cfg.S3.UseSSL,
			Bucket:    cfg.S3.Bucket,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open reference bucket: %w", err)
		}
		a.source = src
		logger.DebugContext(ctx, "Reading reference data from S3", "endpoint", cfg.S3.Endpoint, "bucket", cfg.S3.Bucket)
	} else {
		a.source = reference.NewDirSource(cfg.Reference.Dir)
		logger.DebugContext(ctx, "Reading reference data from directory", "dir", cfg.Reference.Dir)
	}

	if cfg.Database.Enabled() {
		pool, err := repository.NewDatabase(
			ctx, cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to DB: %w", err)
		}
		a.pool = pool
	}

	if cfg.Port != 0 {
		var dtb pinger
		if a.pool != nil {
			dtb = a.pool
		}
		go startMonitoringServer(ctx, logger, reg, dtb, cfg.Port)
	}

	return a, nil
}

// Close releases the database pool.
func (a *app) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

// postcodeIndex builds the postcode index from the database when one is
// configured, otherwise from the Code-Point files of the reference source.
func (a *app) postcodeIndex(ctx context.Context) (*postcode.Index, error) {
	var (
		points []models.GeoReferencePoint
		err    error
	)

	if a.pool != nil {
		points, err = repository.NewRepository(a.pool, a.log).FetchPostcodes(ctx)
	} else {
		points, err = reference.LoadCodePoint(ctx, a.source, a.cfg.Reference.PostcodePrefix, a.log)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load postcode reference: %w", err)
	}

	idx := postcode.Build(points)
	a.log.InfoContext(ctx, "Postcode index built", "postcodes", idx.Len())
	return idx, nil
}
