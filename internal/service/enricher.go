package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/UnknownOlympus/pscgeo/internal/metrics"
	"github.com/UnknownOlympus/pscgeo/internal/models"
	"github.com/UnknownOlympus/pscgeo/internal/registry"
	"github.com/UnknownOlympus/pscgeo/internal/resolver"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// ErrMissingIdentifier is returned when a record of the batch has no company number.
var ErrMissingIdentifier = errors.New("record has no company number")

// Outcome labels of processed records.
const (
	OutcomeAlreadyResolved  = "already_resolved"
	OutcomeResolved         = "resolved"
	OutcomeResolvedNoCoords = "resolved_without_coordinate"
	OutcomeFailed           = "failed"
)

// Counters tallies record outcomes. Every processed record lands in exactly one counter.
type Counters struct {
	AlreadyResolved           int
	ResolvedWithCoordinate    int
	ResolvedWithoutCoordinate int
	Failed                    int
}

// Total returns the number of counted records.
func (c Counters) Total() int {
	return c.AlreadyResolved + c.ResolvedWithCoordinate + c.ResolvedWithoutCoordinate + c.Failed
}

func (c *Counters) add(outcome string) {
	switch outcome {
	case OutcomeAlreadyResolved:
		c.AlreadyResolved++
	case OutcomeResolved:
		c.ResolvedWithCoordinate++
	case OutcomeResolvedNoCoords:
		c.ResolvedWithoutCoordinate++
	default:
		c.Failed++
	}
}

// PostcodeIndex returns the coordinates of a postcode.
type PostcodeIndex interface {
	Lookup(postcode string) (models.Coordinates, error)
}

// AddressResolver finds coordinates for a free-form address.
type AddressResolver interface {
	Resolve(ctx context.Context, address string) (*resolver.Resolution, error)
}

// Enricher attaches coordinates, and optionally registry details, to records.
type Enricher struct {
	log      *slog.Logger
	index    PostcodeIndex
	resolver AddressResolver
	metrics  *metrics.Metrics
	registry registry.ProfileFetcher
	sic      registry.SICCodes
	progress *os.File
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithRegistry fills the details of records lacking an address from the
// company registry.
func WithRegistry(fetcher registry.ProfileFetcher, sic registry.SICCodes) Option {
	return func(e *Enricher) {
		e.registry = fetcher
		e.sic = sic
	}
}

// WithProgress draws a progress bar on out when it is a terminal.
func WithProgress(out *os.File) Option {
	return func(e *Enricher) { e.progress = out }
}

// NewEnricher creates an Enricher. Either index or resolver may be nil to
// disable that strategy; metrics may be nil.
func NewEnricher(
	log *slog.Logger,
	index PostcodeIndex,
	resolver AddressResolver,
	metrics *metrics.Metrics,
	opts ...Option,
) *Enricher {
	e := &Enricher{log: log, index: index, resolver: resolver, metrics: metrics}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich processes records in order and returns the enriched copies with the
// outcome counters. Records already carrying a latitude are left untouched.
// A record without a company number fails the whole batch before any record
// is processed. Per-record lookup failures are absorbed; only context
// cancellation interrupts the run.
func (e *Enricher) Enrich(ctx context.Context, records []models.Record) ([]models.Record, Counters, error) {
	if err := Validate(records); err != nil {
		return nil, Counters{}, err
	}

	out := make([]models.Record, len(records))
	copy(out, records)

	bar := newProgressBar(e.progress, len(out), "Enriching records")

	var counters Counters
	for idx := range out {
		outcome, err := e.enrichRecord(ctx, &out[idx])
		if err != nil {
			return nil, counters, fmt.Errorf("failed to enrich record %d (%s): %w", idx, out[idx].CompanyNumber, err)
		}

		counters.add(outcome)
		if e.metrics != nil {
			e.metrics.RecordsProcessed.WithLabelValues(outcome).Inc()
		}
		e.log.DebugContext(ctx, "Record processed",
			"index", idx, "company_number", out[idx].CompanyNumber, "outcome", outcome)

		if bar != nil {
			_ = bar.Add(1)
		}
	}

	e.log.InfoContext(ctx, "Enrichment finished",
		"records", len(out),
		"resolved", counters.ResolvedWithCoordinate,
		"resolved_without_coordinate", counters.ResolvedWithoutCoordinate,
		"already_resolved", counters.AlreadyResolved,
		"failed", counters.Failed)

	return out, counters, nil
}

func (e *Enricher) enrichRecord(ctx context.Context, record *models.Record) (string, error) {
	if record.HasCoordinates() {
		return OutcomeAlreadyResolved, nil
	}

	details := &record.Details
	if details.Address == "" && e.registry != nil {
		if err := e.fetchDetails(ctx, record); err != nil {
			return "", err
		}
	}

	if details.Postcode != "" && e.index != nil {
		coords, err := e.index.Lookup(details.Postcode)
		if err == nil {
			record.SetCoordinates(coords, models.GeoStatusPostcode)
			return OutcomeResolved, nil
		}
		e.log.DebugContext(ctx, "Postcode lookup failed",
			"company_number", record.CompanyNumber, "postcode", details.Postcode, "error", err)
	}

	if details.Address != "" && e.resolver != nil {
		res, err := e.resolver.Resolve(ctx, details.Address)
		switch {
		case err == nil:
			record.SetCoordinates(res.Coordinates, models.GeoStatusFallback)
			return OutcomeResolved, nil
		case errors.Is(err, resolver.ErrUnresolved):
		case ctx.Err() != nil:
			return "", ctx.Err()
		default:
			e.log.WarnContext(ctx, "Address resolution failed",
				"company_number", record.CompanyNumber, "error", err)
		}
	}

	if details.Address == "" && details.Postcode == "" {
		return OutcomeFailed, nil
	}

	details.GeoStatus = models.GeoStatusUnresolved
	return OutcomeResolvedNoCoords, nil
}

// fetchDetails completes record details from the registry. A company unknown
// to the registry, or a permanent registry error, leaves the record as it was.
func (e *Enricher) fetchDetails(ctx context.Context, record *models.Record) error {
	profile, err := e.registry.Profile(ctx, record.CompanyNumber)
	switch {
	case err == nil:
		registry.ApplyProfile(&record.Details, profile, e.sic)
		return nil
	case errors.Is(err, registry.ErrNotFound):
		e.log.InfoContext(ctx, "Company not found in registry", "company_number", record.CompanyNumber)
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		e.log.WarnContext(ctx, "Failed to fetch company details",
			"company_number", record.CompanyNumber, "error", err)
		return nil
	}
}

// Validate checks that every record carries a company number.
func Validate(records []models.Record) error {
	for idx := range records {
		if records[idx].CompanyNumber == "" {
			return fmt.Errorf("%w: record %d (%s)", ErrMissingIdentifier, idx, records[idx].Details.CompanyName)
		}
	}
	return nil
}

func newProgressBar(out *os.File, total int, description string) *progressbar.ProgressBar {
	if out == nil || !isatty.IsTerminal(out.Fd()) {
		return nil
	}

	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(out),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}
