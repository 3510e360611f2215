package service

import (
	"context"
	"log/slog"

	"github.com/UnknownOlympus/pscgeo/internal/metrics"
	"github.com/UnknownOlympus/pscgeo/internal/models"
)

// Exclusion reasons reported by the filters.
const (
	ReasonUKJurisdiction = "uk_jurisdiction"
	ReasonListed         = "listed"
)

// JurisdictionClassifier recognizes UK jurisdiction phrases.
type JurisdictionClassifier interface {
	AnyUK(values ...string) bool
}

// ListingClassifier recognizes publicly listed companies.
type ListingClassifier interface {
	IsListed(name string) bool
}

// Curator drops records that fall outside the data set and annotates the rest
// from the registry snapshot.
type Curator struct {
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewCurator creates a Curator. metrics may be nil.
func NewCurator(log *slog.Logger, metrics *metrics.Metrics) *Curator {
	return &Curator{log: log, metrics: metrics}
}

// FilterJurisdiction drops records whose PSC is registered in the UK according
// to any of its address country, legal authority, country of registration or
// legal form. It returns the kept records in input order and the number dropped.
func (c *Curator) FilterJurisdiction(
	ctx context.Context,
	records []models.Record,
	classifier JurisdictionClassifier,
) ([]models.Record, int) {
	return c.filter(ctx, records, ReasonUKJurisdiction, func(record *models.Record) bool {
		return classifier.AnyUK(record.Data.JurisdictionFields()...)
	})
}

// FilterListed drops records whose PSC name matches a listed company.
func (c *Curator) FilterListed(
	ctx context.Context,
	records []models.Record,
	classifier ListingClassifier,
) ([]models.Record, int) {
	return c.filter(ctx, records, ReasonListed, func(record *models.Record) bool {
		return classifier.IsListed(record.Data.Name)
	})
}

func (c *Curator) filter(
	ctx context.Context,
	records []models.Record,
	reason string,
	exclude func(*models.Record) bool,
) ([]models.Record, int) {
	kept := make([]models.Record, 0, len(records))
	for idx := range records {
		if exclude(&records[idx]) {
			c.log.DebugContext(ctx, "Record excluded",
				"index", idx, "name", records[idx].Data.Name, "reason", reason)
			continue
		}
		kept = append(kept, records[idx])
	}

	excluded := len(records) - len(kept)
	if c.metrics != nil {
		c.metrics.RecordsExcluded.WithLabelValues(reason).Add(float64(excluded))
	}
	c.log.InfoContext(ctx, "Filter finished", "reason", reason, "kept", len(kept), "excluded", excluded)

	return kept, excluded
}

// ApplySnapshot copies dissolution date, incorporation date, status and SIC
// texts from the snapshot into the details of each record found there. It
// returns the annotated copies and the number of records found. Records
// without a company number fail the batch.
func (c *Curator) ApplySnapshot(
	ctx context.Context,
	records []models.Record,
	snapshot models.Snapshot,
) ([]models.Record, int, error) {
	if err := Validate(records); err != nil {
		return nil, 0, err
	}

	out := make([]models.Record, len(records))
	copy(out, records)

	found := 0
	for idx := range out {
		entry, ok := snapshot.Lookup(out[idx].CompanyNumber)
		if !ok {
			c.log.DebugContext(ctx, "Company not in snapshot", "company_number", out[idx].CompanyNumber)
			continue
		}
		found++

		details := &out[idx].Details
		details.DissolutionDate = entry.DissolutionDate
		details.IncorporationDate = &entry.IncorporationDate
		details.CompanyStatus = &entry.CompanyStatus
		details.SICs = &entry.SICs
	}

	c.log.InfoContext(ctx, "Snapshot applied", "records", len(out), "found", found)
	return out, found, nil
}
