package repository

import (
	"context"
	"log/slog"

	"github.com/UnknownOlympus/pscgeo/internal/models"
)

// Repository keeps the postcode reference table.
type Repository struct {
	db  Database
	log *slog.Logger
}

// Interface is what the commands need from the postcode table.
type Interface interface {
	FetchPostcodes(ctx context.Context) ([]models.GeoReferencePoint, error)
	StorePostcodes(ctx context.Context, points []models.GeoReferencePoint) (int64, error)
}

// NewRepository creates a Repository over db.
func NewRepository(db Database, log *slog.Logger) *Repository {
	return &Repository{db: db, log: log}
}
