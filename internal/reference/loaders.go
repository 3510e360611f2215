package reference

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/UnknownOlympus/pscgeo/internal/matcher"
	"github.com/UnknownOlympus/pscgeo/internal/models"
	"github.com/UnknownOlympus/pscgeo/internal/normalize"
	"github.com/UnknownOlympus/pscgeo/internal/registry"
)

var (
	// ErrNoFiles is returned when a prefix matches no reference files.
	ErrNoFiles = errors.New("no reference files found")
	// ErrMissingColumn is returned when a CSV header lacks a required column.
	ErrMissingColumn = errors.New("required column missing")
)

// Code-Point Open column positions. The files have no header.
const (
	codePointPostcode = 0
	codePointEasting  = 2
	codePointNorthing = 3
)

// LoadCodePoint reads every .csv file below prefix as Code-Point Open data.
// Rows with unparsable grid references are skipped; an unreadable file is
// logged and skipped.
func LoadCodePoint(ctx context.Context, src Source, prefix string, log *slog.Logger) ([]models.GeoReferencePoint, error) {
	names, err := src.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	var (
		points  []models.GeoReferencePoint
		files   int
		skipped int
	)
	for _, name := range names {
		if !strings.HasSuffix(strings.ToLower(name), ".csv") {
			continue
		}
		files++

		filePoints, fileSkipped, err := readCodePoint(ctx, src, name)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			log.ErrorContext(ctx, "Failed to read postcode file", "file", name, "error", err)
			continue
		}
		points = append(points, filePoints...)
		skipped += fileSkipped
	}

	if files == 0 {
		return nil, fmt.Errorf("%w: %s*.csv", ErrNoFiles, prefix)
	}

	log.InfoContext(ctx, "Loaded postcode reference data",
		"files", files, "postcodes", len(points), "skipped_rows", skipped)
	return points, nil
}

func readCodePoint(ctx context.Context, src Source, name string) ([]models.GeoReferencePoint, int, error) {
	file, err := src.Open(ctx, name)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	var (
		points  []models.GeoReferencePoint
		skipped int
	)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			skipped++
			continue
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read %s: %w", name, err)
		}

		if len(row) <= codePointNorthing {
			skipped++
			continue
		}
		easting, errE := strconv.ParseFloat(strings.TrimSpace(row[codePointEasting]), 64)
		northing, errN := strconv.ParseFloat(strings.TrimSpace(row[codePointNorthing]), 64)
		if errE != nil || errN != nil {
			skipped++
			continue
		}

		points = append(points, models.GeoReferencePoint{
			Postcode: strings.ToUpper(strings.TrimSpace(row[codePointPostcode])),
			Easting:  easting,
			Northing: northing,
		})
	}

	return points, skipped, nil
}

// ListingFile describes one delimited file of listed company names.
type ListingFile struct {
	Name       string // roster source name, e.g. "nasdaq"
	Path       string
	Delimiter  rune
	Column     int // zero-based column holding the company name
	SkipHeader bool
}

// DefaultListingFiles are the exchange rosters read when none are configured.
var DefaultListingFiles = []ListingFile{
	{Name: "nasdaq", Path: "nasdaqlisted.txt", Delimiter: '|', Column: 1, SkipHeader: true},
	{Name: "nyse", Path: "nyse-listed.csv", Delimiter: ',', Column: 1, SkipHeader: true},
	{Name: "other", Path: "other-listed.csv", Delimiter: ',', Column: 1, SkipHeader: true},
	{Name: "global", Path: "global-listings.csv", Delimiter: ',', Column: 2, SkipHeader: true},
	{Name: "lse", Path: "uk-listed-companies.txt", Delimiter: '\t', Column: 0},
}

// LoadListing reads the names of one listing file and normalizes them.
// Lines too short to hold the name column are ignored, as are names that
// normalize to nothing.
func LoadListing(ctx context.Context, src Source, file ListingFile, norm *normalize.Normalizer) (matcher.RosterSource, error) {
	reader, err := src.Open(ctx, file.Path)
	if err != nil {
		return matcher.RosterSource{}, err
	}
	defer reader.Close()

	csvReader := csv.NewReader(reader)
	csvReader.Comma = file.Delimiter
	csvReader.FieldsPerRecord = -1
	csvReader.LazyQuotes = true

	source := matcher.RosterSource{Name: file.Name}
	for line := 0; ; line++ {
		row, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			continue
		}
		if err != nil {
			return matcher.RosterSource{}, fmt.Errorf("failed to read %s: %w", file.Path, err)
		}
		if line == 0 && file.SkipHeader {
			continue
		}
		if len(row) <= file.Column {
			continue
		}
		if name := norm.Normalize(row[file.Column]); name != "" {
			source.Names = append(source.Names, name)
		}
	}

	return source, nil
}

// LoadRoster reads every listing file into one roster. Missing files are
// logged and skipped; at least one file must load.
func LoadRoster(
	ctx context.Context,
	src Source,
	files []ListingFile,
	norm *normalize.Normalizer,
	log *slog.Logger,
) (*matcher.Roster, error) {
	sources := make([]matcher.RosterSource, 0, len(files))
	for _, file := range files {
		source, err := LoadListing(ctx, src, file, norm)
		if errors.Is(err, ErrObjectNotFound) {
			log.WarnContext(ctx, "Listing file not found, skipping", "listing", file.Name, "path", file.Path)
			continue
		}
		if err != nil {
			return nil, err
		}

		log.InfoContext(ctx, "Loaded listing", "listing", file.Name, "names", len(source.Names))
		sources = append(sources, source)
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: no listing file could be read", ErrNoFiles)
	}

	return matcher.NewRoster(sources...), nil
}

// LoadSICCodes reads a JSON object mapping SIC codes to descriptions.
func LoadSICCodes(ctx context.Context, src Source, name string) (registry.SICCodes, error) {
	reader, err := src.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	var codes registry.SICCodes
	if err = json.NewDecoder(reader).Decode(&codes); err != nil {
		return nil, fmt.Errorf("failed to decode SIC codes from %s: %w", name, err)
	}

	return codes, nil
}

// Snapshot CSV columns. Header names are matched after trimming whitespace.
const (
	colCompanyNumber     = "CompanyNumber"
	colDissolutionDate   = "DissolutionDate"
	colIncorporationDate = "IncorporationDate"
	colCompanyStatus     = "CompanyStatus"
)

var sicColumns = []string{
	"SICCode.SicText_1", "SICCode.SicText_2", "SICCode.SicText_3", "SICCode.SicText_4",
}

// LoadSnapshot reads a BasicCompanyData CSV into a snapshot keyed by company number.
func LoadSnapshot(ctx context.Context, src Source, name string, log *slog.Logger) (models.Snapshot, error) {
	reader, err := src.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1
	csvReader.ReuseRecord = true

	header, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, col := range header {
		columns[strings.TrimSpace(col)] = i
	}
	for _, required := range append([]string{colCompanyNumber, colDissolutionDate, colIncorporationDate, colCompanyStatus}, sicColumns...) {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: %s in %s", ErrMissingColumn, required, name)
		}
	}

	value := func(row []string, col string) string {
		if i := columns[col]; i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	snapshot := make(models.Snapshot)
	skipped := 0
	for {
		row, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			skipped++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}

		number := value(row, colCompanyNumber)
		if number == "" {
			skipped++
			continue
		}

		entry := models.SnapshotEntry{
			IncorporationDate: value(row, colIncorporationDate),
			CompanyStatus:     value(row, colCompanyStatus),
		}
		if dissolved := value(row, colDissolutionDate); dissolved != "" {
			entry.DissolutionDate = &dissolved
		}
		sics := make([]string, 0, len(sicColumns))
		for _, col := range sicColumns {
			if sic := value(row, col); sic != "" {
				sics = append(sics, sic)
			}
		}
		entry.SICs = strings.Join(sics, ",")

		snapshot[number] = entry
	}

	log.InfoContext(ctx, "Loaded registry snapshot", "companies", len(snapshot), "skipped_rows", skipped)
	return snapshot, nil
}
