package reference_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/Flaque/filet"
	"github.com/UnknownOlympus/pscgeo/internal/normalize"
	"github.com/UnknownOlympus/pscgeo/internal/reference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixtureDir creates a temporary directory holding files, keyed by slash path.
func fixtureDir(t *testing.T, files map[string]string) string {
	t.Helper()
	t.Cleanup(func() { filet.CleanUp(t) })

	root := filet.TmpDir(t, "")
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if dir := filepath.Dir(path); dir != root {
			require.NoError(t, os.MkdirAll(dir, 0o755))
		}
		filet.File(t, path, content)
	}
	return root
}

func TestDirSource(t *testing.T) {
	ctx := context.Background()
	root := fixtureDir(t, map[string]string{
		"codepo/Data/CSV/ab.csv": "x",
		"codepo/Data/CSV/nw.csv": "y",
		"sic_codes.json":         "{}",
	})
	src := reference.NewDirSource(root)

	t.Run("list by prefix", func(t *testing.T) {
		names, err := src.List(ctx, "codepo/")
		require.NoError(t, err)
		assert.Equal(t, []string{"codepo/Data/CSV/ab.csv", "codepo/Data/CSV/nw.csv"}, names)
	})

	t.Run("open existing", func(t *testing.T) {
		reader, err := src.Open(ctx, "codepo/Data/CSV/nw.csv")
		require.NoError(t, err)
		defer reader.Close()

		content, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, "y", string(content))
	})

	t.Run("open missing", func(t *testing.T) {
		_, err := src.Open(ctx, "missing.csv")
		require.ErrorIs(t, err, reference.ErrObjectNotFound)
	})
}

func TestLoadCodePoint(t *testing.T) {
	ctx := context.Background()
	root := fixtureDir(t, map[string]string{
		"CSV/ab.csv": "\"AB10 1AB\",10,394235,806529,\"S92000003\",\"\",\"S08000020\",\"\",\"S12000033\",\"S13002842\"\n" +
			"\"AB10 1AF\",10,394181,806429,\"S92000003\",\"\",\"S08000020\",\"\",\"S12000033\",\"S13002842\"\n",
		"CSV/nw.csv": "\"NW1 6XE\",10,527849,182106\n" +
			"\"BROKEN\",10,not-a-number,1\n" +
			"\"SHORT\",10\n",
		"CSV/readme.txt": "ignored",
	})

	points, err := reference.LoadCodePoint(ctx, reference.NewDirSource(root), "CSV/", newLogger())

	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, "AB10 1AB", points[0].Postcode)
	assert.InDelta(t, 394235.0, points[0].Easting, 0)
	assert.InDelta(t, 806529.0, points[0].Northing, 0)
	assert.Equal(t, "NW1 6XE", points[2].Postcode)
}

func TestLoadCodePoint_NoFiles(t *testing.T) {
	root := fixtureDir(t, map[string]string{"other/readme.txt": "x"})

	_, err := reference.LoadCodePoint(context.Background(), reference.NewDirSource(root), "CSV/", newLogger())

	require.ErrorIs(t, err, reference.ErrNoFiles)
}

func TestLoadListing(t *testing.T) {
	ctx := context.Background()
	root := fixtureDir(t, map[string]string{
		"nasdaqlisted.txt": "Symbol|Security Name|Market Category\n" +
			"AAPL|Apple Inc. - Common Stock|Q\n" +
			"SPIR|Spire Global, Inc. Class A Common Stock|Q\n" +
			"File Creation Time: 0101202500:00\n",
		"global-listings.csv": "Exchange,Ticker,Name\n" +
			"LSE,VOD,\"Vodafone Group, PLC\"\n",
	})
	src := reference.NewDirSource(root)
	norm := normalize.New()

	t.Run("pipe delimited with header", func(t *testing.T) {
		source, err := reference.LoadListing(ctx, src, reference.DefaultListingFiles[0], norm)

		require.NoError(t, err)
		assert.Equal(t, "nasdaq", source.Name)
		assert.Equal(t, []string{"apple", "spire global a"}, source.Names)
	})

	t.Run("quoted names", func(t *testing.T) {
		file := reference.ListingFile{Name: "global", Path: "global-listings.csv", Delimiter: ',', Column: 2, SkipHeader: true}

		source, err := reference.LoadListing(ctx, src, file, norm)

		require.NoError(t, err)
		assert.Equal(t, []string{"vodafone group plc"}, source.Names)
	})

	t.Run("roster skips missing files", func(t *testing.T) {
		roster, err := reference.LoadRoster(ctx, src, reference.DefaultListingFiles, norm, newLogger())

		require.NoError(t, err)
		assert.Equal(t, 3, roster.Len())
		_, ok := roster.Source("nyse")
		assert.False(t, ok)
	})

	t.Run("roster with nothing to read", func(t *testing.T) {
		files := []reference.ListingFile{{Name: "nyse", Path: "nyse-listed.csv", Delimiter: ','}}

		_, err := reference.LoadRoster(ctx, src, files, norm, newLogger())

		require.ErrorIs(t, err, reference.ErrNoFiles)
	})
}

func TestLoadSICCodes(t *testing.T) {
	root := fixtureDir(t, map[string]string{
		"sic_codes.json": `{"64209": "Activities of other holding companies n.e.c.", "70100": "Activities of head offices"}`,
		"broken.json":    `[1, 2`,
	})
	src := reference.NewDirSource(root)

	codes, err := reference.LoadSICCodes(context.Background(), src, "sic_codes.json")
	require.NoError(t, err)
	assert.Equal(t, "Activities of head offices", codes["70100"])

	_, err = reference.LoadSICCodes(context.Background(), src, "broken.json")
	require.Error(t, err)
}

func TestLoadSnapshot(t *testing.T) {
	header := "CompanyName, CompanyNumber,CompanyStatus,DissolutionDate,IncorporationDate," +
		"SICCode.SicText_1,SICCode.SicText_2,SICCode.SicText_3,SICCode.SicText_4\n"
	root := fixtureDir(t, map[string]string{
		"snapshot.csv": header +
			"ACME LIMITED,01234567,Active,,01/04/1999,64209 - Holding companies,,,\n" +
			"GLOBEX LTD,07654321,Dissolved,02/02/2020,03/03/2003,70100 - Head offices,62020 - IT consultancy,,\n" +
			"NO NUMBER,,Active,,,,,,\n",
		"bad.csv": "CompanyName,CompanyNumber\nACME,1\n",
	})
	src := reference.NewDirSource(root)

	snapshot, err := reference.LoadSnapshot(context.Background(), src, "snapshot.csv", newLogger())
	require.NoError(t, err)
	require.Len(t, snapshot, 2)

	acme, ok := snapshot.Lookup("01234567")
	require.True(t, ok)
	assert.Nil(t, acme.DissolutionDate)
	assert.Equal(t, "01/04/1999", acme.IncorporationDate)
	assert.Equal(t, "Active", acme.CompanyStatus)
	assert.Equal(t, "64209 - Holding companies", acme.SICs)

	globex, ok := snapshot.Lookup("07654321")
	require.True(t, ok)
	require.NotNil(t, globex.DissolutionDate)
	assert.Equal(t, "02/02/2020", *globex.DissolutionDate)
	assert.Equal(t, "70100 - Head offices,62020 - IT consultancy", globex.SICs)

	_, err = reference.LoadSnapshot(context.Background(), src, "bad.csv", newLogger())
	require.ErrorIs(t, err, reference.ErrMissingColumn)
}
