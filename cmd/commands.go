package main

import (
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/UnknownOlympus/pscgeo/internal/batch"
	"github.com/UnknownOlympus/pscgeo/internal/geocoding"
	"github.com/UnknownOlympus/pscgeo/internal/matcher"
	"github.com/UnknownOlympus/pscgeo/internal/normalize"
	"github.com/UnknownOlympus/pscgeo/internal/reference"
	"github.com/UnknownOlympus/pscgeo/internal/registry"
	"github.com/UnknownOlympus/pscgeo/internal/repository"
	"github.com/UnknownOlympus/pscgeo/internal/resolver"
	"github.com/UnknownOlympus/pscgeo/internal/service"
	"github.com/spf13/cobra"
)

var errDatabaseRequired = errors.New("no database configured, set DB_HOST")

// ioOptions are the --in/--out flags of the record commands.
type ioOptions struct {
	in  string
	out string
}

func (o *ioOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.in, "in", "", "input JSON array of records")
	cmd.Flags().StringVar(&o.out, "out", "", "output JSON file")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pscgeo",
		Short: "enrich PSC records of foreign corporate owners with coordinates",
		Long: `
pscgeo curates Companies House PSC records for corporate owners registered
outside the UK and geolocates them from their postcode or their address.
Configuration is read from PSCGEO_* environment variables, a .env file and
the optional YAML file named by PSCGEO_CONFIG.
`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newEnrichCmd(),
		newSnapshotCmd(),
		newFilterUKCmd(),
		newFilterListedCmd(),
		newImportPostcodesCmd(),
	)

	return root
}

func newEnrichCmd() *cobra.Command {
	var opts ioOptions

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Attach coordinates to records, filling missing details from the registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			records, err := batch.Read(opts.in)
			if err != nil {
				return err
			}

			index, err := a.postcodeIndex(ctx)
			if err != nil {
				return err
			}

			providerType, err := geocoding.ParseProviderType(a.cfg.Geocoder.Type)
			if err != nil {
				return err
			}

			provider, err := geocoding.NewProvider(geocoding.ProviderConfig{
				Type:         providerType,
				APIKey:       a.cfg.Geocoder.APIKey,
				RateLimit:    a.cfg.Geocoder.RateLimit,
				BaseURL:      a.cfg.Geocoder.BaseURL,
				UserAgent:    a.cfg.Geocoder.UserAgent,
				CountryCodes: a.cfg.Geocoder.CountryCodes,
				Logger:       a.log,
			})
			if err != nil {
				return fmt.Errorf("failed to create geocoding provider: %w", err)
			}
			a.log.InfoContext(ctx, "Geocoding provider initialized", "type", providerType)

			addressResolver := resolver.New(
				service.InstrumentProvider(provider, string(providerType), a.metrics),
				a.log,
				resolver.WithMaxParts(a.cfg.Resolver.MaxParts),
				resolver.WithSplitPremise(a.cfg.Resolver.SplitPremise),
			)

			enricherOpts := []service.Option{service.WithProgress(os.Stderr)}
			if a.cfg.Registry.APIKey != "" {
				sic, sicErr := reference.LoadSICCodes(ctx, a.source, a.cfg.Reference.SICCodes)
				if sicErr != nil {
					return sicErr
				}
				client := registry.NewClient(registry.ClientOptions{
					BaseURL:   a.cfg.Registry.BaseURL,
					APIKey:    a.cfg.Registry.APIKey,
					RateLimit: a.cfg.Registry.RateLimit,
				}, a.log)
				fetcher := registry.NewFetcher(client, registry.RetryPolicy{
					MaxAttempts: a.cfg.Registry.MaxAttempts,
					Backoff:     registry.FixedBackoff(a.cfg.Registry.Backoff),
				}, a.log, a.metrics)
				enricherOpts = append(enricherOpts, service.WithRegistry(fetcher, sic))
			}

			enricher := service.NewEnricher(a.log, index, addressResolver, a.metrics, enricherOpts...)
			enriched, counters, err := enricher.Enrich(ctx, records)
			if err != nil {
				return err
			}

			if err = batch.Write(opts.out, enriched); err != nil {
				return err
			}

			cmd.Printf("%d records: %d resolved, %d resolved without coordinate, %d already resolved, %d failed\n",
				counters.Total(), counters.ResolvedWithCoordinate, counters.ResolvedWithoutCoordinate,
				counters.AlreadyResolved, counters.Failed)
			return nil
		},
	}
	opts.bind(cmd)

	return cmd
}

func newSnapshotCmd() *cobra.Command {
	var opts ioOptions

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Copy dates, status and SIC texts from the company data snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			records, err := batch.Read(opts.in)
			if err != nil {
				return err
			}

			snapshot, err := reference.LoadSnapshot(ctx, a.source, a.cfg.Reference.Snapshot, a.log)
			if err != nil {
				return err
			}

			annotated, found, err := service.NewCurator(a.log, a.metrics).ApplySnapshot(ctx, records, snapshot)
			if err != nil {
				return err
			}

			if err = batch.Write(opts.out, annotated); err != nil {
				return err
			}

			cmd.Printf("%d records: %d found in snapshot\n", len(annotated), found)
			return nil
		},
	}
	opts.bind(cmd)

	return cmd
}

func newFilterUKCmd() *cobra.Command {
	var opts ioOptions

	cmd := &cobra.Command{
		Use:   "filter-uk",
		Short: "Drop records whose owner is registered in the UK",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			records, err := batch.Read(opts.in)
			if err != nil {
				return err
			}

			m := matcher.New(normalize.New(a.cfg.Matching.CorporateTokens...))
			classifier := matcher.NewJurisdictionClassifier(m, a.cfg.Matching.JurisdictionThreshold)

			kept, dropped := service.NewCurator(a.log, a.metrics).FilterJurisdiction(ctx, records, classifier)
			if err = batch.Write(opts.out, kept); err != nil {
				return err
			}

			cmd.Printf("%d records kept, %d dropped as UK registered\n", len(kept), dropped)
			return nil
		},
	}
	opts.bind(cmd)

	return cmd
}

func newFilterListedCmd() *cobra.Command {
	var opts ioOptions

	cmd := &cobra.Command{
		Use:   "filter-listed",
		Short: "Drop records whose owner is a publicly listed company",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			records, err := batch.Read(opts.in)
			if err != nil {
				return err
			}

			norm := normalize.New(a.cfg.Matching.CorporateTokens...)
			roster, err := reference.LoadRoster(ctx, a.source, listingFiles(a.cfg.Reference.ListingPrefix), norm, a.log)
			if err != nil {
				return err
			}

			classifier := matcher.NewListingClassifier(matcher.New(norm), roster, a.cfg.Matching.ListingThreshold)
			kept, dropped := service.NewCurator(a.log, a.metrics).FilterListed(ctx, records, classifier)
			if err = batch.Write(opts.out, kept); err != nil {
				return err
			}

			cmd.Printf("%d records kept, %d dropped as listed\n", len(kept), dropped)
			return nil
		},
	}
	opts.bind(cmd)

	return cmd
}

func newImportPostcodesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-postcodes",
		Short: "Load the Code-Point reference files into the postcode table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.pool == nil {
				return errDatabaseRequired
			}

			points, err := reference.LoadCodePoint(ctx, a.source, a.cfg.Reference.PostcodePrefix, a.log)
			if err != nil {
				return err
			}

			repo := repository.NewRepository(a.pool, a.log)
			if err = repo.EnsureSchema(ctx); err != nil {
				return err
			}

			stored, err := repo.StorePostcodes(ctx, points)
			if err != nil {
				return err
			}

			cmd.Printf("%d postcodes stored\n", stored)
			return nil
		},
	}
}

// listingFiles places the default listing files under prefix.
func listingFiles(prefix string) []reference.ListingFile {
	files := make([]reference.ListingFile, len(reference.DefaultListingFiles))
	for idx, file := range reference.DefaultListingFiles {
		file.Path = path.Join(prefix, file.Path)
		files[idx] = file
	}
	return files
}
