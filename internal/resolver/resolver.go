// Package resolver turns free-form postal addresses into coordinates by
// querying a geocoder with progressively less specific forms of the address.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/UnknownOlympus/pscgeo/internal/geocoding"
	"github.com/UnknownOlympus/pscgeo/internal/models"
)

// ErrUnresolved is returned when no query derived from the address produced a coordinate.
var ErrUnresolved = errors.New("address could not be resolved")

// Stage names the step of the search that produced a coordinate.
type Stage string

const (
	StageFull         Stage = "full"
	StageDropLast     Stage = "drop_last"
	StageDropFirst    Stage = "drop_first"
	StageDropBothEnds Stage = "drop_both_ends"
	StageExhaustive   Stage = "exhaustive"
)

const (
	partSeparator   = ", "
	defaultMaxParts = 8
)

// premise matches a leading house number such as "221B" or "10-12".
var premise = regexp.MustCompile(`^(\d+[A-Za-z]?(?:\s*-\s*\d+[A-Za-z]?)?)\s+(\S.*)$`)

// Resolution is a successful lookup.
type Resolution struct {
	Coordinates models.Coordinates
	Query       string // the joined query that succeeded
	Stage       Stage
	Attempts    int // geocoder calls issued, including the successful one
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithSplitPremise controls whether the exhaustive search treats a leading
// house number as its own part.
func WithSplitPremise(split bool) Option {
	return func(r *Resolver) { r.splitPremise = split }
}

// WithMaxParts sets the largest part count searched exhaustively. Zero disables the limit.
func WithMaxParts(n int) Option {
	return func(r *Resolver) { r.maxParts = n }
}

// Resolver runs the address search against a geocoding provider.
// It holds no state between calls.
type Resolver struct {
	geocoder     geocoding.Provider
	log          *slog.Logger
	splitPremise bool
	maxParts     int
}

// New creates a Resolver querying geocoder.
func New(geocoder geocoding.Provider, log *slog.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		geocoder:     geocoder,
		log:          log,
		splitPremise: true,
		maxParts:     defaultMaxParts,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// attempt holds the per-call search state.
type attempt struct {
	*Resolver

	address  string
	premise  string // house number split off the first part, never sent alone
	queried  map[string]bool
	expanded map[string]bool
	calls    int
}

// Resolve searches for a coordinate for address.
//
// The full address is tried first, then the address without its last comma
// part, without its first and without both. If all of those fail, every
// sequence of single-part removals is explored depth first. No joined query
// is sent twice within one call. Geocoder failures count as misses; only
// context cancellation stops the search early.
func (r *Resolver) Resolve(ctx context.Context, address string) (*Resolution, error) {
	if strings.TrimSpace(address) == "" {
		return nil, ErrUnresolved
	}

	state := &attempt{
		Resolver: r,
		address:  address,
		queried:  make(map[string]bool),
		expanded: make(map[string]bool),
	}

	res, err := state.try(ctx, address, StageFull)
	if res != nil || err != nil {
		return res, err
	}

	parts := splitParts(address)
	state.queried[join(parts)] = true

	if len(parts) > 1 {
		candidates := []struct {
			parts []string
			stage Stage
		}{
			{parts[:len(parts)-1], StageDropLast},
			{parts[1:], StageDropFirst},
		}
		if len(parts) > 2 {
			candidates = append(candidates, struct {
				parts []string
				stage Stage
			}{parts[1 : len(parts)-1], StageDropBothEnds})
		}

		for _, c := range candidates {
			res, err = state.try(ctx, join(c.parts), c.stage)
			if res != nil || err != nil {
				return res, err
			}
		}
	}

	parts = state.searchParts(parts)
	if r.maxParts > 0 && len(parts) > r.maxParts {
		r.log.WarnContext(ctx, "Skipping exhaustive search, too many address parts",
			"address", address, "parts", len(parts), "max_parts", r.maxParts)
		return nil, ErrUnresolved
	}

	res, err = state.search(ctx, parts)
	if res != nil || err != nil {
		return res, err
	}

	r.log.DebugContext(ctx, "Address unresolved", "address", address, "attempts", state.calls)
	return nil, ErrUnresolved
}

// search removes one part at a time, querying each new sequence and then
// descending into it before moving to the next sibling.
func (a *attempt) search(ctx context.Context, parts []string) (*Resolution, error) {
	key := join(parts)
	if a.expanded[key] {
		return nil, nil
	}
	a.expanded[key] = true

	for i := range parts {
		child := make([]string, 0, len(parts)-1)
		child = append(child, parts[:i]...)
		child = append(child, parts[i+1:]...)
		if len(child) == 0 {
			continue
		}

		res, err := a.try(ctx, join(child), StageExhaustive)
		if res != nil || err != nil {
			return res, err
		}

		res, err = a.search(ctx, child)
		if res != nil || err != nil {
			return res, err
		}
	}

	return nil, nil
}

// try issues query unless it is empty or was already sent. A nil result with a
// nil error means "keep searching".
func (a *attempt) try(ctx context.Context, query string, stage Stage) (*Resolution, error) {
	if strings.TrimSpace(query) == "" || a.queried[query] || (a.premise != "" && query == a.premise) {
		return nil, nil
	}
	a.queried[query] = true

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("address resolution aborted: %w", err)
	}

	a.calls++
	coords, err := a.geocoder.Geocode(ctx, query)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("address resolution aborted: %w", ctxErr)
		}
		if !errors.Is(err, geocoding.ErrNoResult) {
			a.log.WarnContext(ctx, "Geocoder query failed", "query", query, "stage", stage, "error", err)
		}
		return nil, nil
	}
	if coords == nil || !coords.Valid() {
		return nil, nil
	}

	if stage != StageFull {
		a.log.InfoContext(ctx, "Resolved using fallback address",
			"original", a.address, "fallback", query, "stage", stage, "attempts", a.calls)
	}

	return &Resolution{Coordinates: *coords, Query: query, Stage: stage, Attempts: a.calls}, nil
}

// splitParts tokenizes an address on commas, dropping empty parts.
func splitParts(address string) []string {
	var parts []string
	for _, raw := range strings.Split(address, ",") {
		if part := strings.TrimSpace(raw); part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

// searchParts returns the parts explored by the exhaustive search. With the
// premise split enabled, a leading house number of a multi-part address
// becomes its own part so that the street can be tried without it.
func (a *attempt) searchParts(parts []string) []string {
	if !a.splitPremise || len(parts) < 2 {
		return parts
	}

	m := premise.FindStringSubmatch(parts[0])
	if m == nil {
		return parts
	}

	a.premise = m[1]
	return append([]string{m[1], strings.TrimSpace(m[2])}, parts[1:]...)
}

func join(parts []string) string {
	return strings.Join(parts, partSeparator)
}
