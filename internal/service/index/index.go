package index

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bajicv/enterobase-scheme-scraper/internal/adapter/listing"
	"github.com/bajicv/enterobase-scheme-scraper/internal/common"
	"github.com/bajicv/enterobase-scheme-scraper/internal/entity"
)

const (
	serviceName = "index"
)

type ListingFetcher interface {
	Fetch(ctx context.Context, pageURL string) ([]listing.Row, error)
}

// IndexService holds the snapshot of the top-level schemes listing. Build
// runs once per process, eagerly, before any operation is dispatched; the
// index is read-only afterwards.
type IndexService struct {
	fetcher ListingFetcher
	baseURL string
	entries entity.SchemeIndex
	log     *slog.Logger
}

func New(fetcher ListingFetcher, baseURL string, log *slog.Logger) *IndexService {
	return &IndexService{
		fetcher: fetcher,
		baseURL: baseURL,
		log:     log.With(slog.String("service", serviceName)),
	}
}

func (s *IndexService) Build(ctx context.Context) error {
	rows, err := s.fetcher.Fetch(ctx, s.baseURL)
	if err != nil {
		s.log.Error("Cannot fetch schemes listing", slog.String("url", s.baseURL), slog.Any("error", err))

		return fmt.Errorf("cannot build scheme index: %w", err)
	}

	entries := make(entity.SchemeIndex, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, toEntry(s.baseURL, row))
	}
	s.entries = entries

	s.log.Info("Built scheme index", slog.Int("entries", len(entries)))

	return nil
}

// Schemes returns every index row in listing order, duplicates included.
func (s *IndexService) Schemes() entity.SchemeIndex {
	return s.entries
}

// Organisms returns the distinct organisms in first-occurrence order.
func (s *IndexService) Organisms() []string {
	seen := make(map[string]struct{}, len(s.entries))

	var organisms []string
	for _, e := range s.entries {
		if _, exists := seen[e.Organism]; exists {
			continue
		}
		seen[e.Organism] = struct{}{}
		organisms = append(organisms, e.Organism)
	}

	return organisms
}

// OrganismSchemes returns the deduplicated rows of one organism. An organism
// matching nothing yields an empty result, not an error.
func (s *IndexService) OrganismSchemes(organism string) entity.SchemeIndex {
	type rowKey struct {
		organism, scheme, date, time string
	}
	seen := make(map[rowKey]struct{})

	var entries entity.SchemeIndex
	for _, e := range s.entries {
		if e.Organism != organism {
			continue
		}

		k := rowKey{e.Organism, e.Scheme, e.Date, e.Time}
		if _, exists := seen[k]; exists {
			continue
		}
		seen[k] = struct{}{}
		entries = append(entries, e)
	}

	return entries
}

// Lookup resolves exactly one index row. Zero matches and multiple matches
// are both reported to the caller; an ambiguous listing is never resolved by
// silently picking the first row.
func (s *IndexService) Lookup(organism, scheme string) (entity.SchemeEntry, error) {
	var matches entity.SchemeIndex
	for _, e := range s.entries {
		if e.Organism == organism && e.Scheme == scheme {
			matches = append(matches, e)
		}
	}

	switch len(matches) {
	case 0:
		return entity.SchemeEntry{}, fmt.Errorf("%w: %s/%s", common.ErrSchemeNotFound, organism, scheme)
	case 1:
		return matches[0], nil
	default:
		return entity.SchemeEntry{}, fmt.Errorf("%w: %s/%s matches %d listing rows", common.ErrAmbiguousScheme, organism, scheme, len(matches))
	}
}

func toEntry(baseURL string, row listing.Row) entity.SchemeEntry {
	organism := strings.TrimSuffix(row.Href, "/")
	scheme := ""
	if i := strings.Index(row.Href, "."); i >= 0 {
		organism = row.Href[:i]
		scheme = strings.TrimSuffix(row.Href[i+1:], "/")
	}

	return entity.SchemeEntry{
		URLPath:     row.Href,
		Organism:    organism,
		Scheme:      scheme,
		SchemeID:    strings.TrimSuffix(row.Href, "/"),
		FullPath:    baseURL + row.Href,
		Date:        row.Date,
		Time:        row.Time,
		LastUpdated: row.Date + "_" + row.Time,
	}
}
