package index

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bajicv/enterobase-scheme-scraper/internal/adapter/listing"
	"github.com/bajicv/enterobase-scheme-scraper/internal/common"
	"github.com/bajicv/enterobase-scheme-scraper/internal/config"
)

type stubFetcher struct {
	rows []listing.Row
	err  error
}

func (f *stubFetcher) Fetch(_ context.Context, _ string) ([]listing.Row, error) {
	return f.rows, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRows() []listing.Row {
	return []listing.Row{
		{Href: "Salmonella.Achtman7GeneMLST/", Date: "02-Apr-2024", Time: "11:30", Size: "-"},
		{Href: "Salmonella.cgMLSTv2/", Date: "03-Apr-2024", Time: "08:15", Size: "-"},
		{Href: "Escherichia.cgMLSTv1/", Date: "21-Mar-2024", Time: "04:11", Size: "-"},
	}
}

func TestBuildDerivations(t *testing.T) {
	srv := New(&stubFetcher{rows: testRows()}, "http://example.org/schemes/", testLogger())
	require.NoError(t, srv.Build(context.Background()))

	entries := srv.Schemes()
	require.Len(t, entries, 3)

	e := entries[0]
	assert.Equal(t, "Salmonella.Achtman7GeneMLST/", e.URLPath)
	assert.Equal(t, "Salmonella", e.Organism)
	assert.Equal(t, "Achtman7GeneMLST", e.Scheme)
	assert.Equal(t, "Salmonella.Achtman7GeneMLST", e.SchemeID)
	assert.Equal(t, "http://example.org/schemes/Salmonella.Achtman7GeneMLST/", e.FullPath)
	assert.Equal(t, "02-Apr-2024_11:30", e.LastUpdated)

	// Splitting the href must round-trip for every directory entry.
	for _, e := range entries {
		assert.Equal(t, e.URLPath, e.Organism+"."+e.Scheme+"/")
	}
}

func TestBuildWrapsFetchError(t *testing.T) {
	srv := New(&stubFetcher{err: fmt.Errorf("connection refused")}, "http://example.org/schemes/", testLogger())

	err := srv.Build(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot build scheme index")
}

func TestOrganismsDeduplicates(t *testing.T) {
	srv := New(&stubFetcher{rows: testRows()}, "http://example.org/schemes/", testLogger())
	require.NoError(t, srv.Build(context.Background()))

	assert.Equal(t, []string{"Salmonella", "Escherichia"}, srv.Organisms())
}

func TestOrganismSchemesUnknownOrganismIsEmpty(t *testing.T) {
	srv := New(&stubFetcher{rows: testRows()}, "http://example.org/schemes/", testLogger())
	require.NoError(t, srv.Build(context.Background()))

	assert.Empty(t, srv.OrganismSchemes("Klebsiella"))
}

func TestOrganismSchemesDeduplicates(t *testing.T) {
	rows := append(testRows(), listing.Row{Href: "Salmonella.Achtman7GeneMLST/", Date: "02-Apr-2024", Time: "11:30", Size: "-"})
	srv := New(&stubFetcher{rows: rows}, "http://example.org/schemes/", testLogger())
	require.NoError(t, srv.Build(context.Background()))

	entries := srv.OrganismSchemes("Salmonella")
	assert.Len(t, entries, 2)
}

func TestLookup(t *testing.T) {
	rows := append(testRows(), listing.Row{Href: "Salmonella.cgMLSTv2/", Date: "04-Apr-2024", Time: "09:00", Size: "-"})
	srv := New(&stubFetcher{rows: rows}, "http://example.org/schemes/", testLogger())
	require.NoError(t, srv.Build(context.Background()))

	entry, err := srv.Lookup("Salmonella", "Achtman7GeneMLST")
	require.NoError(t, err)
	assert.Equal(t, "Salmonella.Achtman7GeneMLST", entry.SchemeID)

	_, err = srv.Lookup("Salmonella", "NoSuchScheme")
	assert.ErrorIs(t, err, common.ErrSchemeNotFound)

	// Two listing rows for the same organism+scheme must not be resolved by
	// picking either of them.
	_, err = srv.Lookup("Salmonella", "cgMLSTv2")
	assert.ErrorIs(t, err, common.ErrAmbiguousScheme)
}

func TestBuildFromLiveListing(t *testing.T) {
	page := `<html><body><pre><a href="../">../</a>
<a href="Organism1.SchemeA/">Organism1.SchemeA/</a>   01-Jan-2024 10:00   -
<a href="Organism1.SchemeB/">Organism1.SchemeB/</a>   02-Jan-2024 11:00   -
</pre></body></html>`

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer ts.Close()

	adapter := listing.New(&config.ClientConfig{
		UserAgent:         "test-agent",
		Timeout:           5 * time.Second,
		RequestsPerSecond: 1000,
	}, testLogger())

	srv := New(adapter, ts.URL+"/", testLogger())
	require.NoError(t, srv.Build(context.Background()))

	entries := srv.Schemes()
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "Organism1", e.Organism)
	}
}
