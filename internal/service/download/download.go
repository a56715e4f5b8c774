package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/bajicv/enterobase-scheme-scraper/internal/adapter/listing"
	"github.com/bajicv/enterobase-scheme-scraper/internal/common"
	"github.com/bajicv/enterobase-scheme-scraper/internal/entity"
)

const (
	serviceName = "download"

	// LogFileName is the per-run log inside the destination directory,
	// opened in append mode so repeated partial runs share one file.
	LogFileName = "download.log"

	lociDirName    = "loci_fastas"
	destDirPrefix  = "schemeID_"
	lastUpdatedTag = "_LastUpdated_"

	logTimeFormat = "2006-01-02 15:04:05"

	dirPerm  = 0o755
	filePerm = 0o644
)

// lociFastaPattern routes compressed locus fasta files: case-sensitive ".fa"
// stem, anything up to the next dot, any-case ".gz" ending.
var lociFastaPattern = regexp.MustCompile(`\.fa[^.]*\.(?i:gz)$`)

type ListingAdapter interface {
	Fetch(ctx context.Context, pageURL string) ([]listing.Row, error)
	Open(ctx context.Context, fileURL string) (io.ReadCloser, error)
}

type SchemeLookup interface {
	Lookup(organism, scheme string) (entity.SchemeEntry, error)
}

type DownloadService struct {
	fs      afero.Fs
	adapter ListingAdapter
	index   SchemeLookup
	outDir  string
	out     io.Writer
	log     *slog.Logger
}

func New(fs afero.Fs, adapter ListingAdapter, index SchemeLookup, outDir string, out io.Writer, log *slog.Logger) *DownloadService {
	return &DownloadService{
		fs:      fs,
		adapter: adapter,
		index:   index,
		outDir:  outDir,
		out:     out,
		log:     log.With(slog.String("service", serviceName)),
	}
}

// DownloadScheme downloads every file of one organism+scheme into a freshly
// created destination directory. Lookup and existence failures abort before
// any filesystem mutation; per-file failures are logged, counted and never
// abort the loop.
func (s *DownloadService) DownloadScheme(ctx context.Context, organism, scheme string) (*entity.DownloadSummary, error) {
	entry, err := s.index.Lookup(organism, scheme)
	if err != nil {
		s.log.Error("Cannot resolve scheme", slog.String("organism", organism), slog.String("scheme", scheme), slog.Any("error", err))

		return nil, err
	}

	// The directory name echoes the listing's own SchemeID, not the
	// CLI-supplied scheme string.
	destDir := filepath.Join(s.outDir, destDirPrefix+entry.SchemeID+lastUpdatedTag+entry.LastUpdated)

	exists, err := afero.DirExists(s.fs, destDir)
	if err != nil {
		return nil, fmt.Errorf("cannot check destination %s: %w", destDir, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", common.ErrDestinationExists, destDir)
	}

	if err := s.fs.MkdirAll(filepath.Join(destDir, lociDirName), dirPerm); err != nil {
		return nil, fmt.Errorf("cannot create destination %s: %w", destDir, err)
	}

	rows, err := s.adapter.Fetch(ctx, entry.FullPath)
	if err != nil {
		s.log.Error("Cannot fetch scheme listing", slog.String("url", entry.FullPath), slog.Any("error", err))

		return nil, fmt.Errorf("cannot list scheme files: %w", err)
	}

	logFile, err := s.fs.OpenFile(filepath.Join(destDir, LogFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return nil, fmt.Errorf("cannot open run log: %w", err)
	}
	defer logFile.Close()

	summary := &entity.DownloadSummary{
		RunID: uuid.NewString(),
		Dir:   destDir,
	}
	fmt.Fprintf(logFile, "%s run %s: downloading %s (%d files)\n",
		time.Now().Format(logTimeFormat), summary.RunID, entry.SchemeID, len(rows))

	for _, row := range rows {
		file := entity.FileEntry{
			Name:        row.Href,
			DownloadURL: entry.FullPath + row.Href,
			Date:        row.Date,
			Time:        row.Time,
		}

		outcome := s.downloadFile(ctx, destDir, file)
		summary.Outcomes = append(summary.Outcomes, outcome)

		switch outcome.Status {
		case entity.OutcomeDownloaded:
			summary.Downloaded++
			fmt.Fprintf(s.out, "downloaded %s -> %s\n", file.Name, outcome.Path)
		case entity.OutcomeWarning:
			summary.Warnings++
			fmt.Fprintf(s.out, "failed %s: %s\n", file.Name, outcome.Message)
			fmt.Fprintf(logFile, "%s run %s: WARNING %s: %s\n",
				time.Now().Format(logTimeFormat), summary.RunID, file.Name, outcome.Message)
		case entity.OutcomeError:
			summary.Errors++
			fmt.Fprintf(s.out, "failed %s: %s\n", file.Name, outcome.Message)
			fmt.Fprintf(logFile, "%s run %s: ERROR %s: %s\n",
				time.Now().Format(logTimeFormat), summary.RunID, file.Name, outcome.Message)
		}
	}

	s.log.Info("Finished scheme download",
		slog.String("scheme_id", entry.SchemeID),
		slog.Int("downloaded", summary.Downloaded),
		slog.Int("warnings", summary.Warnings),
		slog.Int("errors", summary.Errors))

	return summary, nil
}

// downloadFile never returns an error: every failure is folded into the
// outcome so one bad link cannot abort the rest of the scheme.
func (s *DownloadService) downloadFile(ctx context.Context, destDir string, file entity.FileEntry) entity.FileOutcome {
	relPath := file.Name
	if lociFastaPattern.MatchString(file.Name) {
		relPath = filepath.Join(lociDirName, file.Name)
	}

	outcome := entity.FileOutcome{Name: file.Name, Path: relPath}

	body, err := s.adapter.Open(ctx, file.DownloadURL)
	if err != nil {
		var statusErr *listing.StatusError
		if errors.As(err, &statusErr) {
			outcome.Status = entity.OutcomeWarning
		} else {
			outcome.Status = entity.OutcomeError
		}
		outcome.Message = err.Error()

		return outcome
	}
	defer body.Close()

	fullPath := filepath.Join(destDir, relPath)

	dst, err := s.fs.Create(fullPath)
	if err != nil {
		outcome.Status = entity.OutcomeError
		outcome.Message = err.Error()

		return outcome
	}

	if _, err := io.Copy(dst, body); err != nil {
		dst.Close()
		s.fs.Remove(fullPath)
		outcome.Status = entity.OutcomeError
		outcome.Message = err.Error()

		return outcome
	}

	if err := dst.Close(); err != nil {
		outcome.Status = entity.OutcomeError
		outcome.Message = err.Error()

		return outcome
	}

	outcome.Status = entity.OutcomeDownloaded

	return outcome
}
