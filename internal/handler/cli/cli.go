// Package cli dispatches the selected operation against the services and
// renders their output as plain-text tables and progress lines.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"text/tabwriter"

	"github.com/bajicv/enterobase-scheme-scraper/internal/common"
	"github.com/bajicv/enterobase-scheme-scraper/internal/entity"
	"github.com/bajicv/enterobase-scheme-scraper/internal/service/download"
)

const (
	OpListSchemes         = "list_schemes"
	OpListOrganisms       = "list_organisms"
	OpListOrganismSchemes = "list_organism_schemes"
	OpDownloadScheme      = "download_scheme"
)

type IndexService interface {
	Schemes() entity.SchemeIndex
	Organisms() []string
	OrganismSchemes(organism string) entity.SchemeIndex
}

type DownloadService interface {
	DownloadScheme(ctx context.Context, organism, scheme string) (*entity.DownloadSummary, error)
}

// Request carries the three primitive CLI inputs.
type Request struct {
	Operation string
	Organism  string
	Scheme    string
}

type Handler struct {
	index    IndexService
	download DownloadService
	out      io.Writer
	log      *slog.Logger
}

func New(index IndexService, download DownloadService, out io.Writer, log *slog.Logger) *Handler {
	return &Handler{
		index:    index,
		download: download,
		out:      out,
		log:      log.With(slog.String("handler", "CLIHandler")),
	}
}

// Handle runs one operation. A missing organism or scheme argument prints a
// prompt and skips the operation without failing; a missing operation is the
// caller's fatal-usage case.
func (h *Handler) Handle(ctx context.Context, req Request) error {
	switch req.Operation {
	case OpListSchemes:
		h.printSchemes(h.index.Schemes())
	case OpListOrganisms:
		h.printOrganisms(h.index.Organisms())
	case OpListOrganismSchemes:
		if req.Organism == "" {
			fmt.Fprintln(h.out, "Please provide an organism, e.g. -organism Salmonella")

			return nil
		}
		h.printSchemes(h.index.OrganismSchemes(req.Organism))
	case OpDownloadScheme:
		if req.Organism == "" || req.Scheme == "" {
			fmt.Fprintln(h.out, "Please provide an organism and a scheme, e.g. -organism Salmonella -scheme Achtman7GeneMLST")

			return nil
		}

		summary, err := h.download.DownloadScheme(ctx, req.Organism, req.Scheme)
		if err != nil {
			return err
		}

		if n := summary.Problems(); n > 0 {
			fmt.Fprintf(h.out, "%d of %d files could not be downloaded, see %s\n",
				n, len(summary.Outcomes), filepath.Join(summary.Dir, download.LogFileName))
		}
	default:
		return fmt.Errorf("%w: %s", common.ErrUnknownOperation, req.Operation)
	}

	return nil
}

func (h *Handler) printSchemes(entries entity.SchemeIndex) {
	w := tabwriter.NewWriter(h.out, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "ORGANISM\tSCHEME\tDATE\tTIME")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Organism, e.Scheme, e.Date, e.Time)
	}
	w.Flush()
}

func (h *Handler) printOrganisms(organisms []string) {
	w := tabwriter.NewWriter(h.out, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "ORGANISM")
	for _, organism := range organisms {
		fmt.Fprintln(w, organism)
	}
	w.Flush()
}
