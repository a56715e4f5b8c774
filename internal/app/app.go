package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/afero"

	"github.com/bajicv/enterobase-scheme-scraper/internal/adapter/listing"
	"github.com/bajicv/enterobase-scheme-scraper/internal/config"
	"github.com/bajicv/enterobase-scheme-scraper/internal/handler/cli"
	sdownload "github.com/bajicv/enterobase-scheme-scraper/internal/service/download"
	sindex "github.com/bajicv/enterobase-scheme-scraper/internal/service/index"
)

type App struct {
	cfgPath string
}

func New(cfgPath string) *App {
	return &App{
		cfgPath: cfgPath,
	}
}

func (a *App) Run(ctx context.Context, req cli.Request) error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return fmt.Errorf("cannot load config: %w", err)
	}

	lo := &slog.HandlerOptions{}
	switch cfg.LogLevel {
	case config.LogLevelInfo:
		lo.Level = slog.LevelInfo
	case config.LogLevelWarn:
		lo.Level = slog.LevelWarn
	case config.LogLevelError:
		lo.Level = slog.LevelError
	case config.LogLevelDebug:
		lo.Level = slog.LevelDebug
	default:
		return fmt.Errorf("unknown log level: %s", cfg.LogLevel)
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, lo))

	adapter := listing.New(cfg.ClientConfig(), log)
	indexSrv := sindex.New(adapter, cfg.BaseURL, log)
	downloadSrv := sdownload.New(afero.NewOsFs(), adapter, indexSrv, cfg.OutDir, os.Stdout, log)
	handler := cli.New(indexSrv, downloadSrv, os.Stdout, log)

	// Every operation reads the index, so it is built before dispatch even
	// when only one column of it is needed.
	if err := indexSrv.Build(ctx); err != nil {
		return err
	}

	return handler.Handle(ctx, req)
}
