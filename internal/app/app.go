// Package app wires configuration, stores, and the core operations together.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/dustin/go-humanize"

	"findex/internal/compare"
	"findex/internal/config"
	"findex/internal/indexer"
	"findex/internal/report"
	"findex/internal/scan"
	"findex/internal/storage"
	"findex/internal/storage/sqlite"
)

// ErrMissingInput is returned when a database handed to compare or report
// does not exist.
var ErrMissingInput = errors.New("input database does not exist")

// App executes one findex subcommand.
type App struct {
	cfg config.Config
}

// New constructs an App using the provided configuration.
func New(cfg config.Config) *App {
	return &App{cfg: cfg}
}

// Run dispatches to the configured subcommand until it finishes or the
// context is cancelled.
func (a *App) Run(ctx context.Context) error {
	switch a.cfg.Command {
	case config.CommandIndex:
		return a.runIndex(ctx)
	case config.CommandCompare:
		return a.runCompare(ctx)
	case config.CommandReport:
		return a.runReport(ctx)
	default:
		return fmt.Errorf("unknown command %q", a.cfg.Command)
	}
}

func (a *App) runIndex(ctx context.Context) error {
	cfg := a.cfg.Index

	algorithm, err := scan.AlgorithmByName(cfg.Algorithm)
	if err != nil {
		return err
	}

	store, err := sqlite.OpenIndex(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open index store: %w", err)
	}
	defer store.Close()

	log.Printf("indexing %s into %s (%s)", cfg.Root, cfg.DBPath, algorithm.Name)
	ix := indexer.New(indexer.Options{
		Incremental: cfg.Incremental,
		SkipErrors:  cfg.SkipErrors,
		Algorithm:   algorithm,
		Workers:     cfg.Workers,
		Exclude:     cfg.Exclude,
	})

	stats, err := ix.Index(ctx, cfg.Root, store)
	if err != nil {
		return fmt.Errorf("index %s: %w", cfg.Root, err)
	}

	log.Printf("indexed %s files (%s), reused %s digests, removed %s stale rows, %s unreadable",
		humanize.Comma(stats.Scanned), humanize.Bytes(uint64(stats.Bytes)),
		humanize.Comma(stats.Reused), humanize.Comma(stats.Removed), humanize.Comma(stats.Errors))
	return nil
}

func (a *App) runCompare(ctx context.Context) error {
	cfg := a.cfg.Compare

	left, err := openExistingIndex(cfg.Left)
	if err != nil {
		return err
	}
	defer left.Close()

	right, err := openExistingIndex(cfg.Right)
	if err != nil {
		return err
	}
	defer right.Close()

	store, err := sqlite.OpenComparison(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open comparison store: %w", err)
	}
	defer store.Close()

	log.Printf("comparing %s against %s", cfg.Left, cfg.Right)
	result, err := compare.Compare(ctx, left, right, store)
	if err != nil {
		return fmt.Errorf("compare indexes: %w", err)
	}

	for _, category := range compare.Categories {
		log.Printf("%-10s %s", category, humanize.Comma(int64(result.Counts[category])))
	}
	log.Printf("comparison written to %s", cfg.DBPath)
	return nil
}

func (a *App) runReport(ctx context.Context) error {
	cfg := a.cfg.Report

	if _, err := os.Stat(cfg.DBPath); err != nil {
		return fmt.Errorf("%w: %s", ErrMissingInput, cfg.DBPath)
	}

	store, err := sqlite.OpenComparison(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open comparison store: %w", err)
	}
	defer store.Close()

	left, err := store.LoadOrigin(ctx, storage.OriginLeft)
	if err != nil {
		return err
	}
	right, err := store.LoadOrigin(ctx, storage.OriginRight)
	if err != nil {
		return err
	}
	if len(left) == 0 && len(right) == 0 {
		return fmt.Errorf("%w: comparison %s holds no records", ErrMissingInput, cfg.DBPath)
	}

	result := compare.Classify(left, right)
	if err := report.Write(result, cfg.Out, report.Options{IncludeUnchanged: cfg.IncludeUnchanged}); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	log.Printf("report written to %s (%s rows)", cfg.Out, humanize.Comma(int64(len(result.Rows))))
	return nil
}

func openExistingIndex(path string) (*sqlite.IndexStore, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingInput, path)
	}
	store, err := sqlite.OpenIndex(path)
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", path, err)
	}
	return store, nil
}
