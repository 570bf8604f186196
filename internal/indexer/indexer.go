// Package indexer drives a scan pass and keeps an index store authoritative
// for the current state of one filesystem root.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"findex/internal/scan"
	"findex/internal/storage"
	"findex/internal/storage/sqlite"
)

// ErrAlgorithmMismatch is returned when an existing index was built with a
// different digest algorithm than the one configured for this run.
var ErrAlgorithmMismatch = errors.New("index was built with a different hash algorithm")

// progressInterval is the number of upserts between progress log lines.
const progressInterval = 10000

// Options configures an index run.
type Options struct {
	// Incremental reuses the stored digest for files whose size and
	// modification time are unchanged instead of re-reading them.
	Incremental bool

	// SkipErrors records unreadable files with a sentinel digest and keeps
	// going. The default aborts the run on the first scan error, because a
	// partial index is indistinguishable from files genuinely absent.
	SkipErrors bool

	// Algorithm selects the content digest. scan.DefaultAlgorithm when zero.
	Algorithm scan.Algorithm

	// Workers and Exclude are passed through to the scanner.
	Workers int
	Exclude []string
}

// Stats summarizes one index run.
type Stats struct {
	Scanned int64 // records upserted, error entries included
	Reused  int64 // digests taken from the previous run without re-reading
	Errors  int64 // unreadable files recorded as sentinel rows
	Removed int64 // stale rows deleted during reconciliation
	Bytes   int64 // total size of scanned files
}

// Indexer converges an index store to the current state of a root directory.
type Indexer struct {
	opts Options
}

// New constructs an Indexer with the given options.
func New(opts Options) *Indexer {
	if opts.Algorithm.New == nil {
		opts.Algorithm = scan.DefaultAlgorithm
	}
	return &Indexer{opts: opts}
}

// Index scans root and upserts one record per file into store, then deletes
// every previously-stored path not seen in this pass. Re-running it with no
// filesystem change yields an identical store.
func (ix *Indexer) Index(ctx context.Context, root string, store *sqlite.IndexStore) (Stats, error) {
	var stats Stats

	abs, err := filepath.Abs(root)
	if err != nil {
		return stats, fmt.Errorf("resolve root %s: %w", root, err)
	}
	abs = filepath.Clean(abs)

	storedAlgorithm, err := store.Meta(ctx, sqlite.MetaAlgorithm)
	if err != nil {
		return stats, err
	}
	if storedAlgorithm != "" && storedAlgorithm != ix.opts.Algorithm.Name {
		return stats, fmt.Errorf("%w: store has %s, run configured %s",
			ErrAlgorithmMismatch, storedAlgorithm, ix.opts.Algorithm.Name)
	}

	previous, err := store.LoadAll(ctx)
	if err != nil {
		return stats, err
	}
	known := make(map[string]storage.FileRecord, len(previous))
	for _, record := range previous {
		known[record.Path] = record
	}

	var reused atomic.Int64
	scanOpts := scan.Options{
		Algorithm: ix.opts.Algorithm,
		Workers:   ix.opts.Workers,
		Exclude:   ix.opts.Exclude,
	}
	if ix.opts.Incremental {
		scanOpts.Reuse = func(relPath string, size int64, modified time.Time) (string, bool) {
			old, ok := known[relPath]
			if !ok || storage.IsSentinelHash(old.Hash) {
				return "", false
			}
			if old.Size != size || !old.Modified.Equal(modified) {
				return "", false
			}
			reused.Add(1)
			return old.Hash, true
		}
	}

	seen := make(map[string]struct{}, len(known))
	err = scan.Scan(ctx, abs, scanOpts, func(record storage.FileRecord, scanErr error) error {
		if scanErr != nil {
			if !ix.opts.SkipErrors {
				return fmt.Errorf("scan %s: %w", record.Path, scanErr)
			}
			log.Printf("skipping unreadable file %s: %v", record.Path, scanErr)
			record.Hash = storage.HashInaccessible
			stats.Errors++
		}

		if err := store.Upsert(ctx, record); err != nil {
			return err
		}
		seen[record.Path] = struct{}{}
		stats.Scanned++
		stats.Bytes += record.Size

		if stats.Scanned%progressInterval == 0 {
			log.Printf("indexed %s files (%s)",
				humanize.Comma(stats.Scanned), humanize.Bytes(uint64(stats.Bytes)))
		}
		return nil
	})
	stats.Reused = reused.Load()
	if err != nil {
		return stats, err
	}

	// Stale-row reconciliation: a single run is authoritative for the
	// store's content.
	for _, record := range previous {
		if _, ok := seen[record.Path]; ok {
			continue
		}
		if err := store.Delete(ctx, record.Path); err != nil {
			return stats, err
		}
		stats.Removed++
	}

	for key, value := range map[string]string{
		sqlite.MetaRoot:      abs,
		sqlite.MetaAlgorithm: ix.opts.Algorithm.Name,
		sqlite.MetaCreatedAt: time.Now().Format(time.RFC3339),
	} {
		if err := store.PutMeta(ctx, key, value); err != nil {
			return stats, err
		}
	}

	return stats, nil
}
