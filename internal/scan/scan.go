// Package scan walks a filesystem root and produces hashed file records.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"findex/internal/storage"
)

// Options configures a scan pass.
type Options struct {
	// Algorithm selects the content digest. DefaultAlgorithm when zero.
	Algorithm Algorithm

	// Workers bounds the hashing worker pool. runtime.NumCPU() when zero.
	Workers int

	// Exclude holds doublestar glob patterns matched against the
	// slash-separated relative path. Matching files are skipped and
	// matching directories are pruned.
	Exclude []string

	// Reuse, when set, is consulted before hashing a file. It may return a
	// previously computed digest together with true when the caller can
	// vouch for it (for example after a size and mtime pre-check).
	Reuse func(relPath string, size int64, modified time.Time) (string, bool)
}

// Callback receives one enumeration entry. A non-nil scanErr marks a file
// that could not be read or hashed; the record then carries the path and any
// metadata gathered so far but no digest. Returning a non-nil error aborts
// the scan.
type Callback func(record storage.FileRecord, scanErr error) error

type job struct {
	rel      string
	abs      string
	size     int64
	created  time.Time
	modified time.Time
	err      error
}

type result struct {
	record storage.FileRecord
	err    error
}

// Scan walks root recursively and invokes fn once per regular file found
// underneath it. Hashing is spread across a bounded worker pool while fn is
// always called from a single goroutine. Each call re-walks the tree, so the
// sequence is restartable. Symlinks and special files are not indexed.
func Scan(ctx context.Context, root string, opts Options, fn Callback) error {
	if fn == nil {
		return errors.New("scan callback must not be nil")
	}

	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("stat root %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root %s is not a directory", root)
	}

	for _, pattern := range opts.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}

	algorithm := opts.Algorithm
	if algorithm.New == nil {
		algorithm = DefaultAlgorithm
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan job)
	results := make(chan result)

	var walkErr error
	walkDone := make(chan struct{})
	go func() {
		defer close(walkDone)
		defer close(jobs)
		walkErr = walkRoot(ctx, root, opts.Exclude, jobs)
	}()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hashWorker(ctx, algorithm, opts.Reuse, jobs, results)
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var cbErr error
	for res := range results {
		if cbErr != nil {
			continue
		}
		if err := fn(res.record, res.err); err != nil {
			cbErr = err
			cancel()
		}
	}
	<-walkDone

	if cbErr != nil {
		return cbErr
	}
	if walkErr != nil {
		return fmt.Errorf("walk %s: %w", root, walkErr)
	}
	return ctx.Err()
}

func walkRoot(ctx context.Context, root string, exclude []string, jobs chan<- job) error {
	send := func(j job) error {
		select {
		case jobs <- j:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if err != nil {
			if rel == "." {
				return err
			}
			// Surface the unreadable entry in the enumeration and keep
			// walking; the callback decides whether to abort.
			if sendErr := send(job{rel: rel, abs: path, err: err}); sendErr != nil {
				return sendErr
			}
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if entry.IsDir() {
			if rel != "." && excluded(exclude, rel) {
				return fs.SkipDir
			}
			return nil
		}
		if excluded(exclude, rel) {
			return nil
		}
		if !entry.Type().IsRegular() {
			return nil
		}

		fileInfo, infoErr := entry.Info()
		if infoErr != nil {
			return send(job{rel: rel, abs: path, err: infoErr})
		}

		return send(job{
			rel:      rel,
			abs:      path,
			size:     fileInfo.Size(),
			created:  fileCreated(fileInfo),
			modified: fileInfo.ModTime(),
		})
	})
}

func hashWorker(ctx context.Context, algorithm Algorithm, reuse func(string, int64, time.Time) (string, bool), jobs <-chan job, results chan<- result) {
	emit := func(res result) bool {
		select {
		case results <- res:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for j := range jobs {
		record := storage.FileRecord{
			Path:     j.rel,
			Size:     j.size,
			Created:  j.created,
			Modified: j.modified,
		}

		if j.err != nil {
			if !emit(result{record: record, err: j.err}) {
				return
			}
			continue
		}

		switch {
		case j.size == 0:
			record.Hash = storage.HashEmpty
		case reuse != nil:
			if hash, ok := reuse(j.rel, j.size, j.modified); ok {
				record.Hash = hash
			}
		}

		if record.Hash == "" {
			hash, err := HashFile(j.abs, algorithm)
			if err != nil {
				if !emit(result{record: record, err: err}) {
					return
				}
				continue
			}
			record.Hash = hash
		}

		if !emit(result{record: record}) {
			return
		}
	}
}

func excluded(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if doublestar.MatchUnvalidated(pattern, rel) {
			return true
		}
	}
	return false
}
