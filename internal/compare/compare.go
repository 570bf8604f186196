// Package compare merges two index stores and classifies every file by its
// joint path and content-hash relationship.
package compare

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"findex/internal/storage"
	"findex/internal/storage/sqlite"
)

// Category labels the relationship of one path across the two origins.
type Category string

const (
	CategoryUnchanged Category = "unchanged"
	CategoryModified  Category = "modified"
	CategoryMoved     Category = "moved"
	CategoryAdded     Category = "added"
	CategoryRemoved   Category = "removed"
	CategoryDuplicate Category = "duplicate"
)

// Categories lists all categories in reporting order.
var Categories = []Category{
	CategoryRemoved,
	CategoryModified,
	CategoryAdded,
	CategoryMoved,
	CategoryDuplicate,
	CategoryUnchanged,
}

// ErrEmptyIndex is returned when a compared index holds no records.
var ErrEmptyIndex = errors.New("index is empty")

// ErrAlgorithmMismatch is returned when the two indexes were built with
// different digest algorithms, making their hashes incomparable.
var ErrAlgorithmMismatch = errors.New("indexes use different hash algorithms")

// Row is one classified file. PathA/SizeA describe the origin-1 facet and
// PathB/SizeB the origin-2 facet; an empty path marks an absent facet.
type Row struct {
	Category Category
	PathA    string
	PathB    string
	SizeA    int64
	SizeB    int64
	Hash     string
}

// Group collects every path carrying one ambiguous content hash, per origin.
type Group struct {
	Hash   string
	Size   int64
	PathsA []string
	PathsB []string
}

// Result is the full classification of two indexes.
type Result struct {
	Rows   []Row
	Groups []Group
	Counts map[Category]int
}

// Compare merges the records of left and right into the comparison store and
// classifies every path present in either index. The inputs are only read;
// the comparison store is fully rebuilt.
func Compare(ctx context.Context, left, right *sqlite.IndexStore, store *sqlite.ComparisonStore) (*Result, error) {
	for _, input := range []*sqlite.IndexStore{left, right} {
		count, err := input.Count(ctx)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, fmt.Errorf("%w: %s", ErrEmptyIndex, input.Path())
		}
	}

	leftAlgorithm, err := left.Meta(ctx, sqlite.MetaAlgorithm)
	if err != nil {
		return nil, err
	}
	rightAlgorithm, err := right.Meta(ctx, sqlite.MetaAlgorithm)
	if err != nil {
		return nil, err
	}
	if leftAlgorithm != rightAlgorithm {
		return nil, fmt.Errorf("%w: %s vs %s", ErrAlgorithmMismatch, leftAlgorithm, rightAlgorithm)
	}

	leftRecords, err := left.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	rightRecords, err := right.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	if err := store.Reset(ctx); err != nil {
		return nil, err
	}
	for _, record := range leftRecords {
		if err := store.Insert(ctx, storage.OriginLeft, record); err != nil {
			return nil, err
		}
	}
	for _, record := range rightRecords {
		if err := store.Insert(ctx, storage.OriginRight, record); err != nil {
			return nil, err
		}
	}

	for key, value := range map[string]string{
		sqlite.MetaIndexLeft:  left.Path(),
		sqlite.MetaIndexRight: right.Path(),
		sqlite.MetaAlgorithm:  leftAlgorithm,
		sqlite.MetaCreatedAt:  time.Now().Format(time.RFC3339),
	} {
		if err := store.PutMeta(ctx, key, value); err != nil {
			return nil, err
		}
	}

	return Classify(leftRecords, rightRecords), nil
}

// Classify derives exactly one category per path present in either record
// set. It is a pure function of its inputs and is shared by Compare and by
// report generation from a previously built comparison store.
func Classify(left, right []storage.FileRecord) *Result {
	pathA := make(map[string]storage.FileRecord, len(left))
	for _, record := range left {
		pathA[record.Path] = record
	}
	pathB := make(map[string]storage.FileRecord, len(right))
	for _, record := range right {
		pathB[record.Path] = record
	}

	// Hash joins exclude sentinel digests: a placeholder carries no
	// content identity.
	hashA := hashIndex(left)
	hashB := hashIndex(right)

	paths := make([]string, 0, len(pathA)+len(pathB))
	for path := range pathA {
		paths = append(paths, path)
	}
	for path := range pathB {
		if _, ok := pathA[path]; !ok {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)

	result := &Result{Counts: make(map[Category]int)}
	consumed := make(map[string]struct{}) // origin-2 paths absorbed into a move pair
	ambiguous := make(map[string]struct{})

	// Same-path classification wins over any hash match, so both-origin
	// paths resolve first.
	for _, path := range paths {
		recA, inA := pathA[path]
		recB, inB := pathB[path]
		if !inA || !inB {
			continue
		}
		category := CategoryModified
		if recA.Hash == recB.Hash {
			category = CategoryUnchanged
		}
		result.add(Row{
			Category: category,
			PathA:    path,
			PathB:    path,
			SizeA:    recA.Size,
			SizeB:    recB.Size,
			Hash:     recB.Hash,
		})
	}

	// Origin-1-only paths: removed, moved, or part of an ambiguous group.
	for _, path := range paths {
		recA, inA := pathA[path]
		if _, inB := pathB[path]; !inA || inB {
			continue
		}
		hash := recA.Hash
		if storage.IsSentinelHash(hash) || len(hashB[hash]) == 0 {
			result.add(Row{Category: CategoryRemoved, PathA: path, SizeA: recA.Size, Hash: hash})
			continue
		}
		if counterpart, ok := movePair(hash, hashA, hashB, pathA, pathB); ok {
			recB := pathB[counterpart]
			result.add(Row{
				Category: CategoryMoved,
				PathA:    path,
				PathB:    counterpart,
				SizeA:    recA.Size,
				SizeB:    recB.Size,
				Hash:     hash,
			})
			consumed[counterpart] = struct{}{}
			continue
		}
		result.add(Row{Category: CategoryDuplicate, PathA: path, SizeA: recA.Size, Hash: hash})
		ambiguous[hash] = struct{}{}
	}

	// Origin-2-only paths not absorbed into a move pair: added or ambiguous.
	for _, path := range paths {
		recB, inB := pathB[path]
		if _, inA := pathA[path]; inA || !inB {
			continue
		}
		if _, ok := consumed[path]; ok {
			continue
		}
		hash := recB.Hash
		if storage.IsSentinelHash(hash) || len(hashA[hash]) == 0 {
			result.add(Row{Category: CategoryAdded, PathB: path, SizeB: recB.Size, Hash: hash})
			continue
		}
		result.add(Row{Category: CategoryDuplicate, PathB: path, SizeB: recB.Size, Hash: hash})
		ambiguous[hash] = struct{}{}
	}

	result.buildGroups(ambiguous, hashA, hashB, pathA, pathB)
	result.sortRows()
	return result
}

// movePair reports the single unambiguous rename counterpart for hash: the
// hash must belong to exactly one path per origin, and both paths must be
// exclusive to their origin.
func movePair(hash string, hashA, hashB map[string][]string, pathA, pathB map[string]storage.FileRecord) (string, bool) {
	if len(hashA[hash]) != 1 || len(hashB[hash]) != 1 {
		return "", false
	}
	source, target := hashA[hash][0], hashB[hash][0]
	if _, ok := pathB[source]; ok {
		return "", false
	}
	if _, ok := pathA[target]; ok {
		return "", false
	}
	return target, true
}

func hashIndex(records []storage.FileRecord) map[string][]string {
	index := make(map[string][]string)
	for _, record := range records {
		if storage.IsSentinelHash(record.Hash) {
			continue
		}
		index[record.Hash] = append(index[record.Hash], record.Path)
	}
	for _, paths := range index {
		sort.Strings(paths)
	}
	return index
}

func (r *Result) add(row Row) {
	r.Rows = append(r.Rows, row)
	r.Counts[row.Category]++
}

func (r *Result) buildGroups(ambiguous map[string]struct{}, hashA, hashB map[string][]string, pathA, pathB map[string]storage.FileRecord) {
	hashes := make([]string, 0, len(ambiguous))
	for hash := range ambiguous {
		hashes = append(hashes, hash)
	}
	sort.Strings(hashes)

	for _, hash := range hashes {
		group := Group{Hash: hash, PathsA: hashA[hash], PathsB: hashB[hash]}
		if len(group.PathsA) > 0 {
			group.Size = pathA[group.PathsA[0]].Size
		} else if len(group.PathsB) > 0 {
			group.Size = pathB[group.PathsB[0]].Size
		}
		r.Groups = append(r.Groups, group)
	}
}

func (r *Result) sortRows() {
	order := make(map[Category]int, len(Categories))
	for i, category := range Categories {
		order[category] = i
	}
	sort.Slice(r.Rows, func(i, j int) bool {
		a, b := r.Rows[i], r.Rows[j]
		if a.Category != b.Category {
			return order[a.Category] < order[b.Category]
		}
		if a.PathA != b.PathA {
			return a.PathA < b.PathA
		}
		return a.PathB < b.PathB
	})
}
