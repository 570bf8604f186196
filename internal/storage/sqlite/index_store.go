package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"findex/internal/storage"
)

// IndexStore holds the file records of one scanned root, keyed by path.
type IndexStore struct {
	db   *sql.DB
	path string
}

// OpenIndex initializes (or reuses) an index database at the provided path.
func OpenIndex(path string) (*IndexStore, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	store := &IndexStore{db: db, path: path}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Close releases the underlying database resources.
func (s *IndexStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the filesystem location of the database.
func (s *IndexStore) Path() string {
	return s.path
}

func (s *IndexStore) initSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS file (
        path TEXT PRIMARY KEY,
        size INTEGER NOT NULL,
        hash TEXT NOT NULL,
        created INTEGER,
        modified INTEGER
);

CREATE INDEX IF NOT EXISTS idx_file_hash ON file(hash);
`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("initialize index schema: %w", err)
	}
	return initMetaSchema(s.db)
}

// Upsert inserts a record or replaces the row stored under the same path.
func (s *IndexStore) Upsert(ctx context.Context, record storage.FileRecord) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO file(path, size, hash, created, modified)
VALUES(?, ?, ?, ?, ?)
ON CONFLICT(path) DO UPDATE SET
        size=excluded.size,
        hash=excluded.hash,
        created=excluded.created,
        modified=excluded.modified
`, record.Path, record.Size, record.Hash, timeToNull(record.Created), timeToNull(record.Modified))
	if err != nil {
		return fmt.Errorf("upsert record %s: %w", record.Path, err)
	}
	return nil
}

// Delete removes a record by its path.
func (s *IndexStore) Delete(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM file WHERE path = ?`, path); err != nil {
		return fmt.Errorf("delete record %s: %w", path, err)
	}
	return nil
}

// Lookup retrieves a single record by path.
func (s *IndexStore) Lookup(ctx context.Context, path string) (storage.FileRecord, bool, error) {
	var (
		record   storage.FileRecord
		created  sql.NullInt64
		modified sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
SELECT path, size, hash, created, modified FROM file WHERE path = ?
`, path).Scan(&record.Path, &record.Size, &record.Hash, &created, &modified)

	if errors.Is(err, sql.ErrNoRows) {
		return storage.FileRecord{}, false, nil
	}
	if err != nil {
		return storage.FileRecord{}, false, fmt.Errorf("lookup record %s: %w", path, err)
	}

	record.Created = nullToTime(created)
	record.Modified = nullToTime(modified)
	return record, true, nil
}

// LoadAll retrieves every persisted record ordered by path.
func (s *IndexStore) LoadAll(ctx context.Context) ([]storage.FileRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT path, size, hash, created, modified FROM file ORDER BY path
`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []storage.FileRecord
	for rows.Next() {
		var (
			record   storage.FileRecord
			created  sql.NullInt64
			modified sql.NullInt64
		)
		if scanErr := rows.Scan(&record.Path, &record.Size, &record.Hash, &created, &modified); scanErr != nil {
			return nil, fmt.Errorf("scan record: %w", scanErr)
		}
		record.Created = nullToTime(created)
		record.Modified = nullToTime(modified)
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	return records, nil
}

// Count returns the number of stored records.
func (s *IndexStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM file`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return count, nil
}

// PutMeta stores bookkeeping information about the index.
func (s *IndexStore) PutMeta(ctx context.Context, key, value string) error {
	return putMeta(ctx, s.db, key, value)
}

// Meta returns the stored value for key, or the empty string when absent.
func (s *IndexStore) Meta(ctx context.Context, key string) (string, error) {
	return getMeta(ctx, s.db, key)
}
