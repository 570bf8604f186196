package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"findex/internal/storage"
)

// ComparisonStore holds the merged records of two indexes, tagged by origin.
// It is a derived artifact and is fully rebuilt on every comparison run.
type ComparisonStore struct {
	db   *sql.DB
	path string
}

// OpenComparison initializes (or reuses) a comparison database at the
// provided path.
func OpenComparison(path string) (*ComparisonStore, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	store := &ComparisonStore{db: db, path: path}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Close releases the underlying database resources.
func (s *ComparisonStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the filesystem location of the database.
func (s *ComparisonStore) Path() string {
	return s.path
}

func (s *ComparisonStore) initSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS file (
        origin INTEGER NOT NULL,
        path TEXT NOT NULL,
        size INTEGER NOT NULL,
        hash TEXT NOT NULL,
        created INTEGER,
        modified INTEGER,
        PRIMARY KEY(origin, path)
);

CREATE INDEX IF NOT EXISTS idx_file_hash ON file(hash);
CREATE INDEX IF NOT EXISTS idx_file_path ON file(path);
`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("initialize comparison schema: %w", err)
	}
	return initMetaSchema(s.db)
}

// Reset removes every record and meta entry from a previous run.
func (s *ComparisonStore) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM file`); err != nil {
		return fmt.Errorf("reset comparison records: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM meta`); err != nil {
		return fmt.Errorf("reset comparison meta: %w", err)
	}
	return nil
}

// Insert stores a record under the given origin.
func (s *ComparisonStore) Insert(ctx context.Context, origin storage.Origin, record storage.FileRecord) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO file(origin, path, size, hash, created, modified)
VALUES(?, ?, ?, ?, ?, ?)
ON CONFLICT(origin, path) DO UPDATE SET
        size=excluded.size,
        hash=excluded.hash,
        created=excluded.created,
        modified=excluded.modified
`, int(origin), record.Path, record.Size, record.Hash, timeToNull(record.Created), timeToNull(record.Modified))
	if err != nil {
		return fmt.Errorf("insert record %d:%s: %w", origin, record.Path, err)
	}
	return nil
}

// LoadOrigin retrieves every record of one origin ordered by path.
func (s *ComparisonStore) LoadOrigin(ctx context.Context, origin storage.Origin) ([]storage.FileRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT path, size, hash, created, modified FROM file WHERE origin = ? ORDER BY path
`, int(origin))
	if err != nil {
		return nil, fmt.Errorf("query origin %d: %w", origin, err)
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

// Count returns the number of stored records for one origin.
func (s *ComparisonStore) Count(ctx context.Context, origin storage.Origin) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM file WHERE origin = ?`, int(origin)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count origin %d: %w", origin, err)
	}
	return count, nil
}

// PutMeta stores bookkeeping information about the comparison.
func (s *ComparisonStore) PutMeta(ctx context.Context, key, value string) error {
	return putMeta(ctx, s.db, key, value)
}

// Meta returns the stored value for key, or the empty string when absent.
func (s *ComparisonStore) Meta(ctx context.Context, key string) (string, error) {
	return getMeta(ctx, s.db, key)
}
