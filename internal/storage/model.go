package storage

import (
	"strings"
	"time"
)

// FileRecord describes one file captured by a scan. Path is always relative
// to the indexed root and unique within one index.
type FileRecord struct {
	Path     string
	Size     int64
	Hash     string
	Created  time.Time // zero when the platform does not supply it
	Modified time.Time
}

// Origin identifies which of the two compared indexes a record came from.
type Origin int

const (
	OriginLeft  Origin = 1
	OriginRight Origin = 2
)

// Sentinel digests mark files whose content could not be hashed. They carry
// no content identity and never participate in move or duplicate matching.
const (
	HashEmpty        = "_empty"
	HashInaccessible = "_inaccessible"
)

// IsSentinelHash reports whether the digest is a placeholder rather than a
// real content hash.
func IsSentinelHash(hash string) bool {
	return strings.HasPrefix(hash, "_")
}
