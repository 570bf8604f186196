package scan

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"
)

// Algorithm describes a content digest algorithm.
type Algorithm struct {
	Name string
	New  func() hash.Hash
}

// DefaultAlgorithm is used when no algorithm is configured.
var DefaultAlgorithm = Algorithm{Name: "sha1", New: sha1.New}

// AlgorithmByName returns the digest algorithm for the given name.
func AlgorithmByName(name string) (Algorithm, error) {
	switch strings.ToLower(name) {
	case "", "sha1":
		return Algorithm{Name: "sha1", New: sha1.New}, nil
	case "sha256":
		return Algorithm{Name: "sha256", New: sha256.New}, nil
	case "sha512":
		return Algorithm{Name: "sha512", New: sha512.New}, nil
	default:
		return Algorithm{}, fmt.Errorf("unsupported hash algorithm: %s", name)
	}
}

// HashFile computes the hex-encoded content digest of the file at path.
func HashFile(path string, algorithm Algorithm) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file %s: %w", path, err)
	}
	defer file.Close()

	hasher := algorithm.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("hash file %s: %w", path, err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
