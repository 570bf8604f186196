//go:build !linux

package scan

import (
	"os"
	"time"
)

// fileCreated reports no creation timestamp on platforms where the stat
// result does not expose one; the record column stays NULL.
func fileCreated(_ os.FileInfo) time.Time {
	return time.Time{}
}
