//go:build linux

package scan

import (
	"os"
	"syscall"
	"time"
)

// fileCreated returns the inode change time, the closest the platform gets
// to a creation timestamp.
func fileCreated(info os.FileInfo) time.Time {
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(stat.Ctim.Sec, stat.Ctim.Nsec)
	}
	return time.Time{}
}
