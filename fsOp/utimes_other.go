//go:build !linux
// +build !linux

package fsOp

import (
	"time"
)

func lchtimes(path string, mtime time.Time) error {
	// There's no portable lchtimes.  On these platforms symlink mtimes
	// simply don't get preserved; everything else about the link does.
	// (The linux build preserves them via utimensat.)
	return nil
}
