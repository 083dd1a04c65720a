//go:build linux
// +build linux

// We need linux-specific syscalls not exported by the standard lib in order
// to set times on symlinks without following them.
// (Stdlib only provides 'chtimes', no 'lchtimes'.)

package fsOp

import (
	"time"

	"golang.org/x/sys/unix"
)

func lchtimes(path string, mtime time.Time) error {
	ts := []unix.Timespec{
		unix.NsecToTimespec(mtime.UnixNano()), // atime; nothing cares, mirror mtime
		unix.NsecToTimespec(mtime.UnixNano()),
	}
	// Note this does depend on kernel 2.6.22 or newer.  Fallbacks are
	// available but we haven't implemented them and they lose nano precision.
	return unix.UtimesNanoAt(unix.AT_FDCWD, path, ts, unix.AT_SYMLINK_NOFOLLOW)
}
