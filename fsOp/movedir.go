package fsOp

import (
	"os"
	"path/filepath"
	"syscall"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/relic/api"
	"github.com/polydawn/relic/fs"
)

/*
	Moves a directory whole, by rename.

	This is the primitive under the store borrow/return protocol: the
	version control store travels between the repository and the scratch
	workspace as one atomic rename, never as a copy.  A move that would
	cross filesystems is refused outright, with a hint to re-point the
	workdir; there is no copy fallback.
*/
func MoveDir(from, to fs.AbsolutePath) error {
	err := os.Rename(from.String(), to.String())
	if err == nil {
		return nil
	}
	if le, ok := err.(*os.LinkError); ok && le.Err == syscall.EXDEV {
		return ErrorDetailed(api.ErrInoperablePath,
			"cannot move "+from.String()+" to "+to.String()+": paths are on different filesystems (set RELIC_WORKDIR to a dir on the same device)",
			map[string]string{
				"from": from.String(),
				"to":   to.String(),
			})
	}
	return Errorf(api.ErrInoperablePath, "cannot move %s to %s: %s", from, to, err)
}

/*
	Removes everything inside a dir except the named top-level entries.
	The dir itself stays.  Used to sweep a repository dir back down to
	just its store before a fresh import run begins.
*/
func ClearDir(dir fs.AbsolutePath, except ...string) error {
	f, err := os.Open(dir.String())
	if err != nil {
		return Errorf(api.ErrInoperablePath, "cannot sweep %s: %s", dir, err)
	}
	names, err := f.Readdirnames(-1)
	f.Close()
	if err != nil {
		return Errorf(api.ErrInoperablePath, "cannot sweep %s: %s", dir, err)
	}
	for _, name := range names {
		if contains(except, name) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir.String(), name)); err != nil {
			return Errorf(api.ErrInoperablePath, "cannot sweep %s: %s", dir, err)
		}
	}
	return nil
}

func contains(haystack []string, needle string) bool {
	for _, straw := range haystack {
		if straw == needle {
			return true
		}
	}
	return false
}
