/*
	Low-level filesystem operations: placing archive entries,
	moving directories whole, and clearing directory contents.

	Everything here works on real OS paths (fs.AbsolutePath bases joined
	with fs.RelPath names); callers are responsible for having validated
	the names first.  Errors come out already categorized.
*/
package fsOp

import (
	"io"
	"os"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/relic/api"
	"github.com/polydawn/relic/fs"
)

/*
	Places one entry on the filesystem, under the given base path.
	Replicates all attributes described in the metadata.

	The entry lands at `base.Join(fmeta.Name)`.  Parent dirs must already
	exist (the unpack loop conjures implicit parents before descending).

	Re-placement is tolerated the way tar tools tolerate it: a repeated
	file name truncates and rewrites, a repeated dir has its attributes
	re-applied, a repeated symlink is replaced.  Hardlink targets are
	resolved against the base path; the caller has already checked the
	target name stays inside it.

	Symlinks may *point* wherever they like -- the archive is imported,
	not trusted as a live tree -- but nothing is ever traversed through
	one while placing, since parents are only ever dirs we placed
	ourselves.

	Ownership is restored only when `skipChown` is false; extracting as
	a regular user should pass true, or every entry would error.
*/
func PlaceEntry(base fs.AbsolutePath, fmeta fs.Metadata, body io.Reader, skipChown bool) error {
	destPath := base.Join(fmeta.Name).String()

	// Fill in the content.  (Attribs come later.)
	switch fmeta.Type {
	case fs.Type_File:
		file, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, permsToOs(fmeta.Perms))
		if err != nil {
			return Errorf(api.ErrInoperablePath, "error while unpacking: %s", err)
		}
		if _, err := io.Copy(file, body); err != nil {
			file.Close()
			return Errorf(api.ErrInoperablePath, "error while unpacking: %s", err)
		}
		if err := file.Close(); err != nil {
			return Errorf(api.ErrInoperablePath, "error while unpacking: %s", err)
		}
	case fs.Type_Dir:
		if err := os.Mkdir(destPath, permsToOs(fmeta.Perms)); err != nil {
			if !(os.IsExist(err) && isDir(destPath)) {
				return Errorf(api.ErrInoperablePath, "error while unpacking: %s", err)
			}
			// The dir was already conjured as an implicit parent (or is a
			// repeat entry); re-applying attribs below is all that's left.
		}
	case fs.Type_Symlink:
		// Linkname can be anything you want.  It continues to be a string
		// rather than any of our normalized `fs.*Path` types because it is
		// perfectly valid (if odd) to store the string ".///" as a target.
		if err := os.Symlink(fmeta.Linkname, destPath); err != nil {
			if !os.IsExist(err) {
				return Errorf(api.ErrInoperablePath, "error while unpacking: %s", err)
			}
			if err := os.Remove(destPath); err != nil {
				return Errorf(api.ErrInoperablePath, "error while unpacking: %s", err)
			}
			if err := os.Symlink(fmeta.Linkname, destPath); err != nil {
				return Errorf(api.ErrInoperablePath, "error while unpacking: %s", err)
			}
		}
	case fs.Type_Hardlink:
		targetPath := base.Join(fs.MustRelPath(fmeta.Linkname)).String()
		if err := os.Link(targetPath, destPath); err != nil {
			return Errorf(api.ErrInoperablePath, "error while unpacking: %s", err)
		}
		// Attribs ride along with the link target; nothing further to apply.
		return nil
	default:
		panic("unreachable: scan rejects entry types placement can't handle")
	}

	if !skipChown {
		if err := os.Lchown(destPath, int(fmeta.Uid), int(fmeta.Gid)); err != nil {
			return Errorf(api.ErrInoperablePath, "error while unpacking: %s", err)
		}
	}

	if fmeta.Type == fs.Type_Symlink {
		// Need nofollow behavior to set times on the link itself.
		if err := lchtimes(destPath, fmeta.Mtime); err != nil {
			return Errorf(api.ErrInoperablePath, "error while unpacking: %s", err)
		}
	} else {
		// Do this for everything not a symlink, since there's no such thing
		// as `lchmod` on linux -.-
		// (Chmod also comes after chown, which can strip setuid bits.)
		if err := os.Chmod(destPath, permsToOs(fmeta.Perms)); err != nil {
			return Errorf(api.ErrInoperablePath, "error while unpacking: %s", err)
		}
		if err := os.Chtimes(destPath, fs.DefaultAtime, fmeta.Mtime); err != nil {
			return Errorf(api.ErrInoperablePath, "error while unpacking: %s", err)
		}
	}
	return nil
}

/*
	Re-applies the recorded mtime to a dir.  Placing entries inside a dir
	bumps the dir's mtime, so unpack loops call this for every explicit
	dir member after all placement is done, deepest first.
*/
func RepaveDirTimes(base fs.AbsolutePath, fmeta fs.Metadata) error {
	destPath := base.Join(fmeta.Name).String()
	if err := os.Chtimes(destPath, fs.DefaultAtime, fmeta.Mtime); err != nil {
		return Errorf(api.ErrInoperablePath, "error while unpacking: %s", err)
	}
	return nil
}

func isDir(path string) bool {
	fi, err := os.Lstat(path)
	return err == nil && fi.IsDir()
}

func permsToOs(perms fs.Perms) (mode os.FileMode) {
	mode = os.FileMode(perms & 0777)
	if perms&fs.Perms_Setuid != 0 {
		mode |= os.ModeSetuid
	}
	if perms&fs.Perms_Setgid != 0 {
		mode |= os.ModeSetgid
	}
	if perms&fs.Perms_Sticky != 0 {
		mode |= os.ModeSticky
	}
	return mode
}
