/*
	Prefixing of release README files with operator-supplied text
	(typically a provenance note: where the tarballs came from, what
	tool stitched them into a repository).

	The search tries a fixed list of base-name casings crossed with a
	fixed list of markup extensions, and amends the FIRST hit only --
	release trees that carry both a "README" and a "readme.txt" get
	exactly one of them changed, deterministically.
*/
package readme

import (
	"io/ioutil"
	"os"

	"github.com/sirupsen/logrus"
	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/relic/api"
	"github.com/polydawn/relic/fs"
)

// Base-name casings, most conventional first.
var baseNames = []string{"README", "ReadMe", "Readme", "readme"}

// Markup extensions, bare name first.  The odd ".TXT" at the end is a
// nod to releases that went through dos tooling at some point.
var extensions = []string{"", ".md", ".markdown", ".txt", ".rst", ".TXT"}

/*
	Amend prepends the prefix verbatim to the first README-like file
	found directly under root.  Reports which file was amended, or
	found=false when the tree has no candidate.

	An empty prefix is a no-op.  Read-only candidates are amended anyway:
	the write bit is raised for the rewrite and the original permission
	bits restored after.

	May return errors of category:

	  - api.ErrInoperablePath -- when a candidate exists but cannot be
	    read or rewritten
*/
func Amend(root fs.AbsolutePath, prefix string) (amended fs.RelPath, found bool, err error) {
	if prefix == "" {
		return fs.RelPath{}, false, nil
	}
	name, fi, found := locate(root)
	if !found {
		return fs.RelPath{}, false, nil
	}
	path := root.Join(name).String()

	body, err := ioutil.ReadFile(path)
	if err != nil {
		return fs.RelPath{}, false, Errorf(api.ErrInoperablePath, "cannot amend readme: %s", err)
	}

	// Raise the write bit if the release shipped the file read-only;
	// the original bits go back on once the rewrite lands.
	perms := fi.Mode().Perm()
	if perms&0200 == 0 {
		if err := os.Chmod(path, perms|0200); err != nil {
			return fs.RelPath{}, false, Errorf(api.ErrInoperablePath, "cannot amend readme: %s", err)
		}
		defer func() {
			if err := os.Chmod(path, perms); err != nil {
				logrus.Warnf("could not restore permissions on %s: %s", path, err)
			}
		}()
	}

	if err := ioutil.WriteFile(path, append([]byte(prefix), body...), perms|0200); err != nil {
		return fs.RelPath{}, false, Errorf(api.ErrInoperablePath, "cannot amend readme: %s", err)
	}
	return name, true, nil
}

/*
	locate walks the documented search order and returns the first
	candidate that exists and is a regular file.  Dirs and symlinks
	named like readmes are passed over: rewriting through a symlink
	could land bytes outside the workspace.
*/
func locate(root fs.AbsolutePath) (fs.RelPath, os.FileInfo, bool) {
	for _, base := range baseNames {
		for _, ext := range extensions {
			name := fs.MustRelPath(base + ext)
			fi, err := os.Lstat(root.Join(name).String())
			if err != nil || !fi.Mode().IsRegular() {
				continue
			}
			return name, fi, true
		}
	}
	return fs.RelPath{}, nil, false
}
