package vcs

import (
	"os"

	. "github.com/warpfork/go-errcat"
	"gopkg.in/src-d/go-billy.v4/osfs"
	"gopkg.in/src-d/go-git.v4/plumbing"
	"gopkg.in/src-d/go-git.v4/plumbing/cache"
	"gopkg.in/src-d/go-git.v4/storage/filesystem"

	"github.com/polydawn/relic/api"
	"github.com/polydawn/relic/fs"
)

/*
	ValidateStore decides whether a directory holds a version control
	store this tool may adopt: the store dir exists and opens as git
	storage with a HEAD reference present.

	A HEAD pointing at an unborn branch still counts as present: a
	store initialized by a run that died before its first commit is
	adoptable, not a collision.  Anything git init produces passes;
	anything else that happens to be squatting in the directory is a
	collision.

	May return errors of category:

	  - api.ErrRepoCollision -- no store dir, or it doesn't open as one
*/
func ValidateStore(repoDir fs.AbsolutePath, storeName string) (err error) {
	defer RequireErrorHasCategory(&err, api.ErrorCategory(""))
	storePath := repoDir.Join(fs.MustRelPath(storeName))
	fi, statErr := os.Lstat(storePath.String())
	if statErr != nil || !fi.IsDir() {
		return Errorf(api.ErrRepoCollision,
			"%s exists but holds no %s store; refusing to touch it", repoDir, storeName)
	}
	st := filesystem.NewStorage(osfs.New(storePath.String()), cache.NewObjectLRUDefault())
	if _, refErr := st.Reference(plumbing.HEAD); refErr != nil {
		return Errorf(api.ErrRepoCollision,
			"%s does not open as a version control store (%s); refusing to touch it", storePath, refErr)
	}
	return nil
}
