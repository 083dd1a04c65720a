package importer

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/relic/api"
	"github.com/polydawn/relic/fs"
	"github.com/polydawn/relic/fsOp"
	"github.com/polydawn/relic/vcs"
)

/*
	openRepo readies the repository dir (relative to the operator's cwd)
	and hands back its absolute path.  Four states are acceptable and
	everything else is a collision:

	  - nothing there: the dir is created and a store initialized in it
	  - an empty dir: adopted, store initialized
	  - a dir holding a valid store: adopted as-is, then swept down to
	    just the store so the final checkout leaves no residue of
	    whatever tree was sitting beside it
	  - (anything carrying a breadcrumb from an interrupted run is
	    refused before any of the above is considered)

	"Valid store" asks only that the store dir opens as one; a store
	whose history is empty -- say, from a run that was cut down between
	init and its first commit -- is fine, and retrying such a run just
	works.
*/
func openRepo(ctx context.Context, repoName string, eng vcs.Engine) (_ fs.AbsolutePath, err error) {
	defer RequireErrorHasCategory(&err, api.ErrorCategory(""))

	abs, err := filepath.Abs(repoName)
	if err != nil {
		return fs.AbsolutePath{}, Errorf(api.ErrInoperablePath, "cannot resolve repository path: %s", err)
	}
	repoDir := fs.MustAbsolutePath(abs)

	fi, statErr := os.Lstat(abs)
	switch {
	case os.IsNotExist(statErr):
		if err := os.Mkdir(abs, 0755); err != nil {
			return fs.AbsolutePath{}, Errorf(api.ErrInoperablePath, "cannot make repository dir: %s", err)
		}
		logrus.Infof("created repository dir %s", repoDir)
		if err := eng.InitStore(ctx, repoDir); err != nil {
			return fs.AbsolutePath{}, err
		}
		return repoDir, nil
	case statErr != nil:
		return fs.AbsolutePath{}, Errorf(api.ErrInoperablePath, "cannot stat repository dir: %s", statErr)
	case !fi.IsDir():
		return fs.AbsolutePath{}, Errorf(api.ErrRepoCollision,
			"%s already exists and is not a directory; move it aside to import here", repoDir)
	}

	if err := vcs.CheckMarker(repoDir); err != nil {
		return fs.AbsolutePath{}, err
	}

	storeName := eng.StoreDirName()
	if _, err := os.Lstat(filepath.Join(abs, storeName)); os.IsNotExist(err) {
		empty, err := dirIsEmpty(abs)
		if err != nil {
			return fs.AbsolutePath{}, Errorf(api.ErrInoperablePath, "cannot read repository dir: %s", err)
		}
		if !empty {
			return fs.AbsolutePath{}, Errorf(api.ErrRepoCollision,
				"%s already exists and is not a repository this tool made; move it aside to import here", repoDir)
		}
		if err := eng.InitStore(ctx, repoDir); err != nil {
			return fs.AbsolutePath{}, err
		}
		return repoDir, nil
	}

	if err := vcs.ValidateStore(repoDir, storeName); err != nil {
		return fs.AbsolutePath{}, err
	}
	logrus.Infof("continuing existing repository %s", repoDir)
	if err := fsOp.ClearDir(repoDir, storeName); err != nil {
		return fs.AbsolutePath{}, err
	}
	return repoDir, nil
}

func dirIsEmpty(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	_, err = f.Readdirnames(1)
	if err == io.EOF {
		return true, nil
	}
	return false, err
}
