/*
	Helpers for loading contextual config.

	Config here means "things that are the host machine operator's concerns".
	So, scratch space placement and which git engine to drive are "config",
	as opposed to parameters for function calls: two operators importing the
	same release sequence on different machines may legitimately want
	different answers to these, and the import result shouldn't vary for it.
*/
package config

import (
	"os"
	"path/filepath"

	"github.com/polydawn/relic/fs"
)

/*
	Return the path to use as the parent of scratch workspaces,
	and whether the operator expressed a preference at all.

	Unset means "use the parent dir of the repository being built" --
	the default keeps workspace and repo on one filesystem, so moving
	the version control store between them stays a cheap rename.
	Override with the `RELIC_WORKDIR` environment variable (e.g. to
	point at faster scratch storage, accepting the cross-device cost).
*/
func GetWorkDirBasePath() (fs.AbsolutePath, bool) {
	pth := os.Getenv("RELIC_WORKDIR")
	if pth == "" {
		return fs.AbsolutePath{}, false
	}
	pth, err := filepath.Abs(pth)
	if err != nil {
		panic(err)
	}
	return fs.MustAbsolutePath(pth), true
}

/*
	Return the name of the version control engine to drive.

	The default value is `"gitcli"` (shell out to the system git);
	this can be overridden by the `RELIC_ENGINE` environment variable.
	`"gitgo"` selects the in-process engine, which needs no git binary.
	Unrecognized values are rejected at command startup, not here.
*/
func GetEngineName() string {
	engine := os.Getenv("RELIC_ENGINE")
	if engine == "" {
		return "gitcli"
	}
	return engine
}
