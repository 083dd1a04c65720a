/*
	The seam between the importer and the version control engine.

	Engines are black boxes: they are handed a working tree that already
	contains exactly the content to record (plus the store dir at its
	top), and they answer with success or failure.  No engine output is
	parsed beyond the commit id.  Two implementations exist -- gitcli
	(exec the system git) and gitgo (in-process) -- and they must be
	interchangeable mid-history: a repository begun with one continues
	fine under the other, since both speak git's on-disk store format.
*/
package vcs

import (
	"context"

	"github.com/polydawn/relic/api"
	"github.com/polydawn/relic/fs"
)

type Engine interface {
	// Name reports the engine's selector string, as used by RELIC_ENGINE.
	Name() string

	// StoreDirName is the name of the store dir this engine creates at
	// the top of a working tree (".git" for the git family).
	StoreDirName() string

	// InitStore creates a new empty store inside dir, which must exist.
	InitStore(ctx context.Context, dir fs.AbsolutePath) error

	// StageAll stages every change in the working tree: new files,
	// modified files, and deletions.  After it returns, the staged tree
	// equals the working tree exactly.
	StageAll(ctx context.Context, workTree fs.AbsolutePath) error

	// Commit records the staged tree.  Empty meta.Author or meta.Date
	// mean engine defaults.  An empty or unchanged tree still commits.
	// Returns the engine's identifier for the new commit.
	Commit(ctx context.Context, workTree fs.AbsolutePath, meta api.CommitMeta) (string, error)

	// CheckoutHead forcibly rebuilds the working tree beside the store
	// to match the latest commit.
	CheckoutHead(ctx context.Context, workTree fs.AbsolutePath) error
}

/*
	Identity recorded when neither the operator nor a metadata override
	supplies one.  Commits must always carry *some* author, and "the
	import tool" is the honest answer; host-level git config is never
	consulted, so the same inputs produce the same history on any
	machine.
*/
const (
	DefaultIdentityName  = "relic"
	DefaultIdentityEmail = "relic@localhost"
)
