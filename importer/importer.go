/*
	The importer drives a whole run: it turns an ordered list of release
	archives into an equally ordered chain of commits in a repository
	dir named after the project.

	The repository's version control store is a borrowed resource.  For
	each release, the archive is unpacked into a fresh scratch
	workspace, the store is moved (renamed) from the repository dir into
	that workspace, the tree is staged and committed there, and the
	store is moved back.  The working tree the store sees is therefore
	always exactly one release's content, and deletions between releases
	fall out naturally: whatever the next archive doesn't contain simply
	isn't in the tree when staging runs.

	Failure handling is shaped by which side of the borrow it lands on.
	Before the borrow, the workspace is disposable and is removed.
	While the store is away, the priority is getting it home; if even
	that fails, the workspace is left intact and the breadcrumb file in
	the repository dir says where the store is.
*/
package importer

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/relic/api"
	"github.com/polydawn/relic/archive"
	"github.com/polydawn/relic/caps"
	"github.com/polydawn/relic/config"
	"github.com/polydawn/relic/distname"
	"github.com/polydawn/relic/fs"
	"github.com/polydawn/relic/lib/guid"
	"github.com/polydawn/relic/mixins/log"
	"github.com/polydawn/relic/readme"
	"github.com/polydawn/relic/relmeta"
	"github.com/polydawn/relic/vcs"
)

/*
	Import runs the whole sequence described by req, committing one
	release after another with the given engine, and reports the
	repository path and per-release commit ids.

	The order of req.Archives is the order of history; nothing is
	reordered or deduplicated.  The first failure aborts the run:
	already-committed releases stay committed, the failed release and
	everything after it are not.

	Closes mon.Chan (if set) when done.

	May return errors of category:

	  - api.ErrUsage -- for no archives at all
	  - api.ErrNameParse -- for unparsable filenames, or archives naming different projects
	  - api.ErrArchiveUnsupported, api.ErrArchiveCorrupt, api.ErrBreakout -- from archive handling
	  - api.ErrRepoCollision -- when the repository dir is unusable or marked
	  - api.ErrVcs -- when the engine fails
	  - api.ErrInoperablePath -- for filesystem trouble around workspaces
	  - api.ErrCancelled -- when ctx is cancelled
*/
func Import(ctx context.Context, req api.ImportRequest, eng vcs.Engine, mon api.Monitor) (_ api.ImportResult, err error) {
	if mon.Chan != nil {
		defer close(mon.Chan)
	}
	defer RequireErrorHasCategory(&err, api.ErrorCategory(""))

	// Parse every filename before touching the disk at all: a typo in
	// the fifth archive shouldn't cost four commits of work.
	releases, err := plan(req.Archives, req.KnownNames, mon)
	if err != nil {
		return api.ImportResult{}, err
	}

	repoName := releases[0].ProjectName + "-repos"
	repoDir, err := openRepo(ctx, repoName, eng)
	if err != nil {
		return api.ImportResult{}, err
	}

	// Workspaces are siblings of the repository dir unless the operator
	// pointed RELIC_WORKDIR elsewhere; the default keeps the store
	// moves on one filesystem.
	workBase, set := config.GetWorkDirBasePath()
	if !set {
		workBase = repoDir.Dir()
	}

	result := api.ImportResult{RepoPath: repoName}
	custody := vcs.NewCustody(repoDir, eng.StoreDirName())
	for i, rel := range releases {
		commitID, err := importOne(ctx, req, rel, repoDir, workBase, custody, eng, mon, i, len(releases))
		if err != nil {
			return api.ImportResult{}, err
		}
		result.Releases = append(result.Releases, api.ReleaseResult{Descriptor: rel, CommitID: commitID})
	}

	// Materialize the final tree beside the store, so the repository
	// dir ends the run looking like a normal checkout.
	log.Progress(mon, "", "checkout", len(releases), len(releases))
	if err := eng.CheckoutHead(ctx, repoDir); err != nil {
		return api.ImportResult{}, err
	}
	return result, nil
}

/*
	plan parses all the archive filenames up front and enforces that
	they agree on a project name.  No filesystem access happens here;
	this is the cheap all-or-nothing gate before the expensive work.
*/
func plan(archives []string, knownNames []string, mon api.Monitor) ([]api.ReleaseDescriptor, error) {
	if len(archives) == 0 {
		return nil, Errorf(api.ErrUsage, "nothing to do: no archives given")
	}
	releases := make([]api.ReleaseDescriptor, 0, len(archives))
	for _, arc := range archives {
		d, err := distname.Parse(arc, knownNames)
		if err != nil {
			return nil, err
		}
		log.ReleaseParsed(mon, d)
		if len(releases) > 0 && d.ProjectName != releases[0].ProjectName {
			return nil, Errorf(api.ErrNameParse,
				"all archives must belong to one project: %q starts the run as project %q, but %q parses as project %q",
				releases[0].SourcePath, releases[0].ProjectName, d.SourcePath, d.ProjectName)
		}
		releases = append(releases, d)
	}
	return releases, nil
}

func importOne(
	ctx context.Context,
	req api.ImportRequest,
	rel api.ReleaseDescriptor,
	repoDir, workBase fs.AbsolutePath,
	custody *vcs.Custody,
	eng vcs.Engine,
	mon api.Monitor,
	done, total int,
) (_ string, err error) {
	if ctx.Err() != nil {
		return "", Errorf(api.ErrCancelled, "cancelled")
	}

	log.Progress(mon, rel.ReleaseID, "unpack", done, total)
	arch, err := archive.Open(ctx, rel.SourcePath)
	if err != nil {
		return "", err
	}
	defer arch.Close()

	workspace := workBase.Join(fs.MustRelPath(".tmp.import." + guid.New()))
	if err := os.Mkdir(workspace.String(), 0755); err != nil {
		return "", Errorf(api.ErrInoperablePath, "cannot make workspace: %s", err)
	}

	// Everything up to the borrow only touches the workspace, so on
	// error it can simply be thrown away.
	if err := unpackRelease(ctx, req, rel, arch, workspace, mon); err != nil {
		os.RemoveAll(workspace.String())
		return "", err
	}

	log.Progress(mon, rel.ReleaseID, "commit", done, total)
	if err := custody.Borrow(workspace); err != nil {
		os.RemoveAll(workspace.String())
		return "", err
	}
	log.StoreBorrowed(mon, repoDir, workspace)

	commitID, commitErr := commitRelease(ctx, req, rel, workspace, eng)
	if commitErr != nil {
		// The commit failed; getting the store home matters more than
		// anything else now.  If even that fails, the workspace stays
		// on disk and the breadcrumb in the repository dir names it.
		if rerr := custody.Return(); rerr != nil {
			logrus.Errorf("manual recovery needed: the version control store is at %s (%s)", custody.StorePath(), rerr)
			return "", commitErr
		}
		log.StoreReturned(mon, workspace, repoDir)
		os.RemoveAll(workspace.String())
		return "", commitErr
	}

	if err := custody.Return(); err != nil {
		// Committed, but the store is stuck in the workspace.  Leave
		// everything for the operator; the breadcrumb points here.
		logrus.Errorf("manual recovery needed: the version control store is at %s (%s)", custody.StorePath(), err)
		return "", err
	}
	log.StoreReturned(mon, workspace, repoDir)

	if err := os.RemoveAll(workspace.String()); err != nil {
		logrus.Warnf("cannot remove workspace %s: %s", workspace, err)
	}
	log.ReleaseCommitted(mon, rel, commitID)
	return commitID, nil
}

/*
	unpackRelease fills the workspace with exactly the content the
	release's commit should hold: the archive's members (minus a sole
	top-level wrapper dir, if the archive has one), readme amendment
	included.
*/
func unpackRelease(ctx context.Context, req api.ImportRequest, rel api.ReleaseDescriptor, arch archive.Archive, workspace fs.AbsolutePath, mon api.Monitor) error {
	prefix, hasPrefix := arch.Prefix()
	if hasPrefix {
		log.PrefixStripped(mon, rel.SourcePath, prefix)
	}
	if err := arch.Unpack(ctx, workspace, archive.UnpackOptions{
		StripPrefix: hasPrefix,
		SkipChown:   !caps.Scan().CanManageOwnership(),
	}, mon); err != nil {
		return err
	}
	if req.ReadmePrefix != "" {
		amended, found, err := readme.Amend(workspace, req.ReadmePrefix)
		if err != nil {
			return err
		}
		if found {
			log.ReadmeAmended(mon, amended)
		}
	}
	return nil
}

// commitRelease runs while the store is borrowed; keep it lean.
func commitRelease(ctx context.Context, req api.ImportRequest, rel api.ReleaseDescriptor, workspace fs.AbsolutePath, eng vcs.Engine) (string, error) {
	if err := eng.StageAll(ctx, workspace); err != nil {
		return "", err
	}
	meta := relmeta.Resolve(req.MetaDir, rel.ReleaseID)
	return eng.Commit(ctx, workspace, meta)
}
