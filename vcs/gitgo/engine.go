/*
	Engine backed by go-git, entirely in-process.

	No git binary required, which makes it the engine of choice for
	hermetic tests and minimal containers.  It writes the same on-disk
	store format as the real thing, so a repository begun under this
	engine can be continued under gitcli and vice versa.
*/
package gitgo

import (
	"context"
	"strconv"
	"strings"
	"time"

	. "github.com/warpfork/go-errcat"
	git "gopkg.in/src-d/go-git.v4"
	"gopkg.in/src-d/go-git.v4/plumbing/object"

	"github.com/polydawn/relic/api"
	"github.com/polydawn/relic/fs"
	"github.com/polydawn/relic/vcs"
)

var _ vcs.Engine = Engine{}

type Engine struct{}

func (Engine) Name() string         { return "gitgo" }
func (Engine) StoreDirName() string { return ".git" }

func (Engine) InitStore(ctx context.Context, dir fs.AbsolutePath) (err error) {
	defer RequireErrorHasCategory(&err, api.ErrorCategory(""))
	if ctx.Err() != nil {
		return Errorf(api.ErrCancelled, "cancelled")
	}
	if _, err := git.PlainInit(dir.String(), false); err != nil {
		return Errorf(api.ErrVcs, "cannot initialize store in %s: %s", dir, err)
	}
	return nil
}

func (Engine) StageAll(ctx context.Context, workTree fs.AbsolutePath) (err error) {
	defer RequireErrorHasCategory(&err, api.ErrorCategory(""))
	if ctx.Err() != nil {
		return Errorf(api.ErrCancelled, "cancelled")
	}
	wt, err := worktree(workTree)
	if err != nil {
		return err
	}
	if _, err := wt.Add("."); err != nil {
		return Errorf(api.ErrVcs, "cannot stage changes in %s: %s", workTree, err)
	}
	// Directory adds walk the filesystem, so they never visit a file
	// that's gone since the last commit; those must be staged for
	// removal one at a time.  (A per-file add on a missing path drops
	// it from the index.)
	status, err := wt.Status()
	if err != nil {
		return Errorf(api.ErrVcs, "cannot stage changes in %s: %s", workTree, err)
	}
	for path, stat := range status {
		if stat.Worktree != git.Deleted {
			continue
		}
		if _, err := wt.Add(path); err != nil {
			return Errorf(api.ErrVcs, "cannot stage removal of %s in %s: %s", path, workTree, err)
		}
	}
	return nil
}

func (Engine) Commit(ctx context.Context, workTree fs.AbsolutePath, meta api.CommitMeta) (_ string, err error) {
	defer RequireErrorHasCategory(&err, api.ErrorCategory(""))
	if ctx.Err() != nil {
		return "", Errorf(api.ErrCancelled, "cancelled")
	}
	wt, err := worktree(workTree)
	if err != nil {
		return "", err
	}

	when := time.Now()
	if meta.Date != "" {
		when, err = parseDate(meta.Date)
		if err != nil {
			return "", err
		}
	}
	author := object.Signature{
		Name:  vcs.DefaultIdentityName,
		Email: vcs.DefaultIdentityEmail,
		When:  when,
	}
	committer := author
	if meta.Author != "" {
		name, email := vcs.SplitAuthor(meta.Author)
		if email == "" {
			return "", Errorf(api.ErrVcs, "author %q is not in 'Name <email>' form", meta.Author)
		}
		author.Name, author.Email = name, email
	}

	// Trailing-newline normalization, as the git cli does; with it,
	// both engines record identical messages for identical inputs.
	msg := meta.Message
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}

	hash, err := wt.Commit(msg, &git.CommitOptions{
		Author:    &author,
		Committer: &committer,
	})
	if err != nil {
		return "", Errorf(api.ErrVcs, "cannot commit in %s: %s", workTree, err)
	}
	return hash.String(), nil
}

func (Engine) CheckoutHead(ctx context.Context, workTree fs.AbsolutePath) (err error) {
	defer RequireErrorHasCategory(&err, api.ErrorCategory(""))
	if ctx.Err() != nil {
		return Errorf(api.ErrCancelled, "cancelled")
	}
	wt, err := worktree(workTree)
	if err != nil {
		return err
	}
	if err := wt.Reset(&git.ResetOptions{Mode: git.HardReset}); err != nil {
		return Errorf(api.ErrVcs, "cannot check out head in %s: %s", workTree, err)
	}
	return nil
}

func worktree(workTree fs.AbsolutePath) (*git.Worktree, error) {
	repo, err := git.PlainOpen(workTree.String())
	if err != nil {
		return nil, Errorf(api.ErrVcs, "cannot open store in %s: %s", workTree, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, Errorf(api.ErrVcs, "cannot open store in %s: %s", workTree, err)
	}
	return wt, nil
}

/*
	Dates arrive as strings (possibly typed into a metadata file by
	hand) and must become a time.Time for go-git.  Three shapes are
	understood: RFC3339, git's own "@<seconds> <offset>" raw form, and
	the "2006-01-02 15:04:05 -0700" shape git prints by default.  The
	gitcli engine has no say in this; it hands the string to git and
	git applies its own (far looser) parsing.
*/
func parseDate(s string) (time.Time, error) {
	if strings.HasPrefix(s, "@") {
		return parseRawDate(s)
	}
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02 15:04:05 -0700",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, Errorf(api.ErrVcs, "cannot parse date %q (RFC3339 is the safe choice)", s)
}

func parseRawDate(s string) (time.Time, error) {
	fields := strings.Fields(strings.TrimPrefix(s, "@"))
	if len(fields) != 2 {
		return time.Time{}, Errorf(api.ErrVcs, "cannot parse date %q (raw dates are '@<seconds> <offset>')", s)
	}
	sec, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return time.Time{}, Errorf(api.ErrVcs, "cannot parse date %q: %s", s, err)
	}
	zone, err := time.Parse("-0700", fields[1])
	if err != nil {
		return time.Time{}, Errorf(api.ErrVcs, "cannot parse date %q: %s", s, err)
	}
	return time.Unix(sec, 0).In(zone.Location()), nil
}
