/*
	Engine backed by the system git binary.

	This is the default engine: whatever quirks the host's git has,
	repositories made here behave exactly like repositories made by
	hand, because they are.  Every operation shells out; nothing is
	parsed from git's output except the one sha we ask rev-parse for.
*/
package gitcli

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	log "github.com/sirupsen/logrus"
	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/relic/api"
	"github.com/polydawn/relic/fs"
	"github.com/polydawn/relic/vcs"
)

var _ vcs.Engine = Engine{}

type Engine struct{}

func (Engine) Name() string         { return "gitcli" }
func (Engine) StoreDirName() string { return ".git" }

func (e Engine) InitStore(ctx context.Context, dir fs.AbsolutePath) error {
	_, err := e.run(ctx, dir, nil, "init", "--quiet")
	return err
}

func (e Engine) StageAll(ctx context.Context, workTree fs.AbsolutePath) error {
	// '--all' makes deletions stage too, so the index ends up
	// mirroring the working tree instead of merely growing toward it.
	_, err := e.run(ctx, workTree, nil, "add", "--all", ".")
	return err
}

func (e Engine) Commit(ctx context.Context, workTree fs.AbsolutePath, meta api.CommitMeta) (string, error) {
	args := []string{
		// Identity comes from flags, never from host git config: same
		// inputs, same history, any machine.  Signing is pinned off; a
		// host gpg setup could stall waiting for a passphrase.
		"-c", "user.name=" + vcs.DefaultIdentityName,
		"-c", "user.email=" + vcs.DefaultIdentityEmail,
		"-c", "commit.gpgsign=false",
		"commit", "--quiet", "--allow-empty", "-m", meta.Message,
	}
	var env []string
	if meta.Author != "" {
		args = append(args, "--author="+meta.Author)
	}
	if meta.Date != "" {
		// '--date' covers the author date only; the committer date
		// rides in on the environment.
		args = append(args, "--date="+meta.Date)
		env = append(env, "GIT_COMMITTER_DATE="+meta.Date)
	}
	if _, err := e.run(ctx, workTree, env, args...); err != nil {
		return "", err
	}
	out, err := e.run(ctx, workTree, nil, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return validateSha(out)
}

func (e Engine) CheckoutHead(ctx context.Context, workTree fs.AbsolutePath) error {
	_, err := e.run(ctx, workTree, nil, "reset", "--quiet", "--hard", "HEAD")
	return err
}

func (Engine) run(ctx context.Context, dir fs.AbsolutePath, extraEnv []string, args ...string) (out string, err error) {
	defer RequireErrorHasCategory(&err, api.ErrorCategory(""))
	log.Debugf("gitcli: run %v (in %s)", args, dir)
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir.String()
	if len(extraEnv) > 0 {
		cmd.Env = append(os.Environ(), extraEnv...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		log.Debugf("gitcli: run %v failed: %s", args, err)
		if ctx.Err() != nil {
			return "", Errorf(api.ErrCancelled, "cancelled")
		}
		return "", Errorf(api.ErrVcs, "git %s: %s: %s",
			verb(args), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// verb names the git subcommand in an arg list, skipping any leading
// "-c k=v" config pairs.
func verb(args []string) string {
	for i := 0; i < len(args); i++ {
		if args[i] == "-c" {
			i++
			continue
		}
		return args[i]
	}
	return args[0]
}

// validateSha trims and validates sha as a git sha, returning the valid sha xor an error.
func validateSha(sha string) (string, error) {
	if len(sha) == 40 || len(sha) == 41 && sha[40] == '\n' {
		return sha[0:40], nil
	}
	return "", Errorf(api.ErrVcs, "sha not 40 or 41 (with a \\n) characters: %q", sha)
}
