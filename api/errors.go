package api

import (
	"github.com/warpfork/go-errcat"
)

type ErrorCategory string
type ExitCode int

const (
	ExitSuccess                                   = ExitCode(0)
	ExitUsage, ErrUsage                           = ExitCode(1), ErrorCategory("relic-usage-error")         // Indicates some piece of user input to the command was invalid and unrunnable.
	ExitPanic                                     = ExitCode(2)                                             // Placeholder.  We don't use this.  '2' happens when golang exits due to panic.
	ExitNameParse, ErrNameParse                   = ExitCode(3), ErrorCategory("relic-name-unparsable")     // An archive filename didn't yield a (name, releaseID) pair, or two archives disagreed on the project name.
	ExitArchiveUnsupported, ErrArchiveUnsupported = ExitCode(4), ErrorCategory("relic-archive-unsupported") // An archive filename ends in no recognized suffix, or a member has a type (fifo, device) commits can't hold.
	ExitArchiveCorrupt, ErrArchiveCorrupt         = ExitCode(5), ErrorCategory("relic-archive-corrupt")     // An archive could be identified but not read: truncated, bad magic bytes, codec errors.
	ExitBreakout, ErrBreakout                     = ExitCode(6), ErrorCategory("relic-archive-breakout")    // An archive member path is absolute or contains "..": extraction refused before any bytes land.
	ExitRepoCollision, ErrRepoCollision           = ExitCode(7), ErrorCategory("relic-repo-collision")      // The target repo dir exists but isn't a repository this tool can adopt.
	ExitVcs, ErrVcs                               = ExitCode(8), ErrorCategory("relic-vcs-error")           // The version control engine failed: init, stage, commit, or checkout.
	ExitInoperablePath, ErrInoperablePath         = ExitCode(9), ErrorCategory("relic-inoperable-path")     // Filesystem trouble outside archive content: permissions, crossing mounts, missing inputs.
	ExitCancelled, ErrCancelled                   = ExitCode(10), ErrorCategory("relic-cancelled")          // The operation timed out or was cancelled.
	ExitInternal, ErrInternal                     = ExitCode(120), ErrorCategory("relic-internal-error")    // Errors that shouldn't happen.  Please report these.
)

/*
	ExitCodeForError maps an error to the process exit code documented
	for its category.  Nil maps to ExitSuccess; errors carrying no
	ErrorCategory map to ExitInternal.
*/
func ExitCodeForError(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}
	cat, ok := errcat.Category(err).(ErrorCategory)
	if !ok {
		return ExitInternal
	}
	switch cat {
	case ErrUsage:
		return ExitUsage
	case ErrNameParse:
		return ExitNameParse
	case ErrArchiveUnsupported:
		return ExitArchiveUnsupported
	case ErrArchiveCorrupt:
		return ExitArchiveCorrupt
	case ErrBreakout:
		return ExitBreakout
	case ErrRepoCollision:
		return ExitRepoCollision
	case ErrVcs:
		return ExitVcs
	case ErrInoperablePath:
		return ExitInoperablePath
	case ErrCancelled:
		return ExitCancelled
	default:
		return ExitInternal
	}
}
