/*
	Helper functions for emitting structured logs to the api.Monitor.

	These functions encompass the common lifecycle events of an import,
	and using them A) saves typing and B) keeps the common stuff formatted
	in a common way between the archive handlers and the importer.
	Callers can of course also write their own log events raw; it is freetext.
*/
package log

import (
	"fmt"
	"time"

	"github.com/polydawn/relic/api"
	"github.com/polydawn/relic/fs"
)

// Emitted whenever an archive names a file without naming its parent dirs first.
func DirectoryInferred(mon api.Monitor, inferred, path fs.RelPath) {
	if mon.Chan == nil {
		return
	}
	mon.Chan <- api.Event{
		Log: &api.Event_Log{
			Time:  time.Now(),
			Level: api.LogDebug,
			Msg:   fmt.Sprintf("inferred directory: %q (parent of %q)", inferred, path),
			Detail: [][2]string{
				{"inferred", inferred.String()},
				{"path", path.String()},
			},
		},
	}
}

func ReleaseParsed(mon api.Monitor, d api.ReleaseDescriptor) {
	if mon.Chan == nil {
		return
	}
	mon.Chan <- api.Event{
		Log: &api.Event_Log{
			Time:  time.Now(),
			Level: api.LogInfo,
			Msg:   fmt.Sprintf("parsed %q: project %q, release %q", d.Filename(), d.ProjectName, d.ReleaseID),
			Detail: [][2]string{
				{"projectName", d.ProjectName},
				{"releaseID", d.ReleaseID},
				{"extension", d.Extension},
			},
		},
	}
}

// Emitted when an archive's sole top-level dir is being dropped from committed paths.
func PrefixStripped(mon api.Monitor, archive string, prefix fs.RelPath) {
	if mon.Chan == nil {
		return
	}
	mon.Chan <- api.Event{
		Log: &api.Event_Log{
			Time:  time.Now(),
			Level: api.LogDebug,
			Msg:   fmt.Sprintf("stripping common prefix %q from members of %q", prefix, archive),
			Detail: [][2]string{
				{"archive", archive},
				{"prefix", prefix.String()},
			},
		},
	}
}

func StoreBorrowed(mon api.Monitor, repoPath, workPath fs.AbsolutePath) {
	if mon.Chan == nil {
		return
	}
	mon.Chan <- api.Event{
		Log: &api.Event_Log{
			Time:  time.Now(),
			Level: api.LogDebug,
			Msg:   fmt.Sprintf("store moved from %q to %q", repoPath, workPath),
			Detail: [][2]string{
				{"from", repoPath.String()},
				{"to", workPath.String()},
			},
		},
	}
}

func StoreReturned(mon api.Monitor, workPath, repoPath fs.AbsolutePath) {
	if mon.Chan == nil {
		return
	}
	mon.Chan <- api.Event{
		Log: &api.Event_Log{
			Time:  time.Now(),
			Level: api.LogDebug,
			Msg:   fmt.Sprintf("store returned from %q to %q", workPath, repoPath),
			Detail: [][2]string{
				{"from", workPath.String()},
				{"to", repoPath.String()},
			},
		},
	}
}

// Emitted after a readme file got the release banner prepended.
func ReadmeAmended(mon api.Monitor, readme fs.RelPath) {
	if mon.Chan == nil {
		return
	}
	mon.Chan <- api.Event{
		Log: &api.Event_Log{
			Time:  time.Now(),
			Level: api.LogDebug,
			Msg:   fmt.Sprintf("amended %q with the release banner", readme),
			Detail: [][2]string{
				{"readme", readme.String()},
			},
		},
	}
}

/*
	Emitted at each step of handling a release: phase is the releaseID,
	desc the step within it, and prog/work count fully committed
	releases against the whole sequence.
*/
func Progress(mon api.Monitor, phase, desc string, prog, work int) {
	if mon.Chan == nil {
		return
	}
	mon.Chan <- api.Event{
		Progress: &api.Event_Progress{
			Phase:     phase,
			Desc:      desc,
			TotalProg: prog,
			TotalWork: work,
		},
	}
}

func ReleaseCommitted(mon api.Monitor, d api.ReleaseDescriptor, commitID string) {
	if mon.Chan == nil {
		return
	}
	mon.Chan <- api.Event{
		Log: &api.Event_Log{
			Time:  time.Now(),
			Level: api.LogInfo,
			Msg:   fmt.Sprintf("committed release %q as %s", d.ReleaseID, commitID),
			Detail: [][2]string{
				{"releaseID", d.ReleaseID},
				{"commit", commitID},
			},
		},
	}
}
