/*
	Resolution of per-release commit metadata from an operator-supplied
	override directory.

	The convention: a directory holding files named `<releaseID>-msg`,
	`<releaseID>-author`, and `<releaseID>-date`, each optional, each
	consulted independently.  Anything missing, unreadable, or empty
	falls back silently -- half-filled metadata dirs are normal (an operator who
	knows the date of three releases out of forty should not have to
	invent the other thirty-seven), so nothing here is ever fatal.
*/
package relmeta

import (
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/polydawn/relic/api"
)

/*
	Resolve returns the best-available commit metadata for a release.

	The message is the override file's full content, or a generated
	"Import release <releaseID>" when absent.  Author and date are the
	first line of their files, whitespace-trimmed, or empty (meaning
	"engine defaults").  An empty metaDir disables all lookups.
*/
func Resolve(metaDir, releaseID string) api.CommitMeta {
	meta := api.CommitMeta{
		Message: fmt.Sprintf("Import release %s", releaseID),
	}
	if metaDir == "" {
		return meta
	}
	if body, ok := read(metaDir, releaseID, "msg"); ok {
		meta.Message = body
	}
	if body, ok := read(metaDir, releaseID, "author"); ok {
		meta.Author = firstLine(body)
	}
	if body, ok := read(metaDir, releaseID, "date"); ok {
		meta.Date = firstLine(body)
	}
	return meta
}

func read(metaDir, releaseID, key string) (string, bool) {
	body, err := ioutil.ReadFile(filepath.Join(metaDir, releaseID+"-"+key))
	if err != nil || len(body) == 0 {
		return "", false
	}
	return string(body), true
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
