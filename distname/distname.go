/*
	Parsing of release distribution filenames into (project name,
	release identifier, archive extension).

	The heuristics here are frozen: repositories built by earlier runs
	depend on the same filename yielding the same split forever, so the
	tie-breaks below are documented contract, not implementation detail.
	Resist the urge to make them smarter.

	The rules, in order:

	  - The extension must be one of the recognized archive suffixes
	    (see api.Extensions); no suffix, no parse.
	  - When known names are supplied, the longest one that is a literal
	    (case-sensitive) prefix of the remaining stem names the project.
	  - Otherwise the release token starts at the leftmost digit of the
	    stem.  One separator ('-', '_', or '.') immediately before it is
	    consumed as the boundary; the name is everything before that.
	    Leftmost, not longest: "iptables2-1.0" splits as ("iptables",
	    "2-1.0"), favoring simple names over greedy ones.  Operators
	    with digit-bearing project names use the known-names list.
*/
package distname

import (
	"path/filepath"
	"strings"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/relic/api"
)

/*
	Split breaks a bare filename (no directory components) into its
	project name, release identifier, and recognized extension.

	May return errors of category:

	  - api.ErrArchiveUnsupported -- filename ends in no recognized suffix
	  - api.ErrNameParse -- no (name, releaseID) pair could be derived
*/
func Split(filename string, knownNames []string) (name, releaseID string, ext api.ExtensionInfo, err error) {
	ext, ok := api.MatchExtension(filename)
	if !ok {
		return "", "", api.ExtensionInfo{}, Errorf(api.ErrArchiveUnsupported,
			"%q ends in no recognized archive suffix", filename)
	}
	stem := filename[:len(filename)-len(ext.Suffix)]

	// Known names take precedence: of the entries that literally prefix
	// the stem, the longest wins.  (Case-sensitive: the operator is
	// naming files they can see.)
	if known := longestKnownPrefix(stem, knownNames); known != "" {
		releaseID := stem[len(known):]
		// Exactly one boundary separator is dropped; any further ones
		// belong to the release id.
		if releaseID != "" && isSeparator(releaseID[0]) {
			releaseID = releaseID[1:]
		}
		if releaseID == "" {
			return "", "", api.ExtensionInfo{}, Errorf(api.ErrNameParse,
				"cannot parse %q: nothing left after known name %q to use as a release id", filename, known)
		}
		return known, releaseID, ext, nil
	}

	// Heuristic road: the release token starts at the leftmost digit.
	digitAt := strings.IndexAny(stem, "0123456789")
	if digitAt < 0 {
		return "", "", api.ExtensionInfo{}, Errorf(api.ErrNameParse,
			"cannot parse %q: no version-like token found (use a known-names list to help)", filename)
	}
	nameEnd := digitAt
	if nameEnd > 0 && isSeparator(stem[nameEnd-1]) {
		nameEnd--
	}
	if nameEnd == 0 {
		return "", "", api.ExtensionInfo{}, Errorf(api.ErrNameParse,
			"cannot parse %q: no project name before the version (use a known-names list to help)", filename)
	}
	return stem[:nameEnd], stem[digitAt:], ext, nil
}

/*
	Parse derives the full release descriptor for an archive path.
	The directory part is ignored for parsing but kept as SourcePath.
*/
func Parse(path string, knownNames []string) (api.ReleaseDescriptor, error) {
	name, releaseID, ext, err := Split(filepath.Base(path), knownNames)
	if err != nil {
		return api.ReleaseDescriptor{}, err
	}
	return api.ReleaseDescriptor{
		ProjectName: name,
		ReleaseID:   releaseID,
		Extension:   ext.Suffix[1:], // canonical lowercase, sans leading dot
		SourcePath:  path,
	}, nil
}

func longestKnownPrefix(stem string, knownNames []string) string {
	best := ""
	for _, known := range knownNames {
		if known == "" {
			continue
		}
		if strings.HasPrefix(stem, known) && len(known) > len(best) {
			best = known
		}
	}
	return best
}

// Separators that may sit between a project name and its version.
// Note '.' is included: "proj.1.0.tar.gz" is a shape that exists in
// the wild, even though it makes the stem ambiguous to the eye.
func isSeparator(c byte) bool {
	return c == '-' || c == '_' || c == '.'
}
