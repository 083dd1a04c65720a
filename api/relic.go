/*
	Core types shared across the relic packages.

	The heuristic for what belongs here is roughly the same as for any
	API package: values that cross package seams, and the vocabulary
	needed to talk about them.  Parsing heuristics, filesystem work,
	and the import state machine live in their own packages.
*/
package api

import (
	"strings"
)

/*
	ReleaseDescriptor names one release archive, as derived from its filename.

	Derived once per input archive and immutable afterward.  All descriptors
	in a single import run must agree on ProjectName; the orchestrator
	enforces this before any other work begins.
*/
type ReleaseDescriptor struct {
	ProjectName string // project part of the filename, e.g. "frob" for "frob-1.2.tar.gz"
	ReleaseID   string // version-ish token, e.g. "1.2"
	Extension   string // recognized archive suffix without the leading dot, e.g. "tar.gz"
	SourcePath  string // the archive path exactly as the operator gave it
}

// Filename reassembles the semantic parts (name, separator elided, id, extension).
// Useful mostly for messages; the original filename may have differed in
// separator or casing.
func (d ReleaseDescriptor) Filename() string {
	return d.ProjectName + "-" + d.ReleaseID + "." + d.Extension
}

/*
	CommitMeta is the best-available metadata for one release's commit.

	Empty Author or Date mean "let the engine use its defaults";
	Message is always non-empty by the time it reaches an engine
	(the resolver generates one when no override file exists).
*/
type CommitMeta struct {
	Message string
	Author  string // "Name <email>" form, passed to the engine
	Date    string // freetext date, passed to the engine verbatim
}

/*
	ImportRequest is the fully-resolved instruction set for one run.

	The CLI (or any other frontend) is responsible for having already
	read the readme prefix file and validated that the metadata dir
	exists; by the time this struct is built, everything in it is
	ready to use with no further config loading.
*/
type ImportRequest struct {
	Archives     []string // archive paths, in commit order
	KnownNames   []string // optional literal project-name prefixes for parse disambiguation
	ReadmePrefix string   // optional text to prepend to each release's README; empty disables
	MetaDir      string   // optional dir holding <releaseID>-msg|-author|-date files; empty disables
}

// ReleaseResult reports one successfully committed release.
type ReleaseResult struct {
	Descriptor ReleaseDescriptor
	CommitID   string // engine-reported commit identifier (git sha)
}

// ImportResult is the terminal report of a whole run.
type ImportResult struct {
	RepoPath string // the persistent repository directory, e.g. "frob-repos"
	Releases []ReleaseResult
}

/*
	ArchiveKind enumerates the supported container families.
	It is a closed set; dispatch on it exhaustively.
*/
type ArchiveKind string

const (
	ArchiveKind_Tar = ArchiveKind("tar")
	ArchiveKind_Zip = ArchiveKind("zip")
)

/*
	Compression enumerates how a tar stream is wrapped.
	Zip containers carry their own compression and always use Compression_None.
*/
type Compression string

const (
	Compression_None  = Compression("")
	Compression_Gzip  = Compression("gz")
	Compression_Bzip2 = Compression("bz2")
	Compression_Xz    = Compression("xz")
)

/*
	ExtensionInfo binds one recognized filename suffix to its container
	family and compression.  Suffix is stored lowercase and includes the
	leading dot.
*/
type ExtensionInfo struct {
	Suffix      string
	Kind        ArchiveKind
	Compression Compression
}

/*
	Extensions is the fixed, ordered table of recognized archive suffixes.

	Order matters: longer suffixes come first so ".tar.gz" wins over a
	hypothetical ".gz" and the match is unambiguous.  Matching is
	ASCII-case-insensitive ("case variants" are accepted), but the
	canonical spelling reported in a ReleaseDescriptor is the lowercase
	form seen here.
*/
var Extensions = []ExtensionInfo{
	{".tar.bz2", ArchiveKind_Tar, Compression_Bzip2},
	{".tar.gz", ArchiveKind_Tar, Compression_Gzip},
	{".tar.xz", ArchiveKind_Tar, Compression_Xz},
	{".tbz2", ArchiveKind_Tar, Compression_Bzip2},
	{".tgz", ArchiveKind_Tar, Compression_Gzip},
	{".txz", ArchiveKind_Tar, Compression_Xz},
	{".tar", ArchiveKind_Tar, Compression_None},
	{".zip", ArchiveKind_Zip, Compression_None},
}

/*
	MatchExtension finds the recognized suffix of a filename, case-folded.
	Returns the table entry and true, or a zero entry and false when the
	filename ends in no recognized suffix.

	This is the single source of truth for kind selection: purely by
	filename suffix, never by content sniffing.
*/
func MatchExtension(filename string) (ExtensionInfo, bool) {
	lower := strings.ToLower(filename)
	for _, ext := range Extensions {
		if strings.HasSuffix(lower, ext.Suffix) && len(filename) > len(ext.Suffix) {
			return ext, true
		}
	}
	return ExtensionInfo{}, false
}
