/*
	Archive access: opening release archives, validating their member
	names, and unpacking them into a working directory.

	The set of supported container families is closed -- tar (with its
	compression wrappings) and zip -- and selection is purely by filename
	suffix.  Content sniffing would give a mislabeled archive *some*
	treatment instead of a clean refusal, and mislabeled archives are
	exactly the inputs that deserve refusing loudly.

	Member names are validated in full before any extraction begins:
	Open scans the whole archive and refuses it on the first hostile
	name, so by the time Unpack runs, every name is known to be tame.
	A half-extracted hostile archive is a worse outcome than reading
	the stream twice.
*/
package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/relic/api"
	"github.com/polydawn/relic/fs"
	"github.com/polydawn/relic/fsOp"
	"github.com/polydawn/relic/mixins/log"
)

type Archive interface {
	// Kind reports the container family.
	Kind() api.ArchiveKind

	// Members lists every entry, in archive order, with names already
	// validated and normalized.  Symlink and hardlink targets ride
	// along in the Linkname field.
	Members() []fs.Metadata

	// Prefix reports the sole top-level directory every member lives
	// under, if the archive has that shape.
	Prefix() (fs.RelPath, bool)

	// Unpack extracts the members under dest, which must already exist
	// and be a directory.  Safe to call more than once (the stream is
	// re-read from the start each time).
	Unpack(ctx context.Context, dest fs.AbsolutePath, opts UnpackOptions, mon api.Monitor) error

	// Close releases the underlying file handle.
	Close() error
}

type UnpackOptions struct {
	StripPrefix bool // drop the common top-level dir from placed paths
	SkipChown   bool // skip ownership restoration (extracting as a regular user)
}

/*
	Open reads the archive at the given path and returns a handle to it,
	fully scanned and validated.

	Which handler opens it is decided by filename suffix alone; a path
	ending in no recognized suffix is refused with ErrArchiveUnsupported
	before the file is even touched.
*/
func Open(ctx context.Context, path string) (_ Archive, err error) {
	defer RequireErrorHasCategory(&err, api.ErrorCategory(""))

	ext, ok := api.MatchExtension(filepath.Base(path))
	if !ok {
		return nil, Errorf(api.ErrArchiveUnsupported, "%q ends in no recognized archive suffix", filepath.Base(path))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, Errorf(api.ErrInoperablePath, "cannot open archive: %s", err)
	}
	var arch Archive
	switch ext.Kind {
	case api.ArchiveKind_Tar:
		arch, err = openTar(ctx, f, path, ext.Compression)
	case api.ArchiveKind_Zip:
		arch, err = openZip(ctx, f, path)
	default:
		panic(fmt.Errorf("invalid archive kind %q", ext.Kind))
	}
	if err != nil {
		f.Close()
		return nil, err
	}
	return arch, nil
}

/*
	checkMemberName rejects raw member names that could place bytes
	outside the unpack dir: absolute paths (unix or dos flavored) and
	any name containing a ".." segment.

	This runs on the name string exactly as the archive states it,
	before any normalization.  "a/b/../c" would stay inside the tree
	after cleaning, but archivers disagree enough about normalization
	that any updot is treated as hostile.
*/
func checkMemberName(archivePath, raw string) error {
	if raw == "" {
		return Errorf(api.ErrArchiveCorrupt, "corrupt archive: empty member name")
	}
	if raw[0] == '/' || raw[0] == '\\' {
		return breakout(archivePath, raw, "absolute paths are invalid")
	}
	if len(raw) >= 2 && raw[1] == ':' && isDriveLetter(raw[0]) {
		return breakout(archivePath, raw, "absolute paths are invalid")
	}
	for _, seg := range strings.FieldsFunc(raw, isPathSep) {
		if seg == ".." {
			return breakout(archivePath, raw, "paths that use '..' to leave the base dir are invalid")
		}
	}
	return nil
}

func isPathSep(r rune) bool { return r == '/' || r == '\\' }

func isDriveLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func breakout(archivePath, member, why string) error {
	return ErrorDetailed(api.ErrBreakout,
		fmt.Sprintf("refusing %q: member %q: %s", filepath.Base(archivePath), member, why),
		map[string]string{
			"archive": archivePath,
			"member":  member,
		},
	)
}

/*
	commonPrefix reports the one top-level directory every member lives
	under, if the archive has that shape.  A top-level member equal to
	the candidate must itself be a directory: a lone top-level *file*
	means the archive is flat and there is nothing to strip.
*/
func commonPrefix(members []fs.Metadata) (fs.RelPath, bool) {
	prefix := fs.RelPath{}
	for _, m := range members {
		if m.Name == (fs.RelPath{}) {
			continue // a "./" member is the unpack root itself; it casts no vote
		}
		first := m.Name.Split()[1]
		if prefix == (fs.RelPath{}) {
			prefix = first
		} else if prefix != first {
			return fs.RelPath{}, false
		}
		if m.Name == first && m.Type != fs.Type_Dir {
			return fs.RelPath{}, false
		}
	}
	if prefix == (fs.RelPath{}) {
		return fs.RelPath{}, false // empty archive, or root entries only
	}
	return prefix, true
}

/*
	rebase strips the leading prefix dir from a name.  The prefix member
	itself maps to the zero RelPath, which placement skips.

	Member names can't miss the prefix (commonPrefix saw all of them),
	but hardlink targets are their own strings and a hostile archive can
	aim one anywhere, so the shape is re-checked here.
*/
func rebase(name, prefix fs.RelPath, what string) (fs.RelPath, error) {
	if name == prefix {
		return fs.RelPath{}, nil
	}
	ns, ps := name.String(), prefix.String()
	if !strings.HasPrefix(ns, ps+"/") {
		return fs.RelPath{}, Errorf(api.ErrArchiveCorrupt,
			"corrupt archive: %s %q is outside the common prefix %q", what, name, prefix)
	}
	return fs.MustRelPath(ns[len(ps)+1:]), nil
}

// Metadata for a directory the archive names only implicitly.
func defaultDirMetadata() fs.Metadata {
	return fs.Metadata{
		Type:  fs.Type_Dir,
		Perms: 0755,
		Mtime: fs.DefaultMtime,
	}
}

/*
	placer tracks placement state for one unpack pass: which dirs exist
	so far (for conjuring implicit parents) and which dirs were placed
	(for re-paving their mtimes once everything inside them has landed).
*/
type placer struct {
	dest       fs.AbsolutePath
	opts       UnpackOptions
	mon        api.Monitor
	dirs       map[fs.RelPath]struct{}
	dirsPlaced []fs.Metadata
}

func newPlacer(dest fs.AbsolutePath, opts UnpackOptions, mon api.Monitor) *placer {
	return &placer{
		dest: dest,
		opts: opts,
		mon:  mon,
		// Seed with the root: it always exists and is never re-attribed.
		dirs: map[fs.RelPath]struct{}{{}: {}},
	}
}

/*
	place puts one member on disk, conjuring implicit parent dirs first.
	The name in fmeta must already be in final (possibly rebased) form.
	Members that map to the root itself are skipped: the scratch dir's
	own attributes never survive into a commit anyway.
*/
func (p *placer) place(fmeta fs.Metadata, body io.Reader) error {
	if fmeta.Name == (fs.RelPath{}) {
		return nil
	}
	// Infer parents, if necessary.  The tar format allows implicit parent
	// dirs, and zip tools skip writing dir entries often enough that the
	// same tolerance applies there.
	for _, parent := range fmeta.Name.SplitParent() {
		if _, exists := p.dirs[parent]; exists {
			continue
		}
		log.DirectoryInferred(p.mon, parent, fmeta.Name)
		conjured := defaultDirMetadata()
		conjured.Name = parent
		p.dirs[parent] = struct{}{}
		p.dirsPlaced = append(p.dirsPlaced, conjured)
		if err := fsOp.PlaceEntry(p.dest, conjured, nil, p.opts.SkipChown); err != nil {
			return err
		}
	}
	if fmeta.Type == fs.Type_Dir {
		p.dirs[fmeta.Name] = struct{}{}
		p.dirsPlaced = append(p.dirsPlaced, fmeta)
	}
	return fsOp.PlaceEntry(p.dest, fmeta, body, p.opts.SkipChown)
}

/*
	finish re-paves the mtimes of every placed dir, deepest first.
	Placing anything inside a dir bumps the dir's mtime, so one
	bottom-up pass at the end settles them all.
*/
func (p *placer) finish() error {
	sort.SliceStable(p.dirsPlaced, func(i, j int) bool {
		return depth(p.dirsPlaced[i].Name) > depth(p.dirsPlaced[j].Name)
	})
	for _, fmeta := range p.dirsPlaced {
		if err := fsOp.RepaveDirTimes(p.dest, fmeta); err != nil {
			return err
		}
	}
	return nil
}

func depth(name fs.RelPath) int {
	return strings.Count(name.String(), "/")
}
