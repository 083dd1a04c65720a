package archive

import (
	"archive/tar"
	"compress/bzip2"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xi2/xz"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/relic/api"
	"github.com/polydawn/relic/fs"
)

/*
	tarArchive handles the tar family.  The stream can only be read
	front to back, so the file handle is kept and rewound: once for the
	validating scan at open, once more per Unpack.
*/
type tarArchive struct {
	path      string
	f         *os.File
	comp      api.Compression
	members   []fs.Metadata
	rawNames  []string // names exactly as the stream states them, for re-read verification
	prefix    fs.RelPath
	hasPrefix bool
}

func openTar(ctx context.Context, f *os.File, path string, comp api.Compression) (_ *tarArchive, err error) {
	defer RequireErrorHasCategory(&err, api.ErrorCategory(""))

	a := &tarArchive{path: path, f: f, comp: comp}
	if err := a.scan(ctx); err != nil {
		return nil, err
	}
	a.prefix, a.hasPrefix = commonPrefix(a.members)
	return a, nil
}

func (a *tarArchive) Kind() api.ArchiveKind      { return api.ArchiveKind_Tar }
func (a *tarArchive) Members() []fs.Metadata     { return a.members }
func (a *tarArchive) Prefix() (fs.RelPath, bool) { return a.prefix, a.hasPrefix }
func (a *tarArchive) Close() error               { return a.f.Close() }

/*
	freshReader rewinds the file and restacks decompression.
	Compression is chosen by the suffix the archive was opened with,
	never by sniffing; a gzip body in a file named ".tar" is corrupt,
	not a guessing game.
*/
func (a *tarArchive) freshReader() (io.Reader, error) {
	if _, err := a.f.Seek(0, io.SeekStart); err != nil {
		return nil, Errorf(api.ErrInoperablePath, "cannot read archive: %s", err)
	}
	switch a.comp {
	case api.Compression_None:
		return a.f, nil
	case api.Compression_Gzip:
		r, err := gzip.NewReader(a.f)
		if err != nil {
			return nil, Errorf(api.ErrArchiveCorrupt, "corrupt tar compression: %s", err)
		}
		return r, nil
	case api.Compression_Bzip2:
		return bzip2.NewReader(a.f), nil
	case api.Compression_Xz:
		r, err := xz.NewReader(a.f, 0)
		if err != nil {
			return nil, Errorf(api.ErrArchiveCorrupt, "corrupt tar compression: %s", err)
		}
		return r, nil
	default:
		panic(fmt.Errorf("invalid compression %q", a.comp))
	}
}

/*
	scan reads the whole stream once, converting and validating every
	header.  No bytes land on disk during this pass.
*/
func (a *tarArchive) scan(ctx context.Context) error {
	r, err := a.freshReader()
	if err != nil {
		return err
	}
	tr := tar.NewReader(r)
	for {
		thdr, err := tr.Next()
		if err == io.EOF {
			break // end of archive
		}
		if err != nil {
			return Errorf(api.ErrArchiveCorrupt, "corrupt tar: %s", err)
		}
		if ctx.Err() != nil {
			return Errorf(api.ErrCancelled, "cancelled")
		}
		if thdr.Typeflag == tar.TypeXGlobalHeader {
			continue // pax global metadata, not a member
		}
		if err := checkMemberName(a.path, thdr.Name); err != nil {
			return err
		}
		fmeta := fs.Metadata{}
		if err := tarHdrToMetadata(thdr, &fmeta); err != nil {
			return err
		}
		switch fmeta.Type {
		case fs.Type_File, fs.Type_Dir, fs.Type_Symlink:
			// Symlink targets are left alone: they're content, and a
			// dangling or upward-pointing link is representable in a
			// commit without ever being traversed here.
		case fs.Type_Hardlink:
			// Hardlink targets name another member, so they get the
			// same screening member names do.
			if err := checkMemberName(a.path, fmeta.Linkname); err != nil {
				return err
			}
		default:
			return Errorf(api.ErrArchiveUnsupported,
				"cannot import %q: member %q is a %s; only files, dirs, and links can be committed",
				filepath.Base(a.path), fmeta.Name, fmeta.Type)
		}
		a.members = append(a.members, fmeta)
		a.rawNames = append(a.rawNames, thdr.Name)
	}
	return nil
}

func (a *tarArchive) Unpack(ctx context.Context, dest fs.AbsolutePath, opts UnpackOptions, mon api.Monitor) (err error) {
	defer RequireErrorHasCategory(&err, api.ErrorCategory(""))

	if opts.StripPrefix && !a.hasPrefix {
		return Errorf(api.ErrUsage, "archive %q has no common prefix to strip", filepath.Base(a.path))
	}
	r, err := a.freshReader()
	if err != nil {
		return err
	}
	tr := tar.NewReader(r)
	p := newPlacer(dest, opts, mon)
	idx := 0
	for {
		thdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Errorf(api.ErrArchiveCorrupt, "corrupt tar: %s", err)
		}
		if ctx.Err() != nil {
			return Errorf(api.ErrCancelled, "cancelled")
		}
		if thdr.Typeflag == tar.TypeXGlobalHeader {
			continue
		}
		// The scan pass validated everything by position; a stream that
		// disagrees with it now was swapped out from under us.
		if idx >= len(a.rawNames) || thdr.Name != a.rawNames[idx] {
			return Errorf(api.ErrArchiveCorrupt, "corrupt tar: archive changed between scan and unpack")
		}
		fmeta := a.members[idx]
		idx++
		if opts.StripPrefix {
			fmeta.Name, err = rebase(fmeta.Name, a.prefix, "member")
			if err != nil {
				return err
			}
			if fmeta.Type == fs.Type_Hardlink {
				linkname, err := rebase(fs.MustRelPath(fmeta.Linkname), a.prefix, "hardlink target")
				if err != nil {
					return err
				}
				fmeta.Linkname = linkname.String()
			}
		}
		var body io.Reader
		if fmeta.Type == fs.Type_File {
			body = tr
		}
		if err := p.place(fmeta, body); err != nil {
			return err
		}
	}
	if idx != len(a.rawNames) {
		return Errorf(api.ErrArchiveCorrupt, "corrupt tar: archive changed between scan and unpack")
	}
	return p.finish()
}

// Mutate fs.Metadata fields to match the given tar header.
// The name has already passed checkMemberName; conversion may still
// refuse the entry's type.
func tarHdrToMetadata(hdr *tar.Header, fmeta *fs.Metadata) error {
	fmeta.Name = fs.MustRelPath(hdr.Name)
	fmeta.Type = tarTypeToFsType(hdr.Typeflag)
	if fmeta.Type == fs.Type_Invalid {
		return Errorf(api.ErrArchiveCorrupt, "corrupt tar: %q is not a known file type", hdr.Typeflag)
	}
	fmeta.Perms = fs.Perms(hdr.Mode & 07777)
	fmeta.Uid = uint32(hdr.Uid)
	fmeta.Gid = uint32(hdr.Gid)
	fmeta.Size = hdr.Size
	fmeta.Linkname = hdr.Linkname
	fmeta.Mtime = hdr.ModTime
	return nil
}

func tarTypeToFsType(tarType byte) fs.Type {
	switch tarType {
	case tar.TypeReg, tar.TypeRegA:
		return fs.Type_File
	case tar.TypeLink:
		return fs.Type_Hardlink
	case tar.TypeSymlink:
		return fs.Type_Symlink
	case tar.TypeChar:
		return fs.Type_CharDevice
	case tar.TypeBlock:
		return fs.Type_Device
	case tar.TypeDir:
		return fs.Type_Dir
	case tar.TypeFifo:
		return fs.Type_NamedPipe
	// Notice that tar does not have a type for socket files
	default:
		return fs.Type_Invalid
	}
}
