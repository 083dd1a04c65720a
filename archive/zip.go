package archive

import (
	"archive/zip"
	"context"
	"encoding/binary"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/relic/api"
	"github.com/polydawn/relic/fs"
)

/*
	zipArchive handles the zip container.  Zip carries a central
	directory and supports random access, so there is no second stream
	pass: the scan walks the directory, and Unpack opens each member
	individually.
*/
type zipArchive struct {
	path      string
	f         *os.File
	zr        *zip.Reader
	members   []fs.Metadata
	files     []*zip.File // parallel to members
	prefix    fs.RelPath
	hasPrefix bool
}

func openZip(ctx context.Context, f *os.File, path string) (_ *zipArchive, err error) {
	defer RequireErrorHasCategory(&err, api.ErrorCategory(""))

	fi, err := f.Stat()
	if err != nil {
		return nil, Errorf(api.ErrInoperablePath, "cannot read archive: %s", err)
	}
	zr, err := zip.NewReader(f, fi.Size())
	if err != nil {
		return nil, Errorf(api.ErrArchiveCorrupt, "corrupt zip: %s", err)
	}
	a := &zipArchive{path: path, f: f, zr: zr}
	if err := a.scan(ctx); err != nil {
		return nil, err
	}
	a.prefix, a.hasPrefix = commonPrefix(a.members)
	return a, nil
}

func (a *zipArchive) Kind() api.ArchiveKind      { return api.ArchiveKind_Zip }
func (a *zipArchive) Members() []fs.Metadata     { return a.members }
func (a *zipArchive) Prefix() (fs.RelPath, bool) { return a.prefix, a.hasPrefix }
func (a *zipArchive) Close() error               { return a.f.Close() }

func (a *zipArchive) scan(ctx context.Context) error {
	for _, zf := range a.zr.File {
		if ctx.Err() != nil {
			return Errorf(api.ErrCancelled, "cancelled")
		}
		if err := checkMemberName(a.path, zf.Name); err != nil {
			return err
		}
		fmeta := fs.Metadata{}
		if err := zipHdrToMetadata(&zf.FileHeader, &fmeta); err != nil {
			return err
		}
		switch fmeta.Type {
		case fs.Type_File, fs.Type_Dir:
		case fs.Type_Symlink:
			// Zip stores a symlink's target as the entry body.
			linkname, err := readZipBody(zf)
			if err != nil {
				return err
			}
			fmeta.Linkname = linkname
		default:
			return Errorf(api.ErrArchiveUnsupported,
				"cannot import %q: member %q is a %s; only files, dirs, and links can be committed",
				filepath.Base(a.path), fmeta.Name, fmeta.Type)
		}
		a.members = append(a.members, fmeta)
		a.files = append(a.files, zf)
	}
	return nil
}

func (a *zipArchive) Unpack(ctx context.Context, dest fs.AbsolutePath, opts UnpackOptions, mon api.Monitor) (err error) {
	defer RequireErrorHasCategory(&err, api.ErrorCategory(""))

	if opts.StripPrefix && !a.hasPrefix {
		return Errorf(api.ErrUsage, "archive %q has no common prefix to strip", filepath.Base(a.path))
	}
	p := newPlacer(dest, opts, mon)
	for i, fmeta := range a.members {
		if ctx.Err() != nil {
			return Errorf(api.ErrCancelled, "cancelled")
		}
		if opts.StripPrefix {
			fmeta.Name, err = rebase(fmeta.Name, a.prefix, "member")
			if err != nil {
				return err
			}
		}
		if fmeta.Type == fs.Type_File {
			r, err := a.files[i].Open()
			if err != nil {
				return Errorf(api.ErrArchiveCorrupt, "corrupt zip: %s", err)
			}
			err = p.place(fmeta, r)
			r.Close()
			if err != nil {
				return err
			}
			continue
		}
		if err := p.place(fmeta, nil); err != nil {
			return err
		}
	}
	return p.finish()
}

func readZipBody(zf *zip.File) (string, error) {
	r, err := zf.Open()
	if err != nil {
		return "", Errorf(api.ErrArchiveCorrupt, "corrupt zip: %s", err)
	}
	defer r.Close()
	bs, err := ioutil.ReadAll(r)
	if err != nil {
		return "", Errorf(api.ErrArchiveCorrupt, "corrupt zip: %s", err)
	}
	return string(bs), nil
}

/*
	Mutate fs.Metadata fields to match the given zip header.

	Mode bits come from the header's best self-description (unix mode
	bits when the archive carries them, dos attrs otherwise); ownership
	comes from the unix2/unix3 extra fields when present, else zero.
	Symlink targets are not handled here: zip stores them as the entry
	body, which the caller reads separately.
*/
func zipHdrToMetadata(hdr *zip.FileHeader, fmeta *fs.Metadata) error {
	fmeta.Name = fs.MustRelPath(hdr.Name)
	mode := hdr.Mode()
	switch {
	case mode&os.ModeSymlink != 0:
		fmeta.Type = fs.Type_Symlink
	case mode.IsDir() || strings.HasSuffix(hdr.Name, "/"):
		fmeta.Type = fs.Type_Dir
	case mode&os.ModeNamedPipe != 0:
		fmeta.Type = fs.Type_NamedPipe
	case mode&os.ModeSocket != 0:
		fmeta.Type = fs.Type_Socket
	case mode&os.ModeCharDevice != 0:
		fmeta.Type = fs.Type_CharDevice
	case mode&os.ModeDevice != 0:
		fmeta.Type = fs.Type_Device
	default:
		fmeta.Type = fs.Type_File
	}
	fmeta.Perms = modeToPerms(mode)
	fmeta.Uid, fmeta.Gid = zipExtraOwnership(hdr.Extra)
	fmeta.Size = int64(hdr.UncompressedSize64)
	fmeta.Mtime = hdr.Modified
	return nil
}

func modeToPerms(mode os.FileMode) fs.Perms {
	perms := fs.Perms(mode.Perm())
	if mode&os.ModeSetuid != 0 {
		perms |= fs.Perms_Setuid
	}
	if mode&os.ModeSetgid != 0 {
		perms |= fs.Perms_Setgid
	}
	if mode&os.ModeSticky != 0 {
		perms |= fs.Perms_Sticky
	}
	return perms
}

/*
	zipExtraOwnership picks uid/gid out of the extra fields.  The newer
	unix3 (0x7875) block wins over the old unix2 (0x7855) one; archives
	written by non-unix tools have neither and report 0,0.

	Info-ZIP writes the unix2 block into central directory records with
	an empty payload (the values live only in the local header, which
	archive/zip does not surface), so a short payload is skipped rather
	than treated as an error.
*/
func zipExtraOwnership(extra []byte) (uid, gid uint32) {
	for len(extra) >= 4 {
		tag := binary.LittleEndian.Uint16(extra[0:2])
		size := int(binary.LittleEndian.Uint16(extra[2:4]))
		if 4+size > len(extra) {
			break // truncated block; extras are best-effort, ignore
		}
		payload := extra[4 : 4+size]
		extra = extra[4+size:]
		switch tag {
		case 0x7875: // unix3: version byte, then sized uid and gid
			if len(payload) < 1 || payload[0] != 1 {
				continue
			}
			u, rest, ok := readSizedUint(payload[1:])
			if !ok {
				continue
			}
			g, _, ok := readSizedUint(rest)
			if !ok {
				continue
			}
			return u, g
		case 0x7855: // unix2: plain uint16 uid and gid
			if len(payload) < 4 {
				continue // central-directory copy; carries no values
			}
			uid = uint32(binary.LittleEndian.Uint16(payload[0:2]))
			gid = uint32(binary.LittleEndian.Uint16(payload[2:4]))
			// No return: a unix3 block later in the list still wins.
		}
	}
	return uid, gid
}

// readSizedUint decodes one size-prefixed little-endian integer
// (the unix3 encoding for uid and gid).
func readSizedUint(bs []byte) (uint32, []byte, bool) {
	if len(bs) < 1 {
		return 0, nil, false
	}
	size := int(bs[0])
	bs = bs[1:]
	if size < 1 || size > 8 || len(bs) < size {
		return 0, nil, false
	}
	v := uint64(0)
	for i := size - 1; i >= 0; i-- {
		v = v<<8 | uint64(bs[i])
	}
	return uint32(v), bs[size:], true
}
