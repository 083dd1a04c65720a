package testutil

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"io/ioutil"
	"os"
	"time"

	"github.com/polydawn/relic/fs"
)

/*
	A fixed timestamp for fixture entries, so tests can assert mtime
	preservation exactly.  Whole even seconds, because zip's dos-time
	fields round to two-second resolution.
*/
var FixtureTime = time.Date(2016, 3, 1, 10, 30, 0, 0, time.UTC)

/*
	One entry for an archive fixture.  Zero Perms and Mtime get sane
	defaults filled in; RawName, when set, is written to the archive
	verbatim instead of the metadata name -- that's the hook for
	building hostile fixtures ("../escape", "/abs", etc).
*/
type FixtureEntry struct {
	Metadata fs.Metadata
	Body     string
	RawName  string
}

func defaulted(e FixtureEntry) FixtureEntry {
	if e.Metadata.Perms == 0 {
		switch e.Metadata.Type {
		case fs.Type_Dir:
			e.Metadata.Perms = 0755
		default:
			e.Metadata.Perms = 0644
		}
	}
	if e.Metadata.Mtime.IsZero() {
		e.Metadata.Mtime = FixtureTime
	}
	return e
}

func (e FixtureEntry) name() string {
	if e.RawName != "" {
		return e.RawName
	}
	name := e.Metadata.Name.String()
	if len(name) > 2 && name[0:2] == "./" {
		name = name[2:]
	}
	if e.Metadata.Type == fs.Type_Dir {
		name += "/"
	}
	return name
}

// BuildTar serializes the entries into an uncompressed tar stream.
func BuildTar(entries []FixtureEntry) []byte {
	buf := &bytes.Buffer{}
	tw := tar.NewWriter(buf)
	for _, e := range entries {
		e = defaulted(e)
		hdr := &tar.Header{
			Name:     e.name(),
			Mode:     int64(e.Metadata.Perms),
			Uid:      int(e.Metadata.Uid),
			Gid:      int(e.Metadata.Gid),
			ModTime:  e.Metadata.Mtime,
			Linkname: e.Metadata.Linkname,
		}
		switch e.Metadata.Type {
		case fs.Type_File:
			hdr.Typeflag = tar.TypeReg
			hdr.Size = int64(len(e.Body))
		case fs.Type_Dir:
			hdr.Typeflag = tar.TypeDir
		case fs.Type_Symlink:
			hdr.Typeflag = tar.TypeSymlink
		case fs.Type_Hardlink:
			hdr.Typeflag = tar.TypeLink
		case fs.Type_NamedPipe:
			hdr.Typeflag = tar.TypeFifo
		default:
			panic("fixture: unhandled entry type")
		}
		if err := tw.WriteHeader(hdr); err != nil {
			panic(err)
		}
		if e.Metadata.Type == fs.Type_File {
			if _, err := tw.Write([]byte(e.Body)); err != nil {
				panic(err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// GzipCompress wraps raw bytes in a gzip stream (for ".tar.gz" fixtures).
func GzipCompress(raw []byte) []byte {
	buf := &bytes.Buffer{}
	zw := gzip.NewWriter(buf)
	if _, err := zw.Write(raw); err != nil {
		panic(err)
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// BuildZip serializes the entries into a zip archive.
// Unix uid/gid ride in 0x7855/0x7875 extra blocks, same as info-zip writes.
func BuildZip(entries []FixtureEntry) []byte {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, e := range entries {
		e = defaulted(e)
		fh := &zip.FileHeader{
			Name:   e.name(),
			Method: zip.Deflate,
		}
		fh.SetModTime(e.Metadata.Mtime)
		fh.Extra = append(zipUnix2ExtraHeader(e.Metadata), zipUnix3ExtraHeader(e.Metadata)...)
		body := e.Body
		switch e.Metadata.Type {
		case fs.Type_File:
			fh.SetMode(permsToMode(e.Metadata.Perms))
		case fs.Type_Dir:
			fh.SetMode(os.ModeDir | permsToMode(e.Metadata.Perms))
			body = ""
		case fs.Type_Symlink:
			fh.SetMode(os.ModeSymlink | 0777)
			body = e.Metadata.Linkname
		case fs.Type_NamedPipe:
			fh.SetMode(os.ModeNamedPipe | permsToMode(e.Metadata.Perms))
			body = ""
		default:
			panic("fixture: zip can't hold that entry type")
		}
		w, err := zw.CreateHeader(fh)
		if err != nil {
			panic(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			panic(err)
		}
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func permsToMode(perms fs.Perms) (mode os.FileMode) {
	mode = os.FileMode(perms & 0777)
	if perms&fs.Perms_Setuid != 0 {
		mode |= os.ModeSetuid
	}
	if perms&fs.Perms_Setgid != 0 {
		mode |= os.ModeSetgid
	}
	if perms&fs.Perms_Sticky != 0 {
		mode |= os.ModeSticky
	}
	return mode
}

// compose a unix2 (0x7855) header for the zip file.
func zipUnix2ExtraHeader(fmeta fs.Metadata) []byte {
	// Do not include the older unix2 header if the uid/gid don't fit in that representation.
	if uint32(uint16(fmeta.Uid)) != fmeta.Uid || uint32(uint16(fmeta.Gid)) != fmeta.Gid {
		return []byte{}
	}
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint16(buf[0:2], 0x7855)
	binary.LittleEndian.PutUint16(buf[2:4], 4) // total data size for the block
	binary.LittleEndian.PutUint16(buf[4:6], uint16(fmeta.Uid))
	binary.LittleEndian.PutUint16(buf[6:8], uint16(fmeta.Gid))
	return buf
}

// compose a unix3 (0x7875) header for the zip file.
func zipUnix3ExtraHeader(fmeta fs.Metadata) []byte {
	buf := make([]byte, 15)
	binary.LittleEndian.PutUint16(buf[0:2], 0x7875)
	binary.LittleEndian.PutUint16(buf[2:4], 11) // total data size for the block
	buf[4] = 1                                  // Version
	buf[5] = 4                                  // UIDSize
	binary.LittleEndian.PutUint32(buf[6:10], fmeta.Uid)
	buf[10] = 4 // GIDSize
	binary.LittleEndian.PutUint32(buf[11:15], fmeta.Gid)
	return buf
}

// WriteArchiveFile drops fixture bytes at a path, for feeding to Open.
func WriteArchiveFile(path string, raw []byte) {
	if err := ioutil.WriteFile(path, raw, 0644); err != nil {
		panic(err)
	}
}
