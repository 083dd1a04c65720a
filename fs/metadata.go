package fs

import (
	"time"
)

type Metadata struct {
	Name     RelPath   // filename
	Type     Type      // entry type
	Perms    Perms     // permission bits, including setuid/setgid/sticky
	Uid      uint32    // user id of owner
	Gid      uint32    // group id of owner
	Size     int64     // length in bytes; only meaningful for Type_File
	Linkname string    // if symlink: target of the link; if hardlink: name of the linked sibling
	Mtime    time.Time // modified time
}

// Times used when an archive carries no opinion of its own
// (e.g. for directories it names only implicitly).
var (
	DefaultMtime = time.Date(2010, time.January, 1, 0, 0, 0, 0, time.UTC)
	DefaultAtime = DefaultMtime
)

type Type uint8

const (
	Type_Invalid Type = iota
	Type_File
	Type_Dir
	Type_Symlink
	Type_Hardlink // only exists inside archives; on disk it's just a file with n>1 names
	Type_NamedPipe
	Type_Socket
	Type_Device
	Type_CharDevice
)

func (t Type) String() string {
	switch t {
	case Type_File:
		return "file"
	case Type_Dir:
		return "dir"
	case Type_Symlink:
		return "symlink"
	case Type_Hardlink:
		return "hardlink"
	case Type_NamedPipe:
		return "fifo"
	case Type_Socket:
		return "socket"
	case Type_Device:
		return "device"
	case Type_CharDevice:
		return "chardevice"
	default:
		return "invalid"
	}
}

type Perms uint16

const (
	Perms_Setuid = Perms(04000)
	Perms_Setgid = Perms(02000)
	Perms_Sticky = Perms(01000)
)
