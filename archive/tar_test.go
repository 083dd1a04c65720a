package archive

import (
	"context"
	"io/ioutil"
	"os"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/warpfork/go-errcat"

	"github.com/polydawn/relic/api"
	"github.com/polydawn/relic/fs"
	"github.com/polydawn/relic/testutil"
)

func tarRoundTripFixture() []testutil.FixtureEntry {
	return []testutil.FixtureEntry{
		{Metadata: fs.Metadata{Name: fs.MustRelPath("proj-4.2"), Type: fs.Type_Dir, Perms: 0755}},
		{Metadata: fs.Metadata{Name: fs.MustRelPath("proj-4.2/README"), Type: fs.Type_File, Perms: 0644}, Body: "be excellent to each other\n"},
		{Metadata: fs.Metadata{Name: fs.MustRelPath("proj-4.2/src"), Type: fs.Type_Dir, Perms: 0750}},
		{Metadata: fs.Metadata{Name: fs.MustRelPath("proj-4.2/src/main.c"), Type: fs.Type_File, Perms: 0755}, Body: "int main() {}\n"},
		{Metadata: fs.Metadata{Name: fs.MustRelPath("proj-4.2/src/main.ln"), Type: fs.Type_Hardlink, Linkname: "proj-4.2/src/main.c"}},
		{Metadata: fs.Metadata{Name: fs.MustRelPath("proj-4.2/docs"), Type: fs.Type_Symlink, Linkname: "./src"}},
	}
}

func TestTarScan(t *testing.T) {
	Convey("Tar scan:", t, func() {
		testutil.WithTmpdir(func(tmpDir fs.AbsolutePath) {
			Convey("a regular release tarball scans clean", func() {
				testutil.WriteArchiveFile("fixture.tar", testutil.BuildTar(tarRoundTripFixture()))
				arch, err := Open(context.Background(), "fixture.tar")
				So(err, ShouldBeNil)
				defer arch.Close()

				So(arch.Kind(), ShouldEqual, api.ArchiveKind_Tar)
				members := arch.Members()
				So(len(members), ShouldEqual, 6)
				So(members[0].Name, ShouldResemble, fs.MustRelPath("proj-4.2"))
				So(members[0].Type, ShouldEqual, fs.Type_Dir)
				So(members[1].Name, ShouldResemble, fs.MustRelPath("proj-4.2/README"))
				So(members[1].Type, ShouldEqual, fs.Type_File)
				So(members[1].Perms, ShouldEqual, fs.Perms(0644))
				So(members[1].Mtime.Equal(testutil.FixtureTime), ShouldBeTrue)
				So(members[4].Type, ShouldEqual, fs.Type_Hardlink)
				So(members[4].Linkname, ShouldEqual, "proj-4.2/src/main.c")
				So(members[5].Type, ShouldEqual, fs.Type_Symlink)
				So(members[5].Linkname, ShouldEqual, "./src")

				prefix, ok := arch.Prefix()
				So(ok, ShouldBeTrue)
				So(prefix, ShouldResemble, fs.MustRelPath("proj-4.2"))
			})
			Convey("gnu-style './' members are tolerated", func() {
				testutil.WriteArchiveFile("fixture.tar", testutil.BuildTar([]testutil.FixtureEntry{
					{Metadata: fs.Metadata{Type: fs.Type_Dir}, RawName: "./"},
					{Metadata: fs.Metadata{Type: fs.Type_File}, RawName: "./a", Body: "hi"},
				}))
				arch, err := Open(context.Background(), "fixture.tar")
				So(err, ShouldBeNil)
				defer arch.Close()
				So(len(arch.Members()), ShouldEqual, 2)
				_, ok := arch.Prefix()
				So(ok, ShouldBeFalse)
			})
			Convey("an empty tarball scans clean", func() {
				testutil.WriteArchiveFile("fixture.tar", testutil.BuildTar(nil))
				arch, err := Open(context.Background(), "fixture.tar")
				So(err, ShouldBeNil)
				defer arch.Close()
				So(len(arch.Members()), ShouldEqual, 0)
				_, ok := arch.Prefix()
				So(ok, ShouldBeFalse)
			})
			Convey("member names that escape are refused wholesale", func() {
				testutil.WriteArchiveFile("fixture.tar", testutil.BuildTar([]testutil.FixtureEntry{
					{Metadata: fs.Metadata{Name: fs.MustRelPath("fine"), Type: fs.Type_File}, Body: "ok"},
					{Metadata: fs.Metadata{Type: fs.Type_File}, RawName: "../escape", Body: "nope"},
				}))
				_, err := Open(context.Background(), "fixture.tar")
				So(err, ShouldNotBeNil)
				So(errcat.Category(err), ShouldEqual, api.ErrBreakout)
			})
			Convey("absolute member names are refused", func() {
				testutil.WriteArchiveFile("fixture.tar", testutil.BuildTar([]testutil.FixtureEntry{
					{Metadata: fs.Metadata{Type: fs.Type_File}, RawName: "/etc/motd", Body: "nope"},
				}))
				_, err := Open(context.Background(), "fixture.tar")
				So(err, ShouldNotBeNil)
				So(errcat.Category(err), ShouldEqual, api.ErrBreakout)
			})
			Convey("hardlink targets get the same screening", func() {
				testutil.WriteArchiveFile("fixture.tar", testutil.BuildTar([]testutil.FixtureEntry{
					{Metadata: fs.Metadata{Name: fs.MustRelPath("ln"), Type: fs.Type_Hardlink, Linkname: "../../etc/passwd"}},
				}))
				_, err := Open(context.Background(), "fixture.tar")
				So(err, ShouldNotBeNil)
				So(errcat.Category(err), ShouldEqual, api.ErrBreakout)
			})
			Convey("symlink targets are content, not paths to screen", func() {
				testutil.WriteArchiveFile("fixture.tar", testutil.BuildTar([]testutil.FixtureEntry{
					{Metadata: fs.Metadata{Name: fs.MustRelPath("lnk"), Type: fs.Type_Symlink, Linkname: "../outside"}},
				}))
				arch, err := Open(context.Background(), "fixture.tar")
				So(err, ShouldBeNil)
				defer arch.Close()
				So(arch.Members()[0].Linkname, ShouldEqual, "../outside")
			})
			Convey("member types git can't hold are refused", func() {
				testutil.WriteArchiveFile("fixture.tar", testutil.BuildTar([]testutil.FixtureEntry{
					{Metadata: fs.Metadata{Name: fs.MustRelPath("pipe"), Type: fs.Type_NamedPipe}},
				}))
				_, err := Open(context.Background(), "fixture.tar")
				So(err, ShouldNotBeNil)
				So(errcat.Category(err), ShouldEqual, api.ErrArchiveUnsupported)
			})
			Convey("truncated streams are corrupt", func() {
				testutil.WriteArchiveFile("fixture.tar", testutil.BuildTar(tarRoundTripFixture())[:100])
				_, err := Open(context.Background(), "fixture.tar")
				So(err, ShouldNotBeNil)
				So(errcat.Category(err), ShouldEqual, api.ErrArchiveCorrupt)
			})
			Convey("garbage under a gzip suffix is corrupt", func() {
				testutil.WriteArchiveFile("fixture.tar.gz", []byte("definitely not gzip"))
				_, err := Open(context.Background(), "fixture.tar.gz")
				So(err, ShouldNotBeNil)
				So(errcat.Category(err), ShouldEqual, api.ErrArchiveCorrupt)
			})
			Convey("cancellation is honored during scan", func() {
				testutil.WriteArchiveFile("fixture.tar", testutil.BuildTar(tarRoundTripFixture()))
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				_, err := Open(ctx, "fixture.tar")
				So(err, ShouldNotBeNil)
				So(errcat.Category(err), ShouldEqual, api.ErrCancelled)
			})
		})
	})
}

func TestTarUnpack(t *testing.T) {
	Convey("Tar unpack:", t, func() {
		testutil.WithTmpdir(func(tmpDir fs.AbsolutePath) {
			mkDest := func(name string) fs.AbsolutePath {
				So(os.Mkdir(name, 0755), ShouldBeNil)
				return tmpDir.Join(fs.MustRelPath(name))
			}
			Convey("unpacking with the prefix stripped", func() {
				testutil.WriteArchiveFile("fixture.tgz", testutil.GzipCompress(testutil.BuildTar(tarRoundTripFixture())))
				arch, err := Open(context.Background(), "fixture.tgz")
				So(err, ShouldBeNil)
				defer arch.Close()
				dest := mkDest("unpack")

				err = arch.Unpack(context.Background(), dest, UnpackOptions{StripPrefix: true, SkipChown: true}, api.Monitor{})
				So(err, ShouldBeNil)

				body, err := ioutil.ReadFile("unpack/README")
				So(err, ShouldBeNil)
				So(string(body), ShouldEqual, "be excellent to each other\n")

				fi, err := os.Lstat("unpack/src/main.c")
				So(err, ShouldBeNil)
				So(fi.Mode().Perm(), ShouldEqual, os.FileMode(0755))
				So(fi.ModTime().Equal(testutil.FixtureTime), ShouldBeTrue)

				// Hardlink target was rebased along with everything else.
				lnBody, err := ioutil.ReadFile("unpack/src/main.ln")
				So(err, ShouldBeNil)
				So(string(lnBody), ShouldEqual, "int main() {}\n")
				fi2, err := os.Lstat("unpack/src/main.ln")
				So(err, ShouldBeNil)
				So(os.SameFile(fi, fi2), ShouldBeTrue)

				target, err := os.Readlink("unpack/docs")
				So(err, ShouldBeNil)
				So(target, ShouldEqual, "./src")

				// Dir times settle to the archive's opinion, not unpack time.
				di, err := os.Lstat("unpack/src")
				So(err, ShouldBeNil)
				So(di.Mode().Perm(), ShouldEqual, os.FileMode(0750))
				So(di.ModTime().Equal(testutil.FixtureTime), ShouldBeTrue)
			})
			Convey("unpacking with the prefix kept", func() {
				testutil.WriteArchiveFile("fixture.tar", testutil.BuildTar(tarRoundTripFixture()))
				arch, err := Open(context.Background(), "fixture.tar")
				So(err, ShouldBeNil)
				defer arch.Close()
				dest := mkDest("unpack")

				err = arch.Unpack(context.Background(), dest, UnpackOptions{SkipChown: true}, api.Monitor{})
				So(err, ShouldBeNil)

				body, err := ioutil.ReadFile("unpack/proj-4.2/README")
				So(err, ShouldBeNil)
				So(string(body), ShouldEqual, "be excellent to each other\n")
			})
			Convey("implicit parent dirs are conjured", func() {
				testutil.WriteArchiveFile("fixture.tar", testutil.BuildTar([]testutil.FixtureEntry{
					{Metadata: fs.Metadata{Name: fs.MustRelPath("deep/down/file"), Type: fs.Type_File}, Body: "hi"},
				}))
				arch, err := Open(context.Background(), "fixture.tar")
				So(err, ShouldBeNil)
				defer arch.Close()
				dest := mkDest("unpack")

				err = arch.Unpack(context.Background(), dest, UnpackOptions{SkipChown: true}, api.Monitor{})
				So(err, ShouldBeNil)

				di, err := os.Lstat("unpack/deep")
				So(err, ShouldBeNil)
				So(di.IsDir(), ShouldBeTrue)
				So(di.Mode().Perm(), ShouldEqual, os.FileMode(0755))
				So(di.ModTime().Equal(fs.DefaultMtime), ShouldBeTrue)
			})
			Convey("repeated members follow tar semantics: last wins", func() {
				testutil.WriteArchiveFile("fixture.tar", testutil.BuildTar([]testutil.FixtureEntry{
					{Metadata: fs.Metadata{Name: fs.MustRelPath("a.txt"), Type: fs.Type_File}, Body: "one"},
					{Metadata: fs.Metadata{Name: fs.MustRelPath("a.txt"), Type: fs.Type_File}, Body: "two"},
				}))
				arch, err := Open(context.Background(), "fixture.tar")
				So(err, ShouldBeNil)
				defer arch.Close()
				dest := mkDest("unpack")

				err = arch.Unpack(context.Background(), dest, UnpackOptions{SkipChown: true}, api.Monitor{})
				So(err, ShouldBeNil)
				body, err := ioutil.ReadFile("unpack/a.txt")
				So(err, ShouldBeNil)
				So(string(body), ShouldEqual, "two")
			})
			Convey("the stream can be unpacked more than once", func() {
				testutil.WriteArchiveFile("fixture.tgz", testutil.GzipCompress(testutil.BuildTar(tarRoundTripFixture())))
				arch, err := Open(context.Background(), "fixture.tgz")
				So(err, ShouldBeNil)
				defer arch.Close()
				dest1 := mkDest("unpack1")
				dest2 := mkDest("unpack2")

				So(arch.Unpack(context.Background(), dest1, UnpackOptions{StripPrefix: true, SkipChown: true}, api.Monitor{}), ShouldBeNil)
				So(arch.Unpack(context.Background(), dest2, UnpackOptions{StripPrefix: true, SkipChown: true}, api.Monitor{}), ShouldBeNil)

				body, err := ioutil.ReadFile("unpack2/README")
				So(err, ShouldBeNil)
				So(string(body), ShouldEqual, "be excellent to each other\n")
			})
			Convey("a file swapped out after scan is refused", func() {
				testutil.WriteArchiveFile("fixture.tar", testutil.BuildTar(tarRoundTripFixture()))
				arch, err := Open(context.Background(), "fixture.tar")
				So(err, ShouldBeNil)
				defer arch.Close()
				testutil.WriteArchiveFile("fixture.tar", testutil.BuildTar([]testutil.FixtureEntry{
					{Metadata: fs.Metadata{Name: fs.MustRelPath("sneaky"), Type: fs.Type_File}, Body: "gotcha"},
				}))
				dest := mkDest("unpack")

				err = arch.Unpack(context.Background(), dest, UnpackOptions{SkipChown: true}, api.Monitor{})
				So(err, ShouldNotBeNil)
				So(errcat.Category(err), ShouldEqual, api.ErrArchiveCorrupt)
			})
			Convey("asking to strip a prefix that isn't there is refused", func() {
				testutil.WriteArchiveFile("fixture.tar", testutil.BuildTar([]testutil.FixtureEntry{
					{Metadata: fs.Metadata{Name: fs.MustRelPath("a"), Type: fs.Type_File}, Body: "hi"},
					{Metadata: fs.Metadata{Name: fs.MustRelPath("b"), Type: fs.Type_File}, Body: "hi"},
				}))
				arch, err := Open(context.Background(), "fixture.tar")
				So(err, ShouldBeNil)
				defer arch.Close()
				dest := mkDest("unpack")

				err = arch.Unpack(context.Background(), dest, UnpackOptions{StripPrefix: true, SkipChown: true}, api.Monitor{})
				So(err, ShouldNotBeNil)
				So(errcat.Category(err), ShouldEqual, api.ErrUsage)
			})
		})
	})
}

func TestTarDecompression(t *testing.T) {
	Convey("Tar decompression variants:", t, func() {
		testutil.WithTmpdir(func(tmpDir fs.AbsolutePath) {
			assertFixtureArchive := func(filename string) {
				arch, err := Open(context.Background(), filename)
				So(err, ShouldBeNil)
				defer arch.Close()

				members := arch.Members()
				So(len(members), ShouldEqual, 2)
				So(members[0].Name, ShouldResemble, fs.MustRelPath("proj-1.0"))
				So(members[1].Name, ShouldResemble, fs.MustRelPath("proj-1.0/README"))
				So(members[1].Mtime.Equal(testutil.FixtureTime), ShouldBeTrue)

				dest := tmpDir.Join(fs.MustRelPath("unpack"))
				So(os.Mkdir("unpack", 0755), ShouldBeNil)
				defer os.RemoveAll("unpack")

				err = arch.Unpack(context.Background(), dest, UnpackOptions{StripPrefix: true, SkipChown: true}, api.Monitor{})
				So(err, ShouldBeNil)
				body, err := ioutil.ReadFile("unpack/README")
				So(err, ShouldBeNil)
				So(string(body), ShouldEqual, "hello release\n")
			}
			Convey("xz (.tar.xz)", func() {
				testutil.WriteArchiveFile("fixture.tar.xz", fixtureTarXz)
				assertFixtureArchive("fixture.tar.xz")
			})
			Convey("xz (.txz)", func() {
				testutil.WriteArchiveFile("fixture.txz", fixtureTarXz)
				assertFixtureArchive("fixture.txz")
			})
			Convey("bzip2 (.tar.bz2)", func() {
				testutil.WriteArchiveFile("fixture.tar.bz2", fixtureTarBz2)
				assertFixtureArchive("fixture.tar.bz2")
			})
			Convey("bzip2 (.tbz2)", func() {
				testutil.WriteArchiveFile("fixture.tbz2", fixtureTarBz2)
				assertFixtureArchive("fixture.tbz2")
			})
			Convey("gzip (.tgz)", func() {
				testutil.WriteArchiveFile("fixture.tgz", testutil.GzipCompress(testutil.BuildTar([]testutil.FixtureEntry{
					{Metadata: fs.Metadata{Name: fs.MustRelPath("proj-1.0"), Type: fs.Type_Dir}},
					{Metadata: fs.Metadata{Name: fs.MustRelPath("proj-1.0/README"), Type: fs.Type_File}, Body: "hello release\n"},
				})))
				assertFixtureArchive("fixture.tgz")
			})
		})
	})
}
