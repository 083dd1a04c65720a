package readme

import (
	"io/ioutil"
	"os"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/polydawn/relic/fs"
	"github.com/polydawn/relic/testutil"
)

func TestAmend(t *testing.T) {
	Convey("Amend suite:", t, func() {
		testutil.WithTmpdir(func(tmpDir fs.AbsolutePath) {
			Convey("the prefix lands verbatim before the original content", func() {
				So(ioutil.WriteFile("README", []byte("original\n"), 0644), ShouldBeNil)

				name, found, err := Amend(tmpDir, "imported from tarballs\n\n")
				So(err, ShouldBeNil)
				So(found, ShouldBeTrue)
				So(name, ShouldResemble, fs.MustRelPath("README"))

				body, err := ioutil.ReadFile("README")
				So(err, ShouldBeNil)
				So(string(body), ShouldEqual, "imported from tarballs\n\noriginal\n")
			})
			Convey("exactly one candidate is amended, by documented order", func() {
				So(ioutil.WriteFile("readme.txt", []byte("lowercase\n"), 0644), ShouldBeNil)
				So(ioutil.WriteFile("README.md", []byte("markdown\n"), 0644), ShouldBeNil)

				name, found, err := Amend(tmpDir, "note: ")
				So(err, ShouldBeNil)
				So(found, ShouldBeTrue)
				So(name, ShouldResemble, fs.MustRelPath("README.md"))

				body, err := ioutil.ReadFile("README.md")
				So(err, ShouldBeNil)
				So(string(body), ShouldEqual, "note: markdown\n")
				body, err = ioutil.ReadFile("readme.txt")
				So(err, ShouldBeNil)
				So(string(body), ShouldEqual, "lowercase\n") // untouched
			})
			Convey("a bare base name beats the same base with an extension", func() {
				So(ioutil.WriteFile("README", []byte("bare\n"), 0644), ShouldBeNil)
				So(ioutil.WriteFile("README.md", []byte("markdown\n"), 0644), ShouldBeNil)

				name, found, err := Amend(tmpDir, "x")
				So(err, ShouldBeNil)
				So(found, ShouldBeTrue)
				So(name, ShouldResemble, fs.MustRelPath("README"))
			})
			Convey("read-only files are amended and their bits restored", func() {
				So(ioutil.WriteFile("README", []byte("locked\n"), 0444), ShouldBeNil)

				_, found, err := Amend(tmpDir, "pre ")
				So(err, ShouldBeNil)
				So(found, ShouldBeTrue)

				body, err := ioutil.ReadFile("README")
				So(err, ShouldBeNil)
				So(string(body), ShouldEqual, "pre locked\n")
				fi, err := os.Lstat("README")
				So(err, ShouldBeNil)
				So(fi.Mode().Perm(), ShouldEqual, os.FileMode(0444))
			})
			Convey("no candidate is a quiet no-op", func() {
				So(ioutil.WriteFile("CHANGELOG", []byte("not a readme\n"), 0644), ShouldBeNil)

				_, found, err := Amend(tmpDir, "x")
				So(err, ShouldBeNil)
				So(found, ShouldBeFalse)
			})
			Convey("an empty prefix is a quiet no-op", func() {
				So(ioutil.WriteFile("README", []byte("original\n"), 0644), ShouldBeNil)

				_, found, err := Amend(tmpDir, "")
				So(err, ShouldBeNil)
				So(found, ShouldBeFalse)

				body, err := ioutil.ReadFile("README")
				So(err, ShouldBeNil)
				So(string(body), ShouldEqual, "original\n")
			})
			Convey("dirs named like readmes are passed over", func() {
				So(os.Mkdir("README", 0755), ShouldBeNil)
				So(ioutil.WriteFile("readme.txt", []byte("real one\n"), 0644), ShouldBeNil)

				name, found, err := Amend(tmpDir, "x ")
				So(err, ShouldBeNil)
				So(found, ShouldBeTrue)
				So(name, ShouldResemble, fs.MustRelPath("readme.txt"))
			})
			Convey("symlinks named like readmes are passed over", func() {
				So(ioutil.WriteFile("target", []byte("elsewhere\n"), 0644), ShouldBeNil)
				So(os.Symlink("target", "README"), ShouldBeNil)

				_, found, err := Amend(tmpDir, "x ")
				So(err, ShouldBeNil)
				So(found, ShouldBeFalse)

				body, err := ioutil.ReadFile("target")
				So(err, ShouldBeNil)
				So(string(body), ShouldEqual, "elsewhere\n") // never written through
			})
		})
	})
}
