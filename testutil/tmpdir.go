package testutil

import (
	"io/ioutil"
	"os"

	"github.com/polydawn/relic/fs"
)

/*
	Makes a fresh tmpdir, chdirs into it, runs the function, and cleans up.

	Tests run down in `/tmp/relic-test/*`: easy for a human to find the
	wreckage when poking at a failure with the cleanup commented out, and
	short enough that path-length limits (unix sockets cap out at 108
	chars, anyone?) stay far away.
*/
func WithTmpdir(fn func(tmpDir fs.AbsolutePath)) {
	tmpBase := "/tmp/relic-test/"
	if err := os.MkdirAll(tmpBase, os.FileMode(0777)|os.ModeSticky); err != nil {
		panic(err)
	}
	tmpdir, err := ioutil.TempDir(tmpBase, "")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmpdir)

	retreat, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	defer os.Chdir(retreat)
	if err := os.Chdir(tmpdir); err != nil {
		panic(err)
	}

	fn(fs.MustAbsolutePath(tmpdir))
}
