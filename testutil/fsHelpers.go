package testutil

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
)

/*
	SnapshotDir walks a directory and flattens it into a map for easy
	comparison: files map their relative path to their body, dirs get a
	trailing slash and an empty value, symlinks map to "-> target".
	Top-level entries named in `skip` are left out (typically ".git",
	when the interesting part is the working tree around the store).
*/
func SnapshotDir(root string, skip ...string) map[string]string {
	snap := map[string]string{}
	err := filepath.Walk(root, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		for _, s := range skip {
			if rel == s || strings.HasPrefix(rel, s+"/") {
				if fi.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}
		switch {
		case fi.IsDir():
			snap[rel+"/"] = ""
		case fi.Mode()&os.ModeSymlink != 0:
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			snap[rel] = "-> " + target
		default:
			body, err := ioutil.ReadFile(path)
			if err != nil {
				return err
			}
			snap[rel] = string(body)
		}
		return nil
	})
	if err != nil {
		panic(err)
	}
	return snap
}
