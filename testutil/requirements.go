package testutil

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"

	"github.com/smartystreets/goconvey/convey"

	"github.com/polydawn/relic/caps"
)

type ConveyRequirement struct {
	Name      string
	Predicate func() bool
}

/*
	Require that the test process can manage file ownership.  Extraction
	tests that assert on uid/gid need this; everything else shrugs and
	runs chown-free.
*/
var RequiresCanManageOwnership = ConveyRequirement{"have caps for managing file ownership", caps.Scan().CanManageOwnership}

/*
	Require that a `git` binary is on the PATH.  The exec'd engine can't
	run without one; the in-process engine doesn't care.
*/
var RequiresGitBinary = ConveyRequirement{"have a git binary on PATH", func() bool {
	_, err := exec.LookPath("git")
	return err == nil
}}

/*
	Requires decorates a goconvey test with preconditions.  Give it
	`ConveyRequirement`s first and the test `func()` last (mirroring
	Convey's own argument order).  If every requirement's predicate
	passes, the test runs unchanged; otherwise a stand-in runs instead
	which skips, printing which requirement fell short.
*/
func Requires(items ...interface{}) func(c convey.C) {
	var reqs []ConveyRequirement
	for _, it := range items {
		req, ok := it.(ConveyRequirement)
		if !ok {
			break
		}
		reqs = append(reqs, req)
	}
	action := items[len(items)-1]

	var listing bytes.Buffer
	var names []string
	allSat := true
	for _, req := range reqs {
		sat := req.Predicate()
		allSat = allSat && sat
		names = append(names, req.Name)
		fmt.Fprintf(&listing, "requirement %q: %v\n", req.Name, sat)
	}
	if !allSat {
		return func(c convey.C) {
			convey.Convey("Prereqs: "+strings.Join(names, ", "), nil)
			c.Println()
			c.Print(listing.String())
		}
	}
	return func(c convey.C) {
		switch action := action.(type) {
		case func():
			action()
		case func(c convey.C):
			action(c)
		}
	}
}
