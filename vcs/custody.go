package vcs

import (
	"io/ioutil"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/relic/api"
	"github.com/polydawn/relic/fs"
	"github.com/polydawn/relic/fsOp"
)

/*
	Name of the breadcrumb file left in the repository dir while the
	store is away.  Its content is the path currently holding the store.

	The breadcrumb makes the mid-run failure mode explicit: a crash
	between borrow and return leaves the store inside a scratch
	workspace, and without a record of where, an operator is reduced to
	rummaging through temp dirs.  Any run that finds a breadcrumb
	refuses to start.
*/
const MarkerName = ".relic-store-location"

/*
	Custody tracks exclusive possession of the version control store as
	it travels between the persistent repository dir and a scratch
	workspace.

	The store is a single relocatable resource with exactly one holder
	at any instant.  That invariant is asserted, not hoped for: a second
	Borrow without a Return panics, since it can only be a bug in the
	import loop, never an input problem.

	Both moves are single renames.  Before the risky one (borrow), the
	destination is logged and written to the breadcrumb, so a crash at
	any point leaves enough on disk to recover by hand.
*/
type Custody struct {
	homeStore fs.AbsolutePath // <repoDir>/<storeName>, the store's resting place
	marker    fs.AbsolutePath // <repoDir>/MarkerName
	awayStore fs.AbsolutePath // current location while borrowed
	borrowed  bool
}

func NewCustody(repoDir fs.AbsolutePath, storeName string) *Custody {
	return &Custody{
		homeStore: repoDir.Join(fs.MustRelPath(storeName)),
		marker:    repoDir.Join(fs.MustRelPath(MarkerName)),
	}
}

// Borrowed reports whether the store is currently away from home.
func (c *Custody) Borrowed() bool { return c.borrowed }

/*
	Borrow relocates the store into the given working tree root, making
	that tree the repository's working tree for exactly one commit.

	On failure the store is still at home (the move is one rename, which
	either happened or did not) and the breadcrumb has been cleaned up.
*/
func (c *Custody) Borrow(workRoot fs.AbsolutePath) (err error) {
	defer RequireErrorHasCategory(&err, api.ErrorCategory(""))
	if c.borrowed {
		panic("custody: store borrowed twice without a return")
	}
	awayStore := workRoot.Join(fs.MustRelPath(c.homeStore.Last()))

	log.Warnf("moving version control store: %s -> %s", c.homeStore, awayStore)
	if err := ioutil.WriteFile(c.marker.String(), []byte(awayStore.String()+"\n"), 0644); err != nil {
		return Errorf(api.ErrInoperablePath, "cannot record store location before moving it: %s", err)
	}
	if err := fsOp.MoveDir(c.homeStore, awayStore); err != nil {
		os.Remove(c.marker.String()) // nothing moved; retract the claim
		return err
	}
	c.awayStore = awayStore
	c.borrowed = true
	log.Infof("store now at %s", awayStore)
	return nil
}

/*
	Return relocates the store back to the persistent repository dir and
	removes the breadcrumb.

	On failure the store remains in the workspace and the breadcrumb
	stays put, naming it.  Manual recovery territory.
*/
func (c *Custody) Return() (err error) {
	defer RequireErrorHasCategory(&err, api.ErrorCategory(""))
	if !c.borrowed {
		panic("custody: store returned without a borrow")
	}
	log.Warnf("returning version control store: %s -> %s", c.awayStore, c.homeStore)
	if err := fsOp.MoveDir(c.awayStore, c.homeStore); err != nil {
		return err
	}
	c.borrowed = false
	if err := os.Remove(c.marker.String()); err != nil {
		return Errorf(api.ErrInoperablePath, "store returned, but its location record cannot be cleared: %s", err)
	}
	log.Infof("store back home at %s", c.homeStore)
	return nil
}

/*
	StorePath reports where the store currently sits.  Useful for the
	"manual recovery required" messages of callers that hit an error
	while the store is away.
*/
func (c *Custody) StorePath() fs.AbsolutePath {
	if c.borrowed {
		return c.awayStore
	}
	return c.homeStore
}

/*
	CheckMarker refuses a repository dir that carries a breadcrumb from
	an earlier run.  The error names the recorded location so the
	operator can go fetch the store (or conclude it is lost and remove
	the marker).
*/
func CheckMarker(repoDir fs.AbsolutePath) (err error) {
	defer RequireErrorHasCategory(&err, api.ErrorCategory(""))
	markerPath := repoDir.Join(fs.MustRelPath(MarkerName))
	body, err := ioutil.ReadFile(markerPath.String())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return Errorf(api.ErrInoperablePath, "cannot check %s: %s", markerPath, err)
	}
	recorded := strings.TrimSpace(string(body))
	return ErrorDetailed(api.ErrRepoCollision,
		"an earlier run left the version control store at "+recorded+"; put it back in "+repoDir.String()+" and remove "+markerPath.String()+" to continue",
		map[string]string{
			"marker":   markerPath.String(),
			"recorded": recorded,
		})
}
