/*
	Capability probing: can this process put ownership back on files?

	Archive members carry uid/gid info, and reproducing it is part of
	the job when running privileged.  When not, the importer skips
	ownership wholesale instead of failing on the first chown.
*/
package caps

import (
	"os"
	"runtime"

	"github.com/syndtr/gocapability/capability"
)

type Probe struct {
	onLinux bool
	uid     int
	caps    capability.Capabilities // nil off linux, where uid carries the decision
}

func Scan() *Probe {
	f := &Probe{
		onLinux: runtime.GOOS == "linux",
		uid:     os.Getuid(),
	}
	if f.onLinux {
		caps, err := capability.NewPid(0) // zero means self
		if err != nil {
			panic(err)
		}
		f.caps = caps
	}
	return f
}

/*
	CanManageOwnership reports whether extracted files can get their
	recorded uid/gid back.  CAP_CHOWN alone doesn't cut it: mtimes get
	re-set after the chown, and that takes CAP_FOWNER as well.  Off
	linux the answer is simply "are we root".
*/
func (f Probe) CanManageOwnership() bool {
	if !f.onLinux {
		return f.uid == 0
	}
	return f.caps.Get(capability.EFFECTIVE, capability.CAP_CHOWN|capability.CAP_FOWNER)
}
