package main

import (
	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/relic/api"
	"github.com/polydawn/relic/vcs"
	"github.com/polydawn/relic/vcs/gitcli"
	"github.com/polydawn/relic/vcs/gitgo"
)

func demuxEngine(name string) (vcs.Engine, error) {
	switch name {
	case "gitcli":
		return gitcli.Engine{}, nil
	case "gitgo":
		return gitgo.Engine{}, nil
	default:
		return nil, Errorf(api.ErrUsage, "unsupported engine %q (RELIC_ENGINE understands \"gitcli\" and \"gitgo\")", name)
	}
}
