package api

import (
	"time"

	"github.com/polydawn/refmt/obj/atlas"
)

var Atlas = atlas.MustBuild(
	atlas.BuildEntry(Event{}).StructMap().Autogenerate().Complete(),
	atlas.BuildEntry(Event_Log{}).StructMap().Autogenerate().Complete(),
	atlas.BuildEntry(Event_Progress{}).StructMap().Autogenerate().Complete(),
	atlas.BuildEntry(Event_Result{}).StructMap().Autogenerate().Complete(),
	atlas.BuildEntry(Error{}).StructMap().Autogenerate().Complete(),
	atlas.BuildEntry(ImportResult{}).StructMap().Autogenerate().Complete(),
	atlas.BuildEntry(ReleaseResult{}).StructMap().Autogenerate().Complete(),
	atlas.BuildEntry(ReleaseDescriptor{}).StructMap().Autogenerate().Complete(),
	timeAtlasEntry,
)

// Timestamps cross the wire as RFC3339; nothing in our events needs
// sub-second precision round-tripping.
var timeAtlasEntry = atlas.BuildEntry(time.Time{}).Transform().
	TransformMarshal(atlas.MakeMarshalTransformFunc(
		func(t time.Time) (string, error) {
			return t.Format(time.RFC3339), nil
		})).
	TransformUnmarshal(atlas.MakeUnmarshalTransformFunc(
		func(s string) (time.Time, error) {
			return time.Parse(time.RFC3339, s)
		})).
	Complete()
