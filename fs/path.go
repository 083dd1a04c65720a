package fs

import (
	"path"
	"strings"
)

// Relative and absolute paths are distinct types: archive member names
// must stay relative until the moment they're joined onto a workspace
// root, and the compiler is better at policing that than a code
// reviewer is.  Both types normalize on construction, so every value
// in flight is already clean.

type RelPath struct {
	path      string
	lastSplit int
}

func MustRelPath(p string) RelPath {
	p = path.Clean(p)
	if p[0] == '/' {
		panic("not a relative path")
	}
	if p == "." {
		return RelPath{} // normalize to the zero value, since we can't ban it
	}
	return RelPath{p, strings.LastIndexByte(p, '/')}
}

func (p RelPath) String() string {
	switch {
	case p.path == "":
		return "."
	case p.GoesUp(): // updot prefix; dotfile names don't hit this
		return p.path
	default:
		return "./" + p.path
	}
}

func (p RelPath) Dir() RelPath {
	switch {
	case p.path == "":
		return p
	case p.lastSplit == -1:
		return RelPath{}
	default:
		parent := p.path[:p.lastSplit]
		return RelPath{parent, strings.LastIndexByte(parent, '/')}
	}
}

func (p RelPath) Last() string {
	if p.path == "" {
		return "."
	}
	return p.path[p.lastSplit+1:]
}

func (p RelPath) Join(p2 RelPath) RelPath {
	switch {
	case p2.path == "":
		return p
	case p.path == "":
		return p2
	case p2.GoesUp(): // updot segments force a re-clean
		return MustRelPath(p.path + "/" + p2.path)
	default:
		return RelPath{p.path + "/" + p2.path, len(p.path) + p2.lastSplit + 1}
	}
}

/*
	GoesUp reports whether the path departs its base: i.e., it is ".."
	or begins with "../".  (Cleaning has already folded any interior
	updots, so checking the front of the string is enough.)
*/
func (p RelPath) GoesUp() bool {
	return p.path == ".." || strings.HasPrefix(p.path, "../")
}

/*
	Split returns each prefix of the path, from "." up to and including
	the path itself.  E.g. for "./a/bb/c" that's {".", "./a", "./a/bb", "./a/bb/c"}.
*/
func (p RelPath) Split() []RelPath {
	res := []RelPath{{}}
	if p.path == "" {
		return res
	}
	for i := 0; i < len(p.path); i++ {
		if p.path[i] == '/' {
			prefix := p.path[:i]
			res = append(res, RelPath{prefix, strings.LastIndexByte(prefix, '/')})
		}
	}
	return append(res, p)
}

/*
	SplitParent is Split without the path itself: just the ancestors.
	Handy for making sure parent dirs exist before placing a file.
*/
func (p RelPath) SplitParent() []RelPath {
	if p.path == "" {
		return []RelPath{}
	}
	split := p.Split()
	return split[:len(split)-1]
}

type AbsolutePath struct {
	path      string
	lastSplit int
}

func MustAbsolutePath(p string) AbsolutePath {
	p = path.Clean(p)
	if p[0] != '/' {
		panic("not an absolute path")
	}
	if p == "/" {
		return AbsolutePath{} // normalize to the zero value, since we can't ban it
	}
	return AbsolutePath{p, strings.LastIndexByte(p, '/')}
}

func (p AbsolutePath) String() string {
	if p.path == "" {
		return "/"
	}
	return p.path
}

func (p AbsolutePath) Dir() AbsolutePath {
	switch {
	case p.path == "":
		return p
	case p.lastSplit == 0:
		return AbsolutePath{}
	default:
		parent := p.path[:p.lastSplit]
		return AbsolutePath{parent, strings.LastIndexByte(parent, '/')}
	}
}

func (p AbsolutePath) Last() string {
	if p.path == "" {
		return "/"
	}
	return p.path[p.lastSplit+1:]
}

func (p AbsolutePath) Join(p2 RelPath) AbsolutePath {
	switch {
	case p2.path == "":
		return p
	case p2.GoesUp(): // updot segments force a re-clean
		return MustAbsolutePath(path.Clean(p.path + "/" + p2.path))
	default:
		// Sound for the zero value too: "" + "/" + rel is rooted already.
		return AbsolutePath{p.path + "/" + p2.path, len(p.path) + p2.lastSplit + 1}
	}
}
