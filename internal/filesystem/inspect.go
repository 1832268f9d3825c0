package filesystem

import (
	"errors"
	"io/fs"
)

// PathKind classifies what currently occupies a local path.
type PathKind int

// Path kinds.
const (
	PathMissing PathKind = iota
	PathDirectory
	PathOther
)

// String returns a lowercase label for the path kind.
func (kind PathKind) String() string {
	switch kind {
	case PathMissing:
		return "missing"
	case PathDirectory:
		return "directory"
	default:
		return "other"
	}
}

// InspectPath reports whether path is absent, a directory or something else.
// Stat failures other than non-existence are returned unchanged.
func InspectPath(fileSystem FileSystem, path string) (PathKind, error) {
	info, statError := fileSystem.Stat(path)
	if statError != nil {
		if errors.Is(statError, fs.ErrNotExist) {
			return PathMissing, nil
		}
		return PathOther, statError
	}
	if info.IsDir() {
		return PathDirectory, nil
	}
	return PathOther, nil
}
