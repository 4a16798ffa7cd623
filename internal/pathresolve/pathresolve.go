// Package pathresolve maps a logical log name to a filesystem path,
// honoring a directory-override environment variable and appending a
// default suffix when the name carries no extension of its own. Writers
// resolve at Init time, readers at Load time, with identical results.
package pathresolve

import (
	"os"
	"path/filepath"
	"strings"
)

// Resolve maps a logical log name to a filesystem path. If name already
// has a file extension, suffix is not appended. If name is not already an
// absolute or explicitly relative ("./", "../") path and envVar names a
// non-empty environment variable, the resolved path is joined under that
// directory; otherwise it resolves relative to the current working
// directory, exactly as a bare filename passed to os.OpenFile would.
func Resolve(name, suffix, envVar string) string {
	path := name
	if filepath.Ext(path) == "" {
		path += suffix
	}

	if filepath.IsAbs(path) || strings.HasPrefix(path, "./") || strings.HasPrefix(path, "../") {
		return path
	}
	if dir := os.Getenv(envVar); dir != "" {
		return filepath.Join(dir, path)
	}
	return path
}
