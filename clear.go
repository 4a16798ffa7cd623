package mlog

import (
	"fmt"

	"github.com/yanet-platform/mlog/internal/container"
	"github.com/yanet-platform/mlog/internal/pathresolve"
)

// ClearFile resets cnt and every partition's cursor to the sentinel state
// on an existing revision-12 file, identified by its logical name, without
// requiring the caller to know the shape it was created with. It backs
// the operator tool's --clear flag: reopening with the file's own shape
// never triggers the reinitialize path in container.OpenOrCreate, only
// Clear does.
func ClearFile(name string) error {
	path := pathresolve.Resolve(name, DefaultSuffix, DirEnvVar)

	shape, err := container.ReadShape(path)
	if err != nil {
		return fmt.Errorf("mlog: clear %q: %w", name, err)
	}

	c, err := container.OpenOrCreate(path, shape, "", container.NowMicros)
	if err != nil {
		return fmt.Errorf("mlog: clear %q: %w", name, err)
	}
	defer c.Close()

	c.Clear()
	return nil
}
