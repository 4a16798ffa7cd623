package reader

import (
	"encoding/binary"
	"fmt"

	"go.uber.org/zap"

	"github.com/yanet-platform/mlog/internal/mmap"
)

// Load reads the entire file at path into a private heap snapshot and
// dispatches to the scanner matching its revision: revisions below 7 use
// the single-partition legacy shape, revision 7 the first multi-partition
// shape, and every later revision (currently only 12) the current shape.
//
// The returned Reader owns an independent copy of the file's bytes; it is
// unaffected by a writer subsequently appending to the same path, and its
// Scan is safe to call concurrently with itself (it allocates no shared
// state across calls other than read-only slices into that copy).
func Load(path string) (Reader, error) {
	return LoadWithLogger(path, zap.NewNop().Sugar())
}

// LoadWithLogger is Load with an explicit logger for discarded/corrupt
// tail segments, used by cmd/mlogcat to surface scan-time diagnostics.
func LoadWithLogger(path string, log *zap.SugaredLogger) (Reader, error) {
	data, err := mmap.ReadAll(path)
	if err != nil {
		return nil, err
	}
	if len(data) < 4 {
		return nil, fmt.Errorf("mlog: %s: too small to contain a revision word", path)
	}

	rev := binary.LittleEndian.Uint32(data[0:4])
	switch {
	case rev < 7:
		return loadRev6(data, log)
	case rev == 7:
		return loadRev7(data, log)
	default:
		return loadRev12(data, log)
	}
}
