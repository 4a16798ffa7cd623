package mlog

import (
	"go.uber.org/zap"

	"github.com/yanet-platform/mlog/internal/pathresolve"
	"github.com/yanet-platform/mlog/internal/reader"
)

// Info describes one decoded record delivered by Scan.
type Info = reader.Info

// Choice is a selectivity predicate evaluated on a record's metadata
// during the per-partition tail walk, before the k-way merge and before
// Access sees the payload.
type Choice = reader.Choice

// Access receives one merged record, oldest-first. Returning false stops
// the scan early.
type Access = reader.Access

// Reader loads a private snapshot of a log file and scans it.
// The zero value is not ready to use; construct with Load.
type Reader struct {
	r reader.Reader
}

// Load resolves name to a path exactly as Writer.Init does, reads the
// whole file into a private heap snapshot, and dispatches to the scanner
// matching its on-disk revision.
func Load(name string) (*Reader, error) {
	path := pathresolve.Resolve(name, DefaultSuffix, DirEnvVar)
	r, err := reader.Load(path)
	if err != nil {
		return nil, err
	}
	return &Reader{r: r}, nil
}

// LoadWithLogger is Load with an explicit logger, used to surface
// discarded/corrupt tail segments as Debug logs during Scan (e.g. from
// cmd/mlogcat's --verbose flag).
func LoadWithLogger(name string, log *zap.SugaredLogger) (*Reader, error) {
	path := pathresolve.Resolve(name, DefaultSuffix, DirEnvVar)
	r, err := reader.LoadWithLogger(path, log)
	if err != nil {
		return nil, err
	}
	return &Reader{r: r}, nil
}

// Scan delivers up to maxCount records (0 = unlimited) satisfying
// order >= orderMin and time_us >= max(timeUSMin, log_beg), oldest
// first, to access. choice is evaluated per-candidate during each
// partition's backward tail walk, before merging.
func (r *Reader) Scan(maxCount int, orderMin uint32, timeUSMin int64, choice Choice, access Access) {
	if choice == nil {
		choice = func(Info) bool { return true }
	}
	r.r.Scan(maxCount, orderMin, timeUSMin, choice, access)
}

// Hint returns the operator-supplied hint string recorded at Init.
func (r *Reader) Hint() string {
	return r.r.Hint()
}

// HdrAddr returns the caller's opaque header region.
func (r *Reader) HdrAddr() []byte {
	return r.r.HdrAddr()
}
