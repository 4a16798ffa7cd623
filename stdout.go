package mlog

import (
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// stdoutCallback is the default writer callback: it tees every Put to
// stdout while the writer has no backing file (before the first Init, or
// after a failed one), whether or not the record ultimately publishes.
func stdoutCallback(timeUS int64, srcName string, srcLine int, level, category uint32, mini uint64, payload []byte) {
	name := baseName(srcName)
	if len(name) > 16 {
		name = name[len(name)-16:]
	}

	ts := time.UnixMicro(timeUS).Format("2006-01-02 15:04:05.000000")
	fmt.Printf("%s %16s:%03d @%02d: %s\n", ts, name, srcLine, unix.Gettid(), trimNUL(payload))
}

func baseName(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

func trimNUL(b []byte) string {
	if i := len(b) - 1; i >= 0 && b[i] == 0 {
		b = b[:i]
	}
	return string(b)
}

func currentPID() int {
	return os.Getpid()
}
