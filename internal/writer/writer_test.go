package writer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/yanet-platform/mlog/internal/container"
	"github.com/yanet-platform/mlog/internal/partition"
)

func testEnv(pid, tid uint32) Environment {
	var clock int64
	return Environment{
		NowMicros:  func() int64 { clock++; return clock },
		PID:        func() uint32 { return pid },
		ThreadID:   func() uint32 { return tid },
		ThreadName: func() string { return "worker" },
	}
}

func testShape(partSize uint32) container.Shape {
	var sizes [partition.Count]uint32
	sizes[0] = partSize
	return container.Shape{PartSizes: sizes}
}

func Test_PutBeforeInitIsASafeNoOp(t *testing.T) {
	w := New(testEnv(1, 1), nil)
	ok := w.Put(1, "src.go", 10, 0, 0, 0, []byte("hello"))
	assert.False(t, ok)
}

func Test_InitAndPutRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "w.mlog")
	w := New(testEnv(7, 11), nil)

	require.NoError(t, w.Init(path, testShape(1<<16), 0, "hint"))

	ok := w.Put(100, "src.go", 5, 0, 3, 0xabcd, []byte("hello"))
	assert.True(t, ok)
}

func Test_OversizedPutReturnsFalseAndLeavesStateUnchanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "w.mlog")
	w := New(testEnv(1, 1), nil)
	require.NoError(t, w.Init(path, testShape(64), 0, ""))

	st := w.st.Load()
	before := st.cnt.Cnt()

	ok := w.Put(1, "", 0, 0, 0, 0, make([]byte, 1000))
	assert.False(t, ok)
	assert.Equal(t, before, st.cnt.Cnt())
}

func Test_CallbackFiresOnEveryPutRegardlessOfPublishSuccess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "w.mlog")
	w := New(testEnv(1, 1), nil)
	require.NoError(t, w.Init(path, testShape(1<<16), 0, ""))

	var calls int
	w.SetCallback(func(timeUS int64, srcName string, srcLine int, level, category uint32, mini uint64, payload []byte) {
		calls++
	})

	assert.True(t, w.Put(1, "a.go", 1, 0, 0, 0, []byte("x")))
	assert.False(t, w.Put(1, "a.go", 1, 0, 0, 0, make([]byte, 1<<20)))
	assert.Equal(t, 2, calls)
}

func Test_InitResetsCallbackToDefault(t *testing.T) {
	var defaultCalls int
	w := New(testEnv(1, 1), func(int64, string, int, uint32, uint32, uint64, []byte) {
		defaultCalls++
	})

	// Dummy mode: the default callback tees every Put.
	w.Put(1, "a.go", 1, 0, 0, 0, []byte("x"))
	assert.Equal(t, 1, defaultCalls)

	// A successful Init removes the callback entirely.
	path := filepath.Join(t.TempDir(), "w.mlog")
	require.NoError(t, w.Init(path, testShape(1<<16), 0, ""))
	w.Put(2, "a.go", 1, 0, 0, 0, []byte("x"))
	assert.Equal(t, 1, defaultCalls)

	// A failed Init reinstalls the default, replacing whatever the caller
	// set in the meantime.
	var customCalls int
	w.SetCallback(func(int64, string, int, uint32, uint32, uint64, []byte) {
		customCalls++
	})
	badPath := filepath.Join(t.TempDir(), "missing", "w.mlog")
	require.Error(t, w.Init(badPath, testShape(1<<16), 0, ""))
	w.Put(3, "a.go", 1, 0, 0, 0, []byte("x"))
	assert.Equal(t, 2, defaultCalls)
	assert.Zero(t, customCalls)
}

func Test_ClearResetsCounterAndCursor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "w.mlog")
	w := New(testEnv(1, 1), nil)
	require.NoError(t, w.Init(path, testShape(1<<16), 0, ""))

	w.Put(1, "a.go", 1, 0, 0, 0, []byte("x"))
	w.Put(2, "a.go", 1, 0, 0, 0, []byte("y"))

	w.Clear()

	st := w.st.Load()
	assert.EqualValues(t, 0, st.cnt.Cnt())
}

func Test_ConcurrentPutsMintUniqueOrders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "w.mlog")
	w := New(testEnv(1, 1), nil)
	require.NoError(t, w.Init(path, testShape(1<<20), 0, ""))

	const goroutines = 8
	const perGoroutine = 2000

	var g errgroup.Group
	for i := 0; i < goroutines; i++ {
		g.Go(func() error {
			for i := 0; i < perGoroutine; i++ {
				w.Put(int64(i), "a.go", 1, 0, 0, 0, []byte("x"))
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	st := w.st.Load()
	assert.EqualValues(t, goroutines*perGoroutine, st.cnt.Cnt())
}

func Test_NameTruncationFlagsGateInlineCapture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "w.mlog")
	w := New(testEnv(1, 1), nil)
	require.NoError(t, w.Init(path, testShape(1<<16), ThreadName|SourceName, ""))

	ok := w.Put(1, "/a/b/source.go", 42, 0, 0, 0, []byte("payload"))
	assert.True(t, ok)
}

func Test_PostForkedUpdatesCachedPID(t *testing.T) {
	w := New(testEnv(1, 1), nil)
	w.PostForked(999)
	assert.EqualValues(t, 999, w.st.Load().pid)
}
