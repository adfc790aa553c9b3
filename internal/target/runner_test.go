package target_test

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"shrinkfuzz/internal/target"
)

type recordingSink struct {
	crashes   [][]byte
	timeouts  [][]byte
	snapshots []string
}

func (s *recordingSink) RecordCrash(in []byte)   { s.crashes = append(s.crashes, bytes.Clone(in)) }
func (s *recordingSink) RecordTimeout(in []byte) { s.timeouts = append(s.timeouts, bytes.Clone(in)) }
func (s *recordingSink) SnapshotOutput(_, digest string) {
	s.snapshots = append(s.snapshots, digest)
}

func newRunner(t *testing.T, command string) (*target.Runner, *recordingSink) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}

	dir := t.TempDir()
	sink := &recordingSink{}

	return &target.Runner{
		Command:    command,
		InputPath:  filepath.Join(dir, "input"),
		OutputPath: filepath.Join(dir, "output"),
		Timeout:    10 * time.Second,
		Sink:       sink,
	}, sink
}

func TestClassifyExitCode(t *testing.T) {
	t.Parallel()

	r, sink := newRunner(t, "exit 7")

	labels := r.Classify([]byte("anything"))

	require.True(t, labels.Has("return-7"), "labels: %v", labels.Sorted())
	require.True(t, labels.Has("output-none"), "labels: %v", labels.Sorted())
	require.Empty(t, sink.crashes)
	require.Empty(t, sink.timeouts)
}

func TestClassifyOutputDigest(t *testing.T) {
	t.Parallel()

	r, sink := newRunner(t, "")
	r.Command = fmt.Sprintf("cat %q > %q", r.InputPath, r.OutputPath)

	input := []byte("some input bytes")
	sum := sha1.Sum(input)
	digest := hex.EncodeToString(sum[:])[:8]

	labels := r.Classify(input)

	require.True(t, labels.Has("return-0"), "labels: %v", labels.Sorted())
	require.True(t, labels.Has("output-"+digest), "labels: %v", labels.Sorted())
	require.Equal(t, []string{digest}, sink.snapshots)

	// A different output gets its own snapshot.
	labels = r.Classify(append(input, 0))
	require.False(t, labels.Has("output-"+digest))
	require.Len(t, sink.snapshots, 2)
}

func TestClassifySignalDeathIsCrash(t *testing.T) {
	t.Parallel()

	r, sink := newRunner(t, "kill -KILL $$")

	labels := r.Classify([]byte("boom"))

	require.True(t, labels.Has("return--9"), "labels: %v", labels.Sorted())
	require.Equal(t, [][]byte{[]byte("boom")}, sink.crashes)
}

func TestClassifyTimeout(t *testing.T) {
	t.Parallel()

	r, sink := newRunner(t, "sleep 30")
	r.Timeout = 200 * time.Millisecond

	start := time.Now()
	labels := r.Classify([]byte("slow"))
	elapsed := time.Since(start)

	require.Empty(t, labels)
	require.Equal(t, [][]byte{[]byte("slow")}, sink.timeouts)
	require.Less(t, elapsed, 10*time.Second)
}

func TestClassifyWritesInputFile(t *testing.T) {
	t.Parallel()

	r, _ := newRunner(t, "")
	r.Command = fmt.Sprintf("grep -q magic %q", r.InputPath)

	require.True(t, r.Classify([]byte("has magic inside")).Has("return-0"))
	require.True(t, r.Classify([]byte("has nothing inside")).Has("return-1"))
}

func TestFirstRunStdoutPassthrough(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r, _ := newRunner(t, "echo visible")
	r.Stdout = &buf

	r.Classify([]byte("a"))
	require.Contains(t, buf.String(), "visible")

	r.Classify([]byte("b"))
	require.Equal(t, "visible\n", buf.String(), "second run must be silenced")
}
