package shrinker_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"shrinkfuzz/internal/shrinker"
)

// recorder captures observer notifications in order.
type recorder struct {
	events   []string
	unstable [][]byte
}

func (r *recorder) Added(s []byte) {
	r.events = append(r.events, fmt.Sprintf("add %q", s))
}

func (r *recorder) Removed(s []byte) {
	r.events = append(r.events, fmt.Sprintf("remove %q", s))
}

func (r *recorder) Changed(labels []string, s []byte) {
	r.events = append(r.events, fmt.Sprintf("change %v %q", labels, s))
}

func (r *recorder) Unstable(s []byte) {
	r.unstable = append(r.unstable, bytes.Clone(s))
	r.events = append(r.events, fmt.Sprintf("unstable %q", s))
}

func containsByte(s []byte, c byte) bool {
	return bytes.IndexByte(s, c) >= 0
}

func TestSingleLabelTrivialShrink(t *testing.T) {
	t.Parallel()

	classify := func(s []byte) shrinker.LabelSet {
		if containsByte(s, 'A') {
			return shrinker.NewLabelSet("x")
		}
		return shrinker.LabelSet{}
	}

	sh := shrinker.New(classify, [][]byte{[]byte("BBBABB")}, shrinker.Options{})
	sh.Run()

	got, ok := sh.Exemplar("x")
	require.True(t, ok)
	require.Equal(t, []byte("A"), got)
	require.NoError(t, sh.CheckInvariants())
}

func TestEmptyStringBaseline(t *testing.T) {
	t.Parallel()

	classify := func(s []byte) shrinker.LabelSet {
		if len(s) == 0 {
			return shrinker.NewLabelSet("empty")
		}
		return shrinker.NewLabelSet("nonempty")
	}

	sh := shrinker.New(classify, [][]byte{[]byte("hello")}, shrinker.Options{})
	if !sh.Seen(nil) {
		sh.Classify(nil)
	}
	sh.Run()

	empty, ok := sh.Exemplar("empty")
	require.True(t, ok)
	require.Empty(t, empty)

	nonempty, ok := sh.Exemplar("nonempty")
	require.True(t, ok)
	require.Len(t, nonempty, 1)
	require.NoError(t, sh.CheckInvariants())
}

func TestAlphabetPartitionWin(t *testing.T) {
	t.Parallel()

	classify := func(s []byte) shrinker.LabelSet {
		i := bytes.IndexByte(s, 0x01)
		if i >= 0 && bytes.IndexByte(s[i:], 0x02) > 0 {
			return shrinker.NewLabelSet("hit")
		}
		return shrinker.LabelSet{}
	}

	initial := []byte{0x00, 0x00, 0x01, 0xff, 0xff, 0x02, 0x00, 0x00}

	sh := shrinker.New(classify, [][]byte{initial}, shrinker.Options{})
	sh.Run()

	got, ok := sh.Exemplar("hit")
	require.True(t, ok)
	require.Equal(t, []byte{0x01, 0x02}, got)
	require.NoError(t, sh.CheckInvariants())
}

func TestUnstableClassificationFiltered(t *testing.T) {
	t.Parallel()

	s0 := []byte("flaky")
	calls := 0
	classify := func(s []byte) shrinker.LabelSet {
		if bytes.Equal(s, s0) {
			calls++
			if calls%2 == 0 {
				return shrinker.NewLabelSet("a")
			}
			return shrinker.NewLabelSet("b")
		}
		return shrinker.LabelSet{}
	}

	rec := &recorder{}
	sh := shrinker.New(classify, [][]byte{s0}, shrinker.Options{Observer: rec})

	require.Equal(t, [][]byte{s0}, rec.unstable)
	require.Empty(t, sh.Labels())
	require.Empty(t, sh.CorpusWitnesses())
	require.NoError(t, sh.CheckInvariants())

	// Nothing to schedule; Run must return immediately.
	sh.Run()
}

func TestStableFirstRepeatDiffersOnSecond(t *testing.T) {
	t.Parallel()

	s0 := []byte("flaky")
	calls := 0
	classify := func(s []byte) shrinker.LabelSet {
		if bytes.Equal(s, s0) {
			calls++
			// Third invocation disagrees with the first two.
			if calls == 3 {
				return shrinker.NewLabelSet("a", "b")
			}
			return shrinker.NewLabelSet("a")
		}
		return shrinker.LabelSet{}
	}

	rec := &recorder{}
	sh := shrinker.New(classify, [][]byte{s0}, shrinker.Options{Observer: rec})

	require.Equal(t, 3, calls)
	require.Equal(t, [][]byte{s0}, rec.unstable)
	require.Empty(t, sh.Labels())
	require.NoError(t, sh.CheckInvariants())
}

func TestLabelMigration(t *testing.T) {
	t.Parallel()

	classify := func(s []byte) shrinker.LabelSet {
		ls := shrinker.LabelSet{}
		if containsByte(s, 'P') {
			ls.Add("p")
		}
		if containsByte(s, 'Q') {
			ls.Add("q")
		}
		return ls
	}

	rec := &recorder{}
	sh := shrinker.New(classify, [][]byte{[]byte("PQ")}, shrinker.Options{Observer: rec})
	sh.Run()

	p, ok := sh.Exemplar("p")
	require.True(t, ok)
	require.Equal(t, []byte("P"), p)

	q, ok := sh.Exemplar("q")
	require.True(t, ok)
	require.Equal(t, []byte("Q"), q)

	// The original witness leaves the corpus exactly once, when its last
	// label migrates away.
	removes := 0
	for _, e := range rec.events {
		if e == `remove "PQ"` {
			removes++
		}
	}
	require.Equal(t, 1, removes)
	require.NoError(t, sh.CheckInvariants())
}

func TestNoProgressExhaustion(t *testing.T) {
	t.Parallel()

	classify := func(s []byte) shrinker.LabelSet {
		if bytes.Equal(s, []byte{0x00}) {
			return shrinker.NewLabelSet("id")
		}
		return shrinker.LabelSet{}
	}

	sh := shrinker.New(classify, [][]byte{{0x00}}, shrinker.Options{})
	sh.Run()

	require.Equal(t, [][]byte{{0x00}}, sh.ExhaustedWitnesses())
	require.Equal(t, [][]byte{{0x00}}, sh.CorpusWitnesses())
	require.NoError(t, sh.CheckInvariants())
}

func TestCallbackOrderAddBeforeChange(t *testing.T) {
	t.Parallel()

	classify := func(s []byte) shrinker.LabelSet {
		if len(s) > 0 {
			return shrinker.NewLabelSet("present")
		}
		return shrinker.LabelSet{}
	}

	rec := &recorder{}
	shrinker.New(classify, [][]byte{[]byte("z")}, shrinker.Options{Observer: rec})

	want := []string{`add "z"`, `change [present] "z"`}
	if diff := cmp.Diff(want, rec.events); diff != "" {
		t.Fatalf("event order mismatch (-want +got):\n%s", diff)
	}
}

func TestClassifyPanicsOnSeenInput(t *testing.T) {
	t.Parallel()

	classify := func([]byte) shrinker.LabelSet { return shrinker.LabelSet{} }
	sh := shrinker.New(classify, nil, shrinker.Options{})

	sh.Classify([]byte("once"))
	require.Panics(t, func() { sh.Classify([]byte("once")) })
}

func TestShrinkMonotonicityAndLocalMinimum(t *testing.T) {
	t.Parallel()

	// Deterministic predicate with structure: keep anything that still
	// contains "ab" as a subsequence separated by arbitrary bytes.
	pred := func(s []byte) bool {
		i := bytes.IndexByte(s, 'a')
		return i >= 0 && bytes.IndexByte(s[i:], 'b') > 0
	}

	classify := func(s []byte) shrinker.LabelSet {
		if pred(s) {
			return shrinker.NewLabelSet("ab")
		}
		return shrinker.LabelSet{}
	}

	target := []byte("xxaxyzbxx")
	sh := shrinker.New(classify, nil, shrinker.Options{})

	got := sh.ShrinkBytes(target, func(t []byte) bool {
		return len(t) < len(target) && pred(t)
	})

	require.True(t, pred(got))
	require.LessOrEqual(t, len(got), len(target))

	// Bytewise local minimum: no single contiguous deletion preserves
	// the predicate.
	for i := 0; i < len(got); i++ {
		for k := 1; i+k <= len(got); k++ {
			cand := append(append([]byte{}, got[:i]...), got[i+k:]...)
			require.Falsef(t, pred(cand), "deleting [%d,%d) from %q still satisfies predicate", i, i+k, got)
		}
	}
}

func TestDebugStreamMentionsProgress(t *testing.T) {
	t.Parallel()

	classify := func(s []byte) shrinker.LabelSet {
		if containsByte(s, 'A') {
			return shrinker.NewLabelSet("x")
		}
		return shrinker.LabelSet{}
	}

	var buf bytes.Buffer
	sh := shrinker.New(classify, [][]byte{[]byte("BBAB")}, shrinker.Options{Debug: &buf})
	sh.Run()

	out := buf.String()
	require.Contains(t, out, `discovered new label "x"`)
	require.Contains(t, out, "shrinking 4 bytes for x")
	require.Contains(t, out, "partitioning bytewise")
}
