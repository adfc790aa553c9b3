// Package shrinker implements the behavior-partitioning shrink engine.
//
// A [Shrinker] maintains a corpus of byte-string witnesses, each the
// smallest known input for which an opaque classifier reports some
// behavior label. [Shrinker.Run] repeatedly picks the largest live
// witness and delta-debugs it down, discovering new labels and smaller
// exemplars along the way. All progress comes from shrinking; there is
// no mutation or coverage feedback.
package shrinker

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
)

// Classifier maps an input to the set of behavior labels it exhibits.
// The empty set is a valid result and means "uninteresting".
//
// Implementations are expected to be deterministic; inputs whose
// classification does not reproduce are filtered out (see
// [Observer.Unstable]).
type Classifier func(s []byte) LabelSet

// Options configures a [Shrinker].
type Options struct {
	// Observer receives corpus change notifications. Nil means no-op.
	Observer Observer

	// Debug, when non-nil, receives a human-readable event stream
	// describing discovery and shrink progress.
	Debug io.Writer
}

// Shrinker indexes behavior labels to their smallest known witnesses
// and schedules shrink passes over the corpus.
//
// A Shrinker is not safe for concurrent use. Classifier calls and
// observer callbacks happen synchronously on the calling goroutine;
// callbacks must not re-enter the Shrinker.
type Shrinker struct {
	classify Classifier
	obs      Observer
	debug    io.Writer

	// seen holds 32-bit fingerprints of every input ever classified.
	// Collisions at most lose a potential improvement.
	seen map[uint32]struct{}

	// exemplars maps each label to its current smallest witness, and
	// best is its inverse: for each live witness, the labels it is the
	// exemplar for. corpus lists exactly the witnesses with a non-empty
	// best set, in insertion order. exhausted marks corpus members a
	// full shrink pass failed to reduce.
	exemplars map[string]string
	best      map[string]LabelSet
	corpus    []string
	exhausted map[string]struct{}
}

// New creates a Shrinker and classifies the initial examples
// (duplicates are submitted once). classify must be non-nil.
func New(classify Classifier, initial [][]byte, opts Options) *Shrinker {
	if classify == nil {
		panic("shrinker: classify is nil")
	}

	obs := opts.Observer
	if obs == nil {
		obs = NopObserver{}
	}

	sh := &Shrinker{
		classify:  classify,
		obs:       obs,
		debug:     opts.Debug,
		seen:      make(map[uint32]struct{}),
		exemplars: make(map[string]string),
		best:      make(map[string]LabelSet),
		exhausted: make(map[string]struct{}),
	}

	for _, s := range initial {
		if !sh.Seen(s) {
			sh.Classify(s)
		}
	}

	return sh
}

// seenKey is the fast approximate identity of an input: the first four
// bytes of its SHA-1, big-endian. False negatives are impossible; false
// positives are rare and tolerated.
func seenKey(s []byte) uint32 {
	sum := sha1.Sum(s)
	return binary.BigEndian.Uint32(sum[:4])
}

// less reports whether a precedes b in shrink order: shorter strings
// first, ties broken by lexicographic byte order.
func less(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// Seen reports whether s has already been submitted for classification.
func (sh *Shrinker) Seen(s []byte) bool {
	_, ok := sh.seen[seenKey(s)]
	return ok
}

func (sh *Shrinker) markSeen(s []byte) {
	sh.seen[seenKey(s)] = struct{}{}
}

// Classify submits a never-before-seen input to the classifier and
// integrates the result into the corpus. It returns the stable label
// set, or an empty set if classification did not reproduce.
//
// Calling Classify on a seen input is a logic bug and panics.
func (sh *Shrinker) Classify(s []byte) LabelSet {
	if sh.Seen(s) {
		panic("shrinker: Classify called on already-seen input")
	}

	key := string(s)
	if len(sh.best[key]) != 0 {
		panic("shrinker: Classify called on live witness")
	}

	sh.markSeen(s)

	result := sh.classify(s)

	// Guard quite aggressively against unstable classifications. If this
	// input would make it into the corpus, classify twice more and
	// require the exact same label set every time. Otherwise report it
	// unstable and keep the corpus untouched.
	if sh.wouldImprove(key, result) {
		for range 2 {
			if !result.Equal(sh.classify(s)) {
				sh.obs.Unstable(s)
				return LabelSet{}
			}
		}
	}

	var improved []string

	for _, l := range result.Sorted() {
		existing, ok := sh.exemplars[l]

		switch {
		case !ok:
			sh.debugf("discovered new label %q", l)
			sh.promote(key, l)
		case less(key, existing):
			improved = append(improved, l)
			sh.promote(key, l)

			delete(sh.best[existing], l)
			if len(sh.best[existing]) == 0 {
				sh.evict(existing)
			}
		}
	}

	if len(improved) > 0 {
		sh.debugf("improved labels %s to %d bytes", strings.Join(improved, ", "), len(s))
	}

	if labels := sh.best[key]; len(labels) > 0 {
		sh.corpus = append(sh.corpus, key)
		sh.obs.Added(s)
		sh.obs.Changed(labels.Sorted(), s)
	}

	return result
}

// wouldImprove reports whether integrating result would change the
// corpus: some label is new, or s beats its current exemplar.
func (sh *Shrinker) wouldImprove(key string, result LabelSet) bool {
	for l := range result {
		existing, ok := sh.exemplars[l]
		if !ok || less(key, existing) {
			return true
		}
	}
	return false
}

// promote makes s the exemplar for label l.
func (sh *Shrinker) promote(s string, l string) {
	sh.exemplars[l] = s

	if sh.best[s] == nil {
		sh.best[s] = make(LabelSet)
	}
	sh.best[s].Add(l)
}

// evict removes a witness that no longer holds any labels.
func (sh *Shrinker) evict(s string) {
	for i, c := range sh.corpus {
		if c == s {
			sh.corpus = append(sh.corpus[:i], sh.corpus[i+1:]...)
			break
		}
	}

	delete(sh.best, s)
	delete(sh.exhausted, s)
	sh.obs.Removed([]byte(s))
}

// Run shrinks corpus members until every witness is exhausted: no
// single contiguous deletion in any of them preserves any of its
// labels. Given a deterministic classifier with a finite label
// universe, Run terminates.
func (sh *Shrinker) Run() {
	for len(sh.exhausted) < len(sh.corpus) {
		target := sh.nextTarget()

		objectives := sh.best[target].Sorted()
		if len(objectives) == 0 {
			panic("shrinker: scheduled witness holds no labels")
		}

		desc := objectives[0]
		if len(objectives) > 1 {
			desc = "any of " + strings.Join(objectives, ", ")
		}

		sh.debugf("shrinking %d bytes for %s", len(target), desc)

		original := []byte(target)

		predicate := func(t []byte) bool {
			if len(t) >= len(original) {
				panic("shrinker: shrink candidate not smaller than target")
			}
			if sh.Seen(t) {
				return false
			}

			markers := sh.Classify(t)
			for _, o := range objectives {
				if markers.Has(o) {
					return true
				}
			}

			return false
		}

		shrunk := sh.shrink(original, predicate)

		if bytes.Equal(shrunk, original) {
			sh.exhausted[target] = struct{}{}
		} else {
			sh.debugf("shrink pass deleted %d bytes out of %d", len(original)-len(shrunk), len(original))
		}
	}
}

// nextTarget returns the largest unexhausted witness in shrink order,
// taking the earliest-inserted on ties.
func (sh *Shrinker) nextTarget() string {
	var target string
	found := false

	for _, s := range sh.corpus {
		if _, done := sh.exhausted[s]; done {
			continue
		}
		if !found || less(target, s) {
			target = s
			found = true
		}
	}

	if !found {
		panic("shrinker: no unexhausted witness to schedule")
	}

	return target
}

// Exemplar returns the current smallest witness for a label.
func (sh *Shrinker) Exemplar(label string) ([]byte, bool) {
	s, ok := sh.exemplars[label]
	if !ok {
		return nil, false
	}
	return []byte(s), true
}

// Labels returns all discovered labels in sorted order.
func (sh *Shrinker) Labels() []string {
	labels := make([]string, 0, len(sh.exemplars))
	for l := range sh.exemplars {
		labels = append(labels, l)
	}

	sortStrings(labels)

	return labels
}

func (sh *Shrinker) debugf(format string, args ...any) {
	if sh.debug == nil {
		return
	}
	fmt.Fprintf(sh.debug, format+"\n", args...)
}
