package shrinker

import "fmt"

// Test-only accessors and white-box hooks.

// Bounds returns the half-open interval covered by the span.
func (p span) Bounds() (start, end int) {
	return p.start, p.end
}

// ShrinkBytes runs a full shrink pass (alphabet partitioning plus the
// final bytewise pass) outside the scheduler.
func (sh *Shrinker) ShrinkBytes(target []byte, predicate func([]byte) bool) []byte {
	return sh.shrink(target, predicate)
}

// CorpusWitnesses returns the live witnesses in insertion order.
func (sh *Shrinker) CorpusWitnesses() [][]byte {
	out := make([][]byte, 0, len(sh.corpus))
	for _, s := range sh.corpus {
		out = append(out, []byte(s))
	}
	return out
}

// ExhaustedWitnesses returns the witnesses marked exhausted.
func (sh *Shrinker) ExhaustedWitnesses() [][]byte {
	out := make([][]byte, 0, len(sh.exhausted))
	for s := range sh.exhausted {
		out = append(out, []byte(s))
	}
	return out
}

// CheckInvariants verifies the coupling between exemplars, best, corpus
// and exhausted. It returns the first violation found, or nil.
func (sh *Shrinker) CheckInvariants() error {
	for l, s := range sh.exemplars {
		if !sh.best[s].Has(l) {
			return fmt.Errorf("label %q has exemplar %q but best[%q] misses it", l, s, s)
		}
	}

	for s, labels := range sh.best {
		if len(labels) == 0 {
			return fmt.Errorf("witness %q has empty best set", s)
		}
		for l := range labels {
			if sh.exemplars[l] != s {
				return fmt.Errorf("best[%q] holds %q but exemplars[%q] = %q", s, l, l, sh.exemplars[l])
			}
		}
	}

	inCorpus := make(map[string]int, len(sh.corpus))
	for _, s := range sh.corpus {
		inCorpus[s]++
		if inCorpus[s] > 1 {
			return fmt.Errorf("witness %q appears %d times in corpus", s, inCorpus[s])
		}
		if len(sh.best[s]) == 0 {
			return fmt.Errorf("corpus member %q has no labels", s)
		}
	}

	for s := range sh.best {
		if inCorpus[s] == 0 {
			return fmt.Errorf("witness %q has labels but is not in corpus", s)
		}
	}

	for s := range sh.exhausted {
		if inCorpus[s] == 0 {
			return fmt.Errorf("exhausted witness %q is not in corpus", s)
		}
	}

	return nil
}
