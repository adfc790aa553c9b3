package shrinker

// The delta-debugging layer: a greedy single-pass sequence shrinker
// built on exponential-probe binary search, and an alphabet-partition
// refinement over byte strings. Rare bytes are likely structural
// delimiters; deleting whole delimited regions makes large progress
// before bytewise shrinking handles the tail.

// findLargeN returns the largest k <= maxN such that f(k) held and f
// held at every probed point up to k. f is assumed near-monotone on
// {1..maxN}: the search probes exponentially from 1, then binary
// searches between the last success and the first failure. Returns 0
// if f(1) fails. Costs O(log maxN) invocations of f.
func findLargeN(maxN int, f func(int) bool) int {
	if !f(1) {
		return 0
	}

	lo, hi := 1, 2
	for hi <= maxN && f(hi) {
		lo = hi
		hi *= 2
	}

	if hi > maxN {
		if f(maxN) {
			return maxN
		}
		hi = maxN
	}

	for lo+1 < hi {
		mid := (lo + hi) / 2
		if f(mid) {
			lo = mid
		} else {
			hi = mid
		}
	}

	return lo
}

// shrinkSequence greedily deletes elements from target in a single
// left-to-right pass. At each position it finds a maximal deletable
// run via [findLargeN]; after a successful deletion the position is
// retried, otherwise it advances by one. predicate is only ever called
// on strictly shorter sequences.
func shrinkSequence[T any](target []T, predicate func([]T) bool) []T {
	i := 0
	for i < len(target) {
		k := findLargeN(len(target)-i, func(k int) bool {
			candidate := deleteRange(target, i, i+k)
			if len(candidate) >= len(target) {
				panic("shrinker: deletion produced no-shorter sequence")
			}
			return predicate(candidate)
		})

		if k > 0 {
			target = deleteRange(target, i, i+k)
		} else {
			i++
		}
	}

	return target
}

// deleteRange returns a copy of s with s[i:j] removed.
func deleteRange[T any](s []T, i, j int) []T {
	out := make([]T, 0, len(s)-(j-i))
	out = append(out, s[:i]...)
	return append(out, s[j:]...)
}

// span is a half-open interval [start, end) into some byte string.
type span struct {
	start, end int
}

// partitionOn splits s into adjacent spans covering [0, len(s)), with a
// new span beginning exactly at each occurrence of c (so c is always
// the first byte of its span). An empty string yields an empty
// partition.
func partitionOn(s []byte, c byte) []span {
	if len(s) == 0 {
		return nil
	}

	parts := []span{{0, 1}}
	for i := 1; i < len(s); i++ {
		if s[i] != c {
			parts[len(parts)-1].end = i + 1
		} else {
			parts = append(parts, span{i, i + 1})
		}
	}

	checkPartition(len(s), parts)

	return parts
}

// checkPartition panics unless parts are adjacent, start at 0, and end
// at n. Violation indicates corruption.
func checkPartition(n int, parts []span) {
	if parts[0].start != 0 || parts[len(parts)-1].end != n {
		panic("shrinker: partition does not cover string")
	}
	for i := 1; i < len(parts); i++ {
		if parts[i-1].end != parts[i].start {
			panic("shrinker: partition spans not adjacent")
		}
	}
}

// partitionToString concatenates the byte ranges of s selected by parts.
func partitionToString(s []byte, parts []span) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, s[p.start:p.end]...)
	}
	return out
}

// shrink delta-debugs target down to a bytewise local minimum of
// predicate. It first refines by alphabet partitioning, taking the
// rarest unprocessed byte value each round (smallest value on ties)
// and shrinking the induced span sequence, then finishes with a
// bytewise pass.
func (sh *Shrinker) shrink(target []byte, predicate func([]byte) bool) []byte {
	used := make(map[byte]bool)

	for {
		c, ok := rarestUnusedByte(target, used)
		if !ok {
			break
		}

		parts := partitionOn(target, c)
		sh.debugf("partitioning by %q into %d parts", string([]byte{c}), len(parts))
		used[c] = true

		base := target
		parts = shrinkSequence(parts, func(ps []span) bool {
			return predicate(partitionToString(base, ps))
		})
		target = partitionToString(base, parts)
	}

	sh.debugf("partitioning bytewise")

	return shrinkSequence(target, predicate)
}

// rarestUnusedByte returns the least frequent byte value in s not yet
// marked used, preferring the smallest value among equally rare bytes.
func rarestUnusedByte(s []byte, used map[byte]bool) (byte, bool) {
	var counts [256]int
	for _, b := range s {
		counts[b]++
	}

	var best byte
	found := false

	for v := range 256 {
		b := byte(v)
		if counts[b] == 0 || used[b] {
			continue
		}
		if !found || counts[b] < counts[best] {
			best = b
			found = true
		}
	}

	return best, found
}
