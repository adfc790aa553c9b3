package shrinker

import "slices"

// LabelSet is a set of behavior labels. Labels are opaque strings with
// identity by exact value.
type LabelSet map[string]struct{}

// NewLabelSet returns a LabelSet holding the given labels.
func NewLabelSet(labels ...string) LabelSet {
	ls := make(LabelSet, len(labels))
	for _, l := range labels {
		ls.Add(l)
	}
	return ls
}

// Add inserts a label into the set.
func (ls LabelSet) Add(label string) {
	ls[label] = struct{}{}
}

// Has reports whether the set contains label.
func (ls LabelSet) Has(label string) bool {
	_, ok := ls[label]
	return ok
}

// Equal reports whether both sets contain exactly the same labels.
func (ls LabelSet) Equal(other LabelSet) bool {
	if len(ls) != len(other) {
		return false
	}
	for l := range ls {
		if !other.Has(l) {
			return false
		}
	}
	return true
}

// Sorted returns the labels in sorted order.
func (ls LabelSet) Sorted() []string {
	labels := make([]string, 0, len(ls))
	for l := range ls {
		labels = append(labels, l)
	}

	sortStrings(labels)

	return labels
}

func sortStrings(s []string) {
	slices.Sort(s)
}
