package shrinker

// Observer receives corpus change notifications. All callbacks are
// invoked synchronously from within [Shrinker.Classify] and must not
// re-enter the Shrinker. For any one input, Added or Removed fires
// before Changed.
type Observer interface {
	// Added is called when s enters the corpus.
	Added(s []byte)

	// Removed is called when s is evicted from the corpus.
	Removed(s []byte)

	// Changed is called when s becomes the exemplar for exactly these
	// labels. labels is the full sorted set, not a delta.
	Changed(labels []string, s []byte)

	// Unstable is called when s was dropped because its classification
	// did not reproduce.
	Unstable(s []byte)
}

// NopObserver is an [Observer] that ignores all notifications.
type NopObserver struct{}

func (NopObserver) Added([]byte)             {}
func (NopObserver) Removed([]byte)           {}
func (NopObserver) Changed([]string, []byte) {}
func (NopObserver) Unstable([]byte)          {}
