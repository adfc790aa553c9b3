package corpus

import "errors"

var (
	// ErrNoManifest indicates the corpus directory holds no run.json,
	// so it was never populated by a run.
	ErrNoManifest = errors.New("corpus has no run manifest")

	// ErrExemplarNotFound indicates no exemplar is recorded for a label.
	ErrExemplarNotFound = errors.New("no exemplar for label")
)
