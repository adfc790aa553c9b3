package corpus

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"shrinkfuzz/pkg/fs"
)

// ManifestName is the session manifest file under the corpus root.
const ManifestName = "run.json"

// Manifest describes the session a corpus directory belongs to. It is
// rewritten at the start of every run and lets inspection commands
// resolve file names without re-supplying the target arguments.
type Manifest struct {
	RunID     string    `json:"run_id"`
	Command   string    `json:"command"`
	Input     string    `json:"input"`
	Output    string    `json:"output"`
	StartedAt time.Time `json:"started_at"`
}

// NewManifest builds a manifest for a fresh session with a random run ID.
func NewManifest(command, input, output string) Manifest {
	return Manifest{
		RunID:     uuid.NewString(),
		Command:   command,
		Input:     input,
		Output:    output,
		StartedAt: time.Now().UTC(),
	}
}

// WriteManifest persists the session manifest under the corpus root.
func (st *Store) WriteManifest(m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	data = append(data, '\n')

	path := filepath.Join(st.root, ManifestName)
	if err := st.aw.WriteWithDefaults(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}

// ReadManifest loads the session manifest from a corpus root.
func ReadManifest(fsys fs.FS, root string) (Manifest, error) {
	data, err := fsys.ReadFile(filepath.Join(root, ManifestName))
	if err != nil {
		return Manifest{}, fmt.Errorf("%w: %s", ErrNoManifest, root)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}

	return m, nil
}
