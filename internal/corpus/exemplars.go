package corpus

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"shrinkfuzz/pkg/fs"
)

// ExemplarInfo summarizes one recorded exemplar for listing.
type ExemplarInfo struct {
	Label  string
	Size   int64
	Digest string
}

// ListExemplars reads the exemplars recorded under a corpus root.
// inputName must match the input name the corpus was written with (see
// [Manifest.Input]). Results are sorted by label (directory order).
func ListExemplars(fsys fs.FS, root, inputName string) ([]ExemplarInfo, error) {
	dir := filepath.Join(root, dirExemplars)

	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read exemplars dir: %w", err)
	}

	suffix := "-" + inputName

	var infos []ExemplarInfo

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}

		data, err := fsys.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read exemplar %q: %w", entry.Name(), err)
		}

		sum := sha1.Sum(data)

		infos = append(infos, ExemplarInfo{
			Label:  strings.TrimSuffix(entry.Name(), suffix),
			Size:   int64(len(data)),
			Digest: hex.EncodeToString(sum[:])[:8],
		})
	}

	return infos, nil
}

// ExemplarBytes returns the recorded exemplar for a label.
func ExemplarBytes(fsys fs.FS, root, inputName, label string) ([]byte, error) {
	path := filepath.Join(root, dirExemplars, label+"-"+inputName)

	exists, err := fsys.Exists(path)
	if err != nil {
		return nil, fmt.Errorf("check exemplar: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrExemplarNotFound, label)
	}

	return fsys.ReadFile(path)
}
