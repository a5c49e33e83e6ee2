package batch

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Checkpoint is the append-only record of completed lead keys. A key is added
// only after its result is durably written to the output stream.
type Checkpoint struct {
	f *os.File
}

// LoadCheckpoint reads the checkpoint file into a key set. A missing file is
// an empty set, not an error.
func LoadCheckpoint(path string) (map[string]struct{}, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]struct{}{}, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "batch: read checkpoint %s", path)
	}

	keys := make(map[string]struct{})
	for _, line := range strings.Split(string(data), "\n") {
		key := strings.TrimSpace(line)
		if key != "" {
			keys[key] = struct{}{}
		}
	}
	return keys, nil
}

// OpenCheckpoint opens the checkpoint for appending, creating it and its
// parent directory when absent.
func OpenCheckpoint(path string) (*Checkpoint, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "batch: create checkpoint dir %s", dir)
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, eris.Wrapf(err, "batch: open checkpoint %s", path)
	}
	return &Checkpoint{f: f}, nil
}

// Add durably appends one completed lead key.
func (c *Checkpoint) Add(key string) error {
	if _, err := c.f.WriteString(key + "\n"); err != nil {
		return eris.Wrapf(err, "batch: append checkpoint key %s", key)
	}
	if err := c.f.Sync(); err != nil {
		return eris.Wrap(err, "batch: sync checkpoint")
	}
	return nil
}

// Close releases the underlying file.
func (c *Checkpoint) Close() error {
	return c.f.Close()
}
