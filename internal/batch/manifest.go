package batch

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

// chunkNamePattern matches chunk files: leads_<start>_<end>.jsonl with
// zero-padded 1-based row indices.
var chunkNamePattern = regexp.MustCompile(`^leads_(\d{5})_(\d{5})\.jsonl$`)

// ChunkEntry describes one chunk file and the row-index range it covers.
type ChunkEntry struct {
	StartRow int    `json:"start_row"`
	EndRow   int    `json:"end_row"`
	Path     string `json:"path"`
}

// ManifestMetadata carries aggregate counts for the chunk set.
type ManifestMetadata struct {
	TotalDatasetRows int    `json:"total_dataset_rows"`
	RowsProcessed    int    `json:"rows_processed"`
	LastUpdated      string `json:"last_updated"`
}

// Manifest is a derived index over the chunk directory. No information lives
// only here: it is always reconstructable by RebuildManifest.
type Manifest struct {
	Metadata ManifestMetadata `json:"metadata"`
	Chunks   []ChunkEntry     `json:"chunks"`
}

// ChunkFiles lists the chunk files under dir in row order. A missing
// directory is an empty set.
func ChunkFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "batch: read chunk dir %s", dir)
	}

	var paths []string
	for _, e := range entries {
		if !e.IsDir() && chunkNamePattern.MatchString(e.Name()) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	// Zero-padded names sort in row order.
	sort.Strings(paths)
	return paths, nil
}

// RebuildManifest derives the manifest purely from the chunk files on disk.
// LastUpdated comes from the newest chunk file's mtime, so two rebuilds over
// the same files produce byte-identical manifests.
func RebuildManifest(chunkDir string, totalRows int) (*Manifest, error) {
	paths, err := ChunkFiles(chunkDir)
	if err != nil {
		return nil, err
	}

	m := &Manifest{
		Metadata: ManifestMetadata{TotalDatasetRows: totalRows},
		Chunks:   []ChunkEntry{},
	}

	var newest time.Time
	for _, path := range paths {
		groups := chunkNamePattern.FindStringSubmatch(filepath.Base(path))
		start, _ := strconv.Atoi(groups[1])
		end, _ := strconv.Atoi(groups[2])

		lines, err := countLines(path)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, eris.Wrapf(err, "batch: stat chunk %s", path)
		}
		if info.ModTime().After(newest) {
			newest = info.ModTime()
		}

		m.Metadata.RowsProcessed += lines
		m.Chunks = append(m.Chunks, ChunkEntry{StartRow: start, EndRow: end, Path: path})
	}

	sort.Slice(m.Chunks, func(i, j int) bool { return m.Chunks[i].StartRow < m.Chunks[j].StartRow })
	if !newest.IsZero() {
		m.Metadata.LastUpdated = newest.UTC().Format(time.RFC3339)
	}
	return m, nil
}

// Write persists the manifest atomically via temp-file + rename.
func (m *Manifest) Write(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return eris.Wrap(err, "batch: marshal manifest")
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return eris.Wrapf(err, "batch: write manifest %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return eris.Wrapf(err, "batch: rename manifest %s", path)
	}
	return nil
}

// countLines counts newline-terminated records. Reports can be long, so this
// counts bytes rather than scanning tokens.
func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, eris.Wrapf(err, "batch: open chunk %s", path)
	}
	defer f.Close()

	n := 0
	buf := make([]byte, 64*1024)
	for {
		read, err := f.Read(buf)
		n += bytes.Count(buf[:read], []byte{'\n'})
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return 0, eris.Wrapf(err, "batch: count lines %s", path)
		}
	}
}
