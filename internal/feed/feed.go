package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadscope/internal/model"
)

// Reader streams leads from a CSV feed. The feed must carry "filename" and
// "text" columns; richer columns from the upstream ranker (headline,
// qui_tam_score, fraud_type, key_facts, implicated_actors,
// federal_programs_involved) are picked up when present.
type Reader struct {
	f    *os.File
	csv  *csv.Reader
	cols map[string]int
	row  int
}

// NewReader opens the feed at path and validates the header.
func NewReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "feed: open %s", path)
	}

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		f.Close()
		return nil, eris.Wrapf(err, "feed: read header %s", path)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	if _, ok := cols["filename"]; !ok {
		f.Close()
		return nil, eris.New("feed: input CSV must contain 'filename' and 'text' columns")
	}
	if _, ok := cols["text"]; !ok {
		f.Close()
		return nil, eris.New("feed: input CSV must contain 'filename' and 'text' columns")
	}

	return &Reader{f: f, csv: cr, cols: cols}, nil
}

// Next returns the next lead, or io.EOF when the feed is exhausted.
// Row indices are 1-based and count data rows, not the header.
func (r *Reader) Next() (*model.Lead, error) {
	record, err := r.csv.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, eris.Wrapf(err, "feed: read row %d", r.row+1)
	}
	r.row++
	return r.parse(record), nil
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.f.Close()
}

func (r *Reader) field(record []string, name string) string {
	i, ok := r.cols[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func (r *Reader) parse(record []string) *model.Lead {
	filename := r.field(record, "filename")
	text := r.field(record, "text")

	key := filename
	if key == "" {
		key = fmt.Sprintf("row-%d", r.row)
	}

	headline := r.field(record, "headline")
	if headline == "" {
		headline = firstLine(text)
	}

	score := 0
	if s := r.field(record, "qui_tam_score"); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			score = v
		}
	}

	nctIDs, pmids, grants := ExtractIdentifiers(filename + " " + text)

	return &model.Lead{
		Key:                 key,
		RowIndex:            r.row,
		Headline:            headline,
		OriginalText:        text,
		TrialIDs:            nctIDs,
		PublicationIDs:      pmids,
		GrantNumbers:        grants,
		ClassificationScore: score,
		FraudType:           r.field(record, "fraud_type"),
		KeyFacts:            r.field(record, "key_facts"),
		ImplicatedActors:    r.field(record, "implicated_actors"),
		FederalPrograms:     r.field(record, "federal_programs_involved"),
	}
}

// Count returns the number of data rows in the feed at path.
func Count(path string) (int, error) {
	r, err := NewReader(path)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	n := 0
	for {
		_, err := r.Next()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return 0, err
		}
		n++
	}
}

// ReadRow returns the lead at the given 1-based row index.
func ReadRow(path string, rowIndex int) (*model.Lead, error) {
	if rowIndex < 1 {
		return nil, eris.Errorf("feed: row index must be >= 1, got %d", rowIndex)
	}
	r, err := NewReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	for {
		lead, err := r.Next()
		if err == io.EOF {
			return nil, eris.Errorf("feed: row %d past end of feed", rowIndex)
		}
		if err != nil {
			return nil, err
		}
		if lead.RowIndex == rowIndex {
			return lead, nil
		}
	}
}

func firstLine(text string) string {
	line := text
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	const maxLen = 120
	if len(line) > maxLen {
		line = line[:maxLen]
	}
	return line
}
