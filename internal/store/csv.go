package store

import (
	"context"
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"

	"github.com/mvoice/creative-cli/internal/schema"
)

// KeyColumn is the first column of every store file.
const KeyColumn = "url"

// legacyHeader identifies the pre-schema two-column store format.
var legacyHeader = []string{"url", "message"}

// ErrLegacyFormat indicates the store file is still in the two-column
// format and must be migrated before use.
var ErrLegacyFormat = eris.New("store: legacy two-column format, run migrate first")

// CSVStore is the append-only delimited-file backend. The first column is
// the item key, the remaining columns are the schema labels in fixed order.
type CSVStore struct {
	path string
}

// NewCSV opens (or prepares to create) a CSV store at path. An existing
// file with the legacy header is rejected with ErrLegacyFormat.
func NewCSV(path string) (*CSVStore, error) {
	header, _, err := readCSVFile(path)
	if err != nil {
		return nil, err
	}
	if isLegacyHeader(header) {
		return nil, ErrLegacyFormat
	}
	return &CSVStore{path: path}, nil
}

// Path returns the backing file path.
func (s *CSVStore) Path() string {
	return s.path
}

func (s *CSVStore) ReadRow(_ context.Context, key string) (Row, bool, error) {
	header, records, err := readCSVFile(s.path)
	if err != nil {
		return nil, false, err
	}

	var found []string
	for _, rec := range records {
		if len(rec) > 0 && rec[0] == key {
			found = rec // last row for the key wins
		}
	}
	if found == nil {
		return nil, false, nil
	}

	row := make(Row, len(header))
	for i, col := range header {
		if i == 0 || i >= len(found) {
			continue
		}
		row[col] = found[i]
	}
	return row, true, nil
}

func (s *CSVStore) AppendRow(_ context.Context, key string, row Row) error {
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return eris.Wrapf(err, "store: open %s", s.path)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return eris.Wrap(err, "store: stat")
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(fullHeader()); err != nil {
			return eris.Wrap(err, "store: write header")
		}
	}

	record := make([]string, 0, schema.Count()+1)
	record = append(record, key)
	for _, label := range schema.Labels() {
		record = append(record, row[label])
	}
	if err := w.Write(record); err != nil {
		return eris.Wrapf(err, "store: append row for %s", key)
	}

	w.Flush()
	return eris.Wrap(w.Error(), "store: flush")
}

func (s *CSVStore) KeyExists(ctx context.Context, key string) (bool, error) {
	_, ok, err := s.ReadRow(ctx, key)
	return ok, err
}

func (s *CSVStore) Keys(_ context.Context) ([]string, error) {
	_, records, err := readCSVFile(s.path)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(records))
	keys := make([]string, 0, len(records))
	for _, rec := range records {
		if len(rec) == 0 || rec[0] == "" {
			continue
		}
		if _, dup := seen[rec[0]]; dup {
			continue
		}
		seen[rec[0]] = struct{}{}
		keys = append(keys, rec[0])
	}
	return keys, nil
}

func (s *CSVStore) Close() error {
	return nil
}

// fullHeader returns the schema-format header row.
func fullHeader() []string {
	header := make([]string, 0, schema.Count()+1)
	header = append(header, KeyColumn)
	return append(header, schema.Labels()...)
}

func isLegacyHeader(header []string) bool {
	if len(header) != len(legacyHeader) {
		return false
	}
	for i, col := range legacyHeader {
		if header[i] != col {
			return false
		}
	}
	return true
}

// readCSVFile reads the whole store file. A missing file is not an error:
// it returns empty header and no records.
func readCSVFile(path string) (header []string, records [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, eris.Wrapf(err, "store: open %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	first := true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return header, records, nil
		}
		if err != nil {
			return nil, nil, eris.Wrapf(err, "store: read %s", path)
		}
		if first {
			first = false
			header = rec
			continue
		}
		records = append(records, rec)
	}
}
