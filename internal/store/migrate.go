package store

import (
	"encoding/csv"
	"os"

	"github.com/rotisserie/eris"

	"github.com/mvoice/creative-cli/internal/schema"
)

// MigrateLegacy rewrites a two-column (url, message) store file into the
// full-schema format by re-running the extractor over every stored raw
// message. The original file is copied to path+".bak" before the rewrite.
// Row count is preserved. Returns the number of migrated rows.
//
// A file already in the full-schema format is left untouched (0, nil).
func MigrateLegacy(path string, extractFn func(string) map[string]string) (int, error) {
	original, err := os.ReadFile(path)
	if err != nil {
		return 0, eris.Wrapf(err, "migrate: read %s", path)
	}

	header, records, err := readCSVFile(path)
	if err != nil {
		return 0, err
	}
	if !isLegacyHeader(header) {
		return 0, nil
	}

	if err := os.WriteFile(path+".bak", original, 0o644); err != nil {
		return 0, eris.Wrap(err, "migrate: write backup")
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return 0, eris.Wrap(err, "migrate: create temp file")
	}

	w := csv.NewWriter(f)
	if err := w.Write(fullHeader()); err != nil {
		f.Close()
		return 0, eris.Wrap(err, "migrate: write header")
	}

	for _, rec := range records {
		key, message := "", ""
		if len(rec) > 0 {
			key = rec[0]
		}
		if len(rec) > 1 {
			message = rec[1]
		}

		fields := extractFn(message)
		record := make([]string, 0, schema.Count()+1)
		record = append(record, key)
		for _, label := range schema.Labels() {
			record = append(record, fields[label])
		}
		if err := w.Write(record); err != nil {
			f.Close()
			return 0, eris.Wrapf(err, "migrate: write row for %s", key)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return 0, eris.Wrap(err, "migrate: flush")
	}
	if err := f.Close(); err != nil {
		return 0, eris.Wrap(err, "migrate: close temp file")
	}

	if err := os.Rename(tmp, path); err != nil {
		return 0, eris.Wrap(err, "migrate: replace store file")
	}
	return len(records), nil
}
