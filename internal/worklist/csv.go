package worklist

import (
	"encoding/csv"
	"os"

	"github.com/rotisserie/eris"
)

// LoadCSV reads URLs from the "url" column of a CSV file.
func LoadCSV(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "worklist: open %s", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "worklist: read %s", path)
	}
	if len(records) == 0 {
		return nil, eris.Errorf("worklist: %s is empty", path)
	}

	urlCol, err := findURLColumn(records[0])
	if err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		if urlCol < len(rec) {
			urls = append(urls, rec[urlCol])
		}
	}
	return dedupe(urls), nil
}
