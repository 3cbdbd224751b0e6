package worklist

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// LoadXLSX reads URLs from the "url" column of the first sheet of an XLSX
// work list.
func LoadXLSX(path string) ([]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "worklist: open %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("worklist: %s has no sheets", path)
	}

	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, eris.Errorf("worklist: %s is empty", path)
	}

	urlCol, err := findURLColumn(rowToStrings(sheet.Rows[0]))
	if err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(sheet.Rows)-1)
	for _, row := range sheet.Rows[1:] {
		cells := rowToStrings(row)
		if urlCol < len(cells) {
			urls = append(urls, cells[urlCol])
		}
	}
	return dedupe(urls), nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
