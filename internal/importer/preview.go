package importer

import (
	"github.com/mroshb/match_engine/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// SheetPreview holds the first rows of a sheet.
type SheetPreview struct {
	Name string
	Rows [][]string
}

// Preview returns up to limit rows (header included) of every sheet in the
// workbook at path, for checking a file before importing it.
func Preview(path string, limit int) ([]SheetPreview, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "failed to open workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "no sheets found")
	}

	previews := make([]SheetPreview, 0, len(sheets))
	for _, name := range sheets {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeValidation, "failed to read sheet "+name)
		}
		if limit > 0 && len(rows) > limit {
			rows = rows[:limit]
		}
		previews = append(previews, SheetPreview{Name: name, Rows: rows})
	}
	return previews, nil
}
