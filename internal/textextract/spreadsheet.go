package textextract

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"taskmill/internal/services"
)

func extractSpreadsheet(_ context.Context, path string) (*Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "text-extract", "open spreadsheet", path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, services.Wrap(services.ErrValidation, "text-extract", "open spreadsheet", fmt.Sprintf("%s has no sheets", path), nil)
	}

	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "text-extract", "read sheet", sheet, err)
	}
	if len(records) == 0 {
		return &Result{ContentType: ContentTypeFor(path)}, nil
	}

	if m, ok := mapColumns(records[0]); ok {
		return &Result{
			Rows:        rowsFromRecords(m, records[1:]),
			ContentType: ContentTypeFor(path),
		}, nil
	}

	return &Result{Text: recordsToText(records), ContentType: ContentTypeFor(path)}, nil
}
