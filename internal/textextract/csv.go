package textextract

import (
	"context"
	"encoding/csv"
	"os"

	"taskmill/internal/services"
)

func extractCSV(_ context.Context, path string) (*Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrSourceUnavailable, "text-extract", "open csv", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "text-extract", "parse csv", path, err)
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

	// No recognizable header: treat cell contents as free text.
	return &Result{Text: recordsToText(records), ContentType: ContentTypeFor(path)}, nil
}
