package textextract

import (
	"context"
	"os"

	"taskmill/internal/services"
)

func extractPlain(_ context.Context, path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrSourceUnavailable, "text-extract", "read", path, err)
	}
	return &Result{Text: string(data), ContentType: ContentTypeFor(path)}, nil
}
