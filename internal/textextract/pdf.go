package textextract

import (
	"context"
	"os/exec"
	"strings"

	"taskmill/internal/services"
)

// pdftotextBinary is the poppler utility used for PDF text recovery.
const pdftotextBinary = "pdftotext"

func extractPDF(ctx context.Context, path string) (*Result, error) {
	binary, err := exec.LookPath(pdftotextBinary)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "text-extract", "locate pdftotext", "install poppler-utils", err)
	}

	cmd := exec.CommandContext(ctx, binary, "-layout", "-nopgbrk", path, "-") //nolint:gosec
	output, err := cmd.Output()
	if err != nil {
		detail := ""
		if exitErr, ok := err.(*exec.ExitError); ok {
			detail = strings.TrimSpace(string(exitErr.Stderr))
		}
		return nil, services.Wrap(services.ErrExternalTool, "text-extract", "pdftotext", detail, err)
	}

	return &Result{Text: string(output), ContentType: ContentTypeFor(path)}, nil
}
