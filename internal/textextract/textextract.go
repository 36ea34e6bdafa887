package textextract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"taskmill/internal/extract"
	"taskmill/internal/logging"
	"taskmill/internal/services"
)

// maxFileBytes caps how much source material a single document may contain.
const maxFileBytes = 16 << 20

// Result holds the text or tabular content recovered from a source file.
// Table-capable formats populate Rows; everything else populates Text.
type Result struct {
	Text        string
	Rows        []extract.TableRow
	ContentType string
}

// HasRows reports whether the source yielded structured table rows.
func (r *Result) HasRows() bool {
	return r != nil && len(r.Rows) > 0
}

type extractorFunc func(ctx context.Context, path string) (*Result, error)

// Registry routes source files to a format-specific extractor by extension.
type Registry struct {
	logger     *slog.Logger
	extractors map[string]extractorFunc
}

// NewRegistry builds a registry with all built-in format extractors.
func NewRegistry(logger *slog.Logger) *Registry {
	r := &Registry{
		logger:     logging.NewComponentLogger(logger, "textextract"),
		extractors: make(map[string]extractorFunc),
	}
	r.extractors[".txt"] = extractPlain
	r.extractors[".md"] = extractPlain
	r.extractors[".log"] = extractPlain
	r.extractors[".csv"] = extractCSV
	r.extractors[".xlsx"] = extractSpreadsheet
	r.extractors[".xlsm"] = extractSpreadsheet
	r.extractors[".pdf"] = extractPDF
	r.extractors[".docx"] = extractDocx
	return r
}

// SupportedExtensions returns the extensions the registry can handle,
// sorted for stable display.
func (r *Registry) SupportedExtensions() []string {
	exts := make([]string, 0, len(r.extractors))
	for ext := range r.extractors {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Supports reports whether a path's extension has a registered extractor.
func (r *Registry) Supports(path string) bool {
	_, ok := r.extractors[normalizeExt(path)]
	return ok
}

// CanExtract reports whether ExtractFile would accept the file: either its
// extension has a registered extractor, or its content sniffs as plain text.
func (r *Registry) CanExtract(path string) bool {
	if r.Supports(path) {
		return true
	}
	return sniffText(path)
}

// ExtractFile reads a source file and returns its text or table content.
// Unknown extensions are sniffed: files that look like plain text go
// through the plain extractor, anything binary is rejected.
func (r *Registry) ExtractFile(ctx context.Context, path string) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrSourceUnavailable, "text-extract", "stat", path, err)
		}
		return nil, services.Wrap(services.ErrSourceUnavailable, "text-extract", "stat", path, err)
	}
	if info.IsDir() {
		return nil, services.Wrap(services.ErrValidation, "text-extract", "stat", fmt.Sprintf("%s is a directory", path), nil)
	}
	if info.Size() > maxFileBytes {
		return nil, services.Wrap(services.ErrValidation, "text-extract", "stat", fmt.Sprintf("%s exceeds %d byte limit", path, maxFileBytes), nil)
	}

	ext := normalizeExt(path)
	fn, ok := r.extractors[ext]
	if !ok {
		if !sniffText(path) {
			return nil, services.Wrap(services.ErrUnsupportedFormat, "text-extract", "route", fmt.Sprintf("no extractor for %q and content is not text", ext), nil)
		}
		fn = extractPlain
	}

	result, err := fn(ctx, path)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("extracted source text",
		logging.String("path", path),
		logging.String("content_type", result.ContentType),
		logging.Int("text_bytes", len(result.Text)),
		logging.Int("rows", len(result.Rows)))
	return result, nil
}

func normalizeExt(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// sniffText inspects the first bytes of a file and reports whether it is
// plausibly plain text. NUL bytes or invalid UTF-8 mark it as binary.
func sniffText(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	buf := make([]byte, 2048)
	n, err := file.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return false
	}
	sample := buf[:n]
	if len(sample) == 0 {
		return true
	}
	if bytes.IndexByte(sample, 0x00) >= 0 {
		return false
	}
	// A read boundary can split a multi-byte rune; trim trailing partials
	// before validating.
	for len(sample) > 0 && !utf8.Valid(sample) {
		sample = sample[:len(sample)-1]
		if len(buf[:n])-len(sample) > utf8.UTFMax {
			return false
		}
	}
	return true
}

// ContentTypeFor maps a path to the content type stored with its document.
func ContentTypeFor(path string) string {
	switch normalizeExt(path) {
	case ".txt", ".log":
		return "text/plain"
	case ".md":
		return "text/markdown"
	case ".csv":
		return "text/csv"
	case ".xlsx", ".xlsm":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}
