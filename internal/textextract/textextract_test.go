package textextract_test

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"taskmill/internal/logging"
	"taskmill/internal/services"
	"taskmill/internal/testsupport"
	"taskmill/internal/textextract"
)

func newRegistry() *textextract.Registry {
	return textextract.NewRegistry(logging.NewNop())
}

func TestExtractPlainText(t *testing.T) {
	registry := newRegistry()
	path := filepath.Join(t.TempDir(), "notes.txt")
	testsupport.WriteText(t, path, "TODO: Buy milk\n- [ ] Call the dentist\n")

	result, err := registry.ExtractFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ExtractFile: %v", err)
	}
	if !strings.Contains(result.Text, "Buy milk") {
		t.Fatalf("expected text content, got %q", result.Text)
	}
	if result.HasRows() {
		t.Fatal("expected no rows from plain text")
	}
	if result.ContentType != "text/plain" {
		t.Fatalf("unexpected content type %q", result.ContentType)
	}
}

func TestExtractCSVWithHeader(t *testing.T) {
	registry := newRegistry()
	path := filepath.Join(t.TempDir(), "tasks.csv")
	testsupport.WriteText(t, path, strings.Join([]string{
		"Task,Priority,Due Date,Owner,Notes",
		"Review budget,High,2025-07-01,dana,Q3 planning",
		"Ship release,Urgent,07/15/2025,,cut rc first",
		",ignored,,,row without title",
	}, "\n")+"\n")

	result, err := registry.ExtractFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ExtractFile: %v", err)
	}
	if !result.HasRows() {
		t.Fatal("expected table rows from csv with header")
	}
	if len(result.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(result.Rows))
	}
	first := result.Rows[0]
	if first.Title != "Review budget" || first.Priority != "High" || first.DueDate != "2025-07-01" || first.Assignee != "dana" || first.Notes != "Q3 planning" {
		t.Fatalf("unexpected first row: %#v", first)
	}
	if first.Line != 2 {
		t.Fatalf("expected first data row at line 2, got %d", first.Line)
	}
	if result.Rows[1].Line != 3 {
		t.Fatalf("expected second data row at line 3, got %d", result.Rows[1].Line)
	}
}

func TestExtractCSVWithoutHeaderFallsBackToText(t *testing.T) {
	registry := newRegistry()
	path := filepath.Join(t.TempDir(), "export.csv")
	testsupport.WriteText(t, path, "alpha,beta\ngamma,delta\n")

	result, err := registry.ExtractFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ExtractFile: %v", err)
	}
	if result.HasRows() {
		t.Fatal("expected no rows without a recognizable header")
	}
	if !strings.Contains(result.Text, "alpha beta") || !strings.Contains(result.Text, "gamma delta") {
		t.Fatalf("expected flattened text, got %q", result.Text)
	}
}

func TestExtractSpreadsheet(t *testing.T) {
	registry := newRegistry()
	path := filepath.Join(t.TempDir(), "plan.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]string{
		{"Task", "Priority", "Deadline", "Assignee"},
		{"Audit vendor contracts", "high", "August 15", "sam"},
		{"Update runbook", "", "", ""},
	}
	for i, row := range rows {
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("CoordinatesToCellName: %v", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				t.Fatalf("SetCellValue: %v", err)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	_ = f.Close()

	result, err := registry.ExtractFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ExtractFile: %v", err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(result.Rows))
	}
	if result.Rows[0].Title != "Audit vendor contracts" || result.Rows[0].DueDate != "August 15" {
		t.Fatalf("unexpected row: %#v", result.Rows[0])
	}
}

func TestExtractDocx(t *testing.T) {
	registry := newRegistry()
	path := filepath.Join(t.TempDir(), "memo.docx")
	writeDocx(t, path, `<?xml version="1.0"?><w:document><w:body>`+
		`<w:p><w:r><w:t>Action Items</w:t></w:r></w:p>`+
		`<w:p><w:r><w:t>TODO: Send the invoice</w:t></w:r></w:p>`+
		`</w:body></w:document>`)

	result, err := registry.ExtractFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ExtractFile: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(result.Text), "\n")
	if len(lines) < 2 {
		t.Fatalf("expected paragraphs on separate lines, got %q", result.Text)
	}
	if lines[0] != "Action Items" || lines[1] != "TODO: Send the invoice" {
		t.Fatalf("unexpected docx text lines: %q", lines)
	}
}

func TestExtractPDFUsesPdftotext(t *testing.T) {
	binDir := t.TempDir()
	stub := filepath.Join(binDir, "pdftotext")
	script := "#!/bin/sh\nprintf 'Quarterly Report\\nTODO: File taxes\\n'\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))

	registry := newRegistry()
	path := filepath.Join(t.TempDir(), "report.pdf")
	testsupport.WriteText(t, path, "%PDF-1.4 stub")

	result, err := registry.ExtractFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ExtractFile: %v", err)
	}
	if !strings.Contains(result.Text, "File taxes") {
		t.Fatalf("expected pdftotext output, got %q", result.Text)
	}
}

func TestExtractMissingSource(t *testing.T) {
	registry := newRegistry()
	_, err := registry.ExtractFile(context.Background(), filepath.Join(t.TempDir(), "absent.txt"))
	if !errors.Is(err, services.ErrSourceUnavailable) {
		t.Fatalf("expected source unavailable, got %v", err)
	}
}

func TestExtractUnknownExtensionSniffsText(t *testing.T) {
	registry := newRegistry()
	path := filepath.Join(t.TempDir(), "notes.rst")
	testsupport.WriteText(t, path, "TODO: Review the onboarding draft\n")

	result, err := registry.ExtractFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ExtractFile: %v", err)
	}
	if !strings.Contains(result.Text, "onboarding draft") {
		t.Fatalf("unexpected text: %q", result.Text)
	}
	if registry.Supports(path) {
		t.Fatal("Supports should be false for .rst")
	}
	if !registry.CanExtract(path) {
		t.Fatal("CanExtract should sniff .rst as text")
	}
	if !registry.Supports("/tmp/a.md") {
		t.Fatal("Supports should be true for .md")
	}
}

func TestExtractUnknownExtensionRejectsBinary(t *testing.T) {
	registry := newRegistry()
	path := filepath.Join(t.TempDir(), "image.png")
	if err := os.WriteFile(path, []byte{0x89, 'P', 'N', 'G', 0x00, 0x01, 0x02}, 0o644); err != nil {
		t.Fatalf("write binary file: %v", err)
	}

	_, err := registry.ExtractFile(context.Background(), path)
	if !errors.Is(err, services.ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format, got %v", err)
	}
	if registry.CanExtract(path) {
		t.Fatal("CanExtract should reject binary content")
	}
}

func writeDocx(t *testing.T, path, documentXML string) {
	t.Helper()

	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create docx: %v", err)
	}
	defer file.Close()

	zw := zip.NewWriter(file)
	entry, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := entry.Write([]byte(documentXML)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
}
