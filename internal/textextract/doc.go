// Package textextract recovers plain text or tabular rows from source
// documents before task extraction runs.
//
// A Registry routes files by extension: plain text and Markdown are read
// directly, CSV and XLSX sheets with a recognizable header become structured
// table rows, PDFs shell out to pdftotext, and DOCX archives are unzipped and
// stripped of their XML markup. Errors are tagged with services sentinels so
// the workflow can distinguish missing sources from unsupported formats.
package textextract
