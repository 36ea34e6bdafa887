package textextract

import (
	"archive/zip"
	"context"
	"io"
	"regexp"
	"strings"

	"taskmill/internal/services"
)

var (
	paragraphEndPattern = regexp.MustCompile(`</w:p>`)
	lineBreakPattern    = regexp.MustCompile(`<w:br[^>]*/?>`)
	tabPattern          = regexp.MustCompile(`<w:tab[^>]*/?>`)
	xmlTagPattern       = regexp.MustCompile(`<[^>]+>`)
)

func extractDocx(_ context.Context, path string) (*Result, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "text-extract", "open docx", path, err)
	}
	defer archive.Close()

	var documentXML string
	for _, file := range archive.File {
		if file.Name != "word/document.xml" {
			continue
		}
		reader, err := file.Open()
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "text-extract", "open document.xml", path, err)
		}
		data, err := io.ReadAll(io.LimitReader(reader, maxFileBytes))
		reader.Close()
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "text-extract", "read document.xml", path, err)
		}
		documentXML = string(data)
		break
	}
	if documentXML == "" {
		return nil, services.Wrap(services.ErrValidation, "text-extract", "open docx", "word/document.xml missing", nil)
	}

	return &Result{Text: docxToText(documentXML), ContentType: ContentTypeFor(path)}, nil
}

func docxToText(documentXML string) string {
	text := paragraphEndPattern.ReplaceAllString(documentXML, "\n")
	text = lineBreakPattern.ReplaceAllString(text, "\n")
	text = tabPattern.ReplaceAllString(text, "\t")
	text = xmlTagPattern.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = strings.ReplaceAll(text, "&quot;", `"`)
	text = strings.ReplaceAll(text, "&apos;", "'")
	return text
}
