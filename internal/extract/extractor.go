// Package extract provides text extraction from downloaded or uploaded documents.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Extractor extracts plain text from document files.
type Extractor struct {
	maxPages int // PDF page bound; 0 = all pages
	logger   *zap.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMaxPages bounds how many PDF pages are read. n <= 0 reads every page.
func WithMaxPages(n int) Option {
	return func(e *Extractor) { e.maxPages = n }
}

// WithLogger sets a logger for skipped-page warnings. Nil keeps the no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewExtractor returns a new Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract reads the file at path and returns its text content.
func (e *Extractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	return e.ExtractBytes(content, ext)
}

// ExtractBytes extracts text from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf"). Unknown extensions are
// treated as plain text.
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	switch strings.ToLower(ext) {
	case ".pdf":
		return e.extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	case ".xlsx":
		return extractExcel(content)
	case ".pptx":
		return extractPPTX(content)
	case ".odp", ".odt":
		return extractODP(content)
	case ".ods":
		return extractODS(content)
	default:
		return extractPlain(content)
	}
}

// Supported reports whether ext has a dedicated binary extractor.
func Supported(ext string) bool {
	switch strings.ToLower(ext) {
	case ".pdf", ".docx", ".xlsx", ".pptx", ".odp", ".odt", ".ods":
		return true
	}
	return false
}
