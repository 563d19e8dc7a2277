package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// extractPDF reads at most e.maxPages pages. A page whose text cannot be
// extracted is skipped; the result is empty when no page yielded text.
func (e *Extractor) extractPDF(content []byte) (text string, err error) {
	if len(content) == 0 {
		return "", fmt.Errorf("open PDF: empty content")
	}
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("open PDF: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}
	numPages := r.NumPage()
	if e.maxPages > 0 && numPages > e.maxPages {
		numPages = e.maxPages
	}
	var buf strings.Builder
	for i := 1; i <= numPages; i++ {
		txt, pageErr := readPage(r, i)
		if pageErr != nil {
			e.logger.Debug("pdf page skipped", zap.Int("page", i), zap.Error(pageErr))
			continue
		}
		if txt == "" {
			continue
		}
		buf.WriteString(txt)
		buf.WriteByte('\n')
	}
	return strings.TrimSpace(buf.String()), nil
}

func readPage(r *pdf.Reader, n int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("extract page %d: %v", n, rec)
		}
	}()
	page := r.Page(n)
	if page.V.IsNull() {
		return "", nil
	}
	text, err = page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("extract page %d: %w", n, err)
	}
	return strings.TrimSpace(text), nil
}
