package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const (
	contentTypesPath    = "[Content_Types].xml"
	docxDefaultPath     = "word/document.xml"
	docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
	pptxSlidePrefix     = "ppt/slides/slide"
	openDocumentContent = "content.xml"
)

var (
	wordText  = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)
	slideText = regexp.MustCompile(`<a:t[^>]*>([^<]*)</a:t>`)
	odfPara   = regexp.MustCompile(`<text:p[^>]*>([^<]*)</text:p>`)
	odfSpan   = regexp.MustCompile(`<text:span[^>]*>([^<]*)</text:span>`)
	odfHead   = regexp.MustCompile(`<text:h[^>]*>([^<]*)</text:h>`)

	// PartName and ContentType may appear in either order.
	docxPartFirst = regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"`)
	docxTypeFirst = regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"[^>]+PartName="([^"]+)"`)
)

func openZip(content []byte, kind string) (*zip.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("extract %s: not a zip: %w", kind, err)
	}
	return zr, nil
}

// readEntry returns the named entry's bytes, or nil when absent.
func readEntry(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		return readFile(f)
	}
	return nil, nil
}

func readFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	return data, nil
}

// collect appends the first capture group of every match, space separated.
func collect(b *strings.Builder, xml string, patterns ...*regexp.Regexp) {
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatch(xml, -1) {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(strings.TrimSpace(m[1]))
		}
	}
}

func docxMainPath(zr *zip.Reader) string {
	data, err := readEntry(zr, contentTypesPath)
	if err != nil || data == nil {
		return docxDefaultPath
	}
	for _, re := range []*regexp.Regexp{docxPartFirst, docxTypeFirst} {
		if m := re.FindSubmatch(data); len(m) > 1 {
			return strings.TrimPrefix(string(m[1]), "/")
		}
	}
	return docxDefaultPath
}

// extractDOCX collects every <w:t> run; paragraph attributes are irrelevant.
func extractDOCX(content []byte) (string, error) {
	zr, err := openZip(content, "DOCX")
	if err != nil {
		return "", err
	}
	docPath := docxMainPath(zr)
	data, err := readEntry(zr, docPath)
	if err != nil {
		return "", fmt.Errorf("extract DOCX: %w", err)
	}
	if data == nil {
		return "", fmt.Errorf("extract DOCX: %s not found", docPath)
	}
	var b strings.Builder
	collect(&b, string(data), wordText)
	return strings.TrimSpace(b.String()), nil
}

func extractPPTX(content []byte) (string, error) {
	zr, err := openZip(content, "PPTX")
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, f := range zr.File {
		if !strings.HasPrefix(f.Name, pptxSlidePrefix) || !strings.HasSuffix(f.Name, ".xml") {
			continue
		}
		data, err := readFile(f)
		if err != nil {
			return "", fmt.Errorf("extract PPTX: %w", err)
		}
		collect(&b, string(data), slideText)
	}
	return strings.TrimSpace(b.String()), nil
}

func extractOpenDocument(content []byte, kind string, patterns ...*regexp.Regexp) (string, error) {
	zr, err := openZip(content, kind)
	if err != nil {
		return "", err
	}
	data, err := readEntry(zr, openDocumentContent)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", kind, err)
	}
	if data == nil {
		return "", fmt.Errorf("extract %s: %s not found", kind, openDocumentContent)
	}
	var b strings.Builder
	collect(&b, string(data), patterns...)
	return strings.TrimSpace(b.String()), nil
}

func extractODP(content []byte) (string, error) {
	return extractOpenDocument(content, "ODP", odfPara, odfSpan, odfHead)
}

func extractODS(content []byte) (string, error) {
	return extractOpenDocument(content, "ODS", odfPara, odfSpan)
}
