// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/ledongthuc/pdf"

	"github.com/pdiddy/convertly/internal/logging"
	"github.com/pdiddy/convertly/internal/tool"
)

const toolPDFToDoc = "pdf-to-doc"

// pageSource yields plain text per page. Pages are numbered from 1.
type pageSource interface {
	NumPage() int
	PageText(n int) (string, error)
}

// openFunc opens a PDF for page-text extraction.
type openFunc func(path string) (pageSource, io.Closer, error)

// PDFToDoc converts a PDF into a DOCX with one paragraph per page.
type PDFToDoc struct {
	outDir string
	logger *slog.Logger
	open   openFunc
}

// NewPDFToDoc returns a converter that writes its output into outDir.
func NewPDFToDoc(outDir string, logger *slog.Logger) *PDFToDoc {
	return &PDFToDoc{
		outDir: outDir,
		logger: logging.Component(logger, "pdf-to-doc"),
		open:   openLedongthuc,
	}
}

// Convert implements Converter. A page whose text cannot be extracted
// becomes an empty paragraph, so the output always has exactly as many
// paragraphs as the input has pages.
func (c *PDFToDoc) Convert(ctx context.Context, inputPath string) (string, error) {
	return tool.Invoke(toolPDFToDoc, func() (string, error) {
		src, closer, err := c.open(inputPath)
		if err != nil {
			return "", fmt.Errorf("opening PDF %s: %w", inputPath, err)
		}
		defer closer.Close()

		doc, err := godocx.NewDocument()
		if err != nil {
			return "", fmt.Errorf("creating document: %w", err)
		}
		n := src.NumPage()
		for i := 1; i <= n; i++ {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			text, err := pageText(src, i)
			if err != nil {
				c.logger.Warn("page text extraction failed", "path", inputPath, "page", i, "error", err)
				text = ""
			}
			doc.AddParagraph(cleanText(text))
		}

		out := outputPath(c.outDir, inputPath, ".docx")
		if err := saveAtomic(out, doc.SaveTo); err != nil {
			return "", err
		}
		c.logger.Debug("converted", "path", inputPath, "pages", n, "output", out)
		return out, nil
	})
}

// pageText extracts one page, turning a panic in the PDF reader into an error.
func pageText(src pageSource, n int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("panic: %v", r)
		}
	}()
	return src.PageText(n)
}

// ledongthucSource reads pages with github.com/ledongthuc/pdf.
type ledongthucSource struct {
	r *pdf.Reader
}

func openLedongthuc(path string) (pageSource, io.Closer, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return ledongthucSource{r: r}, f, nil
}

func (s ledongthucSource) NumPage() int { return s.r.NumPage() }

func (s ledongthucSource) PageText(n int) (string, error) {
	p := s.r.Page(n)
	if p.V.IsNull() {
		return "", fmt.Errorf("page %d is null", n)
	}
	return p.GetPlainText(nil)
}

// saveAtomic lets save write to a temp file beside path and renames it into
// place, so a partial document never appears under its final name.
func saveAtomic(path string, save func(string) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".docx-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := save(tmpPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing document: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// cleanText drops runes XML 1.0 cannot carry. Extracted PDF text regularly
// contains stray control characters.
func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t', r == '\n':
			return r
		case r < 0x20, r == 0xFFFE, r == 0xFFFF, r >= 0xD800 && r <= 0xDFFF:
			return -1
		}
		return r
	}, s)
}
