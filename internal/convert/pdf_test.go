// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/convertly/internal/logging"
)

const wordML = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// readParagraphs returns the text of every body paragraph of the .docx at
// path, in document order.
func readParagraphs(t *testing.T, path string) []string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	rc, err := zr.Open("word/document.xml")
	require.NoError(t, err)
	defer rc.Close()

	var (
		paragraphs []string
		current    strings.Builder
		inPara     bool
		inText     bool
	)
	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return paragraphs
		}
		require.NoError(t, err)
		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Space != wordML {
				continue
			}
			switch el.Name.Local {
			case "p":
				inPara = true
				current.Reset()
			case "t":
				inText = true
			case "br":
				current.WriteByte('\n')
			}
		case xml.EndElement:
			if el.Name.Space != wordML {
				continue
			}
			switch el.Name.Local {
			case "p":
				if inPara {
					paragraphs = append(paragraphs, current.String())
				}
				inPara = false
			case "t":
				inText = false
			}
		case xml.CharData:
			if inPara && inText {
				current.Write(el)
			}
		}
	}
}

// buildPDF assembles a minimal PDF with one Helvetica text line per page.
func buildPDF(pages []string) []byte {
	var objects []string
	objects = append(objects, "<< /Type /Catalog /Pages 2 0 R >>")

	nPages := len(pages)
	fontObj := 3 + 2*nPages
	var kids []string
	for i := range pages {
		kids = append(kids, fmt.Sprintf("%d 0 R", 3+2*i))
	}
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), nPages))

	for i, text := range pages {
		content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>", fontObj, 4+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}
	objects = append(objects, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return b.Bytes()
}

func TestPDFToDoc_RealReaderParagraphPerPage(t *testing.T) {
	pages := []string{"Hello page one", "Second page", "Third"}
	dir := t.TempDir()
	in := filepath.Join(dir, "1a2b3c4d-report.pdf")
	require.NoError(t, os.WriteFile(in, buildPDF(pages), 0o644))

	out, err := NewPDFToDoc(dir, logging.Discard()).Convert(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "1a2b3c4d-report.docx"), out)

	got := readParagraphs(t, out)
	require.Len(t, got, len(pages))
	for i, want := range pages {
		assert.Equal(t, want, strings.TrimSpace(got[i]), "page %d", i+1)
	}
}

func TestPDFToDoc_NoTempFileLeft(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "doc.pdf")
	require.NoError(t, os.WriteFile(in, buildPDF([]string{"only"}), 0o644))

	_, err := NewPDFToDoc(dir, logging.Discard()).Convert(context.Background(), in)
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"doc.pdf", "doc.docx"}, names)
}
