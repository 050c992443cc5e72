// Package pdftest writes small PDF files for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// Page size in points.
const (
	PageWidth  = 200
	PageHeight = 100
)

// Build returns a PDF with the given number of pages. Page n is filled with a
// gray level that darkens with n, so rendered pages can be told apart.
func Build(pages int) []byte {
	var buf bytes.Buffer
	var offsets []int

	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")

	// 1: catalog, 2: page tree, then one page and one content stream per page.
	obj("<</Type/Catalog/Pages 2 0 R>>")
	var kids bytes.Buffer
	for i := range pages {
		fmt.Fprintf(&kids, "%d 0 R ", 3+2*i)
	}
	obj(fmt.Sprintf("<</Type/Pages/Kids[%s]/Count %d>>", kids.String(), pages))
	for i := range pages {
		obj(fmt.Sprintf("<</Type/Page/MediaBox[0 0 %d %d]/Parent 2 0 R/Resources<<>>/Contents %d 0 R>>",
			PageWidth, PageHeight, 4+2*i))
		content := fmt.Sprintf("%.2f g 0 0 %d %d re f", Gray(i+1), PageWidth, PageHeight)
		obj(fmt.Sprintf("<</Length %d>>\nstream\n%s\nendstream", len(content), content))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	fmt.Fprintf(&buf, "%010d %05d f \r\n", 0, 65535)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d %05d n \r\n", off, 0)
	}
	fmt.Fprintf(&buf, "trailer\n<</Size %d/Root 1 0 R>>\nstartxref\n%d\n%%%%EOF", len(offsets)+1, xref)
	return buf.Bytes()
}

// Gray returns the fill level of page n, between 0 and 1.
func Gray(n int) float64 {
	g := 1 - 0.15*float64(n)
	if g < 0 {
		g = 0
	}
	return g
}

// Write stores a PDF with the given number of pages in a temporary directory
// and returns its path.
func Write(t testing.TB, name string, pages int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, Build(pages), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}
