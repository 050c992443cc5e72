package fitz

import (
	"context"
	"errors"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/novvoo/go-pdfembed/internal/pdftest"
	"github.com/novvoo/go-pdfembed/pkg/viewer"
)

func openTest(t *testing.T, pages int) viewer.Document {
	t.Helper()
	path := pdftest.Write(t, "doc.pdf", pages)
	doc, err := New(Options{}).Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Failed to open document: %v", err)
	}
	t.Cleanup(func() { doc.(*Document).Close() })
	return doc
}

// TestOpenPath tests opening a local file
func TestOpenPath(t *testing.T) {
	doc := openTest(t, 3)
	if got := doc.NumPages(); got != 3 {
		t.Errorf("NumPages() = %d, want 3", got)
	}
}

// TestViewport tests page sizes at different scales
func TestViewport(t *testing.T) {
	doc := openTest(t, 1)
	page, err := doc.Page(context.Background(), 1)
	if err != nil {
		t.Fatalf("Page failed: %v", err)
	}

	tests := []struct {
		scale float64
		w, h  int
	}{
		{1, pdftest.PageWidth, pdftest.PageHeight},
		{1.5, 300, 150},
		{0.5, 100, 50},
	}
	for _, tt := range tests {
		vp := page.Viewport(tt.scale)
		if vp.Width != tt.w || vp.Height != tt.h {
			t.Errorf("Viewport(%v) = %dx%d, want %dx%d", tt.scale, vp.Width, vp.Height, tt.w, tt.h)
		}
	}
}

// TestRenderPages tests that each page is drawn with its own fill
func TestRenderPages(t *testing.T) {
	doc := openTest(t, 3)
	ctx := context.Background()

	for num := 1; num <= 3; num++ {
		page, err := doc.Page(ctx, num)
		if err != nil {
			t.Fatalf("Page(%d) failed: %v", num, err)
		}
		vp := page.Viewport(1)
		dst := image.NewRGBA(image.Rect(0, 0, vp.Width, vp.Height))
		if err := page.Render(ctx, dst, vp); err != nil {
			t.Fatalf("Render(%d) failed: %v", num, err)
		}

		got := color.GrayModel.Convert(dst.At(vp.Width/2, vp.Height/2)).(color.Gray).Y
		want := uint8(pdftest.Gray(num) * 255)
		diff := int(got) - int(want)
		if diff < 0 {
			diff = -diff
		}
		if diff > 8 {
			t.Errorf("Page %d center gray = %d, want about %d", num, got, want)
		}
	}
}

// TestRenderResamples tests drawing into a surface of a different size
func TestRenderResamples(t *testing.T) {
	doc := openTest(t, 1)
	ctx := context.Background()
	page, err := doc.Page(ctx, 1)
	if err != nil {
		t.Fatalf("Page failed: %v", err)
	}
	vp := page.Viewport(1)
	dst := image.NewRGBA(image.Rect(0, 0, 40, 20))
	if err := page.Render(ctx, dst, vp); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if _, _, _, a := dst.At(20, 10).RGBA(); a == 0 {
		t.Error("Resampled surface is empty")
	}
}

// TestPageRange tests invalid page numbers
func TestPageRange(t *testing.T) {
	doc := openTest(t, 2)
	for _, num := range []int{0, 3, -1} {
		if _, err := doc.Page(context.Background(), num); !errors.Is(err, ErrPageRange) {
			t.Errorf("Page(%d) error = %v, want ErrPageRange", num, err)
		}
	}
}

// TestOpenHTTP tests fetching a document over HTTP
func TestOpenHTTP(t *testing.T) {
	data := pdftest.Build(2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/doc.pdf" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(data)
	}))
	defer srv.Close()

	e := New(Options{Client: srv.Client()})
	doc, err := e.Open(context.Background(), srv.URL+"/doc.pdf")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer doc.(*Document).Close()
	if got := doc.NumPages(); got != 2 {
		t.Errorf("NumPages() = %d, want 2", got)
	}

	if _, err := e.Open(context.Background(), srv.URL+"/missing.pdf"); err == nil {
		t.Error("Expected error for missing document")
	}

	small := New(Options{Client: srv.Client(), MaxSize: 16})
	if _, err := small.Open(context.Background(), srv.URL+"/doc.pdf"); err == nil {
		t.Error("Expected error for oversized document")
	}
}

// TestOpenErrors tests sources that cannot be opened
func TestOpenErrors(t *testing.T) {
	e := New(Options{})
	tests := []struct {
		name   string
		source string
	}{
		{"missing file", "/nonexistent/doc.pdf"},
		{"unsupported scheme", "ftp://example.com/doc.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.Open(context.Background(), tt.source); err == nil {
				t.Errorf("Expected error opening %q", tt.source)
			}
		})
	}
}
