// Package fitz adapts MuPDF, through go-fitz, to the viewer document
// interfaces.
package fitz

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"

	gofitz "github.com/gen2brain/go-fitz"
	xdraw "golang.org/x/image/draw"

	"github.com/novvoo/go-pdfembed/pkg/viewer"
)

// ErrPageRange is returned for page numbers outside the document.
var ErrPageRange = errors.New("fitz: page out of range")

// pointsPerInch is the PDF user-space resolution.
const pointsPerInch = 72.0

// Options configure an Engine.
type Options struct {
	// Client fetches http and https sources (default http.DefaultClient).
	Client *http.Client

	// MaxSize limits the size of fetched sources in bytes (default 256 MiB).
	MaxSize int64

	Logger *slog.Logger
}

// Engine opens documents.
type Engine struct {
	client  *http.Client
	maxSize int64
	log     *slog.Logger
}

// New returns an engine.
func New(opts Options) *Engine {
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = 256 << 20
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Engine{
		client:  opts.Client,
		maxSize: opts.MaxSize,
		log:     opts.Logger,
	}
}

// Open loads the document at source, which is a file path, a file URL, or an
// http(s) URL.
func (e *Engine) Open(ctx context.Context, source string) (viewer.Document, error) {
	doc, err := e.open(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("fitz: open %s: %w", source, err)
	}
	n := doc.NumPage()
	e.log.Debug("document opened", "source", source, "pages", n)
	return &Document{doc: doc, pages: n}, nil
}

func (e *Engine) open(ctx context.Context, source string) (*gofitz.Document, error) {
	u, err := url.Parse(source)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Plain paths, including Windows drive letters.
		return gofitz.New(source)
	}
	switch strings.ToLower(u.Scheme) {
	case "file":
		return gofitz.New(u.Path)
	case "http", "https":
		data, err := e.fetch(ctx, source)
		if err != nil {
			return nil, err
		}
		return gofitz.NewFromMemory(data)
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
}

func (e *Engine) fetch(ctx context.Context, source string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("status %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, e.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > e.maxSize {
		return nil, fmt.Errorf("document larger than %d bytes", e.maxSize)
	}
	return data, nil
}

// Document is an open MuPDF document. It is safe for concurrent use; MuPDF
// calls are serialized.
type Document struct {
	mu    sync.Mutex
	doc   *gofitz.Document
	pages int
}

// NumPages returns the page count.
func (d *Document) NumPages() int {
	return d.pages
}

// Page returns page num, counting from 1.
func (d *Document) Page(ctx context.Context, num int) (viewer.Page, error) {
	if num < 1 || num > d.pages {
		return nil, fmt.Errorf("%w: %d of %d", ErrPageRange, num, d.pages)
	}
	d.mu.Lock()
	bounds, err := d.doc.Bound(num - 1)
	d.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("fitz: page %d bounds: %w", num, err)
	}
	return &Page{doc: d, num: num, bounds: bounds}, nil
}

// Close releases the document.
func (d *Document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Close()
}

// Page is one page of a Document.
type Page struct {
	doc    *Document
	num    int
	bounds image.Rectangle // in points
}

// Viewport returns the pixel size of the page at scale.
func (p *Page) Viewport(scale float64) viewer.Viewport {
	return viewer.Viewport{
		Width:  int(math.Ceil(float64(p.bounds.Dx()) * scale)),
		Height: int(math.Ceil(float64(p.bounds.Dy()) * scale)),
		Scale:  scale,
	}
}

// Render rasterizes the page at vp.Scale and draws it into dst, resampling
// when MuPDF's pixel size differs from dst.
func (p *Page) Render(ctx context.Context, dst draw.Image, vp viewer.Viewport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.doc.mu.Lock()
	img, err := p.doc.doc.ImageDPI(p.num-1, pointsPerInch*vp.Scale)
	p.doc.mu.Unlock()
	if err != nil {
		return fmt.Errorf("fitz: render page %d: %w", p.num, err)
	}

	r := dst.Bounds()
	if img.Bounds().Size() == r.Size() {
		draw.Draw(dst, r, img, img.Bounds().Min, draw.Src)
		return nil
	}
	xdraw.CatmullRom.Scale(dst, r, img, img.Bounds(), xdraw.Src, nil)
	return nil
}
