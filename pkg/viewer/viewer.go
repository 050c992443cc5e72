// Package viewer drives paginated rendering of one document into one canvas.
//
// A Controller owns a document handle and a Display (typed handles to the
// canvas, loader, paginator, navigation controls and page text). Page renders
// are single-flight: while one render is running, further requests collapse
// into one pending follow-up that holds only the most recent page. The page
// number display is written once the page it names is visible.
package viewer

import (
	"context"
	"errors"
	"image/draw"

	"github.com/novvoo/go-pdfembed/pkg/dom"
)

var (
	// ErrNoPages is returned when a document reports no pages.
	ErrNoPages = errors.New("viewer: document has no pages")

	// ErrMissingTarget is returned when a Targets field is nil.
	ErrMissingTarget = errors.New("viewer: missing target")
)

// Viewport is the pixel size of a page at a given scale.
type Viewport struct {
	Width  int
	Height int
	Scale  float64
}

// Page is one renderable page of a Document.
type Page interface {
	// Viewport returns the page size at scale.
	Viewport(scale float64) Viewport

	// Render draws the page into dst, which has the size of vp. It returns
	// once drawing is complete.
	Render(ctx context.Context, dst draw.Image, vp Viewport) error
}

// Document is a loaded document handle.
type Document interface {
	NumPages() int

	// Page returns page num, counting from 1.
	Page(ctx context.Context, num int) (Page, error)
}

// Toggle is a target whose visibility can be switched.
type Toggle interface {
	SetHidden(hidden bool)
}

// TextTarget is a target showing a line of text.
type TextTarget interface {
	SetText(s string)
}

// Surface is the canvas a controller renders into. Resize returns a drawing
// surface of the requested size; Flush makes what was drawn visible.
type Surface interface {
	Toggle
	Resize(w, h int) draw.Image
	Flush()
}

// Control is a target that accepts event listeners.
type Control interface {
	AddEventListener(typ string, l dom.Listener)
	RemoveEventListener(typ string, l dom.Listener)
}

// Targets are the elements a controller drives.
type Targets struct {
	Canvas    Surface
	Loader    Toggle
	Paginator Toggle
	Prev      Control
	Next      Control
	PageNum   TextTarget
	PageCount TextTarget
}

func (t Targets) validate() error {
	var missing []string
	check := func(name string, ok bool) {
		if !ok {
			missing = append(missing, name)
		}
	}
	check("canvas", t.Canvas != nil)
	check("loader", t.Loader != nil)
	check("paginator", t.Paginator != nil)
	check("prev", t.Prev != nil)
	check("next", t.Next != nil)
	check("page number", t.PageNum != nil)
	check("page count", t.PageCount != nil)
	if len(missing) > 0 {
		return missingError(missing)
	}
	return nil
}

// ClampPage returns num limited to [1, total].
func ClampPage(num, total int) int {
	if num > total {
		num = total
	}
	if num < 1 {
		num = 1
	}
	return num
}
