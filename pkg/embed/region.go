package embed

import (
	"errors"
	"fmt"
	"strings"

	"github.com/novvoo/go-pdfembed/pkg/dom"
	"github.com/novvoo/go-pdfembed/pkg/snapshot"
	"github.com/novvoo/go-pdfembed/pkg/viewer"
)

// ErrMissingTarget is returned when a target element of a marker is absent.
var ErrMissingTarget = errors.New("embed: missing target element")

// TargetIDs are the element ids of one marker's targets.
type TargetIDs struct {
	Canvas    string
	Loader    string
	Paginator string
	Prev      string
	Next      string
	PageNum   string
	PageCount string
}

// IDs returns the target element ids for marker id.
func IDs(id string) TargetIDs {
	return TargetIDs{
		Canvas:    "pdf-canvas-" + id,
		Loader:    "pdf-loader-" + id,
		Paginator: "pdf-paginator-" + id,
		Prev:      "pdf-prev-" + id,
		Next:      "pdf-next-" + id,
		PageNum:   "pdf-page-num-" + id,
		PageCount: "pdf-page-count-" + id,
	}
}

func (t TargetIDs) all() []string {
	return []string{t.Canvas, t.Loader, t.Paginator, t.Prev, t.Next, t.PageNum, t.PageCount}
}

// Region holds the resolved target elements of one marker.
type Region struct {
	Canvas    *dom.Element
	Loader    *dom.Element
	Paginator *dom.Element
	Prev      *dom.Element
	Next      *dom.Element
	PageNum   *dom.Element
	PageCount *dom.Element
}

// Resolve looks up the target elements of marker id. It fails, naming every
// missing id, unless all seven exist and the canvas is a canvas element.
func Resolve(page *dom.Document, id string) (*Region, error) {
	ids := IDs(id)
	var missing []string
	get := func(id string) *dom.Element {
		e, ok := page.GetElementByID(id)
		if !ok {
			missing = append(missing, id)
		}
		return e
	}
	r := &Region{
		Canvas:    get(ids.Canvas),
		Loader:    get(ids.Loader),
		Paginator: get(ids.Paginator),
		Prev:      get(ids.Prev),
		Next:      get(ids.Next),
		PageNum:   get(ids.PageNum),
		PageCount: get(ids.PageCount),
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingTarget, strings.Join(missing, ", "))
	}
	if r.Canvas.Tag() != "canvas" {
		return nil, fmt.Errorf("embed: %s is a <%s>, not a <canvas>", ids.Canvas, r.Canvas.Tag())
	}
	return r, nil
}

// Targets returns the region as controller targets.
func (r *Region) Targets() viewer.Targets {
	return viewer.Targets{
		Canvas:    r.Canvas,
		Loader:    r.Loader,
		Paginator: r.Paginator,
		Prev:      r.Prev,
		Next:      r.Next,
		PageNum:   r.PageNum,
		PageCount: r.PageCount,
	}
}

// Frame captures what the region currently shows.
func (r *Region) Frame() snapshot.Frame {
	f := snapshot.Frame{
		Loading:   !r.Loader.Hidden(),
		Paginator: !r.Paginator.Hidden(),
		PageNum:   r.PageNum.Text(),
		PageCount: r.PageCount.Text(),
	}
	if !r.Canvas.Hidden() {
		f.Canvas = r.Canvas.Image()
	}
	return f
}

func hasAnyTarget(page *dom.Document, id string) bool {
	for _, tid := range IDs(id).all() {
		if _, ok := page.GetElementByID(tid); ok {
			return true
		}
	}
	return false
}

// Scaffold appends the standard target subtree for m to its marker element.
// It refuses when any target id already exists, so partial markup is never
// completed behind the author's back.
func Scaffold(page *dom.Document, m Marker) error {
	ids := IDs(m.ID)
	for _, id := range ids.all() {
		if _, ok := page.GetElementByID(id); ok {
			return fmt.Errorf("embed: scaffold %s: element %s exists", m.ID, id)
		}
	}

	el := func(tag, id, class, text string) *dom.Element {
		e := page.CreateElement(tag)
		if id != "" {
			e.SetAttr("id", id)
		}
		e.SetAttr("class", class)
		if text != "" {
			e.SetText(text)
		}
		return e
	}
	loader := el("div", ids.Loader, "pdf-loader", "Loading…")
	canvas := el("canvas", ids.Canvas, "pdf-canvas", "")
	paginator := el("div", ids.Paginator, "pdf-paginator", "")
	paginator.SetHidden(true)

	children := []*dom.Element{
		el("button", ids.Prev, "pdf-prev", "Previous"),
		el("span", ids.PageNum, "pdf-page-num", ""),
		el("span", "", "pdf-page-sep", "/"),
		el("span", ids.PageCount, "pdf-page-count", ""),
		el("button", ids.Next, "pdf-next", "Next"),
	}
	for _, c := range children {
		if err := paginator.AppendChild(c); err != nil {
			return err
		}
	}
	for _, c := range []*dom.Element{loader, canvas, paginator} {
		if err := m.Element.AppendChild(c); err != nil {
			return err
		}
	}
	return nil
}
