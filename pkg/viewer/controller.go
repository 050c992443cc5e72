package viewer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/novvoo/go-pdfembed/pkg/dom"
)

// DefaultScale is the render scale used when Options.Scale is zero.
const DefaultScale = 1.5

// Options configure a Controller.
type Options struct {
	// InitialPage is the page shown first. Values outside the document are
	// clamped; zero means page 1.
	InitialPage int

	// Scale is the fixed render scale (default DefaultScale).
	Scale float64

	// OnError receives render errors from navigation triggered by control
	// events. Nil logs them.
	OnError func(error)

	Logger *slog.Logger
}

// State is a snapshot of a controller.
type State struct {
	Page      int // current page
	Total     int
	Rendering int // page being rendered, 0 when idle
	Pending   int // page waiting for the running render, 0 when none
}

// Controller renders the pages of one document into one canvas.
type Controller struct {
	doc     Document
	display *Display
	scale   float64
	total   int
	onError func(error)
	log     *slog.Logger

	prev *navListener
	next *navListener

	mu        sync.Mutex
	initial   int
	current   int
	shown     int // last page drawn, 0 before the first render completes
	rendering int // non-zero exactly while a render is in flight
	pending   int
	lastErr   error
	closed    bool
}

// New returns a controller showing doc through display. It attaches
// navigation listeners to the previous and next controls and writes the page
// count; it does not render.
func New(doc Document, display *Display, opts Options) (*Controller, error) {
	if doc == nil {
		return nil, errors.New("viewer: nil document")
	}
	if display == nil {
		return nil, errors.New("viewer: nil display")
	}
	total := doc.NumPages()
	if total < 1 {
		return nil, ErrNoPages
	}
	if opts.Scale <= 0 {
		opts.Scale = DefaultScale
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	initial := ClampPage(opts.InitialPage, total)
	c := &Controller{
		doc:     doc,
		display: display,
		scale:   opts.Scale,
		total:   total,
		initial: initial,
		current: initial,
		log:     opts.Logger,
	}
	c.onError = opts.OnError
	if c.onError == nil {
		c.onError = func(err error) {
			c.log.Error("page render failed", "error", err)
		}
	}
	c.prev = &navListener{c: c, step: (*Controller).Prev}
	c.next = &navListener{c: c, step: (*Controller).Next}

	display.targets.Prev.AddEventListener(dom.EventClick, c.prev)
	display.targets.Next.AddEventListener(dom.EventClick, c.next)
	display.setPageCount(total)
	return c, nil
}

// Display returns the display the controller drives.
func (c *Controller) Display() *Display {
	return c.display
}

// NumPages returns the page count of the document.
func (c *Controller) NumPages() int {
	return c.total
}

// CurrentPage returns the page currently shown or being rendered. After a
// failed render it is the page still on the canvas.
func (c *Controller) CurrentPage() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// State returns a snapshot of the controller.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Page:      c.current,
		Total:     c.total,
		Rendering: c.rendering,
		Pending:   c.pending,
	}
}

// LastError returns the error of the most recent navigation or render
// request, or nil if it succeeded, did nothing, or is still running.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Render renders the current page.
func (c *Controller) Render(ctx context.Context) error {
	return c.RequestRender(ctx, c.CurrentPage())
}

// Prev moves to the previous page. It does nothing on the first page.
func (c *Controller) Prev(ctx context.Context) error {
	return c.step(ctx, -1)
}

// Next moves to the next page. It does nothing on the last page.
func (c *Controller) Next(ctx context.Context) error {
	return c.step(ctx, 1)
}

func (c *Controller) step(ctx context.Context, delta int) error {
	c.mu.Lock()
	num := c.current + delta
	if c.closed || num < 1 || num > c.total {
		c.lastErr = nil
		c.mu.Unlock()
		return nil
	}
	c.current = num
	c.mu.Unlock()
	return c.RequestRender(ctx, num)
}

// GoTo moves to page num, clamped to the document.
func (c *Controller) GoTo(ctx context.Context, num int) error {
	c.mu.Lock()
	if c.closed {
		c.lastErr = nil
		c.mu.Unlock()
		return nil
	}
	num = ClampPage(num, c.total)
	c.current = num
	c.mu.Unlock()
	return c.RequestRender(ctx, num)
}

// RequestRender renders page num unless a render is already in flight, in
// which case num replaces any pending page and RequestRender returns nil at
// once. The caller that started the render also renders the pending page
// left behind by each completed render, then writes the page number of the
// last page drawn. num must be within [1, NumPages].
func (c *Controller) RequestRender(ctx context.Context, num int) error {
	if num < 1 || num > c.total {
		return fmt.Errorf("viewer: page %d out of range [1, %d]", num, c.total)
	}

	c.mu.Lock()
	c.lastErr = nil
	if c.rendering != 0 {
		if num == c.rendering {
			c.pending = 0
		} else {
			c.pending = num
			c.log.Debug("render coalesced", "page", num, "rendering", c.rendering)
		}
		c.mu.Unlock()
		return nil
	}
	c.rendering = num
	c.mu.Unlock()

	done := false
	defer func() {
		if !done {
			c.mu.Lock()
			c.rendering = 0
			c.pending = 0
			// Fall back to the page on the canvas.
			if c.shown != 0 {
				c.current = c.shown
				c.display.setPageNum(c.shown)
			} else {
				c.current = c.initial
			}
			c.mu.Unlock()
		}
	}()

	for {
		if err := c.renderPage(ctx, num); err != nil {
			c.mu.Lock()
			c.lastErr = err
			c.mu.Unlock()
			return err
		}

		c.mu.Lock()
		c.display.ShowContent()
		c.shown = num
		next := c.pending
		c.pending = 0
		if next == 0 {
			c.rendering = 0
			c.current = num
			c.display.setPageNum(num)
			done = true
			c.mu.Unlock()
			c.log.Debug("page rendered", "page", num)
			return nil
		}
		c.rendering = next
		c.mu.Unlock()
		num = next
	}
}

func (c *Controller) renderPage(ctx context.Context, num int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	page, err := c.doc.Page(ctx, num)
	if err != nil {
		return fmt.Errorf("viewer: load page %d: %w", num, err)
	}
	vp := page.Viewport(c.scale)
	canvas := c.display.targets.Canvas
	dst := canvas.Resize(vp.Width, vp.Height)
	if err := page.Render(ctx, dst, vp); err != nil {
		return fmt.Errorf("viewer: render page %d: %w", num, err)
	}
	canvas.Flush()
	return nil
}

// Close detaches the navigation listeners. Navigation after Close does
// nothing; a render already in flight completes.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()
	c.display.targets.Prev.RemoveEventListener(dom.EventClick, c.prev)
	c.display.targets.Next.RemoveEventListener(dom.EventClick, c.next)
}

// navListener binds a navigation step to its controller.
type navListener struct {
	c    *Controller
	step func(*Controller, context.Context) error
}

func (l *navListener) HandleEvent(ctx context.Context, _ dom.Event) {
	if err := l.step(l.c, ctx); err != nil {
		l.c.onError(err)
	}
}
