// Package embed finds document markers in a page and bootstraps one render
// controller per marker.
//
// A marker is any element with a data-pdf-src attribute:
//
//	<div data-pdf-src="report.pdf" data-pdf-id="report" data-pdf-page="2">
//	  <div id="pdf-loader-report">Loading…</div>
//	  <canvas id="pdf-canvas-report"></canvas>
//	  <div id="pdf-paginator-report">
//	    <button id="pdf-prev-report">Previous</button>
//	    <span id="pdf-page-num-report"></span> / <span id="pdf-page-count-report"></span>
//	    <button id="pdf-next-report">Next</button>
//	  </div>
//	</div>
//
// Target ids are derived from the marker id (see IDs). With Options.Scaffold
// the target subtree is created for markers that have none.
package embed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/novvoo/go-pdfembed/pkg/dom"
	"github.com/novvoo/go-pdfembed/pkg/viewer"
)

// Options configure Bootstrap.
type Options struct {
	// Scale is the render scale of every controller (default
	// viewer.DefaultScale).
	Scale float64

	// Scaffold creates missing target subtrees.
	Scaffold bool

	Logger *slog.Logger
}

// Embed is one bootstrapped marker.
type Embed struct {
	Marker     Marker
	Region     *Region            // nil if targets could not be resolved
	Controller *viewer.Controller // nil if the document could not be loaded

	// Err is the first failure of this embed. A non-nil Controller with a
	// non-nil Err means the initial render failed.
	Err error
}

// ID returns the marker id.
func (e *Embed) ID() string {
	return e.Marker.ID
}

// Set is the result of Bootstrap.
type Set struct {
	embeds []*Embed
	byID   map[string]*Embed
	cache  *Cache
}

// All returns the embeds in document order.
func (s *Set) All() []*Embed {
	return s.embeds
}

// Get returns the embed with the given marker id.
func (s *Set) Get(id string) (*Embed, bool) {
	e, ok := s.byID[id]
	return e, ok
}

// Close detaches every controller and closes the loaded documents.
func (s *Set) Close() error {
	for _, e := range s.embeds {
		if e.Controller != nil {
			e.Controller.Close()
		}
	}
	return s.cache.Close()
}

// Bootstrap discovers the markers of page, loads their documents through
// opener and renders each initial page. Markers are processed concurrently.
// The returned Set is never nil: it holds every discovered marker, including
// failed ones, and the error joins all failures.
func Bootstrap(ctx context.Context, page *dom.Document, opener Opener, opts Options) (*Set, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	markers, discoverErr := Discover(page)

	set := &Set{
		byID:  make(map[string]*Embed, len(markers)),
		cache: NewCache(opener),
	}
	var wg sync.WaitGroup
	for _, m := range markers {
		e := &Embed{Marker: m}
		set.embeds = append(set.embeds, e)
		set.byID[m.ID] = e

		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Err = bootstrapOne(ctx, page, set.cache, e, opts)
		}()
	}
	wg.Wait()

	errs := []error{discoverErr}
	for _, e := range set.embeds {
		if e.Err != nil {
			opts.Logger.Warn("embed failed", "id", e.ID(), "source", e.Marker.Source, "error", e.Err)
			errs = append(errs, fmt.Errorf("embed %s: %w", e.ID(), e.Err))
		}
	}
	return set, errors.Join(errs...)
}

func bootstrapOne(ctx context.Context, page *dom.Document, opener Opener, e *Embed, opts Options) error {
	m := e.Marker
	region, err := Resolve(page, m.ID)
	if errors.Is(err, ErrMissingTarget) && opts.Scaffold && !hasAnyTarget(page, m.ID) {
		if err := Scaffold(page, m); err != nil {
			return err
		}
		region, err = Resolve(page, m.ID)
	}
	if err != nil {
		return err
	}
	e.Region = region

	display, err := viewer.NewDisplay(region.Targets(), viewer.DisplayOptions{
		HidePaginator: m.HidePaginator,
		HideLoader:    m.HideLoader,
	})
	if err != nil {
		return err
	}
	display.ShowLoader()

	doc, err := opener.Open(ctx, m.Source)
	if err != nil {
		return err
	}
	ctrl, err := viewer.New(doc, display, viewer.Options{
		InitialPage: m.InitialPage,
		Scale:       opts.Scale,
		Logger:      opts.Logger.With("embed", m.ID),
	})
	if err != nil {
		return err
	}
	e.Controller = ctrl
	display.ShowPaginator()

	return ctrl.Render(ctx)
}
