package embed

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/novvoo/go-pdfembed/pkg/dom"
)

// Marker attributes.
const (
	AttrSource        = "data-pdf-src"
	AttrID            = "data-pdf-id"
	AttrPage          = "data-pdf-page"
	AttrHidePaginator = "data-pdf-hide-paginator"
	AttrHideLoader    = "data-pdf-hide-loader"
)

var (
	// ErrNoSource is reported for markers with an empty source.
	ErrNoSource = errors.New("embed: marker has no source")

	// ErrDuplicateID is reported for a marker reusing another marker's id.
	ErrDuplicateID = errors.New("embed: duplicate marker id")
)

// Marker describes one embedded document declared in the page.
type Marker struct {
	Element       *dom.Element
	Source        string
	ID            string
	HidePaginator bool
	HideLoader    bool
	InitialPage   int
}

// Discover returns the markers of page in document order. Markers without an
// id get a random one, written back to the element. Invalid markers are
// skipped and reported in the returned error.
func Discover(page *dom.Document) ([]Marker, error) {
	var (
		markers []Marker
		errs    []error
		seen    = make(map[string]bool)
	)
	for _, el := range page.ElementsWithAttr(AttrSource) {
		src, _ := el.Attr(AttrSource)
		src = strings.TrimSpace(src)
		id, _ := el.Attr(AttrID)
		id = strings.TrimSpace(id)

		if src == "" {
			errs = append(errs, fmt.Errorf("%w (id %q)", ErrNoSource, id))
			continue
		}
		if id == "" {
			id = uuid.NewString()
			el.SetAttr(AttrID, id)
		}
		if seen[id] {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateID, id))
			continue
		}
		seen[id] = true

		initial, _ := el.Attr(AttrPage)
		markers = append(markers, Marker{
			Element:       el,
			Source:        src,
			ID:            id,
			HidePaginator: flag(el, AttrHidePaginator),
			HideLoader:    flag(el, AttrHideLoader),
			InitialPage:   ParsePage(initial),
		})
	}
	return markers, errors.Join(errs...)
}

// ParsePage parses an initial page attribute. Empty or non-numeric values
// give 1. Range checks against the document happen in the controller.
func ParsePage(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 1
	}
	return n
}

// ParseFlag interprets a boolean attribute. A present attribute is true
// unless its value parses as false.
func ParseFlag(val string, present bool) bool {
	if !present {
		return false
	}
	b, err := strconv.ParseBool(strings.TrimSpace(val))
	if err != nil {
		return true
	}
	return b
}

func flag(el *dom.Element, name string) bool {
	v, ok := el.Attr(name)
	return ParseFlag(v, ok)
}
