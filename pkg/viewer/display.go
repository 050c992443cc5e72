package viewer

import (
	"fmt"
	"strconv"
	"strings"
)

// Display switches the visible state of a controller's targets. Its methods
// are idempotent.
type Display struct {
	targets       Targets
	hidePaginator bool
	hideLoader    bool
}

// DisplayOptions are the static display flags of one embed.
type DisplayOptions struct {
	HidePaginator bool
	HideLoader    bool
}

// NewDisplay checks that every target is set.
func NewDisplay(t Targets, opts DisplayOptions) (*Display, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	return &Display{
		targets:       t,
		hidePaginator: opts.HidePaginator,
		hideLoader:    opts.HideLoader,
	}, nil
}

// ShowLoader hides the canvas and shows the loading indicator unless it is
// disabled.
func (d *Display) ShowLoader() {
	d.targets.Canvas.SetHidden(true)
	d.targets.Loader.SetHidden(d.hideLoader)
}

// ShowPaginator shows the paginator unless it is disabled.
func (d *Display) ShowPaginator() {
	d.targets.Paginator.SetHidden(d.hidePaginator)
}

// ShowContent swaps the loading indicator for the canvas.
func (d *Display) ShowContent() {
	d.targets.Loader.SetHidden(true)
	d.targets.Canvas.SetHidden(false)
}

func (d *Display) setPageNum(num int) {
	d.targets.PageNum.SetText(strconv.Itoa(num))
}

func (d *Display) setPageCount(total int) {
	d.targets.PageCount.SetText(strconv.Itoa(total))
}

func missingError(names []string) error {
	return fmt.Errorf("%w: %s", ErrMissingTarget, strings.Join(names, ", "))
}
