package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/muesli/reflow/truncate"
	"golang.org/x/term"

	"github.com/novvoo/go-pdfembed/pkg/embed"
	"github.com/novvoo/go-pdfembed/pkg/snapshot"
)

const defaultWidth = 80

type key int

const (
	keyNone key = iota
	keyNext
	keyPrev
	keyCycle
	keyQuit
)

// readKey reads one key press. Arrow keys arrive as ESC [ C / ESC [ D.
func readKey(r *bufio.Reader) (key, error) {
	b, err := r.ReadByte()
	if err != nil {
		return keyNone, err
	}
	switch b {
	case 'n', ' ':
		return keyNext, nil
	case 'p':
		return keyPrev, nil
	case '\t':
		return keyCycle, nil
	case 'q', 0x03:
		return keyQuit, nil
	case 0x1b:
		if next, err := r.Peek(2); err == nil && next[0] == '[' {
			_, _ = r.Discard(2)
			switch next[1] {
			case 'C':
				return keyNext, nil
			case 'D':
				return keyPrev, nil
			}
		}
	}
	return keyNone, nil
}

// terminalViewer drives the embeds from key presses. Navigation clicks the
// region controls, so it goes through the controllers' own listeners.
type terminalViewer struct {
	set      *embed.Set
	composer *snapshot.Composer
	dir      string
	format   string
	width    int
	out      io.Writer

	selected int
}

func (v *terminalViewer) run(ctx context.Context, in io.Reader) error {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		state, err := term.MakeRaw(int(f.Fd()))
		if err != nil {
			return fmt.Errorf("raw mode: %w", err)
		}
		defer func() { _ = term.Restore(int(f.Fd()), state) }()
	}
	if err := os.MkdirAll(v.dir, 0o755); err != nil {
		return err
	}
	for _, e := range v.set.All() {
		if e.Region != nil {
			if _, err := writeFrame(e, v.composer, v.dir, v.format); err != nil {
				return err
			}
		}
	}
	v.status()

	r := bufio.NewReader(in)
	for ctx.Err() == nil {
		k, err := readKey(r)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if k == keyQuit {
			break
		}
		if err := v.handle(ctx, k); err != nil {
			return err
		}
	}
	fmt.Fprint(v.out, "\r\n")
	return nil
}

func (v *terminalViewer) handle(ctx context.Context, k key) error {
	embeds := v.set.All()
	e := embeds[v.selected]
	switch k {
	case keyCycle:
		v.selected = (v.selected + 1) % len(embeds)
		v.status()
		return nil
	case keyNext:
		if e.Controller != nil {
			e.Region.Next.Click(ctx)
		}
	case keyPrev:
		if e.Controller != nil {
			e.Region.Prev.Click(ctx)
		}
	default:
		return nil
	}
	if e.Region != nil {
		if _, err := writeFrame(e, v.composer, v.dir, v.format); err != nil {
			return err
		}
	}
	v.status()
	return nil
}

// statusLine describes the selected embed.
func (v *terminalViewer) statusLine() string {
	embeds := v.set.All()
	e := embeds[v.selected]
	pos := "[" + strconv.Itoa(v.selected+1) + "/" + strconv.Itoa(len(embeds)) + "] "
	switch {
	case e.Controller != nil:
		st := e.Controller.State()
		return fmt.Sprintf("%s%s  page %d of %d  %s", pos, e.ID(), st.Page, st.Total, e.Marker.Source)
	case e.Err != nil:
		return fmt.Sprintf("%s%s  error: %v", pos, e.ID(), e.Err)
	default:
		return pos + e.ID()
	}
}

func (v *terminalViewer) status() {
	fmt.Fprint(v.out, "\r\x1b[2K"+truncateStatus(v.statusLine(), v.width))
}

func truncateStatus(s string, width int) string {
	return truncate.StringWithTail(s, uint(width), "…")
}

func resolveWidth(width int, w io.Writer) int {
	if width > 0 {
		return width
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if cols, _, err := term.GetSize(int(f.Fd())); err == nil && cols > 0 {
			return cols
		}
	}
	return defaultWidth
}
