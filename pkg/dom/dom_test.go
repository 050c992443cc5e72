package dom

import (
	"bytes"
	"context"
	"image/color"
	"strings"
	"testing"
)

const testPage = `<!DOCTYPE html>
<html><body>
<div id="a" data-pdf-src="one.pdf"><span id="label">old</span></div>
<div id="b" data-pdf-src="two.pdf" hidden></div>
<canvas id="c"></canvas>
</body></html>`

func parseTestPage(t *testing.T) *Document {
	t.Helper()
	doc, err := Parse(strings.NewReader(testPage))
	if err != nil {
		t.Fatalf("Failed to parse page: %v", err)
	}
	return doc
}

// TestGetElementByID tests id lookup
func TestGetElementByID(t *testing.T) {
	doc := parseTestPage(t)

	tests := []struct {
		id   string
		tag  string
		want bool
	}{
		{"a", "div", true},
		{"label", "span", true},
		{"c", "canvas", true},
		{"missing", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			e, ok := doc.GetElementByID(tt.id)
			if ok != tt.want {
				t.Fatalf("GetElementByID(%q) found = %v, want %v", tt.id, ok, tt.want)
			}
			if ok && e.Tag() != tt.tag {
				t.Errorf("Tag() = %q, want %q", e.Tag(), tt.tag)
			}
		})
	}
}

// TestElementsWithAttr tests attribute scans in document order
func TestElementsWithAttr(t *testing.T) {
	doc := parseTestPage(t)

	got := doc.ElementsWithAttr("data-pdf-src")
	if len(got) != 2 {
		t.Fatalf("Expected 2 elements, got %d", len(got))
	}
	if got[0].ID() != "a" || got[1].ID() != "b" {
		t.Errorf("Unexpected order: %q, %q", got[0].ID(), got[1].ID())
	}
}

// TestHiddenAndText tests visibility and text mutation
func TestHiddenAndText(t *testing.T) {
	doc := parseTestPage(t)

	b, _ := doc.GetElementByID("b")
	if !b.Hidden() {
		t.Error("Element b should start hidden")
	}
	b.SetHidden(false)
	b.SetHidden(false)
	if b.Hidden() {
		t.Error("Element b should be visible")
	}

	a, _ := doc.GetElementByID("a")
	a.SetText("3")
	if got := a.Text(); got != "3" {
		t.Errorf("Text() = %q, want %q", got, "3")
	}
}

// TestAppendChild tests that appended subtrees are indexed
func TestAppendChild(t *testing.T) {
	doc := parseTestPage(t)
	a, _ := doc.GetElementByID("a")

	child := doc.CreateElement("span")
	child.SetAttr("id", "fresh")
	if _, ok := doc.GetElementByID("fresh"); ok {
		t.Fatal("Detached element should not be indexed")
	}
	if err := a.AppendChild(child); err != nil {
		t.Fatalf("AppendChild failed: %v", err)
	}
	got, ok := doc.GetElementByID("fresh")
	if !ok || got != child {
		t.Fatal("Appended element should be found by id")
	}
	if err := a.AppendChild(child); err == nil {
		t.Error("Expected error when appending an attached element")
	}

	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(buf.String(), `<span id="fresh"></span>`) {
		t.Errorf("Rendered page misses appended element: %s", buf.String())
	}
}

type countingListener struct {
	n int
}

func (l *countingListener) HandleEvent(ctx context.Context, ev Event) {
	l.n++
}

// TestEventListenerIdentity tests that listeners are de-duplicated by identity
func TestEventListenerIdentity(t *testing.T) {
	doc := parseTestPage(t)
	a, _ := doc.GetElementByID("a")

	l1 := &countingListener{}
	l2 := &countingListener{}
	a.AddEventListener(EventClick, l1)
	a.AddEventListener(EventClick, l1)
	a.AddEventListener(EventClick, l2)

	if got := a.ListenerCount(EventClick); got != 2 {
		t.Fatalf("ListenerCount = %d, want 2", got)
	}

	a.Click(context.Background())
	if l1.n != 1 || l2.n != 1 {
		t.Errorf("Each listener should fire once, got %d and %d", l1.n, l2.n)
	}

	a.RemoveEventListener(EventClick, l1)
	a.Click(context.Background())
	if l1.n != 1 || l2.n != 2 {
		t.Errorf("After removal got %d and %d, want 1 and 2", l1.n, l2.n)
	}
}

// TestCanvasDoubleBuffer tests that drawing is only visible after Flush
func TestCanvasDoubleBuffer(t *testing.T) {
	doc := parseTestPage(t)
	c, _ := doc.GetElementByID("c")

	if c.Image() != nil {
		t.Fatal("Fresh canvas should have no image")
	}

	dst := c.Resize(4, 3)
	dst.Set(1, 1, color.RGBA{R: 255, A: 255})
	if c.Image() != nil {
		t.Fatal("Image should not be published before Flush")
	}
	if w, _ := c.Attr("width"); w != "4" {
		t.Errorf("width attribute = %q, want 4", w)
	}

	c.Flush()
	img := c.Image()
	if img == nil {
		t.Fatal("Image should be published after Flush")
	}
	if r, _, _, _ := img.At(1, 1).RGBA(); r != 0xffff {
		t.Errorf("Published pixel has red %#x, want 0xffff", r)
	}

	c.Resize(2, 2)
	if got := c.Image().Bounds().Dx(); got != 4 {
		t.Errorf("Front buffer changed before Flush: width %d", got)
	}
}
