// Package dom provides a small element tree parsed from HTML.
//
// A Document is the page that embedded viewers draw into. Elements can be
// looked up by id, hidden and shown, carry text, receive events, and canvas
// elements own a double-buffered raster. All methods are safe for concurrent
// use.
package dom

import (
	"fmt"
	"io"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a parsed HTML page.
type Document struct {
	mu    sync.RWMutex
	root  *html.Node
	elems map[*html.Node]*Element
	byID  map[string]*Element
}

// Parse reads an HTML page.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse: %w", err)
	}
	d := &Document{
		root:  root,
		elems: make(map[*html.Node]*Element),
		byID:  make(map[string]*Element),
	}
	d.index(root)
	return d, nil
}

// index registers every element node below n.
func (d *Document) index(n *html.Node) {
	if n.Type == html.ElementNode {
		e := d.wrap(n)
		if id := attr(n, "id"); id != "" {
			if _, dup := d.byID[id]; !dup {
				d.byID[id] = e
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.index(c)
	}
}

func (d *Document) wrap(n *html.Node) *Element {
	if e, ok := d.elems[n]; ok {
		return e
	}
	e := &Element{doc: d, node: n}
	d.elems[n] = e
	return e
}

// GetElementByID returns the first element with the given id.
func (d *Document) GetElementByID(id string) (*Element, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.byID[id]
	return e, ok
}

// ElementsWithAttr returns, in document order, all elements carrying the
// named attribute.
func (d *Document) ElementsWithAttr(name string) []*Element {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []*Element
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if _, ok := lookupAttr(n, name); ok {
				out = append(out, d.elems[n])
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)
	return out
}

// CreateElement returns a new detached element.
func (d *Document) CreateElement(tag string) *Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	return d.wrap(n)
}

// Render writes the page as HTML.
func (d *Document) Render(w io.Writer) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return html.Render(w, d.root)
}

func attr(n *html.Node, name string) string {
	v, _ := lookupAttr(n, name)
	return v
}

func lookupAttr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, name, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: val})
}

func removeAttr(n *html.Node, name string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}
