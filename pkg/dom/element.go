package dom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Element is a node of a Document. Elements are created by the document and
// compared by identity.
type Element struct {
	doc       *Document
	node      *html.Node
	listeners map[string][]Listener
	canvas    *canvas
}

// Tag returns the lower-case tag name.
func (e *Element) Tag() string {
	return e.node.Data
}

// ID returns the id attribute.
func (e *Element) ID() string {
	v, _ := e.Attr("id")
	return v
}

// Attr returns the value of the named attribute and whether it is present.
func (e *Element) Attr(name string) (string, bool) {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return lookupAttr(e.node, name)
}

// SetAttr sets the named attribute. Setting "id" on an attached element
// updates the document's id index.
func (e *Element) SetAttr(name, val string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if name == "id" && e.attached() {
		if old := attr(e.node, "id"); old != "" && e.doc.byID[old] == e {
			delete(e.doc.byID, old)
		}
		if _, taken := e.doc.byID[val]; !taken && val != "" {
			e.doc.byID[val] = e
		}
	}
	setAttr(e.node, name, val)
}

// Hidden reports whether the element carries the hidden attribute.
func (e *Element) Hidden() bool {
	_, ok := e.Attr("hidden")
	return ok
}

// SetHidden adds or removes the hidden attribute.
func (e *Element) SetHidden(hidden bool) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if hidden {
		setAttr(e.node, "hidden", "")
	} else {
		removeAttr(e.node, "hidden")
	}
}

// Text returns the concatenated text content of the element.
func (e *Element) Text() string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(e.node)
	return sb.String()
}

// SetText replaces the children of the element with a single text node.
func (e *Element) SetText(s string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	for c := e.node.FirstChild; c != nil; {
		next := c.NextSibling
		e.node.RemoveChild(c)
		c = next
	}
	e.node.AppendChild(&html.Node{Type: html.TextNode, Data: s})
}

// AppendChild attaches a detached element as the last child of e. Ids in the
// appended subtree become visible to GetElementByID once e is attached.
func (e *Element) AppendChild(child *Element) error {
	if child.doc != e.doc {
		return fmt.Errorf("dom: append %s: element belongs to another document", child.Tag())
	}
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if child.node.Parent != nil {
		return fmt.Errorf("dom: append %s: element already has a parent", child.Tag())
	}
	e.node.AppendChild(child.node)
	if e.attached() {
		e.doc.index(child.node)
	}
	return nil
}

// attached reports whether e is reachable from the document root. The caller
// holds doc.mu.
func (e *Element) attached() bool {
	n := e.node
	for n.Parent != nil {
		n = n.Parent
	}
	return n == e.doc.root
}
