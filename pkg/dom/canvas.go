package dom

import (
	"image"
	"image/draw"
	"strconv"
)

// canvas holds the raster of a canvas element. Drawing goes to back; front
// is what readers see.
type canvas struct {
	front *image.RGBA
	back  *image.RGBA
}

func (e *Element) canvasLocked() *canvas {
	if e.canvas == nil {
		e.canvas = &canvas{}
	}
	return e.canvas
}

// Resize sets the canvas size and returns a cleared drawing surface of that
// size. The surface becomes visible through Image after Flush.
func (e *Element) Resize(w, h int) draw.Image {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	setAttr(e.node, "width", strconv.Itoa(w))
	setAttr(e.node, "height", strconv.Itoa(h))
	c := e.canvasLocked()
	c.back = image.NewRGBA(image.Rect(0, 0, w, h))
	return c.back
}

// Flush publishes the surface returned by the last Resize.
func (e *Element) Flush() {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	c := e.canvasLocked()
	if c.back != nil {
		c.front, c.back = c.back, nil
	}
}

// Image returns the published raster, or nil if nothing was flushed yet.
// The returned image must not be modified.
func (e *Element) Image() image.Image {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	if e.canvas == nil || e.canvas.front == nil {
		return nil
	}
	return e.canvas.front
}
