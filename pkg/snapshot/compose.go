// Package snapshot composes the visible state of an embed region into a
// single image and encodes it.
package snapshot

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// Frame is what a region shows at one moment.
type Frame struct {
	// Canvas is the published canvas raster, nil while the canvas is hidden
	// or has never been drawn.
	Canvas    image.Image
	Loading   bool
	Paginator bool
	PageNum   string
	PageCount string
}

// Options configure a Composer.
type Options struct {
	Width        int     // frame width without a canvas (default 320)
	LoaderHeight int     // content height without a canvas (default 160)
	BarHeight    int     // paginator bar height (default 32)
	FontSize     float64 // points at 72 DPI (default 13)
	Font         []byte  // TrueType data (default Go Regular)
}

// Composer draws frames. It is safe for concurrent use.
type Composer struct {
	opts Options
	font *truetype.Font
}

var (
	background = color.RGBA{255, 255, 255, 255}
	barColor   = color.RGBA{238, 238, 238, 255}
	textColor  = color.RGBA{51, 51, 51, 255}
	mutedColor = color.RGBA{136, 136, 136, 255}
)

// NewComposer parses the font and fills in defaults.
func NewComposer(opts Options) (*Composer, error) {
	if opts.Width <= 0 {
		opts.Width = 320
	}
	if opts.LoaderHeight <= 0 {
		opts.LoaderHeight = 160
	}
	if opts.BarHeight <= 0 {
		opts.BarHeight = 32
	}
	if opts.FontSize <= 0 {
		opts.FontSize = 13
	}
	if opts.Font == nil {
		opts.Font = goregular.TTF
	}
	f, err := freetype.ParseFont(opts.Font)
	if err != nil {
		return nil, fmt.Errorf("snapshot: parse font: %w", err)
	}
	return &Composer{opts: opts, font: f}, nil
}

// Compose draws f: the canvas, or the loading text while loading, and below
// it the paginator bar when the paginator is visible.
func (c *Composer) Compose(f Frame) *image.RGBA {
	w, contentH := c.opts.Width, c.opts.LoaderHeight
	if f.Canvas != nil {
		b := f.Canvas.Bounds()
		w, contentH = b.Dx(), b.Dy()
	}
	h := contentH
	if f.Paginator {
		h += c.opts.BarHeight
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	content := image.Rect(0, 0, w, contentH)
	switch {
	case f.Canvas != nil:
		draw.Draw(img, content, f.Canvas, f.Canvas.Bounds().Min, draw.Src)
	case f.Loading:
		c.drawCentered(img, content, "Loading…", mutedColor)
	}

	if f.Paginator {
		bar := image.Rect(0, contentH, w, h)
		draw.Draw(img, bar, image.NewUniform(barColor), image.Point{}, draw.Src)
		c.drawCentered(img, bar, pagerLabel(f.PageNum, f.PageCount), textColor)
	}
	return img
}

func pagerLabel(num, count string) string {
	if num == "" {
		num = "–"
	}
	if count == "" {
		count = "–"
	}
	return "‹   " + num + " / " + count + "   ›"
}

// drawCentered draws s centered in area, clipped to it.
func (c *Composer) drawCentered(dst draw.Image, area image.Rectangle, s string, col color.Color) {
	face := truetype.NewFace(c.font, &truetype.Options{
		Size:    c.opts.FontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	defer face.Close()

	width := font.MeasureString(face, s)
	m := face.Metrics()
	x := fixed.I(area.Min.X+area.Dx()/2) - width/2
	y := fixed.I(area.Min.Y+area.Dy()/2) + (m.Ascent-m.Descent)/2

	ctx := freetype.NewContext()
	ctx.SetDPI(72)
	ctx.SetFont(c.font)
	ctx.SetFontSize(c.opts.FontSize)
	ctx.SetHinting(font.HintingFull)
	ctx.SetClip(area)
	ctx.SetDst(dst)
	ctx.SetSrc(image.NewUniform(col))
	// DrawString only fails without a font.
	_, _ = ctx.DrawString(s, fixed.Point26_6{X: x, Y: y})
}
