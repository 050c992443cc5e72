package snapshot

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"
)

func newTestComposer(t *testing.T) *Composer {
	t.Helper()
	c, err := NewComposer(Options{})
	if err != nil {
		t.Fatalf("NewComposer failed: %v", err)
	}
	return c
}

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

// hasInk reports whether area holds a pixel different from bg.
func hasInk(img image.Image, area image.Rectangle, bg color.Color) bool {
	br, bgG, bb, _ := bg.RGBA()
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if r != br || g != bgG || b != bb {
				return true
			}
		}
	}
	return false
}

// TestComposeCanvasWithPaginator tests a rendered frame with a paginator bar
func TestComposeCanvasWithPaginator(t *testing.T) {
	c := newTestComposer(t)
	red := color.RGBA{200, 0, 0, 255}

	img := c.Compose(Frame{
		Canvas:    solid(120, 80, red),
		Paginator: true,
		PageNum:   "2",
		PageCount: "5",
	})

	if got := img.Bounds(); got.Dx() != 120 || got.Dy() != 80+32 {
		t.Fatalf("Frame size %dx%d, want 120x112", got.Dx(), got.Dy())
	}
	if got := img.RGBAAt(10, 10); got != red {
		t.Errorf("Canvas pixel = %v, want %v", got, red)
	}
	if !hasInk(img, image.Rect(0, 80, 120, 112), barColor) {
		t.Error("Paginator bar has no text")
	}
}

// TestComposeLoading tests the loading placeholder
func TestComposeLoading(t *testing.T) {
	c := newTestComposer(t)

	img := c.Compose(Frame{Loading: true})
	if got := img.Bounds(); got.Dx() != 320 || got.Dy() != 160 {
		t.Fatalf("Frame size %dx%d, want 320x160", got.Dx(), got.Dy())
	}
	if !hasInk(img, img.Bounds(), background) {
		t.Error("Loading frame has no text")
	}

	blank := c.Compose(Frame{})
	if hasInk(blank, blank.Bounds(), background) {
		t.Error("Empty frame should be blank")
	}
}

// TestNormalizeFormat tests format aliases
func TestNormalizeFormat(t *testing.T) {
	tests := []struct {
		in, want string
		ok       bool
	}{
		{"", FormatPNG, true},
		{"PNG", FormatPNG, true},
		{"jpg", FormatJPEG, true},
		{"jpeg", FormatJPEG, true},
		{"ppm", FormatPPM, true},
		{"tiff", "", false},
	}
	for _, tt := range tests {
		got, err := NormalizeFormat(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("NormalizeFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
	if Ext(FormatJPEG) != "jpg" || Ext(FormatPNG) != "png" {
		t.Error("Unexpected extensions")
	}
}

// TestEncode tests the encoders
func TestEncode(t *testing.T) {
	img := solid(4, 3, color.RGBA{10, 20, 30, 255})

	var buf bytes.Buffer
	if err := Encode(&buf, img, "png"); err != nil {
		t.Fatalf("PNG encode failed: %v", err)
	}
	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("PNG decode failed: %v", err)
	}
	if decoded.Bounds() != img.Bounds() {
		t.Errorf("PNG bounds %v, want %v", decoded.Bounds(), img.Bounds())
	}

	buf.Reset()
	if err := Encode(&buf, img, "ppm"); err != nil {
		t.Fatalf("PPM encode failed: %v", err)
	}
	header := "P6\n4 3\n255\n"
	if !bytes.HasPrefix(buf.Bytes(), []byte(header)) {
		t.Errorf("PPM header = %q", buf.Bytes()[:len(header)])
	}
	if got, want := buf.Len(), len(header)+4*3*3; got != want {
		t.Errorf("PPM size = %d, want %d", got, want)
	}
	if got := buf.Bytes()[len(header):][:3]; !bytes.Equal(got, []byte{10, 20, 30}) {
		t.Errorf("First PPM pixel = %v", got)
	}

	buf.Reset()
	if err := Encode(&buf, img, "jpeg"); err != nil {
		t.Fatalf("JPEG encode failed: %v", err)
	}

	if err := Encode(&buf, img, "bmp"); err == nil {
		t.Error("Expected error for unknown format")
	}
}
