package snapshot

import (
	"bufio"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
)

// Formats understood by Encode.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
	FormatPPM  = "ppm"
)

// NormalizeFormat maps format names and aliases to a Format constant.
func NormalizeFormat(format string) (string, error) {
	switch strings.ToLower(format) {
	case "", "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "ppm":
		return FormatPPM, nil
	}
	return "", fmt.Errorf("snapshot: unknown format %q", format)
}

// Ext returns the file extension of format, without the dot.
func Ext(format string) string {
	if format == FormatJPEG {
		return "jpg"
	}
	return format
}

// ContentType returns the MIME type of format.
func ContentType(format string) string {
	switch format {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPPM:
		return "image/x-portable-pixmap"
	}
	return "image/png"
}

// Encode writes img to w in the given format.
func Encode(w io.Writer, img image.Image, format string) error {
	format, err := NormalizeFormat(format)
	if err != nil {
		return err
	}
	switch format {
	case FormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 90})
	case FormatPPM:
		return encodePPM(w, img)
	}
	return png.Encode(w, img)
}

// encodePPM writes a binary P6 pixmap.
func encodePPM(w io.Writer, img image.Image) error {
	b := img.Bounds()
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "P6\n%d %d\n255\n", b.Dx(), b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			bw.WriteByte(byte(r >> 8))
			bw.WriteByte(byte(g >> 8))
			bw.WriteByte(byte(bl >> 8))
		}
	}
	return bw.Flush()
}
