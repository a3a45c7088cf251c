//go:build !windows

package screen

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

// captureSurface reads the desktop through a block capture. A single pixel
// is a 1x1 capture.
type captureSurface struct{}

func platformSurface() Surface { return captureSurface{} }

// displayBounds returns the union of all active display rectangles.
var displayBounds = func() image.Rectangle {
	n := screenshot.NumActiveDisplays()
	rects := make([]image.Rectangle, 0, n)
	for i := 0; i < n; i++ {
		rects = append(rects, screenshot.GetDisplayBounds(i))
	}
	return unionBounds(rects)
}

func unionBounds(rects []image.Rectangle) image.Rectangle {
	var u image.Rectangle
	for _, r := range rects {
		u = u.Union(r)
	}
	return u
}

// Pixel rejects points outside every display; a capture there would come
// back as a zeroed image rather than an error.
func (s captureSurface) Pixel(p Point) (RGB, error) {
	if !image.Pt(int(p.X), int(p.Y)).In(displayBounds()) {
		return RGB{}, fmt.Errorf("%w: %d,%d is off screen", ErrInvalidPixel, p.X, p.Y)
	}
	bmp, err := s.Capture(Rect{X: p.X, Y: p.Y, Width: 1, Height: 1})
	if err != nil {
		return RGB{}, err
	}
	colors, err := bmp.Decode()
	if err != nil || len(colors) != 1 {
		return RGB{}, ErrInvalidPixel
	}
	return colors[0], nil
}

func (captureSurface) Capture(r Rect) (*Bitmap, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return nil, ErrNoDeviceContext
	}

	img, err := screenshot.CaptureRect(image.Rect(
		int(r.X), int(r.Y),
		int(r.X)+int(r.Width), int(r.Y)+int(r.Height),
	))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCapture, err)
	}

	return bitmapFromRGBA(img), nil
}

func bitmapFromRGBA(img *image.RGBA) *Bitmap {
	b := img.Bounds()
	return &Bitmap{
		Width:  b.Dx(),
		Height: b.Dy(),
		Stride: img.Stride,
		Layout: LayoutRGBA32,
		Pix:    img.Pix[img.PixOffset(b.Min.X, b.Min.Y):],
	}
}
