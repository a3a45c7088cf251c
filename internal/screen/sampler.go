package screen

import (
	"log/slog"
)

// Surface is a read-only view of the whole desktop. Implementations acquire
// and release their OS handles inside each call.
type Surface interface {
	// Pixel reads a single pixel.
	Pixel(p Point) (RGB, error)

	// Capture copies r into an off-screen bitmap in one block transfer.
	Capture(r Rect) (*Bitmap, error)
}

// Locator reports where the pointer currently is.
type Locator interface {
	CursorPosition() (Point, error)
}

// Sampler answers color and cursor queries. It holds no mutable state, so a
// single Sampler may be shared by any number of goroutines.
type Sampler struct {
	surface Surface
	locator Locator
}

// NewSampler creates a sampler over the given surface and locator.
func NewSampler(surface Surface, locator Locator) *Sampler {
	return &Sampler{
		surface: surface,
		locator: locator,
	}
}

// New creates a sampler for the current platform's desktop.
func New() *Sampler {
	return NewSampler(platformSurface(), platformLocator())
}

// CursorPosition returns the pointer location, or false if the platform
// cannot report it.
func (s *Sampler) CursorPosition() (Point, bool) {
	p, err := s.locator.CursorPosition()
	if err != nil {
		slog.Debug("Sampler: cursor query failed", "err", err)
		return Point{}, false
	}
	return p, true
}

// SamplePixel returns the color at p, or false if it cannot be read.
func (s *Sampler) SamplePixel(p Point) (RGB, bool) {
	c, err := s.surface.Pixel(p)
	if err != nil {
		slog.Debug("Sampler: pixel read failed", "x", p.X, "y", p.Y, "err", err)
		return RGB{}, false
	}
	return c, true
}

// SampleRegion returns the colors of the rectangle spanned by p1 and p2 in
// row-major order. Corners may be given in any order. The result always has
// exactly width*height entries, or false on failure.
func (s *Sampler) SampleRegion(p1, p2 Point) ([]RGB, bool) {
	r := Normalize(p1, p2)

	bmp, err := s.surface.Capture(r)
	if err != nil || bmp == nil {
		slog.Debug("Sampler: region capture failed",
			"x", r.X, "y", r.Y, "width", r.Width, "height", r.Height, "err", err)
		return nil, false
	}

	colors, err := bmp.Decode()
	if err != nil {
		slog.Warn("Sampler: region decode failed", "err", err)
		return nil, false
	}
	if len(colors) != r.Area() {
		slog.Warn("Sampler: region size mismatch", "want", r.Area(), "got", len(colors))
		return nil, false
	}
	return colors, true
}

var defaultSampler = New()

// Default returns the process-wide sampler for the current platform.
func Default() *Sampler {
	return defaultSampler
}
