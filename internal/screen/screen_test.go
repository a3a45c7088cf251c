package screen

import (
	"encoding/json"
	"testing"
)

// gradientSurface paints a deterministic image and packs captures the way
// GDI does: 24-bit BGR rows padded to four bytes.
type gradientSurface struct {
	pixelErr   error
	captureErr error
	captures   int
}

func gradientAt(x, y int32) RGB {
	return RGB{R: uint8(x), G: uint8(y), B: uint8(x*3 + y)}
}

func (s *gradientSurface) Pixel(p Point) (RGB, error) {
	if s.pixelErr != nil {
		return RGB{}, s.pixelErr
	}
	return gradientAt(p.X, p.Y), nil
}

func (s *gradientSurface) Capture(r Rect) (*Bitmap, error) {
	s.captures++
	if s.captureErr != nil {
		return nil, s.captureErr
	}
	w, h := int(r.Width), int(r.Height)
	stride := DIBStride(w, 24)
	pix := make([]byte, stride*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := gradientAt(r.X+int32(x), r.Y+int32(y))
			off := y*stride + x*3
			pix[off], pix[off+1], pix[off+2] = c.B, c.G, c.R
		}
		// Poison the padding so a decoder that ignores stride fails.
		for pad := w * 3; pad < stride; pad++ {
			pix[y*stride+pad] = 0xEE
		}
	}
	return &Bitmap{Width: w, Height: h, Stride: stride, Layout: LayoutBGR24, Pix: pix}, nil
}

type fixedLocator struct {
	p   Point
	err error
}

func (l fixedLocator) CursorPosition() (Point, error) {
	return l.p, l.err
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		p1, p2 Point
		want   Rect
	}{
		{"ordered", Point{1, 2}, Point{6, 7}, Rect{X: 1, Y: 2, Width: 5, Height: 5}},
		{"swapped", Point{6, 7}, Point{1, 2}, Rect{X: 1, Y: 2, Width: 5, Height: 5}},
		{"mixed", Point{6, 2}, Point{1, 7}, Rect{X: 1, Y: 2, Width: 5, Height: 5}},
		{"same point", Point{4, 4}, Point{4, 4}, Rect{X: 4, Y: 4, Width: 1, Height: 1}},
		{"flat", Point{0, 3}, Point{10, 3}, Rect{X: 0, Y: 3, Width: 10, Height: 1}},
		{"negative", Point{-5, -5}, Point{-1, 0}, Rect{X: -5, Y: -5, Width: 4, Height: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.p1, tt.p2)
			if got != tt.want {
				t.Errorf("Expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestRGBJSON(t *testing.T) {
	data, err := json.Marshal(RGB{R: 255, G: 128, B: 0})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != "[255,128,0]" {
		t.Errorf("Expected [255,128,0], got %s", data)
	}

	var c RGB
	if err := json.Unmarshal([]byte("[1,2,3]"), &c); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if c != (RGB{1, 2, 3}) {
		t.Errorf("Expected {1 2 3}, got %+v", c)
	}

	if err := json.Unmarshal([]byte("[1,2,300]"), &c); err == nil {
		t.Error("Expected error for out-of-range component")
	}
}

func TestOptionalRGBEncodesNull(t *testing.T) {
	payload := struct {
		RGB *RGB `json:"rgb"`
	}{}
	data, _ := json.Marshal(payload)
	if string(data) != `{"rgb":null}` {
		t.Errorf("Expected null rgb, got %s", data)
	}
}

func TestRGBHex(t *testing.T) {
	if got := (RGB{R: 0x12, G: 0xab, B: 0xff}).Hex(); got != "#12abff" {
		t.Errorf("Expected #12abff, got %s", got)
	}
	if got := (RGB{}).Hex(); got != "#000000" {
		t.Errorf("Expected #000000, got %s", got)
	}
}

func TestColorFromCOLORREF(t *testing.T) {
	got := colorFromCOLORREF(0x00332211)
	if got != (RGB{R: 0x11, G: 0x22, B: 0x33}) {
		t.Errorf("Expected {17 34 51}, got %+v", got)
	}
}

func TestSampleRegionSize(t *testing.T) {
	s := NewSampler(&gradientSurface{}, fixedLocator{})

	colors, ok := s.SampleRegion(Point{10, 10}, Point{15, 15})
	if !ok {
		t.Fatal("Expected region sample to succeed")
	}
	if len(colors) != 25 {
		t.Fatalf("Expected 25 colors, got %d", len(colors))
	}
	for i, c := range colors {
		x, y := int32(10+i%5), int32(10+i/5)
		if c != gradientAt(x, y) {
			t.Errorf("Color %d at (%d,%d): expected %+v, got %+v", i, x, y, gradientAt(x, y), c)
		}
	}
}

func TestSampleRegionSwappedCorners(t *testing.T) {
	s := NewSampler(&gradientSurface{}, fixedLocator{})

	a, okA := s.SampleRegion(Point{3, 40}, Point{10, 45})
	b, okB := s.SampleRegion(Point{10, 45}, Point{3, 40})
	if !okA || !okB {
		t.Fatal("Expected both samples to succeed")
	}
	if len(a) != len(b) {
		t.Fatalf("Expected equal lengths, got %d and %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Mismatch at %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestPixelMatchesSinglePixelRegion(t *testing.T) {
	cursor := Point{X: 7, Y: 9}
	s := NewSampler(&gradientSurface{}, fixedLocator{p: cursor})

	p, ok := s.CursorPosition()
	if !ok {
		t.Fatal("Expected cursor position")
	}
	pixel, ok := s.SamplePixel(p)
	if !ok {
		t.Fatal("Expected pixel sample")
	}
	region, ok := s.SampleRegion(p, p)
	if !ok {
		t.Fatal("Expected region sample")
	}
	if len(region) != 1 || region[0] != pixel {
		t.Errorf("Expected region [%v], got %v", pixel, region)
	}
}

func TestSamplerFailures(t *testing.T) {
	surface := &gradientSurface{
		pixelErr:   ErrInvalidPixel,
		captureErr: ErrNoDeviceContext,
	}
	s := NewSampler(surface, fixedLocator{err: ErrUnsupportedPlatform})

	if _, ok := s.CursorPosition(); ok {
		t.Error("Expected cursor query to fail")
	}
	if _, ok := s.SamplePixel(Point{1, 1}); ok {
		t.Error("Expected pixel sample to fail")
	}
	if colors, ok := s.SampleRegion(Point{0, 0}, Point{4, 4}); ok || colors != nil {
		t.Errorf("Expected region sample to fail, got %v", colors)
	}
}

type shortSurface struct{ gradientSurface }

func (s *shortSurface) Capture(r Rect) (*Bitmap, error) {
	bmp, err := s.gradientSurface.Capture(r)
	if err != nil {
		return nil, err
	}
	bmp.Pix = bmp.Pix[:len(bmp.Pix)/2]
	return bmp, nil
}

func TestSampleRegionRejectsShortBitmap(t *testing.T) {
	s := NewSampler(&shortSurface{}, fixedLocator{})
	if _, ok := s.SampleRegion(Point{0, 0}, Point{8, 8}); ok {
		t.Error("Expected truncated capture to be rejected")
	}
}
