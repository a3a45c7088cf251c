package screen

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestDIBStride(t *testing.T) {
	tests := []struct {
		width, bits, want int
	}{
		{1, 24, 4},
		{2, 24, 8},
		{3, 24, 12},
		{4, 24, 12},
		{5, 24, 16},
		{5, 32, 20},
	}
	for _, tt := range tests {
		if got := DIBStride(tt.width, tt.bits); got != tt.want {
			t.Errorf("DIBStride(%d, %d): expected %d, got %d", tt.width, tt.bits, tt.want, got)
		}
	}
}

func TestDecodeBGR24WithPadding(t *testing.T) {
	// 2x2 image, stride 8: 6 bytes of pixels + 2 bytes padding per row.
	bmp := &Bitmap{
		Width:  2,
		Height: 2,
		Stride: 8,
		Layout: LayoutBGR24,
		Pix: []byte{
			3, 2, 1, 6, 5, 4, 0xFF, 0xFF,
			9, 8, 7, 12, 11, 10, 0xFF, 0xFF,
		},
	}

	got, err := bmp.Decode()
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	want := []RGB{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}, {10, 11, 12}}
	if len(got) != len(want) {
		t.Fatalf("Expected %d colors, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Color %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestDecodeLastRowWithoutPadding(t *testing.T) {
	// Some producers omit the padding after the final row.
	bmp := &Bitmap{
		Width:  1,
		Height: 2,
		Stride: 4,
		Layout: LayoutBGR24,
		Pix:    []byte{3, 2, 1, 0, 6, 5, 4},
	}
	got, err := bmp.Decode()
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(got) != 2 || got[1] != (RGB{4, 5, 6}) {
		t.Errorf("Unexpected decode result: %v", got)
	}
}

func TestDecodeRGBAImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(0, 0, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	img.Set(2, 1, color.RGBA{R: 40, G: 50, B: 60, A: 255})

	got, err := bitmapFromRGBAImage(img).Decode()
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(got) != 6 {
		t.Fatalf("Expected 6 colors, got %d", len(got))
	}
	if got[0] != (RGB{10, 20, 30}) {
		t.Errorf("Expected first pixel {10 20 30}, got %+v", got[0])
	}
	if got[5] != (RGB{40, 50, 60}) {
		t.Errorf("Expected last pixel {40 50 60}, got %+v", got[5])
	}
}

func bitmapFromRGBAImage(img *image.RGBA) *Bitmap {
	b := img.Bounds()
	return &Bitmap{
		Width:  b.Dx(),
		Height: b.Dy(),
		Stride: img.Stride,
		Layout: LayoutRGBA32,
		Pix:    img.Pix,
	}
}

func TestDecodeRejectsBadGeometry(t *testing.T) {
	tests := []struct {
		name string
		bmp  Bitmap
	}{
		{"zero width", Bitmap{Width: 0, Height: 1, Stride: 4, Pix: make([]byte, 4)}},
		{"stride too small", Bitmap{Width: 2, Height: 1, Stride: 4, Layout: LayoutBGR24, Pix: make([]byte, 8)}},
		{"short data", Bitmap{Width: 2, Height: 2, Stride: 8, Layout: LayoutBGR24, Pix: make([]byte, 10)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.bmp.Decode(); err == nil {
				t.Error("Expected decode error")
			}
		})
	}

	short := Bitmap{Width: 2, Height: 2, Stride: 8, Layout: LayoutBGR24, Pix: make([]byte, 10)}
	if _, err := short.Decode(); !errors.Is(err, ErrShortBitmap) {
		t.Errorf("Expected ErrShortBitmap, got %v", err)
	}
}
