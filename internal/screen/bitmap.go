package screen

import "fmt"

// PixelLayout describes how one pixel is packed in a bitmap row.
type PixelLayout int

const (
	// LayoutBGR24 is the GDI 24-bit DIB layout: blue, green, red.
	LayoutBGR24 PixelLayout = iota
	// LayoutBGRA32 is the GDI 32-bit DIB layout: blue, green, red, unused.
	LayoutBGRA32
	// LayoutRGBA32 matches image.RGBA.
	LayoutRGBA32
)

// BytesPerPixel returns the packed size of one pixel.
func (l PixelLayout) BytesPerPixel() int {
	switch l {
	case LayoutBGR24:
		return 3
	default:
		return 4
	}
}

// Bitmap is a captured block of pixels. Rows are top-down and each row
// occupies Stride bytes, which may include alignment padding.
type Bitmap struct {
	Width  int
	Height int
	Stride int
	Layout PixelLayout
	Pix    []byte
}

// DIBStride returns the row size of an uncompressed DIB, which GDI pads to a
// 32-bit boundary.
func DIBStride(width, bitsPerPixel int) int {
	return ((width*bitsPerPixel + 31) / 32) * 4
}

// Decode unpacks the bitmap into row-major colors, top-to-bottom and
// left-to-right.
func (b *Bitmap) Decode() ([]RGB, error) {
	if b.Width <= 0 || b.Height <= 0 {
		return nil, fmt.Errorf("invalid bitmap size %dx%d", b.Width, b.Height)
	}
	bpp := b.Layout.BytesPerPixel()
	rowBytes := b.Width * bpp
	if b.Stride < rowBytes {
		return nil, fmt.Errorf("stride %d smaller than row size %d", b.Stride, rowBytes)
	}
	if need := (b.Height-1)*b.Stride + rowBytes; len(b.Pix) < need {
		return nil, fmt.Errorf("%w: have %d bytes, need %d", ErrShortBitmap, len(b.Pix), need)
	}

	colors := make([]RGB, 0, b.Width*b.Height)
	for y := 0; y < b.Height; y++ {
		row := b.Pix[y*b.Stride : y*b.Stride+rowBytes]
		for x := 0; x < rowBytes; x += bpp {
			colors = append(colors, b.Layout.decode(row[x:x+bpp]))
		}
	}
	return colors, nil
}

func (l PixelLayout) decode(px []byte) RGB {
	switch l {
	case LayoutRGBA32:
		return RGB{R: px[0], G: px[1], B: px[2]}
	default:
		return RGB{R: px[2], G: px[1], B: px[0]}
	}
}

// colorFromCOLORREF decodes a Win32 COLORREF (0x00BBGGRR).
func colorFromCOLORREF(ref uint32) RGB {
	return RGB{
		R: uint8(ref & 0xFF),
		G: uint8((ref >> 8) & 0xFF),
		B: uint8((ref >> 16) & 0xFF),
	}
}
