//go:build windows

package screen

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// GDI implementation of the desktop surface

var (
	user32               = windows.NewLazySystemDLL("user32.dll")
	procGetDesktopWindow = user32.NewProc("GetDesktopWindow")
	procGetDC            = user32.NewProc("GetDC")
	procReleaseDC        = user32.NewProc("ReleaseDC")
	procGetCursorPos     = user32.NewProc("GetCursorPos")

	gdi32                      = windows.NewLazySystemDLL("gdi32.dll")
	procGetPixel               = gdi32.NewProc("GetPixel")
	procCreateCompatibleDC     = gdi32.NewProc("CreateCompatibleDC")
	procCreateCompatibleBitmap = gdi32.NewProc("CreateCompatibleBitmap")
	procSelectObject           = gdi32.NewProc("SelectObject")
	procBitBlt                 = gdi32.NewProc("BitBlt")
	procGetDIBits              = gdi32.NewProc("GetDIBits")
	procDeleteDC               = gdi32.NewProc("DeleteDC")
	procDeleteObject           = gdi32.NewProc("DeleteObject")
)

const (
	clrInvalid    = 0xFFFFFFFF
	hgdiError     = ^uintptr(0)
	srcCopy       = 0x00CC0020
	captureBlt    = 0x40000000
	biRGB         = 0
	dibRGBColors  = 0
	dibBitsPerPel = 24
)

type bitmapInfoHeader struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
}

type bitmapInfo struct {
	Header bitmapInfoHeader
	Colors [1]uint32
}

type point struct {
	X, Y int32
}

type gdiSurface struct{}

type gdiLocator struct{}

func platformSurface() Surface { return gdiSurface{} }

func platformLocator() Locator { return gdiLocator{} }

// desktopDC is a device context for the whole virtual desktop. Callers must
// call release on every path.
type desktopDC struct {
	hwnd uintptr
	hdc  uintptr
}

func acquireDesktopDC() (desktopDC, error) {
	hwnd, _, _ := procGetDesktopWindow.Call()
	hdc, _, _ := procGetDC.Call(hwnd)
	if hdc == 0 {
		return desktopDC{}, ErrNoDeviceContext
	}
	return desktopDC{hwnd: hwnd, hdc: hdc}, nil
}

func (d desktopDC) release() {
	procReleaseDC.Call(d.hwnd, d.hdc)
}

func (gdiSurface) Pixel(p Point) (RGB, error) {
	dc, err := acquireDesktopDC()
	if err != nil {
		return RGB{}, err
	}
	defer dc.release()

	ref, _, _ := procGetPixel.Call(dc.hdc, uintptr(p.X), uintptr(p.Y))
	if uint32(ref) == clrInvalid {
		return RGB{}, ErrInvalidPixel
	}
	return colorFromCOLORREF(uint32(ref)), nil
}

func (gdiSurface) Capture(r Rect) (*Bitmap, error) {
	dc, err := acquireDesktopDC()
	if err != nil {
		return nil, err
	}
	defer dc.release()

	memDC, _, _ := procCreateCompatibleDC.Call(dc.hdc)
	if memDC == 0 {
		return nil, fmt.Errorf("%w: CreateCompatibleDC", ErrCapture)
	}
	defer procDeleteDC.Call(memDC)

	bmp, _, _ := procCreateCompatibleBitmap.Call(dc.hdc, uintptr(r.Width), uintptr(r.Height))
	if bmp == 0 {
		return nil, fmt.Errorf("%w: CreateCompatibleBitmap %dx%d", ErrCapture, r.Width, r.Height)
	}
	defer procDeleteObject.Call(bmp)

	old, _, _ := procSelectObject.Call(memDC, bmp)
	if old == 0 || old == hgdiError {
		return nil, fmt.Errorf("%w: SelectObject", ErrCapture)
	}

	ok, _, callErr := procBitBlt.Call(
		memDC, 0, 0, uintptr(r.Width), uintptr(r.Height),
		dc.hdc, uintptr(r.X), uintptr(r.Y),
		srcCopy|captureBlt,
	)
	// GetDIBits requires the bitmap to be deselected first.
	procSelectObject.Call(memDC, old)
	if ok == 0 {
		return nil, fmt.Errorf("%w: BitBlt: %v", ErrCapture, callErr)
	}

	width, height := int(r.Width), int(r.Height)
	stride := DIBStride(width, dibBitsPerPel)
	pix := make([]byte, stride*height)

	bi := bitmapInfo{
		Header: bitmapInfoHeader{
			Width:       r.Width,
			Height:      -r.Height, // top-down rows
			Planes:      1,
			BitCount:    dibBitsPerPel,
			Compression: biRGB,
		},
	}
	bi.Header.Size = uint32(unsafe.Sizeof(bi.Header))

	lines, _, callErr := procGetDIBits.Call(
		memDC, bmp, 0, uintptr(height),
		uintptr(unsafe.Pointer(&pix[0])),
		uintptr(unsafe.Pointer(&bi)),
		dibRGBColors,
	)
	if int(int32(lines)) != height {
		return nil, fmt.Errorf("%w: GetDIBits copied %d of %d rows: %v", ErrCapture, int32(lines), height, callErr)
	}

	return &Bitmap{
		Width:  width,
		Height: height,
		Stride: stride,
		Layout: LayoutBGR24,
		Pix:    pix,
	}, nil
}

func (gdiLocator) CursorPosition() (Point, error) {
	var pt point
	ret, _, err := procGetCursorPos.Call(uintptr(unsafe.Pointer(&pt)))
	if ret == 0 {
		return Point{}, fmt.Errorf("GetCursorPos failed: %v", err)
	}
	return Point{X: pt.X, Y: pt.Y}, nil
}
