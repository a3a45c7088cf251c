package screen

import "errors"

var (
	// ErrUnsupportedPlatform is returned when the OS offers no way to read the screen
	ErrUnsupportedPlatform = errors.New("screen sampling not supported on this platform")

	// ErrNoDeviceContext is returned when the desktop drawing context cannot be acquired
	ErrNoDeviceContext = errors.New("desktop device context unavailable")

	// ErrInvalidPixel is returned when the platform reports no color for a coordinate
	ErrInvalidPixel = errors.New("invalid pixel")

	// ErrCapture is returned when an off-screen copy of a region fails
	ErrCapture = errors.New("region capture failed")

	// ErrShortBitmap is returned when bitmap data is smaller than its geometry claims
	ErrShortBitmap = errors.New("bitmap data shorter than geometry")
)
