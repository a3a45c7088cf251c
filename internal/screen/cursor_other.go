//go:build !windows && !linux

package screen

type unsupportedLocator struct{}

func platformLocator() Locator { return unsupportedLocator{} }

func (unsupportedLocator) CursorPosition() (Point, error) {
	return Point{}, ErrUnsupportedPlatform
}
