// Package screen reads pixel colors and the pointer position from the live desktop.
package screen

import (
	"encoding/json"
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// Point is a position in virtual-screen coordinates.
type Point struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

// RGB holds an 8-bit color value.
type RGB struct {
	R, G, B uint8
}

// Hex returns the color as #rrggbb.
func (c RGB) Hex() string {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}.Hex()
}

func (c RGB) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
}

// MarshalJSON encodes the color as a [r, g, b] array, the shape picker
// frontends expect.
func (c RGB) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]int{int(c.R), int(c.G), int(c.B)})
}

// UnmarshalJSON decodes a [r, g, b] array.
func (c *RGB) UnmarshalJSON(data []byte) error {
	var parts [3]int
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	for _, p := range parts {
		if p < 0 || p > 255 {
			return fmt.Errorf("color component %d out of range", p)
		}
	}
	c.R, c.G, c.B = uint8(parts[0]), uint8(parts[1]), uint8(parts[2])
	return nil
}

// Rect is an axis-aligned screen rectangle. Width and Height are always >= 1
// when produced by Normalize.
type Rect struct {
	X      int32
	Y      int32
	Width  int32
	Height int32
}

// Area returns the number of pixels covered by r.
func (r Rect) Area() int {
	return int(r.Width) * int(r.Height)
}

// Normalize turns two arbitrary corners into a rectangle anchored at the
// top-left corner. Degenerate spans are widened to one pixel.
func Normalize(p1, p2 Point) Rect {
	x1, x2 := minmax(p1.X, p2.X)
	y1, y2 := minmax(p1.Y, p2.Y)
	return Rect{
		X:      x1,
		Y:      y1,
		Width:  span(x1, x2),
		Height: span(y1, y2),
	}
}

func minmax(a, b int32) (int32, int32) {
	if a > b {
		return b, a
	}
	return a, b
}

func span(lo, hi int32) int32 {
	d := int64(hi) - int64(lo)
	if d < 1 {
		return 1
	}
	if d > 1<<31-1 {
		return 1<<31 - 1
	}
	return int32(d)
}
