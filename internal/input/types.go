// Package input watches global mouse clicks through a process-wide
// low-level hook and buffers them for the application.
package input

import (
	"fmt"
	"strings"

	"colorpick/internal/screen"
)

// MouseButton identifies which button produced a click
type MouseButton int

const (
	ButtonLeft MouseButton = iota + 1
	ButtonRight
	ButtonMiddle
)

// Native Windows mouse messages delivered to a WH_MOUSE_LL hook.
const (
	wmLButtonDown = 0x0201
	wmRButtonDown = 0x0204
	wmMButtonDown = 0x0207
)

// ButtonFromMessage classifies a native mouse message. Only button-down
// messages for the three primary buttons are recognized.
func ButtonFromMessage(msg uintptr) (MouseButton, bool) {
	switch msg {
	case wmLButtonDown:
		return ButtonLeft, true
	case wmRButtonDown:
		return ButtonRight, true
	case wmMButtonDown:
		return ButtonMiddle, true
	}
	return 0, false
}

func (b MouseButton) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonRight:
		return "right"
	case ButtonMiddle:
		return "middle"
	default:
		return "unknown"
	}
}

// MarshalText encodes the button as its lowercase name.
func (b MouseButton) MarshalText() ([]byte, error) {
	switch b {
	case ButtonLeft, ButtonRight, ButtonMiddle:
		return []byte(b.String()), nil
	}
	return nil, fmt.Errorf("invalid mouse button %d", int(b))
}

// UnmarshalText parses a button name.
func (b *MouseButton) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "left":
		*b = ButtonLeft
	case "right":
		*b = ButtonRight
	case "middle":
		*b = ButtonMiddle
	default:
		return fmt.Errorf("unknown mouse button %q", text)
	}
	return nil
}

// MouseClickEvent is a click observed by the hook, in screen coordinates at
// the time of the click.
type MouseClickEvent struct {
	Button MouseButton  `json:"button"`
	Point  screen.Point `json:"point"`
}

// ClickNotification is pushed to the sink for every click. RGB is nil when
// the pixel under the pointer could not be sampled.
type ClickNotification struct {
	X      int32       `json:"x"`
	Y      int32       `json:"y"`
	Button MouseButton `json:"button"`
	RGB    *screen.RGB `json:"rgb"`
}

// Sink receives click notifications. Notify must not block.
type Sink interface {
	Notify(n ClickNotification)
}

// SinkFunc adapts a function literal to the Sink interface.
type SinkFunc func(n ClickNotification)

// Notify calls the underlying function.
func (f SinkFunc) Notify(n ClickNotification) {
	f(n)
}

// ColorSampler resolves the color under a clicked point.
type ColorSampler interface {
	SamplePixel(p screen.Point) (screen.RGB, bool)
}
