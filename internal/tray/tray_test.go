package tray

import (
	"encoding/binary"
	"testing"
)

func TestIconLayout(t *testing.T) {
	ico := icon()
	le := binary.LittleEndian

	if le.Uint16(ico[2:]) != 1 || le.Uint16(ico[4:]) != 1 {
		t.Fatalf("Unexpected ICONDIR: % x", ico[:6])
	}
	size := le.Uint32(ico[14:])
	offset := le.Uint32(ico[18:])
	if int(offset+size) != len(ico) {
		t.Errorf("Expected entry to end at %d, got %d", len(ico), offset+size)
	}
	if le.Uint32(ico[offset+8:]) != iconSize*2 {
		t.Errorf("Expected DIB height %d, got %d", iconSize*2, le.Uint32(ico[offset+8:]))
	}

	// The center pixel is opaque, the corner is transparent.
	pix := ico[offset+40:]
	center := ((iconSize/2)*iconSize + iconSize/2) * 4
	if pix[center+3] != 0xFF {
		t.Error("Expected opaque center pixel")
	}
	if pix[3] != 0 {
		t.Error("Expected transparent corner pixel")
	}
}

func TestMenuStateBeforeRun(t *testing.T) {
	tr := New("test", nil)
	watch := tr.AddCheckboxItem("Watch clicks", false, func() {})
	tr.AddSeparator()
	quit := tr.AddMenuItem("Quit", func() {})

	if watch != 0 || quit != 2 {
		t.Fatalf("Expected ids 0 and 2, got %d and %d", watch, quit)
	}

	tr.SetItemChecked(watch, true)
	if !tr.IsChecked(watch) {
		t.Error("Expected item to be checked")
	}
	tr.SetItemTitle(watch, "Watching")

	// Separators and unknown ids are ignored.
	tr.SetItemChecked(1, true)
	tr.SetItemChecked(42, true)
	if tr.IsChecked(1) || tr.IsChecked(42) {
		t.Error("Expected separator and unknown ids to stay unchecked")
	}
}
