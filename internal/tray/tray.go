// Package tray provides system tray functionality using getlantern/systray.
package tray

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/getlantern/systray"
	"github.com/lucasb-eyer/go-colorful"
)

// MenuItem represents a menu item
type MenuItem struct {
	ID        int
	Title     string
	Checkable bool
	Callback  func()
	item      *systray.MenuItem
}

// Tray manages the system tray icon and menu
type Tray struct {
	tooltip string

	mu      sync.Mutex
	items   []*MenuItem
	checked map[int]bool
	titles  map[int]string
	ready   bool

	quitCh chan struct{}
	onExit func()
}

// New creates a new system tray. onExit runs after the tray loop ends.
func New(tooltip string, onExit func()) *Tray {
	return &Tray{
		tooltip: tooltip,
		checked: make(map[int]bool),
		titles:  make(map[int]string),
		quitCh:  make(chan struct{}),
		onExit:  onExit,
	}
}

// AddMenuItem adds a menu item to the tray
func (t *Tray) AddMenuItem(title string, callback func()) int {
	return t.add(&MenuItem{Title: title, Callback: callback})
}

// AddCheckboxItem adds a menu item that shows a check mark
func (t *Tray) AddCheckboxItem(title string, checked bool, callback func()) int {
	id := t.add(&MenuItem{Title: title, Checkable: true, Callback: callback})
	t.mu.Lock()
	t.checked[id] = checked
	t.mu.Unlock()
	return id
}

func (t *Tray) add(mi *MenuItem) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	mi.ID = len(t.items)
	t.items = append(t.items, mi)
	return mi.ID
}

// AddSeparator adds a separator to the menu
func (t *Tray) AddSeparator() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = append(t.items, nil) // nil indicates separator
}

// SetItemChecked sets the checked state of a menu item. It may be called
// before the tray is running.
func (t *Tray) SetItemChecked(id int, checked bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id < 0 || id >= len(t.items) || t.items[id] == nil {
		return
	}
	t.checked[id] = checked
	if item := t.items[id].item; t.ready && item != nil {
		if checked {
			item.Check()
		} else {
			item.Uncheck()
		}
	}
}

// SetItemTitle changes the label of a menu item.
func (t *Tray) SetItemTitle(id int, title string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id < 0 || id >= len(t.items) || t.items[id] == nil {
		return
	}
	t.titles[id] = title
	if item := t.items[id].item; t.ready && item != nil {
		item.SetTitle(title)
	}
}

// IsChecked returns the last checked state set for a menu item.
func (t *Tray) IsChecked(id int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.checked[id]
}

// Run starts the tray event loop (blocks)
func (t *Tray) Run() {
	systray.Run(t.setupMenu, t.exit)
}

func (t *Tray) exit() {
	close(t.quitCh)
	if t.onExit != nil {
		t.onExit()
	}
}

// setupMenu is called when systray is ready
func (t *Tray) setupMenu() {
	systray.SetTitle("colorpick")
	systray.SetTooltip(t.tooltip)
	systray.SetIcon(icon())

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, mi := range t.items {
		if mi == nil {
			systray.AddSeparator()
			continue
		}

		title := mi.Title
		if override, ok := t.titles[mi.ID]; ok {
			title = override
		}
		if mi.Checkable {
			mi.item = systray.AddMenuItemCheckbox(title, "", t.checked[mi.ID])
		} else {
			mi.item = systray.AddMenuItem(title, "")
		}

		if mi.Callback != nil {
			go t.forwardClicks(mi)
		}
	}
	t.ready = true
}

func (t *Tray) forwardClicks(mi *MenuItem) {
	for {
		select {
		case <-mi.item.ClickedCh:
			mi.Callback()
		case <-t.quitCh:
			return
		}
	}
}

// Stop stops the tray
func (t *Tray) Stop() {
	systray.Quit()
}

const iconSize = 16

// icon renders a 16x16 32-bit ICO of a hue wheel.
func icon() []byte {
	const (
		headerSize = 6 + 16
		dibSize    = 40
		pixelBytes = iconSize * iconSize * 4
		maskStride = 4 // 16 bits padded to 32
		maskBytes  = iconSize * maskStride
		imageBytes = dibSize + pixelBytes + maskBytes
	)

	buf := make([]byte, headerSize+imageBytes)
	le := binary.LittleEndian

	// ICONDIR
	le.PutUint16(buf[2:], 1) // type: icon
	le.PutUint16(buf[4:], 1) // count

	// ICONDIRENTRY
	buf[6] = iconSize
	buf[7] = iconSize
	le.PutUint16(buf[10:], 1)  // planes
	le.PutUint16(buf[12:], 32) // bit count
	le.PutUint32(buf[14:], imageBytes)
	le.PutUint32(buf[18:], headerSize)

	// BITMAPINFOHEADER; height counts the XOR and AND masks
	dib := buf[headerSize:]
	le.PutUint32(dib[0:], dibSize)
	le.PutUint32(dib[4:], iconSize)
	le.PutUint32(dib[8:], iconSize*2)
	le.PutUint16(dib[12:], 1)
	le.PutUint16(dib[14:], 32)
	le.PutUint32(dib[20:], pixelBytes)

	// BGRA rows, bottom-up. The AND mask stays zero: alpha decides.
	pix := dib[dibSize:]
	center := float64(iconSize-1) / 2
	for row := 0; row < iconSize; row++ {
		y := iconSize - 1 - row
		for x := 0; x < iconSize; x++ {
			dx, dy := float64(x)-center, float64(y)-center
			dist := math.Hypot(dx, dy)
			if dist > center+0.5 {
				continue
			}
			hue := math.Mod(math.Atan2(dy, dx)*180/math.Pi+360, 360)
			r, g, b := colorful.Hsv(hue, math.Min(1, dist/center), 1).RGB255()
			off := (row*iconSize + x) * 4
			pix[off] = b
			pix[off+1] = g
			pix[off+2] = r
			pix[off+3] = 0xFF
		}
	}
	return buf
}
